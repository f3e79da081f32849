// Package relay runs the per-message pipeline: admission, extraction,
// consolidation, and dispatch to destination channels.
package relay

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/mandilink/offer-relay/internal/control"
	"github.com/mandilink/offer-relay/internal/extract"
	"github.com/mandilink/offer-relay/internal/stats"
	"github.com/mandilink/offer-relay/internal/transport"
)

// offerSeparator joins offer texts inside one consolidated (category,
// language) message.
const offerSeparator = "\n\n----------------------\n\n"

// Broadcast fixtures per language. Unlisted languages fall back to the
// English banner and separator.
var (
	broadcastBanners = map[string]string{
		"en": "📢 TODAY'S MANDI OFFERS",
		"hi": "📢 आज के मंडी भाव",
		"mr": "📢 आजचे बाजार भाव",
	}
	sectionSeparators = map[string]string{
		"en": "\n\n==============================\n\n",
		"hi": "\n\n──────────────────────\n\n",
		"mr": "\n\n──────────────────────\n\n",
	}
)

// RouterConfig is the static routing data: category → language → channel,
// the language order, and the optional catch-all broadcast channel.
type RouterConfig struct {
	Table            map[string]map[string]string
	Languages        []string
	BroadcastChannel string
}

// Router consolidates one message's validated offers by (category, language),
// dispatches each batch to its mapped channel, and aggregates everything
// sent into a per-language broadcast for the catch-all channel.
type Router struct {
	table     map[string]map[string]string
	langs     []string
	broadcast string
	sender    transport.Sender
	directory transport.Directory
	feed      *control.Feed
	stats     *stats.Recorder
	logger    *zap.Logger
}

// NewRouter builds a router over the given transport.
func NewRouter(cfg RouterConfig, sender transport.Sender, directory transport.Directory, feed *control.Feed, rec *stats.Recorder, logger *zap.Logger) *Router {
	return &Router{
		table:     cfg.Table,
		langs:     cfg.Languages,
		broadcast: cfg.BroadcastChannel,
		sender:    sender,
		directory: directory,
		feed:      feed,
		stats:     rec,
		logger:    logger,
	}
}

type bucketKey struct {
	category string
	lang     string
}

// Dispatch walks one message's offers through collection, grouping,
// per-category dispatch, and the final broadcast. A failure affects only the
// send it occurred on; there is no retry.
func (r *Router) Dispatch(ctx context.Context, messageID string, offers []extract.Offer) {
	routed := r.collect(ctx, messageID, offers)
	buckets, categoryOrder := groupOffers(routed)

	// lang → category-labelled batch texts, in dispatch order.
	bundle := make(map[string][]string)

	for _, category := range categoryOrder {
		for _, lang := range r.langs {
			channelID, mapped := r.table[category][lang]
			if !mapped || channelID == "" {
				continue
			}

			body := strings.TrimSpace(strings.Join(buckets[bucketKey{category, lang}], offerSeparator))
			if body == "" {
				r.feed.Publish(ctx, control.StatusEvent{
					Kind: control.EventDispatchSkipped, MessageID: messageID,
					Category: category, Lang: lang, Detail: "empty batch",
				})
				continue
			}

			if err := r.deliver(ctx, channelID, body); err != nil {
				r.stats.Incr(ctx, stats.SendsFailed, 1)
				r.logger.Error("dispatch failed",
					zap.String("message", messageID),
					zap.String("category", category),
					zap.String("lang", lang),
					zap.String("channel", channelID),
					zap.Error(err))
				r.feed.Publish(ctx, control.StatusEvent{
					Kind: control.EventDispatchError, MessageID: messageID,
					Category: category, Lang: lang, Channel: channelID, Detail: err.Error(),
				})
				continue
			}

			r.stats.Incr(ctx, stats.SendsOK, 1)
			r.feed.Publish(ctx, control.StatusEvent{
				Kind: control.EventDispatchSent, MessageID: messageID,
				Category: category, Lang: lang, Channel: channelID,
			})
			bundle[lang] = append(bundle[lang], fmt.Sprintf("*%s*\n\n%s", category, body))
		}
	}

	r.broadcastBundle(ctx, messageID, bundle)
}

// collect drops offers whose category has no routing entry.
func (r *Router) collect(ctx context.Context, messageID string, offers []extract.Offer) []extract.Offer {
	routed := make([]extract.Offer, 0, len(offers))
	for _, o := range offers {
		if _, ok := r.table[o.Category]; !ok {
			r.logger.Warn("offer category has no route",
				zap.String("message", messageID),
				zap.String("category", o.Category),
				zap.String("extracted", o.ExtractedName))
			r.feed.Publish(ctx, control.StatusEvent{
				Kind: control.EventDispatchSkipped, MessageID: messageID,
				Category: o.Category, Detail: "no routing entry",
			})
			continue
		}
		routed = append(routed, o)
	}
	return routed
}

// groupOffers buckets offer texts by (category, language). Categories keep
// first-seen order; texts within a bucket keep the order offers arrived in.
func groupOffers(offers []extract.Offer) (map[bucketKey][]string, []string) {
	buckets := make(map[bucketKey][]string)
	var order []string
	seen := make(map[string]bool)

	for _, o := range offers {
		if !seen[o.Category] {
			seen[o.Category] = true
			order = append(order, o.Category)
		}
		for lang, text := range o.Details {
			key := bucketKey{o.Category, lang}
			buckets[key] = append(buckets[key], text)
		}
	}
	return buckets, order
}

// broadcastBundle sends each language's aggregate to the catch-all channel.
func (r *Router) broadcastBundle(ctx context.Context, messageID string, bundle map[string][]string) {
	if r.broadcast == "" {
		r.feed.Publish(ctx, control.StatusEvent{
			Kind: control.EventBroadcastSkipped, MessageID: messageID, Detail: "broadcast channel unset",
		})
		return
	}
	if _, err := r.directory.Channel(ctx, r.broadcast); err != nil {
		r.logger.Warn("broadcast channel invalid",
			zap.String("channel", r.broadcast), zap.Error(err))
		r.feed.Publish(ctx, control.StatusEvent{
			Kind: control.EventBroadcastSkipped, MessageID: messageID,
			Channel: r.broadcast, Detail: "broadcast channel invalid",
		})
		return
	}

	for _, lang := range r.langs {
		sections := bundle[lang]
		if len(sections) == 0 {
			r.feed.Publish(ctx, control.StatusEvent{
				Kind: control.EventBroadcastSkipped, MessageID: messageID,
				Lang: lang, Detail: "nothing dispatched",
			})
			continue
		}

		banner, ok := broadcastBanners[lang]
		if !ok {
			banner = broadcastBanners["en"]
		}
		separator, ok := sectionSeparators[lang]
		if !ok {
			separator = sectionSeparators["en"]
		}
		body := banner + "\n\n" + strings.Join(sections, separator)

		if err := r.sender.Send(ctx, r.broadcast, body); err != nil {
			r.stats.Incr(ctx, stats.SendsFailed, 1)
			r.logger.Error("broadcast failed",
				zap.String("message", messageID),
				zap.String("lang", lang),
				zap.Error(err))
			r.feed.Publish(ctx, control.StatusEvent{
				Kind: control.EventDispatchError, MessageID: messageID,
				Lang: lang, Channel: r.broadcast, Detail: err.Error(),
			})
			continue
		}

		r.stats.Incr(ctx, stats.BroadcastsOK, 1)
		r.feed.Publish(ctx, control.StatusEvent{
			Kind: control.EventBroadcastSent, MessageID: messageID,
			Lang: lang, Channel: r.broadcast,
		})
	}
}

// deliver resolves the destination then sends. Both steps count as the same
// dispatch attempt for failure accounting.
func (r *Router) deliver(ctx context.Context, channelID, body string) error {
	if _, err := r.directory.Channel(ctx, channelID); err != nil {
		return fmt.Errorf("resolve channel %s: %w", channelID, err)
	}
	return r.sender.Send(ctx, channelID, body)
}
