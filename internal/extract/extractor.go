package extract

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/mandilink/offer-relay/internal/langfix"
	"github.com/mandilink/offer-relay/internal/lexicon"
	"github.com/mandilink/offer-relay/internal/textfmt"
)

// ErrNoOffers reports a response neither parsing strategy could read.
var ErrNoOffers = errors.New("extract: no parsable offers in oracle response")

type completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Extractor runs the extraction round: build the prompt, call the oracle,
// parse, then validate and normalize each candidate.
type Extractor struct {
	oracle completer
	lex    *lexicon.Lexicon
	langs  []string
	logger *zap.Logger
}

// New builds an extractor targeting the given language codes, in order.
func New(oracle completer, lex *lexicon.Lexicon, langs []string, logger *zap.Logger) *Extractor {
	return &Extractor{oracle: oracle, lex: lex, langs: langs, logger: logger}
}

// ExtractOffers processes one inbound message body. A response that cannot
// be parsed at all returns ErrNoOffers; a parsable response with no usable
// candidates returns an empty slice and no error.
func (x *Extractor) ExtractOffers(ctx context.Context, body string) ([]Offer, Outcome, error) {
	prompt := BuildPrompt(body, x.langs, x.lex)

	raw, err := x.oracle.Complete(ctx, prompt)
	if err != nil {
		return nil, ParseFailed, fmt.Errorf("oracle completion: %w", err)
	}

	candidates, outcome := ParseResponse(raw)
	if outcome == ParseFailed {
		x.logger.Warn("oracle response not parsable", zap.Int("response_len", len(raw)))
		return nil, ParseFailed, ErrNoOffers
	}

	offers := x.normalize(candidates)
	x.logger.Info("extraction complete",
		zap.Int("candidates", len(candidates)),
		zap.Int("offers", len(offers)),
		zap.Stringer("parse", outcome))
	return offers, outcome, nil
}

// normalize validates each candidate, forces canonical casing, lets the
// lexicon override the oracle's standardization when the claimed name
// resolves locally, and formats and corrects every language text. Candidates
// sharing an extractedName collapse to one entry: the last value wins, at
// the first-seen position.
func (x *Extractor) normalize(candidates []Offer) []Offer {
	position := make(map[string]int)
	out := make([]Offer, 0, len(candidates))

	for _, c := range candidates {
		c.ExtractedName = strings.ToUpper(strings.TrimSpace(c.ExtractedName))
		c.StandardizedName = strings.ToUpper(strings.TrimSpace(c.StandardizedName))
		c.Category = strings.ToUpper(strings.TrimSpace(c.Category))

		if c.ExtractedName == "" || c.StandardizedName == "" || c.Category == "" || len(c.Details) == 0 {
			x.logger.Warn("dropping candidate with missing fields",
				zap.String("extracted", c.ExtractedName),
				zap.String("standardized", c.StandardizedName))
			continue
		}

		if entry, ok := x.lex.Resolve(c.StandardizedName); ok {
			c.StandardizedName = entry.Crop
			c.Category = entry.Category
		}

		details := make(map[string]string, len(c.Details))
		for lang, text := range c.Details {
			lang = strings.ToLower(strings.TrimSpace(lang))
			text = textfmt.Format(text)
			text = langfix.Apply(lang, text)
			text = langfix.ApplyCrop(lang, c.StandardizedName, text)
			if lang == "" || text == "" {
				continue
			}
			details[lang] = text
		}
		if len(details) == 0 {
			x.logger.Warn("dropping candidate with no usable texts",
				zap.String("extracted", c.ExtractedName))
			continue
		}
		c.Details = details

		if pos, seen := position[c.ExtractedName]; seen {
			out[pos] = c
			continue
		}
		position[c.ExtractedName] = len(out)
		out = append(out, c)
	}
	return out
}
