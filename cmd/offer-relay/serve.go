package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mandilink/offer-relay/internal/config"
	"github.com/mandilink/offer-relay/internal/control"
	"github.com/mandilink/offer-relay/internal/extract"
	"github.com/mandilink/offer-relay/internal/lexicon"
	"github.com/mandilink/offer-relay/internal/relay"
	"github.com/mandilink/offer-relay/internal/stats"
	"github.com/mandilink/offer-relay/internal/transport"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the relay server",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger, err := buildLogger(cfg.Logging.Level)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	// Lexicon defects are dropped entries, not fatal errors.
	for _, defect := range lexicon.Verify(lexicon.CropTable) {
		logger.Warn("lexicon defect", zap.String("defect", defect))
	}
	lex := lexicon.FromTable(lexicon.CropTable)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var rdb *redis.Client
	if cfg.Redis.Host != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr()})
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Warn("redis unreachable", zap.String("addr", cfg.Redis.Addr()), zap.Error(err))
		}
	} else {
		logger.Info("redis not configured, state will not survive restarts")
	}

	hub := control.NewHub(0)
	feed := control.NewFeed(hub, rdb, logger)
	sw := control.NewSwitch(ctx, rdb, true, logger)
	recorder := stats.NewRecorder(rdb, logger)

	gateway := transport.NewGateway(transport.GatewayConfig{
		BaseURL:   cfg.Gateway.BaseURL,
		Token:     cfg.Gateway.Token,
		SendRPS:   cfg.Gateway.SendRPS,
		SendBurst: cfg.Gateway.SendBurst,
	}, logger)

	oracle := extract.NewClient(cfg.Oracle.APIKey, cfg.Oracle.Model, logger)
	extractor := extract.New(oracle, lex, cfg.Routing.Languages, logger)

	router := relay.NewRouter(relay.RouterConfig{
		Table:            cfg.Routing.Table,
		Languages:        cfg.Routing.Languages,
		BroadcastChannel: cfg.Routing.BroadcastChannel,
	}, gateway, gateway, feed, recorder, logger)

	service := relay.NewService(ctx, relay.ServiceConfig{
		SourceChannels: cfg.Routing.SourceChannels,
	}, sw, feed, recorder, extractor, router, rdb, logger)

	events, err := transport.NewEventHandler(ctx, service, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize event receiver: %w", err)
	}

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	api := &control.API{
		Switch: sw,
		Hub:    hub,
		Feed:   feed,
		Stats:  recorder,
		Redis:  rdb,
		Events: events,
		Logger: logger,
	}
	api.Register(engine)

	srv := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: engine,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("relay listening",
			zap.String("addr", cfg.Server.Addr),
			zap.Strings("languages", cfg.Routing.Languages),
			zap.Int("categories", len(cfg.Routing.Table)))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("http shutdown error", zap.Error(err))
		}
		service.Drain()
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("relay stopped")
	return nil
}
