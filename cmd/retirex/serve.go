package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/Martingim-10/retirex/internal/cache"
	"github.com/Martingim-10/retirex/internal/chat"
	"github.com/Martingim-10/retirex/internal/config"
	"github.com/Martingim-10/retirex/internal/projection"
	"github.com/Martingim-10/retirex/internal/server"
	"github.com/Martingim-10/retirex/internal/sheets"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const (
	redisKeyPrefix   = "retirex:keyword:"
	redisPingTimeout = 2 * time.Second
)

func serveCmd(global *globalOptions) *cobra.Command {
	var address string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the projection and chat HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			conf, logger, err := loadRuntime(global)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			if address != "" {
				conf.Server.Address = address
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			opts, cleanup, err := buildHandlerOptions(ctx, conf, logger)
			if err != nil {
				return err
			}
			defer cleanup()

			logger.Info("starting retirex",
				zap.String("op", "main.serve"),
				zap.String("version", version),
				zap.String("address", conf.Server.Address),
				zap.String("method", string(opts.Engine.Policy().Method)),
				zap.Bool("chat", opts.Chat != nil),
				zap.Bool("sheets", conf.Sheets.Enabled()),
			)

			return server.ListenAndServe(ctx, conf.Server, server.NewHandler(logger, opts), logger)
		},
	}

	cmd.Flags().StringVar(&address, "address", "", "listen address override, e.g. :8080")
	return cmd
}

// buildHandlerOptions wires the engine and the optional collaborators. The
// returned cleanup releases any connections it opened.
func buildHandlerOptions(ctx context.Context, conf *config.Configuration, logger *zap.Logger) (server.Options, func(), error) {
	cleanup := func() {}

	engine, err := projection.NewEngine(conf.Projection.Policy())
	if err != nil {
		return server.Options{}, cleanup, err
	}
	maxBodySize, err := server.BodyLimit(conf.Server)
	if err != nil {
		return server.Options{}, cleanup, err
	}

	opts := server.Options{
		Engine:         engine,
		MaxBodySize:    maxBodySize,
		Version:        version,
		AllowedOrigins: conf.Server.AllowedOrigins,
		ExposeRates:    conf.Projection.ExposeRates,
		QuoteTimeout:   conf.Sheets.Timeout,
	}

	var (
		lookup   chat.KeywordLookup
		recorder chat.Recorder
		answerer chat.Answerer
	)

	if conf.Sheets.Enabled() {
		client, err := sheets.NewClient(ctx, conf.Sheets, logger)
		if err != nil {
			return server.Options{}, cleanup, err
		}
		keywordCache, closeCache := buildCache(ctx, conf.Cache, logger)
		cleanup = closeCache

		lookup = chat.NewCachedLookup(client, keywordCache, conf.Cache.TTL, logger)
		recorder = client
		opts.Quotes = client
	}

	if conf.Chat.ChatEnabled() {
		answerer = chat.NewOpenAIClient(chat.OpenAIOptions{
			APIKey:       conf.Chat.APIKey,
			BaseURL:      conf.Chat.BaseURL,
			Model:        conf.Chat.Model,
			MaxTokens:    conf.Chat.MaxTokens,
			SystemPrompt: conf.Chat.SystemPrompt,
			Timeout:      conf.Chat.Timeout,
		})
	}

	if lookup != nil || answerer != nil {
		opts.Chat = chat.NewService(chat.Options{
			Lookup:      lookup,
			Answerer:    answerer,
			Recorder:    recorder,
			MaxMessages: conf.Chat.MaxMessages,
			Logger:      logger,
		})
	}

	return opts, cleanup, nil
}

// buildCache prefers Redis when configured and reachable, and falls back to
// the in-memory cache otherwise.
func buildCache(ctx context.Context, conf config.CacheConfig, logger *zap.Logger) (cache.Cache, func()) {
	if conf.RedisAddr == "" {
		return cache.NewMemoryCache(), func() {}
	}

	rc := cache.NewRedisCache(cache.RedisOptions{
		Addr:     conf.RedisAddr,
		Password: conf.RedisPassword,
		DB:       conf.RedisDB,
		Prefix:   redisKeyPrefix,
	})

	pingCtx, cancel := context.WithTimeout(ctx, redisPingTimeout)
	defer cancel()
	if err := rc.Ping(pingCtx); err != nil {
		logger.Warn("redis unavailable, using in-memory keyword cache",
			zap.String("op", "main.buildCache"),
			zap.String("address", conf.RedisAddr),
			zap.Error(err),
		)
		_ = rc.Close()
		return cache.NewMemoryCache(), func() {}
	}

	return rc, func() { _ = rc.Close() }
}
