package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"telegram-fish-shop/internal/config"
	"telegram-fish-shop/internal/domain/model"
	"telegram-fish-shop/internal/domain/ports/adapter"
	"telegram-fish-shop/internal/infra/adapters/commerce"
	tele "telegram-fish-shop/internal/infra/adapters/telegram"
	"telegram-fish-shop/internal/infra/alert"
	"telegram-fish-shop/internal/infra/cache"
	pg "telegram-fish-shop/internal/infra/db/postgres"
	"telegram-fish-shop/internal/infra/i18n"
	"telegram-fish-shop/internal/infra/logging"
	"telegram-fish-shop/internal/infra/metrics"
	red "telegram-fish-shop/internal/infra/redis"
	"telegram-fish-shop/internal/infra/sched"
	"telegram-fish-shop/internal/infra/security"
	"telegram-fish-shop/internal/infra/web"
	"telegram-fish-shop/internal/infra/worker"
	"telegram-fish-shop/internal/usecase"
)

// set with -ldflags "-X main.version=... -X main.commit=..."
var (
	version = "dev"
	commit  = "none"
)

// bot is what the process needs from either Telegram adapter.
type bot interface {
	adapter.Renderer
	SendMessage(ctx context.Context, chatID int64, text string) error
}

func main() {
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "developer mode: console logs, no PII redaction")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	metrics.MustRegister()
	metrics.SetBuildInfo(version, commit)
	if cfg.Runtime.Dev {
		logger.Warn().Msg("developer mode enabled")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ---- Redis ----
	redisClient, err := red.NewClient(ctx, &cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("redis")
	}
	defer redisClient.Close()
	rateLimiter := red.NewRateLimiter(redisClient)

	// ---- Postgres order journal ----
	pool, err := pg.NewPgxPool(ctx, cfg.Database)
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres")
	}
	defer pool.Close()
	if err := pg.EnsureSchema(ctx, pool); err != nil {
		logger.Fatal().Err(err).Msg("schema")
	}
	var fieldSealer pg.FieldSealer
	if cfg.Security.EncryptionKey != "" {
		s, err := security.NewSealer(cfg.Security.EncryptionKey)
		if err != nil {
			logger.Fatal().Err(err).Msg("encryption key")
		}
		fieldSealer = s
	} else {
		logger.Warn().Msg("security.encryption_key not set; contacts are stored in clear")
	}
	orderRepo := pg.NewOrderRepo(pool, fieldSealer)

	// ---- Commerce backend ----
	httpClient := &http.Client{Timeout: cfg.Commerce.Timeout}
	tokens := commerce.NewTokenCache(cfg.Commerce, red.NewCredentialStore(redisClient), httpClient, logger)
	shop, err := commerce.NewClient(cfg.Commerce, tokens, httpClient, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("commerce client")
	}
	products, err := shop.ListProducts(ctx)
	if err != nil {
		logger.Fatal().Err(err).Msg("load catalog")
	}
	catalog := model.NewCatalog(products)
	metrics.SetCatalogSize(catalog.Len())
	logger.Info().Int("products", catalog.Len()).Msg("catalog loaded")

	// ---- Sessions ----
	sessionCache, err := cache.NewSessionCache(ctx, cfg.Session)
	if err != nil {
		logger.Fatal().Err(err).Msg("session cache")
	}
	defer sessionCache.Close()
	sessions := cache.NewSessionStore(sessionCache, red.NewCustomerRepo(redisClient).WithSealer(fieldSealer))

	// ---- Telegram ----
	var (
		botAdapter bot
		realBot    *tele.RealTelegramBotAdapter
	)
	if cfg.Bot.Mode == "noop" {
		botAdapter = tele.NewNoopBotAdapter(logger)
	} else {
		realBot, err = tele.NewRealTelegramBotAdapter(&cfg.Bot, logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("telegram")
		}
		botAdapter = realBot
	}

	// ---- Alerts ----
	tgSink := alert.NewTelegramSink(botAdapter, cfg.Bot.AdminChatID, cfg.Alert.QueueSize, logger)
	tgSink.Start()
	defer tgSink.Stop()
	sinks := []adapter.AlertSink{tgSink}
	if cfg.Alert.SentryDSN != "" {
		sentrySink, err := alert.NewSentrySink(cfg.Alert.SentryDSN, cfg.Alert.Environment, version)
		if err != nil {
			logger.Fatal().Err(err).Msg("sentry")
		}
		defer sentrySink.Flush(2 * time.Second)
		sinks = append(sinks, sentrySink)
	}
	alerts := alert.Fanout(sinks...)

	// ---- Use cases ----
	tr, err := i18n.NewTranslator(i18n.LocalesFS, cfg.Bot.Language)
	if err != nil {
		logger.Fatal().Err(err).Msg("i18n")
	}
	keys := append(append([]string{}, usecase.ScreenKeys...), sched.DigestKeys...)
	if missing := tr.Missing(keys...); len(missing) > 0 {
		logger.Fatal().Strs("keys", missing).Str("lang", tr.Lang()).Msg("locale is incomplete")
	}
	logger.Info().Str("lang", tr.Lang()).Msg("locale loaded")
	engine := usecase.NewConversationUseCase(
		catalog, shop, shop, sessions, botAdapter, alerts, orderRepo, tr,
		usecase.ConversationOptions{
			QuantityTiers: cfg.Shop.QuantityTiers,
			Currency:      cfg.Commerce.Currency,
			Dev:           cfg.Runtime.Dev,
		},
		logger,
	)
	orderUC := usecase.NewOrderUseCase(orderRepo, logger)

	workers := worker.NewPool(cfg.Bot.Workers, 16, logger)
	workers.Start(ctx)
	defer workers.Stop()

	// ---- Run ----
	g, gctx := errgroup.WithContext(ctx)
	if realBot != nil {
		realBot.Bind(engine, workers, rateLimiter)
		g.Go(func() error { return realBot.StartPolling(gctx) })
	}
	auth := web.NewAuthManager(cfg.Admin.JWTSecret, cfg.Admin.TokenTTL)
	g.Go(func() error {
		srv := web.NewServer(orderUC, engine, auth, logger).WithHealthChecks(
			web.HealthCheck{Name: "redis", Check: redisClient.Ping},
			web.HealthCheck{Name: "postgres", Check: pool.Ping},
		)
		return srv.ListenAndServe(gctx, cfg.Admin.Port)
	})
	digest := sched.NewOrderDigestWorker(cfg.Scheduler.OrderDigestInterval, orderUC, botAdapter, tr, cfg.Bot.AdminChatID, cfg.Commerce.Currency, logger)
	g.Go(func() error { return digest.Run(gctx) })

	alerts.Notify(ctx, adapter.Alert{
		Severity: adapter.AlertInfo,
		Message:  fmt.Sprintf("fish shop %s started with %d products", version, catalog.Len()),
	})
	logger.Info().Str("version", version).Msg("started")

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error().Err(err).Msg("stopped with error")
		os.Exit(1)
	}
	logger.Info().Msg("shutdown complete")
}
