package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"solhype/internal/bot"
	"solhype/internal/cache"
	"solhype/internal/compose"
	"solhype/internal/config"
	"solhype/internal/db"
	"solhype/internal/domain"
	"solhype/internal/handler"
	"solhype/internal/history"
	"solhype/internal/job"
	"solhype/internal/logger"
	"solhype/internal/notify"
	"solhype/internal/observability"
	"solhype/internal/provider"
	"solhype/internal/service"
	"solhype/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/trace"

	_ "solhype/docs"
)

const (
	discoveryKey = "discovery"
	postingKey   = "posting"
)

type tokenProvider interface {
	FetchRecent(ctx context.Context, limit int) ([]domain.TokenRecord, error)
	FetchByMint(ctx context.Context, mint string) (domain.TokenRecord, error)
}

var (
	loadEnvFunc      = godotenv.Load
	loadConfigFunc   = config.Load
	setupLoggerFunc  = logger.Setup
	initTracerFunc   = tracing.InitTracer
	initRedisFunc    = cache.InitRedis
	initPostgresFunc = db.InitPostgres
	newSQLiteFunc    = history.NewSQLiteBackend
	newProviderFunc  = func(tracer trace.Tracer, opts provider.JupiterOptions) tokenProvider {
		return provider.NewJupiterProvider(tracer, opts)
	}
	newTelegramBotFunc     = bot.NewTelegramBot
	startTelegramBotFunc   = bot.StartTelegramBot
	newTwitterNotifierFunc = func(ctx context.Context, creds notify.TwitterCredentials, tracer trace.Tracer) notify.Notifier {
		return notify.NewTwitterNotifier(ctx, creds, tracer)
	}
	newRouterFunc          = gin.Default
	setupSignalNotify      = signal.Notify
	waitForSignalFunc      = func(quit <-chan os.Signal) { <-quit }
	startHTTPServerFunc    = func(srv *http.Server) error { return srv.ListenAndServe() }
	shutdownHTTPServerFunc = func(srv *http.Server, ctx context.Context) error { return srv.Shutdown(ctx) }
)

// @title           SolHype API
// @version         0.3
// @description     Solana token discovery: loop control, persisted history and on-demand token analysis.

// @host      localhost:8080
// @BasePath  /
func main() {
	_ = loadEnvFunc()

	cfg := loadConfigFunc()
	setupLoggerFunc(cfg.LogLevel, cfg.LogFormat, os.Stderr)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Init tracing
	tp, tracer, err := initTracerFunc(ctx, tracing.Options{Enabled: cfg.TracingEnabled, Endpoint: cfg.OTLPEndpoint})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize tracer")
	}
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := tp.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("error shutting down tracer provider")
		}
	}()

	metrics := observability.NewMetrics()

	// Redis backs the token lookup cache and, optionally, the history store
	redisClient, err := initRedisFunc(ctx, cfg.RedisURL)
	if err != nil {
		if cfg.HistoryBackend == "redis" {
			log.Fatal().Err(err).Msg("redis history backend unavailable")
		}
		log.Warn().Err(err).Msg("redis unavailable, token lookups will not be cached")
		redisClient = nil
	} else {
		defer redisClient.Close()
	}

	backend, closeBackend, err := openHistoryBackend(ctx, cfg, redisClient)
	if err != nil {
		log.Fatal().Err(err).Str("backend", cfg.HistoryBackend).Msg("failed to open history backend")
	}
	defer closeBackend()
	log.Info().Str("backend", backend.Name()).Msg("history backend ready")

	discoveryStore := history.NewStore(backend, discoveryKey, tracer)
	postingStore := history.NewStore(backend, postingKey, tracer)

	jupiter := newProviderFunc(tracer, provider.JupiterOptions{
		BaseURL:       cfg.JupiterBaseURL,
		Timeout:       cfg.JupiterTimeout(),
		RatePerSecond: cfg.JupiterRatePerSec,
	})

	var cacheClient service.RedisClient
	if redisClient != nil {
		cacheClient = redisClient
	}
	tokenService := service.NewTokenService(tracer, jupiter, cacheClient, cfg.TokenCacheTTL())

	// Telegram bot doubles as the discovery alert channel
	telegramBot, err := newTelegramBotFunc(cfg.TelegramBotToken)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create Telegram bot")
	}
	var alerts notify.Notifier = notify.LogNotifier{Channel: "telegram"}
	if telegramBot != nil {
		alerts = notify.NewTelegramNotifier(telegramBot, tracer)
	}

	discovery := job.NewLoop(ctx, job.LoopConfig{
		Name:        discoveryKey,
		Interval:    cfg.DiscoveryInterval(),
		Destination: cfg.TelegramAlertsGroup,
		Tracer:      tracer,
		Metrics:     metrics,
		Task: (&job.DiscoveryTask{
			Loop:        discoveryKey,
			Fetcher:     jupiter,
			Store:       discoveryStore,
			Notifier:    alerts,
			Channel:     "telegram",
			Destination: cfg.TelegramAlertsGroup,
			FetchLimit:  cfg.DiscoveryFetchLimit,
			Metrics:     metrics,
		}).Run,
	})

	var posting *job.Loop
	if cfg.TwitterConfigured() {
		var writer compose.Writer = compose.HeuristicWriter{}
		if w := compose.NewOpenAIWriter(cfg.OpenAIAPIKey, cfg.OpenAIModel, tracer); w != nil {
			writer = w
		}
		creds := notify.TwitterCredentials{
			ConsumerKey:       cfg.TwitterConsumerKey,
			ConsumerSecret:    cfg.TwitterConsumerSec,
			AccessToken:       cfg.TwitterAccessToken,
			AccessTokenSecret: cfg.TwitterAccessSecret,
		}
		posting = job.NewLoop(ctx, job.LoopConfig{
			Name:     postingKey,
			Interval: cfg.PostingInterval(),
			Tracer:   tracer,
			Metrics:  metrics,
			Task: (&job.PostingTask{
				Loop:       postingKey,
				Fetcher:    jupiter,
				Store:      postingStore,
				Writer:     writer,
				Notifier:   newTwitterNotifierFunc(ctx, creds, tracer),
				Channel:    "twitter",
				FetchLimit: cfg.DiscoveryFetchLimit,
				Metrics:    metrics,
			}).Run,
		})
	}

	loops := []*job.Loop{discovery}
	if posting != nil {
		loops = append(loops, posting)
	}

	if telegramBot != nil {
		startTelegramBotFunc(telegramBot, newCommands(discovery, posting, tokenService, discoveryStore))
	}

	if cfg.DiscoveryAutostart {
		discovery.Start()
		log.Info().Dur("interval", cfg.DiscoveryInterval()).Str("destination", cfg.TelegramAlertsGroup).Msg("token discovery started")
	}
	if posting != nil && cfg.PostingAutostart {
		posting.Start()
		log.Info().Dur("interval", cfg.PostingInterval()).Msg("twitter posting started")
	}

	// Create handlers and routes
	h := handler.New(tracer, tokenService)
	h.AddLoop(discovery, discoveryStore)
	if posting != nil {
		h.AddLoop(posting, postingStore)
	}
	h.SetMetricsHandler(metrics.Handler())

	r := newRouterFunc()
	r.Use(otelgin.Middleware(tracing.ServiceName))

	h.RegisterRoutes(r, cfg.APIKey)
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	srv := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.HTTPPort),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := startHTTPServerFunc(srv); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("listen")
		}
	}()
	log.Info().Str("addr", srv.Addr).Msg("http server listening")

	quit := make(chan os.Signal, 1)
	setupSignalNotify(quit, syscall.SIGINT, syscall.SIGTERM)
	waitForSignalFunc(quit)
	log.Info().Msg("shutting down server...")

	if telegramBot != nil {
		telegramBot.Stop()
	}
	for _, l := range loops {
		l.Stop()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := shutdownHTTPServerFunc(srv, shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	cancel()
	for _, l := range loops {
		l.Wait()
	}

	log.Info().Msg("server exiting")
}

// newCommands keeps an absent posting loop as a nil interface.
func newCommands(discovery, posting *job.Loop, tokens bot.TokenAnalyzer, h bot.HistoryReader) *bot.Commands {
	cmds := &bot.Commands{Discovery: discovery, Tokens: tokens, History: h}
	if posting != nil {
		cmds.Posting = posting
	}
	return cmds
}

func openHistoryBackend(ctx context.Context, cfg *config.Config, redisClient *redis.Client) (history.Backend, func(), error) {
	noop := func() {}
	switch cfg.HistoryBackend {
	case "memory":
		return history.NewMemoryBackend(), noop, nil
	case "sqlite":
		if err := os.MkdirAll(filepath.Dir(cfg.SQLitePath), 0o755); err != nil {
			return nil, noop, err
		}
		b, err := newSQLiteFunc(cfg.SQLitePath)
		if err != nil {
			return nil, noop, err
		}
		return b, func() { _ = b.Close() }, nil
	case "redis":
		return history.NewRedisBackend(redisClient), noop, nil
	case "postgres":
		pool, err := initPostgresFunc(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, noop, err
		}
		b := history.NewPostgresBackend(pool)
		if err := b.RunMigrations(ctx); err != nil {
			pool.Close()
			return nil, noop, err
		}
		return b, pool.Close, nil
	default:
		return history.NewFileBackend(cfg.HistoryPath), noop, nil
	}
}
