package cli

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	appmon "github.com/turtacn/KeyIP-Sentinel/internal/application/monitoring"
	"github.com/turtacn/KeyIP-Sentinel/internal/config"
	"github.com/turtacn/KeyIP-Sentinel/internal/domain/alert"
	"github.com/turtacn/KeyIP-Sentinel/internal/domain/watchlist"
	"github.com/turtacn/KeyIP-Sentinel/internal/infrastructure/database/memory"
	"github.com/turtacn/KeyIP-Sentinel/internal/infrastructure/database/postgres"
	pgrepos "github.com/turtacn/KeyIP-Sentinel/internal/infrastructure/database/postgres/repositories"
	"github.com/turtacn/KeyIP-Sentinel/internal/infrastructure/database/redis"
	"github.com/turtacn/KeyIP-Sentinel/internal/infrastructure/eventsource"
	"github.com/turtacn/KeyIP-Sentinel/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/KeyIP-Sentinel/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/KeyIP-Sentinel/internal/infrastructure/notification"
	apihttp "github.com/turtacn/KeyIP-Sentinel/internal/interfaces/http"
	"github.com/turtacn/KeyIP-Sentinel/internal/interfaces/http/handlers"
	"github.com/turtacn/KeyIP-Sentinel/pkg/types/common"
)

func newServeCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the monitoring engine and its HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			return runServe(cmd.Context(), cfg)
		},
	}
}

func loadConfig(opts *RootOptions) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if opts.ConfigPath != "" {
		cfg, err = config.Load(opts.ConfigPath)
	} else {
		cfg, err = config.LoadFromEnv()
	}
	if err != nil {
		return nil, err
	}
	if opts.LogLevel != "" {
		cfg.Log.Level = opts.LogLevel
	}
	return cfg, nil
}

// newLogger translates the configuration file's log section into the
// logging package's own config type.
func newLogger(c config.LogConfig) (logging.Logger, error) {
	lc := logging.LogConfig{
		Level:            c.Level,
		Format:           c.Format,
		EnableCaller:     c.EnableCaller,
		EnableStacktrace: c.EnableStacktrace,
	}
	if c.Output != "" {
		lc.OutputPaths = []string{c.Output}
	}
	return logging.NewLogger(lc)
}

// runServe assembles the full engine from configuration and blocks until the
// context is cancelled by a termination signal.
func runServe(parent context.Context, cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger, err := newLogger(cfg.Log)
	if err != nil {
		return err
	}
	logger = logger.Named("sentinel")
	logger.Info("starting",
		logging.String("version", Version),
		logging.String("commit", GitCommit))

	collector := prometheus.NewCollector()
	clock := common.SystemClock()

	// Persistence: postgres when enabled, otherwise in-process memory stores.
	var (
		watchlists  watchlist.Repository
		rules       watchlist.RuleRepository
		competitors watchlist.CompetitorRepository
		alerts      alert.Repository
		readiness   []handlers.ReadinessCheck
	)
	if cfg.Database.Enabled {
		if err := postgres.Migrate(cfg.Database, logger); err != nil {
			return err
		}
		conn, err := postgres.NewConnection(ctx, cfg.Database, logger)
		if err != nil {
			return err
		}
		defer conn.Close()
		watchlists = pgrepos.NewWatchlistRepository(conn.Pool(), logger)
		rules = pgrepos.NewRuleRepository(conn.Pool(), logger)
		competitors = pgrepos.NewCompetitorRepository(conn.Pool(), logger)
		alerts = pgrepos.NewAlertRepository(conn.Pool(), clock, logger)
		readiness = append(readiness, handlers.ReadinessCheck{
			Name:  "postgres",
			Check: func(c *gin.Context) error { return conn.Ping(c.Request.Context()) },
		})
	} else {
		logger.Warn("database disabled, using in-memory stores")
		watchlists = memory.NewWatchlistRepo()
		rules = memory.NewRuleRepo()
		competitors = memory.NewCompetitorRepo()
		alerts = memory.NewAlertRepo(clock)
	}

	// Delivery ledger and dedup index: redis when enabled, memory otherwise.
	var (
		ledger appmon.DeliveryLedger
		dedup  appmon.DedupIndex
	)
	if cfg.Redis.Enabled {
		client, err := redis.NewClient(cfg.Redis, logger)
		if err != nil {
			return err
		}
		defer func() { _ = client.Close() }()
		ledger = redis.NewDeliveryLedger(client)
		if cfg.Scheduler.DedupWindow >= 0 {
			dedup = redis.NewDedupIndex(client, cfg.Scheduler.DedupWindow)
		}
		readiness = append(readiness, handlers.ReadinessCheck{
			Name:  "redis",
			Check: func(c *gin.Context) error { return client.Ping(c.Request.Context()) },
		})
	} else {
		ledger = memory.NewDeliveryLedger()
		if cfg.Scheduler.DedupWindow >= 0 {
			dedup = memory.NewDedupIndex(cfg.Scheduler.DedupWindow)
		}
	}

	source, stopSource, err := eventsource.New(*cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := stopSource(); err != nil {
			logger.Warn("event source shutdown", logging.Err(err))
		}
	}()

	channels := []appmon.Channel{
		notification.NewEmailChannel(cfg.Notification.SMTP, logger),
		notification.NewWebhookChannel(cfg.Notification.WebhookTimeout, logger),
	}
	if cfg.Notification.PushEndpoint != "" {
		channels = append(channels,
			notification.NewPushChannel(cfg.Notification.PushEndpoint, cfg.Notification.WebhookTimeout, logger))
	}

	var publisher appmon.AlertPublisher
	if cfg.EventSource.Provider == "kafka" && cfg.Kafka.AlertTopic != "" {
		kp := notification.NewKafkaPublisher(cfg.Kafka, logger)
		defer func() { _ = kp.Close() }()
		publisher = kp
	}

	dispatcher := appmon.NewDispatcher(channels, ledger, clock, logger, collector,
		cfg.Notification.DefaultDailyCap)
	dispatcher.Start(cfg.Notification.DigestFlushInterval)

	engine := appmon.NewEngine(appmon.Dependencies{
		Watchlists:  watchlists,
		Rules:       rules,
		Competitors: competitors,
		Alerts:      alerts,
		Source:      source,
		Dispatcher:  dispatcher,
		Dedup:       dedup,
		Publisher:   publisher,
		Clock:       clock,
		Logger:      logger,
		Metrics:     collector,
		Scheduler:   cfg.Scheduler,
	})
	defer engine.Shutdown()

	if err := engine.ResumeAll(ctx); err != nil {
		return err
	}

	if cfg.Server.Mode != "" {
		gin.SetMode(cfg.Server.Mode)
	}
	routerCfg := apihttp.RouterConfig{
		WatchlistHandler:  handlers.NewWatchlistHandler(engine),
		RuleHandler:       handlers.NewRuleHandler(engine),
		AlertHandler:      handlers.NewAlertHandler(engine),
		CompetitorHandler: handlers.NewCompetitorHandler(engine),
		DashboardHandler:  handlers.NewDashboardHandler(engine),
		HealthHandler:     handlers.NewHealthHandler(readiness...),
		Logger:            logger,
	}
	if cfg.Metrics.Enabled {
		routerCfg.MetricsHandler = collector.Handler()
	}
	server := apihttp.NewServer(cfg.Server, apihttp.NewRouter(routerCfg), logger)

	errCh := make(chan error, 1)
	go func() { errCh <- server.Start() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutdown signal received")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Stop(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}
