// Package app wires configuration, infrastructure clients, repositories and
// services into the object graph shared by cmd/server and cmd/worker.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/ignite/adlens/internal/auth"
	"github.com/ignite/adlens/internal/cache"
	"github.com/ignite/adlens/internal/config"
	"github.com/ignite/adlens/internal/insight"
	"github.com/ignite/adlens/internal/pkg/distlock"
	"github.com/ignite/adlens/internal/pkg/logger"
	"github.com/ignite/adlens/internal/platform"
	"github.com/ignite/adlens/internal/platform/google"
	"github.com/ignite/adlens/internal/platform/meta"
	"github.com/ignite/adlens/internal/report"
	"github.com/ignite/adlens/internal/repository/postgres"
	"github.com/ignite/adlens/internal/service/analytics"
	"github.com/ignite/adlens/internal/service/campaign"
	"github.com/ignite/adlens/internal/service/connection"
	"github.com/ignite/adlens/internal/service/syncer"
	"github.com/ignite/adlens/internal/service/workspace"
	"github.com/ignite/adlens/internal/worker"
	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/redis/go-redis/v9"
)

// App holds the wired services.
type App struct {
	Config *config.Config
	DB     *sql.DB
	Redis  *redis.Client
	AWS    *aws.Config
	S3     *s3.Client

	Users       *postgres.UserRepo
	Workspaces  *workspace.Service
	Connections *connection.Service
	Campaigns   *campaign.Service
	Analytics   *analytics.Service
	Sync        *syncer.Service
	Insights    *insight.Service
	Reports     *report.Service
	Scheduler   *worker.SyncScheduler
}

// ConfigureLogger applies the logging section of cfg to the default logger.
func ConfigureLogger(cfg config.LoggingConfig) {
	logger.SetLevel(logger.ParseLevel(cfg.Level))
	logger.SetRedactPII(!cfg.DisableRedaction)
}

// New opens the database, optional Redis and AWS clients and builds every
// service. Close releases the connections.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	a := &App{Config: cfg}

	db, err := OpenDB(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}
	a.DB = db
	logger.Info("database connected", "max_open_conns", cfg.Database.MaxOpenConns)

	a.Redis = OpenRedis(ctx, cfg.Redis)

	if needsAWS(cfg) {
		awsCfg, err := LoadAWS(ctx, cfg.Reports)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.AWS = &awsCfg
	}

	if err := a.wire(ctx); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) wire(ctx context.Context) error {
	cfg := a.Config
	baseURL := cfg.BaseURL()

	var dashCache cache.Cache = cache.NoopCache{}
	if a.Redis != nil {
		dashCache = cache.NewRedisCache(a.Redis)
	}

	registry := platform.NewRegistry()
	if cfg.Google.Enabled() {
		for _, c := range google.NewConnectors(google.OptionsFromConfig(cfg.Google, baseURL)) {
			registry.Register(c)
		}
	}
	if cfg.Meta.Enabled() {
		for _, c := range meta.NewConnectors(meta.OptionsFromConfig(cfg.Meta, baseURL)) {
			registry.Register(c)
		}
	}
	logger.Info("platform connectors registered", "platforms", registry.Platforms())

	workspaceRepo := postgres.NewWorkspaceRepo(a.DB)
	connRepo := postgres.NewConnectionRepo(a.DB)
	campaignRepo := postgres.NewCampaignRepo(a.DB)
	metricRepo := postgres.NewMetricRepo(a.DB)

	a.Users = postgres.NewUserRepo(a.DB)
	a.Workspaces = workspace.NewService(workspaceRepo)
	a.Connections = connection.NewService(connRepo, registry, platform.NewStateSigner(cfg.Auth.SessionSecret))
	a.Campaigns = campaign.NewService(campaignRepo)
	a.Analytics = analytics.NewService(metricRepo, dashCache, cfg.Cache.TTL())
	a.Sync = syncer.NewService(a.Connections, registry, a.Campaigns, metricRepo, a.Analytics,
		distlock.NewFactory(a.Redis, a.DB), syncer.Options{
			LookbackDays: cfg.Sync.LookbackDays,
			Concurrency:  cfg.Sync.Concurrency,
			LockTTL:      cfg.Sync.LockTTL(),
		})

	llm, err := insight.NewLLM(ctx, cfg.Insights, a.AWS)
	if err != nil {
		return fmt.Errorf("insights provider: %w", err)
	}
	a.Insights = insight.NewService(postgres.NewInsightRepo(a.DB), a.Analytics, a.Workspaces, llm, insight.Options{
		MaxInsights: cfg.Insights.MaxInsights,
		Timeout:     cfg.Insights.Timeout(),
	})

	renderers, err := report.DefaultRenderers()
	if err != nil {
		return fmt.Errorf("report renderers: %w", err)
	}
	opts := report.Options{LinkTTL: cfg.Reports.LinkTTL()}
	if a.AWS != nil && cfg.Reports.S3Bucket != "" {
		a.S3 = s3.NewFromConfig(*a.AWS)
		opts.Archive = report.NewS3Archive(*a.AWS, cfg.Reports.S3Bucket, cfg.Reports.S3Prefix)
		logger.Info("report archive enabled", "bucket", cfg.Reports.S3Bucket, "prefix", cfg.Reports.S3Prefix)
	}
	if a.AWS != nil && cfg.Reports.SESFrom != "" {
		opts.Mailer = report.NewSESMailer(*a.AWS, cfg.Reports.SESFrom)
		logger.Info("report e-mail enabled", "from", cfg.Reports.SESFrom)
	}
	a.Reports = report.NewService(postgres.NewReportRepo(a.DB), a.Analytics, a.Insights, a.Workspaces, renderers, opts)

	a.Scheduler = worker.NewSyncScheduler(a.Connections, a.Sync, cfg.Sync.Interval(), cfg.Sync.Concurrency)
	return nil
}

// SessionStore returns a Redis-backed store when Redis is available.
func (a *App) SessionStore() auth.SessionStore {
	if a.Redis != nil {
		return auth.NewRedisStore(a.Redis)
	}
	return auth.NewMemoryStore()
}

// Close stops the scheduler and closes the database and Redis clients.
func (a *App) Close() {
	if a.Scheduler != nil {
		a.Scheduler.Stop()
	}
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			logger.Warn("redis close failed", "error", err)
		}
	}
	if a.DB != nil {
		if err := a.DB.Close(); err != nil {
			logger.Warn("database close failed", "error", err)
		}
	}
}

// OpenDB opens and pings the PostgreSQL pool.
func OpenDB(ctx context.Context, cfg config.DatabaseConfig) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime) * time.Second)
	db.SetConnMaxIdleTime(time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return db, nil
}

// OpenRedis connects to Redis when configured. It returns nil when Redis is
// not configured or unreachable; callers then fall back to PostgreSQL
// advisory locks, in-memory sessions and no dashboard cache.
func OpenRedis(ctx context.Context, cfg config.RedisConfig) *redis.Client {
	if cfg.URL == "" {
		logger.Info("redis not configured; using advisory locks and in-memory sessions")
		return nil
	}
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		opts = &redis.Options{Addr: cfg.URL}
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		logger.Warn("redis unreachable; falling back to advisory locks", "addr", opts.Addr, "error", err)
		client.Close()
		return nil
	}
	logger.Info("redis connected", "addr", opts.Addr)
	return client
}

func needsAWS(cfg *config.Config) bool {
	return cfg.Insights.Provider == "bedrock" || cfg.Reports.S3Bucket != "" || cfg.Reports.SESFrom != ""
}

// LoadAWS builds the AWS config for Bedrock, S3 and SES. Static keys win,
// then a named profile, then the default credential chain.
func LoadAWS(ctx context.Context, cfg config.ReportsConfig) (aws.Config, error) {
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.AWSRegion)}
	switch {
	case cfg.StaticCredentials():
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	case cfg.GetAWSProfile() != "":
		opts = append(opts, awsconfig.WithSharedConfigProfile(cfg.GetAWSProfile()))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("load AWS config: %w", err)
	}
	return awsCfg, nil
}
