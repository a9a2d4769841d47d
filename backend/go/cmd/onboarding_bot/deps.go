package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"OnboardingBuddy/backend/go/internal/config"
	"OnboardingBuddy/backend/go/internal/database/kafka"
	"OnboardingBuddy/backend/go/internal/database/minio"
	"OnboardingBuddy/backend/go/internal/database/redis"
	"OnboardingBuddy/backend/go/internal/database/sqlite"
	"OnboardingBuddy/backend/go/internal/onboarding/events"
	"OnboardingBuddy/backend/go/internal/onboarding/export"
	"OnboardingBuddy/backend/go/internal/onboarding/service"
	"OnboardingBuddy/backend/go/internal/onboarding/session"
	"OnboardingBuddy/backend/go/internal/onboarding/store"
	"OnboardingBuddy/backend/go/pkg/logger"

	"github.com/maruel/subcommands"
)

const sessionTTL = 30 * time.Minute

// configFlag is embedded by every command reading the YAML config.
type configFlag struct {
	subcommands.CommandRunBase
	configPath string
}

func (c *configFlag) init() {
	c.Flags.StringVar(&c.configPath, "config", "config.yaml", "path to the YAML configuration")
}

func (c *configFlag) load() (*config.AppConfig, error) {
	return config.LoadConfig(c.configPath)
}

// setupLogging configures logrus from cfg. The returned func closes the log file.
func setupLogging(cfg *config.AppConfig, service string) (*logger.Logger, func(), error) {
	outputs := []io.Writer{os.Stdout}
	closeLog := func() {}
	if cfg.Logger.File != "" {
		f, err := logger.OpenFile(cfg.Logger.File)
		if err != nil {
			return nil, nil, err
		}
		outputs = append(outputs, f)
		closeLog = func() { f.Close() }
	}
	logger.Init(logger.ParseLevel(cfg.Logger.Level), outputs...)
	return logger.New(service, "", ""), closeLog, nil
}

// backendCheck is a health probe of one configured backend.
type backendCheck struct {
	name  string
	check func(ctx context.Context) error
}

// app holds the wired components shared by the commands.
type app struct {
	cfg      *config.AppConfig
	log      *logger.Logger
	store    *store.Store
	svc      *service.Service
	exporter *export.Exporter
	sessions session.Store
	events   events.Publisher
	checks   []backendCheck
	closers  []func() error
}

// newApp opens the database and the optional backends. Store -> Service.
func newApp(ctx context.Context, cfg *config.AppConfig, log *logger.Logger) (*app, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, err
	}
	db, err := sqlite.GetDB(&cfg.Databases.SQLite)
	if err != nil {
		return nil, err
	}
	a := &app{
		cfg:     cfg,
		log:     log,
		checks:  []backendCheck{{"sqlite", sqlite.HealthCheck}},
		closers: []func() error{sqlite.Close},
	}

	a.store = store.NewStore(db)
	if err := a.store.Migrate(ctx); err != nil {
		a.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	log.WithPayload(map[string]interface{}{"path": cfg.Databases.SQLite.Path}).Info("database ready")

	a.events = events.Noop{}
	if cfg.Databases.Kafka.Enabled {
		kc, err := kafka.GetClient(&cfg.Databases.Kafka)
		a.checks = append(a.checks, backendCheck{"kafka", func(ctx context.Context) error {
			if err != nil {
				return err
			}
			return kc.HealthCheck(ctx)
		}})
		if err != nil {
			log.Warn("kafka disabled: " + err.Error())
		} else {
			a.events = events.NewKafkaPublisher(kc.Writer, log)
			a.closers = append(a.closers, kc.Close)
			log.WithPayload(map[string]interface{}{"topic": cfg.Databases.Kafka.Topic}).Info("activity events go to kafka")
		}
	}

	a.sessions = session.NewMemory(sessionTTL)
	if cfg.Databases.Redis.Enabled {
		rdb, err := redis.GetClient(&cfg.Databases.Redis)
		a.checks = append(a.checks, backendCheck{"redis", redis.HealthCheck})
		if err != nil {
			log.Warn("redis disabled, sessions stay in memory: " + err.Error())
		} else {
			a.sessions = session.NewRedis(rdb, cfg.Databases.Redis.Prefix, sessionTTL)
			a.closers = append(a.closers, redis.Close)
		}
	}

	var uploader export.Uploader
	if cfg.Databases.MinIO.Enabled {
		mc, err := minio.GetClient(&cfg.Databases.MinIO)
		a.checks = append(a.checks, backendCheck{"minio", minio.HealthCheck})
		if err != nil {
			log.Warn("minio disabled, exports stay local: " + err.Error())
		} else {
			uploader = export.NewMinIOUploader(mc, cfg.Databases.MinIO.Bucket)
		}
	}

	a.svc = service.NewService(a.store, cfg, a.events, nil, log)
	a.exporter = export.New(a.store, cfg.Export, uploader, logger.New("export", "", ""))
	return a, nil
}

// Close releases the backends in reverse order.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.log.Warn("close: " + err.Error())
		}
	}
}

// prepare loads the config and wires the app. The returned cleanup must be
// called before exit.
func prepare(c *configFlag, service string) (*app, func(), error) {
	cfg, err := c.load()
	if err != nil {
		return nil, nil, err
	}
	return wire(cfg, service)
}

// wire sets up logging and the app for an already loaded cfg.
func wire(cfg *config.AppConfig, service string) (*app, func(), error) {
	log, closeLog, err := setupLogging(cfg, service)
	if err != nil {
		return nil, nil, err
	}
	a, err := newApp(context.Background(), cfg, log)
	if err != nil {
		closeLog()
		return nil, nil, err
	}
	return a, func() {
		a.Close()
		closeLog()
	}, nil
}
