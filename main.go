package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ShiftAudit/Checklist"
	"ShiftAudit/Config"
	"ShiftAudit/CronJobs"
	"ShiftAudit/Drafts"
	"ShiftAudit/FiberConfig"
	"ShiftAudit/Models"
	"ShiftAudit/Slack"
	"ShiftAudit/Store"
	"ShiftAudit/middleware"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	cfg, err := Config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()

	db, err := Models.Connect(cfg.DB.Driver, cfg.DB.DSN, cfg.SeedData, logger)
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	repo := Store.NewGormRepository(db)

	var drafts Checklist.DraftStore
	if cfg.Drafts.RedisURL != "" {
		rd, err := Drafts.NewRedis(cfg.Drafts.RedisURL, cfg.Drafts.TTL)
		if err != nil {
			logger.Fatal("redis drafts", zap.Error(err))
		}
		defer rd.Close()
		drafts = rd
		logger.Info("drafts stored in redis")
	} else {
		drafts = Drafts.NewMemory(cfg.Drafts.TTL)
		logger.Info("drafts stored in memory")
	}

	// Non-conformity and orphan alerts go to Slack only when configured
	var notifier Checklist.Notifier
	var alerter CronJobs.OrphanAlerter
	if cfg.SlackEnabled() {
		slackNotifier := Slack.New(cfg.Slack.BotToken, cfg.Slack.ChannelID)
		notifier = slackNotifier
		alerter = slackNotifier
	}

	forms := Checklist.NewForms(repo, drafts)
	submitter := Checklist.NewSubmitter(repo, drafts, notifier, logger.Named("submit"))

	checker := CronJobs.NewOrphanChecker(repo, alerter, CronJobs.OrphanCheckerConfig{
		Schedule:       cfg.Orphan.Schedule,
		MinAge:         cfg.Orphan.MinAge,
		AutoRepair:     cfg.Orphan.AutoRepair,
		RunImmediately: true,
	}, logger.Named("orphans"))
	if err := checker.Start(); err != nil {
		logger.Fatal("orphan checker", zap.Error(err))
	}
	defer checker.Stop()

	requestLogger, err := middleware.RequestLogger(cfg.RequestLogFile)
	if err != nil {
		logger.Fatal("request logger", zap.Error(err))
	}

	app, errc := FiberConfig.FiberConfig(cfg.Port, FiberConfig.Deps{
		Repo:         repo,
		Forms:        forms,
		Submitter:    submitter,
		Secret:       []byte(cfg.Auth.JWTSecret),
		TokenTTL:     cfg.Auth.TokenTTL,
		CookieSecure: cfg.Auth.CookieSecure,
		Log:          logger,
	}, requestLogger)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errc:
		logger.Error("server stopped", zap.Error(err))
	case sig := <-quit:
		logger.Info("shutting down", zap.String("signal", sig.String()))
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			logger.Error("shutdown", zap.Error(err))
		}
	}
}

func newLogger(level string) (*zap.Logger, error) {
	zcfg := zap.NewProductionConfig()
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	zcfg.Level = zap.NewAtomicLevelAt(lvl)
	zcfg.EncoderConfig.TimeKey = "timestamp"
	zcfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	return zcfg.Build()
}
