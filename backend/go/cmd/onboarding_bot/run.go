package main

import (
	"context"
	"fmt"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"OnboardingBuddy/backend/go/internal/config"
	"OnboardingBuddy/backend/go/internal/onboarding/api"
	"OnboardingBuddy/backend/go/internal/onboarding/bot"
	"OnboardingBuddy/backend/go/internal/onboarding/reminder"
	"OnboardingBuddy/backend/go/internal/onboarding/telegram"
	bhttp "OnboardingBuddy/backend/go/pkg/http"
	"OnboardingBuddy/backend/go/pkg/logger"

	"github.com/maruel/subcommands"
)

const shutdownTimeout = 5 * time.Second

var cmdRun = &subcommands.Command{
	UsageLine: "run [-config config.yaml]",
	ShortDesc: "starts the bot, the admin dashboard and the reminders",
	LongDesc: `Starts long polling against the Telegram Bot API. When server.enabled is
set, the admin dashboard API is served on server.address. The process stops
gracefully on SIGINT or SIGTERM.`,
	CommandRun: func() subcommands.CommandRun {
		c := &runRun{}
		c.init()
		return c
	},
}

type runRun struct {
	configFlag
}

func (c *runRun) Run(a subcommands.Application, args []string, env subcommands.Env) int {
	cfg, err := c.load()
	if err != nil {
		fmt.Fprintf(a.GetErr(), "❌ %v\n", err)
		return 1
	}
	issues := cfg.Validate()
	for _, i := range issues {
		fmt.Fprintln(a.GetErr(), i.String())
	}
	if config.HasCritical(issues) {
		fmt.Fprintln(a.GetErr(), "❌ Конфигурация содержит критические ошибки. Запустите 'onboarding_bot setup'.")
		return 1
	}

	deps, cleanup, err := wire(cfg, "onboarding_bot")
	if err != nil {
		fmt.Fprintf(a.GetErr(), "❌ %v\n", err)
		return 1
	}
	defer cleanup()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if err := serve(ctx, deps); err != nil {
		deps.log.Error(err.Error())
		return 1
	}
	return 0
}

// serve runs every long-lived component until ctx is done or one of them fails.
func serve(ctx context.Context, deps *app) error {
	log := deps.log
	ctx, stop := context.WithCancel(ctx)
	defer stop()
	log.Info(deps.cfg.Summary())

	tg, err := telegram.Connect(deps.cfg.Telegram, deps.cfg.App.Debug, logger.New("telegram", "", ""))
	if err != nil {
		return err
	}
	if err := tg.DropPending(ctx); err != nil {
		log.Warn("failed to drop pending updates: " + err.Error())
	}
	deps.svc.SetSender(tg)

	dispatcher := bot.New(deps.svc, tg, deps.sessions, deps.exporter, logger.New("bot", "", ""))
	dispatcher.SetBaseContext(ctx)

	var srv *bhttp.Server
	if deps.cfg.Server.Enabled {
		srv, err = bhttp.NewServer(deps.cfg,
			bhttp.WithAddress(deps.cfg.Server.Address),
			bhttp.WithLogger(logger.New("dashboard", "", "")))
		if err != nil {
			return fmt.Errorf("create dashboard server: %w", err)
		}
		h := api.NewHandler(deps.svc, deps.exporter)
		for _, bc := range deps.checks {
			h.AddHealthCheck(bc.name, bc.check)
		}
		srv.Handle("/", api.SetupRouter(h, deps.svc, logger.New("dashboard", "", "")))
	}

	scheduler := reminder.New(deps.cfg.Onboarding.CheckInterval(), logger.New("maintenance", "", ""),
		reminder.Job{Name: "reminders", Run: deps.svc.RemindStale},
		reminder.Counted("flood_sweep", dispatcher.SweepFlood),
		reminder.Listed("export_prune", deps.exporter.PruneExpired),
	)

	var wg sync.WaitGroup
	errCh := make(chan error, 2) // dashboard and polling

	wg.Add(1)
	go func() {
		defer wg.Done()
		scheduler.Run(ctx)
	}()

	if srv != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := srv.ListenAndServe(); err != nil {
				errCh <- fmt.Errorf("dashboard server: %w", err)
			}
		}()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := tg.Run(ctx, dispatcher); err != nil {
			errCh <- fmt.Errorf("telegram polling: %w", err)
		}
	}()

	log.Info("🚀 OnboardingBuddy запущен")

	var runErr error
	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
	case runErr = <-errCh:
		stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if srv != nil {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Warn("dashboard shutdown: " + err.Error())
		}
	}
	wg.Wait()
	dispatcher.Wait()
	if runErr != nil {
		return runErr
	}
	log.Info("OnboardingBuddy stopped")
	return nil
}
