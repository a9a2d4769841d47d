package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"OnboardingBuddy/backend/go/internal/config"
	"OnboardingBuddy/backend/go/internal/models"
	"OnboardingBuddy/backend/go/internal/onboarding/service"
	"OnboardingBuddy/backend/go/pkg/logger"

	"github.com/dustin/go-humanize"
	"github.com/maruel/subcommands"
)

var cmdValidate = &subcommands.Command{
	UsageLine: "validate [-config config.yaml]",
	ShortDesc: "checks the configuration",
	LongDesc:  "Prints every configuration problem. Exits with 1 when a critical problem is found.",
	CommandRun: func() subcommands.CommandRun {
		c := &validateRun{}
		c.init()
		return c
	},
}

type validateRun struct {
	configFlag
}

func (c *validateRun) Run(a subcommands.Application, args []string, env subcommands.Env) int {
	cfg, err := c.load()
	if err != nil {
		fmt.Fprintf(a.GetErr(), "❌ %v\n", err)
		return 1
	}
	fmt.Fprintln(a.GetOut(), cfg.Summary())
	issues := cfg.Validate()
	if len(issues) == 0 {
		fmt.Fprintln(a.GetOut(), "✅ Конфигурация корректна")
		return 0
	}
	for _, i := range issues {
		fmt.Fprintln(a.GetOut(), i.String())
	}
	if config.HasCritical(issues) {
		return 1
	}
	return 0
}

var cmdStats = &subcommands.Command{
	UsageLine: "stats [-config config.yaml] [-json]",
	ShortDesc: "prints onboarding statistics",
	CommandRun: func() subcommands.CommandRun {
		c := &statsRun{}
		c.init()
		c.Flags.BoolVar(&c.asJSON, "json", false, "print the analytics report as JSON")
		c.Flags.IntVar(&c.days, "days", 30, "activity period in days")
		return c
	},
}

type statsRun struct {
	configFlag
	asJSON bool
	days   int
}

func (c *statsRun) Run(a subcommands.Application, args []string, env subcommands.Env) int {
	deps, cleanup, err := prepare(&c.configFlag, "onboarding_cli")
	if err != nil {
		fmt.Fprintf(a.GetErr(), "❌ %v\n", err)
		return 1
	}
	defer cleanup()

	report, err := deps.svc.Analytics(context.Background(), c.days)
	if err != nil {
		fmt.Fprintf(a.GetErr(), "❌ %v\n", err)
		return 1
	}
	if c.asJSON {
		enc := json.NewEncoder(a.GetOut())
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			fmt.Fprintf(a.GetErr(), "❌ %v\n", err)
			return 1
		}
		return 0
	}
	printStats(a.GetOut(), report)
	return 0
}

func printStats(w io.Writer, r *models.Analytics) {
	st := r.Statistics
	fmt.Fprintln(w, "📊 Статистика OnboardingBuddy")
	fmt.Fprintf(w, "👥 Всего пользователей: %s\n", humanize.Comma(st.TotalUsers))
	for _, s := range models.AllStatuses {
		fmt.Fprintf(w, "   %s %s: %d\n", s.Emoji(), s.DisplayName(), st.Count(s))
	}
	fmt.Fprintf(w, "📈 Активных за неделю: %d\n", st.ActiveWeek)
	fmt.Fprintf(w, "💬 Отзывов: %d\n", st.TotalFeedback)
	fmt.Fprintf(w, "🎯 Средний прогресс: %.1f%%\n", st.AvgProgress)
	fmt.Fprintf(w, "🏁 Завершили онбординг: %.1f%%\n", st.CompletionRate)

	fmt.Fprintln(w, "\n🔄 Воронка:")
	for _, step := range r.Funnel.Steps {
		fmt.Fprintf(w, "   %s: %d (%.1f%%)\n", step.Name, step.Users, step.Conversion)
	}
	if len(r.PopularActions) > 0 {
		fmt.Fprintf(w, "\n🔥 Популярные действия за %d дн.:\n", r.Days)
		for _, ac := range r.PopularActions {
			fmt.Fprintf(w, "   %s: %d\n", ac.Action, ac.Count)
		}
	}
}

var cmdExport = &subcommands.Command{
	UsageLine: "export [-config config.yaml] [-user id]",
	ShortDesc: "writes a full data export",
	LongDesc:  "Writes the JSON, CSV, XLSX and report files into export.dir. With -user, prints one user's data as JSON instead.",
	CommandRun: func() subcommands.CommandRun {
		c := &exportRun{}
		c.init()
		c.Flags.Int64Var(&c.userID, "user", 0, "export a single user as JSON to stdout")
		return c
	},
}

type exportRun struct {
	configFlag
	userID int64
}

func (c *exportRun) Run(a subcommands.Application, args []string, env subcommands.Env) int {
	deps, cleanup, err := prepare(&c.configFlag, "onboarding_cli")
	if err != nil {
		fmt.Fprintf(a.GetErr(), "❌ %v\n", err)
		return 1
	}
	defer cleanup()
	ctx := context.Background()

	if c.userID != 0 {
		data, err := deps.exporter.UserExport(ctx, c.userID)
		if err != nil {
			fmt.Fprintf(a.GetErr(), "❌ %v\n", err)
			return 1
		}
		enc := json.NewEncoder(a.GetOut())
		enc.SetIndent("", "  ")
		if err := enc.Encode(data); err != nil {
			fmt.Fprintf(a.GetErr(), "❌ %v\n", err)
			return 1
		}
		return 0
	}

	res, err := deps.exporter.Run(ctx)
	if err != nil {
		fmt.Fprintf(a.GetErr(), "❌ %v\n", err)
		return 1
	}
	fmt.Fprintln(a.GetOut(), "✅ Экспорт завершен: "+res.Summary())
	for _, f := range res.Files {
		fmt.Fprintf(a.GetOut(), "   📄 %s (%s)\n", f.Name, humanize.Bytes(uint64(f.Size)))
	}
	if res.Uploaded > 0 {
		fmt.Fprintf(a.GetOut(), "☁️ Загружено в MinIO: %d\n", res.Uploaded)
	}
	return 0
}

var cmdCleanup = &subcommands.Command{
	UsageLine: "cleanup [-config config.yaml] [days]",
	ShortDesc: "deletes old activity log entries",
	LongDesc:  "Deletes user_actions rows older than days (onboarding.cleanupDays by default) and prunes expired export files.",
	CommandRun: func() subcommands.CommandRun {
		c := &cleanupRun{}
		c.init()
		return c
	},
}

type cleanupRun struct {
	configFlag
}

func (c *cleanupRun) Run(a subcommands.Application, args []string, env subcommands.Env) int {
	days := 0
	if len(args) > 1 {
		fmt.Fprintln(a.GetErr(), "❌ too many arguments")
		return 1
	}
	if len(args) == 1 {
		n, err := strconv.Atoi(args[0])
		if err != nil || n < 1 {
			fmt.Fprintf(a.GetErr(), "❌ invalid number of days %q\n", args[0])
			return 1
		}
		days = n
	}

	deps, cleanup, err := prepare(&c.configFlag, "onboarding_cli")
	if err != nil {
		fmt.Fprintf(a.GetErr(), "❌ %v\n", err)
		return 1
	}
	defer cleanup()

	deleted, err := deps.svc.Cleanup(context.Background(), 0, days)
	if err != nil {
		fmt.Fprintf(a.GetErr(), "❌ %v\n", err)
		return 1
	}
	pruned, err := deps.exporter.PruneExpired()
	if err != nil {
		fmt.Fprintf(a.GetErr(), "⚠️ %v\n", err)
	}
	fmt.Fprintf(a.GetOut(), "🧹 Удалено записей активности: %d\n🗂️ Удалено старых файлов экспорта: %d\n", deleted, len(pruned))
	return 0
}

var cmdToken = &subcommands.Command{
	UsageLine: "token [-config config.yaml] [-ttl 24h] <admin-id>",
	ShortDesc: "issues a dashboard API token for an administrator",
	CommandRun: func() subcommands.CommandRun {
		c := &tokenRun{}
		c.init()
		c.Flags.DurationVar(&c.ttl, "ttl", 0, "token lifetime, auth.tokenTTL by default")
		return c
	},
}

type tokenRun struct {
	configFlag
	ttl time.Duration
}

func (c *tokenRun) Run(a subcommands.Application, args []string, env subcommands.Env) int {
	if len(args) != 1 {
		fmt.Fprintln(a.GetErr(), "❌ expected exactly one admin id")
		return 1
	}
	adminID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		fmt.Fprintf(a.GetErr(), "❌ invalid admin id %q\n", args[0])
		return 1
	}
	cfg, err := c.load()
	if err != nil {
		fmt.Fprintf(a.GetErr(), "❌ %v\n", err)
		return 1
	}
	svc := service.NewService(nil, cfg, nil, nil, logger.New("onboarding_cli", "", ""))
	token, err := svc.IssueAdminToken(adminID, c.ttl)
	if err != nil {
		fmt.Fprintf(a.GetErr(), "❌ %v\n", err)
		return 1
	}
	fmt.Fprintln(a.GetOut(), token)
	return 0
}
