package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"OnboardingBuddy/backend/go/internal/config"

	"github.com/maruel/subcommands"
)

var cmdSetup = &subcommands.Command{
	UsageLine: "setup [-config config.yaml]",
	ShortDesc: "interactive wizard that writes the configuration file",
	LongDesc:  "Asks for the bot token, administrators, company contacts and links and saves them as YAML.",
	CommandRun: func() subcommands.CommandRun {
		c := &setupRun{}
		c.init()
		return c
	},
}

type setupRun struct {
	configFlag
}

func (c *setupRun) Run(a subcommands.Application, args []string, env subcommands.Env) int {
	w := &wizard{in: bufio.NewReader(os.Stdin), out: a.GetOut()}
	if _, err := os.Stat(c.configPath); err == nil {
		if !w.confirm(fmt.Sprintf("📁 Файл %s уже существует. Перезаписать?", c.configPath), false) {
			fmt.Fprintln(a.GetOut(), "❌ Настройка отменена.")
			return 0
		}
	}

	cfg, err := w.run(config.Default())
	if err != nil {
		fmt.Fprintf(a.GetErr(), "❌ %v\n", err)
		return 1
	}
	if err := cfg.Save(c.configPath); err != nil {
		fmt.Fprintf(a.GetErr(), "❌ %v\n", err)
		return 1
	}
	fmt.Fprintf(a.GetOut(), "\n✅ Конфигурация сохранена в %s\n\n%s", c.configPath, cfg.Summary())
	for _, i := range cfg.Validate() {
		fmt.Fprintln(a.GetOut(), i.String())
	}
	fmt.Fprintln(a.GetOut(), "\n🚀 Запуск: onboarding_bot run -config "+c.configPath)
	return 0
}

// errAborted is returned when the input ends before the wizard is done.
var errAborted = errors.New("настройка прервана")

type wizard struct {
	in  *bufio.Reader
	out io.Writer
}

// ask prints the prompt and returns the trimmed answer, or def when it is empty.
// Answers failing check are asked again.
func (w *wizard) ask(prompt, def string, check func(string) error) (string, error) {
	for {
		if def != "" {
			fmt.Fprintf(w.out, "   %s [%s]: ", prompt, def)
		} else {
			fmt.Fprintf(w.out, "   %s: ", prompt)
		}
		line, err := w.in.ReadString('\n')
		if err != nil && (err != io.EOF || line == "") {
			return "", errAborted
		}
		answer := strings.TrimSpace(line)
		if answer == "" {
			answer = def
		}
		if check == nil {
			return answer, nil
		}
		if err := check(answer); err != nil {
			fmt.Fprintf(w.out, "   ❌ %v\n", err)
			continue
		}
		return answer, nil
	}
}

func (w *wizard) confirm(prompt string, def bool) bool {
	hint := "y/N"
	if def {
		hint = "Y/n"
	}
	fmt.Fprintf(w.out, "%s (%s): ", prompt, hint)
	line, _ := w.in.ReadString('\n')
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes", "д", "да":
		return true
	case "n", "no", "н", "нет":
		return false
	default:
		return def
	}
}

func optional(check func(string) error) func(string) error {
	return func(s string) error {
		if s == "" {
			return nil
		}
		return check(s)
	}
}

// validOrEmpty drops placeholder defaults that would never pass check.
func validOrEmpty(v string, check func(string) error) string {
	if check(v) != nil {
		return ""
	}
	return v
}

func parseAdminIDs(raw string) ([]int64, error) {
	var ids []int64
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%q не является числом", part)
		}
		ids = append(ids, id)
	}
	return ids, config.ValidateAdminIDs(ids)
}

// run fills cfg from the answers.
func (w *wizard) run(cfg *config.AppConfig) (*config.AppConfig, error) {
	fmt.Fprintln(w.out, "🚀 Добро пожаловать в мастер настройки OnboardingBuddy!")
	fmt.Fprintln(w.out, strings.Repeat("=", 60))

	var err error
	step := func(title string) { fmt.Fprintf(w.out, "\n%s\n", title) }
	set := func(dst *string, prompt, def string, check func(string) error) {
		if err != nil {
			return
		}
		*dst, err = w.ask(prompt, def, check)
	}

	step("🤖 1. Токен Telegram бота (получите у @BotFather)")
	set(&cfg.Telegram.Token, "Токен бота", "", config.ValidateTelegramToken)

	step("👥 2. Администраторы (ID можно узнать у @userinfobot)")
	var rawIDs string
	set(&rawIDs, "ID администраторов через запятую", "", func(s string) error {
		_, err := parseAdminIDs(s)
		return err
	})
	if err == nil {
		cfg.Telegram.AdminIDs, _ = parseAdminIDs(rawIDs)
	}

	step("🏢 3. Информация о компании")
	set(&cfg.Company.Name, "Название компании", cfg.Company.Name, config.ValidateCompanyName)

	step("📧 4. Контакты HR-отдела")
	set(&cfg.Contacts.HREmail, "Email HR-отдела", cfg.Contacts.HREmail, config.ValidateEmail)
	set(&cfg.Contacts.HRTelegram, "Telegram HR (@username)", cfg.Contacts.HRTelegram, config.ValidateTelegramUsername)
	set(&cfg.Contacts.HRPhone, "Телефон HR", validOrEmpty(cfg.Contacts.HRPhone, config.ValidatePhone), optional(config.ValidatePhone))

	step("🔧 5. Техническая поддержка")
	set(&cfg.Contacts.SupportEmail, "Email техподдержки", cfg.Contacts.SupportEmail, config.ValidateEmail)
	set(&cfg.Contacts.SupportTelegram, "Telegram техподдержки", cfg.Contacts.SupportTelegram, config.ValidateTelegramUsername)
	set(&cfg.Contacts.SupportPhone, "Телефон техподдержки", validOrEmpty(cfg.Contacts.SupportPhone, config.ValidatePhone), optional(config.ValidatePhone))

	step("🌐 6. Ресурсы компании")
	set(&cfg.Links.CompanySite, "Сайт компании", cfg.Links.CompanySite, config.ValidateURL)
	site := strings.TrimRight(cfg.Links.CompanySite, "/")
	set(&cfg.Links.TeamPage, "Страница команды", site+"/team", config.ValidateURL)
	set(&cfg.Links.Handbook, "Справочник сотрудника", site+"/handbook", config.ValidateURL)

	step("📅 7. Ссылки на встречи")
	set(&cfg.Meetings.General, "Общая планерка", cfg.Meetings.General, config.ValidateURL)
	set(&cfg.Meetings.IT, "IT планерка", cfg.Meetings.IT, config.ValidateURL)
	set(&cfg.Meetings.Marketing, "Маркетинг планерка", cfg.Meetings.Marketing, config.ValidateURL)
	if err != nil {
		return nil, err
	}

	step("⚙️ 8. Дополнительные настройки")
	cfg.App.Debug = w.confirm("   Режим отладки", false)
	cfg.Notifications.Enabled = w.confirm("   Включить уведомления", true)
	cfg.Onboarding.AutoReminders = w.confirm("   Автоматические напоминания", false)
	return cfg, nil
}
