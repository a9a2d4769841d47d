package export

import (
	"fmt"
	"math"
	"strings"
	"time"

	"OnboardingBuddy/backend/go/internal/models"
	"OnboardingBuddy/backend/go/internal/onboarding/store"
)

const analyticsDays = 30

type exportInfo struct {
	Timestamp     string `json:"timestamp"`
	Format        string `json:"format"`
	Version       string `json:"version"`
	TotalUsers    int    `json:"total_users"`
	TotalFeedback int    `json:"total_feedback"`
	TotalActions  int    `json:"total_actions"`
}

type fullDump struct {
	*store.Dump
	ExportInfo exportInfo `json:"export_info"`
}

func fullExport(d *store.Dump, stamp string) fullDump {
	return fullDump{Dump: d, ExportInfo: exportInfo{
		Timestamp:     stamp,
		Format:        "json",
		Version:       "1.0",
		TotalUsers:    len(d.Users),
		TotalFeedback: len(d.Feedback),
		TotalActions:  len(d.Actions),
	}}
}

type weekdayStats struct {
	Users      int64   `json:"users"`
	Actions    int64   `json:"actions"`
	Days       int     `json:"days"`
	AvgUsers   float64 `json:"avg_users"`
	AvgActions float64 `json:"avg_actions"`
}

type reportInfo struct {
	Timestamp   string    `json:"timestamp"`
	PeriodDays  int       `json:"period_days"`
	GeneratedAt time.Time `json:"generated_at"`
}

type analytics struct {
	ReportInfo       reportInfo               `json:"report_info"`
	Summary          *models.Statistics       `json:"summary"`
	ConversionFunnel map[string]float64       `json:"conversion_funnel"`
	DailyActivity    []models.DailyActivity   `json:"daily_activity"`
	WeekdayActivity  map[string]*weekdayStats `json:"weekday_activity"`
	PopularActions   []models.ActionCount     `json:"popular_actions"`
}

func analyticsReport(snap *snapshot, stamp string, at time.Time) analytics {
	st := snap.stats
	funnel := map[string]float64{}
	if st.TotalUsers > 0 {
		reached := func(from models.UserStatus) float64 {
			var n int64
			for _, s := range models.AllStatuses {
				if !s.Before(from) {
					n += st.Count(s)
				}
			}
			return round1(float64(n) / float64(st.TotalUsers) * 100)
		}
		funnel["registration_to_preboarding"] = reached(models.StatusPreboarding)
		funnel["preboarding_to_onboarding"] = reached(models.StatusOnboarding)
		funnel["onboarding_to_completion"] = reached(models.StatusCompleted)
	}

	weekdays := make(map[string]*weekdayStats)
	for _, d := range snap.daily {
		day, err := time.Parse("2006-01-02", d.Date)
		if err != nil {
			continue
		}
		w, ok := weekdays[day.Weekday().String()]
		if !ok {
			w = &weekdayStats{}
			weekdays[day.Weekday().String()] = w
		}
		w.Users += d.UniqueUsers
		w.Actions += d.Actions
		w.Days++
	}
	for _, w := range weekdays {
		w.AvgUsers = round1(float64(w.Users) / float64(w.Days))
		w.AvgActions = round1(float64(w.Actions) / float64(w.Days))
	}

	popular := snap.popular
	if len(popular) > 20 {
		popular = popular[:20]
	}
	return analytics{
		ReportInfo:       reportInfo{Timestamp: stamp, PeriodDays: analyticsDays, GeneratedAt: at},
		Summary:          st,
		ConversionFunnel: funnel,
		DailyActivity:    snap.daily,
		WeekdayActivity:  weekdays,
		PopularActions:   popular,
	}
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

var reportStatusNames = map[models.UserStatus]string{
	models.StatusNew:         "Новые пользователи",
	models.StatusPreboarding: "Пребординг в процессе",
	models.StatusPreboarded:  "Готовы к онбордингу",
	models.StatusOnboarding:  "Проходят онбординг",
	models.StatusCompleted:   "Завершили онбординг",
}

func textReport(res *Result, st *models.Statistics) string {
	const layout = "2006-01-02 15:04:05"
	var b strings.Builder
	fmt.Fprintf(&b, `OnboardingBuddy - Отчет об экспорте данных
==========================================

Дата и время экспорта: %s
Timestamp: %s

СТАТИСТИКА ЭКСПОРТИРОВАННЫХ ДАННЫХ:
----------------------------------
Всего пользователей: %d
Активных за неделю: %d
Процент завершения онбординга: %g%%
Средний прогресс: %.1f/%d
Всего обратной связи: %d

РАСПРЕДЕЛЕНИЕ ПО СТАТУСАМ:
-------------------------
`, res.ExportedAt.Format(layout), res.Stamp, st.TotalUsers, st.ActiveWeek, st.CompletionRate,
		st.AvgProgress, models.MaxStage, st.TotalFeedback)

	for _, s := range models.AllStatuses {
		n := st.Count(s)
		p := 0.0
		if st.TotalUsers > 0 {
			p = float64(n) / float64(st.TotalUsers) * 100
		}
		fmt.Fprintf(&b, "%s: %d (%.1f%%)\n", reportStatusNames[s], n, p)
	}

	b.WriteString("\nСОЗДАННЫЕ ФАЙЛЫ:\n---------------\n")
	for _, f := range res.Files {
		fmt.Fprintf(&b, "- %s\n", f.Name)
	}

	fmt.Fprintf(&b, `
ОПИСАНИЕ ФАЙЛОВ:
---------------
JSON файл: Полный экспорт всех данных в JSON формате
CSV файлы: Отдельные таблицы для анализа в Excel/Google Sheets
- users.csv: Информация о всех пользователях
- feedback.csv: Вся обратная связь от пользователей
- user_actions.csv: Популярные действия пользователей
- statistics.csv: Общая статистика системы
- daily_activity.csv: Ежедневная активность пользователей
XLSX файл: Те же таблицы на отдельных листах
analytics_report.json: Воронка конверсии и активность по дням недели

РЕКОМЕНДАЦИИ:
------------
1. Регулярно создавайте резервные копии данных
2. Анализируйте статистику для улучшения процессов
3. Обратите внимание на пользователей, застрявших на этапах
4. Используйте обратную связь для развития системы

Экспорт завершен: %s
`, res.ExportedAt.Format(layout))
	return b.String()
}
