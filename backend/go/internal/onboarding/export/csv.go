package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"time"

	"OnboardingBuddy/backend/go/internal/models"
)

func writeCSV(path string, header []string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		f.Close()
		return err
	}
	if err := w.WriteAll(rows); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func isoTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

var userColumns = []string{"user_id", "username", "full_name", "position", "status", "stage", "progress_percentage", "created_at", "updated_at"}

func userRows(users []models.User) [][]string {
	rows := make([][]string, 0, len(users))
	for _, u := range users {
		rows = append(rows, []string{
			strconv.FormatInt(u.UserID, 10),
			u.Username,
			u.FullName,
			u.Position,
			string(u.Status),
			strconv.Itoa(u.Stage),
			fmt.Sprintf("%.1f%%", u.ProgressPercent()),
			isoTime(u.CreatedAt),
			isoTime(u.UpdatedAt),
		})
	}
	return rows
}

func writeUsersCSV(path string, users []models.User) error {
	return writeCSV(path, userColumns, userRows(users))
}

var feedbackColumns = []string{"id", "user_id", "user_name", "username", "message", "created_at"}

func feedbackRows(items []models.FeedbackView) [][]string {
	rows := make([][]string, 0, len(items))
	for _, f := range items {
		rows = append(rows, []string{
			strconv.FormatUint(uint64(f.ID), 10),
			strconv.FormatInt(f.UserID, 10),
			f.Author(),
			f.Username,
			f.Message,
			isoTime(f.CreatedAt),
		})
	}
	return rows
}

func writeFeedbackCSV(path string, items []models.FeedbackView) error {
	return writeCSV(path, feedbackColumns, feedbackRows(items))
}

var actionColumns = []string{"action", "count", "period"}

func actionRows(actions []models.ActionCount) [][]string {
	period := fmt.Sprintf("%d days", analyticsDays)
	rows := make([][]string, 0, len(actions))
	for _, a := range actions {
		rows = append(rows, []string{a.Action, strconv.FormatInt(a.Count, 10), period})
	}
	return rows
}

func writeActionsCSV(path string, actions []models.ActionCount) error {
	return writeCSV(path, actionColumns, actionRows(actions))
}

var statisticsColumns = []string{"metric", "value"}

func statisticsRows(st *models.Statistics) [][]string {
	rows := [][]string{
		{"total_users", strconv.FormatInt(st.TotalUsers, 10)},
		{"active_week", strconv.FormatInt(st.ActiveWeek, 10)},
		{"completion_rate", fmt.Sprintf("%g%%", st.CompletionRate)},
		{"avg_progress", strconv.FormatFloat(st.AvgProgress, 'f', -1, 64)},
		{"total_feedback", strconv.FormatInt(st.TotalFeedback, 10)},
	}
	for _, s := range models.AllStatuses {
		rows = append(rows, []string{"status_" + string(s), strconv.FormatInt(st.Count(s), 10)})
	}
	return rows
}

func writeStatisticsCSV(path string, st *models.Statistics) error {
	return writeCSV(path, statisticsColumns, statisticsRows(st))
}

var dailyColumns = []string{"date", "unique_users", "total_actions"}

func dailyRows(days []models.DailyActivity) [][]string {
	rows := make([][]string, 0, len(days))
	for _, d := range days {
		rows = append(rows, []string{d.Date, strconv.FormatInt(d.UniqueUsers, 10), strconv.FormatInt(d.Actions, 10)})
	}
	return rows
}

func writeDailyCSV(path string, days []models.DailyActivity) error {
	return writeCSV(path, dailyColumns, dailyRows(days))
}
