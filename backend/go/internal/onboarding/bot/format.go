package bot

import (
	"fmt"
	"time"
	"unicode/utf8"
)

func formatDate(t time.Time) string {
	if t.IsZero() {
		return "Неизвестно"
	}
	return t.Format("02.01.2006")
}

func formatShortDateTime(t time.Time) string {
	if t.IsZero() {
		return "Неизвестно"
	}
	return t.Format("02.01.2006 15:04")
}

func formatDateTime(t time.Time) string {
	return t.Format("02.01.2006 15:04:05")
}

// timeInSystem renders the age of an account as "N дн. H ч.".
func timeInSystem(since, now time.Time) string {
	d := now.Sub(since)
	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	switch {
	case days > 0 && hours > 0:
		return fmt.Sprintf("%d дн. %d ч.", days, hours)
	case days > 0:
		return fmt.Sprintf("%d дн.", days)
	case hours > 0:
		return fmt.Sprintf("%d ч.", hours)
	default:
		return "меньше часа"
	}
}

func percent(part, total int64) float64 {
	if total == 0 {
		return 0
	}
	return float64(part) / float64(total) * 100
}

func shorten(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n]) + "..."
}
