package config

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"unicode"
)

var (
	tokenPattern    = regexp.MustCompile(`^\d+:[A-Za-z0-9_-]{35}$`)
	emailPattern    = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_]{5,32}$`)
	phoneCleaner    = regexp.MustCompile(`[^\d+]`)
	phonePatterns   = []*regexp.Regexp{
		regexp.MustCompile(`^\+7\d{10}$`),
		regexp.MustCompile(`^8\d{10}$`),
		regexp.MustCompile(`^\+\d{10,15}$`),
	}
)

// ValidateTelegramToken checks the "<digits>:<35 chars>" Bot API token shape.
func ValidateTelegramToken(token string) error {
	if token == "" || token == DefaultBotToken {
		return errors.New("токен не указан")
	}
	if !tokenPattern.MatchString(token) {
		return errors.New("неверный формат токена")
	}
	return nil
}

// ValidateAdminIDs checks that every id looks like a real Telegram user id.
func ValidateAdminIDs(ids []int64) error {
	if len(ids) == 0 {
		return errors.New("ID администраторов не указаны")
	}
	for _, id := range ids {
		if id <= 0 {
			return fmt.Errorf("ID %d должен быть положительным числом", id)
		}
		if id < 10000 {
			return fmt.Errorf("ID %d слишком маленький для Telegram", id)
		}
	}
	return nil
}

// ValidateEmail checks the address format and RFC length limits.
func ValidateEmail(email string) error {
	if email == "" {
		return errors.New("email не указан")
	}
	if !emailPattern.MatchString(email) {
		return errors.New("неверный формат email")
	}
	if len(email) > 254 {
		return errors.New("email слишком длинный")
	}
	if local := email[:strings.Index(email, "@")]; len(local) > 64 {
		return errors.New("локальная часть email слишком длинная")
	}
	return nil
}

// ValidateTelegramUsername accepts names with or without the leading "@".
func ValidateTelegramUsername(username string) error {
	if username == "" {
		return errors.New("username не указан")
	}
	username = strings.TrimPrefix(username, "@")
	if !usernamePattern.MatchString(username) {
		return errors.New("username должен содержать 5-32 символа (буквы, цифры, _)")
	}
	if unicode.IsDigit(rune(username[0])) {
		return errors.New("username не может начинаться с цифры")
	}
	if strings.HasSuffix(username, "_") {
		return errors.New("username не может заканчиваться на _")
	}
	return nil
}

// ValidateURL requires an http(s) scheme and a host.
func ValidateURL(raw string) error {
	if raw == "" {
		return errors.New("URL не указан")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("ошибка парсинга URL: %w", err)
	}
	if u.Scheme == "" {
		return errors.New("URL должен содержать схему (http/https)")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return errors.New("URL должен использовать http или https")
	}
	if u.Host == "" {
		return errors.New("URL должен содержать домен")
	}
	if i := strings.IndexAny(raw, "<>\"{}|^`"); i >= 0 {
		return fmt.Errorf("URL содержит недопустимый символ: %c", raw[i])
	}
	return nil
}

// ValidatePhone accepts Russian and international numbers, ignoring separators.
func ValidatePhone(phone string) error {
	if phone == "" {
		return errors.New("номер телефона не указан")
	}
	cleaned := phoneCleaner.ReplaceAllString(phone, "")
	for _, p := range phonePatterns {
		if p.MatchString(cleaned) {
			return nil
		}
	}
	return errors.New("неверный формат номера телефона")
}

// ValidateCompanyName checks the length of the company name.
func ValidateCompanyName(name string) error {
	switch n := len([]rune(name)); {
	case n == 0:
		return errors.New("название компании не указано")
	case n < 2:
		return errors.New("название компании слишком короткое")
	case n > 100:
		return errors.New("название компании слишком длинное")
	}
	if strings.TrimSpace(name) == "" {
		return errors.New("название компании не может состоять только из пробелов")
	}
	return nil
}

// ValidateFilePath rejects parent references and shell metacharacters.
func ValidateFilePath(path string) error {
	if path == "" {
		return errors.New("путь к файлу не указан")
	}
	for _, bad := range []string{"..", "<", ">", "|", "?", "*"} {
		if strings.Contains(path, bad) {
			return fmt.Errorf("путь содержит недопустимый символ: %s", bad)
		}
	}
	return nil
}

// ValidateLogLevel accepts the level names understood by the logger.
func ValidateLogLevel(level string) error {
	if level == "" {
		return errors.New("уровень логирования не указан")
	}
	switch strings.ToUpper(level) {
	case "DEBUG", "INFO", "WARN", "WARNING", "ERROR", "CRITICAL":
		return nil
	}
	return errors.New("уровень должен быть одним из: DEBUG, INFO, WARNING, ERROR, CRITICAL")
}

// ValidateBroadcastDelay bounds the pause between broadcast sends, in seconds.
func ValidateBroadcastDelay(delay float64) error {
	if delay < 0 {
		return errors.New("задержка не может быть отрицательной")
	}
	if delay > 10 {
		return errors.New("задержка слишком большая (максимум 10 сек)")
	}
	return nil
}

// ValidateMessageLength bounds the maximum broadcast length.
func ValidateMessageLength(length int) error {
	if length < 100 {
		return errors.New("минимальная длина сообщения: 100 символов")
	}
	if length > 10000 {
		return errors.New("максимальная длина сообщения: 10000 символов")
	}
	return nil
}
