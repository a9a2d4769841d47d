package config

import (
	"strings"
	"testing"
)

func TestValidators(t *testing.T) {
	tests := []struct {
		name  string
		check func() error
		ok    bool
	}{
		{"token ok", func() error { return ValidateTelegramToken("123456:" + strings.Repeat("a-_9", 8) + "abc") }, true},
		{"token placeholder", func() error { return ValidateTelegramToken(DefaultBotToken) }, false},
		{"token short", func() error { return ValidateTelegramToken("123456:ABC-DEF1234ghIkl-zyx57W2v1u123ew11") }, false},
		{"admins ok", func() error { return ValidateAdminIDs([]int64{123456, 7654321}) }, true},
		{"admins empty", func() error { return ValidateAdminIDs(nil) }, false},
		{"admins negative", func() error { return ValidateAdminIDs([]int64{-5}) }, false},
		{"admins too small", func() error { return ValidateAdminIDs([]int64{9999}) }, false},
		{"email ok", func() error { return ValidateEmail("test@example.com") }, true},
		{"email invalid", func() error { return ValidateEmail("invalid-email") }, false},
		{"email long local", func() error { return ValidateEmail(strings.Repeat("a", 65) + "@example.com") }, false},
		{"username ok", func() error { return ValidateTelegramUsername("@valid_username") }, true},
		{"username digit", func() error { return ValidateTelegramUsername("@123invalid") }, false},
		{"username underscore", func() error { return ValidateTelegramUsername("hello_") }, false},
		{"username short", func() error { return ValidateTelegramUsername("abc") }, false},
		{"url ok", func() error { return ValidateURL("https://company.ru/team") }, true},
		{"url no scheme", func() error { return ValidateURL("company.ru") }, false},
		{"url ftp", func() error { return ValidateURL("ftp://company.ru") }, false},
		{"url bad char", func() error { return ValidateURL("https://company.ru/a|b") }, false},
		{"phone ru", func() error { return ValidatePhone("+7 (912) 345-67-89") }, true},
		{"phone eight", func() error { return ValidatePhone("8 912 345 67 89") }, true},
		{"phone intl", func() error { return ValidatePhone("+44 20 7946 0958") }, true},
		{"phone placeholder", func() error { return ValidatePhone("+7 (xxx) xxx-xx-xx") }, false},
		{"company ok", func() error { return ValidateCompanyName(`АО "БигТайм АйТи"`) }, true},
		{"company short", func() error { return ValidateCompanyName("А") }, false},
		{"company blank", func() error { return ValidateCompanyName("   ") }, false},
		{"path ok", func() error { return ValidateFilePath("data/onboarding.db") }, true},
		{"path parent", func() error { return ValidateFilePath("../etc/passwd") }, false},
		{"level ok", func() error { return ValidateLogLevel("warning") }, true},
		{"level bad", func() error { return ValidateLogLevel("loud") }, false},
		{"delay ok", func() error { return ValidateBroadcastDelay(0.1) }, true},
		{"delay big", func() error { return ValidateBroadcastDelay(11) }, false},
		{"length ok", func() error { return ValidateMessageLength(4000) }, true},
		{"length small", func() error { return ValidateMessageLength(50) }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.check()
			if (err == nil) != tt.ok {
				t.Errorf("got err=%v, want ok=%v", err, tt.ok)
			}
		})
	}
}
