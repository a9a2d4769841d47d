package models

import "fmt"

// Stage numbers of the adaptation path. 1-5 are preboarding, 6-10 onboarding.
const (
	StageNone              = 0
	StageRegistration      = 1
	StageDocumentsIntro    = 2
	StageDocumentsMain     = 3
	StageDocumentsLabour   = 4
	StageDocumentsComplete = 5
	StageOnboardingStart   = 6
	StageEmailAccess       = 7
	StageTeamIntro         = 8
	StageMeetings          = 9
	StageComplete          = 10

	MaxStage = StageComplete
)

var stageNames = map[int]string{
	StageRegistration:      "Регистрация",
	StageDocumentsIntro:    "Знакомство с документами",
	StageDocumentsMain:     "Основные документы",
	StageDocumentsLabour:   "Документы по ТК РФ",
	StageDocumentsComplete: "Завершение пребординга",
	StageOnboardingStart:   "Начало онбординга",
	StageEmailAccess:       "Получение доступов",
	StageTeamIntro:         "Знакомство с командой",
	StageMeetings:          "Планерки и встречи",
	StageComplete:          "Завершение онбординга",
}

var nextStepHints = map[int]string{
	StageNone:              "Начните с раздела '🚀 Пребординг'",
	StageRegistration:      "Ознакомьтесь с требуемыми документами",
	StageDocumentsIntro:    "Отправьте основные документы",
	StageDocumentsMain:     "Отправьте документы по ТК РФ",
	StageDocumentsLabour:   "Дождитесь обработки документов",
	StageDocumentsComplete: "Переходите к разделу '📋 Онбординг'",
	StageOnboardingStart:   "Получите доступ к корпоративной почте",
	StageEmailAccess:       "Изучите информацию о команде",
	StageTeamIntro:         "Ознакомьтесь с планерками",
	StageMeetings:          "Завершите онбординг",
	StageComplete:          "Все этапы пройдены! 🎉",
}

// StageName returns the display name of a stage.
func StageName(stage int) string {
	if n, ok := stageNames[stage]; ok {
		return n
	}
	return fmt.Sprintf("Этап %d", stage)
}

// NextStepHint describes what the user should do after reaching stage.
func NextStepHint(stage int) string {
	if h, ok := nextStepHints[stage]; ok {
		return h
	}
	return "Продолжайте процесс адаптации"
}
