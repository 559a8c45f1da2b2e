package view

import (
	"log/slog"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	textcatalog "golang.org/x/text/message/catalog"
)

// Message keys. English text doubles as the key, so an unknown locale still reads well.
const (
	msgProgress       = "%d%% Complete"
	msgModuleTitle    = "Module %d: %s"
	msgStepLabel      = "Step %d"
	msgStepPosition   = "%d/%d"
	msgNext           = "Next →"
	msgTakeQuiz       = "Take Quiz →"
	msgSubmitAnswer   = "Submit Answer"
	msgNextQuestion   = "Next Question"
	msgCompleteModule = "Complete Module"
	msgCorrect        = "✅ Correct!"
	msgIncorrect      = "❌ Incorrect"
	msgBadgeCompleted = "✅ Completed"
	msgBadgeAvailable = "📚 Available"
	msgBadgeLocked    = "🔒 Locked"
	msgAchievement    = "You've completed Module %d: %s!"
	msgMinutes        = "%.2f min"
	msgScore          = "%d%%"
	msgAllDone        = "Congratulations! You've completed all modules!"
)

var translations = map[language.Tag]map[string]string{
	language.Malay: {
		msgProgress:       "%d%% Selesai",
		msgModuleTitle:    "Modul %d: %s",
		msgStepLabel:      "Langkah %d",
		msgNext:           "Seterusnya →",
		msgTakeQuiz:       "Ambil Kuiz →",
		msgSubmitAnswer:   "Hantar Jawapan",
		msgNextQuestion:   "Soalan Seterusnya",
		msgCompleteModule: "Selesaikan Modul",
		msgCorrect:        "✅ Betul!",
		msgIncorrect:      "❌ Salah",
		msgBadgeCompleted: "✅ Selesai",
		msgBadgeAvailable: "📚 Tersedia",
		msgBadgeLocked:    "🔒 Dikunci",
		msgAchievement:    "Anda telah menyelesaikan Modul %d: %s!",
		msgMinutes:        "%.2f min",
		msgAllDone:        "Tahniah! Anda telah menyelesaikan semua modul!",
	},
}

var messages = buildCatalog()

func buildCatalog() textcatalog.Catalog {
	b := textcatalog.NewBuilder(textcatalog.Fallback(language.English))
	for tag, msgs := range translations {
		for key, msg := range msgs {
			if err := b.SetString(tag, key, msg); err != nil {
				slog.Warn("invalid translation", "locale", tag, "key", key, "error", err)
			}
		}
	}
	return b
}

// NewPrinter returns a printer for locale, falling back to English for
// unknown or unsupported locales.
func NewPrinter(locale string) *message.Printer {
	tag, err := language.Parse(locale)
	if err != nil {
		slog.Warn("unknown locale, using English", "locale", locale, "error", err)
		tag = language.English
	}
	supported := append([]language.Tag{language.English}, messages.Languages()...)
	_, idx, _ := language.NewMatcher(supported).Match(tag)
	return message.NewPrinter(supported[idx], message.Catalog(messages))
}
