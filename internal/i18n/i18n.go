package i18n

import (
	"embed"
	"encoding/json"
	"log"

	"github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"
)

//go:embed locales/*.json
var localeFS embed.FS

func NewLocalizer(defaultLang string) *i18n.Localizer {
	bundle := i18n.NewBundle(language.English)
	bundle.RegisterUnmarshalFunc("json", json.Unmarshal)

	for _, file := range []string{"locales/en.json", "locales/hi.json"} {
		if _, err := bundle.LoadMessageFileFS(localeFS, file); err != nil {
			log.Printf("Warning: could not load %s: %v", file, err)
		}
	}

	langTag := language.English
	if defaultLang == "hi" {
		langTag = language.Hindi
	}

	return i18n.NewLocalizer(bundle, langTag.String())
}

// Text localizes messageID, falling back to the id itself so a missing
// translation never blanks out a message.
func Text(l *i18n.Localizer, messageID string, data map[string]string) string {
	text, err := l.Localize(&i18n.LocalizeConfig{MessageID: messageID, TemplateData: data})
	if err != nil || text == "" {
		log.Printf("Warning: could not localize %s: %v", messageID, err)
		return messageID
	}
	return text
}
