package i18n

import (
	"embed"
	"encoding/json"
	"fmt"

	"github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"
)

//go:embed locales/*.json
var localeFS embed.FS

// Localizer resolves service message texts: the chat apology, rate-limit
// and degraded-mode notices. Catalogs are embedded so the binary is
// self-contained.
type Localizer struct {
	bundle          *i18n.Bundle
	defaultLanguage string
	localizers      map[string]*i18n.Localizer
}

// NewLocalizer creates a localizer over the embedded catalogs.
func NewLocalizer(defaultLanguage string, languages []string) (*Localizer, error) {
	if defaultLanguage == "" {
		defaultLanguage = "en"
	}
	if len(languages) == 0 {
		languages = []string{"en"}
	}

	bundle := i18n.NewBundle(language.English)
	bundle.RegisterUnmarshalFunc("json", json.Unmarshal)

	localizers := make(map[string]*i18n.Localizer)
	for _, lang := range languages {
		if _, err := bundle.LoadMessageFileFS(localeFS, fmt.Sprintf("locales/%s.json", lang)); err != nil {
			return nil, fmt.Errorf("failed to load language file %s: %w", lang, err)
		}
		localizers[lang] = i18n.NewLocalizer(bundle, lang)
	}

	return &Localizer{
		bundle:          bundle,
		defaultLanguage: defaultLanguage,
		localizers:      localizers,
	}, nil
}

// Get returns localized message
func (l *Localizer) Get(lang, messageID string, data map[string]interface{}) string {
	localizer, exists := l.localizers[lang]
	if !exists {
		localizer = l.localizers[l.defaultLanguage]
	}

	msg, err := localizer.Localize(&i18n.LocalizeConfig{
		MessageID:    messageID,
		TemplateData: data,
	})
	if err != nil {
		return messageID // Fallback to message ID
	}

	return msg
}

// Default returns the message in the default language.
func (l *Localizer) Default(messageID string) string {
	return l.Get(l.defaultLanguage, messageID, nil)
}

// Message IDs
const (
	MsgApology           = "apology"
	MsgEmptyContent      = "empty_content"
	MsgEmptyQuery        = "empty_query"
	MsgInvalidRequest    = "invalid_request"
	MsgRateLimitExceeded = "rate_limit_exceeded"
	MsgBanner            = "banner"
)
