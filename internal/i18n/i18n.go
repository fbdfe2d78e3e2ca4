package i18n

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/nicksnyder/go-i18n/v2/i18n"
	"go.uber.org/zap"
	"golang.org/x/text/language"
)

//go:embed all:locales
var localeFS embed.FS

// Manager owns the message bundle and one cached localizer per language.
type Manager struct {
	bundle          *i18n.Bundle
	defaultLanguage language.Tag
	Logger          *zap.Logger
	localizers      map[string]*i18n.Localizer
	availableLangs  map[string]string
}

// NewManager loads the embedded locales. defaultLang is a BCP 47 tag such as "en".
func NewManager(defaultLang string, logger *zap.Logger) (*Manager, error) {
	defaultLanguageTag, err := language.Parse(defaultLang)
	if err != nil {
		logger.Error("Failed to parse default language tag", zap.String("tag", defaultLang), zap.Error(err))
		return nil, fmt.Errorf("invalid default language tag '%s': %w", defaultLang, err)
	}

	m := &Manager{
		bundle:          i18n.NewBundle(defaultLanguageTag),
		defaultLanguage: defaultLanguageTag,
		Logger:          logger.Named("i18n"),
		localizers:      make(map[string]*i18n.Localizer),
		availableLangs:  make(map[string]string),
	}

	if err := m.LoadTranslations(); err != nil {
		return nil, err
	}

	for langCode := range m.availableLangs {
		m.localizers[langCode] = i18n.NewLocalizer(m.bundle, langCode)
	}
	if _, ok := m.localizers[defaultLang]; !ok {
		m.localizers[defaultLang] = i18n.NewLocalizer(m.bundle, defaultLang)
		base, _ := defaultLanguageTag.Base()
		m.availableLangs[defaultLang] = base.String()
		m.Logger.Warn("Default language was not found in locale files, added manually.", zap.String("lang", defaultLang))
	}

	m.Logger.Debug("i18n Manager initialized",
		zap.String("default_language", defaultLang),
		zap.Int("loaded_languages", len(m.availableLangs)),
	)
	return m, nil
}

func (m *Manager) LoadTranslations() error {
	m.bundle.RegisterUnmarshalFunc("toml", toml.Unmarshal)

	files, err := fs.ReadDir(localeFS, "locales")
	if err != nil {
		m.Logger.Error("Failed to read embedded locales directory", zap.Error(err))
		return fmt.Errorf("failed to read embedded locales directory: %w", err)
	}
	if len(files) == 0 {
		return errors.New("no locale files found")
	}

	loadedCount := 0
	for _, file := range files {
		fileName := file.Name()
		if file.IsDir() || filepath.Ext(fileName) != ".toml" {
			continue
		}
		if _, err := m.bundle.LoadMessageFileFS(localeFS, "locales/"+fileName); err != nil {
			m.Logger.Warn("Failed to load translation file", zap.String("file", fileName), zap.Error(err))
			continue
		}
		loadedCount++

		// active.en.toml and en.toml both resolve to "en"
		parts := strings.Split(strings.TrimSuffix(fileName, ".toml"), ".")
		langCode := parts[len(parts)-1]

		displayName := langCode
		if tag, parseErr := language.Parse(langCode); parseErr == nil {
			base, _ := tag.Base()
			displayName = base.String()
		} else {
			m.Logger.Warn("Failed to parse language code from filename", zap.String("file", fileName), zap.Error(parseErr))
		}
		m.availableLangs[langCode] = displayName
	}

	if loadedCount == 0 {
		return errors.New("no valid translation files loaded")
	}
	return nil
}

// T translates key. args may hold one int (plural count) and key/value pairs
// or a single map used as template data. Unknown keys are returned unchanged.
func (m *Manager) T(lang *string, key string, args ...interface{}) string {
	langCode := m.defaultLanguage.String()
	if lang != nil && *lang != "" {
		langCode = *lang
	}

	localizer, ok := m.localizers[langCode]
	if !ok {
		m.Logger.Debug("No localizer found for language, using default", zap.String("requested_lang", langCode))
		localizer = m.localizers[m.defaultLanguage.String()]
		if localizer == nil {
			return key
		}
	}

	localizeConfig := &i18n.LocalizeConfig{MessageID: key}
	templateData := make(map[string]interface{})
	pluralCount, hasCount := 0, false

	for i := 0; i < len(args); i++ {
		switch v := args[i].(type) {
		case int:
			if !hasCount {
				pluralCount, hasCount = v, true
			}
		case string:
			if i+1 < len(args) {
				templateData[v] = args[i+1]
				i++
			} else {
				m.Logger.Warn("Odd number of arguments for TemplateData", zap.String("key", key), zap.String("lastKey", v))
			}
		case map[string]interface{}:
			for k, val := range v {
				templateData[k] = val
			}
		default:
			m.Logger.Warn("Unsupported argument type in T", zap.String("key", key), zap.String("type", fmt.Sprintf("%T", args[i])))
		}
	}

	if len(templateData) > 0 {
		localizeConfig.TemplateData = templateData
	}
	// PluralCount must be a plain integer, go-i18n rejects pointers
	if hasCount {
		localizeConfig.PluralCount = pluralCount
	}

	localized, err := localizer.Localize(localizeConfig)
	if err != nil {
		var notFound *i18n.MessageNotFoundErr
		if !errors.As(err, &notFound) {
			m.Logger.Error("Failed to localize message", zap.String("key", key), zap.String("lang", langCode), zap.Error(err))
		}
		return key
	}
	return localized
}

func (m *Manager) GetAvailableLanguages() map[string]string {
	langs := make(map[string]string, len(m.availableLangs))
	for code, name := range m.availableLangs {
		langs[code] = name
	}
	return langs
}

func (m *Manager) GetDefaultLanguageTag() language.Tag {
	return m.defaultLanguage
}
