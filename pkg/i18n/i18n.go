// Package i18n provides message translation for widget labels, hints,
// validation errors and view status messages.
package i18n

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrMissingTranslator is reported when no translator is configured.
	ErrMissingTranslator = errors.New("i18n: translator not configured")
	// ErrMissingTranslation is reported when a key has no message for a locale.
	ErrMissingTranslation = errors.New("i18n: missing translation")
)

// Translator resolves a message id for a locale.
type Translator interface {
	Translate(locale, key string, args ...any) (string, error)
}

// TranslatorFunc adapts a function to Translator.
type TranslatorFunc func(locale, key string, args ...any) (string, error)

func (fn TranslatorFunc) Translate(locale, key string, args ...any) (string, error) {
	return fn(locale, key, args...)
}

// MissingTranslationHandler decides the string used when a translation is
// unavailable.
type MissingTranslationHandler func(locale, key string, args []any, err error) string

// Translate looks key up through t and falls back to the interpolated
// fallback, or the key itself when fallback is empty.
func Translate(t Translator, locale, key, fallback string, args ...any) string {
	return TranslateWith(t, nil, locale, key, fallback, args...)
}

// TranslateWith behaves like Translate but routes misses through onMissing.
func TranslateWith(t Translator, onMissing MissingTranslationHandler, locale, key, fallback string, args ...any) string {
	key = strings.TrimSpace(key)
	if key == "" {
		return Interpolate(fallback, args...)
	}

	var err error
	if t == nil {
		err = ErrMissingTranslator
	} else {
		var result string
		result, err = t.Translate(locale, key, args...)
		if err == nil && strings.TrimSpace(result) != "" {
			return result
		}
		if err == nil {
			err = ErrMissingTranslation
		}
	}

	if onMissing != nil {
		return onMissing(locale, key, args, err)
	}
	if strings.TrimSpace(fallback) != "" {
		return Interpolate(fallback, args...)
	}
	return Interpolate(key, args...)
}

// Interpolate substitutes ${name} placeholders from a leading
// map[string]any argument. Other arguments are ignored.
func Interpolate(msg string, args ...any) string {
	if len(args) == 0 {
		return msg
	}
	if mapping, ok := args[0].(map[string]any); ok {
		if !strings.Contains(msg, "${") {
			return msg
		}
		pairs := make([]string, 0, len(mapping)*2)
		for name, value := range mapping {
			pairs = append(pairs, "${"+name+"}", fmt.Sprint(value))
		}
		return strings.NewReplacer(pairs...).Replace(msg)
	}
	return msg
}

// BaseLocale strips the region from a locale tag: "es-MX" becomes "es".
func BaseLocale(locale string) string {
	locale = strings.TrimSpace(locale)
	if idx := strings.IndexAny(locale, "-_"); idx > 0 {
		return locale[:idx]
	}
	return locale
}
