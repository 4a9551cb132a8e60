package tts

import (
	"errors"
	"path/filepath"
	"strings"
)

// defaultRegions picks a region for bare language codes.
var defaultRegions = map[string]string{
	"ru": "RU",
	"en": "US",
	"uz": "UZ",
	"de": "DE",
	"fr": "FR",
	"es": "ES",
	"it": "IT",
	"uk": "UA",
	"kk": "KZ",
}

// BaseLanguage returns the language part of a locale: "ru-RU" -> "ru".
func BaseLanguage(locale string) string {
	lang, _, _ := strings.Cut(strings.ReplaceAll(locale, "_", "-"), "-")
	return strings.ToLower(lang)
}

// RegionLocale returns a full xx-YY locale: "ru" -> "ru-RU".
// Unknown bare languages get their own code upper-cased as region.
func RegionLocale(locale string) string {
	lang, region, found := strings.Cut(strings.ReplaceAll(locale, "_", "-"), "-")
	lang = strings.ToLower(lang)
	if found && region != "" {
		return lang + "-" + strings.ToUpper(region)
	}
	if r, ok := defaultRegions[lang]; ok {
		return lang + "-" + r
	}
	return lang + "-" + strings.ToUpper(lang)
}

// FormatFromFilename returns the lower-cased extension without the dot: "one-ru.AAC" -> "aac".
func FormatFromFilename(name string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
}

// ValidateText rejects text no engine can speak.
func ValidateText(provider, text string) error {
	if strings.TrimSpace(text) == "" {
		return NewError(UnsupportedInput, provider, 0, errors.New("text is empty"))
	}
	return nil
}

var xmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	"\"", "&quot;",
	"'", "&apos;",
)

// EscapeXML makes plain text safe to embed in SSML.
func EscapeXML(text string) string {
	return xmlEscaper.Replace(text)
}
