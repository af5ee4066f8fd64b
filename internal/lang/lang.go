// Package lang holds the closed set of languages the translator supports.
package lang

import (
	"strings"

	"golang.org/x/text/language"
)

// Code is an ISO-639-1 language code.
type Code string

const (
	English     Code = "en"
	French      Code = "fr"
	Spanish     Code = "es"
	Yoruba      Code = "yo"
	Kinyarwanda Code = "rw"
)

// Info describes a supported language.
type Info struct {
	Code   Code   `json:"code"`
	Name   string `json:"name"`
	Flag   string `json:"flag"`
	Locale string `json:"locale"`
}

var ordered = []Info{
	{Code: English, Name: "English", Flag: "🇺🇸", Locale: "en-US"},
	{Code: French, Name: "French", Flag: "🇫🇷", Locale: "fr-FR"},
	{Code: Spanish, Name: "Spanish", Flag: "🇪🇸", Locale: "es-ES"},
	{Code: Yoruba, Name: "Yoruba", Flag: "🇳🇬", Locale: "yo-NG"},
	{Code: Kinyarwanda, Name: "Kinyarwanda", Flag: "🇷🇼", Locale: "rw-RW"},
}

var byCode = func() map[Code]Info {
	m := make(map[Code]Info, len(ordered))
	for _, info := range ordered {
		m[info.Code] = info
	}
	return m
}()

// All returns the supported languages in display order.
func All() []Info {
	out := make([]Info, len(ordered))
	copy(out, ordered)
	return out
}

// Lookup returns the Info for a code. Regional tags such as "fr-CA" resolve
// to their base language.
func Lookup(code string) (Info, bool) {
	info, ok := byCode[Code(Normalize(code))]
	return info, ok
}

// Valid reports whether c is a supported language.
func (c Code) Valid() bool {
	_, ok := byCode[c]
	return ok
}

// DisplayName returns the English name of code, or the raw code when the
// language is not in the supported set.
func DisplayName(code string) string {
	if info, ok := Lookup(code); ok {
		return info.Name
	}
	return code
}

// Locale returns the BCP-47 locale used by providers that need a region,
// falling back to the raw code.
func Locale(code string) string {
	if info, ok := Lookup(code); ok {
		return info.Locale
	}
	return code
}

// Normalize reduces a language tag to its lower-case base language.
// Unparseable input is returned trimmed and lower-cased.
func Normalize(tag string) string {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return ""
	}
	t, err := language.Parse(tag)
	if err != nil {
		return strings.ToLower(tag)
	}
	base, conf := t.Base()
	if conf == language.No {
		return strings.ToLower(tag)
	}
	return base.String()
}

// Same reports whether two tags refer to the same base language.
func Same(a, b string) bool {
	na, nb := Normalize(a), Normalize(b)
	return na != "" && na == nb
}
