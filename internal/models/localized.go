package models

import "strings"

// LocalizedText stores a bilingual value as two columns.
type LocalizedText struct {
	En string `json:"en"`
	Ar string `json:"ar"`
}

// In returns the value for the requested language, falling back to English.
func (t LocalizedText) In(lang string) string {
	if strings.HasPrefix(lang, "ar") && t.Ar != "" {
		return t.Ar
	}
	if t.En != "" {
		return t.En
	}
	return t.Ar
}

// IsZero reports whether both translations are empty.
func (t LocalizedText) IsZero() bool {
	return strings.TrimSpace(t.En) == "" && strings.TrimSpace(t.Ar) == ""
}
