package codegen

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	titleCaser = cases.Title(language.Und, cases.NoLower)
	lowerCaser = cases.Lower(language.Und)
)

// words splits a group name on every rune that is not a letter or digit.
func words(name string) []string {
	return strings.FieldsFunc(name, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// Identifiers returns the value identifier (snake_case) and type identifier
// (PascalCase) for a group name. ok is false when name has no letters or
// digits at all.
func Identifiers(name string) (value, typ string, ok bool) {
	parts := words(name)
	if len(parts) == 0 {
		return "", "", false
	}
	var v, t strings.Builder
	for i, p := range parts {
		if i > 0 {
			v.WriteByte('_')
		}
		v.WriteString(lowerCaser.String(p))
		t.WriteString(titleCaser.String(p))
	}
	value, typ = v.String(), t.String()
	if c := value[0]; c >= '0' && c <= '9' {
		value, typ = "_"+value, "_"+typ
	}
	return value, typ, true
}
