package service

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/samber/lo"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Normalize folds s for guess comparison: it is lower-cased using the rules
// of lang and every diacritic is stripped, so "Ș", "ș", "ş" and "s" all fold
// to "s". Normalize is idempotent.
//
// Casers and transformers keep internal state, so both are built per call.
func Normalize(s, lang string) string {
	lowered := cases.Lower(languageTag(lang)).String(s)
	stripped, _, err := transform.String(transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC), lowered)
	if err != nil {
		return lowered
	}
	return stripped
}

// normalizeLetter trims and folds a single-letter guess. ok is false when the
// folded input is not exactly one letter.
func normalizeLetter(input, lang string) (string, bool) {
	folded := Normalize(strings.TrimSpace(input), lang)
	if utf8.RuneCountInString(folded) != 1 {
		return "", false
	}
	r, _ := utf8.DecodeRuneInString(folded)
	if !unicode.IsLetter(r) {
		return "", false
	}
	return folded, true
}

// revealLetter returns pattern with every cell whose secret character folds
// to letter replaced by that character. changed reports whether any cell
// was newly revealed.
func revealLetter(secret, pattern, letter, lang string) (string, bool) {
	secretRunes := []rune(secret)
	cells := []rune(pattern)
	folded := lo.Map(secretRunes, func(r rune, _ int) string {
		return Normalize(string(r), lang)
	})

	changed := false
	for i, f := range folded {
		if i >= len(cells) {
			break
		}
		if f == letter && cells[i] != secretRunes[i] {
			cells[i] = secretRunes[i]
			changed = true
		}
	}
	return string(cells), changed
}

// sameWord compares two words after folding both
func sameWord(a, b, lang string) bool {
	return Normalize(strings.TrimSpace(a), lang) == Normalize(strings.TrimSpace(b), lang)
}

func languageTag(lang string) language.Tag {
	tag, err := language.Parse(lang)
	if err != nil {
		return language.Und
	}
	return tag
}
