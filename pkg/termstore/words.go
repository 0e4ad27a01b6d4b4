package termstore

import (
	"strings"
	"unicode"

	"github.com/kljensen/snowball"
)

// TokenType identifies the type of token.
type TokenType int

const (
	TokenWord TokenType = iota
	TokenSeparator
)

// RawToken is a run of word or separator runes. Start and End are rune
// offsets.
type RawToken struct {
	Text  string
	Type  TokenType
	Start int
	End   int
}

// SplitWords splits text into words and separators.
// Word characters: letters and numbers.
// Separators: whitespace, punctuation, symbols.
func SplitWords(text string) []RawToken {
	var tokens []RawToken
	runes := []rune(text)

	if len(runes) == 0 {
		return tokens
	}

	start := 0
	currentType := getTokenType(runes[0])

	for i := 1; i <= len(runes); i++ {
		var nextType TokenType
		if i < len(runes) {
			nextType = getTokenType(runes[i])
		} else {
			nextType = TokenType(-1) // Force flush
		}

		if nextType != currentType {
			tokens = append(tokens, RawToken{
				Text:  string(runes[start:i]),
				Type:  currentType,
				Start: start,
				End:   i,
			})
			start = i
			currentType = nextType
		}
	}

	return tokens
}

// getTokenType determines if a rune is a word character or separator.
func getTokenType(r rune) TokenType {
	if unicode.IsLetter(r) || unicode.IsNumber(r) {
		return TokenWord
	}
	return TokenSeparator
}

// GlossKey returns the reverse-search key for a definition word: the
// lowercased English Snowball stem. Words shorter than two runes or
// containing non-Latin letters have no key.
func GlossKey(word string) (string, bool) {
	lower := strings.ToLower(word)
	n := 0
	for _, r := range lower {
		if unicode.IsLetter(r) && !unicode.Is(unicode.Latin, r) {
			return "", false
		}
		n++
	}
	if n < 2 {
		return "", false
	}

	stemmed, err := snowball.Stem(lower, "english", true)
	if err != nil || stemmed == "" {
		return lower, true
	}
	return stemmed, true
}

// glossKeys returns the distinct reverse-search keys of a text.
func glossKeys(text string) []string {
	var keys []string
	seen := make(map[string]struct{})
	for _, tok := range SplitWords(text) {
		if tok.Type != TokenWord {
			continue
		}
		key, ok := GlossKey(tok.Text)
		if !ok {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		keys = append(keys, key)
	}
	return keys
}
