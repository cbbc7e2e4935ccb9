// Package tokenizer splits document text into whole-word tokens for the
// inverted index and normalises query words into the same form.
package tokenizer

import (
	"strings"
	"unicode"
)

// Tokenize returns the distinct lower-cased words of text in the order they
// first appear. A word is a maximal run of letters and digits; an apostrophe
// joins two such runs ("don't") but never starts or ends a word.
func Tokenize(text string) []string {
	runes := []rune(text)
	seen := make(map[string]struct{})
	tokens := make([]string, 0, len(runes)/6)

	var word strings.Builder
	flush := func() {
		if word.Len() == 0 {
			return
		}
		term := strings.ToLower(word.String())
		word.Reset()
		if _, dup := seen[term]; dup {
			return
		}
		seen[term] = struct{}{}
		tokens = append(tokens, term)
	}

	for i, r := range runes {
		switch {
		case isWordRune(r):
			word.WriteRune(r)
		case isApostrophe(r) && word.Len() > 0 && i+1 < len(runes) && isWordRune(runes[i+1]):
			word.WriteByte('\'')
		default:
			flush()
		}
	}
	flush()
	return tokens
}

// Normalize converts a single query word into its lookup form. It does not
// strip punctuation: "aardvark!" stays as is and matches no indexed token.
func Normalize(word string) string {
	word = strings.TrimSpace(word)
	word = strings.ReplaceAll(word, "’", "'")
	return strings.ToLower(word)
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

func isApostrophe(r rune) bool {
	return r == '\'' || r == '’'
}
