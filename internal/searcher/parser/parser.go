// Package parser turns the raw query string of a search request into the
// list of words handed to the index.
package parser

import "strings"

// Parse splits query on whitespace. Every remaining word is a conjunctive
// term; there are no operators. Punctuation is left in place so the index
// decides whether a word can match.
func Parse(query string) []string {
	return strings.Fields(query)
}

// Merge combines the words of a free-text query with explicitly listed words,
// keeping order. Explicit words are passed through untouched, blank ones
// included, so validation reports them.
func Merge(query string, explicit []string) []string {
	words := Parse(query)
	return append(words, explicit...)
}
