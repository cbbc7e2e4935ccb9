// Package index implements an append-only, in-memory inverted index that
// answers conjunctive whole-word queries.
package index

import (
	"crypto/rand"
	"encoding/hex"
	"sort"
	"sync"

	"github.com/Adithya-Monish-Kumar-K/oogle/internal/index/tokenizer"
	apperrors "github.com/Adithya-Monish-Kumar-K/oogle/pkg/errors"
)

// Index stores documents in insertion order and maps every token to the
// ordinals of the documents containing it. A single lock guards both so an
// added document is visible to Size and Find at the same moment.
type Index struct {
	id       string
	mu       sync.RWMutex
	docs     []Document
	postings map[string]PostingList
}

func New() *Index {
	return &Index{
		id:       newInstanceID(),
		postings: make(map[string]PostingList),
	}
}

// ID identifies this index instance. Two indexes never share an ID, even
// when they hold the same documents.
func (x *Index) ID() string {
	return x.id
}

func newInstanceID() string {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		panic("index: reading random instance id: " + err.Error())
	}
	return hex.EncodeToString(b)
}

// Add validates doc and appends a copy of it to the index. Nothing is
// modified when validation fails.
func (x *Index) Add(doc *Document) error {
	if err := Validate(doc); err != nil {
		return err
	}
	terms := tokenizer.Tokenize(doc.Content)

	x.mu.Lock()
	defer x.mu.Unlock()

	ordinal := len(x.docs)
	x.docs = append(x.docs, *doc)
	for _, term := range terms {
		x.postings[term] = append(x.postings[term], ordinal)
	}
	return nil
}

// Find returns the documents containing every word as a whole word, ignoring
// case, in the order they were added. An unknown word yields an empty result.
func (x *Index) Find(words ...string) ([]Document, error) {
	terms, err := queryTerms(words)
	if err != nil {
		return nil, err
	}

	x.mu.RLock()
	defer x.mu.RUnlock()

	lists := make([]PostingList, 0, len(terms))
	for _, term := range terms {
		postings, ok := x.postings[term]
		if !ok {
			return []Document{}, nil
		}
		lists = append(lists, postings)
	}
	sort.Slice(lists, func(i, j int) bool {
		return len(lists[i]) < len(lists[j])
	})

	matches := lists[0]
	for _, postings := range lists[1:] {
		if len(matches) == 0 {
			break
		}
		matches = matches.Intersect(postings)
	}

	result := make([]Document, len(matches))
	for i, ordinal := range matches {
		result[i] = x.docs[ordinal]
	}
	return result, nil
}

// Size returns the number of documents added, duplicates included.
func (x *Index) Size() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.docs)
}

// Terms returns the number of distinct tokens in the index.
func (x *Index) Terms() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.postings)
}

// Documents returns a copy of every stored document in insertion order.
func (x *Index) Documents() []Document {
	x.mu.RLock()
	defer x.mu.RUnlock()
	out := make([]Document, len(x.docs))
	copy(out, x.docs)
	return out
}

// queryTerms validates the raw query words and returns their distinct
// normalised forms.
func queryTerms(words []string) ([]string, error) {
	if len(words) == 0 {
		return nil, apperrors.InvalidArgument("at least one search word is required")
	}
	seen := make(map[string]struct{}, len(words))
	terms := make([]string, 0, len(words))
	for i, w := range words {
		if isBlank(w) {
			return nil, apperrors.InvalidArgument("search word %d is blank", i)
		}
		term := tokenizer.Normalize(w)
		if _, dup := seen[term]; dup {
			continue
		}
		seen[term] = struct{}{}
		terms = append(terms, term)
	}
	return terms, nil
}
