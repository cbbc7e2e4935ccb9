package index

import (
	"fmt"
	"sync"
	"testing"

	apperrors "github.com/Adithya-Monish-Kumar-K/oogle/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pages = []Document{
	{"http://www.microsoft.com", "Microsoft is the finest software company in the world said a Microsoft employee recently."},
	{"http://www.google.com", "Don't be evil, that is our corporate motto, and whatsa motto with that, quipped a Google official."},
	{"http://www.amazon.com", "Jeff is our leader. Jeff is the man. Jeff is the king of books and stuff."},
	{"http://intranet", "Access to the internet will be restricted to management. It is a crazy world out there"},
	{"http://www.bt.com", "We officially provide internet access for both corporate users and the man on the street. That is our aim, worldwide."},
}

func newPageIndex(t testing.TB) *Index {
	t.Helper()
	idx := New()
	for i := range pages {
		require.NoError(t, idx.Add(&pages[i]))
	}
	return idx
}

func urls(docs []Document) []string {
	out := make([]string, len(docs))
	for i, d := range docs {
		out[i] = d.URL
	}
	return out
}

func find(t *testing.T, idx *Index, words ...string) []string {
	t.Helper()
	docs, err := idx.Find(words...)
	require.NoError(t, err)
	return urls(docs)
}

func TestIndex_Size(t *testing.T) {
	assert.Equal(t, 0, New().Size())
	assert.Equal(t, 5, newPageIndex(t).Size())
}

func TestIndex_IDIsPerInstance(t *testing.T) {
	a, b := New(), New()
	assert.Len(t, a.ID(), 16)
	assert.NotEqual(t, a.ID(), b.ID())
	require.NoError(t, a.Add(NewDocument("http://a", "alpha")))
	assert.Equal(t, a.ID(), a.ID())
}

func TestIndex_Find(t *testing.T) {
	idx := newPageIndex(t)

	tests := []struct {
		name  string
		words []string
		want  []string
	}{
		{"most common word", []string{"is"}, urls(pages)},
		{"unusual word", []string{"Aardvark"}, []string{}},
		{"single match", []string{"Microsoft"}, []string{"http://www.microsoft.com"}},
		{"case insensitive", []string{"microSOFT"}, []string{"http://www.microsoft.com"}},
		{"all words must match", []string{"corporate", "and", "aardvark", "software", "company"}, []string{}},
		{"and example one", []string{"internet", "access"}, []string{"http://intranet", "http://www.bt.com"}},
		{"and example two", []string{"our", "corporate", "official"}, []string{"http://www.google.com"}},
		{"multi word no results", []string{"world", "man"}, []string{}},
		{"last word in page", []string{"officially", "worldwide"}, []string{"http://www.bt.com"}},
		{"substring is not a word", []string{"ompany"}, []string{}},
		{"world is not worldwide", []string{"world"}, []string{"http://www.microsoft.com", "http://intranet"}},
		{"man is not management", []string{"man"}, []string{"http://www.amazon.com", "http://www.bt.com"}},
		{"apostrophe word", []string{"don't"}, []string{"http://www.google.com"}},
		{"punctuation in query never matches", []string{"man."}, []string{}},
		{"repeated word", []string{"jeff", "JEFF"}, []string{"http://www.amazon.com"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, find(t, idx, tt.words...))
		})
	}
}

func TestIndex_FindCaseVariantsAgree(t *testing.T) {
	idx := newPageIndex(t)
	want := find(t, idx, "microsoft")
	assert.Equal(t, want, find(t, idx, "Microsoft"))
	assert.Equal(t, want, find(t, idx, "MICROSOFT"))
}

func TestIndex_FindWordOrderDoesNotMatter(t *testing.T) {
	idx := newPageIndex(t)
	assert.Equal(t, find(t, idx, "officially", "worldwide"), find(t, idx, "worldwide", "officially"))
	assert.Equal(t, find(t, idx, "internet", "access"), find(t, idx, "access", "internet"))
}

func TestIndex_FindReturnsEmptyNotNil(t *testing.T) {
	docs, err := newPageIndex(t).Find("aardvark")
	require.NoError(t, err)
	assert.NotNil(t, docs)
	assert.Empty(t, docs)
}

func TestIndex_FindRejectsInvalidWords(t *testing.T) {
	idx := newPageIndex(t)

	tests := []struct {
		name  string
		words []string
	}{
		{"no words", nil},
		{"empty word", []string{""}},
		{"blank word", []string{"   "}},
		{"blank word in middle", []string{"is", "", "and"}},
		{"blank last word", []string{"is", "\t"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			docs, err := idx.Find(tt.words...)
			require.Error(t, err)
			assert.ErrorIs(t, err, apperrors.ErrInvalidArgument)
			assert.Nil(t, docs)
		})
	}
	assert.Equal(t, 5, idx.Size())
}

func TestIndex_AddRejectsInvalidDocuments(t *testing.T) {
	tests := []struct {
		name string
		doc  *Document
	}{
		{"nil document", nil},
		{"blank url", NewDocument("", "Stuff")},
		{"whitespace url", NewDocument("  ", "Stuff")},
		{"empty content", NewDocument("http://", "")},
		{"whitespace content", NewDocument("http://", " \n\t")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			idx := newPageIndex(t)
			terms := idx.Terms()

			err := idx.Add(tt.doc)
			require.Error(t, err)
			assert.ErrorIs(t, err, apperrors.ErrInvalidArgument)
			assert.Equal(t, 5, idx.Size())
			assert.Equal(t, terms, idx.Terms())
		})
	}
}

func TestIndex_AddDuplicates(t *testing.T) {
	idx := New()
	doc := NewDocument("http://dup", "the same words twice")
	require.NoError(t, idx.Add(doc))
	require.NoError(t, idx.Add(doc))

	assert.Equal(t, 2, idx.Size())
	assert.Equal(t, []string{"http://dup", "http://dup"}, find(t, idx, "same", "words"))
}

func TestIndex_StoredDocumentsAreCopies(t *testing.T) {
	idx := New()
	doc := NewDocument("http://a", "alpha beta")
	require.NoError(t, idx.Add(doc))
	doc.URL = "http://mutated"
	doc.Content = "gamma"

	assert.Equal(t, []string{"http://a"}, find(t, idx, "alpha"))
	assert.Empty(t, find(t, idx, "gamma"))

	docs := idx.Documents()
	docs[0].URL = "http://changed"
	assert.Equal(t, "http://a", idx.Documents()[0].URL)
}

func TestIndex_ContentWithoutWords(t *testing.T) {
	idx := New()
	require.NoError(t, idx.Add(NewDocument("http://punct", "?!...")))
	assert.Equal(t, 1, idx.Size())
	assert.Equal(t, 0, idx.Terms())
}

func TestIndex_ResultsKeepInsertionOrder(t *testing.T) {
	idx := New()
	for i := 0; i < 50; i++ {
		content := fmt.Sprintf("common filler %d", i)
		if i%3 == 0 {
			content += " rare"
		}
		require.NoError(t, idx.Add(NewDocument(fmt.Sprintf("http://doc/%d", i), content)))
	}

	got := find(t, idx, "rare", "common")
	require.Len(t, got, 17)
	for i, u := range got {
		assert.Equal(t, fmt.Sprintf("http://doc/%d", i*3), u)
	}
}

func TestIndex_ConcurrentAddAndFind(t *testing.T) {
	idx := New()
	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				doc := NewDocument(fmt.Sprintf("http://w%d/%d", worker, i), "shared words here")
				assert.NoError(t, idx.Add(doc))
			}
		}(w)
	}
	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				_, err := idx.Find("shared", "words")
				assert.NoError(t, err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 400, idx.Size())
	assert.Len(t, find(t, idx, "shared", "here"), 400)
}

func TestPostingList_Intersect(t *testing.T) {
	a := PostingList{1, 3, 5, 7, 9}
	b := PostingList{0, 3, 4, 9, 12}
	assert.Equal(t, PostingList{3, 9}, a.Intersect(b))
	assert.Equal(t, PostingList{3, 9}, b.Intersect(a))
	assert.Empty(t, a.Intersect(PostingList{2, 4}))
	assert.Equal(t, PostingList{1, 3, 5, 7, 9}, a)
}
