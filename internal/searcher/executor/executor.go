// Package executor evaluates conjunctive word queries against the index.
package executor

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Adithya-Monish-Kumar-K/oogle/internal/index"
	apperrors "github.com/Adithya-Monish-Kumar-K/oogle/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/oogle/pkg/tracing"
)

// SearchResult is the answer to one query, in document insertion order.
type SearchResult struct {
	Words     []string         `json:"words"`
	TotalHits int              `json:"total_hits"`
	Results   []index.Document `json:"results"`
}

// Finder is the read side of the index.
type Finder interface {
	Find(words ...string) ([]index.Document, error)
}

type Executor struct {
	finder   Finder
	maxWords int
	logger   *slog.Logger
}

// New returns an Executor over finder. maxWords <= 0 disables the word limit.
func New(finder Finder, maxWords int) *Executor {
	return &Executor{
		finder:   finder,
		maxWords: maxWords,
		logger:   slog.Default().With("component", "query-executor"),
	}
}

// Validate applies the request-level checks that hold regardless of where
// the answer comes from: a live context and the word limit. Callers serving
// from a cache run it before the lookup.
func (e *Executor) Validate(ctx context.Context, words []string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrTimeout, err)
	}
	if e.maxWords > 0 && len(words) > e.maxWords {
		return apperrors.InvalidArgument("at most %d search words are allowed, got %d", e.maxWords, len(words))
	}
	return nil
}

func (e *Executor) Execute(ctx context.Context, words []string) (*SearchResult, error) {
	if err := e.Validate(ctx, words); err != nil {
		return nil, err
	}
	_, span := tracing.Start(ctx, "index.find")
	docs, err := e.finder.Find(words...)
	span.SetAttr("results", len(docs))
	span.End()
	if err != nil {
		return nil, err
	}
	e.logger.Debug("query executed",
		"words", words,
		"results", len(docs),
	)
	return &SearchResult{
		Words:     words,
		TotalHits: len(docs),
		Results:   docs,
	}, nil
}
