// Package handler exposes the index over HTTP: document ingestion, word
// search, size and cache administration.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/Adithya-Monish-Kumar-K/oogle/internal/index"
	"github.com/Adithya-Monish-Kumar-K/oogle/internal/ingest"
	"github.com/Adithya-Monish-Kumar-K/oogle/internal/searcher/cache"
	"github.com/Adithya-Monish-Kumar-K/oogle/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/oogle/internal/searcher/parser"
	apperrors "github.com/Adithya-Monish-Kumar-K/oogle/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/oogle/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/oogle/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/oogle/pkg/tracing"
)

const maxBodyBytes = 1 << 20

// Cache status labels for SearchLatency.
const (
	cacheHit      = "hit"
	cacheMiss     = "miss"
	cacheDisabled = "disabled"
)

// DocumentStore is the write and size side of the index.
type DocumentStore interface {
	Add(ctx context.Context, source string, doc *index.Document) error
	Size() int
	Terms() int
}

type SearchExecutor interface {
	Validate(ctx context.Context, words []string) error
	Execute(ctx context.Context, words []string) (*executor.SearchResult, error)
}

type Handler struct {
	store    DocumentStore
	executor SearchExecutor
	cache    *cache.QueryCache
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

// New builds a Handler. queryCache and m may be nil.
func New(store DocumentStore, exec SearchExecutor, queryCache *cache.QueryCache, m *metrics.Metrics) *Handler {
	return &Handler{
		store:    store,
		executor: exec,
		cache:    queryCache,
		metrics:  m,
		logger:   slog.Default().With("component", "search-handler"),
	}
}

type sizeResponse struct {
	Size int `json:"size"`
}

// AddDocument indexes the JSON document in the request body.
func (h *Handler) AddDocument(w http.ResponseWriter, r *http.Request) {
	var doc *index.Document
	if err := decodeBody(w, r, &doc); err != nil {
		h.writeErr(w, r, err)
		return
	}
	if err := h.store.Add(r.Context(), ingest.SourceHTTP, doc); err != nil {
		h.writeErr(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, sizeResponse{Size: h.store.Size()})
}

// Search answers GET requests. Words come from the whitespace-separated q
// parameter followed by every w parameter.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()
	words := parser.Merge(params.Get("q"), params["w"])
	h.search(w, r, words)
}

type searchRequest struct {
	Words []*string `json:"words"`
}

// SearchJSON answers POST requests carrying {"words": [...]}. A null entry
// is rejected as an invalid argument.
func (h *Handler) SearchJSON(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := decodeBody(w, r, &req); err != nil {
		h.recordQuery(metrics.ResultInvalid, cacheDisabled, 0, 0)
		h.writeErr(w, r, err)
		return
	}
	words := make([]string, len(req.Words))
	for i, word := range req.Words {
		if word == nil {
			h.recordQuery(metrics.ResultInvalid, cacheDisabled, 0, 0)
			h.writeErr(w, r, apperrors.InvalidArgument("search word %d is null", i))
			return
		}
		words[i] = *word
	}
	h.search(w, r, words)
}

func (h *Handler) search(w http.ResponseWriter, r *http.Request, words []string) {
	start := time.Now()
	log := logger.FromContext(r.Context())
	ctx, span := tracing.Start(r.Context(), "search")
	defer func() {
		span.End()
		span.Log(log)
	}()

	compute := func() (*executor.SearchResult, error) {
		return h.executor.Execute(ctx, words)
	}

	var (
		result *executor.SearchResult
		status = cacheDisabled
	)
	err := h.executor.Validate(ctx, words)
	switch {
	case err != nil:
	case h.cache != nil:
		var hit bool
		result, hit, err = h.cache.GetOrCompute(ctx, words, h.store.Size(), compute)
		status = cacheMiss
		if hit {
			status = cacheHit
		}
		span.SetAttr("cache", status)
	default:
		result, err = compute()
	}
	elapsed := time.Since(start)

	if err != nil {
		resultType := metrics.ResultError
		if apperrors.IsInvalidArgument(err) {
			resultType = metrics.ResultInvalid
		} else {
			log.Error("search failed", "words", words, "error", err)
		}
		h.recordQuery(resultType, status, elapsed, 0)
		h.writeErr(w, r, err)
		return
	}

	resultType := metrics.ResultHit
	if result.TotalHits == 0 {
		resultType = metrics.ResultZero
	}
	h.recordQuery(resultType, status, elapsed, result.TotalHits)

	log.Info("search completed",
		"words", words,
		"total_hits", result.TotalHits,
		"cache", status,
		"latency_ms", elapsed.Milliseconds(),
	)
	h.writeJSON(w, http.StatusOK, result)
}

func (h *Handler) recordQuery(resultType, cacheStatus string, elapsed time.Duration, hits int) {
	if h.metrics == nil {
		return
	}
	h.metrics.SearchQueriesTotal.WithLabelValues(resultType).Inc()
	if resultType == metrics.ResultInvalid {
		return
	}
	h.metrics.SearchLatency.WithLabelValues(cacheStatus).Observe(elapsed.Seconds())
	h.metrics.SearchResultsCount.Observe(float64(hits))
}

// Size reports the number of documents and distinct terms.
func (h *Handler) Size(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]int{
		"documents": h.store.Size(),
		"terms":     h.store.Terms(),
	})
}

func (h *Handler) CacheStats(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		h.writeJSON(w, http.StatusOK, map[string]string{"status": "disabled"})
		return
	}

	hits, misses := h.cache.Stats()
	total := hits + misses
	var hitRate float64
	if total > 0 {
		hitRate = float64(hits) / float64(total) * 100
	}

	h.writeJSON(w, http.StatusOK, map[string]any{
		"hits":     hits,
		"misses":   misses,
		"total":    total,
		"hit_rate": fmt.Sprintf("%.1f%%", hitRate),
	})
}

func (h *Handler) CacheInvalidate(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		h.writeError(w, http.StatusServiceUnavailable, "caching is disabled")
		return
	}

	if err := h.cache.Invalidate(r.Context()); err != nil {
		logger.FromContext(r.Context()).Error("cache invalidation failed", "error", err)
		h.writeError(w, http.StatusInternalServerError, "cache invalidation failed")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{"status": "invalidated"})
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return apperrors.New(apperrors.ErrInvalidArgument, http.StatusRequestEntityTooLarge, "request body too large")
		}
		return apperrors.InvalidArgument("malformed request body: %v", err)
	}
	return nil
}

// writeErr maps err to its HTTP status. Server-side failures are reported
// without detail.
func (h *Handler) writeErr(w http.ResponseWriter, r *http.Request, err error) {
	status := apperrors.HTTPStatusCode(err)
	if status >= http.StatusInternalServerError {
		logger.FromContext(r.Context()).Error("request failed", "error", err)
		h.writeError(w, status, http.StatusText(status))
		return
	}
	h.writeError(w, status, err.Error())
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to write response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
