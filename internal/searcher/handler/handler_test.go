package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Adithya-Monish-Kumar-K/oogle/internal/index"
	"github.com/Adithya-Monish-Kumar-K/oogle/internal/ingest"
	"github.com/Adithya-Monish-Kumar-K/oogle/internal/searcher/cache"
	"github.com/Adithya-Monish-Kumar-K/oogle/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/oogle/pkg/localcache"
	"github.com/Adithya-Monish-Kumar-K/oogle/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pages = []index.Document{
	{URL: "http://www.microsoft.com", Content: "Microsoft is the finest software company in the world said a Microsoft employee recently."},
	{URL: "http://www.google.com", Content: "Don't be evil, that is our corporate motto, and whatsa motto with that, quipped a Google official."},
	{URL: "http://www.amazon.com", Content: "Jeff is our leader. Jeff is the man. Jeff is the king of books and stuff."},
	{URL: "http://intranet", Content: "Access to the internet will be restricted to management. It is a crazy world out there"},
	{URL: "http://www.bt.com", Content: "We officially provide internet access for both corporate users and the man on the street. That is our aim, worldwide."},
}

type fixture struct {
	handler *Handler
	mux     *http.ServeMux
	metrics *metrics.Metrics
}

func newFixture(t *testing.T, withCache bool) *fixture {
	t.Helper()
	var store cache.Store
	if withCache {
		store = localcache.New(64, time.Minute)
	}
	return newFixtureWith(t, pages, store, 8)
}

// newFixtureWith builds a handler over docs. A nil store disables caching.
func newFixtureWith(t *testing.T, docs []index.Document, store cache.Store, maxWords int) *fixture {
	t.Helper()
	m := metrics.NewWithRegistry(prometheus.NewRegistry())
	idx := index.New()
	sink := ingest.NewSink(idx, m)
	for i := range docs {
		doc := docs[i]
		require.NoError(t, sink.Add(context.Background(), ingest.SourceFixture, &doc))
	}

	var qc *cache.QueryCache
	if store != nil {
		qc = cache.New(store, idx.ID(), time.Minute, m)
	}
	h := New(sink, executor.New(idx, maxWords), qc, m)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/documents", h.AddDocument)
	mux.HandleFunc("GET /api/v1/search", h.Search)
	mux.HandleFunc("POST /api/v1/search", h.SearchJSON)
	mux.HandleFunc("GET /api/v1/size", h.Size)
	mux.HandleFunc("GET /api/v1/cache/stats", h.CacheStats)
	mux.HandleFunc("POST /api/v1/cache/invalidate", h.CacheInvalidate)
	return &fixture{handler: h, mux: mux, metrics: m}
}

func (f *fixture) do(t *testing.T, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rec := httptest.NewRecorder()
	f.mux.ServeHTTP(rec, req)
	return rec
}

func decodeResult(t *testing.T, rec *httptest.ResponseRecorder) executor.SearchResult {
	t.Helper()
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var result executor.SearchResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	return result
}

func resultURLs(result executor.SearchResult) []string {
	out := make([]string, len(result.Results))
	for i, d := range result.Results {
		out[i] = d.URL
	}
	return out
}

func TestSearch_Get(t *testing.T) {
	f := newFixture(t, false)

	tests := []struct {
		name   string
		target string
		want   []string
	}{
		{"single word", "/api/v1/search?q=Microsoft", []string{"http://www.microsoft.com"}},
		{"query words", "/api/v1/search?q=internet+access", []string{"http://intranet", "http://www.bt.com"}},
		{"repeated w params", "/api/v1/search?w=our&w=corporate&w=official", []string{"http://www.google.com"}},
		{"q and w combined", "/api/v1/search?q=officially&w=worldwide", []string{"http://www.bt.com"}},
		{"no match", "/api/v1/search?q=world+man", []string{}},
		{"substring", "/api/v1/search?q=ompany", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := decodeResult(t, f.do(t, http.MethodGet, tt.target, ""))
			assert.Equal(t, tt.want, resultURLs(result))
			assert.Equal(t, len(tt.want), result.TotalHits)
		})
	}
}

func TestSearch_EmptyResultIsJSONArray(t *testing.T) {
	f := newFixture(t, false)
	rec := f.do(t, http.MethodGet, "/api/v1/search?q=aardvark", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"words":["aardvark"],"total_hits":0,"results":[]}`, rec.Body.String())
}

func TestSearch_InvalidWords(t *testing.T) {
	f := newFixture(t, false)

	tests := []struct {
		name   string
		method string
		target string
		body   string
		code   int
	}{
		{"no query", http.MethodGet, "/api/v1/search", "", http.StatusBadRequest},
		{"blank w", http.MethodGet, "/api/v1/search?q=is&w=", "", http.StatusBadRequest},
		{"null word", http.MethodPost, "/api/v1/search", `{"words":["is",null]}`, http.StatusBadRequest},
		{"blank word", http.MethodPost, "/api/v1/search", `{"words":["is","  "]}`, http.StatusBadRequest},
		{"empty list", http.MethodPost, "/api/v1/search", `{"words":[]}`, http.StatusBadRequest},
		{"null list", http.MethodPost, "/api/v1/search", `{"words":null}`, http.StatusBadRequest},
		{"malformed body", http.MethodPost, "/api/v1/search", `{"words":`, http.StatusBadRequest},
		{"too many words", http.MethodGet, "/api/v1/search?q=a+b+c+d+e+f+g+h+i", "", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := f.do(t, tt.method, tt.target, tt.body)
			assert.Equal(t, tt.code, rec.Code)
			assert.Contains(t, rec.Body.String(), "invalid argument")
		})
	}
	assert.Equal(t, float64(len(tests)), testutil.ToFloat64(f.metrics.SearchQueriesTotal.WithLabelValues(metrics.ResultInvalid)))
}

func TestSearch_Post(t *testing.T) {
	f := newFixture(t, false)
	result := decodeResult(t, f.do(t, http.MethodPost, "/api/v1/search", `{"words":["MAN"]}`))
	assert.Equal(t, []string{"http://www.amazon.com", "http://www.bt.com"}, resultURLs(result))
	assert.Equal(t, []string{"MAN"}, result.Words)
}

func TestAddDocument(t *testing.T) {
	f := newFixture(t, false)

	rec := f.do(t, http.MethodPost, "/api/v1/documents", `{"url":"http://aardvark","content":"The aardvark digs."}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.JSONEq(t, `{"size":6}`, rec.Body.String())

	result := decodeResult(t, f.do(t, http.MethodGet, "/api/v1/search?q=aardvark", ""))
	assert.Equal(t, []string{"http://aardvark"}, resultURLs(result))
}

func TestAddDocument_Invalid(t *testing.T) {
	f := newFixture(t, false)

	for name, body := range map[string]string{
		"null document": `null`,
		"blank url":     `{"url":" ","content":"Stuff"}`,
		"missing body":  ``,
		"empty content": `{"url":"http://","content":""}`,
		"unknown field": `{"url":"http://x","content":"y","rank":1}`,
	} {
		t.Run(name, func(t *testing.T) {
			rec := f.do(t, http.MethodPost, "/api/v1/documents", body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}

	rec := f.do(t, http.MethodGet, "/api/v1/size", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var size map[string]int
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &size))
	assert.Equal(t, 5, size["documents"])
	assert.Positive(t, size["terms"])
}

func TestSearch_CacheHitAndGeneration(t *testing.T) {
	f := newFixture(t, true)

	first := decodeResult(t, f.do(t, http.MethodGet, "/api/v1/search?q=jeff", ""))
	second := decodeResult(t, f.do(t, http.MethodGet, "/api/v1/search?q=JEFF", ""))
	assert.Equal(t, resultURLs(first), resultURLs(second))
	assert.Equal(t, []string{"JEFF"}, second.Words)
	assert.Equal(t, float64(1), testutil.ToFloat64(f.metrics.CacheHitsTotal))

	rec := f.do(t, http.MethodPost, "/api/v1/documents", `{"url":"http://jeff","content":"jeff again"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	third := decodeResult(t, f.do(t, http.MethodGet, "/api/v1/search?q=jeff", ""))
	assert.Equal(t, []string{"http://www.amazon.com", "http://jeff"}, resultURLs(third))
	assert.Equal(t, float64(1), testutil.ToFloat64(f.metrics.CacheHitsTotal))
}

func TestCacheEndpoints(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		f := newFixture(t, false)
		rec := f.do(t, http.MethodGet, "/api/v1/cache/stats", "")
		assert.JSONEq(t, `{"status":"disabled"}`, rec.Body.String())
		rec = f.do(t, http.MethodPost, "/api/v1/cache/invalidate", "")
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})
	t.Run("enabled", func(t *testing.T) {
		f := newFixture(t, true)
		f.do(t, http.MethodGet, "/api/v1/search?q=is", "")
		f.do(t, http.MethodGet, "/api/v1/search?q=is", "")

		rec := f.do(t, http.MethodGet, "/api/v1/cache/stats", "")
		assert.JSONEq(t, `{"hits":1,"misses":1,"total":2,"hit_rate":"50.0%"}`, rec.Body.String())

		rec = f.do(t, http.MethodPost, "/api/v1/cache/invalidate", "")
		assert.Equal(t, http.StatusOK, rec.Code)
		f.do(t, http.MethodGet, "/api/v1/search?q=is", "")
		assert.Equal(t, float64(2), testutil.ToFloat64(f.metrics.CacheMissesTotal))
	})
}

func TestSearch_RecordsMetrics(t *testing.T) {
	f := newFixture(t, false)
	f.do(t, http.MethodGet, "/api/v1/search?q=is", "")
	f.do(t, http.MethodGet, "/api/v1/search?q=aardvark", "")

	assert.Equal(t, float64(1), testutil.ToFloat64(f.metrics.SearchQueriesTotal.WithLabelValues(metrics.ResultHit)))
	assert.Equal(t, float64(1), testutil.ToFloat64(f.metrics.SearchQueriesTotal.WithLabelValues(metrics.ResultZero)))
	assert.Equal(t, 1, testutil.CollectAndCount(f.metrics.SearchLatency))
}

func TestSearch_SharedStoreKeepsIndexesApart(t *testing.T) {
	store := localcache.New(64, time.Minute)
	a := newFixtureWith(t, []index.Document{{URL: "http://a", Content: "alpha zebra"}}, store, 8)
	b := newFixtureWith(t, []index.Document{{URL: "http://b", Content: "alpha beta"}}, store, 8)

	first := decodeResult(t, a.do(t, http.MethodGet, "/api/v1/search?q=zebra", ""))
	assert.Equal(t, []string{"http://a"}, resultURLs(first))

	second := decodeResult(t, b.do(t, http.MethodGet, "/api/v1/search?q=zebra", ""))
	assert.Empty(t, second.Results)
	assert.Equal(t, 0, second.TotalHits)
	assert.Equal(t, float64(0), testutil.ToFloat64(b.metrics.CacheHitsTotal))

	rec := b.do(t, http.MethodPost, "/api/v1/cache/invalidate", "")
	require.Equal(t, http.StatusOK, rec.Code)
	decodeResult(t, a.do(t, http.MethodGet, "/api/v1/search?q=zebra", ""))
	assert.Equal(t, float64(1), testutil.ToFloat64(a.metrics.CacheHitsTotal))
}

func TestSearch_WordLimitAppliesToCachedQueries(t *testing.T) {
	f := newFixtureWith(t, []index.Document{{URL: "http://a", Content: "alpha beta"}}, localcache.New(64, time.Minute), 2)

	rec := f.do(t, http.MethodGet, "/api/v1/search?q=alpha+alpha+alpha", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	decodeResult(t, f.do(t, http.MethodGet, "/api/v1/search?q=alpha", ""))

	rec = f.do(t, http.MethodGet, "/api/v1/search?q=alpha+alpha+alpha", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "at most 2 search words")

	rec = f.do(t, http.MethodPost, "/api/v1/search", `{"words":["ALPHA","alpha","Alpha"]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	assert.Equal(t, float64(0), testutil.ToFloat64(f.metrics.CacheHitsTotal))
	assert.Equal(t, float64(3), testutil.ToFloat64(f.metrics.SearchQueriesTotal.WithLabelValues(metrics.ResultInvalid)))
}
