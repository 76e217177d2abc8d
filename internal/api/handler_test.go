package api

import (
	"bytes"
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/smc-benchmark/smcbench/internal/benchmark"
	"github.com/smc-benchmark/smcbench/internal/frame"
	"github.com/smc-benchmark/smcbench/internal/store"
)

type controllableClock struct {
	mu  sync.RWMutex
	now time.Time
}

func newControllableClock(initial time.Time) *controllableClock {
	return &controllableClock{now: initial}
}

func (c *controllableClock) Now() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.now
}

func (c *controllableClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// gapForceFrame builds a two channel frame from descending gap knots and
// the force F = slope*(10-h).
func gapForceFrame(t *testing.T, slope float64) *frame.Frame {
	t.Helper()

	fr, err := frame.New(benchmark.Gap, benchmark.Force)
	if err != nil {
		t.Fatalf("failed to create frame: %v", err)
	}
	for _, h := range []float64{10, 8} {
		if err := fr.AppendRow(h, slope*(10-h)); err != nil {
			t.Fatalf("failed to append row: %v", err)
		}
	}
	return fr
}

func testCorpus(t *testing.T) map[benchmark.Institution]benchmark.Dataset {
	t.Helper()

	ds := benchmark.NewDataset()
	ds.Add("CF5050K", "3mm 100x100", 1, gapForceFrame(t, 100))
	ds.Add("CF5050K", "3mm 100x100", 2, gapForceFrame(t, 300))

	return map[benchmark.Institution]benchmark.Dataset{benchmark.KIT: ds}
}

func setupTestRouter(t *testing.T, opts ...HandlerOption) (http.Handler, *controllableClock) {
	t.Helper()

	st := store.New()
	st.Replace(testCorpus(t))
	clock := newControllableClock(time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC))

	handler := NewHandler(st, append([]HandlerOption{WithClock(clock.Now)}, opts...)...)
	logger := zaptest.NewLogger(t)
	router := NewRouter(handler, logger, WithLogging(false))

	return router, clock
}

func postJSON(t *testing.T, router http.Handler, path string, payload any) *httptest.ResponseRecorder {
	t.Helper()

	data, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("failed to marshal payload: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestRequestIDHelpers(t *testing.T) {
	ctx := contextWithRequestID(context.Background(), "abc")
	if got := requestIDFromContext(ctx); got != "abc" {
		t.Fatalf("expected abc, got %s", got)
	}
	resp := httptest.NewRecorder()
	writeInternalError(resp, assertError("boom"))
	if resp.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 status, got %d", resp.Code)
	}
}

type assertError string

func (a assertError) Error() string { return string(a) }

func TestHealthEndpoint(t *testing.T) {
	router, clock := setupTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	var body struct {
		Status    string    `json:"status"`
		Timestamp time.Time `json:"timestamp"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if body.Status != "ok" {
		t.Fatalf("expected status ok, got %s", body.Status)
	}
	if !body.Timestamp.Equal(clock.Now()) {
		t.Fatalf("expected timestamp %s, got %s", clock.Now(), body.Timestamp)
	}
}

func TestInstitutionsEndpoint(t *testing.T) {
	router, _ := setupTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/institutions", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	var body struct {
		Institutions []struct {
			Name    string `json:"name"`
			Loaded  bool   `json:"loaded"`
			Samples int    `json:"samples"`
		} `json:"institutions"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if len(body.Institutions) != len(benchmark.Institutions()) {
		t.Fatalf("expected %d institutions, got %d", len(benchmark.Institutions()), len(body.Institutions))
	}
	for _, info := range body.Institutions {
		if info.Name == string(benchmark.KIT) {
			if !info.Loaded || info.Samples != 2 {
				t.Fatalf("expected kit loaded with 2 samples, got loaded=%t samples=%d", info.Loaded, info.Samples)
			}
		} else if info.Loaded {
			t.Fatalf("expected %s to be unloaded", info.Name)
		}
	}
}

func TestDatasetsEndpoint(t *testing.T) {
	router, _ := setupTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/datasets", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	var body struct {
		Datasets map[string]map[string]map[string][]int `json:"datasets"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	numbers := body.Datasets["kit"]["CF5050K"]["3mm 100x100"]
	if len(numbers) != 2 || numbers[0] != 1 || numbers[1] != 2 {
		t.Fatalf("expected sample numbers [1 2], got %v", numbers)
	}
}

func TestDatasetEndpoint(t *testing.T) {
	router, _ := setupTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/datasets/kit", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	var body struct {
		Institution string                      `json:"institution"`
		Samples     int                         `json:"samples"`
		Materials   map[string]map[string][]int `json:"materials"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if body.Institution != "kit" {
		t.Fatalf("expected institution kit, got %s", body.Institution)
	}
	if body.Samples != 2 {
		t.Fatalf("expected 2 samples, got %d", body.Samples)
	}
	if _, ok := body.Materials["CF5050K"]; !ok {
		t.Fatalf("expected CF5050K material, got %v", body.Materials)
	}
}

func TestDatasetEndpointUnknownInstitution(t *testing.T) {
	router, _ := setupTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/datasets/mit", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", rec.Code)
	}
}

func TestDatasetEndpointNotLoaded(t *testing.T) {
	router, _ := setupTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/datasets/tum", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", rec.Code)
	}

	var body struct {
		Suggestion string `json:"suggestion"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body.Suggestion == "" {
		t.Fatalf("expected suggestion to be populated")
	}
}

func TestSampleEndpoint(t *testing.T) {
	router, _ := setupTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/samples/kit/CF5050K/3mm+100x100/1", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	var body struct {
		Institution   string               `json:"institution"`
		Specification string               `json:"specification"`
		Number        int                  `json:"number"`
		Rows          int                  `json:"rows"`
		Channels      map[string][]float64 `json:"channels"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if body.Specification != "3mm 100x100" {
		t.Fatalf("expected specification with a space, got %q", body.Specification)
	}
	if body.Rows != 2 {
		t.Fatalf("expected 2 rows, got %d", body.Rows)
	}
	gaps := body.Channels[benchmark.Gap]
	if len(gaps) != 2 || gaps[0] != 10 || gaps[1] != 8 {
		t.Fatalf("expected gap channel [10 8], got %v", gaps)
	}
}

func TestSampleEndpointRendersNaNAsNull(t *testing.T) {
	fr, err := frame.New(benchmark.Gap, benchmark.Force)
	if err != nil {
		t.Fatalf("failed to create frame: %v", err)
	}
	if err := fr.AppendRow(10, math.NaN()); err != nil {
		t.Fatalf("failed to append row: %v", err)
	}
	ds := benchmark.NewDataset()
	ds.Add("CF5050K", "3mm 100x100", 1, fr)

	st := store.New()
	st.Replace(map[benchmark.Institution]benchmark.Dataset{benchmark.KIT: ds})
	handler := NewHandler(st)
	router := NewRouter(handler, zaptest.NewLogger(t), WithLogging(false))

	req := httptest.NewRequest(http.MethodGet, "/api/samples/kit/CF5050K/3mm+100x100/1", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	var body struct {
		Channels map[string][]*float64 `json:"channels"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	forces := body.Channels[benchmark.Force]
	if len(forces) != 1 || forces[0] != nil {
		t.Fatalf("expected NaN force to decode as null, got %v", forces)
	}
}

func TestSampleEndpointNotFound(t *testing.T) {
	router, _ := setupTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/samples/kit/CF5050K/3mm+100x100/9", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", rec.Code)
	}
}

func TestSampleEndpointRejectsBadNumber(t *testing.T) {
	router, _ := setupTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/samples/kit/CF5050K/3mm+100x100/first", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rec.Code)
	}
}

func TestStatsEndpoint(t *testing.T) {
	router, _ := setupTestRouter(t)

	rec := postJSON(t, router, "/api/stats", map[string]any{
		"institution":   "kit",
		"material":      "CF5050K",
		"specification": "3mm 100x100",
	})

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	var body struct {
		XColumn string    `json:"xColumn"`
		YColumn string    `json:"yColumn"`
		Samples int       `json:"samples"`
		X       []float64 `json:"x"`
		Mean    []float64 `json:"mean"`
		Std     []float64 `json:"std"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if body.XColumn != benchmark.Gap || body.YColumn != benchmark.Force {
		t.Fatalf("expected default columns h and F, got %s and %s", body.XColumn, body.YColumn)
	}
	if body.Samples != 2 {
		t.Fatalf("expected 2 samples, got %d", body.Samples)
	}
	if len(body.X) == 0 || len(body.X) != len(body.Mean) || len(body.X) != len(body.Std) {
		t.Fatalf("expected aligned curves, got %d/%d/%d points", len(body.X), len(body.Mean), len(body.Std))
	}

	// The samples are F = 100*(10-h) and F = 300*(10-h), so at the lower
	// grid edge h=8 the mean is 400 and the population deviation 200.
	if math.Abs(body.X[0]-8) > 1e-6 {
		t.Fatalf("expected grid to start at 8, got %v", body.X[0])
	}
	if math.Abs(body.Mean[0]-400) > 1e-6 {
		t.Fatalf("expected mean 400 at h=8, got %v", body.Mean[0])
	}
	if math.Abs(body.Std[0]-200) > 1e-6 {
		t.Fatalf("expected std 200 at h=8, got %v", body.Std[0])
	}
}

func TestStatsEndpointWithCrop(t *testing.T) {
	router, _ := setupTestRouter(t)

	rec := postJSON(t, router, "/api/stats", map[string]any{
		"institution":   "kit",
		"material":      "CF5050K",
		"specification": "3mm 100x100",
		"crop":          map[string]any{"start": 8.5, "end": 9.5},
	})

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	var body struct {
		X []float64 `json:"x"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(body.X) == 0 {
		t.Fatalf("expected a non-empty grid")
	}
	for _, x := range body.X {
		if x < 8.5-1e-6 || x > 9.5+1e-6 {
			t.Fatalf("expected cropped grid within [8.5, 9.5], got %v", x)
		}
	}
}

func TestStatsEndpointUnknownSelection(t *testing.T) {
	router, _ := setupTestRouter(t)

	cases := []struct {
		name    string
		payload map[string]any
	}{
		{"UnknownInstitution", map[string]any{"institution": "mit", "material": "CF5050K", "specification": "3mm 100x100"}},
		{"NotLoaded", map[string]any{"institution": "tum", "material": "CF5050K", "specification": "3mm 100x100"}},
		{"NoSamples", map[string]any{"institution": "kit", "material": "CF5050K", "specification": "7mm 100x100"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := postJSON(t, router, "/api/stats", tc.payload)
			if rec.Code != http.StatusNotFound {
				t.Fatalf("expected status 404, got %d", rec.Code)
			}
		})
	}
}

func TestStatsEndpointNoOverlap(t *testing.T) {
	ds := benchmark.NewDataset()
	ds.Add("CF5050K", "3mm 100x100", 1, gapForceFrame(t, 100))

	low, err := frame.New(benchmark.Gap, benchmark.Force)
	if err != nil {
		t.Fatalf("failed to create frame: %v", err)
	}
	for _, h := range []float64{5, 4} {
		if err := low.AppendRow(h, 10*h); err != nil {
			t.Fatalf("failed to append row: %v", err)
		}
	}
	ds.Add("CF5050K", "3mm 100x100", 2, low)

	st := store.New()
	st.Replace(map[benchmark.Institution]benchmark.Dataset{benchmark.KIT: ds})
	handler := NewHandler(st)
	router := NewRouter(handler, zaptest.NewLogger(t), WithLogging(false))

	rec := postJSON(t, router, "/api/stats", map[string]any{
		"institution":   "kit",
		"material":      "CF5050K",
		"specification": "3mm 100x100",
	})

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected status 422, got %d", rec.Code)
	}

	var body struct {
		Suggestion string `json:"suggestion"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body.Suggestion == "" {
		t.Fatalf("expected suggestion to be populated")
	}
}

func TestStatsEndpointRejectsBadJSON(t *testing.T) {
	router, _ := setupTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/stats", bytes.NewReader([]byte("{")))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rec.Code)
	}
}

func TestExtractEndpoint(t *testing.T) {
	router, _ := setupTestRouter(t)

	rec := postJSON(t, router, "/api/extract", map[string]any{
		"institution":   "kit",
		"material":      "CF5050K",
		"specification": "3mm 100x100",
		"gaps":          []float64{9},
		"secantWidth":   0.5,
	})

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	var body struct {
		Gaps        []float64 `json:"gaps"`
		SecantWidth float64   `json:"secantWidth"`
		Results     []struct {
			Number int `json:"number"`
			Values []struct {
				Gap         *float64 `json:"gap"`
				Force       *float64 `json:"force"`
				SecantSlope *float64 `json:"secantSlope"`
			} `json:"values"`
		} `json:"results"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if len(body.Results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(body.Results))
	}
	first := body.Results[0]
	if first.Number != 1 || len(first.Values) != 1 {
		t.Fatalf("expected sample 1 with one value, got %+v", first)
	}
	v := first.Values[0]
	if v.Gap == nil || v.Force == nil || v.SecantSlope == nil {
		t.Fatalf("expected in-range extraction, got nulls: %+v", v)
	}
	if math.Abs(*v.Force-100) > 1e-9 {
		t.Fatalf("expected force 100 at gap 9, got %v", *v.Force)
	}
	if math.Abs(*v.SecantSlope-100) > 1e-9 {
		t.Fatalf("expected secant slope 100, got %v", *v.SecantSlope)
	}
	second := body.Results[1].Values[0]
	if math.Abs(*second.Force-300) > 1e-9 {
		t.Fatalf("expected force 300 for the steeper sample, got %v", *second.Force)
	}
}

func TestExtractEndpointOutOfRangeGapIsNull(t *testing.T) {
	router, _ := setupTestRouter(t)

	rec := postJSON(t, router, "/api/extract", map[string]any{
		"institution":   "kit",
		"material":      "CF5050K",
		"specification": "3mm 100x100",
		"gaps":          []float64{4},
	})

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	var body struct {
		Results []struct {
			Values []struct {
				Gap         *float64 `json:"gap"`
				Force       *float64 `json:"force"`
				SecantSlope *float64 `json:"secantSlope"`
			} `json:"values"`
		} `json:"results"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	v := body.Results[0].Values[0]
	if v.Gap != nil || v.Force != nil || v.SecantSlope != nil {
		t.Fatalf("expected all-null row for a gap below the data, got %+v", v)
	}
}

func TestExtractEndpointValidation(t *testing.T) {
	router, _ := setupTestRouter(t)

	cases := []struct {
		name    string
		payload map[string]any
	}{
		{"NegativeGap", map[string]any{"institution": "kit", "material": "CF5050K", "specification": "3mm 100x100", "gaps": []float64{-1}}},
		{"NegativeSecantWidth", map[string]any{"institution": "kit", "material": "CF5050K", "specification": "3mm 100x100", "secantWidth": -0.5}},
		{"NegativeFilterWindow", map[string]any{"institution": "kit", "material": "CF5050K", "specification": "3mm 100x100", "filterWindow": -3}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := postJSON(t, router, "/api/extract", tc.payload)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected status 400, got %d", rec.Code)
			}
		})
	}
}

func TestExtractEndpointUnknownSelection(t *testing.T) {
	router, _ := setupTestRouter(t)

	rec := postJSON(t, router, "/api/extract", map[string]any{
		"institution":   "kit",
		"material":      "CF5050K",
		"specification": "7mm 100x100",
	})

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", rec.Code)
	}
}

func TestReloadEndpoint(t *testing.T) {
	corpus := testCorpus(t)
	st := store.New()
	clock := newControllableClock(time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC))
	handler := NewHandler(st,
		WithClock(clock.Now),
		WithReload(func() (map[benchmark.Institution]benchmark.Dataset, error) {
			return corpus, nil
		}),
	)
	router := NewRouter(handler, zaptest.NewLogger(t), WithLogging(false))

	clock.Advance(time.Hour)

	rec := postJSON(t, router, "/api/reload", map[string]any{})

	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected status 202, got %d", rec.Code)
	}

	var body struct {
		Institutions int       `json:"institutions"`
		Samples      int       `json:"samples"`
		ReloadedAt   time.Time `json:"reloadedAt"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if body.Institutions != 1 {
		t.Fatalf("expected 1 institution, got %d", body.Institutions)
	}
	if body.Samples != 2 {
		t.Fatalf("expected 2 samples, got %d", body.Samples)
	}
	if !body.ReloadedAt.Equal(clock.Now()) {
		t.Fatalf("expected reloadedAt %s, got %s", clock.Now(), body.ReloadedAt)
	}

	if _, ok := st.Dataset(benchmark.KIT); !ok {
		t.Fatalf("expected store to serve the reloaded corpus")
	}
}

func TestReloadEndpointUnavailable(t *testing.T) {
	router, _ := setupTestRouter(t)

	rec := postJSON(t, router, "/api/reload", map[string]any{})

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected status 503, got %d", rec.Code)
	}
}

func TestReloadEndpointFailure(t *testing.T) {
	st := store.New()
	handler := NewHandler(st, WithReload(func() (map[benchmark.Institution]benchmark.Dataset, error) {
		return nil, assertError("disk gone")
	}))
	router := NewRouter(handler, zaptest.NewLogger(t), WithLogging(false))

	rec := postJSON(t, router, "/api/reload", map[string]any{})

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected status 500, got %d", rec.Code)
	}
}

func TestCorsPreflight(t *testing.T) {
	router, _ := setupTestRouter(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/stats", nil)
	req.Header.Set("Origin", "https://example.com")
	req.Header.Set("Access-Control-Request-Method", "POST")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected status 204, got %d", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") == "" {
		t.Fatalf("expected Access-Control-Allow-Origin header to be set")
	}
}

func TestRequestIDPropagation(t *testing.T) {
	router, _ := setupTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set("X-Request-ID", "test-request-id")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if got := rec.Header().Get("X-Request-ID"); got != "test-request-id" {
		t.Fatalf("expected X-Request-ID header to be echoed, got %s", got)
	}
}
