package api

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/smc-benchmark/smcbench/internal/benchmark"
	"github.com/smc-benchmark/smcbench/internal/extract"
	"github.com/smc-benchmark/smcbench/internal/frame"
	"github.com/smc-benchmark/smcbench/internal/manipulate"
	"github.com/smc-benchmark/smcbench/internal/metrics"
	"github.com/smc-benchmark/smcbench/internal/store"
)

type contextKey string

const requestIDContextKey contextKey = "requestID"

// ReloadFunc re-reads the corpus from disk and returns the datasets to
// install.
type ReloadFunc func() (map[benchmark.Institution]benchmark.Dataset, error)

// Handler wires the dataset store into HTTP handlers.
type Handler struct {
	store   *store.Store
	reload  ReloadFunc
	metrics *metrics.Metrics

	extractDefaults extract.Options

	clock func() time.Time
}

// HandlerOption configures Handler behaviour.
type HandlerOption func(*Handler)

// WithClock overrides the time source, primarily for tests.
func WithClock(clock func() time.Time) HandlerOption {
	return func(h *Handler) {
		h.clock = clock
	}
}

// WithReload enables POST /api/reload with the given loader.
func WithReload(fn ReloadFunc) HandlerOption {
	return func(h *Handler) {
		h.reload = fn
	}
}

// WithMetrics lets the handler refresh the corpus gauges after a reload.
func WithMetrics(m *metrics.Metrics) HandlerOption {
	return func(h *Handler) {
		h.metrics = m
	}
}

// WithExtractDefaults sets the extraction options used when a request
// leaves them out.
func WithExtractDefaults(opts extract.Options) HandlerOption {
	return func(h *Handler) {
		h.extractDefaults = opts
	}
}

// NewHandler constructs a Handler around the given store.
func NewHandler(st *store.Store, opts ...HandlerOption) *Handler {
	h := &Handler{
		store: st,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	_ = r
	resp := healthResponse{
		Status:    "ok",
		Timestamp: h.clock(),
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleInstitutions(w http.ResponseWriter, r *http.Request) {
	_ = r
	counts := h.store.Counts()

	resp := institutionsResponse{Institutions: make([]institutionInfo, 0, len(benchmark.Institutions()))}
	for _, inst := range benchmark.Institutions() {
		n, loaded := counts[inst]
		resp.Institutions = append(resp.Institutions, institutionInfo{
			Name:    string(inst),
			Loaded:  loaded,
			Samples: n,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleDatasets(w http.ResponseWriter, r *http.Request) {
	_ = r
	resp := datasetsResponse{Datasets: make(map[string]datasetStructure)}
	for _, inst := range h.store.Institutions() {
		ds, ok := h.store.Dataset(inst)
		if !ok {
			continue
		}
		resp.Datasets[string(inst)] = structureOf(ds)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleDataset(w http.ResponseWriter, r *http.Request) {
	inst, err := benchmark.ParseInstitution(r.PathValue("institution"))
	if err != nil {
		writeError(w, http.StatusNotFound, "Unknown institution", err.Error())
		return
	}
	ds, ok := h.store.Dataset(inst)
	if !ok {
		writeError(w, http.StatusNotFound, "Institution not loaded",
			"no data loaded for "+string(inst),
			"Point the data root at a folder containing a "+string(inst)+" subdirectory and reload")
		return
	}

	resp := datasetResponse{
		Institution: string(inst),
		Samples:     ds.Samples(),
		Materials:   structureOf(ds),
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleSample(w http.ResponseWriter, r *http.Request) {
	inst, err := benchmark.ParseInstitution(r.PathValue("institution"))
	if err != nil {
		writeError(w, http.StatusNotFound, "Unknown institution", err.Error())
		return
	}
	number, err := strconv.Atoi(r.PathValue("number"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request", "sample number must be an integer")
		return
	}
	material := r.PathValue("material")
	spec := specFromPath(r.PathValue("spec"))

	fr, ok := h.store.Sample(inst, material, spec, number)
	if !ok {
		writeError(w, http.StatusNotFound, "Sample not found",
			"no sample "+strconv.Itoa(number)+" for "+string(inst)+" "+material+" "+spec)
		return
	}

	channels := make(map[string][]jsonFloat, len(fr.Names()))
	for _, name := range fr.Names() {
		col, err := fr.Column(name)
		if err != nil {
			writeInternalError(w, err)
			return
		}
		channels[name] = toJSONFloats(col)
	}

	resp := sampleResponse{
		Institution:   string(inst),
		Material:      material,
		Specification: spec,
		Number:        number,
		Rows:          fr.Len(),
		Channels:      channels,
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleStats(w http.ResponseWriter, r *http.Request) {
	var req statsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request", "unable to parse JSON payload")
		return
	}

	frames, ok := h.framesFor(w, req.Institution, req.Material, req.Specification)
	if !ok {
		return
	}

	xCol := req.XColumn
	if xCol == "" {
		xCol = benchmark.Gap
	}
	yCol := req.YColumn
	if yCol == "" {
		yCol = benchmark.Force
	}

	if req.Crop != nil {
		cropped, err := manipulate.CropToRange(frames, req.Crop.Start, req.Crop.End, xCol, req.Crop.CropForce)
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, "Cannot crop", err.Error())
			return
		}
		frames = cropped
	}

	stats, err := manipulate.MeanStd(frames, xCol, yCol)
	if err != nil {
		switch {
		case errors.Is(err, manipulate.ErrNoOverlap):
			writeError(w, http.StatusUnprocessableEntity, "Cannot aggregate", err.Error(),
				"Widen the crop range or aggregate a different sample set")
		case errors.Is(err, manipulate.ErrTooFewPoints), errors.Is(err, frame.ErrColumnMissing):
			writeError(w, http.StatusUnprocessableEntity, "Cannot aggregate", err.Error())
		default:
			writeInternalError(w, err)
		}
		return
	}

	resp := statsResponse{
		Institution:   req.Institution,
		Material:      req.Material,
		Specification: req.Specification,
		XColumn:       xCol,
		YColumn:       yCol,
		Samples:       len(frames),
		X:             stats.X,
		Mean:          stats.Mean,
		Std:           stats.Std,
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleExtract(w http.ResponseWriter, r *http.Request) {
	var req extractRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request", "unable to parse JSON payload")
		return
	}
	for _, g := range req.Gaps {
		if g <= 0 {
			writeError(w, http.StatusBadRequest, "Invalid request", "gaps must be positive")
			return
		}
	}
	if req.SecantWidth < 0 {
		writeError(w, http.StatusBadRequest, "Invalid request", "secantWidth must not be negative")
		return
	}
	if req.FilterWindow < 0 {
		writeError(w, http.StatusBadRequest, "Invalid request", "filterWindow must not be negative")
		return
	}

	inst, err := benchmark.ParseInstitution(req.Institution)
	if err != nil {
		writeError(w, http.StatusNotFound, "Unknown institution", err.Error())
		return
	}
	ds, ok := h.store.Dataset(inst)
	if !ok {
		writeError(w, http.StatusNotFound, "Institution not loaded", "no data loaded for "+string(inst))
		return
	}
	numbers := ds.Numbers(req.Material, req.Specification)
	if len(numbers) == 0 {
		writeError(w, http.StatusNotFound, "No samples",
			"no samples for "+string(inst)+" "+req.Material+" "+req.Specification)
		return
	}

	opts := h.extractDefaults
	if req.Gaps != nil {
		opts.Gaps = req.Gaps
	}
	if req.SecantWidth > 0 {
		opts.SecantWidth = req.SecantWidth
	}
	if req.FilterWindow > 0 {
		opts.FilterWindow = req.FilterWindow
	}

	results := make([]sampleExtraction, 0, len(numbers))
	for _, number := range numbers {
		fr, ok := ds.Sample(req.Material, req.Specification, number)
		if !ok {
			continue
		}
		values, err := extract.Process(fr, opts)
		if err != nil {
			switch {
			case errors.Is(err, extract.ErrNoGaps):
				writeError(w, http.StatusBadRequest, "Invalid request", err.Error())
			case errors.Is(err, manipulate.ErrTooFewPoints), errors.Is(err, frame.ErrColumnMissing):
				writeError(w, http.StatusUnprocessableEntity, "Cannot extract", err.Error())
			default:
				writeInternalError(w, err)
			}
			return
		}

		converted := make([]extractedValue, len(values))
		for i, v := range values {
			converted[i] = extractedValue{
				Gap:         jsonFloat(v.Gap),
				Force:       jsonFloat(v.Force),
				SecantSlope: jsonFloat(v.Secant),
			}
		}
		results = append(results, sampleExtraction{Number: number, Values: converted})
	}

	effective := opts
	if effective.Gaps == nil {
		effective.Gaps = extract.DefaultGaps()
	}
	if effective.SecantWidth == 0 {
		effective.SecantWidth = extract.DefaultSecantWidth
	}

	resp := extractResponse{
		Institution:   string(inst),
		Material:      req.Material,
		Specification: req.Specification,
		Gaps:          effective.Gaps,
		SecantWidth:   effective.SecantWidth,
		FilterWindow:  effective.FilterWindow,
		Results:       results,
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleReload(w http.ResponseWriter, r *http.Request) {
	_ = r
	if h.reload == nil {
		writeError(w, http.StatusServiceUnavailable, "Reload unavailable",
			"the service was started without a data root")
		return
	}

	corpus, err := h.reload()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Reload failed", err.Error())
		return
	}
	h.store.Replace(corpus)

	samples := h.store.Samples()
	if h.metrics != nil {
		h.metrics.SetLoaded(len(h.store.Institutions()), samples)
	}

	resp := reloadResponse{
		Message:      "Corpus reloaded",
		Institutions: len(h.store.Institutions()),
		Samples:      samples,
		ReloadedAt:   h.clock(),
	}
	writeJSON(w, http.StatusAccepted, resp)
}

// framesFor resolves the frames of one (institution, material, spec)
// selection, writing the appropriate error response when it cannot.
func (h *Handler) framesFor(w http.ResponseWriter, instName, material, spec string) ([]*frame.Frame, bool) {
	inst, err := benchmark.ParseInstitution(instName)
	if err != nil {
		writeError(w, http.StatusNotFound, "Unknown institution", err.Error())
		return nil, false
	}
	ds, ok := h.store.Dataset(inst)
	if !ok {
		writeError(w, http.StatusNotFound, "Institution not loaded", "no data loaded for "+string(inst))
		return nil, false
	}
	frames := ds.Frames(material, spec)
	if len(frames) == 0 {
		writeError(w, http.StatusNotFound, "No samples",
			"no samples for "+string(inst)+" "+material+" "+spec)
		return nil, false
	}
	return frames, true
}

// specFromPath decodes a specification path segment; the space is carried
// as "+" ("3mm+100x100").
func specFromPath(raw string) string {
	return strings.ReplaceAll(raw, "+", " ")
}

func structureOf(ds benchmark.Dataset) datasetStructure {
	out := make(datasetStructure)
	for _, material := range ds.Materials() {
		specs := make(map[string][]int)
		for _, spec := range ds.Specifications(material) {
			specs[spec] = ds.Numbers(material, spec)
		}
		out[material] = specs
	}
	return out
}

func requestIDFromContext(ctx context.Context) string {
	if v := ctx.Value(requestIDContextKey); v != nil {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}

// jsonFloat marshals NaN and infinities as null, which encoding/json
// otherwise rejects.
type jsonFloat float64

func (f jsonFloat) MarshalJSON() ([]byte, error) {
	v := float64(f)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return []byte("null"), nil
	}
	return json.Marshal(v)
}

func toJSONFloats(values []float64) []jsonFloat {
	out := make([]jsonFloat, len(values))
	for i, v := range values {
		out[i] = jsonFloat(v)
	}
	return out
}

type datasetStructure map[string]map[string][]int

type institutionInfo struct {
	Name    string `json:"name"`
	Loaded  bool   `json:"loaded"`
	Samples int    `json:"samples"`
}

type institutionsResponse struct {
	Institutions []institutionInfo `json:"institutions"`
}

type datasetsResponse struct {
	Datasets map[string]datasetStructure `json:"datasets"`
}

type datasetResponse struct {
	Institution string           `json:"institution"`
	Samples     int              `json:"samples"`
	Materials   datasetStructure `json:"materials"`
}

type sampleResponse struct {
	Institution   string                 `json:"institution"`
	Material      string                 `json:"material"`
	Specification string                 `json:"specification"`
	Number        int                    `json:"number"`
	Rows          int                    `json:"rows"`
	Channels      map[string][]jsonFloat `json:"channels"`
}

type cropRequest struct {
	Start     float64 `json:"start"`
	End       float64 `json:"end"`
	CropForce bool    `json:"cropForce"`
}

type statsRequest struct {
	Institution   string       `json:"institution"`
	Material      string       `json:"material"`
	Specification string       `json:"specification"`
	XColumn       string       `json:"xColumn"`
	YColumn       string       `json:"yColumn"`
	Crop          *cropRequest `json:"crop"`
}

type statsResponse struct {
	Institution   string    `json:"institution"`
	Material      string    `json:"material"`
	Specification string    `json:"specification"`
	XColumn       string    `json:"xColumn"`
	YColumn       string    `json:"yColumn"`
	Samples       int       `json:"samples"`
	X             []float64 `json:"x"`
	Mean          []float64 `json:"mean"`
	Std           []float64 `json:"std"`
}

type extractRequest struct {
	Institution   string    `json:"institution"`
	Material      string    `json:"material"`
	Specification string    `json:"specification"`
	Gaps          []float64 `json:"gaps"`
	SecantWidth   float64   `json:"secantWidth"`
	FilterWindow  int       `json:"filterWindow"`
}

type extractedValue struct {
	Gap         jsonFloat `json:"gap"`
	Force       jsonFloat `json:"force"`
	SecantSlope jsonFloat `json:"secantSlope"`
}

type sampleExtraction struct {
	Number int              `json:"number"`
	Values []extractedValue `json:"values"`
}

type extractResponse struct {
	Institution   string             `json:"institution"`
	Material      string             `json:"material"`
	Specification string             `json:"specification"`
	Gaps          []float64          `json:"gaps"`
	SecantWidth   float64            `json:"secantWidth"`
	FilterWindow  int                `json:"filterWindow"`
	Results       []sampleExtraction `json:"results"`
}

type reloadResponse struct {
	Message      string    `json:"message"`
	Institutions int       `json:"institutions"`
	Samples      int       `json:"samples"`
	ReloadedAt   time.Time `json:"reloadedAt"`
}

type healthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

type errorResponse struct {
	Error      string `json:"error"`
	Details    string `json:"details,omitempty"`
	Suggestion string `json:"suggestion,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	if status != 0 {
		w.WriteHeader(status)
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message, details string, suggestion ...string) {
	resp := errorResponse{
		Error:   message,
		Details: details,
	}
	if len(suggestion) > 0 {
		resp.Suggestion = suggestion[0]
	}
	writeJSON(w, status, resp)
}

func writeInternalError(w http.ResponseWriter, err error) {
	writeError(w, http.StatusInternalServerError, "Internal error", err.Error())
}
