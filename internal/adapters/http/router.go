package httpadapter

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/routers"
	"github.com/getkin/kin-openapi/routers/gorillamux"
	"github.com/gorilla/mux"
	"golang.org/x/time/rate"

	"github.com/kirillkom/docsort/internal/config"
	"github.com/kirillkom/docsort/internal/core/domain"
	"github.com/kirillkom/docsort/internal/core/ports"
	"github.com/kirillkom/docsort/internal/observability/metrics"
)

const serviceName = "docsort-api"

type Dependencies struct {
	Ingest     ports.DocumentIngestor
	Catalog    ports.DocumentCatalog
	Extractor  ports.TextExtractor
	Classifier ports.DocumentClassifier

	// Optional.
	Metrics *metrics.HTTPServerMetrics
	Spec    *openapi3.T
}

type Router struct {
	cfg  config.Config
	deps Dependencies

	specRouter routers.Router
}

func NewRouter(cfg config.Config, deps Dependencies) (*Router, error) {
	rt := &Router{cfg: cfg, deps: deps}
	if deps.Spec != nil {
		specRouter, err := gorillamux.NewRouter(deps.Spec)
		if err != nil {
			return nil, fmt.Errorf("build openapi router: %w", err)
		}
		rt.specRouter = specRouter
	}
	return rt, nil
}

func (rt *Router) Handler() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/healthz", rt.healthz).Methods(http.MethodGet)
	if rt.deps.Metrics != nil {
		r.Handle("/metrics", rt.deps.Metrics.Handler()).Methods(http.MethodGet)
	}
	if rt.deps.Spec != nil {
		r.HandleFunc("/openapi.json", rt.openAPIDocument).Methods(http.MethodGet)
	}

	r.HandleFunc("/v1/documents", rt.uploadDocument).Methods(http.MethodPost)
	r.HandleFunc("/v1/documents", rt.listDocuments).Methods(http.MethodGet)
	r.HandleFunc("/v1/documents/{id}", rt.getDocument).Methods(http.MethodGet)
	r.HandleFunc("/v1/documents/{id}", rt.setDocumentCategory).Methods(http.MethodPatch)
	r.HandleFunc("/v1/documents/{id}", rt.deleteDocument).Methods(http.MethodDelete)
	r.HandleFunc("/v1/categories", rt.listCategories).Methods(http.MethodGet)
	r.HandleFunc("/v1/stats/uploads-by-month", rt.uploadsByMonth).Methods(http.MethodGet)
	r.HandleFunc("/v1/stats/top-categories", rt.topCategories).Methods(http.MethodGet)
	r.HandleFunc("/v1/extract", rt.extractDocument).Methods(http.MethodPost)
	r.HandleFunc("/v1/classify", rt.classifyText).Methods(http.MethodPost)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
	})

	var handler http.Handler = r
	handler = openAPIValidationMiddleware(handler, rt.specRouter)
	handler = authMiddleware(handler, rt.cfg.APIKey)
	handler = backpressureMiddleware(handler, rt.cfg.APIBackpressureMaxInFlight, time.Duration(rt.cfg.APIBackpressureWaitMS)*time.Millisecond)
	handler = rateLimitMiddleware(handler, rt.limiter())
	if rt.deps.Metrics != nil {
		handler = rt.deps.Metrics.Middleware(serviceName, handler)
	}
	handler = accessLogMiddleware(handler)
	return requestIDMiddleware(handler)
}

func (rt *Router) limiter() *rate.Limiter {
	if rt.cfg.APIRateLimitRPS <= 0 {
		return nil
	}
	burst := rt.cfg.APIRateLimitBurst
	if burst <= 0 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(rt.cfg.APIRateLimitRPS), burst)
}

func (rt *Router) maxUploadBytes() int64 {
	mb := rt.cfg.APIMaxUploadMB
	if mb <= 0 {
		mb = 25
	}
	return int64(mb) << 20
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *Router) openAPIDocument(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, rt.deps.Spec)
}

func (rt *Router) uploadDocument(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, rt.maxUploadBytes())
	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		writeFormFileError(w, r, err)
		return
	}
	defer file.Close()

	doc, err := rt.deps.Ingest.Upload(
		r.Context(),
		r.FormValue("owner_id"),
		fileHeader.Filename,
		fileHeader.Header.Get("Content-Type"),
		file,
	)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if rt.deps.Metrics != nil {
		rt.deps.Metrics.RecordUpload(serviceName, "upload", fileHeader.Size)
	}

	writeJSON(w, http.StatusAccepted, doc)
}

func (rt *Router) listDocuments(w http.ResponseWriter, r *http.Request) {
	filter, err := parseDocumentFilter(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	docs, err := rt.deps.Catalog.List(r.Context(), filter)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if docs == nil {
		docs = []domain.Document{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"documents": docs})
}

func parseDocumentFilter(r *http.Request) (domain.DocumentFilter, error) {
	q := r.URL.Query()
	filter := domain.DocumentFilter{
		OwnerID: strings.TrimSpace(q.Get("owner_id")),
		Keyword: strings.TrimSpace(q.Get("kw")),
	}

	if raw := strings.TrimSpace(q.Get("category_id")); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return filter, domain.WrapError(domain.ErrInvalidInput, "parse category_id", err)
		}
		filter.CategoryID = &id
	}
	for name, dst := range map[string]**time.Time{"from": &filter.From, "to": &filter.To} {
		raw := strings.TrimSpace(q.Get(name))
		if raw == "" {
			continue
		}
		ts, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return filter, domain.WrapError(domain.ErrInvalidInput, "parse "+name, err)
		}
		*dst = &ts
	}
	if raw := strings.TrimSpace(q.Get("limit")); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			return filter, domain.WrapError(domain.ErrInvalidInput, "parse limit", err)
		}
		filter.Limit = limit
	}
	return filter, nil
}

func (rt *Router) getDocument(w http.ResponseWriter, r *http.Request) {
	details, err := rt.deps.Catalog.Details(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, details)
}

func (rt *Router) setDocumentCategory(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var body map[string]json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	raw, ok := body["category_id"]
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "category_id is required"})
		return
	}
	var categoryID *int64
	if err := json.Unmarshal(raw, &categoryID); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "category_id must be an integer or null"})
		return
	}

	if err := rt.deps.Catalog.SetCategory(r.Context(), id, categoryID); err != nil {
		writeError(w, r, err)
		return
	}
	doc, err := rt.deps.Catalog.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (rt *Router) deleteDocument(w http.ResponseWriter, r *http.Request) {
	if err := rt.deps.Catalog.Delete(r.Context(), mux.Vars(r)["id"]); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (rt *Router) listCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := rt.deps.Catalog.Categories(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	if categories == nil {
		categories = []domain.Category{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"categories": categories})
}

type extractResponse struct {
	Extraction     domain.ExtractionResult       `json:"extraction"`
	Classification *domain.ClassificationOutcome `json:"classification,omitempty"`
}

// extractDocument runs the pipeline synchronously on an uploaded file without
// storing it.
func (rt *Router) uploadsByMonth(w http.ResponseWriter, r *http.Request) {
	months, err := rt.deps.Catalog.UploadsByMonth(r.Context(), r.URL.Query().Get("owner_id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if months == nil {
		months = []domain.MonthlyUploads{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"months": months})
}

func (rt *Router) topCategories(w http.ResponseWriter, r *http.Request) {
	counts, err := rt.deps.Catalog.TopCategories(r.Context(), r.URL.Query().Get("owner_id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if counts == nil {
		counts = []domain.CategoryCount{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"categories": counts})
}

func (rt *Router) extractDocument(w http.ResponseWriter, r *http.Request) {
	classify := false
	if raw := strings.TrimSpace(r.URL.Query().Get("classify")); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "classify must be a boolean"})
			return
		}
		classify = parsed
	}

	r.Body = http.MaxBytesReader(w, r.Body, rt.maxUploadBytes())
	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		writeFormFileError(w, r, err)
		return
	}
	defer file.Close()

	path, cleanup, err := spoolUpload(rt.cfg.OCRTempDir, fileHeader.Filename, file)
	if err != nil {
		writeError(w, r, err)
		return
	}
	defer cleanup()

	resp := extractResponse{
		Extraction: rt.deps.Extractor.Extract(r.Context(), path, fileHeader.Filename),
	}
	if classify && resp.Extraction.Succeeded() {
		outcome, err := rt.deps.Classifier.Classify(r.Context(), resp.Extraction.Text)
		if err != nil {
			writeError(w, r, err)
			return
		}
		resp.Classification = &outcome
	}
	if rt.deps.Metrics != nil {
		rt.deps.Metrics.RecordUpload(serviceName, "extract", fileHeader.Size)
	}
	writeJSON(w, http.StatusOK, resp)
}

// spoolUpload copies an upload to a temp file that keeps the original
// extension, since the pipeline routes by extension.
func spoolUpload(dir, filename string, body io.Reader) (string, func(), error) {
	ext := strings.ToLower(filepath.Ext(filename))
	tmp, err := os.CreateTemp(dir, "docsort-upload-*"+ext)
	if err != nil {
		return "", nil, fmt.Errorf("create upload temp file: %w", err)
	}
	cleanup := func() { _ = os.Remove(tmp.Name()) }

	if _, err := io.Copy(tmp, body); err != nil {
		_ = tmp.Close()
		cleanup()
		return "", nil, fmt.Errorf("spool upload: %w", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return "", nil, fmt.Errorf("close upload temp file: %w", err)
	}
	return tmp.Name(), cleanup, nil
}

func (rt *Router) classifyText(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	outcome, err := rt.deps.Classifier.Classify(r.Context(), req.Text)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, outcome)
}

func writeFormFileError(w http.ResponseWriter, r *http.Request, err error) {
	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusBadRequest, map[string]string{"error": "multipart field 'file' is required"})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
