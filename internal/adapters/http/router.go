package httpadapter

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/kirillkom/resume-categorizer/internal/config"
	"github.com/kirillkom/resume-categorizer/internal/core/domain"
	"github.com/kirillkom/resume-categorizer/internal/core/ports"
	"github.com/kirillkom/resume-categorizer/internal/infrastructure/export"
	"github.com/kirillkom/resume-categorizer/internal/observability/metrics"
)

const (
	serviceName        = "categorizer-api"
	multipartMemory    = 8 << 20
	filesField         = "files"
	outputDirField     = "output_dir"
	batchIDHeader      = "X-Batch-Id"
	nothingExtractedUI = "No valid text extracted from resumes."
)

type Router struct {
	cfg         config.Config
	categorizer ports.ResumeCategorizer
	catalog     ports.CategoryCatalog
	metrics     *metrics.HTTPServerMetrics
	logger      *slog.Logger
}

type RouterOption func(*Router)

func WithMetrics(m *metrics.HTTPServerMetrics) RouterOption {
	return func(rt *Router) { rt.metrics = m }
}

func WithLogger(logger *slog.Logger) RouterOption {
	return func(rt *Router) {
		if logger != nil {
			rt.logger = logger
		}
	}
}

func NewRouter(
	cfg config.Config,
	categorizer ports.ResumeCategorizer,
	catalog ports.CategoryCatalog,
	opts ...RouterOption,
) *Router {
	rt := &Router{
		cfg:         cfg,
		categorizer: categorizer,
		catalog:     catalog,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(rt)
	}
	return rt
}

func (rt *Router) Handler() http.Handler {
	api := http.NewServeMux()
	api.HandleFunc("/v1/resumes/categorize", rt.categorize)
	api.HandleFunc("/v1/categories", rt.listCategories)

	var onReject func(string)
	if rt.metrics != nil {
		onReject = func(reason string) { rt.metrics.RecordRejected(serviceName, reason) }
	}
	var guarded http.Handler = api
	guarded = backpressureMiddlewareWithHook(guarded, rt.cfg.APIMaxInFlight, rt.cfg.BackpressureWait(), onReject)
	guarded = rateLimitMiddleware(guarded, rt.cfg.APIRateLimitRPS, rt.cfg.APIRateLimitBurst, onReject)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.healthz)
	if rt.metrics != nil {
		mux.Handle("/metrics", rt.metrics.Handler())
	}
	mux.Handle("/v1/", guarded)

	var handler http.Handler = mux
	if rt.metrics != nil {
		handler = rt.metrics.Middleware(serviceName, handler)
	}
	handler = accessLogMiddleware(rt.logger, handler)
	return requestIDMiddleware(handler)
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *Router) listCategories(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "method not allowed"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"categories": rt.catalog.Entries()})
}

type errorResponse struct {
	Error string `json:"error"`
}

type categorizeResponse struct {
	*domain.BatchReport
	Warnings []domain.FileOutcome `json:"warnings"`
}

type emptyBatchResponse struct {
	Error    string               `json:"error"`
	BatchID  string               `json:"batch_id"`
	Outcomes []domain.FileOutcome `json:"outcomes"`
}

func (rt *Router) categorize(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "method not allowed"})
		return
	}

	format, err := export.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		writeError(w, err)
		return
	}

	if rt.cfg.MaxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, rt.cfg.MaxUploadBytes)
	}
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "multipart form with field 'files' is required"})
		return
	}
	defer r.MultipartForm.RemoveAll()

	outputDir, err := rt.resolveOutputDir(r.FormValue(outputDirField))
	if err != nil {
		writeError(w, err)
		return
	}
	files, size, err := readUploads(r.MultipartForm.File[filesField])
	if err != nil {
		writeError(w, err)
		return
	}
	if rt.metrics != nil {
		rt.metrics.ObserveUpload(size)
	}

	report, err := rt.categorizer.Categorize(r.Context(), files, outputDir)
	if err != nil {
		rt.logger.Error("categorize_failed", "request_id", requestIDFromContext(r.Context()), "error", err)
		writeError(w, err)
		return
	}
	w.Header().Set(batchIDHeader, report.ID)

	if len(report.Records) == 0 {
		writeJSON(w, mapErrorToHTTPStatus(domain.ErrNothingExtracted), emptyBatchResponse{
			Error:    nothingExtractedUI,
			BatchID:  report.ID,
			Outcomes: report.Outcomes,
		})
		return
	}

	if format == export.FormatJSON {
		writeJSON(w, http.StatusOK, categorizeResponse{BatchReport: report, Warnings: report.Warnings()})
		return
	}
	var buf bytes.Buffer
	contentType, filename, err := export.Write(&buf, format, report.Records)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

// resolveOutputDir confines client-supplied directories to OutputBaseDir.
func (rt *Router) resolveOutputDir(requested string) (string, error) {
	requested = strings.TrimSpace(requested)
	if requested == "" {
		return rt.cfg.OutputDir, nil
	}
	if !filepath.IsLocal(requested) {
		return "", domain.WrapError(domain.ErrInvalidInput, "resolve output dir", fmt.Errorf("output_dir %q must be a relative path without '..'", requested))
	}
	base := rt.cfg.OutputBaseDir
	if base == "" {
		base = "."
	}
	return filepath.Join(base, requested), nil
}

func readUploads(headers []*multipart.FileHeader) ([]domain.UploadedFile, int64, error) {
	files := make([]domain.UploadedFile, 0, len(headers))
	var total int64
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			return nil, 0, domain.WrapError(domain.ErrInvalidInput, "read upload", fmt.Errorf("%s: %w", fh.Filename, err))
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return nil, 0, domain.WrapError(domain.ErrInvalidInput, "read upload", fmt.Errorf("%s: %w", fh.Filename, err))
		}
		total += int64(len(data))
		files = append(files, domain.UploadedFile{Name: fh.Filename, Data: data})
	}
	return files, total, nil
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, mapErrorToHTTPStatus(err), errorResponse{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
