package httpadapter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kirillkom/resume-categorizer/internal/config"
	"github.com/kirillkom/resume-categorizer/internal/core/domain"
	"github.com/kirillkom/resume-categorizer/internal/infrastructure/export"
	"github.com/kirillkom/resume-categorizer/internal/observability/metrics"
)

type categorizerFake struct {
	report    *domain.BatchReport
	err       error
	gotFiles  []domain.UploadedFile
	gotOutDir string
}

func (f *categorizerFake) Categorize(_ context.Context, files []domain.UploadedFile, outputDir string) (*domain.BatchReport, error) {
	f.gotFiles = files
	f.gotOutDir = outputDir
	if f.err != nil {
		return nil, f.err
	}
	if len(files) == 0 {
		return nil, domain.WrapError(domain.ErrInvalidInput, "categorize resumes", errors.New("please upload files and specify the output directory"))
	}
	return f.report, nil
}

func filedReport() *domain.BatchReport {
	return &domain.BatchReport{
		ID:        "01HZX",
		OutputDir: "categorized_resumes",
		Records: []domain.ResultRecord{
			{Filename: "a.pdf", Category: "Data Science"},
		},
		Outcomes: []domain.FileOutcome{
			{Filename: "a.pdf", Status: domain.FileStatusFiled, Category: "Data Science", Code: 6},
			{Filename: "b.pdf", Status: domain.FileStatusFailedExtract, Warning: "corrupt document"},
		},
	}
}

func testConfig() config.Config {
	return config.Config{
		OutputDir:      "categorized_resumes",
		OutputBaseDir:  "/srv/out",
		MaxUploadBytes: 1 << 20,
	}
}

func multipartBody(t *testing.T, fields map[string]string, files map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatalf("write field: %v", err)
		}
	}
	for name, content := range files {
		part, err := mw.CreateFormFile("files", name)
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		if _, err := part.Write([]byte(content)); err != nil {
			t.Fatalf("write form file: %v", err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart: %v", err)
	}
	return &body, mw.FormDataContentType()
}

func doUpload(t *testing.T, handler http.Handler, target string, fields, files map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	body, contentType := multipartBody(t, fields, files)
	req := httptest.NewRequest(http.MethodPost, target, body)
	req.Header.Set("Content-Type", contentType)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)
	return res
}

func TestHealthzEndpoint(t *testing.T) {
	handler := NewRouter(testConfig(), &categorizerFake{}, domain.DefaultCategoryRegistry()).Handler()
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
	if res.Header().Get(requestIDHeader) == "" {
		t.Fatalf("expected request id header")
	}
}

func TestListCategories(t *testing.T) {
	handler := NewRouter(testConfig(), &categorizerFake{}, domain.DefaultCategoryRegistry()).Handler()
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/v1/categories", nil))

	var resp struct {
		Categories []domain.Category `json:"categories"`
	}
	if err := json.NewDecoder(res.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Categories) != 25 || resp.Categories[0] != (domain.Category{Code: 0, Name: "Advocate"}) {
		t.Fatalf("unexpected categories %+v", resp.Categories)
	}
}

func TestCategorizeReturnsJSONReport(t *testing.T) {
	fake := &categorizerFake{report: filedReport()}
	handler := NewRouter(testConfig(), fake, domain.DefaultCategoryRegistry()).Handler()

	res := doUpload(t, handler, "/v1/resumes/categorize", nil, map[string]string{"a.pdf": "%PDF", "b.pdf": "junk"})
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", res.Code, res.Body.String())
	}
	if fake.gotOutDir != "categorized_resumes" || len(fake.gotFiles) != 2 {
		t.Fatalf("unexpected call outDir=%q files=%d", fake.gotOutDir, len(fake.gotFiles))
	}
	if res.Header().Get(batchIDHeader) != "01HZX" {
		t.Fatalf("expected batch id header")
	}

	var resp struct {
		BatchID  string                `json:"batch_id"`
		Results  []domain.ResultRecord `json:"results"`
		Warnings []domain.FileOutcome  `json:"warnings"`
	}
	if err := json.NewDecoder(res.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.BatchID != "01HZX" || len(resp.Results) != 1 || resp.Results[0].Category != "Data Science" {
		t.Fatalf("unexpected response %+v", resp)
	}
	if len(resp.Warnings) != 1 || resp.Warnings[0].Filename != "b.pdf" {
		t.Fatalf("expected one warning for b.pdf, got %+v", resp.Warnings)
	}
}

func TestCategorizeCSVDownload(t *testing.T) {
	handler := NewRouter(testConfig(), &categorizerFake{report: filedReport()}, domain.DefaultCategoryRegistry()).Handler()

	res := doUpload(t, handler, "/v1/resumes/categorize?format=csv", nil, map[string]string{"a.pdf": "%PDF"})
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
	if res.Header().Get("Content-Type") != export.CSVContentType {
		t.Fatalf("unexpected content type %q", res.Header().Get("Content-Type"))
	}
	if !strings.Contains(res.Header().Get("Content-Disposition"), export.CSVFilename) {
		t.Fatalf("unexpected disposition %q", res.Header().Get("Content-Disposition"))
	}
	if res.Body.String() != "Filename,Category\na.pdf,Data Science\n" {
		t.Fatalf("unexpected csv body %q", res.Body.String())
	}
}

func TestCategorizeXLSXDownload(t *testing.T) {
	handler := NewRouter(testConfig(), &categorizerFake{report: filedReport()}, domain.DefaultCategoryRegistry()).Handler()

	res := doUpload(t, handler, "/v1/resumes/categorize?format=xlsx", nil, map[string]string{"a.pdf": "%PDF"})
	if res.Code != http.StatusOK || res.Header().Get("Content-Type") != export.XLSXContentType {
		t.Fatalf("unexpected response %d %q", res.Code, res.Header().Get("Content-Type"))
	}
	records, err := export.ParseXLSX(res.Body)
	if err != nil {
		t.Fatalf("parse xlsx: %v", err)
	}
	if len(records) != 1 || records[0].Filename != "a.pdf" {
		t.Fatalf("unexpected records %+v", records)
	}
}

func TestCategorizeUsesConfinedOutputDir(t *testing.T) {
	fake := &categorizerFake{report: filedReport()}
	handler := NewRouter(testConfig(), fake, domain.DefaultCategoryRegistry()).Handler()

	res := doUpload(t, handler, "/v1/resumes/categorize", map[string]string{"output_dir": "team/march"}, map[string]string{"a.pdf": "x"})
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
	if fake.gotOutDir != filepath.Join("/srv/out", "team/march") {
		t.Fatalf("unexpected output dir %q", fake.gotOutDir)
	}

	for _, dir := range []string{"../escape", "/etc"} {
		res = doUpload(t, handler, "/v1/resumes/categorize", map[string]string{"output_dir": dir}, map[string]string{"a.pdf": "x"})
		if res.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", dir, res.Code)
		}
	}
}

func TestCategorizeEmptyBatchReturns422(t *testing.T) {
	report := &domain.BatchReport{
		ID:       "01EMPTY",
		Records:  []domain.ResultRecord{},
		Outcomes: []domain.FileOutcome{{Filename: "notes.txt", Status: domain.FileStatusSkippedUnsupported}},
	}
	handler := NewRouter(testConfig(), &categorizerFake{report: report}, domain.DefaultCategoryRegistry()).Handler()

	res := doUpload(t, handler, "/v1/resumes/categorize?format=csv", nil, map[string]string{"notes.txt": "hello"})
	if res.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", res.Code)
	}
	var resp emptyBatchResponse
	if err := json.NewDecoder(res.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Error != "No valid text extracted from resumes." || len(resp.Outcomes) != 1 {
		t.Fatalf("unexpected response %+v", resp)
	}
}

func TestCategorizeMapsErrors(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{name: "invalid", err: domain.WrapError(domain.ErrInvalidInput, "categorize", errors.New("x")), want: http.StatusBadRequest},
		{name: "storage", err: domain.WrapError(domain.ErrStorage, "prepare", errors.New("ro")), want: http.StatusInternalServerError},
		{name: "temporary", err: domain.WrapError(domain.ErrTemporary, "save", errors.New("busy")), want: http.StatusServiceUnavailable},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			handler := NewRouter(testConfig(), &categorizerFake{err: tc.err}, domain.DefaultCategoryRegistry()).Handler()
			res := doUpload(t, handler, "/v1/resumes/categorize", nil, map[string]string{"a.pdf": "x"})
			if res.Code != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, res.Code)
			}
		})
	}
}

func TestCategorizeRejectsBadRequests(t *testing.T) {
	handler := NewRouter(testConfig(), &categorizerFake{report: filedReport()}, domain.DefaultCategoryRegistry()).Handler()

	res := httptest.NewRecorder()
	handler.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/v1/resumes/categorize", nil))
	if res.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", res.Code)
	}

	res = httptest.NewRecorder()
	handler.ServeHTTP(res, httptest.NewRequest(http.MethodPost, "/v1/resumes/categorize", strings.NewReader("{}")))
	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for non-multipart body, got %d", res.Code)
	}

	res = doUpload(t, handler, "/v1/resumes/categorize", nil, nil)
	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without files, got %d", res.Code)
	}

	res = doUpload(t, handler, "/v1/resumes/categorize?format=pdf", nil, map[string]string{"a.pdf": "x"})
	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown format, got %d", res.Code)
	}
}

func TestCategorizeRejectsOversizedUpload(t *testing.T) {
	cfg := testConfig()
	cfg.MaxUploadBytes = 512
	handler := NewRouter(cfg, &categorizerFake{report: filedReport()}, domain.DefaultCategoryRegistry()).Handler()

	res := doUpload(t, handler, "/v1/resumes/categorize", nil, map[string]string{"big.pdf": strings.Repeat("x", 4096)})
	if res.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413, got %d", res.Code)
	}
}

func TestMetricsEndpointExposesFilingAndHTTPMetrics(t *testing.T) {
	m := metrics.NewHTTPServerMetrics(serviceName)
	handler := NewRouter(testConfig(), &categorizerFake{report: filedReport()}, domain.DefaultCategoryRegistry(), WithMetrics(m)).Handler()

	doUpload(t, handler, "/v1/resumes/categorize", nil, map[string]string{"a.pdf": "x"})

	res := httptest.NewRecorder()
	handler.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if res.Code != http.StatusOK || !strings.Contains(res.Body.String(), `path="/v1/resumes/categorize"`) {
		t.Fatalf("expected categorize request in metrics, got %d:\n%s", res.Code, res.Body.String())
	}
}
