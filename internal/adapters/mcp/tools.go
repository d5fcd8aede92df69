package mcpadapter

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/kirillkom/resume-categorizer/internal/core/domain"
	"github.com/kirillkom/resume-categorizer/internal/core/ports"
	"github.com/kirillkom/resume-categorizer/internal/infrastructure/export"
	"github.com/kirillkom/resume-categorizer/internal/infrastructure/storage/localfs"
)

const (
	ToolCategorizeResumes = "categorize_resumes"
	ToolListCategories    = "list_categories"

	nothingExtracted = "No valid text extracted from resumes."
)

// Tools exposes resume categorization to MCP clients that hand over local file paths.
type Tools struct {
	categorizer      ports.ResumeCategorizer
	catalog          ports.CategoryCatalog
	defaultOutputDir string
	maxFileBytes     int64
	logger           *slog.Logger
}

type Options struct {
	DefaultOutputDir string
	MaxFileBytes     int64
	Logger           *slog.Logger
}

func NewTools(categorizer ports.ResumeCategorizer, catalog ports.CategoryCatalog, opts Options) *Tools {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Tools{
		categorizer:      categorizer,
		catalog:          catalog,
		defaultOutputDir: opts.DefaultOutputDir,
		maxFileBytes:     opts.MaxFileBytes,
		logger:           logger,
	}
}

func NewServer(name, version string, tools *Tools) *server.MCPServer {
	s := server.NewMCPServer(name, version, server.WithToolCapabilities(false))
	tools.Register(s)
	return s
}

func (t *Tools) Register(s *server.MCPServer) {
	categorizeTool := mcp.NewTool(ToolCategorizeResumes,
		mcp.WithDescription("Classify PDF/DOCX resumes into job categories and copy each into <output_dir>/<Category>/"),
		mcp.WithArray("paths",
			mcp.Required(),
			mcp.Description("Absolute or working-directory relative paths of resume files"),
			mcp.WithStringItems(),
		),
		mcp.WithString("output_dir", mcp.Description("Directory receiving category folders (default: categorized_resumes)")),
		mcp.WithString("csv_path", mcp.Description("Optional path to also write the Filename,Category CSV summary")),
	)
	s.AddTool(categorizeTool, t.CategorizeResumes)

	listTool := mcp.NewTool(ToolListCategories,
		mcp.WithDescription("List the job categories the classifier can assign"),
		mcp.WithReadOnlyHintAnnotation(true),
	)
	s.AddTool(listTool, t.ListCategories)
}

type categorizeResult struct {
	BatchID    string                `json:"batch_id"`
	OutputDir  string                `json:"output_dir"`
	Results    []domain.ResultRecord `json:"results"`
	Warnings   []domain.FileOutcome  `json:"warnings,omitempty"`
	Unreadable []string              `json:"unreadable,omitempty"`
	CSVPath    string                `json:"csv_path,omitempty"`
}

func (t *Tools) CategorizeResumes(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	paths := request.GetStringSlice("paths", nil)
	if len(paths) == 0 {
		return mcp.NewToolResultError("Please upload files and specify the output directory."), nil
	}
	outputDir := strings.TrimSpace(request.GetString("output_dir", ""))
	if outputDir == "" {
		outputDir = t.defaultOutputDir
	}

	files := make([]domain.UploadedFile, 0, len(paths))
	var unreadable []string
	for _, p := range paths {
		file, err := localfs.ReadUpload(p, t.maxFileBytes)
		if err != nil {
			t.logger.Warn("mcp_unreadable_path", "path", p, "error", err)
			unreadable = append(unreadable, fmt.Sprintf("%s: %v", p, err))
			continue
		}
		files = append(files, file)
	}
	if len(files) == 0 {
		return mcp.NewToolResultErrorf("none of the %d paths could be read: %s", len(paths), strings.Join(unreadable, "; ")), nil
	}

	report, err := t.categorizer.Categorize(ctx, files, outputDir)
	if err != nil {
		return mcp.NewToolResultErrorFromErr("categorization failed", err), nil
	}
	if len(report.Records) == 0 {
		return mcp.NewToolResultError(nothingExtracted), nil
	}

	result := categorizeResult{
		BatchID:    report.ID,
		OutputDir:  report.OutputDir,
		Results:    report.Records,
		Warnings:   report.Warnings(),
		Unreadable: unreadable,
	}
	if csvPath := strings.TrimSpace(request.GetString("csv_path", "")); csvPath != "" {
		if err := writeCSVFile(csvPath, report.Records); err != nil {
			return mcp.NewToolResultErrorFromErr("write csv summary", err), nil
		}
		result.CSVPath = csvPath
	}
	return mcp.NewToolResultJSON(result)
}

func (t *Tools) ListCategories(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultJSON(map[string]any{"categories": t.catalog.Entries()})
}

func writeCSVFile(path string, records []domain.ResultRecord) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := export.WriteCSV(f, records); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
