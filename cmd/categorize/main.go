package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/kirillkom/resume-categorizer/internal/bootstrap"
	"github.com/kirillkom/resume-categorizer/internal/config"
	"github.com/kirillkom/resume-categorizer/internal/core/domain"
	"github.com/kirillkom/resume-categorizer/internal/infrastructure/catalog"
	"github.com/kirillkom/resume-categorizer/internal/infrastructure/export"
	"github.com/kirillkom/resume-categorizer/internal/infrastructure/storage/localfs"
	"github.com/kirillkom/resume-categorizer/internal/observability/logging"
)

const service = "categorizer-cli"

const (
	exitOK      = 0
	exitFailure = 1
	exitNoText  = 2
	exitUsage   = 64
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, config.Load(), os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, cfg config.Config, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("categorize", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		outDir         = fs.String("out", cfg.OutputDir, "Directory receiving one folder per category")
		csvPath        = fs.String("csv", "", "Write the Filename,Category summary to this CSV file")
		xlsxPath       = fs.String("xlsx", "", "Write the summary to this XLSX workbook")
		listCategories = fs.Bool("list-categories", false, "Print the category registry as YAML and exit")
	)
	fs.Usage = func() {
		fmt.Fprintln(stderr, "usage: categorize [-out dir] [-csv file] [-xlsx file] resume.pdf resume.docx ...")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}

	logger := logging.New(stderr, service, cfg.LogLevel)

	if *listCategories {
		registry, err := catalog.Load(cfg.CategoryRegistryPath)
		if err != nil {
			fmt.Fprintf(stderr, "load category registry: %v\n", err)
			return exitFailure
		}
		raw, err := catalog.Marshal(registry)
		if err != nil {
			fmt.Fprintf(stderr, "encode category registry: %v\n", err)
			return exitFailure
		}
		_, _ = stdout.Write(raw)
		return exitOK
	}

	if fs.NArg() == 0 || *outDir == "" {
		fmt.Fprintln(stderr, "Please upload files and specify the output directory.")
		fs.Usage()
		return exitUsage
	}

	files := make([]domain.UploadedFile, 0, fs.NArg())
	for _, path := range fs.Args() {
		file, err := localfs.ReadUpload(path, cfg.MaxUploadBytes)
		if err != nil {
			logger.Warn("resume_unreadable", "path", path, "error", err)
			continue
		}
		files = append(files, file)
	}
	if len(files) == 0 {
		fmt.Fprintln(stderr, "No readable resume files.")
		return exitFailure
	}

	app, err := bootstrap.New(ctx, cfg, bootstrap.Options{Service: service, Logger: logger})
	if err != nil {
		fmt.Fprintf(stderr, "bootstrap error: %v\n", err)
		return exitFailure
	}
	defer app.Close()

	report, err := app.CategorizeUC.Categorize(ctx, files, *outDir)
	if err != nil {
		fmt.Fprintf(stderr, "categorize: %v\n", err)
		if domain.IsKind(err, domain.ErrInvalidInput) {
			return exitUsage
		}
		return exitFailure
	}
	for _, warning := range report.Warnings() {
		fmt.Fprintf(stderr, "warning: %s: %s\n", warning.Filename, warning.Warning)
	}
	if len(report.Records) == 0 {
		fmt.Fprintln(stderr, "No valid text extracted from resumes.")
		return exitNoText
	}

	tw := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "FILENAME\tCATEGORY")
	for _, record := range report.Records {
		fmt.Fprintf(tw, "%s\t%s\n", record.Filename, record.Category)
	}
	if err := tw.Flush(); err != nil {
		return exitFailure
	}

	if *csvPath != "" {
		if err := writeSummary(*csvPath, export.FormatCSV, report.Records); err != nil {
			fmt.Fprintf(stderr, "write csv: %v\n", err)
			return exitFailure
		}
	}
	if *xlsxPath != "" {
		if err := writeSummary(*xlsxPath, export.FormatXLSX, report.Records); err != nil {
			fmt.Fprintf(stderr, "write xlsx: %v\n", err)
			return exitFailure
		}
	}
	return exitOK
}

func writeSummary(path string, format export.Format, records []domain.ResultRecord) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, _, err := export.Write(f, format, records); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
