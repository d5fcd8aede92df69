package usecase

import (
	"bytes"
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/kirillkom/resume-categorizer/internal/core/domain"
	"github.com/kirillkom/resume-categorizer/internal/core/ports"
	"github.com/kirillkom/resume-categorizer/internal/core/textclean"
)

const DefaultOutputDir = "categorized_resumes"

type CategorizeOptions struct {
	Publisher ports.EventPublisher
	Observer  ports.FilingObserver
	Logger    *slog.Logger
}

// CategorizeResumesUseCase is the only component that extracts, classifies and
// writes resumes to disk.
type CategorizeResumesUseCase struct {
	extractor  ports.TextExtractor
	classifier ports.TextClassifier
	registry   *domain.CategoryRegistry
	store      ports.CategoryStore
	publisher  ports.EventPublisher
	observer   ports.FilingObserver
	logger     *slog.Logger

	supported map[string]struct{}
	now       func() time.Time
	newID     func() string
}

func NewCategorizeResumesUseCase(
	extractor ports.TextExtractor,
	classifier ports.TextClassifier,
	registry *domain.CategoryRegistry,
	store ports.CategoryStore,
	opts CategorizeOptions,
) *CategorizeResumesUseCase {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	supported := make(map[string]struct{})
	for _, ext := range extractor.SupportedFormats() {
		supported[strings.ToLower(ext)] = struct{}{}
	}
	return &CategorizeResumesUseCase{
		extractor:  extractor,
		classifier: classifier,
		registry:   registry,
		store:      store,
		publisher:  opts.Publisher,
		observer:   opts.Observer,
		logger:     logger,
		supported:  supported,
		now:        func() time.Time { return time.Now().UTC() },
		newID:      newBatchIDSource(),
	}
}

// Categorize files every resume with extractable text into outputDir/<category>.
// Per-file failures become outcomes with warnings and never abort the batch.
func (uc *CategorizeResumesUseCase) Categorize(
	ctx context.Context,
	files []domain.UploadedFile,
	outputDir string,
) (*domain.BatchReport, error) {
	if len(files) == 0 || strings.TrimSpace(outputDir) == "" {
		return nil, domain.WrapError(
			domain.ErrInvalidInput,
			"categorize resumes",
			errors.New("please upload files and specify the output directory"),
		)
	}

	if err := uc.store.Prepare(ctx, outputDir); err != nil {
		return nil, fmt.Errorf("prepare output directory: %w", err)
	}

	report := &domain.BatchReport{
		ID:        uc.newID(),
		OutputDir: outputDir,
		Records:   make([]domain.ResultRecord, 0, len(files)),
		Outcomes:  make([]domain.FileOutcome, 0, len(files)),
		StartedAt: uc.now(),
	}

	for _, file := range files {
		outcome := uc.processFile(ctx, report.ID, outputDir, file)
		report.Outcomes = append(report.Outcomes, outcome)
		if outcome.Status == domain.FileStatusFiled {
			report.Records = append(report.Records, domain.ResultRecord{
				Filename: outcome.Filename,
				Category: outcome.Category,
			})
		}
		if uc.observer != nil {
			uc.observer.ObserveFile(outcome.Status, outcome.Category)
		}
	}

	report.FinishedAt = uc.now()
	if uc.observer != nil {
		uc.observer.ObserveBatch(len(files), len(report.Records), report.FinishedAt.Sub(report.StartedAt))
	}
	uc.logger.Info("batch_categorized",
		"batch_id", report.ID,
		"output_dir", outputDir,
		"files", len(files),
		"filed", len(report.Records),
		"warnings", len(report.Warnings()),
	)
	return report, nil
}

func (uc *CategorizeResumesUseCase) processFile(
	ctx context.Context,
	batchID string,
	outputDir string,
	file domain.UploadedFile,
) domain.FileOutcome {
	outcome := domain.FileOutcome{Filename: file.BaseName()}
	ext := file.Extension()

	text, err := uc.extractor.Extract(ctx, file.Data, ext)
	if err != nil {
		return uc.fail(batchID, outcome, domain.FileStatusFailedExtract, err)
	}
	if text == "" {
		outcome.Status = domain.FileStatusSkippedEmpty
		reason := domain.ErrEmptyExtraction
		if _, ok := uc.supported[ext]; !ok {
			outcome.Status = domain.FileStatusSkippedUnsupported
			reason = domain.ErrUnsupportedFormat
		}
		uc.logger.Debug("resume_skipped",
			"batch_id", batchID,
			"filename", outcome.Filename,
			"status", outcome.Status,
			"reason", reason.Error(),
		)
		return outcome
	}

	code, err := uc.classifier.Classify(ctx, textclean.Clean(text))
	if err != nil {
		return uc.fail(batchID, outcome, domain.FileStatusFailedClassify, err)
	}
	outcome.Code = code
	outcome.Category = uc.registry.Lookup(code)

	path, err := uc.store.Save(ctx, outputDir, outcome.Category, outcome.Filename, bytes.NewReader(file.Data))
	if err != nil {
		return uc.fail(batchID, outcome, domain.FileStatusFailedWrite, err)
	}
	outcome.Path = path
	outcome.Status = domain.FileStatusFiled

	uc.publish(ctx, batchID, outcome)
	return outcome
}

func (uc *CategorizeResumesUseCase) fail(batchID string, outcome domain.FileOutcome, status domain.FileStatus, err error) domain.FileOutcome {
	outcome.Status = status
	outcome.Warning = err.Error()
	uc.logger.Warn("resume_failed",
		"batch_id", batchID,
		"filename", outcome.Filename,
		"status", status,
		"error", err,
	)
	return outcome
}

func (uc *CategorizeResumesUseCase) publish(ctx context.Context, batchID string, outcome domain.FileOutcome) {
	if uc.publisher == nil {
		return
	}
	event := domain.ResumeFiledEvent{
		BatchID:  batchID,
		Filename: outcome.Filename,
		Category: outcome.Category,
		Code:     outcome.Code,
		Path:     outcome.Path,
		FiledAt:  uc.now(),
	}
	if err := uc.publisher.PublishResumeFiled(ctx, event); err != nil {
		uc.logger.Warn("resume_event_publish_failed",
			"batch_id", batchID,
			"filename", outcome.Filename,
			"error", err,
		)
	}
}

// newBatchIDSource returns a goroutine-safe generator of monotonic ULIDs.
func newBatchIDSource() func() string {
	var mu sync.Mutex
	entropy := ulid.Monotonic(rand.Reader, 0)
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		return ulid.MustNew(ulid.Now(), entropy).String()
	}
}
