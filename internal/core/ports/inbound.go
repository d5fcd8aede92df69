package ports

import (
	"context"

	"github.com/kirillkom/resume-categorizer/internal/core/domain"
)

// ResumeCategorizer is the inbound contract for filing a batch of resumes.
type ResumeCategorizer interface {
	Categorize(ctx context.Context, files []domain.UploadedFile, outputDir string) (*domain.BatchReport, error)
}

// CategoryCatalog is the inbound read model for known categories.
type CategoryCatalog interface {
	Entries() []domain.Category
}
