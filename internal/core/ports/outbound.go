package ports

import (
	"context"
	"io"
	"time"

	"github.com/kirillkom/resume-categorizer/internal/core/domain"
)

// TextExtractor turns document bytes of a declared type into plain text.
type TextExtractor interface {
	Extract(ctx context.Context, data []byte, ext string) (string, error)
	SupportedFormats() []string
}

// Vectorizer converts cleaned text into model features.
type Vectorizer interface {
	Transform(text string) (domain.FeatureVector, error)
	Dim() int
}

// Classifier predicts a single category code from features.
type Classifier interface {
	Predict(features domain.FeatureVector) (int, error)
	NumFeatures() int
	Classes() []int
}

// TextClassifier maps cleaned resume text to a category code.
type TextClassifier interface {
	Classify(ctx context.Context, cleaned string) (int, error)
}

// CategoryStore places resume bytes into category folders under a root directory.
type CategoryStore interface {
	Prepare(ctx context.Context, root string) error
	Save(ctx context.Context, root, category, filename string, data io.Reader) (string, error)
}

// EventPublisher announces filed resumes to downstream consumers.
type EventPublisher interface {
	PublishResumeFiled(ctx context.Context, event domain.ResumeFiledEvent) error
}

// FilingObserver receives pipeline measurements.
type FilingObserver interface {
	ObserveFile(status domain.FileStatus, category string)
	ObserveBatch(files, records int, duration time.Duration)
}
