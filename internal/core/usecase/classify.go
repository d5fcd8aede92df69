package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/kirillkom/resume-categorizer/internal/core/domain"
	"github.com/kirillkom/resume-categorizer/internal/core/ports"
)

// ResumeClassifier feeds cleaned text through the vectorizer and classifier.
// Both are read-only after load, so one instance serves concurrent batches.
type ResumeClassifier struct {
	vectorizer ports.Vectorizer
	classifier ports.Classifier
}

func NewResumeClassifier(vectorizer ports.Vectorizer, classifier ports.Classifier) (*ResumeClassifier, error) {
	if vectorizer == nil || classifier == nil {
		return nil, domain.WrapError(domain.ErrModelUnavailable, "build classifier", errors.New("vectorizer and classifier are required"))
	}
	if vectorizer.Dim() != classifier.NumFeatures() {
		return nil, domain.WrapError(
			domain.ErrModelUnavailable,
			"build classifier",
			fmt.Errorf("vectorizer produces %d features, classifier expects %d", vectorizer.Dim(), classifier.NumFeatures()),
		)
	}
	return &ResumeClassifier{vectorizer: vectorizer, classifier: classifier}, nil
}

func (c *ResumeClassifier) Classify(ctx context.Context, cleaned string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	features, err := c.vectorizer.Transform(cleaned)
	if err != nil {
		return 0, fmt.Errorf("vectorize text: %w", err)
	}
	code, err := c.classifier.Predict(features)
	if err != nil {
		return 0, fmt.Errorf("predict category: %w", err)
	}
	return code, nil
}

// UnmappedClasses lists model classes the registry has no name for; they
// resolve to the Unknown category at lookup time.
func (c *ResumeClassifier) UnmappedClasses(registry *domain.CategoryRegistry) []int {
	out := make([]int, 0)
	for _, code := range c.classifier.Classes() {
		if !registry.Has(code) {
			out = append(out, code)
		}
	}
	return out
}
