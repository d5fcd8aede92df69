package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/kirillkom/resume-categorizer/internal/core/domain"
)

type vectorizerFake struct {
	dim      int
	err      error
	lastText string
}

func (f *vectorizerFake) Transform(text string) (domain.FeatureVector, error) {
	f.lastText = text
	if f.err != nil {
		return domain.FeatureVector{}, f.err
	}
	return domain.FeatureVector{Dim: f.dim}, nil
}

func (f *vectorizerFake) Dim() int { return f.dim }

type modelFake struct {
	features int
	code     int
	classes  []int
	err      error
}

func (f *modelFake) Predict(domain.FeatureVector) (int, error) {
	if f.err != nil {
		return 0, f.err
	}
	return f.code, nil
}

func (f *modelFake) NumFeatures() int { return f.features }
func (f *modelFake) Classes() []int   { return f.classes }

func TestNewResumeClassifierRejectsDimensionMismatch(t *testing.T) {
	_, err := NewResumeClassifier(&vectorizerFake{dim: 10}, &modelFake{features: 12})
	if !domain.IsKind(err, domain.ErrModelUnavailable) {
		t.Fatalf("expected model unavailable, got %v", err)
	}
	if _, err := NewResumeClassifier(nil, &modelFake{}); !domain.IsKind(err, domain.ErrModelUnavailable) {
		t.Fatalf("expected model unavailable for nil vectorizer, got %v", err)
	}
}

func TestResumeClassifierComposesVectorizerAndModel(t *testing.T) {
	vec := &vectorizerFake{dim: 4}
	cls, err := NewResumeClassifier(vec, &modelFake{features: 4, code: 20})
	if err != nil {
		t.Fatalf("new classifier: %v", err)
	}

	code, err := cls.Classify(context.Background(), "python django flask")
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	if code != 20 {
		t.Fatalf("expected code 20, got %d", code)
	}
	if vec.lastText != "python django flask" {
		t.Fatalf("vectorizer got %q", vec.lastText)
	}
}

func TestResumeClassifierPropagatesErrors(t *testing.T) {
	errVec := errors.New("vectorize boom")
	cls, _ := NewResumeClassifier(&vectorizerFake{dim: 1, err: errVec}, &modelFake{features: 1})
	if _, err := cls.Classify(context.Background(), "x"); !errors.Is(err, errVec) {
		t.Fatalf("expected vectorizer error, got %v", err)
	}

	errModel := errors.New("predict boom")
	cls, _ = NewResumeClassifier(&vectorizerFake{dim: 1}, &modelFake{features: 1, err: errModel})
	if _, err := cls.Classify(context.Background(), "x"); !errors.Is(err, errModel) {
		t.Fatalf("expected model error, got %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := cls.Classify(ctx, "x"); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected canceled, got %v", err)
	}
}

func TestUnmappedClasses(t *testing.T) {
	cls, err := NewResumeClassifier(&vectorizerFake{dim: 1}, &modelFake{features: 1, classes: []int{0, 24, 99}})
	if err != nil {
		t.Fatalf("new classifier: %v", err)
	}
	got := cls.UnmappedClasses(domain.DefaultCategoryRegistry())
	if len(got) != 1 || got[0] != 99 {
		t.Fatalf("expected [99], got %v", got)
	}
}
