package linear

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/kirillkom/resume-categorizer/internal/core/domain"
)

// Artifact is the on-disk form of a fitted one-vs-rest linear model.
// A binary model may carry a single coefficient row; its positive side is
// Classes[1].
type Artifact struct {
	Classes   []int       `json:"classes"`
	Coef      [][]float64 `json:"coef"`
	Intercept []float64   `json:"intercept"`
}

type Classifier struct {
	classes   []int
	coef      [][]float64
	intercept []float64
	features  int
}

func Load(path string) (*Classifier, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, domain.WrapError(domain.ErrModelUnavailable, "load classifier", err)
	}
	var artifact Artifact
	if err := json.Unmarshal(raw, &artifact); err != nil {
		return nil, domain.WrapError(domain.ErrModelUnavailable, "load classifier", fmt.Errorf("decode %s: %w", path, err))
	}
	return New(artifact)
}

func New(artifact Artifact) (*Classifier, error) {
	if err := artifact.validate(); err != nil {
		return nil, domain.WrapError(domain.ErrModelUnavailable, "build classifier", err)
	}
	coef := make([][]float64, len(artifact.Coef))
	for i, row := range artifact.Coef {
		coef[i] = append([]float64(nil), row...)
	}
	return &Classifier{
		classes:   append([]int(nil), artifact.Classes...),
		coef:      coef,
		intercept: append([]float64(nil), artifact.Intercept...),
		features:  len(artifact.Coef[0]),
	}, nil
}

func (a Artifact) validate() error {
	switch {
	case len(a.Classes) < 2:
		return fmt.Errorf("need at least 2 classes, got %d", len(a.Classes))
	case len(a.Coef) == 0:
		return errors.New("coef is empty")
	case len(a.Coef) != len(a.Classes) && !(len(a.Classes) == 2 && len(a.Coef) == 1):
		return fmt.Errorf("coef has %d rows for %d classes", len(a.Coef), len(a.Classes))
	case len(a.Intercept) != len(a.Coef):
		return fmt.Errorf("intercept has %d values for %d coef rows", len(a.Intercept), len(a.Coef))
	}
	width := len(a.Coef[0])
	if width == 0 {
		return errors.New("coef rows are empty")
	}
	for i, row := range a.Coef {
		if len(row) != width {
			return fmt.Errorf("coef row %d has %d features, expected %d", i, len(row), width)
		}
	}
	seen := make(map[int]struct{}, len(a.Classes))
	for _, c := range a.Classes {
		if _, dup := seen[c]; dup {
			return fmt.Errorf("duplicate class %d", c)
		}
		seen[c] = struct{}{}
	}
	return nil
}

func (c *Classifier) NumFeatures() int {
	return c.features
}

func (c *Classifier) Classes() []int {
	return append([]int(nil), c.classes...)
}

// Predict returns the class with the greatest decision value; ties go to the
// class listed first.
func (c *Classifier) Predict(vec domain.FeatureVector) (int, error) {
	if vec.Dim != c.features {
		return 0, domain.WrapError(domain.ErrInvalidInput, "predict", fmt.Errorf("vector has %d features, model expects %d", vec.Dim, c.features))
	}
	if len(vec.Indices) != len(vec.Values) {
		return 0, domain.WrapError(domain.ErrInvalidInput, "predict", errors.New("indices and values differ in length"))
	}
	for _, idx := range vec.Indices {
		if idx < 0 || idx >= c.features {
			return 0, domain.WrapError(domain.ErrInvalidInput, "predict", fmt.Errorf("feature index %d out of range", idx))
		}
	}

	if len(c.coef) == 1 {
		if c.decision(0, vec) > 0 {
			return c.classes[1], nil
		}
		return c.classes[0], nil
	}

	best := 0
	bestScore := c.decision(0, vec)
	for row := 1; row < len(c.coef); row++ {
		if score := c.decision(row, vec); score > bestScore {
			best, bestScore = row, score
		}
	}
	return c.classes[best], nil
}

func (c *Classifier) decision(row int, vec domain.FeatureVector) float64 {
	weights := c.coef[row]
	score := c.intercept[row]
	for i, idx := range vec.Indices {
		score += weights[idx] * vec.Values[i]
	}
	return score
}
