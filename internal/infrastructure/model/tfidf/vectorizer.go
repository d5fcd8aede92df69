package tfidf

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"regexp"
	"sort"
	"strings"

	"github.com/kirillkom/resume-categorizer/internal/core/domain"
)

// tokenPattern is the word pattern the vectorizer was fitted with: runs of
// two or more word characters.
var tokenPattern = regexp.MustCompile(`\b\w\w+\b`)

const (
	NormL2   = "l2"
	NormL1   = "l1"
	NormNone = "none"
)

// Artifact is the on-disk form of a fitted TF-IDF vectorizer.
type Artifact struct {
	Vocabulary  map[string]int `json:"vocabulary"`
	IDF         []float64      `json:"idf"`
	Lowercase   *bool          `json:"lowercase,omitempty"`
	NgramRange  [2]int         `json:"ngram_range"`
	StopWords   []string       `json:"stop_words,omitempty"`
	SublinearTF bool           `json:"sublinear_tf"`
	// Norm defaults to l2 when absent; "none" or "" disables normalization.
	Norm *string `json:"norm,omitempty"`
}

// Vectorizer maps cleaned text to TF-IDF weighted sparse features.
// It is read-only after construction.
type Vectorizer struct {
	vocabulary  map[string]int
	idf         []float64
	lowercase   bool
	minN, maxN  int
	stopWords   map[string]struct{}
	sublinearTF bool
	norm        string
}

func Load(path string) (*Vectorizer, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, domain.WrapError(domain.ErrModelUnavailable, "load vectorizer", err)
	}
	var artifact Artifact
	if err := json.Unmarshal(raw, &artifact); err != nil {
		return nil, domain.WrapError(domain.ErrModelUnavailable, "load vectorizer", fmt.Errorf("decode %s: %w", path, err))
	}
	return New(artifact)
}

func New(artifact Artifact) (*Vectorizer, error) {
	if err := artifact.validate(); err != nil {
		return nil, domain.WrapError(domain.ErrModelUnavailable, "build vectorizer", err)
	}

	v := &Vectorizer{
		vocabulary:  make(map[string]int, len(artifact.Vocabulary)),
		idf:         append([]float64(nil), artifact.IDF...),
		lowercase:   true,
		minN:        1,
		maxN:        1,
		stopWords:   make(map[string]struct{}, len(artifact.StopWords)),
		sublinearTF: artifact.SublinearTF,
		norm:        NormL2,
	}
	for term, idx := range artifact.Vocabulary {
		v.vocabulary[term] = idx
	}
	if artifact.Lowercase != nil {
		v.lowercase = *artifact.Lowercase
	}
	if artifact.NgramRange != [2]int{} {
		v.minN, v.maxN = artifact.NgramRange[0], artifact.NgramRange[1]
	}
	for _, w := range artifact.StopWords {
		v.stopWords[w] = struct{}{}
	}
	if artifact.Norm != nil {
		v.norm = *artifact.Norm
		if v.norm == "" {
			v.norm = NormNone
		}
	}
	return v, nil
}

func (a Artifact) validate() error {
	if len(a.IDF) == 0 {
		return errors.New("idf is empty")
	}
	if len(a.Vocabulary) == 0 {
		return errors.New("vocabulary is empty")
	}
	seen := make(map[int]string, len(a.Vocabulary))
	for term, idx := range a.Vocabulary {
		if idx < 0 || idx >= len(a.IDF) {
			return fmt.Errorf("term %q maps to column %d outside [0,%d)", term, idx, len(a.IDF))
		}
		if other, dup := seen[idx]; dup {
			return fmt.Errorf("terms %q and %q share column %d", other, term, idx)
		}
		seen[idx] = term
	}
	if a.NgramRange != [2]int{} && (a.NgramRange[0] < 1 || a.NgramRange[1] < a.NgramRange[0]) {
		return fmt.Errorf("invalid ngram_range %v", a.NgramRange)
	}
	if a.Norm != nil {
		switch *a.Norm {
		case NormL2, NormL1, NormNone, "":
		default:
			return fmt.Errorf("unsupported norm %q", *a.Norm)
		}
	}
	return nil
}

func (v *Vectorizer) Dim() int {
	return len(v.idf)
}

func (v *Vectorizer) Transform(text string) (domain.FeatureVector, error) {
	counts := make(map[int]float64)
	for _, term := range v.analyze(text) {
		if idx, ok := v.vocabulary[term]; ok {
			counts[idx]++
		}
	}

	out := domain.FeatureVector{Dim: v.Dim()}
	if len(counts) == 0 {
		return out, nil
	}
	out.Indices = make([]int, 0, len(counts))
	for idx := range counts {
		out.Indices = append(out.Indices, idx)
	}
	sort.Ints(out.Indices)

	out.Values = make([]float64, len(out.Indices))
	for i, idx := range out.Indices {
		tf := counts[idx]
		if v.sublinearTF {
			tf = 1 + math.Log(tf)
		}
		out.Values[i] = tf * v.idf[idx]
	}
	normalize(out.Values, v.norm)
	return out, nil
}

// analyze tokenizes text and expands it to the configured n-grams.
func (v *Vectorizer) analyze(text string) []string {
	if v.lowercase {
		text = strings.ToLower(text)
	}
	tokens := tokenPattern.FindAllString(text, -1)
	if len(v.stopWords) > 0 {
		kept := tokens[:0]
		for _, tok := range tokens {
			if _, stop := v.stopWords[tok]; !stop {
				kept = append(kept, tok)
			}
		}
		tokens = kept
	}
	if v.maxN == 1 {
		return tokens
	}

	terms := make([]string, 0, len(tokens)*(v.maxN-v.minN+1))
	for n := v.minN; n <= v.maxN && n <= len(tokens); n++ {
		for i := 0; i+n <= len(tokens); i++ {
			terms = append(terms, strings.Join(tokens[i:i+n], " "))
		}
	}
	return terms
}

func normalize(values []float64, norm string) {
	var total float64
	switch norm {
	case NormL2:
		for _, x := range values {
			total += x * x
		}
		total = math.Sqrt(total)
	case NormL1:
		for _, x := range values {
			total += math.Abs(x)
		}
	default:
		return
	}
	if total == 0 {
		return
	}
	for i := range values {
		values[i] /= total
	}
}
