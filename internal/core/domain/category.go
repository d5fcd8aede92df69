package domain

import (
	"fmt"
	"sort"
	"strings"
)

const UnknownCategory = "Unknown"

var defaultCategories = map[int]string{
	0:  "Advocate",
	1:  "Arts",
	2:  "Automation Testing",
	3:  "Blockchain",
	4:  "Business Analyst",
	5:  "Civil Engineer",
	6:  "Data Science",
	7:  "Database",
	8:  "DevOps Engineer",
	9:  "DotNet Developer",
	10: "ETL Developer",
	11: "Electrical Engineering",
	12: "HR",
	13: "Hadoop",
	14: "Health and Fitness",
	15: "Java Developer",
	16: "Mechanical Engineer",
	17: "Network Security Engineer",
	18: "Operations Manager",
	19: "PMO",
	20: "Python Developer",
	21: "SAP Developer",
	22: "Sales",
	23: "Testing",
	24: "Web Designing",
}

type Category struct {
	Code int    `json:"code" yaml:"code"`
	Name string `json:"name" yaml:"name"`
}

// CategoryRegistry maps classifier codes to display names. It is immutable
// once built and safe for concurrent use.
type CategoryRegistry struct {
	names map[int]string
}

// DefaultCategoryRegistry returns the registry matching the stock resume model.
func DefaultCategoryRegistry() *CategoryRegistry {
	reg, err := NewCategoryRegistry(defaultCategories)
	if err != nil {
		panic(err)
	}
	return reg
}

func NewCategoryRegistry(names map[int]string) (*CategoryRegistry, error) {
	if len(names) == 0 {
		return nil, WrapError(ErrInvalidInput, "build category registry", fmt.Errorf("no categories"))
	}
	copied := make(map[int]string, len(names))
	for code, name := range names {
		if err := ValidateCategoryName(name); err != nil {
			return nil, WrapError(ErrInvalidInput, "build category registry", fmt.Errorf("code %d: %w", code, err))
		}
		copied[code] = name
	}
	return &CategoryRegistry{names: copied}, nil
}

// Lookup never fails: codes outside the registry resolve to UnknownCategory.
func (r *CategoryRegistry) Lookup(code int) string {
	if r == nil {
		return UnknownCategory
	}
	if name, ok := r.names[code]; ok {
		return name
	}
	return UnknownCategory
}

func (r *CategoryRegistry) Has(code int) bool {
	if r == nil {
		return false
	}
	_, ok := r.names[code]
	return ok
}

func (r *CategoryRegistry) Codes() []int {
	if r == nil {
		return nil
	}
	codes := make([]int, 0, len(r.names))
	for code := range r.names {
		codes = append(codes, code)
	}
	sort.Ints(codes)
	return codes
}

// Entries lists categories ordered by code.
func (r *CategoryRegistry) Entries() []Category {
	codes := r.Codes()
	out := make([]Category, 0, len(codes))
	for _, code := range codes {
		out = append(out, Category{Code: code, Name: r.names[code]})
	}
	return out
}

// ValidateCategoryName rejects names that cannot be used as a single directory name.
func ValidateCategoryName(name string) error {
	trimmed := strings.TrimSpace(name)
	switch {
	case trimmed == "":
		return fmt.Errorf("empty category name")
	case trimmed != name:
		return fmt.Errorf("category name %q has surrounding whitespace", name)
	case name == "." || name == "..":
		return fmt.Errorf("category name %q is reserved", name)
	case strings.ContainsAny(name, "/\\\x00"):
		return fmt.Errorf("category name %q contains a path separator", name)
	}
	return nil
}
