package catalog

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/kirillkom/resume-categorizer/internal/core/domain"
)

// File is the YAML layout of a category registry:
//
//	categories:
//	  0: Advocate
//	  1: Arts
type File struct {
	Categories map[int]string `yaml:"categories"`
}

// Load returns the built-in registry when path is empty, otherwise the
// registry described by the YAML file at path.
func Load(path string) (*domain.CategoryRegistry, error) {
	if path == "" {
		return domain.DefaultCategoryRegistry(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, domain.WrapError(domain.ErrModelUnavailable, "load category registry", err)
	}
	return Parse(raw)
}

func Parse(raw []byte) (*domain.CategoryRegistry, error) {
	var file File
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, domain.WrapError(domain.ErrModelUnavailable, "parse category registry", err)
	}
	reg, err := domain.NewCategoryRegistry(file.Categories)
	if err != nil {
		return nil, domain.WrapError(domain.ErrModelUnavailable, "parse category registry", err)
	}
	return reg, nil
}

// Marshal renders a registry in the layout Load accepts.
func Marshal(reg *domain.CategoryRegistry) ([]byte, error) {
	file := File{Categories: make(map[int]string)}
	for _, c := range reg.Entries() {
		file.Categories[c.Code] = c.Name
	}
	out, err := yaml.Marshal(file)
	if err != nil {
		return nil, fmt.Errorf("marshal category registry: %w", err)
	}
	return out, nil
}
