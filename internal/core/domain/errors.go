package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrUnsupportedFormat = errors.New("unsupported format")
	ErrEmptyExtraction   = errors.New("no text extracted")
	ErrCorruptDocument   = errors.New("corrupt document")
	ErrModelUnavailable  = errors.New("model unavailable")
	ErrStorage           = errors.New("storage failure")
	ErrTemporary         = errors.New("temporary failure")
	ErrNothingExtracted  = errors.New("no valid text extracted from resumes")
)

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}
