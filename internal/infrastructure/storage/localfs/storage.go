package localfs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"syscall"

	"github.com/kirillkom/resume-categorizer/internal/core/domain"
	"github.com/kirillkom/resume-categorizer/internal/infrastructure/resilience"
)

// Storage files resumes under <root>/<category>/<filename>.
type Storage struct {
	executor *resilience.Executor
	dirMode  os.FileMode
	fileMode os.FileMode
}

type Options struct {
	ResilienceExecutor *resilience.Executor
}

func New(options Options) *Storage {
	return &Storage{
		executor: options.ResilienceExecutor,
		dirMode:  0o755,
		fileMode: 0o644,
	}
}

func (s *Storage) Prepare(ctx context.Context, root string) error {
	if root == "" {
		return domain.WrapError(domain.ErrInvalidInput, "prepare output dir", errors.New("output directory is empty"))
	}
	err := s.run(ctx, "localfs.prepare", func(context.Context) error {
		if err := os.MkdirAll(root, s.dirMode); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
		return nil
	})
	if err != nil {
		return domain.WrapError(domain.ErrStorage, "prepare output dir", err)
	}
	return nil
}

// Save writes data to root/category/filename, replacing any existing file,
// and returns the written path.
func (s *Storage) Save(ctx context.Context, root, category, filename string, data io.Reader) (string, error) {
	if err := domain.ValidateCategoryName(category); err != nil {
		return "", domain.WrapError(domain.ErrInvalidInput, "save resume", err)
	}
	if err := validateFilename(filename); err != nil {
		return "", domain.WrapError(domain.ErrInvalidInput, "save resume", err)
	}
	payload, err := io.ReadAll(data)
	if err != nil {
		return "", domain.WrapError(domain.ErrStorage, "save resume", fmt.Errorf("read payload: %w", err))
	}

	dir := filepath.Join(root, category)
	target := filepath.Join(dir, filename)
	err = s.run(ctx, "localfs.save", func(context.Context) error {
		if err := os.MkdirAll(dir, s.dirMode); err != nil {
			return fmt.Errorf("create category dir: %w", err)
		}
		return s.writeFile(dir, target, payload)
	})
	if err != nil {
		return "", domain.WrapError(domain.ErrStorage, "save resume", err)
	}
	return target, nil
}

func (s *Storage) writeFile(dir, target string, payload []byte) error {
	tmp, err := os.CreateTemp(dir, ".upload-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(payload); err != nil {
		tmp.Close()
		return fmt.Errorf("write file: %w", err)
	}
	if err := tmp.Chmod(s.fileMode); err != nil {
		tmp.Close()
		return fmt.Errorf("chmod file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close file: %w", err)
	}
	if err := os.Rename(tmpName, target); err != nil {
		return fmt.Errorf("rename file: %w", err)
	}
	return nil
}

func (s *Storage) run(ctx context.Context, operation string, fn func(context.Context) error) error {
	if s.executor == nil {
		return fn(ctx)
	}
	return s.executor.Execute(ctx, operation, fn, classifyFSError)
}

func validateFilename(name string) error {
	switch {
	case name == "" || name == "." || name == "..":
		return fmt.Errorf("invalid filename %q", name)
	case filepath.Base(name) != name:
		return fmt.Errorf("filename %q contains a path separator", name)
	}
	return nil
}

func classifyFSError(err error) resilience.ErrorClassification {
	if err == nil {
		return resilience.ErrorClassification{}
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return resilience.ErrorClassification{Retryable: false, RecordFailure: false}
	}
	if errors.Is(err, syscall.EAGAIN) ||
		errors.Is(err, syscall.EINTR) ||
		errors.Is(err, syscall.EBUSY) {
		return resilience.ErrorClassification{Retryable: true, RecordFailure: true}
	}
	// Permission and missing-path errors will not fix themselves.
	if errors.Is(err, os.ErrPermission) || errors.Is(err, os.ErrNotExist) {
		return resilience.ErrorClassification{Retryable: false, RecordFailure: false}
	}
	return resilience.ErrorClassification{Retryable: false, RecordFailure: true}
}
