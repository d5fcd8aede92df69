package localfs

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/kirillkom/resume-categorizer/internal/core/domain"
)

// ReadUpload loads a resume from disk. maxBytes <= 0 means no limit.
func ReadUpload(path string, maxBytes int64) (domain.UploadedFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return domain.UploadedFile{}, domain.WrapError(domain.ErrInvalidInput, "read upload", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return domain.UploadedFile{}, domain.WrapError(domain.ErrInvalidInput, "read upload", err)
	}
	if info.IsDir() {
		return domain.UploadedFile{}, domain.WrapError(domain.ErrInvalidInput, "read upload", fmt.Errorf("%s is a directory", path))
	}
	if maxBytes > 0 && info.Size() > maxBytes {
		return domain.UploadedFile{}, domain.WrapError(domain.ErrInvalidInput, "read upload", fmt.Errorf("%s is %d bytes, limit is %d", path, info.Size(), maxBytes))
	}

	data, err := io.ReadAll(f)
	if err != nil {
		return domain.UploadedFile{}, domain.WrapError(domain.ErrStorage, "read upload", err)
	}
	return domain.UploadedFile{Name: filepath.Base(path), Data: data}, nil
}
