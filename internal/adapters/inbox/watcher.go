package inbox

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/kirillkom/resume-categorizer/internal/core/domain"
	"github.com/kirillkom/resume-categorizer/internal/core/ports"
	"github.com/kirillkom/resume-categorizer/internal/infrastructure/storage/localfs"
)

const serviceName = "categorizer-worker"

// BatchObserver receives inbox processing measurements.
type BatchObserver interface {
	StartBatch()
	FinishBatch(service string, duration time.Duration, err error)
	ObservePickupLag(service string, lag time.Duration)
}

type Options struct {
	OutputDir       string
	Settle          time.Duration
	RemoveProcessed bool
	MaxFileBytes    int64
	Observer        BatchObserver
	Logger          *slog.Logger
}

// Worker files resumes dropped into a directory. Files are collected until
// the directory has been quiet for the settle period, then categorized as
// one batch.
type Worker struct {
	dir         string
	categorizer ports.ResumeCategorizer
	opts        Options
	logger      *slog.Logger
	now         func() time.Time
}

func New(dir string, categorizer ports.ResumeCategorizer, opts Options) *Worker {
	if opts.Settle <= 0 {
		opts.Settle = 500 * time.Millisecond
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Worker{
		dir:         dir,
		categorizer: categorizer,
		opts:        opts,
		logger:      logger,
		now:         time.Now,
	}
}

// Run watches the inbox until ctx is canceled. Files already present at
// startup form the first batch.
func (w *Worker) Run(ctx context.Context) error {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return fmt.Errorf("create inbox dir: %w", err)
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()
	if err := watcher.Add(w.dir); err != nil {
		return fmt.Errorf("watch inbox: %w", err)
	}

	pending := make(map[string]time.Time)
	existing, err := w.scan()
	if err != nil {
		return err
	}
	for _, p := range existing {
		pending[p] = w.now()
	}

	timer := time.NewTimer(w.opts.Settle)
	defer timer.Stop()
	w.logger.Info("inbox_watching", "dir", w.dir, "output_dir", w.opts.OutputDir, "pending", len(pending))

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return errors.New("inbox watcher closed")
			}
			if !candidate(event.Name) {
				continue
			}
			switch {
			case event.Has(fsnotify.Create), event.Has(fsnotify.Write):
				if _, seen := pending[event.Name]; !seen {
					pending[event.Name] = w.now()
				}
				resetTimer(timer, w.opts.Settle)
			case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
				delete(pending, event.Name)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return errors.New("inbox watcher closed")
			}
			w.logger.Warn("inbox_watch_error", "error", err)
		case <-timer.C:
			if len(pending) == 0 {
				continue
			}
			batch := pending
			pending = make(map[string]time.Time)
			w.processPending(ctx, batch)
		}
	}
}

func (w *Worker) processPending(ctx context.Context, batch map[string]time.Time) {
	paths := make([]string, 0, len(batch))
	start := w.now()
	for p, seen := range batch {
		paths = append(paths, p)
		if w.opts.Observer != nil {
			w.opts.Observer.ObservePickupLag(serviceName, start.Sub(seen))
		}
	}
	sort.Strings(paths)
	if _, err := w.ProcessPaths(ctx, paths); err != nil {
		w.logger.Error("inbox_batch_failed", "files", len(paths), "error", err)
	}
}

// ProcessPaths categorizes the given inbox files as one batch.
func (w *Worker) ProcessPaths(ctx context.Context, paths []string) (report *domain.BatchReport, err error) {
	if w.opts.Observer != nil {
		w.opts.Observer.StartBatch()
		start := w.now()
		defer func() { w.opts.Observer.FinishBatch(serviceName, w.now().Sub(start), err) }()
	}

	files := make([]domain.UploadedFile, 0, len(paths))
	byName := make(map[string]string, len(paths))
	for _, p := range paths {
		file, readErr := localfs.ReadUpload(p, w.opts.MaxFileBytes)
		if readErr != nil {
			w.logger.Warn("inbox_unreadable_file", "path", p, "error", readErr)
			continue
		}
		files = append(files, file)
		byName[file.Name] = p
	}
	if len(files) == 0 {
		return nil, domain.WrapError(domain.ErrInvalidInput, "process inbox", errors.New("no readable files"))
	}

	report, err = w.categorizer.Categorize(ctx, files, w.opts.OutputDir)
	if err != nil {
		return nil, err
	}
	if len(report.Records) == 0 {
		w.logger.Warn("inbox_batch_empty", "batch_id", report.ID, "files", len(files))
		return report, domain.WrapError(domain.ErrNothingExtracted, "process inbox", fmt.Errorf("batch %s", report.ID))
	}

	w.logger.Info("inbox_batch_done", "batch_id", report.ID, "files", len(files), "filed", len(report.Records))
	if w.opts.RemoveProcessed {
		w.removeFiled(report, byName)
	}
	return report, nil
}

func (w *Worker) removeFiled(report *domain.BatchReport, byName map[string]string) {
	for _, outcome := range report.Outcomes {
		if outcome.Status != domain.FileStatusFiled {
			continue
		}
		path, ok := byName[outcome.Filename]
		if !ok {
			continue
		}
		if err := os.Remove(path); err != nil {
			w.logger.Warn("inbox_remove_failed", "path", path, "error", err)
		}
	}
}

func (w *Worker) scan() ([]string, error) {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return nil, fmt.Errorf("scan inbox: %w", err)
	}
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.Type().IsRegular() && candidate(e.Name()) {
			out = append(out, filepath.Join(w.dir, e.Name()))
		}
	}
	return out, nil
}

// candidate skips hidden and temporary files that editors and copy tools leave behind.
func candidate(path string) bool {
	name := filepath.Base(path)
	return !strings.HasPrefix(name, ".") && !strings.HasSuffix(name, "~") && !strings.HasSuffix(name, ".part")
}

func resetTimer(t *time.Timer, d time.Duration) {
	if !t.Stop() {
		select {
		case <-t.C:
		default:
		}
	}
	t.Reset(d)
}
