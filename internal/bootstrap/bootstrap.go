package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kirillkom/resume-categorizer/internal/config"
	"github.com/kirillkom/resume-categorizer/internal/core/domain"
	"github.com/kirillkom/resume-categorizer/internal/core/ports"
	"github.com/kirillkom/resume-categorizer/internal/core/usecase"
	"github.com/kirillkom/resume-categorizer/internal/infrastructure/catalog"
	"github.com/kirillkom/resume-categorizer/internal/infrastructure/extractor/document"
	"github.com/kirillkom/resume-categorizer/internal/infrastructure/model/linear"
	"github.com/kirillkom/resume-categorizer/internal/infrastructure/model/tfidf"
	"github.com/kirillkom/resume-categorizer/internal/infrastructure/queue/nats"
	"github.com/kirillkom/resume-categorizer/internal/infrastructure/resilience"
	"github.com/kirillkom/resume-categorizer/internal/infrastructure/storage/localfs"
	"github.com/kirillkom/resume-categorizer/internal/observability/metrics"
)

type App struct {
	Config config.Config

	Registry     *domain.CategoryRegistry
	CategorizeUC ports.ResumeCategorizer

	closeFn func()
}

type Options struct {
	Service string
	Logger  *slog.Logger
	// Registerer receives filing metrics. Nil disables them.
	Registerer prometheus.Registerer
}

// New loads model artifacts and the category registry and wires the filing
// pipeline. Any artifact problem is returned as ErrModelUnavailable so the
// process fails before serving.
func New(_ context.Context, cfg config.Config, opts Options) (*App, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	vectorizer, err := tfidf.Load(cfg.VectorizerPath)
	if err != nil {
		return nil, fmt.Errorf("load vectorizer %s: %w", cfg.VectorizerPath, err)
	}
	model, err := linear.Load(cfg.ClassifierPath)
	if err != nil {
		return nil, fmt.Errorf("load classifier %s: %w", cfg.ClassifierPath, err)
	}
	classifier, err := usecase.NewResumeClassifier(vectorizer, model)
	if err != nil {
		return nil, err
	}

	registry, err := catalog.Load(cfg.CategoryRegistryPath)
	if err != nil {
		return nil, fmt.Errorf("load category registry: %w", err)
	}
	for _, code := range classifier.UnmappedClasses(registry) {
		logger.Warn("category_unmapped", "code", code, "category", domain.UnknownCategory)
	}

	executor := resilience.NewExecutorWithLogger(cfg.Resilience(), logger)
	storage := localfs.New(localfs.Options{ResilienceExecutor: executor})

	ucOpts := usecase.CategorizeOptions{Logger: logger}
	closeFn := func() {}
	if cfg.NATSURL != "" {
		publisher, err := nats.NewPublisher(cfg.NATSURL, cfg.NATSSubject, nats.Options{
			ResilienceExecutor: executor,
			Logger:             logger,
		})
		if err != nil {
			return nil, fmt.Errorf("init event publisher: %w", err)
		}
		ucOpts.Publisher = publisher
		closeFn = publisher.Close
	}
	if opts.Registerer != nil {
		ucOpts.Observer = metrics.NewFilingMetrics(opts.Service, opts.Registerer)
	}

	categorizeUC := usecase.NewCategorizeResumesUseCase(document.NewExtractor(), classifier, registry, storage, ucOpts)

	logger.Info("pipeline_ready",
		"features", vectorizer.Dim(),
		"classes", len(model.Classes()),
		"categories", len(registry.Codes()),
		"resilience", executor.Describe(),
		"events", cfg.NATSURL != "",
	)

	return &App{
		Config:       cfg,
		Registry:     registry,
		CategorizeUC: categorizeUC,
		closeFn:      closeFn,
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
