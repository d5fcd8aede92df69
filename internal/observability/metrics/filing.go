package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kirillkom/resume-categorizer/internal/core/domain"
)

// FilingMetrics records per-file outcomes and batch timings of the filing pipeline.
type FilingMetrics struct {
	service string

	filesTotal    *prometheus.CounterVec
	categoryTotal *prometheus.CounterVec
	batchDuration prometheus.Histogram
	batchFiles    prometheus.Histogram
	emptyBatches  prometheus.Counter
}

func NewFilingMetrics(service string, registerer prometheus.Registerer) *FilingMetrics {
	filesTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "filing",
			Name:      "files_total",
			Help:      "Resumes handled by outcome status.",
		},
		[]string{"service", "status"},
	)
	categoryTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "filing",
			Name:      "category_total",
			Help:      "Filed resumes by predicted category.",
		},
		[]string{"service", "category"},
	)
	batchDuration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace:   namespace,
			Subsystem:   "filing",
			Name:        "batch_duration_seconds",
			Help:        "Time to categorize one batch.",
			Buckets:     prometheus.DefBuckets,
			ConstLabels: prometheus.Labels{"service": service},
		},
	)
	batchFiles := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace:   namespace,
			Subsystem:   "filing",
			Name:        "batch_files",
			Help:        "Number of files submitted per batch.",
			Buckets:     []float64{1, 2, 5, 10, 25, 50, 100, 250},
			ConstLabels: prometheus.Labels{"service": service},
		},
	)
	emptyBatches := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace:   namespace,
			Subsystem:   "filing",
			Name:        "empty_batches_total",
			Help:        "Batches in which no resume had extractable text.",
			ConstLabels: prometheus.Labels{"service": service},
		},
	)

	registerer.MustRegister(filesTotal, categoryTotal, batchDuration, batchFiles, emptyBatches)

	return &FilingMetrics{
		service:       service,
		filesTotal:    filesTotal,
		categoryTotal: categoryTotal,
		batchDuration: batchDuration,
		batchFiles:    batchFiles,
		emptyBatches:  emptyBatches,
	}
}

func (m *FilingMetrics) ObserveFile(status domain.FileStatus, category string) {
	m.filesTotal.WithLabelValues(m.service, string(status)).Inc()
	if status == domain.FileStatusFiled {
		m.categoryTotal.WithLabelValues(m.service, category).Inc()
	}
}

func (m *FilingMetrics) ObserveBatch(files, records int, duration time.Duration) {
	m.batchFiles.Observe(float64(files))
	m.batchDuration.Observe(duration.Seconds())
	if records == 0 {
		m.emptyBatches.Inc()
	}
}
