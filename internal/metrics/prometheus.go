package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics contains all Prometheus metrics for the feature pipeline
type Metrics struct {
	// Corpus ingestion metrics
	RecordingsProcessed prometheus.Counter
	RecordingsFailed    prometheus.Counter
	AnnotationErrors    prometheus.Counter
	SegmentsExtracted   *prometheus.CounterVec
	EmptySegments       prometheus.Counter

	// Rendering metrics
	ImagesRendered   prometheus.Counter
	RenderDuration   prometheus.Histogram
	SearchIterations prometheus.Histogram

	// Cache metrics
	CacheHits   prometheus.Counter
	CacheMisses prometheus.Counter

	// Augmentation metrics
	SamplesSynthesized prometheus.Counter
}

// NewMetrics creates and registers all Prometheus metrics
func NewMetrics() *Metrics {
	return &Metrics{
		RecordingsProcessed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "pipeline_recordings_processed_total",
			Help: "Total number of audio recordings decoded and segmented",
		}),
		RecordingsFailed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "pipeline_recordings_failed_total",
			Help: "Total number of recordings that failed to decode",
		}),
		AnnotationErrors: promauto.NewCounter(prometheus.CounterOpts{
			Name: "pipeline_annotation_errors_total",
			Help: "Total number of annotation files that failed to parse",
		}),
		SegmentsExtracted: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "pipeline_segments_extracted_total",
			Help: "Total number of respiratory cycle segments extracted",
		}, []string{"class"}),
		EmptySegments: promauto.NewCounter(prometheus.CounterOpts{
			Name: "pipeline_empty_segments_total",
			Help: "Total number of annotations producing an empty sample range",
		}),

		ImagesRendered: promauto.NewCounter(prometheus.CounterOpts{
			Name: "pipeline_images_rendered_total",
			Help: "Total number of spectrogram images rendered",
		}),
		RenderDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "pipeline_render_duration_seconds",
			Help:    "Time spent rendering one spectrogram image",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		}),
		SearchIterations: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "pipeline_hop_search_iterations",
			Help:    "Iterations of the hop adjustment search per image",
			Buckets: prometheus.LinearBuckets(0, 5, 11), // 0 to 50
		}),

		CacheHits: promauto.NewCounter(prometheus.CounterOpts{
			Name: "pipeline_cache_hits_total",
			Help: "Total number of pool artifacts served from cache",
		}),
		CacheMisses: promauto.NewCounter(prometheus.CounterOpts{
			Name: "pipeline_cache_misses_total",
			Help: "Total number of pool artifacts regenerated",
		}),

		SamplesSynthesized: promauto.NewCounter(prometheus.CounterOpts{
			Name: "pipeline_samples_synthesized_total",
			Help: "Total number of samples produced by mixup augmentation",
		}),
	}
}

// Handler returns the HTTP handler exposing the registered metrics
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordRecordingProcessed increments the recordings processed counter
func (m *Metrics) RecordRecordingProcessed() {
	m.RecordingsProcessed.Inc()
}

// RecordRecordingFailed increments the recordings failed counter
func (m *Metrics) RecordRecordingFailed() {
	m.RecordingsFailed.Inc()
}

// RecordAnnotationError increments the annotation errors counter
func (m *Metrics) RecordAnnotationError() {
	m.AnnotationErrors.Inc()
}

// RecordSegmentExtracted counts one extracted segment for its class
func (m *Metrics) RecordSegmentExtracted(class string, empty bool) {
	m.SegmentsExtracted.WithLabelValues(class).Inc()
	if empty {
		m.EmptySegments.Inc()
	}
}

// RecordImageRendered records one rendered image with its render time
// and the number of hop search iterations it took
func (m *Metrics) RecordImageRendered(durationSeconds float64, iterations int) {
	m.ImagesRendered.Inc()
	m.RenderDuration.Observe(durationSeconds)
	m.SearchIterations.Observe(float64(iterations))
}

// RecordCacheHit increments the cache hits counter
func (m *Metrics) RecordCacheHit() {
	m.CacheHits.Inc()
}

// RecordCacheMiss increments the cache misses counter
func (m *Metrics) RecordCacheMiss() {
	m.CacheMisses.Inc()
}

// RecordSamplesSynthesized adds the number of mixup-generated samples
func (m *Metrics) RecordSamplesSynthesized(count int) {
	m.SamplesSynthesized.Add(float64(count))
}
