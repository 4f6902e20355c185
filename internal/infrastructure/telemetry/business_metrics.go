package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome labels shared by the business counters
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Import and migration metrics
var (
	// ImportRunsTotal counts finished imports and migrations by kind and outcome
	ImportRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "backoffice_import_runs_total",
			Help: "Imports and legacy migrations by kind and outcome",
		},
		[]string{"kind", "outcome"},
	)

	// ImportRecordsTotal counts records touched by imports, by kind and result
	// (created, updated, reused, skipped)
	ImportRecordsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "backoffice_import_records_total",
			Help: "Records created, updated, reused or skipped by imports",
		},
		[]string{"kind", "result"},
	)
)

// Document metrics
var (
	// DocumentsGeneratedTotal counts generated documents by kind and format.
	// The format is "pdf", or "html" when PDF rendering fell back.
	DocumentsGeneratedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "backoffice_documents_generated_total",
			Help: "Generated documents by kind and format",
		},
		[]string{"kind", "format"},
	)

	// SignatureEventsTotal counts signing link events (created, signed)
	SignatureEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "backoffice_signature_events_total",
			Help: "Client signing link events",
		},
		[]string{"event"},
	)

	// PDFRenderDuration observes every HTML to PDF engine attempt
	PDFRenderDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "backoffice_pdf_render_duration_seconds",
			Help:    "HTML to PDF rendering time by engine and outcome",
			Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"engine", "outcome"},
	)
)

// Background job metrics
var (
	// ScheduledJobRunsTotal counts background job attempts by job and outcome
	ScheduledJobRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "backoffice_scheduled_job_runs_total",
			Help: "Background job attempts by job and outcome",
		},
		[]string{"job", "outcome"},
	)

	// DueReminders is the number of reminders due at the last digest run
	DueReminders = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "backoffice_due_reminders",
			Help: "Note reminders due at the last reminder digest",
		},
	)
)

// RecordImport records one finished import run with its per-result counts
func RecordImport(kind string, counts map[string]int, err error) {
	outcome := OutcomeSuccess
	if err != nil {
		outcome = OutcomeFailure
	}
	ImportRunsTotal.WithLabelValues(kind, outcome).Inc()
	if err != nil {
		return
	}
	for result, n := range counts {
		if n > 0 {
			ImportRecordsTotal.WithLabelValues(kind, result).Add(float64(n))
		}
	}
}

// RecordDocument records one generated document
func RecordDocument(kind, format string) {
	DocumentsGeneratedTotal.WithLabelValues(kind, format).Inc()
}

// RecordSignatureEvent records a signing link event
func RecordSignatureEvent(event string) {
	SignatureEventsTotal.WithLabelValues(event).Inc()
}

// RecordRender records one PDF engine attempt
func RecordRender(engine string, err error, d time.Duration) {
	outcome := OutcomeSuccess
	if err != nil {
		outcome = OutcomeFailure
	}
	PDFRenderDuration.WithLabelValues(engine, outcome).Observe(d.Seconds())
}

// RecordJobRun records one background job attempt
func RecordJobRun(job string, err error) {
	outcome := OutcomeSuccess
	if err != nil {
		outcome = OutcomeFailure
	}
	ScheduledJobRunsTotal.WithLabelValues(job, outcome).Inc()
}
