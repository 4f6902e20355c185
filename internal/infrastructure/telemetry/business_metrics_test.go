package telemetry

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordImport(t *testing.T) {
	before := testutil.ToFloat64(ImportRunsTotal.WithLabelValues("test_import", OutcomeSuccess))
	created := testutil.ToFloat64(ImportRecordsTotal.WithLabelValues("test_import", "created"))

	RecordImport("test_import", map[string]int{"created": 3, "reused": 0}, nil)

	assert.Equal(t, before+1, testutil.ToFloat64(ImportRunsTotal.WithLabelValues("test_import", OutcomeSuccess)))
	assert.Equal(t, created+3, testutil.ToFloat64(ImportRecordsTotal.WithLabelValues("test_import", "created")))
}

func TestRecordImport_FailureSkipsCounts(t *testing.T) {
	created := testutil.ToFloat64(ImportRecordsTotal.WithLabelValues("test_failed", "created"))

	RecordImport("test_failed", map[string]int{"created": 5}, errors.New("boom"))

	assert.Equal(t, 1.0, testutil.ToFloat64(ImportRunsTotal.WithLabelValues("test_failed", OutcomeFailure)))
	assert.Equal(t, created, testutil.ToFloat64(ImportRecordsTotal.WithLabelValues("test_failed", "created")))
}

func TestRecordDocumentAndSignature(t *testing.T) {
	before := testutil.ToFloat64(DocumentsGeneratedTotal.WithLabelValues("advice", "html"))
	RecordDocument("advice", "html")
	assert.Equal(t, before+1, testutil.ToFloat64(DocumentsGeneratedTotal.WithLabelValues("advice", "html")))

	signed := testutil.ToFloat64(SignatureEventsTotal.WithLabelValues("signed"))
	RecordSignatureEvent("signed")
	assert.Equal(t, signed+1, testutil.ToFloat64(SignatureEventsTotal.WithLabelValues("signed")))
}

func TestRecordRender(t *testing.T) {
	RecordRender("test_engine", nil, 1500*time.Millisecond)
	RecordRender("test_engine", errors.New("chrome gone"), time.Second)

	assert.Equal(t, 1, testutil.CollectAndCount(PDFRenderDuration.WithLabelValues("test_engine", OutcomeSuccess).(prometheus.Histogram)))
	assert.Equal(t, 1, testutil.CollectAndCount(PDFRenderDuration.WithLabelValues("test_engine", OutcomeFailure).(prometheus.Histogram)))
}
