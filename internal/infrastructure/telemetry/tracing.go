package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracerName is the instrumentation scope of application spans
const TracerName = "advisory-backoffice"

// Attributes set on import and migration spans
const (
	AttrImportFile    = attribute.Key("import.filename")
	AttrImportRows    = attribute.Key("import.rows")
	AttrCompany       = attribute.Key("company.code")
	AttrSnapshotMonth = attribute.Key("snapshot.month")
	AttrLegacyClients = attribute.Key("legacy.clients")
)

// Tracer returns the application tracer from the global provider. It is
// resolved per call so a provider installed after startup is honoured.
func Tracer() trace.Tracer {
	return otel.GetTracerProvider().Tracer(TracerName)
}

// StartServiceSpan starts an internal span named "<service>.<method>",
// for example "import.crm_excel". The caller ends it.
func StartServiceSpan(ctx context.Context, service, method string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return Tracer().Start(ctx, service+"."+method,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attrs...))
}

// RecordError attaches err to the span as an exception event and fails the
// span. Nil spans and nil errors are ignored.
func RecordError(span trace.Span, err error) {
	if span == nil || err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
