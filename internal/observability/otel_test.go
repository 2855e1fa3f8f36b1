package observability

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/tbourn/alive28-ledger/internal/config"
)

// withOTelSandbox restores the globals and the seams after the test and
// routes spans into an in-memory exporter.
func withOTelSandbox(t *testing.T) *tracetest.InMemoryExporter {
	t.Helper()
	prevTP, prevProp := otel.GetTracerProvider(), otel.GetTextMapPropagator()
	prevExp, prevRes := newSpanExporter, newResource

	mem := tracetest.NewInMemoryExporter()
	newSpanExporter = func(context.Context, config.OTELConfig) (sdktrace.SpanExporter, error) { return mem, nil }

	t.Cleanup(func() {
		otel.SetTracerProvider(prevTP)
		otel.SetTextMapPropagator(prevProp)
		newSpanExporter, newResource = prevExp, prevRes
	})
	return mem
}

// flush drains the batcher; the in-memory exporter drops its spans on shutdown.
func flush(t *testing.T) {
	t.Helper()
	tp, ok := otel.GetTracerProvider().(*sdktrace.TracerProvider)
	require.True(t, ok)
	require.NoError(t, tp.ForceFlush(context.Background()))
}

func enabled(name string) config.OTELConfig {
	return config.OTELConfig{Enabled: true, Insecure: true, Endpoint: "localhost:4317", ServiceName: name, SampleRatio: 1}
}

func TestSetupOTel_DisabledKeepsGlobals(t *testing.T) {
	withOTelSandbox(t)
	before := otel.GetTracerProvider()

	shutdown, err := SetupOTel(context.Background(), config.OTELConfig{Enabled: false}, "v0")
	require.NoError(t, err)
	require.NoError(t, shutdown(context.Background()))
	assert.Equal(t, before, otel.GetTracerProvider())
}

func TestSetupOTel_ExportsSpansWithServiceResource(t *testing.T) {
	mem := withOTelSandbox(t)

	shutdown, err := SetupOTel(context.Background(), enabled("alive28-ledger"), "v1.2.3")
	require.NoError(t, err)

	_, span := otel.Tracer("test").Start(context.Background(), "LedgerService.Checkin")
	span.End()
	flush(t)

	spans := mem.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "LedgerService.Checkin", spans[0].Name)

	attrs := map[attribute.Key]string{}
	for _, kv := range spans[0].Resource.Attributes() {
		attrs[kv.Key] = kv.Value.Emit()
	}
	assert.Equal(t, "alive28-ledger", attrs["service.name"])
	assert.Equal(t, "v1.2.3", attrs["service.version"])
	assert.Equal(t, ServiceNamespace, attrs["service.namespace"])
	require.NoError(t, shutdown(context.Background()))
}

func TestSetupOTel_InstallsTraceContextPropagator(t *testing.T) {
	withOTelSandbox(t)

	shutdown, err := SetupOTel(context.Background(), enabled("svc"), "v1")
	require.NoError(t, err)
	defer func() { _ = shutdown(context.Background()) }()

	ctx, span := otel.Tracer("test").Start(context.Background(), "outer")
	defer span.End()
	carrier := propagation.MapCarrier{}
	otel.GetTextMapPropagator().Inject(ctx, carrier)
	assert.NotEmpty(t, carrier.Get("traceparent"))
}

func TestSetupOTel_ZeroRatioSamplesNothing(t *testing.T) {
	mem := withOTelSandbox(t)
	cfg := enabled("svc")
	cfg.SampleRatio = -3

	shutdown, err := SetupOTel(context.Background(), cfg, "v1")
	require.NoError(t, err)
	_, span := otel.Tracer("test").Start(context.Background(), "dropped")
	span.End()
	flush(t)
	assert.Empty(t, mem.GetSpans())
	require.NoError(t, shutdown(context.Background()))
}

func TestSetupOTel_FailuresLeaveGlobalsIntact(t *testing.T) {
	cases := map[string]func(){
		"exporter": func() {
			newSpanExporter = func(context.Context, config.OTELConfig) (sdktrace.SpanExporter, error) {
				return nil, errors.New("boom-exporter")
			}
		},
		"resource": func() {
			newResource = func(context.Context, string, string) (*resource.Resource, error) {
				return nil, errors.New("boom-resource")
			}
		},
	}
	for name, breakIt := range cases {
		t.Run(name, func(t *testing.T) {
			withOTelSandbox(t)
			breakIt()
			prevTP, prevProp := otel.GetTracerProvider(), otel.GetTextMapPropagator()

			_, err := SetupOTel(context.Background(), enabled("svc"), "v0")
			require.Error(t, err)
			assert.Equal(t, prevTP, otel.GetTracerProvider())
			assert.Equal(t, prevProp, otel.GetTextMapPropagator())
		})
	}
}

func TestOTLPExporter_BuildsLazily(t *testing.T) {
	// The gRPC client connects on first export, so construction succeeds
	// without a collector for both transport security modes.
	for _, insecure := range []bool{true, false} {
		cfg := enabled("svc")
		cfg.Insecure = insecure
		exp, err := otlpExporter(context.Background(), cfg)
		require.NoError(t, err)
		require.NoError(t, exp.Shutdown(context.Background()))
	}
}

func TestSampleRatio(t *testing.T) {
	assert.Equal(t, 0.0, sampleRatio(-1))
	assert.Equal(t, 0.25, sampleRatio(0.25))
	assert.Equal(t, 1.0, sampleRatio(7))
}
