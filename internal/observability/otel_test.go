package observability

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/tbourn/go-chat-relay/internal/config"
)

func preserveGlobals(t *testing.T) {
	t.Helper()
	tp, prop := otel.GetTracerProvider(), otel.GetTextMapPropagator()
	t.Cleanup(func() {
		otel.SetTracerProvider(tp)
		otel.SetTextMapPropagator(prop)
	})
}

func enabled(name string) config.OTELConfig {
	return config.OTELConfig{Enabled: true, Insecure: true, Endpoint: "localhost:4317", ServiceName: name, SampleRatio: 1}
}

func TestSetupOTel_DisabledIsNoop(t *testing.T) {
	preserveGlobals(t)
	before := otel.GetTracerProvider()

	shutdown, err := SetupOTel(context.Background(), config.OTELConfig{Endpoint: "ignored:4317"}, "v0")
	if err != nil || shutdown == nil {
		t.Fatalf("SetupOTel: shutdown=%v err=%v", shutdown, err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("no-op shutdown: %v", err)
	}
	if otel.GetTracerProvider() != before {
		t.Fatalf("disabled tracing must not replace the provider")
	}
}

func TestSetupOTel_InstallsProviderAndPropagator(t *testing.T) {
	for _, insecure := range []bool{true, false} {
		preserveGlobals(t)
		cfg := enabled("relay-test")
		cfg.Insecure = insecure

		shutdown, err := SetupOTel(context.Background(), cfg, "v1.2.3")
		if err != nil {
			t.Fatalf("insecure=%v: %v", insecure, err)
		}
		if _, ok := otel.GetTracerProvider().(*sdktrace.TracerProvider); !ok {
			t.Fatalf("expected *sdktrace.TracerProvider")
		}

		ctx, span := otel.Tracer("test").Start(context.Background(), "fanout")
		carrier := propagation.MapCarrier{}
		otel.GetTextMapPropagator().Inject(ctx, carrier)
		span.End()
		if carrier.Get("traceparent") == "" {
			t.Fatalf("expected traceparent to be injected")
		}

		sctx, cancel := context.WithTimeout(context.Background(), 250*time.Millisecond)
		_ = shutdown(sctx)
		cancel()
	}
}

func TestSetupOTel_DefaultServiceName(t *testing.T) {
	preserveGlobals(t)
	orig := newResource
	t.Cleanup(func() { newResource = orig })

	var got string
	newResource = func(ctx context.Context, name, version string) (*resource.Resource, error) {
		got = name
		return orig(ctx, name, version)
	}
	shutdown, err := SetupOTel(context.Background(), enabled(""), "v1")
	if err != nil {
		t.Fatalf("SetupOTel: %v", err)
	}
	defer func() { _ = shutdown(context.Background()) }()
	if got != DefaultServiceName {
		t.Fatalf("service name = %q; want %q", got, DefaultServiceName)
	}
}

func TestSetupOTel_FailuresLeaveGlobalsIntact(t *testing.T) {
	origExp, origRes := newExporter, newResource
	t.Cleanup(func() { newExporter, newResource = origExp, origRes })

	cases := map[string]func(){
		"exporter": func() {
			newExporter = func(context.Context, otlptrace.Client) (*otlptrace.Exporter, error) {
				return nil, errors.New("boom-exporter")
			}
		},
		"resource": func() {
			newResource = func(context.Context, string, string) (*resource.Resource, error) {
				return nil, errors.New("boom-resource")
			}
		},
	}
	for name, arrange := range cases {
		t.Run(name, func(t *testing.T) {
			preserveGlobals(t)
			newExporter, newResource = origExp, origRes
			arrange()

			tp, prop := otel.GetTracerProvider(), otel.GetTextMapPropagator()
			if _, err := SetupOTel(context.Background(), enabled("svc"), "v0"); err == nil {
				t.Fatalf("expected error")
			}
			if otel.GetTracerProvider() != tp || otel.GetTextMapPropagator() != prop {
				t.Fatalf("globals changed on failure")
			}
		})
	}
}

func TestClampRatio(t *testing.T) {
	for in, want := range map[float64]float64{-1: 0, 0: 0, 0.25: 0.25, 1: 1, 7: 1} {
		if got := clampRatio(in); got != want {
			t.Fatalf("clampRatio(%v) = %v; want %v", in, got, want)
		}
	}
}
