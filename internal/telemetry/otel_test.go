package telemetry

import (
	"context"
	"testing"
	"time"

	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	semconv "go.opentelemetry.io/otel/semconv/v1.20.0"
)

func TestSetup(t *testing.T) {
	tests := []struct {
		name    string
		opts    Options
		wantErr bool
	}{
		{
			name: "disabled",
			opts: Options{ServiceName: "smart-reminders-worker"},
		},
		{
			name: "enabled with endpoint",
			opts: Options{Enabled: true, ServiceName: "smart-reminders-server", Endpoint: "localhost:4318"},
		},
		{
			name: "enabled without service name",
			opts: Options{Enabled: true, Endpoint: "localhost:4318"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			shutdown, err := Setup(ctx, tt.opts)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Setup() error = %v, wantErr %v", err, tt.wantErr)
			}
			if shutdown == nil {
				t.Fatal("Setup() returned nil shutdown")
			}
			if err := shutdown(ctx); err != nil {
				t.Errorf("shutdown() error = %v", err)
			}
		})
	}
}

func TestNewProvider_TagsServiceName(t *testing.T) {
	ctx := context.Background()
	exporter := tracetest.NewInMemoryExporter()

	tp, err := NewProvider(ctx, "smart-reminders-worker", sdktraceSyncer(exporter))
	if err != nil {
		t.Fatalf("NewProvider() error = %v", err)
	}
	defer func() { _ = tp.Shutdown(ctx) }()

	_, span := tp.Tracer("test").Start(ctx, "scheduler.poll")
	span.End()

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("Expected 1 span, got %d", len(spans))
	}
	found := false
	for _, attr := range spans[0].Resource.Attributes() {
		if attr.Key == semconv.ServiceNameKey && attr.Value.AsString() == "smart-reminders-worker" {
			found = true
		}
	}
	if !found {
		t.Error("Expected service.name resource attribute")
	}
}
