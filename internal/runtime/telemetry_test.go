package runtime

import (
	"context"
	"strings"
	"testing"

	"github.com/mohammad-safakhou/careerchat/config"
)

func TestSetupTelemetryExportsToRegistry(t *testing.T) {
	ctx := context.Background()
	tel, err := SetupTelemetry(ctx, config.TelemetryConfig{ServiceName: "careerchat-test"}, TelemetryOptions{ServiceVersion: "test"})
	if err != nil {
		t.Fatalf("SetupTelemetry: %v", err)
	}
	defer func() { _ = tel.Shutdown(ctx) }()

	counter, err := tel.Meter.Int64Counter("careerchat_test_events")
	if err != nil {
		t.Fatalf("counter: %v", err)
	}
	counter.Add(ctx, 2)

	families, err := tel.Registry.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	found := false
	for _, f := range families {
		if strings.HasPrefix(f.GetName(), "careerchat_test_events") {
			found = true
		}
	}
	if !found {
		t.Fatal("expected the otel counter to be exported to the prometheus registry")
	}
	if tel.Tracer == nil {
		t.Fatal("expected a tracer")
	}
}
