package observability

import (
	"context"
	"os"
	"testing"
)

func TestSetupTracing(t *testing.T) {
	t.Setenv("OTEL_SERVICE_NAME", "")

	shutdown, err := SetupTracing(context.Background(), Config{
		Endpoint:    "localhost:4318",
		ServiceName: "retriva-test",
	})
	if err != nil {
		t.Fatalf("SetupTracing() error: %v", err)
	}
	if shutdown == nil {
		t.Fatal("SetupTracing() returned nil shutdown")
	}
	if got := os.Getenv("OTEL_SERVICE_NAME"); got != "retriva-test" {
		t.Errorf("OTEL_SERVICE_NAME = %q", got)
	}

	// Exporter never connected; shutdown should still flush cleanly.
	if err := shutdown(context.Background()); err != nil {
		t.Logf("shutdown returned %v (acceptable when no collector is running)", err)
	}
}

func TestSetupTracing_DefaultEndpoint(t *testing.T) {
	shutdown, err := SetupTracing(context.Background(), Config{})
	if err != nil {
		t.Fatalf("SetupTracing() error: %v", err)
	}
	if shutdown == nil {
		t.Fatal("SetupTracing() returned nil shutdown")
	}
}
