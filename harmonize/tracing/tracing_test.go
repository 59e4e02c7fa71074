package tracing

import (
	"context"
	"testing"
)

func TestEndpoint(t *testing.T) {
	t.Setenv(EndpointEnv, "http://collector:4318")

	if got := Endpoint(" http://localhost:4318 "); got != "http://localhost:4318" {
		t.Fatalf("Endpoint(flag)=%q", got)
	}
	if got := Endpoint(""); got != "http://collector:4318" {
		t.Fatalf("Endpoint(env)=%q", got)
	}
}

func TestSetup_Disabled(t *testing.T) {
	t.Parallel()

	shutdown, err := Setup(context.Background(), "", "harmonize")
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
}

func TestSetup_Exporter(t *testing.T) {
	ctx := context.Background()
	shutdown, err := Setup(ctx, "http://127.0.0.1:1/v1/traces", "harmonize-test")
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}
	// Nothing was recorded, so shutdown has nothing to push.
	if err := shutdown(ctx); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
}
