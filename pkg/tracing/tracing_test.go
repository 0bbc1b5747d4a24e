package tracing

import (
	"context"
	"testing"

	"github.com/angelmondragon/storefront-backend/pkg/config"
)

func TestSetupDisabledIsNoop(t *testing.T) {
	shutdown, err := Setup(context.Background(), config.Config{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
}

func TestSetupRequiresEndpoint(t *testing.T) {
	cfg := config.Config{FeatureFlags: config.FeatureFlagsConfig{Tracing: true}}
	if _, err := Setup(context.Background(), cfg); err == nil {
		t.Fatal("expected error without endpoint")
	}
}
