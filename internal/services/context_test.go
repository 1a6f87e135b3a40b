package services_test

import (
	"context"
	"testing"

	"tuneprint/internal/services"
)

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithFile(ctx, "/music/track.flac")
	ctx = services.WithStage(ctx, "lookup")
	ctx = services.WithRequestID(ctx, "req-123")

	if path, ok := services.FileFromContext(ctx); !ok || path != "/music/track.flac" {
		t.Fatalf("unexpected file: %v %v", path, ok)
	}
	if stage, ok := services.StageFromContext(ctx); !ok || stage != "lookup" {
		t.Fatalf("unexpected stage: %v %v", stage, ok)
	}
	if rid, ok := services.RequestIDFromContext(ctx); !ok || rid != "req-123" {
		t.Fatalf("unexpected request id: %v %v", rid, ok)
	}
}

func TestBlankValuesPreserveContext(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithStage(ctx, "")
	ctx = services.WithFile(ctx, "")
	if _, ok := services.StageFromContext(ctx); ok {
		t.Fatal("expected no stage value")
	}
	if _, ok := services.FileFromContext(ctx); ok {
		t.Fatal("expected no file value")
	}
}
