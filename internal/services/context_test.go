package services

import (
	"context"
	"testing"
)

func TestStageContext(t *testing.T) {
	ctx := context.Background()
	if _, ok := StageFromContext(ctx); ok {
		t.Fatal("empty context should carry no stage")
	}
	ctx = WithStage(ctx, "transcribe")
	if stage, ok := StageFromContext(ctx); !ok || stage != "transcribe" {
		t.Fatalf("unexpected stage: %q ok=%v", stage, ok)
	}
	if next := WithStage(ctx, ""); next != ctx {
		t.Fatal("empty stage should leave context untouched")
	}
}

func TestSourceContext(t *testing.T) {
	ctx := WithSource(context.Background(), "q1.png")
	if source, ok := SourceFromContext(ctx); !ok || source != "q1.png" {
		t.Fatalf("unexpected source: %q ok=%v", source, ok)
	}
}
