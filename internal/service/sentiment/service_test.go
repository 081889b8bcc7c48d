package sentiment

import (
	"context"
	"testing"

	"github.com/haven-space/sanctum-backend/internal/pkg/logger"
)

func TestAnalyzeWithoutModelUsesLexicon(t *testing.T) {
	svc, err := NewService(context.Background(), nil, logger.NewNop())
	if err != nil {
		t.Fatalf("NewService err: %v", err)
	}
	if svc.Enabled() {
		t.Fatal("service without a model must not report enabled")
	}

	got := svc.Analyze(context.Background(), "feeling happy and grateful today")
	if !got.Fallback {
		t.Fatal("lexicon result must be marked fallback")
	}
	if got.Label != "positive" {
		t.Fatalf("expected positive label, got %q", got.Label)
	}
}

func TestParseClassifierOutput(t *testing.T) {
	result, err := parseClassifierOutput(`Here you go: {"score": 0.8, "magnitude": 0.5, "label": "Positive", "confidence": 0.9} done`)
	if err != nil {
		t.Fatalf("parse err: %v", err)
	}
	if result.Label != "positive" {
		t.Fatalf("label not normalized: %q", result.Label)
	}
	if result.Score != 0.8 || result.Confidence != 0.9 {
		t.Fatalf("unexpected result: %+v", result)
	}
	if result.Fallback {
		t.Fatal("model result must not be marked fallback")
	}
}

func TestParseClassifierOutputClamps(t *testing.T) {
	result, err := parseClassifierOutput(`{"score": -3, "magnitude": 2, "label": "negative", "confidence": 5}`)
	if err != nil {
		t.Fatalf("parse err: %v", err)
	}
	if result.Score != -1 {
		t.Fatalf("score not clamped: %v", result.Score)
	}
	if result.Magnitude != 1 {
		t.Fatalf("magnitude not clamped: %v", result.Magnitude)
	}
	if result.Confidence != 1 {
		t.Fatalf("confidence not clamped: %v", result.Confidence)
	}
}

func TestParseClassifierOutputRejectsGarbage(t *testing.T) {
	cases := []string{
		"no json here",
		`{"score": 0.2, "label": "confused"}`,
		`{broken`,
	}
	for _, c := range cases {
		if _, err := parseClassifierOutput(c); err == nil {
			t.Fatalf("expected parse error for %q", c)
		}
	}
}
