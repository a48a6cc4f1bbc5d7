package validator

import (
	"context"
	"errors"
	"strings"
	"testing"

	"examforge/internal/ledger"
	"examforge/internal/logging"
	"examforge/internal/question"
	"examforge/internal/services"
	"examforge/internal/stage"
	"examforge/internal/testsupport"
)

func record(id, q string) question.Record {
	return question.Record{
		ID:         id,
		Exam:       "Sample Exam",
		Year:       2024,
		Difficulty: 2,
		Question:   q,
		Marks:      4,
	}
}

func TestExecuteKeepsWellPosedInOrder(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithPrompts())
	gen := testsupport.NewFakeGenerator(
		testsupport.GeneratorResponse{Content: `{"well_posed":true,"reasoning":"fine"}`},
		testsupport.GeneratorResponse{Content: `{"well_posed":false,"reasoning":"ambiguous units"}`},
		testsupport.GeneratorResponse{Content: `{"well_posed":true,"reasoning":"fine"}`},
	)
	costs := ledger.New(ledger.Pricing{InputPerMillion: 1, OutputPerMillion: 2})
	handler := New(cfg, gen, costs, logging.NewNop())

	batch := &stage.Batch{Records: []question.Record{
		record("a", "First"),
		record("b", "Second"),
		record("c", "Third"),
	}}
	if err := handler.Execute(context.Background(), batch); err != nil {
		t.Fatalf("execute: %v", err)
	}

	if len(batch.Records) != 2 {
		t.Fatalf("records = %d, want 2", len(batch.Records))
	}
	if batch.Records[0].ID != "a" || batch.Records[1].ID != "c" {
		t.Errorf("unexpected survivors %+v", batch.Records)
	}

	persisted, err := question.ReadLines(cfg.ValidatedFile())
	if err != nil {
		t.Fatalf("read artifact: %v", err)
	}
	if len(persisted) != 2 {
		t.Errorf("artifact records = %d, want 2", len(persisted))
	}
	if costs.Stage("validate").Calls != 3 {
		t.Errorf("ledger calls = %d, want 3", costs.Stage("validate").Calls)
	}
}

func TestExecuteMergesCorrectedQuestion(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithPrompts())
	gen := testsupport.NewFakeGenerator(
		testsupport.GeneratorResponse{
			Content: `{"well_posed":true,"reasoning":"typo fixed","corrected_question":"Solve 2x + 4 = 10 for x."}`,
		},
	)
	handler := New(cfg, gen, nil, logging.NewNop())

	batch := &stage.Batch{Records: []question.Record{record("a", "Solve 2x + 4 = 10 for y.")}}
	if err := handler.Execute(context.Background(), batch); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if got := batch.Records[0].Question; got != "Solve 2x + 4 = 10 for x." {
		t.Errorf("question = %q, want corrected text", got)
	}
	if batch.Records[0].ID != "a" {
		t.Errorf("id changed to %q", batch.Records[0].ID)
	}
}

func TestExecuteSkipsFailedJudgements(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithPrompts())
	gen := testsupport.NewFakeGenerator(
		testsupport.GeneratorResponse{Err: errors.New("model error")},
		testsupport.GeneratorResponse{Content: "no json here"},
		testsupport.GeneratorResponse{Content: `{"well_posed":true}`},
	)
	handler := New(cfg, gen, nil, logging.NewNop())

	batch := &stage.Batch{Records: []question.Record{
		record("a", "One"),
		record("b", "Two"),
		record("c", "Three"),
	}}
	if err := handler.Execute(context.Background(), batch); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if len(batch.Records) != 1 || batch.Records[0].ID != "c" {
		t.Fatalf("unexpected survivors %+v", batch.Records)
	}
}

func TestExecuteAllRejectedIsExhausted(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithPrompts())
	gen := testsupport.NewFakeGenerator(
		testsupport.GeneratorResponse{Content: `{"well_posed":false,"reasoning":"unsolvable"}`},
		testsupport.GeneratorResponse{Content: `{"well_posed":false,"reasoning":"missing data"}`},
	)
	handler := New(cfg, gen, nil, logging.NewNop())

	batch := &stage.Batch{Records: []question.Record{record("a", "One"), record("b", "Two")}}
	err := handler.Execute(context.Background(), batch)
	if !errors.Is(err, services.ErrExhausted) {
		t.Fatalf("expected exhausted error, got %v", err)
	}
}

func TestExecuteEmptyInputIsExhausted(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithPrompts())
	handler := New(cfg, testsupport.NewFakeGenerator(), nil, logging.NewNop())

	err := handler.Execute(context.Background(), &stage.Batch{})
	if !errors.Is(err, services.ErrExhausted) {
		t.Fatalf("expected exhausted error, got %v", err)
	}
}

func TestExecuteSendsRecordToModel(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithPrompts())
	gen := testsupport.NewFakeGenerator(
		testsupport.GeneratorResponse{Content: `{"well_posed":true}`},
	)
	handler := New(cfg, gen, nil, logging.NewNop())

	batch := &stage.Batch{Records: []question.Record{record("a", "Integrate x squared")}}
	if err := handler.Execute(context.Background(), batch); err != nil {
		t.Fatalf("execute: %v", err)
	}
	calls := gen.Calls()
	if len(calls) != 1 {
		t.Fatalf("calls = %d, want 1", len(calls))
	}
	if !strings.Contains(calls[0].UserPrompt, "Integrate x squared") {
		t.Errorf("question missing from user prompt: %q", calls[0].UserPrompt)
	}
	if calls[0].MaxTokens != cfg.LLM.ValidateMaxTokens {
		t.Errorf("max tokens = %d, want %d", calls[0].MaxTokens, cfg.LLM.ValidateMaxTokens)
	}
}
