package question

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestJSONLRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "1_transcribed.jsonl")
	records := []Record{
		{
			ID:         "q-1",
			Exam:       "A-Level Mathematics",
			Year:       2023,
			Difficulty: 2,
			Topics:     []string{"calculus", "integration"},
			Question:   "Find $\\int x^2\\,dx$ and state the constant of integration.",
			Marks:      4,
		},
		{Question: "Solve $x < 5$ for $x \\in \\mathbb{N}$."},
		{ID: "q-3", Question: "Différentiez $f(x) = e^x$.", Difficulty: 1},
	}

	writer, err := NewWriter(path)
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	for _, rec := range records {
		if err := writer.Append(rec); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	loaded, err := ReadLines(path)
	if err != nil {
		t.Fatalf("ReadLines: %v", err)
	}
	if diff := cmp.Diff(records, loaded); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestWriterDoesNotEscapeMarkup(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.jsonl")
	writer, err := NewWriter(path)
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	if err := writer.Append(Record{Question: "Is $x < y$ or $x > y$?"}); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if strings.Contains(string(data), "\\u003c") {
		t.Fatalf("angle brackets should not be escaped: %s", data)
	}
}

func TestReadLinesSkipsBlankAndRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.jsonl")
	content := "{\"question\":\"a\"}\n\n{\"question\":\"b\"}\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	records, err := ReadLines(path)
	if err != nil {
		t.Fatalf("ReadLines: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}

	if err := os.WriteFile(path, []byte("{not json}\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := ReadLines(path); err == nil {
		t.Fatal("expected error for malformed line")
	}
}
