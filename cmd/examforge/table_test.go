package main

import (
	"strings"
	"testing"
)

func TestRenderTableShowsHeadersAndCells(t *testing.T) {
	out := renderTable(
		[]string{"Check", "Status"},
		[][]string{{"Image directory", "pass"}, {"Prompt files", "FAIL"}},
	)

	for _, want := range []string{"Check", "Status", "Image directory", "Prompt files", "FAIL"} {
		if !strings.Contains(out, want) {
			t.Errorf("rendered table missing %q:\n%s", want, out)
		}
	}
}

func TestRenderTableRightAlignsNumericColumns(t *testing.T) {
	out := renderTable(
		[]string{"ID", "Status"},
		[][]string{{"7", "completed"}, {"1234", "failed"}},
		1,
	)

	// Right alignment pads the short ID against the column separator.
	if !strings.Contains(out, " 7 │") {
		t.Errorf("expected right-aligned ID column:\n%s", out)
	}
}

func TestRenderTableEmptyHeaders(t *testing.T) {
	if out := renderTable(nil, nil); out != "" {
		t.Errorf("expected empty output, got %q", out)
	}
}
