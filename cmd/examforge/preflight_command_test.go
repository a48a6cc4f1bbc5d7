package main

import (
	"testing"

	"examforge/internal/testsupport"
)

func TestPreflightPassesWithSeededEnvironment(t *testing.T) {
	env := setupCLITestEnv(t,
		testsupport.WithPrompts(),
		testsupport.WithImages("page1.png"),
		testsupport.WithExemplars("paper.tex"),
	)

	out, err := runCLI(t, []string{"preflight"}, env.configPath)
	if err != nil {
		t.Fatalf("preflight: %v\noutput:\n%s", err, out)
	}
	requireContains(t, out, "All checks passed")
}

func TestPreflightFailsWithoutPrompts(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithImages("page1.png"))

	out, err := runCLI(t, []string{"preflight"}, env.configPath)
	if err == nil {
		t.Fatalf("expected preflight failure, output:\n%s", out)
	}
	requireContains(t, out, "FAIL")
}
