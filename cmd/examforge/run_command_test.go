package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"examforge/internal/testsupport"
)

// stubModelServer replays scripted assistant messages as chat completion
// responses, one per request.
func stubModelServer(t *testing.T, contents []string) *httptest.Server {
	t.Helper()

	var mu sync.Mutex
	index := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		if index >= len(contents) {
			t.Errorf("unexpected request %d", index+1)
			http.Error(w, "no scripted response", http.StatusInternalServerError)
			return
		}
		content := contents[index]
		index++

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"content": content}},
			},
			"usage": map[string]any{
				"prompt_tokens":     800,
				"completion_tokens": 400,
			},
		})
	}))
	t.Cleanup(server.Close)
	return server
}

func TestRunEndToEnd(t *testing.T) {
	env := setupCLITestEnv(t,
		testsupport.WithPrompts(),
		testsupport.WithImages("page1.png"),
		testsupport.WithExemplars("paper.tex"),
	)

	server := stubModelServer(t, []string{
		`[{"exam":"Calculus Final","year":2024,"difficulty":3,"topics":["integration"],"question":"Find the integral of x^2 dx","marks":5}]`,
		`{"question":"Find the integral of 4x^2 dx"}`,
		`{"well_posed":true,"reasoning":"standard integral"}`,
		`{"latex_document":"\\documentclass{article}\n\\begin{document}\nFind $\\int 4x^2\\,dx$.\n\\end{document}\n"}`,
	})
	env.cfg.LLM.BaseURL = server.URL
	writeTestConfig(t, env.configPath, env.cfg)

	out, err := runCLI(t, []string{"run", "--yes"}, env.configPath)
	if err != nil {
		t.Fatalf("run: %v\noutput:\n%s", err, out)
	}
	requireContains(t, out, "Total cost:")
	requireContains(t, out, "1 validated question(s)")

	doc := testsupport.ReadFile(t, env.cfg.FinalDocumentFile())
	requireContains(t, doc, "\\int 4x^2\\,dx")
}

func TestRunFailsWithoutAPIKey(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithPrompts(), testsupport.WithImages("page1.png"))
	env.cfg.LLM.APIKey = ""
	writeTestConfig(t, env.configPath, env.cfg)

	_, err := runCLI(t, []string{"run", "--yes"}, env.configPath)
	if err == nil {
		t.Fatal("expected failure without API key")
	}
	requireContains(t, err.Error(), "api_key")
}
