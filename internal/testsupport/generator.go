package testsupport

import (
	"context"
	"errors"
	"sync"
	"time"

	"examforge/internal/services/llm"
)

// GeneratorCall records one model invocation made through FakeGenerator.
type GeneratorCall struct {
	Vision       bool
	SystemPrompt string
	UserPrompt   string
	Image        llm.Image
	MaxTokens    int
}

// GeneratorResponse is one scripted reply.
type GeneratorResponse struct {
	Content string
	Usage   llm.Usage
	Err     error
}

// FakeGenerator replays scripted responses in order and records every call.
// Vision and JSON calls draw from the same queue so tests can script a
// whole pipeline run as one sequence.
type FakeGenerator struct {
	mu        sync.Mutex
	responses []GeneratorResponse
	calls     []GeneratorCall
}

// NewFakeGenerator builds a generator that replays the given responses.
func NewFakeGenerator(responses ...GeneratorResponse) *FakeGenerator {
	return &FakeGenerator{responses: responses}
}

// Enqueue appends further scripted responses.
func (f *FakeGenerator) Enqueue(responses ...GeneratorResponse) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses = append(f.responses, responses...)
}

// Calls returns a copy of the recorded invocations.
func (f *FakeGenerator) Calls() []GeneratorCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]GeneratorCall, len(f.calls))
	copy(out, f.calls)
	return out
}

func (f *FakeGenerator) next(call GeneratorCall) (llm.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, call)
	if len(f.responses) == 0 {
		return llm.Result{}, errors.New("fake generator: no scripted response left")
	}
	resp := f.responses[0]
	f.responses = f.responses[1:]
	result := llm.Result{
		Content: resp.Content,
		Usage:   resp.Usage,
		Elapsed: 5 * time.Millisecond,
	}
	return result, resp.Err
}

// CompleteJSON replays the next scripted response for a text call.
func (f *FakeGenerator) CompleteJSON(ctx context.Context, systemPrompt, userPrompt string, maxTokens int) (llm.Result, error) {
	if err := ctx.Err(); err != nil {
		return llm.Result{}, err
	}
	return f.next(GeneratorCall{
		SystemPrompt: systemPrompt,
		UserPrompt:   userPrompt,
		MaxTokens:    maxTokens,
	})
}

// CompleteVision replays the next scripted response for an image call.
func (f *FakeGenerator) CompleteVision(ctx context.Context, systemPrompt, userPrompt string, image llm.Image, maxTokens int) (llm.Result, error) {
	if err := ctx.Err(); err != nil {
		return llm.Result{}, err
	}
	return f.next(GeneratorCall{
		Vision:       true,
		SystemPrompt: systemPrompt,
		UserPrompt:   userPrompt,
		Image:        image,
		MaxTokens:    maxTokens,
	})
}
