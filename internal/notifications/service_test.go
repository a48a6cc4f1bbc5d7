package notifications

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"examforge/internal/config"
)

type capturedRequest struct {
	body     string
	title    string
	tags     string
	priority string
}

func newCaptureServer(t *testing.T) (*httptest.Server, func() []capturedRequest) {
	t.Helper()

	var mu sync.Mutex
	var captured []capturedRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			t.Errorf("read body: %v", err)
		}
		mu.Lock()
		captured = append(captured, capturedRequest{
			body:     string(body),
			title:    r.Header.Get("Title"),
			tags:     r.Header.Get("Tags"),
			priority: r.Header.Get("Priority"),
		})
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(server.Close)

	return server, func() []capturedRequest {
		mu.Lock()
		defer mu.Unlock()
		out := make([]capturedRequest, len(captured))
		copy(out, captured)
		return out
	}
}

func newTestService(topic string) Service {
	cfg := &config.Config{}
	cfg.Notifications.NtfyTopic = topic
	cfg.Notifications.RequestTimeout = 5
	return NewService(cfg)
}

func TestNewServiceWithoutTopicReturnsNoop(t *testing.T) {
	svc := newTestService("")
	if _, ok := svc.(noopService); !ok {
		t.Fatalf("expected noop service, got %T", svc)
	}
	if err := svc.NotifyRunStarted(context.Background(), 3); err != nil {
		t.Fatalf("noop NotifyRunStarted returned error: %v", err)
	}
	if err := svc.NotifyRunFailed(context.Background(), "transcribe", io.EOF); err != nil {
		t.Fatalf("noop NotifyRunFailed returned error: %v", err)
	}
}

func TestNotifyRunStartedSendsPayload(t *testing.T) {
	server, requests := newCaptureServer(t)
	svc := newTestService(server.URL)

	if err := svc.NotifyRunStarted(context.Background(), 12); err != nil {
		t.Fatalf("NotifyRunStarted: %v", err)
	}

	got := requests()
	if len(got) != 1 {
		t.Fatalf("expected 1 request, got %d", len(got))
	}
	if got[0].title != "examforge - Run Started" {
		t.Errorf("unexpected title %q", got[0].title)
	}
	if !strings.Contains(got[0].body, "12 image(s)") {
		t.Errorf("unexpected body %q", got[0].body)
	}
	if got[0].priority != "" {
		t.Errorf("expected default priority, got %q", got[0].priority)
	}
}

func TestNotifyStageCompletedIncludesCounts(t *testing.T) {
	server, requests := newCaptureServer(t)
	svc := newTestService(server.URL)

	if err := svc.NotifyStageCompleted(context.Background(), "validate", 7, 9); err != nil {
		t.Fatalf("NotifyStageCompleted: %v", err)
	}

	got := requests()
	if len(got) != 1 {
		t.Fatalf("expected 1 request, got %d", len(got))
	}
	if !strings.Contains(got[0].body, "7/9") {
		t.Errorf("expected counts in body, got %q", got[0].body)
	}
	if !strings.Contains(got[0].tags, "validate") {
		t.Errorf("expected stage tag, got %q", got[0].tags)
	}
}

func TestNotifyRunCompletedFormatsCostAndDuration(t *testing.T) {
	server, requests := newCaptureServer(t)
	svc := newTestService(server.URL)

	err := svc.NotifyRunCompleted(context.Background(), 8, 0.12345, 95*time.Second)
	if err != nil {
		t.Fatalf("NotifyRunCompleted: %v", err)
	}

	got := requests()
	if len(got) != 1 {
		t.Fatalf("expected 1 request, got %d", len(got))
	}
	body := got[0].body
	if !strings.Contains(body, "8 validated question(s)") {
		t.Errorf("missing count in body %q", body)
	}
	if !strings.Contains(body, "$0.1234") && !strings.Contains(body, "$0.1235") {
		t.Errorf("missing cost in body %q", body)
	}
	if !strings.Contains(body, "1m35s") {
		t.Errorf("missing duration in body %q", body)
	}
	if got[0].priority != "high" {
		t.Errorf("expected high priority, got %q", got[0].priority)
	}
}

func TestNotifyRunFailedIncludesStageAndError(t *testing.T) {
	server, requests := newCaptureServer(t)
	svc := newTestService(server.URL)

	err := svc.NotifyRunFailed(context.Background(), "perturb", io.ErrUnexpectedEOF)
	if err != nil {
		t.Fatalf("NotifyRunFailed: %v", err)
	}

	got := requests()
	if len(got) != 1 {
		t.Fatalf("expected 1 request, got %d", len(got))
	}
	if !strings.Contains(got[0].body, "perturb") {
		t.Errorf("missing stage in body %q", got[0].body)
	}
	if !strings.Contains(got[0].body, "unexpected EOF") {
		t.Errorf("missing cause in body %q", got[0].body)
	}
}

func TestSendReportsServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "topic rejected", http.StatusForbidden)
	}))
	t.Cleanup(server.Close)

	svc := newTestService(server.URL)
	err := svc.TestNotification(context.Background())
	if err == nil {
		t.Fatal("expected error from server rejection")
	}
	if !strings.Contains(err.Error(), "403") {
		t.Errorf("expected status code in error, got %v", err)
	}
}
