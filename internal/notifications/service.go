package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"examforge/internal/config"
)

const userAgent = "examforge/0.1.0"

// Service defines the notification surface exposed to the pipeline manager.
type Service interface {
	NotifyRunStarted(ctx context.Context, images int) error
	NotifyStageCompleted(ctx context.Context, stage string, kept, total int) error
	NotifyRunCompleted(ctx context.Context, validated int, costUSD float64, duration time.Duration) error
	NotifyRunFailed(ctx context.Context, stage string, err error) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint: topic,
		client:   &http.Client{Timeout: timeout},
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
}

func (n *ntfyService) NotifyRunStarted(ctx context.Context, images int) error {
	data := payload{
		title:   "examforge - Run Started",
		message: fmt.Sprintf("Started pipeline run over %d image(s)", images),
		tags:    []string{"examforge", "run", "started"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyStageCompleted(ctx context.Context, stage string, kept, total int) error {
	stage = strings.TrimSpace(stage)
	data := payload{
		title:   "examforge - Stage Complete",
		message: fmt.Sprintf("Stage %s complete: %d/%d item(s) kept", stage, kept, total),
		tags:    []string{"examforge", stage, "completed"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyRunCompleted(ctx context.Context, validated int, costUSD float64, duration time.Duration) error {
	duration = duration.Round(time.Second)
	if duration < 0 {
		duration = 0
	}
	data := payload{
		title:    "examforge - Run Complete",
		message:  fmt.Sprintf("Document ready: %d validated question(s), $%.4f, %s", validated, costUSD, duration),
		tags:     []string{"examforge", "run", "completed"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyRunFailed(ctx context.Context, stage string, err error) error {
	var builder strings.Builder
	builder.WriteString("Run failed")
	if stage = strings.TrimSpace(stage); stage != "" {
		builder.WriteString(" in ")
		builder.WriteString(stage)
	}
	builder.WriteString(": ")
	if err != nil {
		builder.WriteString(strings.TrimSpace(err.Error()))
	} else {
		builder.WriteString("unknown")
	}
	data := payload{
		title:    "examforge - Run Failed",
		message:  builder.String(),
		tags:     []string{"examforge", "error", "alert"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "examforge - Test",
		message:  "Notification system test",
		tags:     []string{"examforge", "test"},
		priority: "low",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) NotifyRunStarted(context.Context, int) error                          { return nil }
func (noopService) NotifyStageCompleted(context.Context, string, int, int) error         { return nil }
func (noopService) NotifyRunCompleted(context.Context, int, float64, time.Duration) error { return nil }
func (noopService) NotifyRunFailed(context.Context, string, error) error                 { return nil }
func (noopService) TestNotification(context.Context) error                               { return nil }
