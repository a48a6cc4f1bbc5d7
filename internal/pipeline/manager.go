package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"log/slog"

	"github.com/gofrs/flock"

	"examforge/internal/config"
	"examforge/internal/extractor"
	"examforge/internal/fileutil"
	"examforge/internal/ledger"
	"examforge/internal/logging"
	"examforge/internal/notifications"
	"examforge/internal/perturber"
	"examforge/internal/runlog"
	"examforge/internal/services"
	"examforge/internal/services/llm"
	"examforge/internal/stage"
	"examforge/internal/transcriber"
	"examforge/internal/validator"
)

// Generator is the full model surface the pipeline needs. The real client
// satisfies it; tests inject a scripted fake.
type Generator interface {
	CompleteJSON(ctx context.Context, systemPrompt, userPrompt string, maxTokens int) (llm.Result, error)
	CompleteVision(ctx context.Context, systemPrompt, userPrompt string, image llm.Image, maxTokens int) (llm.Result, error)
}

// Hints carries the operator's per-stage special instructions.
type Hints struct {
	Transcribe string
	Perturb    string
	Extract    string
}

// Options configures a Manager beyond the config file.
type Options struct {
	// Generator overrides the default API-backed client.
	Generator Generator
	// Notifier defaults to the config-driven ntfy service.
	Notifier notifications.Service
	// History is optional; when nil and history is enabled in config, the
	// manager opens the configured database itself.
	History *runlog.Store
	// Out receives the cost report and run summary. Defaults to stdout.
	Out io.Writer
	// ClearImages removes the source images once transcription succeeded.
	ClearImages bool
	Hints       Hints
}

// StageOutcome is one stage's contribution to the run summary.
type StageOutcome struct {
	Stage   string
	Records int
}

// Summary describes a completed run.
type Summary struct {
	SourceImages int
	Stages       []StageOutcome
	Validated    int
	DocumentPath string
	CostUSD      float64
	Duration     time.Duration
}

// Manager runs the pipeline end to end.
type Manager struct {
	cfg         *config.Config
	logger      *slog.Logger
	gen         Generator
	notifier    notifications.Service
	history     *runlog.Store
	ownsHistory bool
	out         io.Writer
	clearImages bool
	hints       Hints
	costs       *ledger.Ledger
}

// NewManager wires the pipeline from config and options.
func NewManager(cfg *config.Config, logger *slog.Logger, opts Options) *Manager {
	if logger == nil {
		logger = logging.NewNop()
	}
	gen := opts.Generator
	if gen == nil {
		gen = llm.NewClient(llm.Config{
			APIKey:         cfg.LLM.APIKey,
			BaseURL:        cfg.LLM.BaseURL,
			Model:          cfg.LLM.Model,
			Referer:        cfg.LLM.Referer,
			Title:          cfg.LLM.Title,
			TimeoutSeconds: cfg.LLM.TimeoutSeconds,
		})
	}
	notifier := opts.Notifier
	if notifier == nil {
		notifier = notifications.NewService(cfg)
	}
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}
	return &Manager{
		cfg:         cfg,
		logger:      logger.With(logging.String("component", "pipeline")),
		gen:         gen,
		notifier:    notifier,
		history:     opts.History,
		out:         out,
		clearImages: opts.ClearImages,
		hints:       opts.Hints,
		costs:       ledger.New(ledger.Pricing(cfg.Pricing)),
	}
}

// Run executes all four stages in order and returns the run summary. It
// holds an exclusive lock for the duration so concurrent runs cannot clobber
// each other's artifacts.
func (m *Manager) Run(ctx context.Context) (*Summary, error) {
	if err := m.cfg.EnsureDirectories(); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "", "prepare", "ensuring directories failed", err)
	}

	lock := flock.New(m.cfg.LockFile())
	locked, err := lock.TryLock()
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "", "prepare", "acquiring run lock failed", err)
	}
	if !locked {
		return nil, services.Wrap(services.ErrConfiguration, "", "prepare", "another run is already in progress", nil)
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			m.logger.Warn("failed to release run lock", logging.Error(err))
		}
	}()

	handlers := []stage.Handler{
		transcriber.New(m.cfg, m.gen, m.costs, m.logger, m.hints.Transcribe),
		perturber.New(m.cfg, m.gen, m.costs, m.logger, m.hints.Perturb),
		validator.New(m.cfg, m.gen, m.costs, m.logger),
		extractor.New(m.cfg, m.gen, m.costs, m.logger, m.hints.Extract),
	}
	if err := m.checkHealth(ctx, handlers); err != nil {
		return nil, err
	}

	images, err := fileutil.ListImages(m.cfg.Paths.ImageDir)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "", "prepare", "reading image directory failed", err)
	}
	if notifyErr := m.notifier.NotifyRunStarted(ctx, len(images)); notifyErr != nil {
		m.logger.Warn("start notification failed", logging.Error(notifyErr))
	}

	started := time.Now()
	batch := &stage.Batch{}
	summary := &Summary{}
	validated := 0

	for _, handler := range handlers {
		name := handler.Name()
		stageCtx := services.WithStage(ctx, name)
		before := len(batch.Records)

		m.logger.Info("stage starting", logging.Stage(name), logging.Int("records", before))
		if err := handler.Execute(stageCtx, batch); err != nil {
			m.finishRun(ctx, runlog.StatusFailed, started, batch, summary, validated, err, name)
			return nil, fmt.Errorf("%s stage: %w", name, err)
		}

		summary.Stages = append(summary.Stages, StageOutcome{Stage: name, Records: len(batch.Records)})
		m.logger.Info("stage complete",
			logging.Stage(name),
			logging.Int("records", len(batch.Records)),
			logging.Float64("cost_usd", m.costs.StageCost(name)))
		if notifyErr := m.notifier.NotifyStageCompleted(ctx, name, len(batch.Records), max(before, len(batch.Records))); notifyErr != nil {
			m.logger.Warn("stage notification failed", logging.Error(notifyErr))
		}

		switch name {
		case "transcribe":
			m.cleanupImages()
		case "validate":
			validated = len(batch.Records)
		}
	}

	summary.SourceImages = batch.SourceImages
	summary.Validated = validated
	summary.DocumentPath = m.cfg.FinalDocumentFile()
	summary.CostUSD = m.costs.TotalCost()
	summary.Duration = time.Since(started)

	m.printSummary(summary)
	if notifyErr := m.notifier.NotifyRunCompleted(ctx, validated, summary.CostUSD, summary.Duration); notifyErr != nil {
		m.logger.Warn("completion notification failed", logging.Error(notifyErr))
	}
	m.finishRun(ctx, runlog.StatusCompleted, started, batch, summary, validated, nil, "")
	return summary, nil
}

// checkHealth refuses to start when any stage reports an unusable input.
func (m *Manager) checkHealth(ctx context.Context, handlers []stage.Handler) error {
	for _, handler := range handlers {
		health := handler.HealthCheck(ctx)
		if !health.Ready {
			return services.Wrap(services.ErrConfiguration, health.Name, "health check", health.Detail, nil)
		}
	}
	return nil
}

func (m *Manager) cleanupImages() {
	if !m.clearImages {
		return
	}
	removed, err := fileutil.ClearDir(m.cfg.Paths.ImageDir)
	if err != nil {
		m.logger.Warn("image cleanup failed", logging.Error(err))
		return
	}
	m.logger.Info("source images removed", logging.Int("count", removed))
}

func (m *Manager) finishRun(ctx context.Context, status string, started time.Time, batch *stage.Batch, summary *Summary, validated int, runErr error, failedStage string) {
	if runErr != nil {
		if errors.Is(runErr, context.Canceled) {
			m.logger.Info("run canceled", logging.Stage(failedStage))
		} else {
			m.logger.Error("run failed", logging.Stage(failedStage), logging.Error(runErr))
		}
		if notifyErr := m.notifier.NotifyRunFailed(context.WithoutCancel(ctx), failedStage, runErr); notifyErr != nil {
			m.logger.Warn("failure notification failed", logging.Error(notifyErr))
		}
	}
	m.recordHistory(context.WithoutCancel(ctx), status, started, batch, summary, validated, runErr)
}

func (m *Manager) recordHistory(ctx context.Context, status string, started time.Time, batch *stage.Batch, summary *Summary, validated int, runErr error) {
	store := m.history
	if store == nil {
		if !m.cfg.History.Enabled {
			return
		}
		opened, err := runlog.Open(m.cfg.HistoryDBPath())
		if err != nil {
			m.logger.Warn("history unavailable", logging.Error(err))
			return
		}
		defer opened.Close()
		store = opened
	}

	run := runlog.Run{
		StartedAt:    started,
		FinishedAt:   time.Now(),
		Status:       status,
		SourceImages: batch.SourceImages,
		Validated:    validated,
		CostUSD:      m.costs.TotalCost(),
	}
	if runErr != nil {
		run.Error = runErr.Error()
	}

	counts := make(map[string]int, len(summary.Stages))
	for _, outcome := range summary.Stages {
		counts[outcome.Stage] = outcome.Records
	}
	var stages []runlog.StageRecord
	for _, totals := range m.costs.Stages() {
		stages = append(stages, runlog.StageRecord{
			Stage:        totals.Stage,
			Records:      counts[totals.Stage],
			Calls:        totals.Calls,
			InputTokens:  totals.InputTokens,
			OutputTokens: totals.OutputTokens,
			Elapsed:      totals.Elapsed,
			CostUSD:      m.costs.StageCost(totals.Stage),
		})
	}

	if _, err := store.RecordRun(ctx, run, stages); err != nil {
		m.logger.Warn("recording run history failed", logging.Error(err))
	}
}

func (m *Manager) printSummary(summary *Summary) {
	fmt.Fprintln(m.out)
	fmt.Fprintln(m.out, m.costs.Report())
	fmt.Fprintf(m.out, "Processed %d image(s) into %d validated question(s) in %s\n",
		summary.SourceImages, summary.Validated, ledger.FormatElapsed(summary.Duration))
	fmt.Fprintf(m.out, "Total cost: %s\n", ledger.FormatCost(summary.CostUSD))
	fmt.Fprintf(m.out, "Final document: %s\n", summary.DocumentPath)
}
