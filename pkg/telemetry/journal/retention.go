package journal

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// RetentionConfig contains configuration for journal pruning.
type RetentionConfig struct {
	// RetentionDays is how long entries are kept. Zero disables pruning.
	// Default: 30
	RetentionDays int

	// Schedule is the cron expression for the pruning job.
	// Default: "0 3 * * *"
	Schedule string
}

// DefaultRetentionConfig returns the default retention configuration.
func DefaultRetentionConfig() RetentionConfig {
	return RetentionConfig{
		RetentionDays: 30,
		Schedule:      "0 3 * * *",
	}
}

// Pruner deletes journal entries older than the retention window.
type Pruner struct {
	journal *Journal
	cfg     RetentionConfig
	logger  *slog.Logger

	// now is replaceable for tests.
	now func() time.Time
}

// NewPruner creates a pruner for the journal.
func NewPruner(j *Journal, cfg RetentionConfig) *Pruner {
	return &Pruner{
		journal: j,
		cfg:     cfg,
		logger:  slog.Default().With("component", "telemetry.journal.pruner"),
		now:     time.Now,
	}
}

// Prune deletes entries older than the retention window and returns how
// many rows were removed. With retention disabled it is a no-op.
func (p *Pruner) Prune(ctx context.Context) (int64, error) {
	if p.cfg.RetentionDays <= 0 {
		return 0, nil
	}

	cutoff := p.now().AddDate(0, 0, -p.cfg.RetentionDays)
	res, err := p.journal.db.ExecContext(ctx, DeleteBefore, cutoff.Unix())
	if err != nil {
		return 0, fmt.Errorf("failed to prune journal: %w", err)
	}

	deleted, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count pruned rows: %w", err)
	}

	if deleted > 0 {
		p.logger.Info("journal pruned",
			"deleted", deleted,
			"retention_days", p.cfg.RetentionDays,
		)
	}
	return deleted, nil
}

// Scheduler runs the pruner on a cron schedule.
type Scheduler struct {
	pruner *Pruner
	cron   *cron.Cron
	logger *slog.Logger

	mu      sync.Mutex
	running bool
}

// NewScheduler creates a retention scheduler for the pruner.
func NewScheduler(pruner *Pruner) *Scheduler {
	return &Scheduler{
		pruner: pruner,
		cron:   cron.New(),
		logger: slog.Default().With("component", "telemetry.journal.scheduler"),
	}
}

// Start begins scheduled pruning. With an empty schedule or retention
// disabled, the scheduler does nothing. The scheduler stops when the
// context is cancelled or Stop is called.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pruner.cfg.Schedule == "" || s.pruner.cfg.RetentionDays <= 0 {
		s.logger.Info("journal retention not configured, skipping scheduler")
		return nil
	}

	if _, err := cron.ParseStandard(s.pruner.cfg.Schedule); err != nil {
		return fmt.Errorf("invalid cron schedule %q: %w", s.pruner.cfg.Schedule, err)
	}

	if _, err := s.cron.AddFunc(s.pruner.cfg.Schedule, func() {
		if _, err := s.pruner.Prune(ctx); err != nil {
			s.logger.Error("scheduled journal pruning failed", "error", err)
		}
	}); err != nil {
		return fmt.Errorf("failed to schedule journal pruning: %w", err)
	}

	s.cron.Start()
	s.running = true

	s.logger.Info("journal retention scheduler started",
		"schedule", s.pruner.cfg.Schedule,
		"retention_days", s.pruner.cfg.RetentionDays,
	)

	go func() {
		<-ctx.Done()
		s.Stop()
	}()
	return nil
}

// Stop stops the scheduler and waits for a running job to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		<-s.cron.Stop().Done()
		s.running = false
		s.logger.Info("journal retention scheduler stopped")
	}
}

// IsRunning reports whether the scheduler is active.
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// NextRun returns the next scheduled pruning time, if any.
func (s *Scheduler) NextRun() *time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := s.cron.Entries()
	if len(entries) == 0 {
		return nil
	}
	next := entries[0].Next
	return &next
}
