// Package jobs holds background work that runs alongside the API servers.
package jobs

import (
	"context"
	"time"

	"github.com/dmitrijs2005/whistles/internal/logging"
	"github.com/dmitrijs2005/whistles/internal/partition"
)

// Pruner is the part of the message service the sweeper drives.
type Pruner interface {
	MarkMessagesForPruning(ctx context.Context, o *partition.Override) (int64, error)
	ExportPartition(ctx context.Context, o *partition.Override) (string, error)
}

// CandidateSource holds fids whose casts aged past the prune interval.
// Candidates stay pending until a completed sweep acknowledges them.
type CandidateSource interface {
	PruneCandidates(ctx context.Context) (map[int64]time.Time, error)
	AckPruneCandidates(ctx context.Context, seen map[int64]time.Time) error
}

// RetentionConfig controls the sweeper. Pending prune candidates are polled
// every CandidatePoll and trigger a sweep without waiting for Schedule;
// zero disables polling.
type RetentionConfig struct {
	Schedule      time.Duration
	CandidatePoll time.Duration
	Timeout       time.Duration
	ExportFirst   bool
}

func DefaultRetentionConfig() RetentionConfig {
	return RetentionConfig{
		Schedule:      24 * time.Hour,
		CandidatePoll: time.Minute,
		Timeout:       10 * time.Minute,
	}
}

// RetentionSweeper soft-deletes expired records of the default partition on
// a schedule and whenever prune candidates are pending.
type RetentionSweeper struct {
	pruner     Pruner
	candidates CandidateSource
	cfg        RetentionConfig
	logger     logging.Logger
}

func NewRetentionSweeper(p Pruner, c CandidateSource, cfg RetentionConfig, l logging.Logger) *RetentionSweeper {
	return &RetentionSweeper{
		pruner:     p,
		candidates: c,
		cfg:        cfg,
		logger:     l.With("module", "retention"),
	}
}

// Run sweeps once immediately, then on every tick and whenever a poll finds
// pending candidates, until ctx is done.
func (s *RetentionSweeper) Run(ctx context.Context) {
	s.logger.Info(ctx, "starting retention sweeper",
		"schedule", s.cfg.Schedule.String(), "candidate_poll", s.cfg.CandidatePoll.String())

	s.sweep(ctx)

	ticker := time.NewTicker(s.cfg.Schedule)
	defer ticker.Stop()

	var poll <-chan time.Time
	if s.candidates != nil && s.cfg.CandidatePoll > 0 {
		t := time.NewTicker(s.cfg.CandidatePoll)
		defer t.Stop()
		poll = t.C
	}

	for {
		select {
		case <-ticker.C:
			s.sweep(ctx)
		case <-poll:
			if s.pending(ctx) {
				s.sweep(ctx)
			}
		case <-ctx.Done():
			s.logger.Info(ctx, "retention sweeper stopped")
			return
		}
	}
}

func (s *RetentionSweeper) sweep(parent context.Context) {
	if _, err := s.RunOnce(parent); err != nil {
		s.logger.Error(parent, "retention sweep failed", "error", err.Error())
	}
}

func (s *RetentionSweeper) pending(ctx context.Context) bool {
	c, err := s.candidates.PruneCandidates(ctx)
	if err != nil {
		s.logger.Warn(ctx, "prune candidates unavailable", "error", err.Error())
		return false
	}
	return len(c) > 0
}

// RunOnce performs a single sweep bounded by the configured timeout and
// returns the number of records marked. Candidates pending when the sweep
// starts are acknowledged only after it succeeds.
func (s *RetentionSweeper) RunOnce(parent context.Context) (int64, error) {
	ctx, cancel := context.WithTimeout(parent, s.cfg.Timeout)
	defer cancel()

	var seen map[int64]time.Time
	if s.candidates != nil {
		c, err := s.candidates.PruneCandidates(ctx)
		if err != nil {
			s.logger.Warn(ctx, "prune candidates unavailable", "error", err.Error())
		}
		seen = c
	}

	if s.cfg.ExportFirst {
		key, err := s.pruner.ExportPartition(ctx, nil)
		if err != nil {
			return 0, err
		}
		s.logger.Info(ctx, "partition exported before sweep", "key", key)
	}

	n, err := s.pruner.MarkMessagesForPruning(ctx, nil)
	if err != nil {
		return 0, err
	}

	if len(seen) > 0 {
		if err := s.candidates.AckPruneCandidates(ctx, seen); err != nil {
			s.logger.Warn(ctx, "prune candidates not acknowledged", "error", err.Error())
		}
	}

	s.logger.Info(ctx, "retention sweep complete", "marked", n, "signalled_fids", len(seen))
	return n, nil
}
