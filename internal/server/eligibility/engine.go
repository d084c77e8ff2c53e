// Package eligibility decides whether a viewer may see the decrypted content
// behind a cast.
//
// The policy is an ordered list of rules. Each rule either settles the
// question (Allow or Deny) or passes it on (Continue); the first settled
// verdict wins. The engine holds no per-request state.
package eligibility

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/whistles/internal/common"
	"github.com/dmitrijs2005/whistles/internal/logging"
	"github.com/dmitrijs2005/whistles/internal/server/metrics"
	"github.com/dmitrijs2005/whistles/internal/server/models"
)

type Verdict int

const (
	Continue Verdict = iota
	Allow
	Deny
)

func (v Verdict) String() string {
	switch v {
	case Allow:
		return "allow"
	case Deny:
		return "deny"
	default:
		return "continue"
	}
}

type Decision struct {
	Verdict Verdict
	Rule    string
	Reason  string
}

func cont() (Decision, error) { return Decision{Verdict: Continue}, nil }

// ChannelRegistry is the channel state the rules consult. MarkForPruning
// must not block.
type ChannelRegistry interface {
	IsChannelPublic(ctx context.Context, channelID string) (bool, error)
	IsOptedOut(ctx context.Context, channelID string) (bool, error)
	IsOptedIn(ctx context.Context, channelID string) (bool, error)
	GetMembers(ctx context.Context, channelID string) ([]models.ChannelMember, error)
	MarkForPruning(fid int64)
}

// Input is what every rule sees. Now is fixed once per evaluation.
type Input struct {
	Cast      *models.Cast
	ViewerFid int64
	Now       time.Time
}

type Rule struct {
	Name string
	Eval func(ctx context.Context, in Input) (Decision, error)
}

// PruneSignalScope selects which aged-out casts emit a prune signal.
type PruneSignalScope string

const (
	PruneSignalAlways  PruneSignalScope = "always"
	PruneSignalChannel PruneSignalScope = "channel"
)

type Config struct {
	PruneInterval       time.Duration
	LookbackWindow      time.Duration
	RequireChannelOptIn bool
	PruneSignalScope    PruneSignalScope
}

type Engine struct {
	registry ChannelRegistry
	cfg      Config
	rules    []Rule
	logger   logging.Logger
	now      func() time.Time
}

func New(reg ChannelRegistry, cfg Config, l logging.Logger) *Engine {
	e := &Engine{
		registry: reg,
		cfg:      cfg,
		logger:   l.With("module", "eligibility"),
		now:      time.Now,
	}
	e.rules = []Rule{
		{Name: "age_gate", Eval: e.ageGate},
		{Name: "no_channel", Eval: noChannel},
		{Name: "public_casting", Eval: e.publicCasting},
		{Name: "opted_out", Eval: e.optedOut},
		{Name: "opt_in", Eval: e.optIn},
		{Name: "membership", Eval: e.membership},
	}
	return e
}

// Rules returns the evaluation order.
func (e *Engine) Rules() []Rule {
	return e.rules
}

func upstream(err error) error {
	if errors.Is(err, common.ErrUpstreamUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %w", common.ErrUpstreamUnavailable, err)
}

// Evaluate runs the rules and returns the deciding one.
func (e *Engine) Evaluate(ctx context.Context, cast *models.Cast, viewerFid int64) (Decision, error) {
	if cast == nil {
		return Decision{}, fmt.Errorf("%w: cast is required", common.ErrValidation)
	}
	in := Input{Cast: cast, ViewerFid: viewerFid, Now: e.now()}

	for _, r := range e.rules {
		d, err := r.Eval(ctx, in)
		if err != nil {
			return Decision{}, fmt.Errorf("rule %s: %w", r.Name, upstream(err))
		}
		if d.Verdict == Continue {
			continue
		}
		d.Rule = r.Name
		metrics.EligibilityDecisionsTotal.WithLabelValues(d.Verdict.String(), r.Name).Inc()
		e.logger.Debug(ctx, "eligibility decided",
			"rule", r.Name, "verdict", d.Verdict.String(), "reason", d.Reason, "channel_id", cast.ChannelID)
		return d, nil
	}

	return Decision{Verdict: Deny, Rule: "default", Reason: "no rule allowed access"}, nil
}

// IsEligible reports whether viewerFid may see the decrypted cast.
func (e *Engine) IsEligible(ctx context.Context, cast *models.Cast, viewerFid int64) (bool, error) {
	d, err := e.Evaluate(ctx, cast, viewerFid)
	if err != nil {
		return false, err
	}
	return d.Verdict == Allow, nil
}
