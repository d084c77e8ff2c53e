package eligibility

import (
	"context"
)

func (e *Engine) ageGate(_ context.Context, in Input) (Decision, error) {
	if in.Now.Sub(in.Cast.Timestamp) <= e.cfg.PruneInterval {
		return cont()
	}

	if e.cfg.PruneSignalScope != PruneSignalChannel || in.Cast.ChannelID != "" {
		e.registry.MarkForPruning(in.Cast.AuthorFid)
	}
	return Decision{Verdict: Deny, Reason: "cast is older than the prune interval"}, nil
}

// Casts outside any channel are not gated.
func noChannel(_ context.Context, in Input) (Decision, error) {
	if in.Cast.ChannelID == "" {
		return Decision{Verdict: Allow, Reason: "cast is not in a channel"}, nil
	}
	return cont()
}

func (e *Engine) publicCasting(ctx context.Context, in Input) (Decision, error) {
	public, err := e.registry.IsChannelPublic(ctx, in.Cast.ChannelID)
	if err != nil {
		return Decision{}, err
	}
	if public {
		return Decision{Verdict: Allow, Reason: "channel allows public casting"}, nil
	}
	return cont()
}

func (e *Engine) optedOut(ctx context.Context, in Input) (Decision, error) {
	out, err := e.registry.IsOptedOut(ctx, in.Cast.ChannelID)
	if err != nil {
		return Decision{}, err
	}
	if out {
		return Decision{Verdict: Deny, Reason: "channel owner opted out"}, nil
	}
	return cont()
}

func (e *Engine) optIn(ctx context.Context, in Input) (Decision, error) {
	if !e.cfg.RequireChannelOptIn {
		return cont()
	}
	enabled, err := e.registry.IsOptedIn(ctx, in.Cast.ChannelID)
	if err != nil {
		return Decision{}, err
	}
	if !enabled {
		return Decision{Verdict: Deny, Reason: "channel is not enabled"}, nil
	}
	return cont()
}

// membership is terminal. Content older than the lookback cutoff is only
// visible to members who joined before the cutoff.
func (e *Engine) membership(ctx context.Context, in Input) (Decision, error) {
	members, err := e.registry.GetMembers(ctx, in.Cast.ChannelID)
	if err != nil {
		return Decision{}, err
	}

	cutoff := in.Now.Add(-e.cfg.LookbackWindow)
	old := in.Cast.Timestamp.Before(cutoff)

	for _, m := range members {
		if m.Fid != in.ViewerFid {
			continue
		}
		if !old || m.MemberSince.Before(cutoff) {
			return Decision{Verdict: Allow, Reason: "viewer is a channel member"}, nil
		}
	}

	if old {
		return Decision{Verdict: Deny, Reason: "viewer was not a member before the lookback cutoff"}, nil
	}
	return Decision{Verdict: Deny, Reason: "viewer is not a channel member"}, nil
}
