// Package registry tracks which channels opted in to or out of gated
// decryption, and caches channel metadata and membership fetched upstream.
//
// Cached reads follow stale-while-revalidate: a miss is fetched
// synchronously, a hit is served immediately and, once older than the
// refresh interval, refreshed in the background. Concurrent refreshes of
// the same key collapse into one upstream call.
package registry

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/whistles/internal/common"
	"github.com/dmitrijs2005/whistles/internal/logging"
	"github.com/dmitrijs2005/whistles/internal/server/models"
	"golang.org/x/sync/singleflight"
)

// Upstream is the source of truth for channel metadata and membership.
type Upstream interface {
	Channel(ctx context.Context, channelID string) (*models.Channel, error)
	Members(ctx context.Context, channelID string, limit int) ([]models.ChannelMember, error)
}

type Config struct {
	RefreshInterval time.Duration
	UpstreamTimeout time.Duration
	MaxMembers      int
}

type Registry struct {
	store    *BadgerStore
	upstream Upstream
	cfg      Config
	logger   logging.Logger

	group singleflight.Group
	wg    sync.WaitGroup
	now   func() time.Time
}

func New(store *BadgerStore, upstream Upstream, cfg Config, l logging.Logger) *Registry {
	return &Registry{
		store:    store,
		upstream: upstream,
		cfg:      cfg,
		logger:   l.With("module", "registry"),
		now:      time.Now,
	}
}

func storeError(err error) error {
	return fmt.Errorf("registry store: %w: %w", common.ErrUpstreamUnavailable, err)
}

// Wait blocks until background refreshes and prune signals have finished.
func (r *Registry) Wait() {
	r.wg.Wait()
}

func (r *Registry) stale(fetchedAt time.Time) bool {
	return r.now().Sub(fetchedAt) > r.cfg.RefreshInterval
}

func (r *Registry) background(name string, fn func(ctx context.Context) error) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), r.cfg.UpstreamTimeout)
		defer cancel()
		if err := fn(ctx); err != nil {
			r.logger.Warn(ctx, "background task failed", "task", name, "error", err.Error())
		}
	}()
}

func (r *Registry) fetchChannel(ctx context.Context, channelID string) (*models.Channel, error) {
	v, err, _ := r.group.Do("channel:"+channelID, func() (any, error) {
		ch, err := r.upstream.Channel(ctx, channelID)
		if errors.Is(err, common.ErrNotFound) {
			ch, err = &models.Channel{ID: channelID}, nil
		}
		if err != nil {
			return nil, err
		}
		if err := r.store.PutChannel(ch, r.now()); err != nil {
			return nil, storeError(err)
		}
		return ch, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*models.Channel), nil
}

func (r *Registry) fetchMembers(ctx context.Context, channelID string) ([]models.ChannelMember, error) {
	v, err, _ := r.group.Do("members:"+channelID, func() (any, error) {
		members, err := r.upstream.Members(ctx, channelID, r.cfg.MaxMembers)
		if err != nil {
			return nil, err
		}
		if len(members) > r.cfg.MaxMembers {
			members = members[:r.cfg.MaxMembers]
		}
		if err := r.store.PutMembers(channelID, members, r.now()); err != nil {
			return nil, storeError(err)
		}
		return members, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]models.ChannelMember), nil
}

func (r *Registry) channel(ctx context.Context, channelID string) (*models.Channel, error) {
	ch, fetchedAt, ok, err := r.store.CachedChannel(channelID)
	if err != nil {
		return nil, storeError(err)
	}
	if !ok {
		return r.fetchChannel(ctx, channelID)
	}
	if r.stale(fetchedAt) {
		r.background("refresh channel", func(ctx context.Context) error {
			_, err := r.fetchChannel(ctx, channelID)
			return err
		})
	}
	return ch, nil
}

// IsChannelPublic reports the channel's publicCasting flag.
func (r *Registry) IsChannelPublic(ctx context.Context, channelID string) (bool, error) {
	ch, err := r.channel(ctx, channelID)
	if err != nil {
		return false, err
	}
	return ch.PublicCasting, nil
}

func (r *Registry) IsOptedOut(_ context.Context, channelID string) (bool, error) {
	ok, err := r.store.IsOptedOut(channelID)
	if err != nil {
		return false, storeError(err)
	}
	return ok, nil
}

func (r *Registry) IsOptedIn(_ context.Context, channelID string) (bool, error) {
	ok, err := r.store.IsEnabled(channelID)
	if err != nil {
		return false, storeError(err)
	}
	return ok, nil
}

// GetMembers returns up to MaxMembers members of the channel, possibly stale.
func (r *Registry) GetMembers(ctx context.Context, channelID string) ([]models.ChannelMember, error) {
	members, fetchedAt, ok, err := r.store.CachedMembers(channelID)
	if err != nil {
		return nil, storeError(err)
	}
	if !ok {
		return r.fetchMembers(ctx, channelID)
	}
	if r.stale(fetchedAt) {
		r.background("refresh members", func(ctx context.Context) error {
			_, err := r.fetchMembers(ctx, channelID)
			return err
		})
	}
	return members, nil
}

// MarkForPruning flags fid for the next retention sweep without blocking
// the caller.
func (r *Registry) MarkForPruning(fid int64) {
	at := r.now()
	r.background("mark for pruning", func(ctx context.Context) error {
		return r.store.AddPruneCandidate(fid, at)
	})
}

// PruneCandidates returns the flagged fids and when each was last flagged.
// They stay flagged until acknowledged.
func (r *Registry) PruneCandidates(_ context.Context) (map[int64]time.Time, error) {
	c, err := r.store.PruneCandidates()
	if err != nil {
		return nil, storeError(err)
	}
	return c, nil
}

// AckPruneCandidates clears fids a completed sweep has covered. Fids flagged
// again since seen was read stay flagged for the next sweep.
func (r *Registry) AckPruneCandidates(ctx context.Context, seen map[int64]time.Time) error {
	if len(seen) == 0 {
		return nil
	}
	n, err := r.store.AckPruneCandidates(seen)
	if err != nil {
		return storeError(err)
	}
	r.logger.Debug(ctx, "prune candidates acknowledged", "count", n)
	return nil
}

func (r *Registry) EnableChannel(ctx context.Context, channelID, parentURL string) error {
	if channelID == "" {
		return fmt.Errorf("%w: channel id is required", common.ErrValidation)
	}
	if err := r.store.EnableChannel(channelID, parentURL); err != nil {
		return storeError(err)
	}
	r.logger.Info(ctx, "channel enabled", "channel_id", channelID)
	return nil
}

func (r *Registry) DisableChannel(ctx context.Context, channelID string) error {
	if channelID == "" {
		return fmt.Errorf("%w: channel id is required", common.ErrValidation)
	}
	if err := r.store.DisableChannel(channelID); err != nil {
		return storeError(err)
	}
	r.logger.Info(ctx, "channel disabled", "channel_id", channelID)
	return nil
}

func (r *Registry) ListEnabledChannels(_ context.Context) ([]models.EnabledChannel, error) {
	c, err := r.store.EnabledChannels()
	if err != nil {
		return nil, storeError(err)
	}
	return c, nil
}
