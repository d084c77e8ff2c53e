package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/dmitrijs2005/whistles/internal/logging"
	"github.com/dmitrijs2005/whistles/internal/server/models"
)

// Key layout:
//
//	channels/<id>            -> parent url of an opted-in channel
//	opted-out-channels/<id>  -> "true"
//	channel/<id>             -> cached channel metadata
//	members/<id>             -> cached member list
//	prune/<fid>              -> time the fid was last flagged for pruning
const (
	prefixEnabled  = "channels/"
	prefixOptedOut = "opted-out-channels/"
	prefixChannel  = "channel/"
	prefixMembers  = "members/"
	prefixPrune    = "prune/"
)

type cached[T any] struct {
	Value     T         `json:"value"`
	FetchedAt time.Time `json:"fetchedAt"`
}

// BadgerStore keeps channel registry state in an embedded badger database.
type BadgerStore struct {
	db *badger.DB
}

// badgerLogger routes badger's own logging through logging.Logger.
type badgerLogger struct {
	l logging.Logger
}

func (b badgerLogger) Errorf(f string, args ...interface{}) {
	b.l.Error(context.Background(), strings.TrimSpace(fmt.Sprintf(f, args...)))
}

func (b badgerLogger) Warningf(f string, args ...interface{}) {
	b.l.Warn(context.Background(), strings.TrimSpace(fmt.Sprintf(f, args...)))
}

func (b badgerLogger) Infof(f string, args ...interface{}) {
	b.l.Debug(context.Background(), strings.TrimSpace(fmt.Sprintf(f, args...)))
}

func (b badgerLogger) Debugf(f string, args ...interface{}) {
	b.l.Debug(context.Background(), strings.TrimSpace(fmt.Sprintf(f, args...)))
}

// OpenBadgerStore opens (or creates) the store at path. An empty path keeps
// everything in memory.
func OpenBadgerStore(path string, l logging.Logger) (*BadgerStore, error) {
	opts := badger.DefaultOptions(path)
	if path == "" {
		opts = opts.WithInMemory(true)
	}
	opts = opts.WithLogger(badgerLogger{l: l.With("module", "badger")})

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open registry store: %w", err)
	}
	return &BadgerStore{db: db}, nil
}

func (s *BadgerStore) Close() error {
	return s.db.Close()
}

func (s *BadgerStore) get(key string, v any) (bool, error) {
	var raw []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		raw, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if v == nil {
		return true, nil
	}
	return true, json.Unmarshal(raw, v)
}

func (s *BadgerStore) put(key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), raw)
	})
}

// scan calls fn for every key under prefix with the prefix stripped.
func (s *BadgerStore) scan(prefix string, fn func(id string, raw []byte) error) error {
	p := []byte(prefix)
	return s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(p); it.ValidForPrefix(p); it.Next() {
			item := it.Item()
			raw, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			if err := fn(strings.TrimPrefix(string(item.Key()), prefix), raw); err != nil {
				return err
			}
		}
		return nil
	})
}

// EnableChannel opts a channel in and clears any opt-out in one transaction.
func (s *BadgerStore) EnableChannel(channelID, parentURL string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set([]byte(prefixEnabled+channelID), []byte(parentURL)); err != nil {
			return err
		}
		return txn.Delete([]byte(prefixOptedOut + channelID))
	})
}

// DisableChannel removes the opt-in and records an explicit opt-out.
func (s *BadgerStore) DisableChannel(channelID string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Delete([]byte(prefixEnabled + channelID)); err != nil {
			return err
		}
		return txn.Set([]byte(prefixOptedOut+channelID), []byte("true"))
	})
}

func (s *BadgerStore) EnabledChannels() ([]models.EnabledChannel, error) {
	var out []models.EnabledChannel
	err := s.scan(prefixEnabled, func(id string, raw []byte) error {
		out = append(out, models.EnabledChannel{ChannelID: id, ParentURL: string(raw)})
		return nil
	})
	return out, err
}

func (s *BadgerStore) IsEnabled(channelID string) (bool, error) {
	return s.get(prefixEnabled+channelID, nil)
}

func (s *BadgerStore) IsOptedOut(channelID string) (bool, error) {
	return s.get(prefixOptedOut+channelID, nil)
}

func (s *BadgerStore) CachedChannel(channelID string) (*models.Channel, time.Time, bool, error) {
	var c cached[models.Channel]
	ok, err := s.get(prefixChannel+channelID, &c)
	if err != nil || !ok {
		return nil, time.Time{}, ok, err
	}
	return &c.Value, c.FetchedAt, true, nil
}

func (s *BadgerStore) PutChannel(ch *models.Channel, at time.Time) error {
	return s.put(prefixChannel+ch.ID, cached[models.Channel]{Value: *ch, FetchedAt: at})
}

func (s *BadgerStore) CachedMembers(channelID string) ([]models.ChannelMember, time.Time, bool, error) {
	var c cached[[]models.ChannelMember]
	ok, err := s.get(prefixMembers+channelID, &c)
	if err != nil || !ok {
		return nil, time.Time{}, ok, err
	}
	return c.Value, c.FetchedAt, true, nil
}

func (s *BadgerStore) PutMembers(channelID string, members []models.ChannelMember, at time.Time) error {
	return s.put(prefixMembers+channelID, cached[[]models.ChannelMember]{Value: members, FetchedAt: at})
}

func (s *BadgerStore) AddPruneCandidate(fid int64, at time.Time) error {
	return s.put(prefixPrune+strconv.FormatInt(fid, 10), at)
}

func (s *BadgerStore) PruneCandidates() (map[int64]time.Time, error) {
	out := make(map[int64]time.Time)
	err := s.scan(prefixPrune, func(id string, raw []byte) error {
		fid, err := strconv.ParseInt(id, 10, 64)
		if err != nil {
			return nil
		}
		var at time.Time
		if err := json.Unmarshal(raw, &at); err != nil {
			return err
		}
		out[fid] = at
		return nil
	})
	return out, err
}

// AckPruneCandidates removes the flagged fids in seen, in one transaction.
// A fid flagged again after the time recorded in seen is kept.
func (s *BadgerStore) AckPruneCandidates(seen map[int64]time.Time) (int, error) {
	removed := 0
	err := s.db.Update(func(txn *badger.Txn) error {
		for fid, at := range seen {
			key := []byte(prefixPrune + strconv.FormatInt(fid, 10))
			item, err := txn.Get(key)
			if errors.Is(err, badger.ErrKeyNotFound) {
				continue
			}
			if err != nil {
				return err
			}
			raw, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			var stored time.Time
			if err := json.Unmarshal(raw, &stored); err != nil {
				return err
			}
			if stored.After(at) {
				continue
			}
			if err := txn.Delete(key); err != nil {
				return err
			}
			removed++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return removed, nil
}
