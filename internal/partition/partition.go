// Package partition derives the deterministic partition identifier for a
// (secret, salt, shift) triple and the retention boundary used when pruning.
package partition

import (
	"math/big"
	"strconv"
	"time"

	"github.com/dmitrijs2005/whistles/internal/cryptox"
)

const (
	// EpochOffset is the Farcaster epoch (2021-01-01T00:00:00Z) in Unix
	// seconds. Message timestamps count seconds from this instant.
	EpochOffset int64 = 1609459200

	// partitionSalt is fixed so the id depends on the triple alone.
	partitionSalt = "unsalted"

	secondsPerDay = 86400
)

// Key groups the three values that select a partition. They always travel
// together; mixing a secret from one key with a shift from another yields
// rows nobody can find again.
type Key struct {
	Secret string
	Salt   string
	Shift  int64
}

// Override carries per-call replacements. A nil field, or an empty secret
// or salt, falls back to the default; an explicit shift of 0 is kept.
type Override struct {
	Secret *string
	Salt   *string
	Shift  *int64
}

// Resolve merges an override onto the process defaults.
func Resolve(o *Override, defaults Key) Key {
	k := defaults
	if o == nil {
		return k
	}
	if o.Secret != nil && *o.Secret != "" {
		k.Secret = *o.Secret
	}
	if o.Salt != nil && *o.Salt != "" {
		k.Salt = *o.Salt
	}
	if o.Shift != nil {
		k.Shift = *o.Shift
	}
	return k
}

// DeriveID returns hash(secret:salt:shift) under the fixed partition salt.
func DeriveID(k Key) string {
	return cryptox.Hash(k.Secret+":"+k.Salt+":"+strconv.FormatInt(k.Shift, 10), partitionSalt)
}

// ID is a convenience for DeriveID.
func (k Key) ID() string {
	return DeriveID(k)
}

// PruneBoundary returns the shifted timestamp below which rows are past
// retention: now - EpochOffset - shift - days*86400.
func PruneBoundary(now time.Time, shift int64, pruneIntervalDays int) *big.Int {
	b := big.NewInt(now.Unix())
	b.Sub(b, big.NewInt(EpochOffset))
	b.Sub(b, big.NewInt(shift))
	b.Sub(b, new(big.Int).Mul(big.NewInt(int64(pruneIntervalDays)), big.NewInt(secondsPerDay)))
	return b
}

// ToUnix converts a domain-epoch timestamp to Unix seconds.
func ToUnix(ts int64) int64 {
	return ts + EpochOffset
}

// FromTime converts t to a domain-epoch timestamp.
func FromTime(t time.Time) int64 {
	return t.Unix() - EpochOffset
}
