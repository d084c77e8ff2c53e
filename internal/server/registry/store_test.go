package registry

import (
	"testing"
	"time"

	"github.com/dmitrijs2005/whistles/internal/logging"
	"github.com/dmitrijs2005/whistles/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMemStore(t *testing.T) *BadgerStore {
	t.Helper()
	s, err := OpenBadgerStore("", logging.Nop{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestBadgerStore_EnableDisable(t *testing.T) {
	s := newMemStore(t)

	require.NoError(t, s.DisableChannel("memes"))
	out, err := s.IsOptedOut("memes")
	require.NoError(t, err)
	assert.True(t, out)

	require.NoError(t, s.EnableChannel("memes", "chain://memes"))
	out, err = s.IsOptedOut("memes")
	require.NoError(t, err)
	assert.False(t, out, "enabling clears the opt-out")

	in, err := s.IsEnabled("memes")
	require.NoError(t, err)
	assert.True(t, in)

	require.NoError(t, s.EnableChannel("dev", "chain://dev"))
	channels, err := s.EnabledChannels()
	require.NoError(t, err)
	assert.ElementsMatch(t, []models.EnabledChannel{
		{ChannelID: "memes", ParentURL: "chain://memes"},
		{ChannelID: "dev", ParentURL: "chain://dev"},
	}, channels)

	require.NoError(t, s.DisableChannel("memes"))
	in, err = s.IsEnabled("memes")
	require.NoError(t, err)
	assert.False(t, in)
}

func TestBadgerStore_CachedChannelAndMembers(t *testing.T) {
	s := newMemStore(t)
	at := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	_, _, ok, err := s.CachedChannel("memes")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.PutChannel(&models.Channel{ID: "memes", PublicCasting: true}, at))
	ch, fetchedAt, ok, err := s.CachedChannel("memes")
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, ch.PublicCasting)
	assert.True(t, at.Equal(fetchedAt))

	members := []models.ChannelMember{{Fid: 1, MemberSince: at}}
	require.NoError(t, s.PutMembers("memes", members, at))
	got, _, ok, err := s.CachedMembers("memes")
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, got, 1)
	assert.Equal(t, int64(1), got[0].Fid)
	assert.True(t, at.Equal(got[0].MemberSince))
}

func TestBadgerStore_PruneCandidates(t *testing.T) {
	s := newMemStore(t)
	at := time.Unix(1700000000, 0).UTC()

	require.NoError(t, s.AddPruneCandidate(42, at))
	require.NoError(t, s.AddPruneCandidate(7, at))

	c, err := s.PruneCandidates()
	require.NoError(t, err)
	assert.Len(t, c, 2)
	assert.True(t, at.Equal(c[42]))

	n, err := s.AckPruneCandidates(c)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	c, err = s.PruneCandidates()
	require.NoError(t, err)
	assert.Empty(t, c)
}

func TestBadgerStore_AckKeepsReflaggedCandidates(t *testing.T) {
	s := newMemStore(t)
	at := time.Unix(1700000000, 0).UTC()

	require.NoError(t, s.AddPruneCandidate(42, at))
	require.NoError(t, s.AddPruneCandidate(7, at))

	seen, err := s.PruneCandidates()
	require.NoError(t, err)

	// 42 is flagged again while a sweep is running.
	require.NoError(t, s.AddPruneCandidate(42, at.Add(time.Minute)))

	n, err := s.AckPruneCandidates(seen)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	left, err := s.PruneCandidates()
	require.NoError(t, err)
	require.Len(t, left, 1)
	assert.True(t, at.Add(time.Minute).Equal(left[42]))

	n, err = s.AckPruneCandidates(map[int64]time.Time{99: at})
	require.NoError(t, err)
	assert.Zero(t, n)
}
