package hub

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dmitrijs2005/whistles/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCastByHash(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/farcaster/cast", r.URL.Path)
		assert.Equal(t, "0xabc", r.URL.Query().Get("identifier"))
		assert.Equal(t, "hash", r.URL.Query().Get("type"))
		assert.Equal(t, "key", r.Header.Get("x-api-key"))
		_, _ = w.Write([]byte(`{"cast":{"hash":"0xabc","timestamp":"2024-03-01T12:00:00.000Z","text":"hi",
			"parent_url":"chain://memes","author":{"fid":5},"channel":{"id":"memes"}}}`))
	}))
	defer ts.Close()

	c := NewClient(ts.URL+"/v2/farcaster/", "key", time.Second)
	cast, err := c.CastByHash(context.Background(), "0xabc")
	require.NoError(t, err)

	assert.Equal(t, "0xabc", cast.Hash)
	assert.Equal(t, int64(5), cast.AuthorFid)
	assert.Equal(t, "memes", cast.ChannelID)
	assert.Equal(t, "chain://memes", cast.ParentURL)
	assert.True(t, time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC).Equal(cast.Timestamp))
}

func TestCastByHash_NoChannel(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"cast":{"hash":"0x1","timestamp":"2024-03-01T12:00:00Z","text":"t","author":{"fid":1}}}`))
	}))
	defer ts.Close()

	cast, err := NewClient(ts.URL, "k", time.Second).CastByHash(context.Background(), "0x1")
	require.NoError(t, err)
	assert.Empty(t, cast.ChannelID)
}

func TestCastByHash_Errors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
	}{
		{"empty cast", http.StatusOK, `{"cast":{}}`, common.ErrNotFound},
		{"not found", http.StatusNotFound, ``, common.ErrNotFound},
		{"bad timestamp", http.StatusOK, `{"cast":{"hash":"0x1","timestamp":"yesterday"}}`, common.ErrUpstreamUnavailable},
		{"server error", http.StatusInternalServerError, `oops`, common.ErrUpstreamUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer ts.Close()

			_, err := NewClient(ts.URL, "k", time.Second).CastByHash(context.Background(), "0x1")
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}
