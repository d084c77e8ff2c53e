// Package hub fetches casts from a Farcaster hub API.
package hub

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dmitrijs2005/whistles/internal/common"
	"github.com/dmitrijs2005/whistles/internal/netx"
	"github.com/dmitrijs2005/whistles/internal/server/models"
)

// Client looks casts up by hash through the Neynar v2 API.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    &http.Client{Timeout: timeout},
	}
}

type castResponse struct {
	Cast struct {
		Hash      string `json:"hash"`
		Timestamp string `json:"timestamp"`
		Text      string `json:"text"`
		ParentURL string `json:"parent_url"`
		Author    struct {
			Fid int64 `json:"fid"`
		} `json:"author"`
		Channel *struct {
			ID string `json:"id"`
		} `json:"channel"`
	} `json:"cast"`
}

// CastByHash returns the cast with the given hash.
func (c *Client) CastByHash(ctx context.Context, hash string) (*models.Cast, error) {
	u := c.baseURL + "/cast?" + url.Values{"identifier": {hash}, "type": {"hash"}}.Encode()

	var resp castResponse
	if err := netx.GetJSON(ctx, c.http, u, map[string]string{common.APIKeyHeaderName: c.apiKey}, &resp); err != nil {
		return nil, err
	}
	if resp.Cast.Hash == "" {
		return nil, fmt.Errorf("cast %s: %w", hash, common.ErrNotFound)
	}

	ts, err := time.Parse(time.RFC3339, resp.Cast.Timestamp)
	if err != nil {
		return nil, fmt.Errorf("%w: cast timestamp %q: %w", common.ErrUpstreamUnavailable, resp.Cast.Timestamp, err)
	}

	cast := &models.Cast{
		Hash:      resp.Cast.Hash,
		AuthorFid: resp.Cast.Author.Fid,
		Text:      resp.Cast.Text,
		Timestamp: ts,
		ParentURL: resp.Cast.ParentURL,
	}
	if resp.Cast.Channel != nil {
		cast.ChannelID = resp.Cast.Channel.ID
	}
	return cast, nil
}
