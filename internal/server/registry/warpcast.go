package registry

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/whistles/internal/netx"
	"github.com/dmitrijs2005/whistles/internal/server/models"
)

// WarpcastClient reads channel metadata and membership from the Warpcast API.
type WarpcastClient struct {
	baseURL    string
	membersURL string
	http       *http.Client
}

func NewWarpcastClient(baseURL, membersURL string, timeout time.Duration) *WarpcastClient {
	return &WarpcastClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		membersURL: membersURL,
		http:       &http.Client{Timeout: timeout},
	}
}

type warpcastChannelResponse struct {
	Result struct {
		Channel struct {
			ID            string `json:"id"`
			URL           string `json:"url"`
			Name          string `json:"name"`
			PublicCasting bool   `json:"publicCasting"`
		} `json:"channel"`
	} `json:"result"`
}

type warpcastMembersResponse struct {
	Result struct {
		Members []struct {
			Fid      int64 `json:"fid"`
			MemberAt int64 `json:"memberAt"`
		} `json:"members"`
	} `json:"result"`
}

func (c *WarpcastClient) Channel(ctx context.Context, channelID string) (*models.Channel, error) {
	u := c.baseURL + "/v1/channel?" + url.Values{"channelId": {channelID}}.Encode()

	var resp warpcastChannelResponse
	if err := netx.GetJSON(ctx, c.http, u, nil, &resp); err != nil {
		return nil, err
	}

	ch := resp.Result.Channel
	if ch.ID == "" {
		ch.ID = channelID
	}
	return &models.Channel{ID: ch.ID, URL: ch.URL, Name: ch.Name, PublicCasting: ch.PublicCasting}, nil
}

// Members returns at most limit members; memberAt is Unix seconds.
func (c *WarpcastClient) Members(ctx context.Context, channelID string, limit int) ([]models.ChannelMember, error) {
	q := url.Values{"channelId": {channelID}, "limit": {strconv.Itoa(limit)}}
	sep := "?"
	if strings.Contains(c.membersURL, "?") {
		sep = "&"
	}

	var resp warpcastMembersResponse
	if err := netx.GetJSON(ctx, c.http, c.membersURL+sep+q.Encode(), nil, &resp); err != nil {
		return nil, err
	}

	members := make([]models.ChannelMember, 0, len(resp.Result.Members))
	for _, m := range resp.Result.Members {
		members = append(members, models.ChannelMember{Fid: m.Fid, MemberSince: time.Unix(m.MemberAt, 0).UTC()})
	}
	return members, nil
}
