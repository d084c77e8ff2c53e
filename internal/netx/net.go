// Package netx wraps the JSON-over-HTTP calls made to upstream APIs.
package netx

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/dmitrijs2005/whistles/internal/common"
)

// maxErrorBody bounds how much of a failed response is quoted in errors.
const maxErrorBody = 512

// GetJSON issues a GET to url and decodes a 200 response into v.
//
// A 404 is reported as common.ErrNotFound; transport failures, other
// statuses and undecodable bodies wrap common.ErrUpstreamUnavailable.
func GetJSON(ctx context.Context, client *http.Client, url string, headers map[string]string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	for k, val := range headers {
		req.Header.Set(k, val)
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", common.ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%s: %w", url, common.ErrNotFound)
	case resp.StatusCode != http.StatusOK:
		b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return fmt.Errorf("%w: request failed: %s; body: %s", common.ErrUpstreamUnavailable, resp.Status, string(b))
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: decode response: %w", common.ErrUpstreamUnavailable, err)
	}
	return nil
}
