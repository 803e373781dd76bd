// Package reportiface is a client for the report interface, where false
// positives are reported and vandalism reverts are recorded.
package reportiface

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/sevigo/cbng-reviewer/internal/config"
)

const userAgent = "ClueBot NG Reviewer - Report Interface"

// Client queries the report interface API.
type Client struct {
	httpClient *http.Client
	endpoint   string
}

// NewClient creates a report interface client.
func NewClient(cfg config.ReportInterfaceConfig) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		endpoint:   strings.TrimRight(cfg.BaseURL, "/") + "/api/",
	}
}

func (c *Client) get(ctx context.Context, params url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("report interface returned status %d for %s", resp.StatusCode, params.Get("action"))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", params.Get("action"), err)
	}
	return nil
}

// EditIDsRequiringReview returns the reported edits waiting for review,
// optionally including the ones already in progress.
func (c *Client) EditIDsRequiringReview(ctx context.Context, includeInProgress bool) ([]int64, error) {
	params := url.Values{}
	params.Set("action", "review.export")
	if includeInProgress {
		params.Set("include_in_progress", "true")
	}

	var ids []int64
	if err := c.get(ctx, params, &ids); err != nil {
		return nil, err
	}

	seen := make(map[int64]bool, len(ids))
	unique := ids[:0]
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			unique = append(unique, id)
		}
	}
	return unique, nil
}

// RevertID returns the id of the revision that reverted the edit. The
// boolean is false when the edit was never reverted.
func (c *Client) RevertID(ctx context.Context, editID int64) (int64, bool, error) {
	params := url.Values{}
	params.Set("action", "edit.revert_id")
	params.Set("edit_id", strconv.FormatInt(editID, 10))

	var resp struct {
		RevertID *int64 `json:"revert_id"`
	}
	if err := c.get(ctx, params, &resp); err != nil {
		return 0, false, err
	}
	if resp.RevertID == nil {
		return 0, false, nil
	}
	return *resp.RevertID, true, nil
}

// VandalismScore returns the score the bot gave the edit when it reverted
// it. The boolean is false when no score was recorded.
func (c *Client) VandalismScore(ctx context.Context, editID int64) (float64, bool, error) {
	params := url.Values{}
	params.Set("action", "edit.vandalism_score")
	params.Set("edit_id", strconv.FormatInt(editID, 10))

	var resp struct {
		Score *float64 `json:"score"`
	}
	if err := c.get(ctx, params, &resp); err != nil {
		return 0, false, err
	}
	if resp.Score == nil {
		return 0, false, nil
	}
	return *resp.Score, true, nil
}
