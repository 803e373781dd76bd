// Package wikipedia reads pages, revisions and users from the wiki, through
// the MediaWiki API and a read-only database replica.
package wikipedia

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/sevigo/cbng-reviewer/internal/config"
	"github.com/sevigo/cbng-reviewer/internal/core"
)

// ErrBadRevision is returned when the API does not know a revision id.
var ErrBadRevision = errors.New("bad revision id")

// Client talks to the MediaWiki action API. Requests are rate limited and
// carry the configured user agent.
type Client struct {
	httpClient *http.Client
	apiURL     string
	centralURL string
	userAgent  string
	limiter    *rate.Limiter
	logger     *slog.Logger
}

// NewClient creates a MediaWiki API client.
func NewClient(cfg config.WikipediaConfig, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		apiURL:     cfg.APIURL,
		centralURL: cfg.CentralAuthAPIURL,
		userAgent:  cfg.UserAgent,
		limiter:    rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst),
		logger:     logger.With("component", "wikipedia-api"),
	}
}

func (c *Client) query(ctx context.Context, endpoint string, params url.Values, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	params.Set("format", "json")
	params.Set("action", "query")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status code %d from %s", resp.StatusCode, endpoint)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

type apiRevision struct {
	RevID      int64                      `json:"revid"`
	User       string                     `json:"user"`
	Timestamp  string                     `json:"timestamp"`
	Comment    string                     `json:"comment"`
	Minor      *string                    `json:"minor"`
	TextHidden *string                    `json:"texthidden"`
	UserHidden *string                    `json:"userhidden"`
	Slots      map[string]json.RawMessage `json:"slots"`
}

type apiPage struct {
	Title     string        `json:"title"`
	Namespace int           `json:"ns"`
	Missing   *string       `json:"missing"`
	Revisions []apiRevision `json:"revisions"`
}

type revisionsResponse struct {
	Query struct {
		BadRevIDs map[string]struct {
			RevID int64 `json:"revid"`
		} `json:"badrevids"`
		Pages map[string]apiPage `json:"pages"`
	} `json:"query"`
}

// firstPage returns an arbitrary page of a single page response.
func (r *revisionsResponse) firstPage() (apiPage, bool) {
	for _, p := range r.Query.Pages {
		return p, true
	}
	return apiPage{}, false
}

func (r *revisionsResponse) isBad(revisionID int64) bool {
	for _, bad := range r.Query.BadRevIDs {
		if bad.RevID == revisionID {
			return true
		}
	}
	return false
}

// EditMetadata resolves the page a revision belongs to.
func (c *Client) EditMetadata(ctx context.Context, revisionID int64) (*core.PageMetadata, error) {
	params := url.Values{}
	params.Set("rawcontinue", "1")
	params.Set("prop", "revisions")
	params.Set("rvslots", "*")
	params.Set("revids", strconv.FormatInt(revisionID, 10))
	params.Set("rvprop", "timestamp")

	var resp revisionsResponse
	if err := c.query(ctx, c.apiURL, params, &resp); err != nil {
		return nil, fmt.Errorf("failed to fetch metadata for revision %d: %w", revisionID, err)
	}
	if len(resp.Query.BadRevIDs) > 0 {
		return nil, fmt.Errorf("revision %d: %w", revisionID, ErrBadRevision)
	}
	page, ok := resp.firstPage()
	if !ok || page.Missing != nil {
		return nil, fmt.Errorf("no page for revision %d: %w", revisionID, core.ErrNotFound)
	}
	return &core.PageMetadata{Title: page.Title, Namespace: page.Namespace}, nil
}

// PageRevisions returns the revision revisionID and the one before it.
// Revisions with hidden text or user are skipped, so previous may be a
// revision further back or nil.
func (c *Client) PageRevisions(ctx context.Context, title string, revisionID int64) (*core.Revision, *core.Revision, error) {
	params := url.Values{}
	params.Set("prop", "revisions")
	params.Set("titles", title)
	params.Set("rvstartid", strconv.FormatInt(revisionID, 10))
	params.Set("rvlimit", "2")
	params.Set("rvslots", "*")
	params.Set("rvprop", "user|content|flags|timestamp|comment")

	var resp revisionsResponse
	if err := c.query(ctx, c.apiURL, params, &resp); err != nil {
		return nil, nil, fmt.Errorf("failed to fetch revisions for %q: %w", title, err)
	}
	page, ok := resp.firstPage()
	if !ok {
		return nil, nil, fmt.Errorf("no page %q: %w", title, core.ErrNotFound)
	}

	var usable []apiRevision
	for _, r := range page.Revisions {
		if r.TextHidden != nil || r.UserHidden != nil {
			continue
		}
		usable = append(usable, r)
	}
	if len(usable) == 0 {
		return nil, nil, fmt.Errorf("no usable revisions for %d: %w", revisionID, core.ErrNotFound)
	}

	current, err := toRevision(usable[0])
	if err != nil {
		return nil, nil, fmt.Errorf("revision %d: %w", usable[0].RevID, err)
	}
	if current.Text == nil {
		return nil, nil, fmt.Errorf("revision %d has no content: %w", usable[0].RevID, core.ErrNotFound)
	}

	var previous *core.Revision
	if len(usable) > 1 {
		p, err := toRevision(usable[1])
		if err != nil {
			c.logger.Warn("ignoring unreadable previous revision", "edit_id", revisionID, "error", err)
		} else if p.Text != nil {
			previous = p
		}
	}
	return current, previous, nil
}

type slotContent struct {
	Content *string `json:"*"`
}

func toRevision(r apiRevision) (*core.Revision, error) {
	ts, err := time.Parse(time.RFC3339, r.Timestamp)
	if err != nil {
		return nil, fmt.Errorf("invalid timestamp %q: %w", r.Timestamp, err)
	}

	rev := &core.Revision{
		IsMinor:   r.Minor != nil,
		Timestamp: core.Int64Ptr(ts.Unix()),
		User:      r.User,
		Comment:   r.Comment,
	}
	for _, raw := range r.Slots {
		var slot slotContent
		if err := json.Unmarshal(raw, &slot); err != nil {
			return nil, fmt.Errorf("invalid slot: %w", err)
		}
		rev.Text = slot.Content
		break
	}
	return rev, nil
}

// RevisionDeleted reports whether the API no longer knows the revision.
func (c *Client) RevisionDeleted(ctx context.Context, revisionID int64) (bool, error) {
	params := url.Values{}
	params.Set("revids", strconv.FormatInt(revisionID, 10))

	var resp revisionsResponse
	if err := c.query(ctx, c.apiURL, params, &resp); err != nil {
		return false, fmt.Errorf("failed to check revision %d: %w", revisionID, err)
	}
	return resp.isBad(revisionID), nil
}

// LocalUser returns the rights and groups of an account on the local wiki.
func (c *Client) LocalUser(ctx context.Context, username string) (*core.LocalUser, error) {
	params := url.Values{}
	params.Set("list", "users")
	params.Set("usprop", "rights|groups")
	params.Set("ususers", username)

	var resp struct {
		Query struct {
			Users []struct {
				Name    string   `json:"name"`
				Missing *string  `json:"missing"`
				Rights  []string `json:"rights"`
				Groups  []string `json:"groups"`
			} `json:"users"`
		} `json:"query"`
	}
	if err := c.query(ctx, c.apiURL, params, &resp); err != nil {
		return nil, fmt.Errorf("failed to fetch local user %q: %w", username, err)
	}
	if len(resp.Query.Users) == 0 || resp.Query.Users[0].Missing != nil {
		return nil, fmt.Errorf("local user %q: %w", username, core.ErrNotFound)
	}
	u := resp.Query.Users[0]
	return &core.LocalUser{Username: u.Name, Rights: u.Rights, Groups: u.Groups}, nil
}

// CentralUser returns the global account, asking the wiki that owns central auth.
func (c *Client) CentralUser(ctx context.Context, username string) (*core.CentralUser, error) {
	params := url.Values{}
	params.Set("meta", "globaluserinfo")
	params.Set("guiuser", username)

	var resp struct {
		Query struct {
			GlobalUserInfo *struct {
				ID      int64   `json:"id"`
				Name    string  `json:"name"`
				Missing *string `json:"missing"`
			} `json:"globaluserinfo"`
		} `json:"query"`
	}
	if err := c.query(ctx, c.centralURL, params, &resp); err != nil {
		return nil, fmt.Errorf("failed to fetch central user %q: %w", username, err)
	}
	info := resp.Query.GlobalUserInfo
	if info == nil || info.Missing != nil {
		return nil, fmt.Errorf("central user %q: %w", username, core.ErrNotFound)
	}
	return &core.CentralUser{ID: info.ID, Username: info.Name}, nil
}
