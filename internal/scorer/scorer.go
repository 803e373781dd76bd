// Package scorer asks the classifier core for the vandalism score of a
// dumped edit over its one-shot TCP protocol.
package scorer

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/sevigo/cbng-reviewer/internal/config"
	"github.com/sevigo/cbng-reviewer/internal/editset"
)

// Client scores edits. Each request opens a new connection, writes one
// WPEditSet and reads until the core closes the connection.
type Client struct {
	addr    string
	timeout time.Duration
	logger  *slog.Logger
}

// NewClient creates a scoring client.
func NewClient(cfg config.ScorerConfig, logger *slog.Logger) *Client {
	return &Client{
		addr:    net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		timeout: cfg.Timeout,
		logger:  logger.With("component", "scorer"),
	}
}

type response struct {
	Edits []struct {
		Score *string `xml:"score"`
	} `xml:"WPEdit"`
}

// Score returns the score for a dumped WPEdit. Any connection or parse
// failure is logged and reported as no score.
func (c *Client) Score(ctx context.Context, editID int64, wpEdit string) (float64, bool) {
	log := c.logger.With("edit_id", editID)

	raw, err := c.exchange(ctx, editset.ScoringDocument(wpEdit))
	if err != nil {
		log.Error("failed to query scoring core", "addr", c.addr, "error", err)
		return 0, false
	}
	log.Debug("scoring core returned", "response", raw)

	score, err := parseScore(raw)
	if err != nil {
		log.Error("scoring core response could not be parsed", "error", err)
		return 0, false
	}
	return score, true
}

func (c *Client) exchange(ctx context.Context, request string) (string, error) {
	dialer := net.Dialer{Timeout: c.timeout}
	conn, err := dialer.DialContext(ctx, "tcp", c.addr)
	if err != nil {
		return "", err
	}
	defer conn.Close()

	if c.timeout > 0 {
		if err := conn.SetDeadline(time.Now().Add(c.timeout)); err != nil {
			return "", err
		}
	}
	if _, err := io.WriteString(conn, request); err != nil {
		return "", fmt.Errorf("failed to send edit: %w", err)
	}

	body, err := io.ReadAll(conn)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}
	return string(body), nil
}

func parseScore(raw string) (float64, error) {
	var resp response
	if err := xml.Unmarshal([]byte(raw), &resp); err != nil {
		return 0, err
	}
	if len(resp.Edits) == 0 || resp.Edits[0].Score == nil {
		return 0, fmt.Errorf("no score in response")
	}
	return strconv.ParseFloat(strings.TrimSpace(*resp.Edits[0].Score), 64)
}
