package notify

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"strings"

	"github.com/sevigo/cbng-reviewer/internal/config"
	"github.com/sevigo/cbng-reviewer/internal/core"
)

// IRCRelay sends events to the IRC relay as "{channel}:{text}\n" UDP datagrams.
type IRCRelay struct {
	addr    string
	channel string
	logger  *slog.Logger
}

// NewIRCRelay creates an IRC relay notifier.
func NewIRCRelay(cfg config.IRCRelayConfig, logger *slog.Logger) *IRCRelay {
	return &IRCRelay{
		addr:    net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		channel: cfg.Channel,
		logger:  logger.With("component", "irc-relay"),
	}
}

func (r *IRCRelay) Name() string { return "irc" }

// Notify sends one datagram. Events without a channel or text are skipped.
func (r *IRCRelay) Notify(ctx context.Context, event core.Event) error {
	text := strings.TrimSpace(event.Text())
	if r.channel == "" || text == "" {
		r.logger.Warn("skipping irc message due to missing channel or text", "channel", r.channel, "text", text)
		return nil
	}

	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "udp", r.addr)
	if err != nil {
		return fmt.Errorf("failed to reach irc relay: %w", err)
	}
	defer conn.Close()

	payload := r.channel + ":" + text + "\n"
	r.logger.Debug("sending to irc relay", "payload", payload)
	if _, err := conn.Write([]byte(payload)); err != nil {
		return fmt.Errorf("failed to send to irc relay: %w", err)
	}
	return nil
}
