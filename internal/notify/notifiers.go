package notify

import (
	"log/slog"

	"github.com/sevigo/cbng-reviewer/internal/config"
	"github.com/sevigo/cbng-reviewer/internal/core"
)

// NewNotifiers builds the enabled notifiers. The cleanup function closes
// any connections they hold.
func NewNotifiers(cfg *config.Config, logger *slog.Logger) ([]core.Notifier, func(), error) {
	var (
		notifiers []core.Notifier
		cleanups  []func()
	)
	cleanup := func() {
		for _, fn := range cleanups {
			fn()
		}
	}

	if cfg.IRCRelay.Enabled {
		notifiers = append(notifiers, NewIRCRelay(cfg.IRCRelay, logger))
	}
	if cfg.Redis.Enabled {
		client, err := NewRedisClient(cfg.Redis)
		if err != nil {
			return nil, cleanup, err
		}
		cleanups = append(cleanups, func() { _ = client.Close() })
		notifiers = append(notifiers, NewRedisPublisher(client, cfg.Redis.Channel))
	}

	names := make([]string, 0, len(notifiers))
	for _, n := range notifiers {
		names = append(names, n.Name())
	}
	logger.Info("notifiers configured", "notifiers", names)
	return notifiers, cleanup, nil
}
