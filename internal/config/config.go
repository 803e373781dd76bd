package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// ErrInvalid is returned by Validate for a configuration that cannot be used.
var ErrInvalid = errors.New("invalid configuration")

// Config holds the application's configuration values.
type Config struct {
	Logging         LoggingConfig         `mapstructure:"logging"`
	Database        DBConfig              `mapstructure:"database"`
	Replica         ReplicaConfig         `mapstructure:"replica"`
	Wikipedia       WikipediaConfig       `mapstructure:"wikipedia"`
	Review          ReviewConfig          `mapstructure:"review"`
	Workers         WorkersConfig         `mapstructure:"workers"`
	Scorer          ScorerConfig          `mapstructure:"scorer"`
	ReportInterface ReportInterfaceConfig `mapstructure:"report_interface"`
	IRCRelay        IRCRelayConfig        `mapstructure:"irc_relay"`
	Redis           RedisConfig           `mapstructure:"redis"`
	Metrics         MetricsConfig         `mapstructure:"metrics"`
	Server          ServerConfig          `mapstructure:"server"`
}

// LoggingConfig holds the logger configuration. An empty Output logs to stdout.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// DBConfig is the Postgres store connection.
type DBConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	Username        string        `mapstructure:"username"`
	Password        string        `mapstructure:"password"`
	Database        string        `mapstructure:"database"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
}

// ReplicaConfig is the read-only MySQL replica of the wiki database.
type ReplicaConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	Schema   string `mapstructure:"schema"`
}

// WikipediaConfig configures the MediaWiki API client.
type WikipediaConfig struct {
	APIURL            string        `mapstructure:"api_url"`
	CentralAuthAPIURL string        `mapstructure:"central_auth_api_url"`
	UserAgent         string        `mapstructure:"user_agent"`
	Timeout           time.Duration `mapstructure:"timeout"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second"`
	Burst             int           `mapstructure:"burst"`
}

// EditSetConfig names a well-known group.
type EditSetConfig struct {
	Name   string `mapstructure:"name"`
	Weight int    `mapstructure:"weight"`
}

// ReviewConfig holds the curation policy.
type ReviewConfig struct {
	MinimumClassifications   int           `mapstructure:"minimum_classifications"`
	RecentEditWindowDays     int           `mapstructure:"recent_edit_window_days"`
	SampledEditsQuantity     int           `mapstructure:"sampled_edits_quantity"`
	SampledEditsLookbackDays int           `mapstructure:"sampled_edits_lookback_days"`
	SampledEditsNamespace    int           `mapstructure:"sampled_edits_namespace"`
	SampledEditSet           EditSetConfig `mapstructure:"sampled_edit_set"`
	ReportEditSet            EditSetConfig `mapstructure:"report_edit_set"`
	DanglingEditSet          EditSetConfig `mapstructure:"dangling_edit_set"`
}

// RecentEditWindow is the trailing window used for page activity counts.
func (c ReviewConfig) RecentEditWindow() time.Duration {
	return time.Duration(c.RecentEditWindowDays) * 24 * time.Hour
}

// WorkersConfig sets the orchestrator pool widths.
type WorkersConfig struct {
	Default  int `mapstructure:"default"`
	Deletion int `mapstructure:"deletion"`
	// QueueSize bounds the event dispatcher queue.
	QueueSize int `mapstructure:"queue_size"`
	// Notifiers is the number of event delivery goroutines.
	Notifiers int `mapstructure:"notifiers"`
}

// ScorerConfig is the classifier scoring socket.
type ScorerConfig struct {
	Host    string        `mapstructure:"host"`
	Port    int           `mapstructure:"port"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// ReportInterfaceConfig is the report interface API.
type ReportInterfaceConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// IRCRelayConfig is the UDP chat relay.
type IRCRelayConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Host    string `mapstructure:"host"`
	Port    int    `mapstructure:"port"`
	Channel string `mapstructure:"channel"`
}

// RedisConfig is the Redis pub/sub event sink.
type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Channel  string `mapstructure:"channel"`
}

// MetricsConfig points at a Prometheus pushgateway. An empty URL disables pushing.
type MetricsConfig struct {
	PushgatewayURL string `mapstructure:"pushgateway_url"`
	JobName        string `mapstructure:"job_name"`
}

// ServerConfig is the HTTP API listener.
type ServerConfig struct {
	Port         string        `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
	v.SetDefault("logging.output", "")

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.username", "cbng")
	v.SetDefault("database.password", "")
	v.SetDefault("database.database", "cbng_reviewer")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "30m")
	v.SetDefault("database.conn_max_idle_time", "5m")

	v.SetDefault("replica.host", "enwiki.analytics.db.svc.wikimedia.cloud")
	v.SetDefault("replica.port", 3306)
	v.SetDefault("replica.username", "")
	v.SetDefault("replica.password", "")
	v.SetDefault("replica.schema", "enwiki_p")

	v.SetDefault("wikipedia.api_url", "https://en.wikipedia.org/w/api.php")
	v.SetDefault("wikipedia.central_auth_api_url", "https://meta.wikimedia.org/w/api.php")
	v.SetDefault("wikipedia.user_agent", "ClueBot NG Reviewer")
	v.SetDefault("wikipedia.timeout", "10s")
	v.SetDefault("wikipedia.requests_per_second", 10.0)
	v.SetDefault("wikipedia.burst", 5)

	v.SetDefault("review.minimum_classifications", 2)
	v.SetDefault("review.recent_edit_window_days", 14)
	v.SetDefault("review.sampled_edits_quantity", 1)
	v.SetDefault("review.sampled_edits_lookback_days", 7)
	v.SetDefault("review.sampled_edits_namespace", 0)
	v.SetDefault("review.sampled_edit_set.name", "Sampled Main Namespace Edits")
	v.SetDefault("review.sampled_edit_set.weight", 40)
	v.SetDefault("review.report_edit_set.name", "Report Interface Import")
	v.SetDefault("review.report_edit_set.weight", 0)
	v.SetDefault("review.dangling_edit_set.name", "Dangling Edits")
	v.SetDefault("review.dangling_edit_set.weight", 0)

	v.SetDefault("workers.default", 5)
	v.SetDefault("workers.deletion", 20)
	v.SetDefault("workers.queue_size", 100)
	v.SetDefault("workers.notifiers", 2)

	v.SetDefault("scorer.host", "localhost")
	v.SetDefault("scorer.port", 3565)
	v.SetDefault("scorer.timeout", "10s")

	v.SetDefault("report_interface.base_url", "https://cluebotng.toolforge.org")
	v.SetDefault("report_interface.timeout", "10s")

	v.SetDefault("irc_relay.enabled", false)
	v.SetDefault("irc_relay.host", "localhost")
	v.SetDefault("irc_relay.port", 3334)
	v.SetDefault("irc_relay.channel", "#wikipedia-en-cbngreview")

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.channel", "cbng-reviewer:events")

	v.SetDefault("metrics.pushgateway_url", "")
	v.SetDefault("metrics.job_name", "cbng_reviewer")

	v.SetDefault("server.port", "8080")
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "5m")
}

// LoadConfig reads configuration from an optional yaml file and CBNG_*
// environment variables on top of the defaults, then validates it. An empty
// path searches for config.yaml in the working directory and $HOME/.cbng-reviewer.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.cbng-reviewer")
	}

	v.SetEnvPrefix("CBNG")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		slog.Debug("no config file found, using defaults and environment")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the curation pipeline cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.Workers.Default < 1 {
		errs = append(errs, fmt.Errorf("workers.default must be positive, got %d", c.Workers.Default))
	}
	if c.Workers.Deletion < 1 {
		errs = append(errs, fmt.Errorf("workers.deletion must be positive, got %d", c.Workers.Deletion))
	}
	if c.Workers.QueueSize < 1 || c.Workers.Notifiers < 1 {
		errs = append(errs, fmt.Errorf("workers.queue_size and workers.notifiers must be positive"))
	}
	if c.Review.MinimumClassifications < 1 {
		errs = append(errs, fmt.Errorf("review.minimum_classifications must be at least 1, got %d", c.Review.MinimumClassifications))
	}
	if c.Review.RecentEditWindowDays < 1 {
		errs = append(errs, fmt.Errorf("review.recent_edit_window_days must be at least 1, got %d", c.Review.RecentEditWindowDays))
	}
	if c.Review.SampledEditsQuantity < 0 {
		errs = append(errs, fmt.Errorf("review.sampled_edits_quantity must not be negative"))
	}
	if c.Wikipedia.RequestsPerSecond <= 0 || c.Wikipedia.Burst < 1 {
		errs = append(errs, fmt.Errorf("wikipedia rate limit must be positive"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalid, errors.Join(errs...))
	}
	return nil
}
