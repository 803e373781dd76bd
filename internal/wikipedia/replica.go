package wikipedia

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"

	"github.com/sevigo/cbng-reviewer/internal/config"
	"github.com/sevigo/cbng-reviewer/internal/core"
)

// mediaWikiTime is the layout of rev_timestamp.
const mediaWikiTime = "20060102150405"

// Replica runs statistics queries against the wiki database replica. Upper
// bounds are the edit time, so counts reflect what was known when the edit
// was made.
type Replica struct {
	db *sqlx.DB
}

// NewReplica wraps an open replica connection.
func NewReplica(db *sqlx.DB) *Replica {
	return &Replica{db: db}
}

// ReplicaDSN builds a go-sql-driver DSN from the config.
func ReplicaDSN(cfg config.ReplicaConfig) string {
	mc := mysql.NewConfig()
	mc.User = cfg.Username
	mc.Passwd = cfg.Password
	mc.Net = "tcp"
	mc.Addr = net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))
	mc.DBName = cfg.Schema
	mc.Timeout = 10 * time.Second
	mc.ReadTimeout = 30 * time.Second
	return mc.FormatDSN()
}

// OpenReplica connects to the replica. The connection is opened lazily, so a
// missing replica only fails the lookups that need it.
func OpenReplica(cfg config.ReplicaConfig) (*Replica, func(), error) {
	conn, err := sqlx.Open("mysql", ReplicaDSN(cfg))
	if err != nil {
		return nil, func() {}, fmt.Errorf("failed to open replica: %w", err)
	}
	conn.SetMaxOpenConns(10)
	conn.SetConnMaxLifetime(5 * time.Minute)
	return NewReplica(conn), func() { _ = conn.Close() }, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(mediaWikiTime)
}

func parseTime(s string) (time.Time, error) {
	return time.ParseInLocation(mediaWikiTime, s, time.UTC)
}

func (r *Replica) count(ctx context.Context, query string, args ...any) (int, error) {
	var n int
	if err := r.db.GetContext(ctx, &n, query, args...); err != nil {
		return 0, err
	}
	return n, nil
}

// PageCreation returns the author and time of the first revision of a page.
func (r *Replica) PageCreation(ctx context.Context, title string, namespace int) (*core.PageCreation, error) {
	query := `
		-- ClueBot NG Reviewer - Wikipedia - Get Page Creation Metadata
		SELECT rev_timestamp, actor_name FROM page
		JOIN revision ON rev_page = page_id
		JOIN actor ON actor_id = rev_actor
		WHERE page_namespace = ? AND page_title = ?
		ORDER BY rev_id
		LIMIT 1`

	var row struct {
		Timestamp string `db:"rev_timestamp"`
		Actor     string `db:"actor_name"`
	}
	if err := r.db.GetContext(ctx, &row, query, namespace, core.CleanTitle(title)); err != nil {
		return nil, fmt.Errorf("failed to get creation of %q: %w", title, notFoundRow(err))
	}
	created, err := parseTime(row.Timestamp)
	if err != nil {
		return nil, fmt.Errorf("invalid creation timestamp %q: %w", row.Timestamp, err)
	}
	return &core.PageCreation{Creator: row.Actor, CreatedAt: created}, nil
}

// UserRegistrationTime is the time of the user's first revision.
func (r *Replica) UserRegistrationTime(ctx context.Context, username string) (time.Time, error) {
	query := `
		-- ClueBot NG Reviewer - Wikipedia - Get User Registration Time
		SELECT rev_timestamp FROM revision_userindex
		WHERE rev_actor = (SELECT actor_id FROM actor WHERE actor_name = ?)
		ORDER BY rev_timestamp
		LIMIT 1`

	var ts string
	if err := r.db.GetContext(ctx, &ts, query, username); err != nil {
		return time.Time{}, fmt.Errorf("failed to get registration of %q: %w", username, notFoundRow(err))
	}
	return parseTime(ts)
}

// UserEditCount counts the user's revisions up to at.
func (r *Replica) UserEditCount(ctx context.Context, username string, at time.Time) (int, error) {
	return r.count(ctx, `
		-- ClueBot NG Reviewer - Wikipedia - Get User Edit Count
		SELECT COUNT(*) FROM revision_userindex
		WHERE rev_actor = (SELECT actor_id FROM actor WHERE actor_name = ?)
		AND rev_timestamp <= ?`,
		username, formatTime(at))
}

// UserDistinctPages counts the pages the user edited up to at.
func (r *Replica) UserDistinctPages(ctx context.Context, username string, at time.Time) (int, error) {
	return r.count(ctx, `
		-- ClueBot NG Reviewer - Wikipedia - Get User Distinct Pages Count
		SELECT COUNT(DISTINCT rev_page) FROM revision_userindex
		WHERE rev_actor = (SELECT actor_id FROM actor WHERE actor_name = ?)
		AND rev_timestamp <= ?`,
		username, formatTime(at))
}

// UserWarningCount counts warning revisions on the user's talk page up to at.
func (r *Replica) UserWarningCount(ctx context.Context, username string, at time.Time) (int, error) {
	return r.count(ctx, `
		-- ClueBot NG Reviewer - Wikipedia - Get User Warning Count
		SELECT COUNT(*) FROM page
		JOIN revision ON rev_page = page_id
		JOIN comment ON comment_id = rev_comment_id
		WHERE page_namespace = ? AND page_title = ?
		AND rev_timestamp <= ?
		AND (comment_text LIKE '%warning%' OR comment_text LIKE 'General note: Nonconstructive%')`,
		core.NamespaceUserTalk, strings.ReplaceAll(username, " ", "_"), formatTime(at))
}

// PageRecentEditCount counts page revisions in (at-window, at].
func (r *Replica) PageRecentEditCount(ctx context.Context, title string, namespace int, at time.Time, window time.Duration) (int, error) {
	return r.count(ctx, `
		-- ClueBot NG Reviewer - Wikipedia - Get Page Recent Edit Count
		SELECT COUNT(*) FROM page
		JOIN revision ON rev_page = page_id
		WHERE page_namespace = ? AND page_title = ?
		AND rev_timestamp > ? AND rev_timestamp <= ?`,
		namespace, core.CleanTitle(title), formatTime(at.Add(-window)), formatTime(at))
}

// PageRecentRevertCount counts page revisions in (at-window, at] whose
// comment starts with "Revert".
func (r *Replica) PageRecentRevertCount(ctx context.Context, title string, namespace int, at time.Time, window time.Duration) (int, error) {
	return r.count(ctx, `
		-- ClueBot NG Reviewer - Wikipedia - Get Page Recent Revert Count
		SELECT COUNT(*) FROM page
		JOIN revision ON rev_page = page_id
		JOIN comment ON comment_id = rev_comment_id
		WHERE page_namespace = ? AND page_title = ?
		AND rev_timestamp > ? AND rev_timestamp <= ?
		AND comment_text LIKE 'Revert%'`,
		namespace, core.CleanTitle(title), formatTime(at.Add(-window)), formatTime(at))
}

// SampledEdits returns up to limit random revision ids made in [from, to].
func (r *Replica) SampledEdits(ctx context.Context, namespace int, from, to time.Time, limit int) ([]int64, error) {
	query := `
		-- ClueBot NG Reviewer - Wikipedia - Get Sampled Edits
		SELECT rev_id FROM page
		JOIN revision ON rev_page = page_id
		WHERE page_namespace = ?
		AND rev_timestamp BETWEEN ? AND ?
		ORDER BY RAND()
		LIMIT ?`

	var ids []int64
	if err := r.db.SelectContext(ctx, &ids, query, namespace, formatTime(from), formatTime(to), limit); err != nil {
		return nil, fmt.Errorf("failed to sample edits: %w", err)
	}
	return ids, nil
}
