package core

import (
	"context"
	"time"
)

// PageMetadata identifies the page an edit belongs to.
type PageMetadata struct {
	Title     string
	Namespace int
}

// PageCreation describes the first revision of a page.
type PageCreation struct {
	Creator   string
	CreatedAt time.Time
}

// LocalUser holds the rights and groups of an account on the local wiki.
type LocalUser struct {
	Username string   `json:"username"`
	Rights   []string `json:"rights"`
	Groups   []string `json:"groups"`
}

// CentralUser is the global identity of an account.
type CentralUser struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

// ContentSource is the read-only view of the wiki used to build training
// records. Every call may fail independently; callers treat failures as
// missing fields rather than fatal errors.
//
//go:generate mockgen -destination=../../mocks/mock_content_source.go -package=mocks . ContentSource
type ContentSource interface {
	EditMetadata(ctx context.Context, revisionID int64) (*PageMetadata, error)
	// PageRevisions returns the revision with the given id and the one before
	// it. Hidden revisions are excluded; previous is nil when only one usable
	// revision remains.
	PageRevisions(ctx context.Context, title string, revisionID int64) (current, previous *Revision, err error)
	PageCreation(ctx context.Context, title string, namespace int) (*PageCreation, error)

	UserRegistrationTime(ctx context.Context, username string) (time.Time, error)
	UserEditCount(ctx context.Context, username string, at time.Time) (int, error)
	UserDistinctPages(ctx context.Context, username string, at time.Time) (int, error)
	UserWarningCount(ctx context.Context, username string, at time.Time) (int, error)

	PageRecentEditCount(ctx context.Context, title string, namespace int, at time.Time, window time.Duration) (int, error)
	PageRecentRevertCount(ctx context.Context, title string, namespace int, at time.Time, window time.Duration) (int, error)

	RevisionDeleted(ctx context.Context, revisionID int64) (bool, error)
	SampledEdits(ctx context.Context, namespace int, from, to time.Time, limit int) ([]int64, error)

	LocalUser(ctx context.Context, username string) (*LocalUser, error)
	CentralUser(ctx context.Context, username string) (*CentralUser, error)
}
