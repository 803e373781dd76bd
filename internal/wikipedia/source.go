package wikipedia

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/sevigo/cbng-reviewer/internal/core"
)

// Source is the content source backed by the API for pages, revisions and
// users, and by the replica for history statistics.
type Source struct {
	*Client
	*Replica
}

var _ core.ContentSource = (*Source)(nil)

// NewSource combines an API client and a replica.
func NewSource(client *Client, replica *Replica) *Source {
	return &Source{Client: client, Replica: replica}
}

func notFoundRow(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %w", core.ErrNotFound, err)
	}
	return err
}
