package storage

import (
	"context"
	"fmt"

	"github.com/sevigo/cbng-reviewer/internal/core"
)

const groupColumns = `g.id, g.name, g.weight, g.related_to, g.group_type`

func (s *postgresStore) GetGroup(ctx context.Context, id int64) (*core.EditGroup, error) {
	var g core.EditGroup
	if err := s.db.GetContext(ctx, &g, `SELECT `+groupColumns+` FROM edit_groups g WHERE g.id = $1`, id); err != nil {
		return nil, notFound(err, "group", id)
	}
	return &g, nil
}

// GetGroupByName prefers a top level group when several share the name.
func (s *postgresStore) GetGroupByName(ctx context.Context, name string) (*core.EditGroup, error) {
	query := `SELECT ` + groupColumns + ` FROM edit_groups g WHERE g.name = $1 ORDER BY g.related_to NULLS FIRST, g.id LIMIT 1`
	var g core.EditGroup
	if err := s.db.GetContext(ctx, &g, query, name); err != nil {
		return nil, notFound(err, "group", name)
	}
	return &g, nil
}

// GetOrCreateGroup inserts the group or returns the existing row with the same
// (name, related_to). Weight and type of an existing group are left alone.
func (s *postgresStore) GetOrCreateGroup(ctx context.Context, group *core.EditGroup) (*core.EditGroup, error) {
	query := `
		INSERT INTO edit_groups AS g (name, weight, related_to, group_type)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT ON CONSTRAINT edit_groups_name_related_to_key DO UPDATE SET name = EXCLUDED.name
		RETURNING ` + groupColumns
	var g core.EditGroup
	if err := s.db.GetContext(ctx, &g, query, group.Name, group.Weight, group.RelatedTo, group.Type); err != nil {
		return nil, fmt.Errorf("failed to get or create group %q: %w", group.Name, err)
	}
	return &g, nil
}

func (s *postgresStore) ListGroups(ctx context.Context) ([]core.EditGroup, error) {
	var groups []core.EditGroup
	if err := s.db.SelectContext(ctx, &groups, `SELECT `+groupColumns+` FROM edit_groups g ORDER BY g.weight DESC, g.name`); err != nil {
		return nil, fmt.Errorf("failed to list groups: %w", err)
	}
	return groups, nil
}

func (s *postgresStore) RelatedGroups(ctx context.Context, id int64) ([]core.EditGroup, error) {
	var groups []core.EditGroup
	if err := s.db.SelectContext(ctx, &groups, `SELECT `+groupColumns+` FROM edit_groups g WHERE g.related_to = $1 ORDER BY g.id`, id); err != nil {
		return nil, fmt.Errorf("failed to list groups related to %d: %w", id, err)
	}
	return groups, nil
}

func (s *postgresStore) GroupsForEdit(ctx context.Context, editID int64) ([]core.EditGroup, error) {
	query := `
		SELECT ` + groupColumns + `
		FROM edit_groups g
		JOIN edit_group_members m ON m.group_id = g.id
		WHERE m.edit_id = $1
		ORDER BY g.id`
	var groups []core.EditGroup
	if err := s.db.SelectContext(ctx, &groups, query, editID); err != nil {
		return nil, fmt.Errorf("failed to list groups for edit %d: %w", editID, err)
	}
	return groups, nil
}

func (s *postgresStore) AddEditToGroup(ctx context.Context, editID, groupID int64) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO edit_group_members (edit_id, group_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
		editID, groupID)
	if err != nil {
		return false, fmt.Errorf("failed to add edit %d to group %d: %w", editID, groupID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *postgresStore) GroupStats(ctx context.Context) ([]core.GroupStats, error) {
	query := `
		SELECT g.id, g.name, g.weight,
			COUNT(e.id) FILTER (WHERE e.status = 0) AS pending,
			COUNT(e.id) FILTER (WHERE e.status = 1) AS in_progress,
			COUNT(e.id) FILTER (WHERE e.status = 2) AS done
		FROM edit_groups g
		LEFT JOIN edit_group_members m ON m.group_id = g.id
		LEFT JOIN edits e ON e.id = m.edit_id
		GROUP BY g.id, g.name, g.weight
		ORDER BY g.weight DESC, g.name`
	var stats []core.GroupStats
	if err := s.db.SelectContext(ctx, &stats, query); err != nil {
		return nil, fmt.Errorf("failed to compute group stats: %w", err)
	}
	return stats, nil
}
