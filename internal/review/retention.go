package review

import (
	"github.com/sevigo/cbng-reviewer/internal/core"
)

// Action is the fate of an edit whose source revision was deleted.
type Action int

const (
	// ActionNone means the source still exists and nothing changes.
	ActionNone Action = iota
	// ActionKeep marks the edit deleted and keeps all of its data.
	ActionKeep
	// ActionPurgeDependents drops votes, training data and snapshots but
	// keeps the edit row as a tombstone.
	ActionPurgeDependents
	// ActionRemove drops the edit entirely.
	ActionRemove
)

func (a Action) String() string {
	switch a {
	case ActionNone:
		return "none"
	case ActionKeep:
		return "keep"
	case ActionPurgeDependents:
		return "purge-dependents"
	case ActionRemove:
		return "remove"
	}
	return "unknown"
}

// ResolveDeletion decides what happens to an edit given whether its source
// revision was deleted and the groups it belongs to. A finished edit with
// training data is the only remaining copy of that example and is kept. An
// unfinished one can never be completed, so its data goes; the row itself
// stays only while a reporting group still references it.
func ResolveDeletion(edit core.Edit, sourceDeleted bool, groups []core.EditGroup) Action {
	if !sourceDeleted {
		return ActionNone
	}
	if edit.Status == core.StatusDone && edit.HasTrainingData {
		return ActionKeep
	}
	for _, g := range groups {
		if g.Type.IsReporting() {
			return ActionPurgeDependents
		}
	}
	return ActionRemove
}
