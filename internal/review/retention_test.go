package review

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sevigo/cbng-reviewer/internal/core"
)

func TestResolveDeletion(t *testing.T) {
	reporting := core.EditGroup{ID: 1, Name: "Report Interface Import", Type: core.GroupTypeReportedFalsePositive}
	generic := core.EditGroup{ID: 2, Name: "Sampled", Type: core.GroupTypeGeneric}

	tests := []struct {
		name    string
		edit    core.Edit
		deleted bool
		groups  []core.EditGroup
		want    Action
	}{
		{
			name:    "source still present",
			edit:    core.Edit{Status: core.StatusPartial},
			deleted: false,
			want:    ActionNone,
		},
		{
			name:    "done with training data is kept",
			edit:    core.Edit{Status: core.StatusDone, HasTrainingData: true},
			deleted: true,
			groups:  []core.EditGroup{generic},
			want:    ActionKeep,
		},
		{
			name:    "partial in reporting group is tombstoned",
			edit:    core.Edit{Status: core.StatusPartial},
			deleted: true,
			groups:  []core.EditGroup{generic, reporting},
			want:    ActionPurgeDependents,
		},
		{
			name:    "partial without reporting group is removed",
			edit:    core.Edit{Status: core.StatusPartial},
			deleted: true,
			groups:  []core.EditGroup{generic},
			want:    ActionRemove,
		},
		{
			name:    "done without training data is removed",
			edit:    core.Edit{Status: core.StatusDone},
			deleted: true,
			want:    ActionRemove,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ResolveDeletion(tt.edit, tt.deleted, tt.groups))
		})
	}
}
