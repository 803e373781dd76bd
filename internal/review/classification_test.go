package review

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sevigo/cbng-reviewer/internal/core"
)

func votesOf(classifications ...core.Classification) []core.Vote {
	votes := make([]core.Vote, 0, len(classifications))
	for i, c := range classifications {
		votes = append(votes, core.Vote{EditID: 1234, Reviewer: string(rune('a' + i)), Classification: c})
	}
	return votes
}

const (
	v = core.ClassificationVandalism
	c = core.ClassificationConstructive
	s = core.ClassificationSkipped
)

func TestUpdateClassification_Rules(t *testing.T) {
	tests := []struct {
		name      string
		votes     []core.Vote
		wantState core.EditStatus
		wantClass *core.Classification
	}{
		{name: "no votes", votes: nil, wantState: core.StatusPending},
		{name: "below threshold", votes: votesOf(v), wantState: core.StatusPartial},
		{name: "vandalism majority", votes: votesOf(v, v), wantState: core.StatusDone, wantClass: core.ClassificationPtr(v)},
		{name: "constructive majority", votes: votesOf(c, c), wantState: core.StatusDone, wantClass: core.ClassificationPtr(c)},
		{name: "skip majority", votes: votesOf(s, s, v), wantState: core.StatusDone, wantClass: core.ClassificationPtr(s)},
		{name: "skip wins over constructive", votes: votesOf(s, s, s, c, c), wantState: core.StatusDone, wantClass: core.ClassificationPtr(s)},
		{name: "skip half is not majority", votes: votesOf(s, s, c, c), wantState: core.StatusDone, wantClass: core.ClassificationPtr(c)},
		{name: "contested", votes: votesOf(v, v, c), wantState: core.StatusPartial},
		{name: "vandalism supermajority", votes: votesOf(v, v, v, c), wantState: core.StatusDone, wantClass: core.ClassificationPtr(v)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := UpdateClassification(core.Edit{ID: 1234}, tt.votes, DefaultOptions(2))
			assert.Equal(t, tt.wantState, res.Edit.Status)
			assert.Equal(t, tt.wantClass, res.Edit.Classification)
		})
	}
}

func TestUpdateClassification_Idempotent(t *testing.T) {
	votes := votesOf(v, v)
	first := UpdateClassification(core.Edit{ID: 1234}, votes, DefaultOptions(2).Forced())
	require.True(t, first.Changed)
	require.Len(t, first.Events, 1)

	second := UpdateClassification(first.Edit, votes, DefaultOptions(2).Forced())
	assert.False(t, second.Changed)
	assert.Empty(t, second.Events)
	assert.Equal(t, first.Edit, second.Edit)

	partial := UpdateClassification(core.Edit{ID: 1}, votesOf(v), DefaultOptions(2))
	require.True(t, partial.Changed)
	again := UpdateClassification(partial.Edit, votesOf(v), DefaultOptions(2))
	assert.False(t, again.Changed)
}

func TestUpdateClassification_ConstructiveCrossing(t *testing.T) {
	for vandalism := 1; vandalism <= 3; vandalism++ {
		for constructive := 0; constructive <= 3*vandalism+2; constructive++ {
			var votes []core.Vote
			for range vandalism {
				votes = append(votes, votesOf(v)...)
			}
			for range constructive {
				votes = append(votes, votesOf(c)...)
			}
			res := UpdateClassification(core.Edit{ID: 1}, votes, DefaultOptions(2))

			enough := max(vandalism, constructive) >= 2
			switch {
			case enough && constructive >= 3*vandalism:
				assert.Equal(t, core.StatusDone, res.Edit.Status, "v=%d c=%d", vandalism, constructive)
				assert.True(t, res.Edit.IsClassifiedAs(c), "v=%d c=%d", vandalism, constructive)
			case enough && vandalism >= 3*constructive:
				assert.True(t, res.Edit.IsClassifiedAs(v), "v=%d c=%d", vandalism, constructive)
			default:
				assert.Equal(t, core.StatusPartial, res.Edit.Status, "v=%d c=%d", vandalism, constructive)
				assert.Nil(t, res.Edit.Classification, "v=%d c=%d", vandalism, constructive)
			}
		}
	}
}

func TestUpdateClassification_ReviewerCounters(t *testing.T) {
	res := UpdateClassification(core.Edit{ID: 1234}, votesOf(v, v, v, c), DefaultOptions(2))
	assert.Equal(t, 4, res.Edit.NumberOfReviewers)
	assert.Equal(t, 3, res.Edit.NumberOfAgreeingReviewers)
}

func TestUpdateClassification_TwoVandalismVotesThenConstructive(t *testing.T) {
	opts := DefaultOptions(2)

	res := UpdateClassification(core.Edit{ID: 1234}, votesOf(v, v), opts)
	require.True(t, res.Changed)
	assert.Equal(t, core.StatusDone, res.Edit.Status)
	assert.True(t, res.Edit.IsClassifiedAs(v))
	assert.Equal(t, 2, res.Edit.NumberOfReviewers)
	assert.Equal(t, 2, res.Edit.NumberOfAgreeingReviewers)
	require.Len(t, res.Events, 1)
	assert.Equal(t, core.EventEditCompleted, res.Events[0].Type)

	third := UpdateClassification(res.Edit, votesOf(v, v, c), opts)
	assert.False(t, third.Changed)
	assert.Equal(t, core.StatusDone, third.Edit.Status)
	assert.True(t, third.Edit.IsClassifiedAs(v))
	assert.Equal(t, 2, third.Edit.NumberOfReviewers)

	forced := UpdateClassification(res.Edit, votesOf(v, v, c), opts.Forced())
	assert.True(t, forced.Changed)
	assert.Equal(t, core.StatusPartial, forced.Edit.Status)
	assert.True(t, forced.Edit.IsClassifiedAs(v))
	assert.Empty(t, forced.Events)
}

func TestUpdateClassification_Guards(t *testing.T) {
	historical := core.Edit{
		ID:             1,
		Status:         core.StatusDone,
		Classification: core.ClassificationPtr(c),
	}

	t.Run("historical edit without votes", func(t *testing.T) {
		opts := Options{MinimumClassifications: 2, ProtectHistorical: true}
		res := UpdateClassification(historical, nil, opts)
		assert.False(t, res.Changed)
		assert.Equal(t, historical, res.Edit)

		res = UpdateClassification(historical, nil, opts.Forced())
		assert.False(t, res.Changed)
		assert.Equal(t, historical, res.Edit)
	})

	t.Run("unprotected historical edit is reset", func(t *testing.T) {
		res := UpdateClassification(historical, nil, Options{MinimumClassifications: 2})
		assert.True(t, res.Changed)
		assert.Equal(t, core.StatusPending, res.Edit.Status)
	})

	t.Run("deleted edit with votes", func(t *testing.T) {
		deleted := historical
		deleted.IsDeleted = true
		opts := Options{MinimumClassifications: 2, ProtectDeleted: true}
		res := UpdateClassification(deleted, votesOf(v, v), opts)
		assert.False(t, res.Changed)
		assert.True(t, res.Edit.IsClassifiedAs(c))
	})

	t.Run("deleted guard does not cover undeleted edits", func(t *testing.T) {
		opts := Options{MinimumClassifications: 2, ProtectDeleted: true}
		res := UpdateClassification(historical, votesOf(v, v), opts)
		assert.True(t, res.Changed)
		assert.True(t, res.Edit.IsClassifiedAs(v))
		assert.Empty(t, res.Events)
	})
}
