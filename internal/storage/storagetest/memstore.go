// Package storagetest provides an in-memory storage.Store for tests.
package storagetest

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/sevigo/cbng-reviewer/internal/core"
	"github.com/sevigo/cbng-reviewer/internal/storage"
)

var _ storage.Store = (*MemStore)(nil)

type voteKey struct {
	editID   int64
	reviewer string
}

// MemStore keeps every table in maps guarded by one mutex.
type MemStore struct {
	mu sync.Mutex

	Edits    map[int64]*core.Edit
	Groups   map[int64]*core.EditGroup
	Members  map[int64]map[int64]bool // edit id -> group ids
	Votes    map[voteKey]*core.Vote
	Training map[int64]*core.TrainingData
	Current  map[int64]*core.Revision
	Previous map[int64]*core.Revision
	Scores   map[int64]*core.ScoreData

	nextGroupID int64
	nextVoteID  int64
}

// New returns an empty MemStore.
func New() *MemStore {
	return &MemStore{
		Edits:    map[int64]*core.Edit{},
		Groups:   map[int64]*core.EditGroup{},
		Members:  map[int64]map[int64]bool{},
		Votes:    map[voteKey]*core.Vote{},
		Training: map[int64]*core.TrainingData{},
		Current:  map[int64]*core.Revision{},
		Previous: map[int64]*core.Revision{},
		Scores:   map[int64]*core.ScoreData{},
	}
}

// PutEdit stores a copy of edit.
func (m *MemStore) PutEdit(edit core.Edit) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Edits[edit.ID] = &edit
}

// Edit returns a copy of the stored edit, or nil.
func (m *MemStore) Edit(id int64) *core.Edit {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.Edits[id]
	if !ok {
		return nil
	}
	cp := *e
	return &cp
}

func notFound(what string, id any) error {
	return fmt.Errorf("%s %v: %w", what, id, core.ErrNotFound)
}

func (m *MemStore) GetEdit(_ context.Context, id int64) (*core.Edit, error) {
	if e := m.Edit(id); e != nil {
		return e, nil
	}
	return nil, notFound("edit", id)
}

func (m *MemStore) GetOrCreateEdit(_ context.Context, id int64) (*core.Edit, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.Edits[id]; ok {
		cp := *e
		return &cp, false, nil
	}
	e := &core.Edit{ID: id, LastUpdated: time.Now().UTC()}
	m.Edits[id] = e
	cp := *e
	return &cp, true, nil
}

func (m *MemStore) SaveEdit(_ context.Context, edit *core.Edit) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.Edits[edit.ID]
	if !ok {
		return notFound("edit", edit.ID)
	}
	cp := *edit
	cp.HasTrainingData = existing.HasTrainingData
	m.Edits[edit.ID] = &cp
	return nil
}

func (m *MemStore) MarkEditDeleted(_ context.Context, id int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.Edits[id]
	if !ok || e.IsDeleted {
		return false, nil
	}
	e.IsDeleted = true
	return true, nil
}

func (m *MemStore) PurgeDependents(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k := range m.Votes {
		if k.editID == id {
			delete(m.Votes, k)
		}
	}
	delete(m.Training, id)
	delete(m.Current, id)
	delete(m.Previous, id)
	if e, ok := m.Edits[id]; ok {
		e.HasTrainingData = false
	}
	return nil
}

func (m *MemStore) DeleteEdit(ctx context.Context, id int64) error {
	if err := m.PurgeDependents(ctx, id); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.Edits, id)
	delete(m.Members, id)
	delete(m.Scores, id)
	return nil
}

func (m *MemStore) matches(e *core.Edit, f core.EditFilter) bool {
	if f.EditID != nil && e.ID != *f.EditID {
		return false
	}
	if len(f.GroupIDs) > 0 && !slices.ContainsFunc(f.GroupIDs, func(g int64) bool { return m.Members[e.ID][g] }) {
		return false
	}
	if slices.Contains(f.ExcludeStatus, e.Status) {
		return false
	}
	if f.IsDeleted != nil && e.IsDeleted != *f.IsDeleted {
		return false
	}
	if f.HasTrainingData != nil && e.HasTrainingData != *f.HasTrainingData {
		return false
	}
	if f.Dangling && len(m.Members[e.ID]) > 0 {
		return false
	}
	return true
}

func (m *MemStore) ListEditIDs(_ context.Context, filter core.EditFilter) ([]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var ids []int64
	for id, e := range m.Edits {
		if m.matches(e, filter) {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	return ids, nil
}

func (m *MemStore) RefreshTrainingDataFlag(_ context.Context, id int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.refreshLocked(id)
}

func (m *MemStore) refreshLocked(id int64) (bool, error) {
	e, ok := m.Edits[id]
	if !ok {
		return false, notFound("edit", id)
	}
	cur := m.Current[id]
	_, hasTraining := m.Training[id]
	_, hasPrevious := m.Previous[id]
	e.HasTrainingData = hasTraining && cur != nil && (hasPrevious || cur.IsCreation)
	return e.HasTrainingData, nil
}

func (m *MemStore) NextEditForReviewer(_ context.Context, reviewer string) (*core.Edit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var (
		best       *core.Edit
		bestWeight int
	)
	for id, e := range m.Edits {
		if e.Status == core.StatusDone || e.IsDeleted {
			continue
		}
		if _, voted := m.Votes[voteKey{id, reviewer}]; voted {
			continue
		}
		for gid := range m.Members[id] {
			w := m.Groups[gid].Weight
			if best == nil || w > bestWeight || (w == bestWeight && id < best.ID) {
				best, bestWeight = e, w
			}
		}
	}
	if best == nil {
		return nil, notFound("next edit for reviewer", reviewer)
	}
	cp := *best
	return &cp, nil
}

func (m *MemStore) GetGroup(_ context.Context, id int64) (*core.EditGroup, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.Groups[id]
	if !ok {
		return nil, notFound("group", id)
	}
	cp := *g
	return &cp, nil
}

func (m *MemStore) GetGroupByName(_ context.Context, name string) (*core.EditGroup, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var found *core.EditGroup
	for _, g := range m.sortedGroups() {
		if g.Name != name {
			continue
		}
		if found == nil || (found.RelatedTo != nil && g.RelatedTo == nil) {
			found = g
		}
	}
	if found == nil {
		return nil, notFound("group", name)
	}
	cp := *found
	return &cp, nil
}

func sameParent(a, b *int64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func (m *MemStore) GetOrCreateGroup(_ context.Context, group *core.EditGroup) (*core.EditGroup, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, g := range m.Groups {
		if g.Name == group.Name && sameParent(g.RelatedTo, group.RelatedTo) {
			cp := *g
			return &cp, nil
		}
	}
	m.nextGroupID++
	g := *group
	g.ID = m.nextGroupID
	m.Groups[g.ID] = &g
	cp := g
	return &cp, nil
}

func (m *MemStore) sortedGroups() []*core.EditGroup {
	groups := make([]*core.EditGroup, 0, len(m.Groups))
	for _, g := range m.Groups {
		groups = append(groups, g)
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].ID < groups[j].ID })
	return groups
}

func (m *MemStore) ListGroups(_ context.Context) ([]core.EditGroup, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []core.EditGroup
	for _, g := range m.sortedGroups() {
		out = append(out, *g)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Weight > out[j].Weight })
	return out, nil
}

func (m *MemStore) RelatedGroups(_ context.Context, id int64) ([]core.EditGroup, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []core.EditGroup
	for _, g := range m.sortedGroups() {
		if g.RelatedTo != nil && *g.RelatedTo == id {
			out = append(out, *g)
		}
	}
	return out, nil
}

func (m *MemStore) GroupsForEdit(_ context.Context, editID int64) ([]core.EditGroup, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []core.EditGroup
	for _, g := range m.sortedGroups() {
		if m.Members[editID][g.ID] {
			out = append(out, *g)
		}
	}
	return out, nil
}

func (m *MemStore) AddEditToGroup(_ context.Context, editID, groupID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.Edits[editID]; !ok {
		return false, notFound("edit", editID)
	}
	if _, ok := m.Groups[groupID]; !ok {
		return false, notFound("group", groupID)
	}
	if m.Members[editID] == nil {
		m.Members[editID] = map[int64]bool{}
	}
	if m.Members[editID][groupID] {
		return false, nil
	}
	m.Members[editID][groupID] = true
	return true, nil
}

func (m *MemStore) GroupStats(_ context.Context) ([]core.GroupStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []core.GroupStats
	for _, g := range m.sortedGroups() {
		st := core.GroupStats{GroupID: g.ID, Name: g.Name, Weight: g.Weight}
		for editID, groups := range m.Members {
			e, ok := m.Edits[editID]
			if !ok || !groups[g.ID] {
				continue
			}
			switch e.Status {
			case core.StatusPending:
				st.Pending++
			case core.StatusPartial:
				st.InProgress++
			case core.StatusDone:
				st.Done++
			}
		}
		out = append(out, st)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Weight > out[j].Weight })
	return out, nil
}

func (m *MemStore) VotesForEdit(_ context.Context, editID int64) ([]core.Vote, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []core.Vote
	for k, v := range m.Votes {
		if k.editID == editID {
			out = append(out, *v)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MemStore) GetVote(_ context.Context, editID int64, reviewer string) (*core.Vote, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.Votes[voteKey{editID, reviewer}]
	if !ok {
		return nil, notFound("vote on edit", editID)
	}
	cp := *v
	return &cp, nil
}

func (m *MemStore) InsertVote(_ context.Context, vote *core.Vote) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := voteKey{vote.EditID, vote.Reviewer}
	if _, ok := m.Votes[key]; ok {
		return false, nil
	}
	m.nextVoteID++
	vote.ID = m.nextVoteID
	cp := *vote
	m.Votes[key] = &cp
	return true, nil
}

func (m *MemStore) ReplaceVote(ctx context.Context, vote *core.Vote) error {
	m.mu.Lock()
	delete(m.Votes, voteKey{vote.EditID, vote.Reviewer})
	m.mu.Unlock()
	_, err := m.InsertVote(ctx, vote)
	return err
}

func (m *MemStore) GetTrainingData(_ context.Context, editID int64) (*core.TrainingData, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	td, ok := m.Training[editID]
	if !ok {
		return nil, notFound("training data for edit", editID)
	}
	cp := *td
	return &cp, nil
}

func (m *MemStore) GetRevisions(_ context.Context, editID int64) (*core.Revision, *core.Revision, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var current, previous *core.Revision
	if r, ok := m.Current[editID]; ok {
		cp := *r
		current = &cp
	}
	if r, ok := m.Previous[editID]; ok {
		cp := *r
		previous = &cp
	}
	return current, previous, nil
}

func (m *MemStore) SaveTrainingData(_ context.Context, data *core.TrainingData, current, previous *core.Revision) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.Edits[data.EditID]; !ok {
		return notFound("edit", data.EditID)
	}
	td := *data
	m.Training[data.EditID] = &td
	if current != nil {
		cp := *current
		cp.EditID = data.EditID
		m.Current[data.EditID] = &cp
	}
	if previous != nil {
		cp := *previous
		cp.EditID = data.EditID
		cp.IsCreation = false
		m.Previous[data.EditID] = &cp
	} else {
		delete(m.Previous, data.EditID)
	}
	_, err := m.refreshLocked(data.EditID)
	return err
}

func (m *MemStore) GetScoreData(_ context.Context, editID int64) (*core.ScoreData, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sd, ok := m.Scores[editID]
	if !ok {
		return nil, notFound("scores for edit", editID)
	}
	cp := *sd
	return &cp, nil
}

func (m *MemStore) scoresLocked(editID int64) *core.ScoreData {
	sd, ok := m.Scores[editID]
	if !ok {
		sd = &core.ScoreData{EditID: editID}
		m.Scores[editID] = sd
	}
	return sd
}

func (m *MemStore) SaveRevertedScore(_ context.Context, editID int64, score float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scoresLocked(editID).Reverted = &score
	return nil
}

func (m *MemStore) SaveTrainingScore(_ context.Context, editID int64, score float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scoresLocked(editID).Training = &score
	return nil
}
