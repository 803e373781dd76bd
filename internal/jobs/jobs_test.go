package jobs

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/sevigo/cbng-reviewer/internal/config"
	"github.com/sevigo/cbng-reviewer/internal/core"
	"github.com/sevigo/cbng-reviewer/internal/editset"
	"github.com/sevigo/cbng-reviewer/internal/metrics"
	"github.com/sevigo/cbng-reviewer/internal/review"
	"github.com/sevigo/cbng-reviewer/internal/storage/storagetest"
	"github.com/sevigo/cbng-reviewer/internal/training"
	"github.com/sevigo/cbng-reviewer/mocks"
)

var discard = slog.New(slog.DiscardHandler)

type funcJob struct {
	name string
	fn   func(ctx context.Context, id int64) error
}

func (j funcJob) Name() string                            { return j.name }
func (j funcJob) Run(ctx context.Context, id int64) error { return j.fn(ctx, id) }

type recordingObserver struct {
	mu    sync.Mutex
	items map[string]int
	runs  []string
}

func (o *recordingObserver) ObserveItem(_, result string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.items == nil {
		o.items = map[string]int{}
	}
	o.items[result]++
}

func (o *recordingObserver) ObserveRun(operation string, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.runs = append(o.runs, operation)
}

func TestOrchestrator_Run(t *testing.T) {
	observer := &recordingObserver{}
	orch := NewOrchestrator(storagetest.New(), observer, discard)

	var inFlight, peak atomic.Int64
	job := funcJob{name: "test", fn: func(_ context.Context, id int64) error {
		n := inFlight.Add(1)
		defer inFlight.Add(-1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		switch id % 4 {
		case 1:
			return core.ErrSkipped
		case 2:
			return errors.New("lookup failed")
		case 3:
			panic("boom")
		}
		return nil
	}}

	ids := []int64{0, 1, 2, 3, 4, 5, 6, 7}
	report := orch.Run(context.Background(), job, ids, 3)

	assert.Equal(t, "test", report.Operation)
	assert.Equal(t, 8, report.Total)
	assert.Equal(t, 2, report.OK)
	assert.Equal(t, 2, report.Skipped)
	assert.Equal(t, 4, report.Failed, "errors and panics both count as failures")
	assert.LessOrEqual(t, peak.Load(), int64(3))

	assert.Equal(t, map[string]int{metrics.ResultOK: 2, metrics.ResultSkipped: 2, metrics.ResultFailed: 4}, observer.items)
	assert.Equal(t, []string{"test"}, observer.runs)
}

func TestOrchestrator_CancelledContext(t *testing.T) {
	orch := NewOrchestrator(storagetest.New(), nil, discard)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var calls atomic.Int64
	job := funcJob{name: "test", fn: func(context.Context, int64) error {
		calls.Add(1)
		return nil
	}}
	report := orch.Run(ctx, job, []int64{1, 2}, 0)
	assert.Equal(t, 2, report.Failed)
	assert.Zero(t, calls.Load())
}

func TestOrchestrator_Select(t *testing.T) {
	store := storagetest.New()
	ctx := context.Background()
	for _, id := range []int64{1, 2, 3} {
		store.PutEdit(core.Edit{ID: id})
	}
	group, err := store.GetOrCreateGroup(ctx, &core.EditGroup{Name: "G"})
	require.NoError(t, err)
	_, err = store.AddEditToGroup(ctx, 2, group.ID)
	require.NoError(t, err)

	orch := NewOrchestrator(store, nil, discard)

	ids, err := orch.Select(ctx, Population{})
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2, 3}, ids)

	id := int64(3)
	ids, err = orch.Select(ctx, Population{EditID: &id})
	require.NoError(t, err)
	assert.Equal(t, []int64{3}, ids)

	ids, err = orch.Select(ctx, Population{GroupID: &group.ID})
	require.NoError(t, err)
	assert.Equal(t, []int64{2}, ids)
}

func TestUpdateClassificationJob(t *testing.T) {
	store := storagetest.New()
	ctx := context.Background()
	store.PutEdit(core.Edit{ID: 1234})
	for _, reviewer := range []string{"a", "b"} {
		_, err := store.InsertVote(ctx, &core.Vote{EditID: 1234, Reviewer: reviewer, Classification: core.ClassificationVandalism})
		require.NoError(t, err)
	}

	service := review.NewService(store, nil, nil, review.DefaultOptions(2), discard)
	orch := NewOrchestrator(store, nil, discard)

	report, err := orch.RunPopulation(ctx, &UpdateClassification{Service: service}, Population{}, 5)
	require.NoError(t, err)
	assert.Equal(t, 1, report.OK)

	edit := store.Edit(1234)
	assert.Equal(t, core.StatusDone, edit.Status)
	assert.True(t, edit.IsClassifiedAs(core.ClassificationVandalism))

	report, err = orch.RunPopulation(ctx, &UpdateClassification{Service: service}, Population{}, 5)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Skipped, "an unchanged edit is skipped")
}

type staticChecker map[int64]bool

func (c staticChecker) RevisionDeleted(_ context.Context, id int64) (bool, error) {
	return c[id], nil
}

func TestResolveDeletionJob(t *testing.T) {
	store := storagetest.New()
	store.PutEdit(core.Edit{ID: 1})
	store.PutEdit(core.Edit{ID: 2})

	service := review.NewService(store, staticChecker{1: true}, nil, review.DefaultOptions(2), discard)
	report := NewOrchestrator(store, nil, discard).Run(context.Background(), &ResolveDeletion{Service: service}, []int64{1, 2}, 20)

	assert.Equal(t, 1, report.OK)
	assert.Equal(t, 1, report.Skipped)
	assert.Nil(t, store.Edit(1), "a dangling deleted edit is removed")
	assert.NotNil(t, store.Edit(2))
}

func TestMarkTrainingFlagJob(t *testing.T) {
	store := storagetest.New()
	store.PutEdit(core.Edit{ID: 1, HasTrainingData: true})

	report := NewOrchestrator(store, nil, discard).Run(context.Background(), &MarkTrainingFlag{Store: store}, []int64{1}, 1)
	assert.Equal(t, 1, report.OK)
	assert.False(t, store.Edit(1).HasTrainingData, "the flag follows the stored data")
}

type fakeScorer struct {
	score float64
	ok    bool
	calls []int64
}

func (f *fakeScorer) Score(_ context.Context, editID int64, wpEdit string) (float64, bool) {
	f.calls = append(f.calls, editID)
	return f.score, f.ok && wpEdit != ""
}

func storeWithTrainingData(t *testing.T, id int64) *storagetest.MemStore {
	t.Helper()
	store := storagetest.New()
	store.PutEdit(core.Edit{ID: id, Status: core.StatusDone, Classification: core.ClassificationPtr(core.ClassificationConstructive)})
	td, current, previous, err := training.ToTrainingData(completeRecord(id))
	require.NoError(t, err)
	require.NoError(t, store.SaveTrainingData(context.Background(), td, current, previous))
	return store
}

func completeRecord(id int64) *core.CandidateRecord {
	return &core.CandidateRecord{
		EditID:              id,
		Title:               "Example",
		Comment:             "fix",
		User:                "Editor",
		UserEditCount:       core.IntPtr(10),
		UserDistinctPages:   core.IntPtr(3),
		UserWarns:           core.IntPtr(0),
		UserRegTime:         core.Int64Ptr(1500000000),
		PageMadeTime:        core.Int64Ptr(1400000000),
		Creator:             "Creator",
		NumRecentEdits:      core.IntPtr(1),
		NumRecentReversions: core.IntPtr(0),
		IsVandalism:         new(bool),
		Current:             &core.Revision{Timestamp: core.Int64Ptr(1700000000), Text: core.StringPtr("new"), IsCreation: true},
		EditDBSource:        "Imported Source",
	}
}

func TestImportTrainingScoreJob(t *testing.T) {
	ctx := context.Background()
	store := storeWithTrainingData(t, 7)
	store.PutEdit(core.Edit{ID: 8})
	scorer := &fakeScorer{score: 0.25, ok: true}

	orch := NewOrchestrator(store, nil, discard)
	report := orch.Run(ctx, &ImportTrainingScore{Store: store, Scorer: scorer}, []int64{7, 8}, 2)
	assert.Equal(t, 1, report.OK)
	assert.Equal(t, 1, report.Skipped, "edits without training data cannot be dumped")

	scores, err := store.GetScoreData(ctx, 7)
	require.NoError(t, err)
	assert.InDelta(t, 0.25, *scores.Training, 0)

	report = orch.Run(ctx, &ImportTrainingScore{Store: store, Scorer: scorer}, []int64{7}, 1)
	assert.Equal(t, 1, report.Skipped, "an existing score is kept unless forced")

	scorer.score = 0.5
	report = orch.Run(ctx, &ImportTrainingScore{Store: store, Scorer: scorer, Force: true}, []int64{7}, 1)
	assert.Equal(t, 1, report.OK)
	scores, err = store.GetScoreData(ctx, 7)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, *scores.Training, 0)
}

func TestImportTrainingScoreJob_NoScore(t *testing.T) {
	store := storeWithTrainingData(t, 7)
	report := NewOrchestrator(store, nil, discard).Run(context.Background(),
		&ImportTrainingScore{Store: store, Scorer: &fakeScorer{}}, []int64{7}, 1)
	assert.Equal(t, 1, report.Failed)
}

type fakeReports struct {
	scores map[int64]float64
	ids    []int64
	err    error
}

func (f *fakeReports) VandalismScore(_ context.Context, id int64) (float64, bool, error) {
	if f.err != nil {
		return 0, false, f.err
	}
	s, ok := f.scores[id]
	return s, ok, nil
}

func (f *fakeReports) EditIDsRequiringReview(context.Context, bool) ([]int64, error) {
	return f.ids, f.err
}

func TestImportVandalismScoreJob(t *testing.T) {
	ctx := context.Background()
	store := storagetest.New()
	store.PutEdit(core.Edit{ID: 1})
	store.PutEdit(core.Edit{ID: 2})
	reports := &fakeReports{scores: map[int64]float64{1: 0.97}}

	report := NewOrchestrator(store, nil, discard).Run(ctx, &ImportVandalismScore{Store: store, Reports: reports}, []int64{1, 2}, 2)
	assert.Equal(t, 1, report.OK)
	assert.Equal(t, 1, report.Skipped)

	scores, err := store.GetScoreData(ctx, 1)
	require.NoError(t, err)
	assert.InDelta(t, 0.97, *scores.Reverted, 0)
	assert.Nil(t, scores.Training)
}

func TestReportedPopulation(t *testing.T) {
	ctx := context.Background()
	store := storagetest.New()

	_, ok, err := ReportedPopulation(ctx, store)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = store.GetOrCreateGroup(ctx, &core.EditGroup{Name: "Generic"})
	require.NoError(t, err)
	reported, err := store.GetOrCreateGroup(ctx, &core.EditGroup{Name: "Reports", Type: core.GroupTypeReportedFalsePositive})
	require.NoError(t, err)

	p, ok, err := ReportedPopulation(ctx, store)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []int64{reported.ID}, p.Filter.GroupIDs)
	require.NotNil(t, p.Filter.IsDeleted)
	assert.False(t, *p.Filter.IsDeleted)
}

type fakeSamples struct {
	ids       []int64
	namespace int
	limit     int
	from, to  time.Time
}

func (f *fakeSamples) SampledEdits(_ context.Context, namespace int, from, to time.Time, limit int) ([]int64, error) {
	f.namespace, f.from, f.to, f.limit = namespace, from, to, limit
	return f.ids, nil
}

func testConfig() *config.Config {
	return &config.Config{
		Review: config.ReviewConfig{
			SampledEditsQuantity:     2,
			SampledEditsLookbackDays: 7,
			SampledEditsNamespace:    0,
			SampledEditSet:           config.EditSetConfig{Name: "Sampled Main Namespace Edits", Weight: 40},
			ReportEditSet:            config.EditSetConfig{Name: "Report Interface Import"},
			DanglingEditSet:          config.EditSetConfig{Name: "Dangling Edits"},
		},
		Workers: config.WorkersConfig{Default: 2},
	}
}

type recordingDispatcher struct {
	mu     sync.Mutex
	events []core.Event
}

func (d *recordingDispatcher) Dispatch(_ context.Context, events ...core.Event) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, events...)
	return nil
}

func newTestImporter(t *testing.T, store *storagetest.MemStore, samples SampleSource, reports ReportExporter) (*Importer, *recordingDispatcher) {
	t.Helper()
	ctrl := gomock.NewController(t)
	source := mocks.NewMockContentSource(ctrl)
	source.EXPECT().RevisionDeleted(gomock.Any(), gomock.Any()).Return(false, nil).AnyTimes()
	source.EXPECT().EditMetadata(gomock.Any(), gomock.Any()).Return(nil, errors.New("not reachable")).AnyTimes()

	trainer := training.NewImporter(store, training.NewAggregator(source, 14*24*time.Hour, discard), discard)
	dispatcher := &recordingDispatcher{}
	importer := NewImporter(store, samples, reports, trainer, NewOrchestrator(store, nil, discard), dispatcher, testConfig(), discard)
	importer.now = func() time.Time { return time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC) }
	return importer, dispatcher
}

func TestSeedSampledEdits(t *testing.T) {
	ctx := context.Background()
	store := storagetest.New()
	store.PutEdit(core.Edit{ID: 20})
	samples := &fakeSamples{ids: []int64{10, 20}}
	importer, dispatcher := newTestImporter(t, store, samples, nil)

	summary, err := importer.SeedSampledEdits(ctx)
	require.NoError(t, err)

	assert.Equal(t, 2, samples.limit)
	assert.Equal(t, time.Date(2024, 3, 3, 12, 0, 0, 0, time.UTC), samples.from)
	assert.Equal(t, 2, summary.Seen)
	assert.Equal(t, 1, summary.Created)
	assert.Equal(t, 2, summary.Added)
	require.NotNil(t, summary.Training)
	assert.Equal(t, 1, summary.Training.Total)
	assert.Equal(t, 1, summary.Training.Skipped, "incomplete training data is skipped")

	group, err := store.GetGroupByName(ctx, "Sampled Main Namespace Edits")
	require.NoError(t, err)
	assert.Equal(t, 40, group.Weight)

	require.Len(t, dispatcher.events, 1)
	assert.Equal(t, core.EventEditCreated, dispatcher.events[0].Type)
	assert.Equal(t, int64(10), dispatcher.events[0].EditID)
}

func TestImportReportedEdits(t *testing.T) {
	ctx := context.Background()
	store := storagetest.New()
	importer, _ := newTestImporter(t, store, nil, &fakeReports{ids: []int64{5}})

	summary, err := importer.ImportReportedEdits(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Created)

	groups, err := store.GroupsForEdit(ctx, 5)
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.True(t, groups[0].Type.IsReporting())

	_, err = (&Importer{reports: &fakeReports{err: errors.New("down")}, store: store, cfg: testConfig().Review}).ImportReportedEdits(ctx, true)
	assert.Error(t, err)
}

func TestAddDanglingEdits(t *testing.T) {
	ctx := context.Background()
	store := storagetest.New()
	store.PutEdit(core.Edit{ID: 1})
	store.PutEdit(core.Edit{ID: 2})
	g, err := store.GetOrCreateGroup(ctx, &core.EditGroup{Name: "Existing"})
	require.NoError(t, err)
	_, err = store.AddEditToGroup(ctx, 1, g.ID)
	require.NoError(t, err)

	importer, _ := newTestImporter(t, store, nil, nil)
	summary, err := importer.AddDanglingEdits(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Seen)
	assert.Equal(t, 1, summary.Added)

	groups, err := store.GroupsForEdit(ctx, 2)
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, "Dangling Edits", groups[0].Name)

	summary, err = importer.AddDanglingEdits(ctx)
	require.NoError(t, err)
	assert.Zero(t, summary.Seen)
}

func editSetDocument(t *testing.T) *bytes.Buffer {
	t.Helper()
	source := storeWithTrainingData(t, 1234)
	edit := source.Edit(1234)
	edit.Classification = core.ClassificationPtr(core.ClassificationVandalism)
	edit.NumberOfReviewers = 3
	edit.NumberOfAgreeingReviewers = 2
	source.PutEdit(*edit)

	var buf bytes.Buffer
	_, err := editset.WriteGroup(context.Background(), source, &buf, &core.EditGroup{Name: "Imported Source"}, []int64{1234}, discard)
	require.NoError(t, err)
	return &buf
}

func TestImportEditSet(t *testing.T) {
	ctx := context.Background()
	store := storagetest.New()
	importer, _ := newTestImporter(t, store, nil, nil)

	summary, err := importer.ImportEditSet(ctx, editSetDocument(t), EditSetImport{
		Group:         "Train",
		Parent:        "Original Training Set - D",
		DynamicGroups: true,
	})
	require.NoError(t, err)
	assert.Equal(t, &EditSetSummary{Records: 1, Created: 1, Added: 1, Imported: 1}, summary)

	edit := store.Edit(1234)
	assert.Equal(t, core.StatusDone, edit.Status)
	assert.True(t, edit.IsClassifiedAs(core.ClassificationVandalism))
	assert.Equal(t, 3, edit.NumberOfReviewers)
	assert.Equal(t, 2, edit.NumberOfAgreeingReviewers)
	assert.True(t, edit.HasTrainingData)

	groups, err := store.GroupsForEdit(ctx, 1234)
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, "Imported Source", groups[0].Name)
	train, err := store.GetGroup(ctx, *groups[0].RelatedTo)
	require.NoError(t, err)
	assert.Equal(t, "Train", train.Name)
	require.NotNil(t, train.RelatedTo)

	summary, err = importer.ImportEditSet(ctx, editSetDocument(t), EditSetImport{Group: "Train", Parent: "Original Training Set - D", SkipExisting: true})
	require.NoError(t, err)
	assert.Equal(t, &EditSetSummary{Records: 1, Added: 1, Skipped: 1}, summary)
}

func TestImportEditSet_RequiresGroup(t *testing.T) {
	importer, _ := newTestImporter(t, storagetest.New(), nil, nil)
	_, err := importer.ImportEditSet(context.Background(), bytes.NewBufferString("<WPEditSet></WPEditSet>"), EditSetImport{})
	assert.Error(t, err)
}
