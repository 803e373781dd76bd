package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sevigo/cbng-reviewer/internal/core"
	"github.com/sevigo/cbng-reviewer/internal/review"
	"github.com/sevigo/cbng-reviewer/internal/server/handler"
	"github.com/sevigo/cbng-reviewer/internal/storage/storagetest"
	"github.com/sevigo/cbng-reviewer/internal/training"
)

var discard = slog.New(slog.DiscardHandler)

func newTestServer(t *testing.T, store *storagetest.MemStore) *httptest.Server {
	t.Helper()
	service := review.NewService(store, nil, nil, review.DefaultOptions(2), discard)
	metrics := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("cbng_up 1\n"))
	})
	srv := httptest.NewServer(NewRouter(store, service, metrics, discard))
	t.Cleanup(srv.Close)
	return srv
}

func get(t *testing.T, srv *httptest.Server, path string, headers ...string) (int, http.Header, string) {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, srv.URL+path, nil)
	require.NoError(t, err)
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, resp.Header, string(body)
}

func classify(t *testing.T, srv *httptest.Server, reviewer, body string) (int, string) {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, srv.URL+"/api/v1/reviewer/classify-edit", bytes.NewBufferString(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if reviewer != "" {
		req.Header.Set(handler.ReviewerHeader, reviewer)
	}
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	out, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, strings.TrimSpace(string(out))
}

// putTrainable stores a Done edit with complete training data.
func putTrainable(t *testing.T, store *storagetest.MemStore, id int64, c core.Classification) {
	t.Helper()
	store.PutEdit(core.Edit{ID: id, Status: core.StatusDone, Classification: core.ClassificationPtr(c)})
	td, current, previous, err := training.ToTrainingData(&core.CandidateRecord{
		EditID:              id,
		Title:               "Example",
		User:                "Editor",
		UserEditCount:       core.IntPtr(4),
		UserDistinctPages:   core.IntPtr(2),
		UserWarns:           core.IntPtr(0),
		UserRegTime:         core.Int64Ptr(1500000000),
		PageMadeTime:        core.Int64Ptr(1400000000),
		Creator:             "Creator",
		NumRecentEdits:      core.IntPtr(0),
		NumRecentReversions: core.IntPtr(0),
		Current:             &core.Revision{Timestamp: core.Int64Ptr(1700000000), Text: core.StringPtr("text"), IsCreation: true},
	})
	require.NoError(t, err)
	require.NoError(t, store.SaveTrainingData(context.Background(), td, current, previous))
}

func addToGroup(t *testing.T, store *storagetest.MemStore, group *core.EditGroup, ids ...int64) {
	t.Helper()
	for _, id := range ids {
		_, err := store.AddEditToGroup(context.Background(), id, group.ID)
		require.NoError(t, err)
	}
}

func mustGroup(t *testing.T, store *storagetest.MemStore, g core.EditGroup) *core.EditGroup {
	t.Helper()
	group, err := store.GetOrCreateGroup(context.Background(), &g)
	require.NoError(t, err)
	return group
}

func TestHealthAndMetrics(t *testing.T) {
	srv := newTestServer(t, storagetest.New())

	status, _, body := get(t, srv, "/health")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "OK", body)

	status, _, body = get(t, srv, "/internal/metrics/")
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "cbng_up 1")
}

func TestDumpWPEdit(t *testing.T) {
	store := storagetest.New()
	putTrainable(t, store, 1234, core.ClassificationVandalism)
	store.PutEdit(core.Edit{ID: 55})
	srv := newTestServer(t, store)

	status, header, body := get(t, srv, "/api/v1/edit/1234/dump-wpedit/")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "text/xml", header.Get("Content-Type"))
	assert.True(t, strings.HasPrefix(body, "<WPEdit>\n"), body)
	assert.Contains(t, body, "<EditID>1234</EditID>")
	assert.Contains(t, body, "<isVandalism>true</isVandalism>")

	tests := []struct {
		path string
		want int
	}{
		{"/api/v1/edit/55/dump-wpedit", http.StatusNotFound},
		{"/api/v1/edit/99/dump-wpedit", http.StatusNotFound},
		{"/api/v1/edit/abc/dump-wpedit", http.StatusBadRequest},
	}
	for _, tt := range tests {
		status, _, _ := get(t, srv, tt.path)
		assert.Equal(t, tt.want, status, tt.path)
	}
}

func TestDumpEditSet(t *testing.T) {
	store := storagetest.New()
	putTrainable(t, store, 1, core.ClassificationConstructive)
	putTrainable(t, store, 2, core.ClassificationVandalism)
	store.PutEdit(core.Edit{ID: 3})

	parent := mustGroup(t, store, core.EditGroup{Name: "Training"})
	child := mustGroup(t, store, core.EditGroup{Name: "Legacy", RelatedTo: &parent.ID})
	addToGroup(t, store, parent, 1, 3)
	addToGroup(t, store, child, 2)
	srv := newTestServer(t, store)

	status, header, body := get(t, srv, "/api/v1/edit-groups/1/dump-editset")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "text/xml", header.Get("Content-Type"))
	assert.True(t, strings.HasPrefix(body, "<WPEditSet>\n <WPEdit>\n"), body)
	assert.True(t, strings.HasSuffix(body, "</WPEditSet>\n"), body)
	assert.Equal(t, 1, strings.Count(body, "<EditID>"))
	assert.Contains(t, body, "<source>Training</source>")

	_, _, body = get(t, srv, "/api/v1/edit-groups/1/dump-editset?expand=1")
	assert.Equal(t, 2, strings.Count(body, "<EditID>"))
	assert.Equal(t, 2, strings.Count(body, "<source>Training</source>"), "the requested group is the source of every edit")

	status, _, _ = get(t, srv, "/api/v1/edit-groups/42/dump-editset")
	assert.Equal(t, http.StatusNotFound, status)
}

func TestReportStatus(t *testing.T) {
	store := storagetest.New()
	store.PutEdit(core.Edit{ID: 1})
	store.PutEdit(core.Edit{ID: 2, Status: core.StatusDone, Classification: core.ClassificationPtr(core.ClassificationVandalism)})
	store.PutEdit(core.Edit{ID: 3, Status: core.StatusPartial, IsDeleted: true})
	store.PutEdit(core.Edit{ID: 4, Status: core.StatusDone, IsDeleted: true, Classification: core.ClassificationPtr(core.ClassificationSkipped)})

	reports := mustGroup(t, store, core.EditGroup{Name: "Report Interface Import", Type: core.GroupTypeReportedFalsePositive})
	generic := mustGroup(t, store, core.EditGroup{Name: "Sampled"})
	addToGroup(t, store, reports, 1, 2, 3, 4)
	srv := newTestServer(t, store)

	status, _, body := get(t, srv, "/api/v1/edit-groups/1/dump-report-status")
	require.Equal(t, http.StatusOK, status)
	var got map[string]int
	require.NoError(t, json.Unmarshal([]byte(body), &got))
	assert.Equal(t, map[string]int{"1": 0, "2": 2, "3": 5}, got)

	status, _, _ = get(t, srv, "/api/v1/edit-groups/2/dump-report-status")
	assert.Equal(t, http.StatusNotFound, status, "only reporting groups have a report status")
	assert.Equal(t, int64(2), generic.ID)
}

func TestListGroups(t *testing.T) {
	store := storagetest.New()
	putTrainable(t, store, 1, core.ClassificationConstructive)
	store.PutEdit(core.Edit{ID: 2})

	parent := mustGroup(t, store, core.EditGroup{Name: "Training", Weight: 10})
	child := mustGroup(t, store, core.EditGroup{Name: "Legacy", RelatedTo: &parent.ID})
	pending := mustGroup(t, store, core.EditGroup{Name: "Pending"})
	addToGroup(t, store, child, 1)
	addToGroup(t, store, pending, 2)
	srv := newTestServer(t, store)

	names := func(body string) []string {
		var groups []core.EditGroup
		require.NoError(t, json.Unmarshal([]byte(body), &groups))
		var out []string
		for _, g := range groups {
			out = append(out, g.Name)
		}
		return out
	}

	_, _, body := get(t, srv, "/api/v1/edit-groups")
	assert.ElementsMatch(t, []string{"Training", "Legacy", "Pending"}, names(body))

	_, _, body = get(t, srv, "/api/v1/edit-groups?exclude_empty_editsets=1")
	assert.ElementsMatch(t, []string{"Training", "Legacy"}, names(body))

	status, _, body := get(t, srv, "/api/v1/edit-groups/3")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, []string{"Pending"}, names("["+body+"]"))
}

func TestClassifyEdit(t *testing.T) {
	store := storagetest.New()
	store.PutEdit(core.Edit{ID: 10})
	srv := newTestServer(t, store)

	tests := []struct {
		name     string
		reviewer string
		body     string
		status   int
		want     string
	}{
		{"no reviewer", "", `{"edit_id":10,"classification":0}`, http.StatusUnauthorized, "Reviewer required"},
		{"bad body", "alice", `{`, http.StatusBadRequest, "Invalid request body"},
		{"missing classification", "alice", `{"edit_id":10}`, http.StatusBadRequest, "Invalid classification"},
		{"unknown classification", "alice", `{"edit_id":10,"classification":7}`, http.StatusBadRequest, "Invalid classification"},
		{"unknown edit", "alice", `{"edit_id":99,"classification":0}`, http.StatusNotFound, "404 page not found"},
		{"stored", "alice", `{"edit_id":10,"classification":0,"comment":"  "}`, http.StatusOK, `{"message":"Review stored"}`},
		{"repeated", "alice", `{"edit_id":10,"classification":0}`, http.StatusOK, `{"message":"Review already stored"}`},
		{"changed", "alice", `{"edit_id":10,"classification":1}`, http.StatusOK, `{"require_confirmation":true}`},
		{"confirmed", "alice", `{"edit_id":10,"classification":1,"confirmation":true}`, http.StatusOK, `{"message":"Review stored"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := classify(t, srv, tt.reviewer, tt.body)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.want, body)
		})
	}

	votes, err := store.VotesForEdit(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, votes, 1)
	assert.Equal(t, core.ClassificationConstructive, votes[0].Classification)
	assert.Nil(t, votes[0].Comment)
	assert.Equal(t, core.StatusPartial, store.Edit(10).Status)
}

func TestNextEdit(t *testing.T) {
	store := storagetest.New()
	store.PutEdit(core.Edit{ID: 5})
	store.PutEdit(core.Edit{ID: 6})
	low := mustGroup(t, store, core.EditGroup{Name: "Low", Weight: 1})
	high := mustGroup(t, store, core.EditGroup{Name: "High", Weight: 40})
	addToGroup(t, store, low, 5)
	addToGroup(t, store, high, 6)
	srv := newTestServer(t, store)

	status, _, _ := get(t, srv, "/api/v1/reviewer/next-edit")
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _, body := get(t, srv, "/api/v1/reviewer/next-edit", handler.ReviewerHeader, "alice")
	assert.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"edit_id":6}`, body)

	for _, id := range []int64{5, 6} {
		_, err := store.InsertVote(context.Background(), &core.Vote{EditID: id, Reviewer: "alice"})
		require.NoError(t, err)
	}
	_, _, body = get(t, srv, "/api/v1/reviewer/next-edit", handler.ReviewerHeader, "alice")
	assert.JSONEq(t, `{"edit_id":null,"message":"No Pending Edit Found"}`, body)
}

func TestStats(t *testing.T) {
	store := storagetest.New()
	srv := newTestServer(t, store)

	_, _, body := get(t, srv, "/api/v1/stats")
	assert.JSONEq(t, `[]`, body)

	store.PutEdit(core.Edit{ID: 1})
	store.PutEdit(core.Edit{ID: 2, Status: core.StatusPartial})
	addToGroup(t, store, mustGroup(t, store, core.EditGroup{Name: "Sampled", Weight: 40}), 1, 2)

	_, _, body = get(t, srv, "/api/v1/stats")
	assert.JSONEq(t, `[{"id":1,"name":"Sampled","weight":40,"pending":1,"in_progress":1,"done":0}]`, body)
}
