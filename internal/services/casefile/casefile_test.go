package casefile

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"satark-portal/internal/adapters/leadsapi"
	sqliteadapter "satark-portal/internal/adapters/store/sqlite"
	"satark-portal/internal/domain/model"
	"satark-portal/internal/services/auditverify"
)

var officer = leadsapi.Session{ID: "sess_1", Token: "bearer-1"}

func ts(day int) time.Time {
	return time.Date(2026, 5, day, 12, 0, 0, 0, time.UTC)
}

func threadFixture() []model.Lead {
	return []model.Lead{
		{ID: "M", Title: "master copy"},
		{ID: "t1", IsAnonymous: true, CreatedAt: ts(1)},
		{ID: "t2", IsAnonymous: false, CreatedAt: ts(3), InternalNotes: "verified"},
		{ID: "t3", IsAnonymous: true, IsPinned: true, CreatedAt: ts(2)},
		{ID: "t4", IsAnonymous: false, CreatedAt: ts(4)},
	}
}

type fakeBackend struct {
	mu        sync.Mutex
	leadCode  int
	threadErr bool
	failPatch bool
	requests  []string
	bodies    []string
}

func (f *fakeBackend) set(fn func(*fakeBackend)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fn(f)
}

func (f *fakeBackend) handler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		body, _ := io.ReadAll(r.Body)
		f.requests = append(f.requests, r.Method+" "+r.URL.Path)
		f.bodies = append(f.bodies, string(body))
		if r.Header.Get("Authorization") != "Bearer bearer-1" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		switch {
		case r.URL.Path == "/api/leads/internal-leads":
			if f.threadErr {
				w.WriteHeader(http.StatusInternalServerError)
				return
			}
			assert.Equal(t, "M", r.URL.Query().Get("parent_lead_id"))
			_ = json.NewEncoder(w).Encode(threadFixture())
		case r.Method == http.MethodGet && r.URL.Path == "/api/leads/M":
			if f.leadCode != 0 {
				w.WriteHeader(f.leadCode)
				_, _ = io.WriteString(w, `{"error":"nope"}`)
				return
			}
			_ = json.NewEncoder(w).Encode(model.Lead{ID: "M", Title: "Chain snatching, Karol Bagh", Status: "WANTED", IsPublic: true, RewardAmount: "25000", RewardStatus: "ACTIVE"})
		case r.Method == http.MethodPatch || r.Method == http.MethodPut:
			if f.failPatch {
				w.WriteHeader(http.StatusInternalServerError)
				return
			}
			_, _ = io.WriteString(w, `{"ok":true}`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}
}

type env struct {
	backend *fakeBackend
	svc     *Service
	store   *sqliteadapter.Store
	logs    *observer.ObservedLogs
}

func newEnv(t *testing.T) *env {
	t.Helper()
	b := &fakeBackend{}
	srv := httptest.NewServer(b.handler(t))
	t.Cleanup(srv.Close)

	db, err := sqliteadapter.Open(context.Background(), filepath.Join(t.TempDir(), "portal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	store := sqliteadapter.NewStore(db)

	core, logs := observer.New(zap.WarnLevel)
	client := leadsapi.New(srv.URL, 5*time.Second, nil)
	return &env{backend: b, svc: NewService(client, store, zap.New(core)), store: store, logs: logs}
}

func ids(items []model.Lead) []string {
	out := make([]string, len(items))
	for i, l := range items {
		out[i] = l.ID
	}
	return out
}

func TestLoad_ThreadSortedWithoutMaster(t *testing.T) {
	e := newEnv(t)
	c, err := e.svc.Load(context.Background(), officer, "M")
	require.NoError(t, err)
	require.False(t, c.Unavailable)
	assert.Equal(t, "Chain snatching, Karol Bagh", c.Lead.Title)
	assert.Equal(t, []string{"t3", "t4", "t2", "t1"}, ids(c.Thread))
}

func TestLoad_Unauthorized(t *testing.T) {
	e := newEnv(t)
	_, err := e.svc.Load(context.Background(), leadsapi.Session{Token: "expired"}, "M")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnauthorized))

	e.backend.set(func(b *fakeBackend) { b.leadCode = http.StatusForbidden })
	_, err = e.svc.Load(context.Background(), officer, "M")
	assert.True(t, errors.Is(err, ErrUnauthorized))
}

func TestLoad_NotFoundIsUnavailable(t *testing.T) {
	e := newEnv(t)
	e.backend.set(func(b *fakeBackend) { b.leadCode = http.StatusNotFound })
	c, err := e.svc.Load(context.Background(), officer, "M")
	require.NoError(t, err)
	assert.True(t, c.Unavailable)
	assert.Equal(t, "Case Unavailable", c.Title)
	assert.Equal(t, "The requested intelligence dossier (ID: M) could not be retrieved.", c.Message)
}

func TestLoad_ThreadFailureKeepsCase(t *testing.T) {
	e := newEnv(t)
	e.backend.set(func(b *fakeBackend) { b.threadErr = true })
	c, err := e.svc.Load(context.Background(), officer, "M")
	require.NoError(t, err)
	assert.False(t, c.Unavailable)
	assert.Empty(t, c.Thread)
	assert.Equal(t, 1, e.logs.FilterMessage("load case thread failed").Len())
}

func TestTabsAndTimeline(t *testing.T) {
	c := &Case{ID: "M", Thread: threadFixture()[1:]}
	tabs := c.Tabs()
	counts := map[Tab]int{}
	for _, tc := range tabs {
		counts[tc.Tab] = tc.Count
	}
	assert.Equal(t, map[Tab]int{TabAll: 4, TabAnonymous: 2, TabConfidential: 2, TabNotes: 1}, counts)

	assert.Equal(t, []string{"t3", "t1"}, ids(c.Timeline(TabAnonymous)))
	assert.Equal(t, []string{"t4", "t2"}, ids(c.Timeline(TabConfidential)))
	assert.Len(t, c.Timeline(TabNotes), 4)
	assert.Equal(t, TabAll, ParseTab("bogus"))
	assert.Equal(t, TabNotes, ParseTab(" NOTES "))
}

func TestSortThread_PinnedStrictlyFirst(t *testing.T) {
	items := []model.Lead{
		{ID: "a", CreatedAt: ts(9)},
		{ID: "b", IsPinned: true, CreatedAt: ts(1)},
		{ID: "c", IsPinned: true, CreatedAt: ts(5)},
		{ID: "d", CreatedAt: ts(10)},
	}
	SortThread(items)
	assert.Equal(t, []string{"c", "b", "d", "a"}, ids(items))
}

func TestActions_PatchOnSuccess(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	c, err := e.svc.Load(ctx, officer, "M")
	require.NoError(t, err)

	assert.True(t, e.svc.TogglePin(ctx, officer, c, "SI Sharma", "t1"))
	assert.True(t, e.svc.Rate(ctx, officer, c, "SI Sharma", "t1", 4))
	assert.True(t, e.svc.UpdateNotes(ctx, officer, c, "SI Sharma", "t1", "called informant"))

	var t1 model.Lead
	for _, l := range c.Thread {
		if l.ID == "t1" {
			t1 = l
		}
	}
	assert.True(t, t1.IsPinned)
	assert.Equal(t, 4, t1.IntelligenceRating)
	assert.Equal(t, "called informant", t1.InternalNotes)

	e.backend.mu.Lock()
	reqs := strings.Join(e.backend.requests, "\n")
	e.backend.mu.Unlock()
	assert.Contains(t, reqs, "PATCH /api/leads/t1/pin")
	assert.Contains(t, reqs, "PATCH /api/leads/t1/rate")
	assert.Contains(t, reqs, "PATCH /api/leads/t1/notes")

	res, err := auditverify.VerifyLead(ctx, e.store, "M")
	require.NoError(t, err)
	assert.True(t, res.OK)
	assert.Equal(t, 3, res.Total)
}

func TestActions_FailureDroppedAndLogged(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	c, err := e.svc.Load(ctx, officer, "M")
	require.NoError(t, err)
	e.backend.set(func(b *fakeBackend) { b.failPatch = true })

	assert.False(t, e.svc.TogglePin(ctx, officer, c, "SI Sharma", "t1"))
	for _, l := range c.Thread {
		if l.ID == "t1" {
			assert.False(t, l.IsPinned)
		}
	}
	assert.Equal(t, 1, e.logs.FilterMessage("officer action dropped").Len())

	events, err := e.store.ListAuditEvents(ctx, "M", 0)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "failed", events[0].Status)
}

func TestUnpublishAndClaim(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	c, err := e.svc.Load(ctx, officer, "M")
	require.NoError(t, err)

	err = e.svc.ClaimReward(ctx, officer, c, "SI Sharma", ClaimRequest{InformantToken: "TK-1"})
	require.Error(t, err)

	require.NoError(t, e.svc.ClaimReward(ctx, officer, c, "SI Sharma", ClaimRequest{InformantToken: "TK-1", Remarks: "arrest made"}))
	assert.Equal(t, "ACTIONED", c.Lead.Status)
	assert.Equal(t, "CLAIMED", c.Lead.RewardStatus)

	require.NoError(t, e.svc.Unpublish(ctx, officer, c, "SI Sharma"))
	assert.False(t, c.Lead.IsPublic)

	e.backend.mu.Lock()
	defer e.backend.mu.Unlock()
	n := len(e.backend.bodies)
	assert.JSONEq(t, `{"status":"UNPUBLISH"}`, e.backend.bodies[n-1])
	assert.JSONEq(t, `{"status":"ACTIONED","reward_action":"CLAIM","reward_data":{"token":"TK-1","remarks":"arrest made"}}`, e.backend.bodies[n-2])
}
