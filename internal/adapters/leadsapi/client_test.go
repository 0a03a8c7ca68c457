package leadsapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"satark-portal/internal/domain/model"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(srv.URL, 5*time.Second, nil)
}

func TestListPublicLeads_QueryAndShapes(t *testing.T) {
	t.Parallel()

	var (
		mu       sync.Mutex
		gotQuery string
		calls    int
	)
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		calls++
		if r.URL.Path != "/api/leads/public-leads" {
			t.Fatalf("path=%s", r.URL.Path)
		}
		gotQuery = r.URL.RawQuery
		if calls == 1 {
			_, _ = io.WriteString(w, `[{"id":"a"},{"id":"b"}]`)
			return
		}
		_, _ = io.WriteString(w, `{"leads":[{"id":"c"}]}`)
	})

	leads, err := c.ListPublicLeads(context.Background(), model.FeedQuery{Limit: 10, Offset: 20, Status: "WANTED", Search: " ", Sort: "newest"})
	require.NoError(t, err)
	require.Len(t, leads, 2)
	mu.Lock()
	assert.Equal(t, "limit=10&offset=20&sort=newest&status=WANTED", gotQuery)
	mu.Unlock()

	leads, err = c.ListPublicLeads(context.Background(), model.FeedQuery{})
	require.NoError(t, err)
	require.Len(t, leads, 1)
	assert.Equal(t, "c", leads[0].ID)
	mu.Lock()
	assert.Equal(t, "", gotQuery)
	mu.Unlock()
}

func TestListPublicLeads_UnexpectedShape(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"message":"ok"}`)
	})
	_, err := c.ListPublicLeads(context.Background(), model.FeedQuery{Limit: 10})
	assert.ErrorIs(t, err, ErrUnexpectedShape)
}

func TestGetLead_BearerAndErrors(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/leads/ok":
			if r.Header.Get("Authorization") != "Bearer tok-1" {
				t.Fatalf("auth=%q", r.Header.Get("Authorization"))
			}
			_, _ = io.WriteString(w, `{"id":"ok","status":"WANTED","details":"{\"name\":\"R\"}"}`)
		case "/api/leads/gone":
			w.WriteHeader(http.StatusNotFound)
			_, _ = io.WriteString(w, `{"error":"Lead not found"}`)
		case "/api/leads/denied":
			w.WriteHeader(http.StatusForbidden)
		}
	})

	var cleared []string
	c.OnUnauthorized = func(_ context.Context, s Session) { cleared = append(cleared, s.ID) }
	s := Session{ID: "sess-1", Token: "tok-1"}

	lead, err := c.GetLead(context.Background(), s, "ok")
	require.NoError(t, err)
	assert.Equal(t, "R", lead.ParsedDetails().String("name"))

	_, err = c.GetLead(context.Background(), s, "gone")
	require.ErrorIs(t, err, ErrNotFound)
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "Lead not found", apiErr.Message)

	_, err = c.GetLead(context.Background(), s, "denied")
	require.ErrorIs(t, err, ErrUnauthorized)
	assert.Equal(t, []string{"sess-1"}, cleared)
}

func TestOfficerActions(t *testing.T) {
	t.Parallel()

	type call struct {
		Method string
		Path   string
		Body   map[string]any
	}
	var (
		mu    sync.Mutex
		calls []call
	)
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		mu.Lock()
		calls = append(calls, call{r.Method, r.URL.Path, body})
		mu.Unlock()
		_, _ = io.WriteString(w, `{"success":true}`)
	})
	s := Session{Token: "t"}
	ctx := context.Background()

	require.NoError(t, c.TogglePin(ctx, s, "L1"))
	require.NoError(t, c.Rate(ctx, s, "L1", 4))
	require.NoError(t, c.UpdateNotes(ctx, s, "L1", "check CCTV"))
	require.NoError(t, c.UpdateStatus(ctx, s, "L1", model.StatusUpdate{Status: model.StatusUnpublish}))
	require.Error(t, c.Rate(ctx, s, "L1", 6))

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, calls, 4)
	assert.Equal(t, call{http.MethodPatch, "/api/leads/L1/pin", nil}, calls[0])
	assert.Equal(t, call{http.MethodPatch, "/api/leads/L1/rate", map[string]any{"rating": float64(4)}}, calls[1])
	assert.Equal(t, call{http.MethodPatch, "/api/leads/L1/notes", map[string]any{"notes": "check CCTV"}}, calls[2])
	assert.Equal(t, call{http.MethodPut, "/api/leads/L1/status", map[string]any{"status": "UNPUBLISH"}}, calls[3])
}

func TestCreateLead_Multipart(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/leads" {
			t.Fatalf("%s %s", r.Method, r.URL.Path)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("parse multipart: %v", err)
		}
		var payload map[string]any
		if err := json.Unmarshal([]byte(r.FormValue("payload")), &payload); err != nil {
			t.Fatalf("payload: %v", err)
		}
		if payload["status"] != "MISSING" {
			t.Fatalf("status=%v", payload["status"])
		}
		files := r.MultipartForm.File["evidence"]
		if len(files) != 2 || files[0].Filename != "a.jpg" || files[1].Filename != "evidence-2" {
			t.Fatalf("files=%+v", files)
		}
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"lead":{"id":"new-1","token":"DP-77"}}`)
	})

	res, err := c.CreateLead(context.Background(), Session{}, map[string]any{"status": "MISSING"}, []Attachment{
		{Name: "a.jpg", ContentType: "image/jpeg", Data: []byte{0xff, 0xd8}},
		{Data: []byte("hello")},
	})
	require.NoError(t, err)
	assert.Equal(t, "new-1", res.Lead.ID)
	assert.Equal(t, "DP-77", res.Lead.Token)
}

func TestVoteAndHierarchy(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/leads/public-leads/L9/vote":
			_, _ = io.WriteString(w, `{"upvotes":12}`)
		case "/api/units/hierarchy":
			_, _ = io.WriteString(w, `{"districts":[{"id":"d1","name":"New Delhi"}],"policeStations":[{"id":"ps1","name":"Chanakyapuri"}]}`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	n, err := c.Vote(context.Background(), "L9")
	require.NoError(t, err)
	assert.Equal(t, 12, n)

	h, err := c.UnitHierarchy(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Chanakyapuri", h.PoliceStations[0].Name)
}

func TestTransportError(t *testing.T) {
	t.Parallel()

	c := New("http://127.0.0.1:1", time.Second, nil)
	_, err := c.ListPublicLeads(context.Background(), model.FeedQuery{})
	require.Error(t, err)
	var apiErr *APIError
	assert.False(t, errors.As(err, &apiErr))
}
