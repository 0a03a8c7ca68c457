package tips

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"satark-portal/internal/adapters/leadsapi"
	"satark-portal/internal/app"
	"satark-portal/internal/domain/schema"
)

func TestNewReport_Modes(t *testing.T) {
	r := NewReport("", "", "")
	assert.True(t, r.Anonymous)
	assert.False(t, r.Public)

	r = NewReport("named", "", "")
	assert.False(t, r.Anonymous)

	r = NewReport("public", "L-42", "Sighting near ISBT")
	assert.False(t, r.Anonymous)
	assert.True(t, r.Public)
	assert.Equal(t, "Sighting near ISBT", r.Title)
	assert.Equal(t, "Referencing Case ID: L-42\n\n", r.Description)
}

func TestPayload(t *testing.T) {
	r := Report{Anonymous: true, Name: "Someone", Contact: "999", UnitID: "ps1", Description: "saw him"}
	p := r.Payload()
	assert.Equal(t, DefaultTitle, p.IncidentDetails.Title)
	assert.Empty(t, p.IncidentDetails.Name)
	assert.Empty(t, p.IncidentDetails.Contact)
	assert.Equal(t, "ANONYMOUS", string(p.IdentityMode))
	assert.Equal(t, app.DefaultJurisdictionID, p.JurisdictionID)
	assert.Nil(t, p.ParentLeadID)

	raw, err := json.Marshal(p)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"parent_lead_id":null`)
	assert.Contains(t, string(raw), `"details":{}`)

	unit := "0b7e3f0c-5a7e-4d0e-9d35-7f1f2c6a1e11"
	r = Report{Name: "Asha", Contact: "98100", UnitID: unit, Ref: "L-9", Title: "Tip", IncidentTime: "bad"}
	p = r.Payload()
	assert.Equal(t, "NAMED", string(p.IdentityMode))
	assert.Equal(t, "Asha", p.IncidentDetails.Name)
	assert.Equal(t, unit, p.JurisdictionID)
	require.NotNil(t, p.ParentLeadID)
	assert.Equal(t, "L-9", *p.ParentLeadID)
	assert.Equal(t, "bad", p.IncidentTime)
}

func TestIncidentTime(t *testing.T) {
	local := time.Date(2026, 5, 1, 10, 30, 0, 0, time.Local)
	assert.Equal(t, local.UTC().Format("2006-01-02T15:04:05.000Z07:00"), incidentTime("2026-05-01T10:30"))
	assert.Empty(t, incidentTime(" "))
}

func newService(t *testing.T, h http.HandlerFunc) *Service {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewService(leadsapi.New(srv.URL, 5*time.Second, nil), nil)
}

func TestSubmit_ReturnsToken(t *testing.T) {
	var payload Payload
	var evidence []string
	svc := newService(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/leads", r.URL.Path)
		assert.Empty(t, r.Header.Get("Authorization"))
		if !assert.NoError(t, r.ParseMultipartForm(1<<20)) {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		assert.NoError(t, json.Unmarshal([]byte(r.FormValue("payload")), &payload))
		for _, fh := range r.MultipartForm.File["evidence"] {
			evidence = append(evidence, fh.Filename)
		}
		_, _ = io.WriteString(w, `{"lead":{"id":"x1","token":"SAT-7QK2"}}`)
	})

	r := NewReport("public", "L-42", "")
	r.Files = []leadsapi.Attachment{{Name: "photo.jpg", ContentType: "image/jpeg", Data: []byte{0xff, 0xd8}}}
	token, err := svc.Submit(context.Background(), r)
	require.NoError(t, err)
	assert.Equal(t, "SAT-7QK2", token)
	assert.True(t, payload.IsPublic)
	assert.Equal(t, "L-42", *payload.ParentLeadID)
	assert.Equal(t, []string{"photo.jpg"}, evidence)
}

func TestSubmit_Failures(t *testing.T) {
	svc := newService(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"lead":{"id":"x1"}}`)
	})
	_, err := svc.Submit(context.Background(), NewReport("", "", ""))
	assert.True(t, errors.Is(err, ErrNoToken))

	svc = newService(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	_, err = svc.Submit(context.Background(), NewReport("", "", ""))
	var apiErr *leadsapi.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadGateway, apiErr.Status)
}

func TestUnits_Fallback(t *testing.T) {
	svc := newService(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	h, fallback := svc.Units(context.Background())
	assert.True(t, fallback)
	assert.Equal(t, schema.FallbackHierarchy(), h)

	svc = newService(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"districts":[{"id":"d9","name":"Shahdara"}],"subDivisions":[],"policeStations":[]}`)
	})
	h, fallback = svc.Units(context.Background())
	assert.False(t, fallback)
	assert.Equal(t, "Shahdara", h.Districts[0].Name)
}

func TestReferencedAndTrack(t *testing.T) {
	svc := newService(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/leads/public-leads/L-42":
			_, _ = io.WriteString(w, `{"id":"L-42","title":"Wanted: Ravi"}`)
		case "/api/leads/track/SAT-7QK2":
			_, _ = io.WriteString(w, `{"id":"x1","token":"SAT-7QK2","status":"REVIEWED"}`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
	ctx := context.Background()
	require.NotNil(t, svc.Referenced(ctx, "L-42"))
	assert.Nil(t, svc.Referenced(ctx, "nope"))
	assert.Nil(t, svc.Referenced(ctx, ""))

	l, err := svc.Track(ctx, "SAT-7QK2")
	require.NoError(t, err)
	assert.Equal(t, "REVIEWED", l.Status)

	_, err = svc.Track(ctx, "missing")
	assert.True(t, errors.Is(err, leadsapi.ErrNotFound))
}
