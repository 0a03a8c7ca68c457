package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sqliteadapter "satark-portal/internal/adapters/store/sqlite"
	"satark-portal/internal/domain/model"
	"satark-portal/internal/platform/hash"
)

// runCLI 以独立的 root 命令执行一次，返回 stdout。
func runCLI(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(append([]string{"--log-level", "error"}, args...))
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func backendServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/api/leads/public-leads":
			q := r.URL.Query().Get("search")
			leads := []map[string]any{
				{"id": "L1", "token": "SAT-1", "title": "Chain snatcher " + q, "status": "WANTED", "priority": "CRITICAL"},
				{"id": "L2", "token": "SAT-2", "title": "Missing child", "status": "MISSING", "priority": "HIGH"},
			}
			_ = json.NewEncoder(w).Encode(leads)
		case r.URL.Path == "/api/leads/track/TK-1":
			_ = json.NewEncoder(w).Encode(map[string]any{"id": "T1", "token": "TK-1", "title": "My tip", "status": "SUBMITTED"})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestSchemaDump_JSON(t *testing.T) {
	out, err := runCLI(t, "", "--db", filepath.Join(t.TempDir(), "p.db"), "schema", "--notice", "alert", "--format", "json")
	require.NoError(t, err)

	var got []noticeSchema
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "alert", string(got[0].Notice))
	assert.Equal(t, "title", got[0].Sections[0].Fields[0].Name)
}

func TestSchemaDump_UnknownNotice(t *testing.T) {
	_, err := runCLI(t, "", "schema", "--notice", "parking")
	assert.ErrorContains(t, err, "unknown notice type")
}

func TestPublish_DryRunComposesPayload(t *testing.T) {
	dir := t.TempDir()
	draft := filepath.Join(dir, "draft.yaml")
	require.NoError(t, os.WriteFile(draft, []byte("name: Raju Kumar\nrisk: EXTREME\naliases:\n  - Rajjo\n  - RK\n"), 0o644))
	evidence := filepath.Join(dir, "fir.pdf")
	require.NoError(t, os.WriteFile(evidence, []byte("%PDF-1.4"), 0o644))

	out, err := runCLI(t, "", "publish", "--notice", "wanted", "--file", draft, "--evidence", evidence, "--dry-run")
	require.NoError(t, err)
	assert.Contains(t, out, "1 evidence file(s)")
	assert.Contains(t, out, `"WANTED: Raju Kumar"`)
	assert.Contains(t, out, `"CRITICAL"`)
}

func TestPublish_RequiresToken(t *testing.T) {
	t.Setenv("SATARK_TOKEN", "")
	_, err := runCLI(t, "", "publish", "--notice", "general")
	assert.ErrorContains(t, err, "officer token required")
}

func TestLeadsList_Table(t *testing.T) {
	srv := backendServer(t)
	out, err := runCLI(t, "", "--api", srv.URL, "leads", "list", "--tab", "wanted")
	require.NoError(t, err)
	assert.Contains(t, out, "SAT-1")
	assert.Contains(t, out, "Missing child")
}

func TestLeadsSearch_DebouncesStdin(t *testing.T) {
	srv := backendServer(t)
	// 连续输入只会在输入结束时查询最后一次
	out, err := runCLI(t, "del\ndelhi\n", "--api", srv.URL, "leads", "search")
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(out, "results for"))
	assert.Contains(t, out, `results for "delhi"`)
}

func TestTrack(t *testing.T) {
	srv := backendServer(t)
	out, err := runCLI(t, "", "--api", srv.URL, "track", "TK-1")
	require.NoError(t, err)
	assert.Contains(t, out, "My tip")

	_, err = runCLI(t, "", "--api", srv.URL, "track", "NOPE")
	assert.ErrorContains(t, err, "no report found")
}

func TestAuditVerify(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "portal.db")
	ctx := context.Background()
	db, err := sqliteadapter.Open(ctx, dbPath)
	require.NoError(t, err)
	store := sqliteadapter.NewStore(db)
	for i := 0; i < 3; i++ {
		require.NoError(t, store.AppendAudit(ctx, "L1", "officer_action", "pin", "success", "SI", "test", map[string]any{"n": i}))
	}
	_, err = db.ExecContext(ctx, `UPDATE audit_events SET status = 'failed' WHERE rowid = (SELECT MIN(rowid) FROM audit_events)`)
	require.NoError(t, db.Close())
	require.NoError(t, err)

	_, err = runCLI(t, "", "--db", dbPath, "audit", "verify", "--lead", "L1")
	assert.ErrorContains(t, err, fmt.Sprintf("%d of %d", 1, 3))

	out, err := runCLI(t, "", "--db", dbPath, "audit", "verify", "--lead", "L2")
	require.NoError(t, err)
	assert.Contains(t, out, "audit chain intact")
}

func TestExportsVerify_DetectsMissingFile(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "portal.db")
	ctx := context.Background()
	db, err := sqliteadapter.Open(ctx, dbPath)
	require.NoError(t, err)
	store := sqliteadapter.NewStore(db)
	pdf := filepath.Join(dir, "a.pdf")
	require.NoError(t, os.WriteFile(pdf, []byte("%PDF"), 0o644))
	_, err = store.SaveExport(ctx, exportRecord("L1", pdf))
	require.NoError(t, err)
	_, err = store.SaveExport(ctx, exportRecord("L1", filepath.Join(dir, "gone.pdf")))
	require.NoError(t, err)
	require.NoError(t, db.Close())

	out, err := runCLI(t, "", "--db", dbPath, "exports", "verify")
	assert.ErrorContains(t, err, "1 of 2 exports failed")
	assert.Contains(t, out, "missing")
}

func TestExportsBundle_ThenVerify(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "portal.db")
	t.Setenv("SATARK_EXPORTS_DIR", filepath.Join(dir, "bundles"))
	ctx := context.Background()
	db, err := sqliteadapter.Open(ctx, dbPath)
	require.NoError(t, err)
	store := sqliteadapter.NewStore(db)
	pdf := filepath.Join(dir, "a.pdf")
	require.NoError(t, os.WriteFile(pdf, []byte("%PDF-1 a"), 0o644))
	_, err = store.SaveExport(ctx, exportRecord("L1", pdf))
	require.NoError(t, err)
	require.NoError(t, store.AppendAudit(ctx, "L1", "export", "pdf", "success", "SI", "test", nil))
	require.NoError(t, db.Close())

	out, err := runCLI(t, "", "--db", dbPath, "exports", "bundle", "--lead", "L1", "--note", "handover")
	require.NoError(t, err)
	assert.Contains(t, out, "bundle written")

	zips, err := filepath.Glob(filepath.Join(dir, "bundles", "*.zip"))
	require.NoError(t, err)
	require.Len(t, zips, 1)

	out, err = runCLI(t, "", "exports", "verify-bundle", zips[0])
	require.NoError(t, err)
	assert.Contains(t, out, "pdf/a.pdf")
	assert.Contains(t, out, "bundle intact: 2 files")
}

func exportRecord(leadID, path string) model.ExportRecord {
	rec := model.ExportRecord{LeadID: leadID, Canvas: "wanted", Mode: "text", FileName: filepath.Base(path), FilePath: path}
	if sum, size, err := hash.File(path); err == nil {
		rec.SHA256, rec.SizeBytes = sum, size
	} else {
		rec.SHA256 = "deadbeef"
	}
	return rec
}
