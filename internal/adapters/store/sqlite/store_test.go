package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"satark-portal/internal/domain/model"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := Open(context.Background(), filepath.Join(t.TempDir(), "portal.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return NewStore(db)
}

func TestMigrator_Idempotent(t *testing.T) {
	ctx := context.Background()
	db, err := Open(ctx, filepath.Join(t.TempDir(), "portal.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()

	if err := NewMigrator(db).Up(ctx); err != nil {
		t.Fatalf("second migrate: %v", err)
	}
	v, err := NewStore(db).GetSchemaMetaValue(ctx, "schema_version")
	if err != nil {
		t.Fatalf("schema meta: %v", err)
	}
	if v != "2" {
		t.Fatalf("schema_version=%q", v)
	}
}

func TestSessions_Lifecycle(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	sess, err := s.CreateSession(ctx, "SI Sharma", "bearer-xyz", time.Hour)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	got, err := s.GetSession(ctx, sess.SessionID)
	if err != nil || got == nil {
		t.Fatalf("get: %v %v", got, err)
	}
	if got.Token != "bearer-xyz" || got.Officer != "SI Sharma" {
		t.Fatalf("session=%+v", got)
	}

	if err := s.DeleteSession(ctx, sess.SessionID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	got, err = s.GetSession(ctx, sess.SessionID)
	if err != nil || got != nil {
		t.Fatalf("expected nil after delete, got %+v %v", got, err)
	}

	// 过期会话不可读，且会被 purge
	base := time.Now()
	s.now = func() time.Time { return base }
	old, err := s.CreateSession(ctx, "", "t2", time.Minute)
	if err != nil {
		t.Fatalf("create old: %v", err)
	}
	s.now = func() time.Time { return base.Add(2 * time.Minute) }
	if got, _ := s.GetSession(ctx, old.SessionID); got != nil {
		t.Fatalf("expired session should not be returned")
	}
	n, err := s.PurgeExpiredSessions(ctx)
	if err != nil || n != 1 {
		t.Fatalf("purge n=%d err=%v", n, err)
	}
}

func TestExports_SaveAndList(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	for i, lead := range []string{"L1", "L1", "L2"} {
		_, err := s.SaveExport(ctx, exportFixture(lead, int64(100+i)))
		if err != nil {
			t.Fatalf("save: %v", err)
		}
	}
	list, err := s.ListExports(ctx, "L1", 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 || list[0].CreatedAt != 101 {
		t.Fatalf("list=%+v", list)
	}
	all, err := s.ListExports(ctx, "", 0)
	if err != nil || len(all) != 3 {
		t.Fatalf("all=%d err=%v", len(all), err)
	}

	got, err := s.GetExport(ctx, list[0].ExportID)
	if err != nil || got == nil || got.Canvas != "wanted" {
		t.Fatalf("get=%+v err=%v", got, err)
	}
	if got, _ := s.GetExport(ctx, "missing"); got != nil {
		t.Fatalf("expected nil")
	}
}

func TestLatestExportByContent(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	for i, content := range []string{"c1", "c1", "c2"} {
		rec := exportFixture("L1", int64(100+i))
		rec.ContentSHA256 = content
		if _, err := s.SaveExport(ctx, rec); err != nil {
			t.Fatalf("save: %v", err)
		}
	}
	got, err := s.LatestExportByContent(ctx, "L1", "c1")
	if err != nil || got == nil {
		t.Fatalf("got=%v err=%v", got, err)
	}
	if got.CreatedAt != 101 || got.ContentSHA256 != "c1" {
		t.Fatalf("expected newest c1 export, got %+v", got)
	}
	if got, _ := s.LatestExportByContent(ctx, "L2", "c1"); got != nil {
		t.Fatalf("other lead must not match")
	}
	if got, _ := s.LatestExportByContent(ctx, "L1", ""); got != nil {
		t.Fatalf("empty content hash must not match")
	}
}

func TestAppendAudit_Chain(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	if err := s.AppendAudit(ctx, "L1", "officer_action", "pin", "success", "SI Sharma", "casefile", map[string]any{"pinned": true}); err != nil {
		t.Fatalf("append 1: %v", err)
	}
	if err := s.AppendAudit(ctx, "L1", "export", "pdf", "success", "SI Sharma", "dossierpdf", nil); err != nil {
		t.Fatalf("append 2: %v", err)
	}
	if err := s.AppendAudit(ctx, "L2", "export", "pdf", "success", "", "", nil); err != nil {
		t.Fatalf("append other lead: %v", err)
	}

	events, err := s.ListAuditEvents(ctx, "L1", 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("events=%d", len(events))
	}
	if events[0].ChainPrevHash != "" {
		t.Fatalf("first event must not have prev hash")
	}
	if events[1].ChainPrevHash != events[0].ChainHash {
		t.Fatalf("chain broken: %s != %s", events[1].ChainPrevHash, events[0].ChainHash)
	}
	want := ChainHash(events[0].ChainHash, "L1", "export", "pdf", "success", events[1].OccurredAt, "{}")
	if events[1].ChainHash != want {
		t.Fatalf("chain hash mismatch")
	}
}

func exportFixture(leadID string, createdAt int64) model.ExportRecord {
	return model.ExportRecord{
		LeadID:    leadID,
		Token:     "TK-" + leadID,
		Canvas:    "wanted",
		Mode:      "raster",
		FileName:  "FUGITIVE-TK-" + leadID + ".pdf",
		FilePath:  "/tmp/x.pdf",
		SHA256:    "abc",
		SizeBytes: 10,
		CreatedAt: createdAt,
	}
}
