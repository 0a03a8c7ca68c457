package casebundle

import (
	"archive/zip"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sqliteadapter "satark-portal/internal/adapters/store/sqlite"
	"satark-portal/internal/domain/model"
	"satark-portal/internal/platform/hash"
)

func newStore(t *testing.T) *sqliteadapter.Store {
	t.Helper()
	db, err := sqliteadapter.Open(context.Background(), filepath.Join(t.TempDir(), "portal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return sqliteadapter.NewStore(db)
}

func registerPDF(t *testing.T, store *sqliteadapter.Store, dir, leadID, name, body string, at int64) {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	sum, size, err := hash.File(p)
	require.NoError(t, err)
	_, err = store.SaveExport(context.Background(), model.ExportRecord{
		LeadID: leadID, Token: "TK-1", Canvas: "wanted", Mode: "text",
		FileName: name, FilePath: p, SHA256: sum, SizeBytes: size, Actor: "SI", CreatedAt: at,
	})
	require.NoError(t, err)
	require.NoError(t, store.AppendAudit(context.Background(), leadID, "export", "pdf", "success", "SI", "test", map[string]any{"file": name}))
}

func TestBuild_ThenVerify(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	dir := t.TempDir()
	registerPDF(t, store, dir, "L1", "FUGITIVE-TK-1.pdf", "%PDF-1 first", 100)
	registerPDF(t, store, dir, "L1", "FUGITIVE-TK-1-b.pdf", "%PDF-1 second", 200)
	registerPDF(t, store, dir, "L2", "OTHER.pdf", "%PDF-1 other", 300)

	res, err := Build(ctx, store, Options{
		LeadID:     "L1",
		Actor:      "SI Sharma",
		ExportsDir: filepath.Join(dir, "bundles"),
		Now:        func() time.Time { return time.Unix(1700000000, 0) },
	})
	require.NoError(t, err)
	assert.Empty(t, res.Warnings)
	assert.Equal(t, 4, res.Files) // 2 pdf + manifest + hash list

	vr, err := Verify(res.ZipPath)
	require.NoError(t, err)
	assert.True(t, vr.Intact(), "%+v", vr)
	assert.Equal(t, 3, vr.Total)
	assert.Equal(t, "L1", vr.LeadID)
	require.NotNil(t, vr.Audit)
	assert.Equal(t, 2, vr.Audit.Total)

	// bundle 自身登记为导出，并追加了审计
	rows, err := store.ListExports(ctx, "L1", 10)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, Mode, rows[0].Mode)
	assert.Equal(t, res.ZipSHA256, rows[0].SHA256)
	events, err := store.ListAuditEvents(ctx, "L1", 0)
	require.NoError(t, err)
	assert.Equal(t, "bundle", events[len(events)-1].Action)

	// 第二次打包不会把上一个 bundle 装进去
	res2, err := Build(ctx, store, Options{
		LeadID:     "L1",
		ExportsDir: filepath.Join(dir, "bundles"),
		Now:        func() time.Time { return time.Unix(1700000100, 0) },
	})
	require.NoError(t, err)
	assert.Equal(t, 4, res2.Files)
}

func TestBuild_MissingPDFIsWarning(t *testing.T) {
	store := newStore(t)
	dir := t.TempDir()
	registerPDF(t, store, dir, "L1", "A.pdf", "%PDF-1 a", 100)
	require.NoError(t, os.Remove(filepath.Join(dir, "A.pdf")))

	res, err := Build(context.Background(), store, Options{LeadID: "L1", ExportsDir: dir})
	require.NoError(t, err)
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "skip")
}

func TestBuild_NothingToBundle(t *testing.T) {
	_, err := Build(context.Background(), newStore(t), Options{LeadID: "L9", ExportsDir: t.TempDir()})
	assert.ErrorIs(t, err, ErrNothingToBundle)
}

func TestVerify_DetectsTamperedEntry(t *testing.T) {
	store := newStore(t)
	dir := t.TempDir()
	registerPDF(t, store, dir, "L1", "A.pdf", "%PDF-1 a", 100)
	res, err := Build(context.Background(), store, Options{LeadID: "L1", ExportsDir: dir})
	require.NoError(t, err)

	tampered := filepath.Join(dir, "tampered.zip")
	rewriteZip(t, res.ZipPath, tampered, "pdf/A.pdf", []byte("%PDF-1 forged"))

	vr, err := Verify(tampered)
	require.NoError(t, err)
	assert.False(t, vr.Intact())
	assert.Equal(t, 1, vr.Failed)
	for _, it := range vr.Items {
		if it.Path == "pdf/A.pdf" {
			assert.Equal(t, "mismatch", it.Status)
		}
	}
}

// rewriteZip 复制 src 到 dst，并把 name 的内容替换为 body。
func rewriteZip(t *testing.T, src, dst, name string, body []byte) {
	t.Helper()
	r, err := zip.OpenReader(src)
	require.NoError(t, err)
	defer r.Close()

	out, err := os.Create(dst)
	require.NoError(t, err)
	defer out.Close()
	zw := zip.NewWriter(out)
	for _, f := range r.File {
		w, err := zw.Create(f.Name)
		require.NoError(t, err)
		if f.Name == name {
			_, err = w.Write(body)
			require.NoError(t, err)
			continue
		}
		rc, err := f.Open()
		require.NoError(t, err)
		_, err = io.Copy(w, rc)
		rc.Close()
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
}
