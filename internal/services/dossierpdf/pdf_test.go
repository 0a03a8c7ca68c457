package dossierpdf

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	sqliteadapter "satark-portal/internal/adapters/store/sqlite"
	"satark-portal/internal/domain/model"
	"satark-portal/internal/services/auditverify"
	"satark-portal/internal/services/canvas"
)

type fakeRasterizer struct {
	png      []byte
	err      error
	html     string
	selector string
}

func (f *fakeRasterizer) Rasterize(_ context.Context, html, selector string) ([]byte, error) {
	f.html = html
	f.selector = selector
	return f.png, f.err
}

func testPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, x%h, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func openStore(t *testing.T) *sqliteadapter.Store {
	t.Helper()
	db, err := sqliteadapter.Open(context.Background(), filepath.Join(t.TempDir(), "portal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return sqliteadapter.NewStore(db)
}

func wantedLead() model.Lead {
	details, _ := json.Marshal(map[string]any{
		"full_name": "Ravi Kumar",
		"alias":     "Kalu",
		"charges":   []string{"Robbery", "Assault"},
	})
	return model.Lead{
		ID:        "lead-1",
		Token:     "DL-2026-0042",
		Title:     "Wanted: Ravi Kumar",
		Status:    "WANTED",
		Priority:  "CRITICAL",
		Details:   details,
		CreatedAt: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
	}
}

func TestFitRatio(t *testing.T) {
	// 宽图按宽度收敛
	assert.InDelta(t, 210.0/2200.0, FitRatio(2200, 1000), 1e-9)
	// 长图按高度收敛
	assert.InDelta(t, 297.0/6000.0, FitRatio(2200, 6000), 1e-9)
}

func TestBuildImagePDF(t *testing.T) {
	pdf, err := BuildImagePDF(testPNG(t, 40, 60), "FUGITIVE-X.pdf")
	require.NoError(t, err)
	var buf bytes.Buffer
	require.NoError(t, pdf.Output(&buf))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))

	_, err = BuildImagePDF([]byte("not an image"), "x.pdf")
	assert.Error(t, err)
}

func TestSafeText(t *testing.T) {
	assert.Equal(t, "Rs.5,00,000", safeText("₹5,00,000", false))
	assert.Equal(t, "a?b", safeText("aकb", false))
	assert.Equal(t, "aकb", safeText("aकb", true))
}

func TestExport_Raster(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)
	raster := &fakeRasterizer{png: testPNG(t, 100, 140)}
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

	ex := NewExporter(store, canvas.NewBuilder(canvas.Options{}), Options{
		ExportsDir: t.TempDir(),
		Rasterizer: raster,
		Now:        func() time.Time { return now },
	})
	res, err := ex.Export(ctx, wantedLead(), "SI Sharma")
	require.NoError(t, err)

	assert.Equal(t, ModeRaster, res.Mode)
	assert.Equal(t, "FUGITIVE-DL-2026-0042.pdf", res.FileName)
	assert.Equal(t, CanvasSelector, raster.selector)
	assert.Contains(t, raster.html, `id="dossier-canvas"`)
	assert.Contains(t, raster.html, "Ravi Kumar")
	assert.Empty(t, res.Warnings)

	info, err := os.Stat(res.FilePath)
	require.NoError(t, err)
	assert.Equal(t, res.SizeBytes, info.Size())

	rec, err := store.GetExport(ctx, res.ExportID)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "wanted", rec.Canvas)
	assert.Equal(t, res.SHA256, rec.SHA256)
	assert.Equal(t, "SI Sharma", rec.Actor)

	vr, err := auditverify.VerifyLead(ctx, store, "lead-1")
	require.NoError(t, err)
	assert.True(t, vr.OK)
	assert.Equal(t, 1, vr.Total)
}

func TestExport_FallsBackToText(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)
	core, logs := observer.New(zap.WarnLevel)

	lead := wantedLead()
	lead.Status = "MISSING"
	lead.Token = ""

	ex := NewExporter(store, canvas.NewBuilder(canvas.Options{}), Options{
		ExportsDir: t.TempDir(),
		Rasterizer: &fakeRasterizer{err: ErrNoBrowser},
		Logger:     zap.New(core),
	})
	res, err := ex.Export(ctx, lead, "")
	require.NoError(t, err)

	assert.Equal(t, ModeText, res.Mode)
	assert.Equal(t, "MISSING - lead-1.pdf", res.FileName)
	require.Len(t, res.Warnings, 1)
	assert.True(t, strings.Contains(res.Warnings[0], ErrNoBrowser.Error()))
	assert.Equal(t, 1, logs.FilterMessage("rasterize dossier failed, falling back to text pdf").Len())

	raw, err := os.ReadFile(res.FilePath)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(raw, []byte("%PDF-")))

	list, err := store.ListExports(ctx, "lead-1", 10)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, ModeText, list[0].Mode)
	assert.Equal(t, "system", list[0].Actor)
}

func TestExport_NoRasterizer(t *testing.T) {
	ex := NewExporter(openStore(t), canvas.NewBuilder(canvas.Options{}), Options{ExportsDir: t.TempDir()})
	for _, status := range []string{"ALERT", "SUBMITTED"} {
		lead := wantedLead()
		lead.Status = status
		res, err := ex.Export(context.Background(), lead, "SI Sharma")
		require.NoError(t, err)
		assert.Equal(t, ModeText, res.Mode)
		assert.Empty(t, res.Warnings)
	}
}

func TestExport_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	ex := NewExporter(openStore(t), canvas.NewBuilder(canvas.Options{}), Options{
		ExportsDir: t.TempDir(),
		Rasterizer: &fakeRasterizer{err: errors.New("context canceled")},
	})
	_, err := ex.Export(ctx, wantedLead(), "x")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestExportPublic_ReusesUnchangedContent(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)
	fixed := func() time.Time { return time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC) }
	raster := &fakeRasterizer{png: testPNG(t, 100, 140)}
	ex := NewExporter(store, canvas.NewBuilder(canvas.Options{Now: fixed}), Options{
		ExportsDir: t.TempDir(),
		Rasterizer: raster,
	})

	first, err := ex.ExportPublic(ctx, wantedLead())
	require.NoError(t, err)
	assert.False(t, first.Reused)

	raster.html = ""
	second, err := ex.ExportPublic(ctx, wantedLead())
	require.NoError(t, err)
	assert.True(t, second.Reused)
	assert.Equal(t, first.ExportID, second.ExportID)
	assert.Equal(t, first.SHA256, second.SHA256)
	assert.Empty(t, raster.html, "reused export must not rasterize again")

	list, err := store.ListExports(ctx, "lead-1", 10)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, ActorPublic, list[0].Actor)
	assert.NotEmpty(t, list[0].ContentSHA256)
	events, err := store.ListAuditEvents(ctx, "lead-1", 0)
	require.NoError(t, err)
	assert.Len(t, events, 1)

	// 内容变了就重新导出
	changed := wantedLead()
	changed.Details, _ = json.Marshal(map[string]any{"full_name": "Ravi Kumar Singh"})
	third, err := ex.ExportPublic(ctx, changed)
	require.NoError(t, err)
	assert.False(t, third.Reused)

	// 文件丢了也重新导出
	require.NoError(t, os.Remove(third.FilePath))
	fourth, err := ex.ExportPublic(ctx, changed)
	require.NoError(t, err)
	assert.False(t, fourth.Reused)
	assert.NotEqual(t, third.ExportID, fourth.ExportID)

	list, err = store.ListExports(ctx, "lead-1", 10)
	require.NoError(t, err)
	assert.Len(t, list, 3)
}

func TestExport_OfficerAlwaysRegisters(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)
	fixed := func() time.Time { return time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC) }
	ex := NewExporter(store, canvas.NewBuilder(canvas.Options{Now: fixed}), Options{ExportsDir: t.TempDir()})

	_, err := ex.ExportPublic(ctx, wantedLead())
	require.NoError(t, err)
	res, err := ex.Export(ctx, wantedLead(), "SI Sharma")
	require.NoError(t, err)
	assert.False(t, res.Reused)

	list, err := store.ListExports(ctx, "lead-1", 10)
	require.NoError(t, err)
	assert.Len(t, list, 2)
	events, err := store.ListAuditEvents(ctx, "lead-1", 0)
	require.NoError(t, err)
	assert.Len(t, events, 2)
}
