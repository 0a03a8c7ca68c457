// Package dossierpdf 把案件 canvas 导出成 A4 PDF：优先用无头浏览器截图，失败则生成文字版。
// 每次导出都登记到 exports 表并写入审计链。
package dossierpdf

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	sqliteadapter "satark-portal/internal/adapters/store/sqlite"
	"satark-portal/internal/domain/model"
	"satark-portal/internal/platform/hash"
	"satark-portal/internal/platform/logging"
	"satark-portal/internal/services/canvas"
)

// CanvasSelector 是截图区域（canvas 根元素）。
const CanvasSelector = "#dossier-canvas"

const (
	ModeRaster = "raster"
	ModeText   = "text"
)

// ActorPublic 是未登录访客下载时记录的 actor。
const ActorPublic = "public"

type Options struct {
	ExportsDir string
	FontPath   string
	// Rasterizer 为 nil 时直接走文字版
	Rasterizer Rasterizer
	Logger     *zap.Logger
	Now        func() time.Time
}

type Result struct {
	ExportID    string   `json:"export_id"`
	LeadID      string   `json:"lead_id"`
	FileName    string   `json:"file_name"`
	FilePath    string   `json:"file_path"`
	SHA256      string   `json:"sha256"`
	SizeBytes   int64    `json:"size_bytes"`
	Mode        string   `json:"mode"`
	Warnings    []string `json:"warnings,omitempty"`
	GeneratedAt int64    `json:"generated_at"`
	// Reused 为 true 表示直接复用了已登记的导出文件
	Reused bool `json:"reused,omitempty"`
}

type Exporter struct {
	store   *sqliteadapter.Store
	builder *canvas.Builder
	opts    Options
	log     *zap.Logger

	// 同一 lead 同一内容的公开下载合并成一次渲染
	public singleflight.Group
}

func NewExporter(store *sqliteadapter.Store, builder *canvas.Builder, opts Options) *Exporter {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if strings.TrimSpace(opts.ExportsDir) == "" {
		opts.ExportsDir = "data/exports"
	}
	return &Exporter{store: store, builder: builder, opts: opts, log: logging.OrNop(opts.Logger)}
}

// Export 生成 lead 的 PDF 并登记。actor 为导出的警员（空则记为 system）。
func (e *Exporter) Export(ctx context.Context, lead model.Lead, actor string) (*Result, error) {
	if strings.TrimSpace(lead.ID) == "" {
		return nil, errors.New("lead id is required")
	}
	if strings.TrimSpace(actor) == "" {
		actor = "system"
	}
	view := e.builder.Build(lead)
	return e.export(ctx, lead, view, actor, contentHash(view))
}

// ExportPublic 供未登录访客下载。canvas 内容未变时复用该 lead 最近一次导出，
// 不再起浏览器、不写新文件、不追加登记和审计；并发的相同请求只渲染一次。
func (e *Exporter) ExportPublic(ctx context.Context, lead model.Lead) (*Result, error) {
	if strings.TrimSpace(lead.ID) == "" {
		return nil, errors.New("lead id is required")
	}
	view := e.builder.Build(lead)
	content := contentHash(view)
	if content == "" {
		return e.export(ctx, lead, view, ActorPublic, "")
	}
	v, err, _ := e.public.Do(lead.ID+"|"+content, func() (any, error) {
		if res := e.reuse(ctx, lead.ID, content); res != nil {
			return res, nil
		}
		return e.export(ctx, lead, view, ActorPublic, content)
	})
	if err != nil {
		return nil, err
	}
	return v.(*Result), nil
}

// reuse 找到内容相同且文件仍完好的导出；文件丢失或被改动时返回 nil，走重新导出。
func (e *Exporter) reuse(ctx context.Context, leadID, content string) *Result {
	rec, err := e.store.LatestExportByContent(ctx, leadID, content)
	if err != nil {
		e.log.Warn("lookup cached export failed", zap.String("lead_id", leadID), zap.Error(err))
		return nil
	}
	if rec == nil {
		return nil
	}
	sum, size, err := hash.File(rec.FilePath)
	if err != nil || sum != rec.SHA256 {
		e.log.Warn("cached export unusable, regenerating",
			zap.String("export_id", rec.ExportID),
			zap.Bool("missing", err != nil),
		)
		return nil
	}
	return &Result{
		ExportID:    rec.ExportID,
		LeadID:      rec.LeadID,
		FileName:    rec.FileName,
		FilePath:    rec.FilePath,
		SHA256:      sum,
		SizeBytes:   size,
		Mode:        rec.Mode,
		GeneratedAt: rec.CreatedAt,
		Reused:      true,
	}
}

// contentHash 是 canvas 文档的 hash；渲染失败返回空串（不参与复用）。
func contentHash(view canvas.View) string {
	doc, err := canvas.Document(view)
	if err != nil {
		return ""
	}
	return hash.Text(doc)
}

func (e *Exporter) export(ctx context.Context, lead model.Lead, view canvas.View, actor, content string) (*Result, error) {
	now := e.opts.Now()

	res := &Result{
		LeadID:      lead.ID,
		FileName:    view.FileName(),
		GeneratedAt: now.Unix(),
	}

	outDir := filepath.Join(e.opts.ExportsDir, safeSegment(lead.ID))
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("mkdir exports dir: %w", err)
	}
	res.FilePath = filepath.Join(outDir, fmt.Sprintf("%d-%s.pdf", now.UnixNano(), safeSegment(view.Common().Ref)))

	mode, warn, err := e.write(ctx, view, res.FilePath, now)
	if err != nil {
		_ = e.store.AppendAudit(ctx, lead.ID, "export", "pdf", "failed", actor, "dossierpdf", map[string]any{
			"error": err.Error(),
		})
		return nil, err
	}
	res.Mode = mode
	if warn != "" {
		res.Warnings = append(res.Warnings, warn)
	}

	sum, size, err := hash.File(res.FilePath)
	if err != nil {
		return nil, fmt.Errorf("hash pdf: %w", err)
	}
	res.SHA256 = sum
	res.SizeBytes = size

	exportID, err := e.store.SaveExport(ctx, model.ExportRecord{
		LeadID:    lead.ID,
		Token:     lead.Token,
		Canvas:    view.Kind.String(),
		Mode:      mode,
		FileName:  res.FileName,
		FilePath:  res.FilePath,
		SHA256:    sum,
		SizeBytes: size,
		Actor:     actor,
		CreatedAt: now.Unix(),

		ContentSHA256: content,
	})
	if err != nil {
		return nil, fmt.Errorf("save export: %w", err)
	}
	res.ExportID = exportID

	if err := e.store.AppendAudit(ctx, lead.ID, "export", "pdf", "success", actor, "dossierpdf", map[string]any{
		"export_id": exportID,
		"canvas":    view.Kind.String(),
		"mode":      mode,
		"sha256":    sum,
		"file_name": res.FileName,
	}); err != nil {
		return nil, fmt.Errorf("append audit: %w", err)
	}

	e.log.Info("dossier exported",
		zap.String("lead_id", lead.ID),
		zap.String("canvas", view.Kind.String()),
		zap.String("mode", mode),
		zap.Int64("size_bytes", size),
	)
	return res, nil
}

// write 返回实际使用的模式；截图失败时回退文字版并给出 warning。
func (e *Exporter) write(ctx context.Context, view canvas.View, path string, now time.Time) (mode, warning string, err error) {
	if e.opts.Rasterizer != nil {
		err := e.raster(ctx, view, path)
		if err == nil {
			return ModeRaster, "", nil
		}
		if ctx.Err() != nil {
			return "", "", ctx.Err()
		}
		e.log.Warn("rasterize dossier failed, falling back to text pdf", zap.Error(err))
		warning = "rasterize failed: " + err.Error()
	}

	pdf, _ := TextFallback(view, e.opts.FontPath, now)
	if err := pdf.OutputFileAndClose(path); err != nil {
		return "", "", fmt.Errorf("write text pdf: %w", err)
	}
	return ModeText, warning, nil
}

func (e *Exporter) raster(ctx context.Context, view canvas.View, path string) error {
	doc, err := canvas.Document(view)
	if err != nil {
		return fmt.Errorf("render document: %w", err)
	}
	png, err := e.opts.Rasterizer.Rasterize(ctx, doc, CanvasSelector)
	if err != nil {
		return err
	}
	pdf, err := BuildImagePDF(png, view.FileName())
	if err != nil {
		return err
	}
	if err := pdf.OutputFileAndClose(path); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

func safeSegment(s string) string {
	s = unsafeChars.ReplaceAllString(strings.TrimSpace(s), "_")
	s = strings.Trim(s, "._")
	if s == "" {
		return "lead"
	}
	return s
}
