// Package casebundle 把某个 lead 的已登记 PDF 导出、审计链和清单打成一个 ZIP 交接包，
// 并提供离线校验（hashes.sha256 + 包内审计链）。
package casebundle

import (
	"archive/zip"
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	sqliteadapter "satark-portal/internal/adapters/store/sqlite"
	"satark-portal/internal/app"
	"satark-portal/internal/domain/model"
	"satark-portal/internal/platform/hash"
	"satark-portal/internal/platform/logging"
)

const (
	manifestSchemaV1 = "satark.case_bundle.v1"
	// Mode 是 bundle 在 exports 表里的 mode 值。
	Mode = "bundle"

	hashListName = "hashes.sha256"
	manifestName = "manifest.json"
)

// ErrNothingToBundle 表示该 lead 既没有导出也没有审计记录。
var ErrNothingToBundle = errors.New("casebundle: no exports or audit events for lead")

type Options struct {
	LeadID string
	Actor  string
	Note   string
	// ExportsDir 为空时用 app.DefaultConfig().ExportsDir
	ExportsDir string
	Logger     *zap.Logger
	Now        func() time.Time
}

type FileHashEntry struct {
	Path      string `json:"path"` // ZIP 内路径
	SHA256    string `json:"sha256"`
	SizeBytes int64  `json:"size_bytes"`
	Kind      string `json:"kind"` // pdf|manifest
}

type ManifestExport struct {
	Export  model.ExportRecord `json:"export"`
	ZipPath string             `json:"zip_path"`
}

type Manifest struct {
	Schema      string `json:"schema"`
	GeneratedAt int64  `json:"generated_at"`
	App         struct {
		Version   string `json:"version"`
		Commit    string `json:"commit"`
		BuildTime string `json:"build_time"`
	} `json:"app"`
	LeadID   string             `json:"lead_id"`
	Actor    string             `json:"actor"`
	Note     string             `json:"note,omitempty"`
	Exports  []ManifestExport   `json:"exports"`
	Audits   []model.AuditEvent `json:"audits"`
	Files    []FileHashEntry    `json:"files"`
	Warnings []string           `json:"warnings,omitempty"`
}

type Result struct {
	ExportID  string   `json:"export_id"`
	LeadID    string   `json:"lead_id"`
	ZipPath   string   `json:"zip_path"`
	ZipSHA256 string   `json:"zip_sha256"`
	Files     int      `json:"files"`
	Warnings  []string `json:"warnings,omitempty"`
}

// Build 生成 ZIP，登记到 exports 表，并在审计链上追加一条 export/bundle。
// 缺失或被改动的 PDF 不阻断打包，但会写进 manifest 的 warnings。
func Build(ctx context.Context, store *sqliteadapter.Store, opts Options) (*Result, error) {
	if store == nil {
		return nil, fmt.Errorf("store is nil")
	}
	leadID := strings.TrimSpace(opts.LeadID)
	if leadID == "" {
		return nil, fmt.Errorf("lead id is required")
	}
	actor := strings.TrimSpace(opts.Actor)
	if actor == "" {
		actor = "system"
	}
	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}
	log := logging.OrNop(opts.Logger)
	exportDir := strings.TrimSpace(opts.ExportsDir)
	if exportDir == "" {
		exportDir = app.DefaultConfig().ExportsDir
	}
	if err := os.MkdirAll(exportDir, 0o755); err != nil {
		return nil, fmt.Errorf("create export dir: %w", err)
	}

	exports, err := store.ListExports(ctx, leadID, 1000)
	if err != nil {
		return nil, err
	}
	audits, err := store.ListAuditEvents(ctx, leadID, 5000)
	if err != nil {
		return nil, err
	}

	pdfs := make([]model.ExportRecord, 0, len(exports))
	for _, e := range exports {
		// 不把旧 bundle 打进新 bundle
		if e.Mode == Mode {
			continue
		}
		pdfs = append(pdfs, e)
	}
	if len(pdfs) == 0 && len(audits) == 0 {
		return nil, ErrNothingToBundle
	}
	// ListExports 是倒序，包内按时间正序
	sort.SliceStable(pdfs, func(i, j int) bool { return pdfs[i].CreatedAt < pdfs[j].CreatedAt })

	ts := now()
	zipName := fmt.Sprintf("%s_case_bundle_%d.zip", safeName(leadID), ts.Unix())
	zipPath := filepath.Join(exportDir, zipName)
	f, err := os.Create(zipPath)
	if err != nil {
		return nil, fmt.Errorf("create zip: %w", err)
	}
	defer func() { _ = f.Close() }()
	zw := zip.NewWriter(f)
	defer func() { _ = zw.Close() }()

	var warnings []string
	var fileHashes []FileHashEntry
	manifestExports := make([]ManifestExport, 0, len(pdfs))
	seen := map[string]bool{}

	for _, e := range pdfs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		name := e.FileName
		if name == "" {
			name = filepath.Base(e.FilePath)
		}
		zp := "pdf/" + name
		if seen[zp] {
			zp = "pdf/" + e.ExportID + "_" + name
		}
		seen[zp] = true

		sum, size, err := writeZipFileFromDisk(zw, e.FilePath, zp, ts)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("skip %s: %v", e.ExportID, err))
			continue
		}
		if sum != e.SHA256 {
			warnings = append(warnings, fmt.Sprintf("export %s sha256 differs from registry", e.ExportID))
		}
		fileHashes = append(fileHashes, FileHashEntry{Path: zp, SHA256: sum, SizeBytes: size, Kind: "pdf"})
		manifestExports = append(manifestExports, ManifestExport{Export: e, ZipPath: zp})
	}

	manifest := Manifest{
		Schema:      manifestSchemaV1,
		GeneratedAt: ts.Unix(),
		LeadID:      leadID,
		Actor:       actor,
		Note:        strings.TrimSpace(opts.Note),
		Exports:     manifestExports,
		Audits:      audits,
		Warnings:    warnings,
	}
	manifest.App.Version = app.Version
	manifest.App.Commit = app.Commit
	manifest.App.BuildTime = app.Date

	sort.Slice(fileHashes, func(i, j int) bool { return fileHashes[i].Path < fileHashes[j].Path })
	manifest.Files = fileHashes

	raw, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal manifest: %w", err)
	}
	msum, msize, err := writeZipFileFromBytes(zw, manifestName, raw, ts)
	if err != nil {
		return nil, fmt.Errorf("write manifest: %w", err)
	}
	fileHashes = append(fileHashes, FileHashEntry{Path: manifestName, SHA256: msum, SizeBytes: msize, Kind: "manifest"})
	sort.Slice(fileHashes, func(i, j int) bool { return fileHashes[i].Path < fileHashes[j].Path })

	// sha256sum 兼容格式，不含自身
	lines := []string{
		"# satark case bundle hash list",
		fmt.Sprintf("# lead_id=%s generated_at=%d", leadID, ts.Unix()),
		"# format: <sha256><two spaces><path>",
	}
	for _, fh := range fileHashes {
		lines = append(lines, fmt.Sprintf("%s  %s", fh.SHA256, fh.Path))
	}
	lines = append(lines, "")
	if _, _, err := writeZipFileFromBytes(zw, hashListName, []byte(strings.Join(lines, "\n")), ts); err != nil {
		return nil, fmt.Errorf("write %s: %w", hashListName, err)
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("close zip writer: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("close zip file: %w", err)
	}

	zipSum, zipSize, err := hash.File(zipPath)
	if err != nil {
		return nil, fmt.Errorf("hash zip: %w", err)
	}
	var token string
	if len(pdfs) > 0 {
		token = pdfs[len(pdfs)-1].Token
	}
	exportID, err := store.SaveExport(ctx, model.ExportRecord{
		LeadID:    leadID,
		Token:     token,
		Canvas:    Mode,
		Mode:      Mode,
		FileName:  zipName,
		FilePath:  zipPath,
		SHA256:    zipSum,
		SizeBytes: zipSize,
		Actor:     actor,
		CreatedAt: ts.Unix(),
	})
	if err != nil {
		return nil, err
	}
	if err := store.AppendAudit(ctx, leadID, "export", "bundle", "success", actor, "casebundle", map[string]any{
		"export_id":  exportID,
		"zip_sha256": zipSum,
		"pdf_count":  len(manifestExports),
		"warnings":   warnings,
	}); err != nil {
		return nil, fmt.Errorf("append audit: %w", err)
	}

	log.Info("case bundle written",
		zap.String("lead_id", leadID),
		zap.String("zip", zipPath),
		zap.Int("pdfs", len(manifestExports)),
		zap.Int("audits", len(audits)),
		zap.Int("warnings", len(warnings)),
	)

	return &Result{
		ExportID:  exportID,
		LeadID:    leadID,
		ZipPath:   zipPath,
		ZipSHA256: zipSum,
		Files:     len(fileHashes) + 1,
		Warnings:  warnings,
	}, nil
}

func safeName(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		}
		return '_'
	}, s)
}

func writeZipFileFromDisk(zw *zip.Writer, srcPath, zipPath string, mod time.Time) (string, int64, error) {
	fi, err := os.Stat(srcPath)
	if err != nil {
		return "", 0, err
	}
	if fi.IsDir() {
		return "", 0, fmt.Errorf("is a directory")
	}
	src, err := os.Open(srcPath)
	if err != nil {
		return "", 0, err
	}
	defer src.Close()
	return writeZipEntry(zw, zipPath, src, mod)
}

func writeZipFileFromBytes(zw *zip.Writer, zipPath string, b []byte, mod time.Time) (string, int64, error) {
	return writeZipEntry(zw, zipPath, bytes.NewReader(b), mod)
}

func writeZipEntry(zw *zip.Writer, zipPath string, r io.Reader, mod time.Time) (string, int64, error) {
	w, err := zw.CreateHeader(&zip.FileHeader{Name: zipPath, Method: zip.Deflate, Modified: mod})
	if err != nil {
		return "", 0, err
	}
	h := sha256.New()
	n, err := io.Copy(io.MultiWriter(w, h), r)
	if err != nil {
		return "", 0, err
	}
	return hex.EncodeToString(h.Sum(nil)), n, nil
}
