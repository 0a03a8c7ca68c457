package webapp

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"satark-portal/internal/adapters/leadsapi"
	sqliteadapter "satark-portal/internal/adapters/store/sqlite"
	"satark-portal/internal/app"
	"satark-portal/internal/platform/logging"
	"satark-portal/internal/services/dossierpdf"
)

// 页面模板与静态资源随二进制一起分发。
//
//go:embed templates/*.gohtml assets/*
var uiFS embed.FS

// Options 定义门户服务的启动参数。
type Options struct {
	ListenAddr    string
	DBPath        string
	ExportsDir    string
	PublicBaseURL string

	APIBaseURL string
	APITimeout time.Duration
	// MediaBaseURL 为空时取 APIBaseURL（上传文件由后端提供）
	MediaBaseURL string

	BrowserBin string
	PDFFont    string

	PageSize int
	Debounce time.Duration

	// SessionTTL 是警员登录会话有效期。
	SessionTTL time.Duration
}

// OptionsFromConfig 把应用配置映射成启动参数。
func OptionsFromConfig(cfg app.Config) Options {
	return Options{
		ListenAddr:    cfg.ListenAddr,
		DBPath:        cfg.DBPath,
		ExportsDir:    cfg.ExportsDir,
		PublicBaseURL: cfg.PublicBaseURL,
		APIBaseURL:    cfg.APIBaseURL,
		APITimeout:    cfg.APITimeout,
		MediaBaseURL:  cfg.MediaBaseURL,
		BrowserBin:    cfg.BrowserBin,
		PDFFont:       cfg.PDFFont,
		PageSize:      cfg.PageSize,
		Debounce:      cfg.Debounce,
	}
}

func (o *Options) applyDefaults() {
	d := app.DefaultConfig()
	if o.ListenAddr == "" {
		o.ListenAddr = d.ListenAddr
	}
	if o.DBPath == "" {
		o.DBPath = d.DBPath
	}
	if o.ExportsDir == "" {
		o.ExportsDir = d.ExportsDir
	}
	if o.PublicBaseURL == "" {
		o.PublicBaseURL = d.PublicBaseURL
	}
	if o.APIBaseURL == "" {
		o.APIBaseURL = d.APIBaseURL
	}
	if o.MediaBaseURL == "" {
		o.MediaBaseURL = o.APIBaseURL
	}
	if o.APITimeout <= 0 {
		o.APITimeout = d.APITimeout
	}
	if o.PageSize <= 0 {
		o.PageSize = d.PageSize
	}
	if o.Debounce <= 0 {
		o.Debounce = d.Debounce
	}
	if o.SessionTTL <= 0 {
		o.SessionTTL = 12 * time.Hour
	}
}

// Run 启动门户：
// - 公开页面：信息流、最高通缉、失踪人员、案件 canvas、线索提交、进度查询
// - 警员页面：登录、案件时间线与操作、通告发布向导、PDF 导出
// - JSON 接口：健康检查、元信息、导出登记、审计链校验
func Run(ctx context.Context, opts Options, logger *zap.Logger) error {
	opts.applyDefaults()
	logger = logging.OrNop(logger)

	if err := os.MkdirAll(filepath.Dir(opts.DBPath), 0o755); err != nil {
		return fmt.Errorf("create db directory: %w", err)
	}
	if err := os.MkdirAll(opts.ExportsDir, 0o755); err != nil {
		return fmt.Errorf("create exports directory: %w", err)
	}

	db, err := sqliteadapter.Open(ctx, opts.DBPath)
	if err != nil {
		return err
	}
	defer db.Close()

	api := leadsapi.New(opts.APIBaseURL, opts.APITimeout, logger.Named("leadsapi"))
	raster := &dossierpdf.RodRasterizer{BrowserBin: opts.BrowserBin}
	s, err := NewServer(opts, sqliteadapter.NewStore(db), api, raster, logger)
	if err != nil {
		return err
	}

	go s.janitor(ctx, 10*time.Minute)

	httpServer := &http.Server{
		Addr:              opts.ListenAddr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(shutdownCtx)
	}()

	logger.Info("portal listening",
		zap.String("addr", "http://"+opts.ListenAddr),
		zap.String("api", opts.APIBaseURL),
		zap.String("db", opts.DBPath),
	)
	err = httpServer.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// janitor 定期清理过期会话、闲置草稿与信息流分页状态。
func (s *Server) janitor(ctx context.Context, every time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			n, err := s.store.PurgeExpiredSessions(ctx)
			if err != nil {
				s.log.Warn("purge sessions failed", zap.Error(err))
			}
			drafts := s.drafts.Purge(24 * time.Hour)
			feeds := s.feeds.purge(time.Hour)
			if n > 0 || drafts > 0 || feeds > 0 {
				s.log.Info("janitor",
					zap.Int64("sessions", n),
					zap.Int("drafts", drafts),
					zap.Int("feeds", feeds),
				)
			}
		}
	}
}
