package webapp

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"

	"satark-portal/internal/adapters/leadsapi"
	sqliteadapter "satark-portal/internal/adapters/store/sqlite"
	"satark-portal/internal/domain/model"
	"satark-portal/internal/domain/schema"
	"satark-portal/internal/platform/logging"
	"satark-portal/internal/services/canvas"
	"satark-portal/internal/services/casefile"
	"satark-portal/internal/services/dossierpdf"
	"satark-portal/internal/services/feed"
	"satark-portal/internal/services/publish"
	"satark-portal/internal/services/tips"
)

// Server 是门户的运行时对象。
type Server struct {
	opts  Options
	log   *zap.Logger
	store *sqliteadapter.Store
	api   *leadsapi.Client

	canvas   *canvas.Builder
	exporter *dossierpdf.Exporter
	cases    *casefile.Service
	tips     *tips.Service
	drafts   *publish.Store
	feeds    *feedManager

	pages  map[string]*template.Template
	assets fs.FS
	now    func() time.Time
}

// NewServer 组装各个服务，并接管 api 的 OnUnauthorized。raster 为 nil 时 PDF 只走文字版。
func NewServer(opts Options, store *sqliteadapter.Store, api *leadsapi.Client, raster dossierpdf.Rasterizer, logger *zap.Logger) (*Server, error) {
	opts.applyDefaults()
	logger = logging.OrNop(logger)

	builder := canvas.NewBuilder(canvas.Options{
		PublicBaseURL: opts.PublicBaseURL,
		MediaBaseURL:  opts.MediaBaseURL,
		Logger:        logger,
	})
	pages, err := parsePages()
	if err != nil {
		return nil, err
	}
	assets, err := fs.Sub(uiFS, "assets")
	if err != nil {
		return nil, fmt.Errorf("sub assets fs: %w", err)
	}

	s := &Server{
		opts:   opts,
		log:    logger,
		store:  store,
		api:    api,
		canvas: builder,
		cases:  casefile.NewService(api, store, logger.Named("casefile")),
		tips:   tips.NewService(api, logger.Named("tips")),
		drafts: publish.NewStore(),
		feeds:  newFeedManager(api, opts.PageSize, logger.Named("feed")),
		pages:  pages,
		assets: assets,
		now:    time.Now,
	}
	prev := api.OnUnauthorized
	api.OnUnauthorized = func(ctx context.Context, as leadsapi.Session) {
		s.expireSession(ctx, as)
		if prev != nil {
			prev(ctx, as)
		}
	}
	s.exporter = dossierpdf.NewExporter(store, builder, dossierpdf.Options{
		ExportsDir: opts.ExportsDir,
		FontPath:   opts.PDFFont,
		Rasterizer: raster,
		Logger:     logger.Named("dossierpdf"),
	})
	return s, nil
}

// Handler 返回注册好路由的 mux。
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.registerRoutes(mux)
	return mux
}

func (s *Server) registerRoutes(mux *http.ServeMux) {
	// API
	mux.HandleFunc("/api/health", s.handleHealth)
	mux.HandleFunc("/api/meta", s.handleMeta)
	mux.HandleFunc("/api/exports/", s.handleExportRoutes)
	mux.HandleFunc("/api/leads/", s.handleLeadAPIRoutes)

	// 静态资源
	mux.HandleFunc("/static/canvas.css", s.handleCanvasCSS)
	mux.HandleFunc("/static/badge.svg", s.handleBadge)
	mux.Handle("/static/", http.StripPrefix("/static/", http.FileServer(http.FS(s.assets))))

	// 公开页面
	mux.HandleFunc("/most-wanted", s.handleBoard(feed.BoardWanted))
	mux.HandleFunc("/missing-persons", s.handleBoard(feed.BoardMissing))
	mux.HandleFunc("/leads/", s.handleLeadRoutes)
	mux.HandleFunc("/report", s.handleReport)
	mux.HandleFunc("/track", s.handleTrack)
	mux.HandleFunc("/login", s.handleLogin)
	mux.HandleFunc("/logout", s.handleLogout)

	// 警员页面
	mux.HandleFunc("/dashboard", s.handleDashboard)
	mux.HandleFunc("/dashboard/", s.handleDashboardRoutes)

	mux.HandleFunc("/", s.handleHome)
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/dashboard/publish", http.StatusSeeOther)
}

func (s *Server) handleDashboardRoutes(w http.ResponseWriter, r *http.Request) {
	rest := strings.Trim(strings.TrimPrefix(r.URL.Path, "/dashboard/"), "/")
	parts := strings.Split(rest, "/")
	switch parts[0] {
	case "", "publish":
		s.handlePublishRoutes(w, r, parts[1:])
	case "case":
		if len(parts) < 2 || parts[1] == "" {
			http.NotFound(w, r)
			return
		}
		s.handleCase(w, r, parts[1])
	default:
		http.NotFound(w, r)
	}
}

func (s *Server) handleCanvasCSS(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/css; charset=utf-8")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	_, _ = w.Write(canvas.Stylesheet())
}

func (s *Server) handleBadge(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "image/svg+xml")
	w.Header().Set("Cache-Control", "public, max-age=86400")
	_, _ = w.Write(canvas.PlaceholderSVG())
}

var pageFuncs = template.FuncMap{
	"ago": func(t time.Time) string {
		if t.IsZero() {
			return ""
		}
		return humanize.Time(t)
	},
	// reward_amount 在 Lead 上是 FlexString
	"reward":   func(v any) string { return canvas.Reward(fmt.Sprint(v)) },
	"category": schema.CategoryLabel,
	"canvas":   canvas.RenderHTML,
	"list":     func(n ...int) []int { return n },
	"statusClass": func(status string) string {
		return "status-" + strings.ToLower(status)
	},
}

// 每个页面与 layout 单独组合成一棵模板树，页面只需定义 "content"。
var pageNames = []string{
	"home", "board", "lead", "unavailable", "report", "report_done", "track",
	"login", "case", "publish_index", "publish_step",
}

func parsePages() (map[string]*template.Template, error) {
	out := make(map[string]*template.Template, len(pageNames))
	for _, name := range pageNames {
		t, err := template.New("layout.gohtml").Funcs(pageFuncs).ParseFS(uiFS, "templates/layout.gohtml", "templates/"+name+".gohtml")
		if err != nil {
			return nil, fmt.Errorf("parse page %s: %w", name, err)
		}
		out[name] = t
	}
	return out, nil
}

// pageData 是所有页面共享的外层数据。
type pageData struct {
	Title    string
	Officer  *model.Session
	Error    string
	Flash    string
	Debounce int64 // 毫秒，搜索框防抖
	Body     any
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, page string, data pageData) {
	t, ok := s.pages[page]
	if !ok {
		http.Error(w, "unknown page "+page, http.StatusInternalServerError)
		return
	}
	if data.Officer == nil {
		data.Officer = s.currentSession(r)
	}
	data.Debounce = s.opts.Debounce.Milliseconds()

	// 先渲染到内存，模板出错时不会写出半个页面
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		s.log.Error("render page failed", zap.String("page", page), zap.Error(err))
		http.Error(w, "render failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}
