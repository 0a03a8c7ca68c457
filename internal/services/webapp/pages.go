package webapp

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"satark-portal/internal/adapters/leadsapi"
	"satark-portal/internal/domain/model"
	"satark-portal/internal/domain/schema"
	"satark-portal/internal/services/canvas"
	"satark-portal/internal/services/dossierpdf"
	"satark-portal/internal/services/feed"
	"satark-portal/internal/services/privacy"
	"satark-portal/internal/services/tips"
)

// maxUpload 是单次表单上传（证据文件）的内存上限。
const maxUpload = 32 << 20

type homePage struct {
	Tabs       []feed.Tab
	Page       feed.Page
	Ticker     []feed.Card
	Categories []schema.Category
	MoreURL    string
}

// handleHome 是首页信息流：?tab=&q=&category=&jurisdiction=&more=1。
// 筛选条件变化时重置分页；more=1 时在当前筛选下再取一页。
func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	q := r.URL.Query()
	filter := feed.Filter{
		Tab:          strings.TrimSpace(q.Get("tab")),
		Search:       strings.TrimSpace(q.Get("q")),
		Category:     strings.TrimSpace(q.Get("category")),
		Jurisdiction: strings.TrimSpace(q.Get("jurisdiction")),
	}
	if filter.Tab == "" {
		filter.Tab = "all"
	}

	p := s.feeds.get(visitorID(w, r))
	snap := p.Snapshot()
	if snap.Filter != filter {
		p.Reset(filter)
		snap = p.Snapshot()
	}

	var flash string
	if len(snap.Items) == 0 || parseBool(q.Get("more"), false) {
		if _, err := p.Next(r.Context()); err != nil {
			flash = "Could not reach the intelligence feed. Showing what was loaded so far."
		}
		snap = p.Snapshot()
	}

	more := r.URL.Query()
	more.Set("more", "1")
	s.render(w, r, http.StatusOK, "home", pageData{
		Title: "Satark - Public Intelligence Feed",
		Error: flash,
		Body: homePage{
			Tabs:       feed.Tabs,
			Page:       snap,
			Ticker:     s.ticker(r.Context()),
			Categories: schema.Categories,
			MoreURL:    "/?" + more.Encode(),
		},
	})
}

// ticker 失败时返回空，不影响首页。
func (s *Server) ticker(ctx context.Context) []feed.Card {
	leads, err := s.api.ListPublicLeads(ctx, model.FeedQuery{Limit: feed.BoardLimit})
	if err != nil {
		s.log.Warn("load wanted ticker failed", zap.Error(err))
		return nil
	}
	return feed.Ticker(leads)
}

type boardPage struct {
	Board    feed.Board
	Heading  string
	Path     string
	Search   string
	Priority string
	Filters  []string
	Cards    []feed.Card
}

func (s *Server) handleBoard(b feed.Board) http.HandlerFunc {
	heading, path := "Most Wanted", "/most-wanted"
	if b == feed.BoardMissing {
		heading, path = "Missing Persons", "/missing-persons"
	}
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		q := r.URL.Query()
		page := boardPage{
			Board:    b,
			Heading:  heading,
			Path:     path,
			Search:   strings.TrimSpace(q.Get("q")),
			Priority: q.Get("priority"),
			Filters:  b.PriorityFilters(),
		}
		if page.Priority == "" {
			page.Priority = "All"
		}

		var flash string
		cards, err := feed.LoadBoard(r.Context(), s.api, b)
		if err != nil {
			s.log.Warn("load board failed", zap.String("board", heading), zap.Error(err))
			flash = "Could not load " + strings.ToLower(heading) + " right now."
		}
		page.Cards = feed.FilterCards(cards, b, page.Search, page.Priority)
		s.render(w, r, http.StatusOK, "board", pageData{Title: heading, Error: flash, Body: page})
	}
}

// handleLeadRoutes:
// - GET  /leads/{id}       公开 canvas
// - GET  /leads/{id}/pdf   下载 PDF
// - POST /leads/{id}/vote  匿名点赞
func (s *Server) handleLeadRoutes(w http.ResponseWriter, r *http.Request) {
	rest := strings.Trim(strings.TrimPrefix(r.URL.Path, "/leads/"), "/")
	if rest == "" {
		http.NotFound(w, r)
		return
	}
	parts := strings.Split(rest, "/")
	leadID := parts[0]
	action := ""
	if len(parts) > 1 {
		action = parts[1]
	}

	switch action {
	case "":
		s.handleLeadPage(w, r, leadID)
	case "pdf":
		s.handleLeadPDF(w, r, leadID)
	case "vote":
		s.handleVote(w, r, leadID)
	default:
		http.NotFound(w, r)
	}
}

type leadPage struct {
	Lead   model.Lead
	Canvas canvas.View
}

type unavailablePage struct {
	Heading string
	Message string
}

func (s *Server) renderUnavailable(w http.ResponseWriter, r *http.Request, leadID string) {
	s.render(w, r, http.StatusNotFound, "unavailable", pageData{
		Title: "Case Unavailable",
		Body: unavailablePage{
			Heading: "Case Unavailable",
			Message: fmt.Sprintf("The requested intelligence dossier (ID: %s) could not be retrieved.", leadID),
		},
	})
}

func (s *Server) handleLeadPage(w http.ResponseWriter, r *http.Request, leadID string) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	l, err := s.api.GetPublicLead(r.Context(), leadID)
	if err != nil {
		s.log.Warn("load public lead failed", zap.String("lead_id", leadID), zap.Error(err))
		s.renderUnavailable(w, r, leadID)
		return
	}
	s.render(w, r, http.StatusOK, "lead", pageData{
		Title: l.Title,
		Body:  leadPage{Lead: *l, Canvas: s.canvas.Build(*l)},
	})
}

// handleLeadPDF 警员登录时读内部详情并每次登记导出；访客读公开详情，内容未变时复用已有文件。
func (s *Server) handleLeadPDF(w http.ResponseWriter, r *http.Request, leadID string) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	sess := s.currentSession(r)
	var (
		l   *model.Lead
		err error
	)
	if sess != nil {
		l, err = s.api.GetLead(r.Context(), apiSession(sess), leadID)
		if s.handleUnauthorized(w, r, err) {
			return
		}
	} else {
		l, err = s.api.GetPublicLead(r.Context(), leadID)
	}
	if err != nil {
		s.log.Warn("load lead for pdf failed", zap.String("lead_id", leadID), zap.Error(err))
		s.renderUnavailable(w, r, leadID)
		return
	}

	var res *dossierpdf.Result
	if sess != nil {
		res, err = s.exporter.Export(r.Context(), *l, sess.Officer)
	} else {
		res, err = s.exporter.ExportPublic(r.Context(), *l)
	}
	if err != nil {
		s.log.Error("export pdf failed", zap.String("lead_id", leadID), zap.Error(err))
		http.Error(w, "Failed to generate PDF", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	serveFile(w, r, res.FilePath, res.FileName)
}

func (s *Server) handleVote(w http.ResponseWriter, r *http.Request, leadID string) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if _, err := s.api.Vote(r.Context(), leadID); err != nil {
		s.log.Warn("vote failed", zap.String("lead_id", leadID), zap.Error(err))
	}
	back := "/"
	if ref, err := urlPath(r.Referer()); err == nil && ref != "" {
		back = ref
	}
	http.Redirect(w, r, back, http.StatusSeeOther)
}

type reportPage struct {
	Report     tips.Report
	Units      model.UnitHierarchy
	Fallback   bool
	Categories []schema.Category
	Referenced template.HTML
}

// handleReport 是市民线索提交页（?mode=named|public&ref=&title=）。
func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		q := r.URL.Query()
		rep := tips.NewReport(q.Get("mode"), q.Get("ref"), q.Get("title"))
		s.renderReport(w, r, http.StatusOK, rep, "")
	case http.MethodPost:
		if err := r.ParseMultipartForm(maxUpload); err != nil && !errors.Is(err, http.ErrNotMultipart) {
			http.Error(w, "invalid form", http.StatusBadRequest)
			return
		}
		rep := tips.Report{
			Title:        r.FormValue("title"),
			Description:  r.FormValue("description"),
			Name:         r.FormValue("name"),
			Contact:      r.FormValue("contact"),
			IncidentTime: r.FormValue("incident_time"),
			CategoryID:   r.FormValue("category_id"),
			UnitID:       r.FormValue("unit_id"),
			Ref:          r.FormValue("ref"),
		}
		switch r.FormValue("identity") {
		case "named":
		case "public":
			rep.Public = true
		default:
			rep.Anonymous = true
		}
		files, err := formFiles(r.MultipartForm, "evidence")
		if err != nil {
			s.renderReport(w, r, http.StatusBadRequest, rep, "Could not read the attached files.")
			return
		}
		rep.Files = files

		token, err := s.tips.Submit(r.Context(), rep)
		if err != nil {
			msg := "Network error. Your report was not submitted. Please try again."
			var apiErr *leadsapi.APIError
			if errors.As(err, &apiErr) || errors.Is(err, tips.ErrNoToken) {
				msg = "Submission failed. Please check your inputs and try again."
			}
			s.renderReport(w, r, http.StatusBadGateway, rep, msg)
			return
		}
		s.render(w, r, http.StatusOK, "report_done", pageData{Title: "Report Submitted", Body: token})
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) renderReport(w http.ResponseWriter, r *http.Request, status int, rep tips.Report, errMsg string) {
	units, fallback := s.tips.Units(r.Context())
	page := reportPage{Report: rep, Units: units, Fallback: fallback, Categories: schema.Categories}
	if ref := s.tips.Referenced(r.Context(), rep.Ref); ref != nil {
		if html, err := canvas.RenderHTML(s.canvas.Build(*ref)); err == nil {
			page.Referenced = html
		}
	}
	s.render(w, r, status, "report", pageData{Title: "Submit Intelligence", Error: errMsg, Body: page})
}

type trackPage struct {
	Token string
	Lead  *model.Lead
}

func (s *Server) handleTrack(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	page := trackPage{Token: strings.TrimSpace(r.URL.Query().Get("token"))}
	var errMsg string
	status := http.StatusOK
	if page.Token != "" {
		l, err := s.tips.Track(r.Context(), page.Token)
		switch {
		case err == nil:
			page.Lead = l
		case errors.Is(err, leadsapi.ErrNotFound):
			errMsg = "No report found for this token."
			status = http.StatusNotFound
		default:
			s.log.Warn("track failed", zap.String("token", privacy.MaskToken(page.Token)), zap.Error(err))
			errMsg = "Could not check the status right now."
			status = http.StatusBadGateway
		}
	}
	s.render(w, r, status, "track", pageData{Title: "Track Your Report", Error: errMsg, Body: page})
}

// formFiles 读出 multipart 中同名的全部文件。
func formFiles(form *multipart.Form, field string) ([]leadsapi.Attachment, error) {
	if form == nil {
		return nil, nil
	}
	var out []leadsapi.Attachment
	for _, fh := range form.File[field] {
		a, err := readFile(fh)
		if err != nil {
			return nil, err
		}
		if len(a.Data) > 0 {
			out = append(out, a)
		}
	}
	return out, nil
}

func readFile(fh *multipart.FileHeader) (leadsapi.Attachment, error) {
	f, err := fh.Open()
	if err != nil {
		return leadsapi.Attachment{}, fmt.Errorf("open %s: %w", fh.Filename, err)
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return leadsapi.Attachment{}, fmt.Errorf("read %s: %w", fh.Filename, err)
	}
	return leadsapi.Attachment{Name: fh.Filename, ContentType: fh.Header.Get("Content-Type"), Data: data}, nil
}
