package webapp

import (
	"errors"
	"html/template"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"satark-portal/internal/adapters/leadsapi"
	"satark-portal/internal/domain/model"
	"satark-portal/internal/platform/hash"
	"satark-portal/internal/services/canvas"
	"satark-portal/internal/services/formrender"
	"satark-portal/internal/services/publish"
)

type noticeCard struct {
	Notice      model.Notice
	Title       string
	Description string
}

// 发布中心的五种通告，顺序同 model.Notices。
var noticeCards = map[model.Notice]noticeCard{
	model.NoticeWanted:  {model.NoticeWanted, "Wanted Fugitive", "Red corner notice for absconders and proclaimed offenders."},
	model.NoticeMissing: {model.NoticeMissing, "Missing Person", "Yellow corner notice to trace a missing person."},
	model.NoticeAlert:   {model.NoticeAlert, "Public Safety Alert", "Warn the public about an active threat or scam."},
	model.NoticeSeeking: {model.NoticeSeeking, "Seeking Information", "Blue corner appeal for witnesses and information."},
	model.NoticeGeneral: {model.NoticeGeneral, "General Intelligence", "File a field report into the intelligence pool."},
}

type publishIndex struct {
	Cards []noticeCard
}

type stepPage struct {
	Wizard  publish.Wizard
	Card    noticeCard
	Steps   []stepLabel
	Form    template.HTML
	Preview template.HTML
	Mugshot bool
}

type stepLabel struct {
	Step   publish.Step
	Label  string
	Active bool
	Done   bool
}

// handlePublishRoutes:
// - GET  /dashboard/publish           选择通告类型
// - POST /dashboard/publish/new       notice=wanted|missing|alert|seeking|general
// - GET  /dashboard/publish/{wid}     当前步骤
// - POST /dashboard/publish/{wid}     nav=next|back|submit|discard
func (s *Server) handlePublishRoutes(w http.ResponseWriter, r *http.Request, parts []string) {
	sess := s.requireOfficer(w, r)
	if sess == nil {
		return
	}
	if len(parts) == 0 || parts[0] == "" {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		idx := publishIndex{}
		for _, n := range model.Notices {
			idx.Cards = append(idx.Cards, noticeCards[n])
		}
		s.render(w, r, http.StatusOK, "publish_index", pageData{Title: "Publish Notice", Officer: sess, Body: idx})
		return
	}

	if parts[0] == "new" {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		n, ok := model.ParseNotice(r.FormValue("notice"))
		if !ok {
			http.Error(w, "unknown notice type", http.StatusBadRequest)
			return
		}
		wz := s.drafts.Create(sess.SessionID, n)
		s.log.Info("publish draft started", zap.String("wizard_id", wz.ID), zap.String("notice", string(n)))
		http.Redirect(w, r, "/dashboard/publish/"+wz.ID, http.StatusSeeOther)
		return
	}

	wz, ok := s.drafts.Get(sess.SessionID, parts[0])
	if !ok {
		http.Redirect(w, r, "/dashboard/publish", http.StatusSeeOther)
		return
	}
	switch r.Method {
	case http.MethodGet:
		s.renderStep(w, r, sess, wz)
	case http.MethodPost:
		s.advanceWizard(w, r, sess, wz)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) advanceWizard(w http.ResponseWriter, r *http.Request, sess *model.Session, wz publish.Wizard) {
	if err := r.ParseMultipartForm(maxUpload); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	self := "/dashboard/publish/" + wz.ID
	nav := r.FormValue("nav")
	if nav == "discard" {
		s.drafts.Delete(wz.ID)
		http.Redirect(w, r, "/dashboard/publish", http.StatusSeeOther)
		return
	}

	switch wz.Step {
	case publish.StepForm:
		fields := wz.Fields()
		formrender.Decode(fields, r.PostForm, wz.Set)
		wz.Draft.Pending = formrender.PendingFrom(fields, r.PostForm)
		if formrender.ApplyTagCommand(fields, r.PostForm, wz.Draft.Data, wz.Draft.Pending, wz.Set) {
			s.drafts.Put(wz)
			http.Redirect(w, r, self, http.StatusSeeOther)
			return
		}
		if nav == "stay" {
			formrender.EnterPending(fields, wz.Draft.Data, wz.Draft.Pending, wz.Set)
		}
	case publish.StepEvidence:
		files, err := formFiles(r.MultipartForm, "evidence")
		if err != nil {
			wz.LastError = "Could not read the attached files."
			s.drafts.Put(wz)
			http.Redirect(w, r, self, http.StatusSeeOther)
			return
		}
		wz.AddFiles(files...)
		if mug, err := formFiles(r.MultipartForm, "mugshot"); err == nil && len(mug) > 0 {
			wz.SetMugshot(&mug[0])
		}
		if parseBool(r.FormValue("clear_mugshot"), false) {
			wz.SetMugshot(nil)
		}
		if raw := r.FormValue("remove_file"); raw != "" {
			wz.RemoveFile(parseInt(raw, -1))
			s.drafts.Put(wz)
			http.Redirect(w, r, self, http.StatusSeeOther)
			return
		}
	case publish.StepPreview:
		if nav == "submit" {
			s.submitWizard(w, r, sess, wz)
			return
		}
	}

	switch nav {
	case "next":
		wz.Next()
	case "back":
		wz.Back()
	}
	s.drafts.Put(wz)
	http.Redirect(w, r, self, http.StatusSeeOther)
}

func (s *Server) submitWizard(w http.ResponseWriter, r *http.Request, sess *model.Session, wz publish.Wizard) {
	ref, err := wz.Submit(r.Context(), s.api, apiSession(sess), s.now())
	if err != nil {
		// 凭据被拒时草稿已随会话一起丢弃，不再放回
		if s.handleUnauthorized(w, r, err) {
			return
		}
		s.drafts.Put(wz)
		s.log.Warn("publish notice failed", zap.String("wizard_id", wz.ID), zap.String("notice", string(wz.Notice)), zap.Error(err))
		s.renderStepStatus(w, r, sess, wz, statusForSubmit(err))
		return
	}
	s.drafts.Delete(wz.ID)
	if err := s.store.AppendAudit(r.Context(), ref, "officer_action", "publish", "success", sess.Officer, "webapp", map[string]any{
		"notice":   string(wz.Notice),
		"evidence": evidenceDigests(wz.Evidence()),
	}); err != nil {
		s.log.Warn("audit publish failed", zap.String("lead_id", ref), zap.Error(err))
	}
	s.log.Info("notice published", zap.String("lead_id", ref), zap.String("notice", string(wz.Notice)), zap.String("officer", sess.Officer))
	http.Redirect(w, r, "/dashboard/case/"+ref, http.StatusSeeOther)
}

// evidenceDigests 记录随通告上传的文件摘要，便于日后比对后端存档。
func evidenceDigests(files []leadsapi.Attachment) []map[string]any {
	out := make([]map[string]any, 0, len(files))
	for _, f := range files {
		out = append(out, map[string]any{
			"name":   f.Name,
			"size":   len(f.Data),
			"sha256": hash.Bytes(f.Data),
		})
	}
	return out
}

func statusForSubmit(err error) int {
	var apiErr *leadsapi.APIError
	if errors.As(err, &apiErr) {
		return http.StatusUnprocessableEntity
	}
	return http.StatusBadGateway
}

func (s *Server) renderStep(w http.ResponseWriter, r *http.Request, sess *model.Session, wz publish.Wizard) {
	s.renderStepStatus(w, r, sess, wz, http.StatusOK)
}

func (s *Server) renderStepStatus(w http.ResponseWriter, r *http.Request, sess *model.Session, wz publish.Wizard, status int) {
	page := stepPage{
		Wizard:  wz,
		Card:    noticeCards[wz.Notice],
		Mugshot: wz.Notice != model.NoticeAlert,
	}
	for _, st := range []publish.Step{publish.StepForm, publish.StepEvidence, publish.StepPreview} {
		page.Steps = append(page.Steps, stepLabel{Step: st, Label: publish.StepLabels[st], Active: st == wz.Step, Done: st < wz.Step})
	}

	var err error
	switch wz.Step {
	case publish.StepForm:
		page.Form, err = formrender.Render(wz.Fields(), wz.Draft.Data, wz.Draft.Pending)
	case publish.StepPreview:
		page.Preview, err = canvas.RenderHTML(s.canvas.Build(wz.PreviewLead(s.now())))
	}
	if err != nil {
		s.log.Error("render wizard step failed", zap.String("wizard_id", wz.ID), zap.Error(err))
		http.Error(w, "render failed", http.StatusInternalServerError)
		return
	}
	s.render(w, r, status, "publish_step", pageData{
		Title:   "Publish: " + strings.TrimSpace(page.Card.Title),
		Officer: sess,
		Error:   wz.LastError,
		Body:    page,
	})
}
