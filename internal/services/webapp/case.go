package webapp

import (
	"errors"
	"html/template"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"satark-portal/internal/domain/model"
	"satark-portal/internal/services/auditverify"
	"satark-portal/internal/services/canvas"
	"satark-portal/internal/services/casefile"
)

type casePage struct {
	Case     *casefile.Case
	Tab      casefile.Tab
	Tabs     []casefile.TabCount
	Timeline []model.Lead
	Canvas   template.HTML
	Reward   bool
	Exports  []model.ExportRecord
	Audit    *auditverify.Result
}

// handleCase:
// - GET  /dashboard/case/{id}?tab=all|anonymous|confidential|notes
// - POST /dashboard/case/{id}  action=pin|rate|notes|unpublish|claim
func (s *Server) handleCase(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodGet && r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	sess := s.requireOfficer(w, r)
	if sess == nil {
		return
	}

	c, err := s.cases.Load(r.Context(), apiSession(sess), id)
	if s.handleUnauthorized(w, r, err) {
		return
	}
	if err != nil {
		s.log.Warn("load case aborted", zap.String("lead_id", id), zap.Error(err))
		http.Error(w, "request cancelled", http.StatusServiceUnavailable)
		return
	}
	if c.Unavailable {
		s.render(w, r, http.StatusNotFound, "unavailable", pageData{
			Title: c.Title,
			Body:  unavailablePage{Heading: c.Title, Message: c.Message},
		})
		return
	}

	var flash, errMsg string
	if r.Method == http.MethodPost {
		var err error
		flash, errMsg, err = s.applyCaseAction(r, sess, c)
		if s.handleUnauthorized(w, r, err) {
			return
		}
	}
	s.renderCase(w, r, c, casefile.ParseTab(r.FormValue("tab")), flash, errMsg)
}

// applyCaseAction 执行一次警员操作。置顶/评级/备注失败只记日志；
// 下架和领奖失败在页面上提示，err 交给调用方判断是否需要重新登录。
func (s *Server) applyCaseAction(r *http.Request, sess *model.Session, c *casefile.Case) (flash, errMsg string, err error) {
	ctx := r.Context()
	as := apiSession(sess)
	target := strings.TrimSpace(r.FormValue("target"))

	switch r.FormValue("action") {
	case "pin":
		s.cases.TogglePin(ctx, as, c, sess.Officer, target)
	case "rate":
		s.cases.Rate(ctx, as, c, sess.Officer, target, parseInt(r.FormValue("rating"), 0))
	case "notes":
		if s.cases.UpdateNotes(ctx, as, c, sess.Officer, target, r.FormValue("notes")) {
			flash = "Notes saved."
		}
	case "unpublish":
		if err := s.cases.Unpublish(ctx, as, c, sess.Officer); err != nil {
			return "", "Failed to unpublish", err
		}
		flash = "Case removed from public view."
	case "claim":
		req := casefile.ClaimRequest{
			InformantToken: r.FormValue("informant_token"),
			Remarks:        r.FormValue("remarks"),
		}
		err := s.cases.ClaimReward(ctx, as, c, sess.Officer, req)
		switch {
		case err == nil:
			flash = "Reward claim recorded."
		case errors.Is(err, casefile.ErrClaimIncomplete):
			return "", "Please enter the informant token and resolution remarks.", nil
		case errors.Is(err, casefile.ErrNoActiveReward):
			return "", "This case has no active reward.", nil
		default:
			return "", "Failed to process claim", err
		}
	}
	return flash, "", nil
}

func (s *Server) renderCase(w http.ResponseWriter, r *http.Request, c *casefile.Case, tab casefile.Tab, flash, errMsg string) {
	page := casePage{
		Case:     c,
		Tab:      tab,
		Tabs:     c.Tabs(),
		Timeline: c.Timeline(tab),
		Reward:   c.Lead.HasActiveReward(),
	}
	if html, err := canvas.RenderHTML(s.canvas.Build(*c.Lead)); err != nil {
		s.log.Warn("render case canvas failed", zap.String("lead_id", c.ID), zap.Error(err))
	} else {
		page.Canvas = html
	}

	// 导出登记与审计链只是附加信息，读取失败不影响案件页
	if rows, err := s.store.ListExports(r.Context(), c.Lead.ID, 10); err == nil {
		page.Exports = rows
	} else {
		s.log.Warn("list exports failed", zap.Error(err))
	}
	if res, err := auditverify.VerifyLead(r.Context(), s.store, c.ID); err == nil {
		page.Audit = &res
	} else {
		s.log.Warn("verify audit chain failed", zap.Error(err))
	}

	s.render(w, r, http.StatusOK, "case", pageData{Title: c.Lead.Title, Flash: flash, Error: errMsg, Body: page})
}
