package webapp

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"satark-portal/internal/adapters/leadsapi"
	"satark-portal/internal/domain/model"
	"satark-portal/internal/platform/id"
)

const (
	sessionCookie = "satark_session"
	visitorCookie = "satark_visitor"
)

// currentSession 读取警员会话；未登录或已过期返回 nil。
func (s *Server) currentSession(r *http.Request) *model.Session {
	c, err := r.Cookie(sessionCookie)
	if err != nil || c.Value == "" {
		return nil
	}
	sess, err := s.store.GetSession(r.Context(), c.Value)
	if err != nil {
		s.log.Warn("read session failed", zap.Error(err))
		return nil
	}
	return sess
}

func apiSession(sess *model.Session) leadsapi.Session {
	if sess == nil {
		return leadsapi.Session{}
	}
	return leadsapi.Session{ID: sess.SessionID, Token: sess.Token}
}

// requireOfficer 未登录时跳转登录页并返回 nil。
func (s *Server) requireOfficer(w http.ResponseWriter, r *http.Request) *model.Session {
	sess := s.currentSession(r)
	if sess == nil {
		redirectLogin(w, r)
		return nil
	}
	return sess
}

// handleUnauthorized 是唯一的鉴权失败跳转：清除 cookie 并跳转登录。
// err 不是 401/403 时返回 false，由调用方继续处理。
func (s *Server) handleUnauthorized(w http.ResponseWriter, r *http.Request, err error) bool {
	if !errors.Is(err, leadsapi.ErrUnauthorized) {
		return false
	}
	// 本地会话已由 expireSession 删除，这里只负责浏览器侧
	clearCookie(w, sessionCookie)
	redirectLogin(w, r)
	return true
}

// expireSession 挂在 leadsapi.Client.OnUnauthorized 上：任何带凭据的调用被后端拒绝，
// 都删除本地会话和该会话的发布草稿，包括那些只记日志不跳转的操作。
func (s *Server) expireSession(ctx context.Context, as leadsapi.Session) {
	if as.ID == "" {
		return
	}
	if err := s.store.DeleteSession(context.WithoutCancel(ctx), as.ID); err != nil {
		s.log.Warn("delete session failed", zap.Error(err))
	}
	drafts := s.drafts.DropOwner(as.ID)
	s.log.Info("credential rejected by backend, session cleared",
		zap.String("session_id", as.ID),
		zap.Int("drafts_dropped", drafts),
	)
}

func redirectLogin(w http.ResponseWriter, r *http.Request) {
	next := r.URL.Path
	if r.Method == http.MethodGet && r.URL.RawQuery != "" {
		next += "?" + r.URL.RawQuery
	}
	http.Redirect(w, r, "/login?next="+url.QueryEscape(next), http.StatusSeeOther)
}

// safeNext 只允许站内跳转。
func safeNext(next string) string {
	next = strings.TrimSpace(next)
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.Contains(next, "\\") {
		return "/dashboard/publish"
	}
	return next
}

func setCookie(w http.ResponseWriter, r *http.Request, name, value string, maxAge int) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
}

func clearCookie(w http.ResponseWriter, name string) {
	http.SetCookie(w, &http.Cookie{Name: name, Value: "", Path: "/", MaxAge: -1, HttpOnly: true})
}

// visitorID 是匿名访客的分页状态 key，没有时新发一个。
func visitorID(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(visitorCookie); err == nil && c.Value != "" {
		return c.Value
	}
	v := id.New("visitor")
	setCookie(w, r, visitorCookie, v, 0)
	return v
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	type loginPage struct {
		Username string
		Next     string
	}
	switch r.Method {
	case http.MethodGet:
		s.render(w, r, http.StatusOK, "login", pageData{Title: "Officer Login", Body: loginPage{Next: r.URL.Query().Get("next")}})
	case http.MethodPost:
		if err := r.ParseForm(); err != nil {
			http.Error(w, "invalid form", http.StatusBadRequest)
			return
		}
		username := strings.TrimSpace(r.PostFormValue("username"))
		next := r.PostFormValue("next")
		res, err := s.api.Login(r.Context(), username, r.PostFormValue("password"))
		if err != nil {
			s.log.Warn("login failed", zap.String("username", username), zap.Error(err))
			msg := "Login failed. Please check your credentials."
			if !errors.Is(err, leadsapi.ErrUnauthorized) {
				var apiErr *leadsapi.APIError
				if !errors.As(err, &apiErr) {
					msg = "Network error. Please try again."
				}
			}
			s.render(w, r, http.StatusUnauthorized, "login", pageData{Title: "Officer Login", Error: msg, Body: loginPage{Username: username, Next: next}})
			return
		}
		officer := res.User.Name
		if officer == "" {
			officer = username
		}
		sess, err := s.store.CreateSession(r.Context(), officer, res.Token, s.opts.SessionTTL)
		if err != nil {
			s.log.Error("create session failed", zap.Error(err))
			http.Error(w, "session unavailable", http.StatusInternalServerError)
			return
		}
		setCookie(w, r, sessionCookie, sess.SessionID, int(s.opts.SessionTTL.Seconds()))
		http.Redirect(w, r, safeNext(next), http.StatusSeeOther)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if sess := s.currentSession(r); sess != nil {
		if err := s.store.DeleteSession(r.Context(), sess.SessionID); err != nil {
			s.log.Warn("delete session failed", zap.Error(err))
		}
	}
	clearCookie(w, sessionCookie)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
