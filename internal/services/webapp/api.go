package webapp

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"satark-portal/internal/platform/hash"
	"satark-portal/internal/services/auditverify"
	"satark-portal/internal/services/casebundle"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":      true,
		"service": "satark-portal",
		"time":    time.Now().Unix(),
	})
}

var errOfficerOnly = errors.New("officer session required")

// handleExportRoutes:
// - GET /api/exports/{export_id}            导出记录
// - GET /api/exports/{export_id}/download   下载（先校验 sha256）
func (s *Server) handleExportRoutes(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if s.currentSession(r) == nil {
		writeError(w, http.StatusUnauthorized, errOfficerOnly)
		return
	}
	rest := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/exports/"), "/")
	if rest == "" {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	parts := strings.Split(rest, "/")
	exportID := parts[0]

	rec, err := s.store.GetExport(r.Context(), exportID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if rec == nil {
		writeError(w, http.StatusNotFound, fmt.Errorf("export not found: %s", exportID))
		return
	}

	action := ""
	if len(parts) > 1 {
		action = parts[1]
	}
	switch action {
	case "":
		writeJSON(w, http.StatusOK, map[string]any{"export": rec})
	case "download":
		sum, _, err := hash.File(rec.FilePath)
		if err != nil {
			writeError(w, http.StatusGone, fmt.Errorf("export file unavailable: %w", err))
			return
		}
		if sum != rec.SHA256 {
			s.log.Warn("export file hash mismatch", zap.String("export_id", exportID), zap.String("want", rec.SHA256), zap.String("got", sum))
			writeError(w, http.StatusConflict, fmt.Errorf("export file modified since generation"))
			return
		}
		ct := "application/pdf"
		if rec.Mode == casebundle.Mode {
			ct = "application/zip"
		}
		w.Header().Set("Content-Type", ct)
		w.Header().Set("X-Content-SHA256", rec.SHA256)
		serveFile(w, r, rec.FilePath, rec.FileName)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

// handleLeadAPIRoutes:
// - GET /api/leads/{lead_id}/exports
// - GET /api/leads/{lead_id}/audit
// - GET /api/leads/{lead_id}/audit/verify
// - POST /api/leads/{lead_id}/bundle
func (s *Server) handleLeadAPIRoutes(w http.ResponseWriter, r *http.Request) {
	sess := s.currentSession(r)
	if sess == nil {
		writeError(w, http.StatusUnauthorized, errOfficerOnly)
		return
	}
	rest := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/leads/"), "/")
	parts := strings.Split(rest, "/")
	if len(parts) < 2 || parts[0] == "" {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	leadID := parts[0]

	if parts[1] == "bundle" {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		res, err := casebundle.Build(r.Context(), s.store, casebundle.Options{
			LeadID:     leadID,
			Actor:      sess.Officer,
			Note:       r.URL.Query().Get("note"),
			ExportsDir: s.opts.ExportsDir,
			Logger:     s.log,
			Now:        s.now,
		})
		if errors.Is(err, casebundle.ErrNothingToBundle) {
			writeError(w, http.StatusNotFound, err)
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusCreated, res)
		return
	}
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	switch parts[1] {
	case "exports":
		limit := parseInt(r.URL.Query().Get("limit"), 50)
		rows, err := s.store.ListExports(r.Context(), leadID, limit)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"exports": rows})
	case "audit":
		if len(parts) > 2 && parts[2] == "verify" {
			res, err := auditverify.VerifyLead(r.Context(), s.store, leadID)
			if err != nil {
				writeError(w, http.StatusInternalServerError, err)
				return
			}
			writeJSON(w, http.StatusOK, res)
			return
		}
		limit := parseInt(r.URL.Query().Get("limit"), 200)
		events, err := s.store.ListAuditEvents(r.Context(), leadID, limit)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"events": events})
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

// --- helpers ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]any{
		"error": err.Error(),
	})
}

func parseInt(s string, def int) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

func parseBool(s string, def bool) bool {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" {
		return def
	}
	switch s {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return def
	}
}

// urlPath 取 Referer 的站内路径部分（含查询串）。
func urlPath(raw string) (string, error) {
	if raw == "" {
		return "", nil
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	p := u.EscapedPath()
	if u.RawQuery != "" {
		p += "?" + u.RawQuery
	}
	return safeNext(p), nil
}
