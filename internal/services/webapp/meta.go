package webapp

import (
	"net/http"
	"time"

	"satark-portal/internal/app"
)

func (s *Server) handleMeta(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	schemaVersion, _ := s.store.GetSchemaMetaValue(r.Context(), "schema_version")
	schemaName, _ := s.store.GetSchemaMetaValue(r.Context(), "schema_name")

	writeJSON(w, http.StatusOK, map[string]any{
		"ok":   true,
		"time": time.Now().Unix(),
		"app": map[string]any{
			"version":    app.Version,
			"commit":     app.Commit,
			"build_time": app.Date,
		},
		"db": map[string]any{
			"schema_version": schemaVersion,
			"schema_name":    schemaName,
			"path":           s.opts.DBPath,
		},
		"backend": map[string]any{
			"base_url": s.opts.APIBaseURL,
			"timeout":  s.opts.APITimeout.String(),
		},
		"runtime": map[string]any{
			"feeds":  s.feeds.len(),
			"drafts": s.drafts.Len(),
			"pdf": map[string]any{
				"exports_dir": s.opts.ExportsDir,
				"browser":     s.opts.BrowserBin,
			},
		},
	})
}
