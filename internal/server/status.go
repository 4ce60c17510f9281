package server

import (
	"encoding/json"
	"net/http"

	"github.com/vk/bundlego/internal/ctxlog"
)

// StatusHandler exposes the resolved settings and a model summary as JSON.
// It is mounted under the configured stats name when stats_enabled is on.
func (s *Server) StatusHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		model, err := s.store.Model(r.Context())
		if err != nil {
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}

		groups := make([]map[string]any, 0, len(model.Groups))
		for _, g := range model.Groups {
			uris := make([]string, 0, len(g.Resources))
			for _, res := range g.Resources {
				uris = append(uris, res.URI)
			}
			groups = append(groups, map[string]any{"name": g.Name, "resources": uris})
		}

		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		err = json.NewEncoder(w).Encode(map[string]any{
			"mode":     s.mode.String(),
			"settings": s.settings,
			"groups":   groups,
		})
		if err != nil {
			ctxlog.FromContext(r.Context()).Error("Failed to encode status response.", "error", err)
		}
	})
}
