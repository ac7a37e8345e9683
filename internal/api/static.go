package api

import (
	"net/http"
	"os"
	"path/filepath"
)

// servePage returns a handler that serves name from the static directory,
// read on every request so pages can be edited while the server runs.
func (s *Server) servePage(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		html, err := os.ReadFile(filepath.Join(s.staticDir, name))
		if err != nil {
			w.Header().Set("Content-Type", "text/plain; charset=utf-8")
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(name + " not found"))
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write(html)
	}
}
