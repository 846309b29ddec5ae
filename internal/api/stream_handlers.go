package api

import (
	"net/http"
	"os"

	domainerrors "github.com/sixtrece/beats-server/internal/errors"
	"github.com/sixtrece/beats-server/internal/http/response"
)

// registerEventRoutes mounts the SSE stream outside huma; it writes
// text/event-stream rather than enveloped JSON.
func (s *Server) registerEventRoutes() {
	if s.sseHandler == nil {
		s.router.Get("/api/events", func(w http.ResponseWriter, _ *http.Request) {
			response.HandleError(w, &domainerrors.Error{
				Code:    domainerrors.CodeUnavailable,
				Message: "live updates are disabled",
			}, s.logger)
		})
		return
	}
	s.router.Get("/api/events", s.sseHandler.ServeHTTP)
}

// registerAssetRoutes serves audio and cover files from the configured
// directories. Directory listings are not exposed.
func (s *Server) registerAssetRoutes() {
	s.mountAssets("/audio", s.opts.AudioDir)
	s.mountAssets("/images", s.opts.ImageDir)
}

func (s *Server) mountAssets(prefix, dir string) {
	if dir == "" {
		return
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		s.logger.Warn("asset directory unavailable, not serving", "prefix", prefix, "dir", dir)
		return
	}

	files := http.StripPrefix(prefix, http.FileServer(noListingFS{http.Dir(dir)}))
	s.router.Get(prefix+"/*", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", CacheOneDay)
		files.ServeHTTP(w, r)
	})
	s.router.Get(prefix, func(w http.ResponseWriter, _ *http.Request) {
		response.NotFound(w, "not found", s.logger)
	})
}

// noListingFS hides directories so http.FileServer returns 404 for them.
type noListingFS struct {
	fs http.FileSystem
}

func (n noListingFS) Open(name string) (http.File, error) {
	f, err := n.fs.Open(name)
	if err != nil {
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	if info.IsDir() {
		_ = f.Close()
		return nil, os.ErrNotExist
	}
	return f, nil
}
