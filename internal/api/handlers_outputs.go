// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package api

import (
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/ManuGH/lipread/internal/log"
	"github.com/ManuGH/lipread/internal/platform/fs"
)

// handleOutput serves a published artifact as a download. Reads never mutate the directory.
func (s *Server) handleOutput(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "filename")
	path, err := fs.ConfineName(s.layout.Outputs(), name)
	if err != nil {
		logger := log.WithComponentFromContext(r.Context(), "api")
		logger.Warn().
			Str(log.FieldEvent, "file_req.denied").
			Str(log.FieldFilename, name).
			Msg("output name rejected")
		writeProblem(w, r, http.StatusNotFound, "not_found", "File not found.")
		return
	}
	serveFile(w, r, path, true)
}

// handleStatic serves the static directory without listings.
func (s *Server) handleStatic(w http.ResponseWriter, r *http.Request) {
	rel := chi.URLParam(r, "*")
	if rel == "" || strings.HasSuffix(rel, "/") {
		writeProblem(w, r, http.StatusNotFound, "not_found", "File not found.")
		return
	}
	path, err := fs.ConfineRelPath(s.layout.Static(), rel)
	if err != nil {
		writeProblem(w, r, http.StatusNotFound, "not_found", "File not found.")
		return
	}
	serveFile(w, r, path, false)
}

func serveFile(w http.ResponseWriter, r *http.Request, path string, attachment bool) {
	// #nosec G304 -- path is confined to a served directory
	f, err := os.Open(path)
	if err != nil {
		writeProblem(w, r, http.StatusNotFound, "not_found", "File not found.")
		return
	}
	defer func() { _ = f.Close() }()

	info, err := f.Stat()
	if err != nil || !info.Mode().IsRegular() {
		writeProblem(w, r, http.StatusNotFound, "not_found", "File not found.")
		return
	}

	name := filepath.Base(path)
	if ct := contentTypeFor(name); ct != "" {
		w.Header().Set("Content-Type", ct)
		if attachment {
			w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": name}))
		}
	}
	// ServeContent sniffs the type when none is set and handles Range/If-Modified-Since.
	http.ServeContent(w, r, name, info.ModTime(), f)
}

func contentTypeFor(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".mp3":
		return "audio/mpeg"
	case ".mp4":
		return "video/mp4"
	}
	return ""
}
