// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package workspace

import (
	"net/url"
	"path/filepath"
	"strings"
)

// Resolver turns a published artifact into the location returned to clients.
type Resolver interface {
	URI(name, path string) string
}

// HTTPResolver addresses artifacts through GET /outputs/{name}.
type HTTPResolver struct {
	BaseURL string
}

func (r HTTPResolver) URI(name, _ string) string {
	return strings.TrimRight(r.BaseURL, "/") + "/outputs/" + url.PathEscape(name)
}

// FileResolver addresses artifacts as file:// URIs, for clients on the same host.
type FileResolver struct{}

func (FileResolver) URI(_, path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	p := filepath.ToSlash(abs)
	if !strings.HasPrefix(p, "/") {
		// Windows drive paths need a leading slash: file:///C:/...
		p = "/" + p
	}
	return (&url.URL{Scheme: "file", Path: p}).String()
}
