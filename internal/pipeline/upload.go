// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package pipeline

import (
	"io"
	"mime"
	"strings"
)

// Upload is the client's video as received by the API.
type Upload struct {
	Filename    string
	ContentType string
	Body        io.Reader
}

// IsVideo reports whether the declared content type is video/*.
func (u Upload) IsVideo() bool {
	mediaType, _, err := mime.ParseMediaType(u.ContentType)
	if err != nil {
		mediaType = strings.ToLower(strings.TrimSpace(u.ContentType))
	}
	return strings.HasPrefix(mediaType, "video/")
}
