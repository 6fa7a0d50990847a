// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package workspace

import (
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

const (
	maxNameLen  = 100
	defaultName = "upload.mp4"
)

// Request is the set of paths owned by a single prediction.
// Every name embeds ID, so two requests never share a file.
type Request struct {
	ID string

	// Temp files, removed when the request ends.
	Input     string
	Copy      string
	TempAudio string

	// Published artifacts.
	AudioName string
	VideoName string
	Audio     string
	Video     string
}

// NewRequest allocates a fresh UUIDv4 and derives the request's paths.
func (l Layout) NewRequest(originalName string) Request {
	return l.RequestFor(uuid.NewString(), originalName)
}

// RequestFor derives the paths for a known id.
func (l Layout) RequestFor(id, originalName string) Request {
	name := SanitizeName(originalName)
	audioName := "audio_" + id + ".mp3"
	videoName := "video_" + id + ".mp4"
	return Request{
		ID:        id,
		Input:     filepath.Join(l.Temp(), "input_"+id+"_"+name),
		Copy:      filepath.Join(l.Temp(), "copy_"+id+"_"+name),
		TempAudio: filepath.Join(l.Temp(), "temp_audio_"+id+".m4a"),
		AudioName: audioName,
		VideoName: videoName,
		Audio:     filepath.Join(l.Outputs(), audioName),
		Video:     filepath.Join(l.Outputs(), videoName),
	}
}

// TempFiles lists the intermediate files of the request.
func (r Request) TempFiles() []string {
	return []string{r.Input, r.Copy, r.TempAudio}
}

// SanitizeName reduces a client-supplied filename to a safe single segment.
func SanitizeName(name string) string {
	name = strings.ReplaceAll(name, `\`, "/")
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}

	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	out := strings.TrimLeft(b.String(), ".")
	if len(out) > maxNameLen {
		out = out[len(out)-maxNameLen:]
	}
	if strings.Trim(out, "_") == "" {
		return defaultName
	}
	return out
}
