// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package speech

import (
	"strings"
	"unicode/utf8"
)

// MaxChunkLen is the longest text the translate_tts endpoint accepts per request.
const MaxChunkLen = 100

// Chunk splits text into pieces of at most limit runes, breaking on whitespace
// and punctuation where possible. Words longer than limit are hard split.
func Chunk(text string, limit int) []string {
	if limit <= 0 {
		limit = MaxChunkLen
	}
	text = strings.Join(strings.Fields(text), " ")
	if text == "" {
		return nil
	}

	var chunks []string
	for utf8.RuneCountInString(text) > limit {
		cut := cutPoint(text, limit)
		if piece := strings.TrimSpace(text[:cut]); piece != "" {
			chunks = append(chunks, piece)
		}
		text = strings.TrimSpace(text[cut:])
	}
	if text != "" {
		chunks = append(chunks, text)
	}
	return chunks
}

// cutPoint returns a byte offset at most limit runes into s, preferring the
// last punctuation mark, then the last space.
func cutPoint(s string, limit int) int {
	end, n := len(s), 0
	for i := range s {
		if n == limit {
			end = i
			break
		}
		n++
	}

	window := s[:end]
	if i := strings.LastIndexFunc(window, isBreakPunct); i > 0 {
		_, size := utf8.DecodeRuneInString(window[i:])
		return i + size
	}
	if i := strings.LastIndexByte(window, ' '); i > 0 {
		return i
	}
	return end
}

func isBreakPunct(r rune) bool {
	switch r {
	case '.', ',', ';', ':', '!', '?', '。', '，', '、':
		return true
	}
	return false
}
