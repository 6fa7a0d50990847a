// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package speech

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestChunk_Short(t *testing.T) {
	assert.Equal(t, []string{"HELLO WORLD"}, Chunk("  HELLO   WORLD \n", 100))
	assert.Nil(t, Chunk("   ", 100))
}

func TestChunk_BreaksOnPunctuationThenSpace(t *testing.T) {
	got := Chunk("one two, three four five", 12)
	assert.Equal(t, []string{"one two,", "three four", "five"}, got)
}

func TestChunk_HardSplitsLongWords(t *testing.T) {
	got := Chunk(strings.Repeat("A", 25), 10)
	assert.Equal(t, []string{strings.Repeat("A", 10), strings.Repeat("A", 10), strings.Repeat("A", 5)}, got)
}

func TestChunk_RespectsLimitAndPreservesWords(t *testing.T) {
	text := strings.Repeat("PLACE RED IN A NINE AGAIN ", 20)
	chunks := Chunk(text, MaxChunkLen)

	assert.Greater(t, len(chunks), 1)
	for _, c := range chunks {
		assert.LessOrEqual(t, utf8.RuneCountInString(c), MaxChunkLen)
		assert.Equal(t, strings.TrimSpace(c), c)
	}
	assert.Equal(t, strings.Join(strings.Fields(text), " "), strings.Join(chunks, " "))
}

func TestChunk_MultibyteRunes(t *testing.T) {
	got := Chunk(strings.Repeat("é", 15), 10)
	assert.Equal(t, []string{strings.Repeat("é", 10), strings.Repeat("é", 5)}, got)
}
