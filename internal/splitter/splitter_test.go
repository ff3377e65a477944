package splitter

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"manuals-rag/internal/models"
)

// requireRoundTrip asserts the core offset invariant: the untrimmed
// source slice of every chunk trims down to exactly its content.
func requireRoundTrip(t *testing.T, text string, chunks []models.Chunk) {
	t.Helper()
	for i, c := range chunks {
		require.GreaterOrEqual(t, c.StartChar, 0, "chunk %d start", i)
		require.LessOrEqual(t, c.StartChar, c.EndChar, "chunk %d range", i)
		require.LessOrEqual(t, c.EndChar, len(text), "chunk %d end", i)
		require.Equal(t, strings.TrimSpace(text[c.StartChar:c.EndChar]), c.Content,
			"chunk %d does not round-trip", i)
	}
}

func TestSplitDegenerateInput(t *testing.T) {
	s := NewSplitter(500, 50, 20)

	assert.Empty(t, s.Split(""))
	assert.Empty(t, s.Split("   \n\n\t  "))
	assert.Empty(t, s.Split("too short")) // below min_chunk_size
}

func TestSplitSingleChunk(t *testing.T) {
	s := NewSplitter(500, 50, 20)
	text := "This is a perfectly ordinary paragraph that fits into a single chunk without any splitting at all."

	chunks := s.Split(text)
	require.Len(t, chunks, 1)
	assert.Equal(t, text, chunks[0].Content)
	assert.Equal(t, 0, chunks[0].StartChar)
	assert.Equal(t, len(text), chunks[0].EndChar)
	assert.Empty(t, chunks[0].SectionHeader)
}

func TestSplitSentencesWithOverlap(t *testing.T) {
	s := NewSplitter(100, 20, 10)
	var sb strings.Builder
	for i := 0; i < 10; i++ {
		fmt.Fprintf(&sb, "The quick brown fox jumps over the lazy dog number %02d. ", i)
	}
	text := strings.TrimSuffix(sb.String(), " ")

	chunks := s.Split(text)
	require.Greater(t, len(chunks), 2)
	requireRoundTrip(t, text, chunks)

	for i, c := range chunks {
		assert.LessOrEqual(t, len(c.Content), 100, "chunk %d over size", i)
		assert.GreaterOrEqual(t, len(c.Content), 10, "chunk %d under min", i)
	}

	// overlap: each chunk starts chunk_overlap chars before the
	// previous one ends, and the first chunk starts at zero
	assert.Equal(t, 0, chunks[0].StartChar)
	for i := 1; i < len(chunks); i++ {
		assert.Equal(t, chunks[i-1].EndChar-20, chunks[i].StartChar, "chunk %d overlap", i)
	}
	assert.Equal(t, len(text), chunks[len(chunks)-1].EndChar)
}

func TestSplitCoverage(t *testing.T) {
	s := NewSplitter(120, 30, 10)
	text := strings.Repeat("Every sentence in this text is long enough to survive the minimum floor. ", 12)
	text = strings.TrimSuffix(text, " ")

	chunks := s.Split(text)
	require.NotEmpty(t, chunks)
	requireRoundTrip(t, text, chunks)

	// chunk ranges, in order, must tile the whole text with no gaps
	cursor := 0
	for i, c := range chunks {
		require.LessOrEqual(t, c.StartChar, cursor, "gap before chunk %d", i)
		if c.EndChar > cursor {
			cursor = c.EndChar
		}
	}
	assert.Equal(t, len(text), cursor)
}

func TestSplitForcedWindows(t *testing.T) {
	// an unbreakable token longer than chunk_size has no separator to
	// split on and falls back to fixed windows
	s := NewSplitter(500, 50, 20)
	text := strings.Repeat("x", 2000)

	chunks := s.Split(text)
	require.NotEmpty(t, chunks)
	requireRoundTrip(t, text, chunks)

	for i, c := range chunks {
		assert.LessOrEqual(t, len(c.Content), 500, "window %d over size", i)
	}
	// windows advance by chunk_size - chunk_overlap
	for i := 1; i < len(chunks); i++ {
		assert.Equal(t, chunks[i-1].StartChar+450, chunks[i].StartChar)
	}
	assert.Equal(t, 0, chunks[0].StartChar)
	assert.Equal(t, len(text), chunks[len(chunks)-1].EndChar)
}

func TestSplitSectionTagging(t *testing.T) {
	s := NewSplitter(500, 50, 20)
	text := "SECTION A\n\n" + strings.Repeat("x", 2000)

	chunks := s.Split(text)
	require.GreaterOrEqual(t, len(chunks), 4)
	requireRoundTrip(t, text, chunks)

	assert.Equal(t, "SECTION A", chunks[0].SectionHeader)
	for i, c := range chunks {
		assert.LessOrEqual(t, len(c.Content), 500, "chunk %d over size", i)
	}
}

func TestSplitHeadersSwitchSections(t *testing.T) {
	s := NewSplitter(80, 0, 10)
	intro := strings.Repeat("Intro text about nothing in particular. ", 4)
	claims := strings.Repeat("Claim submission steps are described here. ", 4)
	text := "CLAIMS OVERVIEW\n\n" + intro + "\n\nPAYMENT POSTING\n\n" + claims

	chunks := s.Split(text)
	require.NotEmpty(t, chunks)
	requireRoundTrip(t, text, chunks)

	assert.Equal(t, "CLAIMS OVERVIEW", chunks[0].SectionHeader)
	assert.Equal(t, "PAYMENT POSTING", chunks[len(chunks)-1].SectionHeader)

	// section ownership never reverts to an earlier header
	seenPosting := false
	for i, c := range chunks {
		if c.SectionHeader == "PAYMENT POSTING" {
			seenPosting = true
		}
		if seenPosting {
			assert.NotEqual(t, "CLAIMS OVERVIEW", c.SectionHeader, "chunk %d reverted section", i)
		}
	}
}

func TestSplitZeroOverlap(t *testing.T) {
	s := NewSplitter(100, 0, 10)
	var sb strings.Builder
	for i := 0; i < 8; i++ {
		fmt.Fprintf(&sb, "Sentence number %d carries enough characters to matter. ", i)
	}
	text := strings.TrimSpace(sb.String())

	chunks := s.Split(text)
	require.Greater(t, len(chunks), 1)
	requireRoundTrip(t, text, chunks)

	// without overlap the chunks tile exactly
	for i := 1; i < len(chunks); i++ {
		assert.Equal(t, chunks[i-1].EndChar, chunks[i].StartChar)
	}
}

func TestSplitDefaults(t *testing.T) {
	s := NewSplitter(0, -1, 0)
	assert.Equal(t, defaultChunkSize, s.chunkSize)
	assert.Equal(t, defaultChunkOverlap, s.chunkOverlap)
	assert.Equal(t, defaultMinChunkSize, s.minChunkSize)
}
