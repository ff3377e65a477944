package splitter

import (
	"strings"

	"manuals-rag/internal/models"
)

// Separators in order of preference, most semantic to least.
var separators = []string{
	"\n\n", // paragraph breaks
	"\n",   // line breaks
	". ",   // sentence endings
	"! ",
	"? ",
	"; ", // clause breaks
	", ", // phrase breaks
	" ",  // word breaks
}

const (
	defaultChunkSize    = 1500
	defaultChunkOverlap = 400
	defaultMinChunkSize = 100
)

// Splitter turns document text into overlapping, offset-tracked chunks
// while respecting semantic boundaries. Safe for concurrent use; each
// Split call is self-contained.
type Splitter struct {
	chunkSize     int
	chunkOverlap  int
	minChunkSize  int
	dedupeOffsets bool
}

// Option configures a Splitter.
type Option func(*Splitter)

// WithSectionDedupe keeps only one header entry per offset when a line
// matches more than one header pattern family.
func WithSectionDedupe() Option {
	return func(s *Splitter) { s.dedupeOffsets = true }
}

// NewSplitter builds a splitter with the given chunk parameters.
// Non-positive values fall back to the defaults.
func NewSplitter(chunkSize, chunkOverlap, minChunkSize int, opts ...Option) *Splitter {
	if chunkSize <= 0 {
		chunkSize = defaultChunkSize
	}
	if chunkOverlap < 0 || chunkOverlap >= chunkSize {
		chunkOverlap = defaultChunkOverlap
		if chunkOverlap >= chunkSize {
			chunkOverlap = chunkSize / 2
		}
	}
	if minChunkSize <= 0 {
		minChunkSize = defaultMinChunkSize
	}
	s := &Splitter{
		chunkSize:    chunkSize,
		chunkOverlap: chunkOverlap,
		minChunkSize: minChunkSize,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Split partitions text into chunks. Empty or too-short input yields an
// empty result, never an error. StartChar/EndChar are byte offsets into
// text of the untrimmed segment each chunk was cut from.
func (s *Splitter) Split(text string) []models.Chunk {
	if len(strings.TrimSpace(text)) < s.minChunkSize {
		return nil
	}
	ix := NewSectionIndex(text, s.dedupeOffsets)
	return s.split(text, 0, 0, ix)
}

// split recursively partitions segment, which begins at absolute offset
// start, using progressively finer separators from sepIdx on.
func (s *Splitter) split(segment string, start, sepIdx int, ix *SectionIndex) []models.Chunk {
	if len(segment) <= s.chunkSize {
		if len(strings.TrimSpace(segment)) >= s.minChunkSize {
			return []models.Chunk{s.emit(segment, start, ix)}
		}
		return nil
	}

	if sepIdx >= len(separators) {
		return s.forceSplit(segment, start, ix)
	}

	sep := separators[sepIdx]
	parts := strings.Split(segment, sep)
	if len(parts) == 1 {
		// separator absent, escalate
		return s.split(segment, start, sepIdx+1, ix)
	}

	var chunks []models.Chunk
	var buf string
	bufStart := start
	cursor := start // absolute offset of the next part
	for i, part := range parts {
		// re-append the separator so no text is lost
		if i < len(parts)-1 {
			part += sep
		}
		partStart := cursor
		cursor += len(part)

		if len(buf)+len(part) <= s.chunkSize {
			if buf == "" {
				bufStart = partStart
			}
			buf += part
			continue
		}

		if len(strings.TrimSpace(buf)) >= s.minChunkSize {
			chunks = append(chunks, s.emit(buf, bufStart, ix))
		}

		// start the next buffer with trailing overlap from the flushed one
		if s.chunkOverlap > 0 && buf != "" {
			flushedEnd := bufStart + len(buf)
			ov := s.chunkOverlap
			if ov > len(buf) {
				ov = len(buf)
			}
			// parts are contiguous, so the flushed buffer ends exactly
			// where this part starts
			buf = buf[len(buf)-ov:] + part
			bufStart = flushedEnd - ov
		} else {
			buf = part
			bufStart = partStart
		}

		// oversized buffer even after the flush: recurse with the next
		// separator before continuing accumulation
		if len(buf) > s.chunkSize {
			chunks = append(chunks, s.split(buf, bufStart, sepIdx+1, ix)...)
			buf = ""
			bufStart = cursor
		}
	}

	if len(strings.TrimSpace(buf)) >= s.minChunkSize {
		chunks = append(chunks, s.emit(buf, bufStart, ix))
	}
	return chunks
}

// forceSplit handles a segment with no usable separator by cutting
// fixed-size windows, advancing by chunkSize-chunkOverlap each step.
func (s *Splitter) forceSplit(segment string, start int, ix *SectionIndex) []models.Chunk {
	step := s.chunkSize - s.chunkOverlap
	if step <= 0 {
		step = s.chunkSize
	}
	var chunks []models.Chunk
	for i := 0; i < len(segment); i += step {
		end := i + s.chunkSize
		if end > len(segment) {
			end = len(segment)
		}
		window := segment[i:end]
		if len(strings.TrimSpace(window)) >= s.minChunkSize {
			chunks = append(chunks, s.emit(window, start+i, ix))
		}
	}
	return chunks
}

func (s *Splitter) emit(segment string, start int, ix *SectionIndex) models.Chunk {
	return models.Chunk{
		Content:       strings.TrimSpace(segment),
		StartChar:     start,
		EndChar:       start + len(segment),
		SectionHeader: ix.SectionAt(start),
	}
}
