package splitter

import (
	"regexp"
	"sort"
	"strings"
)

// Header pattern families, each matching a whole line.
var (
	// 1. Numbered sections: "1. Header", "1.1 Header"
	numberedHeaderRe = regexp.MustCompile(`(?m)^(\d+\.?\d*\.?\s+[A-Z][^\n]{3,50})$`)
	// 2. ALL CAPS headers
	capsHeaderRe = regexp.MustCompile(`(?m)^([A-Z][A-Z ]{5,50})$`)
	// 3. Colon-terminated headers alone on their line
	colonHeaderRe = regexp.MustCompile(`(?m)^([A-Z][^:\n]{3,40}:)[ \t]*$`)
)

// SectionEntry records a detected header and its byte offset in the
// document text.
type SectionEntry struct {
	Offset int
	Header string
}

// SectionIndex answers which section header owns a given offset. It is
// built once per document and read-only afterwards.
type SectionIndex struct {
	entries []SectionEntry
}

// NewSectionIndex scans the text with all three header pattern families
// and pools the matches sorted by offset. A line matching two families
// yields two entries; dedupe keeps only the first entry per offset.
func NewSectionIndex(text string, dedupe bool) *SectionIndex {
	var entries []SectionEntry
	for _, re := range []*regexp.Regexp{numberedHeaderRe, capsHeaderRe, colonHeaderRe} {
		for _, m := range re.FindAllStringSubmatchIndex(text, -1) {
			entries = append(entries, SectionEntry{
				Offset: m[0],
				Header: strings.TrimSpace(text[m[2]:m[3]]),
			})
		}
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Offset < entries[j].Offset
	})
	if dedupe {
		entries = dedupeByOffset(entries)
	}
	return &SectionIndex{entries: entries}
}

// dedupeByOffset keeps the first of any entries sharing an offset.
// The three built-in families are mutually exclusive on a single line,
// so this only matters when the pooled index gains overlapping patterns.
func dedupeByOffset(entries []SectionEntry) []SectionEntry {
	deduped := entries[:0]
	for i, e := range entries {
		if i > 0 && e.Offset == entries[i-1].Offset {
			continue
		}
		deduped = append(deduped, e)
	}
	return deduped
}

// SectionAt returns the header text of the last entry at or before
// offset, or the empty string before the first header.
func (ix *SectionIndex) SectionAt(offset int) string {
	// first entry strictly after offset
	i := sort.Search(len(ix.entries), func(i int) bool {
		return ix.entries[i].Offset > offset
	})
	if i == 0 {
		return ""
	}
	return ix.entries[i-1].Header
}

// Entries returns the detected headers in ascending offset order.
func (ix *SectionIndex) Entries() []SectionEntry {
	return ix.entries
}
