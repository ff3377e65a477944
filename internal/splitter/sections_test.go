package splitter

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sectionedDoc = `1. Claims Overview

Claims are submitted through the work center and validated before release.

PAYMENT POSTING

Posted payments appear on the deposit report within one business day.

Denial Codes:

Each denial carries a remark code explaining the payer decision.`

func TestSectionIndexPatternFamilies(t *testing.T) {
	ix := NewSectionIndex(sectionedDoc, false)
	entries := ix.Entries()
	require.Len(t, entries, 3)

	assert.Equal(t, "1. Claims Overview", entries[0].Header)
	assert.Equal(t, "PAYMENT POSTING", entries[1].Header)
	assert.Equal(t, "Denial Codes:", entries[2].Header)

	// offsets ascend and point at the header lines
	for i := 1; i < len(entries); i++ {
		assert.Greater(t, entries[i].Offset, entries[i-1].Offset)
	}
	for _, e := range entries {
		line := sectionedDoc[e.Offset:]
		assert.True(t, strings.HasPrefix(line, e.Header), "offset of %q", e.Header)
	}
}

func TestSectionAt(t *testing.T) {
	ix := NewSectionIndex(sectionedDoc, false)

	postingOffset := strings.Index(sectionedDoc, "PAYMENT POSTING")
	denialOffset := strings.Index(sectionedDoc, "Denial Codes:")

	assert.Equal(t, "", ix.SectionAt(-1))
	assert.Equal(t, "1. Claims Overview", ix.SectionAt(0))
	assert.Equal(t, "1. Claims Overview", ix.SectionAt(postingOffset-1))
	assert.Equal(t, "PAYMENT POSTING", ix.SectionAt(postingOffset))
	assert.Equal(t, "PAYMENT POSTING", ix.SectionAt(denialOffset-1))
	assert.Equal(t, "Denial Codes:", ix.SectionAt(denialOffset))
	assert.Equal(t, "Denial Codes:", ix.SectionAt(len(sectionedDoc)))
}

func TestSectionAtMonotonic(t *testing.T) {
	ix := NewSectionIndex(sectionedDoc, false)

	// once a header applies, only a later header can replace it
	var order []string
	last := ""
	for o := 0; o <= len(sectionedDoc); o++ {
		s := ix.SectionAt(o)
		if s != last {
			order = append(order, s)
			last = s
		}
	}
	assert.Equal(t, []string{"1. Claims Overview", "PAYMENT POSTING", "Denial Codes:"}, order)
}

func TestSectionIndexNoHeaders(t *testing.T) {
	ix := NewSectionIndex("just some plain lowercase prose with no structure at all", false)
	assert.Empty(t, ix.Entries())
	assert.Equal(t, "", ix.SectionAt(10))
}

func TestSectionIndexPatternBounds(t *testing.T) {
	// too short for every family
	ix := NewSectionIndex("ABC\nHi:\n2. X", false)
	assert.Empty(t, ix.Entries())

	// must be the whole line
	ix = NewSectionIndex("see PAYMENT POSTING for details", false)
	assert.Empty(t, ix.Entries())
}

func TestDedupeByOffset(t *testing.T) {
	entries := []SectionEntry{
		{Offset: 0, Header: "CLAIM SUBMISSION"},
		{Offset: 0, Header: "Claim Submission:"},
		{Offset: 40, Header: "2. Payment Posting"},
		{Offset: 40, Header: "PAYMENT POSTING"},
		{Offset: 90, Header: "Denial Codes:"},
	}

	deduped := dedupeByOffset(entries)

	require.Len(t, deduped, 3)
	// the first entry at each offset wins
	assert.Equal(t, "CLAIM SUBMISSION", deduped[0].Header)
	assert.Equal(t, "2. Payment Posting", deduped[1].Header)
	assert.Equal(t, "Denial Codes:", deduped[2].Header)
}

func TestSectionIndexDedupeNoCollisions(t *testing.T) {
	// the built-in families cannot match the same line, so deduping the
	// fixture must change nothing
	assert.Equal(t,
		NewSectionIndex(sectionedDoc, false).Entries(),
		NewSectionIndex(sectionedDoc, true).Entries())
}
