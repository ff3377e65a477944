package models

// Chunk is a bounded, offset-tagged slice of one document's text, the
// unit that gets embedded and indexed.
type Chunk struct {
	Content       string
	StartChar     int
	EndChar       int
	SectionHeader string
}

// Page holds the raw text of a single source page before chunking.
type Page struct {
	Text     string
	Number   int
	Filename string
}

// Metadata keys attached to every stored chunk.
const (
	MetaFilename   = "filename"
	MetaPage       = "page"
	MetaChunkIndex = "chunk_index"
	MetaDomain     = "domain"
	MetaSection    = "section"
	MetaCharStart  = "char_start"
	MetaCharEnd    = "char_end"
)

// RetrievedDocument is a passage returned by similarity search.
// Content and Metadata are treated as opaque and immutable downstream.
type RetrievedDocument struct {
	ID       string
	Content  string
	Metadata map[string]string
}

// Filename returns the source filename or "Unknown" when the metadata
// is missing, matching the citation format.
func (d RetrievedDocument) Filename() string {
	if v, ok := d.Metadata[MetaFilename]; ok && v != "" {
		return v
	}
	return "Unknown"
}

// Page returns the source page or "?" when the metadata is missing.
func (d RetrievedDocument) Page() string {
	if v, ok := d.Metadata[MetaPage]; ok && v != "" {
		return v
	}
	return "?"
}

// Section returns the enclosing section header, possibly empty.
func (d RetrievedDocument) Section() string {
	return d.Metadata[MetaSection]
}

// Domain returns the topical category the document was ingested under.
func (d RetrievedDocument) Domain() string {
	return d.Metadata[MetaDomain]
}
