package parser

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestSupported(t *testing.T) {
	assert.True(t, Supported("manuals/Claims_Guide.pdf"))
	assert.True(t, Supported("Remit_Manual.DOCX"))
	assert.True(t, Supported("notes.md"))
	assert.False(t, Supported("archive.zip"))
	assert.False(t, Supported("noextension"))
}

func TestExtractText(t *testing.T) {
	path := writeFile(t, "guide.txt", "Claims are entered in the work center.\n")
	pages, err := ExtractPages(path)
	require.NoError(t, err)
	require.Len(t, pages, 1)
	assert.Equal(t, "Claims are entered in the work center.\n", pages[0].Text)
	assert.Equal(t, 1, pages[0].Number)
	assert.Equal(t, "guide.txt", pages[0].Filename)
}

func TestExtractTextEmpty(t *testing.T) {
	path := writeFile(t, "empty.txt", "   \n\t\n")
	pages, err := ExtractPages(path)
	require.NoError(t, err)
	assert.Empty(t, pages)
}

func TestExtractMarkdown(t *testing.T) {
	md := "# Claims Overview\n\nClaims are validated before release.\n\n- check payer\n- check codes\n"
	path := writeFile(t, "guide.md", md)

	pages, err := ExtractPages(path)
	require.NoError(t, err)
	require.Len(t, pages, 1)

	text := pages[0].Text
	assert.Contains(t, text, "Claims Overview\n")
	assert.Contains(t, text, "Claims are validated before release.")
	assert.Contains(t, text, "check payer\n")
	assert.NotContains(t, text, "#")
}

func TestExtractMarkdownEmpty(t *testing.T) {
	path := writeFile(t, "empty.md", "\n\n")
	pages, err := ExtractPages(path)
	require.NoError(t, err)
	assert.Empty(t, pages)
}

func TestExtractPagesUnsupported(t *testing.T) {
	_, err := ExtractPages("guide.zip")
	assert.Error(t, err)
}

func TestExtractTextFromXML(t *testing.T) {
	xml := `<p><w:t>first run</w:t></p><p><w:t>second run</w:t></p>`
	assert.Equal(t, "first run second run ", extractTextFromXML(xml, "<w:t>", "</w:t>"))
	assert.Equal(t, "", extractTextFromXML("<p>no runs</p>", "<w:t>", "</w:t>"))
}
