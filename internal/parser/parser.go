package parser

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"
	"github.com/tealeg/xlsx"
	"github.com/xuri/excelize/v2"

	"manuals-rag/internal/models"
)

// SupportedExtensions lists the manual formats the parser can read.
var SupportedExtensions = []string{".pdf", ".docx", ".pptx", ".xlsx", ".ods", ".md", ".txt"}

// Supported reports whether the file extension has an extractor.
func Supported(filePath string) bool {
	ext := strings.ToLower(filepath.Ext(filePath))
	for _, s := range SupportedExtensions {
		if ext == s {
			return true
		}
	}
	return false
}

// ExtractPages reads a manual and returns its raw text page by page.
// Formats without real pages (DOCX, TXT, Markdown) come back as one
// page; spreadsheets and slide decks map sheets/slides to pages.
func ExtractPages(filePath string) ([]models.Page, error) {
	filename := filepath.Base(filePath)
	ext := strings.ToLower(filepath.Ext(filePath))
	switch ext {
	case ".pdf":
		return extractPDF(filePath, filename)
	case ".docx":
		return extractDOCX(filePath, filename)
	case ".pptx":
		return extractPPTX(filePath, filename)
	case ".xlsx":
		return extractXLSX(filePath, filename)
	case ".ods":
		return extractODS(filePath, filename)
	case ".md":
		return extractMarkdown(filePath, filename)
	case ".txt":
		return extractText(filePath, filename)
	default:
		return nil, fmt.Errorf("unsupported file format: %s", ext)
	}
}

func extractPDF(filePath, filename string) ([]models.Page, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return nil, err
	}
	reader, err := pdf.NewReader(f, stat.Size())
	if err != nil {
		return nil, err
	}

	var pages []models.Page
	numPages := reader.NumPage()
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("failed to read page %d of %s: %w", i, filename, err)
		}
		if strings.TrimSpace(pageText) == "" {
			continue
		}
		pages = append(pages, models.Page{Text: pageText, Number: i, Filename: filename})
	}
	return pages, nil
}

func extractDOCX(filePath, filename string) ([]models.Page, error) {
	r, err := docx.ReadDocxFile(filePath)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	content := r.Editable().GetContent()
	text := extractTextFromXML(content, "<w:t>", "</w:t>")
	if strings.TrimSpace(text) == "" {
		// some producers emit plain paragraphs instead of runs
		text = content
	}
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	return []models.Page{{Text: text, Number: 1, Filename: filename}}, nil
}

func extractPPTX(filePath, filename string) ([]models.Page, error) {
	f, err := zip.OpenReader(filePath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var pages []models.Page
	slideNum := 0
	for _, file := range f.File {
		if !strings.HasPrefix(file.Name, "ppt/slides/slide") {
			continue
		}
		slideNum++
		rc, err := file.Open()
		if err != nil {
			continue
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			continue
		}
		slideText := extractTextFromXML(string(data), "<a:t>", "</a:t>")
		if strings.TrimSpace(slideText) == "" {
			continue
		}
		pages = append(pages, models.Page{Text: slideText, Number: slideNum, Filename: filename})
	}
	return pages, nil
}

func extractXLSX(filePath, filename string) ([]models.Page, error) {
	f, err := xlsx.OpenFile(filePath)
	if err != nil {
		return nil, err
	}

	var pages []models.Page
	for sheetNum, sheet := range f.Sheets {
		var text strings.Builder
		text.WriteString(fmt.Sprintf("Sheet: %s\n", sheet.Name))
		for _, row := range sheet.Rows {
			for _, cell := range row.Cells {
				text.WriteString(cell.String() + "\t")
			}
			text.WriteString("\n")
		}
		if strings.TrimSpace(text.String()) == "" {
			continue
		}
		pages = append(pages, models.Page{Text: text.String(), Number: sheetNum + 1, Filename: filename})
	}
	return pages, nil
}

func extractODS(filePath, filename string) ([]models.Page, error) {
	f, err := excelize.OpenFile(filePath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var pages []models.Page
	for sheetNum, sheetName := range f.GetSheetList() {
		rows, err := f.GetRows(sheetName)
		if err != nil {
			continue
		}
		var text strings.Builder
		text.WriteString(fmt.Sprintf("Sheet: %s\n", sheetName))
		for _, row := range rows {
			for _, cell := range row {
				text.WriteString(cell + "\t")
			}
			text.WriteString("\n")
		}
		if strings.TrimSpace(text.String()) == "" {
			continue
		}
		pages = append(pages, models.Page{Text: text.String(), Number: sheetNum + 1, Filename: filename})
	}
	return pages, nil
}

func extractText(filePath, filename string) ([]models.Page, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(string(data)) == "" {
		return nil, nil
	}
	return []models.Page{{Text: string(data), Number: 1, Filename: filename}}, nil
}

// extractTextFromXML pulls the text between every open/close tag pair.
func extractTextFromXML(xmlContent, openTag, closeTag string) string {
	var text strings.Builder
	parts := strings.Split(xmlContent, openTag)
	for i, part := range parts {
		if i == 0 {
			continue
		}
		endIdx := strings.Index(part, closeTag)
		if endIdx >= 0 {
			text.WriteString(part[:endIdx] + " ")
		}
	}
	return text.String()
}
