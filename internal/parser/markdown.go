package parser

import (
	"os"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"

	"manuals-rag/internal/models"
)

// extractMarkdown walks the goldmark AST and flattens it to plain text.
// Headings land on their own line so the section scanner can still
// pick them up.
func extractMarkdown(filePath, filename string) ([]models.Page, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}

	md := goldmark.New(goldmark.WithExtensions(extension.GFM))
	doc := md.Parser().Parse(text.NewReader(data))

	var sb strings.Builder
	err = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		switch node := n.(type) {
		case *ast.Heading:
			if entering {
				sb.WriteString("\n\n")
			} else {
				sb.WriteString("\n")
			}
		case *ast.Paragraph:
			if !entering {
				sb.WriteString("\n\n")
			}
		case *ast.ListItem:
			if !entering {
				sb.WriteString("\n")
			}
		case *ast.Text:
			if entering {
				sb.Write(node.Segment.Value(data))
				if node.SoftLineBreak() || node.HardLineBreak() {
					sb.WriteByte('\n')
				}
			}
		}
		return ast.WalkContinue, nil
	})
	if err != nil {
		return nil, err
	}

	content := strings.TrimSpace(sb.String())
	if content == "" {
		return nil, nil
	}
	return []models.Page{{Text: content, Number: 1, Filename: filename}}, nil
}
