package parser

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dgallion1/longform/internal/doctree"
	"github.com/fumiama/go-docx"
)

// DOCXParser handles .docx notes. Heading styles become headings, every
// other non-empty paragraph becomes a paragraph.
type DOCXParser struct{}

func (p *DOCXParser) Parse(r io.Reader, filename string) (*doctree.Parsed, error) {
	// go-docx needs a ReadSeeker+size, so write to temp file.
	tmp, err := os.CreateTemp("", "longform-docx-*.docx")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	size, err := io.Copy(tmp, r)
	if err != nil {
		tmp.Close()
		return nil, fmt.Errorf("write temp file: %w", err)
	}
	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("seek temp file: %w", err)
	}

	doc, err := docx.Parse(tmp, size)
	tmp.Close()
	if err != nil {
		return nil, fmt.Errorf("parse docx: %w", err)
	}

	parsed := &doctree.Parsed{
		Title:       titleFromFilename(filename),
		Frontmatter: map[string]string{},
	}

	for _, item := range doc.Document.Body.Items {
		switch item := item.(type) {
		case *docx.Paragraph:
			text := docxParagraphText(item)
			if text == "" {
				continue
			}
			if level := docxHeadingLevel(item); level > 0 {
				parsed.Body = append(parsed.Body, &doctree.Heading{
					Level: level,
					Title: []doctree.Node{&doctree.Text{Content: text}},
				})
				continue
			}
			parsed.Body = append(parsed.Body, textParagraph(text))
		case *docx.Table:
			if t := docxTable(item); t != nil {
				parsed.Body = append(parsed.Body, t)
			}
		}
	}
	return parsed, nil
}

func docxHeadingLevel(para *docx.Paragraph) int {
	if para.Properties == nil || para.Properties.Style == nil {
		return 0
	}
	style := strings.ToLower(strings.ReplaceAll(para.Properties.Style.Val, " ", ""))
	if !strings.HasPrefix(style, "heading") || len(style) != len("heading")+1 {
		return 0
	}
	level := int(style[len(style)-1] - '0')
	if level < 1 || level > 6 {
		return 0
	}
	return level
}

func docxParagraphText(para *docx.Paragraph) string {
	var buf strings.Builder
	for _, child := range para.Children {
		run, ok := child.(*docx.Run)
		if !ok {
			continue
		}
		for _, rc := range run.Children {
			if t, ok := rc.(*docx.Text); ok {
				buf.WriteString(t.Text)
			}
		}
	}
	return strings.TrimSpace(buf.String())
}

// docxTable reads a table whose first row is the header.
func docxTable(tbl *docx.Table) *doctree.Table {
	var rows [][]string
	for _, row := range tbl.TableRows {
		var cells []string
		for _, cell := range row.TableCells {
			var parts []string
			for _, para := range cell.Paragraphs {
				if t := docxParagraphText(para); t != "" {
					parts = append(parts, t)
				}
			}
			cells = append(cells, strings.Join(parts, " "))
		}
		rows = append(rows, cells)
	}
	if len(rows) == 0 {
		return nil
	}
	return &doctree.Table{Header: rows[0], Rows: rows[1:]}
}
