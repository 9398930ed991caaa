package parser

import (
	"bufio"
	"io"
	"strings"

	"github.com/dgallion1/longform/internal/doctree"
)

// TextParser handles plain text notes. Blank lines separate paragraphs.
type TextParser struct{}

func (p *TextParser) Parse(r io.Reader, filename string) (*doctree.Parsed, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var paragraphs []string
	var current strings.Builder

	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			if current.Len() > 0 {
				paragraphs = append(paragraphs, current.String())
				current.Reset()
			}
		} else {
			if current.Len() > 0 {
				current.WriteString("\n")
			}
			current.WriteString(line)
		}
	}
	if current.Len() > 0 {
		paragraphs = append(paragraphs, current.String())
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	parsed := &doctree.Parsed{
		Title:       titleFromFilename(filename),
		Frontmatter: map[string]string{},
	}
	for _, para := range paragraphs {
		parsed.Body = append(parsed.Body, &doctree.Paragraph{
			Children: []doctree.Node{&doctree.Text{Content: para}},
		})
	}
	return parsed, nil
}
