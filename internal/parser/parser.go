package parser

import (
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/dgallion1/longform/internal/doctree"
)

// Parser converts raw note bytes into a parsed note.
type Parser interface {
	Parse(r io.Reader, filename string) (*doctree.Parsed, error)
}

// Options carries the settings that influence parsing.
type Options struct {
	// PrioritizeLists orders the list parser ahead of the display-math
	// parser when both could open a block on the same line.
	PrioritizeLists bool
}

// SupportedExtensions lists file extensions that can be transcluded as notes.
var SupportedExtensions = map[string]bool{
	".md":       true,
	".markdown": true,
	".txt":      true,
	".csv":      true,
	".html":     true,
	".htm":      true,
	".docx":     true,
}

// ForFile returns the appropriate parser for a filename.
func ForFile(filename string, opts Options) (Parser, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".md", ".markdown":
		return NewMarkdownParser(opts), nil
	case ".txt":
		return &TextParser{}, nil
	case ".csv":
		return &CSVParser{}, nil
	case ".html", ".htm":
		return &HTMLParser{}, nil
	case ".docx":
		return &DOCXParser{}, nil
	default:
		return nil, fmt.Errorf("unsupported file extension: %s", ext)
	}
}

// IsSupportedExtension checks if a file extension is supported.
func IsSupportedExtension(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return SupportedExtensions[ext]
}

// Notes parses any supported file by extension. It is the parser
// collaborator handed to the unroll engine.
type Notes struct {
	Options Options
}

func (n Notes) Parse(content []byte, filename string) (*doctree.Parsed, error) {
	p, err := ForFile(filename, n.Options)
	if err != nil {
		return nil, err
	}
	return p.Parse(bytes.NewReader(content), filename)
}

func titleFromFilename(filename string) string {
	base := filepath.Base(filename)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
