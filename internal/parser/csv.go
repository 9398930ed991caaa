package parser

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/dgallion1/longform/internal/doctree"
)

// CSVParser handles CSV files. The whole file becomes one table whose
// first row is the header.
type CSVParser struct{}

func (p *CSVParser) Parse(r io.Reader, filename string) (*doctree.Parsed, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}

	parsed := &doctree.Parsed{
		Title:       titleFromFilename(filename),
		Frontmatter: map[string]string{},
	}
	if len(records) == 0 {
		return parsed, nil
	}

	parsed.Body = []doctree.Node{&doctree.Table{
		Header:  records[0],
		Rows:    records[1:],
		Caption: parsed.Title,
	}}
	return parsed, nil
}
