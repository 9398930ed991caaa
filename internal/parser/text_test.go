package parser

import (
	"strings"
	"testing"

	"github.com/dgallion1/longform/internal/doctree"
)

func TestTextParser_BasicParagraphSplitting(t *testing.T) {
	input := "First paragraph line one.\nFirst paragraph line two.\n\nSecond paragraph.\n\nThird paragraph."
	p := &TextParser{}
	parsed, err := p.Parse(strings.NewReader(input), "notes.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if parsed.Title != "notes" {
		t.Errorf("expected title %q, got %q", "notes", parsed.Title)
	}
	if len(parsed.Body) != 3 {
		t.Fatalf("expected 3 blocks, got %d", len(parsed.Body))
	}

	want := []string{
		"First paragraph line one.\nFirst paragraph line two.",
		"Second paragraph.",
		"Third paragraph.",
	}
	for i, w := range want {
		p := parsed.Body[i].(*doctree.Paragraph)
		if got := p.Children[0].(*doctree.Text).Content; got != w {
			t.Errorf("block[%d]: expected %q, got %q", i, w, got)
		}
	}
}

func TestTextParser_EmptyInput(t *testing.T) {
	p := &TextParser{}
	parsed, err := p.Parse(strings.NewReader(""), "empty.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(parsed.Body) != 0 {
		t.Errorf("expected no blocks for empty input, got %d", len(parsed.Body))
	}
}

func TestCSVParser_Table(t *testing.T) {
	p := &CSVParser{}
	parsed, err := p.Parse(strings.NewReader("name,score\nada,3\nalan\n"), "scores.csv")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	tbl := parsed.Body[0].(*doctree.Table)
	if len(tbl.Header) != 2 || len(tbl.Rows) != 2 || tbl.Caption != "scores" {
		t.Errorf("unexpected table: %#v", tbl)
	}
}

func TestHTMLParser_Blocks(t *testing.T) {
	input := `<html><head><title>Page</title></head><body>
<h2 id="intro">Intro</h2><p>Hello   <b>world</b></p><ul><li>a</li><li>b</li></ul>
<script>ignored()</script></body></html>`
	p := &HTMLParser{}
	parsed, err := p.Parse(strings.NewReader(input), "page.html")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if parsed.Title != "Page" {
		t.Errorf("expected title %q, got %q", "Page", parsed.Title)
	}
	if len(parsed.Body) != 3 {
		t.Fatalf("expected 3 blocks, got %d", len(parsed.Body))
	}
	h := parsed.Body[0].(*doctree.Heading)
	if h.Level != 2 || h.Label != "intro" {
		t.Errorf("unexpected heading: %#v", h)
	}
	if got := doctree.PlainText(parsed.Body[1].(*doctree.Paragraph).Children); got != "Hello world" {
		t.Errorf("unexpected paragraph text %q", got)
	}
	if ul := parsed.Body[2].(*doctree.UnorderedList); len(ul.Items) != 2 {
		t.Errorf("expected 2 list items, got %d", len(ul.Items))
	}
}

func TestNotes_DispatchesByExtension(t *testing.T) {
	parsed, err := Notes{}.Parse([]byte("plain"), "x.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(parsed.Body) != 1 {
		t.Errorf("expected 1 block, got %d", len(parsed.Body))
	}
	if _, err := (Notes{}).Parse([]byte("x"), "x.bin"); err == nil {
		t.Error("expected error for unsupported file")
	}
}
