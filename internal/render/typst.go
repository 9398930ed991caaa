package render

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dgallion1/longform/internal/config"
	"github.com/dgallion1/longform/internal/doctree"
)

// Typst renders Typst markup.
type Typst struct {
	settings config.Settings
}

func (t *Typst) Name() config.Backend { return config.BackendTypst }
func (t *Typst) Ext() string          { return ".typ" }
func (t *Typst) Header() string       { return TypstHeader() }

func (t *Typst) Render(buf *Buffer, off int, n doctree.Node) int {
	w := &typstWriter{writer: writer{buf: buf, off: off}}
	n.Accept(w)
	return w.off
}

type typstWriter struct {
	writer
	depth int // list nesting
}

var _ doctree.Visitor = (*typstWriter)(nil)

func (w *typstWriter) inlines(nodes []doctree.Node) {
	for _, n := range nodes {
		n.Accept(w)
	}
}

func (w *typstWriter) label(l string) {
	if l != "" {
		w.write(" <", l, ">")
	}
}

func (w *typstWriter) VisitParagraph(n *doctree.Paragraph) {
	w.inlines(n.Children)
	w.write("\n\n")
}

func (w *typstWriter) VisitText(n *doctree.Text) { w.write(EscapeTypst(n.Content)) }

func (w *typstWriter) VisitEmphasis(n *doctree.Emphasis) {
	w.write("_")
	w.inlines(n.Children)
	w.write("_")
}

func (w *typstWriter) VisitStrong(n *doctree.Strong) {
	w.write("*")
	w.inlines(n.Children)
	w.write("*")
}

func (w *typstWriter) VisitInlineCode(n *doctree.InlineCode) { w.write("`", n.Code, "`") }

func (w *typstWriter) VisitInlineMath(n *doctree.InlineMath) { w.write("$", n.Content, "$") }

func (w *typstWriter) VisitCitation(n *doctree.Citation) {
	for i, k := range n.Keys {
		if i > 0 {
			w.write(" ")
		}
		w.write("@", k)
	}
}

func (w *typstWriter) VisitReference(n *doctree.Reference) { w.write("@", n.Label) }

func (w *typstWriter) VisitLink(n *doctree.Link) {
	if n.URL == "" {
		w.write(EscapeTypst(n.Text))
		return
	}
	w.write(`#link("`, n.URL, `")`)
	if n.Text != "" {
		w.write("[", EscapeTypst(n.Text), "]")
	}
}

func (w *typstWriter) VisitHeading(n *doctree.Heading) {
	w.write(strings.Repeat("=", max(n.Level, 1)), " ")
	w.inlines(n.Title)
	w.label(n.Label)
	w.write("\n")
}

func (w *typstWriter) VisitOrderedList(n *doctree.OrderedList) {
	for i, item := range n.Items {
		marker := "+ "
		if i == 0 && n.Start > 1 {
			marker = strconv.Itoa(n.Start) + ". "
		}
		w.item(marker, item)
	}
	w.endList()
}

func (w *typstWriter) VisitUnorderedList(n *doctree.UnorderedList) {
	for _, item := range n.Items {
		w.item("- ", item)
	}
	w.endList()
}

// item writes one list item. Paragraphs stay on the marker line; nested
// lists are indented one level deeper.
func (w *typstWriter) item(marker string, nodes []doctree.Node) {
	indent := strings.Repeat("  ", w.depth)
	w.write(indent, marker)
	for i, n := range nodes {
		switch n := n.(type) {
		case *doctree.Paragraph:
			if i > 0 {
				w.write(indent, "  ")
			}
			w.inlines(n.Children)
			w.write("\n")
		case *doctree.OrderedList, *doctree.UnorderedList:
			if i == 0 {
				w.write("\n")
			}
			w.depth++
			n.Accept(w)
			w.depth--
		default:
			if i == 0 {
				w.write("\n")
			}
			n.Accept(w)
		}
	}
	if len(nodes) == 0 {
		w.write("\n")
	}
}

func (w *typstWriter) endList() {
	if w.depth == 0 {
		w.write("\n")
	}
}

func (w *typstWriter) VisitDisplayMath(n *doctree.DisplayMath) {
	w.write("$ ", n.Content, " $")
	w.label(n.Label)
	w.write("\n")
}

func (w *typstWriter) VisitCodeBlock(n *doctree.CodeBlock) {
	if n.Caption != "" {
		w.write("#figure(\n  caption: [", EscapeTypst(n.Caption), "],\n  ")
	}
	w.write("```", n.Language, "\n", n.Code, "\n```")
	if n.Caption != "" {
		w.write("\n)")
	}
	w.label(n.Label)
	w.write("\n")
}

func (w *typstWriter) VisitQuote(n *doctree.Quote) { w.lineComment(n.Content) }

func (w *typstWriter) VisitComment(n *doctree.Comment) { w.lineComment(n.Content) }

func (w *typstWriter) lineComment(content string) {
	for _, line := range strings.Split(content, "\n") {
		w.write("// ", line, "\n")
	}
}

func (w *typstWriter) VisitEmbed(n *doctree.Embed) {
	w.write("// unresolved embed: ", n.Address, "\n")
}

func (w *typstWriter) VisitEnvironment(n *doctree.Environment) {
	w.write("#", n.Name)
	if n.Title != "" {
		w.write("(title: [", EscapeTypst(n.Title), "])")
	}
	w.write("[\n")
	for _, c := range n.Body {
		c.Accept(w)
	}
	w.write("]")
	w.label(n.Label)
	w.write("\n\n")
}

func (w *typstWriter) VisitImage(n *doctree.Image) {
	w.write("#figure(\n  image(\"Attachments/", n.Path, "\"")
	if n.Width != "" {
		w.write(", width: ", n.Width, "pt")
	}
	w.write("),\n")
	if n.Caption != "" {
		w.write("  caption: [", EscapeTypst(n.Caption), "],\n")
	}
	w.write(")")
	w.label(n.Label)
	w.write("\n\n")
}

func (w *typstWriter) VisitTable(n *doctree.Table) {
	cols := len(n.Header)
	for _, r := range n.Rows {
		cols = max(cols, len(r))
	}
	w.write("#figure(\n  table(\n    columns: ", strconv.Itoa(cols), ",\n")
	if len(n.Header) > 0 {
		w.write("    table.header(", typstCells(n.Header), "),\n")
	}
	for _, r := range n.Rows {
		w.write("    ", typstCells(r), ",\n")
	}
	w.write("  ),\n")
	if n.Caption != "" {
		w.write("  caption: [", EscapeTypst(n.Caption), "],\n")
	}
	w.write(")")
	w.label(n.Label)
	w.write("\n\n")
}

func typstCells(cells []string) string {
	parts := make([]string, len(cells))
	for i, c := range cells {
		parts[i] = "[" + EscapeTypst(c) + "]"
	}
	return strings.Join(parts, ", ")
}

func (w *typstWriter) VisitErrorMarker(n *doctree.ErrorMarker) {
	w.write(fmt.Sprintf("#text(fill: red)[%s: %s]\n\n", EscapeTypst(n.Reason), EscapeTypst(n.Message)))
}
