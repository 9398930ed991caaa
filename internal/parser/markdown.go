package parser

import (
	"bytes"
	"io"
	"strings"

	"github.com/dgallion1/longform/internal/doctree"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"
	gparser "github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

// Block parser priorities. The default list parser sits at 300; display
// math goes ahead of it unless lists are prioritized.
const (
	mathPriorityDefault = 250
	mathPriorityLast    = 350
)

// MarkdownParser handles Markdown notes using goldmark.
type MarkdownParser struct {
	md goldmark.Markdown
}

// NewMarkdownParser builds a goldmark instance with tables and the
// $$ math / %% comment block parsers.
func NewMarkdownParser(opts Options) *MarkdownParser {
	prio := mathPriorityDefault
	if opts.PrioritizeLists {
		prio = mathPriorityLast
	}
	md := goldmark.New(
		goldmark.WithExtensions(extension.Table),
		goldmark.WithParserOptions(
			gparser.WithBlockParsers(
				util.Prioritized(newDelimitedBlockParser("$$"), prio),
				util.Prioritized(newDelimitedBlockParser("%%"), prio),
			),
		),
	)
	return &MarkdownParser{md: md}
}

func (p *MarkdownParser) Parse(r io.Reader, filename string) (*doctree.Parsed, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	fm, src, err := splitFrontmatter(raw)
	if err != nil {
		return nil, err
	}

	doc := p.md.Parser().Parse(text.NewReader(src))

	title := fm["title"]
	if title == "" {
		title = titleFromFilename(filename)
	}
	return &doctree.Parsed{
		Title:       title,
		Frontmatter: fm,
		Body:        convertBlocks(doc, src),
	}, nil
}

// convertBlocks converts the block children of parent.
func convertBlocks(parent ast.Node, src []byte) []doctree.Node {
	return convertSiblings(parent.FirstChild(), src)
}

// convertSiblings converts first and every block after it. A paragraph
// holding only "^label" labels the block before it.
func convertSiblings(first ast.Node, src []byte) []doctree.Node {
	var out []doctree.Node
	for n := first; n != nil; n = n.NextSibling() {
		switch node := n.(type) {
		case *ast.Heading:
			title, label := splitBlockID(linesText(node, src))
			out = append(out, &doctree.Heading{
				Level: node.Level,
				Title: parseInline(strings.TrimSpace(title)),
				Label: label,
			})

		case *ast.Paragraph, *ast.TextBlock:
			body := linesText(node, src)
			if m := blockIDOnly.FindStringSubmatch(body); m != nil {
				if len(out) > 0 {
					if labeled := doctree.WithLabel(out[len(out)-1], m[1]); labeled != nil {
						out[len(out)-1] = labeled
					}
				}
				continue
			}
			out = append(out, convertParagraph(body)...)

		case *ast.List:
			items := make([][]doctree.Node, 0, node.ChildCount())
			for li := node.FirstChild(); li != nil; li = li.NextSibling() {
				items = append(items, convertBlocks(li, src))
			}
			if node.IsOrdered() {
				out = append(out, &doctree.OrderedList{Start: node.Start, Items: items})
			} else {
				out = append(out, &doctree.UnorderedList{Items: items})
			}

		case *ast.FencedCodeBlock:
			cb := &doctree.CodeBlock{Code: codeText(node, src)}
			if node.Info != nil {
				info := strings.TrimSpace(string(node.Info.Segment.Value(src)))
				lang, caption, _ := strings.Cut(info, " ")
				cb.Language = lang
				cb.Caption = strings.TrimSpace(caption)
			}
			out = append(out, cb)

		case *ast.CodeBlock:
			out = append(out, &doctree.CodeBlock{Code: codeText(node, src)})

		case *ast.Blockquote:
			out = append(out, convertBlockquote(node, src))

		case *east.Table:
			out = append(out, convertTable(node, src))

		case *delimitedBlock:
			out = append(out, convertDelimited(node, src))

		case *ast.ThematicBreak, *ast.HTMLBlock:
			// Not part of the exported document.
		}
	}
	return out
}

// convertParagraph tokenizes paragraph text and lifts embeds to block level.
func convertParagraph(body string) []doctree.Node {
	body, label := splitBlockID(body)
	inlines := parseInline(body)

	var out []doctree.Node
	var run []doctree.Node
	flush := func() {
		if doctree.PlainText(run) != "" || hasNonText(run) {
			out = append(out, &doctree.Paragraph{Children: run})
		}
		run = nil
	}
	for _, n := range inlines {
		if e, ok := n.(*doctree.Embed); ok {
			flush()
			out = append(out, e)
			continue
		}
		run = append(run, n)
	}
	flush()

	if label != "" && len(out) > 0 {
		if e, ok := out[len(out)-1].(*doctree.Embed); ok {
			e.Label = label
		}
	}
	return out
}

func hasNonText(nodes []doctree.Node) bool {
	for _, n := range nodes {
		if _, ok := n.(*doctree.Text); !ok {
			return true
		}
	}
	return false
}

// convertBlockquote turns "> [!lemma] Title ^label" callouts into
// environments and every other quote into a Quote.
func convertBlockquote(node *ast.Blockquote, src []byte) doctree.Node {
	first, ok := node.FirstChild().(*ast.Paragraph)
	if ok {
		lines := strings.SplitN(linesText(first, src), "\n", 2)
		if name, rest, found := calloutHeader(lines[0]); found && doctree.IsEnvironment(name) {
			title, label := splitBlockID(rest)
			env := &doctree.Environment{
				Name:  name,
				Title: strings.TrimSpace(title),
				Label: label,
			}
			if len(lines) > 1 {
				env.Body = append(env.Body, convertParagraph(lines[1])...)
			}
			env.Body = append(env.Body, convertSiblings(first.NextSibling(), src)...)
			return env
		}
	}
	return &doctree.Quote{Content: blockText(node, src)}
}

// calloutHeader parses "[!name] rest". Fold markers (+/-) are ignored.
func calloutHeader(line string) (name, rest string, ok bool) {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, "[!") {
		return "", "", false
	}
	end := strings.IndexByte(line, ']')
	if end < 0 {
		return "", "", false
	}
	name = strings.ToLower(line[2:end])
	rest = strings.TrimLeft(line[end+1:], "+-")
	return name, strings.TrimSpace(rest), true
}

func convertTable(node *east.Table, src []byte) *doctree.Table {
	t := &doctree.Table{}
	for row := node.FirstChild(); row != nil; row = row.NextSibling() {
		var cells []string
		for cell := row.FirstChild(); cell != nil; cell = cell.NextSibling() {
			cells = append(cells, extractText(cell, src))
		}
		if _, ok := row.(*east.TableHeader); ok {
			t.Header = cells
			continue
		}
		t.Rows = append(t.Rows, cells)
	}
	return t
}

func convertDelimited(node *delimitedBlock, src []byte) doctree.Node {
	content := node.content(src)
	if node.delim == "%%" {
		return &doctree.Comment{Content: content}
	}
	body, env, label := splitMath(content)
	if m := blockIDOnly.FindStringSubmatch(node.trailer); m != nil {
		label = m[1]
	}
	return &doctree.DisplayMath{Content: body, Env: env, Label: label}
}

// linesText joins a block's raw lines, trimming each.
func linesText(n ast.Node, src []byte) string {
	var buf bytes.Buffer
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		buf.Write(seg.Value(src))
	}
	parts := strings.Split(buf.String(), "\n")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return strings.TrimSpace(strings.Join(parts, "\n"))
}

func codeText(n ast.Node, src []byte) string {
	var buf bytes.Buffer
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		buf.Write(seg.Value(src))
	}
	return strings.TrimRight(buf.String(), "\n")
}

// blockText collects the raw text of a container block.
func blockText(n ast.Node, src []byte) string {
	if n.Lines().Len() > 0 {
		return linesText(n, src)
	}
	var parts []string
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if t := blockText(c, src); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, "\n")
}

// extractText gets the text content of a goldmark AST node.
func extractText(n ast.Node, src []byte) string {
	var buf bytes.Buffer
	if n.Type() == ast.TypeBlock {
		lines := n.Lines()
		for i := 0; i < lines.Len(); i++ {
			line := lines.At(i)
			buf.Write(line.Value(src))
		}
		if lines.Len() > 0 {
			return strings.TrimSpace(buf.String())
		}
	}
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if t, ok := c.(*ast.Text); ok {
			buf.Write(t.Segment.Value(src))
			if t.HardLineBreak() || t.SoftLineBreak() {
				buf.WriteByte('\n')
			}
		} else {
			buf.WriteString(extractText(c, src))
		}
	}
	return strings.TrimSpace(buf.String())
}
