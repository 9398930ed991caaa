package parser

import (
	"bytes"
	"strings"

	"github.com/yuin/goldmark/ast"
	gparser "github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

// kindDelimitedBlock is the AST kind for $$...$$ math and %%...%% comment blocks.
var kindDelimitedBlock = ast.NewNodeKind("DelimitedBlock")

type delimitedBlock struct {
	ast.BaseBlock
	delim   string
	trailer string // Text after the closing delimiter, e.g. " ^eq:1"
	closed  bool
}

func (n *delimitedBlock) Kind() ast.NodeKind { return kindDelimitedBlock }

func (n *delimitedBlock) IsRaw() bool { return true }

func (n *delimitedBlock) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, map[string]string{"Delim": n.delim}, nil)
}

// content joins the block's raw lines.
func (n *delimitedBlock) content(source []byte) string {
	var buf bytes.Buffer
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		buf.Write(seg.Value(source))
	}
	return strings.TrimSpace(buf.String())
}

// delimitedBlockParser opens a block on a line starting with delim and
// closes it on the next occurrence of delim, which may be on the same line.
type delimitedBlockParser struct {
	delim []byte
}

func newDelimitedBlockParser(delim string) gparser.BlockParser {
	return &delimitedBlockParser{delim: []byte(delim)}
}

func (b *delimitedBlockParser) Trigger() []byte {
	return []byte{b.delim[0]}
}

func (b *delimitedBlockParser) Open(parent ast.Node, reader text.Reader, pc gparser.Context) (ast.Node, gparser.State) {
	line, segment := reader.PeekLine()
	pos := pc.BlockOffset()
	if pos < 0 || !bytes.HasPrefix(line[pos:], b.delim) {
		return nil, gparser.NoChildren
	}
	node := &delimitedBlock{delim: string(b.delim)}
	start := pos + len(b.delim)
	after := line[start:]

	if end := bytes.Index(after, b.delim); end >= 0 {
		// Single-line block: the next Continue call closes it without
		// consuming the following line.
		node.Lines().Append(text.NewSegment(segment.Start+start, segment.Start+start+end))
		node.trailer = strings.TrimSpace(string(after[end+len(b.delim):]))
		node.closed = true
		return node, gparser.NoChildren
	}
	if !util.IsBlank(after) {
		node.Lines().Append(text.NewSegment(segment.Start+start, segment.Stop))
	}
	return node, gparser.NoChildren
}

func (b *delimitedBlockParser) Continue(node ast.Node, reader text.Reader, pc gparser.Context) gparser.State {
	n := node.(*delimitedBlock)
	if n.closed {
		return gparser.Close
	}
	line, segment := reader.PeekLine()
	if end := bytes.Index(line, b.delim); end >= 0 {
		if !util.IsBlank(line[:end]) {
			n.Lines().Append(text.NewSegment(segment.Start, segment.Start+end))
		}
		n.trailer = strings.TrimSpace(string(line[end+len(b.delim):]))
		n.closed = true
		newline := 1
		if line[len(line)-1] != '\n' {
			newline = 0
		}
		reader.Advance(segment.Stop - segment.Start - newline + segment.Padding)
		return gparser.Close
	}
	n.Lines().Append(segment)
	if segment.Len() > 0 {
		reader.Advance(segment.Len() - 1)
	}
	return gparser.Continue | gparser.NoChildren
}

func (b *delimitedBlockParser) Close(node ast.Node, reader text.Reader, pc gparser.Context) {}

func (b *delimitedBlockParser) CanInterruptParagraph() bool { return true }

func (b *delimitedBlockParser) CanAcceptIndentedLine() bool { return false }
