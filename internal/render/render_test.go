package render

import (
	"strings"
	"testing"

	"github.com/dgallion1/longform/internal/config"
	"github.com/dgallion1/longform/internal/doctree"
	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func text(s string) *doctree.Text { return &doctree.Text{Content: s} }

func para(nodes ...doctree.Node) *doctree.Paragraph { return &doctree.Paragraph{Children: nodes} }

// sampleDocument covers every block kind a resolved document contains.
func sampleDocument() []doctree.Node {
	return []doctree.Node{
		&doctree.Heading{Level: 2, Title: []doctree.Node{text("Intro")}},
		&doctree.DisplayMath{Content: "E = mc^2", Label: "eq:1"},
		para(text("See "), &doctree.Reference{Label: "eq:1"}, text(" and "),
			&doctree.Citation{Keys: []string{"knuth84", "lamport94"}}, text(".")),
		&doctree.UnorderedList{Items: [][]doctree.Node{
			{para(text("one"))},
			{para(text("two")), &doctree.UnorderedList{Items: [][]doctree.Node{{para(text("nested"))}}}},
		}},
		&doctree.OrderedList{Start: 3, Items: [][]doctree.Node{{para(text("three"))}, {para(text("four"))}}},
		&doctree.CodeBlock{Code: "x := 1", Language: "go", Label: "lst:x", Caption: "Assign"},
		para(text("50% of $5 & more_x")),
		&doctree.Environment{Name: "lemma", Title: "Bounded", Label: "lemma:1", Body: []doctree.Node{
			para(text("Every bounded sequence converges.")),
		}},
		&doctree.Comment{Content: "todo\nlater"},
		&doctree.Image{Path: "plot.png", Width: "300", Caption: "A plot", Label: "fig:plot"},
		&doctree.Table{Header: []string{"a", "b"}, Rows: [][]string{{"1", "2"}}, Label: "tbl:t"},
		&doctree.ErrorMarker{Reason: "cycle_detected", Message: "x"},
	}
}

func goldenFor(t *testing.T) *goldie.Goldie {
	return goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
}

func TestTypst_Document(t *testing.T) {
	b := For(config.Settings{Backend: config.BackendTypst})
	goldenFor(t).Assert(t, "document_typst", []byte(String(b, sampleDocument())))
}

func TestLaTeX_Document(t *testing.T) {
	b := For(config.Settings{Backend: config.BackendLaTeX})
	goldenFor(t).Assert(t, "document_latex", []byte(String(b, sampleDocument())))
}

func TestTypst_ExactRules(t *testing.T) {
	b := &Typst{}
	tests := []struct {
		name string
		node doctree.Node
		want string
	}{
		{"math", &doctree.DisplayMath{Content: "x"}, "$ x $\n"},
		{"math labeled", &doctree.DisplayMath{Content: "x", Label: "eq:1"}, "$ x $ <eq:1>\n"},
		{"align", &doctree.DisplayMath{Content: "a &= b", Env: "align"}, "$ a &= b $\n"},
		{"code", &doctree.CodeBlock{Code: "x", Language: "py"}, "```py\nx\n```\n"},
		{"code labeled", &doctree.CodeBlock{Code: "x", Label: "l"}, "```\nx\n``` <l>\n"},
		{"quote", &doctree.Quote{Content: "q"}, "// q\n"},
		{"heading", &doctree.Heading{Level: 3, Title: []doctree.Node{text("T")}, Label: "s"}, "=== T <s>\n"},
		{"list", &doctree.OrderedList{Items: [][]doctree.Node{{para(text("a"))}}}, "+ a\n\n"},
		{"untitled env", &doctree.Environment{Name: "proof"}, "#proof[\n]\n\n"},
		{"wikilink", &doctree.Link{Text: "Note #1"}, `Note \#1`},
		{"url", &doctree.Link{URL: "https://x.org", Text: "x"}, `#link("https://x.org")[x]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, String(b, []doctree.Node{tt.node}))
		})
	}
}

func TestLaTeX_ExactRules(t *testing.T) {
	b := &LaTeX{}
	tests := []struct {
		name string
		node doctree.Node
		want string
	}{
		{"math", &doctree.DisplayMath{Content: "x"}, "\\begin{equation*}\nx\n\\end{equation*}\n"},
		{"math labeled", &doctree.DisplayMath{Content: "x", Label: "eq:1"}, "\\begin{equation}\\label{eq:1}\nx\n\\end{equation}\n"},
		{"gather", &doctree.DisplayMath{Content: "x", Env: "gather*"}, "\\begin{gather*}\nx\n\\end{gather*}\n"},
		{"code", &doctree.CodeBlock{Code: "x", Language: "py", Label: "l"}, "\\begin{lstlisting}[language=py,label=l]\nx\n\\end{lstlisting}\n"},
		{"quote", &doctree.Quote{Content: "a\nb"}, "% a\n% b\n"},
		{"deep heading", &doctree.Heading{Level: 7, Title: []doctree.Node{text("T")}}, "\\subparagraph{T}\n"},
		{"emphasis", &doctree.Emphasis{Children: []doctree.Node{text("e")}}, "\\emph{e}"},
		{"inline code", &doctree.InlineCode{Code: "a_b"}, "\\texttt{a\\_b}"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, String(b, []doctree.Node{tt.node}))
		})
	}
}

func TestLaTeX_BookStructure(t *testing.T) {
	b := For(config.Settings{Backend: config.BackendLaTeX, DocumentStructure: config.StructureBook})
	h := &doctree.Heading{Level: 1, Title: []doctree.Node{text("One")}}
	assert.Equal(t, "\\chapter{One}\n", String(b, []doctree.Node{h}))
}

func TestLaTeX_CitationCommand(t *testing.T) {
	b := For(config.Settings{Backend: config.BackendLaTeX, DefaultCitationCommand: "textcite"})
	got := String(b, []doctree.Node{&doctree.Citation{Keys: []string{"a", "b"}}})
	assert.Equal(t, "\\textcite{a,b}", got)
}

func TestRender_Deterministic(t *testing.T) {
	for _, backend := range []config.Backend{config.BackendLaTeX, config.BackendTypst} {
		b := For(config.Settings{Backend: backend})
		assert.Equal(t, String(b, sampleDocument()), String(b, sampleDocument()), backend)
	}
}

func TestRenderAll_ContinuesAtOffset(t *testing.T) {
	buf := NewBuffer(8)
	off := buf.WriteAt(0, "// head\n")
	end := RenderAll(&Typst{}, buf, off, []doctree.Node{&doctree.Quote{Content: "q"}})

	assert.Equal(t, "// head\n// q\n", buf.String(end))
	assert.Equal(t, buf.Len(), end)
}

func TestBuffer_GrowsAndOverwrites(t *testing.T) {
	buf := NewBuffer(2)
	n := buf.WriteAt(0, "hello world")
	require.Equal(t, 11, n)
	buf.WriteAt(6, "there")
	assert.Equal(t, "hello there", buf.String(buf.Len()))
	assert.Equal(t, "hello", buf.String(5))

	buf.Reset()
	assert.Equal(t, 0, buf.Len())
}

func TestEscape(t *testing.T) {
	assert.Equal(t, `\{x\}\_1 \textbackslash{} 50\% $\leq$ 3`, EscapeLaTeX(`{x}_1 \ 50% ≤ 3`))
	assert.Equal(t, "``quoted''", EscapeLaTeX("“quoted”"))
	assert.Equal(t, `\#a \*b\* \<c\> \@d`, EscapeTypst("#a *b* <c> @d"))
	assert.Equal(t, `a \/\/ b and c \/\* d`, EscapeTypst("a // b and c /* d"))
}

func TestTypst_SlashesStayText(t *testing.T) {
	out := String(&Typst{}, []doctree.Node{
		&doctree.Paragraph{Children: []doctree.Node{&doctree.Text{Content: "a // b and c /* d"}}},
	})
	assert.Equal(t, "a \\/\\/ b and c \\/\\* d\n\n", out)
}

func TestHeaders(t *testing.T) {
	assert.Contains(t, LaTeXHeader(), `\newtheorem{lemma}{Lemma}[section]`)
	typ := TypstHeader()
	assert.Contains(t, typ, `#let lemma = theorem-like("lemma", [Lemma])`)
	assert.Contains(t, typ, "#let proof(")
	assert.False(t, strings.Contains(typ, `theorem-like("proof"`))
}
