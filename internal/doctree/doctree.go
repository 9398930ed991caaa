package doctree

// Kind identifies a node variant.
type Kind string

const (
	KindParagraph     Kind = "paragraph"
	KindText          Kind = "text"
	KindEmphasis      Kind = "emphasis"
	KindStrong        Kind = "strong"
	KindInlineCode    Kind = "inline_code"
	KindInlineMath    Kind = "inline_math"
	KindCitation      Kind = "citation"
	KindReference     Kind = "reference"
	KindLink          Kind = "link"
	KindHeading       Kind = "heading"
	KindOrderedList   Kind = "ordered_list"
	KindUnorderedList Kind = "unordered_list"
	KindDisplayMath   Kind = "display_math"
	KindCodeBlock     Kind = "code_block"
	KindQuote         Kind = "quote"
	KindComment       Kind = "comment"
	KindEmbed         Kind = "embed"
	KindEnvironment   Kind = "environment"
	KindImage         Kind = "image"
	KindTable         Kind = "table"
	KindErrorMarker   Kind = "error_marker"
)

// Node is a unit of document content. The set of implementations is closed:
// Accept dispatches to the matching Visitor method, so adding a kind means
// adding a Visitor method that every backend must implement.
type Node interface {
	Kind() Kind
	Accept(v Visitor)
}

// Visitor has exactly one method per node kind.
type Visitor interface {
	VisitParagraph(n *Paragraph)
	VisitText(n *Text)
	VisitEmphasis(n *Emphasis)
	VisitStrong(n *Strong)
	VisitInlineCode(n *InlineCode)
	VisitInlineMath(n *InlineMath)
	VisitCitation(n *Citation)
	VisitReference(n *Reference)
	VisitLink(n *Link)
	VisitHeading(n *Heading)
	VisitOrderedList(n *OrderedList)
	VisitUnorderedList(n *UnorderedList)
	VisitDisplayMath(n *DisplayMath)
	VisitCodeBlock(n *CodeBlock)
	VisitQuote(n *Quote)
	VisitComment(n *Comment)
	VisitEmbed(n *Embed)
	VisitEnvironment(n *Environment)
	VisitImage(n *Image)
	VisitTable(n *Table)
	VisitErrorMarker(n *ErrorMarker)
}

// Parsed is one note as produced by the parser: frontmatter plus body.
type Parsed struct {
	Title       string            // Note title (frontmatter "title" or file name)
	Frontmatter map[string]string // YAML frontmatter, values stringified
	Body        []Node
}

// Paragraph holds inline children.
type Paragraph struct {
	Children []Node
}

// Text is a run of plain text.
type Text struct {
	Content string
}

type Emphasis struct {
	Children []Node
}

type Strong struct {
	Children []Node
}

type InlineCode struct {
	Code string
}

// InlineMath is $...$ content, stored without delimiters.
type InlineMath struct {
	Content string
}

// Citation references one or more bibliography keys, e.g. [@knuth84; @lamport94].
type Citation struct {
	Keys []string
}

// Reference is a cross-reference to a label, e.g. [[note#^eq:1]].
type Reference struct {
	Label   string
	Display string
}

// Link is an external link or a non-embedded wikilink rendered as text.
type Link struct {
	URL  string // Empty for wikilinks to notes
	Text string
}

// Heading is a section heading. Level is the note-local level as parsed;
// the unroll engine replaces it with the global level.
type Heading struct {
	Level int
	Title []Node
	Label string
}

// OrderedList items each own a sequence of nodes.
type OrderedList struct {
	Start int
	Items [][]Node
}

type UnorderedList struct {
	Items [][]Node
}

// DisplayMath is a $$...$$ block. Env is the explicit math environment
// (align, gather, ...) when the content was wrapped in \begin{env}.
type DisplayMath struct {
	Content string
	Label   string
	Env     string
}

type CodeBlock struct {
	Code     string
	Language string
	Label    string
	Caption  string
}

type Quote struct {
	Content string
}

// Comment is an %%...%% note comment.
type Comment struct {
	Content string
}

// Embed is a transclusion reference: ![[Address#Section|Alias]].
type Embed struct {
	Address string
	Section string // Heading title or ^block-id, empty for the whole note
	Alias   string
	Label   string // Trailing ^label, passed on to the image or environment
}

// Environment is a theorem-like block (theorem, lemma, definition, ...).
type Environment struct {
	Name  string
	Title string
	Label string
	Body  []Node
}

// Image is an embedded media file. Path is the file name relative to the
// attachments folder of the export.
type Image struct {
	Address string
	Path    string
	Caption string
	Label   string
	Width   string
}

type Table struct {
	Header  []string
	Rows    [][]string
	Caption string
	Label   string
}

// ErrorMarker replaces content that could not be resolved.
type ErrorMarker struct {
	Reason  string
	Message string
}

func (n *Paragraph) Kind() Kind     { return KindParagraph }
func (n *Text) Kind() Kind          { return KindText }
func (n *Emphasis) Kind() Kind      { return KindEmphasis }
func (n *Strong) Kind() Kind        { return KindStrong }
func (n *InlineCode) Kind() Kind    { return KindInlineCode }
func (n *InlineMath) Kind() Kind    { return KindInlineMath }
func (n *Citation) Kind() Kind      { return KindCitation }
func (n *Reference) Kind() Kind     { return KindReference }
func (n *Link) Kind() Kind          { return KindLink }
func (n *Heading) Kind() Kind       { return KindHeading }
func (n *OrderedList) Kind() Kind   { return KindOrderedList }
func (n *UnorderedList) Kind() Kind { return KindUnorderedList }
func (n *DisplayMath) Kind() Kind   { return KindDisplayMath }
func (n *CodeBlock) Kind() Kind     { return KindCodeBlock }
func (n *Quote) Kind() Kind         { return KindQuote }
func (n *Comment) Kind() Kind       { return KindComment }
func (n *Embed) Kind() Kind         { return KindEmbed }
func (n *Environment) Kind() Kind   { return KindEnvironment }
func (n *Image) Kind() Kind         { return KindImage }
func (n *Table) Kind() Kind         { return KindTable }
func (n *ErrorMarker) Kind() Kind   { return KindErrorMarker }

func (n *Paragraph) Accept(v Visitor)     { v.VisitParagraph(n) }
func (n *Text) Accept(v Visitor)          { v.VisitText(n) }
func (n *Emphasis) Accept(v Visitor)      { v.VisitEmphasis(n) }
func (n *Strong) Accept(v Visitor)        { v.VisitStrong(n) }
func (n *InlineCode) Accept(v Visitor)    { v.VisitInlineCode(n) }
func (n *InlineMath) Accept(v Visitor)    { v.VisitInlineMath(n) }
func (n *Citation) Accept(v Visitor)      { v.VisitCitation(n) }
func (n *Reference) Accept(v Visitor)     { v.VisitReference(n) }
func (n *Link) Accept(v Visitor)          { v.VisitLink(n) }
func (n *Heading) Accept(v Visitor)       { v.VisitHeading(n) }
func (n *OrderedList) Accept(v Visitor)   { v.VisitOrderedList(n) }
func (n *UnorderedList) Accept(v Visitor) { v.VisitUnorderedList(n) }
func (n *DisplayMath) Accept(v Visitor)   { v.VisitDisplayMath(n) }
func (n *CodeBlock) Accept(v Visitor)     { v.VisitCodeBlock(n) }
func (n *Quote) Accept(v Visitor)         { v.VisitQuote(n) }
func (n *Comment) Accept(v Visitor)       { v.VisitComment(n) }
func (n *Embed) Accept(v Visitor)         { v.VisitEmbed(n) }
func (n *Environment) Accept(v Visitor)   { v.VisitEnvironment(n) }
func (n *Image) Accept(v Visitor)         { v.VisitImage(n) }
func (n *Table) Accept(v Visitor)         { v.VisitTable(n) }
func (n *ErrorMarker) Accept(v Visitor)   { v.VisitErrorMarker(n) }
