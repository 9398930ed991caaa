package doctree

import "strings"

// PlainText flattens inline nodes to their visible text. Used for heading
// titles when matching section embeds and for environment titles.
func PlainText(nodes []Node) string {
	var sb strings.Builder
	var walk func(nodes []Node)
	walk = func(nodes []Node) {
		for _, n := range nodes {
			switch n := n.(type) {
			case *Text:
				sb.WriteString(n.Content)
			case *Emphasis:
				walk(n.Children)
			case *Strong:
				walk(n.Children)
			case *InlineCode:
				sb.WriteString(n.Code)
			case *InlineMath:
				sb.WriteString("$" + n.Content + "$")
			case *Link:
				sb.WriteString(n.Text)
			case *Reference:
				sb.WriteString(n.Display)
			case *Paragraph:
				walk(n.Children)
			}
		}
	}
	walk(nodes)
	return strings.TrimSpace(sb.String())
}

// LabelOf returns the explicit label a node carries, if any.
func LabelOf(n Node) string {
	switch n := n.(type) {
	case *Heading:
		return n.Label
	case *DisplayMath:
		return n.Label
	case *CodeBlock:
		return n.Label
	case *Environment:
		return n.Label
	case *Image:
		return n.Label
	case *Table:
		return n.Label
	case *Embed:
		return n.Label
	}
	return ""
}

// WithLabel returns a copy of n carrying label, or nil when the kind
// cannot be labeled.
func WithLabel(n Node, label string) Node {
	switch n := n.(type) {
	case *Heading:
		c := *n
		c.Label = label
		return &c
	case *DisplayMath:
		c := *n
		c.Label = label
		return &c
	case *CodeBlock:
		c := *n
		c.Label = label
		return &c
	case *Environment:
		c := *n
		c.Label = label
		return &c
	case *Image:
		c := *n
		c.Label = label
		return &c
	case *Table:
		c := *n
		c.Label = label
		return &c
	case *Embed:
		c := *n
		c.Label = label
		return &c
	}
	return nil
}

// Environments lists the theorem-like environment names recognized in
// callouts and embed aliases.
var Environments = []string{
	"theorem", "lemma", "corollary", "proposition", "definition",
	"example", "remark", "fact", "proof",
}

// IsEnvironment reports whether name is a theorem-like environment.
func IsEnvironment(name string) bool {
	for _, e := range Environments {
		if e == name {
			return true
		}
	}
	return false
}
