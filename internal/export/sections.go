package export

import (
	"strings"

	"github.com/dgallion1/longform/internal/doctree"
)

type section struct {
	name  string
	title string
	nodes []doctree.Node
}

// splitSections moves level-1 headings of the root note whose title names a
// template section, plus everything up to the next level-1 heading, out of
// the body. Matching is case-insensitive. The section heading itself is
// dropped; the template supplies its own.
func splitSections(body []doctree.Node, names []string) ([]doctree.Node, []section) {
	if len(names) == 0 {
		return body, nil
	}
	known := make(map[string]string, len(names))
	for _, n := range names {
		known[strings.ToLower(strings.TrimSpace(n))] = n
	}

	var (
		out      []doctree.Node
		sections []section
		current  *section
	)
	for _, n := range body {
		if h, ok := n.(*doctree.Heading); ok && h.Level == 1 {
			if current != nil {
				sections = append(sections, *current)
				current = nil
			}
			title := strings.TrimSpace(doctree.PlainText(h.Title))
			if name, ok := known[strings.ToLower(title)]; ok {
				current = &section{name: name, title: title}
				continue
			}
		}
		if current != nil {
			current.nodes = append(current.nodes, n)
			continue
		}
		out = append(out, n)
	}
	if current != nil {
		sections = append(sections, *current)
	}
	return out, sections
}
