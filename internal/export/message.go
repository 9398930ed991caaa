package export

import "strings"

// Action describes what happened to one supporting file.
type Action string

const (
	ActionCopying     Action = "copying"
	ActionCreating    Action = "creating"
	ActionOverwriting Action = "overwriting"
	ActionNone        Action = "none"
	ActionNotFound    Action = "not_found"
)

// MessageBuilder accumulates the human-readable export status report.
type MessageBuilder struct {
	lines []string
}

func NewMessageBuilder() *MessageBuilder {
	return &MessageBuilder{lines: []string{"SUCCESS!!", "Exporting the current file:"}}
}

func (m *MessageBuilder) Preamble(a Action) *MessageBuilder {
	switch a {
	case ActionOverwriting:
		m.add("- Overwriting the preamble file")
	case ActionCopying:
		m.add("- Copying the preamble file")
	case ActionNone:
		m.add("- Without overwriting the preamble file")
	case ActionNotFound:
		m.add("- Without a preamble file (none found)")
	}
	return m
}

func (m *MessageBuilder) Header(a Action) *MessageBuilder {
	switch a {
	case ActionOverwriting:
		m.add("- Overwriting the header file")
	case ActionCreating:
		m.add("- Creating the header file")
	case ActionNone:
		m.add("- Without overwriting the header file")
	}
	return m
}

func (m *MessageBuilder) Bib(a Action) *MessageBuilder {
	switch a {
	case ActionCopying:
		m.add("- Copying the bib file")
	case ActionNone:
		m.add("- Without overwriting the bib file")
	case ActionNotFound:
		m.add("- Without a bib file (none found)")
	}
	return m
}

func (m *MessageBuilder) Template(using bool) *MessageBuilder {
	if using {
		m.add("- Using the specified template file")
	}
	return m
}

// Figures records a media action. filename is only used when overwriting.
func (m *MessageBuilder) Figures(a Action, filename string) *MessageBuilder {
	switch a {
	case ActionCopying:
		m.add("- Copying figure files")
	case ActionOverwriting:
		if filename != "" {
			m.add("- Overwriting figure file: " + filename)
		} else {
			m.add("- Overwriting figure files")
		}
	case ActionNone:
		m.add("- Without overwriting figure files")
	}
	return m
}

func (m *MessageBuilder) Custom(line string) *MessageBuilder {
	m.add(line)
	return m
}

// Build joins the report and appends the output location.
func (m *MessageBuilder) Build(location string) string {
	return m.String() + "\nTo folder: " + location
}

func (m *MessageBuilder) String() string {
	return strings.Join(m.lines, "\n")
}

func (m *MessageBuilder) add(line string) { m.lines = append(m.lines, line) }
