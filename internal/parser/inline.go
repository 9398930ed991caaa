package parser

import (
	"regexp"
	"strings"

	"github.com/dgallion1/longform/internal/doctree"
)

var (
	blockIDOnly     = regexp.MustCompile(`^\^([A-Za-z0-9:_.-]+)$`)
	trailingBlockID = regexp.MustCompile(`\s+\^([A-Za-z0-9:_.-]+)\s*$`)
	mathLabel       = regexp.MustCompile(`\\label\{([^}]*)\}`)
	mathEnv         = regexp.MustCompile(`(?s)^\\begin\{([A-Za-z*]+)\}(.*)\\end\{([A-Za-z*]+)\}$`)
	citeKey         = regexp.MustCompile(`^-?@([A-Za-z0-9_:.#$%&+?<>~/-]+)$`)
)

// splitBlockID removes a trailing " ^label" from s.
func splitBlockID(s string) (string, string) {
	if m := trailingBlockID.FindStringSubmatchIndex(s); m != nil {
		return s[:m[0]], s[m[2]:m[3]]
	}
	return s, ""
}

// parseInline tokenizes paragraph text. Embeds are returned as
// *doctree.Embed nodes for the caller to lift to block level.
func parseInline(s string) []doctree.Node {
	var out []doctree.Node
	var text strings.Builder
	flush := func() {
		if text.Len() > 0 {
			out = append(out, &doctree.Text{Content: text.String()})
			text.Reset()
		}
	}

	for i := 0; i < len(s); {
		c := s[i]
		switch {
		case c == '\\' && i+1 < len(s) && strings.IndexByte("\\$*_[]`%", s[i+1]) >= 0:
			text.WriteByte(s[i+1])
			i += 2
			continue
		case strings.HasPrefix(s[i:], "![["):
			if end := strings.Index(s[i+3:], "]]"); end >= 0 {
				flush()
				out = append(out, parseEmbed(s[i+3:i+3+end]))
				i += 3 + end + 2
				continue
			}
		case strings.HasPrefix(s[i:], "[["):
			if end := strings.Index(s[i+2:], "]]"); end >= 0 {
				flush()
				out = append(out, parseWikilink(s[i+2:i+2+end]))
				i += 2 + end + 2
				continue
			}
		case strings.HasPrefix(s[i:], "%%"):
			if end := strings.Index(s[i+2:], "%%"); end >= 0 {
				i += 2 + end + 2
				continue
			}
		case strings.HasPrefix(s[i:], "[@") || strings.HasPrefix(s[i:], "[-@"):
			if end := strings.IndexByte(s[i:], ']'); end > 0 {
				if keys := parseCiteKeys(s[i+1 : i+end]); len(keys) > 0 {
					flush()
					out = append(out, &doctree.Citation{Keys: keys})
					i += end + 1
					continue
				}
			}
		case c == '$' && !strings.HasPrefix(s[i:], "$$"):
			if end := closingDollar(s, i+1); end > i+1 {
				flush()
				out = append(out, &doctree.InlineMath{Content: s[i+1 : end]})
				i = end + 1
				continue
			}
		case c == '`':
			if end := strings.IndexByte(s[i+1:], '`'); end >= 0 {
				flush()
				out = append(out, &doctree.InlineCode{Code: s[i+1 : i+1+end]})
				i += end + 2
				continue
			}
		case strings.HasPrefix(s[i:], "**") || strings.HasPrefix(s[i:], "__"):
			delim := s[i : i+2]
			if end := strings.Index(s[i+2:], delim); end > 0 {
				flush()
				out = append(out, &doctree.Strong{Children: parseInline(s[i+2 : i+2+end])})
				i += end + 4
				continue
			}
		case (c == '*' || c == '_') && (c == '*' || i == 0 || !isWordByte(s[i-1])):
			if end := strings.IndexByte(s[i+1:], c); end > 0 && s[i+1] != ' ' {
				flush()
				out = append(out, &doctree.Emphasis{Children: parseInline(s[i+1 : i+1+end])})
				i += end + 2
				continue
			}
		case c == '[':
			if mid := strings.Index(s[i:], "]("); mid > 0 {
				if end := strings.IndexByte(s[i+mid:], ')'); end > 0 {
					flush()
					out = append(out, &doctree.Link{
						Text: s[i+1 : i+mid],
						URL:  s[i+mid+2 : i+mid+end],
					})
					i += mid + end + 1
					continue
				}
			}
		}
		text.WriteByte(c)
		i++
	}
	flush()
	return out
}

// parseEmbed splits "address#section|alias".
func parseEmbed(inner string) *doctree.Embed {
	target, alias, _ := strings.Cut(inner, "|")
	address, section, _ := strings.Cut(target, "#")
	return &doctree.Embed{
		Address: strings.TrimSpace(address),
		Section: strings.TrimSpace(section),
		Alias:   strings.TrimSpace(alias),
	}
}

// parseWikilink turns [[note#^label|text]] into a cross-reference and any
// other wikilink into display text.
func parseWikilink(inner string) doctree.Node {
	target, display, _ := strings.Cut(inner, "|")
	address, section, _ := strings.Cut(target, "#")
	display = strings.TrimSpace(display)
	if strings.HasPrefix(section, "^") {
		return &doctree.Reference{Label: strings.TrimPrefix(section, "^"), Display: display}
	}
	if display == "" {
		display = strings.TrimSpace(section)
	}
	if display == "" {
		display = strings.TrimSpace(address)
	}
	return &doctree.Link{Text: display}
}

// parseCiteKeys reads "@a; @b, p. 3" style citation lists. Locators are dropped.
func parseCiteKeys(s string) []string {
	var keys []string
	for _, part := range strings.Split(s, ";") {
		fields := strings.Fields(part)
		if len(fields) == 0 {
			return nil
		}
		m := citeKey.FindStringSubmatch(strings.TrimRight(fields[0], ","))
		if m == nil {
			return nil
		}
		keys = append(keys, m[1])
	}
	return keys
}

func closingDollar(s string, from int) int {
	for j := from; j < len(s); j++ {
		switch s[j] {
		case '\\':
			j++
		case '$':
			return j
		}
	}
	return -1
}

func isWordByte(b byte) bool {
	return b == '_' || b >= '0' && b <= '9' || b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z'
}

// splitMath extracts an explicit \begin{env}...\end{env} wrapper and a
// \label{} from display math content.
func splitMath(content string) (body, env, label string) {
	body = strings.TrimSpace(content)
	if m := mathLabel.FindStringSubmatch(body); m != nil {
		label = m[1]
		body = strings.TrimSpace(mathLabel.ReplaceAllString(body, ""))
	}
	if m := mathEnv.FindStringSubmatch(body); m != nil && m[1] == m[3] {
		env = m[1]
		body = strings.TrimSpace(m[2])
	}
	return body, env, label
}
