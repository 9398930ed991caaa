package parser

import (
	"bytes"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// splitFrontmatter separates a leading "---" YAML block from the body.
// Values are stringified; sequences are joined with ", ".
func splitFrontmatter(src []byte) (map[string]string, []byte, error) {
	fm := map[string]string{}
	if !bytes.HasPrefix(src, []byte("---\n")) && !bytes.HasPrefix(src, []byte("---\r\n")) {
		return fm, src, nil
	}
	rest := src[bytes.IndexByte(src, '\n')+1:]
	end := -1
	offset := 0
	for _, line := range bytes.SplitAfter(rest, []byte("\n")) {
		if trimmed := bytes.TrimRight(line, "\r\n"); string(trimmed) == "---" || string(trimmed) == "..." {
			end = offset
			offset += len(line)
			break
		}
		offset += len(line)
	}
	if end < 0 {
		return fm, src, nil
	}

	var raw map[string]any
	if err := yaml.Unmarshal(rest[:end], &raw); err != nil {
		return fm, src, fmt.Errorf("parse frontmatter: %w", err)
	}
	for k, v := range raw {
		fm[k] = stringify(v)
	}
	return fm, rest[offset:], nil
}

func stringify(v any) string {
	switch v := v.(type) {
	case nil:
		return ""
	case string:
		return v
	case []any:
		parts := make([]string, 0, len(v))
		for _, e := range v {
			parts = append(parts, stringify(e))
		}
		return strings.Join(parts, ", ")
	default:
		return fmt.Sprint(v)
	}
}
