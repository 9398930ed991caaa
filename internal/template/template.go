// Package template fills {{name}} placeholders in export templates.
package template

import (
	_ "embed"
	"regexp"

	"github.com/dgallion1/longform/internal/config"
)

// Placeholder names with fixed meaning. Section names listed in the
// settings are placeholders too.
const (
	KeyTitle          = "title"
	KeyAuthor         = "author"
	KeyBody           = "body"
	KeyBibliography   = "bibliography"
	KeyPreamble       = "PREAMBLE"
	KeyCustomSections = "customSections"
)

//go:embed default.typ
var defaultTypst string

//go:embed default.tex
var defaultLaTeX string

var placeholder = regexp.MustCompile(`\{\{([^{}]+)\}\}`)

// Default returns the built-in template for a backend.
func Default(b config.Backend) string {
	if b == config.BackendLaTeX {
		return defaultLaTeX
	}
	return defaultTypst
}

// Fill replaces every {{name}} that has a value. Unknown placeholders are
// kept as written. Substituted text is not scanned again.
func Fill(tmpl string, values map[string]string) string {
	return placeholder.ReplaceAllStringFunc(tmpl, func(m string) string {
		name := m[2 : len(m)-2]
		if v, ok := values[name]; ok {
			return v
		}
		return m
	})
}

// Has reports whether tmpl contains the {{name}} placeholder.
func Has(tmpl, name string) bool {
	for _, m := range placeholder.FindAllStringSubmatch(tmpl, -1) {
		if m[1] == name {
			return true
		}
	}
	return false
}
