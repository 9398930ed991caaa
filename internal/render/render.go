// Package render serializes unrolled nodes into LaTeX or Typst markup.
package render

import (
	"github.com/dgallion1/longform/internal/config"
	"github.com/dgallion1/longform/internal/doctree"
)

// Backend writes nodes at an offset and returns the first unwritten offset.
// Rendering never fails: missing optional fields are omitted.
type Backend interface {
	Name() config.Backend
	// Ext is the output file extension, including the dot.
	Ext() string
	// Header is the backend support file content (theorem declarations).
	Header() string
	Render(buf *Buffer, off int, n doctree.Node) int
}

// For returns the backend selected by the settings.
func For(settings config.Settings) Backend {
	if settings.Backend == config.BackendLaTeX {
		return &LaTeX{settings: settings}
	}
	return &Typst{settings: settings}
}

// RenderAll renders nodes in order starting at off.
func RenderAll(b Backend, buf *Buffer, off int, nodes []doctree.Node) int {
	for _, n := range nodes {
		off = b.Render(buf, off, n)
	}
	return off
}

// String renders nodes into a fresh buffer.
func String(b Backend, nodes []doctree.Node) string {
	buf := NewBuffer(4096)
	n := RenderAll(b, buf, 0, nodes)
	return buf.String(n)
}

// writer tracks the running offset shared by a backend's visitor methods.
type writer struct {
	buf *Buffer
	off int
}

func (w *writer) write(parts ...string) {
	for _, s := range parts {
		w.off += w.buf.WriteAt(w.off, s)
	}
}
