package vault

import (
	"context"
	"path"
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// File identifies one file in the vault by its slash-separated path
// relative to the vault root.
type File struct {
	Path string
}

// Name returns the base name with extension.
func (f File) Name() string {
	return path.Base(f.Path)
}

// Basename returns the base name without extension.
func (f File) Basename() string {
	return strings.TrimSuffix(f.Name(), path.Ext(f.Path))
}

// Ext returns the lower-cased extension including the dot.
func (f File) Ext() string {
	return strings.ToLower(path.Ext(f.Path))
}

// Vault resolves note addresses and reads file content.
type Vault interface {
	// Find resolves an address (wikilink target) to a file. Resolution is
	// case-insensitive and tolerates a missing ".md" extension.
	Find(address string) (File, bool)
	Read(ctx context.Context, f File) ([]byte, error)
}

var imageExt = regexp.MustCompile(`(?i)\.(?:jpeg|jpg|png|gif|svg|pdf|tiff|webp|excalidraw)$`)

var drawingExt = regexp.MustCompile(`(?i)\.excalidraw$`)

// IsImageAddress reports whether an embed address points at media rather
// than a note.
func IsImageAddress(address string) bool {
	return imageExt.MatchString(strings.TrimSpace(address))
}

// ImageAddress maps drawing files to the image rendered next to them:
// "sketch.excalidraw" resolves to "sketch.excalidraw.png".
func ImageAddress(address string) string {
	if drawingExt.MatchString(address) {
		return address + ".png"
	}
	return address
}

// FindImage resolves a media address, applying the drawing rule first.
func FindImage(v Vault, address string) (File, bool) {
	return v.Find(ImageAddress(address))
}

// index is the shared lookup used by the Vault implementations.
type index struct {
	byPath map[string]File // key of the full path
	byName map[string]File // key of the base name, first path in sort order wins
}

func newIndex(paths []string) *index {
	idx := &index{
		byPath: make(map[string]File, len(paths)),
		byName: make(map[string]File, len(paths)),
	}
	for _, p := range paths {
		p = strings.TrimPrefix(path.Clean("/"+p), "/")
		f := File{Path: p}
		idx.byPath[key(p)] = f
		name := key(f.Name())
		if _, ok := idx.byName[name]; !ok {
			idx.byName[name] = f
		}
	}
	return idx
}

func (idx *index) find(address string) (File, bool) {
	address = strings.TrimSpace(address)
	if address == "" {
		return File{}, false
	}
	clean := key(strings.TrimPrefix(path.Clean("/"+address), "/"))
	candidates := []string{clean}
	if path.Ext(clean) == "" || !knownExt(path.Ext(clean)) {
		candidates = append(candidates, clean+".md")
	}
	for _, c := range candidates {
		if f, ok := idx.byPath[c]; ok {
			return f, true
		}
	}
	for _, c := range candidates {
		if f, ok := idx.byName[path.Base(c)]; ok {
			return f, true
		}
	}
	return File{}, false
}

// key folds case and Unicode normalization so NFD file names (as macOS
// stores them) match NFC addresses.
func key(s string) string {
	return norm.NFC.String(strings.ToLower(s))
}

func knownExt(ext string) bool {
	switch strings.ToLower(ext) {
	case ".md", ".markdown", ".txt", ".csv", ".html", ".htm", ".docx",
		".png", ".jpg", ".jpeg", ".gif", ".svg", ".pdf", ".tiff", ".webp",
		".excalidraw", ".bib", ".tex", ".typ", ".sty":
		return true
	}
	return false
}
