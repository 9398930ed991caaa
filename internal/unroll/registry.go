package unroll

import (
	"github.com/dgallion1/longform/internal/doctree"
	"golang.org/x/text/unicode/norm"
)

// LabelEntry records where a label was first defined.
type LabelEntry struct {
	Label string       `json:"label"`
	Kind  doctree.Kind `json:"kind"`
	File  string       `json:"file"`
}

// Registry holds the labels of one pass. The first registration of a label
// wins; later ones are reported through the duplicate hook.
type Registry struct {
	entries     map[string]int
	order       []LabelEntry
	onDuplicate func(existing LabelEntry, file string)
}

// NewRegistry creates an empty registry. onDuplicate may be nil.
func NewRegistry(onDuplicate func(existing LabelEntry, file string)) *Registry {
	return &Registry{
		entries:     make(map[string]int),
		onDuplicate: onDuplicate,
	}
}

// Register inserts label and returns true if it was absent. Otherwise the
// registry is unchanged and false is returned.
func (r *Registry) Register(label string, kind doctree.Kind, file string) bool {
	key := norm.NFC.String(label)
	if i, ok := r.entries[key]; ok {
		if r.onDuplicate != nil {
			r.onDuplicate(r.order[i], file)
		}
		return false
	}
	r.entries[key] = len(r.order)
	r.order = append(r.order, LabelEntry{Label: key, Kind: kind, File: file})
	return true
}

// Lookup returns the entry for label.
func (r *Registry) Lookup(label string) (LabelEntry, bool) {
	i, ok := r.entries[norm.NFC.String(label)]
	if !ok {
		return LabelEntry{}, false
	}
	return r.order[i], true
}

// Entries returns labels in registration order.
func (r *Registry) Entries() []LabelEntry {
	out := make([]LabelEntry, len(r.order))
	copy(out, r.order)
	return out
}

func (r *Registry) Len() int { return len(r.order) }
