package unroll

import (
	"testing"

	"github.com/dgallion1/longform/internal/doctree"
	"github.com/stretchr/testify/assert"
)

func TestRegistry_FirstWriteWins(t *testing.T) {
	var dups []string
	r := NewRegistry(func(existing LabelEntry, file string) {
		dups = append(dups, existing.File+"<-"+file)
	})

	first := r.Register("eq:1", doctree.KindDisplayMath, "a.md")
	second := r.Register("eq:1", doctree.KindHeading, "b.md")

	assert.Equal(t, []bool{true, false}, []bool{first, second})
	assert.Equal(t, 1, r.Len())
	e, ok := r.Lookup("eq:1")
	assert.True(t, ok)
	assert.Equal(t, doctree.KindDisplayMath, e.Kind)
	assert.Equal(t, []string{"a.md<-b.md"}, dups)
}

func TestRegistry_NormalizesLabels(t *testing.T) {
	r := NewRegistry(nil)
	assert.True(t, r.Register("café", doctree.KindHeading, "a.md"))
	assert.False(t, r.Register("cafe\u0301", doctree.KindHeading, "b.md"))
}

func TestPass_DuplicateLabelWarns(t *testing.T) {
	p := newPass("x", nil, testLogger())
	p.Labels.Register("lem", doctree.KindEnvironment, "a.md")
	p.Labels.Register("lem", doctree.KindEnvironment, "b.md")

	assert.Len(t, p.Warnings, 1)
	assert.Equal(t, WarnDuplicateLabel, p.Warnings[0].Kind)
	assert.Equal(t, "b.md", p.Warnings[0].File)
}
