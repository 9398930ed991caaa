package unroll

import (
	"crypto/sha256"
	"encoding/hex"
	"log/slog"

	"github.com/dgallion1/longform/internal/vault"
)

// MaxDepth bounds embed nesting independently of fingerprint checks.
const MaxDepth = 64

// HeaderEntry is one open heading on the header stack.
type HeaderEntry struct {
	Level int
	Title string
	Label string
}

// FileSet is an ordered set of files keyed by path.
type FileSet struct {
	seen  map[string]bool
	files []vault.File
}

func NewFileSet() *FileSet { return &FileSet{seen: make(map[string]bool)} }

// Add inserts f unless a file with the same path is present.
func (s *FileSet) Add(f vault.File) {
	if s.seen[f.Path] {
		return
	}
	s.seen[f.Path] = true
	s.files = append(s.files, f)
}

func (s *FileSet) Files() []vault.File {
	out := make([]vault.File, len(s.files))
	copy(out, s.files)
	return out
}

func (s *FileSet) Len() int { return len(s.files) }

// KeySet is an ordered set of strings.
type KeySet struct {
	seen map[string]bool
	keys []string
}

func NewKeySet() *KeySet { return &KeySet{seen: make(map[string]bool)} }

func (s *KeySet) Add(keys ...string) {
	for _, k := range keys {
		if s.seen[k] {
			continue
		}
		s.seen[k] = true
		s.keys = append(s.keys, k)
	}
}

func (s *KeySet) Keys() []string {
	out := make([]string, len(s.keys))
	copy(out, s.keys)
	return out
}

func (s *KeySet) Len() int { return len(s.keys) }

// Pass is the state shared by every context of one export pass. Its
// collections only grow.
type Pass struct {
	ID       string
	Labels   *Registry
	Media    *FileSet
	BibKeys  *KeySet
	Cache    *Cache
	Warnings []Warning

	envIndex int
	log      *slog.Logger
}

func newPass(id string, cache *Cache, log *slog.Logger) *Pass {
	p := &Pass{
		ID:       id,
		Media:    NewFileSet(),
		BibKeys:  NewKeySet(),
		Cache:    cache,
		envIndex: 1,
		log:      log,
	}
	p.Labels = NewRegistry(func(existing LabelEntry, file string) {
		p.Warn(WarnDuplicateLabel, file, "label "+existing.Label+" already defined in "+existing.File)
	})
	return p
}

// Warn records a warning and logs it.
func (p *Pass) Warn(kind WarningKind, file, msg string) {
	w := Warning{Kind: kind, Message: msg, File: file}
	p.Warnings = append(p.Warnings, w)
	p.log.Warn("export warning", "kind", string(kind), "file", file, "message", msg)
}

// EnvIndex is the next automatic environment number.
func (p *Pass) EnvIndex() int { return p.envIndex }

func (p *Pass) nextEnvIndex() int {
	i := p.envIndex
	p.envIndex++
	return i
}

// Context is the per-branch resolution state. Embeds resolve in a clone;
// headings update AmbientLevel and HeaderStack of the context they are
// unrolled in, so later siblings see them.
type Context struct {
	Pass *Pass

	InEnvironment bool
	Depth         int
	EnvHashes     []string
	AmbientLevel  int
	LevelOffset   int
	CurrentFile   vault.File
	RootFile      vault.File
	HeaderStack   []HeaderEntry
}

// child returns the context for resolving target. The fingerprint stack is
// copied so the parent never observes the push.
func (c *Context) child(target vault.File, fp string) *Context {
	hashes := make([]string, len(c.EnvHashes), len(c.EnvHashes)+1)
	copy(hashes, c.EnvHashes)
	return &Context{
		Pass:          c.Pass,
		InEnvironment: c.InEnvironment,
		Depth:         c.Depth + 1,
		EnvHashes:     append(hashes, fp),
		AmbientLevel:  c.AmbientLevel,
		LevelOffset:   c.AmbientLevel,
		CurrentFile:   target,
		RootFile:      c.RootFile,
	}
}

// Section returns a context for a template section of the root note. The
// section's own level-1 heading is dropped, so resolution restarts at
// ambient level 1 with no header history. The pass is shared.
func (c *Context) Section() *Context {
	return &Context{
		Pass:         c.Pass,
		EnvHashes:    append([]string(nil), c.EnvHashes...),
		AmbientLevel: 1,
		CurrentFile:  c.CurrentFile,
		RootFile:     c.RootFile,
	}
}

func (c *Context) onStack(fp string) bool {
	for _, h := range c.EnvHashes {
		if h == fp {
			return true
		}
	}
	return false
}

// pushHeader pops entries at or below level and pushes a new one.
func (c *Context) pushHeader(e HeaderEntry) {
	for len(c.HeaderStack) > 0 && c.HeaderStack[len(c.HeaderStack)-1].Level >= e.Level {
		c.HeaderStack = c.HeaderStack[:len(c.HeaderStack)-1]
	}
	c.HeaderStack = append(c.HeaderStack, e)
	c.AmbientLevel = e.Level
}

// fingerprint identifies an embed target for cycle detection.
func fingerprint(path, section string) string {
	sum := sha256.Sum256([]byte(path + "#" + section))
	return hex.EncodeToString(sum[:])
}
