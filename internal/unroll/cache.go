package unroll

import (
	"context"
	"fmt"

	"github.com/dgallion1/longform/internal/doctree"
	"github.com/dgallion1/longform/internal/vault"
)

// NoteParser turns file content into a parsed note.
type NoteParser interface {
	Parse(content []byte, filename string) (*doctree.Parsed, error)
}

type cacheEntry struct {
	parsed *doctree.Parsed
	err    error
}

// Cache maps a file path to its parsed note for one pass. Each path is read
// and parsed at most once, failures included. Not safe for concurrent use:
// a pass runs on a single goroutine.
type Cache struct {
	vault   vault.Vault
	parser  NoteParser
	entries map[string]cacheEntry
	reads   int
}

func NewCache(v vault.Vault, p NoteParser) *Cache {
	return &Cache{vault: v, parser: p, entries: make(map[string]cacheEntry)}
}

// Load returns the parsed note for f. Cancellation is never cached.
func (c *Cache) Load(ctx context.Context, f vault.File) (*doctree.Parsed, error) {
	if e, ok := c.entries[f.Path]; ok {
		return e.parsed, e.err
	}
	c.reads++
	content, err := c.vault.Read(ctx, f)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		err = fmt.Errorf("read %s: %w", f.Path, err)
		c.entries[f.Path] = cacheEntry{err: err}
		return nil, err
	}
	parsed, err := c.parser.Parse(content, f.Path)
	if err != nil {
		err = fmt.Errorf("parse %s: %w", f.Path, err)
	}
	c.entries[f.Path] = cacheEntry{parsed: parsed, err: err}
	return parsed, err
}

// Len returns the number of cached paths.
func (c *Cache) Len() int { return len(c.entries) }

// Reads returns how many times the vault was read.
func (c *Cache) Reads() int { return c.reads }
