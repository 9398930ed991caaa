package vault

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// DirVault serves files from a directory on disk. The file index is built
// once at construction; call Refresh after the directory changes.
type DirVault struct {
	root string
	idx  *index
}

func NewDirVault(root string) (*DirVault, error) {
	v := &DirVault{root: root}
	if err := v.Refresh(); err != nil {
		return nil, err
	}
	return v, nil
}

// Root returns the directory the vault serves.
func (v *DirVault) Root() string {
	return v.root
}

// Refresh rebuilds the file index.
func (v *DirVault) Refresh() error {
	var paths []string
	err := filepath.WalkDir(v.root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			// Skip hidden folders such as .obsidian and .git.
			if p != v.root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		rel, err := filepath.Rel(v.root, p)
		if err != nil {
			return err
		}
		paths = append(paths, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return fmt.Errorf("index vault %s: %w", v.root, err)
	}
	sort.Strings(paths)
	v.idx = newIndex(paths)
	return nil
}

func (v *DirVault) Find(address string) (File, bool) {
	return v.idx.find(address)
}

func (v *DirVault) Read(ctx context.Context, f File) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(v.Abs(f))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", f.Path, err)
	}
	return data, nil
}

// Abs returns the on-disk path of f.
func (v *DirVault) Abs(f File) string {
	return filepath.Join(v.root, filepath.FromSlash(f.Path))
}
