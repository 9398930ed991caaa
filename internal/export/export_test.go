package export

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/dgallion1/longform/internal/config"
	"github.com/dgallion1/longform/internal/render"
	"github.com/dgallion1/longform/internal/unroll"
	"github.com/dgallion1/longform/internal/vault"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const paperNote = `---
title: My Paper
author: Ada
---
# Introduction

Intro text cites [@knuth].

![[B#Results]]

![[fig.png|240]]

# Abstract

Short summary.

# Notes

Extra text.
`

const resultsNote = `# Results

Result text.

# Discussion

Not embedded.
`

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newVault(t *testing.T, files map[string]string) *vault.DirVault {
	t.Helper()
	root := t.TempDir()
	for name, content := range files {
		p := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	}
	v, err := vault.NewDirVault(root)
	require.NoError(t, err)
	return v
}

func paperVault(t *testing.T, extra map[string]string) *vault.DirVault {
	files := map[string]string{
		"Paper.md":         paperNote,
		"notes/B.md":       resultsNote,
		"media/fig.png":    "png-bytes",
		"refs/library.bib": "@book{knuth}",
	}
	for k, v := range extra {
		files[k] = v
	}
	return newVault(t, files)
}

func typstSettings() config.Settings {
	s := config.DefaultSettings()
	s.SectionTemplateNames = []string{"abstract", "appendix", "notes"}
	return s
}

func TestExport_Typst(t *testing.T) {
	v := paperVault(t, nil)
	e := New(v, typstSettings(), testLogger())

	res, err := e.Export(context.Background(), "Paper")
	require.NoError(t, err)

	assert.NotEmpty(t, res.ID)
	assert.Equal(t, "Paper.md", res.Root)
	assert.Equal(t, config.BackendTypst, res.Backend)
	assert.Equal(t, "My Paper", res.Title)
	assert.Equal(t, "Ada", res.Author)

	assert.Contains(t, res.Body, "= Introduction\n")
	assert.Contains(t, res.Body, "Intro text cites @knuth.\n\n")
	assert.Contains(t, res.Body, "Result text.\n\n")
	assert.NotContains(t, res.Body, "Not embedded")
	assert.NotContains(t, res.Body, "Short summary")
	assert.NotContains(t, res.Body, "Extra text")

	assert.Equal(t, "Short summary.\n\n", res.Sections["abstract"])
	assert.Equal(t, "Extra text.\n\n", res.Sections["notes"])

	assert.Contains(t, res.Output, `#set document(title: "My Paper", author: "Ada")`)
	assert.Contains(t, res.Output, "#let abstract-body = [Short summary.\n\n]")
	assert.Contains(t, res.Output, "#let appendix-body = []")
	assert.Contains(t, res.Output, "= Notes\nExtra text.\n\n")
	assert.Contains(t, res.Output, `#bibliography("bibliography.bib"`)
	assert.NotContains(t, res.Output, "{{")

	assert.Equal(t, []string{"knuth"}, res.BibKeys)
	require.Len(t, res.Media, 1)
	assert.Equal(t, "media/fig.png", res.Media[0].Path)
	assert.False(t, res.CustomTemplate)
	assert.Empty(t, res.Warnings)
}

func TestExport_LaTeX(t *testing.T) {
	v := paperVault(t, map[string]string{"preamble.sty": `\newcommand{\R}{\mathbb{R}}`})
	s := typstSettings()
	s.Backend = config.BackendLaTeX
	s.PreamblePath = "preamble.sty"
	e := New(v, s, testLogger(), WithBufferSize(64))

	res, err := e.Export(context.Background(), "Paper.md")
	require.NoError(t, err)

	assert.Contains(t, res.Body, `\section{Introduction}`)
	assert.Contains(t, res.Body, `\cite{knuth}`)
	assert.Contains(t, res.Output, `\usepackage{preamble}`)
	assert.Contains(t, res.Output, `\printbibliography`)
	assert.Contains(t, res.Output, `\section{Notes}`)
	assert.NotContains(t, res.Output, "{{")
}

func TestExport_NoCitationsNoBibliography(t *testing.T) {
	v := newVault(t, map[string]string{"Plain.md": "# Plain\n\nNothing cited.\n"})
	res, err := New(v, typstSettings(), testLogger()).Export(context.Background(), "Plain")
	require.NoError(t, err)

	assert.Empty(t, res.BibKeys)
	assert.NotContains(t, res.Output, "#bibliography(")
	assert.Equal(t, "Plain", res.Title)
	assert.Contains(t, res.Output, `author: ""`)
}

func TestExport_CustomTemplate(t *testing.T) {
	v := paperVault(t, map[string]string{
		"templates/short.typ": "{{title}}|{{abstract}}|{{body}}|{{unknown}}",
	})
	s := typstSettings()
	s.TemplatePath = "templates/short.typ"

	res, err := New(v, s, testLogger()).Export(context.Background(), "Paper")
	require.NoError(t, err)

	assert.True(t, res.CustomTemplate)
	assert.Contains(t, res.Output, "My Paper|Short summary.\n\n|= Introduction\n")
	assert.Contains(t, res.Output, "{{unknown}}")
}

func TestExport_TemplateMissing(t *testing.T) {
	v := paperVault(t, nil)
	s := typstSettings()
	s.TemplatePath = "templates/missing.typ"

	res, err := New(v, s, testLogger()).Export(context.Background(), "Paper")
	require.NoError(t, err)

	require.Len(t, res.Warnings, 1)
	assert.Equal(t, unroll.WarnTemplateMissing, res.Warnings[0].Kind)
	assert.Equal(t, "templates/missing.typ", res.Warnings[0].File)
	assert.Contains(t, res.Output, "#outline(")
}

func TestExport_RootNotFound(t *testing.T) {
	v := paperVault(t, nil)
	_, err := New(v, typstSettings(), testLogger()).Export(context.Background(), "Nope")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrRootNotFound))
}

func TestExport_RootNotANote(t *testing.T) {
	v := paperVault(t, nil)
	_, err := New(v, typstSettings(), testLogger()).Export(context.Background(), "media/fig.png")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrRootNotFound))
}

func TestExport_SectionsStartAtLevelOne(t *testing.T) {
	tests := []struct {
		name string
		root string
	}{
		{"deep body", "# Intro\n\n## Setup\n\n### Details\n\ntext\n\n# Appendix\n\n![[Extra]]\n"},
		{"shallow body", "# Intro\n\ntext\n\n# Appendix\n\n![[Extra]]\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := newVault(t, map[string]string{
				"Root.md":  tt.root,
				"Extra.md": "# Proofs\n\np\n",
			})
			res, err := New(v, config.DefaultSettings(), testLogger()).Export(context.Background(), "Root")
			require.NoError(t, err)
			assert.Equal(t, "== Proofs\np\n\n", res.Sections["appendix"])
		})
	}
}

func TestExport_Cancelled(t *testing.T) {
	v := paperVault(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(v, typstSettings(), testLogger()).Export(ctx, "Paper")
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestExportSelection(t *testing.T) {
	v := paperVault(t, nil)
	e := New(v, typstSettings(), testLogger())

	res, err := e.ExportSelection(context.Background(), "Paper.md", "See below.\n\n![[B#Results]]\n")
	require.NoError(t, err)

	assert.Equal(t, "See below.\n\nResult text.\n\n", res.Body)
	assert.Equal(t, res.Body, res.Output)
	assert.Equal(t, "Paper.md", res.Root)
}

func TestSplitSections(t *testing.T) {
	p := paperVault(t, nil)
	e := New(p, typstSettings(), testLogger())
	res, err := e.Export(context.Background(), "Paper")
	require.NoError(t, err)
	assert.Len(t, res.Sections, 2)

	s := typstSettings()
	s.SectionTemplateNames = nil
	res, err = New(p, s, testLogger()).Export(context.Background(), "Paper")
	require.NoError(t, err)
	assert.Empty(t, res.Sections)
	assert.Contains(t, res.Body, "= Abstract\n")
}

func TestWriter_Write(t *testing.T) {
	v := paperVault(t, nil)
	s := typstSettings()
	s.BibFile = "refs/library.bib"
	out := t.TempDir()

	res, err := New(v, s, testLogger()).Export(context.Background(), "Paper")
	require.NoError(t, err)

	w := NewWriter(v, s, out, testLogger())
	written, err := w.Write(context.Background(), res, render.For(s))
	require.NoError(t, err)

	folder := filepath.Join(out, "Paper")
	assert.Equal(t, folder, written.Folder)
	assert.Equal(t, filepath.Join(folder, "mainmd.typ"), written.OutputFile)
	assert.False(t, written.Skipped)

	main, err := os.ReadFile(written.OutputFile)
	require.NoError(t, err)
	assert.Equal(t, res.Output, string(main))

	header, err := os.ReadFile(filepath.Join(folder, "header.typ"))
	require.NoError(t, err)
	assert.Equal(t, render.TypstHeader(), string(header))

	bib, err := os.ReadFile(filepath.Join(folder, "bibliography.bib"))
	require.NoError(t, err)
	assert.Equal(t, "@book{knuth}", string(bib))

	fig, err := os.ReadFile(filepath.Join(folder, "Attachments", "fig.png"))
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(fig))

	assert.Contains(t, written.Message, "SUCCESS!!")
	assert.Contains(t, written.Message, "- Creating the header file")
	assert.Contains(t, written.Message, "- Copying the bib file")
	assert.Contains(t, written.Message, "- Copying figure files")
	assert.Contains(t, written.Message, "- Without a preamble file (none found)")
	assert.Empty(t, res.Warnings)
}

func TestWriter_KeepsExistingFiles(t *testing.T) {
	v := paperVault(t, nil)
	s := typstSettings()
	out := t.TempDir()
	folder := filepath.Join(out, "Paper")
	require.NoError(t, os.MkdirAll(folder, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(folder, "mainmd.typ"), []byte("hand edited"), 0o644))

	res, err := New(v, s, testLogger()).Export(context.Background(), "Paper")
	require.NoError(t, err)

	written, err := NewWriter(v, s, out, testLogger()).Write(context.Background(), res, render.For(s))
	require.NoError(t, err)
	assert.True(t, written.Skipped)

	main, err := os.ReadFile(filepath.Join(folder, "mainmd.typ"))
	require.NoError(t, err)
	assert.Equal(t, "hand edited", string(main))

	// Citations with no bibliography configured.
	require.Len(t, res.Warnings, 1)
	assert.Equal(t, unroll.WarnBibliographyMissing, res.Warnings[0].Kind)

	s.ReplaceExistingFiles = true
	written, err = NewWriter(v, s, out, testLogger()).Write(context.Background(), res, render.For(s))
	require.NoError(t, err)
	assert.False(t, written.Skipped)
	assert.Contains(t, written.Message, "- Overwriting the header file")
	assert.Contains(t, written.Message, "- Overwriting figure file: fig.png")
}

func TestWriter_TemplateFolderAndPostCommand(t *testing.T) {
	v := paperVault(t, nil)
	tmplDir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(tmplDir, "fonts"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(tmplDir, "fonts", "a.otf"), []byte("font"), 0o644))

	s := typstSettings()
	s.TemplateFolder = tmplDir
	s.PostCommand = `printf ok > "$filepath.done"`
	out := t.TempDir()

	res, err := New(v, s, testLogger()).Export(context.Background(), "Paper")
	require.NoError(t, err)
	written, err := NewWriter(v, s, out, testLogger()).Write(context.Background(), res, render.For(s))
	require.NoError(t, err)

	font, err := os.ReadFile(filepath.Join(written.Folder, "fonts", "a.otf"))
	require.NoError(t, err)
	assert.Equal(t, "font", string(font))

	done, err := os.ReadFile(written.OutputFile + ".done")
	require.NoError(t, err)
	assert.Equal(t, "ok", string(done))
}

func TestWriter_PostCommandFailure(t *testing.T) {
	v := paperVault(t, nil)
	s := typstSettings()
	s.PostCommand = "exit 3"

	res, err := New(v, s, testLogger()).Export(context.Background(), "Paper")
	require.NoError(t, err)
	written, err := NewWriter(v, s, t.TempDir(), testLogger()).Write(context.Background(), res, render.For(s))
	require.Error(t, err)
	require.NotNil(t, written)
	assert.FileExists(t, written.OutputFile)
}

func TestSafeName(t *testing.T) {
	assert.Equal(t, "My_Long_Paper", SafeName("My Long Paper"))
	w := NewWriter(nil, config.DefaultSettings(), "out", testLogger())
	assert.Equal(t, filepath.Join("out", "My_Paper"), w.Folder("drafts/My Paper.md"))
}

func TestMessageBuilder(t *testing.T) {
	m := NewMessageBuilder().
		Template(true).
		Preamble(ActionCopying).
		Header(ActionNone).
		Bib(ActionNotFound).
		Figures(ActionOverwriting, "")

	want := "SUCCESS!!\nExporting the current file:\n" +
		"- Using the specified template file\n" +
		"- Copying the preamble file\n" +
		"- Without overwriting the header file\n" +
		"- Without a bib file (none found)\n" +
		"- Overwriting figure files\n" +
		"To folder: out/Paper"
	assert.Equal(t, want, m.Build("out/Paper"))
}
