// Package export runs one export pass: load the root note, split template
// sections, unroll, render and fill the template.
package export

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dgallion1/longform/internal/config"
	"github.com/dgallion1/longform/internal/doctree"
	"github.com/dgallion1/longform/internal/parser"
	"github.com/dgallion1/longform/internal/render"
	"github.com/dgallion1/longform/internal/template"
	"github.com/dgallion1/longform/internal/unroll"
	"github.com/dgallion1/longform/internal/vault"
	"github.com/google/uuid"
)

// ErrRootNotFound is returned when the root address resolves to no file.
var ErrRootNotFound = errors.New("root note not found")

// Result is the outcome of one pass.
type Result struct {
	ID       string            `json:"id"`
	Root     string            `json:"root"`
	Backend  config.Backend    `json:"backend"`
	Title    string            `json:"title"`
	Author   string            `json:"author"`
	Body     string            `json:"body"`
	Sections map[string]string `json:"sections,omitempty"`
	Output   string            `json:"output"`

	// CustomTemplate is set when the configured template file was used.
	CustomTemplate bool `json:"custom_template"`

	Media    []vault.File        `json:"media,omitempty"`
	BibKeys  []string            `json:"bib_keys,omitempty"`
	Labels   []unroll.LabelEntry `json:"labels,omitempty"`
	Warnings []unroll.Warning    `json:"warnings,omitempty"`

	Duration time.Duration `json:"duration"`
}

// Exporter turns a root note into a backend document.
type Exporter struct {
	vault    vault.Vault
	settings config.Settings
	engine   *unroll.Engine
	backend  render.Backend
	bufSize  int
	log      *slog.Logger
}

// Option configures an Exporter.
type Option func(*Exporter)

// WithBufferSize sets the initial render buffer capacity.
func WithBufferSize(n int) Option {
	return func(e *Exporter) { e.bufSize = n }
}

func New(v vault.Vault, settings config.Settings, log *slog.Logger, opts ...Option) *Exporter {
	notes := parser.Notes{Options: parser.Options{PrioritizeLists: settings.PrioritizeLists}}
	e := &Exporter{
		vault:    v,
		settings: settings,
		engine:   unroll.NewEngine(v, notes, settings, log),
		backend:  render.For(settings),
		bufSize:  render.DefaultBufferSize,
		log:      log.With("backend", string(settings.Backend)),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Backend returns the renderer selected for this exporter.
func (e *Exporter) Backend() render.Backend { return e.backend }

// Export resolves the note at address and assembles the full document.
func (e *Exporter) Export(ctx context.Context, address string) (*Result, error) {
	start := time.Now()
	root, ok := e.vault.Find(address)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrRootNotFound, address)
	}
	if !parser.IsSupportedExtension(root.Path) {
		return nil, fmt.Errorf("%w: %s is not a note", ErrRootNotFound, root.Path)
	}

	c := e.engine.NewPass(newID(), root)
	parsed, err := e.engine.Load(ctx, c, root)
	if err != nil {
		return nil, fmt.Errorf("load root %s: %w", root.Path, err)
	}

	body, sections := splitSections(parsed.Body, e.settings.SectionTemplateNames)

	unrolledBody, err := e.engine.UnrollAll(ctx, c, body)
	if err != nil {
		return nil, fmt.Errorf("unroll %s: %w", root.Path, err)
	}
	unrolledSections := make([]section, 0, len(sections))
	for _, s := range sections {
		nodes, err := e.engine.UnrollAll(ctx, c.Section(), s.nodes)
		if err != nil {
			return nil, fmt.Errorf("unroll section %s: %w", s.name, err)
		}
		unrolledSections = append(unrolledSections, section{name: s.name, title: s.title, nodes: nodes})
	}

	buf := render.NewBuffer(e.bufSize)
	end := render.RenderAll(e.backend, buf, 0, unrolledBody)
	res := &Result{
		ID:       c.Pass.ID,
		Root:     root.Path,
		Backend:  e.backend.Name(),
		Title:    parsed.Title,
		Author:   parsed.Frontmatter["author"],
		Body:     buf.String(end),
		Sections: make(map[string]string, len(unrolledSections)),
	}
	for _, s := range unrolledSections {
		from := end
		end = render.RenderAll(e.backend, buf, from, s.nodes)
		res.Sections[s.name] += string(buf.Bytes(end)[from:])
	}

	tmpl, custom := e.loadTemplate(ctx, c)
	res.CustomTemplate = custom
	res.Output = template.Fill(tmpl, e.templateValues(tmpl, res, unrolledSections, c.Pass.BibKeys.Len() > 0))

	e.finish(res, c, start)
	e.log.Info("export complete",
		"export_id", res.ID,
		"root", res.Root,
		"labels", len(res.Labels),
		"media", len(res.Media),
		"warnings", len(res.Warnings),
		"duration", res.Duration,
	)
	return res, nil
}

// ExportSelection unrolls and renders a markdown snippet as if it were
// written in the note at relativeTo. No template is applied.
func (e *Exporter) ExportSelection(ctx context.Context, relativeTo, snippet string) (*Result, error) {
	start := time.Now()
	file, ok := e.vault.Find(relativeTo)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrRootNotFound, relativeTo)
	}

	p := parser.NewMarkdownParser(parser.Options{PrioritizeLists: e.settings.PrioritizeLists})
	parsed, err := p.Parse(strings.NewReader(snippet), file.Path)
	if err != nil {
		return nil, fmt.Errorf("parse selection: %w", err)
	}

	c := e.engine.NewPass(newID(), file)
	nodes, err := e.engine.UnrollAll(ctx, c, parsed.Body)
	if err != nil {
		return nil, fmt.Errorf("unroll selection: %w", err)
	}

	buf := render.NewBuffer(len(snippet) * 4)
	end := render.RenderAll(e.backend, buf, 0, nodes)
	res := &Result{
		ID:      c.Pass.ID,
		Root:    file.Path,
		Backend: e.backend.Name(),
		Body:    buf.String(end),
	}
	res.Output = res.Body
	e.finish(res, c, start)
	return res, nil
}

func (e *Exporter) finish(res *Result, c *unroll.Context, start time.Time) {
	res.Media = c.Pass.Media.Files()
	res.BibKeys = c.Pass.BibKeys.Keys()
	res.Labels = c.Pass.Labels.Entries()
	res.Warnings = c.Pass.Warnings
	res.Duration = time.Since(start)
}

// loadTemplate reads the configured template from the vault, falling back
// to the built-in one.
func (e *Exporter) loadTemplate(ctx context.Context, c *unroll.Context) (string, bool) {
	if e.settings.TemplatePath == "" {
		return template.Default(e.backend.Name()), false
	}
	f, ok := e.vault.Find(e.settings.TemplatePath)
	if ok {
		content, err := e.vault.Read(ctx, f)
		if err == nil {
			return string(content), true
		}
	}
	c.Pass.Warn(unroll.WarnTemplateMissing, e.settings.TemplatePath, "template not found, using the default template")
	return template.Default(e.backend.Name()), false
}

func (e *Exporter) templateValues(tmpl string, res *Result, sections []section, hasCitations bool) map[string]string {
	values := map[string]string{
		template.KeyTitle:        res.Title,
		template.KeyAuthor:       res.Author,
		template.KeyBody:         res.Body,
		template.KeyPreamble:     e.preambleLine(),
		template.KeyBibliography: e.bibliographyLine(hasCitations),
	}
	for _, name := range e.settings.SectionTemplateNames {
		values[name] = ""
	}

	var custom strings.Builder
	for _, s := range sections {
		values[s.name] = res.Sections[s.name]
		if template.Has(tmpl, s.name) {
			continue
		}
		custom.WriteString(render.String(e.backend, []doctree.Node{
			&doctree.Heading{Level: 1, Title: []doctree.Node{&doctree.Text{Content: s.title}}},
		}))
		custom.WriteString(res.Sections[s.name])
	}
	values[template.KeyCustomSections] = custom.String()
	return values
}

func (e *Exporter) preambleLine() string {
	if e.settings.PreamblePath == "" {
		return ""
	}
	if e.backend.Name() == config.BackendLaTeX {
		return `\usepackage{preamble}`
	}
	return `#import "preamble.typ": *`
}

func (e *Exporter) bibliographyLine(hasCitations bool) string {
	if !hasCitations {
		return ""
	}
	if e.backend.Name() == config.BackendLaTeX {
		return `\printbibliography`
	}
	return `#bibliography("bibliography.bib", title: "Bibliography", style: "ieee")`
}

func newID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
