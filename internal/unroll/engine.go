package unroll

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/dgallion1/longform/internal/config"
	"github.com/dgallion1/longform/internal/doctree"
	"github.com/dgallion1/longform/internal/vault"
)

// Engine resolves embeds into a single linear node sequence.
type Engine struct {
	vault    vault.Vault
	parser   NoteParser
	settings config.Settings
	log      *slog.Logger
}

func NewEngine(v vault.Vault, p NoteParser, settings config.Settings, log *slog.Logger) *Engine {
	return &Engine{vault: v, parser: p, settings: settings, log: log}
}

// NewPass starts a pass rooted at root and returns its top-level context.
// The root's fingerprint is on the stack so embedding it again is a cycle.
func (e *Engine) NewPass(id string, root vault.File) *Context {
	pass := newPass(id, NewCache(e.vault, e.parser), e.log.With("export_id", id, "root", root.Path))
	return &Context{
		Pass:        pass,
		EnvHashes:   []string{fingerprint(root.Path, "")},
		CurrentFile: root,
		RootFile:    root,
	}
}

// Load reads and parses f through the pass cache.
func (e *Engine) Load(ctx context.Context, c *Context, f vault.File) (*doctree.Parsed, error) {
	if err := checkContext(c); err != nil {
		return nil, err
	}
	return c.Pass.Cache.Load(ctx, f)
}

// UnrollAll unrolls nodes in order and concatenates the results. At depth
// zero the context is checked for cancellation before each node.
func (e *Engine) UnrollAll(ctx context.Context, c *Context, nodes []doctree.Node) ([]doctree.Node, error) {
	out := make([]doctree.Node, 0, len(nodes))
	for _, n := range nodes {
		if c.Depth == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		r, err := e.Unroll(ctx, c, n)
		if err != nil {
			return nil, err
		}
		out = append(out, r...)
	}
	return out, nil
}

// Unroll resolves one node. Parser output is never mutated; changed nodes
// are copies.
func (e *Engine) Unroll(ctx context.Context, c *Context, n doctree.Node) ([]doctree.Node, error) {
	if err := checkContext(c); err != nil {
		return nil, err
	}

	switch n := n.(type) {
	case *doctree.Embed:
		return e.unrollEmbed(ctx, c, n)

	case *doctree.Heading:
		return []doctree.Node{e.unrollHeading(c, n)}, nil

	case *doctree.Environment:
		env, err := e.unrollCallout(ctx, c, n)
		if err != nil {
			return nil, err
		}
		return []doctree.Node{env}, nil

	case *doctree.Paragraph:
		children := e.unrollInlines(c, n.Children)
		return []doctree.Node{&doctree.Paragraph{Children: children}}, nil

	case *doctree.OrderedList:
		items, err := e.unrollItems(ctx, c, n.Items)
		if err != nil {
			return nil, err
		}
		return []doctree.Node{&doctree.OrderedList{Start: n.Start, Items: items}}, nil

	case *doctree.UnorderedList:
		items, err := e.unrollItems(ctx, c, n.Items)
		if err != nil {
			return nil, err
		}
		return []doctree.Node{&doctree.UnorderedList{Items: items}}, nil

	case *doctree.DisplayMath, *doctree.CodeBlock, *doctree.Table, *doctree.Image:
		e.register(c, n)
		return []doctree.Node{n}, nil

	case *doctree.Citation:
		c.Pass.BibKeys.Add(n.Keys...)
		return []doctree.Node{n}, nil

	default:
		return []doctree.Node{n}, nil
	}
}

func checkContext(c *Context) error {
	switch {
	case c == nil || c.Pass == nil:
		return &InvariantError{Msg: "context has no pass"}
	case c.Pass.Cache == nil:
		return &InvariantError{Msg: "pass has no note cache"}
	case c.Depth < 0:
		return &InvariantError{Msg: fmt.Sprintf("negative depth %d", c.Depth)}
	}
	return nil
}

func (e *Engine) register(c *Context, n doctree.Node) {
	if label := doctree.LabelOf(n); label != "" {
		c.Pass.Labels.Register(label, n.Kind(), c.CurrentFile.Path)
	}
}

func (e *Engine) unrollHeading(c *Context, n *doctree.Heading) doctree.Node {
	title := e.unrollInlines(c, n.Title)
	if c.InEnvironment {
		if n.Label != "" {
			c.Pass.Warn(WarnLabelDropped, c.CurrentFile.Path,
				fmt.Sprintf("heading label %q inside an environment is not referenceable", n.Label))
		}
		return &doctree.Paragraph{Children: []doctree.Node{&doctree.Strong{Children: title}}}
	}
	level := n.Level + c.LevelOffset
	if level < 1 {
		level = 1
	}
	c.pushHeader(HeaderEntry{Level: level, Title: doctree.PlainText(title), Label: n.Label})
	h := &doctree.Heading{Level: level, Title: title, Label: n.Label}
	e.register(c, h)
	return h
}

// unrollInlines collects citation keys. Inline nodes carry no embeds, so
// the slice is returned as a fresh copy of the same nodes.
func (e *Engine) unrollInlines(c *Context, nodes []doctree.Node) []doctree.Node {
	out := make([]doctree.Node, len(nodes))
	for i, n := range nodes {
		switch n := n.(type) {
		case *doctree.Citation:
			c.Pass.BibKeys.Add(n.Keys...)
		case *doctree.Emphasis:
			e.unrollInlines(c, n.Children)
		case *doctree.Strong:
			e.unrollInlines(c, n.Children)
		}
		out[i] = n
	}
	return out
}

func (e *Engine) unrollItems(ctx context.Context, c *Context, items [][]doctree.Node) ([][]doctree.Node, error) {
	out := make([][]doctree.Node, len(items))
	for i, item := range items {
		r, err := e.UnrollAll(ctx, c, item)
		if err != nil {
			return nil, err
		}
		out[i] = r
	}
	return out, nil
}

// unrollCallout handles environments written inline as callouts.
func (e *Engine) unrollCallout(ctx context.Context, c *Context, n *doctree.Environment) (*doctree.Environment, error) {
	label := n.Label
	if label == "" && n.Name != "proof" {
		label = fmt.Sprintf("%s:%d", n.Name, c.Pass.nextEnvIndex())
	}
	sub := *c
	sub.InEnvironment = true
	body, err := e.UnrollAll(ctx, &sub, n.Body)
	if err != nil {
		return nil, err
	}
	env := &doctree.Environment{Name: n.Name, Title: n.Title, Label: label, Body: body}
	e.register(c, env)
	return env, nil
}

func (e *Engine) unrollEmbed(ctx context.Context, c *Context, n *doctree.Embed) ([]doctree.Node, error) {
	if n.Address != "" && vault.IsImageAddress(n.Address) {
		return e.unrollImage(c, n), nil
	}

	target := c.CurrentFile
	if n.Address != "" {
		f, ok := e.vault.Find(n.Address)
		if !ok {
			return e.unresolved(c, n, nil), nil
		}
		target = f
	}

	fp := fingerprint(target.Path, n.Section)
	if c.onStack(fp) || c.Depth >= MaxDepth {
		err := &CycleError{Address: n.Address, Section: n.Section, Depth: c.Depth}
		c.Pass.Warn(WarnCycleDetected, c.CurrentFile.Path, err.Error())
		return []doctree.Node{&doctree.ErrorMarker{Reason: string(WarnCycleDetected), Message: err.Error()}}, nil
	}

	parsed, err := c.Pass.Cache.Load(ctx, target)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return e.unresolved(c, n, err), nil
	}

	body, sectionLevel, found := selectSection(parsed.Body, n.Section)
	if !found {
		return e.unresolved(c, n, fmt.Errorf("section %q not found in %s", n.Section, target.Path)), nil
	}

	sub := c.child(target, fp)
	sub.LevelOffset = c.AmbientLevel - sectionLevel

	env, envLabel := environmentAlias(n.Alias)
	if env == "" {
		if n.Label != "" {
			c.Pass.Warn(WarnLabelDropped, c.CurrentFile.Path,
				fmt.Sprintf("label %q on embed of %s needs an environment alias", n.Label, target.Path))
		}
		return e.UnrollAll(ctx, sub, body)
	}

	label := envLabel
	if label == "" {
		label = n.Label
	}
	if label == "" && env != "proof" {
		label = fmt.Sprintf("%s:%d", env, c.Pass.nextEnvIndex())
	}
	sub.InEnvironment = true
	children, err := e.UnrollAll(ctx, sub, body)
	if err != nil {
		return nil, err
	}
	out := &doctree.Environment{
		Name:  env,
		Title: e.environmentTitle(n, parsed, target),
		Label: label,
		Body:  children,
	}
	e.register(c, out)
	return []doctree.Node{out}, nil
}

// environmentTitle picks the selected heading, then the target's env_title
// frontmatter entry (an empty entry means no title), then the file name.
func (e *Engine) environmentTitle(n *doctree.Embed, parsed *doctree.Parsed, target vault.File) string {
	if e.settings.DisplayEnvTitles {
		if n.Section != "" && !strings.HasPrefix(n.Section, "^") {
			return n.Section
		}
		if title, ok := parsed.Frontmatter["env_title"]; ok {
			return title
		}
	}
	if e.settings.DefaultEnvNameToFileName {
		return target.Basename()
	}
	return ""
}

func (e *Engine) unrollImage(c *Context, n *doctree.Embed) []doctree.Node {
	f, ok := vault.FindImage(e.vault, n.Address)
	if !ok {
		return e.unresolved(c, n, nil)
	}
	c.Pass.Media.Add(f)
	img := &doctree.Image{Address: n.Address, Path: f.Name(), Label: n.Label}
	if _, err := strconv.Atoi(n.Alias); err == nil {
		img.Width = n.Alias
	} else {
		img.Caption = n.Alias
	}
	e.register(c, img)
	return []doctree.Node{img}
}

func (e *Engine) unresolved(c *Context, n *doctree.Embed, cause error) []doctree.Node {
	err := &UnresolvedError{Address: n.Address, File: c.CurrentFile.Path, Err: cause}
	c.Pass.Warn(WarnUnresolvedAddress, c.CurrentFile.Path, err.Error())
	return []doctree.Node{&doctree.ErrorMarker{Reason: string(WarnUnresolvedAddress), Message: err.Error()}}
}

// environmentAlias parses "lemma" or "lemma:lem-key" aliases.
func environmentAlias(alias string) (env, label string) {
	name, label, _ := strings.Cut(alias, ":")
	name = strings.ToLower(strings.TrimSpace(name))
	if !doctree.IsEnvironment(name) {
		return "", ""
	}
	return name, strings.TrimSpace(label)
}

// selectSection returns the part of body an embed selects. "Heading" picks
// the blocks under that heading up to the next heading of the same or a
// higher rank, "^id" picks the block labeled id. The level is the selected
// heading's level, zero otherwise.
func selectSection(body []doctree.Node, section string) ([]doctree.Node, int, bool) {
	if section == "" {
		return body, 0, true
	}
	if id, ok := strings.CutPrefix(section, "^"); ok {
		for _, n := range body {
			if doctree.LabelOf(n) == id {
				return []doctree.Node{n}, 0, true
			}
		}
		return nil, 0, false
	}

	want := normalizeHeading(section)
	for i, n := range body {
		h, ok := n.(*doctree.Heading)
		if !ok || normalizeHeading(doctree.PlainText(h.Title)) != want {
			continue
		}
		end := len(body)
		for j := i + 1; j < len(body); j++ {
			if next, ok := body[j].(*doctree.Heading); ok && next.Level <= h.Level {
				end = j
				break
			}
		}
		return body[i+1 : end], h.Level, true
	}
	return nil, 0, false
}

func normalizeHeading(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
