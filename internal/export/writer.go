package export

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/dgallion1/longform/internal/config"
	"github.com/dgallion1/longform/internal/render"
	"github.com/dgallion1/longform/internal/unroll"
	"github.com/dgallion1/longform/internal/vault"
)

// Output file names inside an export folder.
const (
	mainName        = "mainmd"
	headerName      = "header"
	preambleTypst   = "preamble.typ"
	preambleLaTeX   = "preamble.sty"
	bibName         = "bibliography.bib"
	attachmentsName = "Attachments"
)

// Written describes the files produced for one export.
type Written struct {
	Folder     string `json:"folder"`
	OutputFile string `json:"output_file"`
	// Skipped is set when the main file existed and replacing was disabled.
	Skipped       bool   `json:"skipped"`
	Message       string `json:"message"`
	CommandOutput string `json:"command_output,omitempty"`
}

// Writer lays out an export result on disk: the main file, backend header,
// preamble, bibliography, media and template folder, then runs the post
// command.
type Writer struct {
	vault     vault.Vault
	settings  config.Settings
	outputDir string
	log       *slog.Logger
}

func NewWriter(v vault.Vault, settings config.Settings, outputDir string, log *slog.Logger) *Writer {
	return &Writer{vault: v, settings: settings, outputDir: outputDir, log: log}
}

// SafeName replaces spaces so the folder name survives shell commands.
func SafeName(name string) string {
	return strings.ReplaceAll(name, " ", "_")
}

// Folder returns the export folder for a root note path.
func (w *Writer) Folder(root string) string {
	base := filepath.Base(root)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(w.outputDir, SafeName(base))
}

// Write materializes res. Supporting-file problems become warnings on res;
// only filesystem failures on the main output are returned as errors.
func (w *Writer) Write(ctx context.Context, res *Result, backend render.Backend) (*Written, error) {
	folder := w.Folder(res.Root)
	if err := os.MkdirAll(folder, 0o755); err != nil {
		return nil, fmt.Errorf("create export folder: %w", err)
	}
	log := w.log.With("export_id", res.ID, "folder", folder)
	msg := NewMessageBuilder()
	out := &Written{Folder: folder, OutputFile: filepath.Join(folder, mainName+backend.Ext())}

	if w.settings.TemplateFolder != "" {
		if err := w.copyTemplateFolder(folder); err != nil {
			log.Warn("template folder copy failed", "error", err)
			res.Warnings = append(res.Warnings, unroll.Warning{
				Kind:    unroll.WarnTemplateMissing,
				Message: err.Error(),
				File:    w.settings.TemplateFolder,
			})
		}
	}

	if !w.settings.ReplaceExistingFiles && exists(out.OutputFile) {
		out.Skipped = true
		msg.Custom("- Output file already exists, skipping: " + out.OutputFile)
		log.Info("output exists, skipping", "file", out.OutputFile)
	} else {
		if err := os.WriteFile(out.OutputFile, []byte(res.Output), 0o644); err != nil {
			return nil, fmt.Errorf("write %s: %w", out.OutputFile, err)
		}
		msg.Template(res.CustomTemplate)
	}

	msg.Header(w.writeHeader(folder, backend))
	msg.Preamble(w.copyPreamble(ctx, folder, backend))
	msg.Bib(w.copyBib(ctx, folder, res))

	if err := w.copyMedia(ctx, folder, res.Media, msg); err != nil {
		log.Warn("media copy failed", "error", err)
		msg.Custom("- Media copy failed: " + err.Error())
	}

	if w.settings.PostCommand != "" {
		output, err := w.runPostCommand(ctx, out.OutputFile)
		out.CommandOutput = output
		if err != nil {
			out.Message = msg.Build(folder)
			return out, fmt.Errorf("post command: %w", err)
		}
		msg.Custom("- Ran the post command")
	}

	out.Message = msg.Build(folder)
	log.Info("export written", "file", out.OutputFile, "skipped", out.Skipped, "media", len(res.Media))
	return out, nil
}

func (w *Writer) writeHeader(folder string, backend render.Backend) Action {
	path := filepath.Join(folder, headerName+backend.Ext())
	action := ActionCreating
	if exists(path) {
		if !w.settings.ReplaceExistingFiles {
			return ActionNone
		}
		action = ActionOverwriting
	}
	if err := os.WriteFile(path, []byte(backend.Header()), 0o644); err != nil {
		w.log.Warn("write header failed", "file", path, "error", err)
		return ActionNone
	}
	return action
}

func (w *Writer) copyPreamble(ctx context.Context, folder string, backend render.Backend) Action {
	if w.settings.PreamblePath == "" {
		return ActionNotFound
	}
	f, ok := w.vault.Find(w.settings.PreamblePath)
	if !ok {
		return ActionNotFound
	}
	name := preambleTypst
	if backend.Name() == config.BackendLaTeX {
		name = preambleLaTeX
	}
	dest := filepath.Join(folder, name)
	action := ActionCopying
	if exists(dest) {
		if !w.settings.ReplaceExistingFiles {
			return ActionNone
		}
		action = ActionOverwriting
	}
	if err := w.copyFromVault(ctx, f, dest); err != nil {
		w.log.Warn("copy preamble failed", "file", f.Path, "error", err)
		return ActionNotFound
	}
	return action
}

// copyBib copies the configured bibliography unless one is already in
// place. Citations without a bibliography produce a warning.
func (w *Writer) copyBib(ctx context.Context, folder string, res *Result) Action {
	missing := func(msg string) Action {
		if len(res.BibKeys) > 0 {
			res.Warnings = append(res.Warnings, unroll.Warning{
				Kind:    unroll.WarnBibliographyMissing,
				Message: msg,
				File:    w.settings.BibFile,
			})
		}
		return ActionNotFound
	}
	if w.settings.BibFile == "" {
		return missing(fmt.Sprintf("%d citation keys but no bibliography file configured", len(res.BibKeys)))
	}
	f, ok := w.vault.Find(w.settings.BibFile)
	if !ok {
		return missing("bibliography file not found")
	}
	dest := filepath.Join(folder, bibName)
	if exists(dest) {
		return ActionNone
	}
	if err := w.copyFromVault(ctx, f, dest); err != nil {
		return missing(err.Error())
	}
	return ActionCopying
}

func (w *Writer) copyMedia(ctx context.Context, folder string, media []vault.File, msg *MessageBuilder) error {
	if len(media) == 0 {
		return nil
	}
	dir := filepath.Join(folder, attachmentsName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	var (
		errs           []error
		copyingNoted   bool
		unchangedNoted bool
	)
	for _, f := range media {
		dest := filepath.Join(dir, f.Name())
		present := exists(dest)
		switch {
		case present && w.settings.ReplaceExistingFiles:
			if err := w.copyFromVault(ctx, f, dest); err != nil {
				errs = append(errs, err)
				continue
			}
			msg.Figures(ActionOverwriting, f.Name())
		case !present:
			if err := w.copyFromVault(ctx, f, dest); err != nil {
				errs = append(errs, err)
				continue
			}
			if !copyingNoted {
				msg.Figures(ActionCopying, "")
				copyingNoted = true
			}
		default:
			if !unchangedNoted {
				msg.Figures(ActionNone, "")
				unchangedNoted = true
			}
		}
	}
	return errors.Join(errs...)
}

// copyTemplateFolder copies every file under the template folder into the
// export folder, keeping files already present unless replacing is enabled.
func (w *Writer) copyTemplateFolder(folder string) error {
	src := os.DirFS(w.settings.TemplateFolder)
	return fs.WalkDir(src, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		dest := filepath.Join(folder, filepath.FromSlash(p))
		if d.IsDir() {
			return os.MkdirAll(dest, 0o755)
		}
		if exists(dest) && !w.settings.ReplaceExistingFiles {
			return nil
		}
		data, err := fs.ReadFile(src, p)
		if err != nil {
			return err
		}
		return os.WriteFile(dest, data, 0o644)
	})
}

func (w *Writer) copyFromVault(ctx context.Context, f vault.File, dest string) error {
	data, err := w.vault.Read(ctx, f)
	if err != nil {
		return fmt.Errorf("read %s: %w", f.Path, err)
	}
	if err := os.WriteFile(dest, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", dest, err)
	}
	return nil
}

// runPostCommand runs the configured shell command with $filepath replaced
// by the output file path.
func (w *Writer) runPostCommand(ctx context.Context, outputFile string) (string, error) {
	command := strings.ReplaceAll(w.settings.PostCommand, "$filepath", outputFile)
	w.log.Info("running post command", "command", command)
	cmd := exec.CommandContext(ctx, "sh", "-c", command)
	cmd.Dir = filepath.Dir(outputFile)
	output, err := cmd.CombinedOutput()
	return string(output), err
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
