package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Backend selects the output markup language.
type Backend string

const (
	BackendLaTeX Backend = "latex"
	BackendTypst Backend = "typst"
)

// Document structures for LaTeX headings. A book maps level 1 to \chapter.
const (
	StructureArticle = "article"
	StructureBook    = "book"
)

// Settings is the read-only export configuration handed to the parser,
// the unroll engine, the renderers and the export writer.
type Settings struct {
	Backend Backend `yaml:"backend"`

	// Whether list parsing takes precedence over display-math parsing.
	PrioritizeLists bool `yaml:"prioritize_lists"`

	DisplayEnvTitles         bool `yaml:"display_env_titles"`
	DefaultEnvNameToFileName bool `yaml:"default_env_name_to_file_name"`

	// Level-1 headings of the root note with these titles become template
	// sections instead of body content.
	SectionTemplateNames []string `yaml:"section_template_names"`

	ReplaceExistingFiles bool `yaml:"replace_existing_files"`

	TemplatePath   string `yaml:"template_path"`
	TemplateFolder string `yaml:"template_folder"`
	PreamblePath   string `yaml:"preamble_path"`
	BibFile        string `yaml:"bib_file"`

	DocumentStructure      string `yaml:"document_structure"`
	DefaultCitationCommand string `yaml:"default_citation_command"`

	// Shell command run after writing; $filepath is replaced by the output path.
	PostCommand string `yaml:"post_command"`
}

func DefaultSettings() Settings {
	return Settings{
		Backend:                BackendTypst,
		PrioritizeLists:        false,
		DisplayEnvTitles:       true,
		SectionTemplateNames:   []string{"abstract", "appendix"},
		DocumentStructure:      StructureArticle,
		DefaultCitationCommand: "cite",
	}
}

func (s Settings) Validate() error {
	switch s.Backend {
	case BackendLaTeX, BackendTypst:
	default:
		return fmt.Errorf("unknown backend %q: must be %q or %q", s.Backend, BackendLaTeX, BackendTypst)
	}
	switch s.DocumentStructure {
	case "", StructureArticle, StructureBook:
	default:
		return fmt.Errorf("unknown document structure %q", s.DocumentStructure)
	}
	return nil
}

// LoadSettingsFile overlays the YAML settings file at path onto base.
// Keys absent from the file keep their value from base.
func LoadSettingsFile(path string, base Settings) (Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return base, fmt.Errorf("read settings: %w", err)
	}
	s := base
	if err := yaml.Unmarshal(data, &s); err != nil {
		return base, fmt.Errorf("parse settings %s: %w", path, err)
	}
	if err := s.Validate(); err != nil {
		return base, err
	}
	return s, nil
}
