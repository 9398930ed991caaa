package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("LONGFORM_BACKEND", "")
	t.Setenv("WORKER_COUNT", "-3")

	cfg := Load()

	assert.Equal(t, "8090", cfg.Port)
	assert.Equal(t, 2, cfg.WorkerCount)
	assert.Equal(t, time.Hour, cfg.JobTTL)
	assert.Equal(t, BackendTypst, cfg.Settings.Backend)
	assert.Equal(t, []string{"abstract", "appendix"}, cfg.Settings.SectionTemplateNames)
	assert.True(t, cfg.Settings.DisplayEnvTitles)
}

func TestLoad_SettingsFromEnv(t *testing.T) {
	t.Setenv("LONGFORM_BACKEND", "LaTeX")
	t.Setenv("LONGFORM_PRIORITIZE_LISTS", "true")
	t.Setenv("LONGFORM_SECTION_TEMPLATE_NAMES", "abstract, acknowledgements ,")
	t.Setenv("LONGFORM_POST_COMMAND", "latexmk $filepath")

	cfg := Load()

	assert.Equal(t, BackendLaTeX, cfg.Settings.Backend)
	assert.True(t, cfg.Settings.PrioritizeLists)
	assert.Equal(t, []string{"abstract", "acknowledgements"}, cfg.Settings.SectionTemplateNames)
	assert.Equal(t, "latexmk $filepath", cfg.Settings.PostCommand)
}

func TestValidate(t *testing.T) {
	cfg := Config{VaultDir: "notes", Settings: DefaultSettings()}
	require.NoError(t, cfg.Validate())
	assert.Error(t, cfg.ValidateServer(), "server needs an API key")

	cfg.APIKey = "secret"
	assert.NoError(t, cfg.ValidateServer())

	cfg.Settings.Backend = "markdown"
	assert.Error(t, cfg.Validate())
}

func TestLoadSettingsFile_Overlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	content := "backend: latex\nreplace_existing_files: true\nsection_template_names: [abstract]\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	s, err := LoadSettingsFile(path, DefaultSettings())
	require.NoError(t, err)

	assert.Equal(t, BackendLaTeX, s.Backend)
	assert.True(t, s.ReplaceExistingFiles)
	assert.Equal(t, []string{"abstract"}, s.SectionTemplateNames)
	assert.True(t, s.DisplayEnvTitles, "keys missing from the file keep the base value")
}

func TestLoadSettingsFile_InvalidBackend(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	require.NoError(t, os.WriteFile(path, []byte("backend: html\n"), 0o644))

	_, err := LoadSettingsFile(path, DefaultSettings())
	assert.Error(t, err)
}
