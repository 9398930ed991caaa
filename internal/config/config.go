package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Port string

	// Auth
	APIKey string

	// Vault: a local directory, or a remote file service when VaultURL is set.
	VaultDir    string
	VaultURL    string
	VaultAPIKey string

	// Output
	OutputDir string
	HistoryDB string

	// Optional YAML file overlaying Settings.
	SettingsFile string

	// Initial render buffer capacity in bytes.
	RenderBufferSize int

	// Worker pool
	WorkerCount  int
	MaxQueueSize int

	// Job state
	JobTTL time.Duration

	Settings Settings
}

func Load() Config {
	cfg := Config{
		Port: envOr("PORT", "8090"),

		APIKey: os.Getenv("LONGFORM_API_KEY"),

		VaultDir:    envOr("LONGFORM_VAULT_DIR", "."),
		VaultURL:    os.Getenv("LONGFORM_VAULT_URL"),
		VaultAPIKey: os.Getenv("LONGFORM_VAULT_API_KEY"),

		OutputDir: envOr("LONGFORM_OUTPUT_DIR", "export"),
		HistoryDB: envOr("LONGFORM_HISTORY_DB", "longform.db"),

		SettingsFile: os.Getenv("LONGFORM_SETTINGS_FILE"),

		RenderBufferSize: envInt("LONGFORM_RENDER_BUFFER_SIZE", 10_000_000),

		WorkerCount:  envInt("WORKER_COUNT", 2),
		MaxQueueSize: envInt("MAX_QUEUE_SIZE", 50),

		JobTTL: envDuration("JOB_TTL", 1*time.Hour),

		Settings: settingsFromEnv(DefaultSettings()),
	}

	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 2
	}
	if cfg.MaxQueueSize <= 0 {
		cfg.MaxQueueSize = 50
	}
	if cfg.RenderBufferSize <= 0 {
		cfg.RenderBufferSize = 10_000_000
	}
	if cfg.JobTTL <= 0 {
		cfg.JobTTL = 1 * time.Hour
	}

	return cfg
}

// Validate checks the settings every command needs.
func (c Config) Validate() error {
	if c.VaultDir == "" && c.VaultURL == "" {
		return fmt.Errorf("LONGFORM_VAULT_DIR or LONGFORM_VAULT_URL is required")
	}
	return c.Settings.Validate()
}

// ValidateServer additionally checks what the HTTP service needs.
func (c Config) ValidateServer() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.APIKey == "" {
		return fmt.Errorf("LONGFORM_API_KEY is required")
	}
	return nil
}

func settingsFromEnv(s Settings) Settings {
	if v := os.Getenv("LONGFORM_BACKEND"); v != "" {
		s.Backend = Backend(strings.ToLower(v))
	}
	s.PrioritizeLists = envBool("LONGFORM_PRIORITIZE_LISTS", s.PrioritizeLists)
	s.DisplayEnvTitles = envBool("LONGFORM_DISPLAY_ENV_TITLES", s.DisplayEnvTitles)
	s.DefaultEnvNameToFileName = envBool("LONGFORM_DEFAULT_ENV_NAME_TO_FILE_NAME", s.DefaultEnvNameToFileName)
	s.ReplaceExistingFiles = envBool("LONGFORM_REPLACE_EXISTING_FILES", s.ReplaceExistingFiles)
	if v := os.Getenv("LONGFORM_SECTION_TEMPLATE_NAMES"); v != "" {
		s.SectionTemplateNames = splitList(v)
	}
	s.TemplatePath = envOr("LONGFORM_TEMPLATE_PATH", s.TemplatePath)
	s.TemplateFolder = envOr("LONGFORM_TEMPLATE_FOLDER", s.TemplateFolder)
	s.PreamblePath = envOr("LONGFORM_PREAMBLE_PATH", s.PreamblePath)
	s.BibFile = envOr("LONGFORM_BIB_FILE", s.BibFile)
	s.DocumentStructure = envOr("LONGFORM_DOCUMENT_STRUCTURE", s.DocumentStructure)
	s.DefaultCitationCommand = envOr("LONGFORM_CITATION_COMMAND", s.DefaultCitationCommand)
	s.PostCommand = envOr("LONGFORM_POST_COMMAND", s.PostCommand)
	return s
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
