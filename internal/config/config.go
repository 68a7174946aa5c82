package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// ProjectFile is the optional per-project pipeline configuration, looked up
// in the project root.
const ProjectFile = ".flattex.yaml"

// Config is the process-level configuration, loaded from the environment.
type Config struct {
	Port   string
	APIKey string

	// Worker pool (service mode)
	WorkerCount  int
	MaxQueueSize int
	JobTTL       time.Duration

	Pipeline Pipeline
}

// Pipeline controls the flattening pipeline's policy switches. Values here
// are defaults; a project's .flattex.yaml overrides them per run.
type Pipeline struct {
	// BestEffort downgrades missing included files from fatal errors to
	// warnings.
	BestEffort bool `yaml:"best_effort"`
	// PreferFinalMacro keeps the last redefinition of a duplicated macro
	// over an earlier plain definition.
	PreferFinalMacro bool `yaml:"prefer_final_macro"`
	// Reformat merges paragraphs and re-indents the merged document.
	Reformat bool `yaml:"reformat"`
	// ValidatePDFAssets opens resolved .pdf graphics to confirm they are
	// readable.
	ValidatePDFAssets bool `yaml:"validate_pdf_assets"`

	// ImageExtensions is the probe order for extensionless graphics
	// references.
	ImageExtensions []string `yaml:"image_extensions"`
	// ProtectedEnvironments are exempt from paragraph merging.
	ProtectedEnvironments []string `yaml:"protected_environments"`
}

func DefaultPipeline() Pipeline {
	return Pipeline{
		BestEffort:        false,
		PreferFinalMacro:  true,
		Reformat:          true,
		ValidatePDFAssets: true,
	}
}

func Load() Config {
	return Config{
		Port:   envOr("PORT", "8092"),
		APIKey: os.Getenv("FLATTEX_API_KEY"),

		WorkerCount:  envInt("WORKER_COUNT", 2),
		MaxQueueSize: envInt("MAX_QUEUE_SIZE", 50),
		JobTTL:       envDuration("JOB_TTL", 1*time.Hour),

		Pipeline: Pipeline{
			BestEffort:        envBool("FLATTEX_BEST_EFFORT", false),
			PreferFinalMacro:  envBool("FLATTEX_PREFER_FINAL_MACRO", true),
			Reformat:          envBool("FLATTEX_REFORMAT", true),
			ValidatePDFAssets: envBool("FLATTEX_VALIDATE_PDF", true),
		},
	}
}

// Validate checks service-mode requirements. The CLI does not need them.
func (c Config) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("FLATTEX_API_KEY is required")
	}
	if c.WorkerCount <= 0 {
		return fmt.Errorf("WORKER_COUNT must be positive")
	}
	if c.MaxQueueSize <= 0 {
		return fmt.Errorf("MAX_QUEUE_SIZE must be positive")
	}
	return nil
}

// LoadProject overlays the project's .flattex.yaml, when present, onto base.
// A missing file is not an error; a malformed one is.
func LoadProject(root string, base Pipeline) (Pipeline, error) {
	data, err := os.ReadFile(filepath.Join(root, ProjectFile))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return base, nil
		}
		return base, fmt.Errorf("read %s: %w", ProjectFile, err)
	}
	if err := yaml.Unmarshal(data, &base); err != nil {
		return base, fmt.Errorf("parse %s: %w", ProjectFile, err)
	}
	return base, nil
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
