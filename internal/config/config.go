// =============================================================================
// FTZ to GEDCOM Converter - Configuration Module
// =============================================================================
//
// This module loads and validates the application configuration.
//
// SOURCES (highest to lowest priority):
//   1. CLI flags            (bound through viper in cmd/root.go)
//   2. Environment          (FTZ2GED_* variables)
//   3. Config file          (config.yaml)
//   4. Defaults             (Default below)
//
// LoadMainConfig reads a YAML file directly with yaml.v3. FromViper reads the
// layered view assembled by the CLI. Both start from Default so a partial
// file only overrides what it mentions.
//
// =============================================================================

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix for environment overrides, e.g. FTZ2GED_OUTPUT_DIR.
const EnvPrefix = "FTZ2GED"

// =============================================================================
// MAIN CONFIGURATION STRUCTURE
// =============================================================================

// MainConfig holds the global application configuration.
type MainConfig struct {
	// =========================================================================
	// DIRECTORY SETTINGS
	// =========================================================================

	// InputDir is scanned for .ftz archives.
	// Default: "./input"
	InputDir string `yaml:"input_dir" mapstructure:"input_dir"`

	// OutputDir receives the .ged file and the optional artifacts.
	// Default: "./output"
	OutputDir string `yaml:"output_dir" mapstructure:"output_dir"`

	// InputArchiveDir receives archives after a successful conversion.
	// Default: "./input_archive"
	InputArchiveDir string `yaml:"input_archive_dir" mapstructure:"input_archive_dir"`

	// ArchivePattern is the glob used to discover archives in InputDir.
	// Default: "*.ftz"
	ArchivePattern string `yaml:"archive_pattern" mapstructure:"archive_pattern"`

	// =========================================================================
	// LOGGING SETTINGS
	// =========================================================================

	// LogFile is an optional log file written in addition to stderr.
	// Default: "" (stderr only)
	LogFile string `yaml:"log_file" mapstructure:"log_file"`

	// LogLevel is one of "debug", "info", "warn", "error".
	// Default: "info"
	LogLevel string `yaml:"log_level" mapstructure:"log_level"`

	// =========================================================================
	// OUTPUT SETTINGS
	// =========================================================================

	// OutputNameFormat is the base name for generated files, without
	// extension. Placeholders:
	//   {name}      - archive file name without extension
	//   {tree}      - tree name found inside the archive
	//   {uuid}      - a random UUID
	//   {timestamp} - current time (YYYYMMDD_HHMMSS)
	//
	// Default: "{name}"
	OutputNameFormat string `yaml:"output_name_format" mapstructure:"output_name_format"`

	// WriteJSON writes the tag document next to the .ged file.
	WriteJSON bool `yaml:"write_json" mapstructure:"write_json"`

	// WriteXLSX writes a spreadsheet roster of individuals and families.
	WriteXLSX bool `yaml:"write_xlsx" mapstructure:"write_xlsx"`

	// ExtractPortraits copies face images into <output>/<name>_faces/.
	ExtractPortraits bool `yaml:"extract_portraits" mapstructure:"extract_portraits"`

	// ArchiveInput moves processed archives to InputArchiveDir.
	ArchiveInput bool `yaml:"archive_input" mapstructure:"archive_input"`

	// =========================================================================
	// GEDCOM HEADER SETTINGS
	// =========================================================================

	// Language is written to HEAD.LANG.
	// Default: "English"
	Language string `yaml:"language" mapstructure:"language"`

	// SubmitterName is written to the SUBM record.
	// Default: "Unknown"
	SubmitterName string `yaml:"submitter_name" mapstructure:"submitter_name"`

	// =========================================================================
	// PROCESSING SETTINGS
	// =========================================================================

	// MaxConcurrency is the number of archives converted at once.
	// Default: 4
	MaxConcurrency int `yaml:"max_concurrency" mapstructure:"max_concurrency"`

	// ContinueOnError keeps processing other archives after a failure.
	// Default: true
	ContinueOnError bool `yaml:"continue_on_error" mapstructure:"continue_on_error"`

	// LLM configures the optional enrichment pass.
	LLM LLMConfig `yaml:"llm" mapstructure:"llm"`
}

// =============================================================================
// LLM CONFIGURATION STRUCTURE
// =============================================================================

// LLMConfig configures the chat completion endpoint used by enrichment.
type LLMConfig struct {
	// BaseURL of an OpenAI-compatible API.
	// Default: "https://openrouter.ai/api/v1"
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`

	// Model name sent with every request.
	// Default: "deepseek/deepseek-chat"
	Model string `yaml:"model" mapstructure:"model"`

	// APIKey is normally left empty and read from the environment.
	APIKey string `yaml:"api_key,omitempty" mapstructure:"api_key"`

	// Referer and Title are sent as HTTP-Referer and X-Title headers.
	Referer string `yaml:"referer" mapstructure:"referer"`
	Title   string `yaml:"title" mapstructure:"title"`

	// Prompt is the instruction sent with each chunk. PromptFile, when set,
	// replaces it with the file's contents.
	Prompt     string `yaml:"prompt" mapstructure:"prompt"`
	PromptFile string `yaml:"prompt_file" mapstructure:"prompt_file"`

	// ChunkSize is the number of individuals per request.
	// Default: 10
	ChunkSize int `yaml:"chunk_size" mapstructure:"chunk_size"`

	// Concurrency is the number of requests in flight.
	// Default: 2
	Concurrency int `yaml:"concurrency" mapstructure:"concurrency"`

	// RequestsPerSecond and Burst pace requests to the endpoint host.
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	Burst             int     `yaml:"burst" mapstructure:"burst"`

	// MaxRetries bounds retries of rate-limited or failed (5xx) requests.
	// Default: 3
	MaxRetries int `yaml:"max_retries" mapstructure:"max_retries"`

	// Timeout applies to each request.
	// Default: 2m
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`

	// CacheDir stores responses on disk. Empty disables the disk layer.
	CacheDir string `yaml:"cache_dir" mapstructure:"cache_dir"`

	// CacheTTL is how long cached responses stay valid.
	// Default: 168h
	CacheTTL time.Duration `yaml:"cache_ttl" mapstructure:"cache_ttl"`
}

// DefaultPrompt asks the model to tidy names and notes without changing the
// record structure.
const DefaultPrompt = `You receive a JSON array of GEDCOM individual records.
Fix obvious capitalisation and spacing mistakes in GIVN, SURN and the NAME _NAME value,
and move birth or death details written inside NOTE into BIRT or DEAT blocks.
Keep every _PDEF and _PREF value exactly as given, keep the array length and order,
and do not invent data.`

// Default returns the configuration used when nothing overrides it.
func Default() *MainConfig {
	return &MainConfig{
		InputDir:         "./input",
		OutputDir:        "./output",
		InputArchiveDir:  "./input_archive",
		ArchivePattern:   "*.ftz",
		LogLevel:         "info",
		OutputNameFormat: "{name}",
		WriteJSON:        true,
		WriteXLSX:        false,
		ExtractPortraits: true,
		ArchiveInput:     false,
		Language:         "English",
		SubmitterName:    "Unknown",
		MaxConcurrency:   4,
		ContinueOnError:  true,
		LLM: LLMConfig{
			BaseURL:           "https://openrouter.ai/api/v1",
			Model:             "deepseek/deepseek-chat",
			Referer:           "https://github.com/ginjaninja78/FTZ-to-GEDCOM-conversion",
			Title:             "ftz2ged",
			Prompt:            DefaultPrompt,
			ChunkSize:         10,
			Concurrency:       1,
			RequestsPerSecond: 1,
			Burst:             1,
			MaxRetries:        3,
			Timeout:           2 * time.Minute,
			CacheTTL:          7 * 24 * time.Hour,
		},
	}
}

// =============================================================================
// CONFIGURATION LOADING FUNCTIONS
// =============================================================================

// LoadMainConfig loads the main configuration from a YAML file.
//
// PARAMETERS:
//   - configPath: The path to the main configuration file.
//
// RETURNS:
//   - A pointer to the MainConfig struct, with defaults for unset options.
//   - An error if the file cannot be read, parsed or validated.
func LoadMainConfig(configPath string) (*MainConfig, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return ParseMainConfig(data)
}

// ParseMainConfig parses YAML configuration bytes.
func ParseMainConfig(data []byte) (*MainConfig, error) {
	config := Default()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyMainConfigDefaults(config)

	if err := validateMainConfig(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return config, nil
}

// FromViper decodes the layered configuration held by v.
// Call RegisterDefaults on v first so environment variables are picked up.
func FromViper(v *viper.Viper) (*MainConfig, error) {
	config := Default()
	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("failed to decode configuration: %w", err)
	}

	applyMainConfigDefaults(config)

	if err := validateMainConfig(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return config, nil
}

// RegisterDefaults makes every key known to v, with its default value, and
// enables FTZ2GED_* environment overrides. viper only consults the
// environment for keys it knows about.
func RegisterDefaults(v *viper.Viper) {
	def := Default()

	v.SetDefault("input_dir", def.InputDir)
	v.SetDefault("output_dir", def.OutputDir)
	v.SetDefault("input_archive_dir", def.InputArchiveDir)
	v.SetDefault("archive_pattern", def.ArchivePattern)
	v.SetDefault("log_file", def.LogFile)
	v.SetDefault("log_level", def.LogLevel)
	v.SetDefault("output_name_format", def.OutputNameFormat)
	v.SetDefault("write_json", def.WriteJSON)
	v.SetDefault("write_xlsx", def.WriteXLSX)
	v.SetDefault("extract_portraits", def.ExtractPortraits)
	v.SetDefault("archive_input", def.ArchiveInput)
	v.SetDefault("language", def.Language)
	v.SetDefault("submitter_name", def.SubmitterName)
	v.SetDefault("max_concurrency", def.MaxConcurrency)
	v.SetDefault("continue_on_error", def.ContinueOnError)

	v.SetDefault("llm.base_url", def.LLM.BaseURL)
	v.SetDefault("llm.model", def.LLM.Model)
	v.SetDefault("llm.api_key", def.LLM.APIKey)
	v.SetDefault("llm.referer", def.LLM.Referer)
	v.SetDefault("llm.title", def.LLM.Title)
	v.SetDefault("llm.prompt", def.LLM.Prompt)
	v.SetDefault("llm.prompt_file", def.LLM.PromptFile)
	v.SetDefault("llm.chunk_size", def.LLM.ChunkSize)
	v.SetDefault("llm.concurrency", def.LLM.Concurrency)
	v.SetDefault("llm.requests_per_second", def.LLM.RequestsPerSecond)
	v.SetDefault("llm.burst", def.LLM.Burst)
	v.SetDefault("llm.max_retries", def.LLM.MaxRetries)
	v.SetDefault("llm.timeout", def.LLM.Timeout)
	v.SetDefault("llm.cache_dir", def.LLM.CacheDir)
	v.SetDefault("llm.cache_ttl", def.LLM.CacheTTL)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// applyMainConfigDefaults fills options a config file explicitly blanked.
func applyMainConfigDefaults(config *MainConfig) {
	def := Default()

	if config.InputDir == "" {
		config.InputDir = def.InputDir
	}
	if config.OutputDir == "" {
		config.OutputDir = def.OutputDir
	}
	if config.InputArchiveDir == "" {
		config.InputArchiveDir = def.InputArchiveDir
	}
	if config.ArchivePattern == "" {
		config.ArchivePattern = def.ArchivePattern
	}
	if config.LogLevel == "" {
		config.LogLevel = def.LogLevel
	}
	if config.OutputNameFormat == "" {
		config.OutputNameFormat = def.OutputNameFormat
	}
	if config.MaxConcurrency <= 0 {
		config.MaxConcurrency = def.MaxConcurrency
	}
	if config.LLM.BaseURL == "" {
		config.LLM.BaseURL = def.LLM.BaseURL
	}
	if config.LLM.Model == "" {
		config.LLM.Model = def.LLM.Model
	}
	if config.LLM.Prompt == "" {
		config.LLM.Prompt = def.LLM.Prompt
	}
	if config.LLM.ChunkSize <= 0 {
		config.LLM.ChunkSize = def.LLM.ChunkSize
	}
	if config.LLM.Concurrency <= 0 {
		config.LLM.Concurrency = def.LLM.Concurrency
	}
	if config.LLM.Burst <= 0 {
		config.LLM.Burst = def.LLM.Burst
	}
	if config.LLM.Timeout <= 0 {
		config.LLM.Timeout = def.LLM.Timeout
	}
}

// validateMainConfig checks values that have no sensible fallback.
func validateMainConfig(config *MainConfig) error {
	if _, err := zapcore.ParseLevel(config.LogLevel); err != nil {
		return fmt.Errorf("log_level: %w", err)
	}
	if config.LLM.RequestsPerSecond < 0 {
		return fmt.Errorf("llm.requests_per_second must not be negative")
	}
	if config.LLM.MaxRetries < 0 {
		return fmt.Errorf("llm.max_retries must not be negative")
	}
	if config.LLM.CacheTTL < 0 {
		return fmt.Errorf("llm.cache_ttl must not be negative")
	}
	return nil
}

// EnsureDirs creates the input, output and archive directories if missing.
func (c *MainConfig) EnsureDirs(fs afero.Fs) error {
	dirs := []string{c.InputDir, c.OutputDir}
	if c.ArchiveInput {
		dirs = append(dirs, c.InputArchiveDir)
	}

	for _, dir := range dirs {
		if err := fs.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

// LoadPrompt returns the enrichment prompt, reading PromptFile when set.
func (c *LLMConfig) LoadPrompt(fs afero.Fs) (string, error) {
	if c.PromptFile == "" {
		return c.Prompt, nil
	}
	data, err := afero.ReadFile(fs, c.PromptFile)
	if err != nil {
		return "", fmt.Errorf("failed to read prompt file: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

// YAML renders the configuration as a config file body.
func (c *MainConfig) YAML() ([]byte, error) {
	return yaml.Marshal(c)
}
