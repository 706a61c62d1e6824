package config

import (
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMainConfig_PartialFileKeepsDefaults(t *testing.T) {
	cfg, err := ParseMainConfig([]byte(`
output_dir: ./gedcom
write_json: false
llm:
  model: other/model
  timeout: 30s
`))
	require.NoError(t, err)

	assert.Equal(t, "./gedcom", cfg.OutputDir)
	assert.False(t, cfg.WriteJSON)
	assert.Equal(t, "./input", cfg.InputDir)
	assert.True(t, cfg.ContinueOnError)
	assert.Equal(t, "other/model", cfg.LLM.Model)
	assert.Equal(t, 30*time.Second, cfg.LLM.Timeout)
	assert.Equal(t, 10, cfg.LLM.ChunkSize)
}

func TestParseMainConfig_BlankValuesFallBack(t *testing.T) {
	cfg, err := ParseMainConfig([]byte(`
input_dir: ""
max_concurrency: 0
llm:
  chunk_size: -1
`))
	require.NoError(t, err)

	assert.Equal(t, "./input", cfg.InputDir)
	assert.Equal(t, 4, cfg.MaxConcurrency)
	assert.Equal(t, 10, cfg.LLM.ChunkSize)
}

func TestParseMainConfig_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"bad yaml", "input_dir: [unterminated"},
		{"bad log level", "log_level: loud"},
		{"negative retries", "llm:\n  max_retries: -2"},
		{"negative rate", "llm:\n  requests_per_second: -1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseMainConfig([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestFromViper_EnvironmentOverrides(t *testing.T) {
	t.Setenv("FTZ2GED_OUTPUT_DIR", "/tmp/out")
	t.Setenv("FTZ2GED_LLM_CHUNK_SIZE", "5")

	v := viper.New()
	RegisterDefaults(v)

	cfg, err := FromViper(v)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/out", cfg.OutputDir)
	assert.Equal(t, 5, cfg.LLM.ChunkSize)
	assert.Equal(t, "deepseek/deepseek-chat", cfg.LLM.Model)
	assert.Equal(t, 7*24*time.Hour, cfg.LLM.CacheTTL)
}

func TestEnsureDirs(t *testing.T) {
	fs := afero.NewMemMapFs()
	cfg := Default()
	cfg.ArchiveInput = true

	require.NoError(t, cfg.EnsureDirs(fs))

	for _, dir := range []string{"./input", "./output", "./input_archive"} {
		ok, err := afero.DirExists(fs, dir)
		require.NoError(t, err)
		assert.True(t, ok, dir)
	}
}

func TestLoadPrompt(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "prompt.txt", []byte("  custom prompt\n"), 0644))

	llm := Default().LLM
	prompt, err := llm.LoadPrompt(fs)
	require.NoError(t, err)
	assert.Equal(t, DefaultPrompt, prompt)

	llm.PromptFile = "prompt.txt"
	prompt, err = llm.LoadPrompt(fs)
	require.NoError(t, err)
	assert.Equal(t, "custom prompt", prompt)

	llm.PromptFile = "missing.txt"
	_, err = llm.LoadPrompt(fs)
	assert.Error(t, err)
}

func TestYAMLRoundTrip(t *testing.T) {
	data, err := Default().YAML()
	require.NoError(t, err)

	cfg, err := ParseMainConfig(data)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}
