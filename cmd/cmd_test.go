package cmd

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/klauspost/compress/zip"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testConfig = `input_dir: /in
output_dir: /out
input_archive_dir: /done
log_level: error
`

func zipped(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

// execute runs the CLI against an in-memory file system.
func execute(t *testing.T, fs afero.Fs, args ...string) (string, error) {
	t.Helper()

	appFs = fs
	cfgFile, verbose = "", false
	dryRun, singleFile, filePath = false, false, ""
	forceInit = false
	t.Cleanup(func() { appFs = afero.NewOsFs() })

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func newFs(t *testing.T) afero.Fs {
	t.Helper()
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/cfg.yaml", []byte(testConfig), 0644))
	require.NoError(t, fs.MkdirAll("/in", 0755))
	return fs
}

func TestProcessCommand(t *testing.T) {
	fs := newFs(t)
	require.NoError(t, afero.WriteFile(fs, "/in/good.ftz", zipped(t, map[string]string{
		"Tree/node.ftt": "1\t0\n1\t\t\t\t\t\t\t\t\t\t\t\tDoe\tJane\n",
	}), 0644))
	require.NoError(t, afero.WriteFile(fs, "/in/bad.ftz", zipped(t, map[string]string{
		"Tree/node.ftt": "4\t0\n",
	}), 0644))

	out, err := execute(t, fs, "process", "--config", "/cfg.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 2 archive(s) failed")
	assert.Contains(t, out, "Found 2 archive(s) to process")

	ged, err := afero.ReadFile(fs, "/out/good.ged")
	require.NoError(t, err)
	assert.Contains(t, string(ged), "0 @I0000@ INDI\n1 NAME Jane /Doe/\n")

	entries, err := afero.ReadDir(fs, "/out")
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	joined := strings.Join(names, " ")
	assert.Contains(t, joined, "error_log_")
	assert.Contains(t, joined, "processing_summary_")
	assert.NotContains(t, joined, "bad.ged")
}

func TestProcessCommand_DryRunSingle(t *testing.T) {
	fs := newFs(t)
	require.NoError(t, afero.WriteFile(fs, "/in/one.ftz", zipped(t, map[string]string{
		"Tree/node.ftt": "0\t0\n",
	}), 0644))

	out, err := execute(t, fs, "process", "--config", "/cfg.yaml", "--dry-run", "--single", "--file", "/in/one.ftz")
	require.NoError(t, err)
	assert.Contains(t, out, "one.ftz -> (dry run)")

	exists, _ := afero.DirExists(fs, "/out")
	assert.False(t, exists)
}

func TestRenderCommand(t *testing.T) {
	fs := newFs(t)
	require.NoError(t, afero.WriteFile(fs, "/doc.json",
		[]byte(`{"INDI":[{"_PDEF":"@I0000@","SEX":"M","NOTE":""}],"TRLR":{}}`), 0644))

	out, err := execute(t, fs, "render", "--config", "/cfg.yaml", "/doc.json")
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote 3 lines to /doc.ged")

	ged, err := afero.ReadFile(fs, "/doc.ged")
	require.NoError(t, err)
	assert.Equal(t, "0 @I0000@ INDI\n1 SEX M\n0 TRLR\n", string(ged))
}

func TestRenderCommand_RefusesInvalid(t *testing.T) {
	fs := newFs(t)
	require.NoError(t, afero.WriteFile(fs, "/doc.json", []byte(`{"INDI":"x"}`), 0644))

	_, err := execute(t, fs, "render", "--config", "/cfg.yaml", "/doc.json", "/x.ged")
	require.Error(t, err)

	exists, _ := afero.Exists(fs, "/x.ged")
	assert.False(t, exists)
}

func TestConfigCommands(t *testing.T) {
	fs := newFs(t)

	out, err := execute(t, fs, "config", "show", "--config", "/cfg.yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "input_dir: /in")
	assert.Contains(t, out, "chunk_size: 10")

	_, err = execute(t, fs, "config", "init", "--config", "/cfg.yaml", "/new.yaml")
	require.NoError(t, err)
	data, err := afero.ReadFile(fs, "/new.yaml")
	require.NoError(t, err)
	assert.Contains(t, string(data), "output_dir: ./output")

	_, err = execute(t, fs, "config", "init", "--config", "/cfg.yaml", "/new.yaml")
	assert.Error(t, err)
}
