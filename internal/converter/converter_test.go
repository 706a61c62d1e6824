package converter

import (
	"bytes"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/klauspost/compress/zip"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/ginjaninja78/FTZ-to-GEDCOM-conversion/internal/config"
	"github.com/ginjaninja78/FTZ-to-GEDCOM-conversion/internal/document"
	"github.com/ginjaninja78/FTZ-to-GEDCOM-conversion/internal/fttparser"
	"github.com/ginjaninja78/FTZ-to-GEDCOM-conversion/internal/gedbuilder"
)

// record builds a tab-separated line from column positions.
func record(width int, cells map[int]string) string {
	c := make([]string, width)
	for i, v := range cells {
		c[i] = v
	}
	return strings.Join(c, "\t")
}

func sampleRecordFile() string {
	john := record(fttparser.PersonColumns, map[int]string{
		0: "1", 12: "Smith", 13: "John",
		16: "1", 17: "1900", 18: "5", 19: "3",
		24: "1", 26: "Farmer",
	})
	mary := record(fttparser.PersonColumns, map[int]string{
		0: "2", 2: "10", 12: "Smith", 13: "Mary", 24: "2",
	})
	return "2\t1\n" + john + "\n" + mary + "\n10\t0\t1\t0\t0\n"
}

const sampleGEDCOM = `0 HEAD
1 GEDC
2 VERS 5.5.1
2 FORM LINEAGE-LINKED
1 CHAR UTF-8
1 SOUR FTZ2GED
2 NAME FTZ to GEDCOM Converter
2 VERS 1.0.0
1 DATE 03 MAY 2024
2 TIME 12:30:00
1 LANG English
1 SUBM @U1@
0 @U1@ SUBM
1 NAME Unknown
0 @I0000@ INDI
1 NAME John /Smith/
2 GIVN John
2 SURN Smith
1 SEX M
1 BIRT
2 DATE 3 MAY 1900
1 FAMS @F0000@
1 NOTE Farmer
0 @I0001@ INDI
1 NAME Mary /Smith/
2 GIVN Mary
2 SURN Smith
1 SEX F
1 FAMC @F0000@
2 PEDI BIRTH
0 @F0000@ FAM
1 HUSB @I0000@
1 CHIL @I0001@
0 TRLR
`

func fixedOptions() gedbuilder.Options {
	opts := gedbuilder.DefaultOptions()
	opts.Now = func() time.Time { return time.Date(2024, 5, 3, 12, 30, 0, 0, time.UTC) }
	return opts
}

func buildArchive(t *testing.T, files map[string]string) []byte {
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

func testConfig(root string) *config.MainConfig {
	cfg := config.Default()
	cfg.InputDir = root + "/in"
	cfg.OutputDir = root + "/out"
	cfg.InputArchiveDir = root + "/done"
	return cfg
}

func setup(t *testing.T, fs afero.Fs, root string, files map[string]string) (*config.MainConfig, string) {
	t.Helper()
	cfg := testConfig(root)
	input := cfg.InputDir + "/family.ftz"
	require.NoError(t, fs.MkdirAll(cfg.InputDir, 0755))
	require.NoError(t, afero.WriteFile(fs, input, buildArchive(t, files), 0644))
	return cfg, input
}

func sampleArchive() map[string]string {
	return map[string]string{
		"Smiths/node.ftt":    sampleRecordFile(),
		"Smiths/faces/1.jpg": "jpeg-1",
		"Smiths/faces/2.jpg": "jpeg-2",
	}
}

func TestConvertText_Golden(t *testing.T) {
	conv, err := ConvertText(sampleRecordFile(), fixedOptions())
	require.NoError(t, err)

	assert.Equal(t, sampleGEDCOM, conv.GEDCOM)
	assert.Equal(t, strings.Count(sampleGEDCOM, "\n"), conv.Lines)
	assert.Equal(t, "@F0000@", conv.Pointers.Families[10])
	assert.Equal(t, []int{2}, conv.Indexes.Children(10))
}

func TestConvertText_Errors(t *testing.T) {
	_, err := ConvertText("", fixedOptions())
	var formatErr *fttparser.FormatError
	assert.ErrorAs(t, err, &formatErr)

	_, err = ConvertText("3\t0\n1\n", fixedOptions())
	var truncated *fttparser.TruncatedInputError
	assert.ErrorAs(t, err, &truncated)
}

func TestConvertText_Empty(t *testing.T) {
	conv, err := ConvertText("0\t0\n", fixedOptions())
	require.NoError(t, err)

	assert.Contains(t, conv.GEDCOM, "0 @U1@ SUBM\n1 NAME Unknown\n0 TRLR\n")
	assert.NotContains(t, conv.GEDCOM, "INDI")
}

func TestRenderJSON_RoundTrip(t *testing.T) {
	conv, err := ConvertText(sampleRecordFile(), fixedOptions())
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, document.Encode(&buf, conv.Document))

	rendered, err := RenderJSON(&buf)
	require.NoError(t, err)
	assert.Equal(t, sampleGEDCOM, rendered.GEDCOM)
	assert.Equal(t, conv.Lines, rendered.Lines)
	assert.True(t, rendered.Validation.IsValid)
	assert.Zero(t, rendered.Validation.WarningCount)
}

func TestRenderJSON_PrunesEmptyStrings(t *testing.T) {
	rendered, err := RenderJSON(strings.NewReader(`{"INDI":[{"_PDEF":"@I0000@","NOTE":"","SEX":"F"}],"TRLR":{}}`))
	require.NoError(t, err)
	assert.Equal(t, "0 @I0000@ INDI\n1 SEX F\n0 TRLR\n", rendered.GEDCOM)
}

func TestRenderJSON_PrunesNulls(t *testing.T) {
	rendered, err := RenderJSON(strings.NewReader(`{"INDI":[{"_PDEF":"@I0000@","NOTE":null,"SEX":"F"}],"TRLR":{}}`))
	require.NoError(t, err)
	assert.Equal(t, "0 @I0000@ INDI\n1 SEX F\n0 TRLR\n", rendered.GEDCOM)
}

func TestRenderJSON_RefusesTrailingContent(t *testing.T) {
	_, err := RenderJSON(strings.NewReader(`{"HEAD":{"CHAR":"UTF-8"},"TRLR":{}} trailing`))
	assert.Error(t, err)
}

func TestRenderJSON_RefusesInvalid(t *testing.T) {
	rendered, err := RenderJSON(strings.NewReader(`{"INDI":[{"SEX":"F","_PDEF":"@I0000@"}]}`))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidDocument))
	assert.NotZero(t, rendered.Validation.ErrorCount)

	_, err = RenderJSON(strings.NewReader(`[1]`))
	assert.Error(t, err)
}

func TestConverter_Run(t *testing.T) {
	fs := afero.NewMemMapFs()
	cfg, input := setup(t, fs, "", sampleArchive())

	result := New(fs, input, cfg).WithBuildOptions(fixedOptions()).Run()
	require.NoError(t, result.Error)
	require.True(t, result.Success)

	assert.Equal(t, "/out/family.ged", result.OutputFile)
	assert.Equal(t, []string{
		"/out/family.json",
		"/out/family_faces/1.jpg",
		"/out/family_faces/2.jpg",
		"/out/family.ged",
	}, result.Artifacts)

	assert.Equal(t, 2, result.Stats.Individuals)
	assert.Equal(t, 1, result.Stats.Families)
	assert.Equal(t, 2, result.Stats.Portraits)
	assert.Equal(t, strings.Count(sampleGEDCOM, "\n"), result.Stats.Lines)

	ged, err := afero.ReadFile(fs, "/out/family.ged")
	require.NoError(t, err)
	assert.Equal(t, sampleGEDCOM, string(ged))

	face, err := afero.ReadFile(fs, "/out/family_faces/2.jpg")
	require.NoError(t, err)
	assert.Equal(t, "jpeg-2", string(face))

	data, err := afero.ReadFile(fs, "/out/family.json")
	require.NoError(t, err)
	doc, err := document.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, []string{"HEAD", "SUBM", "INDI", "FAM", "TRLR"}, doc.Keys())

	exists, _ := afero.Exists(fs, input)
	assert.True(t, exists, "input stays in place unless archive_input is set")
}

func TestConverter_Run_OptionalArtifacts(t *testing.T) {
	fs := afero.NewMemMapFs()
	cfg, input := setup(t, fs, "", sampleArchive())
	cfg.WriteJSON = false
	cfg.ExtractPortraits = false
	cfg.WriteXLSX = true
	cfg.OutputNameFormat = "{tree}"

	result := New(fs, input, cfg).WithBuildOptions(fixedOptions()).Run()
	require.NoError(t, result.Error)

	assert.Equal(t, []string{"/out/Smiths.xlsx", "/out/Smiths.ged"}, result.Artifacts)

	info, err := fs.Stat("/out/Smiths.xlsx")
	require.NoError(t, err)
	assert.NotZero(t, info.Size())
}

func TestConverter_Run_DryRun(t *testing.T) {
	fs := afero.NewMemMapFs()
	cfg, input := setup(t, fs, "", sampleArchive())

	result := New(fs, input, cfg).WithDryRun(true).Run()
	require.NoError(t, result.Error)
	assert.True(t, result.Success)
	assert.Empty(t, result.OutputFile)
	assert.Empty(t, result.Artifacts)
	assert.Equal(t, 2, result.Stats.Individuals)

	exists, _ := afero.DirExists(fs, "/out")
	assert.False(t, exists)
}

func TestConverter_Run_ArchivesInput(t *testing.T) {
	fs := afero.NewMemMapFs()
	cfg, input := setup(t, fs, "", sampleArchive())
	cfg.ArchiveInput = true

	result := New(fs, input, cfg).Run()
	require.NoError(t, result.Error)

	exists, _ := afero.Exists(fs, input)
	assert.False(t, exists)
	exists, _ = afero.Exists(fs, "/done/family.ftz")
	assert.True(t, exists)
}

func TestConverter_Run_Failures(t *testing.T) {
	fs := afero.NewMemMapFs()
	cfg, input := setup(t, fs, "", map[string]string{"Smiths/node.ftt": "5\t0\n"})

	result := New(fs, input, cfg).Run()
	assert.False(t, result.Success)
	var truncated *fttparser.TruncatedInputError
	assert.ErrorAs(t, result.Error, &truncated)
	assert.Empty(t, result.Artifacts)

	exists, _ := afero.DirExists(fs, "/out")
	assert.False(t, exists)

	result = New(fs, "/in/missing.ftz", cfg).Run()
	assert.Error(t, result.Error)

	result = New(fs, "/in/family.zip", cfg).Run()
	assert.Error(t, result.Error)
}

func TestConverter_Run_InvalidEncoding(t *testing.T) {
	fs := afero.NewMemMapFs()
	cfg, input := setup(t, fs, "", map[string]string{"Smiths/node.ftt": "0\t0\n\xff\xfe"})

	result := New(fs, input, cfg).Run()
	assert.Error(t, result.Error)
}

func TestConverter_Run_RemovesArtifactsOnFailure(t *testing.T) {
	root := t.TempDir()
	fs := afero.NewOsFs()
	cfg, input := setup(t, fs, root, sampleArchive())

	// A directory where the GEDCOM file should go makes the last write fail.
	require.NoError(t, fs.MkdirAll(filepath.Join(cfg.OutputDir, "family.ged"), 0755))

	result := New(fs, input, cfg).Run()
	require.Error(t, result.Error)
	assert.False(t, result.Success)
	assert.Empty(t, result.Artifacts)

	for _, p := range []string{"family.json", "family_faces/1.jpg", "family_faces"} {
		exists, _ := afero.Exists(fs, filepath.Join(cfg.OutputDir, p))
		assert.False(t, exists, p)
	}
}

func TestConverter_Run_LogsAnomalies(t *testing.T) {
	person := func(id, name string) string {
		return record(fttparser.PersonColumns, map[int]string{0: id, 13: name})
	}
	text := "3\t0\n" + person("4", "First") + "\n" + person("4", "Second") + "\n" + person("x", "Zero") + "\n"

	fs := afero.NewMemMapFs()
	cfg, input := setup(t, fs, "", map[string]string{"Tree/node.ftt": text})

	core, logs := observer.New(zapcore.WarnLevel)
	result := New(fs, input, cfg).WithLogger(zap.New(core).Sugar()).WithDryRun(true).Run()
	require.NoError(t, result.Error)

	assert.Equal(t, 2, result.Stats.Individuals)
	assert.Equal(t, 1, result.Stats.DuplicatePeople)
	assert.Equal(t, 1, logs.FilterMessageSnippet("identifier 4 appears more than once").Len())
	assert.Equal(t, 1, logs.FilterMessageSnippet("identifier 0").Len())
}

func TestConverter_Run_PortraitSubfoldersAndDuplicates(t *testing.T) {
	files := sampleArchive()
	files["Smiths/faces/old/1.jpg"] = "jpeg-old-1"
	files["Smiths/face/1.jpg"] = "jpeg-face-1"

	fs := afero.NewMemMapFs()
	cfg, input := setup(t, fs, "", files)
	cfg.WriteJSON = false

	core, logs := observer.New(zapcore.WarnLevel)
	result := New(fs, input, cfg).WithLogger(zap.New(core).Sugar()).WithBuildOptions(fixedOptions()).Run()
	require.NoError(t, result.Error)

	assert.Equal(t, []string{
		"/out/family_faces/1.jpg",
		"/out/family_faces/2.jpg",
		"/out/family_faces/old/1.jpg",
		"/out/family.ged",
	}, result.Artifacts)
	assert.Equal(t, 3, result.Stats.Portraits)

	face, err := afero.ReadFile(fs, "/out/family_faces/1.jpg")
	require.NoError(t, err)
	assert.Equal(t, "jpeg-1", string(face))
	assert.Equal(t, 1, logs.FilterMessageSnippet("Smiths/face/1.jpg").Len())
}

func TestConverter_Run_RemovesPortraitSubfoldersOnFailure(t *testing.T) {
	root := t.TempDir()
	fs := afero.NewOsFs()
	files := sampleArchive()
	files["Smiths/faces/old/1.jpg"] = "jpeg-old-1"
	cfg, input := setup(t, fs, root, files)

	require.NoError(t, fs.MkdirAll(filepath.Join(cfg.OutputDir, "family.ged"), 0755))

	result := New(fs, input, cfg).Run()
	require.Error(t, result.Error)

	for _, p := range []string{"family_faces/old/1.jpg", "family_faces/old", "family_faces"} {
		exists, _ := afero.Exists(fs, filepath.Join(cfg.OutputDir, p))
		assert.False(t, exists, p)
	}
}
