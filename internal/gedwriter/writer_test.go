package gedwriter

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/FTZ-to-GEDCOM-conversion/internal/document"
)

func TestLinearize_PointerDefinition(t *testing.T) {
	doc := document.New().Set("INDI", []any{
		document.New().
			Set("_PDEF", "@I0000@").
			Set("SEX", "M"),
	})

	lines, err := Linearize(doc)
	require.NoError(t, err)
	assert.Equal(t, []string{"0 @I0000@ INDI", "1 SEX M"}, lines)
}

func TestLinearize_References(t *testing.T) {
	doc := document.New().Set("INDI", []any{
		document.New().
			Set("_PDEF", "@I0001@").
			Set("NAME", document.New().
				Set("_NAME", "John /Smith/").
				Set("GIVN", "John")).
			Set("FAMC", []any{document.New().Set("_PREF", "@F0002@").Set("PEDI", "BIRTH")}).
			Set("FAMS", []any{
				document.New().Set("_PREF", "@F0003@"),
				document.New().Set("_PREF", "@F0004@"),
			}),
	})

	lines, err := Linearize(doc)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"0 @I0001@ INDI",
		"1 NAME John /Smith/",
		"2 GIVN John",
		"1 FAMC @F0002@",
		"2 PEDI BIRTH",
		"1 FAMS @F0003@",
		"1 FAMS @F0004@",
	}, lines)
}

func TestLinearize_ListsAndScalars(t *testing.T) {
	doc := document.New().
		Set("FAM", []any{
			document.New().
				Set("_PDEF", "@F0000@").
				Set("CHIL", []any{"@I0001@", "@I0002@"}).
				Set("DIV", "Y"),
		}).
		Set("EMPTY", []any{}).
		Set("NUM", 7).
		Set("BARE", nil).
		Set("TRLR", document.New())

	lines, err := Linearize(doc)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"0 @F0000@ FAM",
		"1 CHIL @I0001@",
		"1 CHIL @I0002@",
		"1 DIV Y",
		"0 NUM 7",
		"0 BARE",
		"0 TRLR",
	}, lines)
}

func TestLinearize_PatchErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  *document.Document
	}{
		{
			name: "no previous line",
			doc:  document.New().Set("_PDEF", "@I0000@"),
		},
		{
			name: "pseudo-tag not first",
			doc: document.New().Set("INDI", document.New().
				Set("SEX", "M").
				Set("_PDEF", "@I0000@")),
		},
		{
			name: "previous line already has a value",
			doc: document.New().Set("INDI", document.New().
				Set("_PREF", "@F0000@").
				Set("_NAME", "extra")),
		},
		{
			name: "pointer after nested block",
			doc: document.New().Set("INDI", document.New().
				Set("NAME", document.New()).
				Set("_PDEF", "@I0000@")),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Linearize(tt.doc)
			var patchErr *PatchError
			require.ErrorAs(t, err, &patchErr)
		})
	}
}

func TestLinearize_RepeatedPseudoTagRejected(t *testing.T) {
	inner := document.New().Set("_PREF", "@F0000@").Set("X", "1")
	inner.Set("_NAME", "late")

	_, err := Linearize(document.New().Set("FAMS", inner))
	var patchErr *PatchError
	require.ErrorAs(t, err, &patchErr)
	assert.Equal(t, "_NAME", patchErr.Tag)
	assert.Contains(t, err.Error(), "1 X 1")
}

func TestRender(t *testing.T) {
	doc := document.New().
		Set("HEAD", document.New().Set("CHAR", "UTF-8")).
		Set("TRLR", document.New())

	text, err := Render(doc)
	require.NoError(t, err)
	assert.Equal(t, "0 HEAD\n1 CHAR UTF-8\n0 TRLR\n", text)

	var buf bytes.Buffer
	n, err := Write(&buf, doc)
	require.NoError(t, err)
	assert.Equal(t, len(text), n)
	assert.Equal(t, text, buf.String())
}

func TestRender_Empty(t *testing.T) {
	text, err := Render(document.New())
	require.NoError(t, err)
	assert.Empty(t, text)
}

func TestRender_PrunedDocumentHasNoEmptyTags(t *testing.T) {
	doc := document.New().Set("INDI", []any{
		document.New().
			Set("_PDEF", "@I0000@").
			Set("NAME", document.New().Set("_NAME", "A //").Set("GIVN", "A").Set("SURN", "")).
			Set("NOTE", "").
			Set("SEX", nil),
	})

	text, err := Render(document.PruneDocument(doc))
	require.NoError(t, err)

	for _, line := range strings.Split(strings.TrimSuffix(text, "\n"), "\n") {
		assert.Len(t, strings.Fields(line), len(strings.Split(line, " ")), "line %q", line)
	}
	assert.NotContains(t, text, "SURN")
	assert.NotContains(t, text, "NOTE")
	assert.NotContains(t, text, "SEX")
}

func TestJoin(t *testing.T) {
	assert.Equal(t, "", Join(nil))
	assert.Equal(t, "0 HEAD\n0 TRLR\n", Join([]string{"0 HEAD", "0 TRLR"}))
}
