package fttparser

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/FTZ-to-GEDCOM-conversion/internal/types"
)

// personLine builds a 29-cell person record from the cells that matter.
func personLine(id, parent, surname, name string, birth, death [4]string, sex, addition, note string) string {
	c := make([]string, PersonColumns)
	c[personID] = id
	c[personParentCouple] = parent
	c[personSurname] = surname
	c[personName] = name
	c[personBirthEvent], c[personBirthYear], c[personBirthMonth], c[personBirthDay] = birth[0], birth[1], birth[2], birth[3]
	c[personDeathEvent], c[personDeathYear], c[personDeathMonth], c[personDeathDay] = death[0], death[1], death[2], death[3]
	c[personSex] = sex
	c[personAddition] = addition
	c[personNote] = note
	return strings.Join(c, "\t")
}

func sampleRecordFile() string {
	lines := []string{
		"\ufeff2\t1\t9",
		personLine("1", "0", " Smith ", " John ", [4]string{"1", "1900", "5", "3"}, [4]string{"128", "0", "0", "0"}, "1", "", "Farmer"),
		"",
		personLine("2", "10", "Smith", "Mary", [4]string{"0", "", "", ""}, [4]string{"", "", "", ""}, "2", "extra", ""),
		"10\t1\t1\t0\t0",
	}
	return strings.Join(lines, "\r\n") + "\r\n"
}

func TestParse(t *testing.T) {
	tree, err := Parse(sampleRecordFile())
	require.NoError(t, err)

	assert.Equal(t, types.Header{PersonCount: 2, CoupleCount: 1, LastAdditionID: 9}, tree.Header)
	require.Len(t, tree.People, 2)
	require.Len(t, tree.Couples, 1)

	john := tree.People[1]
	assert.Equal(t, "John", john.Name)
	assert.Equal(t, "Smith", john.Surname)
	assert.False(t, john.HasParents())
	assert.Equal(t, types.Event{Code: 1, Year: types.Some(1900), Month: types.Some(5), Day: types.Some(3)}, john.Birth)
	assert.Equal(t, types.DeathKnownUndated, john.Death.Code)
	assert.False(t, john.Death.Year.Valid)
	assert.Equal(t, types.SexMale, john.Sex)
	assert.Equal(t, types.Text("Farmer"), john.Note)
	assert.False(t, john.Addition.Valid)

	mary := tree.People[2]
	assert.Equal(t, types.Some(10), mary.ParentCoupleID)
	assert.Equal(t, types.Text("extra"), mary.Addition)
	assert.False(t, mary.Note.Valid)

	couple := tree.Couples[10]
	assert.Equal(t, 1, couple.Divorce)
	assert.True(t, couple.IsDivorced())
	assert.Equal(t, types.Some(1), couple.MaleID)
	assert.False(t, couple.FemaleID.Valid, "short couple line pads with 0 which reads as absent")
}

func TestParse_OpaqueColumnsPreserved(t *testing.T) {
	cells := make([]string, PersonColumns)
	cells[personID] = "4"
	cells[personReserved] = "77"
	cells[personUnk3] = "3"
	cells[personUnk11] = "11"
	cells[personFloat1] = "1.5"
	cells[personFloat2] = "junk"
	cells[personText1] = " a "
	cells[personText4] = "d"

	person := ParsePerson(strings.Join(cells, "\t"))

	assert.Equal(t, 77, person.Opaque.Reserved)
	assert.Equal(t, [7]int{3, 0, 0, 0, 0, 0, 11}, person.Opaque.Unknown)
	assert.Equal(t, [2]float64{1.5, 0}, person.Opaque.Floats)
	assert.Equal(t, [4]string{" a ", "", "", "d"}, person.Opaque.Text)
}

func TestParse_ShortPersonLineIsPadded(t *testing.T) {
	person := ParsePerson("5\t0\t3")

	assert.Equal(t, 5, person.ID)
	assert.Equal(t, types.Some(3), person.ParentCoupleID)
	assert.Equal(t, "", person.Name)
	assert.Equal(t, 0, person.Sex)
}

func TestParse_DuplicateIdentifiersLastWriteWins(t *testing.T) {
	text := strings.Join([]string{
		"2\t0",
		personLine("1", "", "A", "First", [4]string{}, [4]string{}, "1", "", ""),
		personLine("1", "", "B", "Second", [4]string{}, [4]string{}, "2", "", ""),
	}, "\n")

	tree, err := Parse(text)
	require.NoError(t, err)

	require.Len(t, tree.People, 1)
	assert.Equal(t, "Second", tree.People[1].Name)
	assert.Equal(t, []int{1}, tree.DuplicatePeople)
}

func TestParse_FormatErrors(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"empty", ""},
		{"blank lines only", "\n  \n\t\n"},
		{"single cell", "3\n"},
		{"non numeric person count", "x\t1\n"},
		{"non numeric couple count", "1\ty\n"},
		{"negative count", "-1\t0\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.text)
			var formatErr *FormatError
			require.ErrorAs(t, err, &formatErr)
		})
	}
}

func TestParse_Truncated(t *testing.T) {
	t.Run("people", func(t *testing.T) {
		_, err := Parse("3\t0\n1\n2\n")
		var truncErr *TruncatedInputError
		require.ErrorAs(t, err, &truncErr)
		assert.Equal(t, "person", truncErr.Section)
		assert.Equal(t, 3, truncErr.Expected)
		assert.Equal(t, 2, truncErr.Found)
		assert.Contains(t, err.Error(), "expected 3 person records, found 2")
	})

	t.Run("couples", func(t *testing.T) {
		_, err := Parse("1\t2\n1\n5\t0\n")
		var truncErr *TruncatedInputError
		require.ErrorAs(t, err, &truncErr)
		assert.Equal(t, "couple", truncErr.Section)
		assert.Equal(t, 2, truncErr.Expected)
		assert.Equal(t, 1, truncErr.Found)
	})
}

func TestParse_ExtraLinesIgnored(t *testing.T) {
	tree, err := Parse("1\t0\n1\n999\textra\n")
	require.NoError(t, err)
	assert.Len(t, tree.People, 1)
	assert.Empty(t, tree.Couples)
}
