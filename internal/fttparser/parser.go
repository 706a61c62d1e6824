// =============================================================================
// FTZ to GEDCOM Converter - Record File Parser
// =============================================================================
//
// This module decodes the tab-delimited record file (node.ftt) found inside an
// .ftz archive into the typed domain model.
//
// FILE LAYOUT:
//   line 1            : <person count> \t <couple count> [\t <last addition id>]
//   next N lines      : person records (see layout.go)
//   next M lines      : couple records (see layout.go)
//
// Blank lines are discarded before counting. A leading byte-order mark is
// stripped. Only a missing/malformed header or too few record lines are fatal;
// every other malformed cell degrades to its column's default.
//
// =============================================================================

package fttparser

import (
	"strconv"
	"strings"

	"github.com/ginjaninja78/FTZ-to-GEDCOM-conversion/internal/types"
)

// bom is the byte-order mark some exporters write at the start of the file.
const bom = "\ufeff"

// =============================================================================
// PARSER FUNCTIONS
// =============================================================================

// Parse decodes the full text of a record file.
//
// PARAMETERS:
//   - text: The decoded UTF-8 content, optionally starting with a BOM.
//
// RETURNS:
//   - The parsed tree. People and couples are keyed by identifier; a later
//     record with a duplicate identifier overwrites the earlier one and the
//     identifier is listed in DuplicatePeople/DuplicateCouples.
//   - A *FormatError or *TruncatedInputError on fatal conditions.
func Parse(text string) (*types.Tree, error) {
	lines := splitLines(text)
	if len(lines) == 0 {
		return nil, &FormatError{Reason: "header line missing"}
	}

	header, err := parseHeader(lines[0])
	if err != nil {
		return nil, err
	}

	records := lines[1:]
	if len(records) < header.PersonCount {
		return nil, &TruncatedInputError{
			Section:  "person",
			Expected: header.PersonCount,
			Found:    len(records),
		}
	}
	personLines := records[:header.PersonCount]
	records = records[header.PersonCount:]

	if len(records) < header.CoupleCount {
		return nil, &TruncatedInputError{
			Section:  "couple",
			Expected: header.CoupleCount,
			Found:    len(records),
		}
	}
	coupleLines := records[:header.CoupleCount]

	tree := types.NewTree()
	tree.Header = header

	for _, line := range personLines {
		person := ParsePerson(line)
		if _, exists := tree.People[person.ID]; exists {
			tree.DuplicatePeople = append(tree.DuplicatePeople, person.ID)
		}
		tree.People[person.ID] = person
	}

	for _, line := range coupleLines {
		couple := ParseCouple(line)
		if _, exists := tree.Couples[couple.ID]; exists {
			tree.DuplicateCouples = append(tree.DuplicateCouples, couple.ID)
		}
		tree.Couples[couple.ID] = couple
	}

	return tree, nil
}

// splitLines normalizes line endings, strips a leading BOM and drops blank lines.
func splitLines(text string) []string {
	text = strings.TrimPrefix(text, bom)
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	var lines []string
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		lines = append(lines, line)
	}
	return lines
}

// parseHeader reads the declared record counts from the header line.
func parseHeader(line string) (types.Header, error) {
	cells := strings.Split(line, "\t")
	if len(cells) < 2 {
		return types.Header{}, &FormatError{
			Reason: "expected person and couple counts separated by a tab",
		}
	}

	personCount, err := parseCount(strings.TrimPrefix(cells[0], bom), "person")
	if err != nil {
		return types.Header{}, err
	}
	coupleCount, err := parseCount(cells[1], "couple")
	if err != nil {
		return types.Header{}, err
	}

	header := types.Header{
		PersonCount: personCount,
		CoupleCount: coupleCount,
	}
	if len(cells) > 2 {
		header.LastAdditionID = IntOrZero(cells[2])
	}

	return header, nil
}

func parseCount(cell, section string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(cell))
	if err != nil {
		return 0, &FormatError{Reason: section + " count " + strconv.Quote(cell) + " is not an integer"}
	}
	if n < 0 {
		return 0, &FormatError{Reason: section + " count " + strconv.Itoa(n) + " is negative"}
	}
	return n, nil
}

// =============================================================================
// RECORD DECODERS
// =============================================================================

// ParsePerson decodes one person record line. It never fails.
func ParsePerson(line string) types.Person {
	c := cells(line, PersonColumns, personPad)

	return types.Person{
		ID:             IntOrZero(c[personID]),
		ParentCoupleID: IntOrAbsent(c[personParentCouple]),
		Surname:        TrimmedText(c[personSurname]),
		Name:           TrimmedText(c[personName]),
		Birth: types.Event{
			Code:  IntOrZero(c[personBirthEvent]),
			Year:  IntOrAbsent(c[personBirthYear]),
			Month: IntOrAbsent(c[personBirthMonth]),
			Day:   IntOrAbsent(c[personBirthDay]),
		},
		Death: types.Event{
			Code:  IntOrZero(c[personDeathEvent]),
			Year:  IntOrAbsent(c[personDeathYear]),
			Month: IntOrAbsent(c[personDeathMonth]),
			Day:   IntOrAbsent(c[personDeathDay]),
		},
		Sex:      IntOrZero(c[personSex]),
		Addition: OptionalText(c[personAddition]),
		Note:     OptionalText(c[personNote]),
		Opaque: types.PersonOpaque{
			Reserved: IntOrZero(c[personReserved]),
			Unknown: [7]int{
				IntOrZero(c[personUnk3]),
				IntOrZero(c[personUnk4]),
				IntOrZero(c[personUnk5]),
				IntOrZero(c[personUnk8]),
				IntOrZero(c[personUnk9]),
				IntOrZero(c[personUnk10]),
				IntOrZero(c[personUnk11]),
			},
			Floats: [2]float64{
				FloatOrZero(c[personFloat1]),
				FloatOrZero(c[personFloat2]),
			},
			Text: [4]string{
				c[personText1],
				c[personText2],
				c[personText3],
				c[personText4],
			},
		},
	}
}

// ParseCouple decodes one couple record line. It never fails.
func ParseCouple(line string) types.Couple {
	c := cells(line, CoupleColumns, couplePad)

	return types.Couple{
		ID:       IntOrZero(c[coupleID]),
		Divorce:  IntOrZero(c[coupleDivorce]),
		MaleID:   IntOrAbsent(c[coupleMale]),
		FemaleID: IntOrAbsent(c[coupleFemale]),
		Opaque: types.CoupleOpaque{
			Unknown: [6]int{
				IntOrZero(c[coupleUnk3]),
				IntOrZero(c[coupleUnk5]),
				IntOrZero(c[coupleUnk8]),
				IntOrZero(c[coupleUnk9]),
				IntOrZero(c[coupleUnk10]),
				IntOrZero(c[coupleUnk11]),
			},
			Floats: [2]float64{
				FloatOrZero(c[coupleFloat1]),
				FloatOrZero(c[coupleFloat2]),
			},
		},
	}
}

// cells splits a record line on tabs and right-pads it to width cells.
func cells(line string, width int, pad string) []string {
	parts := strings.Split(line, "\t")
	for len(parts) < width {
		parts = append(parts, pad)
	}
	return parts
}
