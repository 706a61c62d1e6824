// =============================================================================
// FTZ to GEDCOM Converter - Roster Workbook
// =============================================================================
//
// This module writes a spreadsheet view of a converted tree, for checking a
// conversion by eye without a genealogy program.
//
// SHEETS:
//
//   | Individuals | Pointer | ID | Given | Surname | Sex | Birth | Death | Parents | Spouse Families | Note |
//   | Families    | Pointer | ID | Husband | Wife | Children | Divorced |
//
// Pointers are the same ones written to the .ged file. Dates use the GEDCOM
// rendering; a known but undated death shows as "Y".
//
// =============================================================================

package xlsxreport

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/ginjaninja78/FTZ-to-GEDCOM-conversion/internal/gedbuilder"
	"github.com/ginjaninja78/FTZ-to-GEDCOM-conversion/internal/indexer"
	"github.com/ginjaninja78/FTZ-to-GEDCOM-conversion/internal/types"
)

// Sheet names.
const (
	IndividualsSheet = "Individuals"
	FamiliesSheet    = "Families"
)

var (
	individualColumns = []string{"Pointer", "ID", "Given", "Surname", "Sex", "Birth", "Death", "Parents", "Spouse Families", "Note"}
	familyColumns     = []string{"Pointer", "ID", "Husband", "Wife", "Children", "Divorced"}
)

// Write renders the workbook to w.
//
// PARAMETERS:
//   - w: Destination, typically the .xlsx output file.
//   - tree, idx, ptrs: The tree and the indexes and pointers built from it.
//
// RETURNS:
//   - An error if a sheet cannot be built or the workbook cannot be written.
func Write(w io.Writer, tree *types.Tree, idx indexer.Indexes, ptrs gedbuilder.Pointers) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), IndividualsSheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}
	if _, err := f.NewSheet(FamiliesSheet); err != nil {
		return fmt.Errorf("failed to add sheet: %w", err)
	}

	header, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	individuals := make([][]any, 0, len(tree.People))
	for _, id := range tree.PersonIDs() {
		individuals = append(individuals, individualRow(tree.People[id], idx, ptrs))
	}
	if err := writeSheet(f, IndividualsSheet, individualColumns, individuals, header); err != nil {
		return err
	}

	families := make([][]any, 0, len(tree.Couples))
	for _, id := range tree.CoupleIDs() {
		families = append(families, familyRow(tree.Couples[id], idx, ptrs))
	}
	if err := writeSheet(f, FamiliesSheet, familyColumns, families, header); err != nil {
		return err
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func writeSheet(f *excelize.File, sheet string, columns []string, rows [][]any, headerStyle int) error {
	headerRow := make([]any, len(columns))
	for i, c := range columns {
		headerRow[i] = c
	}
	if err := f.SetSheetRow(sheet, "A1", &headerRow); err != nil {
		return fmt.Errorf("failed to write %s header: %w", sheet, err)
	}
	if err := f.SetRowStyle(sheet, 1, 1, headerStyle); err != nil {
		return fmt.Errorf("failed to style %s header: %w", sheet, err)
	}

	for i := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &rows[i]); err != nil {
			return fmt.Errorf("failed to write %s row %d: %w", sheet, i+2, err)
		}
	}

	last, err := excelize.ColumnNumberToName(len(columns))
	if err != nil {
		return err
	}
	return f.SetColWidth(sheet, "A", last, 16)
}

func individualRow(p types.Person, idx indexer.Indexes, ptrs gedbuilder.Pointers) []any {
	birth := ""
	if p.Birth.Code != 0 {
		birth = gedbuilder.FormatDate(p.Birth.Year, p.Birth.Month, p.Birth.Day)
	}

	death := ""
	if p.Death.Code != 0 {
		death = gedbuilder.FormatDate(p.Death.Year, p.Death.Month, p.Death.Day)
		if death == "" && p.Death.Code == types.DeathKnownUndated {
			death = "Y"
		}
	}

	parents, _ := ptrs.Family(p.ParentCoupleID)

	spouses := make([]string, 0, len(idx.SpouseCouples(p.ID)))
	for _, coupleID := range idx.SpouseCouples(p.ID) {
		spouses = append(spouses, ptrs.Families[coupleID])
	}

	note := p.Note.Value
	if !p.Note.Valid {
		note = p.Addition.Value
	}

	return []any{
		ptrs.Individuals[p.ID],
		p.ID,
		p.Name,
		p.Surname,
		gedbuilder.SexLetter(p.Sex),
		birth,
		death,
		parents,
		strings.Join(spouses, " "),
		note,
	}
}

func familyRow(c types.Couple, idx indexer.Indexes, ptrs gedbuilder.Pointers) []any {
	husband, _ := ptrs.Individual(c.MaleID)
	wife, _ := ptrs.Individual(c.FemaleID)

	children := make([]string, 0, len(idx.Children(c.ID)))
	for _, kid := range idx.Children(c.ID) {
		children = append(children, ptrs.Individuals[kid])
	}

	divorced := ""
	if c.IsDivorced() {
		divorced = "Y"
	}

	return []any{
		ptrs.Families[c.ID],
		c.ID,
		husband,
		wife,
		strings.Join(children, " "),
		divorced,
	}
}
