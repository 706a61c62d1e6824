// =============================================================================
// FTZ to GEDCOM Converter - Document Builder
// =============================================================================
//
// This module assembles the nested tag document from the parsed tree and its
// relationship indexes. The document has five top-level entries in this
// order: HEAD, SUBM, INDI (list), FAM (list), TRLR.
//
// POINTERS:
//   Every record starts with a _PDEF entry carrying its pointer, and every
//   reference block starts with a _PREF entry. The writer relies on that
//   first position to patch the line emitted for the enclosing tag.
//
// The returned document still contains empty strings where source data was
// missing (for example an empty surname). Run document.Prune before writing.
//
// =============================================================================

package gedbuilder

import (
	"time"

	"github.com/ginjaninja78/FTZ-to-GEDCOM-conversion/internal/document"
	"github.com/ginjaninja78/FTZ-to-GEDCOM-conversion/internal/indexer"
	"github.com/ginjaninja78/FTZ-to-GEDCOM-conversion/internal/types"
)

// SubmitterPointer is the pointer of the single submitter record.
const SubmitterPointer = "@U1@"

// =============================================================================
// OPTIONS
// =============================================================================

// Options controls the header and submitter blocks.
type Options struct {
	// ProgramID is the short source system identifier (HEAD.SOUR value).
	ProgramID string

	// ProgramName is the product name (HEAD.SOUR.NAME).
	ProgramName string

	// Version is the product version (HEAD.SOUR.VERS).
	Version string

	// Language is written to HEAD.LANG.
	Language string

	// SubmitterName is written to the SUBM record.
	SubmitterName string

	// Now returns the generation time. Defaults to time.Now.
	Now func() time.Time
}

// DefaultOptions returns the options used when none are configured.
func DefaultOptions() Options {
	return Options{
		ProgramID:     "FTZ2GED",
		ProgramName:   "FTZ to GEDCOM Converter",
		Version:       "1.0.0",
		Language:      "English",
		SubmitterName: "Unknown",
		Now:           time.Now,
	}
}

func (o Options) withDefaults() Options {
	def := DefaultOptions()
	if o.ProgramID == "" {
		o.ProgramID = def.ProgramID
	}
	if o.ProgramName == "" {
		o.ProgramName = def.ProgramName
	}
	if o.Version == "" {
		o.Version = def.Version
	}
	if o.Language == "" {
		o.Language = def.Language
	}
	if o.SubmitterName == "" {
		o.SubmitterName = def.SubmitterName
	}
	if o.Now == nil {
		o.Now = def.Now
	}
	return o
}

// =============================================================================
// BUILD
// =============================================================================

// Build assembles the document for tree.
//
// PARAMETERS:
//   - tree: The parsed tree.
//   - idx: Indexes built from the same tree.
//   - opts: Header options. Zero fields take their defaults.
//
// RETURNS:
//   - The unpruned document and the pointer map used for it.
func Build(tree *types.Tree, idx indexer.Indexes, opts Options) (*document.Document, Pointers) {
	opts = opts.withDefaults()
	ptrs := AssignPointers(tree)

	individuals := make([]any, 0, len(tree.People))
	for _, id := range tree.PersonIDs() {
		individuals = append(individuals, buildIndividual(idx, ptrs, tree.People[id]))
	}

	families := make([]any, 0, len(tree.Couples))
	for _, id := range tree.CoupleIDs() {
		families = append(families, buildFamily(idx, ptrs, tree.Couples[id]))
	}

	doc := document.New().
		Set(document.TagHeader, buildHeader(opts)).
		Set(document.TagSubmitter, document.New().
			Set(document.TagPointerDef, SubmitterPointer).
			Set(document.TagName, opts.SubmitterName)).
		Set(document.TagIndividual, individuals).
		Set(document.TagFamily, families).
		Set(document.TagTrailer, document.New())

	return doc, ptrs
}

func buildHeader(opts Options) *document.Document {
	now := opts.Now()

	return document.New().
		Set(document.TagGedcom, document.New().
			Set(document.TagVersion, "5.5.1").
			Set(document.TagForm, "LINEAGE-LINKED")).
		Set(document.TagCharset, "UTF-8").
		Set(document.TagSource, document.New().
			Set(document.TagNamedValue, opts.ProgramID).
			Set(document.TagName, opts.ProgramName).
			Set(document.TagVersion, opts.Version)).
		Set(document.TagDate, document.New().
			Set(document.TagNamedValue, HeaderDate(now)).
			Set(document.TagTime, now.Format("15:04:05"))).
		Set(document.TagLanguage, opts.Language).
		Set(document.TagSubmitter, SubmitterPointer)
}

// HeaderDate formats t as a GEDCOM date such as 03 MAY 2024.
func HeaderDate(t time.Time) string {
	return t.Format("02 ") + monthNames[t.Month()-1] + t.Format(" 2006")
}

func buildIndividual(idx indexer.Indexes, ptrs Pointers, p types.Person) *document.Document {
	node := document.New().
		Set(document.TagPointerDef, ptrs.Individuals[p.ID]).
		Set(document.TagName, document.New().
			Set(document.TagNamedValue, p.Name+" /"+p.Surname+"/").
			Set(document.TagGiven, p.Name).
			Set(document.TagSurname, p.Surname)).
		Set(document.TagSex, SexLetter(p.Sex))

	if p.Birth.Code != 0 {
		if date := FormatDate(p.Birth.Year, p.Birth.Month, p.Birth.Day); date != "" {
			node.Set(document.TagBirth, document.New().Set(document.TagDate, date))
		}
	}

	if p.Death.Code != 0 {
		date := FormatDate(p.Death.Year, p.Death.Month, p.Death.Day)
		switch {
		case date != "":
			node.Set(document.TagDeath, document.New().Set(document.TagDate, date))
		case p.Death.Code == types.DeathKnownUndated:
			node.Set(document.TagDeath, "Y")
		}
	}

	asChild := []any{}
	if ptr, ok := ptrs.Family(p.ParentCoupleID); ok {
		asChild = append(asChild, document.New().
			Set(document.TagPointerRef, ptr).
			Set(document.TagPedigree, "BIRTH"))
	}
	node.Set(document.TagFamChild, asChild)

	asSpouse := []any{}
	for _, coupleID := range idx.SpouseCouples(p.ID) {
		asSpouse = append(asSpouse, document.New().
			Set(document.TagPointerRef, ptrs.Families[coupleID]))
	}
	node.Set(document.TagFamSpouse, asSpouse)

	switch {
	case p.Note.Valid:
		node.Set(document.TagNote, p.Note.Value)
	case p.Addition.Valid:
		node.Set(document.TagNote, p.Addition.Value)
	}

	return node
}

func buildFamily(idx indexer.Indexes, ptrs Pointers, c types.Couple) *document.Document {
	node := document.New().
		Set(document.TagPointerDef, ptrs.Families[c.ID])

	if ptr, ok := ptrs.Individual(c.MaleID); ok {
		node.Set(document.TagHusband, ptr)
	}
	if ptr, ok := ptrs.Individual(c.FemaleID); ok {
		node.Set(document.TagWife, ptr)
	}

	if kids := idx.Children(c.ID); len(kids) > 0 {
		children := make([]any, 0, len(kids))
		for _, kid := range kids {
			children = append(children, ptrs.Individuals[kid])
		}
		node.Set(document.TagChild, children)
	}

	if c.IsDivorced() {
		node.Set(document.TagDivorce, "Y")
	}

	return node
}
