package document

// GEDCOM tags used by the builder and the writer.
const (
	TagHeader     = "HEAD"
	TagGedcom     = "GEDC"
	TagVersion    = "VERS"
	TagForm       = "FORM"
	TagCharset    = "CHAR"
	TagSource     = "SOUR"
	TagDate       = "DATE"
	TagTime       = "TIME"
	TagLanguage   = "LANG"
	TagSubmitter  = "SUBM"
	TagIndividual = "INDI"
	TagFamily     = "FAM"
	TagFamChild   = "FAMC"
	TagFamSpouse  = "FAMS"
	TagBirth      = "BIRT"
	TagDeath      = "DEAT"
	TagName       = "NAME"
	TagGiven      = "GIVN"
	TagSurname    = "SURN"
	TagSex        = "SEX"
	TagNote       = "NOTE"
	TagPedigree   = "PEDI"
	TagHusband    = "HUSB"
	TagWife       = "WIFE"
	TagChild      = "CHIL"
	TagDivorce    = "DIV"
	TagTrailer    = "TRLR"
)

// Pseudo-tags. They never produce a line of their own; the writer uses them
// to patch the line emitted just before.
const (
	// TagNamedValue appends its value after the previous line's tag.
	TagNamedValue = "_NAME"

	// TagPointerDef inserts its value between the previous line's level and tag.
	TagPointerDef = "_PDEF"

	// TagPointerRef appends its value after the previous line's tag.
	TagPointerRef = "_PREF"
)

// IsPseudoTag reports whether tag is one of the patching pseudo-tags.
func IsPseudoTag(tag string) bool {
	switch tag {
	case TagNamedValue, TagPointerDef, TagPointerRef:
		return true
	}
	return false
}
