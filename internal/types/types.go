// =============================================================================
// FTZ to GEDCOM Converter - Shared Types
// =============================================================================
//
// This package contains the domain model shared by the parser, the indexer,
// the document builder and the spreadsheet report. Keeping it in its own
// package avoids import cycles between those modules.
//
// MODEL:
//   - Person : one genealogical individual (one person record line)
//   - Couple : one parental/marital union (one couple record line)
//   - Tree   : the two collections keyed by identifier, plus header data
//
// Values are built once by the parser and never mutated afterwards.
//
// =============================================================================

package types

import (
	"sort"
	"strconv"
)

// =============================================================================
// OPTIONAL INTEGER
// =============================================================================

// OptionalInt is an integer that may be absent.
// It is used for identifiers and date components where zero means "unknown".
type OptionalInt struct {
	Value int
	Valid bool
}

// Some returns a present OptionalInt holding v.
func Some(v int) OptionalInt {
	return OptionalInt{Value: v, Valid: true}
}

// None returns an absent OptionalInt.
func None() OptionalInt {
	return OptionalInt{}
}

// Get returns the value and whether it is present.
func (o OptionalInt) Get() (int, bool) {
	return o.Value, o.Valid
}

// String renders the value, or "None" when absent.
func (o OptionalInt) String() string {
	if !o.Valid {
		return "None"
	}
	return strconv.Itoa(o.Value)
}

// =============================================================================
// EVENT CODES
// =============================================================================

// DeathKnownUndated is the death marker meaning "known dead, date unknown".
// The source format gives it no further meaning.
const DeathKnownUndated = 128

// Sex codes used by the record file.
const (
	SexMale   = 1
	SexFemale = 2
)

// Divorced is the couple divorce flag value meaning "divorced".
const Divorced = 1

// Event is a birth or death marker with an optional date.
type Event struct {
	// Code is the event marker. Zero means no event recorded.
	Code int

	Year  OptionalInt
	Month OptionalInt
	Day   OptionalInt
}

// =============================================================================
// PERSON
// =============================================================================

// Person represents one individual parsed from a person record line.
type Person struct {
	// ID is the unique identifier of the person. Zero is never a real person.
	ID int

	// ParentCoupleID is the couple in which this person is a child.
	ParentCoupleID OptionalInt

	// Name is the given name, Surname the family name. Both are trimmed.
	Name    string
	Surname string

	Birth Event
	Death Event

	// Sex is the raw sex code (1 = male, 2 = female, anything else unknown).
	Sex int

	// Note and Addition are free text. Addition is the fallback note.
	Note     OptionalString
	Addition OptionalString

	// Opaque holds the columns that are preserved but not interpreted.
	Opaque PersonOpaque
}

// PersonOpaque holds the unexplained columns of a person record.
type PersonOpaque struct {
	Reserved int
	Unknown  [7]int // columns 3..5 and 8..11
	Floats   [2]float64

	// Text holds the two placeholder cells after the name pair followed by
	// the two placeholder cells after the note, carried through verbatim.
	Text [4]string
}

// HasParents reports whether the person has a parent couple identifier.
func (p Person) HasParents() bool {
	return p.ParentCoupleID.Valid
}

// =============================================================================
// COUPLE
// =============================================================================

// Couple represents one union parsed from a couple record line.
type Couple struct {
	// ID is the unique identifier of the couple.
	ID int

	// Divorce is the raw divorce flag (1 = divorced).
	Divorce int

	// MaleID and FemaleID are the participants. They may be dangling.
	MaleID   OptionalInt
	FemaleID OptionalInt

	// Opaque holds the columns that are preserved but not interpreted.
	Opaque CoupleOpaque
}

// CoupleOpaque holds the unexplained columns of a couple record.
type CoupleOpaque struct {
	Unknown [6]int // columns 3, 5 and 8..11
	Floats  [2]float64
}

// IsDivorced reports whether the divorce flag is set.
func (c Couple) IsDivorced() bool {
	return c.Divorce == Divorced
}

// =============================================================================
// OPTIONAL STRING
// =============================================================================

// OptionalString is a free-text value that may be absent.
type OptionalString struct {
	Value string
	Valid bool
}

// Text returns a present OptionalString, or an absent one when s is empty.
func Text(s string) OptionalString {
	if s == "" {
		return OptionalString{}
	}
	return OptionalString{Value: s, Valid: true}
}

// =============================================================================
// TREE
// =============================================================================

// Header is the first line of the record file.
type Header struct {
	PersonCount    int
	CoupleCount    int
	LastAdditionID int
}

// Tree is the parsed content of one record file.
type Tree struct {
	Header Header

	People  map[int]Person
	Couples map[int]Couple

	// Duplicates lists identifiers seen more than once. The later record won.
	DuplicatePeople  []int
	DuplicateCouples []int
}

// NewTree returns an empty tree with initialized collections.
func NewTree() *Tree {
	return &Tree{
		People:  make(map[int]Person),
		Couples: make(map[int]Couple),
	}
}

// PersonIDs returns the person identifiers in ascending order.
func (t *Tree) PersonIDs() []int {
	return sortedKeys(t.People)
}

// CoupleIDs returns the couple identifiers in ascending order.
func (t *Tree) CoupleIDs() []int {
	return sortedKeys(t.Couples)
}

// HasPerson reports whether id is a known person.
func (t *Tree) HasPerson(id OptionalInt) bool {
	if !id.Valid {
		return false
	}
	_, ok := t.People[id.Value]
	return ok
}

// HasCouple reports whether id is a known couple.
func (t *Tree) HasCouple(id OptionalInt) bool {
	if !id.Valid {
		return false
	}
	_, ok := t.Couples[id.Value]
	return ok
}

func sortedKeys[V any](m map[int]V) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}
