package fttparser

// =============================================================================
// RECORD LAYOUT
// =============================================================================
//
// Person record (tab-delimited, 29 cells, padded with ""):
//
//   0  id                    absent-as-zero
//   1  reserved              absent-as-zero (opaque)
//   2  parent couple id      zero-as-absent
//   3..5                     absent-as-zero (opaque)
//   6..7                     float (opaque)
//   8..11                    absent-as-zero (opaque)
//   12 surname               trimmed
//   13 given name            trimmed
//   14..15                   placeholder text (opaque, verbatim)
//   16 birth event           absent-as-zero
//   17..19 birth y/m/d       zero-as-absent
//   20 death event           absent-as-zero
//   21..23 death y/m/d       zero-as-absent
//   24 sex                   absent-as-zero
//   25 addition              optional text
//   26 note                  optional text
//   27..28                   placeholder text (opaque, verbatim)
//
// Couple record (tab-delimited, 12 cells, padded with "0"):
//
//   0  id                    absent-as-zero
//   1  divorce               absent-as-zero
//   2  male id               zero-as-absent
//   3                        absent-as-zero (opaque)
//   4  female id             zero-as-absent
//   5                        absent-as-zero (opaque)
//   6..7                     float (opaque)
//   8..11                    absent-as-zero (opaque)

// Person columns.
const (
	personID = iota
	personReserved
	personParentCouple
	personUnk3
	personUnk4
	personUnk5
	personFloat1
	personFloat2
	personUnk8
	personUnk9
	personUnk10
	personUnk11
	personSurname
	personName
	personText1
	personText2
	personBirthEvent
	personBirthYear
	personBirthMonth
	personBirthDay
	personDeathEvent
	personDeathYear
	personDeathMonth
	personDeathDay
	personSex
	personAddition
	personNote
	personText3
	personText4

	// PersonColumns is the number of cells in a person record.
	PersonColumns
)

// Couple columns.
const (
	coupleID = iota
	coupleDivorce
	coupleMale
	coupleUnk3
	coupleFemale
	coupleUnk5
	coupleFloat1
	coupleFloat2
	coupleUnk8
	coupleUnk9
	coupleUnk10
	coupleUnk11

	// CoupleColumns is the number of cells in a couple record.
	CoupleColumns
)

// Padding used when a record line yields fewer cells than its layout needs.
const (
	personPad = ""
	couplePad = "0"
)
