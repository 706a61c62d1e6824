package fttparser

import (
	"strconv"
	"strings"

	"github.com/ginjaninja78/FTZ-to-GEDCOM-conversion/internal/types"
)

// =============================================================================
// FIELD COERCION
// =============================================================================
//
// A column uses exactly one of these contracts. None of them fail: a cell that
// does not parse degrades to the contract's default value.

// IntOrZero parses cell as a base-10 integer, yielding 0 when it does not parse.
// Used for flags, counts and opaque numeric columns.
func IntOrZero(cell string) int {
	n, err := strconv.Atoi(strings.TrimSpace(cell))
	if err != nil {
		return 0
	}
	return n
}

// IntOrAbsent parses cell as a base-10 integer. A cell that does not parse, or
// that parses to exactly zero, yields an absent value.
// Used for identifiers and date components.
func IntOrAbsent(cell string) types.OptionalInt {
	n, err := strconv.Atoi(strings.TrimSpace(cell))
	if err != nil || n == 0 {
		return types.None()
	}
	return types.Some(n)
}

// FloatOrZero parses cell as a floating-point number, yielding 0.0 on failure.
// Only used for opaque columns.
func FloatOrZero(cell string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(cell), 64)
	if err != nil {
		return 0
	}
	return f
}

// TrimmedText trims surrounding whitespace from a name-like cell.
func TrimmedText(cell string) string {
	return strings.TrimSpace(cell)
}

// OptionalText trims cell and treats an empty result as absent.
func OptionalText(cell string) types.OptionalString {
	return types.Text(strings.TrimSpace(cell))
}
