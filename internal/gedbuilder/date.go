package gedbuilder

import (
	"strconv"

	"github.com/ginjaninja78/FTZ-to-GEDCOM-conversion/internal/types"
)

var monthNames = [12]string{
	"JAN", "FEB", "MAR", "APR", "MAY", "JUN",
	"JUL", "AUG", "SEP", "OCT", "NOV", "DEC",
}

// FormatDate renders a GEDCOM date at the finest granularity available.
// It returns "" when the year is unknown. A month outside 1-12 is treated as
// unknown, and so is the day in that case.
func FormatDate(year, month, day types.OptionalInt) string {
	if !year.Valid {
		return ""
	}
	y := strconv.Itoa(year.Value)

	if !month.Valid || month.Value < 1 || month.Value > 12 {
		return y
	}
	m := monthNames[month.Value-1]

	if !day.Valid {
		return m + " " + y
	}
	return strconv.Itoa(day.Value) + " " + m + " " + y
}

// SexLetter maps a sex code to M, F or U.
func SexLetter(code int) string {
	switch code {
	case types.SexMale:
		return "M"
	case types.SexFemale:
		return "F"
	default:
		return "U"
	}
}
