package fttparser

import "fmt"

// FormatError reports a record file whose header is missing or malformed.
type FormatError struct {
	// Reason describes the offending condition.
	Reason string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("invalid record file header: %s", e.Reason)
}

// TruncatedInputError reports a record file with fewer record lines than its
// header declares.
type TruncatedInputError struct {
	// Section is "person" or "couple".
	Section  string
	Expected int
	Found    int
}

func (e *TruncatedInputError) Error() string {
	return fmt.Sprintf("truncated record file: expected %d %s records, found %d", e.Expected, e.Section, e.Found)
}
