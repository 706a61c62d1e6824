package enrich

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/ginjaninja78/FTZ-to-GEDCOM-conversion/internal/document"
	"github.com/ginjaninja78/FTZ-to-GEDCOM-conversion/internal/gedwriter"
	"github.com/ginjaninja78/FTZ-to-GEDCOM-conversion/internal/validation"
)

// ErrNoJSONArray is returned when a reply contains no parseable JSON array.
var ErrNoJSONArray = errors.New("no JSON array found in response")

var (
	fencePattern   = regexp.MustCompile("(?s)```(?:json)?\\s*(\\[.*\\])\\s*```")
	bracketPattern = regexp.MustCompile(`(?s)(\[\s*\{.*\}\s*\])`)
)

// ExtractJSONArray pulls a JSON array out of a model reply. It tries, in
// order: the whole reply, a fenced code block, the widest "[{ ... }]" span,
// and finally the lines between one starting with '[' or '{' and one ending
// with ']' or '}'.
func ExtractJSONArray(text string) ([]any, error) {
	if items, err := document.DecodeList([]byte(strings.TrimSpace(text))); err == nil {
		return items, nil
	}

	for _, pattern := range []*regexp.Regexp{fencePattern, bracketPattern} {
		if match := pattern.FindStringSubmatch(text); match != nil {
			if items, err := document.DecodeList([]byte(match[1])); err == nil {
				return items, nil
			}
		}
	}

	if candidate := scanLines(text); candidate != "" {
		if items, err := document.DecodeList([]byte(candidate)); err == nil {
			return items, nil
		}
	}

	return nil, ErrNoJSONArray
}

func scanLines(text string) string {
	var kept []string
	inside := false

	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "[") || strings.HasPrefix(trimmed, "{") {
			inside = true
		}
		if inside {
			kept = append(kept, line)
		}
		if strings.HasSuffix(trimmed, "]") || strings.HasSuffix(trimmed, "}") {
			inside = false
		}
	}

	return strings.Join(kept, "\n")
}

// ShapeError reports why a returned chunk was not accepted.
type ShapeError struct {
	Index  int
	Reason string
}

func (e *ShapeError) Error() string {
	if e.Index < 0 {
		return "rejected chunk: " + e.Reason
	}
	return fmt.Sprintf("rejected record %d: %s", e.Index, e.Reason)
}

// CheckShape accepts got as a replacement for original only if it has the
// same length, every record starts with the same pointer definition as the
// record it replaces, the records are structurally valid and they linearize.
func CheckShape(original, got []any) error {
	if len(got) != len(original) {
		return &ShapeError{Index: -1, Reason: fmt.Sprintf("expected %d records, got %d", len(original), len(got))}
	}

	for i := range got {
		record, ok := got[i].(*document.Document)
		if !ok {
			return &ShapeError{Index: i, Reason: "not an object"}
		}
		keys := record.Keys()
		if len(keys) == 0 || keys[0] != document.TagPointerDef {
			return &ShapeError{Index: i, Reason: "first key is not " + document.TagPointerDef}
		}

		want := pointerOf(original[i])
		have := pointerOf(record)
		if want != have {
			return &ShapeError{Index: i, Reason: fmt.Sprintf("pointer %q replaced by %q", want, have)}
		}
	}

	probe := document.New().Set(document.TagIndividual, got)

	result := validation.ValidateDocument(probe)
	if !result.IsValid {
		for _, finding := range result.Errors {
			if finding.Severity == validation.SeverityError {
				return &ShapeError{Index: -1, Reason: finding.Error()}
			}
		}
	}

	if _, err := gedwriter.Linearize(probe); err != nil {
		return &ShapeError{Index: -1, Reason: err.Error()}
	}

	return nil
}

func pointerOf(record any) string {
	doc, ok := record.(*document.Document)
	if !ok {
		return ""
	}
	value, _ := doc.Get(document.TagPointerDef)
	if value == nil {
		return ""
	}
	return fmt.Sprint(value)
}
