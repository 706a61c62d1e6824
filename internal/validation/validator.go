// =============================================================================
// FTZ to GEDCOM Converter - Document Validation
// =============================================================================
//
// This module checks the structure of a tag document before it is written
// as GEDCOM. Documents produced by the builder always pass; the checks exist
// for documents read back from JSON, for example after enrichment, where
// keys may have been reordered, renamed or dropped.
//
// RULES:
//   record_list          INDI and FAM must be lists of blocks            (error)
//   pointer_definition   every INDI/FAM record starts with _PDEF         (error)
//   pointer_format       pointers look like @X0001@                      (error)
//   duplicate_pointer    a pointer is defined once                       (error)
//   pseudo_tag_position  _PDEF/_PREF/_NAME only as first key of a block  (error)
//   tag_name             tags are non-empty and contain no whitespace    (error)
//   nested_list          lists do not contain lists                      (error)
//   undefined_pointer    references resolve to a defined pointer         (warning)
//   missing_record       HEAD and TRLR are present                       (warning)
//
// ERROR HANDLING:
//   Errors are collected, not returned one by one. Callers decide what to do
//   with warnings.
//
// =============================================================================

package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/ginjaninja78/FTZ-to-GEDCOM-conversion/internal/document"
)

// Severity levels.
const (
	SeverityError   = "error"
	SeverityWarning = "warning"
)

var pointerPattern = regexp.MustCompile(`^@[A-Za-z0-9_]+@$`)

// =============================================================================
// VALIDATION ERROR TYPES
// =============================================================================

// ValidationError represents a single validation finding.
type ValidationError struct {
	// Severity is SeverityError or SeverityWarning.
	Severity string

	// Path locates the entry, e.g. INDI[3].NAME.
	Path string

	// Value is the offending value, if any.
	Value string

	// Rule is the rule name from the table above.
	Rule string

	// Message is a human-readable description.
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("[%s] %s: %s", strings.ToUpper(e.Severity), e.Path, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s (value: '%s')", strings.ToUpper(e.Severity), e.Path, e.Message, e.Value)
}

// =============================================================================
// VALIDATION RESULT
// =============================================================================

// ValidationResult contains the results of validation.
type ValidationResult struct {
	// IsValid is true if there are no errors (and, with
	// TreatWarningsAsErrors, no warnings).
	IsValid bool

	// Errors contains all findings, warnings included, in document order.
	Errors []*ValidationError

	ErrorCount   int
	WarningCount int

	// RecordsValidated counts INDI and FAM records inspected.
	RecordsValidated int
}

// ValidationOptions contains options for validation.
type ValidationOptions struct {
	// StopOnFirstError stops after the first error-level finding.
	StopOnFirstError bool

	// TreatWarningsAsErrors makes any warning invalidate the result.
	TreatWarningsAsErrors bool
}

// DefaultValidationOptions returns the default validation options.
func DefaultValidationOptions() ValidationOptions {
	return ValidationOptions{}
}

// =============================================================================
// VALIDATOR
// =============================================================================

// Validator checks tag documents.
type Validator struct {
	options ValidationOptions
}

// NewValidator creates a Validator with default options.
func NewValidator() *Validator {
	return &Validator{options: DefaultValidationOptions()}
}

// NewValidatorWithOptions creates a Validator with custom options.
func NewValidatorWithOptions(options ValidationOptions) *Validator {
	return &Validator{options: options}
}

// ValidateDocument validates doc with default options.
func ValidateDocument(doc *document.Document) *ValidationResult {
	return NewValidator().Validate(doc)
}

// reference is a pointer value seen outside a _PDEF entry.
type reference struct {
	path  string
	value string
}

// run holds state for one Validate call.
type run struct {
	findings    []*ValidationError
	definitions map[string]string
	references  []reference
	records     int
}

func (r *run) add(severity, path, value, rule, message string) {
	r.findings = append(r.findings, &ValidationError{
		Severity: severity,
		Path:     path,
		Value:    value,
		Rule:     rule,
		Message:  message,
	})
}

// Validate checks doc and returns every finding.
func (v *Validator) Validate(doc *document.Document) *ValidationResult {
	r := &run{definitions: make(map[string]string)}

	for _, tag := range []string{document.TagHeader, document.TagTrailer} {
		if _, ok := doc.Get(tag); !ok {
			r.add(SeverityWarning, tag, "", "missing_record", fmt.Sprintf("top-level %s is missing", tag))
		}
	}

	for _, tag := range []string{document.TagIndividual, document.TagFamily} {
		value, ok := doc.Get(tag)
		if !ok {
			continue
		}
		if _, isList := doc.List(tag); !isList {
			r.add(SeverityError, tag, "", "record_list", fmt.Sprintf("%s must be a list of records, got %s", tag, describe(value)))
			continue
		}
		records, _ := doc.List(tag)
		for i, record := range records {
			r.records++
			if keys := record.Keys(); len(keys) == 0 || keys[0] != document.TagPointerDef {
				r.add(SeverityError, fmt.Sprintf("%s[%d]", tag, i), "", "pointer_definition",
					fmt.Sprintf("record does not start with %s", document.TagPointerDef))
			}
		}
	}

	r.walkDocument(doc, "", true)

	for _, ref := range r.references {
		if _, ok := r.definitions[ref.value]; !ok {
			r.add(SeverityWarning, ref.path, ref.value, "undefined_pointer", "reference to an undefined pointer")
		}
	}

	return v.summarize(r)
}

func (v *Validator) summarize(r *run) *ValidationResult {
	result := &ValidationResult{
		IsValid:          true,
		Errors:           make([]*ValidationError, 0, len(r.findings)),
		RecordsValidated: r.records,
	}

	for _, finding := range r.findings {
		result.Errors = append(result.Errors, finding)

		if finding.Severity == SeverityError {
			result.ErrorCount++
			result.IsValid = false
			if v.options.StopOnFirstError {
				return result
			}
			continue
		}

		result.WarningCount++
		if v.options.TreatWarningsAsErrors {
			result.IsValid = false
		}
	}

	return result
}

// =============================================================================
// STRUCTURAL WALK
// =============================================================================

func (r *run) walkDocument(doc *document.Document, path string, topLevel bool) {
	position := 0
	_ = doc.Each(func(tag string, value any) error {
		entryPath := joinPath(path, tag)
		first := position == 0
		position++

		if !validTag(tag) {
			r.add(SeverityError, entryPath, tag, "tag_name", "tag must be non-empty and contain no whitespace")
		}

		if document.IsPseudoTag(tag) {
			r.checkPseudoTag(tag, value, entryPath, first && !topLevel)
			return nil
		}

		r.walkValue(value, entryPath)
		return nil
	})
}

func (r *run) walkValue(value any, path string) {
	switch v := value.(type) {
	case *document.Document:
		r.walkDocument(v, path, false)
	case []any:
		for i, item := range v {
			itemPath := fmt.Sprintf("%s[%d]", path, i)
			if _, nested := item.([]any); nested {
				r.add(SeverityError, itemPath, "", "nested_list", "a list cannot contain a list")
				continue
			}
			r.walkValue(item, itemPath)
		}
	case string:
		if pointerPattern.MatchString(v) {
			r.references = append(r.references, reference{path: path, value: v})
		}
	}
}

func (r *run) checkPseudoTag(tag string, value any, path string, allowed bool) {
	if !allowed {
		r.add(SeverityError, path, "", "pseudo_tag_position",
			fmt.Sprintf("%s must be the first key of a nested block", tag))
	}

	text, isString := value.(string)

	switch tag {
	case document.TagPointerDef:
		if !isString || !pointerPattern.MatchString(text) {
			r.add(SeverityError, path, fmt.Sprint(value), "pointer_format", "malformed pointer")
			return
		}
		if previous, dup := r.definitions[text]; dup {
			r.add(SeverityError, path, text, "duplicate_pointer", "pointer already defined at "+previous)
			return
		}
		r.definitions[text] = path

	case document.TagPointerRef:
		if !isString || !pointerPattern.MatchString(text) {
			r.add(SeverityError, path, fmt.Sprint(value), "pointer_format", "malformed pointer")
			return
		}
		r.references = append(r.references, reference{path: path, value: text})
	}
}

// =============================================================================
// UTILITY FUNCTIONS
// =============================================================================

func validTag(tag string) bool {
	if tag == "" {
		return false
	}
	return strings.IndexFunc(tag, unicode.IsSpace) < 0
}

func joinPath(parent, tag string) string {
	if parent == "" {
		return tag
	}
	return parent + "." + tag
}

func describe(value any) string {
	switch value.(type) {
	case *document.Document:
		return "a block"
	case []any:
		return "a list with non-block items"
	case nil:
		return "null"
	default:
		return fmt.Sprintf("%T", value)
	}
}
