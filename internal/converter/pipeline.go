// =============================================================================
// FTZ to GEDCOM Converter - Conversion Pipeline
// =============================================================================
//
// This module chains the in-memory stages of a conversion. It has no file
// system access; converter.go wraps it with archive reading and output files.
//
// PIPELINE:
//   1. Parse the record file text into a tree         (fttparser)
//   2. Build the relationship indexes                  (indexer)
//   3. Build the tag document                          (gedbuilder)
//   4. Remove empty-string fields                      (document.Prune)
//   5. Linearize the document into GEDCOM lines        (gedwriter)
//
// =============================================================================

package converter

import (
	"errors"
	"fmt"
	"io"

	"github.com/ginjaninja78/FTZ-to-GEDCOM-conversion/internal/document"
	"github.com/ginjaninja78/FTZ-to-GEDCOM-conversion/internal/fttparser"
	"github.com/ginjaninja78/FTZ-to-GEDCOM-conversion/internal/gedbuilder"
	"github.com/ginjaninja78/FTZ-to-GEDCOM-conversion/internal/gedwriter"
	"github.com/ginjaninja78/FTZ-to-GEDCOM-conversion/internal/indexer"
	"github.com/ginjaninja78/FTZ-to-GEDCOM-conversion/internal/types"
	"github.com/ginjaninja78/FTZ-to-GEDCOM-conversion/internal/validation"
)

// Conversion holds every intermediate product of one conversion.
type Conversion struct {
	Tree     *types.Tree
	Indexes  indexer.Indexes
	Pointers gedbuilder.Pointers

	// Document is the pruned tag document.
	Document *document.Document

	// GEDCOM is the rendered text, each line terminated by "\n".
	GEDCOM string

	// Lines is the number of GEDCOM lines.
	Lines int
}

// ConvertText runs the full pipeline on decoded record file text.
//
// PARAMETERS:
//   - text: The node.ftt content.
//   - opts: Header options passed to the document builder.
//
// RETURNS:
//   - The conversion, or the parse or linearization error.
func ConvertText(text string, opts gedbuilder.Options) (*Conversion, error) {
	tree, err := fttparser.Parse(text)
	if err != nil {
		return nil, fmt.Errorf("failed to parse record file: %w", err)
	}

	idx := indexer.Build(tree)
	doc, ptrs := gedbuilder.Build(tree, idx, opts)
	doc = document.PruneDocument(doc)

	lines, err := gedwriter.Linearize(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to linearize document: %w", err)
	}

	return &Conversion{
		Tree:     tree,
		Indexes:  idx,
		Pointers: ptrs,
		Document: doc,
		GEDCOM:   gedwriter.Join(lines),
		Lines:    len(lines),
	}, nil
}

// RenderResult is the outcome of rendering an externally supplied document.
type RenderResult struct {
	Validation *validation.ValidationResult
	GEDCOM     string
	Lines      int
}

// ErrInvalidDocument is wrapped by RenderDocument when validation finds errors.
var ErrInvalidDocument = errors.New("document failed structural validation")

// RenderDocument validates, prunes and linearizes a document that may have
// been edited outside the converter. Documents with validation errors are
// refused; warnings are returned in the result.
func RenderDocument(doc *document.Document) (*RenderResult, error) {
	result := &RenderResult{Validation: validation.ValidateDocument(doc)}
	if !result.Validation.IsValid {
		return result, fmt.Errorf("%w: %d errors", ErrInvalidDocument, result.Validation.ErrorCount)
	}

	lines, err := gedwriter.Linearize(document.PruneDocument(doc))
	if err != nil {
		return result, fmt.Errorf("failed to linearize document: %w", err)
	}

	result.GEDCOM = gedwriter.Join(lines)
	result.Lines = len(lines)
	return result, nil
}

// RenderJSON decodes a JSON document from r and renders it.
func RenderJSON(r io.Reader) (*RenderResult, error) {
	doc, err := document.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("failed to decode document: %w", err)
	}
	return RenderDocument(doc)
}
