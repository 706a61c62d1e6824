// =============================================================================
// FTZ to GEDCOM Converter - GEDCOM Line Writer
// =============================================================================
//
// This module flattens a nested tag document into GEDCOM lines of the form
// "<level> <tag> [value]".
//
// WALK RULES:
//   - nested document -> "<level> <tag>", then its entries at level+1
//   - list            -> one line per element; document elements recurse
//   - scalar          -> "<level> <tag> <value>"
//
// PSEUDO-TAGS:
//   _PDEF turns the previous line "<l> <TAG>" into "<l> <value> <TAG>".
//   _PREF and _NAME turn it into "<l> <TAG> <value>".
//   The previous line must be the bare "<level-1> <TAG>" line opened for the
//   enclosing block. Anything else is a *PatchError.
//
// =============================================================================

package gedwriter

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/ginjaninja78/FTZ-to-GEDCOM-conversion/internal/document"
)

// PatchError reports a pseudo-tag that could not patch the previous line.
type PatchError struct {
	Tag    string
	Level  int
	Line   string
	Reason string
}

// Error implements the error interface.
func (e *PatchError) Error() string {
	if e.Line == "" {
		return fmt.Sprintf("cannot apply %s at level %d: %s", e.Tag, e.Level, e.Reason)
	}
	return fmt.Sprintf("cannot apply %s at level %d to line %q: %s", e.Tag, e.Level, e.Line, e.Reason)
}

// lineBuffer is the append-only line sequence. Only the last line is ever
// rewritten, by patch.
type lineBuffer struct {
	lines []string
}

func (b *lineBuffer) emit(level int, tag string) {
	b.lines = append(b.lines, strconv.Itoa(level)+" "+tag)
}

func (b *lineBuffer) emitValue(level int, tag string, value any) {
	if value == nil {
		b.emit(level, tag)
		return
	}
	b.lines = append(b.lines, strconv.Itoa(level)+" "+tag+" "+fmt.Sprint(value))
}

func (b *lineBuffer) patch(level int, tag string, value any) error {
	if len(b.lines) == 0 {
		return &PatchError{Tag: tag, Level: level, Reason: "no previous line"}
	}
	last := b.lines[len(b.lines)-1]

	fields := strings.Split(last, " ")
	if len(fields) != 2 {
		return &PatchError{Tag: tag, Level: level, Line: last, Reason: "previous line already has a value"}
	}
	if fields[0] != strconv.Itoa(level-1) {
		return &PatchError{Tag: tag, Level: level, Line: last, Reason: "previous line is not the enclosing record"}
	}

	text := fmt.Sprint(value)
	if tag == document.TagPointerDef {
		b.lines[len(b.lines)-1] = fields[0] + " " + text + " " + fields[1]
	} else {
		b.lines[len(b.lines)-1] = fields[0] + " " + fields[1] + " " + text
	}
	return nil
}

// =============================================================================
// PUBLIC API
// =============================================================================

// Linearize walks doc and returns the GEDCOM lines without terminators.
func Linearize(doc *document.Document) ([]string, error) {
	var buf lineBuffer
	if err := walk(&buf, doc, 0); err != nil {
		return nil, err
	}
	return buf.lines, nil
}

// Render returns the GEDCOM text: every line followed by "\n".
func Render(doc *document.Document) (string, error) {
	lines, err := Linearize(doc)
	if err != nil {
		return "", err
	}
	return Join(lines), nil
}

// Join terminates every line with "\n". No lines give "".
func Join(lines []string) string {
	if len(lines) == 0 {
		return ""
	}
	return strings.Join(lines, "\n") + "\n"
}

// Write renders doc to w.
func Write(w io.Writer, doc *document.Document) (int, error) {
	text, err := Render(doc)
	if err != nil {
		return 0, err
	}
	return io.WriteString(w, text)
}

func walk(buf *lineBuffer, doc *document.Document, level int) error {
	return doc.Each(func(tag string, value any) error {
		if document.IsPseudoTag(tag) {
			return buf.patch(level, tag, value)
		}

		switch v := value.(type) {
		case *document.Document:
			buf.emit(level, tag)
			return walk(buf, v, level+1)

		case []any:
			for _, item := range v {
				if sub, ok := item.(*document.Document); ok {
					buf.emit(level, tag)
					if err := walk(buf, sub, level+1); err != nil {
						return err
					}
					continue
				}
				buf.emitValue(level, tag, item)
			}
			return nil

		default:
			buf.emitValue(level, tag, v)
			return nil
		}
	})
}
