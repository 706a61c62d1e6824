// =============================================================================
// FTZ to GEDCOM Converter - Tag Document
// =============================================================================
//
// This module holds the nested, tag-keyed document that sits between the
// builder and the line writer. A Document is an insertion-ordered map from tag
// to value. Values are one of:
//
//   - string, int, json.Number, bool or nil  (scalar line value)
//   - *Document                               (nested block)
//   - []any                                   (repeated siblings)
//
// Key order matters: the writer emits lines in that order and the pointer
// pseudo-tags must come first in the block they annotate. The JSON codec in
// json.go keeps that order on the way out and on the way back in.
//
// =============================================================================

package document

import (
	"github.com/elliotchance/orderedmap/v2"
)

// Document is an ordered map from tag to value.
// The zero value is an empty document ready to use.
type Document struct {
	entries *orderedmap.OrderedMap[string, any]
}

// New returns an empty document.
func New() *Document {
	return &Document{entries: orderedmap.NewOrderedMap[string, any]()}
}

// Set stores value under tag and returns the document for chaining.
// Setting an existing tag replaces its value and keeps its position.
func (d *Document) Set(tag string, value any) *Document {
	if d.entries == nil {
		d.entries = orderedmap.NewOrderedMap[string, any]()
	}
	d.entries.Set(tag, value)
	return d
}

// Get returns the value stored under tag.
func (d *Document) Get(tag string) (any, bool) {
	if d == nil || d.entries == nil {
		return nil, false
	}
	return d.entries.Get(tag)
}

// Delete removes tag and reports whether it was present.
func (d *Document) Delete(tag string) bool {
	if d == nil || d.entries == nil {
		return false
	}
	return d.entries.Delete(tag)
}

// Len returns the number of entries.
func (d *Document) Len() int {
	if d == nil || d.entries == nil {
		return 0
	}
	return d.entries.Len()
}

// Keys returns the tags in insertion order.
func (d *Document) Keys() []string {
	if d == nil || d.entries == nil {
		return nil
	}
	return d.entries.Keys()
}

// Each calls fn for every entry in order and stops at the first error.
func (d *Document) Each(fn func(tag string, value any) error) error {
	if d == nil || d.entries == nil {
		return nil
	}
	for el := d.entries.Front(); el != nil; el = el.Next() {
		if err := fn(el.Key, el.Value); err != nil {
			return err
		}
	}
	return nil
}

// List returns the value under tag as a list of sub-documents.
// The second result is false when the tag is missing or holds anything else.
func (d *Document) List(tag string) ([]*Document, bool) {
	value, ok := d.Get(tag)
	if !ok {
		return nil, false
	}
	items, ok := value.([]any)
	if !ok {
		return nil, false
	}
	docs := make([]*Document, 0, len(items))
	for _, item := range items {
		doc, ok := item.(*Document)
		if !ok {
			return nil, false
		}
		docs = append(docs, doc)
	}
	return docs, true
}

// Clone returns a deep copy. Nested documents and lists are copied; scalars
// are shared.
func (d *Document) Clone() *Document {
	out := New()
	_ = d.Each(func(tag string, value any) error {
		out.Set(tag, cloneValue(value))
		return nil
	})
	return out
}

func cloneValue(value any) any {
	switch v := value.(type) {
	case *Document:
		return v.Clone()
	case []any:
		items := make([]any, len(v))
		for i, item := range v {
			items[i] = cloneValue(item)
		}
		return items
	default:
		return v
	}
}

// =============================================================================
// PRUNING
// =============================================================================

// Prune returns a copy of value with every empty-string or null field removed,
// at any depth. Empty documents and empty lists are kept. Prune never modifies its
// input and Prune(Prune(v)) equals Prune(v).
func Prune(value any) any {
	switch v := value.(type) {
	case *Document:
		out := New()
		_ = v.Each(func(tag string, item any) error {
			if isEmpty(item) {
				return nil
			}
			out.Set(tag, Prune(item))
			return nil
		})
		return out
	case []any:
		items := make([]any, 0, len(v))
		for _, item := range v {
			if isEmpty(item) {
				continue
			}
			items = append(items, Prune(item))
		}
		return items
	default:
		return v
	}
}

// PruneDocument is Prune for a whole document.
func PruneDocument(doc *Document) *Document {
	return Prune(doc).(*Document)
}

func isEmpty(value any) bool {
	if value == nil {
		return true
	}
	s, ok := value.(string)
	return ok && s == ""
}
