package document

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
)

// MarshalJSON encodes the document as a JSON object with keys in order.
func (d *Document) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')

	first := true
	err := d.Each(func(tag string, value any) error {
		if !first {
			buf.WriteByte(',')
		}
		first = false

		if err := encodeValue(&buf, tag); err != nil {
			return err
		}
		buf.WriteByte(':')

		if err := encodeValue(&buf, value); err != nil {
			return fmt.Errorf("encoding %q: %w", tag, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// encodeValue writes value without HTML escaping and without the newline
// json.Encoder appends.
func encodeValue(buf *bytes.Buffer, value any) error {
	var tmp bytes.Buffer
	enc := json.NewEncoder(&tmp)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(value); err != nil {
		return err
	}
	buf.Write(bytes.TrimSuffix(tmp.Bytes(), []byte("\n")))
	return nil
}

// UnmarshalJSON decodes a JSON object keeping key order. Nested objects
// become *Document, arrays become []any and numbers stay json.Number.
func (d *Document) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	doc, err := decodeTopLevel(dec)
	if err != nil {
		return err
	}
	*d = *doc
	return nil
}

// Decode reads one JSON object from r. Trailing content after the object is
// an error.
func Decode(r io.Reader) (*Document, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	doc, err := decodeTopLevel(dec)
	if err != nil {
		return nil, err
	}
	if err := expectEOF(dec, "object"); err != nil {
		return nil, err
	}
	return doc, nil
}

// Encode writes doc to w as indented JSON.
func Encode(w io.Writer, doc *Document) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

// DecodeList parses data as a single JSON array, keeping key order inside
// nested objects. Trailing content after the array is an error.
func DecodeList(data []byte) ([]any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '[' {
		return nil, fmt.Errorf("expected a JSON array, got %v", tok)
	}
	items, err := decodeArray(dec)
	if err != nil {
		return nil, err
	}
	if err := expectEOF(dec, "array"); err != nil {
		return nil, err
	}
	return items, nil
}

func expectEOF(dec *json.Decoder, what string) error {
	if _, err := dec.Token(); err != io.EOF {
		return fmt.Errorf("unexpected content after %s", what)
	}
	return nil
}

func decodeTopLevel(dec *json.Decoder) (*Document, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("document must be a JSON object, got %v", tok)
	}
	return decodeObject(dec)
}

// decodeObject reads entries up to and including the closing brace.
func decodeObject(dec *json.Decoder) (*Document, error) {
	doc := New()
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		tag, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected object key %v", tok)
		}
		value, err := decodeValue(dec)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", tag, err)
		}
		doc.Set(tag, value)
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return doc, nil
}

func decodeArray(dec *json.Decoder) ([]any, error) {
	items := []any{}
	for dec.More() {
		value, err := decodeValue(dec)
		if err != nil {
			return nil, err
		}
		items = append(items, value)
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return items, nil
}

func decodeValue(dec *json.Decoder) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	delim, ok := tok.(json.Delim)
	if !ok {
		return tok, nil
	}
	switch delim {
	case '{':
		return decodeObject(dec)
	case '[':
		return decodeArray(dec)
	default:
		return nil, fmt.Errorf("unexpected %q", delim)
	}
}
