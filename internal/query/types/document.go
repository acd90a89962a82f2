package types

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

// Path identifies a field inside a document using dot notation,
// e.g. "address.city" or "tags.0".
type Path string

// Segments splits the path at dots.
func (p Path) Segments() []string {
	return strings.Split(string(p), ".")
}

// Field is a single named value inside a document.
type Field struct {
	Name  string
	Value Value
}

// Document is an ordered collection of fields. Field order is
// preserved from the source representation.
type Document struct {
	Fields []Field
}

// NewDocument creates a document from the given fields.
func NewDocument(fields ...Field) Document {
	return Document{Fields: fields}
}

// Get returns the top-level field with the given name.
func (d Document) Get(name string) (Value, bool) {
	for _, f := range d.Fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return Value{}, false
}

// Lookup resolves a dotted path against the document. Intermediate
// arrays are traversed by numeric segment only.
func (d Document) Lookup(path Path) (Value, bool) {
	current := NewValue(d)
	for _, seg := range path.Segments() {
		switch data := current.Data.(type) {
		case Document:
			v, ok := data.Get(seg)
			if !ok {
				return Value{}, false
			}
			current = v
		case []Value:
			idx, err := strconv.Atoi(seg)
			if err != nil || idx < 0 || idx >= len(data) {
				return Value{}, false
			}
			current = data[idx]
		default:
			return Value{}, false
		}
	}
	return current, true
}

// String returns a compact representation used in plan output.
func (d Document) String() string {
	parts := make([]string, len(d.Fields))
	for i, f := range d.Fields {
		parts[i] = fmt.Sprintf("%s: %s", f.Name, f.Value.String())
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// ParseDocument parses a JSON object into a Document.
func ParseDocument(raw string) (Document, error) {
	if !gjson.Valid(raw) {
		return Document{}, fmt.Errorf("invalid JSON document")
	}
	result := gjson.Parse(raw)
	if !result.IsObject() {
		return Document{}, fmt.Errorf("expected JSON object, got %s", result.Type)
	}
	return documentFromResult(result), nil
}

func documentFromResult(result gjson.Result) Document {
	var doc Document
	result.ForEach(func(key, value gjson.Result) bool {
		doc.Fields = append(doc.Fields, Field{Name: key.String(), Value: valueFromResult(value)})
		return true
	})
	return doc
}

// ValueFromJSON converts a parsed JSON value into a Value.
func ValueFromJSON(result gjson.Result) Value {
	return valueFromResult(result)
}

// valueFromResult converts a parsed JSON value. Integral numbers
// without a fractional literal become int64.
func valueFromResult(result gjson.Result) Value {
	switch result.Type {
	case gjson.Null:
		return NewNullValue()
	case gjson.True:
		return NewValue(true)
	case gjson.False:
		return NewValue(false)
	case gjson.String:
		return NewValue(result.String())
	case gjson.Number:
		if !strings.ContainsAny(result.Raw, ".eE") {
			return NewValue(result.Int())
		}
		return NewValue(result.Float())
	default:
		if result.IsArray() {
			elems := result.Array()
			arr := make([]Value, len(elems))
			for i, elem := range elems {
				arr[i] = valueFromResult(elem)
			}
			return NewValue(arr)
		}
		if result.IsObject() {
			return NewValue(documentFromResult(result))
		}
		return NewNullValue()
	}
}
