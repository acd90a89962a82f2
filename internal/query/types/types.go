package types

import (
	"fmt"
	"strings"
	"time"
)

// SortClass orders values of different kinds relative to each other.
// Within a class, values compare by their natural ordering; across
// classes the class rank decides.
type SortClass int

const (
	ClassNull SortClass = iota
	ClassNumber
	ClassString
	ClassDocument
	ClassArray
	ClassBinary
	ClassBoolean
	ClassDateTime
)

// Name returns the class name used in diagnostics.
func (c SortClass) Name() string {
	switch c {
	case ClassNull:
		return "null"
	case ClassNumber:
		return "number"
	case ClassString:
		return "string"
	case ClassDocument:
		return "document"
	case ClassArray:
		return "array"
	case ClassBinary:
		return "binary"
	case ClassBoolean:
		return "boolean"
	case ClassDateTime:
		return "datetime"
	default:
		return "unknown"
	}
}

// Value represents a single field value inside a document.
type Value struct {
	Data interface{}
	Null bool
}

// NewValue creates a non-null value.
func NewValue(data interface{}) Value {
	return Value{Data: data, Null: false}
}

// NewNullValue creates a null value.
func NewNullValue() Value {
	return Value{Data: nil, Null: true}
}

// IsNull returns true if the value is null.
func (v Value) IsNull() bool {
	return v.Null
}

// Class returns the sort class of the value based on its underlying type.
func (v Value) Class() SortClass {
	if v.Null {
		return ClassNull
	}
	switch v.Data.(type) {
	case int32, int64, int, float64:
		return ClassNumber
	case string:
		return ClassString
	case Document:
		return ClassDocument
	case []Value:
		return ClassArray
	case []byte:
		return ClassBinary
	case bool:
		return ClassBoolean
	case time.Time:
		return ClassDateTime
	default:
		return ClassNull
	}
}

// String returns a compact representation used in plan output.
func (v Value) String() string {
	if v.Null {
		return "null"
	}
	switch val := v.Data.(type) {
	case string:
		return fmt.Sprintf("%q", val)
	case []Value:
		parts := make([]string, len(val))
		for i, elem := range val {
			parts[i] = elem.String()
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case Document:
		return val.String()
	case []byte:
		return fmt.Sprintf("binary(%d)", len(val))
	case time.Time:
		return val.UTC().Format(time.RFC3339)
	default:
		return fmt.Sprintf("%v", val)
	}
}

// AsString returns the value as a string.
func (v Value) AsString() (string, error) {
	if v.Null {
		return "", fmt.Errorf("cannot convert null to string")
	}
	if s, ok := v.Data.(string); ok {
		return s, nil
	}
	return "", fmt.Errorf("cannot convert %T to string", v.Data)
}

// AsInt64 returns the value as an int64.
func (v Value) AsInt64() (int64, error) {
	if v.Null {
		return 0, fmt.Errorf("cannot convert null to int64")
	}
	switch val := v.Data.(type) {
	case int64:
		return val, nil
	case int32:
		return int64(val), nil
	case int:
		return int64(val), nil
	case float64:
		return int64(val), nil
	default:
		return 0, fmt.Errorf("cannot convert %T to int64", v.Data)
	}
}

// AsFloat64 returns the value as a float64.
func (v Value) AsFloat64() (float64, error) {
	if v.Null {
		return 0, fmt.Errorf("cannot convert null to float64")
	}
	switch val := v.Data.(type) {
	case float64:
		return val, nil
	case int64:
		return float64(val), nil
	case int32:
		return float64(val), nil
	case int:
		return float64(val), nil
	default:
		return 0, fmt.Errorf("cannot convert %T to float64", v.Data)
	}
}

// AsBool returns the value as a boolean.
func (v Value) AsBool() (bool, error) {
	if v.Null {
		return false, fmt.Errorf("cannot convert null to bool")
	}
	if b, ok := v.Data.(bool); ok {
		return b, nil
	}
	return false, fmt.Errorf("cannot convert %T to bool", v.Data)
}

// AsArray returns the value as an array of values.
func (v Value) AsArray() ([]Value, error) {
	if v.Null {
		return nil, fmt.Errorf("cannot convert null to array")
	}
	if arr, ok := v.Data.([]Value); ok {
		return arr, nil
	}
	return nil, fmt.Errorf("cannot convert %T to array", v.Data)
}

// AsDocument returns the value as a nested document.
func (v Value) AsDocument() (Document, error) {
	if v.Null {
		return Document{}, fmt.Errorf("cannot convert null to document")
	}
	if doc, ok := v.Data.(Document); ok {
		return doc, nil
	}
	return Document{}, fmt.Errorf("cannot convert %T to document", v.Data)
}

// Equal returns true if two values are equal under CompareValues.
func (v Value) Equal(other Value) bool {
	return CompareValues(v, other) == 0
}

// CompareValues compares two values. Values of different classes order
// by class rank; null sorts before everything else.
func CompareValues(a, b Value) int {
	ca, cb := a.Class(), b.Class()
	if ca != cb {
		if ca < cb {
			return -1
		}
		return 1
	}
	switch ca {
	case ClassNull:
		return 0
	case ClassNumber:
		fa, _ := a.AsFloat64()
		fb, _ := b.AsFloat64()
		if fa < fb {
			return -1
		} else if fa > fb {
			return 1
		}
		return 0
	case ClassString:
		sa := a.Data.(string)
		sb := b.Data.(string)
		return strings.Compare(sa, sb)
	case ClassBoolean:
		ba := a.Data.(bool)
		bb := b.Data.(bool)
		if !ba && bb {
			return -1
		} else if ba && !bb {
			return 1
		}
		return 0
	case ClassDateTime:
		ta := a.Data.(time.Time)
		tb := b.Data.(time.Time)
		if ta.Before(tb) {
			return -1
		} else if ta.After(tb) {
			return 1
		}
		return 0
	case ClassArray:
		return compareArrays(a.Data.([]Value), b.Data.([]Value))
	case ClassDocument:
		return compareDocuments(a.Data.(Document), b.Data.(Document))
	case ClassBinary:
		return strings.Compare(string(a.Data.([]byte)), string(b.Data.([]byte)))
	}
	// Unknown Go types indicate a bug in document construction.
	panic(fmt.Sprintf("CompareValues: unsupported types: %T vs %T", a.Data, b.Data))
}

func compareArrays(a, b []Value) int {
	for i := 0; i < len(a) && i < len(b); i++ {
		if c := CompareValues(a[i], b[i]); c != 0 {
			return c
		}
	}
	switch {
	case len(a) < len(b):
		return -1
	case len(a) > len(b):
		return 1
	default:
		return 0
	}
}

func compareDocuments(a, b Document) int {
	for i := 0; i < len(a.Fields) && i < len(b.Fields); i++ {
		fa, fb := a.Fields[i], b.Fields[i]
		if c := strings.Compare(fa.Name, fb.Name); c != 0 {
			return c
		}
		if c := CompareValues(fa.Value, fb.Value); c != 0 {
			return c
		}
	}
	switch {
	case len(a.Fields) < len(b.Fields):
		return -1
	case len(a.Fields) > len(b.Fields):
		return 1
	default:
		return 0
	}
}
