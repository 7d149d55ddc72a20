package domain

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// DataType is the declared type of an attribute. It constrains which slot of a
// Value may be populated for that attribute.
type DataType string

const (
	TypeText DataType = "text"
	TypeInt  DataType = "integer"
	TypeReal DataType = "real"
	TypeBool DataType = "boolean"
)

// Valid reports whether the data type is one of the four supported types.
func (t DataType) Valid() bool {
	switch t {
	case TypeText, TypeInt, TypeReal, TypeBool:
		return true
	}
	return false
}

// Value is a tagged union holding exactly one typed property value. The zero
// Value is invalid; construct values through Text, Int, Real and Bool.
type Value struct {
	Type DataType
	text string
	num  int64
	real float64
	flag bool
}

// Text builds a text value.
func Text(s string) Value { return Value{Type: TypeText, text: s} }

// Int builds an integer value.
func Int(i int64) Value { return Value{Type: TypeInt, num: i} }

// Real builds a floating-point value.
func Real(f float64) Value { return Value{Type: TypeReal, real: f} }

// Bool builds a boolean value.
func Bool(b bool) Value { return Value{Type: TypeBool, flag: b} }

// AsText returns the text slot. Only meaningful when Type is TypeText.
func (v Value) AsText() string { return v.text }

// AsInt returns the integer slot. Only meaningful when Type is TypeInt.
func (v Value) AsInt() int64 { return v.num }

// AsReal returns the real slot. Only meaningful when Type is TypeReal.
func (v Value) AsReal() float64 { return v.real }

// AsBool returns the boolean slot. Only meaningful when Type is TypeBool.
func (v Value) AsBool() bool { return v.flag }

// Matches reports whether the value's runtime tag satisfies the declared type.
func (v Value) Matches(t DataType) bool { return v.Type == t }

// Any returns the populated slot as an untyped value for display aggregation.
func (v Value) Any() any {
	switch v.Type {
	case TypeText:
		return v.text
	case TypeInt:
		return v.num
	case TypeReal:
		return v.real
	case TypeBool:
		return v.flag
	}
	return nil
}

// String renders the populated slot for labels and error messages.
func (v Value) String() string {
	switch v.Type {
	case TypeText:
		return v.text
	case TypeInt:
		return strconv.FormatInt(v.num, 10)
	case TypeReal:
		return strconv.FormatFloat(v.real, 'g', -1, 64)
	case TypeBool:
		return strconv.FormatBool(v.flag)
	}
	return ""
}

// valueJSON is the wire form of a Value: an explicit tag plus the raw payload.
type valueJSON struct {
	Type  DataType        `json:"type"`
	Value json.RawMessage `json:"value"`
}

// MarshalJSON encodes the value in its tagged wire form.
func (v Value) MarshalJSON() ([]byte, error) {
	if !v.Type.Valid() {
		return nil, fmt.Errorf("marshal value: %w: unset value tag", ErrTypeMismatch)
	}
	payload, err := json.Marshal(v.Any())
	if err != nil {
		return nil, err
	}
	return json.Marshal(valueJSON{Type: v.Type, Value: payload})
}

// UnmarshalJSON decodes the tagged wire form, rejecting payloads whose JSON
// type disagrees with the tag.
func (v *Value) UnmarshalJSON(data []byte) error {
	var wire valueJSON
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	if !wire.Type.Valid() {
		return fmt.Errorf("unmarshal value: %w: unknown type %q", ErrTypeMismatch, wire.Type)
	}

	switch wire.Type {
	case TypeText:
		var s string
		if err := json.Unmarshal(wire.Value, &s); err != nil {
			return fmt.Errorf("unmarshal value: %w: %s payload is not a string", ErrTypeMismatch, wire.Type)
		}
		*v = Text(s)
	case TypeInt:
		var i int64
		if err := json.Unmarshal(wire.Value, &i); err != nil {
			return fmt.Errorf("unmarshal value: %w: %s payload is not an integer", ErrTypeMismatch, wire.Type)
		}
		*v = Int(i)
	case TypeReal:
		var f float64
		if err := json.Unmarshal(wire.Value, &f); err != nil {
			return fmt.Errorf("unmarshal value: %w: %s payload is not a number", ErrTypeMismatch, wire.Type)
		}
		*v = Real(f)
	case TypeBool:
		var b bool
		if err := json.Unmarshal(wire.Value, &b); err != nil {
			return fmt.Errorf("unmarshal value: %w: %s payload is not a boolean", ErrTypeMismatch, wire.Type)
		}
		*v = Bool(b)
	}
	return nil
}
