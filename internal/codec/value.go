// Package codec converts tagged property values to and from their typed
// column slots. Each data type has an explicit encode/decode pair; no runtime
// type introspection is involved, and the codec is testable independently of
// the storage engine.
package codec

import (
	"database/sql"
	"fmt"

	"tessera/internal/domain"
)

// Slots is the columnar form of one attribute value: exactly one of the four
// slots is valid. Booleans travel as integers, matching the column type.
type Slots struct {
	Text sql.NullString
	Int  sql.NullInt64
	Real sql.NullFloat64
	Bool sql.NullInt64
}

// populated counts the valid slots.
func (s Slots) populated() int {
	n := 0
	for _, valid := range []bool{s.Text.Valid, s.Int.Valid, s.Real.Valid, s.Bool.Valid} {
		if valid {
			n++
		}
	}
	return n
}

// EncodeValue maps a tagged value onto its column slot, leaving the other
// three null.
func EncodeValue(v domain.Value) (Slots, error) {
	switch v.Type {
	case domain.TypeText:
		return Slots{Text: sql.NullString{String: v.AsText(), Valid: true}}, nil
	case domain.TypeInt:
		return Slots{Int: sql.NullInt64{Int64: v.AsInt(), Valid: true}}, nil
	case domain.TypeReal:
		return Slots{Real: sql.NullFloat64{Float64: v.AsReal(), Valid: true}}, nil
	case domain.TypeBool:
		return Slots{Bool: sql.NullInt64{Int64: boolToInt(v.AsBool()), Valid: true}}, nil
	}
	return Slots{}, fmt.Errorf("encode value: %w: unknown tag %q", domain.ErrTypeMismatch, v.Type)
}

// DecodeValue reads the slot declared by the attribute's data type. A row
// whose populated slot disagrees with the declaration is reported as a type
// mismatch rather than silently coerced.
func DecodeValue(dataType domain.DataType, s Slots) (domain.Value, error) {
	if s.populated() != 1 {
		return domain.Value{}, fmt.Errorf("decode value: %w: %d slots populated", domain.ErrTypeMismatch, s.populated())
	}

	switch dataType {
	case domain.TypeText:
		if !s.Text.Valid {
			return domain.Value{}, slotMismatch(dataType)
		}
		return domain.Text(s.Text.String), nil
	case domain.TypeInt:
		if !s.Int.Valid {
			return domain.Value{}, slotMismatch(dataType)
		}
		return domain.Int(s.Int.Int64), nil
	case domain.TypeReal:
		if !s.Real.Valid {
			return domain.Value{}, slotMismatch(dataType)
		}
		return domain.Real(s.Real.Float64), nil
	case domain.TypeBool:
		if !s.Bool.Valid {
			return domain.Value{}, slotMismatch(dataType)
		}
		return domain.Bool(s.Bool.Int64 != 0), nil
	}
	return domain.Value{}, fmt.Errorf("decode value: %w: unknown data type %q", domain.ErrTypeMismatch, dataType)
}

func slotMismatch(dataType domain.DataType) error {
	return fmt.Errorf("decode value: %w: populated slot does not match declared type %q", domain.ErrTypeMismatch, dataType)
}

func boolToInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}
