package codec

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tessera/internal/domain"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	tests := []struct {
		name     string
		value    domain.Value
		dataType domain.DataType
	}{
		{"text", domain.Text("hello"), domain.TypeText},
		{"empty text", domain.Text(""), domain.TypeText},
		{"integer", domain.Int(34), domain.TypeInt},
		{"negative integer", domain.Int(-1), domain.TypeInt},
		{"real", domain.Real(2.75), domain.TypeReal},
		{"bool true", domain.Bool(true), domain.TypeBool},
		{"bool false", domain.Bool(false), domain.TypeBool},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			slots, err := EncodeValue(tt.value)
			require.NoError(t, err)
			assert.Equal(t, 1, slots.populated())

			got, err := DecodeValue(tt.dataType, slots)
			require.NoError(t, err)
			assert.Equal(t, tt.value, got)
		})
	}
}

func TestEncodeRejectsUnsetTag(t *testing.T) {
	_, err := EncodeValue(domain.Value{})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrTypeMismatch)
}

func TestDecodeRejectsSlotMismatch(t *testing.T) {
	slots, err := EncodeValue(domain.Int(7))
	require.NoError(t, err)

	for _, dt := range []domain.DataType{domain.TypeText, domain.TypeReal, domain.TypeBool} {
		_, err := DecodeValue(dt, slots)
		assert.ErrorIs(t, err, domain.ErrTypeMismatch, string(dt))
	}
}

func TestDecodeRejectsCorruptRows(t *testing.T) {
	// No slot populated.
	_, err := DecodeValue(domain.TypeText, Slots{})
	assert.ErrorIs(t, err, domain.ErrTypeMismatch)

	// Two slots populated.
	_, err = DecodeValue(domain.TypeText, Slots{
		Text: sql.NullString{String: "x", Valid: true},
		Int:  sql.NullInt64{Int64: 1, Valid: true},
	})
	assert.ErrorIs(t, err, domain.ErrTypeMismatch)
}
