package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValueConstructors(t *testing.T) {
	tests := []struct {
		name  string
		value Value
		typ   DataType
		any   any
		str   string
	}{
		{"text", Text("hello"), TypeText, "hello", "hello"},
		{"integer", Int(34), TypeInt, int64(34), "34"},
		{"real", Real(2.5), TypeReal, 2.5, "2.5"},
		{"bool", Bool(true), TypeBool, true, "true"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.typ, tt.value.Type)
			assert.True(t, tt.value.Matches(tt.typ))
			assert.Equal(t, tt.any, tt.value.Any())
			assert.Equal(t, tt.str, tt.value.String())
		})
	}
}

func TestValueMatchesRejectsOtherTypes(t *testing.T) {
	v := Int(34)
	assert.False(t, v.Matches(TypeText))
	assert.False(t, v.Matches(TypeReal))
	assert.False(t, v.Matches(TypeBool))
}

func TestValueJSONRoundTrip(t *testing.T) {
	tests := []struct {
		name  string
		value Value
	}{
		{"text", Text("Ada")},
		{"empty text", Text("")},
		{"integer", Int(-7)},
		{"real", Real(3.25)},
		{"bool false", Bool(false)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := json.Marshal(tt.value)
			require.NoError(t, err)

			var got Value
			require.NoError(t, json.Unmarshal(data, &got))
			assert.Equal(t, tt.value, got)
		})
	}
}

func TestValueJSONRejectsMismatchedPayload(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"string for integer", `{"type":"integer","value":"not a number"}`},
		{"float for integer", `{"type":"integer","value":3.5}`},
		{"number for text", `{"type":"text","value":12}`},
		{"string for bool", `{"type":"boolean","value":"yes"}`},
		{"unknown tag", `{"type":"blob","value":"x"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var v Value
			err := json.Unmarshal([]byte(tt.raw), &v)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrTypeMismatch)
		})
	}
}

func TestZeroValueDoesNotMarshal(t *testing.T) {
	var v Value
	_, err := json.Marshal(v)
	require.Error(t, err)
}

func TestDataTypeValid(t *testing.T) {
	for _, dt := range []DataType{TypeText, TypeInt, TypeReal, TypeBool} {
		assert.True(t, dt.Valid(), string(dt))
	}
	assert.False(t, DataType("blob").Valid())
	assert.False(t, DataType("").Valid())
}
