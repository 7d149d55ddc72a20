package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tessera/internal/domain"
	"tessera/internal/repository"
)

func TestSetValueRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	personID := defineSchema(t, store, "Person", domain.SchemaKindEntity)
	nameID := addAttribute(t, store, personID, "name", domain.TypeText, true)
	ageID := addAttribute(t, store, personID, "age", domain.TypeInt, false)
	heightID := addAttribute(t, store, personID, "height", domain.TypeReal, false)
	activeID := addAttribute(t, store, personID, "active", domain.TypeBool, false)

	alice := createEntity(t, store, personID)
	setValue(t, store, alice, nameID, domain.Text("Alice"))
	setValue(t, store, alice, ageID, domain.Int(34))
	setValue(t, store, alice, heightID, domain.Real(1.68))
	setValue(t, store, alice, activeID, domain.Bool(true))

	values, err := store.Values(ctx, alice)
	require.NoError(t, err)
	require.Len(t, values, 4)
	assert.Equal(t, "Alice", values[nameID].AsText())
	assert.Equal(t, int64(34), values[ageID].AsInt())
	assert.Equal(t, 1.68, values[heightID].AsReal())
	assert.Equal(t, true, values[activeID].AsBool())
}

func TestSetValueTypeMismatch(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	personID := defineSchema(t, store, "Person", domain.SchemaKindEntity)
	ageID := addAttribute(t, store, personID, "age", domain.TypeInt, false)
	alice := createEntity(t, store, personID)

	err := store.Mutate(ctx, func(tx repository.Tx) error {
		return tx.SetValue(ctx, alice, ageID, domain.Text("thirty-four"))
	})
	assert.ErrorIs(t, err, domain.ErrTypeMismatch)

	// The rejected write left nothing behind.
	values, err := store.Values(ctx, alice)
	require.NoError(t, err)
	assert.Empty(t, values)
}

func TestSetValueOverwrite(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	personID := defineSchema(t, store, "Person", domain.SchemaKindEntity)
	ageID := addAttribute(t, store, personID, "age", domain.TypeInt, false)
	alice := createEntity(t, store, personID)

	setValue(t, store, alice, ageID, domain.Int(34))
	setValue(t, store, alice, ageID, domain.Int(35))

	values, err := store.Values(ctx, alice)
	require.NoError(t, err)
	require.Len(t, values, 1)
	assert.Equal(t, int64(35), values[ageID].AsInt())
}

func TestSetValueErrors(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	personID := defineSchema(t, store, "Person", domain.SchemaKindEntity)
	ageID := addAttribute(t, store, personID, "age", domain.TypeInt, false)
	alice := createEntity(t, store, personID)

	err := store.Mutate(ctx, func(tx repository.Tx) error {
		return tx.SetValue(ctx, alice, "missing", domain.Int(1))
	})
	assert.ErrorIs(t, err, domain.ErrUnknownAttribute)

	err = store.Mutate(ctx, func(tx repository.Tx) error {
		return tx.SetValue(ctx, "missing", ageID, domain.Int(1))
	})
	assert.ErrorIs(t, err, domain.ErrUnknownEntity)
}

func TestClearValue(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	personID := defineSchema(t, store, "Person", domain.SchemaKindEntity)
	nameID := addAttribute(t, store, personID, "name", domain.TypeText, true)
	ageID := addAttribute(t, store, personID, "age", domain.TypeInt, false)
	alice := createEntity(t, store, personID)

	setValue(t, store, alice, nameID, domain.Text("Alice"))
	setValue(t, store, alice, ageID, domain.Int(34))

	mutate(t, store, func(tx repository.Tx) error {
		return tx.ClearValue(ctx, alice, ageID)
	})
	// Clearing an already-absent value is a no-op.
	mutate(t, store, func(tx repository.Tx) error {
		return tx.ClearValue(ctx, alice, ageID)
	})

	values, err := store.Values(ctx, alice)
	require.NoError(t, err)
	require.Len(t, values, 1)
	assert.Equal(t, "Alice", values[nameID].AsText())
}

func TestAbsentAttributesAreAbsent(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	personID := defineSchema(t, store, "Person", domain.SchemaKindEntity)
	addAttribute(t, store, personID, "name", domain.TypeText, true)
	ageID := addAttribute(t, store, personID, "age", domain.TypeInt, false)

	alice := createEntity(t, store, personID)
	setValue(t, store, alice, ageID, domain.Int(34))

	// Only the attribute with a stored row shows up; no null placeholders.
	values, err := store.Values(ctx, alice)
	require.NoError(t, err)
	require.Len(t, values, 1)
	_, ok := values[ageID]
	assert.True(t, ok)

	view, err := store.LoadEntity(ctx, alice)
	require.NoError(t, err)
	require.Len(t, view.Properties, 1)
	assert.Equal(t, "age", view.Properties[0].Name)
}
