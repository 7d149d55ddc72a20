package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tessera/internal/domain"
	"tessera/internal/repository"
)

func TestDefineSchema(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	personID := defineSchema(t, store, "Person", domain.SchemaKindEntity)
	knowsID := defineSchema(t, store, "Knows", domain.SchemaKindRelation)

	catalog, err := store.Catalog(ctx)
	require.NoError(t, err)
	require.Len(t, catalog.Schemas, 2)

	person := catalog.Schema(personID)
	require.NotNil(t, person)
	assert.Equal(t, "Person", person.Name)
	assert.Equal(t, domain.SchemaKindEntity, person.Kind)
	assert.False(t, person.CreatedAt.IsZero())

	knows := catalog.Schema(knowsID)
	require.NotNil(t, knows)
	assert.Equal(t, domain.SchemaKindRelation, knows.Kind)
}

func TestDefineSchemaDuplicateName(t *testing.T) {
	store := newTestStore(t)
	defineSchema(t, store, "Person", domain.SchemaKindEntity)

	err := store.Mutate(context.Background(), func(tx repository.Tx) error {
		_, err := tx.DefineSchema(context.Background(), "Person", domain.SchemaKindRelation)
		return err
	})
	assert.ErrorIs(t, err, domain.ErrDuplicateName)
}

func TestDefineSchemaRejectsBadInput(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	err := store.Mutate(ctx, func(tx repository.Tx) error {
		_, err := tx.DefineSchema(ctx, "", domain.SchemaKindEntity)
		return err
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	err = store.Mutate(ctx, func(tx repository.Tx) error {
		_, err := tx.DefineSchema(ctx, "Thing", domain.SchemaKind("blob"))
		return err
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestRenameSchema(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	personID := defineSchema(t, store, "Person", domain.SchemaKindEntity)
	entityID := createEntity(t, store, personID)

	mutate(t, store, func(tx repository.Tx) error {
		return tx.RenameSchema(ctx, personID, "Character")
	})

	// The rename is visible immediately on entities typed by the schema.
	view, err := store.LoadEntity(ctx, entityID)
	require.NoError(t, err)
	require.Len(t, view.Schemas, 1)
	assert.Equal(t, "Character", view.Schemas[0].Name)
	assert.Equal(t, personID, view.Schemas[0].ID)

	// Duplicate target name fails.
	defineSchema(t, store, "Place", domain.SchemaKindEntity)
	err = store.Mutate(ctx, func(tx repository.Tx) error {
		return tx.RenameSchema(ctx, personID, "Place")
	})
	assert.ErrorIs(t, err, domain.ErrDuplicateName)

	// Unknown schema fails.
	err = store.Mutate(ctx, func(tx repository.Tx) error {
		return tx.RenameSchema(ctx, "missing", "Whatever")
	})
	assert.ErrorIs(t, err, domain.ErrUnknownSchema)
}

func TestAddAttribute(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	personID := defineSchema(t, store, "Person", domain.SchemaKindEntity)
	nameID := addAttribute(t, store, personID, "name", domain.TypeText, true)
	ageID := addAttribute(t, store, personID, "age", domain.TypeInt, false)

	catalog, err := store.Catalog(ctx)
	require.NoError(t, err)
	person := catalog.Schema(personID)
	require.NotNil(t, person)
	require.Len(t, person.Attributes, 2)

	// Attribute order is deterministic (by name).
	assert.Equal(t, ageID, person.Attributes[0].ID)
	assert.Equal(t, domain.TypeInt, person.Attributes[0].DataType)
	assert.Equal(t, nameID, person.Attributes[1].ID)
	assert.True(t, person.Attributes[1].IsDisplay)
}

func TestAddAttributeDuplicate(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	personID := defineSchema(t, store, "Person", domain.SchemaKindEntity)
	addAttribute(t, store, personID, "name", domain.TypeText, false)

	err := store.Mutate(ctx, func(tx repository.Tx) error {
		_, err := tx.AddAttribute(ctx, personID, "name", domain.TypeInt, false)
		return err
	})
	assert.ErrorIs(t, err, domain.ErrDuplicateAttribute)

	// Same name on a different schema is fine.
	placeID := defineSchema(t, store, "Place", domain.SchemaKindEntity)
	addAttribute(t, store, placeID, "name", domain.TypeText, false)
}

func TestAddAttributeUnknownSchema(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	err := store.Mutate(ctx, func(tx repository.Tx) error {
		_, err := tx.AddAttribute(ctx, "missing", "name", domain.TypeText, false)
		return err
	})
	assert.ErrorIs(t, err, domain.ErrUnknownSchema)
}

func TestRenameAttributePreservesValues(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	personID := defineSchema(t, store, "Person", domain.SchemaKindEntity)
	ageID := addAttribute(t, store, personID, "Age", domain.TypeInt, false)
	entityID := createEntity(t, store, personID)
	setValue(t, store, entityID, ageID, domain.Int(34))

	mutate(t, store, func(tx repository.Tx) error {
		return tx.RenameAttribute(ctx, ageID, "Years")
	})

	// The value survives under the new name, never lost or duplicated.
	view, err := store.LoadEntity(ctx, entityID)
	require.NoError(t, err)
	require.Len(t, view.Properties, 1)
	assert.Equal(t, "Years", view.Properties[0].Name)
	assert.Equal(t, domain.Int(34), view.Properties[0].Value)

	values, err := store.Values(ctx, entityID)
	require.NoError(t, err)
	require.Len(t, values, 1)
	assert.Equal(t, domain.Int(34), values[ageID])
}

func TestRenameAttributeErrors(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	personID := defineSchema(t, store, "Person", domain.SchemaKindEntity)
	addAttribute(t, store, personID, "name", domain.TypeText, false)
	ageID := addAttribute(t, store, personID, "age", domain.TypeInt, false)

	err := store.Mutate(ctx, func(tx repository.Tx) error {
		return tx.RenameAttribute(ctx, ageID, "name")
	})
	assert.ErrorIs(t, err, domain.ErrDuplicateAttribute)

	err = store.Mutate(ctx, func(tx repository.Tx) error {
		return tx.RenameAttribute(ctx, "missing", "anything")
	})
	assert.ErrorIs(t, err, domain.ErrUnknownAttribute)
}

func TestAddRole(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	personID := defineSchema(t, store, "Person", domain.SchemaKindEntity)
	knowsID := defineSchema(t, store, "Knows", domain.SchemaKindRelation)

	roleID := addRole(t, store, knowsID, "subject", domain.DirectionSource, domain.CardinalityOne, []domain.SchemaID{personID})

	catalog, err := store.Catalog(ctx)
	require.NoError(t, err)
	knows := catalog.Schema(knowsID)
	require.NotNil(t, knows)
	require.Len(t, knows.Roles, 1)
	assert.Equal(t, roleID, knows.Roles[0].ID)
	assert.Equal(t, domain.DirectionSource, knows.Roles[0].Direction)
	assert.Equal(t, domain.CardinalityOne, knows.Roles[0].Cardinality)
	assert.Equal(t, []domain.SchemaID{personID}, knows.Roles[0].AllowedSchemas)
}

func TestAddRoleErrors(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	personID := defineSchema(t, store, "Person", domain.SchemaKindEntity)
	knowsID := defineSchema(t, store, "Knows", domain.SchemaKindRelation)
	addRole(t, store, knowsID, "subject", domain.DirectionSource, domain.CardinalityOne, nil)

	tests := []struct {
		name string
		run  func(tx repository.Tx) error
		want error
	}{
		{
			name: "entity-kind schema",
			run: func(tx repository.Tx) error {
				_, err := tx.AddRole(ctx, personID, "member", domain.DirectionNone, domain.CardinalityMany, nil)
				return err
			},
			want: domain.ErrNotARelationSchema,
		},
		{
			name: "unknown schema",
			run: func(tx repository.Tx) error {
				_, err := tx.AddRole(ctx, "missing", "member", domain.DirectionNone, domain.CardinalityMany, nil)
				return err
			},
			want: domain.ErrUnknownSchema,
		},
		{
			name: "duplicate role name",
			run: func(tx repository.Tx) error {
				_, err := tx.AddRole(ctx, knowsID, "subject", domain.DirectionTarget, domain.CardinalityMany, nil)
				return err
			},
			want: domain.ErrDuplicateRole,
		},
		{
			name: "unknown allowed schema",
			run: func(tx repository.Tx) error {
				_, err := tx.AddRole(ctx, knowsID, "object", domain.DirectionTarget, domain.CardinalityMany, []domain.SchemaID{"missing"})
				return err
			},
			want: domain.ErrUnknownSchema,
		},
		{
			name: "bad direction",
			run: func(tx repository.Tx) error {
				_, err := tx.AddRole(ctx, knowsID, "object", domain.Direction("sideways"), domain.CardinalityMany, nil)
				return err
			},
			want: domain.ErrInvalidInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := store.Mutate(ctx, tt.run)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestDeleteSchemaGuarded(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	personID := defineSchema(t, store, "Person", domain.SchemaKindEntity)
	entityID := createEntity(t, store, personID)

	// In use without cascade.
	err := store.Mutate(ctx, func(tx repository.Tx) error {
		return tx.DeleteSchema(ctx, personID, false)
	})
	assert.ErrorIs(t, err, domain.ErrSchemaInUse)

	// Unused schema deletes cleanly without cascade.
	placeID := defineSchema(t, store, "Place", domain.SchemaKindEntity)
	mutate(t, store, func(tx repository.Tx) error {
		return tx.DeleteSchema(ctx, placeID, false)
	})

	catalog, err := store.Catalog(ctx)
	require.NoError(t, err)
	assert.Nil(t, catalog.Schema(placeID))
	assert.NotNil(t, catalog.Schema(personID))

	_ = entityID
}

func TestDeleteSchemaCascadeKeepsEntities(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	personID := defineSchema(t, store, "Person", domain.SchemaKindEntity)
	authorID := defineSchema(t, store, "Author", domain.SchemaKindEntity)
	nameID := addAttribute(t, store, authorID, "pen_name", domain.TypeText, true)

	entityID := createEntity(t, store, personID, authorID)
	setValue(t, store, entityID, nameID, domain.Text("George Eliot"))

	mutate(t, store, func(tx repository.Tx) error {
		return tx.DeleteSchema(ctx, authorID, true)
	})

	// The entity survives with its remaining type; the deleted schema's
	// attribute values went with the schema.
	view, err := store.LoadEntity(ctx, entityID)
	require.NoError(t, err)
	require.Len(t, view.Schemas, 1)
	assert.Equal(t, personID, view.Schemas[0].ID)
	assert.Empty(t, view.Properties)
	assert.Equal(t, domain.ClassNode, view.Class)
}

func TestDeleteRelationSchemaCascadeRemovesLinks(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	personID := defineSchema(t, store, "Person", domain.SchemaKindEntity)
	knowsID := defineSchema(t, store, "Knows", domain.SchemaKindRelation)
	roleID := addRole(t, store, knowsID, "subject", domain.DirectionSource, domain.CardinalityMany, nil)

	alice := createEntity(t, store, personID)
	knows := createEntity(t, store, knowsID)
	link(t, store, knows, alice, roleID)

	err := store.Mutate(ctx, func(tx repository.Tx) error {
		return tx.DeleteSchema(ctx, knowsID, false)
	})
	assert.ErrorIs(t, err, domain.ErrSchemaInUse)

	mutate(t, store, func(tx repository.Tx) error {
		return tx.DeleteSchema(ctx, knowsID, true)
	})

	// The relation entity survives but is untyped and unlinked: a node now.
	view, err := store.LoadEntity(ctx, knows)
	require.NoError(t, err)
	assert.Empty(t, view.Schemas)
	assert.Equal(t, domain.ClassNode, view.Class)

	participants, err := store.LoadParticipants(ctx, knows)
	require.NoError(t, err)
	assert.Empty(t, participants)
}

func TestDeleteSchemaUnknown(t *testing.T) {
	store := newTestStore(t)
	err := store.Mutate(context.Background(), func(tx repository.Tx) error {
		return tx.DeleteSchema(context.Background(), "missing", true)
	})
	assert.ErrorIs(t, err, domain.ErrUnknownSchema)
}
