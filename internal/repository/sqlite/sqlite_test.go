package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"tessera/internal/domain"
	"tessera/internal/repository"
)

// newTestStore creates an in-memory SQLite store for testing
func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := New(":memory:")
	require.NoError(t, err, "failed to create test store")
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// mutate runs fn in a transaction and fails the test on error
func mutate(t *testing.T, s *Store, fn func(tx repository.Tx) error) {
	t.Helper()
	require.NoError(t, s.Mutate(context.Background(), fn))
}

// defineSchema is a test fixture for DefineSchema
func defineSchema(t *testing.T, s *Store, name string, kind domain.SchemaKind) domain.SchemaID {
	t.Helper()
	var id domain.SchemaID
	mutate(t, s, func(tx repository.Tx) error {
		var err error
		id, err = tx.DefineSchema(context.Background(), name, kind)
		return err
	})
	return id
}

// addAttribute is a test fixture for AddAttribute
func addAttribute(t *testing.T, s *Store, schemaID domain.SchemaID, name string, dataType domain.DataType, isDisplay bool) domain.AttrID {
	t.Helper()
	var id domain.AttrID
	mutate(t, s, func(tx repository.Tx) error {
		var err error
		id, err = tx.AddAttribute(context.Background(), schemaID, name, dataType, isDisplay)
		return err
	})
	return id
}

// addRole is a test fixture for AddRole
func addRole(t *testing.T, s *Store, schemaID domain.SchemaID, name string, direction domain.Direction, cardinality domain.Cardinality, allowed []domain.SchemaID) domain.RoleID {
	t.Helper()
	var id domain.RoleID
	mutate(t, s, func(tx repository.Tx) error {
		var err error
		id, err = tx.AddRole(context.Background(), schemaID, name, direction, cardinality, allowed)
		return err
	})
	return id
}

// createEntity is a test fixture for CreateEntity
func createEntity(t *testing.T, s *Store, schemaIDs ...domain.SchemaID) domain.EntityID {
	t.Helper()
	var id domain.EntityID
	mutate(t, s, func(tx repository.Tx) error {
		var err error
		id, err = tx.CreateEntity(context.Background(), schemaIDs)
		return err
	})
	return id
}

// setValue is a test fixture for SetValue
func setValue(t *testing.T, s *Store, entityID domain.EntityID, attrID domain.AttrID, value domain.Value) {
	t.Helper()
	mutate(t, s, func(tx repository.Tx) error {
		return tx.SetValue(context.Background(), entityID, attrID, value)
	})
}

// link is a test fixture for Link
func link(t *testing.T, s *Store, relationID, participantID domain.EntityID, roleID domain.RoleID) {
	t.Helper()
	mutate(t, s, func(tx repository.Tx) error {
		return tx.Link(context.Background(), relationID, participantID, roleID)
	})
}
