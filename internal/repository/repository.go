package repository

import (
	"context"

	"tessera/internal/domain"
)

// Store is the engine's data access contract: committed-state reads plus a
// single transactional entry point for writes.
type Store interface {
	// Catalog returns every schema definition with its attributes and roles.
	Catalog(ctx context.Context) (*domain.Catalog, error)

	// LoadEntities hydrates a page of entity views in stable creation order.
	// Repeated calls against unchanged data return identical results.
	LoadEntities(ctx context.Context, offset, limit int) ([]domain.EntityView, error)

	// LoadEntity hydrates a single entity view.
	LoadEntity(ctx context.Context, id domain.EntityID) (*domain.EntityView, error)

	// LoadParticipants resolves a relation entity's participant list. When a
	// participant is itself a relation, its view embeds participant ids only;
	// deeper structure is never inlined.
	LoadParticipants(ctx context.Context, edgeID domain.EntityID) ([]domain.Participant, error)

	// CountEntities returns the total entity count for pagination bookkeeping.
	CountEntities(ctx context.Context) (int, error)

	// Values returns an entity's property values keyed by attribute id.
	// Absent attributes are simply absent from the map.
	Values(ctx context.Context, id domain.EntityID) (map[domain.AttrID]domain.Value, error)

	// Mutate runs fn inside a single transaction. If fn returns an error the
	// transaction rolls back and no partial state is committed.
	Mutate(ctx context.Context, fn func(tx Tx) error) error

	// Close releases resources.
	Close() error
}

// Tx carries the engine's write operations. Implementations bind it to one
// open transaction; it must not be retained past the Mutate callback.
type Tx interface {
	// Schema catalog.
	DefineSchema(ctx context.Context, name string, kind domain.SchemaKind) (domain.SchemaID, error)
	RenameSchema(ctx context.Context, id domain.SchemaID, newName string) error
	DeleteSchema(ctx context.Context, id domain.SchemaID, cascade bool) error
	AddAttribute(ctx context.Context, schemaID domain.SchemaID, name string, dataType domain.DataType, isDisplay bool) (domain.AttrID, error)
	RenameAttribute(ctx context.Context, id domain.AttrID, newName string) error
	AddRole(ctx context.Context, schemaID domain.SchemaID, name string, direction domain.Direction, cardinality domain.Cardinality, allowed []domain.SchemaID) (domain.RoleID, error)

	// Entity store and type assignment.
	CreateEntity(ctx context.Context, schemaIDs []domain.SchemaID) (domain.EntityID, error)
	AddType(ctx context.Context, entityID domain.EntityID, schemaID domain.SchemaID) error
	RemoveType(ctx context.Context, entityID domain.EntityID, schemaID domain.SchemaID) error
	DeleteEntity(ctx context.Context, entityID domain.EntityID) error

	// Value store.
	SetValue(ctx context.Context, entityID domain.EntityID, attrID domain.AttrID, value domain.Value) error
	ClearValue(ctx context.Context, entityID domain.EntityID, attrID domain.AttrID) error

	// Relation linking.
	Link(ctx context.Context, relationID, participantID domain.EntityID, roleID domain.RoleID) error
	Unlink(ctx context.Context, relationID, participantID domain.EntityID, roleID domain.RoleID) error
}
