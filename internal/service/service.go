package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"tessera/internal/domain"
	"tessera/internal/repository"
)

// LinkSpec names one participant binding for a compound edge write.
type LinkSpec struct {
	RoleID        domain.RoleID   `json:"role_id"`
	ParticipantID domain.EntityID `json:"participant_id"`
}

// EntityEdit is a compound update applied to one entity in a single
// transaction. Value writes happen after type changes, so an edit may add a
// schema and set one of its attributes atomically.
type EntityEdit struct {
	AddTypes    []domain.SchemaID              `json:"add_types,omitempty"`
	RemoveTypes []domain.SchemaID              `json:"remove_types,omitempty"`
	SetValues   map[domain.AttrID]domain.Value `json:"set_values,omitempty"`
	ClearValues []domain.AttrID                `json:"clear_values,omitempty"`
}

// Engine coordinates mutations against the store and publishes change
// notifications after each successful commit.
type Engine struct {
	store repository.Store
	bus   *EventBus
	log   *zap.Logger
}

// NewEngine creates a new mutation coordinator
func NewEngine(store repository.Store, bus *EventBus, log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{store: store, bus: bus, log: log}
}

// Catalog returns every schema definition with its attributes and roles.
func (e *Engine) Catalog(ctx context.Context) (*domain.Catalog, error) {
	return e.store.Catalog(ctx)
}

// Entities returns a page of hydrated entity views.
func (e *Engine) Entities(ctx context.Context, offset, limit int) ([]domain.EntityView, error) {
	return e.store.LoadEntities(ctx, offset, limit)
}

// Entity returns a single hydrated entity view.
func (e *Engine) Entity(ctx context.Context, id domain.EntityID) (*domain.EntityView, error) {
	return e.store.LoadEntity(ctx, id)
}

// Participants resolves a relation entity's participant list.
func (e *Engine) Participants(ctx context.Context, id domain.EntityID) ([]domain.Participant, error) {
	return e.store.LoadParticipants(ctx, id)
}

// CountEntities returns the total entity count.
func (e *Engine) CountEntities(ctx context.Context) (int, error) {
	return e.store.CountEntities(ctx)
}

// Values returns an entity's property values keyed by attribute id.
func (e *Engine) Values(ctx context.Context, id domain.EntityID) (map[domain.AttrID]domain.Value, error) {
	return e.store.Values(ctx, id)
}

// DefineSchema registers a new schema definition.
func (e *Engine) DefineSchema(ctx context.Context, name string, kind domain.SchemaKind) (domain.SchemaID, error) {
	var id domain.SchemaID
	err := e.store.Mutate(ctx, func(tx repository.Tx) error {
		var err error
		id, err = tx.DefineSchema(ctx, name, kind)
		return err
	})
	if err != nil {
		return "", err
	}

	e.log.Info("schema defined", zap.String("schema_id", string(id)), zap.String("name", name), zap.String("kind", string(kind)))
	e.bus.Publish(Event{
		Type:    EventSchemaDefined,
		Payload: map[string]string{"schema_id": string(id), "name": name, "kind": string(kind)},
	})
	return id, nil
}

// RenameSchema renames a schema. Entities typed by it stay attached.
func (e *Engine) RenameSchema(ctx context.Context, id domain.SchemaID, newName string) error {
	err := e.store.Mutate(ctx, func(tx repository.Tx) error {
		return tx.RenameSchema(ctx, id, newName)
	})
	if err != nil {
		return err
	}

	e.bus.Publish(Event{
		Type:    EventSchemaRenamed,
		Payload: map[string]string{"schema_id": string(id), "name": newName},
	})
	return nil
}

// DeleteSchema removes a schema definition. Without cascade the delete is
// refused while anything references the schema; with cascade the definition
// and its dependent rows go, but entities survive as untyped or less-typed.
func (e *Engine) DeleteSchema(ctx context.Context, id domain.SchemaID, cascade bool) error {
	err := e.store.Mutate(ctx, func(tx repository.Tx) error {
		return tx.DeleteSchema(ctx, id, cascade)
	})
	if err != nil {
		return err
	}

	e.log.Info("schema deleted", zap.String("schema_id", string(id)), zap.Bool("cascade", cascade))
	e.bus.Publish(Event{
		Type:    EventSchemaDeleted,
		Payload: map[string]string{"schema_id": string(id)},
	})
	return nil
}

// AddAttribute adds a typed attribute definition to a schema.
func (e *Engine) AddAttribute(ctx context.Context, schemaID domain.SchemaID, name string, dataType domain.DataType, isDisplay bool) (domain.AttrID, error) {
	var id domain.AttrID
	err := e.store.Mutate(ctx, func(tx repository.Tx) error {
		var err error
		id, err = tx.AddAttribute(ctx, schemaID, name, dataType, isDisplay)
		return err
	})
	if err != nil {
		return "", err
	}

	e.bus.Publish(Event{
		Type:    EventAttributeAdded,
		Payload: map[string]string{"schema_id": string(schemaID), "attribute_id": string(id), "name": name},
	})
	return id, nil
}

// RenameAttribute renames an attribute definition. Stored values reference the
// attribute id, so every value is preserved under the new name.
func (e *Engine) RenameAttribute(ctx context.Context, id domain.AttrID, newName string) error {
	err := e.store.Mutate(ctx, func(tx repository.Tx) error {
		return tx.RenameAttribute(ctx, id, newName)
	})
	if err != nil {
		return err
	}

	e.bus.Publish(Event{
		Type:    EventAttributeRenamed,
		Payload: map[string]string{"attribute_id": string(id), "name": newName},
	})
	return nil
}

// AddRole adds a participant slot to a relation-kind schema.
func (e *Engine) AddRole(ctx context.Context, schemaID domain.SchemaID, name string, direction domain.Direction, cardinality domain.Cardinality, allowed []domain.SchemaID) (domain.RoleID, error) {
	var id domain.RoleID
	err := e.store.Mutate(ctx, func(tx repository.Tx) error {
		var err error
		id, err = tx.AddRole(ctx, schemaID, name, direction, cardinality, allowed)
		return err
	})
	if err != nil {
		return "", err
	}

	e.bus.Publish(Event{
		Type:    EventRoleAdded,
		Payload: map[string]string{"schema_id": string(schemaID), "role_id": string(id), "name": name},
	})
	return id, nil
}

// CreateNode creates an entity typed by entity-kind schemas only, with its
// initial property values, in one transaction.
func (e *Engine) CreateNode(ctx context.Context, schemaIDs []domain.SchemaID, values map[domain.AttrID]domain.Value) (*domain.EntityView, error) {
	catalog, err := e.store.Catalog(ctx)
	if err != nil {
		return nil, err
	}
	for _, id := range schemaIDs {
		schema := catalog.Schema(id)
		if schema == nil {
			return nil, fmt.Errorf("schema %q: %w", id, domain.ErrUnknownSchema)
		}
		if schema.Kind != domain.SchemaKindEntity {
			return nil, fmt.Errorf("schema %q is %s-kind: %w", schema.Name, schema.Kind, domain.ErrInvalidInput)
		}
	}

	view, err := e.createEntity(ctx, schemaIDs, values, nil)
	if err != nil {
		return nil, err
	}

	e.log.Info("node created", zap.String("entity_id", string(view.ID)))
	e.bus.Publish(Event{
		Type:    EventEntityCreated,
		Payload: map[string]string{"entity_id": string(view.ID), "class": string(view.Class)},
	})
	return view, nil
}

// CreateEdge creates a relation entity together with its property values and
// participant links. The schema set must include at least one relation-kind
// schema; if any part of the write is rejected the whole write rolls back.
func (e *Engine) CreateEdge(ctx context.Context, schemaIDs []domain.SchemaID, values map[domain.AttrID]domain.Value, links []LinkSpec) (*domain.EntityView, error) {
	if len(schemaIDs) == 0 {
		return nil, fmt.Errorf("create edge: %w", domain.ErrEmptySchemaSet)
	}
	catalog, err := e.store.Catalog(ctx)
	if err != nil {
		return nil, err
	}
	relation := false
	for _, id := range schemaIDs {
		schema := catalog.Schema(id)
		if schema == nil {
			return nil, fmt.Errorf("schema %q: %w", id, domain.ErrUnknownSchema)
		}
		if schema.Kind == domain.SchemaKindRelation {
			relation = true
		}
	}
	if !relation {
		return nil, fmt.Errorf("schemas type a node, not an edge: %w", domain.ErrNotARelation)
	}

	view, err := e.createEntity(ctx, schemaIDs, values, links)
	if err != nil {
		return nil, err
	}

	e.log.Info("edge created", zap.String("entity_id", string(view.ID)), zap.Int("links", len(links)))
	e.bus.Publish(Event{
		Type:    EventEntityCreated,
		Payload: map[string]string{"entity_id": string(view.ID), "class": string(view.Class)},
	})
	return view, nil
}

func (e *Engine) createEntity(ctx context.Context, schemaIDs []domain.SchemaID, values map[domain.AttrID]domain.Value, links []LinkSpec) (*domain.EntityView, error) {
	var id domain.EntityID
	err := e.store.Mutate(ctx, func(tx repository.Tx) error {
		var err error
		id, err = tx.CreateEntity(ctx, schemaIDs)
		if err != nil {
			return err
		}
		for attrID, value := range values {
			if err := tx.SetValue(ctx, id, attrID, value); err != nil {
				return err
			}
		}
		for _, link := range links {
			if err := tx.Link(ctx, id, link.ParticipantID, link.RoleID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return e.store.LoadEntity(ctx, id)
}

// EditEntity applies a compound update to one entity in a single transaction
// and returns the fresh view.
func (e *Engine) EditEntity(ctx context.Context, id domain.EntityID, edit EntityEdit) (*domain.EntityView, error) {
	err := e.store.Mutate(ctx, func(tx repository.Tx) error {
		for _, schemaID := range edit.AddTypes {
			if err := tx.AddType(ctx, id, schemaID); err != nil {
				return err
			}
		}
		for _, schemaID := range edit.RemoveTypes {
			if err := tx.RemoveType(ctx, id, schemaID); err != nil {
				return err
			}
		}
		for attrID, value := range edit.SetValues {
			if err := tx.SetValue(ctx, id, attrID, value); err != nil {
				return err
			}
		}
		for _, attrID := range edit.ClearValues {
			if err := tx.ClearValue(ctx, id, attrID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.bus.Publish(Event{
		Type:    EventEntityUpdated,
		Payload: map[string]string{"entity_id": string(id)},
	})
	return e.store.LoadEntity(ctx, id)
}

// DeleteEntity removes an entity and everything hanging off it.
func (e *Engine) DeleteEntity(ctx context.Context, id domain.EntityID) error {
	err := e.store.Mutate(ctx, func(tx repository.Tx) error {
		return tx.DeleteEntity(ctx, id)
	})
	if err != nil {
		return err
	}

	e.log.Info("entity deleted", zap.String("entity_id", string(id)))
	e.bus.Publish(Event{
		Type:    EventEntityDeleted,
		Payload: map[string]string{"entity_id": string(id)},
	})
	return nil
}

// SetValue writes one property value.
func (e *Engine) SetValue(ctx context.Context, entityID domain.EntityID, attrID domain.AttrID, value domain.Value) error {
	err := e.store.Mutate(ctx, func(tx repository.Tx) error {
		return tx.SetValue(ctx, entityID, attrID, value)
	})
	if err != nil {
		return err
	}

	e.bus.Publish(Event{
		Type:    EventValueSet,
		Payload: map[string]string{"entity_id": string(entityID), "attribute_id": string(attrID)},
	})
	return nil
}

// ClearValue removes one property value.
func (e *Engine) ClearValue(ctx context.Context, entityID domain.EntityID, attrID domain.AttrID) error {
	err := e.store.Mutate(ctx, func(tx repository.Tx) error {
		return tx.ClearValue(ctx, entityID, attrID)
	})
	if err != nil {
		return err
	}

	e.bus.Publish(Event{
		Type:    EventValueCleared,
		Payload: map[string]string{"entity_id": string(entityID), "attribute_id": string(attrID)},
	})
	return nil
}

// Link binds a participant to a relation entity through a role.
func (e *Engine) Link(ctx context.Context, relationID, participantID domain.EntityID, roleID domain.RoleID) error {
	err := e.store.Mutate(ctx, func(tx repository.Tx) error {
		return tx.Link(ctx, relationID, participantID, roleID)
	})
	if err != nil {
		return err
	}

	e.bus.Publish(Event{
		Type: EventLinkCreated,
		Payload: map[string]string{
			"relation_id":    string(relationID),
			"participant_id": string(participantID),
			"role_id":        string(roleID),
		},
	})
	return nil
}

// Unlink removes a participant link.
func (e *Engine) Unlink(ctx context.Context, relationID, participantID domain.EntityID, roleID domain.RoleID) error {
	err := e.store.Mutate(ctx, func(tx repository.Tx) error {
		return tx.Unlink(ctx, relationID, participantID, roleID)
	})
	if err != nil {
		return err
	}

	e.bus.Publish(Event{
		Type: EventLinkRemoved,
		Payload: map[string]string{
			"relation_id":    string(relationID),
			"participant_id": string(participantID),
			"role_id":        string(roleID),
		},
	})
	return nil
}
