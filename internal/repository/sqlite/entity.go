package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"tessera/internal/domain"
)

// CreateEntity mints a new identity and assigns the given schema set. Every
// entity must be typed at creation; untyped "raw" entities are disallowed
// because node/edge classification depends on the type set.
func (t *Tx) CreateEntity(ctx context.Context, schemaIDs []domain.SchemaID) (domain.EntityID, error) {
	if len(schemaIDs) == 0 {
		return "", fmt.Errorf("create entity: %w", domain.ErrEmptySchemaSet)
	}

	seen := make(map[domain.SchemaID]bool, len(schemaIDs))
	for _, schemaID := range schemaIDs {
		if seen[schemaID] {
			continue
		}
		seen[schemaID] = true
		if _, err := schemaKind(ctx, t.tx, schemaID); err != nil {
			return "", err
		}
	}

	id := domain.EntityID(uuid.NewString())
	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO entities (id, created_at) VALUES (?, ?)
	`, string(id), time.Now().UTC().UnixNano())
	if err != nil {
		return "", domain.StorageError("insert entity", err)
	}

	for schemaID := range seen {
		if _, err := t.tx.ExecContext(ctx, `
			INSERT INTO entity_types (entity_id, schema_id) VALUES (?, ?)
		`, string(id), string(schemaID)); err != nil {
			return "", domain.StorageError("insert entity type", err)
		}
	}
	return id, nil
}

// AddType assigns an additional schema to an entity. Assigning an already
// held type is a no-op.
func (t *Tx) AddType(ctx context.Context, entityID domain.EntityID, schemaID domain.SchemaID) error {
	if err := requireEntity(ctx, t.tx, entityID); err != nil {
		return err
	}
	if _, err := schemaKind(ctx, t.tx, schemaID); err != nil {
		return err
	}

	_, err := t.tx.ExecContext(ctx, `
		INSERT OR IGNORE INTO entity_types (entity_id, schema_id) VALUES (?, ?)
	`, string(entityID), string(schemaID))
	if err != nil {
		return domain.StorageError("insert entity type", err)
	}
	return nil
}

// RemoveType drops a schema assignment from an entity. Removing the last
// relation-kind type fails with ErrDanglingLinks while the entity still owns
// outgoing relation links; those must be unlinked first.
func (t *Tx) RemoveType(ctx context.Context, entityID domain.EntityID, schemaID domain.SchemaID) error {
	if err := requireEntity(ctx, t.tx, entityID); err != nil {
		return err
	}
	kind, err := schemaKind(ctx, t.tx, schemaID)
	if err != nil {
		return err
	}

	if kind == domain.SchemaKindRelation {
		otherRelation, err := exists(ctx, t.tx, `
			SELECT 1 FROM entity_types et
			JOIN schema_defs s ON s.id = et.schema_id
			WHERE et.entity_id = ? AND s.kind = 'relation' AND et.schema_id <> ?
		`, string(entityID), string(schemaID))
		if err != nil {
			return domain.StorageError("check relation types", err)
		}
		if !otherRelation {
			linked, err := exists(ctx, t.tx, `SELECT 1 FROM relation_links WHERE relation_id = ?`, string(entityID))
			if err != nil {
				return domain.StorageError("check relation links", err)
			}
			if linked {
				return fmt.Errorf("entity %q: %w", entityID, domain.ErrDanglingLinks)
			}
		}
	}

	_, err = t.tx.ExecContext(ctx, `
		DELETE FROM entity_types WHERE entity_id = ? AND schema_id = ?
	`, string(entityID), string(schemaID))
	if err != nil {
		return domain.StorageError("delete entity type", err)
	}
	return nil
}

// DeleteEntity removes an entity and cascades to its type assignments, its
// values, and every relation link naming it as relation or participant. A
// deleted participant that is itself a relation takes its own links with it.
func (t *Tx) DeleteEntity(ctx context.Context, entityID domain.EntityID) error {
	res, err := t.tx.ExecContext(ctx, `DELETE FROM entities WHERE id = ?`, string(entityID))
	if err != nil {
		return domain.StorageError("delete entity", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return domain.StorageError("delete entity", err)
	}
	if n == 0 {
		return fmt.Errorf("entity %q: %w", entityID, domain.ErrUnknownEntity)
	}
	return nil
}
