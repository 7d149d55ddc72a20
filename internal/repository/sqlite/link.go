package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"tessera/internal/domain"
)

// Link binds a participant entity to a relation entity through a role. The
// relation entity must be typed by the schema owning the role; the
// participant's type set must intersect the role's allowed set when that set
// is non-empty; and the role's cardinality bounds how many links may coexist.
//
// Participants may themselves be relation entities. No cycle detection is
// performed here; the loader bounds traversal depth instead.
func (t *Tx) Link(ctx context.Context, relationID, participantID domain.EntityID, roleID domain.RoleID) error {
	role, err := roleByID(ctx, t.tx, roleID)
	if err != nil {
		return err
	}

	if err := requireEntity(ctx, t.tx, relationID); err != nil {
		return err
	}
	typed, err := exists(ctx, t.tx, `
		SELECT 1 FROM entity_types WHERE entity_id = ? AND schema_id = ?
	`, string(relationID), string(role.SchemaID))
	if err != nil {
		return domain.StorageError("check relation typing", err)
	}
	if !typed {
		return fmt.Errorf("entity %q, role %q: %w", relationID, role.Name, domain.ErrNotARelation)
	}

	if err := requireEntity(ctx, t.tx, participantID); err != nil {
		return err
	}

	if len(role.AllowedSchemas) > 0 {
		held, err := entitySchemaIDs(ctx, t.tx, participantID)
		if err != nil {
			return err
		}
		if !role.Allows(held) {
			return fmt.Errorf("entity %q, role %q: %w", participantID, role.Name, domain.ErrDisallowedParticipant)
		}
	}

	if role.Cardinality == domain.CardinalityOne {
		occupied, err := exists(ctx, t.tx, `
			SELECT 1 FROM relation_links
			WHERE relation_id = ? AND role_id = ? AND participant_id <> ?
		`, string(relationID), string(roleID), string(participantID))
		if err != nil {
			return domain.StorageError("check role cardinality", err)
		}
		if occupied {
			return fmt.Errorf("role %q on relation %q: %w", role.Name, relationID, domain.ErrCardinalityViolation)
		}

		// Target-side ONE roles also bound the participant: one incoming
		// link per (participant, role).
		if role.Direction == domain.DirectionTarget {
			claimed, err := exists(ctx, t.tx, `
				SELECT 1 FROM relation_links
				WHERE participant_id = ? AND role_id = ? AND relation_id <> ?
			`, string(participantID), string(roleID), string(relationID))
			if err != nil {
				return domain.StorageError("check role cardinality", err)
			}
			if claimed {
				return fmt.Errorf("role %q on participant %q: %w", role.Name, participantID, domain.ErrCardinalityViolation)
			}
		}
	}

	// Relinking the same triple is a no-op.
	_, err = t.tx.ExecContext(ctx, `
		INSERT OR IGNORE INTO relation_links (relation_id, participant_id, role_id)
		VALUES (?, ?, ?)
	`, string(relationID), string(participantID), string(roleID))
	if err != nil {
		return domain.StorageError("insert link", err)
	}
	return nil
}

// Unlink removes a participant link. Unlinking an absent triple is a no-op.
func (t *Tx) Unlink(ctx context.Context, relationID, participantID domain.EntityID, roleID domain.RoleID) error {
	if _, err := roleByID(ctx, t.tx, roleID); err != nil {
		return err
	}
	if err := requireEntity(ctx, t.tx, relationID); err != nil {
		return err
	}

	_, err := t.tx.ExecContext(ctx, `
		DELETE FROM relation_links WHERE relation_id = ? AND participant_id = ? AND role_id = ?
	`, string(relationID), string(participantID), string(roleID))
	if err != nil {
		return domain.StorageError("delete link", err)
	}
	return nil
}

// roleByID fetches a full role definition, or ErrUnknownRole.
func roleByID(ctx context.Context, q querier, id domain.RoleID) (domain.Role, error) {
	var (
		schemaID, name, direction, cardinality string
		allowedJSON                            sql.NullString
	)
	err := q.QueryRowContext(ctx, `
		SELECT schema_id, name, direction, cardinality, allowed_schemas
		FROM role_defs WHERE id = ?
	`, string(id)).Scan(&schemaID, &name, &direction, &cardinality, &allowedJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Role{}, fmt.Errorf("role %q: %w", id, domain.ErrUnknownRole)
	}
	if err != nil {
		return domain.Role{}, domain.StorageError("lookup role", err)
	}

	allowed, err := unmarshalAllowed(allowedJSON)
	if err != nil {
		return domain.Role{}, domain.StorageError("decode allowed schemas", err)
	}
	return domain.Role{
		ID:             id,
		SchemaID:       domain.SchemaID(schemaID),
		Name:           name,
		Direction:      domain.Direction(direction),
		Cardinality:    domain.Cardinality(cardinality),
		AllowedSchemas: allowed,
	}, nil
}
