package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"tessera/internal/codec"
	"tessera/internal/domain"
)

// SetValue writes or overwrites the single value row for (entity, attribute).
// The value's runtime tag must match the attribute's declared data type;
// overwriting clears the other three slots.
func (t *Tx) SetValue(ctx context.Context, entityID domain.EntityID, attrID domain.AttrID, value domain.Value) error {
	var dataType string
	err := t.tx.QueryRowContext(ctx, `SELECT data_type FROM attribute_defs WHERE id = ?`, string(attrID)).Scan(&dataType)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("attribute %q: %w", attrID, domain.ErrUnknownAttribute)
	}
	if err != nil {
		return domain.StorageError("lookup attribute", err)
	}

	if err := requireEntity(ctx, t.tx, entityID); err != nil {
		return err
	}

	declared := domain.DataType(dataType)
	if !value.Matches(declared) {
		return fmt.Errorf("attribute %q declares %s, got %s: %w", attrID, declared, value.Type, domain.ErrTypeMismatch)
	}

	slots, err := codec.EncodeValue(value)
	if err != nil {
		return err
	}

	_, err = t.tx.ExecContext(ctx, `
		INSERT INTO attribute_values (entity_id, attribute_id, val_text, val_int, val_real, val_bool)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(entity_id, attribute_id) DO UPDATE SET
			val_text = excluded.val_text,
			val_int = excluded.val_int,
			val_real = excluded.val_real,
			val_bool = excluded.val_bool
	`, string(entityID), string(attrID), slots.Text, slots.Int, slots.Real, slots.Bool)
	if err != nil {
		return domain.StorageError("upsert value", err)
	}
	return nil
}

// ClearValue removes the value row for (entity, attribute). Clearing an
// absent value is a no-op.
func (t *Tx) ClearValue(ctx context.Context, entityID domain.EntityID, attrID domain.AttrID) error {
	if err := requireEntity(ctx, t.tx, entityID); err != nil {
		return err
	}

	_, err := t.tx.ExecContext(ctx, `
		DELETE FROM attribute_values WHERE entity_id = ? AND attribute_id = ?
	`, string(entityID), string(attrID))
	if err != nil {
		return domain.StorageError("delete value", err)
	}
	return nil
}

// Values returns an entity's property values keyed by attribute id. No null
// rows are persisted, so absent attributes are simply absent from the map.
func (s *Store) Values(ctx context.Context, id domain.EntityID) (map[domain.AttrID]domain.Value, error) {
	if err := requireEntity(ctx, s.db, id); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT av.attribute_id, ad.data_type, av.val_text, av.val_int, av.val_real, av.val_bool
		FROM attribute_values av
		JOIN attribute_defs ad ON ad.id = av.attribute_id
		WHERE av.entity_id = ?
	`, string(id))
	if err != nil {
		return nil, domain.StorageError("query values", err)
	}
	defer rows.Close()

	values := make(map[domain.AttrID]domain.Value)
	for rows.Next() {
		var (
			attrID, dataType string
			slots            codec.Slots
		)
		if err := rows.Scan(&attrID, &dataType, &slots.Text, &slots.Int, &slots.Real, &slots.Bool); err != nil {
			return nil, domain.StorageError("scan value", err)
		}
		value, err := codec.DecodeValue(domain.DataType(dataType), slots)
		if err != nil {
			return nil, err
		}
		values[domain.AttrID(attrID)] = value
	}
	if err := rows.Err(); err != nil {
		return nil, domain.StorageError("iterate values", err)
	}
	return values, nil
}
