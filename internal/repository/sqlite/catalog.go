package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"tessera/internal/domain"
)

// DefineSchema creates a schema definition with a unique name.
func (t *Tx) DefineSchema(ctx context.Context, name string, kind domain.SchemaKind) (domain.SchemaID, error) {
	if name == "" {
		return "", fmt.Errorf("define schema: %w: empty name", domain.ErrInvalidInput)
	}
	if !kind.Valid() {
		return "", fmt.Errorf("define schema: %w: unknown kind %q", domain.ErrInvalidInput, kind)
	}

	taken, err := exists(ctx, t.tx, `SELECT 1 FROM schema_defs WHERE name = ?`, name)
	if err != nil {
		return "", domain.StorageError("check schema name", err)
	}
	if taken {
		return "", fmt.Errorf("schema %q: %w", name, domain.ErrDuplicateName)
	}

	id := domain.SchemaID(uuid.NewString())
	_, err = t.tx.ExecContext(ctx, `
		INSERT INTO schema_defs (id, name, kind, created_at) VALUES (?, ?, ?, ?)
	`, string(id), name, string(kind), time.Now().UTC().UnixNano())
	if err != nil {
		return "", domain.StorageError("insert schema", err)
	}
	return id, nil
}

// RenameSchema renames a schema in place. Entities reference the schema id,
// so the new name is visible immediately everywhere.
func (t *Tx) RenameSchema(ctx context.Context, id domain.SchemaID, newName string) error {
	if newName == "" {
		return fmt.Errorf("rename schema: %w: empty name", domain.ErrInvalidInput)
	}
	if _, err := schemaKind(ctx, t.tx, id); err != nil {
		return err
	}

	taken, err := exists(ctx, t.tx, `SELECT 1 FROM schema_defs WHERE name = ? AND id <> ?`, newName, string(id))
	if err != nil {
		return domain.StorageError("check schema name", err)
	}
	if taken {
		return fmt.Errorf("schema %q: %w", newName, domain.ErrDuplicateName)
	}

	_, err = t.tx.ExecContext(ctx, `UPDATE schema_defs SET name = ? WHERE id = ?`, newName, string(id))
	if err != nil {
		return domain.StorageError("rename schema", err)
	}
	return nil
}

// DeleteSchema removes a schema definition. Without cascade it fails with
// ErrSchemaInUse when any entity is typed by it, any value lives under its
// attributes, or (for relation schemas) any link is keyed by its roles. With
// cascade those dependent rows go with it; entities themselves survive and
// simply lose the type.
func (t *Tx) DeleteSchema(ctx context.Context, id domain.SchemaID, cascade bool) error {
	kind, err := schemaKind(ctx, t.tx, id)
	if err != nil {
		return err
	}

	if !cascade {
		inUse, err := t.schemaInUse(ctx, id, kind)
		if err != nil {
			return err
		}
		if inUse {
			return fmt.Errorf("schema %q: %w", id, domain.ErrSchemaInUse)
		}
	}

	// Foreign keys cascade to attribute_defs, role_defs, entity_types, and
	// from there to attribute_values and relation_links.
	_, err = t.tx.ExecContext(ctx, `DELETE FROM schema_defs WHERE id = ?`, string(id))
	if err != nil {
		return domain.StorageError("delete schema", err)
	}
	return nil
}

func (t *Tx) schemaInUse(ctx context.Context, id domain.SchemaID, kind domain.SchemaKind) (bool, error) {
	typed, err := exists(ctx, t.tx, `SELECT 1 FROM entity_types WHERE schema_id = ?`, string(id))
	if err != nil {
		return false, domain.StorageError("check schema usage", err)
	}
	if typed {
		return true, nil
	}

	valued, err := exists(ctx, t.tx, `
		SELECT 1 FROM attribute_values av
		JOIN attribute_defs ad ON ad.id = av.attribute_id
		WHERE ad.schema_id = ?
	`, string(id))
	if err != nil {
		return false, domain.StorageError("check schema usage", err)
	}
	if valued {
		return true, nil
	}

	if kind == domain.SchemaKindRelation {
		linked, err := exists(ctx, t.tx, `
			SELECT 1 FROM relation_links rl
			JOIN role_defs rd ON rd.id = rl.role_id
			WHERE rd.schema_id = ?
		`, string(id))
		if err != nil {
			return false, domain.StorageError("check schema usage", err)
		}
		if linked {
			return true, nil
		}
	}
	return false, nil
}

// AddAttribute adds a typed attribute definition to a schema.
func (t *Tx) AddAttribute(ctx context.Context, schemaID domain.SchemaID, name string, dataType domain.DataType, isDisplay bool) (domain.AttrID, error) {
	if name == "" {
		return "", fmt.Errorf("add attribute: %w: empty name", domain.ErrInvalidInput)
	}
	if !dataType.Valid() {
		return "", fmt.Errorf("add attribute: %w: unknown data type %q", domain.ErrInvalidInput, dataType)
	}
	if _, err := schemaKind(ctx, t.tx, schemaID); err != nil {
		return "", err
	}

	taken, err := exists(ctx, t.tx, `SELECT 1 FROM attribute_defs WHERE schema_id = ? AND name = ?`, string(schemaID), name)
	if err != nil {
		return "", domain.StorageError("check attribute name", err)
	}
	if taken {
		return "", fmt.Errorf("attribute %q: %w", name, domain.ErrDuplicateAttribute)
	}

	id := domain.AttrID(uuid.NewString())
	_, err = t.tx.ExecContext(ctx, `
		INSERT INTO attribute_defs (id, schema_id, name, data_type, is_display)
		VALUES (?, ?, ?, ?, ?)
	`, string(id), string(schemaID), name, string(dataType), boolToInt(isDisplay))
	if err != nil {
		return "", domain.StorageError("insert attribute", err)
	}
	return id, nil
}

// RenameAttribute renames an attribute in place. Stored values reference the
// attribute id, not the name, so every existing value survives the rename.
func (t *Tx) RenameAttribute(ctx context.Context, id domain.AttrID, newName string) error {
	if newName == "" {
		return fmt.Errorf("rename attribute: %w: empty name", domain.ErrInvalidInput)
	}

	var schemaID string
	err := t.tx.QueryRowContext(ctx, `SELECT schema_id FROM attribute_defs WHERE id = ?`, string(id)).Scan(&schemaID)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("attribute %q: %w", id, domain.ErrUnknownAttribute)
	}
	if err != nil {
		return domain.StorageError("lookup attribute", err)
	}

	taken, err := exists(ctx, t.tx, `
		SELECT 1 FROM attribute_defs WHERE schema_id = ? AND name = ? AND id <> ?
	`, schemaID, newName, string(id))
	if err != nil {
		return domain.StorageError("check attribute name", err)
	}
	if taken {
		return fmt.Errorf("attribute %q: %w", newName, domain.ErrDuplicateAttribute)
	}

	_, err = t.tx.ExecContext(ctx, `UPDATE attribute_defs SET name = ? WHERE id = ?`, newName, string(id))
	if err != nil {
		return domain.StorageError("rename attribute", err)
	}
	return nil
}

// AddRole adds a participant role to a relation-kind schema.
func (t *Tx) AddRole(ctx context.Context, schemaID domain.SchemaID, name string, direction domain.Direction, cardinality domain.Cardinality, allowed []domain.SchemaID) (domain.RoleID, error) {
	if name == "" {
		return "", fmt.Errorf("add role: %w: empty name", domain.ErrInvalidInput)
	}
	if !direction.Valid() {
		return "", fmt.Errorf("add role: %w: unknown direction %q", domain.ErrInvalidInput, direction)
	}
	if !cardinality.Valid() {
		return "", fmt.Errorf("add role: %w: unknown cardinality %q", domain.ErrInvalidInput, cardinality)
	}

	kind, err := schemaKind(ctx, t.tx, schemaID)
	if err != nil {
		return "", err
	}
	if kind != domain.SchemaKindRelation {
		return "", fmt.Errorf("schema %q: %w", schemaID, domain.ErrNotARelationSchema)
	}

	taken, err := exists(ctx, t.tx, `SELECT 1 FROM role_defs WHERE schema_id = ? AND name = ?`, string(schemaID), name)
	if err != nil {
		return "", domain.StorageError("check role name", err)
	}
	if taken {
		return "", fmt.Errorf("role %q: %w", name, domain.ErrDuplicateRole)
	}

	for _, allowedID := range allowed {
		if _, err := schemaKind(ctx, t.tx, allowedID); err != nil {
			return "", err
		}
	}

	allowedJSON, err := marshalAllowed(allowed)
	if err != nil {
		return "", domain.StorageError("encode allowed schemas", err)
	}

	id := domain.RoleID(uuid.NewString())
	_, err = t.tx.ExecContext(ctx, `
		INSERT INTO role_defs (id, schema_id, name, direction, cardinality, allowed_schemas)
		VALUES (?, ?, ?, ?, ?, ?)
	`, string(id), string(schemaID), name, string(direction), string(cardinality), allowedJSON)
	if err != nil {
		return "", domain.StorageError("insert role", err)
	}
	return id, nil
}

// Catalog returns every schema definition with its attributes and roles, in
// deterministic name order.
func (s *Store) Catalog(ctx context.Context) (*domain.Catalog, error) {
	catalog := &domain.Catalog{}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, kind, created_at FROM schema_defs ORDER BY name, id
	`)
	if err != nil {
		return nil, domain.StorageError("query schemas", err)
	}
	defer rows.Close()

	index := make(map[domain.SchemaID]int)
	for rows.Next() {
		var (
			id, name, kind string
			createdAt      int64
		)
		if err := rows.Scan(&id, &name, &kind, &createdAt); err != nil {
			return nil, domain.StorageError("scan schema", err)
		}
		index[domain.SchemaID(id)] = len(catalog.Schemas)
		catalog.Schemas = append(catalog.Schemas, domain.Schema{
			ID:        domain.SchemaID(id),
			Name:      name,
			Kind:      domain.SchemaKind(kind),
			CreatedAt: timeFromNanos(createdAt),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, domain.StorageError("iterate schemas", err)
	}

	attrRows, err := s.db.QueryContext(ctx, `
		SELECT id, schema_id, name, data_type, is_display
		FROM attribute_defs ORDER BY name, id
	`)
	if err != nil {
		return nil, domain.StorageError("query attributes", err)
	}
	defer attrRows.Close()

	for attrRows.Next() {
		var (
			id, schemaID, name, dataType string
			isDisplay                    int
		)
		if err := attrRows.Scan(&id, &schemaID, &name, &dataType, &isDisplay); err != nil {
			return nil, domain.StorageError("scan attribute", err)
		}
		if i, ok := index[domain.SchemaID(schemaID)]; ok {
			catalog.Schemas[i].Attributes = append(catalog.Schemas[i].Attributes, domain.Attribute{
				ID:        domain.AttrID(id),
				SchemaID:  domain.SchemaID(schemaID),
				Name:      name,
				DataType:  domain.DataType(dataType),
				IsDisplay: isDisplay != 0,
			})
		}
	}
	if err := attrRows.Err(); err != nil {
		return nil, domain.StorageError("iterate attributes", err)
	}

	roleRows, err := s.db.QueryContext(ctx, `
		SELECT id, schema_id, name, direction, cardinality, allowed_schemas
		FROM role_defs ORDER BY name, id
	`)
	if err != nil {
		return nil, domain.StorageError("query roles", err)
	}
	defer roleRows.Close()

	for roleRows.Next() {
		role, err := scanRole(roleRows)
		if err != nil {
			return nil, err
		}
		if i, ok := index[role.SchemaID]; ok {
			catalog.Schemas[i].Roles = append(catalog.Schemas[i].Roles, role)
		}
	}
	if err := roleRows.Err(); err != nil {
		return nil, domain.StorageError("iterate roles", err)
	}

	return catalog, nil
}

// scanRole reads one role_defs row. The rows must select the full column set
// in declaration order.
func scanRole(rows *sql.Rows) (domain.Role, error) {
	var (
		id, schemaID, name, direction, cardinality string
		allowedJSON                                sql.NullString
	)
	if err := rows.Scan(&id, &schemaID, &name, &direction, &cardinality, &allowedJSON); err != nil {
		return domain.Role{}, domain.StorageError("scan role", err)
	}
	allowed, err := unmarshalAllowed(allowedJSON)
	if err != nil {
		return domain.Role{}, domain.StorageError("decode allowed schemas", err)
	}
	return domain.Role{
		ID:             domain.RoleID(id),
		SchemaID:       domain.SchemaID(schemaID),
		Name:           name,
		Direction:      domain.Direction(direction),
		Cardinality:    domain.Cardinality(cardinality),
		AllowedSchemas: allowed,
	}, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
