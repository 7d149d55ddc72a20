package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"tessera/internal/domain"
)

// exists runs a SELECT 1 style query and reports whether it returned a row.
func exists(ctx context.Context, q querier, query string, args ...any) (bool, error) {
	var one int
	err := q.QueryRowContext(ctx, query, args...).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// entityExists reports whether the entity id is present.
func entityExists(ctx context.Context, q querier, id domain.EntityID) (bool, error) {
	return exists(ctx, q, `SELECT 1 FROM entities WHERE id = ?`, string(id))
}

// requireEntity maps a missing entity to ErrUnknownEntity.
func requireEntity(ctx context.Context, q querier, id domain.EntityID) error {
	ok, err := entityExists(ctx, q, id)
	if err != nil {
		return domain.StorageError("lookup entity", err)
	}
	if !ok {
		return fmt.Errorf("entity %q: %w", id, domain.ErrUnknownEntity)
	}
	return nil
}

// schemaKind returns the kind of a schema, or ErrUnknownSchema.
func schemaKind(ctx context.Context, q querier, id domain.SchemaID) (domain.SchemaKind, error) {
	var kind string
	err := q.QueryRowContext(ctx, `SELECT kind FROM schema_defs WHERE id = ?`, string(id)).Scan(&kind)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("schema %q: %w", id, domain.ErrUnknownSchema)
	}
	if err != nil {
		return "", domain.StorageError("lookup schema", err)
	}
	return domain.SchemaKind(kind), nil
}

// entitySchemaIDs returns the schema set of an entity.
func entitySchemaIDs(ctx context.Context, q querier, id domain.EntityID) ([]domain.SchemaID, error) {
	rows, err := q.QueryContext(ctx, `SELECT schema_id FROM entity_types WHERE entity_id = ?`, string(id))
	if err != nil {
		return nil, domain.StorageError("query entity types", err)
	}
	defer rows.Close()

	var ids []domain.SchemaID
	for rows.Next() {
		var sid string
		if err := rows.Scan(&sid); err != nil {
			return nil, domain.StorageError("scan entity type", err)
		}
		ids = append(ids, domain.SchemaID(sid))
	}
	return ids, rows.Err()
}

// marshalAllowed encodes a role's allowed-participant set as a JSON array
// column; an empty set is stored as NULL ("any type allowed").
func marshalAllowed(allowed []domain.SchemaID) (sql.NullString, error) {
	if len(allowed) == 0 {
		return sql.NullString{}, nil
	}
	data, err := json.Marshal(allowed)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

// unmarshalAllowed decodes the allowed-participant JSON column.
func unmarshalAllowed(ns sql.NullString) ([]domain.SchemaID, error) {
	if !ns.Valid || ns.String == "" {
		return nil, nil
	}
	var ids []domain.SchemaID
	if err := json.Unmarshal([]byte(ns.String), &ids); err != nil {
		return nil, err
	}
	return ids, nil
}

// placeholders builds a "?, ?, ?" list for IN clauses.
func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

// idArgs converts entity ids to query arguments.
func idArgs(ids []domain.EntityID) []any {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = string(id)
	}
	return args
}

// timeFromNanos converts a stored creation timestamp back to time.Time.
func timeFromNanos(n int64) time.Time {
	return time.Unix(0, n).UTC()
}
