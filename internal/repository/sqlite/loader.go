package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"tessera/internal/codec"
	"tessera/internal/domain"
)

// LoadEntities hydrates a page of entity views in stable (created_at, id)
// order, so repeated calls against unchanged data return identical pages and
// consecutive pages are disjoint.
func (s *Store) LoadEntities(ctx context.Context, offset, limit int) ([]domain.EntityView, error) {
	if limit <= 0 {
		return []domain.EntityView{}, nil
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, created_at FROM entities
		ORDER BY created_at, id
		LIMIT ? OFFSET ?
	`, limit, offset)
	if err != nil {
		return nil, domain.StorageError("query entities", err)
	}
	defer rows.Close()

	views := []domain.EntityView{}
	for rows.Next() {
		var (
			id        string
			createdAt int64
		)
		if err := rows.Scan(&id, &createdAt); err != nil {
			return nil, domain.StorageError("scan entity", err)
		}
		views = append(views, domain.EntityView{
			ID:        domain.EntityID(id),
			CreatedAt: timeFromNanos(createdAt),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, domain.StorageError("iterate entities", err)
	}

	if err := hydrateViews(ctx, s.db, views); err != nil {
		return nil, err
	}
	return views, nil
}

// LoadEntity hydrates a single entity view.
func (s *Store) LoadEntity(ctx context.Context, id domain.EntityID) (*domain.EntityView, error) {
	view, err := loadOneView(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	return view, nil
}

// LoadParticipants resolves a relation entity's full participant list in
// stable (role name, participant id) order. A participant that is itself a
// relation gets one level of shallow unwrapping: its view carries its own
// participant ids, never their inlined views, so recursive structures (and
// cycles) cannot expand unboundedly.
func (s *Store) LoadParticipants(ctx context.Context, edgeID domain.EntityID) ([]domain.Participant, error) {
	if err := requireEntity(ctx, s.db, edgeID); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT r.id, r.schema_id, r.name, r.direction, r.cardinality, r.allowed_schemas, rl.participant_id
		FROM relation_links rl
		JOIN role_defs r ON r.id = rl.role_id
		WHERE rl.relation_id = ?
		ORDER BY r.name, r.id, rl.participant_id
	`, string(edgeID))
	if err != nil {
		return nil, domain.StorageError("query participants", err)
	}
	defer rows.Close()

	type linkRow struct {
		role          domain.Role
		participantID domain.EntityID
	}
	var links []linkRow
	for rows.Next() {
		var (
			row                                   linkRow
			roleID, schemaID, name                string
			direction, cardinality, participantID string
			allowedJSON                           sql.NullString
		)
		if err := rows.Scan(&roleID, &schemaID, &name, &direction, &cardinality, &allowedJSON, &participantID); err != nil {
			return nil, domain.StorageError("scan participant", err)
		}
		allowed, err := unmarshalAllowed(allowedJSON)
		if err != nil {
			return nil, domain.StorageError("decode allowed schemas", err)
		}
		row.role = domain.Role{
			ID:             domain.RoleID(roleID),
			SchemaID:       domain.SchemaID(schemaID),
			Name:           name,
			Direction:      domain.Direction(direction),
			Cardinality:    domain.Cardinality(cardinality),
			AllowedSchemas: allowed,
		}
		row.participantID = domain.EntityID(participantID)
		links = append(links, row)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.StorageError("iterate participants", err)
	}

	// Hydrate each distinct participant once.
	viewByID := make(map[domain.EntityID]*domain.EntityView)
	for _, link := range links {
		if _, ok := viewByID[link.participantID]; ok {
			continue
		}
		view, err := loadOneView(ctx, s.db, link.participantID)
		if err != nil {
			return nil, err
		}
		if view.Class == domain.ClassEdge {
			ids, err := nestedParticipantIDs(ctx, s.db, link.participantID)
			if err != nil {
				return nil, err
			}
			view.ParticipantIDs = ids
		}
		viewByID[link.participantID] = view
	}

	participants := []domain.Participant{}
	for _, link := range links {
		participants = append(participants, domain.Participant{
			Role:   link.role,
			Entity: *viewByID[link.participantID],
		})
	}
	return participants, nil
}

// CountEntities returns the total entity count.
func (s *Store) CountEntities(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM entities`).Scan(&n); err != nil {
		return 0, domain.StorageError("count entities", err)
	}
	return n, nil
}

// loadOneView hydrates a single entity, or ErrUnknownEntity.
func loadOneView(ctx context.Context, q querier, id domain.EntityID) (*domain.EntityView, error) {
	var createdAt int64
	err := q.QueryRowContext(ctx, `SELECT created_at FROM entities WHERE id = ?`, string(id)).Scan(&createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("entity %q: %w", id, domain.ErrUnknownEntity)
	}
	if err != nil {
		return nil, domain.StorageError("lookup entity", err)
	}

	views := []domain.EntityView{{ID: id, CreatedAt: timeFromNanos(createdAt)}}
	if err := hydrateViews(ctx, q, views); err != nil {
		return nil, err
	}
	return &views[0], nil
}

// hydrateViews fills schema sets, properties, classification and labels for
// the given views in place. Schema refs and properties are ordered by name
// (then id) so hydration output is byte-identical across calls.
func hydrateViews(ctx context.Context, q querier, views []domain.EntityView) error {
	if len(views) == 0 {
		return nil
	}

	ids := make([]domain.EntityID, len(views))
	index := make(map[domain.EntityID]int, len(views))
	for i := range views {
		ids[i] = views[i].ID
		index[views[i].ID] = i
	}
	args := idArgs(ids)
	in := placeholders(len(ids))

	typeRows, err := q.QueryContext(ctx, `
		SELECT et.entity_id, s.id, s.name, s.kind
		FROM entity_types et
		JOIN schema_defs s ON s.id = et.schema_id
		WHERE et.entity_id IN (`+in+`)
		ORDER BY s.name, s.id
	`, args...)
	if err != nil {
		return domain.StorageError("query entity types", err)
	}
	defer typeRows.Close()

	for typeRows.Next() {
		var entityID, schemaID, name, kind string
		if err := typeRows.Scan(&entityID, &schemaID, &name, &kind); err != nil {
			return domain.StorageError("scan entity type", err)
		}
		i := index[domain.EntityID(entityID)]
		views[i].Schemas = append(views[i].Schemas, domain.SchemaRef{
			ID:   domain.SchemaID(schemaID),
			Name: name,
			Kind: domain.SchemaKind(kind),
		})
	}
	if err := typeRows.Err(); err != nil {
		return domain.StorageError("iterate entity types", err)
	}

	valueRows, err := q.QueryContext(ctx, `
		SELECT av.entity_id, ad.id, ad.name, ad.data_type, ad.is_display,
		       av.val_text, av.val_int, av.val_real, av.val_bool
		FROM attribute_values av
		JOIN attribute_defs ad ON ad.id = av.attribute_id
		WHERE av.entity_id IN (`+in+`)
		ORDER BY ad.name, ad.id
	`, args...)
	if err != nil {
		return domain.StorageError("query values", err)
	}
	defer valueRows.Close()

	for valueRows.Next() {
		var (
			entityID, attrID, name, dataType string
			isDisplay                        int
			slots                            codec.Slots
		)
		if err := valueRows.Scan(&entityID, &attrID, &name, &dataType, &isDisplay,
			&slots.Text, &slots.Int, &slots.Real, &slots.Bool); err != nil {
			return domain.StorageError("scan value", err)
		}
		value, err := codec.DecodeValue(domain.DataType(dataType), slots)
		if err != nil {
			return err
		}
		i := index[domain.EntityID(entityID)]
		views[i].Properties = append(views[i].Properties, domain.Property{
			AttrID:    domain.AttrID(attrID),
			Name:      name,
			IsDisplay: isDisplay != 0,
			Value:     value,
		})
	}
	if err := valueRows.Err(); err != nil {
		return domain.StorageError("iterate values", err)
	}

	for i := range views {
		views[i].Class = domain.Classify(views[i].Schemas)
		views[i].Label = domain.DeriveLabel(views[i].ID, views[i].Properties)
	}
	return nil
}

// nestedParticipantIDs returns a nested relation's own participant ids, in
// stable order, for shallow embedding.
func nestedParticipantIDs(ctx context.Context, q querier, relationID domain.EntityID) ([]domain.EntityID, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT DISTINCT participant_id FROM relation_links
		WHERE relation_id = ?
		ORDER BY participant_id
	`, string(relationID))
	if err != nil {
		return nil, domain.StorageError("query nested participants", err)
	}
	defer rows.Close()

	var ids []domain.EntityID
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, domain.StorageError("scan nested participant", err)
		}
		ids = append(ids, domain.EntityID(id))
	}
	return ids, rows.Err()
}
