package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"tessera/internal/domain"
	"tessera/internal/service"
)

// Routes builds the API router.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(requestLogger(h.log))

	r.Route("/api", func(r chi.Router) {
		r.Get("/catalog", h.GetCatalog)

		r.Post("/schemas", h.DefineSchema)
		r.Put("/schemas/{id}", h.RenameSchema)
		r.Delete("/schemas/{id}", h.DeleteSchema)
		r.Post("/schemas/{id}/attributes", h.AddAttribute)
		r.Post("/schemas/{id}/roles", h.AddRole)
		r.Put("/attributes/{id}", h.RenameAttribute)

		r.Get("/entities", h.ListEntities)
		r.Get("/entities/{id}", h.GetEntity)
		r.Patch("/entities/{id}", h.EditEntity)
		r.Delete("/entities/{id}", h.DeleteEntity)
		r.Get("/entities/{id}/values", h.GetValues)
		r.Put("/entities/{id}/values/{attrID}", h.SetValue)
		r.Delete("/entities/{id}/values/{attrID}", h.ClearValue)

		r.Post("/nodes", h.CreateNode)
		r.Post("/edges", h.CreateEdge)
		r.Get("/edges/{id}/participants", h.GetParticipants)

		r.Post("/links", h.CreateLink)
		r.Delete("/links", h.DeleteLink)
	})

	if h.events != nil {
		r.Get("/events", h.events.ServeHTTP)
	}

	return r
}

// GetCatalog returns every schema definition
func (h *Handler) GetCatalog(w http.ResponseWriter, r *http.Request) {
	catalog, err := h.engine.Catalog(r.Context())
	if err != nil {
		h.writeError(w, "Failed to get catalog", err)
		return
	}
	h.writeJSON(w, catalog, http.StatusOK)
}

// DefineSchemaRequest is the body for POST /api/schemas
type DefineSchemaRequest struct {
	Name string            `json:"name"`
	Kind domain.SchemaKind `json:"kind"`
}

// DefineSchema registers a new schema
func (h *Handler) DefineSchema(w http.ResponseWriter, r *http.Request) {
	var req DefineSchemaRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, "Invalid request body", err)
		return
	}

	id, err := h.engine.DefineSchema(r.Context(), req.Name, req.Kind)
	if err != nil {
		h.writeError(w, "Failed to define schema", err)
		return
	}
	h.writeJSON(w, map[string]string{"id": string(id)}, http.StatusCreated)
}

// RenameRequest carries the new name for a rename
type RenameRequest struct {
	Name string `json:"name"`
}

// RenameSchema renames a schema
func (h *Handler) RenameSchema(w http.ResponseWriter, r *http.Request) {
	id := domain.SchemaID(chi.URLParam(r, "id"))

	var req RenameRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, "Invalid request body", err)
		return
	}

	if err := h.engine.RenameSchema(r.Context(), id, req.Name); err != nil {
		h.writeError(w, "Failed to rename schema", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteSchema removes a schema; ?cascade=true forces removal of dependents
func (h *Handler) DeleteSchema(w http.ResponseWriter, r *http.Request) {
	id := domain.SchemaID(chi.URLParam(r, "id"))
	cascade := r.URL.Query().Get("cascade") == "true"

	if err := h.engine.DeleteSchema(r.Context(), id, cascade); err != nil {
		h.writeError(w, "Failed to delete schema", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AddAttributeRequest is the body for POST /api/schemas/{id}/attributes
type AddAttributeRequest struct {
	Name      string          `json:"name"`
	DataType  domain.DataType `json:"data_type"`
	IsDisplay bool            `json:"is_display"`
}

// AddAttribute adds an attribute definition to a schema
func (h *Handler) AddAttribute(w http.ResponseWriter, r *http.Request) {
	schemaID := domain.SchemaID(chi.URLParam(r, "id"))

	var req AddAttributeRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, "Invalid request body", err)
		return
	}

	id, err := h.engine.AddAttribute(r.Context(), schemaID, req.Name, req.DataType, req.IsDisplay)
	if err != nil {
		h.writeError(w, "Failed to add attribute", err)
		return
	}
	h.writeJSON(w, map[string]string{"id": string(id)}, http.StatusCreated)
}

// RenameAttribute renames an attribute definition
func (h *Handler) RenameAttribute(w http.ResponseWriter, r *http.Request) {
	id := domain.AttrID(chi.URLParam(r, "id"))

	var req RenameRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, "Invalid request body", err)
		return
	}

	if err := h.engine.RenameAttribute(r.Context(), id, req.Name); err != nil {
		h.writeError(w, "Failed to rename attribute", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AddRoleRequest is the body for POST /api/schemas/{id}/roles
type AddRoleRequest struct {
	Name           string             `json:"name"`
	Direction      domain.Direction   `json:"direction"`
	Cardinality    domain.Cardinality `json:"cardinality"`
	AllowedSchemas []domain.SchemaID  `json:"allowed_schemas,omitempty"`
}

// AddRole adds a participant slot to a relation schema
func (h *Handler) AddRole(w http.ResponseWriter, r *http.Request) {
	schemaID := domain.SchemaID(chi.URLParam(r, "id"))

	var req AddRoleRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, "Invalid request body", err)
		return
	}

	id, err := h.engine.AddRole(r.Context(), schemaID, req.Name, req.Direction, req.Cardinality, req.AllowedSchemas)
	if err != nil {
		h.writeError(w, "Failed to add role", err)
		return
	}
	h.writeJSON(w, map[string]string{"id": string(id)}, http.StatusCreated)
}

// EntityPage is the response for GET /api/entities
type EntityPage struct {
	Entities []domain.EntityView `json:"entities"`
	Offset   int                 `json:"offset"`
	Limit    int                 `json:"limit"`
	Total    int                 `json:"total"`
}

// ListEntities returns a page of hydrated entity views
func (h *Handler) ListEntities(w http.ResponseWriter, r *http.Request) {
	offset := queryInt(r, "offset", 0)
	limit := queryInt(r, "limit", 50)

	entities, err := h.engine.Entities(r.Context(), offset, limit)
	if err != nil {
		h.writeError(w, "Failed to list entities", err)
		return
	}
	total, err := h.engine.CountEntities(r.Context())
	if err != nil {
		h.writeError(w, "Failed to count entities", err)
		return
	}

	h.writeJSON(w, EntityPage{
		Entities: entities,
		Offset:   offset,
		Limit:    limit,
		Total:    total,
	}, http.StatusOK)
}

// GetEntity returns a single hydrated entity view
func (h *Handler) GetEntity(w http.ResponseWriter, r *http.Request) {
	id := domain.EntityID(chi.URLParam(r, "id"))

	view, err := h.engine.Entity(r.Context(), id)
	if err != nil {
		h.writeError(w, "Failed to get entity", err)
		return
	}
	h.writeJSON(w, view, http.StatusOK)
}

// EditEntity applies a compound update and returns the fresh view
func (h *Handler) EditEntity(w http.ResponseWriter, r *http.Request) {
	id := domain.EntityID(chi.URLParam(r, "id"))

	var edit service.EntityEdit
	if err := decode(r, &edit); err != nil {
		h.writeError(w, "Invalid request body", err)
		return
	}

	view, err := h.engine.EditEntity(r.Context(), id, edit)
	if err != nil {
		h.writeError(w, "Failed to edit entity", err)
		return
	}
	h.writeJSON(w, view, http.StatusOK)
}

// DeleteEntity removes an entity and its dependent rows
func (h *Handler) DeleteEntity(w http.ResponseWriter, r *http.Request) {
	id := domain.EntityID(chi.URLParam(r, "id"))

	if err := h.engine.DeleteEntity(r.Context(), id); err != nil {
		h.writeError(w, "Failed to delete entity", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetValues returns an entity's property values keyed by attribute id
func (h *Handler) GetValues(w http.ResponseWriter, r *http.Request) {
	id := domain.EntityID(chi.URLParam(r, "id"))

	values, err := h.engine.Values(r.Context(), id)
	if err != nil {
		h.writeError(w, "Failed to get values", err)
		return
	}
	h.writeJSON(w, values, http.StatusOK)
}

// SetValue writes one property value
func (h *Handler) SetValue(w http.ResponseWriter, r *http.Request) {
	id := domain.EntityID(chi.URLParam(r, "id"))
	attrID := domain.AttrID(chi.URLParam(r, "attrID"))

	var value domain.Value
	if err := decode(r, &value); err != nil {
		h.writeError(w, "Invalid request body", err)
		return
	}

	if err := h.engine.SetValue(r.Context(), id, attrID, value); err != nil {
		h.writeError(w, "Failed to set value", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ClearValue removes one property value
func (h *Handler) ClearValue(w http.ResponseWriter, r *http.Request) {
	id := domain.EntityID(chi.URLParam(r, "id"))
	attrID := domain.AttrID(chi.URLParam(r, "attrID"))

	if err := h.engine.ClearValue(r.Context(), id, attrID); err != nil {
		h.writeError(w, "Failed to clear value", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CreateEntityRequest is the body for POST /api/nodes and POST /api/edges
type CreateEntityRequest struct {
	SchemaIDs []domain.SchemaID              `json:"schema_ids"`
	Values    map[domain.AttrID]domain.Value `json:"values,omitempty"`
	Links     []service.LinkSpec             `json:"links,omitempty"`
}

// CreateNode creates an entity typed by entity-kind schemas
func (h *Handler) CreateNode(w http.ResponseWriter, r *http.Request) {
	var req CreateEntityRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, "Invalid request body", err)
		return
	}

	view, err := h.engine.CreateNode(r.Context(), req.SchemaIDs, req.Values)
	if err != nil {
		h.writeError(w, "Failed to create node", err)
		return
	}
	h.writeJSON(w, view, http.StatusCreated)
}

// CreateEdge creates a relation entity with its values and participant links
func (h *Handler) CreateEdge(w http.ResponseWriter, r *http.Request) {
	var req CreateEntityRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, "Invalid request body", err)
		return
	}

	view, err := h.engine.CreateEdge(r.Context(), req.SchemaIDs, req.Values, req.Links)
	if err != nil {
		h.writeError(w, "Failed to create edge", err)
		return
	}
	h.writeJSON(w, view, http.StatusCreated)
}

// GetParticipants resolves a relation entity's participant list
func (h *Handler) GetParticipants(w http.ResponseWriter, r *http.Request) {
	id := domain.EntityID(chi.URLParam(r, "id"))

	participants, err := h.engine.Participants(r.Context(), id)
	if err != nil {
		h.writeError(w, "Failed to get participants", err)
		return
	}
	h.writeJSON(w, participants, http.StatusOK)
}

// LinkRequest names one participant binding
type LinkRequest struct {
	RelationID    domain.EntityID `json:"relation_id"`
	ParticipantID domain.EntityID `json:"participant_id"`
	RoleID        domain.RoleID   `json:"role_id"`
}

// CreateLink binds a participant to a relation entity
func (h *Handler) CreateLink(w http.ResponseWriter, r *http.Request) {
	var req LinkRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, "Invalid request body", err)
		return
	}

	if err := h.engine.Link(r.Context(), req.RelationID, req.ParticipantID, req.RoleID); err != nil {
		h.writeError(w, "Failed to create link", err)
		return
	}
	w.WriteHeader(http.StatusCreated)
}

// DeleteLink removes a participant link
func (h *Handler) DeleteLink(w http.ResponseWriter, r *http.Request) {
	var req LinkRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, "Invalid request body", err)
		return
	}

	if err := h.engine.Unlink(r.Context(), req.RelationID, req.ParticipantID, req.RoleID); err != nil {
		h.writeError(w, "Failed to delete link", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func queryInt(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}
