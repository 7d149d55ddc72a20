package domain

import "time"

// SchemaID identifies a schema definition.
type SchemaID string

// AttrID identifies an attribute definition.
type AttrID string

// RoleID identifies a role definition.
type RoleID string

// SchemaKind distinguishes node type definitions from edge type definitions.
type SchemaKind string

const (
	// SchemaKindEntity marks a schema that types nodes.
	SchemaKindEntity SchemaKind = "entity"
	// SchemaKindRelation marks a schema that types edges and may carry roles.
	SchemaKindRelation SchemaKind = "relation"
)

// Valid reports whether the kind is one of the two supported kinds.
func (k SchemaKind) Valid() bool {
	return k == SchemaKindEntity || k == SchemaKindRelation
}

// Direction describes which side of a relation a role sits on.
type Direction string

const (
	DirectionSource Direction = "source"
	DirectionTarget Direction = "target"
	// DirectionNone marks an unordered role.
	DirectionNone Direction = "none"
)

// Valid reports whether the direction is a supported value.
func (d Direction) Valid() bool {
	return d == DirectionSource || d == DirectionTarget || d == DirectionNone
}

// Cardinality bounds how many links a role admits per relation instance.
type Cardinality string

const (
	CardinalityOne  Cardinality = "one"
	CardinalityMany Cardinality = "many"
)

// Valid reports whether the cardinality is a supported value.
func (c Cardinality) Valid() bool {
	return c == CardinalityOne || c == CardinalityMany
}

// Schema is a reusable type definition. Attribute and role membership is keyed
// by identity, so renaming a schema never detaches the entities typed by it.
type Schema struct {
	ID         SchemaID    `json:"id"`
	Name       string      `json:"name"`
	Kind       SchemaKind  `json:"kind"`
	CreatedAt  time.Time   `json:"created_at"`
	Attributes []Attribute `json:"attributes,omitempty"`
	Roles      []Role      `json:"roles,omitempty"`
}

// Attribute is a typed property definition owned by a schema. (SchemaID, Name)
// is unique; values reference the attribute id, never the name, so renames
// preserve all stored values.
type Attribute struct {
	ID        AttrID   `json:"id"`
	SchemaID  SchemaID `json:"schema_id"`
	Name      string   `json:"name"`
	DataType  DataType `json:"data_type"`
	IsDisplay bool     `json:"is_display"`
}

// Role is a named participant slot on a relation-kind schema. An empty
// AllowedSchemas set means any entity may fill the slot.
type Role struct {
	ID             RoleID      `json:"id"`
	SchemaID       SchemaID    `json:"schema_id"`
	Name           string      `json:"name"`
	Direction      Direction   `json:"direction"`
	Cardinality    Cardinality `json:"cardinality"`
	AllowedSchemas []SchemaID  `json:"allowed_schemas,omitempty"`
}

// Allows reports whether an entity holding the given schema set may fill the role.
func (r Role) Allows(schemas []SchemaID) bool {
	if len(r.AllowedSchemas) == 0 {
		return true
	}
	for _, allowed := range r.AllowedSchemas {
		for _, held := range schemas {
			if allowed == held {
				return true
			}
		}
	}
	return false
}

// Catalog is the full set of schema definitions, as consumed by form-driven UIs.
type Catalog struct {
	Schemas []Schema `json:"schemas"`
}

// Schema returns the schema with the given id, or nil.
func (c *Catalog) Schema(id SchemaID) *Schema {
	for i := range c.Schemas {
		if c.Schemas[i].ID == id {
			return &c.Schemas[i]
		}
	}
	return nil
}

// SchemaByName returns the schema with the given name, or nil. Names are
// compared case-sensitively, matching the write path.
func (c *Catalog) SchemaByName(name string) *Schema {
	for i := range c.Schemas {
		if c.Schemas[i].Name == name {
			return &c.Schemas[i]
		}
	}
	return nil
}
