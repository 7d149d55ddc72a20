package domain

import "time"

// EntityID identifies an entity. Every node and every edge carries one; ids
// are minted once and never reused, even after deletion.
type EntityID string

// Short returns a compact form of the id for fallback labels.
func (id EntityID) Short() string {
	s := string(id)
	if len(s) > 8 {
		return s[:8]
	}
	return s
}

// Entity is the universal identity record. It is immutable once created;
// everything else about a node or edge hangs off it by id.
type Entity struct {
	ID        EntityID  `json:"id"`
	CreatedAt time.Time `json:"created_at"`
}

// EntityClass is the derived node/edge classification. It is never stored:
// the loader computes it from the entity's schema set.
type EntityClass string

const (
	ClassNode EntityClass = "node"
	ClassEdge EntityClass = "edge"
)

// SchemaRef is the slim schema projection embedded in entity views.
type SchemaRef struct {
	ID   SchemaID   `json:"id"`
	Name string     `json:"name"`
	Kind SchemaKind `json:"kind"`
}

// Property is a name-resolved attribute value on an entity view.
type Property struct {
	AttrID    AttrID `json:"attribute_id"`
	Name      string `json:"name"`
	IsDisplay bool   `json:"is_display"`
	Value     Value  `json:"value"`
}

// EntityView is the denormalized, display-ready aggregate produced by the
// loader: resolved composite types, name-resolved values, classification and
// a derived label.
//
// ParticipantIDs is populated only when the view appears as a participant of
// another relation and is itself an edge; it references the nested relation's
// own participants by id without inlining them.
type EntityView struct {
	ID             EntityID    `json:"id"`
	CreatedAt      time.Time   `json:"created_at"`
	Class          EntityClass `json:"class"`
	Label          string      `json:"label"`
	Schemas        []SchemaRef `json:"schemas"`
	Properties     []Property  `json:"properties,omitempty"`
	ParticipantIDs []EntityID  `json:"participant_ids,omitempty"`
}

// SchemaIDs returns the ids of the view's schema set.
func (v EntityView) SchemaIDs() []SchemaID {
	ids := make([]SchemaID, 0, len(v.Schemas))
	for _, s := range v.Schemas {
		ids = append(ids, s.ID)
	}
	return ids
}

// Participant pairs a role definition with the entity filling it.
type Participant struct {
	Role   Role       `json:"role"`
	Entity EntityView `json:"entity"`
}

// Classify derives the node/edge classification from a schema set: an entity
// is an edge iff at least one of its schemas is relation-kind.
func Classify(schemas []SchemaRef) EntityClass {
	for _, s := range schemas {
		if s.Kind == SchemaKindRelation {
			return ClassEdge
		}
	}
	return ClassNode
}

// DeriveLabel picks a human-readable label for an entity view: the first
// display-attribute value, then the first text value, then the short id.
// Properties are expected in the loader's deterministic (name) order.
func DeriveLabel(id EntityID, props []Property) string {
	for _, p := range props {
		if p.IsDisplay {
			return p.Value.String()
		}
	}
	for _, p := range props {
		if p.Value.Type == TypeText {
			return p.Value.AsText()
		}
	}
	return id.Short()
}
