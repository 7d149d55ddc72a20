package service

// EventType defines the type of change notification
type EventType string

const (
	EventSchemaDefined    EventType = "schema_defined"
	EventSchemaRenamed    EventType = "schema_renamed"
	EventSchemaDeleted    EventType = "schema_deleted"
	EventAttributeAdded   EventType = "attribute_added"
	EventAttributeRenamed EventType = "attribute_renamed"
	EventRoleAdded        EventType = "role_added"
	EventEntityCreated    EventType = "entity_created"
	EventEntityUpdated    EventType = "entity_updated"
	EventEntityDeleted    EventType = "entity_deleted"
	EventValueSet         EventType = "value_set"
	EventValueCleared     EventType = "value_cleared"
	EventLinkCreated      EventType = "link_created"
	EventLinkRemoved      EventType = "link_removed"
)

// Event represents a committed change in the engine
type Event struct {
	Type    EventType   `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
}

// EventBus allows publishing and subscribing to events
type EventBus struct {
	subscribers []chan<- Event
}

// NewEventBus creates a new event bus
func NewEventBus() *EventBus {
	return &EventBus{
		subscribers: make([]chan<- Event, 0),
	}
}

// Subscribe adds a subscriber to receive events
func (eb *EventBus) Subscribe(ch chan<- Event) {
	eb.subscribers = append(eb.subscribers, ch)
}

// Publish sends an event to all subscribers
func (eb *EventBus) Publish(event Event) {
	for _, ch := range eb.subscribers {
		select {
		case ch <- event:
		default:
			// Subscriber is slow, skip
		}
	}
}
