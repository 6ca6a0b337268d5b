package model

type EventType string

const (
	EventTypeCardCreated     EventType = "card.created"
	EventTypeCardUpdated     EventType = "card.updated"
	EventTypeCardDeletedSoft EventType = "card.deleted_soft"
	EventTypeCardRecovered   EventType = "card.recovered"
	EventTypeResyncRequired  EventType = "resync.required"
)

var websocketEventTypes = []EventType{
	EventTypeCardCreated,
	EventTypeCardUpdated,
	EventTypeCardDeletedSoft,
	EventTypeCardRecovered,
	EventTypeResyncRequired,
}

func WebSocketEventTypes() []EventType {
	out := make([]EventType, len(websocketEventTypes))
	copy(out, websocketEventTypes)
	return out
}

type TimelineEventType string

const (
	TimelineCardCreated  TimelineEventType = "card_created"
	TimelineCardDeleted  TimelineEventType = "card_deleted"
	TimelineTitleChanged TimelineEventType = "title_changed"
	TimelineTodoAdded    TimelineEventType = "todo_added"
	TimelineTodoUpdated  TimelineEventType = "todo_updated"
	TimelineTodoDeleted  TimelineEventType = "todo_deleted"
)

var timelineEventTypes = []TimelineEventType{
	TimelineCardCreated,
	TimelineCardDeleted,
	TimelineTitleChanged,
	TimelineTodoAdded,
	TimelineTodoUpdated,
	TimelineTodoDeleted,
}

func TimelineEventTypes() []TimelineEventType {
	out := make([]TimelineEventType, len(timelineEventTypes))
	copy(out, timelineEventTypes)
	return out
}
