package dialog

// EventType tags one streamed turn event.
type EventType string

const (
	EventSession EventType = "session"
	EventIntent  EventType = "intent"
	EventData    EventType = "data"
	EventChunk   EventType = "chunk"
	EventDone    EventType = "done"
	EventError   EventType = "error"
)

// Event is one element of the ordered stream a turn produces:
// session, intent, optional data, zero or more chunks, then exactly one
// of done or error.
type Event struct {
	Type EventType `json:"type"`
	Data any       `json:"data,omitempty"`
}

// SessionEventData is the payload of the session event.
type SessionEventData struct {
	SessionID string `json:"session_id"`
}

// ChunkEventData is the payload of each chunk event.
type ChunkEventData struct {
	Content string `json:"content"`
}

// ErrorEventData is the payload of the error event.
type ErrorEventData struct {
	Message string `json:"message"`
}
