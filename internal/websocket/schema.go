package websocket

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionTabSwitch Action = "tab_switch"
	ActionStatus    Action = "status"
	ActionPing      Action = "ping"
)

// RequestEnvelope is every client message. The stream is already bound to one
// quiz and student, so the action is all a client sends.
type RequestEnvelope struct {
	Action Action `json:"action"`
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventError     Event = "error"
	EventTabSwitch Event = "tab_switch"
	EventStatus    Event = "status"
	EventPong      Event = "pong"
)

// Message is a server event; Data holds the event-specific payload.
type Message struct {
	Event Event       `json:"event"`
	Data  interface{} `json:"data,omitempty"`
}

type ErrorResponse struct {
	Event Event  `json:"event"`
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}
