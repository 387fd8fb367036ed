package websocket

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionAnswer     Action = "answer"
	ActionAdvance    Action = "advance"
	ActionRetake     Action = "retake"
	ActionOpenPanel  Action = "open_panel"
	ActionClosePanel Action = "close_panel"
	ActionPing       Action = "ping"
)

// RequestPayload is the single inbound message shape. Fields that an
// action does not use are ignored.
type RequestPayload struct {
	Action   Action `json:"action"`
	OptionID *int64 `json:"option_id,omitempty"`
	Panel    string `json:"panel,omitempty"`
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventState  Event = "state"
	EventError  Event = "error"
	EventPong   Event = "pong"
	EventClosed Event = "closed"
)

// StateResponse carries a rendered snapshot of the session.
type StateResponse struct {
	Event Event       `json:"event"`
	Data  interface{} `json:"data"`
}

type ErrorResponse struct {
	Event Event  `json:"event"`
	Error string `json:"error"`
}

type PongResponse struct {
	Event Event `json:"event"`
}

type ClosedResponse struct {
	Event  Event  `json:"event"`
	Reason string `json:"reason"`
}
