package websocket

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionAutosave Action = "autosave"
	ActionSubmit   Action = "submit"
	ActionClock    Action = "clock"
	ActionPing     Action = "ping"
)

// RequestEnvelope is used to peek at the action before full parsing.
type RequestEnvelope struct {
	Action Action `json:"action"`
}

// AutosaveRequest is sent by the client to save one question's selections.
type AutosaveRequest struct {
	Action     Action   `json:"action"`
	QuestionID string   `json:"question_id"`
	Selected   []string `json:"selected"`
}

// SubmitRequest is sent by the client to finish and grade the exam.
// Responses may be omitted, in which case the autosaved selections are graded.
type SubmitRequest struct {
	Action    Action              `json:"action"`
	Responses map[string][]string `json:"responses,omitempty"`
}

// ClockRequest asks the server for the authoritative remaining time.
type ClockRequest struct {
	Action Action `json:"action"`
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventError     Event = "error"
	EventSuccess   Event = "success"
	EventGraded    Event = "graded"
	EventClock     Event = "clock"
	EventPong      Event = "pong"
	EventTimeUp    Event = "time_up"
	EventCompleted Event = "completed"
)

type AutosaveResponse struct {
	Event  Event  `json:"event"`
	Status string `json:"status"`
}

type GradedResponse struct {
	Event Event `json:"event"`
	Score int   `json:"score"`
	Total int   `json:"total"`
}

// ClockResponse carries the server-side countdown. Clients render it but
// never decide expiry themselves.
type ClockResponse struct {
	Event            Event   `json:"event"`
	RemainingSeconds float64 `json:"remaining_seconds"`
}

type ErrorResponse struct {
	Event Event  `json:"event"`
	Code  string `json:"code,omitempty"`
	Error string `json:"error"`
}

type PongResponse struct {
	Event Event `json:"event"`
}
