package ws

import "encoding/json"

// Envelope wraps every inbound WS frame.
type Envelope struct {
	Event string          `json:"event"`          // e.g. "joinRoom"
	Body  json.RawMessage `json:"body,omitempty"` // arbitrary JSON object
}

// outEnvelope is the outbound twin of Envelope with an already typed body.
type outEnvelope struct {
	Event string `json:"event"`
	Body  any    `json:"body,omitempty"`
}

// Inbound event names.
const (
	EventCheckRoomExists = "checkIfRoomExists"
	EventJoinRoom        = "joinRoom"
	EventLeaveRoom       = "leaveRoom"
	EventVote            = "vote"
	EventReset           = "reset"
	EventReveal          = "reveal"
	EventChangeUserRole  = "changeUserRole"
	EventChangeUsername  = "changeUsername"
	EventAddUserStories  = "addUserStories"
	EventStartTimer      = "startTimer"
	EventPauseTimer      = "pauseTimer"
	EventResetTimer      = "resetTimer"

	EventError = "error"
)

// ──────────────────────────── Request DTOs ─────────────────────────

// RoomRequest and the lookup style requests below carry no required tags:
// an unknown room or user is a silent no-op in the coordinator.
type RoomRequest struct {
	RoomID string `json:"roomId"`
}

type JoinRoomRequest struct {
	RoomID   string   `json:"roomId"   validate:"required"`
	Username string   `json:"username" validate:"required"`
	Role     string   `json:"role"`
	Admin    bool     `json:"admin"`
	Time     *int64   `json:"time,omitempty"    validate:"omitempty,gte=0"`
	Stories  []string `json:"stories,omitempty"`
}

type LeaveRoomRequest struct{}

type VoteRequest struct {
	RoomID   string `json:"roomId"`
	Username string `json:"username"`
	Card     string `json:"card"`
}

type ChangeUserRoleRequest struct {
	RoomID   string `json:"roomId"`
	Username string `json:"username"`
}

type ChangeUsernameRequest struct {
	RoomID      string `json:"roomId"`
	OldUsername string `json:"oldUsername"`
	NewUsername string `json:"newUsername" validate:"required"`
}

type AddUserStoriesRequest struct {
	RoomID      string   `json:"roomId" validate:"required"`
	UserStories []string `json:"userStories"`
}

type TimerRequest struct {
	RoomID   string `json:"roomId"             validate:"required"`
	Duration *int64 `json:"duration,omitempty" validate:"omitempty,gte=0"`
}

// ErrorBody is returned for failures.
type ErrorBody struct {
	Error string `json:"error"`
}
