package poker

// Outbound event names.
const (
	EventRoomUpdate       = "roomUpdate"
	EventVotesUpdate      = "votesUpdate"
	EventUserVoted        = "userVoted"
	EventResetVotes       = "resetVotes"
	EventRevealVotes      = "revealVotes"
	EventRoomState        = "roomState"
	EventStoriesUpdate    = "userStoriesUpdate"
	EventTimerState       = "timerState"
	EventRoomExistsAnswer = "checkIfRoomExistsResponse"
)

type MemberView struct {
	Username string `json:"username"`
	Role     Role   `json:"role"`
	Admin    bool   `json:"admin"`
}

type RevealResult struct {
	Votes     map[string]string `json:"votes"`
	Average   float64           `json:"average"`
	MostVoted string            `json:"mostVoted"`
}

type RoomState struct {
	Revealed bool              `json:"revealed"`
	Votes    map[string]string `json:"votes"`
}

// TimerState carries enough for clients to compute the remaining seconds
// themselves: duration - (serverTime - startedAt)/1000 while running.
type TimerState struct {
	Duration   int64  `json:"duration"`
	Running    bool   `json:"running"`
	StartedAt  *int64 `json:"startedAt"`
	ServerTime int64  `json:"serverTime"`
}

type RoomExists struct {
	Exists bool `json:"exists"`
}

// RoomSnapshot is a read-only view of a room for the REST surface. Votes are
// only exposed once the round is revealed.
type RoomSnapshot struct {
	ID           string            `json:"id"`
	Revealed     bool              `json:"revealed"`
	Participants []SeatView        `json:"participants"`
	Votes        map[string]string `json:"votes,omitempty"`
	Stories      []string          `json:"stories"`
	Timer        TimerState        `json:"timer"`
}

type SeatView struct {
	Username string `json:"username"`
	Role     Role   `json:"role"`
	Admin    bool   `json:"admin"`
	Voted    bool   `json:"voted"`
}
