package game

// EventType tags presentation events sent to players.
type EventType string

const (
	EventStatus        EventType = "status"
	EventProgress      EventType = "progress"
	EventBranchOptions EventType = "branch:options"
	EventRewardSummary EventType = "reward:summary"
	EventSessionList   EventType = "session:list"
	EventRejected      EventType = "rejected"
	EventAccepted      EventType = "accepted"
)

// Event is a presentation message. Key names a localized text template and
// Args fill it; the presentation layer renders Text from them.
type Event struct {
	Type    EventType `json:"type"`
	Key     string    `json:"key,omitempty"`
	Args    []any     `json:"args,omitempty"`
	Text    string    `json:"text,omitempty"`
	Payload any       `json:"payload,omitempty"`
}

func Status(key string, args ...any) Event {
	return Event{Type: EventStatus, Key: key, Args: args}
}

func Progress(key string, args ...any) Event {
	return Event{Type: EventProgress, Key: key, Args: args}
}

func Rejected(key string, args ...any) Event {
	return Event{Type: EventRejected, Key: key, Args: args}
}

// BranchOption is one candidate next room in a roguelike vote.
type BranchOption struct {
	RoomID string `json:"roomId"`
	Type   string `json:"type"`
	Name   string `json:"name"`
	Goal   string `json:"goal"`
}

// BranchOptions is the payload of a branch selection broadcast.
type BranchOptions struct {
	InstanceID InstanceID     `json:"instanceId"`
	From       string         `json:"from"`
	Options    []BranchOption `json:"options"`
	Visited    []string       `json:"visited,omitempty"`
}

// SessionInfo is one row of the session list.
type SessionInfo struct {
	ID           InstanceID `json:"id"`
	DefinitionID string     `json:"definitionId"`
	Name         string     `json:"name"`
	Kind         string     `json:"kind"`
	State        string     `json:"state"`
	Members      int        `json:"members"`
	MaxPlayers   int        `json:"maxPlayers"`
	Zone         int        `json:"zone"`
}
