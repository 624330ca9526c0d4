package state

// State identifies a conversation step.
type State string

const (
	// StateIdle indicates there is no active conversation with the user.
	StateIdle State = "idle"
)

// Manager tracks which conversation step each user is in.
type Manager interface {
	SetState(userID int64, st State)
	GetState(userID int64) State
	ClearState(userID int64)
	InProgress(userID int64) bool
}
