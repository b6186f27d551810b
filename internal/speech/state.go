package speech

// State is the lifecycle state of a speech engine.
type State string

const (
	StateIdle      State = "idle"
	StateListening State = "listening"
	StateError     State = "error"
	StateSpeaking  State = "speaking"
)
