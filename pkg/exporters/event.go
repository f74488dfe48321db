package exporters

import "time"

// Event is the envelope exported downstream for one generated result.
type Event struct {
	Kind        string    `json:"kind"`
	Input       any       `json:"input,omitempty"`
	Payload     any       `json:"payload"`
	GeneratedAt time.Time `json:"generated_at"`
}

// NewEvent wraps a result of the given kind.
func NewEvent(kind string, input, payload any) Event {
	return Event{
		Kind:        kind,
		Input:       input,
		Payload:     payload,
		GeneratedAt: time.Now().UTC(),
	}
}
