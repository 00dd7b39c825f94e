package types

type ClientMessage struct {
	Type  string  `json:"type"` // "playerMove" | "shootSword"
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	VX    float64 `json:"vx,omitempty"`
	VY    float64 `json:"vy,omitempty"`
	Angle float64 `json:"angle"`
}

// ServerMessage is the envelope for everything the server pushes. Payload is
// one of the pkg/types payloads and must not be mutated once handed to an outbox.
type ServerMessage struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}
