package protocol

// HELLO (client -> server)
type HelloMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Name            string `json:"name"`

	// UnitID asks for control of one unit; empty means observe only.
	UnitID string `json:"unit_id,omitempty"`
}

// WELCOME (server -> client)
type WelcomeMsg struct {
	Type            string      `json:"type"`
	ProtocolVersion string      `json:"protocol_version"`
	SessionID       string      `json:"session_id"`
	Scenario        string      `json:"scenario"`
	Width           int         `json:"width"`
	Height          int         `json:"height"`
	Rows            []string    `json:"rows"`
	Round           int         `json:"round"`
	TurnDurationMs  int         `json:"turn_duration_ms"`
	ControlledUnit  string      `json:"controlled_unit,omitempty"`
	Units           []UnitState `json:"units"`
}

type UnitState struct {
	ID    string `json:"id"`
	Team  string `json:"team"`
	Pos   [2]int `json:"pos"`
	Order string `json:"order"`
	Moved bool   `json:"moved,omitempty"`
	Err   string `json:"err,omitempty"`
}

// FRAME (server -> client), one per round.
type FrameMsg struct {
	Type            string      `json:"type"`
	ProtocolVersion string      `json:"protocol_version"`
	Round           int         `json:"round"`
	Units           []UnitState `json:"units"`
	Arrived         []string    `json:"arrived"`
	Done            bool        `json:"done,omitempty"`
}

// ORDER (client -> server). Applied at the next round boundary.
type OrderMsg struct {
	Type            string  `json:"type"`
	ProtocolVersion string  `json:"protocol_version"`
	UnitID          string  `json:"unit_id"`
	Kind            string  `json:"kind"`
	Target          *[2]int `json:"target,omitempty"`
	Threshold       *int    `json:"threshold,omitempty"`
	Patience        *int    `json:"patience,omitempty"`
}

type AckMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	AckFor          string `json:"ack_for"`
	Accepted        bool   `json:"accepted"`
	Code            string `json:"code,omitempty"`
	Message         string `json:"message,omitempty"`
	Round           int    `json:"round,omitempty"`
}

type ErrorMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Code            string `json:"code"`
	Message         string `json:"message"`
}

func NewError(code, message string) ErrorMsg {
	return ErrorMsg{Type: TypeError, ProtocolVersion: Version, Code: code, Message: message}
}
