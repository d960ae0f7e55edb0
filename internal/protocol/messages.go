package protocol

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mockmantra/mockmantra/internal/interview"
)

// MessageType identifies websocket payload variants.
type MessageType string

const (
	TypeClientControl MessageType = "client_control"
	TypeSessionEvent  MessageType = "session_event"
	TypeProgress      MessageType = "progress"
	TypeErrorEvent    MessageType = "error_event"
)

// ControlAction is a client request against a running interview.
type ControlAction string

const (
	ActionPause  ControlAction = "pause"
	ActionResume ControlAction = "resume"
	ActionStop   ControlAction = "stop"
)

var (
	ErrUnsupportedType = errors.New("unsupported message type")
	ErrUnknownAction   = errors.New("unknown control action")
)

type Envelope struct {
	Type MessageType `json:"type"`
}

type ClientControl struct {
	Type   MessageType   `json:"type"`
	Action ControlAction `json:"action"`
}

// SessionEvent wraps one lifecycle event for the wire.
type SessionEvent struct {
	Type  MessageType     `json:"type"`
	Event interview.Event `json:"event"`
}

func NewSessionEvent(ev interview.Event) SessionEvent {
	return SessionEvent{Type: TypeSessionEvent, Event: ev}
}

// ProgressUpdate is delivered on the progress stream, separate from
// lifecycle events.
type ProgressUpdate struct {
	Type      MessageType        `json:"type"`
	SessionID string             `json:"session_id"`
	Progress  interview.Progress `json:"progress"`
}

func NewProgressUpdate(sessionID string, p interview.Progress) ProgressUpdate {
	return ProgressUpdate{Type: TypeProgress, SessionID: sessionID, Progress: p}
}

type ErrorEvent struct {
	Type   MessageType `json:"type"`
	Code   string      `json:"code"`
	Detail string      `json:"detail,omitempty"`
}

func NewErrorEvent(code, detail string) ErrorEvent {
	return ErrorEvent{Type: TypeErrorEvent, Code: code, Detail: detail}
}

// ParseClientMessage decodes and validates one inbound frame. Clients
// only ever send control requests.
func ParseClientMessage(raw []byte) (ClientControl, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return ClientControl{}, fmt.Errorf("invalid envelope: %w", err)
	}
	if env.Type != TypeClientControl {
		return ClientControl{}, ErrUnsupportedType
	}

	var msg ClientControl
	if err := json.Unmarshal(raw, &msg); err != nil {
		return ClientControl{}, err
	}
	switch msg.Action {
	case ActionPause, ActionResume, ActionStop:
		return msg, nil
	default:
		return ClientControl{}, fmt.Errorf("%w: %q", ErrUnknownAction, msg.Action)
	}
}
