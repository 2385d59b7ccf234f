package server

import (
	"encoding/json"
	"errors"

	"github.com/npezzotti/polyglot-chat/internal/types"
)

const (
	enteredRoomText = "has entered the room"
	leftRoomText    = "has left the room"
)

// ClientMessage is an inbound frame. Exactly one field must be set.
type ClientMessage struct {
	Message      *ChatMessage  `json:"message,omitempty"`
	Offer        *Offer        `json:"offer,omitempty"`
	Answer       *Answer       `json:"answer,omitempty"`
	IceCandidate *IceCandidate `json:"ice_candidate,omitempty"`
	client       *Client       `json:"-"`
}

type ChatMessage struct {
	Data string `json:"data"`
}

type Offer struct {
	Offer json.RawMessage `json:"offer"`
}

type Answer struct {
	Answer json.RawMessage `json:"answer"`
	From   string          `json:"from"`
}

type IceCandidate struct {
	Candidate json.RawMessage `json:"candidate"`
	To        string          `json:"to"`
}

func (m *ClientMessage) validate() error {
	n := 0
	if m.Message != nil {
		n++
	}
	if m.Offer != nil {
		n++
	}
	if m.Answer != nil {
		n++
	}
	if m.IceCandidate != nil {
		n++
	}

	if n != 1 {
		return errors.New("expected exactly one event")
	}

	return nil
}

type SignalType string

const (
	SignalOffer        SignalType = "offer"
	SignalAnswer       SignalType = "answer"
	SignalIceCandidate SignalType = "ice_candidate"
)

type Signal struct {
	Type      SignalType      `json:"type"`
	Offer     json.RawMessage `json:"offer,omitempty"`
	Answer    json.RawMessage `json:"answer,omitempty"`
	Candidate json.RawMessage `json:"candidate,omitempty"`
	From      string          `json:"from"`
}

// ServerMessage is an outbound frame: a chat line, a relayed signal or an
// error. Only the populated part is serialized.
type ServerMessage struct {
	*types.Message
	*Signal
	Error string `json:"error,omitempty"`
}

func NewChatMessage(name, text string) *ServerMessage {
	return &ServerMessage{
		Message: &types.Message{
			Name:    name,
			Message: text,
		},
	}
}

func NewSignal(sig Signal) *ServerMessage {
	return &ServerMessage{Signal: &sig}
}

func ErrInvalidMessage() *ServerMessage {
	return &ServerMessage{Error: "invalid message format"}
}

func ErrServiceUnavailable() *ServerMessage {
	return &ServerMessage{Error: "service unavailable"}
}
