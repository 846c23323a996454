package core

import (
	"encoding/json"
	"errors"
	"fmt"
)

// AdminName is the sender used for messages generated by the room itself.
const AdminName = "Admin"

// JoinPrompt is sent to every freshly upgraded connection before it joins.
const JoinPrompt = "Enter user info"

type FrameKind int

const (
	FrameText FrameKind = iota
	FrameBinary
	FrameClose
)

func (k FrameKind) String() string {
	switch k {
	case FrameText:
		return "text"
	case FrameBinary:
		return "binary"
	case FrameClose:
		return "close"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Frame is one websocket message as seen by the room.
type Frame struct {
	Kind FrameKind
	Data []byte
}

func TextFrame(s string) Frame   { return Frame{Kind: FrameText, Data: []byte(s)} }
func BinaryFrame(b []byte) Frame { return Frame{Kind: FrameBinary, Data: b} }
func CloseFrame() Frame          { return Frame{Kind: FrameClose} }

// ChatMessage is the wire shape of every chat text frame.
type ChatMessage struct {
	From string `json:"from"`
	Msg  string `json:"msg"`
}

// JoinRequest is the first frame a client sends after the prompt.
type JoinRequest struct {
	Name string `json:"name"`
}

var (
	ErrMissingField = errors.New("missing field")
	ErrNotText      = errors.New("not a text frame")
)

// DecodeChatMessage requires both "from" and "msg" to be present.
func DecodeChatMessage(f Frame) (ChatMessage, error) {
	if f.Kind != FrameText {
		return ChatMessage{}, ErrNotText
	}
	var raw struct {
		From *string `json:"from"`
		Msg  *string `json:"msg"`
	}
	if err := json.Unmarshal(f.Data, &raw); err != nil {
		return ChatMessage{}, fmt.Errorf("decode chat message: %w", err)
	}
	if raw.From == nil || raw.Msg == nil {
		return ChatMessage{}, fmt.Errorf("decode chat message: %w", ErrMissingField)
	}
	return ChatMessage{From: *raw.From, Msg: *raw.Msg}, nil
}

func DecodeJoinRequest(f Frame) (JoinRequest, error) {
	if f.Kind != FrameText {
		return JoinRequest{}, ErrNotText
	}
	var raw struct {
		Name *string `json:"name"`
	}
	if err := json.Unmarshal(f.Data, &raw); err != nil {
		return JoinRequest{}, fmt.Errorf("decode join request: %w", err)
	}
	if raw.Name == nil {
		return JoinRequest{}, fmt.Errorf("decode join request: %w", ErrMissingField)
	}
	return JoinRequest{Name: *raw.Name}, nil
}

// AdminFrame builds a chat text frame sent on behalf of the room.
func AdminFrame(msg string) Frame {
	b, err := json.Marshal(ChatMessage{From: AdminName, Msg: msg})
	if err != nil {
		// ChatMessage only holds strings.
		panic(err)
	}
	return Frame{Kind: FrameText, Data: b}
}
