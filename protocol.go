package maxchat

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"strconv"
)

// Protocol constants carried by every outbound envelope.
const (
	ProtocolVersion = 11
	CommandClass    = 0
)

// Opcode identifies the kind of operation an envelope carries.
type Opcode int

const (
	OpHeartbeat Opcode = 1
	OpHandshake Opcode = 19
	OpSendMsg   Opcode = 64
	OpSubscribe Opcode = 65
)

// String returns a readable name for known opcodes.
func (o Opcode) String() string {
	switch o {
	case OpHeartbeat:
		return "heartbeat"
	case OpHandshake:
		return "handshake"
	case OpSendMsg:
		return "send_message"
	case OpSubscribe:
		return "subscribe"
	default:
		return strconv.Itoa(int(o))
	}
}

// --- Envelopes (Client -> Server) ---

// Envelope is the wire unit sent for every outbound operation.
type Envelope struct {
	Ver     int    `json:"ver"`
	Cmd     int    `json:"cmd"`
	Seq     int64  `json:"seq"`
	Opcode  Opcode `json:"opcode"`
	Payload any    `json:"payload"`
}

// HandshakePayload authenticates the session. The sync cursors are zero on
// a cold start.
type HandshakePayload struct {
	Interactive  bool   `json:"interactive"`
	Token        string `json:"token"`
	ChatsCount   int    `json:"chatsCount"`
	ChatsSync    int64  `json:"chatsSync"`
	ContactsSync int64  `json:"contactsSync"`
	PresenceSync int64  `json:"presenceSync"`
	DraftsSync   int64  `json:"draftsSync"`
}

// HeartbeatPayload is the body of a keepalive envelope.
type HeartbeatPayload struct {
	Interactive bool `json:"interactive"`
}

// SubscribePayload subscribes the session to a chat.
type SubscribePayload struct {
	ChatID int64  `json:"chatId"`
	Type   string `json:"type"`
}

// OutgoingMessage is the message body of a send-message envelope.
type OutgoingMessage struct {
	Text     string `json:"text"`
	CID      int64  `json:"cid"`
	Elements []any  `json:"elements"`
	Attaches []any  `json:"attaches"`
}

// SendMessagePayload posts a message to a chat.
type SendMessagePayload struct {
	ChatID  int64           `json:"chatId"`
	Message OutgoingMessage `json:"message"`
	Notify  bool            `json:"notify"`
}

// NewEnvelope creates an envelope with the fixed version and command class.
func NewEnvelope(seq int64, op Opcode, payload any) *Envelope {
	return &Envelope{
		Ver:     ProtocolVersion,
		Cmd:     CommandClass,
		Seq:     seq,
		Opcode:  op,
		Payload: payload,
	}
}

// NewHandshakePayload creates the payload for the opening handshake.
func NewHandshakePayload(token string, chatsCount int) HandshakePayload {
	return HandshakePayload{
		Interactive: true,
		Token:       token,
		ChatsCount:  chatsCount,
	}
}

// NewSubscribePayload creates a text subscription for chatID.
func NewSubscribePayload(chatID int64) SubscribePayload {
	return SubscribePayload{ChatID: chatID, Type: "TEXT"}
}

// NewSendMessagePayload creates a message payload. cid is the client
// generated id the server uses to de-duplicate retransmissions.
func NewSendMessagePayload(chatID int64, text string, cid int64) SendMessagePayload {
	return SendMessagePayload{
		ChatID: chatID,
		Message: OutgoingMessage{
			Text:     text,
			CID:      cid,
			Elements: []any{},
			Attaches: []any{},
		},
		Notify: true,
	}
}

// --- Frames (Server -> Client) ---

// Frame is a decoded inbound message. Numbers are kept as json.Number so
// that 64-bit ids survive decoding.
type Frame map[string]any

// DecodeFrame decodes a single JSON object.
func DecodeFrame(data []byte) (Frame, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var frame Frame
	if err := dec.Decode(&frame); err != nil {
		return nil, &DecodeError{Data: data, Err: err}
	}
	if frame == nil {
		return nil, &DecodeError{Data: data, Err: errors.New("null frame")}
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, &DecodeError{Data: data, Err: errors.New("trailing data after object")}
	}
	return frame, nil
}

// Opcode returns the frame's opcode field.
func (f Frame) Opcode() (Opcode, bool) {
	n, ok := f.number("opcode")
	return Opcode(n), ok
}

// Seq returns the frame's seq field.
func (f Frame) Seq() (int64, bool) {
	return f.number("seq")
}

// Cmd returns the frame's cmd field.
func (f Frame) Cmd() (int, bool) {
	n, ok := f.number("cmd")
	return int(n), ok
}

// Payload returns the frame's payload object, or nil if absent.
func (f Frame) Payload() map[string]any {
	p, _ := f["payload"].(map[string]any)
	return p
}

func (f Frame) number(key string) (int64, bool) {
	switch v := f[key].(type) {
	case json.Number:
		n, err := v.Int64()
		return n, err == nil
	case float64:
		return int64(v), true
	case int64:
		return v, true
	case int:
		return int64(v), true
	default:
		return 0, false
	}
}
