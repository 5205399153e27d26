package proto

import (
	"encoding/json"
	"fmt"

	"ballpit/bridge/internal/scene"
)

const (
	// Version tracks the wire-protocol revision spoken with the scene host.
	Version = 1

	// Type identifiers for websocket payloads.
	TypeHello       = "hello"
	TypeWelcome     = "welcome"
	TypeFetchSlot   = "fetchSlot"
	TypeSlotResult  = "slot"
	TypeSubmitBatch = "submitBatch"
	TypeBatchResult = "batchOutcome"
	TypeError       = "error"
)

// Hello opens a session with the scene host.
type Hello struct {
	Token string
}

// EncodeHello renders the session-opening payload.
func EncodeHello(msg Hello) ([]byte, error) {
	frame := struct {
		Ver   int    `json:"ver"`
		Type  string `json:"type"`
		Token string `json:"token,omitempty"`
	}{
		Ver:   Version,
		Type:  TypeHello,
		Token: msg.Token,
	}
	return json.Marshal(frame)
}

// FetchSlotRequest asks for a snapshot of one remote slot subtree.
type FetchSlotRequest struct {
	Seq               uint64
	SlotID            string
	Depth             int
	IncludeComponents bool
}

// EncodeFetchSlot renders a slot fetch request.
func EncodeFetchSlot(msg FetchSlotRequest) ([]byte, error) {
	frame := struct {
		Ver               int    `json:"ver"`
		Type              string `json:"type"`
		Seq               uint64 `json:"seq"`
		SlotID            string `json:"slotId"`
		Depth             int    `json:"depth"`
		IncludeComponents bool   `json:"includeComponents"`
	}{
		Ver:               Version,
		Type:              TypeFetchSlot,
		Seq:               msg.Seq,
		SlotID:            msg.SlotID,
		Depth:             msg.Depth,
		IncludeComponents: msg.IncludeComponents,
	}
	return json.Marshal(frame)
}

// SubmitBatchRequest carries one ordered chunk of scene operations.
type SubmitBatchRequest struct {
	Seq        uint64
	Operations []scene.Operation
}

// EncodeSubmitBatch renders a batch submission request. Operation encoding is
// exhaustive over the operation kinds; an unknown kind fails the encode.
func EncodeSubmitBatch(msg SubmitBatchRequest) ([]byte, error) {
	operations := msg.Operations
	if operations == nil {
		operations = []scene.Operation{}
	}
	frame := struct {
		Ver        int               `json:"ver"`
		Type       string            `json:"type"`
		Seq        uint64            `json:"seq"`
		Operations []scene.Operation `json:"operations"`
	}{
		Ver:        Version,
		Type:       TypeSubmitBatch,
		Seq:        msg.Seq,
		Operations: operations,
	}
	return json.Marshal(frame)
}

// Envelope captures one inbound frame from the scene host.
type Envelope struct {
	Ver       int                     `json:"ver,omitempty"`
	Type      string                  `json:"type"`
	Seq       uint64                  `json:"seq,omitempty"`
	SessionID string                  `json:"sessionId,omitempty"`
	Slot      *scene.SlotSnapshot     `json:"slot,omitempty"`
	Results   []scene.OperationResult `json:"results,omitempty"`
	Message   string                  `json:"message,omitempty"`
}

// DecodeEnvelope converts raw websocket payloads into a structured frame.
func DecodeEnvelope(payload []byte) (Envelope, error) {
	var msg Envelope
	if err := json.Unmarshal(payload, &msg); err != nil {
		return msg, err
	}
	if msg.Ver == 0 {
		msg.Ver = Version
	}
	if msg.Ver != Version {
		return msg, fmt.Errorf("unsupported host protocol version %d", msg.Ver)
	}
	return msg, nil
}
