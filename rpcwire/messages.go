package rpcwire

import (
	"bytes"

	"github.com/umpyre-code/switchroom/envelope"
)

// GetMessagesRequest is the GetMessages RPC's request shape from spec.md
// §4.5/§6: a target client ID plus an optional bloom sketch and salt used
// to suppress messages the client already holds.
type GetMessagesRequest struct {
	ClientID string
	Sketch   []byte
	Salt     []byte
}

func (r GetMessagesRequest) MarshalBinary() ([]byte, error) {
	var buf bytes.Buffer
	writeBytes(&buf, []byte(r.ClientID))
	writeBytes(&buf, r.Sketch)
	writeBytes(&buf, r.Salt)
	return buf.Bytes(), nil
}

func (r *GetMessagesRequest) UnmarshalBinary(b []byte) error {
	rd := bytes.NewReader(b)
	clientID, err := readBytes(rd)
	if err != nil {
		return err
	}
	sketch, err := readBytes(rd)
	if err != nil {
		return err
	}
	salt, err := readBytes(rd)
	if err != nil {
		return err
	}
	if err := checkExhausted(rd, "GetMessagesRequest"); err != nil {
		return err
	}
	r.ClientID = string(clientID)
	r.Sketch = sketch
	r.Salt = salt
	return nil
}

// GetMessagesResponse carries the surviving envelopes after predicate
// filtering.
type GetMessagesResponse struct {
	Messages []envelope.Message
}

func (r GetMessagesResponse) MarshalBinary() ([]byte, error) {
	var buf bytes.Buffer
	writeUint32(&buf, uint32(len(r.Messages)))
	for _, m := range r.Messages {
		encoded, err := m.MarshalBinary()
		if err != nil {
			return nil, err
		}
		writeBytes(&buf, encoded)
	}
	return buf.Bytes(), nil
}

func (r *GetMessagesResponse) UnmarshalBinary(b []byte) error {
	rd := bytes.NewReader(b)
	count, err := readUint32(rd)
	if err != nil {
		return err
	}
	messages := make([]envelope.Message, 0, count)
	for i := uint32(0); i < count; i++ {
		encoded, err := readBytes(rd)
		if err != nil {
			return err
		}
		var m envelope.Message
		if err := m.UnmarshalBinary(encoded); err != nil {
			return err
		}
		messages = append(messages, m)
	}
	if err := checkExhausted(rd, "GetMessagesResponse"); err != nil {
		return err
	}
	r.Messages = messages
	return nil
}

// CheckRequest is the empty liveness-probe request.
type CheckRequest struct{}

func (CheckRequest) MarshalBinary() ([]byte, error) { return nil, nil }

func (*CheckRequest) UnmarshalBinary(b []byte) error {
	if len(b) != 0 {
		return checkExhausted(bytes.NewReader(b), "CheckRequest")
	}
	return nil
}

// ServingStatus mirrors the wire enum in spec.md §6 (`Serving = 1`).
type ServingStatus int32

const (
	ServingStatusUnknown ServingStatus = 0
	ServingStatusServing ServingStatus = 1
)

// CheckResponse carries the liveness status; Check always returns Serving.
type CheckResponse struct {
	Status ServingStatus
}

func (r CheckResponse) MarshalBinary() ([]byte, error) {
	var buf bytes.Buffer
	writeUint32(&buf, uint32(r.Status))
	return buf.Bytes(), nil
}

func (r *CheckResponse) UnmarshalBinary(b []byte) error {
	rd := bytes.NewReader(b)
	status, err := readUint32(rd)
	if err != nil {
		return err
	}
	if err := checkExhausted(rd, "CheckResponse"); err != nil {
		return err
	}
	r.Status = ServingStatus(status)
	return nil
}
