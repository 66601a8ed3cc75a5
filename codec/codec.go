// Package codec is the stateless translation layer between typed chat values
// and the JSON frames exchanged over the websocket. Encoding and decoding are
// pure; malformed inbound frames surface as *DecodeError and are never
// allowed to panic the caller.
package codec

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"chat-client/models"
)

// DecodeError reports an inbound frame that could not be turned into a
// Message. Frames failing this way are dropped, never appended.
type DecodeError struct {
	Reason string
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("decode frame: %s: %v", e.Reason, e.Err)
	}
	return "decode frame: " + e.Reason
}

func (e *DecodeError) Unwrap() error { return e.Err }

// ErrEmptyDraft rejects an outbound draft with neither text nor a file.
var ErrEmptyDraft = errors.New("draft has no text and no attachment")

// ByteArray marshals as a JSON array of numbers. The wire contract wants
// file_data as array<uint8>; encoding/json would base64 a plain []byte.
type ByteArray []byte

func (b ByteArray) MarshalJSON() ([]byte, error) {
	out := make([]byte, 0, len(b)*4+2)
	out = append(out, '[')
	for i, v := range b {
		if i > 0 {
			out = append(out, ',')
		}
		out = strconv.AppendUint(out, uint64(v), 10)
	}
	return append(out, ']'), nil
}

func (b *ByteArray) UnmarshalJSON(data []byte) error {
	var nums []uint16
	if err := json.Unmarshal(data, &nums); err != nil {
		return err
	}
	out := make([]byte, len(nums))
	for i, n := range nums {
		if n > 255 {
			return fmt.Errorf("file_data value %d out of byte range", n)
		}
		out[i] = byte(n)
	}
	*b = out
	return nil
}

// outboundFrame mirrors what the server's websocket handler reads. The file
// trio rides in the same frame as the text so the server stores both
// atomically.
type outboundFrame struct {
	UserID   string    `json:"user_id"`
	RoomID   string    `json:"room_id"`
	Text     string    `json:"text"`
	FileData ByteArray `json:"file_data,omitempty"`
	FileName string    `json:"file_name,omitempty"`
	FileType string    `json:"file_type,omitempty"`
}

// inboundFrame uses pointers so a missing field is distinguishable from a
// present-but-empty one.
type inboundFrame struct {
	ID        *string `json:"id"`
	UserID    *string `json:"user_id"`
	RoomID    *string `json:"room_id"`
	Text      *string `json:"text"`
	Timestamp *string `json:"timestamp"`
	FileID    *string `json:"file_id"`
	FileName  *string `json:"file_name"`
	FileType  *string `json:"file_type"`
}

// Encode serializes an outbound draft into one wire frame.
func Encode(d models.OutboundDraft) ([]byte, error) {
	if d.Text == "" && d.File == nil {
		return nil, ErrEmptyDraft
	}
	frame := outboundFrame{
		UserID: d.UserID,
		RoomID: d.RoomID,
		Text:   d.Text,
	}
	if d.File != nil {
		frame.FileData = ByteArray(d.File.Data)
		frame.FileName = d.File.Name
		frame.FileType = d.File.Type
	}
	return json.Marshal(frame)
}

// Decode parses an inbound frame into a Message. id, user_id, room_id, text
// and timestamp are required; the file trio is optional but only together.
func Decode(raw []byte) (models.Message, error) {
	var frame inboundFrame
	if err := json.Unmarshal(raw, &frame); err != nil {
		return models.Message{}, &DecodeError{Reason: "malformed JSON", Err: err}
	}

	switch {
	case frame.ID == nil:
		return models.Message{}, &DecodeError{Reason: "missing id"}
	case frame.UserID == nil:
		return models.Message{}, &DecodeError{Reason: "missing user_id"}
	case frame.RoomID == nil:
		return models.Message{}, &DecodeError{Reason: "missing room_id"}
	case frame.Text == nil:
		return models.Message{}, &DecodeError{Reason: "missing text"}
	case frame.Timestamp == nil:
		return models.Message{}, &DecodeError{Reason: "missing timestamp"}
	}

	ts, err := time.Parse(time.RFC3339, *frame.Timestamp)
	if err != nil {
		return models.Message{}, &DecodeError{Reason: "bad timestamp", Err: err}
	}

	msg := models.Message{
		ID:        *frame.ID,
		UserID:    *frame.UserID,
		RoomID:    *frame.RoomID,
		Text:      *frame.Text,
		Timestamp: ts,
	}

	hasFile := frame.FileID != nil || frame.FileName != nil || frame.FileType != nil
	if hasFile {
		if frame.FileID == nil || frame.FileName == nil || frame.FileType == nil {
			return models.Message{}, &DecodeError{Reason: "partial file fields"}
		}
		msg.Attachment = &models.Attachment{
			FileID:   *frame.FileID,
			FileName: *frame.FileName,
			FileType: *frame.FileType,
		}
	}

	if msg.Text == "" && msg.Attachment == nil {
		return models.Message{}, &DecodeError{Reason: "empty text without attachment"}
	}
	return msg, nil
}
