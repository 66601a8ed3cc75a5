package models

import "time"

// DefaultRoomID is the single room this client joins. Messages still carry
// their own RoomID so multiple rooms stay representable.
const DefaultRoomID = "chat-room-1"

// Attachment is the server-side record of a stored file, delivered inline
// with the message that carried it.
type Attachment struct {
	FileID   string `json:"file_id"`
	FileName string `json:"file_name"`
	FileType string `json:"file_type"`
}

// Message is one transcript entry as decoded from an inbound frame.
// Invariant: Text is non-empty or Attachment is present, never neither.
type Message struct {
	ID         string      `json:"id"`
	UserID     string      `json:"user_id"`
	RoomID     string      `json:"room_id"`
	Text       string      `json:"text"`
	Timestamp  time.Time   `json:"timestamp"`
	Attachment *Attachment `json:"attachment,omitempty"`
}

// LocalFile is the raw content of a not-yet-sent attachment, read from disk
// before the draft goes over the wire.
type LocalFile struct {
	Name string
	Type string
	Data []byte
}

// OutboundDraft is a message under construction. LocalID identifies the
// draft until the server echoes it back with its own id.
type OutboundDraft struct {
	LocalID string
	UserID  string
	RoomID  string
	Text    string
	File    *LocalFile
}
