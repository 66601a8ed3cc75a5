package codec

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chat-client/models"
)

func TestEncode_TextOnly(t *testing.T) {
	frame, err := Encode(models.OutboundDraft{
		UserID: "u1",
		RoomID: "chat-room-1",
		Text:   "hello",
	})
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(frame, &got))
	assert.Equal(t, "u1", got["user_id"])
	assert.Equal(t, "chat-room-1", got["room_id"])
	assert.Equal(t, "hello", got["text"])
	assert.NotContains(t, got, "file_data")
	assert.NotContains(t, got, "file_name")
	assert.NotContains(t, got, "file_type")
}

func TestEncode_Attachment(t *testing.T) {
	frame, err := Encode(models.OutboundDraft{
		UserID: "u1",
		RoomID: "chat-room-1",
		Text:   "",
		File: &models.LocalFile{
			Name: "a.txt",
			Type: "text/plain",
			Data: []byte{72, 105},
		},
	})
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(frame, &got))
	assert.Equal(t, "", got["text"])
	assert.Equal(t, "a.txt", got["file_name"])
	assert.Equal(t, "text/plain", got["file_type"])
	assert.Equal(t, []any{float64(72), float64(105)}, got["file_data"])
}

func TestEncode_EmptyDraft(t *testing.T) {
	_, err := Encode(models.OutboundDraft{UserID: "u1", RoomID: "chat-room-1"})
	assert.ErrorIs(t, err, ErrEmptyDraft)
}

func TestByteArray_RoundTrip(t *testing.T) {
	t.Run("all byte values", func(t *testing.T) {
		in := make([]byte, 256)
		for i := range in {
			in[i] = byte(i)
		}

		data, err := json.Marshal(ByteArray(in))
		require.NoError(t, err)

		var out ByteArray
		require.NoError(t, json.Unmarshal(data, &out))
		assert.Equal(t, in, []byte(out))
	})

	t.Run("empty", func(t *testing.T) {
		data, err := json.Marshal(ByteArray{})
		require.NoError(t, err)
		assert.Equal(t, "[]", string(data))
	})

	t.Run("rejects out of range", func(t *testing.T) {
		var out ByteArray
		assert.Error(t, json.Unmarshal([]byte("[0,256]"), &out))
	})
}

func TestDecode_Valid(t *testing.T) {
	raw := []byte(`{"id":"1","user_id":"u2","room_id":"chat-room-1","text":"hi","timestamp":"2024-01-01T00:00:00Z"}`)

	msg, err := Decode(raw)
	require.NoError(t, err)
	assert.Equal(t, "1", msg.ID)
	assert.Equal(t, "u2", msg.UserID)
	assert.Equal(t, "chat-room-1", msg.RoomID)
	assert.Equal(t, "hi", msg.Text)
	assert.True(t, msg.Timestamp.Equal(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)))
	assert.Nil(t, msg.Attachment)
}

func TestDecode_WithAttachment(t *testing.T) {
	raw := []byte(`{"id":"2","user_id":"u2","room_id":"chat-room-1","text":"",` +
		`"timestamp":"2024-01-01T00:00:00Z","file_id":"f1","file_name":"a.txt","file_type":"text/plain"}`)

	msg, err := Decode(raw)
	require.NoError(t, err)
	require.NotNil(t, msg.Attachment)
	assert.Equal(t, "f1", msg.Attachment.FileID)
	assert.Equal(t, "a.txt", msg.Attachment.FileName)
	assert.Equal(t, "text/plain", msg.Attachment.FileType)
}

func TestDecode_Malformed(t *testing.T) {
	cases := []struct {
		name string
		raw  string
	}{
		{"not JSON", `{{{`},
		{"missing id", `{"user_id":"u","room_id":"r","text":"x","timestamp":"2024-01-01T00:00:00Z"}`},
		{"missing user_id", `{"id":"1","room_id":"r","text":"x","timestamp":"2024-01-01T00:00:00Z"}`},
		{"missing room_id", `{"id":"1","user_id":"u","text":"x","timestamp":"2024-01-01T00:00:00Z"}`},
		{"missing text", `{"id":"1","user_id":"u","room_id":"r","timestamp":"2024-01-01T00:00:00Z"}`},
		{"missing timestamp", `{"id":"1","user_id":"u","room_id":"r","text":"x"}`},
		{"bad timestamp", `{"id":"1","user_id":"u","room_id":"r","text":"x","timestamp":"yesterday"}`},
		{"partial file fields", `{"id":"1","user_id":"u","room_id":"r","text":"x","timestamp":"2024-01-01T00:00:00Z","file_id":"f1"}`},
		{"empty without attachment", `{"id":"1","user_id":"u","room_id":"r","text":"","timestamp":"2024-01-01T00:00:00Z"}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Decode([]byte(tc.raw))
			require.Error(t, err)

			var decErr *DecodeError
			assert.ErrorAs(t, err, &decErr)
		})
	}
}

func TestRoundTrip_AttachmentBytes(t *testing.T) {
	// encode(draft with bytes B) then decoding the wire field yields B.
	in := []byte{0, 1, 127, 128, 255, 10, 13}
	frame, err := Encode(models.OutboundDraft{
		UserID: "u1",
		RoomID: "chat-room-1",
		File:   &models.LocalFile{Name: "b.bin", Type: "application/octet-stream", Data: in},
	})
	require.NoError(t, err)

	var wire struct {
		FileData ByteArray `json:"file_data"`
	}
	require.NoError(t, json.Unmarshal(frame, &wire))
	assert.Equal(t, in, []byte(wire.FileData))
}
