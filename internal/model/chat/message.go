package chat

import "time"

// Sender identifies which side of the conversation authored a message.
// The values match the roles the generation backend expects.
type Sender string

const (
	SenderUser Sender = "user"
	SenderAI   Sender = "model"
)

// AttachmentKind classifies the media carried by an attachment.
type AttachmentKind string

const (
	AttachmentImage AttachmentKind = "image"
	AttachmentVideo AttachmentKind = "video"
	AttachmentAudio AttachmentKind = "audio"
)

// Attachment carries media bound to a message. URL is a transient local
// resource handle (preview file or playable reference) and is never
// persisted; Data holds the transport-encoded payload.
type Attachment struct {
	Kind     AttachmentKind `json:"kind"`
	URL      string         `json:"-"`
	Data     []byte         `json:"data,omitempty"`
	MIMEType string         `json:"mimeType"`
}

// Message is one entry of a conversation log. An AI message is mutated in
// place (text only) while its reply streams, then frozen.
type Message struct {
	ID         string      `json:"id"`
	Text       string      `json:"text"`
	Sender     Sender      `json:"sender"`
	CreatedAt  time.Time   `json:"createdAt"`
	IsError    bool        `json:"isError,omitempty"`
	Attachment *Attachment `json:"attachment,omitempty"`
}
