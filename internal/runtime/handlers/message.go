package handlers

import (
	"github.com/ThreeDotsLabs/watermill/message"

	metadatapkg "github.com/drblury/fieldcounter/internal/runtime/metadata"
)

// Message is the inbound envelope a FieldPathCounter handles. Payload is
// either raw bytes or an already structured value.
type Message struct {
	UUID     string
	Metadata metadatapkg.Metadata
	Payload  any
}

// MessageFromWatermill copies a Watermill message. Watermill payloads are
// always raw bytes.
func MessageFromWatermill(msg *message.Message) Message {
	return Message{
		UUID:     msg.UUID,
		Metadata: metadatapkg.FromWatermill(msg.Metadata),
		Payload:  []byte(msg.Payload),
	}
}

// CorrelationID returns the correlation ID from metadata, if present.
func (m Message) CorrelationID() string {
	return m.Metadata[metadatapkg.KeyCorrelationID]
}
