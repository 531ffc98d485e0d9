package models

import (
	"time"

	"github.com/google/uuid"
)

// Message is one entry in a conversation; Read flips when the recipient
// opens the thread.
type Message struct {
	ID             uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ConversationID uuid.UUID `gorm:"column:conversation_id;type:uuid;not null;index"`
	SenderID       uuid.UUID `gorm:"column:sender_id;type:uuid;not null"`
	Body           string    `gorm:"column:body;not null"`
	Read           bool      `gorm:"column:read;not null;default:false"`
	CreatedAt      time.Time `gorm:"column:created_at;autoCreateTime"`
}
