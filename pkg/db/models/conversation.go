package models

import (
	"time"

	"github.com/google/uuid"
)

// Conversation is a buyer-farmer message thread, upserted per participant
// pair and ordered by last activity.
type Conversation struct {
	ID             uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	BuyerID        uuid.UUID `gorm:"column:buyer_id;type:uuid;not null;uniqueIndex:idx_conversations_pair"`
	FarmerUserID   uuid.UUID `gorm:"column:farmer_user_id;type:uuid;not null;uniqueIndex:idx_conversations_pair"`
	LastMessage    *string   `gorm:"column:last_message"`
	LastActivityAt time.Time `gorm:"column:last_activity_at;not null;index"`
	CreatedAt      time.Time `gorm:"column:created_at;autoCreateTime"`
}
