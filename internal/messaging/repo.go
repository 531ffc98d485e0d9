package messaging

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/farmstandhq/farmstand-backend/internal/repo"
	"github.com/farmstandhq/farmstand-backend/pkg/db/models"
)

// Repository handles conversation and message persistence.
type Repository struct {
	repo.Base
}

// NewRepository builds a messaging repository bound to the provided DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// UpsertConversation creates the thread for a buyer-farmer pair or bumps
// its last-activity fields when it already exists.
func (r *Repository) UpsertConversation(ctx context.Context, buyerID, farmerUserID uuid.UUID, lastMessage string, at time.Time) (*models.Conversation, error) {
	conversation := models.Conversation{
		BuyerID:        buyerID,
		FarmerUserID:   farmerUserID,
		LastMessage:    &lastMessage,
		LastActivityAt: at,
	}
	err := r.DB(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "buyer_id"}, {Name: "farmer_user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"last_message", "last_activity_at"}),
		}).
		Create(&conversation).Error
	if err != nil {
		return nil, err
	}
	if conversation.ID == uuid.Nil {
		return r.findConversationByPair(ctx, buyerID, farmerUserID)
	}
	return &conversation, nil
}

func (r *Repository) findConversationByPair(ctx context.Context, buyerID, farmerUserID uuid.UUID) (*models.Conversation, error) {
	var conversation models.Conversation
	err := r.DB(ctx).
		First(&conversation, "buyer_id = ? AND farmer_user_id = ?", buyerID, farmerUserID).Error
	if err != nil {
		return nil, err
	}
	return &conversation, nil
}

// FindConversation loads a thread by id.
func (r *Repository) FindConversation(ctx context.Context, id uuid.UUID) (*models.Conversation, error) {
	var conversation models.Conversation
	if err := r.DB(ctx).First(&conversation, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &conversation, nil
}

// ListConversations returns the user's threads, most recent activity first.
func (r *Repository) ListConversations(ctx context.Context, userID uuid.UUID) ([]models.Conversation, error) {
	var rows []models.Conversation
	err := r.DB(ctx).
		Where("buyer_id = ? OR farmer_user_id = ?", userID, userID).
		Order("last_activity_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// CreateMessage appends a message to a thread.
func (r *Repository) CreateMessage(ctx context.Context, message *models.Message) (*models.Message, error) {
	if err := r.DB(ctx).Create(message).Error; err != nil {
		return nil, err
	}
	return message, nil
}

// ListMessages returns a thread's messages, oldest first.
func (r *Repository) ListMessages(ctx context.Context, conversationID uuid.UUID) ([]models.Message, error) {
	var rows []models.Message
	err := r.DB(ctx).
		Where("conversation_id = ?", conversationID).
		Order("created_at ASC, id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// MarkRead flags every message sent to the reader in this thread as read.
func (r *Repository) MarkRead(ctx context.Context, conversationID, readerID uuid.UUID) error {
	return r.DB(ctx).
		Model(&models.Message{}).
		Where("conversation_id = ? AND sender_id <> ? AND read = false", conversationID, readerID).
		Update("read", true).Error
}

// DeleteReadMessagesOlderThan removes read messages created before cutoff.
// Unread messages are kept regardless of age.
func (r *Repository) DeleteReadMessagesOlderThan(ctx context.Context, tx *gorm.DB, cutoff time.Time) (int64, error) {
	db := r.DB(ctx)
	if tx != nil {
		db = tx.WithContext(ctx)
	}
	result := db.
		Where("read = true AND created_at < ?", cutoff).
		Delete(&models.Message{})
	return result.RowsAffected, result.Error
}

// UnreadCount counts messages in the thread not yet read by the reader.
func (r *Repository) UnreadCount(ctx context.Context, conversationID, readerID uuid.UUID) (int64, error) {
	var count int64
	err := r.DB(ctx).
		Model(&models.Message{}).
		Where("conversation_id = ? AND sender_id <> ? AND read = false", conversationID, readerID).
		Count(&count).Error
	return count, err
}
