package messaging

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/farmstandhq/farmstand-backend/pkg/db/models"
	"github.com/farmstandhq/farmstand-backend/pkg/enums"
	pkgerrors "github.com/farmstandhq/farmstand-backend/pkg/errors"
)

// SendInput is the payload for sending a message to another user.
type SendInput struct {
	RecipientID uuid.UUID `json:"recipientId" validate:"required"`
	Body        string    `json:"body" validate:"required"`
}

// ConversationView is one thread in a user's inbox.
type ConversationView struct {
	ID             uuid.UUID `json:"id"`
	PeerID         uuid.UUID `json:"peerId"`
	PeerName       string    `json:"peerName"`
	LastMessage    *string   `json:"lastMessage,omitempty"`
	LastActivityAt time.Time `json:"lastActivityAt"`
	UnreadCount    int64     `json:"unreadCount"`
}

// Service handles buyer-farmer messaging. Threads are upserted per
// participant pair; listing a thread marks the peer's messages read.
type Service interface {
	Send(ctx context.Context, senderID uuid.UUID, input SendInput) (*models.Message, error)
	ListConversations(ctx context.Context, userID uuid.UUID) ([]ConversationView, error)
	ListMessages(ctx context.Context, userID, conversationID uuid.UUID) ([]models.Message, error)
}

type store interface {
	UpsertConversation(ctx context.Context, buyerID, farmerUserID uuid.UUID, lastMessage string, at time.Time) (*models.Conversation, error)
	FindConversation(ctx context.Context, id uuid.UUID) (*models.Conversation, error)
	ListConversations(ctx context.Context, userID uuid.UUID) ([]models.Conversation, error)
	CreateMessage(ctx context.Context, message *models.Message) (*models.Message, error)
	ListMessages(ctx context.Context, conversationID uuid.UUID) ([]models.Message, error)
	MarkRead(ctx context.Context, conversationID, readerID uuid.UUID) error
	UnreadCount(ctx context.Context, conversationID, readerID uuid.UUID) (int64, error)
}

type userLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

type service struct {
	repo  store
	users userLoader
	now   func() time.Time
}

// NewService wires the messaging service.
func NewService(repo store, users userLoader) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("messaging service requires a repository")
	}
	if users == nil {
		return nil, fmt.Errorf("messaging service requires a user loader")
	}
	return &service{repo: repo, users: users, now: time.Now}, nil
}

// Send delivers a message, creating the thread on first contact. The
// buyer/farmer slots of the pair are fixed by the participants' roles, so
// replies land in the same thread regardless of who writes.
func (s *service) Send(ctx context.Context, senderID uuid.UUID, input SendInput) (*models.Message, error) {
	body := strings.TrimSpace(input.Body)
	if body == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "message body is required")
	}
	if input.RecipientID == senderID {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cannot message yourself")
	}

	sender, err := s.loadUser(ctx, senderID)
	if err != nil {
		return nil, err
	}
	recipient, err := s.loadUser(ctx, input.RecipientID)
	if err != nil {
		return nil, err
	}

	buyerID, farmerUserID := sender.ID, recipient.ID
	if sender.Role == enums.UserRoleFarmer {
		if recipient.Role == enums.UserRoleFarmer {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "conversations connect a buyer with a farmer")
		}
		buyerID, farmerUserID = recipient.ID, sender.ID
	} else if recipient.Role != enums.UserRoleFarmer {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "conversations connect a buyer with a farmer")
	}

	conversation, err := s.repo.UpsertConversation(ctx, buyerID, farmerUserID, body, s.now())
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "upserting conversation")
	}

	message, err := s.repo.CreateMessage(ctx, &models.Message{
		ConversationID: conversation.ID,
		SenderID:       senderID,
		Body:           body,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "creating message")
	}
	return message, nil
}

// ListConversations returns the user's inbox, most recent first, with
// unread counts and peer names resolved.
func (s *service) ListConversations(ctx context.Context, userID uuid.UUID) ([]ConversationView, error) {
	rows, err := s.repo.ListConversations(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing conversations")
	}

	views := make([]ConversationView, 0, len(rows))
	for _, conversation := range rows {
		peerID := conversation.FarmerUserID
		if peerID == userID {
			peerID = conversation.BuyerID
		}

		peerName := ""
		if peer, err := s.users.FindByID(ctx, peerID); err == nil {
			peerName = peer.Name
		}

		unread, err := s.repo.UnreadCount(ctx, conversation.ID, userID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "counting unread messages")
		}

		views = append(views, ConversationView{
			ID:             conversation.ID,
			PeerID:         peerID,
			PeerName:       peerName,
			LastMessage:    conversation.LastMessage,
			LastActivityAt: conversation.LastActivityAt,
			UnreadCount:    unread,
		})
	}
	return views, nil
}

// ListMessages returns a thread the user participates in, oldest first, and
// marks the peer's messages as read.
func (s *service) ListMessages(ctx context.Context, userID, conversationID uuid.UUID) ([]models.Message, error) {
	conversation, err := s.repo.FindConversation(ctx, conversationID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "conversation not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading conversation")
	}
	if conversation.BuyerID != userID && conversation.FarmerUserID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "conversation not found")
	}

	if err := s.repo.MarkRead(ctx, conversationID, userID); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "marking messages read")
	}

	messages, err := s.repo.ListMessages(ctx, conversationID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing messages")
	}
	return messages, nil
}

func (s *service) loadUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading user")
	}
	return user, nil
}
