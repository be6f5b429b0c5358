package service

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	entity "swap-market/internal/domain"
	mongorepo "swap-market/internal/repository/mongodb"
	repo "swap-market/internal/repository/postgresql"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

const (
	defaultMessageLimit = 50
	maxMessageLimit     = 200
)

// MessageService is the per-offer chat side channel. It carries no
// negotiation logic; it only checks that the caller takes part in the offer.
type MessageService struct {
	offerRepo   repo.OfferRepository
	messageRepo mongorepo.MessageRepository
	logRepo     mongorepo.LogRepository
	logger      *zap.Logger
}

func NewMessageService(offerRepo repo.OfferRepository, messageRepo mongorepo.MessageRepository, logRepo mongorepo.LogRepository, logger *zap.Logger) *MessageService {
	return &MessageService{
		offerRepo:   offerRepo,
		messageRepo: messageRepo,
		logRepo:     logRepo,
		logger:      logger,
	}
}

func (s *MessageService) participantOffer(ctx context.Context, actingUserID, offerID uuid.UUID) (*entity.Offer, error) {
	offer, err := s.offerRepo.GetOfferByID(ctx, offerID)
	if err != nil {
		return nil, persistenceErr(err)
	}
	if offer == nil {
		return nil, entity.ErrOfferNotFound
	}
	if !offer.IsParticipant(actingUserID) {
		return nil, entity.ErrNotParticipant
	}
	return offer, nil
}

func (s *MessageService) ListMessages(ctx context.Context, actingUserID, offerID uuid.UUID, limit int) ([]entity.Message, error) {
	if _, err := s.participantOffer(ctx, actingUserID, offerID); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > maxMessageLimit {
		limit = defaultMessageLimit
	}
	msgs, err := s.messageRepo.ListMessages(ctx, offerID.String(), int64(limit))
	if err != nil {
		return nil, persistenceErr(err)
	}
	return msgs, nil
}

func (s *MessageService) AppendMessage(ctx context.Context, actingUserID, offerID uuid.UUID, text string) (*entity.Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, validationErr("message text is required")
	}
	if utf8.RuneCountInString(text) > entity.MaxMessageLength {
		return nil, validationErr("message must be at most %d characters", entity.MaxMessageLength)
	}

	offer, err := s.participantOffer(ctx, actingUserID, offerID)
	if err != nil {
		return nil, err
	}

	msg := &entity.Message{
		ID:        primitive.NewObjectID(),
		OfferID:   offerID.String(),
		SenderID:  actingUserID.String(),
		Text:      text,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.messageRepo.AppendMessage(ctx, msg); err != nil {
		return nil, persistenceErr(err)
	}

	noti := &entity.Notification{
		ID:        primitive.NewObjectID(),
		UserID:    offer.Counterpart(actingUserID).String(),
		Type:      "offer_message",
		Title:     "New message",
		Message:   "You have a new message about a swap offer.",
		RelatedID: offerID.String(),
		CreatedAt: time.Now(),
	}
	if err := s.logRepo.SaveNotification(ctx, noti); err != nil {
		s.logger.Warn("failed to save notification",
			zap.String("offer_id", offerID.String()),
			zap.Error(err))
	}
	return msg, nil
}
