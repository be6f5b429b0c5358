package service

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	entity "swap-market/internal/domain"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

const maxReviewComment = 1000

// RatingTarget selects who the viewer rates on a completed offer: the other participant.
func (s *OfferService) RatingTarget(ctx context.Context, viewerID, offerID uuid.UUID) (*entity.RatingTarget, error) {
	offer, err := s.offerRepo.GetOfferByID(ctx, offerID)
	if err != nil {
		return nil, persistenceErr(err)
	}
	if offer == nil {
		return nil, entity.ErrOfferNotFound
	}
	if !offer.IsParticipant(viewerID) {
		return nil, entity.ErrNotParticipant
	}
	if offer.Status != entity.StatusCompleted {
		return nil, fmt.Errorf("%w: only completed offers can be rated (status %s)", entity.ErrInvalidTransition, offer.Status)
	}
	return &entity.RatingTarget{
		OfferID:    offer.ID,
		FromUserID: viewerID,
		ToUserID:   offer.Counterpart(viewerID),
	}, nil
}

// SubmitReview hands the acting user's rating of the counterpart to the rating store.
func (s *OfferService) SubmitReview(ctx context.Context, actingUserID, offerID uuid.UUID, input entity.CreateReviewInput) (*entity.Review, error) {
	if input.Rating < 1 || input.Rating > 5 {
		return nil, validationErr("rating must be between 1 and 5")
	}
	comment := strings.TrimSpace(input.Comment)
	if utf8.RuneCountInString(comment) > maxReviewComment {
		return nil, validationErr("comment must be at most %d characters", maxReviewComment)
	}

	target, err := s.RatingTarget(ctx, actingUserID, offerID)
	if err != nil {
		return nil, err
	}

	review := &entity.Review{
		ID:         primitive.NewObjectID(),
		OfferID:    target.OfferID.String(),
		FromUserID: target.FromUserID.String(),
		ToUserID:   target.ToUserID.String(),
		Rating:     input.Rating,
		Comment:    comment,
		CreatedAt:  time.Now(),
	}
	if err := s.reviewRepo.SaveReview(ctx, review); err != nil {
		return nil, persistenceErr(err)
	}

	s.logger.Info("offer reviewed",
		zap.String("offer_id", review.OfferID),
		zap.String("from_user_id", review.FromUserID),
		zap.String("to_user_id", review.ToUserID),
		zap.Int("rating", review.Rating))
	s.createAndSaveNotification(ctx, target.ToUserID, "New review",
		fmt.Sprintf("You received a %d-star review.", review.Rating), "review", target.OfferID)
	return review, nil
}

// ListReviews returns the reviews left on an offer. Participant only.
func (s *OfferService) ListReviews(ctx context.Context, actingUserID, offerID uuid.UUID) ([]entity.Review, error) {
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
	reviews, err := s.reviewRepo.ListReviewsForOffer(ctx, offerID.String())
	if err != nil {
		return nil, persistenceErr(err)
	}
	return reviews, nil
}
