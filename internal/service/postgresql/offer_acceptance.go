package service

import (
	"context"
	"fmt"

	entity "swap-market/internal/domain"
	repo "swap-market/internal/repository/postgresql"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AcceptOffer moves a pending offer to accepted. Only the receiving user may accept.
func (s *OfferService) AcceptOffer(ctx context.Context, actingUserID, offerID uuid.UUID) (*entity.Offer, error) {
	return s.transition(ctx, actingUserID, offerID, entity.StatusAccepted, func(offer *entity.Offer) error {
		if actingUserID != offer.ToUserID {
			return ErrNotRecipient
		}
		return nil
	})
}

// RejectOffer moves a pending or accepted offer to rejected. Items are kept so
// the offer can still be displayed; FinalizeOffer removes them.
func (s *OfferService) RejectOffer(ctx context.Context, actingUserID, offerID uuid.UUID) (*entity.Offer, error) {
	return s.transition(ctx, actingUserID, offerID, entity.StatusRejected, nil)
}

// CompleteOffer records the external completion event for an accepted offer.
func (s *OfferService) CompleteOffer(ctx context.Context, actingUserID, offerID uuid.UUID) (*entity.Offer, error) {
	return s.transition(ctx, actingUserID, offerID, entity.StatusCompleted, nil)
}

func (s *OfferService) transition(ctx context.Context, actingUserID, offerID uuid.UUID, next entity.OfferStatus, guard func(*entity.Offer) error) (*entity.Offer, error) {
	var (
		offer     *entity.Offer
		oldStatus entity.OfferStatus
	)
	err := s.offerRepo.WithinTx(ctx, func(tx repo.OfferTx) error {
		var err error
		offer, err = loadOffer(ctx, tx, offerID, actingUserID)
		if err != nil {
			return err
		}
		oldStatus = offer.Status
		if err := offer.TransitionTo(next); err != nil {
			return err
		}
		if guard != nil {
			if err := guard(offer); err != nil {
				return err
			}
		}
		if next.Open() {
			items, err := tx.GetOfferItems(ctx, offerID)
			if err != nil {
				return err
			}
			if !entity.NewOfferItemSet(offer, items).Balanced() {
				return fmt.Errorf("%w: offer has no items on one side", entity.ErrInvalidTransition)
			}
		}
		return tx.UpdateOffer(ctx, offer)
	})
	if err != nil {
		return nil, persistenceErr(err)
	}

	s.recordTransition(ctx, offer, oldStatus, actingUserID, "")
	s.createAndSaveNotification(ctx, offer.Counterpart(actingUserID), "Offer "+string(offer.Status),
		fmt.Sprintf("Your swap offer is now %s.", offer.Status), "offer_status", offer.ID)
	return offer, nil
}

// FinalizeOffer permanently deletes a rejected or completed offer together
// with its items and messages. An offer that no longer exists counts as
// finalized, so repeated calls succeed.
func (s *OfferService) FinalizeOffer(ctx context.Context, actingUserID, offerID uuid.UUID) error {
	var (
		deleted   bool
		oldStatus entity.OfferStatus
	)
	err := s.offerRepo.WithinTx(ctx, func(tx repo.OfferTx) error {
		offer, err := tx.GetOfferForUpdate(ctx, offerID)
		if err != nil {
			return err
		}
		if offer == nil {
			return nil
		}
		if !offer.IsParticipant(actingUserID) {
			return entity.ErrNotParticipant
		}
		if !offer.Status.Terminal() {
			return fmt.Errorf("%w: only rejected or completed offers can be finalized (status %s)", entity.ErrInvalidTransition, offer.Status)
		}
		oldStatus = offer.Status
		deleted, err = tx.DeleteOffer(ctx, offerID)
		return err
	})
	if err != nil {
		return persistenceErr(err)
	}
	if !deleted {
		s.logger.Debug("finalize on absent offer", zap.String("offer_id", offerID.String()))
		return nil
	}

	s.logger.Info("offer finalized",
		zap.String("offer_id", offerID.String()),
		zap.String("status", string(oldStatus)),
		zap.String("acting_user_id", actingUserID.String()))
	if err := s.messageRepo.DeleteMessages(ctx, offerID.String()); err != nil {
		s.logger.Warn("failed to delete offer messages",
			zap.String("offer_id", offerID.String()),
			zap.Error(err))
	}
	return nil
}
