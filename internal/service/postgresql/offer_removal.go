package service

import (
	"context"
	"errors"
	"fmt"

	entity "swap-market/internal/domain"
	repo "swap-market/internal/repository/postgresql"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// RemoveItem withdraws one item from an open offer. When the removal would
// leave either participant with no items, the whole offer is rejected and
// every item removed instead. Both branches commit as one transaction.
//
// itemID may be uuid.Nil; when set it must match the offer item's product.
func (s *OfferService) RemoveItem(ctx context.Context, actingUserID, offerID, offerItemID, itemID uuid.UUID) (*entity.RemovalOutcome, error) {
	if offerID == uuid.Nil || offerItemID == uuid.Nil {
		return nil, validationErr("offer id and offer item id are required")
	}

	var (
		outcome   *entity.RemovalOutcome
		oldStatus entity.OfferStatus
		cascading bool
	)
	err := s.offerRepo.WithinTx(ctx, func(tx repo.OfferTx) error {
		offer, err := loadOffer(ctx, tx, offerID, actingUserID)
		if err != nil {
			return err
		}
		if !offer.Status.Open() {
			return fmt.Errorf("%w: cannot remove items from a %s offer", entity.ErrInvalidTransition, offer.Status)
		}

		items, err := tx.GetOfferItems(ctx, offerID)
		if err != nil {
			return err
		}
		set := entity.NewOfferItemSet(offer, items)
		target, ok := set.Find(offerItemID)
		if !ok || (itemID != uuid.Nil && target.ItemID != itemID) {
			return entity.ErrOfferItemNotFound
		}

		remaining := set.Without(offerItemID)
		if !remaining.Balanced() {
			cascading = true
			oldStatus = offer.Status
			if err := offer.TransitionTo(entity.StatusRejected); err != nil {
				return err
			}
			if err := tx.DeleteOfferItems(ctx, offerID); err != nil {
				return err
			}
			offer.CashAdjustment = decimal.Zero
			if err := tx.UpdateOffer(ctx, offer); err != nil {
				return err
			}
			outcome = &entity.RemovalOutcome{Kind: entity.RemovalOfferRejected, Offer: offer, RemainingItems: []entity.OfferItem{}}
			return nil
		}

		prices, err := s.priceMap(ctx, remaining)
		if err != nil {
			return err
		}
		cash, err := entity.CashAdjustment(remaining, prices)
		if err != nil {
			return err
		}
		if err := tx.DeleteOfferItem(ctx, offerID, offerItemID); err != nil {
			return err
		}
		offer.CashAdjustment = cash
		if err := tx.UpdateOffer(ctx, offer); err != nil {
			return err
		}
		outcome = &entity.RemovalOutcome{Kind: entity.RemovalItemRemoved, Offer: offer, RemainingItems: remaining.Items}
		return nil
	})
	if err != nil {
		if cascading && !errors.Is(err, entity.ErrInvalidTransition) {
			s.logger.Error("cascade rejection failed",
				zap.String("offer_id", offerID.String()),
				zap.Error(err))
			return nil, fmt.Errorf("%w: %w", entity.ErrCascadeFailed, err)
		}
		return nil, persistenceErr(err)
	}

	offer := outcome.Offer
	counterpart := offer.Counterpart(actingUserID)
	if outcome.Kind == entity.RemovalOfferRejected {
		s.recordTransition(ctx, offer, oldStatus, actingUserID, "rejected: item removal left one side empty")
		s.createAndSaveNotification(ctx, counterpart, "Offer rejected",
			"The swap offer was rejected because one side no longer has any items.", "offer_status", offer.ID)
		return outcome, nil
	}

	s.logger.Info("offer item removed",
		zap.String("offer_id", offer.ID.String()),
		zap.String("offer_item_id", offerItemID.String()),
		zap.String("acting_user_id", actingUserID.String()),
		zap.String("cash_adjustment", offer.CashAdjustment.String()))
	s.createAndSaveNotification(ctx, counterpart, "Offer updated",
		"An item was removed from your swap offer.", "offer_updated", offer.ID)
	return outcome, nil
}
