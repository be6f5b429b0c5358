package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	entity "swap-market/internal/domain"
	mongorepo "swap-market/internal/repository/mongodb"
	repo "swap-market/internal/repository/postgresql"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

var ErrNotRecipient = errors.New("access denied: only the receiving user can accept this offer")

type OfferService struct {
	offerRepo   repo.OfferRepository
	productRepo repo.ProductRepository
	userRepo    repo.UserRepository
	logRepo     mongorepo.LogRepository
	messageRepo mongorepo.MessageRepository
	reviewRepo  mongorepo.ReviewRepository
	logger      *zap.Logger
}

func NewOfferService(
	offerRepo repo.OfferRepository,
	productRepo repo.ProductRepository,
	userRepo repo.UserRepository,
	logRepo mongorepo.LogRepository,
	messageRepo mongorepo.MessageRepository,
	reviewRepo mongorepo.ReviewRepository,
	logger *zap.Logger,
) *OfferService {
	return &OfferService{
		offerRepo:   offerRepo,
		productRepo: productRepo,
		userRepo:    userRepo,
		logRepo:     logRepo,
		messageRepo: messageRepo,
		reviewRepo:  reviewRepo,
		logger:      logger,
	}
}

// --- HELPERS ---

func validationErr(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", entity.ErrValidation, fmt.Sprintf(format, args...))
}

// isDomainErr reports whether err already carries a kind the caller can act on.
func isDomainErr(err error) bool {
	for _, kind := range []error{
		entity.ErrValidation, entity.ErrInvalidTransition, entity.ErrOfferNotFound,
		entity.ErrOfferItemNotFound, entity.ErrProductNotFound, entity.ErrNotParticipant,
		entity.ErrConcurrentUpdate, entity.ErrCascadeFailed, entity.ErrAlreadyReviewed,
		entity.ErrPersistence, ErrNotRecipient,
	} {
		if errors.Is(err, kind) {
			return true
		}
	}
	return false
}

// persistenceErr tags store failures with ErrPersistence and leaves domain errors alone.
func persistenceErr(err error) error {
	if err == nil || isDomainErr(err) {
		return err
	}
	return fmt.Errorf("%w: %w", entity.ErrPersistence, err)
}

// loadOffer fetches the offer inside tx and checks the acting user takes part in it.
func loadOffer(ctx context.Context, tx repo.OfferTx, offerID, actingUserID uuid.UUID) (*entity.Offer, error) {
	offer, err := tx.GetOfferForUpdate(ctx, offerID)
	if err != nil {
		return nil, err
	}
	if offer == nil {
		return nil, entity.ErrOfferNotFound
	}
	if !offer.IsParticipant(actingUserID) {
		return nil, entity.ErrNotParticipant
	}
	return offer, nil
}

func (s *OfferService) priceMap(ctx context.Context, set entity.OfferItemSet) (map[uuid.UUID]decimal.Decimal, error) {
	products, err := s.productRepo.GetProducts(ctx, set.ItemIDs())
	if err != nil {
		return nil, err
	}
	prices := make(map[uuid.UUID]decimal.Decimal, len(products))
	for id, p := range products {
		prices[id] = p.Price
	}
	return prices, nil
}

// buildItem validates one requested line against the offer and its product.
func buildItem(offer *entity.Offer, in entity.OfferItemInput, products map[uuid.UUID]entity.Product, actingUserID uuid.UUID) (entity.OfferItem, error) {
	if in.ItemID == uuid.Nil {
		return entity.OfferItem{}, validationErr("item_id is required")
	}
	qty := 1
	if in.Quantity != nil {
		qty = *in.Quantity
	}
	if qty < 1 {
		return entity.OfferItem{}, validationErr("quantity must be at least 1")
	}
	offeredBy := in.OfferedBy
	if offeredBy == uuid.Nil {
		offeredBy = actingUserID
	}
	if !offer.IsParticipant(offeredBy) {
		return entity.OfferItem{}, validationErr("offered_by must be one of the offer participants")
	}

	product, ok := products[in.ItemID]
	if !ok {
		return entity.OfferItem{}, fmt.Errorf("%w: %s", entity.ErrProductNotFound, in.ItemID)
	}
	if product.Status != "" && product.Status != "active" {
		return entity.OfferItem{}, validationErr("item %s is not available", in.ItemID)
	}
	if product.OwnerID != uuid.Nil && product.OwnerID != offeredBy {
		return entity.OfferItem{}, validationErr("item %s does not belong to the offering user", in.ItemID)
	}

	return entity.OfferItem{
		ID:        uuid.New(),
		OfferID:   offer.ID,
		ItemID:    in.ItemID,
		OfferedBy: offeredBy,
		Quantity:  qty,
		CreatedAt: time.Now().UTC(),
	}, nil
}

func (s *OfferService) createAndSaveNotification(ctx context.Context, userID uuid.UUID, title, message, notiType string, relatedID uuid.UUID) {
	noti := &entity.Notification{
		ID:        primitive.NewObjectID(),
		UserID:    userID.String(),
		Title:     title,
		Message:   message,
		Type:      notiType,
		RelatedID: relatedID.String(),
		CreatedAt: time.Now(),
	}
	if err := s.logRepo.SaveNotification(ctx, noti); err != nil {
		s.logger.Warn("failed to save notification",
			zap.String("user_id", userID.String()),
			zap.Error(err))
	}
}

// recordTransition logs the status change and keeps a history document. The
// history write is best-effort: the transition is already committed.
func (s *OfferService) recordTransition(ctx context.Context, offer *entity.Offer, oldStatus entity.OfferStatus, actingUserID uuid.UUID, note string) {
	s.logger.Info("offer status changed",
		zap.String("offer_id", offer.ID.String()),
		zap.String("from", string(oldStatus)),
		zap.String("to", string(offer.Status)),
		zap.String("acting_user_id", actingUserID.String()),
		zap.String("note", note))

	history := &entity.HistoryStatus{
		ID:          primitive.NewObjectID(),
		RelatedID:   offer.ID.String(),
		RelatedType: "offer",
		OldStatus:   string(oldStatus),
		NewStatus:   string(offer.Status),
		ChangedBy:   actingUserID.String(),
		Timestamp:   time.Now(),
		Note:        note,
	}
	if err := s.logRepo.SaveHistoryStatus(ctx, history); err != nil {
		s.logger.Warn("failed to save history status",
			zap.String("offer_id", offer.ID.String()),
			zap.Error(err))
	}
}

// --- OFFER PROPOSAL & EXTENSION ---

// ProposeOffer opens a pending offer from the acting user to input.ToUserID.
func (s *OfferService) ProposeOffer(ctx context.Context, actingUserID uuid.UUID, input entity.CreateOfferInput) (*entity.Offer, []entity.OfferItem, error) {
	if actingUserID == uuid.Nil {
		return nil, nil, validationErr("acting user is required")
	}
	if input.ToUserID == uuid.Nil {
		return nil, nil, validationErr("to_user_id is required")
	}
	if input.ToUserID == actingUserID {
		return nil, nil, validationErr("cannot make an offer to yourself")
	}
	if len(input.Items) == 0 {
		return nil, nil, validationErr("an offer needs at least one item from each participant")
	}

	now := time.Now().UTC()
	offer := &entity.Offer{
		ID:         uuid.New(),
		FromUserID: actingUserID,
		ToUserID:   input.ToUserID,
		Status:     entity.StatusPending,
		Version:    1,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	ids := make([]uuid.UUID, 0, len(input.Items))
	for _, in := range input.Items {
		ids = append(ids, in.ItemID)
	}
	products, err := s.productRepo.GetProducts(ctx, ids)
	if err != nil {
		return nil, nil, persistenceErr(err)
	}

	set := entity.NewOfferItemSet(offer, nil)
	seen := make(map[uuid.UUID]bool, len(input.Items))
	for _, in := range input.Items {
		if seen[in.ItemID] {
			return nil, nil, validationErr("item %s is listed twice", in.ItemID)
		}
		seen[in.ItemID] = true

		item, err := buildItem(offer, in, products, actingUserID)
		if err != nil {
			return nil, nil, err
		}
		set = set.With(item)
	}
	if !set.Balanced() {
		return nil, nil, validationErr("an offer needs at least one item from each participant")
	}

	prices := make(map[uuid.UUID]decimal.Decimal, len(products))
	for id, p := range products {
		prices[id] = p.Price
	}
	cash, err := entity.CashAdjustment(set, prices)
	if err != nil {
		return nil, nil, err
	}
	offer.CashAdjustment = cash

	if err := s.offerRepo.CreateOffer(ctx, offer, set.Items); err != nil {
		return nil, nil, persistenceErr(err)
	}

	s.recordTransition(ctx, offer, "", actingUserID, "offer proposed")
	s.createAndSaveNotification(ctx, offer.ToUserID, "New swap offer",
		fmt.Sprintf("You received a swap offer with %d item(s).", len(set.Items)), "offer_created", offer.ID)

	return offer, set.Items, nil
}

// AddItem extends a pending offer with one more line and recomputes the cash
// adjustment in the same transaction.
func (s *OfferService) AddItem(ctx context.Context, actingUserID, offerID uuid.UUID, input entity.OfferItemInput) (*entity.Offer, *entity.OfferItem, error) {
	var (
		offer *entity.Offer
		added entity.OfferItem
	)
	err := s.offerRepo.WithinTx(ctx, func(tx repo.OfferTx) error {
		var err error
		offer, err = loadOffer(ctx, tx, offerID, actingUserID)
		if err != nil {
			return err
		}
		if offer.Status != entity.StatusPending {
			return fmt.Errorf("%w: items can only be added to a pending offer (status %s)", entity.ErrInvalidTransition, offer.Status)
		}

		items, err := tx.GetOfferItems(ctx, offerID)
		if err != nil {
			return err
		}
		set := entity.NewOfferItemSet(offer, items)
		for _, it := range set.Items {
			if it.ItemID == input.ItemID {
				return validationErr("item %s is already part of this offer", input.ItemID)
			}
		}

		products, err := s.productRepo.GetProducts(ctx, []uuid.UUID{input.ItemID})
		if err != nil {
			return err
		}
		added, err = buildItem(offer, input, products, actingUserID)
		if err != nil {
			return err
		}

		grown := set.With(added)
		prices, err := s.priceMap(ctx, grown)
		if err != nil {
			return err
		}
		cash, err := entity.CashAdjustment(grown, prices)
		if err != nil {
			return err
		}

		if err := tx.InsertOfferItem(ctx, &added); err != nil {
			return err
		}
		offer.CashAdjustment = cash
		return tx.UpdateOffer(ctx, offer)
	})
	if err != nil {
		return nil, nil, persistenceErr(err)
	}

	s.logger.Info("offer item added",
		zap.String("offer_id", offer.ID.String()),
		zap.String("item_id", added.ItemID.String()),
		zap.String("acting_user_id", actingUserID.String()),
		zap.String("cash_adjustment", offer.CashAdjustment.String()))
	s.createAndSaveNotification(ctx, offer.Counterpart(actingUserID), "Offer updated",
		"An item was added to your swap offer.", "offer_updated", offer.ID)

	return offer, &added, nil
}

// --- READS ---

func (s *OfferService) GetOffer(ctx context.Context, actingUserID, offerID uuid.UUID) (*entity.OfferDetail, error) {
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

	items, err := s.offerRepo.GetOfferItems(ctx, offerID)
	if err != nil {
		return nil, persistenceErr(err)
	}
	set := entity.NewOfferItemSet(offer, items)
	products, err := s.productRepo.GetProducts(ctx, set.ItemIDs())
	if err != nil {
		return nil, persistenceErr(err)
	}

	detail := &entity.OfferDetail{Offer: offer, Lines: make([]entity.OfferLine, 0, len(items))}
	for _, it := range items {
		line := entity.OfferLine{OfferItem: it}
		if p, ok := products[it.ItemID]; ok {
			line.ProductName = p.Name
			line.UnitPrice = p.Price
			line.LineValue = entity.LineValue(p.Price, it.Quantity)
		}
		detail.Lines = append(detail.Lines, line)
	}

	// users are display-only; a failed lookup does not fail the read
	detail.FromUser = s.lookupUser(ctx, offer.FromUserID)
	detail.ToUser = s.lookupUser(ctx, offer.ToUserID)
	return detail, nil
}

func (s *OfferService) lookupUser(ctx context.Context, userID uuid.UUID) *entity.User {
	u, err := s.userRepo.GetUser(ctx, userID)
	if err != nil {
		s.logger.Warn("failed to load user", zap.String("user_id", userID.String()), zap.Error(err))
		return nil
	}
	return u
}

func (s *OfferService) ListOffers(ctx context.Context, actingUserID uuid.UUID, role string) ([]entity.Offer, error) {
	switch role {
	case "":
		role = repo.RoleAll
	case repo.RoleSent, repo.RoleReceived, repo.RoleAll:
	default:
		return nil, validationErr("role must be one of sent, received, all")
	}
	offers, err := s.offerRepo.ListOffersByUser(ctx, actingUserID, role)
	if err != nil {
		return nil, persistenceErr(err)
	}
	return offers, nil
}

// History returns the recorded status changes of an offer, oldest first.
func (s *OfferService) History(ctx context.Context, actingUserID, offerID uuid.UUID) ([]entity.HistoryStatus, error) {
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
	history, err := s.logRepo.ListHistoryStatus(ctx, offerID.String())
	if err != nil {
		return nil, persistenceErr(err)
	}
	return history, nil
}
