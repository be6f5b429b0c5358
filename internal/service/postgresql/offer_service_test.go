package service

import (
	"errors"
	"testing"

	entity "swap-market/internal/domain"
	repo "swap-market/internal/repository/postgresql"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProposeOffer_computesCashAdjustment(t *testing.T) {
	h := newHarness(t)

	offer, items := h.propose([]string{"100", "50"}, []string{"200"})

	assert.Equal(t, entity.StatusPending, offer.Status)
	assert.Len(t, items, 3)
	assert.Equal(t, "-50", offer.CashAdjustment.String())

	stored, storedItems := h.reload(offer.ID)
	assert.True(t, stored.CashAdjustment.Equal(decimal.NewFromInt(-50)))
	assert.Len(t, storedItems, 3)
	require.Len(t, h.logs.notifications, 1)
	assert.Equal(t, h.to.String(), h.logs.notifications[0].UserID)
}

func TestProposeOffer_validation(t *testing.T) {
	h := newHarness(t)
	mine := h.product(h.from, "10")
	theirs := h.product(h.to, "10")

	tests := []struct {
		name  string
		actor uuid.UUID
		input entity.CreateOfferInput
		want  error
	}{
		{"to self", h.from, entity.CreateOfferInput{ToUserID: h.from, Items: []entity.OfferItemInput{{ItemID: mine}}}, entity.ErrValidation},
		{"missing recipient", h.from, entity.CreateOfferInput{Items: []entity.OfferItemInput{{ItemID: mine}}}, entity.ErrValidation},
		{"one sided", h.from, entity.CreateOfferInput{ToUserID: h.to, Items: []entity.OfferItemInput{{ItemID: mine}}}, entity.ErrValidation},
		{"negative quantity", h.from, entity.CreateOfferInput{ToUserID: h.to, Items: []entity.OfferItemInput{
			{ItemID: mine, Quantity: intPtr(-1)}, {ItemID: theirs, OfferedBy: h.to},
		}}, entity.ErrValidation},
		{"zero quantity", h.from, entity.CreateOfferInput{ToUserID: h.to, Items: []entity.OfferItemInput{
			{ItemID: mine, Quantity: intPtr(0)}, {ItemID: theirs, OfferedBy: h.to},
		}}, entity.ErrValidation},
		{"offering someone else's item", h.from, entity.CreateOfferInput{ToUserID: h.to, Items: []entity.OfferItemInput{
			{ItemID: theirs}, {ItemID: mine, OfferedBy: h.to},
		}}, entity.ErrValidation},
		{"outsider as offered_by", h.from, entity.CreateOfferInput{ToUserID: h.to, Items: []entity.OfferItemInput{
			{ItemID: mine}, {ItemID: theirs, OfferedBy: uuid.New()},
		}}, entity.ErrValidation},
		{"duplicate item", h.from, entity.CreateOfferInput{ToUserID: h.to, Items: []entity.OfferItemInput{
			{ItemID: mine}, {ItemID: mine}, {ItemID: theirs, OfferedBy: h.to},
		}}, entity.ErrValidation},
		{"unknown product", h.from, entity.CreateOfferInput{ToUserID: h.to, Items: []entity.OfferItemInput{
			{ItemID: mine}, {ItemID: uuid.New(), OfferedBy: h.to},
		}}, entity.ErrProductNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := h.svc.ProposeOffer(h.ctx, tt.actor, tt.input)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	offers, err := h.svc.ListOffers(h.ctx, h.from, repo.RoleAll)
	require.NoError(t, err)
	assert.Empty(t, offers, "rejected proposals must not be stored")
}

func TestProposeOffer_omittedQuantityDefaultsToOne(t *testing.T) {
	h := newHarness(t)
	_, items, err := h.svc.ProposeOffer(h.ctx, h.from, entity.CreateOfferInput{ToUserID: h.to, Items: []entity.OfferItemInput{
		{ItemID: h.product(h.from, "10")},
		{ItemID: h.product(h.to, "10"), OfferedBy: h.to, Quantity: intPtr(3)},
	}})
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, 1, items[0].Quantity)
	assert.Equal(t, 3, items[1].Quantity)
}

func TestRemoveItem_lastReceiverItemCascadesToRejection(t *testing.T) {
	h := newHarness(t)
	offer, items := h.propose([]string{"100", "50"}, []string{"200"})
	receiverItem := itemPricedAt(h, items, "200")

	outcome, err := h.svc.RemoveItem(h.ctx, h.to, offer.ID, receiverItem.ID, receiverItem.ItemID)
	require.NoError(t, err)
	assert.Equal(t, entity.RemovalOfferRejected, outcome.Kind)
	assert.Equal(t, entity.StatusRejected, outcome.Offer.Status)
	assert.Empty(t, outcome.RemainingItems)

	stored, storedItems := h.reload(offer.ID)
	assert.Equal(t, entity.StatusRejected, stored.Status)
	assert.Empty(t, storedItems)
	assert.True(t, stored.CashAdjustment.IsZero())

	last := h.logs.history[len(h.logs.history)-1]
	assert.Equal(t, "pending", last.OldStatus)
	assert.Equal(t, "rejected", last.NewStatus)
}

func TestRemoveItem_lastSenderItemCascadesFromAccepted(t *testing.T) {
	h := newHarness(t)
	offer, items := h.propose([]string{"100"}, []string{"80", "70"})
	_, err := h.svc.AcceptOffer(h.ctx, h.to, offer.ID)
	require.NoError(t, err)

	senderItem := itemPricedAt(h, items, "100")
	outcome, err := h.svc.RemoveItem(h.ctx, h.from, offer.ID, senderItem.ID, uuid.Nil)
	require.NoError(t, err)
	assert.Equal(t, entity.RemovalOfferRejected, outcome.Kind)

	stored, storedItems := h.reload(offer.ID)
	assert.Equal(t, entity.StatusRejected, stored.Status)
	assert.Empty(t, storedItems)
}

func TestRemoveItem_partialRemovalRecomputesCash(t *testing.T) {
	h := newHarness(t)
	offer, items := h.propose([]string{"100", "50"}, []string{"80", "70"})
	assert.True(t, offer.CashAdjustment.IsZero())
	fifty := itemPricedAt(h, items, "50")

	outcome, err := h.svc.RemoveItem(h.ctx, h.from, offer.ID, fifty.ID, fifty.ItemID)
	require.NoError(t, err)
	assert.Equal(t, entity.RemovalItemRemoved, outcome.Kind)
	assert.Equal(t, entity.StatusPending, outcome.Offer.Status)
	assert.Equal(t, "-50", outcome.Offer.CashAdjustment.String())
	assert.Len(t, outcome.RemainingItems, 3)

	stored, storedItems := h.reload(offer.ID)
	assert.True(t, stored.CashAdjustment.Equal(decimal.NewFromInt(-50)))
	assert.Len(t, storedItems, 3)
	assert.EqualValues(t, 2, stored.Version)
}

func TestRemoveItem_errors(t *testing.T) {
	h := newHarness(t)
	offer, items := h.propose([]string{"100", "50"}, []string{"80", "70"})
	fifty := itemPricedAt(h, items, "50")

	_, err := h.svc.RemoveItem(h.ctx, h.from, uuid.New(), fifty.ID, uuid.Nil)
	assert.ErrorIs(t, err, entity.ErrOfferNotFound)

	_, err = h.svc.RemoveItem(h.ctx, h.from, offer.ID, uuid.New(), uuid.Nil)
	assert.ErrorIs(t, err, entity.ErrOfferItemNotFound)

	_, err = h.svc.RemoveItem(h.ctx, h.from, offer.ID, fifty.ID, uuid.New())
	assert.ErrorIs(t, err, entity.ErrOfferItemNotFound, "item id must match the offer item")

	_, err = h.svc.RemoveItem(h.ctx, uuid.New(), offer.ID, fifty.ID, uuid.Nil)
	assert.ErrorIs(t, err, entity.ErrNotParticipant)

	_, err = h.svc.RemoveItem(h.ctx, h.from, offer.ID, uuid.Nil, uuid.Nil)
	assert.ErrorIs(t, err, entity.ErrValidation)

	_, err = h.svc.RejectOffer(h.ctx, h.to, offer.ID)
	require.NoError(t, err)
	_, err = h.svc.RemoveItem(h.ctx, h.from, offer.ID, fifty.ID, uuid.Nil)
	assert.ErrorIs(t, err, entity.ErrInvalidTransition)

	_, storedItems := h.reload(offer.ID)
	assert.Len(t, storedItems, 4)
}

func TestRemoveItem_persistenceFailureLeavesOfferUntouched(t *testing.T) {
	h := newHarness(t)
	offer, items := h.propose([]string{"100", "50"}, []string{"80", "70"})
	fifty := itemPricedAt(h, items, "50")

	h.build(&failingOfferRepo{OfferRepository: h.offers, updateErr: errors.New("connection reset")})
	_, err := h.svc.RemoveItem(h.ctx, h.from, offer.ID, fifty.ID, fifty.ItemID)
	assert.ErrorIs(t, err, entity.ErrPersistence)
	assert.NotErrorIs(t, err, entity.ErrCascadeFailed)

	stored, storedItems := h.reload(offer.ID)
	assert.Len(t, storedItems, 4, "deleted item must be rolled back")
	assert.True(t, stored.CashAdjustment.IsZero())
	assert.EqualValues(t, 1, stored.Version)
}

func TestRemoveItem_cascadeFailureIsReportedDistinctly(t *testing.T) {
	h := newHarness(t)
	offer, items := h.propose([]string{"100", "50"}, []string{"200"})
	receiverItem := itemPricedAt(h, items, "200")

	h.build(&failingOfferRepo{OfferRepository: h.offers, updateErr: errors.New("connection reset")})
	_, err := h.svc.RemoveItem(h.ctx, h.to, offer.ID, receiverItem.ID, uuid.Nil)
	assert.ErrorIs(t, err, entity.ErrCascadeFailed)

	stored, storedItems := h.reload(offer.ID)
	assert.Equal(t, entity.StatusPending, stored.Status)
	assert.Len(t, storedItems, 3, "cascade delete must be rolled back")

	// retrying once the store recovers completes the cascade
	h.build(h.offers)
	outcome, err := h.svc.RemoveItem(h.ctx, h.to, offer.ID, receiverItem.ID, uuid.Nil)
	require.NoError(t, err)
	assert.Equal(t, entity.RemovalOfferRejected, outcome.Kind)
}

func TestRemoveItem_staleVersionIsRejected(t *testing.T) {
	h := newHarness(t)
	offer, items := h.propose([]string{"100", "50"}, []string{"80", "70"})
	fifty := itemPricedAt(h, items, "50")

	h.build(&racingOfferRepo{OfferRepository: h.offers})
	_, err := h.svc.RemoveItem(h.ctx, h.from, offer.ID, fifty.ID, uuid.Nil)
	assert.ErrorIs(t, err, entity.ErrConcurrentUpdate)
	assert.NotErrorIs(t, err, entity.ErrCascadeFailed)

	stored, storedItems := h.reload(offer.ID)
	assert.Len(t, storedItems, 4, "removal must roll back with the lost update")
	assert.True(t, stored.CashAdjustment.IsZero())
	assert.EqualValues(t, 1, stored.Version)
}

// Both callers share one sqlite connection, so the pool serializes them; the
// version guard itself is covered by TestRemoveItem_staleVersionIsRejected.
func TestRemoveItem_parallelCallersFromBothSides(t *testing.T) {
	h := newHarness(t)
	offer, items := h.propose([]string{"100", "50"}, []string{"80", "70"})
	fifty := itemPricedAt(h, items, "50")
	seventy := itemPricedAt(h, items, "70")

	errs := make(chan error, 2)
	go func() {
		_, err := h.svc.RemoveItem(h.ctx, h.from, offer.ID, fifty.ID, uuid.Nil)
		errs <- err
	}()
	go func() {
		_, err := h.svc.RemoveItem(h.ctx, h.to, offer.ID, seventy.ID, uuid.Nil)
		errs <- err
	}()
	for i := 0; i < 2; i++ {
		require.NoError(t, <-errs)
	}

	stored, storedItems := h.reload(offer.ID)
	assert.Len(t, storedItems, 2)
	assert.Equal(t, entity.StatusPending, stored.Status)
	assert.True(t, stored.CashAdjustment.Equal(decimal.NewFromInt(20)), "cash %s", stored.CashAdjustment)
}

func TestAddItem_recomputesCash(t *testing.T) {
	h := newHarness(t)
	offer, _ := h.propose([]string{"100"}, []string{"80"})
	assert.Equal(t, "20", offer.CashAdjustment.String())

	extra := h.product(h.to, "30")
	updated, added, err := h.svc.AddItem(h.ctx, h.to, offer.ID, entity.OfferItemInput{ItemID: extra, Quantity: intPtr(2)})
	require.NoError(t, err)
	assert.Equal(t, h.to, added.OfferedBy)
	assert.Equal(t, "-40", updated.CashAdjustment.String())

	_, _, err = h.svc.AddItem(h.ctx, h.to, offer.ID, entity.OfferItemInput{ItemID: extra})
	assert.ErrorIs(t, err, entity.ErrValidation)

	_, _, err = h.svc.AddItem(h.ctx, h.to, offer.ID, entity.OfferItemInput{ItemID: h.product(h.to, "5"), Quantity: intPtr(0)})
	assert.ErrorIs(t, err, entity.ErrValidation)
	_, items := h.reload(offer.ID)
	assert.Len(t, items, 3, "zero quantity must not be stored")

	_, err = h.svc.AcceptOffer(h.ctx, h.to, offer.ID)
	require.NoError(t, err)
	_, _, err = h.svc.AddItem(h.ctx, h.from, offer.ID, entity.OfferItemInput{ItemID: h.product(h.from, "5")})
	assert.ErrorIs(t, err, entity.ErrInvalidTransition)
}

func TestGetOffer_detail(t *testing.T) {
	h := newHarness(t)
	offer, _ := h.propose([]string{"100", "50"}, []string{"200"})

	detail, err := h.svc.GetOffer(h.ctx, h.to, offer.ID)
	require.NoError(t, err)
	assert.Len(t, detail.Lines, 3)
	assert.Equal(t, "sender", detail.FromUser.Username)
	assert.Equal(t, "receiver", detail.ToUser.Username)
	total := decimal.Zero
	for _, l := range detail.Lines {
		total = total.Add(l.LineValue)
	}
	assert.Equal(t, "350", total.String())

	_, err = h.svc.GetOffer(h.ctx, uuid.New(), offer.ID)
	assert.ErrorIs(t, err, entity.ErrNotParticipant)
	_, err = h.svc.GetOffer(h.ctx, h.to, uuid.New())
	assert.ErrorIs(t, err, entity.ErrOfferNotFound)
}

func TestListOffers_roles(t *testing.T) {
	h := newHarness(t)
	h.propose([]string{"1"}, []string{"2"})

	sent, err := h.svc.ListOffers(h.ctx, h.from, repo.RoleSent)
	require.NoError(t, err)
	assert.Len(t, sent, 1)

	received, err := h.svc.ListOffers(h.ctx, h.from, repo.RoleReceived)
	require.NoError(t, err)
	assert.Empty(t, received)

	_, err = h.svc.ListOffers(h.ctx, h.from, "archived")
	assert.ErrorIs(t, err, entity.ErrValidation)
}

func TestNotificationFailureDoesNotFailOperation(t *testing.T) {
	h := newHarness(t)
	h.logs.err = errors.New("mongo down")

	offer, _ := h.propose([]string{"1"}, []string{"2"})
	_, err := h.svc.AcceptOffer(h.ctx, h.to, offer.ID)
	assert.NoError(t, err)
}
