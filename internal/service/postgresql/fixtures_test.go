package service

import (
	"context"
	"sync"
	"testing"
	"time"

	entity "swap-market/internal/domain"
	repo "swap-market/internal/repository/postgresql"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// --- fakes for collaborators outside the relational store ---

type fakeProducts struct {
	mu       sync.Mutex
	products map[uuid.UUID]entity.Product
}

func (f *fakeProducts) GetProducts(_ context.Context, ids []uuid.UUID) (map[uuid.UUID]entity.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[uuid.UUID]entity.Product)
	for _, id := range ids {
		if p, ok := f.products[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

func (f *fakeProducts) add(p entity.Product) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.products[p.ID] = p
}

type fakeUsers struct {
	users map[uuid.UUID]entity.User
}

func (f *fakeUsers) GetUser(_ context.Context, id uuid.UUID) (*entity.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

type fakeLogs struct {
	mu            sync.Mutex
	history       []entity.HistoryStatus
	notifications []entity.Notification
	err           error
}

func (f *fakeLogs) SaveHistoryStatus(_ context.Context, doc *entity.HistoryStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.history = append(f.history, *doc)
	return nil
}

func (f *fakeLogs) ListHistoryStatus(_ context.Context, relatedID string) ([]entity.HistoryStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []entity.HistoryStatus
	for _, h := range f.history {
		if h.RelatedID == relatedID {
			out = append(out, h)
		}
	}
	return out, nil
}

func (f *fakeLogs) SaveNotification(_ context.Context, doc *entity.Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.notifications = append(f.notifications, *doc)
	return nil
}

type fakeMessages struct {
	mu       sync.Mutex
	messages []entity.Message
	deleted  []string
}

func (f *fakeMessages) AppendMessage(_ context.Context, msg *entity.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = append(f.messages, *msg)
	return nil
}

func (f *fakeMessages) ListMessages(_ context.Context, offerID string, limit int64) ([]entity.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []entity.Message{}
	for _, m := range f.messages {
		if m.OfferID == offerID && int64(len(out)) < limit {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeMessages) DeleteMessages(_ context.Context, offerID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	kept := f.messages[:0]
	for _, m := range f.messages {
		if m.OfferID != offerID {
			kept = append(kept, m)
		}
	}
	f.messages = kept
	f.deleted = append(f.deleted, offerID)
	return nil
}

type fakeReviews struct {
	mu      sync.Mutex
	reviews []entity.Review
}

func (f *fakeReviews) SaveReview(_ context.Context, r *entity.Review) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.reviews {
		if existing.OfferID == r.OfferID && existing.FromUserID == r.FromUserID {
			return entity.ErrAlreadyReviewed
		}
	}
	f.reviews = append(f.reviews, *r)
	return nil
}

func (f *fakeReviews) ListReviewsForOffer(_ context.Context, offerID string) ([]entity.Review, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []entity.Review
	for _, r := range f.reviews {
		if r.OfferID == offerID {
			out = append(out, r)
		}
	}
	return out, nil
}

// failingOfferRepo makes UpdateOffer fail inside otherwise real transactions.
type failingOfferRepo struct {
	repo.OfferRepository
	updateErr error
}

func (r *failingOfferRepo) WithinTx(ctx context.Context, fn func(tx repo.OfferTx) error) error {
	return r.OfferRepository.WithinTx(ctx, func(tx repo.OfferTx) error {
		return fn(&failingTx{OfferTx: tx, updateErr: r.updateErr})
	})
}

type failingTx struct {
	repo.OfferTx
	updateErr error
}

func (t *failingTx) UpdateOffer(ctx context.Context, offer *entity.Offer) error {
	if t.updateErr != nil {
		return t.updateErr
	}
	return t.OfferTx.UpdateOffer(ctx, offer)
}

// racingOfferRepo lands a competing write on the offer row between the
// service's read and its own UpdateOffer, as a second writer would.
type racingOfferRepo struct {
	repo.OfferRepository
}

func (r *racingOfferRepo) WithinTx(ctx context.Context, fn func(tx repo.OfferTx) error) error {
	return r.OfferRepository.WithinTx(ctx, func(tx repo.OfferTx) error {
		return fn(&racingTx{OfferTx: tx})
	})
}

type racingTx struct {
	repo.OfferTx
}

func (t *racingTx) UpdateOffer(ctx context.Context, offer *entity.Offer) error {
	other := *offer
	if err := t.OfferTx.UpdateOffer(ctx, &other); err != nil {
		return err
	}
	return t.OfferTx.UpdateOffer(ctx, offer)
}

func intPtr(n int) *int { return &n }

// --- harness ---

type harness struct {
	t        testing.TB
	ctx      context.Context
	db       *sqlx.DB
	offers   repo.OfferRepository
	products *fakeProducts
	users    *fakeUsers
	logs     *fakeLogs
	messages *fakeMessages
	reviews  *fakeReviews
	svc      *OfferService
	msgSvc   *MessageService

	from uuid.UUID
	to   uuid.UUID
}

func newHarness(t testing.TB) *harness {
	t.Helper()
	db, err := sqlx.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, repo.Migrate(context.Background(), db))

	h := &harness{
		t:        t,
		ctx:      context.Background(),
		db:       db,
		offers:   repo.NewOfferRepository(db),
		products: &fakeProducts{products: map[uuid.UUID]entity.Product{}},
		users:    &fakeUsers{users: map[uuid.UUID]entity.User{}},
		logs:     &fakeLogs{},
		messages: &fakeMessages{},
		reviews:  &fakeReviews{},
		from:     uuid.New(),
		to:       uuid.New(),
	}
	h.users.users[h.from] = entity.User{ID: h.from, Username: "sender"}
	h.users.users[h.to] = entity.User{ID: h.to, Username: "receiver"}
	h.build(h.offers)
	return h
}

// build (re)creates the services on top of offers.
func (h *harness) build(offers repo.OfferRepository) {
	logger := zaptest.NewLogger(h.t)
	h.svc = NewOfferService(offers, h.products, h.users, h.logs, h.messages, h.reviews, logger)
	h.msgSvc = NewMessageService(offers, h.messages, h.logs, logger)
}

func (h *harness) product(owner uuid.UUID, price string) uuid.UUID {
	now := time.Now().UTC()
	p := entity.Product{ID: uuid.New(), OwnerID: owner, Name: "item " + price, Price: decimal.RequireFromString(price), Status: "active", CreatedAt: now, UpdatedAt: now}
	h.products.add(p)
	return p.ID
}

// propose opens an offer from h.from to h.to with one item per price on each side.
func (h *harness) propose(senderPrices, receiverPrices []string) (*entity.Offer, []entity.OfferItem) {
	h.t.Helper()
	var input entity.CreateOfferInput
	input.ToUserID = h.to
	for _, p := range senderPrices {
		input.Items = append(input.Items, entity.OfferItemInput{ItemID: h.product(h.from, p), Quantity: intPtr(1)})
	}
	for _, p := range receiverPrices {
		input.Items = append(input.Items, entity.OfferItemInput{ItemID: h.product(h.to, p), Quantity: intPtr(1), OfferedBy: h.to})
	}
	offer, items, err := h.svc.ProposeOffer(h.ctx, h.from, input)
	require.NoError(h.t, err)
	return offer, items
}

func (h *harness) reload(offerID uuid.UUID) (*entity.Offer, []entity.OfferItem) {
	h.t.Helper()
	offer, err := h.offers.GetOfferByID(h.ctx, offerID)
	require.NoError(h.t, err)
	items, err := h.offers.GetOfferItems(h.ctx, offerID)
	require.NoError(h.t, err)
	return offer, items
}

func itemPricedAt(h *harness, items []entity.OfferItem, price string) entity.OfferItem {
	want := decimal.RequireFromString(price)
	for _, it := range items {
		if h.products.products[it.ItemID].Price.Equal(want) {
			return it
		}
	}
	h.t.Fatalf("no offer item priced at %s", price)
	return entity.OfferItem{}
}
