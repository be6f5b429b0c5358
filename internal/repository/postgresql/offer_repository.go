package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	entity "swap-market/internal/domain"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
)

// Offer list filters.
const (
	RoleSent     = "sent"
	RoleReceived = "received"
	RoleAll      = "all"
)

type OfferRepository interface {
	CreateOffer(ctx context.Context, offer *entity.Offer, items []entity.OfferItem) error
	GetOfferByID(ctx context.Context, offerID uuid.UUID) (*entity.Offer, error)
	GetOfferItems(ctx context.Context, offerID uuid.UUID) ([]entity.OfferItem, error)
	ListOffersByUser(ctx context.Context, userID uuid.UUID, role string) ([]entity.Offer, error)
	// WithinTx runs fn in a single transaction; any error rolls everything back.
	WithinTx(ctx context.Context, fn func(tx OfferTx) error) error
}

// OfferTx is the read-compute-write surface of one offer transaction.
type OfferTx interface {
	// GetOfferForUpdate returns nil, nil when the offer does not exist. On
	// Postgres the row stays locked until the transaction ends.
	GetOfferForUpdate(ctx context.Context, offerID uuid.UUID) (*entity.Offer, error)
	GetOfferItems(ctx context.Context, offerID uuid.UUID) ([]entity.OfferItem, error)
	InsertOfferItem(ctx context.Context, item *entity.OfferItem) error
	DeleteOfferItem(ctx context.Context, offerID, offerItemID uuid.UUID) error
	DeleteOfferItems(ctx context.Context, offerID uuid.UUID) error
	// UpdateOffer stores status and cash_adjustment if offer.Version still
	// matches the stored row, then bumps offer.Version.
	UpdateOffer(ctx context.Context, offer *entity.Offer) error
	DeleteOffer(ctx context.Context, offerID uuid.UUID) (bool, error)
}

type offerRepository struct {
	db *sqlx.DB
}

func NewOfferRepository(db *sqlx.DB) OfferRepository {
	return &offerRepository{db: db}
}

// offerQueries holds the statements shared by the repository and its transactions.
type offerQueries struct {
	q      sqlx.ExtContext
	driver string
}

func (r *offerRepository) queries() offerQueries {
	return offerQueries{q: r.db, driver: r.db.DriverName()}
}

func (o offerQueries) rebind(query string) string {
	return sqlx.Rebind(sqlx.BindType(o.driver), query)
}

const offerColumns = `id, from_user_id, to_user_id, status_offer, cash_adjustment, version, date_created, date_updated`
const offerItemColumns = `id, offer_id, item_id, offered_by, quantity, date_created`

func (r *offerRepository) CreateOffer(ctx context.Context, offer *entity.Offer, items []entity.OfferItem) error {
	return r.WithinTx(ctx, func(tx OfferTx) error {
		t := tx.(*offerTx)
		query := t.rebind(`
			INSERT INTO offers (` + offerColumns + `)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`)
		if _, err := t.q.ExecContext(ctx, query,
			offer.ID, offer.FromUserID, offer.ToUserID, offer.Status, offer.CashAdjustment,
			offer.Version, offer.CreatedAt, offer.UpdatedAt,
		); err != nil {
			return errors.Wrap(err, "insert offer")
		}
		for i := range items {
			if err := tx.InsertOfferItem(ctx, &items[i]); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *offerRepository) GetOfferByID(ctx context.Context, offerID uuid.UUID) (*entity.Offer, error) {
	return r.queries().getOffer(ctx, offerID, false)
}

func (r *offerRepository) GetOfferItems(ctx context.Context, offerID uuid.UUID) ([]entity.OfferItem, error) {
	return r.queries().getOfferItems(ctx, offerID)
}

func (r *offerRepository) ListOffersByUser(ctx context.Context, userID uuid.UUID, role string) ([]entity.Offer, error) {
	var where string
	args := []interface{}{userID}
	switch role {
	case RoleSent:
		where = `from_user_id = ?`
	case RoleReceived:
		where = `to_user_id = ?`
	default:
		where = `from_user_id = ? OR to_user_id = ?`
		args = append(args, userID)
	}

	offers := []entity.Offer{}
	query := r.db.Rebind(`SELECT ` + offerColumns + ` FROM offers WHERE ` + where + ` ORDER BY date_updated DESC`)
	if err := r.db.SelectContext(ctx, &offers, query, args...); err != nil {
		return nil, errors.Wrap(err, "list offers")
	}
	return offers, nil
}

func (r *offerRepository) WithinTx(ctx context.Context, fn func(tx OfferTx) error) error {
	sqlTx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin offer transaction")
	}
	// a panic in fn must not leave the connection and its row locks behind
	defer func() {
		if p := recover(); p != nil {
			_ = sqlTx.Rollback()
			panic(p)
		}
	}()

	if err := fn(&offerTx{offerQueries{q: sqlTx, driver: r.db.DriverName()}}); err != nil {
		if rbErr := sqlTx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			return fmt.Errorf("%w (rollback: %v)", err, rbErr)
		}
		return err
	}
	return errors.Wrap(sqlTx.Commit(), "commit offer transaction")
}

type offerTx struct {
	offerQueries
}

func (t *offerTx) GetOfferForUpdate(ctx context.Context, offerID uuid.UUID) (*entity.Offer, error) {
	return t.getOffer(ctx, offerID, isPostgres(t.driver))
}

func (t *offerTx) GetOfferItems(ctx context.Context, offerID uuid.UUID) ([]entity.OfferItem, error) {
	return t.getOfferItems(ctx, offerID)
}

func (t *offerTx) InsertOfferItem(ctx context.Context, item *entity.OfferItem) error {
	query := t.rebind(`INSERT INTO offer_items (` + offerItemColumns + `) VALUES (?, ?, ?, ?, ?, ?)`)
	_, err := t.q.ExecContext(ctx, query,
		item.ID, item.OfferID, item.ItemID, item.OfferedBy, item.Quantity, item.CreatedAt,
	)
	return errors.Wrap(err, "insert offer item")
}

func (t *offerTx) DeleteOfferItem(ctx context.Context, offerID, offerItemID uuid.UUID) error {
	res, err := t.q.ExecContext(ctx, t.rebind(`DELETE FROM offer_items WHERE id = ? AND offer_id = ?`), offerItemID, offerID)
	if err != nil {
		return errors.Wrap(err, "delete offer item")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "delete offer item")
	}
	if n == 0 {
		return entity.ErrOfferItemNotFound
	}
	return nil
}

func (t *offerTx) DeleteOfferItems(ctx context.Context, offerID uuid.UUID) error {
	_, err := t.q.ExecContext(ctx, t.rebind(`DELETE FROM offer_items WHERE offer_id = ?`), offerID)
	return errors.Wrap(err, "delete offer items")
}

func (t *offerTx) UpdateOffer(ctx context.Context, offer *entity.Offer) error {
	now := time.Now().UTC()
	query := t.rebind(`
		UPDATE offers
		SET status_offer = ?, cash_adjustment = ?, version = version + 1, date_updated = ?
		WHERE id = ? AND version = ?
	`)
	res, err := t.q.ExecContext(ctx, query, offer.Status, offer.CashAdjustment, now, offer.ID, offer.Version)
	if err != nil {
		return errors.Wrap(err, "update offer")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "update offer")
	}
	if n == 0 {
		return entity.ErrConcurrentUpdate
	}
	offer.Version++
	offer.UpdatedAt = now
	return nil
}

func (t *offerTx) DeleteOffer(ctx context.Context, offerID uuid.UUID) (bool, error) {
	// offer_items go first: SQLite only honours ON DELETE CASCADE with foreign_keys on.
	if err := t.DeleteOfferItems(ctx, offerID); err != nil {
		return false, err
	}
	res, err := t.q.ExecContext(ctx, t.rebind(`DELETE FROM offers WHERE id = ?`), offerID)
	if err != nil {
		return false, errors.Wrap(err, "delete offer")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, errors.Wrap(err, "delete offer")
	}
	return n > 0, nil
}

func (o offerQueries) getOffer(ctx context.Context, offerID uuid.UUID, lock bool) (*entity.Offer, error) {
	query := `SELECT ` + offerColumns + ` FROM offers WHERE id = ?`
	if lock {
		query += ` FOR UPDATE`
	}

	var offer entity.Offer
	err := sqlx.GetContext(ctx, o.q, &offer, o.rebind(query), offerID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "get offer %s", offerID)
	}
	return &offer, nil
}

func (o offerQueries) getOfferItems(ctx context.Context, offerID uuid.UUID) ([]entity.OfferItem, error) {
	items := []entity.OfferItem{}
	query := o.rebind(`SELECT ` + offerItemColumns + ` FROM offer_items WHERE offer_id = ? ORDER BY date_created, id`)
	if err := sqlx.SelectContext(ctx, o.q, &items, query, offerID); err != nil {
		return nil, errors.Wrapf(err, "list items of offer %s", offerID)
	}
	return items, nil
}
