package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product is a listed item owned outside the negotiation core; only its
// price and owner matter to an offer.
type Product struct {
	ID        uuid.UUID       `db:"id" json:"id"`
	OwnerID   uuid.UUID       `db:"owner_id" json:"owner_id"`
	Name      string          `db:"name" json:"name"`
	Price     decimal.Decimal `db:"price" json:"price"`
	Status    string          `db:"status" json:"status"` // active, inactive, deleted
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt time.Time       `db:"updated_at" json:"updated_at"`
}
