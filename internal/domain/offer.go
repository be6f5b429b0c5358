package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Offer struct {
	ID             uuid.UUID       `db:"id" json:"id"`
	FromUserID     uuid.UUID       `db:"from_user_id" json:"from_user_id"`
	ToUserID       uuid.UUID       `db:"to_user_id" json:"to_user_id"`
	Status         OfferStatus     `db:"status_offer" json:"status_offer"`
	CashAdjustment decimal.Decimal `db:"cash_adjustment" json:"cash_adjustment"`
	Version        int64           `db:"version" json:"version"`
	CreatedAt      time.Time       `db:"date_created" json:"date_created"`
	UpdatedAt      time.Time       `db:"date_updated" json:"date_updated"`
}

// IsParticipant reports whether userID is one of the two parties.
func (o *Offer) IsParticipant(userID uuid.UUID) bool {
	return userID != uuid.Nil && (userID == o.FromUserID || userID == o.ToUserID)
}

// Counterpart returns the other party for viewerID, or uuid.Nil when the
// viewer is not a participant.
func (o *Offer) Counterpart(viewerID uuid.UUID) uuid.UUID {
	switch viewerID {
	case o.FromUserID:
		return o.ToUserID
	case o.ToUserID:
		return o.FromUserID
	default:
		return uuid.Nil
	}
}

type OfferItem struct {
	ID        uuid.UUID `db:"id" json:"id"`
	OfferID   uuid.UUID `db:"offer_id" json:"offer_id"`
	ItemID    uuid.UUID `db:"item_id" json:"item_id"`
	OfferedBy uuid.UUID `db:"offered_by" json:"offered_by"`
	Quantity  int       `db:"quantity" json:"quantity"`
	CreatedAt time.Time `db:"date_created" json:"date_created"`
}

type OfferItemInput struct {
	ItemID    uuid.UUID `json:"item_id" binding:"required"`
	// Quantity defaults to 1 when omitted; an explicit value must be at least 1.
	Quantity  *int      `json:"quantity" binding:"omitempty,min=1"`
	OfferedBy uuid.UUID `json:"offered_by"`
}

type CreateOfferInput struct {
	ToUserID uuid.UUID        `json:"to_user_id" binding:"required"`
	Items    []OfferItemInput `json:"items" binding:"required,dive"`
}

// RemovalKind tells the caller which branch a removal took.
type RemovalKind string

const (
	RemovalItemRemoved   RemovalKind = "item_removed"
	RemovalOfferRejected RemovalKind = "offer_rejected"
)

type RemovalOutcome struct {
	Kind           RemovalKind `json:"kind"`
	Offer          *Offer      `json:"offer"`
	RemainingItems []OfferItem `json:"remaining_items"`
}

// OfferLine is an OfferItem joined with its product for display.
type OfferLine struct {
	OfferItem
	ProductName string          `json:"product_name"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	LineValue   decimal.Decimal `json:"line_value"`
}

type OfferDetail struct {
	Offer    *Offer      `json:"offer"`
	Lines    []OfferLine `json:"items"`
	FromUser *User       `json:"from_user,omitempty"`
	ToUser   *User       `json:"to_user,omitempty"`
}

// RatingTarget is what the rating collaborator needs once an offer is completed.
type RatingTarget struct {
	OfferID    uuid.UUID `json:"offer_id"`
	FromUserID uuid.UUID `json:"from_user_id"`
	ToUserID   uuid.UUID `json:"to_user_id"`
}
