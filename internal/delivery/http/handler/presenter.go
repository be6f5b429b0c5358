package handler

import (
	entity "swap-market/internal/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Cash directions from the viewer's side of the trade.
const (
	CashPay     = "pay"
	CashReceive = "receive"
	CashEven    = "even"
)

type CashView struct {
	Direction string          `json:"direction"`
	Amount    decimal.Decimal `json:"amount"`
}

// CashPerspective reads the stored adjustment for one participant. The stored
// value is always senderTotal - receiverTotal; the party whose items are worth
// less pays the difference. Someone outside the offer neither pays nor
// receives, so they get CashEven.
func CashPerspective(offer *entity.Offer, viewerID uuid.UUID) CashView {
	if !offer.IsParticipant(viewerID) {
		return CashView{Direction: CashEven, Amount: decimal.Zero}
	}
	cash := offer.CashAdjustment
	if viewerID == offer.ToUserID {
		cash = cash.Neg()
	}
	switch cash.Sign() {
	case 1:
		return CashView{Direction: CashReceive, Amount: cash}
	case -1:
		return CashView{Direction: CashPay, Amount: cash.Abs()}
	default:
		return CashView{Direction: CashEven, Amount: decimal.Zero}
	}
}

type offerView struct {
	*entity.Offer
	Cash CashView `json:"cash"`
}

func newOfferView(offer *entity.Offer, viewerID uuid.UUID) offerView {
	return offerView{Offer: offer, Cash: CashPerspective(offer, viewerID)}
}
