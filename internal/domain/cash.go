package entity

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LineValue is price × quantity for a single offer item.
func LineValue(price decimal.Decimal, quantity int) decimal.Decimal {
	return price.Mul(decimal.NewFromInt(int64(quantity)))
}

// CashAdjustment returns senderTotal − receiverTotal for the set. A positive
// result means from_user_id offers more value than to_user_id. prices is keyed
// by product id; a missing price is an error, never a silent zero.
func CashAdjustment(set OfferItemSet, prices map[uuid.UUID]decimal.Decimal) (decimal.Decimal, error) {
	senderTotal, err := total(set.SenderItems(), prices)
	if err != nil {
		return decimal.Zero, err
	}
	receiverTotal, err := total(set.ReceiverItems(), prices)
	if err != nil {
		return decimal.Zero, err
	}
	return senderTotal.Sub(receiverTotal), nil
}

func total(items []OfferItem, prices map[uuid.UUID]decimal.Decimal) (decimal.Decimal, error) {
	sum := decimal.Zero
	for _, it := range items {
		price, ok := prices[it.ItemID]
		if !ok {
			return decimal.Zero, fmt.Errorf("%w: %s", ErrProductNotFound, it.ItemID)
		}
		sum = sum.Add(LineValue(price, it.Quantity))
	}
	return sum, nil
}
