package entity

import "github.com/google/uuid"

// OfferItemSet is the full collection of items attached to one offer,
// partitioned by which participant offered them.
type OfferItemSet struct {
	FromUserID uuid.UUID
	ToUserID   uuid.UUID
	Items      []OfferItem
}

func NewOfferItemSet(offer *Offer, items []OfferItem) OfferItemSet {
	return OfferItemSet{FromUserID: offer.FromUserID, ToUserID: offer.ToUserID, Items: items}
}

// SenderItems are the items contributed by from_user_id.
func (s OfferItemSet) SenderItems() []OfferItem {
	return s.offeredBy(s.FromUserID)
}

// ReceiverItems are the items contributed by to_user_id.
func (s OfferItemSet) ReceiverItems() []OfferItem {
	return s.offeredBy(s.ToUserID)
}

func (s OfferItemSet) offeredBy(userID uuid.UUID) []OfferItem {
	var out []OfferItem
	for _, it := range s.Items {
		if it.OfferedBy == userID {
			out = append(out, it)
		}
	}
	return out
}

func (s OfferItemSet) Find(offerItemID uuid.UUID) (OfferItem, bool) {
	for _, it := range s.Items {
		if it.ID == offerItemID {
			return it, true
		}
	}
	return OfferItem{}, false
}

// Without returns a copy of the set minus the given offer item.
func (s OfferItemSet) Without(offerItemID uuid.UUID) OfferItemSet {
	out := OfferItemSet{FromUserID: s.FromUserID, ToUserID: s.ToUserID}
	for _, it := range s.Items {
		if it.ID != offerItemID {
			out.Items = append(out.Items, it)
		}
	}
	return out
}

// With returns a copy of the set plus item.
func (s OfferItemSet) With(item OfferItem) OfferItemSet {
	items := make([]OfferItem, 0, len(s.Items)+1)
	items = append(items, s.Items...)
	return OfferItemSet{FromUserID: s.FromUserID, ToUserID: s.ToUserID, Items: append(items, item)}
}

// Counts returns how many items each side contributes.
func (s OfferItemSet) Counts() (sender, receiver int) {
	for _, it := range s.Items {
		switch it.OfferedBy {
		case s.FromUserID:
			sender++
		case s.ToUserID:
			receiver++
		}
	}
	return sender, receiver
}

// Balanced reports whether both sides still have at least one item.
func (s OfferItemSet) Balanced() bool {
	sender, receiver := s.Counts()
	return sender > 0 && receiver > 0
}

// ItemIDs returns the distinct product ids referenced by the set.
func (s OfferItemSet) ItemIDs() []uuid.UUID {
	seen := make(map[uuid.UUID]bool, len(s.Items))
	var ids []uuid.UUID
	for _, it := range s.Items {
		if !seen[it.ItemID] {
			seen[it.ItemID] = true
			ids = append(ids, it.ItemID)
		}
	}
	return ids
}
