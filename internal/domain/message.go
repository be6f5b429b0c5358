package entity

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const MaxMessageLength = 2000

// Message is one line of the per-offer chat.
type Message struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	OfferID   string             `bson:"offer_id" json:"offer_id"`
	SenderID  string             `bson:"sender_id" json:"sender_id"`
	Text      string             `bson:"text" json:"text"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
}

type CreateMessageInput struct {
	Text string `json:"text" binding:"required"`
}
