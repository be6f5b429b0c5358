package mongodb

import (
	"context"
	"fmt"

	entity "swap-market/internal/domain"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const CollectionMessages = "offer_messages"

// MessageRepository stores the per-offer chat.
type MessageRepository interface {
	AppendMessage(ctx context.Context, msg *entity.Message) error
	ListMessages(ctx context.Context, offerID string, limit int64) ([]entity.Message, error)
	DeleteMessages(ctx context.Context, offerID string) error
}

type messageRepository struct {
	collection *mongo.Collection
}

func NewMessageRepository(db *mongo.Database) MessageRepository {
	return &messageRepository{collection: db.Collection(CollectionMessages)}
}

func (r *messageRepository) AppendMessage(ctx context.Context, msg *entity.Message) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	if _, err := r.collection.InsertOne(ctx, msg); err != nil {
		return fmt.Errorf("failed to insert offer message: %w", err)
	}
	return nil
}

func (r *messageRepository) ListMessages(ctx context.Context, offerID string, limit int64) ([]entity.Message, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}).SetLimit(limit)
	cur, err := r.collection.Find(ctx, bson.M{"offer_id": offerID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query offer messages: %w", err)
	}
	messages := []entity.Message{}
	if err := cur.All(ctx, &messages); err != nil {
		return nil, fmt.Errorf("failed to decode offer messages: %w", err)
	}
	return messages, nil
}

func (r *messageRepository) DeleteMessages(ctx context.Context, offerID string) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	if _, err := r.collection.DeleteMany(ctx, bson.M{"offer_id": offerID}); err != nil {
		return fmt.Errorf("failed to delete offer messages: %w", err)
	}
	return nil
}
