package mongodb

import (
	"context"
	"fmt"

	entity "swap-market/internal/domain"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const CollectionReviews = "reviews"

// ReviewRepository is the rating collaborator: it only stores what it is given.
type ReviewRepository interface {
	SaveReview(ctx context.Context, review *entity.Review) error
	ListReviewsForOffer(ctx context.Context, offerID string) ([]entity.Review, error)
}

type reviewRepository struct {
	collection *mongo.Collection
}

func NewReviewRepository(db *mongo.Database) ReviewRepository {
	return &reviewRepository{collection: db.Collection(CollectionReviews)}
}

// EnsureIndexes makes (offer_id, from_user_id) unique so a user rates an offer once.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	_, err := db.Collection(CollectionReviews).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "offer_id", Value: 1}, {Key: "from_user_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("failed to create review index: %w", err)
	}

	_, err = db.Collection(CollectionMessages).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "offer_id", Value: 1}, {Key: "created_at", Value: 1}},
	})
	if err != nil {
		return fmt.Errorf("failed to create message index: %w", err)
	}
	return nil
}

func (r *reviewRepository) SaveReview(ctx context.Context, review *entity.Review) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	if _, err := r.collection.InsertOne(ctx, review); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return entity.ErrAlreadyReviewed
		}
		return fmt.Errorf("failed to insert review: %w", err)
	}
	return nil
}

func (r *reviewRepository) ListReviewsForOffer(ctx context.Context, offerID string) ([]entity.Review, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	cur, err := r.collection.Find(ctx, bson.M{"offer_id": offerID})
	if err != nil {
		return nil, fmt.Errorf("failed to query reviews: %w", err)
	}
	reviews := []entity.Review{}
	if err := cur.All(ctx, &reviews); err != nil {
		return nil, fmt.Errorf("failed to decode reviews: %w", err)
	}
	return reviews, nil
}
