package mongodb

import (
	"context"
	"fmt"
	"time"

	entity "swap-market/internal/domain"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	CollectionStatus        = "history_status"
	CollectionNotifications = "notifications"

	opTimeout = 5 * time.Second
)

type LogRepository interface {
	SaveHistoryStatus(ctx context.Context, doc *entity.HistoryStatus) error
	ListHistoryStatus(ctx context.Context, relatedID string) ([]entity.HistoryStatus, error)
	SaveNotification(ctx context.Context, doc *entity.Notification) error
}

type logRepository struct {
	status        *mongo.Collection
	notifications *mongo.Collection
}

func NewLogRepository(db *mongo.Database) LogRepository {
	return &logRepository{
		status:        db.Collection(CollectionStatus),
		notifications: db.Collection(CollectionNotifications),
	}
}

func (r *logRepository) SaveHistoryStatus(ctx context.Context, doc *entity.HistoryStatus) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	if _, err := r.status.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("failed to insert history status to Mongo: %w", err)
	}
	return nil
}

func (r *logRepository) ListHistoryStatus(ctx context.Context, relatedID string) ([]entity.HistoryStatus, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: 1}})
	cur, err := r.status.Find(ctx, bson.M{"related_id": relatedID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query history status: %w", err)
	}
	history := []entity.HistoryStatus{}
	if err := cur.All(ctx, &history); err != nil {
		return nil, fmt.Errorf("failed to decode history status: %w", err)
	}
	return history, nil
}

func (r *logRepository) SaveNotification(ctx context.Context, doc *entity.Notification) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	if _, err := r.notifications.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("failed to insert notification to Mongo: %w", err)
	}
	return nil
}
