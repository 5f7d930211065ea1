package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/YelzhanWeb/menuapp/internal/domain"
)

// AuditRepository stores one document per successful mutation.
type AuditRepository struct {
	collection *mongo.Collection
}

func NewAuditRepository(db *mongo.Database) *AuditRepository {
	return &AuditRepository{
		collection: db.Collection(AuditCollection),
	}
}

func (r *AuditRepository) Record(ctx context.Context, rec domain.MutationRecord) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if rec.OccurredAt.IsZero() {
		rec.OccurredAt = time.Now().UTC()
	}

	if _, err := r.collection.InsertOne(ctx, rec); err != nil {
		return fmt.Errorf("failed to record mutation: %w", err)
	}
	return nil
}

// ListByEntity returns the newest records first.
func (r *AuditRepository) ListByEntity(ctx context.Context, entityID string, limit int) ([]domain.MutationRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{"entity_id": entityID}
	opts := options.Find().SetSort(bson.D{{Key: "occurred_at", Value: -1}}).SetLimit(int64(limit))

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to get mutation records: %w", err)
	}
	defer cursor.Close(ctx)

	var records []domain.MutationRecord
	if err := cursor.All(ctx, &records); err != nil {
		return nil, fmt.Errorf("failed to decode mutation records: %w", err)
	}
	return records, nil
}
