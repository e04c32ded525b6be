package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"medbank/internal/model"
)

// StatsCountsRepo handles MongoDB operations for per-user counters.
type StatsCountsRepo interface {
	// Get returns the user's counts record, or nil when none exists
	// yet (counts are created lazily on first write).
	Get(ctx context.Context, tenantID, userID string) (*model.UserStatsCounts, error)
	// Save upserts the record keyed on (tenant, user).
	Save(ctx context.Context, counts *model.UserStatsCounts) error
}

type statsCountsRepo struct {
	collection *mongo.Collection
}

// NewStatsCountsRepo creates a new stats counts repository.
func NewStatsCountsRepo(db *mongo.Database) StatsCountsRepo {
	return &statsCountsRepo{collection: db.Collection("userStatsCounts")}
}

func (r *statsCountsRepo) Get(ctx context.Context, tenantID, userID string) (*model.UserStatsCounts, error) {
	var counts model.UserStatsCounts
	err := r.collection.FindOne(ctx, bson.M{
		"tenantId": tenantID,
		"userId":   userID,
	}).Decode(&counts)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &counts, nil
}

func (r *statsCountsRepo) Save(ctx context.Context, counts *model.UserStatsCounts) error {
	if counts.ID == "" {
		counts.ID = primitive.NewObjectID().Hex()
	}
	counts.UpdatedAt = time.Now()

	_, err := r.collection.ReplaceOne(ctx,
		bson.M{"tenantId": counts.TenantID, "userId": counts.UserID},
		counts,
		options.Replace().SetUpsert(true),
	)
	return err
}
