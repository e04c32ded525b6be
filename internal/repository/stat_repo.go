package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"medbank/internal/model"
)

// StatRepo handles MongoDB operations for per-user question stats.
type StatRepo interface {
	// Upsert writes the stat keyed on (tenant, user, question); a
	// repeated answer overwrites the previous record (last write wins).
	Upsert(ctx context.Context, stat *model.UserQuestionStat) error
	GetByUserAndQuestion(ctx context.Context, tenantID, userID, questionID string) (*model.UserQuestionStat, error)
	ListByQuestion(ctx context.Context, questionID string) ([]*model.UserQuestionStat, error)

	// PageQuestionIDsByUser scans the user's answered questions in _id
	// order; incorrectOnly narrows to isIncorrect records.
	PageQuestionIDsByUser(ctx context.Context, tenantID, userID, cursor string, limit int, incorrectOnly bool) (*Page, error)

	// PatchTaxonomyByQuestion rewrites the denormalized taxonomy copy
	// on every stat row for the question.
	PatchTaxonomyByQuestion(ctx context.Context, questionID, themeID, subthemeID, groupID string) error
	DeleteByQuestion(ctx context.Context, questionID string) error
}

type statRepo struct {
	collection *mongo.Collection
}

// NewStatRepo creates a new user-question-stat repository.
func NewStatRepo(db *mongo.Database) StatRepo {
	return &statRepo{collection: db.Collection("userQuestionStats")}
}

func (r *statRepo) Upsert(ctx context.Context, stat *model.UserQuestionStat) error {
	if stat.ID == "" {
		stat.ID = primitive.NewObjectID().Hex()
	}

	filter := bson.M{
		"tenantId":   stat.TenantID,
		"userId":     stat.UserID,
		"questionId": stat.QuestionID,
	}

	// Keep the existing _id when a record is already present, otherwise
	// ReplaceOne would attempt an immutable-field change.
	var existing model.UserQuestionStat
	err := r.collection.FindOne(ctx, filter).Decode(&existing)
	if err == nil {
		stat.ID = existing.ID
	} else if err != mongo.ErrNoDocuments {
		return err
	}

	_, err = r.collection.ReplaceOne(ctx, filter, stat, options.Replace().SetUpsert(true))
	return err
}

func (r *statRepo) GetByUserAndQuestion(ctx context.Context, tenantID, userID, questionID string) (*model.UserQuestionStat, error) {
	var stat model.UserQuestionStat
	err := r.collection.FindOne(ctx, bson.M{
		"tenantId":   tenantID,
		"userId":     userID,
		"questionId": questionID,
	}).Decode(&stat)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &stat, nil
}

func (r *statRepo) ListByQuestion(ctx context.Context, questionID string) ([]*model.UserQuestionStat, error) {
	cur, err := r.collection.Find(ctx, bson.M{"questionId": questionID})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var stats []*model.UserQuestionStat
	if err := cur.All(ctx, &stats); err != nil {
		return nil, err
	}
	return stats, nil
}

func (r *statRepo) PageQuestionIDsByUser(ctx context.Context, tenantID, userID, cursor string, limit int, incorrectOnly bool) (*Page, error) {
	filter := bson.M{
		"tenantId":    tenantID,
		"userId":      userID,
		"hasAnswered": true,
	}
	if incorrectOnly {
		filter["isIncorrect"] = true
	}
	if cursor != "" {
		filter["_id"] = bson.M{"$gt": cursor}
	}

	opts := options.Find().
		SetSort(bson.M{"_id": 1}).
		SetLimit(int64(limit)).
		SetProjection(bson.M{"_id": 1, "questionId": 1})

	cur, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var rows []struct {
		ID         string `bson:"_id"`
		QuestionID string `bson:"questionId"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return nil, err
	}

	page := &Page{IDs: make([]string, 0, len(rows))}
	for _, row := range rows {
		page.IDs = append(page.IDs, row.QuestionID)
	}
	if len(rows) < limit {
		page.IsDone = true
	} else {
		page.ContinueCursor = rows[len(rows)-1].ID
	}
	return page, nil
}

func (r *statRepo) PatchTaxonomyByQuestion(ctx context.Context, questionID, themeID, subthemeID, groupID string) error {
	_, err := r.collection.UpdateMany(ctx,
		bson.M{"questionId": questionID},
		bson.M{"$set": bson.M{
			"themeId":    themeID,
			"subthemeId": subthemeID,
			"groupId":    groupID,
		}},
	)
	return err
}

func (r *statRepo) DeleteByQuestion(ctx context.Context, questionID string) error {
	_, err := r.collection.DeleteMany(ctx, bson.M{"questionId": questionID})
	return err
}
