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

// BookmarkRepo handles MongoDB operations for user bookmarks.
type BookmarkRepo interface {
	Create(ctx context.Context, b *model.UserBookmark) error
	GetByUserAndQuestion(ctx context.Context, tenantID, userID, questionID string) (*model.UserBookmark, error)
	// DeleteByUserAndQuestion removes the bookmark and returns the
	// deleted document, or nil when none existed.
	DeleteByUserAndQuestion(ctx context.Context, tenantID, userID, questionID string) (*model.UserBookmark, error)
	ListByQuestion(ctx context.Context, questionID string) ([]*model.UserBookmark, error)

	// PageQuestionIDsByUser scans the user's bookmarked questions in
	// _id order.
	PageQuestionIDsByUser(ctx context.Context, tenantID, userID, cursor string, limit int) (*Page, error)

	PatchTaxonomyByQuestion(ctx context.Context, questionID, themeID, subthemeID, groupID string) error
	DeleteByQuestion(ctx context.Context, questionID string) error
}

type bookmarkRepo struct {
	collection *mongo.Collection
}

// NewBookmarkRepo creates a new bookmark repository.
func NewBookmarkRepo(db *mongo.Database) BookmarkRepo {
	return &bookmarkRepo{collection: db.Collection("userBookmarks")}
}

func (r *bookmarkRepo) Create(ctx context.Context, b *model.UserBookmark) error {
	if b.ID == "" {
		b.ID = primitive.NewObjectID().Hex()
	}
	b.CreatedAt = time.Now()

	_, err := r.collection.InsertOne(ctx, b)
	return err
}

func (r *bookmarkRepo) GetByUserAndQuestion(ctx context.Context, tenantID, userID, questionID string) (*model.UserBookmark, error) {
	var b model.UserBookmark
	err := r.collection.FindOne(ctx, bson.M{
		"tenantId":   tenantID,
		"userId":     userID,
		"questionId": questionID,
	}).Decode(&b)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *bookmarkRepo) DeleteByUserAndQuestion(ctx context.Context, tenantID, userID, questionID string) (*model.UserBookmark, error) {
	var b model.UserBookmark
	err := r.collection.FindOneAndDelete(ctx, bson.M{
		"tenantId":   tenantID,
		"userId":     userID,
		"questionId": questionID,
	}).Decode(&b)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *bookmarkRepo) ListByQuestion(ctx context.Context, questionID string) ([]*model.UserBookmark, error) {
	cur, err := r.collection.Find(ctx, bson.M{"questionId": questionID})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var bookmarks []*model.UserBookmark
	if err := cur.All(ctx, &bookmarks); err != nil {
		return nil, err
	}
	return bookmarks, nil
}

func (r *bookmarkRepo) PageQuestionIDsByUser(ctx context.Context, tenantID, userID, cursor string, limit int) (*Page, error) {
	filter := bson.M{
		"tenantId": tenantID,
		"userId":   userID,
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

func (r *bookmarkRepo) PatchTaxonomyByQuestion(ctx context.Context, questionID, themeID, subthemeID, groupID string) error {
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

func (r *bookmarkRepo) DeleteByQuestion(ctx context.Context, questionID string) error {
	_, err := r.collection.DeleteMany(ctx, bson.M{"questionId": questionID})
	return err
}
