package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"medbank/internal/collection"
	"medbank/internal/model"
)

// Page is one bounded slice of an indexed ID scan. ContinueCursor feeds
// the next call; IsDone marks the final page.
type Page struct {
	IDs            []string
	ContinueCursor string
	IsDone         bool
}

// QuestionRepo handles MongoDB operations for questions.
type QuestionRepo interface {
	Create(ctx context.Context, q *model.Question) error
	GetByID(ctx context.Context, id string) (*model.Question, error)
	Update(ctx context.Context, q *model.Question) error
	Delete(ctx context.Context, id string) error

	// PageIDsByNode returns one page of question IDs under a taxonomy
	// node, ordered by _id for resumable iteration.
	PageIDsByNode(ctx context.Context, tenantID, level, nodeID, cursor string, limit int) (*Page, error)
	// IDsByGroups resolves the complement set for sampled collection:
	// every question ID whose group is one of the given groups.
	IDsByGroups(ctx context.Context, tenantID string, groupIDs []string) ([]string, error)
}

type questionRepo struct {
	collection *mongo.Collection
}

// NewQuestionRepo creates a new question repository.
func NewQuestionRepo(db *mongo.Database) QuestionRepo {
	return &questionRepo{collection: db.Collection("questions")}
}

func nodeField(level string) string {
	switch level {
	case collection.LevelGroup:
		return "groupId"
	case collection.LevelSubtheme:
		return "subthemeId"
	default:
		return "themeId"
	}
}

func (r *questionRepo) Create(ctx context.Context, q *model.Question) error {
	if q.ID == "" {
		q.ID = primitive.NewObjectID().Hex()
	}
	q.CreatedAt = time.Now()
	q.UpdatedAt = q.CreatedAt

	_, err := r.collection.InsertOne(ctx, q)
	return err
}

func (r *questionRepo) GetByID(ctx context.Context, id string) (*model.Question, error) {
	var q model.Question
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&q)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &q, nil
}

func (r *questionRepo) Update(ctx context.Context, q *model.Question) error {
	q.UpdatedAt = time.Now()
	_, err := r.collection.ReplaceOne(ctx, bson.M{"_id": q.ID}, q)
	return err
}

func (r *questionRepo) Delete(ctx context.Context, id string) error {
	_, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	return err
}

func (r *questionRepo) PageIDsByNode(ctx context.Context, tenantID, level, nodeID, cursor string, limit int) (*Page, error) {
	filter := bson.M{
		"tenantId":        tenantID,
		nodeField(level): nodeID,
	}
	if cursor != "" {
		filter["_id"] = bson.M{"$gt": cursor}
	}

	opts := options.Find().
		SetSort(bson.M{"_id": 1}).
		SetLimit(int64(limit)).
		SetProjection(bson.M{"_id": 1})

	cur, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var rows []struct {
		ID string `bson:"_id"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return nil, err
	}

	page := &Page{IDs: make([]string, 0, len(rows))}
	for _, row := range rows {
		page.IDs = append(page.IDs, row.ID)
	}
	if len(rows) < limit {
		page.IsDone = true
	} else {
		page.ContinueCursor = rows[len(rows)-1].ID
	}
	return page, nil
}

func (r *questionRepo) IDsByGroups(ctx context.Context, tenantID string, groupIDs []string) ([]string, error) {
	if len(groupIDs) == 0 {
		return nil, nil
	}

	opts := options.Find().SetProjection(bson.M{"_id": 1})
	cur, err := r.collection.Find(ctx, bson.M{
		"tenantId": tenantID,
		"groupId":  bson.M{"$in": groupIDs},
	}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var rows []struct {
		ID string `bson:"_id"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ID)
	}
	return ids, nil
}
