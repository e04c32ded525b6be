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

// JobRepo handles MongoDB operations for quiz creation jobs. Jobs are
// never deleted; they are the client-visible history of workflow runs.
type JobRepo interface {
	Create(ctx context.Context, job *model.QuizCreationJob) error
	Get(ctx context.Context, id string) (*model.QuizCreationJob, error)
	Update(ctx context.Context, job *model.QuizCreationJob) error
	// LatestByUser returns the user's most recent job, or nil.
	LatestByUser(ctx context.Context, tenantID, userID string) (*model.QuizCreationJob, error)
	// ListUnfinished returns IDs of jobs left in a non-terminal state,
	// used by the worker to resume after a restart.
	ListUnfinished(ctx context.Context) ([]string, error)
}

type jobRepo struct {
	collection *mongo.Collection
}

// NewJobRepo creates a new job repository.
func NewJobRepo(db *mongo.Database) JobRepo {
	return &jobRepo{collection: db.Collection("quizCreationJobs")}
}

func (r *jobRepo) Create(ctx context.Context, job *model.QuizCreationJob) error {
	if job.ID == "" {
		job.ID = primitive.NewObjectID().Hex()
	}
	job.CreatedAt = time.Now()
	job.UpdatedAt = job.CreatedAt

	_, err := r.collection.InsertOne(ctx, job)
	return err
}

func (r *jobRepo) Get(ctx context.Context, id string) (*model.QuizCreationJob, error) {
	var job model.QuizCreationJob
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&job)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &job, nil
}

func (r *jobRepo) Update(ctx context.Context, job *model.QuizCreationJob) error {
	job.UpdatedAt = time.Now()
	_, err := r.collection.ReplaceOne(ctx, bson.M{"_id": job.ID}, job)
	return err
}

func (r *jobRepo) LatestByUser(ctx context.Context, tenantID, userID string) (*model.QuizCreationJob, error) {
	var job model.QuizCreationJob
	err := r.collection.FindOne(ctx,
		bson.M{"tenantId": tenantID, "userId": userID},
		options.FindOne().SetSort(bson.M{"createdAt": -1}),
	).Decode(&job)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &job, nil
}

func (r *jobRepo) ListUnfinished(ctx context.Context) ([]string, error) {
	cur, err := r.collection.Find(ctx,
		bson.M{"status": bson.M{"$nin": []model.JobStatus{model.JobCompleted, model.JobFailed}}},
		options.Find().SetProjection(bson.M{"_id": 1}),
	)
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
