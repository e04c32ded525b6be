package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"medbank/internal/model"
)

// QuizRepo handles MongoDB operations for custom quizzes.
type QuizRepo interface {
	Create(ctx context.Context, quiz *model.CustomQuiz) error
	GetByID(ctx context.Context, id string) (*model.CustomQuiz, error)
	// GetByJobID finds the quiz a job already materialized, if any.
	// This is the idempotency anchor of the final workflow step.
	GetByJobID(ctx context.Context, jobID string) (*model.CustomQuiz, error)
	// PullQuestion removes a deleted question from every quiz's list.
	PullQuestion(ctx context.Context, questionID string) error
}

type quizRepo struct {
	collection *mongo.Collection
}

// NewQuizRepo creates a new quiz repository.
func NewQuizRepo(db *mongo.Database) QuizRepo {
	return &quizRepo{collection: db.Collection("customQuizzes")}
}

func (r *quizRepo) Create(ctx context.Context, quiz *model.CustomQuiz) error {
	if quiz.ID == "" {
		quiz.ID = primitive.NewObjectID().Hex()
	}
	quiz.CreatedAt = time.Now()

	_, err := r.collection.InsertOne(ctx, quiz)
	return err
}

func (r *quizRepo) GetByID(ctx context.Context, id string) (*model.CustomQuiz, error) {
	var quiz model.CustomQuiz
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&quiz)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &quiz, nil
}

func (r *quizRepo) GetByJobID(ctx context.Context, jobID string) (*model.CustomQuiz, error) {
	var quiz model.CustomQuiz
	err := r.collection.FindOne(ctx, bson.M{"jobId": jobID}).Decode(&quiz)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &quiz, nil
}

func (r *quizRepo) PullQuestion(ctx context.Context, questionID string) error {
	_, err := r.collection.UpdateMany(ctx,
		bson.M{"questionIds": questionID},
		bson.M{"$pull": bson.M{"questionIds": questionID}},
	)
	return err
}
