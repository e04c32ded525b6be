package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"medbank/internal/model"
)

// SessionRepo handles MongoDB operations for quiz sessions.
type SessionRepo interface {
	Create(ctx context.Context, session *model.QuizSession) error
	GetByID(ctx context.Context, id string) (*model.QuizSession, error)
	// GetByQuiz returns the session paired with a quiz, or nil.
	GetByQuiz(ctx context.Context, quizID string) (*model.QuizSession, error)
	Update(ctx context.Context, session *model.QuizSession) error
}

type sessionRepo struct {
	collection *mongo.Collection
}

// NewSessionRepo creates a new quiz session repository.
func NewSessionRepo(db *mongo.Database) SessionRepo {
	return &sessionRepo{collection: db.Collection("quizSessions")}
}

func (r *sessionRepo) Create(ctx context.Context, session *model.QuizSession) error {
	if session.ID == "" {
		session.ID = primitive.NewObjectID().Hex()
	}
	session.CreatedAt = time.Now()
	session.UpdatedAt = session.CreatedAt

	_, err := r.collection.InsertOne(ctx, session)
	return err
}

func (r *sessionRepo) GetByID(ctx context.Context, id string) (*model.QuizSession, error) {
	var session model.QuizSession
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&session)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *sessionRepo) GetByQuiz(ctx context.Context, quizID string) (*model.QuizSession, error) {
	var session model.QuizSession
	err := r.collection.FindOne(ctx, bson.M{"quizId": quizID}).Decode(&session)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *sessionRepo) Update(ctx context.Context, session *model.QuizSession) error {
	session.UpdatedAt = time.Now()
	_, err := r.collection.ReplaceOne(ctx, bson.M{"_id": session.ID}, session)
	return err
}
