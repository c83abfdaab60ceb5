package repository

import (
	"context"

	"prepdeck/internal/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// QuestionRepo handles MongoDB operations for the quiz question bank
type QuestionRepo interface {
	Create(ctx context.Context, question *model.Question) error
	GetByID(ctx context.Context, id string) (*model.Question, error)
	GetByKind(ctx context.Context, kind model.QuestionKind) ([]model.Question, error)
	Sample(ctx context.Context, kinds []model.QuestionKind, count int) ([]model.Question, error)
	GetAll(ctx context.Context) ([]model.Question, error)
}

type questionRepo struct {
	collection *mongo.Collection
}

// NewQuestionRepo creates a new question repository
func NewQuestionRepo(db *mongo.Database) QuestionRepo {
	return &questionRepo{
		collection: db.Collection("questions"),
	}
}

func (r *questionRepo) Create(ctx context.Context, question *model.Question) error {
	if question.ID == "" {
		question.ID = primitive.NewObjectID().Hex()
	}
	_, err := r.collection.InsertOne(ctx, question)
	return err
}

func (r *questionRepo) GetByID(ctx context.Context, id string) (*model.Question, error) {
	var question model.Question
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&question)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &question, nil
}

func (r *questionRepo) GetByKind(ctx context.Context, kind model.QuestionKind) ([]model.Question, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"kind": kind})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var questions []model.Question
	if err = cursor.All(ctx, &questions); err != nil {
		return nil, err
	}
	return questions, nil
}

// Sample draws count random questions restricted to the given kinds
func (r *questionRepo) Sample(ctx context.Context, kinds []model.QuestionKind, count int) ([]model.Question, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"kind": bson.M{"$in": kinds}}}},
		{{Key: "$sample", Value: bson.M{"size": count}}},
	}
	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var questions []model.Question
	if err = cursor.All(ctx, &questions); err != nil {
		return nil, err
	}
	return questions, nil
}

func (r *questionRepo) GetAll(ctx context.Context) ([]model.Question, error) {
	cursor, err := r.collection.Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var questions []model.Question
	if err = cursor.All(ctx, &questions); err != nil {
		return nil, err
	}
	return questions, nil
}
