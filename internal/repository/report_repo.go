package repository

import (
	"context"

	"prepdeck/internal/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ReportRepo handles MongoDB persistence for completed session reports
type ReportRepo interface {
	Save(ctx context.Context, report *model.SessionReport) error
	GetBySessionID(ctx context.Context, sessionID string) (*model.SessionReport, error)
	ListByUser(ctx context.Context, userID string, limit int64) ([]model.SessionReport, error)
}

type reportRepo struct {
	reports *mongo.Collection
}

// NewReportRepo creates a new report repository
func NewReportRepo(db *mongo.Database) ReportRepo {
	return &reportRepo{
		reports: db.Collection("session_reports"),
	}
}

func (r *reportRepo) Save(ctx context.Context, report *model.SessionReport) error {
	opts := options.Replace().SetUpsert(true)
	_, err := r.reports.ReplaceOne(ctx, bson.M{"sessionId": report.SessionID}, report, opts)
	return err
}

func (r *reportRepo) GetBySessionID(ctx context.Context, sessionID string) (*model.SessionReport, error) {
	var report model.SessionReport
	err := r.reports.FindOne(ctx, bson.M{"sessionId": sessionID}).Decode(&report)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &report, nil
}

func (r *reportRepo) ListByUser(ctx context.Context, userID string, limit int64) ([]model.SessionReport, error) {
	opts := options.Find().
		SetSort(bson.M{"createdAt": -1}).
		SetLimit(limit)
	cursor, err := r.reports.Find(ctx, bson.M{"userId": userID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var reports []model.SessionReport
	if err = cursor.All(ctx, &reports); err != nil {
		return nil, err
	}
	return reports, nil
}
