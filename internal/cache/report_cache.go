package cache

import (
	"context"
	"encoding/json"
	"time"

	"prepdeck/internal/model"

	"github.com/redis/go-redis/v9"
)

const reportTTL = 24 * time.Hour

// ReportCache caches completed session reports in front of MongoDB
type ReportCache interface {
	Set(ctx context.Context, report *model.SessionReport) error
	Get(ctx context.Context, sessionID string) (*model.SessionReport, error)
}

type reportCache struct {
	client *redis.Client
}

// NewReportCache creates a new report cache
func NewReportCache(client *redis.Client) ReportCache {
	return &reportCache{
		client: client,
	}
}

func (c *reportCache) Set(ctx context.Context, report *model.SessionReport) error {
	data, err := json.Marshal(report)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, "report:"+report.SessionID, data, reportTTL).Err()
}

func (c *reportCache) Get(ctx context.Context, sessionID string) (*model.SessionReport, error) {
	data, err := c.client.Get(ctx, "report:"+sessionID).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var report model.SessionReport
	if err := json.Unmarshal([]byte(data), &report); err != nil {
		return nil, err
	}
	return &report, nil
}
