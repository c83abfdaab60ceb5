package service

import (
	"context"
	"log"
	"time"

	"prepdeck/internal/cache"
	"prepdeck/internal/model"
	"prepdeck/internal/repository"

	"github.com/google/uuid"
)

// maxHighlights bounds the session-level strength/improvement lists
const maxHighlights = 6

// ReportService merges heterogeneous per-question results into one
// SessionReport and owns report persistence.
type ReportService struct {
	grader      *Grader
	reportRepo  repository.ReportRepo
	reportCache cache.ReportCache
}

// NewReportService creates a new report service
func NewReportService(grader *Grader, reportRepo repository.ReportRepo, reportCache cache.ReportCache) *ReportService {
	return &ReportService{
		grader:      grader,
		reportRepo:  reportRepo,
		reportCache: reportCache,
	}
}

// AggregateQuiz builds the report for a deterministic quiz session
func (s *ReportService) AggregateQuiz(session *model.Session, results []model.QuizResult, timeSpentSeconds int) *model.SessionReport {
	outcomes := make([]model.QuestionOutcome, 0, len(results))
	for i := range results {
		r := results[i]
		outcomes = append(outcomes, model.QuestionOutcome{
			QuestionID: r.QuestionID,
			Graded:     true,
			Quiz:       &r,
		})
	}

	score, passed := s.grader.QuizScore(session.Questions, results)
	return &model.SessionReport{
		ID:               uuid.New().String(),
		SessionID:        session.ID,
		UserID:           session.UserID,
		Kind:             model.SessionQuiz,
		OverallScore:     score,
		TimeSpentSeconds: timeSpentSeconds,
		Passed:           passed,
		Outcomes:         outcomes,
		CreatedAt:        time.Now(),
	}
}

// AggregateInterview builds the report for an AI-scored interview session.
// Unanswered questions count as zero in the mean; ungraded questions
// (system failures) are excluded from the denominator entirely, so a bad
// generation never masquerades as a zero score. Feedback that fails the
// declared bounds is rejected here as well, never clamped.
func (s *ReportService) AggregateInterview(session *model.Session, outcomes []model.QuestionOutcome, narrative string, timeSpentSeconds int) *model.SessionReport {
	accepted := make([]model.QuestionOutcome, 0, len(outcomes))
	var sum, counted float64
	var strengths, improvements []string

	for _, o := range outcomes {
		if !o.Graded {
			accepted = append(accepted, o)
			continue
		}
		if o.Feedback == nil {
			// Genuinely unanswered: penalizes the mean
			counted++
			accepted = append(accepted, o)
			continue
		}
		if err := o.Feedback.Validate(); err != nil {
			log.Printf("session %s: rejecting feedback for question %s: %v", session.ID, o.QuestionID, err)
			accepted = append(accepted, model.QuestionOutcome{
				QuestionID:    o.QuestionID,
				Graded:        false,
				FailureReason: err.Error(),
			})
			continue
		}
		sum += float64(o.Feedback.Scores.Overall)
		counted++
		strengths = appendUnique(strengths, o.Feedback.Strengths)
		improvements = appendUnique(improvements, o.Feedback.Improvements)
		accepted = append(accepted, o)
	}

	var score float64
	if counted > 0 {
		score = sum / counted
	}

	return &model.SessionReport{
		ID:               uuid.New().String(),
		SessionID:        session.ID,
		UserID:           session.UserID,
		Kind:             model.SessionInterview,
		OverallScore:     score,
		TimeSpentSeconds: timeSpentSeconds,
		Passed:           counted > 0 && score >= s.grader.PassingScore(),
		Outcomes:         accepted,
		Strengths:        capList(strengths, maxHighlights),
		Improvements:     capList(improvements, maxHighlights),
		Narrative:        narrative,
		CreatedAt:        time.Now(),
	}
}

// Persist writes the report to MongoDB and mirrors it into Redis
func (s *ReportService) Persist(ctx context.Context, report *model.SessionReport) error {
	if s.reportRepo != nil {
		if err := s.reportRepo.Save(ctx, report); err != nil {
			return err
		}
	}
	if s.reportCache != nil {
		if err := s.reportCache.Set(ctx, report); err != nil {
			log.Printf("report %s: cache write failed: %v", report.SessionID, err)
		}
	}
	return nil
}

// GetReport reads through the cache to MongoDB
func (s *ReportService) GetReport(ctx context.Context, sessionID string) (*model.SessionReport, error) {
	if s.reportCache != nil {
		if report, err := s.reportCache.Get(ctx, sessionID); err == nil && report != nil {
			return report, nil
		}
	}
	if s.reportRepo == nil {
		return nil, nil
	}
	report, err := s.reportRepo.GetBySessionID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if report != nil && s.reportCache != nil {
		if err := s.reportCache.Set(ctx, report); err != nil {
			log.Printf("report %s: cache fill failed: %v", sessionID, err)
		}
	}
	return report, nil
}

// ListUserReports returns a user's most recent reports
func (s *ReportService) ListUserReports(ctx context.Context, userID string, limit int64) ([]model.SessionReport, error) {
	if s.reportRepo == nil {
		return nil, nil
	}
	return s.reportRepo.ListByUser(ctx, userID, limit)
}

// appendUnique unions items into list, de-duplicated by exact string match
func appendUnique(list []string, items []string) []string {
	for _, item := range items {
		seen := false
		for _, existing := range list {
			if existing == item {
				seen = true
				break
			}
		}
		if !seen {
			list = append(list, item)
		}
	}
	return list
}

func capList(list []string, max int) []string {
	if len(list) > max {
		return list[:max]
	}
	return list
}
