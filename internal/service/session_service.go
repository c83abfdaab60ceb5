package service

import (
	"context"
	"log"
	"sync"
	"time"

	"prepdeck/internal/cache"
	"prepdeck/internal/model"

	"github.com/google/uuid"
)

// SessionService owns every live assessment session, addressed by id. Each
// session has exactly one logical writer: the ticker goroutine and HTTP
// handlers all serialize through the session's own mutex, and no state is
// shared across sessions.
type SessionService struct {
	mu       sync.RWMutex
	sessions map[string]*liveSession

	grader    *Grader
	generator *GeneratorService
	reports   *ReportService
	mirror    cache.SessionCache

	broadcaster Broadcaster

	// tickInterval drives the countdown clock. Tests set it to 0 and
	// advance the clock by hand.
	tickInterval time.Duration

	// scoredRetention is how long a scored session stays in the arena so
	// that a duplicate submit still gets a state conflict rather than a
	// not-found. After that, reads come from the Redis mirror and the
	// report store.
	scoredRetention time.Duration
}

// liveSession pairs session state with its clock control
type liveSession struct {
	mu        sync.Mutex
	s         model.Session
	stopClock chan struct{}
	abandoned bool
}

// NewSessionService creates the session engine
func NewSessionService(grader *Grader, generator *GeneratorService, reports *ReportService, mirror cache.SessionCache) *SessionService {
	return &SessionService{
		sessions:        make(map[string]*liveSession),
		grader:          grader,
		generator:       generator,
		reports:         reports,
		mirror:          mirror,
		tickInterval:    time.Second,
		scoredRetention: 5 * time.Minute,
	}
}

// SetBroadcaster injects the WebSocket hub
func (s *SessionService) SetBroadcaster(b Broadcaster) {
	s.broadcaster = b
}

// StartQuiz opens a timed quiz session over the given question set
func (s *SessionService) StartQuiz(ctx context.Context, userID string, questions []model.Question, timeLimitSeconds int) (*model.Session, error) {
	return s.start(ctx, userID, model.SessionQuiz, "", "", questions, timeLimitSeconds)
}

// StartInterview opens a timed mock-interview session
func (s *SessionService) StartInterview(ctx context.Context, userID, role, level string, questions []model.Question, timeLimitSeconds int) (*model.Session, error) {
	return s.start(ctx, userID, model.SessionInterview, role, level, questions, timeLimitSeconds)
}

func (s *SessionService) start(ctx context.Context, userID string, kind model.SessionKind, role, level string, questions []model.Question, timeLimitSeconds int) (*model.Session, error) {
	if len(questions) == 0 {
		return nil, &model.ValidationError{Field: "questions", Reason: "must not be empty"}
	}
	if timeLimitSeconds <= 0 {
		return nil, &model.ValidationError{Field: "timeLimitSeconds", Reason: "must be positive"}
	}

	owned := make([]model.Question, len(questions))
	for i, q := range questions {
		owned[i] = q.Clone()
		if owned[i].ID == "" {
			owned[i].ID = uuid.New().String()
		}
	}

	ls := &liveSession{
		s: model.Session{
			ID:               uuid.New().String(),
			UserID:           userID,
			Kind:             kind,
			Role:             role,
			Level:            level,
			Questions:        owned,
			StartedAt:        time.Now(),
			TimeLimitSeconds: timeLimitSeconds,
			RemainingSeconds: timeLimitSeconds,
			CurrentIndex:     0,
			Answers:          make(map[string]model.AnswerRecord),
			Flagged:          make(map[string]bool),
			Status:           model.StatusInProgress,
		},
		stopClock: make(chan struct{}),
	}

	s.mu.Lock()
	s.sessions[ls.s.ID] = ls
	s.mu.Unlock()

	if s.tickInterval > 0 {
		go s.runClock(ls)
	}

	snap := snapshotSession(&ls.s)
	s.mirrorSession(&snap)
	return &snap, nil
}

// Get returns a point-in-time copy of the session. Sessions evicted from
// the arena after scoring are served read-only from the Redis mirror.
func (s *SessionService) Get(id string) (*model.Session, error) {
	ls, err := s.lookup(id)
	if err != nil {
		if s.mirror != nil {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			if snap, merr := s.mirror.Get(ctx, id); merr == nil && snap != nil {
				return snap, nil
			}
		}
		return nil, err
	}
	ls.mu.Lock()
	defer ls.mu.Unlock()
	snap := snapshotSession(&ls.s)
	return &snap, nil
}

// SetAnswer inserts or overwrites the answer for one question. Only the
// latest value matters.
func (s *SessionService) SetAnswer(id, questionID, value string) error {
	ls, err := s.lookup(id)
	if err != nil {
		return err
	}
	ls.mu.Lock()
	defer ls.mu.Unlock()

	if ls.s.Status.IsTerminal() {
		return &model.SessionStateError{SessionID: id, Status: ls.s.Status, Op: "answer"}
	}
	if _, ok := ls.s.QuestionByID(questionID); !ok {
		return &model.ValidationError{Field: "questionId", Reason: "not part of this session"}
	}

	ls.s.Answers[questionID] = model.AnswerRecord{
		QuestionID:  questionID,
		RawAnswer:   value,
		SubmittedAt: time.Now(),
	}
	snap := snapshotSession(&ls.s)
	s.mirrorSession(&snap)
	return nil
}

// ToggleFlag flips the bookmark on the question at index. Flags never
// influence scoring. Out-of-range indices are no-ops.
func (s *SessionService) ToggleFlag(id string, index int) error {
	ls, err := s.lookup(id)
	if err != nil {
		return err
	}
	ls.mu.Lock()
	defer ls.mu.Unlock()

	if ls.s.Status.IsTerminal() {
		return &model.SessionStateError{SessionID: id, Status: ls.s.Status, Op: "flag"}
	}
	if index < 0 || index >= len(ls.s.Questions) {
		return nil
	}
	qid := ls.s.Questions[index].ID
	if ls.s.Flagged[qid] {
		delete(ls.s.Flagged, qid)
	} else {
		ls.s.Flagged[qid] = true
	}
	snap := snapshotSession(&ls.s)
	s.mirrorSession(&snap)
	return nil
}

// Goto moves the question pointer, clamped to the question range.
// Out-of-range targets are no-ops, not errors.
func (s *SessionService) Goto(id string, index int) error {
	ls, err := s.lookup(id)
	if err != nil {
		return err
	}
	ls.mu.Lock()
	defer ls.mu.Unlock()

	if ls.s.Status.IsTerminal() {
		return &model.SessionStateError{SessionID: id, Status: ls.s.Status, Op: "navigate"}
	}
	if index >= 0 && index < len(ls.s.Questions) {
		ls.s.CurrentIndex = index
	}
	return nil
}

// Next advances the question pointer by one
func (s *SessionService) Next(id string) error {
	ls, err := s.lookup(id)
	if err != nil {
		return err
	}
	ls.mu.Lock()
	target := ls.s.CurrentIndex + 1
	ls.mu.Unlock()
	return s.Goto(id, target)
}

// Previous moves the question pointer back by one
func (s *SessionService) Previous(id string) error {
	ls, err := s.lookup(id)
	if err != nil {
		return err
	}
	ls.mu.Lock()
	target := ls.s.CurrentIndex - 1
	ls.mu.Unlock()
	return s.Goto(id, target)
}

// Submit explicitly ends the session. The answer snapshot is taken
// atomically here; later edits never reach grading. Quiz sessions are
// scored synchronously and return their report; interview scoring runs in
// the background and Submit returns a nil report.
func (s *SessionService) Submit(ctx context.Context, id string) (*model.SessionReport, error) {
	ls, err := s.lookup(id)
	if err != nil {
		return nil, err
	}

	ls.mu.Lock()
	if !ls.s.Status.CanTransition(model.StatusSubmitted) {
		status := ls.s.Status
		ls.mu.Unlock()
		return nil, &model.SessionStateError{SessionID: id, Status: status, Op: "submit"}
	}
	ls.s.Status = model.StatusSubmitted
	snap := snapshotSession(&ls.s)
	close(ls.stopClock)
	ls.mu.Unlock()

	timeSpent := snap.TimeLimitSeconds - snap.RemainingSeconds
	return s.score(ctx, ls, snap, timeSpent)
}

// SubmitQuizBulk is the one-shot quiz submission: bulk-applies answers and
// flags to the live session, then submits. timeSpentSeconds comes from the
// caller's clock and is clamped to the session's limit.
func (s *SessionService) SubmitQuizBulk(ctx context.Context, id string, answers map[string]string, flagged []string, timeSpentSeconds int) (*model.SessionReport, error) {
	ls, err := s.lookup(id)
	if err != nil {
		return nil, err
	}

	ls.mu.Lock()
	if ls.s.Kind != model.SessionQuiz {
		ls.mu.Unlock()
		return nil, &model.ValidationError{Field: "sessionId", Reason: "not a quiz session"}
	}
	if !ls.s.Status.CanTransition(model.StatusSubmitted) {
		status := ls.s.Status
		ls.mu.Unlock()
		return nil, &model.SessionStateError{SessionID: id, Status: status, Op: "submit"}
	}
	for qid := range answers {
		if _, ok := ls.s.QuestionByID(qid); !ok {
			ls.mu.Unlock()
			return nil, &model.ValidationError{Field: "answers", Reason: "unknown question id " + qid}
		}
	}
	now := time.Now()
	for qid, value := range answers {
		ls.s.Answers[qid] = model.AnswerRecord{QuestionID: qid, RawAnswer: value, SubmittedAt: now}
	}
	for _, qid := range flagged {
		if _, ok := ls.s.QuestionByID(qid); ok {
			ls.s.Flagged[qid] = true
		}
	}
	ls.s.Status = model.StatusSubmitted
	snap := snapshotSession(&ls.s)
	close(ls.stopClock)
	ls.mu.Unlock()

	if timeSpentSeconds < 0 {
		timeSpentSeconds = 0
	}
	if timeSpentSeconds > snap.TimeLimitSeconds {
		timeSpentSeconds = snap.TimeLimitSeconds
	}
	return s.score(ctx, ls, snap, timeSpentSeconds)
}

// Abandon drops a live session without producing a report. Any in-flight
// generation result for it is discarded when scoring re-checks the arena.
func (s *SessionService) Abandon(id string) error {
	ls, err := s.lookup(id)
	if err != nil {
		return err
	}

	ls.mu.Lock()
	ls.abandoned = true
	if ls.s.Status == model.StatusInProgress {
		close(ls.stopClock)
	}
	ls.mu.Unlock()

	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()

	if s.mirror != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := s.mirror.Delete(ctx, id); err != nil {
			log.Printf("session %s: mirror delete failed: %v", id, err)
		}
	}
	if s.broadcaster != nil {
		s.broadcaster.DisconnectSession(id)
	}
	return nil
}

func (s *SessionService) lookup(id string) (*liveSession, error) {
	s.mu.RLock()
	ls, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return nil, model.ErrSessionNotFound
	}
	return ls, nil
}

// runClock drives the 1-second countdown until submit, timeout or abandon
func (s *SessionService) runClock(ls *liveSession) {
	ticker := time.NewTicker(s.tickInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.tick(ls)
		case <-ls.stopClock:
			return
		}
	}
}

// tick decrements the countdown. Remaining time is monotonically
// non-increasing and reaches exactly zero before the session flips to
// timed_out; the timeout submit fires exactly once because the status
// transition guards it, so a late tick is a no-op.
func (s *SessionService) tick(ls *liveSession) {
	ls.mu.Lock()
	if ls.s.Status != model.StatusInProgress {
		ls.mu.Unlock()
		return
	}
	if ls.s.RemainingSeconds > 0 {
		ls.s.RemainingSeconds--
	}
	remaining := ls.s.RemainingSeconds
	if remaining > 0 {
		ls.mu.Unlock()
		if s.broadcaster != nil {
			s.broadcaster.PublishToSession(ls.s.ID, EventTick, map[string]int{"remainingSeconds": remaining})
		}
		return
	}

	// Time is up: implicit submit with whatever answers exist right now
	ls.s.Status = model.StatusTimedOut
	snap := snapshotSession(&ls.s)
	close(ls.stopClock)
	ls.mu.Unlock()

	if s.broadcaster != nil {
		s.broadcaster.PublishToSession(snap.ID, EventTimeUp, map[string]int{"remainingSeconds": 0})
	}

	go func() {
		if _, err := s.score(context.Background(), ls, snap, snap.TimeLimitSeconds); err != nil {
			log.Printf("session %s: timeout scoring failed: %v", snap.ID, err)
		}
	}()
}

// score runs the grading pipeline over the submit-time snapshot
func (s *SessionService) score(ctx context.Context, ls *liveSession, snap model.Session, timeSpentSeconds int) (*model.SessionReport, error) {
	if snap.Kind == model.SessionQuiz {
		report := s.reports.AggregateQuiz(&snap, s.gradeQuiz(&snap), timeSpentSeconds)
		if err := s.finalize(ctx, ls, report); err != nil {
			return nil, err
		}
		return report, nil
	}

	// Interview analysis makes one gateway round-trip per answered question;
	// run it off the request path and let the client poll or listen on the
	// event feed.
	if s.broadcaster != nil {
		s.broadcaster.PublishToSession(snap.ID, EventScoring, map[string]string{"status": "scoring"})
	}
	go s.scoreInterview(ls, snap, timeSpentSeconds)
	return nil, nil
}

func (s *SessionService) gradeQuiz(snap *model.Session) []model.QuizResult {
	results := make([]model.QuizResult, 0, len(snap.Questions))
	for _, q := range snap.Questions {
		var rec *model.AnswerRecord
		if r, ok := snap.Answers[q.ID]; ok {
			rec = &r
		}
		results = append(results, s.grader.GradeQuestion(q, rec))
	}
	return results
}

// scoreInterview analyzes each answered question through the gateway. A
// failed call marks only that question as ungraded; it never aborts the
// session.
func (s *SessionService) scoreInterview(ls *liveSession, snap model.Session, timeSpentSeconds int) {
	ctx := context.Background()
	outcomes := make([]model.QuestionOutcome, 0, len(snap.Questions))

	for _, q := range snap.Questions {
		rec, answered := snap.Answers[q.ID]
		if !answered || rec.RawAnswer == "" {
			outcomes = append(outcomes, model.QuestionOutcome{
				QuestionID: q.ID,
				Graded:     true,
				Quiz:       &model.QuizResult{QuestionID: q.ID, Explanation: noAnswerExplanation},
			})
			continue
		}

		feedback, err := s.generator.AnalyzeAnswer(ctx, q, rec.RawAnswer, snap.Role, snap.Level)
		if err != nil {
			log.Printf("session %s: analysis of question %s failed: %v", snap.ID, q.ID, err)
			outcomes = append(outcomes, model.QuestionOutcome{
				QuestionID:    q.ID,
				Graded:        false,
				FailureReason: err.Error(),
			})
			continue
		}
		outcomes = append(outcomes, model.QuestionOutcome{
			QuestionID: q.ID,
			Graded:     true,
			Feedback:   feedback,
		})
	}

	narrative, err := s.generator.SynthesizeSessionFeedback(ctx, &snap, outcomes)
	if err != nil {
		// The narrative is prose; losing it does not invalidate the report
		log.Printf("session %s: narrative synthesis failed: %v", snap.ID, err)
		narrative = ""
	}

	report := s.reports.AggregateInterview(&snap, outcomes, narrative, timeSpentSeconds)
	if err := s.finalize(ctx, ls, report); err != nil {
		log.Printf("session %s: finalize failed: %v", snap.ID, err)
	}
}

// finalize applies a finished report to the session. If the session was
// abandoned while scoring ran, the stale result is discarded, never applied.
func (s *SessionService) finalize(ctx context.Context, ls *liveSession, report *model.SessionReport) error {
	ls.mu.Lock()
	if ls.abandoned {
		ls.mu.Unlock()
		return nil
	}
	if !ls.s.Status.CanTransition(model.StatusScored) {
		status := ls.s.Status
		ls.mu.Unlock()
		return &model.SessionStateError{SessionID: ls.s.ID, Status: status, Op: "score"}
	}
	ls.s.Status = model.StatusScored
	snap := snapshotSession(&ls.s)
	ls.mu.Unlock()

	if err := s.reports.Persist(ctx, report); err != nil {
		return err
	}
	s.mirrorSession(&snap)
	if s.broadcaster != nil {
		s.broadcaster.PublishToSession(snap.ID, EventScored, map[string]string{"sessionId": snap.ID})
	}
	s.evictLater(snap.ID)
	return nil
}

// evictLater drops a scored session from the arena once its retention
// window passes, so a long-running process stays bounded. Later reads go
// through the mirror or the report store.
func (s *SessionService) evictLater(id string) {
	if s.scoredRetention <= 0 {
		s.evict(id)
		return
	}
	time.AfterFunc(s.scoredRetention, func() { s.evict(id) })
}

func (s *SessionService) evict(id string) {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
}

// mirrorSession pushes a best-effort progress copy into Redis
func (s *SessionService) mirrorSession(snap *model.Session) {
	if s.mirror == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.mirror.Set(ctx, snap); err != nil {
		log.Printf("session %s: mirror write failed: %v", snap.ID, err)
	}
}

// snapshotSession deep-copies session state under the caller's lock
func snapshotSession(src *model.Session) model.Session {
	snap := *src
	snap.Questions = make([]model.Question, len(src.Questions))
	for i, q := range src.Questions {
		snap.Questions[i] = q.Clone()
	}
	snap.Answers = make(map[string]model.AnswerRecord, len(src.Answers))
	for k, v := range src.Answers {
		snap.Answers[k] = v
	}
	snap.Flagged = make(map[string]bool, len(src.Flagged))
	for k, v := range src.Flagged {
		snap.Flagged[k] = v
	}
	return snap
}
