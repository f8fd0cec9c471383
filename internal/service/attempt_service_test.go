package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/quizhall/quizhall-backend/internal/model"
	"github.com/quizhall/quizhall-backend/internal/response"
)

// ---- in-memory fakes -------------------------------------------------------

type fakeAttemptStore struct {
	byKey   map[model.AttemptKey]*model.Attempt
	byID    map[uuid.UUID]*model.Attempt
	answers map[uuid.UUID]map[string][]string
	now     func() time.Time
}

func newFakeAttemptStore(now func() time.Time) *fakeAttemptStore {
	return &fakeAttemptStore{
		byKey:   map[model.AttemptKey]*model.Attempt{},
		byID:    map[uuid.UUID]*model.Attempt{},
		answers: map[uuid.UUID]map[string][]string{},
		now:     now,
	}
}

func (f *fakeAttemptStore) Get(_ context.Context, key model.AttemptKey) (*model.Attempt, error) {
	a, ok := f.byKey[key]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *a
	return &cp, nil
}

func (f *fakeAttemptStore) GetByID(_ context.Context, id uuid.UUID) (*model.Attempt, error) {
	a, ok := f.byID[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *a
	return &cp, nil
}

func (f *fakeAttemptStore) FindOrCreate(_ context.Context, key model.AttemptKey) (*model.Attempt, error) {
	if a, ok := f.byKey[key]; ok {
		cp := *a
		return &cp, nil
	}
	a := &model.Attempt{
		ID:        uuid.New(),
		StudentID: key.StudentID,
		ExamID:    key.ExamID,
		TeacherID: key.TeacherID,
		SessionID: key.SessionID,
		Status:    model.AttemptStatusNotStarted,
		CreatedAt: f.now(),
		UpdatedAt: f.now(),
	}
	f.byKey[key] = a
	f.byID[a.ID] = a
	cp := *a
	return &cp, nil
}

func (f *fakeAttemptStore) UpdateStatus(_ context.Context, id uuid.UUID, from []model.AttemptStatus, to model.AttemptStatus) (bool, error) {
	a, ok := f.byID[id]
	if !ok {
		return false, nil
	}
	for _, s := range from {
		if a.Status == s {
			a.Status = to
			a.UpdatedAt = f.now()
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeAttemptStore) ListAnswers(_ context.Context, attemptID uuid.UUID) (map[string][]string, error) {
	answers := map[string][]string{}
	for q, sel := range f.answers[attemptID] {
		answers[q] = sel
	}
	return answers, nil
}

type fakeSessionStore struct {
	sessions map[uuid.UUID]*model.ExamSession
}

func (f *fakeSessionStore) GetByID(_ context.Context, id uuid.UUID) (*model.ExamSession, error) {
	s, ok := f.sessions[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *s
	return &cp, nil
}

type fakeResultStore struct {
	byAttempt map[uuid.UUID]*model.AttemptResult
}

func (f *fakeResultStore) Create(_ context.Context, res *model.AttemptResult) (bool, error) {
	if _, ok := f.byAttempt[res.AttemptID]; ok {
		return false, nil
	}
	res.ID = uuid.New()
	cp := *res
	f.byAttempt[res.AttemptID] = &cp
	return true, nil
}

type fakeExamSource struct {
	paper *model.ExamPaper
	key   map[string][]string
}

func (f *fakeExamSource) GetExamPaper(_ context.Context, _ uuid.UUID) (*model.ExamPaper, error) {
	if f.paper == nil {
		return nil, ErrNoQuestions
	}
	return f.paper, nil
}

func (f *fakeExamSource) GetAnswerKey(_ context.Context, _ uuid.UUID) (map[string][]string, error) {
	return f.key, nil
}

type cacheKey struct {
	sessionID uuid.UUID
	studentID int
}

type fakeAttemptCache struct {
	starts  map[cacheKey]time.Time
	answers map[cacheKey]map[string][]string
}

func newFakeAttemptCache() *fakeAttemptCache {
	return &fakeAttemptCache{
		starts:  map[cacheKey]time.Time{},
		answers: map[cacheKey]map[string][]string{},
	}
}

func (f *fakeAttemptCache) SetStart(_ context.Context, sessionID uuid.UUID, studentID int, startedAt time.Time) error {
	f.starts[cacheKey{sessionID, studentID}] = startedAt
	return nil
}

func (f *fakeAttemptCache) GetStart(_ context.Context, sessionID uuid.UUID, studentID int) (time.Time, bool, error) {
	t, ok := f.starts[cacheKey{sessionID, studentID}]
	return t, ok, nil
}

func (f *fakeAttemptCache) ClearStart(_ context.Context, sessionID uuid.UUID, studentID int) error {
	delete(f.starts, cacheKey{sessionID, studentID})
	return nil
}

func (f *fakeAttemptCache) Answers(_ context.Context, sessionID uuid.UUID, studentID int) (map[string][]string, error) {
	answers := map[string][]string{}
	for q, sel := range f.answers[cacheKey{sessionID, studentID}] {
		answers[q] = sel
	}
	return answers, nil
}

func (f *fakeAttemptCache) ClearAnswers(_ context.Context, sessionID uuid.UUID, studentID int) error {
	delete(f.answers, cacheKey{sessionID, studentID})
	return nil
}

// ---- fixtures --------------------------------------------------------------

const (
	testStudentID = 7
	testTeacherID = 3
)

type fixture struct {
	svc      *AttemptService
	attempts *fakeAttemptStore
	sessions *fakeSessionStore
	results  *fakeResultStore
	cache    *fakeAttemptCache
	session  *model.ExamSession
	now      time.Time
}

// newFixture wires an AttemptService around fakes with a 60-minute exam of
// three questions, scheduled today 10:00-11:00, and the clock at 10:15.
func newFixture(t *testing.T) *fixture {
	t.Helper()

	examID := uuid.New()
	q1 := uuid.New()
	q2 := uuid.New()
	q3 := uuid.New()

	paper := &model.ExamPaper{
		ExamID:   examID,
		Name:     "Algebra Basics",
		Duration: 60,
		Questions: []model.QuestionForStudent{
			{ID: q1, Text: "2+2?", Options: opts("a", "b", "c"), OrderNum: 1},
			{ID: q2, Text: "Pick the primes", Options: opts("a", "b", "c", "d"), OrderNum: 2},
			{ID: q3, Text: "5*5?", Options: opts("a", "b"), OrderNum: 3},
		},
	}
	key := map[string][]string{
		q1.String(): {"b"},
		q2.String(): {"a", "c"},
		q3.String(): {"a"},
	}

	now := time.Date(2024, 3, 18, 10, 15, 0, 0, time.UTC)
	session := &model.ExamSession{
		ID:          uuid.New(),
		TeacherID:   testTeacherID,
		ExamID:      examID,
		SessionDate: time.Date(2024, 3, 18, 0, 0, 0, 0, time.UTC),
		StartAt:     time.Date(2024, 3, 18, 10, 0, 0, 0, time.UTC),
		EndAt:       time.Date(2024, 3, 18, 11, 0, 0, 0, time.UTC),
	}

	f := &fixture{
		sessions: &fakeSessionStore{sessions: map[uuid.UUID]*model.ExamSession{session.ID: session}},
		results:  &fakeResultStore{byAttempt: map[uuid.UUID]*model.AttemptResult{}},
		cache:    newFakeAttemptCache(),
		session:  session,
		now:      now,
	}
	f.attempts = newFakeAttemptStore(func() time.Time { return f.now })

	f.svc = NewAttemptService(f.attempts, f.sessions, f.results,
		&fakeExamSource{paper: paper, key: key}, f.cache, zerolog.Nop())
	f.svc.now = func() time.Time { return f.now }

	return f
}

func opts(ids ...string) []model.AnswerOption {
	options := make([]model.AnswerOption, len(ids))
	for i, id := range ids {
		options[i] = model.AnswerOption{ID: id, Text: "option " + id}
	}
	return options
}

func (f *fixture) questionID(t *testing.T, orderNum int) string {
	t.Helper()
	src := f.svc.exams.(*fakeExamSource)
	for _, q := range src.paper.Questions {
		if q.OrderNum == orderNum {
			return q.ID.String()
		}
	}
	t.Fatalf("no question with order %d", orderNum)
	return ""
}

func mustResolve(t *testing.T, f *fixture) *model.Attempt {
	t.Helper()
	a, rej, err := f.svc.ResolveAttempt(context.Background(), testStudentID, testTeacherID, f.session.ID)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if rej != nil {
		t.Fatalf("resolve rejected: %s %s", rej.Code, rej.Message)
	}
	return a
}

func mustStart(t *testing.T, f *fixture) *StartedAttempt {
	t.Helper()
	started, rej, err := f.svc.StartAttempt(context.Background(), testStudentID, testTeacherID, f.session.ID)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if rej != nil {
		t.Fatalf("start rejected: %s %s", rej.Code, rej.Message)
	}
	return started
}

// ---- tests -----------------------------------------------------------------

func TestResolveAttemptIdempotent(t *testing.T) {
	f := newFixture(t)

	first := mustResolve(t, f)
	if first.Status != model.AttemptStatusNotStarted {
		t.Fatalf("fresh attempt status = %s, want NOT_STARTED", first.Status)
	}

	second := mustResolve(t, f)
	if second.ID != first.ID {
		t.Errorf("second resolve created a new attempt: %s vs %s", second.ID, first.ID)
	}
	if len(f.attempts.byID) != 1 {
		t.Errorf("attempt rows = %d, want 1", len(f.attempts.byID))
	}
}

func TestResolveWindowRejections(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name string
		now  time.Time
		code response.ErrCode
	}{
		{"day before", f.session.StartAt.AddDate(0, 0, -1), response.ErrWrongDate},
		{"day after", f.session.StartAt.AddDate(0, 0, 1), response.ErrWrongDate},
		{"before open", f.session.StartAt.Add(-time.Minute), response.ErrSessionNotStarted},
		{"after close", f.session.EndAt.Add(time.Minute), response.ErrSessionExpired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f.now = tt.now
			_, rej, err := f.svc.ResolveAttempt(context.Background(), testStudentID, testTeacherID, f.session.ID)
			if err != nil {
				t.Fatalf("resolve: %v", err)
			}
			if rej == nil {
				t.Fatal("expected rejection, got success")
			}
			if rej.Code != tt.code {
				t.Errorf("code = %s, want %s", rej.Code, tt.code)
			}
			if len(f.attempts.byID) != 0 {
				t.Errorf("rejected resolve created an attempt record")
			}
		})
	}
}

func TestResolveUnknownSession(t *testing.T) {
	f := newFixture(t)

	_, rej, err := f.svc.ResolveAttempt(context.Background(), testStudentID, testTeacherID, uuid.New())
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if rej == nil || rej.Code != response.ErrNotFound {
		t.Fatalf("rejection = %+v, want NOT_FOUND", rej)
	}
}

func TestStartAttempt(t *testing.T) {
	f := newFixture(t)

	started := mustStart(t, f)

	if started.Attempt.Status != model.AttemptStatusStarted {
		t.Errorf("status = %s, want STARTED", started.Attempt.Status)
	}
	if len(started.Paper.Questions) != 3 {
		t.Errorf("paper questions = %d, want 3", len(started.Paper.Questions))
	}

	// Started at 10:15 with a 60-minute exam, but the window closes 11:00,
	// so the window wins: 45 minutes left.
	if got, want := started.RemainingSeconds, float64(45*60); got != want {
		t.Errorf("remaining = %.0f, want %.0f", got, want)
	}
	if !started.Deadline.Equal(f.session.EndAt) {
		t.Errorf("deadline = %v, want window end %v", started.Deadline, f.session.EndAt)
	}
}

func TestStartAttemptSecondDeviceRejected(t *testing.T) {
	f := newFixture(t)

	started := mustStart(t, f)
	startedAt := f.attempts.byID[started.Attempt.ID].UpdatedAt

	f.now = f.now.Add(5 * time.Minute)
	_, rej, err := f.svc.StartAttempt(context.Background(), testStudentID, testTeacherID, f.session.ID)
	if err != nil {
		t.Fatalf("second start: %v", err)
	}
	if rej == nil || rej.Code != response.ErrAlreadyStarted {
		t.Fatalf("rejection = %+v, want ALREADY_STARTED", rej)
	}

	// The rejected re-entry must not disturb the countdown anchor.
	if !f.attempts.byID[started.Attempt.ID].UpdatedAt.Equal(startedAt) {
		t.Error("rejected start moved the start timestamp")
	}
}

func TestSubmitGradesExactMatch(t *testing.T) {
	f := newFixture(t)
	started := mustStart(t, f)

	f.now = f.now.Add(20 * time.Minute)
	responses := map[string][]string{
		f.questionID(t, 1): {"b"},        // correct
		f.questionID(t, 2): {"c", "a"},   // correct, order ignored
		f.questionID(t, 3): {"a", "b"},   // superset, no partial credit
	}

	res, rej, err := f.svc.SubmitAttempt(context.Background(), testStudentID, testTeacherID, f.session.ID, responses)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if rej != nil {
		t.Fatalf("submit rejected: %s %s", rej.Code, rej.Message)
	}

	if res.Score != 2 || res.Total != 3 {
		t.Errorf("score = %d/%d, want 2/3", res.Score, res.Total)
	}
	if res.Trigger != model.TriggerManual {
		t.Errorf("trigger = %s, want MANUAL", res.Trigger)
	}
	if len(res.Entries) != 3 {
		t.Fatalf("entries = %d, want 3", len(res.Entries))
	}
	for _, e := range res.Entries {
		if e.QuestionText == "" {
			t.Errorf("entry %s lost its question text", e.QuestionID)
		}
		for _, opt := range e.Correct {
			if opt.Text == "" {
				t.Errorf("entry %s lost option content for %s", e.QuestionID, opt.ID)
			}
		}
	}

	if got := f.attempts.byID[started.Attempt.ID].Status; got != model.AttemptStatusCompleted {
		t.Errorf("attempt status = %s, want COMPLETED", got)
	}
}

func TestSubmitTwiceRejected(t *testing.T) {
	f := newFixture(t)
	mustStart(t, f)

	if _, rej, err := f.svc.SubmitAttempt(context.Background(), testStudentID, testTeacherID, f.session.ID, nil); err != nil || rej != nil {
		t.Fatalf("first submit: err=%v rej=%+v", err, rej)
	}

	_, rej, err := f.svc.SubmitAttempt(context.Background(), testStudentID, testTeacherID, f.session.ID, nil)
	if err != nil {
		t.Fatalf("second submit: %v", err)
	}
	if rej == nil || rej.Code != response.ErrAlreadyCompleted {
		t.Fatalf("rejection = %+v, want ALREADY_COMPLETED", rej)
	}
	if len(f.results.byAttempt) != 1 {
		t.Errorf("results = %d, want 1", len(f.results.byAttempt))
	}
}

func TestSubmitWithoutStartRejected(t *testing.T) {
	f := newFixture(t)
	mustResolve(t, f)

	_, rej, err := f.svc.SubmitAttempt(context.Background(), testStudentID, testTeacherID, f.session.ID, nil)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if rej == nil || rej.Code != response.ErrAttemptConflict {
		t.Fatalf("rejection = %+v, want ATTEMPT_CONFLICT", rej)
	}
	if len(f.results.byAttempt) != 0 {
		t.Error("submit without start persisted a result")
	}
}

func TestAutoSubmitUsesAutosavedAnswers(t *testing.T) {
	f := newFixture(t)
	started := mustStart(t, f)

	f.cache.answers[cacheKey{f.session.ID, testStudentID}] = map[string][]string{
		f.questionID(t, 1): {"b"},
		f.questionID(t, 3): {"a"},
	}

	f.now = f.session.EndAt.Add(time.Minute)
	current, _ := f.attempts.GetByID(context.Background(), started.Attempt.ID)
	if err := f.svc.AutoSubmit(context.Background(), current, model.TriggerWindow); err != nil {
		t.Fatalf("auto-submit: %v", err)
	}

	res := f.results.byAttempt[started.Attempt.ID]
	if res == nil {
		t.Fatal("auto-submit persisted no result")
	}
	if res.Score != 2 {
		t.Errorf("score = %d, want 2", res.Score)
	}
	if res.Trigger != model.TriggerWindow {
		t.Errorf("trigger = %s, want WINDOW", res.Trigger)
	}
	if got := f.attempts.byID[started.Attempt.ID].Status; got != model.AttemptStatusCompleted {
		t.Errorf("attempt status = %s, want COMPLETED", got)
	}
}

func TestAutoSubmitAfterManualIsNoop(t *testing.T) {
	f := newFixture(t)
	started := mustStart(t, f)

	res, rej, err := f.svc.SubmitAttempt(context.Background(), testStudentID, testTeacherID, f.session.ID,
		map[string][]string{f.questionID(t, 1): {"b"}})
	if err != nil || rej != nil {
		t.Fatalf("manual submit: err=%v rej=%+v", err, rej)
	}

	current, _ := f.attempts.GetByID(context.Background(), started.Attempt.ID)
	current.Status = model.AttemptStatusStarted // Pretend the sweep read a stale row
	if err := f.svc.AutoSubmit(context.Background(), current, model.TriggerTimer); err != nil {
		t.Fatalf("auto-submit: %v", err)
	}

	stored := f.results.byAttempt[started.Attempt.ID]
	if stored.Trigger != model.TriggerManual || stored.Score != res.Score {
		t.Error("auto-submit overwrote the manual result")
	}
	if len(f.results.byAttempt) != 1 {
		t.Errorf("results = %d, want 1", len(f.results.byAttempt))
	}
}

func TestTeacherBlockAndUnblock(t *testing.T) {
	f := newFixture(t)
	a := mustResolve(t, f)

	blocked, rej, err := f.svc.TeacherSetStatus(context.Background(), testTeacherID, a.ID, model.AttemptStatusBlocked)
	if err != nil || rej != nil {
		t.Fatalf("block: err=%v rej=%+v", err, rej)
	}
	if blocked.Status != model.AttemptStatusBlocked {
		t.Fatalf("status = %s, want BLOCKED", blocked.Status)
	}

	// Blocked student cannot enter.
	_, rej, err = f.svc.StartAttempt(context.Background(), testStudentID, testTeacherID, f.session.ID)
	if err != nil {
		t.Fatalf("start while blocked: %v", err)
	}
	if rej == nil || rej.Code != response.ErrAttemptBlocked {
		t.Fatalf("rejection = %+v, want ATTEMPT_BLOCKED", rej)
	}

	// Re-blocking is an idempotent success.
	if _, rej, err := f.svc.TeacherSetStatus(context.Background(), testTeacherID, a.ID, model.AttemptStatusBlocked); err != nil || rej != nil {
		t.Fatalf("re-block: err=%v rej=%+v", err, rej)
	}

	// Unblock resets to NOT_STARTED, and the student can start again.
	unblocked, rej, err := f.svc.TeacherSetStatus(context.Background(), testTeacherID, a.ID, model.AttemptStatusNotStarted)
	if err != nil || rej != nil {
		t.Fatalf("unblock: err=%v rej=%+v", err, rej)
	}
	if unblocked.Status != model.AttemptStatusNotStarted {
		t.Fatalf("status = %s, want NOT_STARTED", unblocked.Status)
	}
	mustStart(t, f)
}

func TestTeacherCannotTouchCompletedAttempt(t *testing.T) {
	f := newFixture(t)
	started := mustStart(t, f)
	if _, rej, err := f.svc.SubmitAttempt(context.Background(), testStudentID, testTeacherID, f.session.ID, nil); err != nil || rej != nil {
		t.Fatalf("submit: err=%v rej=%+v", err, rej)
	}

	_, rej, err := f.svc.TeacherSetStatus(context.Background(), testTeacherID, started.Attempt.ID, model.AttemptStatusBlocked)
	if err != nil {
		t.Fatalf("block: %v", err)
	}
	if rej == nil || rej.Code != response.ErrAlreadyCompleted {
		t.Fatalf("rejection = %+v, want ALREADY_COMPLETED", rej)
	}
}

func TestTeacherSetStatusOwnership(t *testing.T) {
	f := newFixture(t)
	a := mustResolve(t, f)

	_, rej, err := f.svc.TeacherSetStatus(context.Background(), testTeacherID+1, a.ID, model.AttemptStatusBlocked)
	if err != nil {
		t.Fatalf("block: %v", err)
	}
	if rej == nil || rej.Code != response.ErrNotOwner {
		t.Fatalf("rejection = %+v, want NOT_OWNER", rej)
	}
}

func TestGetStateRecovery(t *testing.T) {
	f := newFixture(t)
	mustStart(t, f)

	f.cache.answers[cacheKey{f.session.ID, testStudentID}] = map[string][]string{
		f.questionID(t, 2): {"a", "c"},
	}

	f.now = f.now.Add(10 * time.Minute)
	state, rej, err := f.svc.GetState(context.Background(), testStudentID, testTeacherID, f.session.ID)
	if err != nil || rej != nil {
		t.Fatalf("state: err=%v rej=%+v", err, rej)
	}

	if state.Status != model.AttemptStatusStarted {
		t.Errorf("status = %s, want STARTED", state.Status)
	}
	// 45 minutes were left at start (window-clamped), 10 have passed.
	if got, want := state.RemainingSeconds, float64(35*60); got != want {
		t.Errorf("remaining = %.0f, want %.0f", got, want)
	}
	if got := state.AutosavedAnswers[f.questionID(t, 2)]; len(got) != 2 {
		t.Errorf("autosaved answers = %v, want the saved pair", got)
	}
}

func TestGetStateFallsBackToDurableAnswers(t *testing.T) {
	f := newFixture(t)
	started := mustStart(t, f)

	// Redis hash is empty; the durable copy has the selections.
	f.attempts.answers[started.Attempt.ID] = map[string][]string{
		f.questionID(t, 1): {"b"},
	}

	state, rej, err := f.svc.GetState(context.Background(), testStudentID, testTeacherID, f.session.ID)
	if err != nil || rej != nil {
		t.Fatalf("state: err=%v rej=%+v", err, rej)
	}
	if got := state.AutosavedAnswers[f.questionID(t, 1)]; len(got) != 1 || got[0] != "b" {
		t.Errorf("autosaved answers = %v, want durable copy", state.AutosavedAnswers)
	}
}
