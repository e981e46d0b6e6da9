package service

import (
	"sync"
	"testing"
	"time"

	"github.com/openclass/examcore/internal/apperr"
	"github.com/openclass/examcore/internal/dto"
	"github.com/openclass/examcore/internal/model"
)

type testEnv struct {
	exams       *fakeExamRepo
	questions   *fakeQuestionRepo
	attempts    *fakeAttemptRepo
	answers     *fakeAnswerRepo
	enrollments *fakeEnrollmentRepo

	attemptSvc AttemptService
	gradingSvc GradingService
}

func newTestEnv() *testEnv {
	env := &testEnv{
		exams:       newFakeExamRepo(),
		questions:   newFakeQuestionRepo(),
		attempts:    newFakeAttemptRepo(),
		answers:     newFakeAnswerRepo(),
		enrollments: newFakeEnrollmentRepo(),
	}
	evaluator := NewAnswerEvaluator()
	aggregator := NewScoreAggregator(evaluator)
	locks := NewKeyedMutex()
	env.attemptSvc = NewAttemptService(
		env.exams, env.questions, env.attempts, env.answers, env.enrollments,
		evaluator, aggregator, NewVisibilityGate(), locks,
	)
	env.gradingSvc = NewGradingService(
		env.exams, env.questions, env.attempts, env.answers,
		evaluator, aggregator, locks,
	)
	return env
}

// seedExam stores a published exam whose window spans the present, with an
// MCQ (5 pts), a TRUE_FALSE (3 pts) and an OPEN_ENDED question (10 pts), and
// enrolls the given students. Returns the exam with question ids populated.
func (env *testEnv) seedExam(t *testing.T, teacherID uint, maxAttempts int, studentIDs ...uint) *model.Exam {
	t.Helper()
	now := time.Now()
	exam := &model.Exam{
		Title:           "Midterm",
		TeacherID:       teacherID,
		SessionID:       1,
		Status:          model.ExamStatusPublished,
		StartTime:       now.Add(-time.Hour),
		EndTime:         now.Add(time.Hour),
		DurationMinutes: 60,
		MaxAttempts:     maxAttempts,
		Visibility:      model.VisibilityPolicy{ShowScore: true},
		Questions: []model.Question{
			{
				Type: model.QuestionTypeMCQ, Points: 5, Position: 1,
				Options: []model.Option{opt("a", false), opt("b", true), opt("c", false)},
			},
			{Type: model.QuestionTypeTrueFalse, Points: 3, Position: 2, CorrectAnswer: ptrBool(true)},
			{Type: model.QuestionTypeOpenEnded, Points: 10, Position: 3},
		},
	}
	if err := env.exams.Create(exam); err != nil {
		t.Fatalf("seed exam: %v", err)
	}
	for i := range exam.Questions {
		q := exam.Questions[i]
		if err := env.questions.Create(&q); err != nil {
			t.Fatalf("seed question: %v", err)
		}
	}
	for _, id := range studentIDs {
		env.enrollments.enroll(exam.SessionID, id)
	}
	return exam
}

func wantKind(t *testing.T, err error, kind apperr.Kind) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error of kind %v, got nil", kind)
	}
	if got := apperr.KindOf(err); got != kind {
		t.Fatalf("error kind = %v, want %v (err: %v)", got, kind, err)
	}
}

func TestStartPreconditions(t *testing.T) {
	t.Run("unknown exam", func(t *testing.T) {
		env := newTestEnv()
		_, err := env.attemptSvc.Start(1, 99)
		wantKind(t, err, apperr.KindNotFound)
	})

	t.Run("unpublished exam", func(t *testing.T) {
		env := newTestEnv()
		exam := env.seedExam(t, 10, 1, 1)
		exam.Status = model.ExamStatusDraft
		env.exams.Update(exam)
		_, err := env.attemptSvc.Start(1, exam.ID)
		wantKind(t, err, apperr.KindInvalidState)
	})

	t.Run("not enrolled", func(t *testing.T) {
		env := newTestEnv()
		exam := env.seedExam(t, 10, 1) // nobody enrolled
		_, err := env.attemptSvc.Start(1, exam.ID)
		wantKind(t, err, apperr.KindForbidden)
	})

	t.Run("outside window", func(t *testing.T) {
		env := newTestEnv()
		exam := env.seedExam(t, 10, 1, 1)
		exam.StartTime = time.Now().Add(time.Hour)
		exam.EndTime = time.Now().Add(2 * time.Hour)
		env.exams.Update(exam)
		_, err := env.attemptSvc.Start(1, exam.ID)
		wantKind(t, err, apperr.KindInvalidState)
	})

	t.Run("active attempt blocks a second start", func(t *testing.T) {
		env := newTestEnv()
		exam := env.seedExam(t, 10, 3, 1)
		if _, err := env.attemptSvc.Start(1, exam.ID); err != nil {
			t.Fatalf("first Start() failed: %v", err)
		}
		_, err := env.attemptSvc.Start(1, exam.ID)
		wantKind(t, err, apperr.KindConflict)
	})
}

func TestStartMaxAttemptsCountsAllStatuses(t *testing.T) {
	env := newTestEnv()
	exam := env.seedExam(t, 10, 2, 1)

	for i := 0; i < 2; i++ {
		attempt, err := env.attemptSvc.Start(1, exam.ID)
		if err != nil {
			t.Fatalf("Start() #%d failed: %v", i+1, err)
		}
		if _, err := env.attemptSvc.Submit(1, false, attempt.ID); err != nil {
			t.Fatalf("Submit() #%d failed: %v", i+1, err)
		}
	}

	// Submitted attempts still count against the cap.
	_, err := env.attemptSvc.Start(1, exam.ID)
	wantKind(t, err, apperr.KindConflict)
}

func TestStartConcurrentDoubleStart(t *testing.T) {
	env := newTestEnv()
	exam := env.seedExam(t, 10, 1, 1)

	const racers = 8
	var wg sync.WaitGroup
	errs := make([]error, racers)
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = env.attemptSvc.Start(1, exam.ID)
		}(i)
	}
	wg.Wait()

	successes := 0
	for _, err := range errs {
		if err == nil {
			successes++
			continue
		}
		if apperr.KindOf(err) != apperr.KindConflict {
			t.Errorf("racer error kind = %v, want conflict (err: %v)", apperr.KindOf(err), err)
		}
	}
	if successes != 1 {
		t.Fatalf("concurrent Start() successes = %d, want exactly 1", successes)
	}
}

func TestSaveAnswerValidation(t *testing.T) {
	env := newTestEnv()
	exam := env.seedExam(t, 10, 1, 1)
	attempt, err := env.attemptSvc.Start(1, exam.ID)
	if err != nil {
		t.Fatalf("Start() failed: %v", err)
	}
	mcq, tf, open := exam.Questions[0].ID, exam.Questions[1].ID, exam.Questions[2].ID

	tests := []struct {
		name       string
		questionID uint
		req        dto.SaveAnswerRequest
		kind       apperr.Kind
	}{
		{"wrong payload for MCQ", mcq, dto.SaveAnswerRequest{}, apperr.KindValidation},
		{"foreign option id", mcq, dto.SaveAnswerRequest{SelectedOptionID: ptrStr("zz")}, apperr.KindValidation},
		{"missing boolean", tf, dto.SaveAnswerRequest{}, apperr.KindValidation},
		{"malformed boolean", tf, dto.SaveAnswerRequest{BooleanAnswer: "maybe"}, apperr.KindValidation},
		{"missing text", open, dto.SaveAnswerRequest{}, apperr.KindValidation},
		{"unknown question", 9999, dto.SaveAnswerRequest{TextAnswer: ptrStr("x")}, apperr.KindNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.attemptSvc.SaveAnswer(1, attempt.ID, tt.questionID, tt.req)
			wantKind(t, err, tt.kind)
		})
	}

	t.Run("foreign attempt is forbidden", func(t *testing.T) {
		_, err := env.attemptSvc.SaveAnswer(2, attempt.ID, mcq, dto.SaveAnswerRequest{SelectedOptionID: ptrStr("b")})
		wantKind(t, err, apperr.KindForbidden)
	})
}

func TestSaveAnswerOverwrites(t *testing.T) {
	env := newTestEnv()
	exam := env.seedExam(t, 10, 1, 1)
	attempt, err := env.attemptSvc.Start(1, exam.ID)
	if err != nil {
		t.Fatalf("Start() failed: %v", err)
	}
	mcq := exam.Questions[0].ID

	for _, option := range []string{"a", "b"} {
		if _, err := env.attemptSvc.SaveAnswer(1, attempt.ID, mcq, dto.SaveAnswerRequest{SelectedOptionID: ptrStr(option)}); err != nil {
			t.Fatalf("SaveAnswer(%q) failed: %v", option, err)
		}
	}

	saved, err := env.answers.FindByAttemptAndQuestion(attempt.ID, mcq)
	if err != nil || saved == nil {
		t.Fatalf("answer not recorded: %v", err)
	}
	if saved.SelectedOptionID == nil || *saved.SelectedOptionID != "b" {
		t.Errorf("last write should win, got %v", saved.SelectedOptionID)
	}

	all, _ := env.answers.FindByAttemptID(attempt.ID)
	if len(all) != 1 {
		t.Errorf("answer rows = %d, want 1 per (attempt, question)", len(all))
	}
}

func TestSaveAnswerAfterDeadline(t *testing.T) {
	env := newTestEnv()
	exam := env.seedExam(t, 10, 1, 1)
	attempt, err := env.attemptSvc.Start(1, exam.ID)
	if err != nil {
		t.Fatalf("Start() failed: %v", err)
	}

	// Backdate the start so the duration has elapsed.
	stored, _ := env.attempts.FindByID(attempt.ID)
	stored.StartTime = time.Now().Add(-time.Duration(exam.DurationMinutes+1) * time.Minute)
	env.attempts.Update(stored)

	_, err = env.attemptSvc.SaveAnswer(1, attempt.ID, exam.Questions[0].ID, dto.SaveAnswerRequest{SelectedOptionID: ptrStr("b")})
	wantKind(t, err, apperr.KindInvalidState)
}

func TestSubmitScoresAndTransitions(t *testing.T) {
	env := newTestEnv()
	exam := env.seedExam(t, 10, 1, 1)
	attempt, err := env.attemptSvc.Start(1, exam.ID)
	if err != nil {
		t.Fatalf("Start() failed: %v", err)
	}
	mcq, tf, open := exam.Questions[0].ID, exam.Questions[1].ID, exam.Questions[2].ID

	saves := []struct {
		questionID uint
		req        dto.SaveAnswerRequest
	}{
		{mcq, dto.SaveAnswerRequest{SelectedOptionID: ptrStr("b")}},
		{tf, dto.SaveAnswerRequest{BooleanAnswer: true}},
		{open, dto.SaveAnswerRequest{TextAnswer: ptrStr("my essay")}},
	}
	for _, s := range saves {
		if _, err := env.attemptSvc.SaveAnswer(1, attempt.ID, s.questionID, s.req); err != nil {
			t.Fatalf("SaveAnswer(%d) failed: %v", s.questionID, err)
		}
	}

	result, err := env.attemptSvc.Submit(1, false, attempt.ID)
	if err != nil {
		t.Fatalf("Submit() failed: %v", err)
	}
	if result.Status != string(model.AttemptStatusSubmitted) {
		t.Errorf("status = %s, want SUBMITTED", result.Status)
	}
	// MCQ 5 + TF 3; the open-ended 10 awaits a manual grade.
	if result.Score != 8 {
		t.Errorf("provisional score = %d, want 8", result.Score)
	}
	if result.MaxScore != 18 {
		t.Errorf("max score = %d, want 18", result.MaxScore)
	}

	stored, _ := env.attempts.FindByID(attempt.ID)
	if stored.EndTime == nil {
		t.Error("EndTime not recorded on submit")
	}
	if stored.Score == nil || *stored.Score != 8 {
		t.Errorf("persisted score = %v, want 8", stored.Score)
	}

	// Auto-grades are persisted per answer.
	mcqAnswer, _ := env.answers.FindByAttemptAndQuestion(attempt.ID, mcq)
	if mcqAnswer.PointsAwarded == nil || *mcqAnswer.PointsAwarded != 5 {
		t.Errorf("MCQ auto-grade = %v, want 5", mcqAnswer.PointsAwarded)
	}

	// The transition is one-way.
	_, err = env.attemptSvc.Submit(1, false, attempt.ID)
	wantKind(t, err, apperr.KindInvalidState)

	// Answers are frozen after submission.
	_, err = env.attemptSvc.SaveAnswer(1, attempt.ID, mcq, dto.SaveAnswerRequest{SelectedOptionID: ptrStr("a")})
	wantKind(t, err, apperr.KindInvalidState)
}

func TestSubmitConcurrentExactlyOnce(t *testing.T) {
	env := newTestEnv()
	exam := env.seedExam(t, 10, 1, 1)
	attempt, err := env.attemptSvc.Start(1, exam.ID)
	if err != nil {
		t.Fatalf("Start() failed: %v", err)
	}

	const racers = 8
	var wg sync.WaitGroup
	errs := make([]error, racers)
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			// Half the racers act as the system deadline trigger.
			_, errs[i] = env.attemptSvc.Submit(1, i%2 == 0, attempt.ID)
		}(i)
	}
	wg.Wait()

	successes := 0
	for _, err := range errs {
		if err == nil {
			successes++
			continue
		}
		if apperr.KindOf(err) != apperr.KindInvalidState {
			t.Errorf("racer error kind = %v, want invalid state", apperr.KindOf(err))
		}
	}
	if successes != 1 {
		t.Fatalf("concurrent Submit() successes = %d, want exactly 1", successes)
	}
}

func TestSubmitBySystemSkipsOwnership(t *testing.T) {
	env := newTestEnv()
	exam := env.seedExam(t, 10, 1, 1)
	attempt, err := env.attemptSvc.Start(1, exam.ID)
	if err != nil {
		t.Fatalf("Start() failed: %v", err)
	}

	if _, err := env.attemptSvc.Submit(0, true, attempt.ID); err != nil {
		t.Fatalf("system Submit() failed: %v", err)
	}

	stored, _ := env.attempts.FindByID(attempt.ID)
	if stored.Status != model.AttemptStatusSubmitted {
		t.Errorf("status = %s, want SUBMITTED", stored.Status)
	}
}

func TestGetAttemptOwnership(t *testing.T) {
	env := newTestEnv()
	exam := env.seedExam(t, 10, 1, 1)
	attempt, err := env.attemptSvc.Start(1, exam.ID)
	if err != nil {
		t.Fatalf("Start() failed: %v", err)
	}

	if _, err := env.attemptSvc.GetAttempt(1, attempt.ID); err != nil {
		t.Fatalf("owner GetAttempt() failed: %v", err)
	}
	_, err = env.attemptSvc.GetAttempt(2, attempt.ID)
	wantKind(t, err, apperr.KindForbidden)
}

func TestListMyAttemptsHidesScoreWhenPolicyForbids(t *testing.T) {
	env := newTestEnv()
	exam := env.seedExam(t, 10, 1, 1)
	exam.Visibility.ShowScore = false
	env.exams.Update(exam)

	attempt, err := env.attemptSvc.Start(1, exam.ID)
	if err != nil {
		t.Fatalf("Start() failed: %v", err)
	}
	if _, err := env.attemptSvc.Submit(1, false, attempt.ID); err != nil {
		t.Fatalf("Submit() failed: %v", err)
	}

	summaries, err := env.attemptSvc.ListMyAttempts(1, exam.ID)
	if err != nil {
		t.Fatalf("ListMyAttempts() failed: %v", err)
	}
	if len(summaries) != 1 {
		t.Fatalf("summaries = %d, want 1", len(summaries))
	}
	if summaries[0].Score != nil {
		t.Errorf("score exposed despite show_score=false: %v", *summaries[0].Score)
	}
}
