package service

import (
	"testing"
	"time"

	"github.com/openclass/examcore/internal/apperr"
	"github.com/openclass/examcore/internal/dto"
	"github.com/openclass/examcore/internal/model"
)

func newExamEnv() (*testEnv, ExamService) {
	env := newTestEnv()
	svc := NewExamService(env.exams, env.questions, env.attempts, NewVisibilityGate())
	return env, svc
}

func validExamRequest() dto.CreateExamRequest {
	now := time.Now()
	return dto.CreateExamRequest{
		Title:           "Final",
		SessionID:       1,
		StartTime:       now,
		EndTime:         now.Add(2 * time.Hour),
		DurationMinutes: 90,
		MaxAttempts:     1,
		Questions: []dto.CreateQuestionRequest{
			{
				Type: "MCQ", Prompt: "Pick one", Points: 5,
				Options: []dto.CreateOptionRequest{
					{Text: "first"},
					{Text: "second", IsCorrect: true},
				},
			},
			{Type: "TRUE_FALSE", Prompt: "Is it?", Points: 3, CorrectAnswer: ptrBool(false)},
		},
	}
}

func TestCreateExam(t *testing.T) {
	_, svc := newExamEnv()

	resp, err := svc.CreateExam(10, validExamRequest())
	if err != nil {
		t.Fatalf("CreateExam() failed: %v", err)
	}
	if resp.Status != string(model.ExamStatusDraft) {
		t.Errorf("status = %s, want DRAFT", resp.Status)
	}
	if resp.TotalPoints != 8 {
		t.Errorf("TotalPoints = %d, want 8", resp.TotalPoints)
	}
	if len(resp.Questions) != 2 {
		t.Fatalf("questions = %d, want 2", len(resp.Questions))
	}
	for i, q := range resp.Questions {
		if q.Position != i+1 {
			t.Errorf("question %d position = %d, want %d", i, q.Position, i+1)
		}
	}
	for _, o := range resp.Questions[0].Options {
		if o.ID == "" {
			t.Error("option id not minted at creation")
		}
	}
}

func TestQuestionAuthoringRules(t *testing.T) {
	tests := []struct {
		name string
		req  dto.CreateQuestionRequest
	}{
		{"MCQ with one option", dto.CreateQuestionRequest{
			Type: "MCQ", Prompt: "p", Points: 1,
			Options: []dto.CreateOptionRequest{{Text: "only", IsCorrect: true}},
		}},
		{"single-select with two correct options", dto.CreateQuestionRequest{
			Type: "MCQ", Prompt: "p", Points: 1,
			Options: []dto.CreateOptionRequest{{Text: "a", IsCorrect: true}, {Text: "b", IsCorrect: true}},
		}},
		{"single-select with no correct option", dto.CreateQuestionRequest{
			Type: "MCQ", Prompt: "p", Points: 1,
			Options: []dto.CreateOptionRequest{{Text: "a"}, {Text: "b"}},
		}},
		{"multi-select with no correct option", dto.CreateQuestionRequest{
			Type: "MCQ", Prompt: "p", Points: 1, AllowMultiple: true,
			Options: []dto.CreateOptionRequest{{Text: "a"}, {Text: "b"}},
		}},
		{"TRUE_FALSE without correct answer", dto.CreateQuestionRequest{
			Type: "TRUE_FALSE", Prompt: "p", Points: 1,
		}},
		{"OPEN_ENDED with options", dto.CreateQuestionRequest{
			Type: "OPEN_ENDED", Prompt: "p", Points: 1,
			Options: []dto.CreateOptionRequest{{Text: "a"}},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, svc := newExamEnv()
			req := validExamRequest()
			req.Questions = []dto.CreateQuestionRequest{tt.req}
			_, err := svc.CreateExam(10, req)
			wantKind(t, err, apperr.KindValidation)
		})
	}
}

func TestPublishLifecycle(t *testing.T) {
	_, svc := newExamEnv()
	created, err := svc.CreateExam(10, validExamRequest())
	if err != nil {
		t.Fatalf("CreateExam() failed: %v", err)
	}

	t.Run("foreign teacher cannot publish", func(t *testing.T) {
		_, err := svc.Publish(99, created.ID)
		wantKind(t, err, apperr.KindForbidden)
	})

	published, err := svc.Publish(10, created.ID)
	if err != nil {
		t.Fatalf("Publish() failed: %v", err)
	}
	if published.Status != string(model.ExamStatusPublished) {
		t.Errorf("status = %s, want PUBLISHED", published.Status)
	}

	t.Run("publish is not repeatable", func(t *testing.T) {
		_, err := svc.Publish(10, created.ID)
		wantKind(t, err, apperr.KindInvalidState)
	})

	t.Run("questions are frozen after publish", func(t *testing.T) {
		_, err := svc.AddQuestion(10, created.ID, dto.CreateQuestionRequest{
			Type: "OPEN_ENDED", Prompt: "late addition", Points: 5,
		})
		wantKind(t, err, apperr.KindInvalidState)

		err = svc.RemoveQuestion(10, created.ID, created.Questions[0].ID)
		wantKind(t, err, apperr.KindInvalidState)
	})

	t.Run("published exams archive", func(t *testing.T) {
		archived, err := svc.Archive(10, created.ID)
		if err != nil {
			t.Fatalf("Archive() failed: %v", err)
		}
		if archived.Status != string(model.ExamStatusArchived) {
			t.Errorf("status = %s, want ARCHIVED", archived.Status)
		}
	})
}

func TestPublishRequiresQuestions(t *testing.T) {
	_, svc := newExamEnv()
	req := validExamRequest()
	req.Questions = nil
	created, err := svc.CreateExam(10, req)
	if err != nil {
		t.Fatalf("CreateExam() failed: %v", err)
	}
	_, err = svc.Publish(10, created.ID)
	wantKind(t, err, apperr.KindValidation)
}

func TestDeleteExam(t *testing.T) {
	env, svc := newExamEnv()
	created, err := svc.CreateExam(10, validExamRequest())
	if err != nil {
		t.Fatalf("CreateExam() failed: %v", err)
	}

	t.Run("drafts with attempts are protected", func(t *testing.T) {
		env.attempts.Create(&model.Attempt{ExamID: created.ID, StudentID: 1, Status: model.AttemptStatusSubmitted})
		err := svc.DeleteExam(10, created.ID)
		wantKind(t, err, apperr.KindConflict)
	})

	t.Run("untouched drafts delete", func(t *testing.T) {
		fresh, err := svc.CreateExam(10, validExamRequest())
		if err != nil {
			t.Fatalf("CreateExam() failed: %v", err)
		}
		if err := svc.DeleteExam(10, fresh.ID); err != nil {
			t.Fatalf("DeleteExam() failed: %v", err)
		}
		if _, err := svc.GetTeacherExam(10, fresh.ID); apperr.KindOf(err) != apperr.KindNotFound {
			t.Errorf("deleted exam still readable (err: %v)", err)
		}
	})

	t.Run("published exams cannot be deleted", func(t *testing.T) {
		p, err := svc.CreateExam(10, validExamRequest())
		if err != nil {
			t.Fatalf("CreateExam() failed: %v", err)
		}
		if _, err := svc.Publish(10, p.ID); err != nil {
			t.Fatalf("Publish() failed: %v", err)
		}
		err = svc.DeleteExam(10, p.ID)
		wantKind(t, err, apperr.KindInvalidState)
	})
}

func TestStudentExamVisibility(t *testing.T) {
	_, svc := newExamEnv()
	created, err := svc.CreateExam(10, validExamRequest())
	if err != nil {
		t.Fatalf("CreateExam() failed: %v", err)
	}

	t.Run("drafts are invisible to students", func(t *testing.T) {
		_, err := svc.GetStudentExam(created.ID)
		wantKind(t, err, apperr.KindNotFound)
	})

	if _, err := svc.Publish(10, created.ID); err != nil {
		t.Fatalf("Publish() failed: %v", err)
	}

	t.Run("published view strips correctness", func(t *testing.T) {
		view, err := svc.GetStudentExam(created.ID)
		if err != nil {
			t.Fatalf("GetStudentExam() failed: %v", err)
		}
		if view.TotalPoints != 8 {
			t.Errorf("TotalPoints = %d, want 8", view.TotalPoints)
		}
		if len(view.Questions) != 2 {
			t.Fatalf("questions = %d, want 2", len(view.Questions))
		}
	})

	t.Run("catalog lists only published exams", func(t *testing.T) {
		if _, err := svc.CreateExam(10, validExamRequest()); err != nil {
			t.Fatalf("CreateExam() failed: %v", err)
		}
		listed, err := svc.ListPublished()
		if err != nil {
			t.Fatalf("ListPublished() failed: %v", err)
		}
		if len(listed) != 1 {
			t.Errorf("published exams = %d, want 1", len(listed))
		}
	})
}
