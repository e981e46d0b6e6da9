package service

import (
	"sync"

	"github.com/openclass/examcore/internal/model"
	"github.com/openclass/examcore/internal/repository"
	"gorm.io/gorm"
)

// In-memory repository fakes. They mirror the persistence contracts closely
// enough for service tests: auto-assigned ids, copy-on-return, and the same
// nil, nil convention for absent-row lookups.

type fakeExamRepo struct {
	mu    sync.Mutex
	seq   uint
	exams map[uint]model.Exam
}

func newFakeExamRepo() *fakeExamRepo {
	return &fakeExamRepo{exams: map[uint]model.Exam{}}
}

func (r *fakeExamRepo) Create(exam *model.Exam) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	exam.ID = r.seq
	for i := range exam.Questions {
		q := &exam.Questions[i]
		if q.ID == 0 {
			q.ID = exam.ID*100 + uint(i) + 1
		}
		q.ExamID = exam.ID
		for j := range q.Options {
			q.Options[j].QuestionID = q.ID
		}
	}
	r.exams[exam.ID] = *exam
	return nil
}

func (r *fakeExamRepo) Update(exam *model.Exam) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.exams[exam.ID] = *exam
	return nil
}

func (r *fakeExamRepo) Delete(id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.exams, id)
	return nil
}

func (r *fakeExamRepo) FindByID(id uint) (*model.Exam, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	exam, ok := r.exams[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &exam, nil
}

func (r *fakeExamRepo) FindByIDWithQuestions(id uint) (*model.Exam, error) {
	return r.FindByID(id)
}

func (r *fakeExamRepo) FindAllByStatus(status model.ExamStatus) ([]model.Exam, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Exam
	for _, e := range r.exams {
		if e.Status == status {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *fakeExamRepo) FindAllByTeacher(teacherID uint) ([]model.Exam, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Exam
	for _, e := range r.exams {
		if e.TeacherID == teacherID {
			out = append(out, e)
		}
	}
	return out, nil
}

type fakeQuestionRepo struct {
	mu        sync.Mutex
	seq       uint
	questions map[uint]model.Question
}

func newFakeQuestionRepo() *fakeQuestionRepo {
	return &fakeQuestionRepo{questions: map[uint]model.Question{}}
}

func (r *fakeQuestionRepo) Create(question *model.Question) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if question.ID == 0 {
		r.seq++
		question.ID = 1000 + r.seq
	}
	for i := range question.Options {
		question.Options[i].QuestionID = question.ID
	}
	r.questions[question.ID] = *question
	return nil
}

func (r *fakeQuestionRepo) FindByID(id uint) (*model.Question, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	question, ok := r.questions[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &question, nil
}

func (r *fakeQuestionRepo) FindByExamID(examID uint) ([]model.Question, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Question
	for _, q := range r.questions {
		if q.ExamID == examID {
			out = append(out, q)
		}
	}
	return out, nil
}

func (r *fakeQuestionRepo) Delete(id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.questions, id)
	return nil
}

type fakeAttemptRepo struct {
	mu       sync.Mutex
	seq      uint
	attempts map[uint]model.Attempt
}

func newFakeAttemptRepo() *fakeAttemptRepo {
	return &fakeAttemptRepo{attempts: map[uint]model.Attempt{}}
}

func (r *fakeAttemptRepo) Create(attempt *model.Attempt) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	attempt.ID = r.seq
	r.attempts[attempt.ID] = *attempt
	return nil
}

func (r *fakeAttemptRepo) Update(attempt *model.Attempt) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.attempts[attempt.ID] = *attempt
	return nil
}

func (r *fakeAttemptRepo) FindByID(id uint) (*model.Attempt, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	attempt, ok := r.attempts[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &attempt, nil
}

func (r *fakeAttemptRepo) FindByIDWithAnswers(id uint) (*model.Attempt, error) {
	return r.FindByID(id)
}

func (r *fakeAttemptRepo) CountByStudentAndExam(studentID, examID uint) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var count int64
	for _, a := range r.attempts {
		if a.StudentID == studentID && a.ExamID == examID {
			count++
		}
	}
	return count, nil
}

func (r *fakeAttemptRepo) FindActiveByStudentAndExam(studentID, examID uint) (*model.Attempt, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.attempts {
		if a.StudentID == studentID && a.ExamID == examID && a.Status == model.AttemptStatusInProgress {
			attempt := a
			return &attempt, nil
		}
	}
	return nil, nil
}

func (r *fakeAttemptRepo) FindAllByStudentAndExam(studentID, examID uint) ([]model.Attempt, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Attempt
	for _, a := range r.attempts {
		if a.StudentID == studentID && a.ExamID == examID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *fakeAttemptRepo) FindAllByExam(examID uint) ([]model.Attempt, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Attempt
	for _, a := range r.attempts {
		if a.ExamID == examID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *fakeAttemptRepo) CountByExam(examID uint) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var count int64
	for _, a := range r.attempts {
		if a.ExamID == examID {
			count++
		}
	}
	return count, nil
}

type answerKey struct {
	attemptID  uint
	questionID uint
}

type fakeAnswerRepo struct {
	mu      sync.Mutex
	seq     uint
	answers map[answerKey]model.Answer
}

func newFakeAnswerRepo() *fakeAnswerRepo {
	return &fakeAnswerRepo{answers: map[answerKey]model.Answer{}}
}

func (r *fakeAnswerRepo) Upsert(answer *model.Answer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := answerKey{answer.AttemptID, answer.QuestionID}
	if existing, ok := r.answers[key]; ok {
		answer.ID = existing.ID
	} else {
		r.seq++
		answer.ID = r.seq
	}
	r.answers[key] = *answer
	return nil
}

func (r *fakeAnswerRepo) Update(answer *model.Answer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if answer.ID == 0 {
		r.seq++
		answer.ID = r.seq
	}
	r.answers[answerKey{answer.AttemptID, answer.QuestionID}] = *answer
	return nil
}

func (r *fakeAnswerRepo) FindByAttemptID(attemptID uint) ([]model.Answer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Answer
	for key, a := range r.answers {
		if key.attemptID == attemptID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *fakeAnswerRepo) FindByAttemptAndQuestion(attemptID, questionID uint) (*model.Answer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	answer, ok := r.answers[answerKey{attemptID, questionID}]
	if !ok {
		return nil, nil
	}
	return &answer, nil
}

type fakeEnrollmentRepo struct {
	mu      sync.Mutex
	entries map[[2]uint]bool
}

func newFakeEnrollmentRepo() *fakeEnrollmentRepo {
	return &fakeEnrollmentRepo{entries: map[[2]uint]bool{}}
}

func (r *fakeEnrollmentRepo) enroll(sessionID, studentID uint) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[[2]uint{sessionID, studentID}] = true
}

func (r *fakeEnrollmentRepo) IsEnrolled(sessionID, studentID uint) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.entries[[2]uint{sessionID, studentID}], nil
}

// Interface conformance.
var (
	_ repository.ExamRepository       = (*fakeExamRepo)(nil)
	_ repository.QuestionRepository   = (*fakeQuestionRepo)(nil)
	_ repository.AttemptRepository    = (*fakeAttemptRepo)(nil)
	_ repository.AnswerRepository     = (*fakeAnswerRepo)(nil)
	_ repository.EnrollmentRepository = (*fakeEnrollmentRepo)(nil)
)

func ptrStr(s string) *string { return &s }
func ptrInt(n int) *int       { return &n }
func ptrBool(b bool) *bool    { return &b }
