package service

import (
	"strings"

	"github.com/openclass/examcore/internal/model"
)

// Outcome is the result of evaluating one answer. Ungraded marks question
// types that require a human grade; for those Points is meaningless.
type Outcome struct {
	Points   int
	Ungraded bool
}

// AnswerEvaluator maps a (question, answer) pair to an awarded-points outcome.
// It is deterministic and side-effect free, so it is safe to call both at
// submission and again during manual-grade recomputation.
type AnswerEvaluator interface {
	Evaluate(question *model.Question, answer *model.Answer) Outcome
}

type answerEvaluator struct{}

func NewAnswerEvaluator() AnswerEvaluator {
	return &answerEvaluator{}
}

func (e *answerEvaluator) Evaluate(question *model.Question, answer *model.Answer) Outcome {
	switch question.Type {
	case model.QuestionTypeOpenEnded:
		// Never auto-assumed 0; a teacher must award points explicitly.
		return Outcome{Ungraded: true}
	case model.QuestionTypeMCQ:
		if question.AllowMultiple {
			return e.evaluateMultiSelect(question, answer)
		}
		return e.evaluateSingleSelect(question, answer)
	case model.QuestionTypeTrueFalse:
		return e.evaluateTrueFalse(question, answer)
	default:
		// Unknown types degrade to 0 rather than blocking finalization.
		return Outcome{}
	}
}

func (e *answerEvaluator) evaluateSingleSelect(question *model.Question, answer *model.Answer) Outcome {
	if answer == nil || answer.SelectedOptionID == nil {
		return Outcome{}
	}
	correct := question.CorrectOptionIDs()
	if len(correct) == 1 && *answer.SelectedOptionID == correct[0] {
		return Outcome{Points: question.Points}
	}
	return Outcome{}
}

// Multi-select is all-or-nothing: full points iff the selected set equals the
// correct set exactly, 0 for any subset, superset or disjoint selection.
func (e *answerEvaluator) evaluateMultiSelect(question *model.Question, answer *model.Answer) Outcome {
	correct := toSet(question.CorrectOptionIDs())
	if len(correct) == 0 {
		return Outcome{}
	}
	selected := selectedSet(answer)
	if setsEqual(selected, correct) {
		return Outcome{Points: question.Points}
	}
	return Outcome{}
}

func (e *answerEvaluator) evaluateTrueFalse(question *model.Question, answer *model.Answer) Outcome {
	if question.CorrectAnswer == nil || answer == nil || answer.BooleanAnswer == nil {
		return Outcome{}
	}
	submitted, ok := ParseBool(*answer.BooleanAnswer)
	if !ok {
		// Malformed answers award 0, never error.
		return Outcome{}
	}
	if submitted == *question.CorrectAnswer {
		return Outcome{Points: question.Points}
	}
	return Outcome{}
}

// ParseBool normalizes textual true/false variants case-insensitively.
func ParseBool(s string) (value bool, ok bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true":
		return true, true
	case "false":
		return false, true
	default:
		return false, false
	}
}

// selectedSet collects the multi-select ids, falling back to a singleton set
// from the single-select field when only that is present.
func selectedSet(answer *model.Answer) map[string]struct{} {
	if answer == nil {
		return nil
	}
	if len(answer.SelectedOptionIDs) > 0 {
		return toSet(answer.SelectedOptionIDs)
	}
	if answer.SelectedOptionID != nil {
		return toSet([]string{*answer.SelectedOptionID})
	}
	return nil
}

func toSet(ids []string) map[string]struct{} {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

func setsEqual(a, b map[string]struct{}) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if _, ok := b[k]; !ok {
			return false
		}
	}
	return true
}
