package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/openclass/examcore/config"
	"github.com/openclass/examcore/internal/apperr"
	"github.com/openclass/examcore/internal/model"
	"github.com/rs/zerolog/log"
	"google.golang.org/api/option"
)

// GradingAssistService produces a non-binding AI suggestion for an open-ended
// answer. It never writes grades; teachers remain the only grading authority.
type GradingAssistService interface {
	SuggestGrade(ctx context.Context, question *model.Question, answerText string) (points int, feedback string, err error)
}

type gradingAssistService struct {
	client *genai.GenerativeModel
	cfg    *config.Config
}

func NewGradingAssistService(cfg *config.Config) (GradingAssistService, error) {
	if cfg.GeminiApiKey == "" {
		log.Warn().Msg("GEMINI_API_KEY is not set. Grade suggestions will be unavailable.")
		return &gradingAssistService{cfg: cfg}, nil
	}
	client, err := genai.NewClient(context.Background(), option.WithAPIKey(cfg.GeminiApiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Gemini client: %w", err)
	}
	return &gradingAssistService{client: client.GenerativeModel("gemini-1.5-flash"), cfg: cfg}, nil
}

func (s *gradingAssistService) SuggestGrade(ctx context.Context, question *model.Question, answerText string) (int, string, error) {
	if s.client == nil {
		return 0, "", apperr.InvalidState("grade suggestions are not configured")
	}
	if strings.TrimSpace(answerText) == "" {
		return 0, "No answer was submitted for this question.", nil
	}

	prompt := fmt.Sprintf(
		"You are assisting a teacher with grading an exam question. "+
			"Assess the student's answer against the question and propose a score.\n\n"+
			"Question (worth %d points):\n%s\n\nStudent answer:\n%s\n\n"+
			"Respond in exactly this format:\nScore: <integer between 0 and %d>\nFeedback: <two or three sentences for the student>",
		question.Points, question.Prompt, answerText, question.Points,
	)

	resp, err := s.client.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		log.Error().Err(err).Uint("questionID", question.ID).Msg("SuggestGrade: Gemini call failed")
		return 0, "", fmt.Errorf("gemini request failed: %w", err)
	}
	raw := collectText(resp)
	if raw == "" {
		return 0, "", fmt.Errorf("gemini returned an empty response")
	}

	scoreStr, feedback, err := parseScoreAndFeedback(raw)
	if err != nil {
		log.Warn().Err(err).Str("raw", raw).Msg("SuggestGrade: unparseable response")
		return 0, "", err
	}
	score, err := strconv.Atoi(scoreStr)
	if err != nil {
		return 0, "", fmt.Errorf("gemini returned a non-integer score %q", scoreStr)
	}
	// Clamp into the question's bounds rather than rejecting the suggestion.
	if score < 0 {
		score = 0
	}
	if score > question.Points {
		score = question.Points
	}
	return score, feedback, nil
}

func collectText(resp *genai.GenerateContentResponse) string {
	var sb strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if text, ok := part.(genai.Text); ok {
				sb.WriteString(string(text))
			}
		}
	}
	return strings.TrimSpace(sb.String())
}

func parseScoreAndFeedback(raw string) (scoreStr string, feedback string, err error) {
	scorePrefix := "Score:"
	feedbackPrefix := "Feedback:"

	scoreIndex := strings.Index(raw, scorePrefix)
	if scoreIndex == -1 {
		return "", raw, fmt.Errorf("response does not contain a 'Score:' line")
	}
	rest := raw[scoreIndex+len(scorePrefix):]
	if nl := strings.Index(rest, "\n"); nl != -1 {
		scoreStr = strings.TrimSpace(rest[:nl])
		rest = rest[nl+1:]
	} else {
		scoreStr = strings.TrimSpace(rest)
		rest = ""
	}
	if fields := strings.Fields(scoreStr); len(fields) > 0 {
		scoreStr = fields[0]
	}

	if fbIndex := strings.Index(rest, feedbackPrefix); fbIndex != -1 {
		feedback = strings.TrimSpace(rest[fbIndex+len(feedbackPrefix):])
	} else {
		feedback = strings.TrimSpace(rest)
	}
	return scoreStr, feedback, nil
}
