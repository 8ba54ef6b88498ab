package training

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// ErrInactive indicates the question is no longer playable.
var ErrInactive = errors.New("training: question inactive")

// Service runs the quiz flow.
type Service struct {
	repo         Repository
	oracle       Oracle
	defaultScore int
	logger       *slog.Logger
}

// NewService builds a Service. defaultScore is awarded when the grading
// oracle is unreachable or returns garbage.
func NewService(repo Repository, oracle Oracle, defaultScore int, logger *slog.Logger) *Service {
	return &Service{repo: repo, oracle: oracle, defaultScore: defaultScore, logger: logger}
}

// Questions lists the active quiz questions.
func (s *Service) Questions(ctx context.Context) ([]Question, error) {
	return s.repo.ActiveQuestions(ctx)
}

// SubmitAnswer grades and records one answer. Oracle failures degrade to the
// configured default score instead of failing the attempt.
func (s *Service) SubmitAnswer(ctx context.Context, questionID int64, userCode, answer string) (*Attempt, error) {
	if answer == "" {
		return nil, fmt.Errorf("training: answer required")
	}
	question, err := s.repo.QuestionByID(ctx, questionID)
	if err != nil {
		return nil, err
	}
	if !question.Active {
		return nil, ErrInactive
	}

	attempt := Attempt{
		QuestionID: questionID,
		UserCode:   userCode,
		Answer:     answer,
	}
	grade, err := s.oracle.Grade(ctx, *question, answer)
	if err != nil {
		if s.logger != nil {
			s.logger.Warn("quiz grading degraded to default score",
				slog.Int64("question_id", questionID), slog.Any("error", err))
		}
		attempt.Score = s.defaultScore
		attempt.Graded = false
	} else {
		attempt.Score = grade.Score
		attempt.Feedback = grade.Feedback
		attempt.Graded = true
	}

	id, err := s.repo.RecordAttempt(ctx, attempt)
	if err != nil {
		return nil, err
	}
	attempt.ID = id
	return &attempt, nil
}

// Leaderboard returns the top scorers.
func (s *Service) Leaderboard(ctx context.Context, limit int) ([]LeaderboardRow, error) {
	return s.repo.Leaderboard(ctx, limit)
}
