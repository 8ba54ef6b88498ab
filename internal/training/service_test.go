package training

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRepo struct {
	questions map[int64]Question
	attempts  []Attempt
}

func (f *fakeRepo) ActiveQuestions(context.Context) ([]Question, error) {
	var out []Question
	for _, q := range f.questions {
		if q.Active {
			out = append(out, q)
		}
	}
	return out, nil
}

func (f *fakeRepo) QuestionByID(_ context.Context, id int64) (*Question, error) {
	q, ok := f.questions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &q, nil
}

func (f *fakeRepo) RecordAttempt(_ context.Context, attempt Attempt) (int64, error) {
	attempt.ID = int64(len(f.attempts) + 1)
	f.attempts = append(f.attempts, attempt)
	return attempt.ID, nil
}

func (f *fakeRepo) Leaderboard(context.Context, int) ([]LeaderboardRow, error) {
	points := map[string]*LeaderboardRow{}
	for _, a := range f.attempts {
		row, ok := points[a.UserCode]
		if !ok {
			row = &LeaderboardRow{UserCode: a.UserCode}
			points[a.UserCode] = row
		}
		row.Attempts++
		row.Points += a.Score
	}
	var out []LeaderboardRow
	for _, row := range points {
		out = append(out, *row)
	}
	return out, nil
}

type fakeOracle struct {
	grade *Grade
	err   error
	calls int
}

func (f *fakeOracle) Grade(context.Context, Question, string) (*Grade, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.grade, nil
}

func quizRepo() *fakeRepo {
	return &fakeRepo{questions: map[int64]Question{
		1: {ID: 1, Topic: "AR", Prompt: "What is an aging bucket?", KeyPoints: "days past due; current/30/60/90/120", MaxScore: 10, Active: true},
		2: {ID: 2, Topic: "Old", Prompt: "Retired question", MaxScore: 10, Active: false},
	}}
}

func TestSubmitAnswerGraded(t *testing.T) {
	repo := quizRepo()
	oracle := &fakeOracle{grade: &Grade{Score: 8, Feedback: "Solid, missed the 120+ bucket."}}
	svc := NewService(repo, oracle, 5, slog.Default())

	attempt, err := svc.SubmitAnswer(context.Background(), 1, "U1001", "Buckets group invoices by days past due.")

	require.NoError(t, err)
	assert.True(t, attempt.Graded)
	assert.Equal(t, 8, attempt.Score)
	assert.NotEmpty(t, attempt.Feedback)
	require.Len(t, repo.attempts, 1)
}

func TestSubmitAnswerOracleFailureFallsBack(t *testing.T) {
	repo := quizRepo()
	oracle := &fakeOracle{err: errors.New("rate limited")}
	svc := NewService(repo, oracle, 5, slog.Default())

	attempt, err := svc.SubmitAnswer(context.Background(), 1, "U1001", "some answer")

	require.NoError(t, err, "oracle failure must not fail the attempt")
	assert.False(t, attempt.Graded)
	assert.Equal(t, 5, attempt.Score, "default score awarded")
	assert.Empty(t, attempt.Feedback)
	require.Len(t, repo.attempts, 1, "degraded attempt still recorded")
}

func TestSubmitAnswerInactiveQuestion(t *testing.T) {
	svc := NewService(quizRepo(), &fakeOracle{}, 5, slog.Default())

	_, err := svc.SubmitAnswer(context.Background(), 2, "U1001", "answer")
	assert.ErrorIs(t, err, ErrInactive)
}

func TestSubmitAnswerUnknownQuestion(t *testing.T) {
	svc := NewService(quizRepo(), &fakeOracle{}, 5, slog.Default())

	_, err := svc.SubmitAnswer(context.Background(), 99, "U1001", "answer")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSubmitAnswerEmptyRejected(t *testing.T) {
	oracle := &fakeOracle{}
	svc := NewService(quizRepo(), oracle, 5, slog.Default())

	_, err := svc.SubmitAnswer(context.Background(), 1, "U1001", "")
	assert.Error(t, err)
	assert.Zero(t, oracle.calls, "empty answers never reach the oracle")
}

func TestLeaderboardAccumulates(t *testing.T) {
	repo := quizRepo()
	oracle := &fakeOracle{grade: &Grade{Score: 7}}
	svc := NewService(repo, oracle, 5, slog.Default())

	_, err := svc.SubmitAnswer(context.Background(), 1, "U1001", "a")
	require.NoError(t, err)
	_, err = svc.SubmitAnswer(context.Background(), 1, "U1001", "b")
	require.NoError(t, err)

	rows, err := svc.Leaderboard(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 14, rows[0].Points)
	assert.Equal(t, 2, rows[0].Attempts)
}
