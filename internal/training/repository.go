package training

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound indicates a missing question.
var ErrNotFound = errors.New("training: not found")

// Repository stores questions, attempts and the leaderboard.
type Repository interface {
	ActiveQuestions(ctx context.Context) ([]Question, error)
	QuestionByID(ctx context.Context, id int64) (*Question, error)
	RecordAttempt(ctx context.Context, attempt Attempt) (int64, error)
	Leaderboard(ctx context.Context, limit int) ([]LeaderboardRow, error)
}

// PGRepository implements Repository over the portal schema.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository builds a PGRepository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// ActiveQuestions lists playable questions.
func (r *PGRepository) ActiveQuestions(ctx context.Context) ([]Question, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, topic, prompt, key_points, max_score, active
FROM training_questions WHERE active ORDER BY topic, id`)
	if err != nil {
		return nil, fmt.Errorf("training: load questions: %w", err)
	}
	defer rows.Close()

	var out []Question
	for rows.Next() {
		var q Question
		if err := rows.Scan(&q.ID, &q.Topic, &q.Prompt, &q.KeyPoints, &q.MaxScore, &q.Active); err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

// QuestionByID fetches one question.
func (r *PGRepository) QuestionByID(ctx context.Context, id int64) (*Question, error) {
	var q Question
	err := r.pool.QueryRow(ctx, `SELECT id, topic, prompt, key_points, max_score, active
FROM training_questions WHERE id = $1`, id).
		Scan(&q.ID, &q.Topic, &q.Prompt, &q.KeyPoints, &q.MaxScore, &q.Active)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("training: load question: %w", err)
	}
	return &q, nil
}

// RecordAttempt inserts one answer row.
func (r *PGRepository) RecordAttempt(ctx context.Context, attempt Attempt) (int64, error) {
	at := attempt.At
	if at.IsZero() {
		at = time.Now()
	}
	var id int64
	err := r.pool.QueryRow(ctx, `INSERT INTO training_attempts
(question_id, user_code, answer, score, feedback, graded, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`,
		attempt.QuestionID, attempt.UserCode, attempt.Answer,
		attempt.Score, attempt.Feedback, attempt.Graded, at).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("training: record attempt: %w", err)
	}
	return id, nil
}

// Leaderboard aggregates points per user.
func (r *PGRepository) Leaderboard(ctx context.Context, limit int) ([]LeaderboardRow, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	rows, err := r.pool.Query(ctx, `SELECT user_code, COUNT(*), COALESCE(SUM(score), 0)
FROM training_attempts
GROUP BY user_code
ORDER BY SUM(score) DESC, user_code ASC
LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("training: load leaderboard: %w", err)
	}
	defer rows.Close()

	var out []LeaderboardRow
	for rows.Next() {
		var row LeaderboardRow
		if err := rows.Scan(&row.UserCode, &row.Attempts, &row.Points); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}
