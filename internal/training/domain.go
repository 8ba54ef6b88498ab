// Package training runs the gamified quiz: free-text answers are scored by an
// external generative-AI oracle, points accumulate on a leaderboard.
package training

import "time"

// Question is one quiz prompt with its expected key points.
type Question struct {
	ID        int64  `json:"id"`
	Topic     string `json:"topic"`
	Prompt    string `json:"prompt"`
	KeyPoints string `json:"-"`
	MaxScore  int    `json:"max_score"`
	Active    bool   `json:"-"`
}

// Grade is the oracle's verdict on one answer.
type Grade struct {
	Score    int    `json:"score"`
	Feedback string `json:"feedback"`
}

// Attempt is one recorded answer.
type Attempt struct {
	ID         int64     `json:"id"`
	QuestionID int64     `json:"question_id"`
	UserCode   string    `json:"user_code"`
	Answer     string    `json:"answer"`
	Score      int       `json:"score"`
	Feedback   string    `json:"feedback,omitempty"`
	Graded     bool      `json:"graded"`
	At         time.Time `json:"at"`
}

// LeaderboardRow is one user's accumulated points.
type LeaderboardRow struct {
	UserCode string `json:"user_code"`
	Attempts int    `json:"attempts"`
	Points   int    `json:"points"`
}
