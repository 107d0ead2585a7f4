package model

import "time"

// Answer is a single player's submission for one question. It is stored raw at
// submit time; Correct and Score are filled in when the question is scored,
// exactly once, as the host advances past it.
type Answer struct {
	PlayerID        string    `json:"playerId" bson:"playerId"`
	QuestionID      string    `json:"questionId" bson:"questionId"`
	SelectedIndexes []int     `json:"selectedIndexes" bson:"selectedIndexes"`
	TimeLeftSeconds float64   `json:"timeLeftSeconds" bson:"timeLeftSeconds"`
	Correct         bool      `json:"correct" bson:"correct"`
	Score           float64   `json:"score" bson:"score"`
	Scored          bool      `json:"scored" bson:"scored"`
	SubmittedAt     time.Time `json:"submittedAt" bson:"submittedAt"`
}
