package model

import "time"

// Event names broadcast to room subscribers. Payloads are the typed structs
// below; consumers switch on the name instead of reflecting into the payload.
const (
	EventPlayerJoined          = "player_joined"
	EventPlayerLeft            = "player_left"
	EventGameStarted           = "game_started"
	EventGameStartFailed       = "game_start_failed"
	EventNextQuestion          = "next_question"
	EventGameFinished          = "game_finished"
	EventAnswerSubmitted       = "answer_submitted"
	EventCategoryVotingStarted = "category_voting_started"
	EventCategoryRevoteStarted = "category_revote_started"
	EventCategoryVoteUpdated   = "category_vote_updated"
	EventCategoryVotingEnded   = "category_voting_finished"
	EventGameReset             = "game_reset"
)

type PlayerJoinedEvent struct {
	PlayerID string    `json:"playerId"`
	Nickname string    `json:"nickname"`
	JoinedAt time.Time `json:"joinedAt"`
}

type PlayerLeftEvent struct {
	PlayerID string `json:"playerId"`
}

// GameDetails is the room snapshot sent on start, advance and reset. Correct
// answer indexes are stripped from the questions before broadcast.
type GameDetails struct {
	Code                 string     `json:"code"`
	Status               RoomStatus `json:"status"`
	HostPlayerID         string     `json:"hostPlayerId"`
	Players              []Player   `json:"players"`
	CurrentQuestionIndex int        `json:"currentQuestionIndex"`
	QuestionCount        int        `json:"questionCount"`
	CurrentQuestion      *Question  `json:"currentQuestion,omitempty"`
	TimeLimitSeconds     int        `json:"timeLimitSeconds,omitempty"`
}

type GameStartFailedEvent struct {
	Reason string `json:"reason"`
}

// AnswerSubmittedEvent deliberately omits the answer content so correctness
// cannot be inferred by other players before the question is scored.
type AnswerSubmittedEvent struct {
	PlayerID    string    `json:"playerId"`
	QuestionID  string    `json:"questionId"`
	SubmittedAt time.Time `json:"submittedAt"`
}

type LeaderboardEntry struct {
	PlayerID string `json:"playerId"`
	Nickname string `json:"nickname"`
	Score    int    `json:"score"`
	Rank     int    `json:"rank"`
}

type GameFinishedEvent struct {
	Code        string             `json:"code"`
	Leaderboard []LeaderboardEntry `json:"leaderboard"`
	EndedAt     time.Time          `json:"endedAt"`
}

type CategoryVotingStartedEvent struct {
	Candidates      []string `json:"candidates"`
	Round           int      `json:"round"`
	DurationSeconds int      `json:"durationSeconds"`
}

type CategoryVoteUpdatedEvent struct {
	Tally map[string]int `json:"tally"`
}

type CategoryVotingFinishedEvent struct {
	WinningCategory *string `json:"winningCategory"`
	IsTie           bool    `json:"isTie"`
	IsFinal         bool    `json:"isFinal"`
}
