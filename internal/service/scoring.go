package service

import (
	"math"
	"sort"

	"trivialive/internal/model"
)

// AnswerTimeLimitSeconds bounds the time-left value a client may claim for an
// answer; submissions outside [0, limit] are clamped, never rejected.
const AnswerTimeLimitSeconds = 30.0

func clampTimeLeft(timeLeft float64) float64 {
	if timeLeft < 0 {
		return 0
	}
	if timeLeft > AnswerTimeLimitSeconds {
		return AnswerTimeLimitSeconds
	}
	return timeLeft
}

// questionScore computes the fractional score for a correct answer. The base
// value normalizes a full correct run to ~100 points regardless of question
// count; the multiplier rewards speed but keeps a floor of half credit, so a
// correct answer with zero time left is still worth something.
func questionScore(totalQuestions int, timeLeft float64) float64 {
	if totalQuestions <= 0 {
		totalQuestions = 1
	}
	base := 100.0 / float64(totalQuestions)
	timeFactor := clampTimeLeft(timeLeft) / AnswerTimeLimitSeconds
	return base * (0.5 + 0.5*timeFactor)
}

// scoreCurrentQuestion evaluates every recorded answer for the question at the
// current index, marks each as scored and adds the rounded score (half away
// from zero, math.Round) to the owning player's total. Players without an
// answer simply gain nothing. Returns the ids of players whose totals changed.
func scoreCurrentQuestion(room *model.Room) []string {
	q := room.CurrentQuestion()
	if q == nil {
		return nil
	}

	var updated []string
	for i := range room.Answers {
		a := &room.Answers[i]
		if a.QuestionID != q.ID || a.Scored {
			continue
		}
		a.Scored = true
		a.Correct = q.IsCorrect(a.SelectedIndexes)
		if !a.Correct {
			continue
		}
		a.Score = questionScore(len(room.Questions), a.TimeLeftSeconds)
		if p := room.PlayerByID(a.PlayerID); p != nil {
			p.Score += int(math.Round(a.Score))
			updated = append(updated, p.ID)
		}
	}
	return updated
}

// leaderboard ranks the room's players by score, highest first, breaking
// equal scores by nickname for a stable order.
func leaderboard(room *model.Room) []model.LeaderboardEntry {
	players := make([]model.Player, len(room.Players))
	copy(players, room.Players)
	sort.SliceStable(players, func(i, j int) bool {
		if players[i].Score != players[j].Score {
			return players[i].Score > players[j].Score
		}
		return players[i].Nickname < players[j].Nickname
	})

	entries := make([]model.LeaderboardEntry, len(players))
	for i, p := range players {
		entries[i] = model.LeaderboardEntry{
			PlayerID: p.ID,
			Nickname: p.Nickname,
			Score:    p.Score,
			Rank:     i + 1,
		}
	}
	return entries
}
