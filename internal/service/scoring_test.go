package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"trivialive/internal/model"
)

func TestQuestionScore(t *testing.T) {
	t.Parallel()
	testCases := []struct {
		desc           string
		totalQuestions int
		timeLeft       float64
		want           float64
	}{
		{"instant answer gets full credit", 5, 30, 20},
		{"zero time left still gets half credit", 5, 0, 10},
		{"halfway gets three quarters", 5, 15, 15},
		{"time left above the limit is clamped", 5, 90, 20},
		{"negative time left is clamped to zero", 5, -3, 10},
		{"zero questions treated as a single question", 0, 30, 100},
		{"single question full credit", 1, 30, 100},
	}
	for _, tc := range testCases {
		t.Run(tc.desc, func(t *testing.T) {
			assert.InDelta(t, tc.want, questionScore(tc.totalQuestions, tc.timeLeft), 1e-9)
		})
	}
}

func TestScoreCurrentQuestion_ExactSetMatch(t *testing.T) {
	t.Parallel()
	q := model.Question{ID: "q1", CorrectIndexes: []int{0, 2}}
	room := &model.Room{
		Status:               model.RoomLive,
		CurrentQuestionIndex: 0,
		Questions:            []model.Question{q},
		Players: []model.Player{
			{ID: "exact"}, {ID: "subset"}, {ID: "superset"}, {ID: "silent"},
		},
		Answers: []model.Answer{
			{PlayerID: "exact", QuestionID: "q1", SelectedIndexes: []int{2, 0}, TimeLeftSeconds: 30},
			{PlayerID: "subset", QuestionID: "q1", SelectedIndexes: []int{0}, TimeLeftSeconds: 30},
			{PlayerID: "superset", QuestionID: "q1", SelectedIndexes: []int{0, 1, 2}, TimeLeftSeconds: 30},
		},
	}

	updated := scoreCurrentQuestion(room)

	assert.Equal(t, []string{"exact"}, updated)
	assert.Equal(t, 100, room.PlayerByID("exact").Score, "order of selected indexes must not matter")
	assert.Equal(t, 0, room.PlayerByID("subset").Score)
	assert.Equal(t, 0, room.PlayerByID("superset").Score, "a superset of the correct set is wrong")
	assert.Equal(t, 0, room.PlayerByID("silent").Score, "no answer scores zero, no penalty")
}

func TestScoreCurrentQuestion_RoundsHalfAwayFromZero(t *testing.T) {
	t.Parallel()
	// 4 questions -> base 25; timeLeft 12 -> multiplier 0.7 -> 17.5, rounds to 18.
	room := &model.Room{
		Status:               model.RoomLive,
		CurrentQuestionIndex: 0,
		Questions: []model.Question{
			{ID: "q1", CorrectIndexes: []int{1}}, {ID: "q2"}, {ID: "q3"}, {ID: "q4"},
		},
		Players: []model.Player{{ID: "p1"}},
		Answers: []model.Answer{
			{PlayerID: "p1", QuestionID: "q1", SelectedIndexes: []int{1}, TimeLeftSeconds: 12},
		},
	}

	scoreCurrentQuestion(room)

	assert.InDelta(t, 17.5, room.Answers[0].Score, 1e-9, "fractional score kept on the answer")
	assert.Equal(t, 18, room.PlayerByID("p1").Score)
}

func TestScoreCurrentQuestion_NeverScoresTwice(t *testing.T) {
	t.Parallel()
	room := &model.Room{
		Status:               model.RoomLive,
		CurrentQuestionIndex: 0,
		Questions:            []model.Question{{ID: "q1", CorrectIndexes: []int{0}}, {ID: "q2"}},
		Players:              []model.Player{{ID: "p1"}},
		Answers: []model.Answer{
			{PlayerID: "p1", QuestionID: "q1", SelectedIndexes: []int{0}, TimeLeftSeconds: 30},
		},
	}

	scoreCurrentQuestion(room)
	first := room.PlayerByID("p1").Score
	scoreCurrentQuestion(room)

	assert.Equal(t, first, room.PlayerByID("p1").Score, "an answer marked scored must be skipped")
}

func TestLeaderboard_OrderAndRanks(t *testing.T) {
	t.Parallel()
	room := &model.Room{Players: []model.Player{
		{ID: "p1", Nickname: "zoe", Score: 40},
		{ID: "p2", Nickname: "amy", Score: 55},
		{ID: "p3", Nickname: "ben", Score: 40},
	}}

	entries := leaderboard(room)

	assert.Equal(t, []model.LeaderboardEntry{
		{PlayerID: "p2", Nickname: "amy", Score: 55, Rank: 1},
		{PlayerID: "p3", Nickname: "ben", Score: 40, Rank: 2},
		{PlayerID: "p1", Nickname: "zoe", Score: 40, Rank: 3},
	}, entries)
}
