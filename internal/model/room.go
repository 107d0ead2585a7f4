package model

import "time"

type RoomStatus string

const (
	RoomWaiting RoomStatus = "waiting"
	RoomLive    RoomStatus = "live"
	RoomEnded   RoomStatus = "ended"
)

// Room is the per-room aggregate. It is loaded, mutated and saved as a whole;
// all mutation goes through the game service under the room's lock.
type Room struct {
	Code                 string     `json:"code" bson:"code"`
	Status               RoomStatus `json:"status" bson:"status"`
	HostPlayerID         string     `json:"hostPlayerId" bson:"hostPlayerId"`
	Players              []Player   `json:"players" bson:"players"`
	Questions            []Question `json:"questions" bson:"questions"`
	CurrentQuestionIndex int        `json:"currentQuestionIndex" bson:"currentQuestionIndex"`
	TimeLimitSeconds     int        `json:"timeLimitSeconds" bson:"timeLimitSeconds"`
	Answers              []Answer   `json:"answers" bson:"answers"`
	CreatedAt            time.Time  `json:"createdAt" bson:"createdAt"`
	StartedAt            *time.Time `json:"startedAt,omitempty" bson:"startedAt,omitempty"`
	EndedAt              *time.Time `json:"endedAt,omitempty" bson:"endedAt,omitempty"`
}

// Player represents a participant in a room.
type Player struct {
	ID       string    `json:"id" bson:"id"`
	Nickname string    `json:"nickname" bson:"nickname"`
	Score    int       `json:"score" bson:"score"`
	JoinedAt time.Time `json:"joinedAt" bson:"joinedAt"`
}

func (r *Room) PlayerByID(id string) *Player {
	for i := range r.Players {
		if r.Players[i].ID == id {
			return &r.Players[i]
		}
	}
	return nil
}

func (r *Room) HasPlayer(id string) bool {
	return r.PlayerByID(id) != nil
}

func (r *Room) QuestionByID(id string) *Question {
	for i := range r.Questions {
		if r.Questions[i].ID == id {
			return &r.Questions[i]
		}
	}
	return nil
}

// AnswerFor returns the recorded answer for a (player, question) pair, or nil.
func (r *Room) AnswerFor(playerID, questionID string) *Answer {
	for i := range r.Answers {
		if r.Answers[i].PlayerID == playerID && r.Answers[i].QuestionID == questionID {
			return &r.Answers[i]
		}
	}
	return nil
}

// CurrentQuestion returns the question at the current index, or nil when the
// game has not started.
func (r *Room) CurrentQuestion() *Question {
	if r.CurrentQuestionIndex < 0 || r.CurrentQuestionIndex >= len(r.Questions) {
		return nil
	}
	return &r.Questions[r.CurrentQuestionIndex]
}
