package model

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	DefaultCategory   = "Geography"
	DefaultDifficulty = "medium"
	DefaultTimeLimit  = 15
)

// GameSettings configures the next game played in a room. Settings are frozen
// while the room is live.
type GameSettings struct {
	RoomCode         string `json:"roomCode" bson:"roomCode"`
	Category         string `json:"category" bson:"category"`
	Difficulty       string `json:"difficulty" bson:"difficulty"`
	QuestionCount    int    `json:"questionCount" bson:"questionCount"`
	TimeLimitSeconds int    `json:"timeLimitSeconds" bson:"timeLimitSeconds"`
}

// Normalize fills blanks with defaults and canonicalizes casing.
func (s *GameSettings) Normalize() {
	s.Category = strings.TrimSpace(s.Category)
	if s.Category == "" {
		s.Category = DefaultCategory
	} else {
		// Decode the first rune rather than slicing bytes so multi-byte
		// categories survive the casing.
		first, size := utf8.DecodeRuneInString(s.Category)
		s.Category = string(unicode.ToUpper(first)) + strings.ToLower(s.Category[size:])
	}
	s.Difficulty = strings.ToLower(strings.TrimSpace(s.Difficulty))
	if s.Difficulty == "" {
		s.Difficulty = DefaultDifficulty
	}
	if s.TimeLimitSeconds <= 0 {
		s.TimeLimitSeconds = DefaultTimeLimit
	}
}
