package model

import "time"

const DefaultVotingDuration = 60 * time.Second

// CategoryVotingState is the ephemeral state of one voting round in a room.
// Round 1 is the initial vote; round 2 is the automatic revote after a tie.
type CategoryVotingState struct {
	RoomCode   string
	Candidates []string
	Round      int
	// PlayerVotes maps player id to the category they currently back.
	// Re-voting before resolution overwrites the earlier choice.
	PlayerVotes map[string]string
	StartedAt   time.Time
	Duration    time.Duration
}

// Tally returns vote counts per candidate. Candidates without votes are
// included with a zero count so broadcast tallies always carry the full list.
func (v *CategoryVotingState) Tally() map[string]int {
	counts := make(map[string]int, len(v.Candidates))
	for _, c := range v.Candidates {
		counts[c] = 0
	}
	for _, c := range v.PlayerVotes {
		counts[c]++
	}
	return counts
}

// TopCategories returns every candidate holding the maximum vote count.
// The result is empty when no votes have been cast.
func (v *CategoryVotingState) TopCategories() []string {
	counts := v.Tally()
	max := 0
	for _, n := range counts {
		if n > max {
			max = n
		}
	}
	if max == 0 {
		return nil
	}
	var top []string
	for _, c := range v.Candidates {
		if counts[c] == max {
			top = append(top, c)
		}
	}
	return top
}
