package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"trivialive/internal/model"
	"trivialive/internal/repository"
)

// VotingService runs category votes for rooms: one round of open voting, an
// automatic restricted revote on a tie, and a deterministic tie-break (host's
// vote first, alphabetical fallback) when the revote ties again. Voting state
// is owned here, per room, and cleared on final resolution.
type VotingService struct {
	mu     sync.Mutex
	states map[string]*model.CategoryVotingState

	roomRepo     repository.RoomRepo
	settingsRepo repository.SettingsRepo
	broadcaster  Broadcaster
	logger       zerolog.Logger
}

// VotingResult reports how EndVoting resolved. A non-final result either
// started a revote or signals that nobody voted and the vote was abandoned.
type VotingResult struct {
	WinningCategory *string
	IsTie           bool
	IsFinal         bool
	RevoteStarted   bool
	Duration        time.Duration
}

func NewVotingService(roomRepo repository.RoomRepo, settingsRepo repository.SettingsRepo, logger zerolog.Logger) *VotingService {
	return &VotingService{
		states:       make(map[string]*model.CategoryVotingState),
		roomRepo:     roomRepo,
		settingsRepo: settingsRepo,
		broadcaster:  nopBroadcaster{},
		logger:       logger,
	}
}

// SetBroadcaster wires the WebSocket hub after construction.
func (s *VotingService) SetBroadcaster(b Broadcaster) {
	s.broadcaster = b
}

// StartVoting opens a round-1 vote over the deduplicated candidate list.
func (s *VotingService) StartVoting(ctx context.Context, code, callerID string, categories []string) (*model.CategoryVotingState, error) {
	room, err := s.roomRepo.GetByCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to load room: %w", err)
	}
	if room == nil {
		return nil, errRoomNotFound(code)
	}
	if room.HostPlayerID != callerID {
		return nil, errNotHost()
	}

	candidates := dedupe(categories)
	if len(candidates) == 0 {
		return nil, newError(KindInvalidArgument, "at least one category required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, active := s.states[code]; active {
		return nil, newError(KindStateError, "a vote is already in progress")
	}

	state := &model.CategoryVotingState{
		RoomCode:    code,
		Candidates:  candidates,
		Round:       1,
		PlayerVotes: make(map[string]string),
		StartedAt:   time.Now(),
		Duration:    model.DefaultVotingDuration,
	}
	s.states[code] = state

	s.logger.Info().Str("room", code).Strs("candidates", candidates).Msg("category vote started")
	s.broadcaster.BroadcastToRoom(code, model.EventCategoryVotingStarted, model.CategoryVotingStartedEvent{
		Candidates:      candidates,
		Round:           1,
		DurationSeconds: int(state.Duration.Seconds()),
	})
	return snapshot(state), nil
}

// SubmitVote records or replaces a player's vote and broadcasts the updated
// tally. Revoting before resolution is allowed.
func (s *VotingService) SubmitVote(ctx context.Context, code, playerID, category string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, active := s.states[code]
	if !active {
		return newError(KindStateError, "no vote in progress")
	}
	if !contains(state.Candidates, category) {
		return newError(KindInvalidArgument, "category %q is not a candidate", category)
	}

	state.PlayerVotes[playerID] = category
	s.broadcaster.BroadcastToRoom(code, model.EventCategoryVoteUpdated, model.CategoryVoteUpdatedEvent{
		Tally: state.Tally(),
	})
	return nil
}

// EndVoting resolves the active vote. Call it when the host closes the vote
// or when the round's deadline elapses; the caller owns the timer.
func (s *VotingService) EndVoting(ctx context.Context, code, callerID string) (*VotingResult, error) {
	room, err := s.roomRepo.GetByCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to load room: %w", err)
	}
	if room == nil {
		return nil, errRoomNotFound(code)
	}
	if room.HostPlayerID != callerID {
		return nil, errNotHost()
	}

	s.mu.Lock()
	state, active := s.states[code]
	if !active {
		s.mu.Unlock()
		return nil, newError(KindStateError, "no vote in progress")
	}

	top := state.TopCategories()
	switch {
	case len(top) == 0:
		// Nobody voted. The vote is abandoned, not resolved; the host must
		// start a new one or fall back to the configured category.
		delete(s.states, code)
		s.mu.Unlock()
		s.broadcaster.BroadcastToRoom(code, model.EventCategoryVotingEnded, model.CategoryVotingFinishedEvent{})
		return &VotingResult{}, nil

	case len(top) == 1:
		delete(s.states, code)
		s.mu.Unlock()
		return s.finish(ctx, code, top[0], false)

	case state.Round == 1:
		// Tie in round 1: automatic revote restricted to the tied categories.
		state.Candidates = top
		state.Round = 2
		state.PlayerVotes = make(map[string]string)
		state.StartedAt = time.Now()
		duration := state.Duration
		s.mu.Unlock()

		s.logger.Info().Str("room", code).Strs("tied", top).Msg("category vote tied, starting revote")
		s.broadcaster.BroadcastToRoom(code, model.EventCategoryRevoteStarted, model.CategoryVotingStartedEvent{
			Candidates:      top,
			Round:           2,
			DurationSeconds: int(duration.Seconds()),
		})
		return &VotingResult{IsTie: true, RevoteStarted: true, Duration: duration}, nil

	default:
		// Tie again in round 2: the host's own vote wins if it backs one of
		// the tied categories, otherwise alphabetical-first.
		winner := ""
		if hostVote, ok := state.PlayerVotes[room.HostPlayerID]; ok && contains(top, hostVote) {
			winner = hostVote
		} else {
			sorted := append([]string(nil), top...)
			sort.Strings(sorted)
			winner = sorted[0]
		}
		delete(s.states, code)
		s.mu.Unlock()
		return s.finish(ctx, code, winner, true)
	}
}

// Clear drops any in-flight vote for the room.
func (s *VotingService) Clear(code string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.states, code)
}

// State returns a copy of the active voting state, or nil when no vote is in
// progress.
func (s *VotingService) State(code string) *model.CategoryVotingState {
	s.mu.Lock()
	defer s.mu.Unlock()
	state, ok := s.states[code]
	if !ok {
		return nil
	}
	return snapshot(state)
}

// finish applies the winning category to the room's settings, leaving
// difficulty, count and time limit as they were, and broadcasts the result.
func (s *VotingService) finish(ctx context.Context, code, winner string, isTie bool) (*VotingResult, error) {
	settings, err := s.settingsRepo.GetByRoomCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}
	if settings == nil {
		settings = &model.GameSettings{RoomCode: code, QuestionCount: 5}
		settings.Normalize()
	}
	settings.Category = winner
	if err := s.settingsRepo.Save(ctx, settings); err != nil {
		return nil, fmt.Errorf("failed to save settings: %w", err)
	}

	s.logger.Info().Str("room", code).Str("category", winner).Bool("tie", isTie).Msg("category vote resolved")
	s.broadcaster.BroadcastToRoom(code, model.EventCategoryVotingEnded, model.CategoryVotingFinishedEvent{
		WinningCategory: &winner,
		IsTie:           isTie,
		IsFinal:         true,
	})
	return &VotingResult{WinningCategory: &winner, IsTie: isTie, IsFinal: true}, nil
}

func snapshot(state *model.CategoryVotingState) *model.CategoryVotingState {
	copied := *state
	copied.Candidates = append([]string(nil), state.Candidates...)
	copied.PlayerVotes = make(map[string]string, len(state.PlayerVotes))
	for k, v := range state.PlayerVotes {
		copied.PlayerVotes[k] = v
	}
	return &copied
}

func dedupe(categories []string) []string {
	seen := make(map[string]struct{}, len(categories))
	var out []string
	for _, c := range categories {
		if c == "" {
			continue
		}
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	return out
}

func contains(list []string, item string) bool {
	for _, v := range list {
		if v == item {
			return true
		}
	}
	return false
}
