package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"trivialive/internal/cache"
	"trivialive/internal/model"
	"trivialive/internal/repository"
)

// GameService drives the room lifecycle: create, join, start, advance with
// scoring, finish, reset. Every operation on one room runs under that room's
// lock, so validate-mutate-persist is a single serialized step and duplicate
// requests observe the committed state instead of racing it.
type GameService struct {
	roomRepo     repository.RoomRepo
	questionRepo repository.QuestionRepo
	settingsRepo repository.SettingsRepo
	roomCache    cache.RoomCache
	leaderboard  cache.LeaderboardCache
	registry     *ActiveGameRegistry
	locks        *roomLocks
	broadcaster  Broadcaster
	voting       *VotingService
	logger       zerolog.Logger
}

func NewGameService(
	roomRepo repository.RoomRepo,
	questionRepo repository.QuestionRepo,
	settingsRepo repository.SettingsRepo,
	roomCache cache.RoomCache,
	leaderboard cache.LeaderboardCache,
	registry *ActiveGameRegistry,
	logger zerolog.Logger,
) *GameService {
	return &GameService{
		roomRepo:     roomRepo,
		questionRepo: questionRepo,
		settingsRepo: settingsRepo,
		roomCache:    roomCache,
		leaderboard:  leaderboard,
		registry:     registry,
		locks:        newRoomLocks(),
		broadcaster:  nopBroadcaster{},
		logger:       logger,
	}
}

// SetBroadcaster wires the WebSocket hub after construction.
func (s *GameService) SetBroadcaster(b Broadcaster) {
	s.broadcaster = b
}

// SetVotingService lets reset and delete clear any in-flight category vote.
func (s *GameService) SetVotingService(v *VotingService) {
	s.voting = v
}

// Registry exposes the active set for listings.
func (s *GameService) Registry() *ActiveGameRegistry {
	return s.registry
}

// CreateRoom creates a new waiting room with the host as its first player and
// seeds default game settings so the room is playable immediately.
func (s *GameService) CreateRoom(ctx context.Context, code, hostID, hostNickname string) (*model.Room, error) {
	lock := s.locks.get(code)
	lock.Lock()
	defer lock.Unlock()

	existing, err := s.roomRepo.GetByCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to check room code: %w", err)
	}
	if existing != nil {
		return nil, newError(KindConflict, "room %s already exists", code)
	}

	now := time.Now()
	room := &model.Room{
		Code:                 code,
		Status:               model.RoomWaiting,
		HostPlayerID:         hostID,
		Players:              []model.Player{{ID: hostID, Nickname: hostNickname, JoinedAt: now}},
		CurrentQuestionIndex: -1,
		CreatedAt:            now,
	}
	if err := s.roomRepo.Create(ctx, room); err != nil {
		return nil, fmt.Errorf("failed to create room: %w", err)
	}

	settings := &model.GameSettings{RoomCode: code, QuestionCount: 5}
	settings.Normalize()
	if err := s.settingsRepo.Save(ctx, settings); err != nil {
		return nil, fmt.Errorf("failed to save default settings: %w", err)
	}

	if err := s.roomCache.SetMeta(ctx, code, &cache.RoomMeta{
		Code:         code,
		Status:       room.Status,
		HostPlayerID: hostID,
		CreatedAt:    now,
	}); err != nil {
		return nil, fmt.Errorf("failed to cache room: %w", err)
	}

	if err := s.leaderboard.UpdateScore(ctx, code, hostID, 0); err != nil {
		return nil, fmt.Errorf("failed to init leaderboard: %w", err)
	}

	s.logger.Info().Str("room", code).Str("host", hostID).Msg("room created")
	return room, nil
}

// JoinRoom adds a player to the roster. Joining the same identity twice is a
// conflict; the existing membership is untouched.
func (s *GameService) JoinRoom(ctx context.Context, code, playerID, nickname string) (*model.Room, error) {
	lock := s.locks.get(code)
	lock.Lock()
	defer lock.Unlock()

	room, err := s.roomRepo.GetByCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to load room: %w", err)
	}
	if room == nil {
		return nil, errRoomNotFound(code)
	}
	if room.Status == model.RoomEnded {
		return nil, newError(KindStateError, "room %s has ended", code)
	}
	if room.HasPlayer(playerID) {
		return nil, newError(KindConflict, "player %s already in room", playerID)
	}

	now := time.Now()
	room.Players = append(room.Players, model.Player{ID: playerID, Nickname: nickname, JoinedAt: now})
	if err := s.roomRepo.Update(ctx, room); err != nil {
		return nil, fmt.Errorf("failed to save room: %w", err)
	}
	if err := s.leaderboard.UpdateScore(ctx, code, playerID, 0); err != nil {
		return nil, fmt.Errorf("failed to init leaderboard: %w", err)
	}

	s.broadcaster.BroadcastToRoom(code, model.EventPlayerJoined, model.PlayerJoinedEvent{
		PlayerID: playerID,
		Nickname: nickname,
		JoinedAt: now,
	})
	return room, nil
}

// RemovePlayer drops a player from the roster. Removing an absent player is a
// no-op, not an error.
func (s *GameService) RemovePlayer(ctx context.Context, code, playerID string) error {
	lock := s.locks.get(code)
	lock.Lock()
	defer lock.Unlock()

	room, err := s.roomRepo.GetByCode(ctx, code)
	if err != nil {
		return fmt.Errorf("failed to load room: %w", err)
	}
	if room == nil {
		return errRoomNotFound(code)
	}
	if !room.HasPlayer(playerID) {
		return nil
	}

	players := room.Players[:0]
	for _, p := range room.Players {
		if p.ID != playerID {
			players = append(players, p)
		}
	}
	room.Players = players
	if err := s.roomRepo.Update(ctx, room); err != nil {
		return fmt.Errorf("failed to save room: %w", err)
	}
	if err := s.leaderboard.Remove(ctx, code, playerID); err != nil {
		s.logger.Warn().Err(err).Str("room", code).Str("player", playerID).
			Msg("failed to drop leaderboard entry")
	}

	s.broadcaster.BroadcastToRoom(code, model.EventPlayerLeft, model.PlayerLeftEvent{PlayerID: playerID})
	return nil
}

// Start begins the game: loads settings, draws random questions and flips the
// room to live. A second start on a live room succeeds without side effect so
// duplicate requests from flaky clients are harmless. Failure leaves the room
// exactly as it was.
func (s *GameService) Start(ctx context.Context, code, callerID string) (*model.Room, error) {
	room, err := s.start(ctx, code, callerID)
	if err != nil && KindOf(err) != "" {
		// Start failures are caller-only; never leak them to the room.
		s.broadcaster.BroadcastToPlayer(code, callerID, model.EventGameStartFailed,
			model.GameStartFailedEvent{Reason: err.Error()})
	}
	return room, err
}

func (s *GameService) start(ctx context.Context, code, callerID string) (*model.Room, error) {
	lock := s.locks.get(code)
	lock.Lock()
	defer lock.Unlock()

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
	if room.Status == model.RoomLive {
		return room, nil // idempotent: duplicate start requests succeed
	}
	if room.Status == model.RoomEnded {
		return nil, newError(KindStateError, "room %s has ended; reset it to play again", code)
	}
	if len(room.Players) == 0 {
		return nil, newError(KindStateError, "at least one player required to start")
	}

	settings, err := s.settingsRepo.GetByRoomCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}
	if settings == nil {
		return nil, newError(KindInvalidArgument, "room %s has no game settings", code)
	}
	if settings.QuestionCount <= 0 {
		return nil, newError(KindInvalidArgument, "settings request %d questions", settings.QuestionCount)
	}

	questions, err := s.questionRepo.GetRandom(ctx, settings.QuestionCount, settings.Category, settings.Difficulty)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch questions: %w", err)
	}
	if len(questions) < settings.QuestionCount {
		return nil, errNotEnoughQuestions(settings.Category, settings.QuestionCount, len(questions))
	}

	if !s.registry.TryAdd(code) {
		// Registry says a game is already running; the status check above
		// makes this unreachable under the room lock, but keep the entry
		// consistent rather than trusting a stale mark.
		s.logger.Warn().Str("room", code).Msg("stale active mark on start")
	}

	now := time.Now()
	room.Questions = questions
	room.Answers = nil
	room.Status = model.RoomLive
	room.StartedAt = &now
	room.EndedAt = nil
	room.CurrentQuestionIndex = 0
	room.TimeLimitSeconds = settings.TimeLimitSeconds

	if err := s.roomRepo.Update(ctx, room); err != nil {
		s.registry.TryRemove(code)
		return nil, fmt.Errorf("failed to save room: %w", err)
	}
	if err := s.roomCache.SetStatus(ctx, code, model.RoomLive); err != nil {
		s.logger.Warn().Err(err).Str("room", code).Msg("failed to update cached status")
	}

	s.logger.Info().Str("room", code).Int("questions", len(questions)).Msg("game started")
	s.broadcaster.BroadcastToRoom(code, model.EventGameStarted, gameDetails(room))
	return room, nil
}

// AdvanceQuestion scores the current question, then either moves to the next
// one or finishes the game. The room lock serializes concurrent advances: the
// loser of the race observes the updated index and scores nothing twice.
func (s *GameService) AdvanceQuestion(ctx context.Context, code, callerID string) (*model.Room, bool, error) {
	lock := s.locks.get(code)
	lock.Lock()
	defer lock.Unlock()

	room, err := s.roomRepo.GetByCode(ctx, code)
	if err != nil {
		return nil, false, fmt.Errorf("failed to load room: %w", err)
	}
	if room == nil {
		return nil, false, errRoomNotFound(code)
	}
	if room.HostPlayerID != callerID {
		return nil, false, errNotHost()
	}
	if room.Status == model.RoomWaiting {
		return nil, false, newError(KindStateError, "game has not started")
	}
	if room.Status == model.RoomEnded {
		return nil, false, newError(KindStateError, "game already finished")
	}

	// Score before advancing, exactly once, with whatever answers exist now.
	scored := scoreCurrentQuestion(room)

	finished := room.CurrentQuestionIndex+1 >= len(room.Questions)
	if finished {
		now := time.Now()
		room.Status = model.RoomEnded
		room.EndedAt = &now
	} else {
		room.CurrentQuestionIndex++
	}

	if err := s.roomRepo.Update(ctx, room); err != nil {
		return nil, false, fmt.Errorf("failed to save room: %w", err)
	}

	for _, playerID := range scored {
		if p := room.PlayerByID(playerID); p != nil {
			if err := s.leaderboard.UpdateScore(ctx, code, playerID, p.Score); err != nil {
				s.logger.Warn().Err(err).Str("room", code).Str("player", playerID).
					Msg("failed to update leaderboard")
			}
		}
	}

	if finished {
		s.registry.TryRemove(code)
		if err := s.roomCache.SetStatus(ctx, code, model.RoomEnded); err != nil {
			s.logger.Warn().Err(err).Str("room", code).Msg("failed to update cached status")
		}
		s.logger.Info().Str("room", code).Msg("game finished")
		s.broadcaster.BroadcastToRoom(code, model.EventGameFinished, model.GameFinishedEvent{
			Code:        code,
			Leaderboard: leaderboard(room),
			EndedAt:     *room.EndedAt,
		})
	} else {
		s.broadcaster.BroadcastToRoom(code, model.EventNextQuestion, gameDetails(room))
	}
	return room, finished, nil
}

// SubmitAnswer records a raw answer for scoring at advance time. A second
// answer for the same (player, question) pair is rejected and the original is
// kept.
func (s *GameService) SubmitAnswer(ctx context.Context, code, playerID, questionID string, selected []int, timeLeft float64) error {
	lock := s.locks.get(code)
	lock.Lock()
	defer lock.Unlock()

	room, err := s.roomRepo.GetByCode(ctx, code)
	if err != nil {
		return fmt.Errorf("failed to load room: %w", err)
	}
	if room == nil {
		return errRoomNotFound(code)
	}
	if room.Status != model.RoomLive {
		return newError(KindStateError, "game is not in progress")
	}
	if !room.HasPlayer(playerID) {
		return newError(KindNotFound, "player %s not in room", playerID)
	}
	if room.QuestionByID(questionID) == nil {
		return newError(KindNotFound, "question %s not in this game", questionID)
	}
	if room.AnswerFor(playerID, questionID) != nil {
		return newError(KindConflict, "answer already submitted for this question")
	}

	now := time.Now()
	room.Answers = append(room.Answers, model.Answer{
		PlayerID:        playerID,
		QuestionID:      questionID,
		SelectedIndexes: selected,
		TimeLeftSeconds: clampTimeLeft(timeLeft),
		SubmittedAt:     now,
	})
	if err := s.roomRepo.Update(ctx, room); err != nil {
		return fmt.Errorf("failed to save room: %w", err)
	}

	s.broadcaster.BroadcastToRoom(code, model.EventAnswerSubmitted, model.AnswerSubmittedEvent{
		PlayerID:    playerID,
		QuestionID:  questionID,
		SubmittedAt: now,
	})
	return nil
}

// UpdateSettings replaces the room's game settings. Settings are frozen while
// a game is live.
func (s *GameService) UpdateSettings(ctx context.Context, code, callerID string, settings model.GameSettings) (*model.GameSettings, error) {
	lock := s.locks.get(code)
	lock.Lock()
	defer lock.Unlock()

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
	if room.Status == model.RoomLive {
		return nil, newError(KindStateError, "settings cannot change while a game is in progress")
	}

	settings.RoomCode = code
	settings.Normalize()
	if err := s.settingsRepo.Save(ctx, &settings); err != nil {
		return nil, fmt.Errorf("failed to save settings: %w", err)
	}
	return &settings, nil
}

// GetSettings loads the room's current settings.
func (s *GameService) GetSettings(ctx context.Context, code string) (*model.GameSettings, error) {
	settings, err := s.settingsRepo.GetByRoomCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}
	if settings == nil {
		return nil, errRoomNotFound(code)
	}
	return settings, nil
}

// Reset returns a finished room to the waiting state with the same roster:
// questions, answers and votes cleared, every score zeroed.
func (s *GameService) Reset(ctx context.Context, code, callerID string) (*model.Room, error) {
	lock := s.locks.get(code)
	lock.Lock()
	defer lock.Unlock()

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
	if room.Status != model.RoomEnded {
		return nil, newError(KindStateError, "only a finished game can be reset")
	}

	room.Status = model.RoomWaiting
	room.Questions = nil
	room.Answers = nil
	room.CurrentQuestionIndex = -1
	room.StartedAt = nil
	room.EndedAt = nil
	room.TimeLimitSeconds = 0
	for i := range room.Players {
		room.Players[i].Score = 0
	}

	if err := s.roomRepo.Update(ctx, room); err != nil {
		return nil, fmt.Errorf("failed to save room: %w", err)
	}

	if err := s.leaderboard.Reset(ctx, code); err != nil {
		s.logger.Warn().Err(err).Str("room", code).Msg("failed to reset leaderboard")
	}
	for _, p := range room.Players {
		if err := s.leaderboard.UpdateScore(ctx, code, p.ID, 0); err != nil {
			s.logger.Warn().Err(err).Str("room", code).Str("player", p.ID).
				Msg("failed to reseed leaderboard")
		}
	}
	if err := s.roomCache.SetStatus(ctx, code, model.RoomWaiting); err != nil {
		s.logger.Warn().Err(err).Str("room", code).Msg("failed to update cached status")
	}
	s.registry.TryRemove(code)
	if s.voting != nil {
		s.voting.Clear(code)
	}

	s.logger.Info().Str("room", code).Msg("room reset")
	s.broadcaster.BroadcastToRoom(code, model.EventGameReset, gameDetails(room))
	return room, nil
}

// DeleteRoom removes the room and everything attached to it.
func (s *GameService) DeleteRoom(ctx context.Context, code, callerID string) error {
	lock := s.locks.get(code)
	lock.Lock()
	defer lock.Unlock()

	room, err := s.roomRepo.GetByCode(ctx, code)
	if err != nil {
		return fmt.Errorf("failed to load room: %w", err)
	}
	if room == nil {
		return errRoomNotFound(code)
	}
	if room.HostPlayerID != callerID {
		return errNotHost()
	}

	if err := s.roomRepo.Delete(ctx, code); err != nil {
		return fmt.Errorf("failed to delete room: %w", err)
	}
	if err := s.settingsRepo.Delete(ctx, code); err != nil {
		s.logger.Warn().Err(err).Str("room", code).Msg("failed to delete settings")
	}
	if err := s.roomCache.Delete(ctx, code); err != nil {
		s.logger.Warn().Err(err).Str("room", code).Msg("failed to drop cached meta")
	}
	if err := s.leaderboard.Reset(ctx, code); err != nil {
		s.logger.Warn().Err(err).Str("room", code).Msg("failed to drop leaderboard")
	}
	s.registry.TryRemove(code)
	if s.voting != nil {
		s.voting.Clear(code)
	}

	s.broadcaster.DisconnectRoom(code)
	s.logger.Info().Str("room", code).Msg("room deleted")
	return nil
}

// GetRoom loads a room, translating absence into a NotFound rejection.
func (s *GameService) GetRoom(ctx context.Context, code string) (*model.Room, error) {
	room, err := s.roomRepo.GetByCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to load room: %w", err)
	}
	if room == nil {
		return nil, errRoomNotFound(code)
	}
	return room, nil
}

// Leaderboard returns the room's ranking computed from the aggregate.
func (s *GameService) Leaderboard(ctx context.Context, code string) ([]model.LeaderboardEntry, error) {
	room, err := s.GetRoom(ctx, code)
	if err != nil {
		return nil, err
	}
	return leaderboard(room), nil
}

// GenerateRoomCode creates a 6-char human-shareable code, retrying on the
// rare cache collision.
func (s *GameService) GenerateRoomCode(ctx context.Context) (string, error) {
	const chars = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	const codeLen = 6

	for attempts := 0; attempts < 10; attempts++ {
		b := make([]byte, codeLen)
		if _, err := rand.Read(b); err != nil {
			return "", err
		}
		code := make([]byte, codeLen)
		for i := range code {
			code[i] = chars[int(b[i])%len(chars)]
		}
		codeStr := string(code)

		exists, err := s.roomCache.Exists(ctx, codeStr)
		if err != nil {
			return "", err
		}
		if !exists {
			return codeStr, nil
		}
	}
	return "", fmt.Errorf("failed to generate unique room code")
}

// gameDetails builds the broadcast snapshot. The current question is copied
// with its correct indexes stripped so clients cannot read the answer key.
func gameDetails(room *model.Room) model.GameDetails {
	details := model.GameDetails{
		Code:                 room.Code,
		Status:               room.Status,
		HostPlayerID:         room.HostPlayerID,
		Players:              room.Players,
		CurrentQuestionIndex: room.CurrentQuestionIndex,
		QuestionCount:        len(room.Questions),
		TimeLimitSeconds:     room.TimeLimitSeconds,
	}
	if q := room.CurrentQuestion(); q != nil {
		sanitized := *q
		sanitized.CorrectIndexes = nil
		details.CurrentQuestion = &sanitized
	}
	return details
}
