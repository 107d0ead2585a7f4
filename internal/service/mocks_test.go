package service

import (
	"context"
	"sync"

	"trivialive/internal/cache"
	"trivialive/internal/model"
)

// --- RoomRepo ---

type fakeRoomRepo struct {
	mu    sync.Mutex
	rooms map[string]*model.Room
}

func newFakeRoomRepo() *fakeRoomRepo {
	return &fakeRoomRepo{rooms: make(map[string]*model.Room)}
}

func (f *fakeRoomRepo) clone(room *model.Room) *model.Room {
	copied := *room
	copied.Players = append([]model.Player(nil), room.Players...)
	copied.Questions = append([]model.Question(nil), room.Questions...)
	copied.Answers = append([]model.Answer(nil), room.Answers...)
	return &copied
}

func (f *fakeRoomRepo) Create(_ context.Context, room *model.Room) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rooms[room.Code] = f.clone(room)
	return nil
}

func (f *fakeRoomRepo) GetByCode(_ context.Context, code string) (*model.Room, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	room, ok := f.rooms[code]
	if !ok {
		return nil, nil
	}
	return f.clone(room), nil
}

func (f *fakeRoomRepo) Update(_ context.Context, room *model.Room) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rooms[room.Code] = f.clone(room)
	return nil
}

func (f *fakeRoomRepo) Delete(_ context.Context, code string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.rooms, code)
	return nil
}

// --- QuestionRepo ---

type fakeQuestionRepo struct {
	mu        sync.Mutex
	questions []model.Question
	calls     int
}

func (f *fakeQuestionRepo) Create(_ context.Context, q *model.Question) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.questions = append(f.questions, *q)
	return nil
}

func (f *fakeQuestionRepo) GetByID(_ context.Context, id string) (*model.Question, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, q := range f.questions {
		if q.ID == id {
			return &q, nil
		}
	}
	return nil, nil
}

func (f *fakeQuestionRepo) GetByCategory(_ context.Context, category string) ([]model.Question, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Question
	for _, q := range f.questions {
		if q.Category == category {
			out = append(out, q)
		}
	}
	return out, nil
}

func (f *fakeQuestionRepo) GetRandom(_ context.Context, count int, category, difficulty string) ([]model.Question, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	var out []model.Question
	for _, q := range f.questions {
		if category != "" && q.Category != category {
			continue
		}
		if difficulty != "" && q.Difficulty != difficulty {
			continue
		}
		out = append(out, q)
		if len(out) == count {
			break
		}
	}
	return out, nil
}

// --- SettingsRepo ---

type fakeSettingsRepo struct {
	mu       sync.Mutex
	settings map[string]*model.GameSettings
}

func newFakeSettingsRepo() *fakeSettingsRepo {
	return &fakeSettingsRepo{settings: make(map[string]*model.GameSettings)}
}

func (f *fakeSettingsRepo) GetByRoomCode(_ context.Context, roomCode string) (*model.GameSettings, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.settings[roomCode]
	if !ok {
		return nil, nil
	}
	copied := *s
	return &copied, nil
}

func (f *fakeSettingsRepo) Save(_ context.Context, settings *model.GameSettings) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := *settings
	f.settings[settings.RoomCode] = &copied
	return nil
}

func (f *fakeSettingsRepo) Delete(_ context.Context, roomCode string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.settings, roomCode)
	return nil
}

// --- RoomCache ---

type fakeRoomCache struct {
	mu    sync.Mutex
	metas map[string]*cache.RoomMeta
}

func newFakeRoomCache() *fakeRoomCache {
	return &fakeRoomCache{metas: make(map[string]*cache.RoomMeta)}
}

func (f *fakeRoomCache) SetMeta(_ context.Context, code string, meta *cache.RoomMeta) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := *meta
	f.metas[code] = &copied
	return nil
}

func (f *fakeRoomCache) GetMeta(_ context.Context, code string) (*cache.RoomMeta, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	meta, ok := f.metas[code]
	if !ok {
		return nil, nil
	}
	copied := *meta
	return &copied, nil
}

func (f *fakeRoomCache) SetStatus(_ context.Context, code string, status model.RoomStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if meta, ok := f.metas[code]; ok {
		meta.Status = status
	}
	return nil
}

func (f *fakeRoomCache) Delete(_ context.Context, code string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.metas, code)
	return nil
}

func (f *fakeRoomCache) Exists(_ context.Context, code string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.metas[code]
	return ok, nil
}

// --- LeaderboardCache ---

type fakeLeaderboard struct {
	mu     sync.Mutex
	scores map[string]map[string]int // roomCode -> playerID -> score
}

func newFakeLeaderboard() *fakeLeaderboard {
	return &fakeLeaderboard{scores: make(map[string]map[string]int)}
}

func (f *fakeLeaderboard) UpdateScore(_ context.Context, roomCode, playerID string, score int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.scores[roomCode] == nil {
		f.scores[roomCode] = make(map[string]int)
	}
	f.scores[roomCode][playerID] = score
	return nil
}

func (f *fakeLeaderboard) Remove(_ context.Context, roomCode, playerID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.scores[roomCode], playerID)
	return nil
}

func (f *fakeLeaderboard) GetTop(_ context.Context, roomCode string, limit int) ([]cache.Entry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var entries []cache.Entry
	for id, score := range f.scores[roomCode] {
		entries = append(entries, cache.Entry{PlayerID: id, Score: score})
	}
	return entries, nil
}

func (f *fakeLeaderboard) GetRank(_ context.Context, roomCode, playerID string) (int64, error) {
	return -1, nil
}

func (f *fakeLeaderboard) Reset(_ context.Context, roomCode string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.scores, roomCode)
	return nil
}

func (f *fakeLeaderboard) score(roomCode, playerID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.scores[roomCode][playerID]
}

func (f *fakeLeaderboard) has(roomCode, playerID string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.scores[roomCode][playerID]
	return ok
}

// --- Broadcaster ---

type broadcastRecord struct {
	RoomCode string
	PlayerID string // empty for room-wide events
	Event    string
	Payload  any
}

type recordingBroadcaster struct {
	mu     sync.Mutex
	events []broadcastRecord
}

func (b *recordingBroadcaster) BroadcastToRoom(roomCode, event string, payload any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, broadcastRecord{RoomCode: roomCode, Event: event, Payload: payload})
}

func (b *recordingBroadcaster) BroadcastToPlayer(roomCode, playerID, event string, payload any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, broadcastRecord{RoomCode: roomCode, PlayerID: playerID, Event: event, Payload: payload})
}

func (b *recordingBroadcaster) DisconnectRoom(roomCode string) {}

func (b *recordingBroadcaster) byEvent(event string) []broadcastRecord {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []broadcastRecord
	for _, rec := range b.events {
		if rec.Event == event {
			out = append(out, rec)
		}
	}
	return out
}

func (b *recordingBroadcaster) last() *broadcastRecord {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.events) == 0 {
		return nil
	}
	rec := b.events[len(b.events)-1]
	return &rec
}
