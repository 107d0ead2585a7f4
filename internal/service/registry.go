package service

import "sync"

// ActiveGameRegistry is the process-wide set of rooms with a game in
// progress. It is consulted before any room-level lock exists, so it must be
// safe on its own; sync.Map gives atomic add-if-absent without holding a lock
// across anything else.
type ActiveGameRegistry struct {
	rooms sync.Map
}

func NewActiveGameRegistry() *ActiveGameRegistry {
	return &ActiveGameRegistry{}
}

// TryAdd marks a room active. It returns false when the room was already
// active, which doubles as the guard against concurrent double-starts.
func (r *ActiveGameRegistry) TryAdd(roomCode string) bool {
	_, loaded := r.rooms.LoadOrStore(roomCode, struct{}{})
	return !loaded
}

// TryRemove clears the active mark, reporting whether it was present.
func (r *ActiveGameRegistry) TryRemove(roomCode string) bool {
	_, loaded := r.rooms.LoadAndDelete(roomCode)
	return loaded
}

func (r *ActiveGameRegistry) IsActive(roomCode string) bool {
	_, ok := r.rooms.Load(roomCode)
	return ok
}

func (r *ActiveGameRegistry) ListActive() []string {
	var codes []string
	r.rooms.Range(func(key, _ any) bool {
		codes = append(codes, key.(string))
		return true
	})
	return codes
}
