package handler

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"trivialive/internal/cache"
	"trivialive/internal/model"
	"trivialive/internal/service"
	"trivialive/internal/transport/rest/middleware"
)

// RoomHandler handles room lifecycle endpoints.
type RoomHandler struct {
	gameSvc     *service.GameService
	votingSvc   *service.VotingService
	authSvc     *service.AuthService
	leaderboard cache.LeaderboardCache
}

func NewRoomHandler(gameSvc *service.GameService, votingSvc *service.VotingService, authSvc *service.AuthService, leaderboard cache.LeaderboardCache) *RoomHandler {
	return &RoomHandler{
		gameSvc:     gameSvc,
		votingSvc:   votingSvc,
		authSvc:     authSvc,
		leaderboard: leaderboard,
	}
}

// CreateRoomRequest is the request body for creating a room.
type CreateRoomRequest struct {
	Nickname string `json:"nickname"`
}

// Create handles POST /v1/rooms
func (h *RoomHandler) Create(w http.ResponseWriter, r *http.Request) {
	hostID := middleware.GetHostID(r.Context())
	if hostID == "" {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req CreateRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Nickname == "" {
		req.Nickname = "Host"
	}

	code, err := h.gameSvc.GenerateRoomCode(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	room, err := h.gameSvc.CreateRoom(r.Context(), code, hostID, req.Nickname)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, room)
}

// JoinRoomRequest is the request body for joining a room.
type JoinRoomRequest struct {
	Nickname string `json:"nickname"`
}

// JoinRoomResponse carries the new player's identity and room token.
type JoinRoomResponse struct {
	PlayerID string      `json:"playerId"`
	Token    string      `json:"token"`
	Room     *model.Room `json:"room"`
}

// Join handles POST /v1/rooms/{code}/join
func (h *RoomHandler) Join(w http.ResponseWriter, r *http.Request) {
	code := mux.Vars(r)["code"]

	var req JoinRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Nickname == "" {
		writeError(w, http.StatusBadRequest, "nickname required")
		return
	}

	playerID := "p_" + uuid.New().String()[:8]
	room, err := h.gameSvc.JoinRoom(r.Context(), code, playerID, req.Nickname)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	token, err := h.authSvc.GeneratePlayerToken(code, playerID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to generate token")
		return
	}

	writeJSON(w, http.StatusOK, JoinRoomResponse{
		PlayerID: playerID,
		Token:    token,
		Room:     room,
	})
}

// Get handles GET /v1/rooms/{code}
func (h *RoomHandler) Get(w http.ResponseWriter, r *http.Request) {
	code := mux.Vars(r)["code"]

	room, err := h.gameSvc.GetRoom(r.Context(), code)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, room)
}

// Start handles POST /v1/rooms/{code}/start
func (h *RoomHandler) Start(w http.ResponseWriter, r *http.Request) {
	code := mux.Vars(r)["code"]
	hostID := middleware.GetHostID(r.Context())

	room, err := h.gameSvc.Start(r.Context(), code, hostID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, room)
}

// Advance handles POST /v1/rooms/{code}/advance
func (h *RoomHandler) Advance(w http.ResponseWriter, r *http.Request) {
	code := mux.Vars(r)["code"]
	hostID := middleware.GetHostID(r.Context())

	room, finished, err := h.gameSvc.AdvanceQuestion(r.Context(), code, hostID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"finished": finished,
		"room":     room,
	})
}

// Reset handles POST /v1/rooms/{code}/reset
func (h *RoomHandler) Reset(w http.ResponseWriter, r *http.Request) {
	code := mux.Vars(r)["code"]
	hostID := middleware.GetHostID(r.Context())

	room, err := h.gameSvc.Reset(r.Context(), code, hostID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, room)
}

// Delete handles DELETE /v1/rooms/{code}
func (h *RoomHandler) Delete(w http.ResponseWriter, r *http.Request) {
	code := mux.Vars(r)["code"]
	hostID := middleware.GetHostID(r.Context())

	if err := h.gameSvc.DeleteRoom(r.Context(), code, hostID); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetSettings handles GET /v1/rooms/{code}/settings
func (h *RoomHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	code := mux.Vars(r)["code"]

	settings, err := h.gameSvc.GetSettings(r.Context(), code)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

// UpdateSettings handles PUT /v1/rooms/{code}/settings
func (h *RoomHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	code := mux.Vars(r)["code"]
	hostID := middleware.GetHostID(r.Context())

	var settings model.GameSettings
	if err := json.NewDecoder(r.Body).Decode(&settings); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	updated, err := h.gameSvc.UpdateSettings(r.Context(), code, hostID, settings)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// Leaderboard handles GET /v1/rooms/{code}/leaderboard
func (h *RoomHandler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	code := mux.Vars(r)["code"]

	// Ranks come from the Redis ZSET; nicknames from the aggregate.
	room, err := h.gameSvc.GetRoom(r.Context(), code)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	entries, err := h.leaderboard.GetTop(r.Context(), code, len(room.Players))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	out := make([]model.LeaderboardEntry, len(entries))
	for i, e := range entries {
		out[i] = model.LeaderboardEntry{
			PlayerID: e.PlayerID,
			Score:    e.Score,
			Rank:     e.Rank,
		}
		if p := room.PlayerByID(e.PlayerID); p != nil {
			out[i].Nickname = p.Nickname
		}
	}
	writeJSON(w, http.StatusOK, out)
}

// ListActive handles GET /v1/rooms/active
func (h *RoomHandler) ListActive(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]string{
		"active": h.gameSvc.Registry().ListActive(),
	})
}

// Voting returns the in-flight vote state, if any.
// Handles GET /v1/rooms/{code}/voting
func (h *RoomHandler) Voting(w http.ResponseWriter, r *http.Request) {
	code := mux.Vars(r)["code"]

	state := h.votingSvc.State(code)
	if state == nil {
		writeError(w, http.StatusNotFound, "no vote in progress")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"candidates": state.Candidates,
		"round":      state.Round,
		"tally":      state.Tally(),
	})
}
