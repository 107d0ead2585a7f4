package ws

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"trivialive/internal/service"
)

// Client actions accepted over the room channel.
const (
	actionStartGame       = "start_game"
	actionAdvanceQuestion = "advance_question"
	actionSubmitAnswer    = "submit_answer"
	actionStartVoting     = "start_voting"
	actionSubmitVote      = "submit_vote"
	actionEndVoting       = "end_voting"
	actionLeave           = "leave"
)

type clientAction struct {
	Action  string          `json:"action"`
	Payload json.RawMessage `json:"payload"`
}

type submitAnswerPayload struct {
	QuestionID      string  `json:"questionId"`
	SelectedIndexes []int   `json:"selectedIndexes"`
	TimeLeftSeconds float64 `json:"timeLeftSeconds"`
}

type startVotingPayload struct {
	Categories []string `json:"categories"`
}

type submitVotePayload struct {
	Category string `json:"category"`
}

type errorFrame struct {
	Action string `json:"action"`
	Kind   string `json:"kind"`
	Reason string `json:"reason"`
	Detail any    `json:"detail,omitempty"`
}

// dispatch routes one inbound frame to the engine or coordinator. Rejections
// go back to the acting connection only; committed mutations broadcast
// through the services themselves.
func (h *Handler) dispatch(conn *Connection, data []byte) {
	var action clientAction
	if err := json.Unmarshal(data, &action); err != nil {
		h.sendError(conn, "", service.KindInvalidArgument, "malformed frame", nil)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var err error
	switch action.Action {
	case actionStartGame:
		_, err = h.gameSvc.Start(ctx, conn.RoomCode, conn.PlayerID)

	case actionAdvanceQuestion:
		_, _, err = h.gameSvc.AdvanceQuestion(ctx, conn.RoomCode, conn.PlayerID)

	case actionSubmitAnswer:
		var p submitAnswerPayload
		if err = json.Unmarshal(action.Payload, &p); err != nil {
			h.sendError(conn, action.Action, service.KindInvalidArgument, "malformed payload", nil)
			return
		}
		err = h.gameSvc.SubmitAnswer(ctx, conn.RoomCode, conn.PlayerID, p.QuestionID, p.SelectedIndexes, p.TimeLeftSeconds)

	case actionStartVoting:
		var p startVotingPayload
		if err = json.Unmarshal(action.Payload, &p); err != nil {
			h.sendError(conn, action.Action, service.KindInvalidArgument, "malformed payload", nil)
			return
		}
		if _, err = h.votingSvc.StartVoting(ctx, conn.RoomCode, conn.PlayerID, p.Categories); err == nil {
			h.scheduleVoteDeadline(conn.RoomCode, conn.PlayerID)
		}

	case actionSubmitVote:
		var p submitVotePayload
		if err = json.Unmarshal(action.Payload, &p); err != nil {
			h.sendError(conn, action.Action, service.KindInvalidArgument, "malformed payload", nil)
			return
		}
		err = h.votingSvc.SubmitVote(ctx, conn.RoomCode, conn.PlayerID, p.Category)

	case actionEndVoting:
		err = h.endVoting(ctx, conn.RoomCode, conn.PlayerID)

	case actionLeave:
		err = h.gameSvc.RemovePlayer(ctx, conn.RoomCode, conn.PlayerID)

	default:
		h.sendError(conn, action.Action, service.KindInvalidArgument, "unknown action", nil)
		return
	}

	if err != nil {
		kind := service.KindOf(err)
		var detail any
		var svcErr *service.Error
		if errors.As(err, &svcErr) {
			detail = svcErr.Detail
		}
		h.sendError(conn, action.Action, kind, err.Error(), detail)
	}
}

// endVoting resolves the vote and, when a revote begins, rearms the deadline
// timer for the new round.
func (h *Handler) endVoting(ctx context.Context, roomCode, callerID string) error {
	h.timers.cancel(roomCode)
	result, err := h.votingSvc.EndVoting(ctx, roomCode, callerID)
	if err != nil {
		return err
	}
	if result.RevoteStarted {
		h.scheduleVoteDeadline(roomCode, callerID)
	}
	return nil
}

// scheduleVoteDeadline arms a wall-clock timer that resolves the vote when
// its duration elapses; the coordinator itself never blocks on timers.
func (h *Handler) scheduleVoteDeadline(roomCode, hostID string) {
	state := h.votingSvc.State(roomCode)
	if state == nil {
		return
	}
	h.timers.set(roomCode, time.AfterFunc(state.Duration, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := h.endVoting(ctx, roomCode, hostID); err != nil {
			// Already resolved by the host; nothing to do.
			h.logger.Debug().Err(err).Str("room", roomCode).Msg("vote deadline no-op")
		}
	}))
}

func (h *Handler) sendError(conn *Connection, action string, kind service.ErrorKind, reason string, detail any) {
	h.hub.BroadcastToPlayer(conn.RoomCode, conn.PlayerID, "error", errorFrame{
		Action: action,
		Kind:   string(kind),
		Reason: reason,
		Detail: detail,
	})
}

// voteTimers tracks the pending deadline timer per room.
type voteTimers struct {
	mu     sync.Mutex
	timers map[string]*time.Timer
}

func newVoteTimers() *voteTimers {
	return &voteTimers{timers: make(map[string]*time.Timer)}
}

func (t *voteTimers) set(roomCode string, timer *time.Timer) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if old, ok := t.timers[roomCode]; ok {
		old.Stop()
	}
	t.timers[roomCode] = timer
}

func (t *voteTimers) cancel(roomCode string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if timer, ok := t.timers[roomCode]; ok {
		timer.Stop()
		delete(t.timers, roomCode)
	}
}
