package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trivialive/internal/model"
)

func newVotingEnv(t *testing.T) (*testEnv, context.Context) {
	t.Helper()
	env := newTestEnv(t)
	ctx := context.Background()
	_, err := env.svc.CreateRoom(ctx, "R1", "h1", "Alice")
	require.NoError(t, err)
	for _, p := range []string{"p2", "p3", "p4"} {
		_, err := env.svc.JoinRoom(ctx, "R1", p, p)
		require.NoError(t, err)
	}
	return env, ctx
}

func TestStartVoting(t *testing.T) {
	t.Parallel()
	env, ctx := newVotingEnv(t)

	_, err := env.voting.StartVoting(ctx, "R1", "p2", []string{"History"})
	assert.Equal(t, KindForbidden, KindOf(err), "only the host may start a vote")

	_, err = env.voting.StartVoting(ctx, "R1", "h1", nil)
	assert.Equal(t, KindInvalidArgument, KindOf(err), "empty candidate list")

	state, err := env.voting.StartVoting(ctx, "R1", "h1", []string{"History", "Science", "History"})
	require.NoError(t, err)
	assert.Equal(t, []string{"History", "Science"}, state.Candidates, "candidates deduplicated")
	assert.Equal(t, 1, state.Round)

	_, err = env.voting.StartVoting(ctx, "R1", "h1", []string{"Art"})
	assert.Equal(t, KindStateError, KindOf(err), "a vote is already running")

	started := env.bc.byEvent(model.EventCategoryVotingStarted)
	require.Len(t, started, 1)
	assert.Equal(t, 60, started[0].Payload.(model.CategoryVotingStartedEvent).DurationSeconds)
}

func TestSubmitVote(t *testing.T) {
	t.Parallel()
	env, ctx := newVotingEnv(t)

	err := env.voting.SubmitVote(ctx, "R1", "p2", "History")
	assert.Equal(t, KindStateError, KindOf(err), "no vote in progress")

	_, err = env.voting.StartVoting(ctx, "R1", "h1", []string{"History", "Science"})
	require.NoError(t, err)

	err = env.voting.SubmitVote(ctx, "R1", "p2", "Art")
	assert.Equal(t, KindInvalidArgument, KindOf(err), "not a candidate")

	require.NoError(t, env.voting.SubmitVote(ctx, "R1", "p2", "History"))
	require.NoError(t, env.voting.SubmitVote(ctx, "R1", "p2", "Science"), "revoting is allowed")

	state := env.voting.State("R1")
	require.NotNil(t, state)
	assert.Equal(t, map[string]int{"History": 0, "Science": 1}, state.Tally())

	updates := env.bc.byEvent(model.EventCategoryVoteUpdated)
	require.Len(t, updates, 2)
	assert.Equal(t, map[string]int{"History": 0, "Science": 1},
		updates[1].Payload.(model.CategoryVoteUpdatedEvent).Tally)
}

func TestEndVoting_NoVotes(t *testing.T) {
	t.Parallel()
	env, ctx := newVotingEnv(t)
	_, err := env.voting.StartVoting(ctx, "R1", "h1", []string{"History", "Science"})
	require.NoError(t, err)

	result, err := env.voting.EndVoting(ctx, "R1", "h1")
	require.NoError(t, err)
	assert.Nil(t, result.WinningCategory)
	assert.False(t, result.IsFinal)
	assert.Nil(t, env.voting.State("R1"), "abandoned vote leaves no state behind")

	ended := env.bc.byEvent(model.EventCategoryVotingEnded)
	require.Len(t, ended, 1)
	payload := ended[0].Payload.(model.CategoryVotingFinishedEvent)
	assert.Nil(t, payload.WinningCategory)
	assert.False(t, payload.IsFinal)
}

func TestEndVoting_UniqueWinnerAppliedToSettings(t *testing.T) {
	t.Parallel()
	env, ctx := newVotingEnv(t)
	_, err := env.svc.UpdateSettings(ctx, "R1", "h1", model.GameSettings{
		Category: "Geography", Difficulty: "hard", QuestionCount: 7, TimeLimitSeconds: 20,
	})
	require.NoError(t, err)

	_, err = env.voting.StartVoting(ctx, "R1", "h1", []string{"History", "Science"})
	require.NoError(t, err)
	require.NoError(t, env.voting.SubmitVote(ctx, "R1", "p2", "History"))
	require.NoError(t, env.voting.SubmitVote(ctx, "R1", "p3", "History"))
	require.NoError(t, env.voting.SubmitVote(ctx, "R1", "p4", "Science"))

	result, err := env.voting.EndVoting(ctx, "R1", "h1")
	require.NoError(t, err)
	require.NotNil(t, result.WinningCategory)
	assert.Equal(t, "History", *result.WinningCategory)
	assert.True(t, result.IsFinal)
	assert.False(t, result.IsTie)
	assert.Nil(t, env.voting.State("R1"))

	// Only the category changes; everything else is carried over.
	settings, err := env.svc.GetSettings(ctx, "R1")
	require.NoError(t, err)
	assert.Equal(t, "History", settings.Category)
	assert.Equal(t, "hard", settings.Difficulty)
	assert.Equal(t, 7, settings.QuestionCount)
	assert.Equal(t, 20, settings.TimeLimitSeconds)
}

func TestEndVoting_TieStartsRevote(t *testing.T) {
	t.Parallel()
	env, ctx := newVotingEnv(t)
	_, err := env.voting.StartVoting(ctx, "R1", "h1", []string{"History", "Science", "Art"})
	require.NoError(t, err)
	require.NoError(t, env.voting.SubmitVote(ctx, "R1", "p2", "History"))
	require.NoError(t, env.voting.SubmitVote(ctx, "R1", "p3", "Science"))
	require.NoError(t, env.voting.SubmitVote(ctx, "R1", "p4", "Science"))
	require.NoError(t, env.voting.SubmitVote(ctx, "R1", "h1", "History"))

	result, err := env.voting.EndVoting(ctx, "R1", "h1")
	require.NoError(t, err)
	assert.True(t, result.RevoteStarted)
	assert.False(t, result.IsFinal)

	state := env.voting.State("R1")
	require.NotNil(t, state)
	assert.Equal(t, 2, state.Round)
	assert.ElementsMatch(t, []string{"History", "Science"}, state.Candidates)
	assert.NotContains(t, state.Candidates, "Art", "art lost round 1")
	assert.Empty(t, state.PlayerVotes, "round-1 votes cleared")

	revotes := env.bc.byEvent(model.EventCategoryRevoteStarted)
	require.Len(t, revotes, 1)
	assert.ElementsMatch(t, []string{"History", "Science"}, revotes[0].Payload.(model.CategoryVotingStartedEvent).Candidates)
}

func TestEndVoting_RevoteTieHostVoteWins(t *testing.T) {
	t.Parallel()
	env, ctx := newVotingEnv(t)
	_, err := env.voting.StartVoting(ctx, "R1", "h1", []string{"History", "Science"})
	require.NoError(t, err)
	require.NoError(t, env.voting.SubmitVote(ctx, "R1", "p2", "History"))
	require.NoError(t, env.voting.SubmitVote(ctx, "R1", "p3", "Science"))

	result, err := env.voting.EndVoting(ctx, "R1", "h1")
	require.NoError(t, err)
	require.True(t, result.RevoteStarted)

	// Round 2 ties again, but the host backed Science.
	require.NoError(t, env.voting.SubmitVote(ctx, "R1", "p2", "History"))
	require.NoError(t, env.voting.SubmitVote(ctx, "R1", "h1", "Science"))
	require.NoError(t, env.voting.SubmitVote(ctx, "R1", "p3", "Science"))
	require.NoError(t, env.voting.SubmitVote(ctx, "R1", "p4", "History"))

	result, err = env.voting.EndVoting(ctx, "R1", "h1")
	require.NoError(t, err)
	require.NotNil(t, result.WinningCategory)
	assert.Equal(t, "Science", *result.WinningCategory)
	assert.True(t, result.IsTie)
	assert.True(t, result.IsFinal)
	assert.Nil(t, env.voting.State("R1"))

	ended := env.bc.byEvent(model.EventCategoryVotingEnded)
	require.Len(t, ended, 1)
	payload := ended[0].Payload.(model.CategoryVotingFinishedEvent)
	assert.True(t, payload.IsTie)
	assert.True(t, payload.IsFinal)
}

func TestEndVoting_RevoteTieWithoutHostVoteFallsBackAlphabetical(t *testing.T) {
	t.Parallel()
	env, ctx := newVotingEnv(t)
	_, err := env.voting.StartVoting(ctx, "R1", "h1", []string{"Science", "History"})
	require.NoError(t, err)
	require.NoError(t, env.voting.SubmitVote(ctx, "R1", "p2", "Science"))
	require.NoError(t, env.voting.SubmitVote(ctx, "R1", "p3", "History"))

	result, err := env.voting.EndVoting(ctx, "R1", "h1")
	require.NoError(t, err)
	require.True(t, result.RevoteStarted)

	require.NoError(t, env.voting.SubmitVote(ctx, "R1", "p2", "Science"))
	require.NoError(t, env.voting.SubmitVote(ctx, "R1", "p3", "History"))

	result, err = env.voting.EndVoting(ctx, "R1", "h1")
	require.NoError(t, err)
	require.NotNil(t, result.WinningCategory)
	assert.Equal(t, "History", *result.WinningCategory, "alphabetical-first among the tied categories")
	assert.True(t, result.IsTie)
	assert.True(t, result.IsFinal)
}

func TestVotingClearedByReset(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	ctx := context.Background()
	env.createStartedRoom(t, "R1", "h1", 2)

	_, _, err := env.svc.AdvanceQuestion(ctx, "R1", "h1")
	require.NoError(t, err)
	_, finished, err := env.svc.AdvanceQuestion(ctx, "R1", "h1")
	require.NoError(t, err)
	require.True(t, finished)

	_, err = env.voting.StartVoting(ctx, "R1", "h1", []string{"History", "Science"})
	require.NoError(t, err)

	_, err = env.svc.Reset(ctx, "R1", "h1")
	require.NoError(t, err)
	assert.Nil(t, env.voting.State("R1"), "reset clears any in-flight vote")
}
