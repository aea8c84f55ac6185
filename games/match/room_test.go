/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package match

import (
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Seednode/kanarace/games/romaji"
)

func TestCountdownSequence(t *testing.T) {
	h := newHarness(t, Options{})
	r := h.lobby(t)

	require.NoError(t, h.g.Dispatch("host", StartGame{RoomID: r.ID()}))
	assert.Equal(t, StatusCountdown, r.State().Status)

	starting := h.rec.events("guest", "gameStarting")
	require.Len(t, starting, 1)
	assert.Equal(t, 3, starting[0].(GameStarting).Count)
	assert.Len(t, starting[0].(GameStarting).Players, 2)

	h.advance(t, time.Second)
	h.waitCount(t, "guest", "countdown", 1)

	h.advance(t, time.Second)
	h.waitCount(t, "guest", "countdown", 2)

	assert.Zero(t, h.rec.count("guest", "newWord"))

	h.advance(t, time.Second)
	h.waitCount(t, "guest", "newWord", 1)

	counts := h.rec.events("guest", "countdown")
	assert.Equal(t, 2, counts[0].(Countdown).Count)
	assert.Equal(t, 1, counts[1].(Countdown).Count)

	word := h.rec.events("host", "newWord")[0].(NewWord)
	assert.Equal(t, "猫", word.Word.Text)
	assert.Equal(t, 1, word.Round)
	assert.Zero(t, word.DelayMs)

	assert.Equal(t, StatusPlaying, r.State().Status)
}

func TestStartRejections(t *testing.T) {
	h := newHarness(t, Options{})
	r := h.lobby(t)

	err := h.g.Dispatch("guest", StartGame{RoomID: r.ID()})
	assert.ErrorIs(t, err, ErrNotHost)
	assert.Equal(t, 1, h.rec.count("guest", "error"))

	require.NoError(t, h.g.Dispatch("host", StartGame{RoomID: r.ID()}))
	assert.ErrorIs(t, h.g.Dispatch("host", StartGame{RoomID: r.ID()}), ErrWrongState)
}

func TestRoundScoredOnce(t *testing.T) {
	h := newHarness(t, Options{})
	r := h.lobby(t)
	h.play(t, r)

	var wg sync.WaitGroup
	for _, id := range []string{"host", "guest", "host", "guest"} {
		wg.Add(1)

		go func() {
			defer wg.Done()

			assert.NoError(t, h.g.Dispatch(id, WordCompleted{RoomID: r.ID(), Round: 1, Report: fastReport()}))
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, h.rec.count("host", "wordSuccess"))
	assert.Equal(t, 1, h.rec.count("guest", "wordSuccess"))

	total := 0
	for _, p := range r.State().Players {
		total += p.Score
	}
	assert.Equal(t, 1, total)
}

func TestNextWordAfterPause(t *testing.T) {
	h := newHarness(t, Options{})
	r := h.lobby(t)
	h.play(t, r)

	require.NoError(t, h.g.Dispatch("guest", ReportProgress{RoomID: r.ID(), Progress: 0.5}))
	require.NoError(t, h.g.Dispatch("guest", WordCompleted{RoomID: r.ID(), Round: 1, Report: fastReport()}))

	success := h.rec.events("host", "wordSuccess")
	require.Len(t, success, 1)
	assert.Equal(t, "guest", success[0].(WordSuccess).WinnerID)
	assert.Equal(t, "Guest", success[0].(WordSuccess).WinnerName)
	assert.Contains(t, success[0].(WordSuccess).Scores, Score{ID: "guest", Score: 1})

	h.advance(t, 800*time.Millisecond)
	h.waitCount(t, "host", "newWord", 2)

	var reset bool
	for _, ev := range h.rec.events("host", "progressUpdated") {
		if ev.(ProgressUpdated).Reset {
			reset = true
		}
	}
	assert.True(t, reset)

	words := h.rec.events("host", "newWord")
	assert.Equal(t, 2, words[1].(NewWord).Round)

	for _, p := range r.State().Players {
		assert.Zero(t, p.Progress, p.ID)
	}
}

func TestWinProducesFinalStatsForEveryone(t *testing.T) {
	h := newHarness(t, Options{})
	r := h.lobby(t)
	require.NoError(t, h.g.Join("idle", r.ID(), "Idle"))

	require.NoError(t, h.g.Dispatch("host", UpdateSettings{RoomID: r.ID(), Patch: SettingsPatch{WinCount: intp(10)}}))

	h.play(t, r)

	for round := 1; round <= 10; round++ {
		require.NoError(t, h.g.Dispatch("host", WordCompleted{RoomID: r.ID(), Round: round, Report: fastReport()}))

		// The loser reports the effort they made on each word.
		require.NoError(t, h.g.Dispatch("guest", ReportRoundStats{RoomID: r.ID(), Round: round, Report: romaji.Report{
			TimeTaken:         2 * time.Second,
			TrueTime:          time.Second,
			CharCount:         2,
			ReactionTime:      400 * time.Millisecond,
			TotalKeystrokes:   2,
			CorrectKeystrokes: 2,
		}}))

		if round < 10 {
			assert.Equal(t, StatusPlaying, r.State().Status)

			h.advance(t, 800*time.Millisecond)
			h.waitCount(t, "idle", "newWord", round+1)
		}
	}

	assert.Equal(t, StatusFinished, r.State().Status)

	finished := h.rec.events("idle", "gameFinished")
	require.Len(t, finished, 1)

	ev := finished[0].(GameFinished)
	require.NotNil(t, ev.Winner)
	assert.Equal(t, "host", ev.Winner.ID)
	assert.Equal(t, 10, ev.Winner.Score)
	assert.False(t, ev.ForcedByHost)
	require.Len(t, ev.Players, 3)

	stats := map[string]FinalStats{}
	for _, p := range ev.Players {
		stats[p.ID] = p.FinalStats

		for _, v := range []float64{p.FinalStats.Accuracy, p.FinalStats.KPM, p.FinalStats.TrueKPM, p.FinalStats.AvgReaction} {
			assert.False(t, math.IsNaN(v) || math.IsInf(v, 0), p.ID)
		}

		assert.LessOrEqual(t, p.FinalStats.Accuracy, 100.0)
	}

	assert.Equal(t, 10, stats["host"].Score)
	assert.InDelta(t, 80.0, stats["host"].Accuracy, 1e-9)
	assert.InDelta(t, 240.0, stats["host"].KPM, 1e-9)
	assert.InDelta(t, 200.0, stats["host"].AvgReaction, 1e-9)

	assert.InDelta(t, 100.0, stats["guest"].Accuracy, 1e-9)
	assert.InDelta(t, 60.0, stats["guest"].KPM, 1e-9)
	assert.InDelta(t, 120.0, stats["guest"].TrueKPM, 1e-9)

	assert.Equal(t, FinalStats{}, stats["idle"])

	// Nothing is scheduled after the finish.
	h.fc.Advance(time.Minute)
	assert.Never(t, func() bool { return h.rec.count("idle", "newWord") > 10 }, 50*time.Millisecond, tick)
}

func TestLateCompletionOnlyFoldsStats(t *testing.T) {
	h := newHarness(t, Options{})
	r := h.lobby(t)
	require.NoError(t, h.g.Dispatch("host", UpdateSettings{RoomID: r.ID(), Patch: SettingsPatch{WinCount: intp(2)}}))
	h.play(t, r)

	require.NoError(t, h.g.Dispatch("host", WordCompleted{RoomID: r.ID(), Round: 1, Report: fastReport()}))
	require.NoError(t, h.g.Dispatch("guest", WordCompleted{RoomID: r.ID(), Round: 1, Report: fastReport()}))

	h.advance(t, 800*time.Millisecond)
	h.waitCount(t, "guest", "newWord", 2)

	// A report for the previous round arriving during round two.
	require.NoError(t, h.g.Dispatch("guest", WordCompleted{RoomID: r.ID(), Round: 1, Report: fastReport()}))
	assert.Equal(t, 1, h.rec.count("guest", "wordSuccess"))

	require.NoError(t, h.g.Dispatch("host", WordCompleted{RoomID: r.ID(), Round: 2, Report: fastReport()}))

	finished := h.rec.events("guest", "gameFinished")
	require.Len(t, finished, 1)

	for _, p := range finished[0].(GameFinished).Players {
		if p.ID == "guest" {
			assert.Zero(t, p.FinalStats.Score)
			assert.InDelta(t, 240.0, p.FinalStats.KPM, 1e-9)
			assert.InDelta(t, 80.0, p.FinalStats.Accuracy, 1e-9)
		}
	}
}

func TestForceEnd(t *testing.T) {
	h := newHarness(t, Options{})
	r := h.lobby(t)

	assert.ErrorIs(t, h.g.Dispatch("host", ForceEndGame{RoomID: r.ID()}), ErrWrongState)

	h.play(t, r)

	assert.ErrorIs(t, h.g.Dispatch("guest", ForceEndGame{RoomID: r.ID()}), ErrNotHost)
	require.NoError(t, h.g.Dispatch("host", ForceEndGame{RoomID: r.ID()}))

	finished := h.rec.events("guest", "gameFinished")
	require.Len(t, finished, 1)
	assert.Nil(t, finished[0].(GameFinished).Winner)
	assert.True(t, finished[0].(GameFinished).ForcedByHost)
	assert.Len(t, finished[0].(GameFinished).Players, 2)

	// Reports after the finish never score.
	require.NoError(t, h.g.Dispatch("guest", WordCompleted{RoomID: r.ID(), Report: fastReport()}))
	assert.Zero(t, h.rec.count("guest", "wordSuccess"))
}

func TestReturnToLobbyCancelsPendingRound(t *testing.T) {
	h := newHarness(t, Options{})
	r := h.lobby(t)
	h.play(t, r)

	require.NoError(t, h.g.Dispatch("host", WordCompleted{RoomID: r.ID(), Round: 1, Report: fastReport()}))
	require.NoError(t, h.g.Dispatch("host", ReturnToLobby{RoomID: r.ID()}))

	h.fc.Advance(time.Second)
	assert.Never(t, func() bool { return h.rec.count("guest", "newWord") > 1 }, 50*time.Millisecond, tick)

	state := r.State()
	assert.Equal(t, StatusWaiting, state.Status)
	assert.Zero(t, state.Round)
	for _, p := range state.Players {
		assert.Zero(t, p.Score)
	}

	resets := h.rec.events("guest", "gameReset")
	require.Len(t, resets, 1)
	assert.Equal(t, StatusWaiting, resets[0].(GameReset).Room.Status)

	assert.ErrorIs(t, h.g.Dispatch("host", ReturnToLobby{RoomID: r.ID()}), ErrWrongState)

	// The room can host another match.
	require.NoError(t, h.g.Join("late", r.ID(), "Late"))
	require.NoError(t, h.g.Dispatch("host", StartGame{RoomID: r.ID()}))
}

func TestStaleTimerAfterLeaveIsInert(t *testing.T) {
	h := newHarness(t, Options{})
	r := h.lobby(t)

	require.NoError(t, h.g.Dispatch("host", StartGame{RoomID: r.ID()}))
	require.NoError(t, h.g.Leave("host", r.ID()))
	require.NoError(t, h.g.Leave("guest", r.ID()))

	assert.Zero(t, h.g.Len())

	h.fc.Advance(10 * time.Second)
	assert.Never(t, func() bool { return h.rec.count("guest", "countdown") > 0 }, 50*time.Millisecond, tick)
}

func TestHandicapDelays(t *testing.T) {
	h := newHarness(t, Options{})
	r := h.lobby(t)
	require.NoError(t, h.g.Dispatch("host", UpdateSettings{RoomID: r.ID(), Patch: SettingsPatch{Handicap: boolp(true)}}))
	h.play(t, r)

	first := h.rec.events("host", "newWord")[0].(NewWord)
	assert.Zero(t, first.DelayMs)

	require.NoError(t, h.g.Dispatch("host", WordCompleted{RoomID: r.ID(), Round: 1, Report: romaji.Report{
		TimeTaken: time.Second, TrueTime: time.Second, CharCount: 10, TotalKeystrokes: 10, CorrectKeystrokes: 10,
	}}))
	require.NoError(t, h.g.Dispatch("guest", ReportRoundStats{RoomID: r.ID(), Round: 1, Report: romaji.Report{
		TimeTaken: 2 * time.Second, TrueTime: 2 * time.Second, CharCount: 2, TotalKeystrokes: 2, CorrectKeystrokes: 2,
	}}))

	h.advance(t, 800*time.Millisecond)
	h.waitCount(t, "guest", "newWord", 2)

	// ねこ is four keys: 0.4s for the host against 4s for the guest.
	host := h.rec.events("host", "newWord")[1].(NewWord)
	guest := h.rec.events("guest", "newWord")[1].(NewWord)

	assert.InDelta(t, 3600, host.DelayMs, 1)
	assert.Zero(t, guest.DelayMs)
}

func TestProgressIsClamped(t *testing.T) {
	h := newHarness(t, Options{})
	r := h.lobby(t)

	require.NoError(t, h.g.Dispatch("guest", ReportProgress{RoomID: r.ID(), Progress: 0.5}))
	assert.Zero(t, h.rec.count("host", "progressUpdated"), "ignored while waiting")

	h.play(t, r)

	require.NoError(t, h.g.Dispatch("guest", ReportProgress{RoomID: r.ID(), Progress: 7}))

	updates := h.rec.events("host", "progressUpdated")
	require.Len(t, updates, 1)
	assert.Equal(t, ProgressUpdated{PlayerID: "guest", Progress: 1}, updates[0])
}
