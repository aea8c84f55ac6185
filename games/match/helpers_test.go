/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package match

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/Seednode/kanarace/games/romaji"
	"github.com/Seednode/kanarace/games/words"
)

const (
	waitFor = time.Second
	tick    = time.Millisecond
)

type recorder struct {
	mu         sync.Mutex
	sent       map[string][]Event
	broadcasts []Event
}

func newRecorder() *recorder {
	return &recorder{sent: make(map[string][]Event)}
}

func (r *recorder) Send(playerID string, ev Event) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.sent[playerID] = append(r.sent[playerID], ev)
}

func (r *recorder) Broadcast(ev Event) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.broadcasts = append(r.broadcasts, ev)
}

func (r *recorder) events(playerID, kind string) []Event {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []Event
	for _, ev := range r.sent[playerID] {
		if ev.Kind() == kind {
			out = append(out, ev)
		}
	}

	return out
}

func (r *recorder) count(playerID, kind string) int {
	return len(r.events(playerID, kind))
}

func (r *recorder) kinds(playerID string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]string, 0, len(r.sent[playerID]))
	for _, ev := range r.sent[playerID] {
		out = append(out, ev.Kind())
	}

	return out
}

func (r *recorder) lastBroadcast() (PublicRooms, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.broadcasts) == 0 {
		return PublicRooms{}, false
	}

	ev, ok := r.broadcasts[len(r.broadcasts)-1].(PublicRooms)

	return ev, ok
}

func testLibrary() *words.Library {
	neko := words.Word{Text: "猫", Kana: words.Kana{"ね", "こ"}}

	return words.NewLibrary(
		words.Tier{Name: "easy", List: []words.Word{neko}},
		words.Tier{Name: "normal", List: []words.Word{neko}},
		words.Tier{Name: "hard", List: []words.Word{neko}},
	)
}

type harness struct {
	g   *Registry
	rec *recorder
	fc  *clockwork.FakeClock
}

func newHarness(t *testing.T, opts Options) *harness {
	t.Helper()

	h := &harness{
		rec: newRecorder(),
		fc:  clockwork.NewFakeClock(),
	}

	opts.Clock = h.fc
	opts.Notifier = h.rec
	opts.Logger = zerolog.Nop()

	if opts.Words == nil {
		opts.Words = testLibrary()
	}

	h.g = NewRegistry(opts)
	t.Cleanup(h.g.Close)

	return h
}

// advance waits for the pending room timer and moves the clock past it.
func (h *harness) advance(t *testing.T, d time.Duration) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), waitFor)
	defer cancel()

	require.NoError(t, h.fc.BlockUntilContext(ctx, 1))

	h.fc.Advance(d)
}

func (h *harness) waitCount(t *testing.T, playerID, kind string, n int) {
	t.Helper()

	require.Eventually(t, func() bool {
		return h.rec.count(playerID, kind) == n
	}, waitFor, tick, "%s waiting for %d %s, got %v", playerID, n, kind, h.rec.kinds(playerID))
}

// lobby creates a room hosted by "host" with "guest" in it.
func (h *harness) lobby(t *testing.T) *Room {
	t.Helper()

	r, err := h.g.Create("host", "Host", false)
	require.NoError(t, err)
	require.NoError(t, h.g.Join("guest", r.ID(), "Guest"))

	return r
}

// play starts the match in r and waits for the first word.
func (h *harness) play(t *testing.T, r *Room) {
	t.Helper()

	require.NoError(t, h.g.Dispatch("host", StartGame{RoomID: r.ID()}))

	for range 3 {
		h.advance(t, time.Second)
	}

	h.waitCount(t, "guest", "newWord", 1)
}

func fastReport() romaji.Report {
	return romaji.Report{
		TimeTaken:         time.Second,
		TrueTime:          time.Second,
		CharCount:         4,
		ReactionTime:      200 * time.Millisecond,
		TotalKeystrokes:   5,
		CorrectKeystrokes: 4,
	}
}

func intp(v int) *int { return &v }

func boolp(v bool) *bool { return &v }
