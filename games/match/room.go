/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package match

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/Seednode/kanarace/games/handicap"
	"github.com/Seednode/kanarace/games/romaji"
	"github.com/Seednode/kanarace/games/words"
)

const publishTimeout = 5 * time.Second

// Notifier delivers events to connected players. Both methods are called
// with room locks held and must not block.
type Notifier interface {
	// Send delivers to one player.
	Send(playerID string, ev Event)
	// Broadcast delivers to every connection, in a room or not.
	Broadcast(ev Event)
}

// WordSource supplies the words rounds are played with.
type WordSource interface {
	Pick(tiers []string) (words.Word, bool)
	Has(tier string) bool
}

// ResultSink receives every finished match.
type ResultSink interface {
	Publish(ctx context.Context, result Result) error
}

// Timing holds the server-driven delays.
type Timing struct {
	// CountdownFrom is the first number shown; the match starts one step
	// after the last tick.
	CountdownFrom int
	CountdownStep time.Duration
	RoundPause    time.Duration
}

func DefaultTiming() Timing {
	return Timing{
		CountdownFrom: 3,
		CountdownStep: time.Second,
		RoundPause:    800 * time.Millisecond,
	}
}

// shared is what every room of a registry uses.
type shared struct {
	clock  clockwork.Clock
	words  WordSource
	calc   *handicap.Calculator
	notify Notifier
	sink   ResultSink
	timing Timing
}

// Room is one lobby and the match played in it. Every method takes the
// room's lock and runs to completion.
type Room struct {
	*shared

	id     string
	public bool
	log    zerolog.Logger

	mu sync.Mutex

	hostID   string
	players  []*Player
	settings Settings
	status   Status

	word  words.Word
	round int
	// resolved is set once the current round has been scored.
	resolved bool

	// gen tags timers; callbacks from an older generation do nothing.
	gen   uint64
	timer clockwork.Timer

	closed     bool
	lastActive time.Time
}

func newRoom(s *shared, id string, public bool, host *Player, log zerolog.Logger) *Room {
	return &Room{
		shared:     s,
		id:         id,
		public:     public,
		log:        log.With().Str("room_id", id).Logger(),
		hostID:     host.ID,
		players:    []*Player{host},
		settings:   DefaultSettings(),
		status:     StatusWaiting,
		lastActive: s.clock.Now(),
	}
}

func (r *Room) ID() string { return r.id }

// State returns a snapshot of the room.
func (r *Room) State() RoomState {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.stateLocked()
}

func (r *Room) stateLocked() RoomState {
	return RoomState{
		ID:       r.id,
		IsPublic: r.public,
		HostID:   r.hostID,
		Status:   r.status,
		Settings: r.settings.clone(),
		Players:  r.viewsLocked(),
		Round:    r.round,
	}
}

func (r *Room) viewLocked(p *Player) PlayerView {
	return PlayerView{
		ID:       p.ID,
		Name:     p.Name,
		IsHost:   p.ID == r.hostID,
		Score:    p.score,
		Progress: p.progress,
	}
}

func (r *Room) viewsLocked() []PlayerView {
	views := make([]PlayerView, 0, len(r.players))
	for _, p := range r.players {
		views = append(views, r.viewLocked(p))
	}

	return views
}

// listing reports how the room appears in the public browser.
func (r *Room) listing() (Listing, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.public || r.closed || r.status != StatusWaiting || len(r.players) == 0 {
		return Listing{}, false
	}

	host := r.playerLocked(r.hostID)
	if host == nil {
		return Listing{}, false
	}

	return Listing{
		ID:         r.id,
		HostName:   host.Name,
		Players:    len(r.players),
		MaxPlayers: r.settings.MaxPlayers,
	}, true
}

func (r *Room) idleSince() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.lastActive
}

func (r *Room) has(playerID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.playerLocked(playerID) != nil
}

func (r *Room) playerLocked(id string) *Player {
	for _, p := range r.players {
		if p.ID == id {
			return p
		}
	}

	return nil
}

func (r *Room) touchLocked() {
	r.lastActive = r.clock.Now()
}

func (r *Room) broadcastLocked(ev Event) {
	for _, p := range r.players {
		r.notify.Send(p.ID, ev)
	}
}

func (r *Room) broadcastExceptLocked(skip string, ev Event) {
	for _, p := range r.players {
		if p.ID != skip {
			r.notify.Send(p.ID, ev)
		}
	}
}

func (r *Room) requireHostLocked(playerID string) error {
	if r.playerLocked(playerID) == nil {
		return fmt.Errorf("%w: not in room %s", ErrPlayerNotFound, r.id)
	}

	if playerID != r.hostID {
		return ErrNotHost
	}

	return nil
}

// scheduleLocked runs fn after d unless the generation moves on first.
func (r *Room) scheduleLocked(d time.Duration, fn func()) {
	gen := r.gen

	r.timer = r.clock.AfterFunc(d, func() {
		r.mu.Lock()
		defer r.mu.Unlock()

		if r.closed || r.gen != gen {
			return
		}

		fn()
	})
}

func (r *Room) invalidateLocked() {
	r.gen++

	if r.timer != nil {
		r.timer.Stop()
		r.timer = nil
	}
}

// join adds p to a waiting room with space left.
func (r *Room) join(p *Player) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch {
	case r.closed:
		return fmt.Errorf("%w: %s", ErrRoomNotFound, r.id)
	case r.playerLocked(p.ID) != nil:
		return ErrAlreadyInRoom
	case r.status != StatusWaiting:
		return ErrNotAcceptingJoins
	case len(r.players) >= r.settings.MaxPlayers:
		return ErrRoomFull
	}

	r.touchLocked()
	r.players = append(r.players, p)

	state := r.stateLocked()

	r.notify.Send(p.ID, JoinSuccess{PlayerID: p.ID, Room: state})
	r.broadcastExceptLocked(p.ID, PlayerJoined{Player: r.viewLocked(p), Room: state})

	r.log.Info().Str("player_id", p.ID).Str("name", p.Name).Int("players", len(r.players)).Msg("player joined")

	return nil
}

// leave removes a player. It reports whether the player was present and
// whether the room is now empty, in which case it has been closed.
func (r *Room) leave(playerID string) (removed, empty bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.removeLocked(playerID)
}

func (r *Room) removeLocked(playerID string) (removed, empty bool) {
	i := slices.IndexFunc(r.players, func(p *Player) bool { return p.ID == playerID })
	if i < 0 {
		return false, len(r.players) == 0
	}

	r.touchLocked()
	r.players = slices.Delete(r.players, i, i+1)

	if len(r.players) == 0 {
		r.closeLocked()
		r.log.Info().Msg("room emptied")

		return true, true
	}

	if r.hostID == playerID {
		r.hostID = r.players[0].ID
		r.log.Info().Str("host_id", r.hostID).Msg("host reassigned")
	}

	r.broadcastLocked(PlayerLeft{PlayerID: playerID, Room: r.stateLocked()})

	return true, false
}

// kick evicts target on the host's behalf.
func (r *Room) kick(hostID, target string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.requireHostLocked(hostID); err != nil {
		return err
	}

	if target == hostID {
		return ErrCannotKickHost
	}

	if r.playerLocked(target) == nil {
		return fmt.Errorf("%w: %s", ErrPlayerNotFound, target)
	}

	r.notify.Send(target, Kicked{RoomID: r.id})
	r.removeLocked(target)

	r.log.Info().Str("player_id", target).Msg("player kicked")

	return nil
}

func (r *Room) updateSettings(playerID string, patch SettingsPatch) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.requireHostLocked(playerID); err != nil {
		return err
	}

	if r.status != StatusWaiting {
		return ErrWrongState
	}

	settings, err := r.settings.apply(patch, len(r.players), r.words.Has)
	if err != nil {
		return err
	}

	r.touchLocked()
	r.settings = settings

	r.broadcastLocked(SettingsUpdated{Settings: settings.clone()})

	return nil
}

// start begins the countdown.
func (r *Room) start(playerID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.requireHostLocked(playerID); err != nil {
		return err
	}

	if r.status != StatusWaiting {
		return ErrWrongState
	}

	r.touchLocked()
	r.invalidateLocked()
	r.status = StatusCountdown

	from := max(1, r.timing.CountdownFrom)

	r.scheduleLocked(r.timing.CountdownStep, func() { r.tickLocked(from - 1) })
	r.broadcastLocked(GameStarting{Count: from, Players: r.viewsLocked()})

	r.log.Info().Int("players", len(r.players)).Msg("countdown started")

	return nil
}

func (r *Room) tickLocked(n int) {
	if n <= 0 {
		r.beginMatchLocked()

		return
	}

	r.scheduleLocked(r.timing.CountdownStep, func() { r.tickLocked(n - 1) })
	r.broadcastLocked(Countdown{Count: n})
}

func (r *Room) beginMatchLocked() {
	r.status = StatusPlaying
	r.round = 0

	for _, p := range r.players {
		p.resetMatch()
	}

	r.nextWordLocked()
}

// nextWordLocked dispatches a fresh word with each player's delay.
func (r *Room) nextWordLocked() {
	r.invalidateLocked()

	word, ok := r.words.Pick(r.settings.Courses)
	if !ok {
		r.log.Warn().Strs("courses", r.settings.Courses).Msg("no words available, using placeholder")

		word = words.Placeholder
	}

	r.word = word
	r.round++
	r.resolved = false

	var delays map[string]time.Duration
	if r.settings.Handicap {
		histories := make(map[string]*handicap.History, len(r.players))
		for _, p := range r.players {
			histories[p.ID] = &p.history
		}

		delays = r.calc.Delays(histories, word.Kana)
	}

	for _, p := range r.players {
		r.notify.Send(p.ID, NewWord{
			Word:    word,
			DelayMs: delays[p.ID].Milliseconds(),
			Round:   r.round,
		})
	}

	r.log.Debug().Int("round", r.round).Str("word", word.Text).Msg("new word")
}

func (r *Room) reportProgress(playerID string, progress float64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p := r.playerLocked(playerID)
	if p == nil || r.status != StatusPlaying || r.resolved {
		return
	}

	r.touchLocked()
	p.progress = min(1, max(0, progress))

	r.broadcastLocked(ProgressUpdated{PlayerID: playerID, Progress: p.progress})
}

// foldLocked records timing data unless it belongs to no match at all.
func (r *Room) foldLocked(playerID string, report romaji.Report) *Player {
	p := r.playerLocked(playerID)
	if p == nil || r.status == StatusWaiting {
		return nil
	}

	r.touchLocked()
	p.fold(report)

	return p
}

// completeWord scores the round for the first report that claims it.
// Every other report only contributes its timing data.
func (r *Room) completeWord(playerID string, round int, report romaji.Report) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p := r.foldLocked(playerID, report)
	if p == nil {
		return
	}

	if r.status != StatusPlaying || r.resolved || (round != 0 && round != r.round) {
		r.log.Debug().Str("player_id", playerID).Int("round", round).Msg("late completion")

		return
	}

	r.resolved = true
	p.score++
	p.progress = 1

	scores := make([]Score, 0, len(r.players))
	for _, q := range r.players {
		scores = append(scores, Score{ID: q.ID, Score: q.score})
	}

	r.broadcastLocked(WordSuccess{
		WinnerName: p.Name,
		WinnerID:   p.ID,
		Scores:     scores,
		Round:      r.round,
	})

	if p.score >= r.settings.WinCount {
		r.finishLocked(p, false)

		return
	}

	r.scheduleLocked(r.timing.RoundPause, func() {
		for _, q := range r.players {
			q.progress = 0
		}

		r.broadcastLocked(ProgressUpdated{Reset: true})
		r.nextWordLocked()
	})
}

func (r *Room) roundStats(playerID string, report romaji.Report) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.foldLocked(playerID, report)
}

func (r *Room) forceEnd(playerID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.requireHostLocked(playerID); err != nil {
		return err
	}

	if r.status != StatusPlaying {
		return ErrWrongState
	}

	r.touchLocked()
	r.finishLocked(nil, true)

	return nil
}

func (r *Room) finishLocked(winner *Player, forced bool) {
	r.invalidateLocked()
	r.status = StatusFinished
	r.resolved = true

	result := Result{
		RoomID:       r.id,
		Players:      make([]FinalPlayer, 0, len(r.players)),
		ForcedByHost: forced,
		Rounds:       r.round,
		FinishedAt:   r.clock.Now(),
	}

	if winner != nil {
		view := r.viewLocked(winner)
		result.Winner = &view
	}

	for _, p := range r.players {
		result.Players = append(result.Players, FinalPlayer{
			PlayerView: r.viewLocked(p),
			FinalStats: p.finalStats(),
		})
	}

	r.broadcastLocked(GameFinished{
		Winner:       result.Winner,
		Players:      result.Players,
		ForcedByHost: forced,
	})

	l := r.log.Info().Bool("forced", forced).Int("rounds", r.round)
	if winner != nil {
		l = l.Str("winner_id", winner.ID)
	}
	l.Msg("match finished")

	if r.sink != nil {
		go r.publish(result)
	}
}

func (r *Room) publish(result Result) {
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()

	if err := r.sink.Publish(ctx, result); err != nil {
		r.log.Error().Err(err).Msg("publishing match result")
	}
}

// returnToLobby resets a finished or running match.
func (r *Room) returnToLobby(playerID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.requireHostLocked(playerID); err != nil {
		return err
	}

	if r.status != StatusFinished && r.status != StatusPlaying {
		return ErrWrongState
	}

	r.touchLocked()
	r.invalidateLocked()

	r.status = StatusWaiting
	r.round = 0
	r.resolved = false
	r.word = words.Word{}

	for _, p := range r.players {
		p.resetMatch()
	}

	r.broadcastLocked(GameReset{Room: r.stateLocked()})

	r.log.Info().Msg("returned to lobby")

	return nil
}

// expire closes the room and tells everyone still in it why.
func (r *Room) expire(reason string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, p := range r.players {
		r.notify.Send(p.ID, Kicked{RoomID: r.id, Reason: reason})
	}

	r.closeLocked()
}

// close stops all timers; the room ignores everything afterwards.
func (r *Room) close() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.closeLocked()
}

func (r *Room) closeLocked() {
	r.invalidateLocked()
	r.closed = true
}
