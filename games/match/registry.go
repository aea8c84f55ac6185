/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

// Package match runs typing races: rooms, their lobbies and the rounds
// played in them.
package match

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/Seednode/kanarace/games/handicap"
	"github.com/Seednode/kanarace/games/words"
)

const (
	roomIDLength  = 6
	roomIDLetters = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	reasonIdle = "room closed after inactivity"
)

// Options configure a Registry. Zero values fall back to defaults.
type Options struct {
	Clock      clockwork.Clock
	Words      WordSource
	Calculator *handicap.Calculator
	Notifier   Notifier
	Sink       ResultSink
	Timing     Timing

	// MaxRooms caps open rooms; zero means no limit.
	MaxRooms int
	// IdleTimeout is how long a room may go without activity before the
	// reaper closes it; zero disables reaping.
	IdleTimeout time.Duration

	Logger zerolog.Logger
}

// Registry owns every open room. Locks are always taken registry first,
// then room.
type Registry struct {
	*shared

	log         zerolog.Logger
	maxRooms    int
	idleTimeout time.Duration

	mu    sync.RWMutex
	rooms map[string]*Room
}

// NewRegistry creates an empty registry. Notifier is required.
func NewRegistry(opts Options) *Registry {
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}

	if opts.Words == nil {
		opts.Words = words.NewLibrary()
	}

	if opts.Calculator == nil {
		opts.Calculator = handicap.NewCalculator()
	}

	if opts.Timing == (Timing{}) {
		opts.Timing = DefaultTiming()
	}

	return &Registry{
		shared: &shared{
			clock:  opts.Clock,
			words:  opts.Words,
			calc:   opts.Calculator,
			notify: opts.Notifier,
			sink:   opts.Sink,
			timing: opts.Timing,
		},
		log:         opts.Logger,
		maxRooms:    opts.MaxRooms,
		idleTimeout: opts.IdleTimeout,
		rooms:       make(map[string]*Room),
	}
}

// Dispatch executes a command on behalf of a player. Rejections are also
// reported to that player as an Error event.
func (g *Registry) Dispatch(playerID string, cmd Command) error {
	err := g.dispatch(playerID, cmd)
	if err != nil {
		g.notify.Send(playerID, Error{Message: err.Error()})

		g.log.Debug().Str("player_id", playerID).Err(err).Msg("command rejected")
	}

	return err
}

func (g *Registry) dispatch(playerID string, cmd Command) error {
	switch c := cmd.(type) {
	case CreateRoom:
		_, err := g.Create(playerID, c.PlayerName, c.Public)

		return err
	case JoinRoom:
		return g.Join(playerID, c.RoomID, c.PlayerName)
	case LeaveRoom:
		return g.Leave(playerID, c.RoomID)
	case KickPlayer:
		return g.Kick(playerID, c.RoomID, c.TargetID)
	case UpdateSettings:
		return g.withRoom(c.RoomID, func(r *Room) error {
			return r.updateSettings(playerID, c.Patch)
		})
	case StartGame:
		defer g.refreshListing()

		return g.withRoom(c.RoomID, func(r *Room) error {
			return r.start(playerID)
		})
	case ReturnToLobby:
		defer g.refreshListing()

		return g.withRoom(c.RoomID, func(r *Room) error {
			return r.returnToLobby(playerID)
		})
	case ForceEndGame:
		return g.withRoom(c.RoomID, func(r *Room) error {
			return r.forceEnd(playerID)
		})
	case ReportProgress:
		g.report(c.RoomID, func(r *Room) { r.reportProgress(playerID, c.Progress) })
	case WordCompleted:
		g.report(c.RoomID, func(r *Room) { r.completeWord(playerID, c.Round, c.Report) })
	case ReportRoundStats:
		g.report(c.RoomID, func(r *Room) { r.roundStats(playerID, c.Report) })
	case GetPublicRooms:
		g.notify.Send(playerID, PublicRooms{Rooms: g.PublicRooms()})
	default:
		return fmt.Errorf("%w: %T", ErrUnknownCommand, cmd)
	}

	return nil
}

// Room looks up an open room.
func (g *Registry) Room(id string) (*Room, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	r, ok := g.rooms[strings.ToUpper(id)]

	return r, ok
}

func (g *Registry) withRoom(id string, fn func(*Room) error) error {
	r, ok := g.Room(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrRoomNotFound, id)
	}

	return fn(r)
}

// report forwards progress and statistics. Reports for rooms that no
// longer exist are dropped silently.
func (g *Registry) report(id string, fn func(*Room)) {
	if r, ok := g.Room(id); ok {
		fn(r)
	}
}

// Len is the number of open rooms.
func (g *Registry) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()

	return len(g.rooms)
}

func (g *Registry) newRoomIDLocked() (string, error) {
	buf := make([]byte, roomIDLength)

	for {
		if _, err := rand.Read(buf); err != nil {
			return "", err
		}

		out := make([]byte, roomIDLength)
		for i := range out {
			out[i] = roomIDLetters[int(buf[i])%len(roomIDLetters)]
		}

		id := string(out)
		if _, exists := g.rooms[id]; !exists {
			return id, nil
		}
	}
}

// Create opens a room hosted by the calling player.
func (g *Registry) Create(playerID, name string, public bool) (*Room, error) {
	g.mu.Lock()

	if g.maxRooms > 0 && len(g.rooms) >= g.maxRooms {
		g.mu.Unlock()

		return nil, ErrTooManyRooms
	}

	id, err := g.newRoomIDLocked()
	if err != nil {
		g.mu.Unlock()

		return nil, fmt.Errorf("generating room id: %w", err)
	}

	host := newPlayer(playerID, name)
	r := newRoom(g.shared, id, public, host, g.log)
	g.rooms[id] = r

	g.mu.Unlock()

	g.notify.Send(playerID, RoomCreated{PlayerID: playerID, Room: r.State()})

	r.log.Info().Str("host_id", playerID).Bool("public", public).Msg("room created")

	if public {
		g.refreshListing()
	}

	return r, nil
}

// Join adds the calling player to a room.
func (g *Registry) Join(playerID, roomID, name string) error {
	err := g.withRoom(roomID, func(r *Room) error {
		return r.join(newPlayer(playerID, name))
	})
	if err != nil {
		return err
	}

	g.refreshListing()

	return nil
}

// Leave removes the calling player from a room, closing it when empty.
func (g *Registry) Leave(playerID, roomID string) error {
	g.mu.Lock()

	r, ok := g.rooms[strings.ToUpper(roomID)]
	if !ok {
		g.mu.Unlock()

		return fmt.Errorf("%w: %s", ErrRoomNotFound, roomID)
	}

	removed, empty := r.leave(playerID)
	if empty {
		delete(g.rooms, r.id)
	}

	g.mu.Unlock()

	if !removed {
		return fmt.Errorf("%w: not in room %s", ErrPlayerNotFound, r.id)
	}

	g.refreshListing()

	return nil
}

// Kick removes target from a room on behalf of its host.
func (g *Registry) Kick(hostID, roomID, target string) error {
	err := g.withRoom(roomID, func(r *Room) error {
		return r.kick(hostID, target)
	})
	if err != nil {
		return err
	}

	g.refreshListing()

	return nil
}

// Disconnect removes a player from every room they are in.
func (g *Registry) Disconnect(playerID string) {
	g.mu.Lock()

	left := 0
	for id, r := range g.rooms {
		removed, empty := r.leave(playerID)
		if removed {
			left++
		}

		if empty {
			delete(g.rooms, id)
		}
	}

	g.mu.Unlock()

	if left > 0 {
		g.log.Debug().Str("player_id", playerID).Int("rooms", left).Msg("disconnected player left rooms")

		g.refreshListing()
	}
}

// PublicRooms lists the public rooms that are still waiting for players.
func (g *Registry) PublicRooms() []Listing {
	g.mu.RLock()
	defer g.mu.RUnlock()

	out := make([]Listing, 0, len(g.rooms))
	for _, r := range g.rooms {
		if l, ok := r.listing(); ok {
			out = append(out, l)
		}
	}

	slices.SortFunc(out, func(a, b Listing) int { return strings.Compare(a.ID, b.ID) })

	return out
}

func (g *Registry) refreshListing() {
	g.notify.Broadcast(PublicRooms{Rooms: g.PublicRooms()})
}

// Reap closes rooms idle for longer than the idle timeout and returns how
// many were closed.
func (g *Registry) Reap() int {
	if g.idleTimeout <= 0 {
		return 0
	}

	cutoff := g.clock.Now().Add(-g.idleTimeout)

	g.mu.Lock()

	reaped := 0
	for id, r := range g.rooms {
		if r.idleSince().Before(cutoff) {
			r.expire(reasonIdle)
			delete(g.rooms, id)

			reaped++

			r.log.Info().Msg("reaped idle room")
		}
	}

	g.mu.Unlock()

	if reaped > 0 {
		g.refreshListing()
	}

	return reaped
}

// RunReaper calls Reap every half idle timeout until ctx is done.
func (g *Registry) RunReaper(ctx context.Context) error {
	if g.idleTimeout <= 0 {
		return errors.New("reaper needs a positive idle timeout")
	}

	ticker := g.clock.NewTicker(g.idleTimeout / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.Chan():
			g.Reap()
		}
	}
}

// Close shuts every room down.
func (g *Registry) Close() {
	g.mu.Lock()
	defer g.mu.Unlock()

	for id, r := range g.rooms {
		r.close()
		delete(g.rooms, id)
	}
}
