/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package match

import (
	"encoding/json"
	"time"

	"github.com/Seednode/kanarace/games/words"
)

// Status is a room's lifecycle stage.
type Status string

const (
	StatusWaiting   Status = "waiting"
	StatusCountdown Status = "countdown"
	StatusPlaying   Status = "playing"
	StatusFinished  Status = "finished"
)

// Event is anything the orchestrator sends to players.
type Event interface {
	Kind() string
}

// PlayerView is the public face of a Player.
type PlayerView struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	IsHost   bool    `json:"isHost"`
	Score    int     `json:"score"`
	Progress float64 `json:"progress"`
}

// RoomState is a full snapshot of a room.
type RoomState struct {
	ID       string       `json:"roomId"`
	IsPublic bool         `json:"isPublic"`
	HostID   string       `json:"hostId"`
	Status   Status       `json:"status"`
	Settings Settings     `json:"settings"`
	Players  []PlayerView `json:"players"`
	Round    int          `json:"round"`
}

// Listing is a public room as shown in the lobby browser.
type Listing struct {
	ID         string `json:"roomId"`
	HostName   string `json:"hostName"`
	Players    int    `json:"playerCount"`
	MaxPlayers int    `json:"maxPlayers"`
}

// FinalPlayer pairs a player with their end-of-match numbers.
type FinalPlayer struct {
	PlayerView
	FinalStats FinalStats `json:"finalStats"`
}

// Result describes a finished match.
type Result struct {
	RoomID       string        `json:"roomId"`
	Winner       *PlayerView   `json:"winner"`
	Players      []FinalPlayer `json:"players"`
	ForcedByHost bool          `json:"forcedByHost"`
	Rounds       int           `json:"rounds"`
	FinishedAt   time.Time     `json:"finishedAt"`
}

type RoomCreated struct {
	PlayerID string    `json:"playerId"`
	Room     RoomState `json:"roomState"`
}

type JoinSuccess struct {
	PlayerID string    `json:"playerId"`
	Room     RoomState `json:"roomState"`
}

type PlayerJoined struct {
	Player PlayerView `json:"player"`
	Room   RoomState  `json:"roomState"`
}

type PlayerLeft struct {
	PlayerID string    `json:"playerId"`
	Room     RoomState `json:"roomState"`
}

type SettingsUpdated struct {
	Settings Settings `json:"settings"`
}

// Kicked tells a player they are no longer in a room. Reason is empty
// when the host removed them.
type Kicked struct {
	RoomID string `json:"roomId"`
	Reason string `json:"reason,omitempty"`
}

type GameStarting struct {
	Count   int          `json:"count"`
	Players []PlayerView `json:"players"`
}

type Countdown struct {
	Count int `json:"count"`
}

// NewWord starts a round. Delay is specific to the recipient.
type NewWord struct {
	Word    words.Word `json:"word"`
	DelayMs int64      `json:"delay"`
	Round   int        `json:"round"`
}

// ProgressUpdated with Reset set clears every progress bar.
type ProgressUpdated struct {
	PlayerID string  `json:"playerId,omitempty"`
	Progress float64 `json:"progress"`
	Reset    bool    `json:"reset,omitempty"`
}

type Score struct {
	ID    string `json:"id"`
	Score int    `json:"score"`
}

// WordSuccess announces who took the round.
type WordSuccess struct {
	WinnerName string  `json:"winnerName"`
	WinnerID   string  `json:"winnerId"`
	Scores     []Score `json:"scores"`
	Round      int     `json:"round"`
}

type GameFinished struct {
	Winner       *PlayerView   `json:"winner"`
	Players      []FinalPlayer `json:"players"`
	ForcedByHost bool          `json:"forcedByHost"`
}

type GameReset struct {
	Room RoomState `json:"roomState"`
}

type PublicRooms struct {
	Rooms []Listing `json:"rooms"`
}

// Error carries a rejection back to the player who caused it.
type Error struct {
	Message string `json:"message"`
}

func (RoomCreated) Kind() string     { return "roomCreated" }
func (JoinSuccess) Kind() string     { return "joinSuccess" }
func (PlayerJoined) Kind() string    { return "playerJoined" }
func (PlayerLeft) Kind() string      { return "playerLeft" }
func (SettingsUpdated) Kind() string { return "settingsUpdated" }
func (Kicked) Kind() string          { return "kicked" }
func (GameStarting) Kind() string    { return "gameStarting" }
func (Countdown) Kind() string       { return "countdown" }
func (NewWord) Kind() string         { return "newWord" }
func (ProgressUpdated) Kind() string { return "progressUpdated" }
func (WordSuccess) Kind() string     { return "wordSuccess" }
func (GameFinished) Kind() string    { return "gameFinished" }
func (GameReset) Kind() string       { return "gameReset" }
func (PublicRooms) Kind() string     { return "publicRooms" }
func (Error) Kind() string           { return "error" }

type envelope struct {
	Type string `json:"type"`
	Data Event  `json:"data"`
}

// Encode renders an event as {"type": ..., "data": ...}.
func Encode(ev Event) ([]byte, error) {
	return json.Marshal(envelope{Type: ev.Kind(), Data: ev})
}
