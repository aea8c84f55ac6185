/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package match

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/Seednode/kanarace/games/romaji"
)

const maxNameLength = 20

// Command is anything a player can ask of the orchestrator.
type Command interface {
	command()
}

type CreateRoom struct {
	PlayerName string
	Public     bool
}

type JoinRoom struct {
	RoomID     string
	PlayerName string
}

type LeaveRoom struct{ RoomID string }

type KickPlayer struct {
	RoomID   string
	TargetID string
}

type UpdateSettings struct {
	RoomID string
	Patch  SettingsPatch
}

type StartGame struct{ RoomID string }

type ReturnToLobby struct{ RoomID string }

type ForceEndGame struct{ RoomID string }

type ReportProgress struct {
	RoomID   string
	Progress float64
}

// WordCompleted claims the round. Round zero matches whatever is current.
type WordCompleted struct {
	RoomID string
	Round  int
	Report romaji.Report
}

// ReportRoundStats carries the effort on a word someone else won.
type ReportRoundStats struct {
	RoomID string
	Round  int
	Report romaji.Report
}

type GetPublicRooms struct{}

func (CreateRoom) command()       {}
func (JoinRoom) command()         {}
func (LeaveRoom) command()        {}
func (KickPlayer) command()       {}
func (UpdateSettings) command()   {}
func (StartGame) command()        {}
func (ReturnToLobby) command()    {}
func (ForceEndGame) command()     {}
func (ReportProgress) command()   {}
func (WordCompleted) command()    {}
func (ReportRoundStats) command() {}
func (GetPublicRooms) command()   {}

// wireCommand is the flat JSON shape clients send. Times follow the
// browser client: timeTaken and trueTime in seconds, reactionTime in
// milliseconds.
type wireCommand struct {
	Type       string         `json:"type"`
	RoomID     string         `json:"roomId"`
	PlayerName string         `json:"playerName"`
	IsPublic   bool           `json:"isPublic"`
	TargetID   string         `json:"targetId"`
	Settings   *SettingsPatch `json:"settings"`
	Progress   float64        `json:"progress"`
	Round      int            `json:"round"`

	TimeTaken         float64  `json:"timeTaken"`
	TrueTime          *float64 `json:"trueTime"`
	CharCount         int      `json:"charCount"`
	ReactionTime      float64  `json:"reactionTime"`
	TotalKeystrokes   int      `json:"totalKeystrokes"`
	CorrectKeystrokes int      `json:"correctKeystrokes"`
}

// DecodeCommand parses and validates one inbound message.
func DecodeCommand(data []byte) (Command, error) {
	var w wireCommand
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}

	roomID := strings.ToUpper(strings.TrimSpace(w.RoomID))

	switch w.Type {
	case "createRoom":
		name, err := playerName(w.PlayerName)
		if err != nil {
			return nil, err
		}

		return CreateRoom{PlayerName: name, Public: w.IsPublic}, nil
	case "joinRoom":
		name, err := playerName(w.PlayerName)
		if err != nil {
			return nil, err
		}

		if roomID == "" {
			return nil, fmt.Errorf("%w: missing room id", ErrMalformed)
		}

		return JoinRoom{RoomID: roomID, PlayerName: name}, nil
	case "leaveRoom":
		return LeaveRoom{RoomID: roomID}, nil
	case "kickPlayer":
		return KickPlayer{RoomID: roomID, TargetID: w.TargetID}, nil
	case "updateSettings":
		if w.Settings == nil {
			return nil, fmt.Errorf("%w: missing settings", ErrMalformed)
		}

		return UpdateSettings{RoomID: roomID, Patch: *w.Settings}, nil
	case "startGame":
		return StartGame{RoomID: roomID}, nil
	case "returnToLobby":
		return ReturnToLobby{RoomID: roomID}, nil
	case "forceEndGame":
		return ForceEndGame{RoomID: roomID}, nil
	case "reportProgress":
		return ReportProgress{RoomID: roomID, Progress: w.Progress}, nil
	case "wordCompleted":
		report, err := w.report()
		if err != nil {
			return nil, err
		}

		return WordCompleted{RoomID: roomID, Round: w.Round, Report: report}, nil
	case "reportRoundStats":
		report, err := w.report()
		if err != nil {
			return nil, err
		}

		return ReportRoundStats{RoomID: roomID, Round: w.Round, Report: report}, nil
	case "getPublicRooms":
		return GetPublicRooms{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownCommand, w.Type)
	}
}

func playerName(raw string) (string, error) {
	name := strings.TrimSpace(raw)

	switch {
	case name == "":
		return "", fmt.Errorf("%w: a name is required", ErrMalformed)
	case utf8.RuneCountInString(name) > maxNameLength:
		return "", fmt.Errorf("%w: names are limited to %d characters", ErrMalformed, maxNameLength)
	}

	return name, nil
}

func seconds(v float64) time.Duration {
	return time.Duration(v * float64(time.Second))
}

func (w wireCommand) report() (romaji.Report, error) {
	trueTime := w.TimeTaken
	if w.TrueTime != nil {
		trueTime = *w.TrueTime
	}

	switch {
	case w.TimeTaken < 0, trueTime < 0, w.ReactionTime < 0, w.CharCount < 0, w.Round < 0:
		return romaji.Report{}, fmt.Errorf("%w: negative report values", ErrMalformed)
	case w.TotalKeystrokes < 0, w.CorrectKeystrokes < 0, w.CorrectKeystrokes > w.TotalKeystrokes:
		return romaji.Report{}, fmt.Errorf("%w: inconsistent keystroke counts", ErrMalformed)
	}

	return romaji.Report{
		TimeTaken:         seconds(w.TimeTaken),
		TrueTime:          seconds(trueTime),
		CharCount:         w.CharCount,
		ReactionTime:      time.Duration(w.ReactionTime * float64(time.Millisecond)),
		TotalKeystrokes:   w.TotalKeystrokes,
		CorrectKeystrokes: w.CorrectKeystrokes,
	}, nil
}
