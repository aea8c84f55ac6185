/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package match

import (
	"math"
	"time"

	"github.com/Seednode/kanarace/games/handicap"
	"github.com/Seednode/kanarace/games/romaji"
)

// Denominator floors for the final statistics.
const (
	minElapsed = time.Millisecond
	minTrue    = time.Millisecond
)

// Player is one member of a room.
type Player struct {
	ID   string
	Name string

	score    int
	progress float64
	stats    Stats

	// history outlives individual matches so the handicap stays informed.
	history handicap.History
}

func newPlayer(id, name string) *Player {
	return &Player{ID: id, Name: name}
}

// Stats accumulates every report a player sends during one match.
type Stats struct {
	Chars             int
	Elapsed           time.Duration
	TrueTime          time.Duration
	Keystrokes        int
	CorrectKeystrokes int
	ReactionTotal     time.Duration
	Reactions         int
}

func (p *Player) fold(r romaji.Report) {
	p.stats.Chars += r.CharCount
	p.stats.Elapsed += r.TimeTaken
	p.stats.TrueTime += r.TrueTime
	p.stats.Keystrokes += r.TotalKeystrokes
	p.stats.CorrectKeystrokes += r.CorrectKeystrokes

	// No keystrokes means no reaction was measured.
	if r.TotalKeystrokes > 0 {
		p.stats.ReactionTotal += r.ReactionTime
		p.stats.Reactions++
	}

	if r.CharCount > 0 {
		p.history.Add(handicap.Sample{
			Speed:    float64(r.CharCount) / max(r.TrueTime, minTrue).Seconds(),
			Reaction: r.ReactionTime,
		})
	}
}

// FinalStats is what a player sees when the match ends.
type FinalStats struct {
	Score int `json:"score"`
	// Accuracy is a percentage.
	Accuracy float64 `json:"accuracy"`
	KPM      float64 `json:"kpm"`
	TrueKPM  float64 `json:"trueKpm"`
	// AvgReaction is in milliseconds.
	AvgReaction float64 `json:"avgReaction"`
}

func (p *Player) finalStats() FinalStats {
	s := p.stats

	out := FinalStats{Score: p.score}

	if s.Keystrokes > 0 {
		out.Accuracy = math.Min(100, 100*float64(s.CorrectKeystrokes)/float64(s.Keystrokes))
	}

	if s.Chars > 0 {
		out.KPM = float64(s.Chars) / max(s.Elapsed, minElapsed).Minutes()
		out.TrueKPM = float64(s.Chars) / max(s.TrueTime, minTrue).Minutes()
	}

	if s.Reactions > 0 {
		out.AvgReaction = float64(s.ReactionTotal) / float64(s.Reactions) / float64(time.Millisecond)
	}

	return out
}

// resetMatch clears everything but the handicap history.
func (p *Player) resetMatch() {
	p.score = 0
	p.progress = 0
	p.stats = Stats{}
}
