/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

// Package handicap delays faster typists so that everyone is projected to
// finish a word at about the same moment.
package handicap

import (
	"math"
	"time"
)

const (
	// HistorySize is how many recent words feed a player's projection.
	HistorySize = 10

	// Ceiling is the longest delay ever handed out.
	Ceiling = 5 * time.Second

	// DefaultSpeed and DefaultReaction stand in for players without history.
	DefaultSpeed    = 3.0
	DefaultReaction = 500 * time.Millisecond

	// SpeedFloor bounds projections for players who barely typed at all.
	SpeedFloor = 0.1
)

// Calculator turns histories into per-player delays.
type Calculator struct {
	Ceiling         time.Duration
	DefaultSpeed    float64
	DefaultReaction time.Duration
	SpeedFloor      float64
}

// NewCalculator returns a Calculator with the package defaults.
func NewCalculator() *Calculator {
	return &Calculator{
		Ceiling:         Ceiling,
		DefaultSpeed:    DefaultSpeed,
		DefaultReaction: DefaultReaction,
		SpeedFloor:      SpeedFloor,
	}
}

// Project estimates how long a player with history h needs for a word of
// the given number of keystrokes, including their reaction time.
func (c *Calculator) Project(h *History, keys int) time.Duration {
	speed, reaction, ok := h.Average()
	if !ok {
		speed, reaction = c.DefaultSpeed, c.DefaultReaction
	}

	speed = math.Max(speed, c.SpeedFloor)

	typing := time.Duration(float64(keys) / speed * float64(time.Second))

	return typing + reaction
}

// Delays assigns each player the gap between the slowest projection and
// their own, clamped to [0, Ceiling]. A nil history gets the defaults.
func (c *Calculator) Delays(histories map[string]*History, kana []string) map[string]time.Duration {
	keys := EstimateKeystrokes(kana)

	projected := make(map[string]time.Duration, len(histories))

	var slowest time.Duration
	for id, h := range histories {
		p := c.Project(h, keys)
		projected[id] = p

		slowest = max(slowest, p)
	}

	delays := make(map[string]time.Duration, len(projected))
	for id, p := range projected {
		delays[id] = min(c.Ceiling, max(0, slowest-p))
	}

	return delays
}
