/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package handicap

import "time"

// Sample is one finished word: typing speed in keystrokes per second and
// the time it took to press the first key.
type Sample struct {
	Speed    float64
	Reaction time.Duration
}

// History keeps the most recent HistorySize samples. The zero value is
// ready to use.
type History struct {
	samples []Sample
}

// Add records a sample, evicting the oldest when full.
func (h *History) Add(s Sample) {
	h.samples = append(h.samples, s)

	if len(h.samples) > HistorySize {
		h.samples = h.samples[len(h.samples)-HistorySize:]
	}
}

func (h *History) Len() int {
	if h == nil {
		return 0
	}

	return len(h.samples)
}

// Samples returns a copy, oldest first.
func (h *History) Samples() []Sample {
	if h == nil {
		return nil
	}

	out := make([]Sample, len(h.samples))
	copy(out, h.samples)

	return out
}

// Average returns the mean speed and reaction, or false when empty.
func (h *History) Average() (float64, time.Duration, bool) {
	if h.Len() == 0 {
		return 0, 0, false
	}

	var (
		speed    float64
		reaction time.Duration
	)

	for _, s := range h.samples {
		speed += s.Speed
		reaction += s.Reaction
	}

	n := len(h.samples)

	return speed / float64(n), reaction / time.Duration(n), true
}
