/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package romaji

import "time"

// ReactionWindow is how many recent reaction times a Typist remembers.
const ReactionWindow = 5

// Typist carries one player's input across consecutive words.
type Typist struct {
	current   *Automaton
	reactions []time.Duration
}

// Begin replaces the current word. Any unfinished automaton is discarded.
func (t *Typist) Begin(kana []string, shown time.Time, delay time.Duration) *Automaton {
	a := New(kana, shown, delay)
	a.onFirstKey = t.recordReaction

	t.current = a

	return a
}

func (t *Typist) recordReaction(d time.Duration) {
	t.reactions = append(t.reactions, d)

	if len(t.reactions) > ReactionWindow {
		t.reactions = t.reactions[len(t.reactions)-ReactionWindow:]
	}
}

// Submit feeds a key to the current word. Without one every key is invalid.
func (t *Typist) Submit(key rune, now time.Time) Outcome {
	if t.current == nil {
		return Invalid
	}

	return t.current.Submit(key, now)
}

// Current returns the word in progress, or nil.
func (t *Typist) Current() *Automaton {
	return t.current
}

// Reactions returns the most recent reaction times, oldest first.
func (t *Typist) Reactions() []time.Duration {
	out := make([]time.Duration, len(t.reactions))
	copy(out, t.reactions)

	return out
}

// AverageReaction is the mean of Reactions, or zero when there are none.
func (t *Typist) AverageReaction() time.Duration {
	if len(t.reactions) == 0 {
		return 0
	}

	var sum time.Duration
	for _, r := range t.reactions {
		sum += r
	}

	return sum / time.Duration(len(t.reactions))
}

// PartialStats reports the effort on a word someone else won. It returns
// false when the player never touched the keyboard or already finished.
func (t *Typist) PartialStats(now time.Time) (Report, bool) {
	a := t.current
	if a == nil || a.done || a.totalKeys == 0 {
		return Report{}, false
	}

	return a.Snapshot(now), true
}
