/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package romaji

import (
	"strings"
	"time"
	"unicode/utf8"
)

// Outcome is the result of feeding one key to an Automaton.
type Outcome int

const (
	// Blocked means the handicap delay has not elapsed; nothing changed.
	Blocked Outcome = iota
	// Valid means the key extended the current unit.
	Valid
	// Invalid means the key fits no candidate spelling.
	Invalid
	// Completed means the key finished the last unit of the word.
	Completed
)

func (o Outcome) String() string {
	switch o {
	case Blocked:
		return "blocked"
	case Valid:
		return "valid"
	case Invalid:
		return "invalid"
	case Completed:
		return "completed"
	default:
		return "unknown"
	}
}

// minTrueTime keeps speed ratios finite when a word is finished instantly.
const minTrueTime = time.Millisecond

// Report summarizes one player's effort on one word.
type Report struct {
	// TimeTaken runs from the moment the word was shown.
	TimeTaken time.Duration
	// TrueTime runs from the first keystroke, excluding the handicap wait.
	TrueTime time.Duration
	// CharCount is the number of correctly typed romaji characters.
	CharCount int
	// ReactionTime runs from unlock to the first keystroke.
	ReactionTime time.Duration

	TotalKeystrokes   int
	CorrectKeystrokes int
}

// Automaton follows a single player through a single word.
type Automaton struct {
	units []string
	index int
	typed string

	completed strings.Builder

	charCount   int
	totalKeys   int
	correctKeys int

	startedAt  time.Time
	unlockAt   time.Time
	firstKeyAt time.Time

	done   bool
	report Report

	onFirstKey func(time.Duration)
}

// New starts an automaton for the given reading. Keys submitted before
// start+delay are rejected.
func New(kana []string, start time.Time, delay time.Duration) *Automaton {
	if delay < 0 {
		delay = 0
	}

	return &Automaton{
		units:     Segment(kana),
		startedAt: start,
		unlockAt:  start.Add(delay),
	}
}

// Submit feeds one key pressed at now.
func (a *Automaton) Submit(key rune, now time.Time) Outcome {
	if now.Before(a.unlockAt) {
		return Blocked
	}

	if a.done || len(a.units) == 0 {
		return Invalid
	}

	if a.firstKeyAt.IsZero() {
		a.firstKeyAt = now
		if a.onFirstKey != nil {
			a.onFirstKey(a.reaction())
		}
	}

	a.totalKeys++

	ch := string(key)

	// A pending "n" may be closed by the key that follows it. The key is then
	// matched against the next unit below, so it is re-read at most once.
	if a.units[a.index] == NasalMarker && a.typed == "n" && key != 'n' && key != Escape &&
		firstWithPrefix(a.candidates(), a.typed+ch) == "" {
		a.closeUnit("n")

		if a.index == len(a.units) {
			return a.finish(now)
		}
	}

	next := a.typed + ch

	match := firstWithPrefix(a.candidates(), next)
	if match == "" {
		return Invalid
	}

	a.typed = next
	a.correctKeys++

	if match == a.typed {
		a.closeUnit(match)
	}

	if a.index == len(a.units) {
		return a.finish(now)
	}

	return Valid
}

// candidates lists the spellings accepted for the current unit. The
// geminate marker also accepts the first letter of anything the next unit
// accepts.
func (a *Automaton) candidates() []string {
	unit := a.units[a.index]
	patterns := Romanizations(unit)

	if unit != GeminateMarker || a.index+1 >= len(a.units) {
		return patterns
	}

	nextUnit := a.units[a.index+1]
	if !Known(nextUnit) {
		return patterns
	}

	out := make([]string, len(patterns), len(patterns)+4)
	copy(out, patterns)

	seen := make(map[string]bool)
	for _, p := range Romanizations(nextUnit) {
		if p == "" {
			continue
		}

		lead := p[:1]
		if seen[lead] {
			continue
		}
		seen[lead] = true

		out = append(out, lead)
	}

	return out
}

func firstWithPrefix(patterns []string, prefix string) string {
	for _, p := range patterns {
		if strings.HasPrefix(p, prefix) {
			return p
		}
	}

	return ""
}

func (a *Automaton) closeUnit(spelling string) {
	a.completed.WriteString(spelling)
	a.charCount += utf8.RuneCountInString(spelling)
	a.typed = ""
	a.index++
}

func (a *Automaton) finish(now time.Time) Outcome {
	a.done = true
	a.report = a.snapshot(now)

	return Completed
}

func (a *Automaton) reaction() time.Duration {
	if a.firstKeyAt.IsZero() {
		return 0
	}

	return max(0, a.firstKeyAt.Sub(a.unlockAt))
}

func (a *Automaton) snapshot(now time.Time) Report {
	taken := now.Sub(a.startedAt)

	trueTime := taken
	if !a.firstKeyAt.IsZero() {
		trueTime = now.Sub(a.firstKeyAt)
	}

	return Report{
		TimeTaken:         max(0, taken),
		TrueTime:          max(minTrueTime, trueTime),
		CharCount:         a.charCount,
		ReactionTime:      a.reaction(),
		TotalKeystrokes:   a.totalKeys,
		CorrectKeystrokes: a.correctKeys,
	}
}

// Report returns the finish report once the word is completed.
func (a *Automaton) Report() (Report, bool) {
	return a.report, a.done
}

// Snapshot reports the effort so far, for a word that ended before the
// player finished it.
func (a *Automaton) Snapshot(now time.Time) Report {
	if a.done {
		return a.report
	}

	return a.snapshot(now)
}

// Progress is the share of units completed, counting a started unit as half.
func (a *Automaton) Progress() float64 {
	if len(a.units) == 0 {
		return 0
	}

	current := float64(a.index)
	if a.typed != "" {
		current += 0.5
	}

	return min(1, current/float64(len(a.units)))
}

// Hint renders the romaji guide: everything typed so far followed by the
// preferred spelling of what remains.
func (a *Automaton) Hint() (typed, remaining string) {
	typed = a.completed.String() + a.typed

	if a.index >= len(a.units) {
		return typed, ""
	}

	var rest strings.Builder

	current := firstWithPrefix(a.candidates(), a.typed)
	if current == "" {
		current = a.typed + Romanizations(a.units[a.index])[0]
	}
	rest.WriteString(current[len(a.typed):])

	for _, unit := range a.units[a.index+1:] {
		rest.WriteString(Romanizations(unit)[0])
	}

	return typed, rest.String()
}

// Done reports whether the word has been completed.
func (a *Automaton) Done() bool { return a.done }

// Index is the number of completed units.
func (a *Automaton) Index() int { return a.index }

// Typed is the prefix entered for the current unit.
func (a *Automaton) Typed() string { return a.typed }

// Units returns a copy of the segmented reading.
func (a *Automaton) Units() []string {
	out := make([]string, len(a.units))
	copy(out, a.units)

	return out
}

// UnlockAt is when input starts being accepted.
func (a *Automaton) UnlockAt() time.Time { return a.unlockAt }
