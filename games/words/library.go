/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package words

import (
	"math/rand/v2"
	"slices"
	"sync"
)

// Summary describes a tier without its contents.
type Summary struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Count       int    `json:"count"`
}

// Library is a set of tiers that is safe for concurrent use.
type Library struct {
	mu    sync.Mutex
	tiers map[string]Tier
	order []string
	rng   *rand.Rand
}

// NewLibrary builds a library from tiers. Later tiers with the same name
// replace earlier ones.
func NewLibrary(tiers ...Tier) *Library {
	l := &Library{
		tiers: make(map[string]Tier, len(tiers)),
	}

	for _, t := range tiers {
		l.Add(t)
	}

	return l
}

// Seed makes Pick deterministic.
func (l *Library) Seed(a, b uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.rng = rand.New(rand.NewPCG(a, b))
}

// Add registers or replaces a tier. Words without a reading are dropped.
func (l *Library) Add(t Tier) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, exists := l.tiers[t.Name]; !exists {
		l.order = append(l.order, t.Name)
	}

	l.tiers[t.Name] = t.usable()
}

// Has reports whether a tier with that name exists.
func (l *Library) Has(name string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	_, ok := l.tiers[name]

	return ok
}

// Names lists tiers in the order they were added.
func (l *Library) Names() []string {
	l.mu.Lock()
	defer l.mu.Unlock()

	return slices.Clone(l.order)
}

func (l *Library) Summaries() []Summary {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]Summary, 0, len(l.order))
	for _, name := range l.order {
		t := l.tiers[name]

		out = append(out, Summary{Name: t.Name, Description: t.Description, Count: len(t.List)})
	}

	return out
}

// Pick draws uniformly from the union of the named tiers. Unknown names
// are ignored; false means nothing was available.
func (l *Library) Pick(names []string) (Word, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	seen := make(map[string]bool, len(names))

	total := 0
	for _, name := range names {
		if seen[name] {
			continue
		}
		seen[name] = true

		total += len(l.tiers[name].List)
	}

	if total == 0 {
		return Word{}, false
	}

	var n int
	if l.rng != nil {
		n = l.rng.IntN(total)
	} else {
		n = rand.IntN(total)
	}

	for _, name := range l.order {
		if !seen[name] {
			continue
		}

		list := l.tiers[name].List
		if n < len(list) {
			return list[n], true
		}

		n -= len(list)
	}

	return Word{}, false
}
