/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package match

import (
	"fmt"
	"slices"
)

const (
	MinWinCount   = 1
	MaxWinCount   = 100
	MinMaxPlayers = 2
	MaxMaxPlayers = 8
)

// Settings are chosen by the host while the room is waiting.
type Settings struct {
	WinCount   int      `json:"winCount"`
	MaxPlayers int      `json:"maxPlayers"`
	Handicap   bool     `json:"handicap"`
	Courses    []string `json:"courses"`
}

func DefaultSettings() Settings {
	return Settings{
		WinCount:   10,
		MaxPlayers: 4,
		Handicap:   false,
		Courses:    []string{"easy", "normal", "hard"},
	}
}

func (s Settings) clone() Settings {
	s.Courses = slices.Clone(s.Courses)

	return s
}

// SettingsPatch changes only the fields that are set.
type SettingsPatch struct {
	WinCount   *int     `json:"winCount,omitempty"`
	MaxPlayers *int     `json:"maxPlayers,omitempty"`
	Handicap   *bool    `json:"handicap,omitempty"`
	Courses    []string `json:"courses,omitempty"`
}

// apply returns the patched settings, or an error wrapping
// ErrInvalidSettings. roster is the current number of players.
func (s Settings) apply(p SettingsPatch, roster int, known func(string) bool) (Settings, error) {
	out := s.clone()

	if p.WinCount != nil {
		if *p.WinCount < MinWinCount || *p.WinCount > MaxWinCount {
			return s, fmt.Errorf("%w: win count must be between %d and %d", ErrInvalidSettings, MinWinCount, MaxWinCount)
		}

		out.WinCount = *p.WinCount
	}

	if p.MaxPlayers != nil {
		switch {
		case *p.MaxPlayers < MinMaxPlayers || *p.MaxPlayers > MaxMaxPlayers:
			return s, fmt.Errorf("%w: max players must be between %d and %d", ErrInvalidSettings, MinMaxPlayers, MaxMaxPlayers)
		case *p.MaxPlayers < roster:
			return s, fmt.Errorf("%w: %d players are already in the room", ErrInvalidSettings, roster)
		}

		out.MaxPlayers = *p.MaxPlayers
	}

	if p.Handicap != nil {
		out.Handicap = *p.Handicap
	}

	if p.Courses != nil {
		if len(p.Courses) == 0 {
			return s, fmt.Errorf("%w: at least one course is required", ErrInvalidSettings)
		}

		courses := make([]string, 0, len(p.Courses))
		for _, c := range p.Courses {
			if !known(c) {
				return s, fmt.Errorf("%w: unknown course %q", ErrInvalidSettings, c)
			}

			if !slices.Contains(courses, c) {
				courses = append(courses, c)
			}
		}

		out.Courses = courses
	}

	return out, nil
}
