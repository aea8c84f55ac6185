/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package romaji

import "strings"

// Segment groups a reading into typeable units. Two adjacent characters are
// kept together whenever the pair has its own romanization; otherwise each
// character stands alone. There is no backtracking.
func Segment(kana []string) []string {
	chars := []rune(strings.Join(kana, ""))

	units := make([]string, 0, len(chars))

	for i := 0; i < len(chars); {
		if i+1 < len(chars) {
			pair := string(chars[i : i+2])
			if Known(pair) {
				units = append(units, pair)
				i += 2

				continue
			}
		}

		units = append(units, string(chars[i]))
		i++
	}

	return units
}
