/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package handicap

import "strings"

const (
	vowels      = "あいうえおアイウエオ"
	smallTails  = "ゃゅょぁぃぅぇぉゎャュョァィゥェォヮ"
	punctuation = "ー、。！？・"
)

// EstimateKeystrokes guesses how many keys a reading takes to type.
func EstimateKeystrokes(kana []string) int {
	chars := []rune(strings.Join(kana, ""))

	total := 0

	for i := 0; i < len(chars); i++ {
		c := chars[i]

		switch {
		case i+1 < len(chars) && strings.ContainsRune(smallTails, chars[i+1]):
			total += 3
			i++
		case strings.ContainsRune(vowels, c):
			total++
		case c == 'ん' || c == 'ン':
			total += 2
		case c == 'っ' || c == 'ッ':
			total++
		case strings.ContainsRune(punctuation, c):
			total++
		default:
			total += 2
		}
	}

	return total
}
