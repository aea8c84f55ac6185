/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

// Package words holds the word tiers rounds are drawn from.
package words

import (
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Word is a display string and its reading, one character per element.
type Word struct {
	Text string `json:"text" yaml:"text"`
	Kana Kana   `json:"kana" yaml:"kana"`
}

// Placeholder is served whenever no enabled tier has anything to offer.
var Placeholder = Word{Text: "寿司", Kana: Kana{"す", "し"}}

// Kana is a reading. It decodes from either a list of characters or a
// single string, which is split into characters.
type Kana []string

func splitKana(s string) Kana {
	out := make(Kana, 0, len(s))
	for _, r := range strings.TrimSpace(s) {
		out = append(out, string(r))
	}

	return out
}

func (k *Kana) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*k = splitKana(s)

		return nil
	}

	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return fmt.Errorf("kana must be a string or a list of strings: %w", err)
	}

	*k = list

	return nil
}

func (k *Kana) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		*k = splitKana(value.Value)

		return nil
	case yaml.SequenceNode:
		var list []string
		if err := value.Decode(&list); err != nil {
			return err
		}

		*k = list

		return nil
	default:
		return fmt.Errorf("line %d: kana must be a string or a list of strings", value.Line)
	}
}

// Tier is a named pool of words.
type Tier struct {
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description" yaml:"description"`
	List        []Word `json:"list" yaml:"list"`
}

// usable drops entries that could never be typed.
func (t Tier) usable() Tier {
	out := Tier{Name: t.Name, Description: t.Description, List: make([]Word, 0, len(t.List))}

	for _, w := range t.List {
		if len(w.Kana) == 0 || strings.Join(w.Kana, "") == "" {
			continue
		}

		out.List = append(out.List, w)
	}

	return out
}
