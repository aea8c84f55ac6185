/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

// Package romaji validates romanized keystrokes against the kana reading of a word.
//
// A reading is split into typeable units (single kana, or a two-character
// compound where the table knows one) and each unit is matched against the
// ordered list of romanizations it accepts. Candidates are tried in table
// order, so the first spelling that still fits the typed prefix decides
// whether a unit is complete: "ん" lists "nn" before "n" and therefore waits
// for a second key.
package romaji

const (
	// GeminateMarker doubles the consonant of the unit that follows it.
	GeminateMarker = "っ"

	// NasalMarker may be typed as "nn", or as a lone "n" followed by
	// anything that is neither "n" nor Escape.
	NasalMarker = "ん"

	// Escape never completes a pending "n" implicitly.
	Escape = '\''
)

var romanizations = map[string][]string{
	"あ": {"a"}, "い": {"i"}, "う": {"u"}, "え": {"e"}, "お": {"o"},
	"か": {"ka", "ca"}, "き": {"ki"}, "く": {"ku", "cu", "qu"}, "け": {"ke"}, "こ": {"ko", "co"},
	"さ": {"sa"}, "し": {"si", "shi", "ci"}, "す": {"su"}, "せ": {"se", "ce"}, "そ": {"so"},
	"た": {"ta"}, "ち": {"ti", "chi"}, "つ": {"tu", "tsu"}, "て": {"te"}, "と": {"to"},
	"な": {"na"}, "に": {"ni"}, "ぬ": {"nu"}, "ね": {"ne"}, "の": {"no"},
	"は": {"ha"}, "ひ": {"hi"}, "ふ": {"fu", "hu"}, "へ": {"he"}, "ほ": {"ho"},
	"ま": {"ma"}, "み": {"mi"}, "む": {"mu"}, "め": {"me"}, "も": {"mo"},
	"や": {"ya"}, "ゆ": {"yu"}, "よ": {"yo"},
	"ら": {"ra"}, "り": {"ri"}, "る": {"ru"}, "れ": {"re"}, "ろ": {"ro"},
	"わ": {"wa"}, "を": {"wo"}, "ん": {"nn", "xn", "n"},
	"が": {"ga"}, "ぎ": {"gi"}, "ぐ": {"gu"}, "げ": {"ge"}, "ご": {"go"},
	"ざ": {"za"}, "じ": {"zi", "ji"}, "ず": {"zu"}, "ぜ": {"ze"}, "ぞ": {"zo"},
	"だ": {"da"}, "ぢ": {"di"}, "づ": {"du"}, "で": {"de"}, "ど": {"do"},
	"ば": {"ba"}, "び": {"bi"}, "ぶ": {"bu"}, "べ": {"be"}, "ぼ": {"bo"},
	"ぱ": {"pa"}, "ぴ": {"pi"}, "ぷ": {"pu"}, "ぺ": {"pe"}, "ぽ": {"po"},

	// small kana
	"ぁ": {"la", "xa"}, "ぃ": {"li", "xi"}, "ぅ": {"lu", "xu"}, "ぇ": {"le", "xe"}, "ぉ": {"lo", "xo"},
	"ゃ": {"lya", "xya"}, "ゅ": {"lyu", "xyu"}, "ょ": {"lyo", "xyo"},
	"っ": {"ltu", "xtu", "ltsu"},
	"ゎ": {"lwa", "xwa"},

	// yoon
	"きゃ": {"kya", "kic"}, "きぃ": {"kyi"}, "きゅ": {"kyu"}, "きぇ": {"kye"}, "きょ": {"kyo"},
	"しゃ": {"sya", "sha"}, "しぃ": {"syi"}, "しゅ": {"syu", "shu"}, "しぇ": {"sye", "she", "sxe"}, "しょ": {"syo", "sho"},
	"ちゃ": {"tya", "cha"}, "ちぃ": {"tyi"}, "ちゅ": {"tyu", "chu"}, "ちぇ": {"tye", "che"}, "ちょ": {"tyo", "cho"},
	"にゃ": {"nya"}, "にぃ": {"nyi"}, "にゅ": {"nyu"}, "にぇ": {"nye"}, "にょ": {"nyo"},
	"ひゃ": {"hya"}, "ひぃ": {"hyi"}, "ひゅ": {"hyu"}, "ひぇ": {"hye"}, "ひょ": {"hyo"},
	"みゃ": {"mya"}, "みぃ": {"myi"}, "みゅ": {"myu"}, "みぇ": {"mye"}, "みょ": {"myo"},
	"りゃ": {"rya"}, "りぃ": {"ryi"}, "りゅ": {"ryu"}, "りぇ": {"rye"}, "りょ": {"ryo"},
	"ぎゃ": {"gya"}, "ぎぃ": {"gyi"}, "ぎゅ": {"gyu"}, "ぎぇ": {"gye"}, "ぎょ": {"gyo"},
	"じゃ": {"zya", "ja", "jya"}, "じぃ": {"zyi"}, "じゅ": {"zyu", "ju", "jyu"}, "じぇ": {"zye", "je", "jye"}, "じょ": {"zyo", "jo", "jyo"},
	"びゃ": {"bya"}, "びぃ": {"byi"}, "びゅ": {"byu"}, "びぇ": {"bye"}, "びょ": {"byo"},
	"ぴゃ": {"pya"}, "ぴぃ": {"pyi"}, "ぴゅ": {"pyu"}, "ぴぇ": {"pye"}, "ぴょ": {"pyo"},

	"てゃ": {"tha"}, "てぃ": {"thi", "txi", "teli"}, "てゅ": {"thu"}, "てぇ": {"the"}, "てょ": {"tho"},
	"でゃ": {"dha"}, "でぃ": {"dhi", "dxi", "deli"}, "でゅ": {"dhu"}, "でぇ": {"dhe"}, "でょ": {"dho"},

	"ふぁ": {"fa", "fua"}, "ふぃ": {"fi", "fui"}, "ふぅ": {"fu"}, "ふぇ": {"fe", "fue"}, "ふぉ": {"fo", "fuo"},

	"ゔ": {"vu"}, "ゔぁ": {"va"}, "ゔぃ": {"vi"}, "ゔぇ": {"ve"}, "ゔぉ": {"vo"},
	"うぁ": {"wha"}, "うぃ": {"wi", "whi"}, "うぇ": {"we", "whe"}, "うぉ": {"who"},

	// katakana that shows up in scraped readings
	"シェ": {"sye", "she"}, "チェ": {"tye", "che"}, "ジェ": {"zye", "je", "jye"},
	"ヴ": {"vu"}, "ヴァ": {"va"}, "ヴィ": {"vi"}, "ヴェ": {"ve"}, "ヴォ": {"vo"},

	"ー": {"-"}, "、": {","}, "。": {".", ","},
	"！": {"!"}, "？": {"?"},
	"・": {"/"},
}

// Romanizations returns the accepted spellings of unit in preference order.
// A unit the table does not know matches itself literally.
func Romanizations(unit string) []string {
	if r, ok := romanizations[unit]; ok {
		return r
	}

	return []string{unit}
}

// Known reports whether unit has an entry in the romanization table.
func Known(unit string) bool {
	_, ok := romanizations[unit]

	return ok
}
