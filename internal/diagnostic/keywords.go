package diagnostic

import (
	"cmp"
	"slices"
	"strings"
	"unicode"
)

// faultCodeAlphabet holds the leading letters used by UK boiler fault displays.
const faultCodeAlphabet = "AEFLH"

// negationWindow is how many words before a check mention are searched for a negation.
const negationWindow = 4

// manufacturers maps every recognised spelling to its canonical name.
var manufacturers = map[string]string{
	"worcester bosch": "worcester",
	"worcester":       "worcester",
	"bosch":           "worcester",
	"glow-worm":       "glow-worm",
	"glow worm":       "glow-worm",
	"glowworm":        "glow-worm",
	"ideal":           "ideal",
	"vaillant":        "vaillant",
	"baxi":            "baxi",
	"viessmann":       "viessmann",
	"potterton":       "potterton",
	"vokera":          "vokera",
	"alpha":           "alpha",
	"ariston":         "ariston",
	"intergas":        "intergas",
	"navien":          "navien",
	"ferroli":         "ferroli",
	"biasi":           "biasi",
	"halstead":        "halstead",
	"keston":          "keston",
	"remeha":          "remeha",
	"atag":            "atag",
	"main heating":    "main",
}

// manufacturerPhrases is the manufacturers key set ordered longest first.
var manufacturerPhrases = longestFirst(keys(manufacturers))

var systemTypeFamilies = []struct {
	Type    SystemType
	Phrases []string
}{
	{SystemCombi, []string{"combination boiler", "combi", "combis", "combination"}},
	{SystemSealed, []string{"system boiler", "sealed system", "unvented cylinder", "unvented", "megaflo", "megaflow"}},
	{SystemRegular, []string{"regular boiler", "heat only", "heat-only", "open vented", "open vent", "conventional", "regular"}},
}

var basicCheckPhrases = map[string][]string{
	CheckGasSupply: {"gas supply", "gas meter", "gas is on", "gas on"},
	CheckPower:     {"mains power", "fused spur", "electrics", "electricity", "power"},
	CheckPressure:  {"system pressure", "pressure", "bar"},
	CheckIsolation: {"isolation valves", "isolation valve", "isolation", "isolators", "isolator", "valves open"},
}

var negationWords = map[string]bool{
	"no": true, "not": true, "isn't": true, "isnt": true, "without": true, "never": true,
	"no-one": true, "lost": true, "dead": true, "don't": true, "dont": true, "doesn't": true,
	"doesnt": true, "haven't": true, "havent": true, "can't": true, "cant": true, "nothing": true,
}

var noFaultCodePhrases = []string{
	"no fault codes", "no fault code", "no error codes", "no error code", "no codes", "no code",
	"none are lit", "none lit", "no lights", "not showing any code", "not showing a code",
	"no fault showing", "no faults showing", "display is blank",
}

var hotWaterSymptomPhrases = []string{
	"no hot water", "heating works", "heating is working", "heating working", "heating is fine",
}

// symptomPhrases are generic symptom keywords used to judge whether enough
// information exists for a templated answer.
var symptomPhrases = []string{
	"no hot water", "no heating", "no heat", "lukewarm", "not firing", "won't fire", "wont fire",
	"not igniting", "no ignition", "lockout", "locking out", "leaking", "leak", "noisy", "banging",
	"kettling", "losing pressure", "low pressure", "cold radiators", "cold", "intermittent", "cutting out",
	"pump", "diverter", "fan", "pilot",
}

// modelStopWords terminate the model name that follows a manufacturer.
var modelStopWords = map[string]bool{
	"combi": true, "system": true, "regular": true, "boiler": true, "showing": true, "with": true,
	"is": true, "has": true, "fault": true, "code": true, "error": true, "displaying": true,
	"on": true, "and": true, "the": true, "a": true, "that": true, "which": true, "no": true,
	"not": true, "it": true, "its": true, "it's": true, "keeps": true, "won't": true, "wont": true,
	"flashing": true, "lockout": true, "heat": true, "conventional": true, "but": true, "in": true,
}

// tokenize lower-cases text and splits it into words, keeping dashes, dots and
// apostrophes that sit inside a word.
func tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !(unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '.' || r == '\'')
	})
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		if f = strings.Trim(f, "-.'"); f != "" {
			tokens = append(tokens, f)
		}
	}
	return tokens
}

// findPhrase returns the token index at which phrase starts, or -1.
func findPhrase(tokens []string, phrase string) int {
	words := strings.Fields(phrase)
	if len(words) == 0 || len(words) > len(tokens) {
		return -1
	}
	for i := 0; i+len(words) <= len(tokens); i++ {
		if slices.Equal(tokens[i:i+len(words)], words) {
			return i
		}
	}
	return -1
}

// containsAny reports whether any phrase occurs in tokens.
func containsAny(tokens []string, phrases []string) bool {
	for _, p := range phrases {
		if findPhrase(tokens, p) >= 0 {
			return true
		}
	}
	return false
}

// matchLongest returns the first phrase (in the given longest-first order)
// found in tokens, along with its token index.
func matchLongest(tokens []string, phrases []string) (string, int) {
	for _, p := range phrases {
		if i := findPhrase(tokens, p); i >= 0 {
			return p, i
		}
	}
	return "", -1
}

// longestFirst orders phrases by word count then length, both descending.
func longestFirst(phrases []string) []string {
	out := slices.Clone(phrases)
	slices.SortFunc(out, func(a, b string) int {
		if c := cmp.Compare(len(strings.Fields(b)), len(strings.Fields(a))); c != 0 {
			return c
		}
		if c := cmp.Compare(len(b), len(a)); c != 0 {
			return c
		}
		return strings.Compare(a, b)
	})
	return out
}

func keys(m map[string]string) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
