package selector

import (
	"strings"
	"unicode"
)

// Complexity grades how technical a query is.
type Complexity string

const (
	ComplexityLow    Complexity = "low"
	ComplexityMedium Complexity = "medium"
	ComplexityHigh   Complexity = "high"
)

// QueryProfile is the classification of a single query.
type QueryProfile struct {
	IsSafetyCritical bool       `json:"is_safety_critical"`
	Complexity       Complexity `json:"complexity"`
	IsEmergency      bool       `json:"is_emergency"`
}

var safetyPhrases = []string{
	"leak", "leaking", "carbon monoxide", "explosion", "danger", "dangerous",
	"smell gas", "smell of gas", "fumes", "co alarm",
}

var technicalPhrases = []string{
	"pcb", "circuit board", "diverter valve", "heat exchanger", "thermistor", "ntc",
	"fan", "pump", "expansion vessel", "gas valve", "ignition", "flame sensor",
	"electrode", "condensate", "flue", "pressure sensor", "overheat", "airlock",
	"prv", "burner", "pressure relief valve", "dhw sensor", "flow sensor",
}

var emergencyPhrases = []string{"emergency", "urgent", "urgently"}

var noHeatingPhrases = []string{"no heating", "no heat", "heating not working"}

var vulnerablePhrases = []string{"elderly", "baby", "infant", "newborn", "pregnant", "disabled", "vulnerable"}

// Classify profiles query by safety, technical depth and urgency.
func Classify(query string) QueryProfile {
	text := normalise(query)

	p := QueryProfile{
		IsSafetyCritical: countPhrases(text, safetyPhrases) > 0,
		Complexity:       ComplexityLow,
	}
	switch n := countPhrases(text, technicalPhrases); {
	case n >= 3:
		p.Complexity = ComplexityHigh
	case n >= 1:
		p.Complexity = ComplexityMedium
	}
	p.IsEmergency = countPhrases(text, emergencyPhrases) > 0 ||
		(countPhrases(text, noHeatingPhrases) > 0 && countPhrases(text, vulnerablePhrases) > 0)
	return p
}

// normalise lower-cases s and reduces it to space-separated words padded
// with a space on each side, so phrase matching respects word boundaries.
func normalise(s string) string {
	words := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	return " " + strings.Join(words, " ") + " "
}

func countPhrases(text string, phrases []string) int {
	n := 0
	for _, p := range phrases {
		if strings.Contains(text, " "+p+" ") {
			n++
		}
	}
	return n
}
