// Package emergency produces deterministic last-resort answers when no
// language model is reachable.
package emergency

import (
	"github.com/ziadkadry99/boilerbrain/internal/diagnostic"
)

var gasLeakPhrases = []string{
	"smell gas", "smell of gas", "smells of gas", "gas smell", "smelling gas", "gas leak",
	"leaking gas", "gas leaking",
}

var carbonMonoxidePhrases = []string{
	"carbon monoxide", "co alarm", "co detector", "co poisoning", "co alarm going off",
}

var certificationPhrases = []string{
	"not gas safe", "not registered", "unregistered", "not certified", "uncertified",
	"no certificate", "without a certificate", "no gas safe", "diy gas",
}

// Generate returns the emergency response for message in the conversation
// c. It performs no I/O and always returns one of the fixed templates.
// c may be nil.
func Generate(message string, c *diagnostic.Context) string {
	switch {
	case diagnostic.MentionsAny(message, gasLeakPhrases):
		return GasLeakTemplate
	case diagnostic.MentionsAny(message, carbonMonoxidePhrases):
		return CarbonMonoxideTemplate
	case diagnostic.MentionsAny(message, certificationPhrases):
		return CertificationTemplate
	}

	analysis := diagnostic.AnalyzeContext(c, message)
	if analysis.Manufacturer == "" || !analysis.HasSystemType || !symptomMentioned(message, c) {
		return NeedMoreInfoTemplate
	}

	if hotWaterProblem(message, c) {
		switch analysis.SystemType {
		case diagnostic.SystemCombi:
			return CombiHotWaterTemplate
		case diagnostic.SystemSealed:
			return SystemHotWaterTemplate
		case diagnostic.SystemRegular:
			return RegularHotWaterTemplate
		}
	}

	if len(analysis.FaultCodes) > 0 {
		return UnknownFaultCodeTemplate
	}
	return DefaultTemplate
}

func symptomMentioned(message string, c *diagnostic.Context) bool {
	return anyUserText(message, c, diagnostic.MentionsSymptom)
}

func hotWaterProblem(message string, c *diagnostic.Context) bool {
	return anyUserText(message, c, diagnostic.MentionsHotWaterSymptom)
}

func anyUserText(message string, c *diagnostic.Context, match func(string) bool) bool {
	if match(message) {
		return true
	}
	if c == nil {
		return false
	}
	for _, t := range c.Turns {
		if t.Sender == diagnostic.SenderUser && match(t.Text) {
			return true
		}
	}
	return false
}
