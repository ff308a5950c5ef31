package diagnostic

import "strings"

var detailRequestPhrases = []string{
	"how do i check that", "how do i check", "walk me through", "step by step",
	"what tools do i need", "what tools", "show me how", "in detail",
}

var regulationPhrases = []string{
	"flue", "combustion", "burner pressure", "gas valve", "seal", "seals", "gas rate", "flue gas analyser",
}

// DetailMode returns the detail mode after message: "@detailed" and
// "@basic" force it on or off, detail requests switch it on, anything else
// leaves current unchanged.
func DetailMode(message string, current bool) bool {
	lower := strings.ToLower(message)
	switch {
	case strings.Contains(lower, "@basic"):
		return false
	case strings.Contains(lower, "@detailed"):
		return true
	case containsAny(tokenize(message), detailRequestPhrases):
		return true
	}
	return current
}

// RegulationTriggered reports whether message touches work covered by gas
// safety regulations, so the reply should cite them.
func RegulationTriggered(message string) bool {
	return containsAny(tokenize(message), regulationPhrases)
}
