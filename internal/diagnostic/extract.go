package diagnostic

import (
	"strings"
	"unicode"
)

// ExtractFaultCodes returns the normalised fault codes mentioned in text, in
// order of appearance. "F-22", "f.22" and "F22" all normalise to "F22".
func ExtractFaultCodes(text string) []string {
	return faultCodesIn(tokenize(text))
}

func faultCodesIn(tokens []string) []string {
	var codes []string
	seen := make(map[string]bool)
	for i := 0; i < len(tokens); i++ {
		t := tokens[i]
		if i+1 < len(tokens) && isSplitCodeLead(t) && isDigits(tokens[i+1]) {
			t += tokens[i+1]
			i++
		}
		code, ok := normaliseFaultCode(t)
		if !ok || seen[code] {
			continue
		}
		seen[code] = true
		codes = append(codes, code)
	}
	return codes
}

// isSplitCodeLead reports whether t is a lone fault-code letter that may be
// separated from its digits, as in "E 119". The article "a" never is.
func isSplitCodeLead(t string) bool {
	return len(t) == 1 && t != "a" && strings.ContainsRune(faultCodeAlphabet, unicode.ToUpper(rune(t[0])))
}

func isDigits(t string) bool {
	if t == "" {
		return false
	}
	for _, r := range t {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// normaliseFaultCode accepts a single leading letter from the fault-code
// alphabet followed by one to three digits.
func normaliseFaultCode(token string) (string, bool) {
	t := strings.NewReplacer("-", "", ".", "").Replace(token)
	if len(t) < 2 || len(t) > 4 {
		return "", false
	}
	lead := unicode.ToUpper(rune(t[0]))
	if !strings.ContainsRune(faultCodeAlphabet, lead) {
		return "", false
	}
	for _, r := range t[1:] {
		if r < '0' || r > '9' {
			return "", false
		}
	}
	return string(lead) + t[1:], true
}

// MatchManufacturer finds the longest known manufacturer name in text and the
// model words that follow it. Both are lower case; ok is false when no
// manufacturer is mentioned.
func MatchManufacturer(text string) (manufacturer, model string, ok bool) {
	return manufacturerIn(tokenize(text))
}

func manufacturerIn(tokens []string) (string, string, bool) {
	phrase, idx := matchLongest(tokens, manufacturerPhrases)
	if idx < 0 {
		return "", "", false
	}
	var modelWords []string
	for _, t := range tokens[idx+len(strings.Fields(phrase)):] {
		if modelStopWords[t] || len(modelWords) == 3 {
			break
		}
		if _, isCode := normaliseFaultCode(t); isCode {
			break
		}
		modelWords = append(modelWords, t)
	}
	return manufacturers[phrase], strings.Join(modelWords, " "), true
}

// DetectSystemType returns the system type named in text, if any.
func DetectSystemType(text string) SystemType {
	return systemTypeIn(tokenize(text))
}

func systemTypeIn(tokens []string) SystemType {
	for _, family := range systemTypeFamilies {
		if containsAny(tokens, family.Phrases) {
			return family.Type
		}
	}
	// A bare "system" is only an answer when the message is a short reply;
	// otherwise it is usually "heating system".
	if len(tokens) <= 3 && findPhrase(tokens, "system") >= 0 {
		return SystemSealed
	}
	return SystemUnknown
}

// DetectBasicChecks resolves each basic check mentioned in text to confirmed
// or denied, using a negation lookback in front of the mention.
func DetectBasicChecks(text string) map[string]CheckState {
	return basicChecksIn(tokenize(text))
}

func basicChecksIn(tokens []string) map[string]CheckState {
	var out map[string]CheckState
	for _, name := range BasicCheckNames {
		_, idx := matchLongest(tokens, basicCheckPhrases[name])
		if idx < 0 {
			continue
		}
		if out == nil {
			out = make(map[string]CheckState)
		}
		out[name] = negatedBefore(tokens, idx)
	}
	return out
}

func negatedBefore(tokens []string, idx int) CheckState {
	for _, t := range tokens[max(0, idx-negationWindow):idx] {
		if negationWords[t] {
			return CheckDenied
		}
	}
	return CheckConfirmed
}

// MentionsNoFaultCodes reports an explicit statement that no code is displayed.
func MentionsNoFaultCodes(text string) bool {
	return containsAny(tokenize(text), noFaultCodePhrases)
}

// MentionsHotWaterSymptom reports "no hot water"/"heating works" style phrases.
func MentionsHotWaterSymptom(text string) bool {
	return containsAny(tokenize(text), hotWaterSymptomPhrases)
}

// MentionsSymptom reports whether text describes any recognised symptom.
func MentionsSymptom(text string) bool {
	return containsAny(tokenize(text), symptomPhrases)
}

// MentionsAny reports whether text contains any of phrases as whole words.
func MentionsAny(text string, phrases []string) bool {
	return containsAny(tokenize(text), phrases)
}
