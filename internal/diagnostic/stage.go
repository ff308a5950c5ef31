package diagnostic

// Analyze determines which mandatory facts are known from the user turns of
// history plus the new message, and what to ask next. It is pure: the same
// input always yields the same analysis.
func Analyze(history []Turn, message string) StageAnalysis {
	return analyzeFrom(Facts{}, history, message)
}

// AnalyzeContext is Analyze seeded with facts already recorded on c, such as
// those merged from an earlier model reply.
func AnalyzeContext(c *Context, message string) StageAnalysis {
	if c == nil {
		return Analyze(nil, message)
	}
	return analyzeFrom(c.Facts, c.Turns, message)
}

func analyzeFrom(seed Facts, history []Turn, message string) StageAnalysis {
	facts := Facts{
		SystemType:   seed.SystemType,
		Manufacturer: seed.Manufacturer,
		Model:        seed.Model,
		NoFaultCodes: seed.NoFaultCodes,
	}
	for _, code := range seed.FaultCodes {
		facts.AddFaultCode(code)
	}
	for name, state := range seed.BasicChecks {
		facts.SetCheck(name, state)
	}

	for _, turn := range history {
		if turn.Sender == SenderUser {
			absorb(&facts, turn.Text)
		}
	}
	absorb(&facts, message)

	a := StageAnalysis{
		HasFaultCodes: len(facts.FaultCodes) > 0 || facts.NoFaultCodes,
		HasSystemType: facts.SystemType != SystemUnknown,
		HasMakeModel:  facts.Manufacturer != "" || facts.Model != "",
		Manufacturer:  facts.Manufacturer,
		Model:         facts.Model,
		SystemType:    facts.SystemType,
		FaultCodes:    facts.FaultCodes,
		NoFaultCodes:  facts.NoFaultCodes,
		BasicChecks:   facts.BasicChecks,
	}

	a.NextQuestion = decideNextQuestion(a.HasFaultCodes, a.HasSystemType, a.HasMakeModel)
	if a.NextQuestion != QuestionNone && hasMinimumInformation(facts, message) {
		a.NextQuestion = QuestionNone
	}
	a.ShouldProceedWithDiagnosis = a.NextQuestion == QuestionNone
	a.DiagnosticStage = stageFor(a)
	return a
}

// absorb folds the facts mentioned in text into f. Later mentions override
// earlier ones; fault codes accumulate.
func absorb(f *Facts, text string) {
	tokens := tokenize(text)
	if len(tokens) == 0 {
		return
	}
	for _, code := range faultCodesIn(tokens) {
		f.AddFaultCode(code)
	}
	if containsAny(tokens, noFaultCodePhrases) {
		f.NoFaultCodes = true
	}
	if manufacturer, model, ok := manufacturerIn(tokens); ok {
		if manufacturer != f.Manufacturer {
			f.Model = ""
		}
		f.Manufacturer = manufacturer
		if model != "" {
			f.Model = model
		}
	}
	if st := systemTypeIn(tokens); st != SystemUnknown {
		f.SystemType = st
	}
	for name, state := range basicChecksIn(tokens) {
		f.SetCheck(name, state)
	}
}

// decideNextQuestion is the strict question policy; the first rule that
// matches wins.
func decideNextQuestion(hasFaultCodes, hasSystemType, hasMakeModel bool) Question {
	switch {
	case !hasFaultCodes && !hasMakeModel:
		return QuestionFaultCodes
	case !hasSystemType && !hasMakeModel:
		return QuestionSystemType
	case !hasMakeModel:
		return QuestionMakeModel
	default:
		return QuestionNone
	}
}

// hasMinimumInformation lets a short conversation skip straight to diagnosis.
func hasMinimumInformation(f Facts, message string) bool {
	switch {
	case f.Manufacturer != "" && f.Model != "":
		return true
	case len(f.FaultCodes) > 0:
		return true
	case f.SystemType != SystemUnknown && MentionsHotWaterSymptom(message):
		return true
	}
	return false
}

func stageFor(a StageAnalysis) Stage {
	switch a.NextQuestion {
	case QuestionFaultCodes:
		return StageFaultCodes
	case QuestionSystemType:
		return StageSystemType
	case QuestionMakeModel:
		return StageMakeModel
	}
	if len(a.FaultCodes) == 0 && !allChecksResolved(a.BasicChecks) {
		return StageBasicChecks
	}
	return StageDetailedDiagnosis
}

func allChecksResolved(checks map[string]CheckState) bool {
	for _, name := range BasicCheckNames {
		if s, ok := checks[name]; !ok || s == CheckUnknown {
			return false
		}
	}
	return true
}
