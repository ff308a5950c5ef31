package diagnostic

import (
	"slices"
	"time"
)

// Sender identifies who wrote a conversation turn.
type Sender string

const (
	SenderUser      Sender = "user"
	SenderAssistant Sender = "assistant"
)

// Turn is a single message in a diagnostic conversation.
type Turn struct {
	Sender    Sender    `json:"sender"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// SystemType is the heating system layout.
type SystemType string

const (
	SystemUnknown SystemType = ""
	SystemCombi   SystemType = "combi"
	SystemSealed  SystemType = "system"
	SystemRegular SystemType = "regular"
)

// CheckState is the tri-state outcome of a basic safety check.
type CheckState string

const (
	CheckUnknown   CheckState = "unknown"
	CheckConfirmed CheckState = "confirmed"
	CheckDenied    CheckState = "denied"
)

// Basic safety checks an engineer is expected to have done before diagnosis.
const (
	CheckGasSupply = "gas_supply"
	CheckPower     = "power"
	CheckPressure  = "pressure"
	CheckIsolation = "isolation"
)

// BasicCheckNames lists the basic checks in the order they are asked about.
var BasicCheckNames = []string{CheckGasSupply, CheckPower, CheckPressure, CheckIsolation}

// Facts are the structured details derived from a conversation.
type Facts struct {
	SystemType   SystemType            `json:"system_type,omitempty"`
	Manufacturer string                `json:"manufacturer,omitempty"`
	Model        string                `json:"model,omitempty"`
	FaultCodes   []string              `json:"fault_codes,omitempty"`
	NoFaultCodes bool                  `json:"no_fault_codes,omitempty"`
	BasicChecks  map[string]CheckState `json:"basic_checks,omitempty"`
}

// AddFaultCode inserts code keeping FaultCodes sorted and free of duplicates.
func (f *Facts) AddFaultCode(code string) {
	i, found := slices.BinarySearch(f.FaultCodes, code)
	if found {
		return
	}
	f.FaultCodes = slices.Insert(f.FaultCodes, i, code)
}

// HasFaultCode reports whether code has been recorded.
func (f *Facts) HasFaultCode(code string) bool {
	_, found := slices.BinarySearch(f.FaultCodes, code)
	return found
}

// Check returns the state of a basic check, defaulting to unknown.
func (f *Facts) Check(name string) CheckState {
	if s, ok := f.BasicChecks[name]; ok {
		return s
	}
	return CheckUnknown
}

// SetCheck records the state of a basic check.
func (f *Facts) SetCheck(name string, state CheckState) {
	if f.BasicChecks == nil {
		f.BasicChecks = make(map[string]CheckState)
	}
	f.BasicChecks[name] = state
}

// Context is the conversation state for one session. It is owned by a single
// in-flight request at a time.
type Context struct {
	Turns      []Turn `json:"turns"`
	Facts      Facts  `json:"facts"`
	DetailMode bool   `json:"detail_mode,omitempty"`
}

// AppendTurn adds a turn stamped with the current time.
func (c *Context) AppendTurn(sender Sender, text string) {
	c.Turns = append(c.Turns, Turn{Sender: sender, Text: text, Timestamp: time.Now().UTC()})
}

// LastAssistantTurn returns the most recent assistant turn, if any.
func (c *Context) LastAssistantTurn() (Turn, bool) {
	for i := len(c.Turns) - 1; i >= 0; i-- {
		if c.Turns[i].Sender == SenderAssistant {
			return c.Turns[i], true
		}
	}
	return Turn{}, false
}

// Clone returns a deep copy safe to hand to another goroutine or serialise.
func (c *Context) Clone() *Context {
	if c == nil {
		return nil
	}
	out := &Context{
		Turns:      slices.Clone(c.Turns),
		Facts:      c.Facts,
		DetailMode: c.DetailMode,
	}
	out.Facts.FaultCodes = slices.Clone(c.Facts.FaultCodes)
	if c.Facts.BasicChecks != nil {
		out.Facts.BasicChecks = make(map[string]CheckState, len(c.Facts.BasicChecks))
		for k, v := range c.Facts.BasicChecks {
			out.Facts.BasicChecks[k] = v
		}
	}
	return out
}

// Question is the single next piece of information to ask the engineer for.
type Question string

const (
	QuestionNone       Question = ""
	QuestionFaultCodes Question = "faultCodes"
	QuestionSystemType Question = "systemType"
	QuestionMakeModel  Question = "makeModel"
)

// Stage is the current point in the information-gathering sequence.
type Stage string

const (
	StageFaultCodes        Stage = "fault_codes"
	StageSystemType        Stage = "system_type"
	StageMakeModel         Stage = "make_model"
	StageBasicChecks       Stage = "basic_checks"
	StageDetailedDiagnosis Stage = "detailed_diagnosis"
)

// StageAnalysis is the immutable result of analysing one turn.
type StageAnalysis struct {
	HasFaultCodes bool `json:"has_fault_codes"`
	HasSystemType bool `json:"has_system_type"`
	HasMakeModel  bool `json:"has_make_model"`

	Manufacturer string                `json:"manufacturer,omitempty"`
	Model        string                `json:"model,omitempty"`
	SystemType   SystemType            `json:"system_type,omitempty"`
	FaultCodes   []string              `json:"fault_codes,omitempty"`
	NoFaultCodes bool                  `json:"no_fault_codes,omitempty"`
	BasicChecks  map[string]CheckState `json:"basic_checks,omitempty"`

	NextQuestion               Question `json:"next_question,omitempty"`
	ShouldProceedWithDiagnosis bool     `json:"should_proceed_with_diagnosis"`
	DiagnosticStage            Stage    `json:"diagnostic_stage"`
}

// Facts converts the analysis back into conversation facts.
func (a StageAnalysis) Facts() Facts {
	f := Facts{
		SystemType:   a.SystemType,
		Manufacturer: a.Manufacturer,
		Model:        a.Model,
		FaultCodes:   slices.Clone(a.FaultCodes),
		NoFaultCodes: a.NoFaultCodes,
	}
	for k, v := range a.BasicChecks {
		f.SetCheck(k, v)
	}
	return f
}
