package assistant

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ziadkadry99/boilerbrain/internal/diagnostic"
	"github.com/ziadkadry99/boilerbrain/internal/llm"
)

const enhancedSystemPrompt = `You are BoilerBrain, a senior gas engineer helping another qualified engineer diagnose domestic boilers.

Follow the structured diagnostic workflow:
- Ask only for missing information, one question at a time.
- When enough details are available, request a knowledge base lookup for the fault code or symptom.
- If the knowledge base is unlikely to help, use expert engineering knowledge for a probable diagnosis.
- Be professional, short and direct.
- In detail mode give step-by-step instructions with test values, tools, part locations and safety tips.
- When regulations are flagged, cite the relevant gas safety regulation.

Reply with a single JSON object and nothing else:
{
  "action": "ask" | "query" | "fallback_reasoning",
  "response": "message for the engineer",
  "context_update": {"system_type": "", "make_model": "", "fault_code": "", "detail_mode": false},
  "knowledge_query": {"manufacturer": "", "fault_code": "", "text": ""},
  "manual_link": "",
  "regulation_ref": ""
}`

const legacySystemPrompt = `You are BoilerBrain, a gas engineer's assistant. Answer in plain text, at most a few short sentences. If important details are missing, ask for exactly one of them. Never guess at work that requires a Gas Safe registered engineer; say so instead.`

var questionText = map[diagnostic.Question]string{
	diagnostic.QuestionFaultCodes: "Are there any fault codes showing on the boiler display?",
	diagnostic.QuestionSystemType: "Is it a combi, system or regular (heat only) boiler?",
	diagnostic.QuestionMakeModel:  "What is the make and model of the boiler?",
}

// QuestionText returns the wording for the next question, or "" for none.
func QuestionText(q diagnostic.Question) string {
	return questionText[q]
}

type promptState struct {
	Facts           diagnostic.Facts    `json:"facts"`
	DetailMode      bool                `json:"detail_mode"`
	RegulationFlag  bool                `json:"regulation_trigger"`
	DiagnosticStage diagnostic.Stage    `json:"diagnostic_stage"`
	NextQuestion    diagnostic.Question `json:"next_question,omitempty"`
	Proceed         bool                `json:"should_proceed_with_diagnosis"`
}

// history converts the conversation into chat messages, leaving out the
// trailing user turn when it is the message being answered.
func history(c *diagnostic.Context, message string) []llm.Message {
	turns := c.Turns
	if n := len(turns); n > 0 && turns[n-1].Sender == diagnostic.SenderUser && turns[n-1].Text == message {
		turns = turns[:n-1]
	}
	out := make([]llm.Message, 0, len(turns))
	for _, t := range turns {
		role := llm.RoleUser
		if t.Sender == diagnostic.SenderAssistant {
			role = llm.RoleAssistant
		}
		out = append(out, llm.Message{Role: role, Content: t.Text})
	}
	return out
}

func buildEnhancedMessages(c *diagnostic.Context, a diagnostic.StageAnalysis, message string, regulation bool) []llm.Message {
	state, _ := json.MarshalIndent(promptState{
		Facts:           c.Facts,
		DetailMode:      c.DetailMode,
		RegulationFlag:  regulation,
		DiagnosticStage: a.DiagnosticStage,
		NextQuestion:    a.NextQuestion,
		Proceed:         a.ShouldProceedWithDiagnosis,
	}, "", "  ")

	var sb strings.Builder
	fmt.Fprintf(&sb, "Current diagnostic context:\n%s\n\n", state)
	if q := QuestionText(a.NextQuestion); q != "" {
		fmt.Fprintf(&sb, "Information still missing. Ask: %s\n\n", q)
	}
	fmt.Fprintf(&sb, "Latest engineer input: %s", message)

	msgs := []llm.Message{{Role: llm.RoleSystem, Content: enhancedSystemPrompt}}
	msgs = append(msgs, history(c, message)...)
	return append(msgs, llm.Message{Role: llm.RoleUser, Content: sb.String()})
}

func buildLegacyMessages(c *diagnostic.Context, a diagnostic.StageAnalysis, message string) []llm.Message {
	var sb strings.Builder
	if q := QuestionText(a.NextQuestion); q != "" {
		fmt.Fprintf(&sb, "Before diagnosing, ask: %s\n\n", q)
	}
	f := c.Facts
	fmt.Fprintf(&sb, "Known: system=%s manufacturer=%s model=%s fault_codes=%s\n\n",
		orUnknown(string(f.SystemType)), orUnknown(f.Manufacturer), orUnknown(f.Model), orUnknown(strings.Join(f.FaultCodes, ",")))
	sb.WriteString(message)

	msgs := []llm.Message{{Role: llm.RoleSystem, Content: legacySystemPrompt}}
	msgs = append(msgs, history(c, message)...)
	return append(msgs, llm.Message{Role: llm.RoleUser, Content: sb.String()})
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}
