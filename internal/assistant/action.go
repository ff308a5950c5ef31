package assistant

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ziadkadry99/boilerbrain/internal/diagnostic"
)

// Actions a model reply can request.
const (
	ActionAsk               = "ask"
	ActionQuery             = "query"
	ActionFallbackReasoning = "fallback_reasoning"
)

// Action is the structured reply the enhanced prompt asks the model for.
type Action struct {
	Action         string         `json:"action"`
	Response       string         `json:"response"`
	ContextUpdate  ContextUpdate  `json:"context_update"`
	KnowledgeQuery KnowledgeQuery `json:"knowledge_query"`
	ManualLink     string         `json:"manual_link"`
	RegulationRef  string         `json:"regulation_ref"`
}

// ContextUpdate carries facts the model learned from the conversation.
type ContextUpdate struct {
	SystemType string `json:"system_type,omitempty"`
	MakeModel  string `json:"make_model,omitempty"`
	FaultCode  string `json:"fault_code,omitempty"`
	DetailMode *bool  `json:"detail_mode,omitempty"`
}

// KnowledgeQuery is the lookup requested by a query action.
type KnowledgeQuery struct {
	Manufacturer string `json:"manufacturer,omitempty"`
	FaultCode    string `json:"fault_code,omitempty"`
	Text         string `json:"text,omitempty"`
}

// ParseAction decodes a model reply, tolerating markdown code fences.
func ParseAction(raw string) (Action, error) {
	raw = stripFences(raw)

	var a Action
	if err := json.Unmarshal([]byte(raw), &a); err != nil {
		return Action{}, fmt.Errorf("json parse: %w", err)
	}
	a.Action = strings.ToLower(strings.TrimSpace(a.Action))
	return a, nil
}

func stripFences(raw string) string {
	raw = strings.TrimSpace(raw)
	if !strings.HasPrefix(raw, "```") {
		return raw
	}
	lines := strings.Split(raw, "\n")
	if len(lines) < 2 {
		return strings.Trim(raw, "`")
	}
	// Remove first line (```json) and last line (```)
	end := len(lines)
	if strings.TrimSpace(lines[end-1]) == "```" {
		end--
	}
	return strings.TrimSpace(strings.Join(lines[1:end], "\n"))
}

// Apply merges the update into c. Values the model reports only fill or
// refine facts; they never clear them.
func (u ContextUpdate) Apply(c *diagnostic.Context) {
	if u.SystemType != "" {
		if st := diagnostic.DetectSystemType(u.SystemType); st != diagnostic.SystemUnknown {
			c.Facts.SystemType = st
		} else if strings.EqualFold(strings.TrimSpace(u.SystemType), "standard") {
			c.Facts.SystemType = diagnostic.SystemRegular
		}
	}
	if u.MakeModel != "" {
		if manufacturer, model, ok := diagnostic.MatchManufacturer(u.MakeModel); ok {
			c.Facts.Manufacturer = manufacturer
			if model != "" {
				c.Facts.Model = model
			}
		} else if c.Facts.Model == "" {
			c.Facts.Model = strings.ToLower(strings.TrimSpace(u.MakeModel))
		}
	}
	for _, code := range diagnostic.ExtractFaultCodes(u.FaultCode) {
		c.Facts.AddFaultCode(code)
	}
	if u.DetailMode != nil {
		c.DetailMode = *u.DetailMode
	}
}
