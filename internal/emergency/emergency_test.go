package emergency

import (
	"strings"
	"testing"

	"github.com/ziadkadry99/boilerbrain/internal/diagnostic"
)

func TestGenerateSafetyOverride(t *testing.T) {
	tests := []struct {
		message string
		want    string
	}{
		{"I can smell gas in the kitchen", GasLeakTemplate},
		{"Worcester combi, no hot water, and I can smell gas", GasLeakTemplate},
		{"the CO alarm keeps beeping", CarbonMonoxideTemplate},
		{"my mate is not gas safe but can he swap the valve?", CertificationTemplate},
	}
	for _, tt := range tests {
		if got := Generate(tt.message, nil); got != tt.want {
			t.Errorf("Generate(%q) = %q, want %q", tt.message, firstLine(got), firstLine(tt.want))
		}
	}
}

func TestGenerateNeedsMoreInformation(t *testing.T) {
	tests := []string{
		"boiler's broken",
		"combi with no hot water",       // no manufacturer
		"Vaillant ecoTEC, no hot water", // no system type
		"Baxi combi",                    // no symptom
	}
	for _, msg := range tests {
		if got := Generate(msg, nil); got != NeedMoreInfoTemplate {
			t.Errorf("Generate(%q) = %q, want need-more-info", msg, firstLine(got))
		}
	}
}

func TestGenerateHotWaterTemplates(t *testing.T) {
	tests := []struct {
		message string
		want    string
	}{
		{"Ideal Logic combi, no hot water", CombiHotWaterTemplate},
		{"Vaillant system boiler, no hot water", SystemHotWaterTemplate},
		{"Potterton heat only boiler, no hot water", RegularHotWaterTemplate},
	}
	for _, tt := range tests {
		if got := Generate(tt.message, nil); got != tt.want {
			t.Errorf("Generate(%q) = %q, want %q", tt.message, firstLine(got), firstLine(tt.want))
		}
	}
}

func TestGenerateUsesConversationFacts(t *testing.T) {
	c := &diagnostic.Context{Facts: diagnostic.Facts{Manufacturer: "baxi", SystemType: diagnostic.SystemCombi}}
	c.AppendTurn(diagnostic.SenderUser, "there's no hot water")

	if got := Generate("what should I do?", c); got != CombiHotWaterTemplate {
		t.Errorf("got %q, want combi hot water template", firstLine(got))
	}
}

func TestGenerateFaultCodeAndDefault(t *testing.T) {
	if got := Generate("Baxi combi keeps locking out with E133", nil); got != UnknownFaultCodeTemplate {
		t.Errorf("got %q, want unknown fault code", firstLine(got))
	}
	if got := Generate("Baxi combi keeps locking out", nil); got != DefaultTemplate {
		t.Errorf("got %q, want default", firstLine(got))
	}
}

func TestGenerateIsTotal(t *testing.T) {
	allowed := map[string]bool{
		GasLeakTemplate: true, CarbonMonoxideTemplate: true, CertificationTemplate: true,
		NeedMoreInfoTemplate: true, CombiHotWaterTemplate: true, SystemHotWaterTemplate: true,
		RegularHotWaterTemplate: true, UnknownFaultCodeTemplate: true, DefaultTemplate: true,
	}
	inputs := []string{"", "   ", "???", "E1 F2 L3", strings.Repeat("combi ", 500), "ideal system no hot water F28"}
	for _, in := range inputs {
		got := Generate(in, nil)
		if strings.TrimSpace(got) == "" || !allowed[got] {
			t.Errorf("Generate(%q) returned an unexpected response", in)
		}
	}
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return line
}
