package progress

import (
	"bytes"
	"strings"
	"testing"
)

func TestCIReporterWritesLines(t *testing.T) {
	var buf bytes.Buffer
	r := &CIReporter{Description: "Importing knowledge", Out: &buf}
	r.Start(2)
	r.Update(1, "ideal L2")
	r.Update(2, "baxi E133")
	r.Finish()

	out := buf.String()
	for _, want := range []string{"Importing knowledge: 2 item(s)", "[1/2] ideal L2", "[2/2] baxi E133", "Importing knowledge: done"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestNewReporterUsesCIInCI(t *testing.T) {
	t.Setenv("CI", "true")
	if _, ok := NewReporter("x").(*CIReporter); !ok {
		t.Error("expected CIReporter when CI is set")
	}
}
