// internal/scpi/function_test.go
package scpi

import "testing"

func TestParseFunction_SubstringMatch(t *testing.T) {
	cases := []struct {
		cmd  string
		want Function
	}{
		{"MEAS:VOLT:DC?", VoltageDC},
		{"ANYTHING VOLT:DC MORE", VoltageDC},
		{"conf:volt:ac", VoltageAC},
		{"FUNC1 CURR:DC", CurrentDC},
		{"MEAS:CURR:AC?", CurrentAC},
		{"MEAS:RES?", Resistance},
		{"MEAS:CONT?", Continuity},
		{"FUNC1 DIOD", Diode},
		{"MEAS:FREQ?", Frequency},
		{"MEAS:TEMP?", Temperature},
		{"MEAS:CAP?", Capacitance},
		{"MEAS1?", Unknown},
		{"*IDN?", Unknown},
		{"", Unknown},
	}
	for _, c := range cases {
		if got := ParseFunction(c.cmd); got != c.want {
			t.Fatalf("ParseFunction(%q)=%s want=%s", c.cmd, got, c.want)
		}
	}
}

func TestParseFunction_PriorityOrder(t *testing.T) {
	// Resistance is checked before capacitance and frequency.
	if got := ParseFunction("CAP RES FREQ"); got != Resistance {
		t.Fatalf("got=%s want=%s", got, Resistance)
	}
	// Voltage DC beats everything.
	if got := ParseFunction("CURR:AC VOLT:DC"); got != VoltageDC {
		t.Fatalf("got=%s want=%s", got, VoltageDC)
	}
}

func TestFunctionByName(t *testing.T) {
	if f, ok := FunctionByName("DC Voltage"); !ok || f != VoltageDC {
		t.Fatalf("label lookup failed: %s %v", f, ok)
	}
	if f, ok := FunctionByName("resistance"); !ok || f != Resistance {
		t.Fatalf("case-insensitive label failed: %s %v", f, ok)
	}
	if f, ok := FunctionByName("CURRENT_AC"); !ok || f != CurrentAC {
		t.Fatalf("identifier lookup failed: %s %v", f, ok)
	}
	if _, ok := FunctionByName("MEAS:VOLT:DC?"); ok {
		t.Fatalf("raw command must not resolve as a name")
	}
	if _, ok := FunctionByName("Unknown"); ok {
		t.Fatalf("unknown is not selectable")
	}
}
