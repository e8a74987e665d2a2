// internal/scpi/function.go
package scpi

import "strings"

// Function is the measurement function currently selected on the meter.
// The set is closed; Unknown is the zero value.
type Function int

const (
	Unknown Function = iota
	VoltageDC
	VoltageAC
	CurrentDC
	CurrentAC
	Resistance
	Continuity
	Diode
	Frequency
	Temperature
	Capacitance
)

// Functions lists every selectable function in match priority order.
var Functions = []Function{
	VoltageDC,
	VoltageAC,
	CurrentDC,
	CurrentAC,
	Resistance,
	Continuity,
	Diode,
	Frequency,
	Temperature,
	Capacitance,
}

// fragment is the SCPI mnemonic searched for in a command string.
func (f Function) fragment() string {
	switch f {
	case VoltageDC:
		return "VOLT:DC"
	case VoltageAC:
		return "VOLT:AC"
	case CurrentDC:
		return "CURR:DC"
	case CurrentAC:
		return "CURR:AC"
	case Resistance:
		return "RES"
	case Continuity:
		return "CONT"
	case Diode:
		return "DIOD"
	case Frequency:
		return "FREQ"
	case Temperature:
		return "TEMP"
	case Capacitance:
		return "CAP"
	}
	return ""
}

// Label is the human readable name published to function sinks.
func (f Function) Label() string {
	switch f {
	case VoltageDC:
		return "DC Voltage"
	case VoltageAC:
		return "AC Voltage"
	case CurrentDC:
		return "DC Current"
	case CurrentAC:
		return "AC Current"
	case Resistance:
		return "Resistance"
	case Continuity:
		return "Continuity"
	case Diode:
		return "Diode"
	case Frequency:
		return "Frequency"
	case Temperature:
		return "Temperature"
	case Capacitance:
		return "Capacitance"
	}
	return "Unknown"
}

func (f Function) String() string {
	switch f {
	case VoltageDC:
		return "VOLTAGE_DC"
	case VoltageAC:
		return "VOLTAGE_AC"
	case CurrentDC:
		return "CURRENT_DC"
	case CurrentAC:
		return "CURRENT_AC"
	case Resistance:
		return "RESISTANCE"
	case Continuity:
		return "CONTINUITY"
	case Diode:
		return "DIODE"
	case Frequency:
		return "FREQUENCY"
	case Temperature:
		return "TEMPERATURE"
	case Capacitance:
		return "CAPACITANCE"
	}
	return "UNKNOWN"
}

// ParseFunction scans cmd case-insensitively for the known SCPI fragments
// in priority order and returns the first match.
// Matching is substring containment: "ANYTHING VOLT:DC MORE" is VoltageDC.
func ParseFunction(cmd string) Function {
	upper := strings.ToUpper(cmd)
	for _, f := range Functions {
		if strings.Contains(upper, f.fragment()) {
			return f
		}
	}
	return Unknown
}

// FunctionByName resolves a control option to a function.
// Both labels ("DC Voltage") and identifiers ("VOLTAGE_DC") are accepted,
// case-insensitively.
func FunctionByName(name string) (Function, bool) {
	n := strings.TrimSpace(name)
	for _, f := range Functions {
		if strings.EqualFold(n, f.Label()) || strings.EqualFold(n, f.String()) {
			return f, true
		}
	}
	return Unknown, false
}
