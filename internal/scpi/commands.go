// internal/scpi/commands.go
package scpi

import (
	"fmt"
	"regexp"
	"sort"
)

// Device type keys known to the command table.
const (
	DeviceGeneric        = "GENERIC"
	DeviceOwonXDM        = "OWON_XDM"
	DeviceKeysight34460A = "KEYSIGHT_34460A"
	DeviceRigolDM3068    = "RIGOL_DM3068"
	DeviceFluke8845A     = "FLUKE_8845A"

	// DeviceAuto is not a table key. It asks the bridge to pick the
	// command set from the identification string.
	DeviceAuto = "AUTO"
)

// CommandSet is the immutable per-device command record.
// An empty string means the device has no such command.
type CommandSet struct {
	Key string

	// Measure is the generic query used while the function is Unknown.
	Measure string

	MeasureVoltageDC   string
	MeasureVoltageAC   string
	MeasureCurrentDC   string
	MeasureCurrentAC   string
	MeasureResistance  string
	MeasureContinuity  string
	MeasureDiode       string
	MeasureFrequency   string
	MeasureTemperature string
	MeasureCapacitance string

	// SelectPrefix is prepended to a function mnemonic to select it,
	// e.g. "CONF:" + "VOLT:DC".
	SelectPrefix string

	Identify     string
	Reset        string
	RemoteEnable string
	Zero         string

	AutoRange   string
	ManualRange string

	RateNormal     string
	FastMode       string
	FastModeQuery  string
	FastModeExpect string

	init []string
}

// Query returns the measurement query for fn.
func (cs CommandSet) Query(fn Function) string {
	switch fn {
	case Unknown:
		return cs.Measure
	case VoltageDC:
		return cs.MeasureVoltageDC
	case VoltageAC:
		return cs.MeasureVoltageAC
	case CurrentDC:
		return cs.MeasureCurrentDC
	case CurrentAC:
		return cs.MeasureCurrentAC
	case Resistance:
		return cs.MeasureResistance
	case Continuity:
		return cs.MeasureContinuity
	case Diode:
		return cs.MeasureDiode
	case Frequency:
		return cs.MeasureFrequency
	case Temperature:
		return cs.MeasureTemperature
	case Capacitance:
		return cs.MeasureCapacitance
	}
	panic(fmt.Sprintf("scpi: unhandled function %d", int(fn)))
}

// Select returns the command that switches the meter to fn.
// Unknown has no selector.
func (cs CommandSet) Select(fn Function) string {
	if fn == Unknown || cs.SelectPrefix == "" {
		return ""
	}
	return cs.SelectPrefix + fn.fragment()
}

// InitCommands returns a copy of the device init sequence.
func (cs CommandSet) InitCommands() []string {
	out := make([]string, len(cs.init))
	copy(out, cs.init)
	return out
}

// ---- table ----

// Table is the read-only registry of command sets keyed by device type.
type Table struct {
	sets     map[string]CommandSet
	fallback CommandSet
	patterns []devicePattern
}

type devicePattern struct {
	re  *regexp.Regexp
	key string
}

// NewTable builds the registry. Call it once at process start.
func NewTable() *Table {
	base := generic()

	owon := base
	owon.Key = DeviceOwonXDM
	owon.MeasureVoltageDC = "MEAS1?"
	owon.MeasureVoltageAC = "MEAS1?"
	owon.MeasureCurrentDC = "MEAS1?"
	owon.MeasureCurrentAC = "MEAS1?"
	owon.MeasureResistance = "MEAS1?"
	owon.MeasureContinuity = "MEAS1?"
	owon.MeasureDiode = "MEAS1?"
	owon.MeasureFrequency = "MEAS2?"
	owon.MeasureTemperature = "MEAS1?"
	owon.MeasureCapacitance = "MEAS1?"
	owon.SelectPrefix = "FUNC1 "
	owon.AutoRange = "AUTO ON"
	owon.ManualRange = "AUTO OFF"
	owon.RateNormal = "RATE M"
	owon.FastMode = "RATE F"
	owon.FastModeQuery = "RATE?"
	owon.FastModeExpect = "F"
	owon.init = []string{"AUTO ON", "DUAL OFF", "*CLS"}

	keysight := base
	keysight.Key = DeviceKeysight34460A
	keysight.init = []string{
		"DISP:TEXT:CLE",
		"SENS:VOLT:DC:NPLC 0.02",
		"TRIG:SOUR IMM",
		"TRIG:COUN INF",
	}

	rigol := base
	rigol.Key = DeviceRigolDM3068
	rigol.init = []string{
		"RATE:VOLT:DC FAST",
		"RATE:CURR:DC FAST",
		"TRIG:SOUR IMM",
	}

	fluke := base
	fluke.Key = DeviceFluke8845A
	fluke.MeasureVoltageDC = "MEAS:VOLT:DC? 10"
	fluke.MeasureCurrentDC = "MEAS:CURR:DC? 1"
	fluke.init = []string{
		"TRIG:SOUR IMM",
		"TRIG:COUN INF",
		"ZERO:AUTO OFF",
	}

	t := &Table{
		sets:     make(map[string]CommandSet),
		fallback: base,
		patterns: []devicePattern{
			{re: regexp.MustCompile(`(?i)OWON.*XDM`), key: DeviceOwonXDM},
			{re: regexp.MustCompile(`(?i)(Keysight|Agilent).*34460A`), key: DeviceKeysight34460A},
			{re: regexp.MustCompile(`(?i)Rigol.*DM3068`), key: DeviceRigolDM3068},
			{re: regexp.MustCompile(`(?i)Fluke.*884[05]A`), key: DeviceFluke8845A},
		},
	}
	for _, cs := range []CommandSet{base, owon, keysight, rigol, fluke} {
		t.sets[cs.Key] = cs
	}
	return t
}

// Lookup returns the command set for deviceType, or the generic default
// when the key is not an exact match. It never fails.
func (t *Table) Lookup(deviceType string) CommandSet {
	if cs, ok := t.sets[deviceType]; ok {
		return cs
	}
	return t.fallback
}

// Has reports whether deviceType is an exact table key.
func (t *Table) Has(deviceType string) bool {
	_, ok := t.sets[deviceType]
	return ok
}

// Keys returns the known device types, sorted.
func (t *Table) Keys() []string {
	keys := make([]string, 0, len(t.sets))
	for k := range t.sets {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Detect picks a command set from an identification string.
// Unmatched strings resolve to the generic default.
func (t *Table) Detect(idn string) CommandSet {
	for _, p := range t.patterns {
		if p.re.MatchString(idn) {
			return t.Lookup(p.key)
		}
	}
	return t.fallback
}

func generic() CommandSet {
	return CommandSet{
		Key:                DeviceGeneric,
		Measure:            "MEAS?",
		MeasureVoltageDC:   "MEAS:VOLT:DC?",
		MeasureVoltageAC:   "MEAS:VOLT:AC?",
		MeasureCurrentDC:   "MEAS:CURR:DC?",
		MeasureCurrentAC:   "MEAS:CURR:AC?",
		MeasureResistance:  "MEAS:RES?",
		MeasureContinuity:  "MEAS:CONT?",
		MeasureDiode:       "MEAS:DIOD?",
		MeasureFrequency:   "MEAS:FREQ?",
		MeasureTemperature: "MEAS:TEMP?",
		MeasureCapacitance: "MEAS:CAP?",
		SelectPrefix:       "CONF:",
		Identify:           "*IDN?",
		Reset:              "*RST",
		RemoteEnable:       "SYST:REM",
		Zero:               "CALC:FUNC NULL",
	}
}
