// internal/bridge/dispatcher_test.go
package bridge

import (
	"bytes"
	"errors"
	"testing"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"

	"github.com/tamzrod/dmm-bridge/internal/scpi"
)

func newTestDispatcher(t *testing.T, w *bytes.Buffer, key string) (*Dispatcher, *recordSink) {
	t.Helper()
	logger, _ := logtest.NewNullLogger()
	sink := &recordSink{}
	return NewDispatcher(w, scpi.NewTable().Lookup(key), sink, logrus.NewEntry(logger), nil), sink
}

func TestDispatcherInitOrder(t *testing.T) {
	var buf bytes.Buffer
	d, _ := newTestDispatcher(t, &buf, scpi.DeviceOwonXDM)

	if err := d.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if got, want := buf.String(), "*IDN?\r\n*RST\r\nSYST:REM\r\n"; got != want {
		t.Fatalf("wrote %q want %q", got, want)
	}
}

func TestDispatcherRawAppendsTerminator(t *testing.T) {
	var buf bytes.Buffer
	d, sink := newTestDispatcher(t, &buf, scpi.DeviceGeneric)

	if err := d.Raw("  MEAS1?  "); err != nil {
		t.Fatalf("Raw: %v", err)
	}
	if got := buf.String(); got != "MEAS1?\r\n" {
		t.Fatalf("wrote %q", got)
	}
	if len(sink.functions) != 0 {
		t.Fatalf("raw command published a function label")
	}
	if err := d.Raw(" "); !errors.Is(err, ErrUnknownOption) {
		t.Fatalf("empty raw err=%v", err)
	}
}

func TestDispatcherSetFunction(t *testing.T) {
	tests := []struct {
		cmd   string
		want  scpi.Function
		label string
	}{
		{"CONF:VOLT:DC", scpi.VoltageDC, "DC Voltage"},
		{"func1 freq", scpi.Frequency, "Frequency"},
		{"SENS:FUNC 'TEMP'", scpi.Temperature, "Temperature"},
		{"*CLS", scpi.Unknown, "Unknown"},
	}
	for _, tt := range tests {
		var buf bytes.Buffer
		d, sink := newTestDispatcher(t, &buf, scpi.DeviceGeneric)

		got, err := d.SetFunction(tt.cmd)
		if err != nil {
			t.Fatalf("%q: %v", tt.cmd, err)
		}
		if got != tt.want || d.Function() != tt.want {
			t.Fatalf("%q: function=%s want=%s", tt.cmd, got, tt.want)
		}
		if buf.String() != tt.cmd+Terminator {
			t.Fatalf("%q: wrote %q", tt.cmd, buf.String())
		}
		if len(sink.functions) != 1 || sink.functions[0] != tt.label {
			t.Fatalf("%q: labels=%v want=[%s]", tt.cmd, sink.functions, tt.label)
		}
	}
}

func TestDispatcherSetFunctionWriteError(t *testing.T) {
	logger, _ := logtest.NewNullLogger()
	sink := &recordSink{}
	l := newFakeLink(nil)
	l.writeErr = errLinkDown
	d := NewDispatcher(l, scpi.NewTable().Lookup(scpi.DeviceGeneric), sink, logrus.NewEntry(logger), nil)

	if _, err := d.SetFunction("CONF:RES"); !errors.Is(err, errLinkDown) {
		t.Fatalf("err=%v want link error", err)
	}
	if d.Function() != scpi.Unknown || len(sink.functions) != 0 {
		t.Fatalf("state changed after failed write")
	}
}

func TestDispatcherSelectFunction(t *testing.T) {
	var buf bytes.Buffer
	d, _ := newTestDispatcher(t, &buf, scpi.DeviceOwonXDM)

	if _, err := d.SelectFunction("ac current"); err != nil {
		t.Fatalf("SelectFunction: %v", err)
	}
	if got := buf.String(); got != "FUNC1 CURR:AC\r\n" {
		t.Fatalf("wrote %q", got)
	}
	if got := d.Query(); got != "MEAS1?" {
		t.Fatalf("query=%q", got)
	}

	buf.Reset()
	d.SelectFunction("Frequency")
	if got := d.Query(); got != "MEAS2?" {
		t.Fatalf("frequency query=%q", got)
	}
}

func TestDispatcherRangeAndRate(t *testing.T) {
	var buf bytes.Buffer
	d, _ := newTestDispatcher(t, &buf, scpi.DeviceOwonXDM)

	for _, step := range []struct {
		fn   func(string) error
		opt  string
		want string
	}{
		{d.SetRange, "Auto", "AUTO ON\r\n"},
		{d.SetRange, "MANUAL", "AUTO OFF\r\n"},
		{d.SetRate, "fast", "RATE F\r\n"},
		{d.SetRate, "Normal", "RATE M\r\n"},
	} {
		buf.Reset()
		if err := step.fn(step.opt); err != nil {
			t.Fatalf("%s: %v", step.opt, err)
		}
		if buf.String() != step.want {
			t.Fatalf("%s: wrote %q want %q", step.opt, buf.String(), step.want)
		}
	}

	if err := d.SetRange("sideways"); !errors.Is(err, ErrUnknownOption) {
		t.Fatalf("range err=%v", err)
	}
	if err := d.SetRate("ludicrous"); !errors.Is(err, ErrUnknownOption) {
		t.Fatalf("rate err=%v", err)
	}
	if d.Function() != scpi.Unknown {
		t.Fatalf("range/rate changed function")
	}
}

func TestDispatcherUnsupported(t *testing.T) {
	var buf bytes.Buffer
	d, _ := newTestDispatcher(t, &buf, scpi.DeviceGeneric)

	if err := d.SetRange("auto"); !errors.Is(err, ErrUnsupported) {
		t.Fatalf("err=%v want=%v", err, ErrUnsupported)
	}
	if buf.Len() != 0 {
		t.Fatalf("wrote %q for unsupported command", buf.String())
	}
}

func TestDispatcherReset(t *testing.T) {
	var buf bytes.Buffer
	d, sink := newTestDispatcher(t, &buf, scpi.DeviceGeneric)

	d.SetFunction("CONF:CAP")
	if err := d.Reset(); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if d.Function() != scpi.Unknown {
		t.Fatalf("function=%s after reset", d.Function())
	}
	if got := sink.functions[len(sink.functions)-1]; got != "Unknown" {
		t.Fatalf("label=%q", got)
	}
}
