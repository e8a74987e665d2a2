// internal/bridge/dispatcher.go
package bridge

import (
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/tamzrod/dmm-bridge/internal/monitor"
	"github.com/tamzrod/dmm-bridge/internal/scpi"
)

// Terminator is appended to every command written to the instrument.
const Terminator = "\r\n"

// Dispatcher writes commands to the instrument and owns the selected
// measurement function. Range and rate are fire-and-forget: nothing is
// remembered about them.
type Dispatcher struct {
	w       io.Writer
	cs      scpi.CommandSet
	fn      scpi.Function
	sink    Sink
	log     *logrus.Entry
	metrics *monitor.Metrics
}

func NewDispatcher(w io.Writer, cs scpi.CommandSet, sink Sink, log *logrus.Entry, m *monitor.Metrics) *Dispatcher {
	return &Dispatcher{
		w:       w,
		cs:      cs,
		sink:    sink,
		log:     log,
		metrics: m,
	}
}

// CommandSet is the set currently in use.
func (d *Dispatcher) CommandSet() scpi.CommandSet {
	return d.cs
}

// SetCommandSet switches device tables, e.g. after auto-detect.
func (d *Dispatcher) SetCommandSet(cs scpi.CommandSet) {
	d.cs = cs
}

// Function is the selected measurement function.
func (d *Dispatcher) Function() scpi.Function {
	return d.fn
}

// Query is the measurement query for the selected function.
func (d *Dispatcher) Query() string {
	return d.cs.Query(d.fn)
}

// Send writes one command. An empty command means the device has none.
func (d *Dispatcher) Send(cmd, source string) error {
	if cmd == "" {
		return ErrUnsupported
	}
	if _, err := io.WriteString(d.w, cmd+Terminator); err != nil {
		return fmt.Errorf("bridge: write %q: %w", cmd, err)
	}
	d.metrics.CommandSent(source)
	d.log.WithField("source", source).Debugf("TX: %s", cmd)
	return nil
}

// Init sends identify, reset and remote-enable back to back.
// Nothing is awaited here; the startup stages judge the outcome.
func (d *Dispatcher) Init() error {
	for _, cmd := range []string{d.cs.Identify, d.cs.Reset, d.cs.RemoteEnable} {
		if cmd == "" {
			continue
		}
		if err := d.Send(cmd, monitor.SourceStartup); err != nil {
			return err
		}
	}
	return nil
}

// Raw forwards a passthrough command. It does not touch function state.
func (d *Dispatcher) Raw(cmd string) error {
	cmd = strings.TrimSpace(cmd)
	if cmd == "" {
		return fmt.Errorf("%w: empty command", ErrUnknownOption)
	}
	return d.Send(cmd, monitor.SourceExternal)
}

// SetFunction forwards cmd and selects whatever function it mentions.
// Commands that mention none select Unknown.
func (d *Dispatcher) SetFunction(cmd string) (scpi.Function, error) {
	if err := d.Send(cmd, monitor.SourceExternal); err != nil {
		return d.fn, err
	}
	d.fn = scpi.ParseFunction(cmd)
	d.sink.PublishFunction(d.fn.Label())
	return d.fn, nil
}

// SelectFunction resolves a control option to a select command.
// Anything that is not a known label or identifier is sent as a raw
// select command.
func (d *Dispatcher) SelectFunction(option string) (scpi.Function, error) {
	option = strings.TrimSpace(option)
	if option == "" {
		return d.fn, fmt.Errorf("%w: empty function", ErrUnknownOption)
	}
	if fn, ok := scpi.FunctionByName(option); ok {
		cmd := d.cs.Select(fn)
		if cmd == "" {
			return d.fn, fmt.Errorf("%w: select %s", ErrUnsupported, fn)
		}
		return d.SetFunction(cmd)
	}
	return d.SetFunction(option)
}

// SetRange sends the auto or manual range command.
func (d *Dispatcher) SetRange(option string) error {
	switch strings.ToLower(strings.TrimSpace(option)) {
	case "auto":
		return d.Send(d.cs.AutoRange, monitor.SourceExternal)
	case "manual":
		return d.Send(d.cs.ManualRange, monitor.SourceExternal)
	}
	return fmt.Errorf("%w: range %q", ErrUnknownOption, option)
}

// SetRate sends the normal or fast sampling rate command.
func (d *Dispatcher) SetRate(option string) error {
	switch strings.ToLower(strings.TrimSpace(option)) {
	case "normal", "slow", "medium":
		return d.Send(d.cs.RateNormal, monitor.SourceExternal)
	case "fast":
		return d.Send(d.cs.FastMode, monitor.SourceExternal)
	}
	return fmt.Errorf("%w: rate %q", ErrUnknownOption, option)
}

// Reset sends the device reset. The meter comes back in its own default
// function, so the selection falls back to Unknown.
func (d *Dispatcher) Reset() error {
	if err := d.Send(d.cs.Reset, monitor.SourceExternal); err != nil {
		return err
	}
	d.fn = scpi.Unknown
	d.sink.PublishFunction(d.fn.Label())
	return nil
}

// Zero starts a relative (null) measurement.
func (d *Dispatcher) Zero() error {
	return d.Send(d.cs.Zero, monitor.SourceExternal)
}
