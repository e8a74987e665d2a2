// internal/bridge/bridge.go
package bridge

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/tamzrod/dmm-bridge/internal/config"
	"github.com/tamzrod/dmm-bridge/internal/monitor"
	"github.com/tamzrod/dmm-bridge/internal/poller"
	"github.com/tamzrod/dmm-bridge/internal/scpi"
	"github.com/tamzrod/dmm-bridge/internal/status"
)

const (
	commandBuffer = 16
	queueLimit    = 32
	readChunk     = 64

	// A power-cycled meter emits 00 01 00 on the line.
	softStartWindow = 64

	readErrorPause = 100 * time.Millisecond
)

var softStartPattern = []byte{0x00, 0x01, 0x00}

// Raw commands starting with one of these switch the meter function.
var functionChangePrefixes = []string{"FUNC", "CONF", "SENS"}

// Link is the instrument byte stream. Read must return within a bounded
// time, with n == 0 when nothing arrived.
type Link interface {
	io.Reader
	io.Writer
}

// StartupConfig holds the external startup check timings.
type StartupConfig struct {
	IdleTimeout     time.Duration
	IdentifyTimeout time.Duration
	Settle          time.Duration
	CommandDelay    time.Duration
}

// Config is the runtime config the bridge needs.
type Config struct {
	DeviceType    string
	PollInterval  time.Duration
	DedupWindow   time.Duration
	MaxLineLength int

	InflightGate    bool
	ResponseTimeout time.Duration

	SkipAfterFunctionChange bool
	OfflineAfterMisses      int

	Startup StartupConfig
}

// FromConfig converts the file config. cfg must be normalized.
func FromConfig(cfg *config.Config) Config {
	b := cfg.Bridge
	s := cfg.Startup
	return Config{
		DeviceType:              b.DeviceType,
		PollInterval:            ms(b.PollIntervalMs),
		DedupWindow:             ms(max(b.DedupWindowMs, 0)),
		MaxLineLength:           b.MaxLineLength,
		InflightGate:            b.InflightGate,
		ResponseTimeout:         ms(b.ResponseTimeoutMs),
		SkipAfterFunctionChange: b.SkipAfterFunctionChange,
		OfflineAfterMisses:      b.OfflineAfterMisses,
		Startup: StartupConfig{
			IdleTimeout:     ms(s.IdleTimeoutMs),
			IdentifyTimeout: ms(s.IdentifyTimeoutMs),
			Settle:          ms(s.SettleMs),
			CommandDelay:    ms(s.CommandDelayMs),
		},
	}
}

func ms(v int) time.Duration {
	return time.Duration(v) * time.Millisecond
}

// Bridge connects one instrument link to the sinks.
//
// A single goroutine (Run, or a test calling Start and Tick) owns the link
// and all session state. Other goroutines only Submit.
type Bridge struct {
	cfg     Config
	link    Link
	table   *scpi.Table
	session *scpi.Session
	sched   *poller.Scheduler
	disp    *Dispatcher
	pub     *Publisher
	sink    Sink
	log     *logrus.Entry
	metrics *monitor.Metrics

	cmds  chan Command
	queue []Command

	buf       []byte
	lines     []string
	overflows uint64

	ctx     context.Context
	started bool
	now     time.Time
	gate    gate

	lastCmd   string
	lastCmdAt time.Time

	skipNext bool
	misses   int
	offline  bool

	window    []byte
	softStart bool
}

// New builds a bridge. Nothing is sent until Start.
func New(cfg Config, l Link, table *scpi.Table, sink Sink, log *logrus.Entry, m *monitor.Metrics) (*Bridge, error) {
	if l == nil {
		return nil, errors.New("bridge: link required")
	}
	if table == nil {
		return nil, errors.New("bridge: command table required")
	}
	if sink == nil {
		sink = &Fanout{}
	}
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}

	b := &Bridge{
		cfg:     cfg,
		link:    l,
		table:   table,
		session: scpi.NewSession(cfg.MaxLineLength),
		sink:    sink,
		log:     log,
		metrics: m,
		cmds:    make(chan Command, commandBuffer),
		buf:     make([]byte, readChunk),
		gate:    gate{enabled: cfg.InflightGate, timeout: cfg.ResponseTimeout},
	}

	if cfg.DeviceType != scpi.DeviceAuto && !table.Has(cfg.DeviceType) {
		log.Warnf("unknown device type %q, using %s commands", cfg.DeviceType, scpi.DeviceGeneric)
	}
	b.disp = NewDispatcher(l, table.Lookup(cfg.DeviceType), sink, log, m)
	b.pub = NewPublisher(sink, log, m)

	sched, err := poller.New(poller.Config{Interval: cfg.PollInterval}, pollTarget{b}, time.Now())
	if err != nil {
		return nil, err
	}
	b.sched = sched
	return b, nil
}

// Submit queues an external command. It never blocks; a full queue drops
// the command.
func (b *Bridge) Submit(c Command) bool {
	select {
	case b.cmds <- c:
		return true
	default:
		b.log.Warnf("command queue full, dropped: %s", c)
		return false
	}
}

// Function is the selected measurement function.
// Only safe from the loop goroutine.
func (b *Bridge) Function() scpi.Function {
	return b.disp.Function()
}

// CommandSet is the device table in use.
// Only safe from the loop goroutine.
func (b *Bridge) CommandSet() scpi.CommandSet {
	return b.disp.CommandSet()
}

// Tick runs one cooperative step: receive, dispatch queued commands, poll.
func (b *Bridge) Tick(now time.Time) {
	b.now = now

	b.receive(true)
	for len(b.lines) > 0 {
		line := b.lines[0]
		b.lines = b.lines[1:]
		b.handleLine(line)
	}

	if b.gate.expired(now) {
		b.metrics.GateTimeout()
		b.log.Warnf("no response to %q, releasing", b.gate.cmd)
		b.gate.release()
	}

	if b.softStart {
		b.softStart = false
		b.recoverSoftStart(b.runCtx())
	}

	b.drainCommands()

	if _, err := b.sched.OnTick(now); err != nil {
		b.log.WithError(err).Warn("poll failed")
	}
}

// ---- receive path ----

// receive does one link read and frames whatever arrived.
// It reports whether any byte was read.
func (b *Bridge) receive(watch bool) bool {
	n, err := b.link.Read(b.buf)
	for _, c := range b.buf[:n] {
		if watch {
			b.watchSoftStart(c)
		}
		if line, ok := b.session.Framer.Feed(c); ok {
			b.metrics.LineReceived()
			b.log.Debugf("RX: %s", line)
			b.lines = append(b.lines, line)
		}
	}
	if o := b.session.Framer.Overflows(); o != b.overflows {
		b.overflows = o
		b.metrics.Overflow()
		b.log.Warn("over-long response line discarded")
	}
	if err != nil && n == 0 {
		b.log.WithError(err).Warn("link read failed")
		time.Sleep(readErrorPause)
	}
	return n > 0
}

func (b *Bridge) watchSoftStart(c byte) {
	b.window = append(b.window, c)
	if len(b.window) > softStartWindow {
		b.window = b.window[len(b.window)-softStartWindow:]
	}
	if bytes.Contains(b.window, softStartPattern) {
		b.window = b.window[:0]
		b.softStart = true
	}
}

func (b *Bridge) handleLine(line string) {
	b.gate.release()
	b.misses = 0
	if b.offline {
		b.offline = false
		b.log.Info("instrument answering again")
		b.setStatus(status.Online())
	}

	r := scpi.Classify(line, b.session)
	if r.Kind == scpi.KindNumeric && b.skipNext {
		b.skipNext = false
		b.log.Debugf("skipping first reading after function change: %s", line)
		return
	}
	b.pub.Publish(r)
}

func (b *Bridge) setStatus(s status.Snapshot) {
	b.metrics.SetOnline(s.Health == status.HealthOnline)
	b.sink.PublishStatus(s)
}

// ---- command path ----

func (b *Bridge) drainCommands() {
drain:
	for {
		select {
		case c := <-b.cmds:
			if len(b.queue) >= queueLimit {
				b.log.Warnf("pending command queue full, dropped: %s", c)
				continue
			}
			b.queue = append(b.queue, c)
		default:
			break drain
		}
	}

	for len(b.queue) > 0 && !b.gate.busy() {
		c := b.queue[0]
		b.queue = b.queue[1:]
		if err := b.execute(c); err != nil {
			b.log.WithError(err).Warnf("command %s not sent", c)
		}
	}
}

func (b *Bridge) execute(c Command) error {
	if b.offline {
		return ErrOffline
	}

	key := c.String()
	if key == b.lastCmd && b.now.Sub(b.lastCmdAt) < b.cfg.DedupWindow {
		b.log.Debugf("duplicate command dropped: %s", c)
		return nil
	}
	b.lastCmd = key
	b.lastCmdAt = b.now

	switch c.Kind {
	case CommandRaw:
		if err := b.disp.Raw(c.Value); err != nil {
			return err
		}
		b.gate.arm(b.now, c.Value)
		if changesFunction(c.Value) {
			b.skipNext = b.cfg.SkipAfterFunctionChange
		}
		return nil

	case CommandFunction:
		if _, err := b.disp.SelectFunction(c.Value); err != nil {
			return err
		}
		b.skipNext = b.cfg.SkipAfterFunctionChange
		return nil

	case CommandRange:
		return b.disp.SetRange(c.Value)

	case CommandRate:
		return b.disp.SetRate(c.Value)

	case CommandReset:
		if err := b.disp.Reset(); err != nil {
			return err
		}
		b.skipNext = b.cfg.SkipAfterFunctionChange
		return nil

	case CommandZero:
		return b.disp.Zero()
	}
	return ErrUnknownOption
}

func changesFunction(cmd string) bool {
	cmd = strings.ToUpper(strings.TrimSpace(cmd))
	for _, p := range functionChangePrefixes {
		if strings.HasPrefix(cmd, p) {
			return true
		}
	}
	return false
}

// runCtx is the context Start was given.
func (b *Bridge) runCtx() context.Context {
	if b.ctx == nil {
		return context.Background()
	}
	return b.ctx
}

// ---- polling ----

type pollTarget struct {
	b *Bridge
}

func (p pollTarget) Poll() (bool, error) {
	return p.b.poll()
}

func (b *Bridge) poll() (bool, error) {
	if !b.started {
		return false, nil
	}
	if b.gate.busy() {
		b.metrics.PollDeferred()
		return false, nil
	}

	if n := b.cfg.OfflineAfterMisses; n > 0 && !b.offline && b.misses >= n {
		b.offline = true
		b.log.Warnf("no response to %d polls, instrument offline", b.misses)
		b.setStatus(status.Offline())
	}

	q := b.disp.Query()
	if err := b.disp.Send(q, monitor.SourcePoll); err != nil {
		return true, err
	}
	b.misses++
	b.gate.arm(b.now, q)
	return true, nil
}
