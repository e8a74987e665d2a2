// internal/bridge/startup.go
package bridge

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tamzrod/dmm-bridge/internal/monitor"
	"github.com/tamzrod/dmm-bridge/internal/scpi"
	"github.com/tamzrod/dmm-bridge/internal/status"
)

// Start runs the startup stages in order:
//
//  1. idle: nothing may arrive for IdleTimeout
//  2. identify: *IDN?, *RST and SYST:REM go out back to back; the first
//     line is the identification and no second line may follow within
//     Settle
//  3. fastmode: set and verify fast sampling when the device has it
//
// then sends the device init sequence and goes online. A failed stage is
// published as error:<stage> and returned as a *StageError. There is no
// retry.
func (b *Bridge) Start(ctx context.Context) error {
	b.ctx = ctx
	err := b.startup(ctx)
	if err == nil {
		return nil
	}

	var se *StageError
	if errors.As(err, &se) {
		b.metrics.StartupFailure(se.Stage)
		b.setStatus(status.Failed(se.Stage, se.Code()))
	}
	b.log.WithError(err).Error("startup failed")
	return err
}

func (b *Bridge) startup(ctx context.Context) error {
	b.started = false
	b.log.Infof("startup: waiting %s for an idle line", b.cfg.Startup.IdleTimeout)
	if err := b.checkIdle(ctx); err != nil {
		return err
	}

	b.session = scpi.NewSession(b.cfg.MaxLineLength)
	b.overflows = 0
	b.lines = nil

	if err := b.disp.Init(); err != nil {
		return stageErr(StageIdentify, err)
	}

	line, ok, err := b.awaitLine(ctx, b.cfg.Startup.IdentifyTimeout)
	if err != nil {
		return err
	}
	if !ok {
		return stageErr(StageIdentify, ErrNoIdentification)
	}
	idn := scpi.Classify(line, b.session)

	extra, ok, err := b.awaitLine(ctx, b.cfg.Startup.Settle)
	if err != nil {
		return err
	}
	if ok {
		return stageErr(StageIdentify, fmt.Errorf("%w: %q then %q", ErrGarbledIdentification, line, extra))
	}
	b.pub.Publish(idn)

	if b.cfg.DeviceType == scpi.DeviceAuto {
		cs := b.table.Detect(idn.Text)
		b.log.Infof("device detected as %s", cs.Key)
		b.disp.SetCommandSet(cs)
	}

	if err := b.fastMode(ctx); err != nil {
		return err
	}

	for _, cmd := range b.disp.CommandSet().InitCommands() {
		if err := b.pause(ctx, b.cfg.Startup.CommandDelay); err != nil {
			return err
		}
		if err := b.disp.Send(cmd, monitor.SourceStartup); err != nil {
			b.log.WithError(err).Warnf("init command %q failed", cmd)
		}
	}
	b.lines = nil

	b.started = true
	b.setStatus(status.Online())
	b.sink.PublishFunction(b.disp.Function().Label())
	b.sched.Restart(time.Now())
	b.log.Infof("startup complete, polling every %s", b.cfg.PollInterval)
	return nil
}

// checkIdle fails on any byte seen within IdleTimeout.
func (b *Bridge) checkIdle(ctx context.Context) error {
	deadline := time.Now().Add(b.cfg.Startup.IdleTimeout)
	for time.Now().Before(deadline) {
		if err := ctx.Err(); err != nil {
			return err
		}
		if b.receive(false) {
			return stageErr(StageIdle, ErrLineBusy)
		}
	}
	return nil
}

// fastMode sets fast sampling and checks the meter reports it.
func (b *Bridge) fastMode(ctx context.Context) error {
	cs := b.disp.CommandSet()
	if cs.FastMode == "" {
		return nil
	}

	if err := b.disp.Send(cs.FastMode, monitor.SourceStartup); err != nil {
		return stageErr(StageFastMode, err)
	}
	if err := b.pause(ctx, b.cfg.Startup.CommandDelay); err != nil {
		return err
	}
	if cs.FastModeQuery == "" {
		return nil
	}

	b.lines = nil
	if err := b.disp.Send(cs.FastModeQuery, monitor.SourceStartup); err != nil {
		return stageErr(StageFastMode, err)
	}
	line, ok, err := b.awaitLine(ctx, b.cfg.Startup.IdentifyTimeout)
	if err != nil {
		return err
	}
	if !ok {
		return stageErr(StageFastMode, ErrNoFastModeResponse)
	}
	if got := strings.TrimSpace(line); got != cs.FastModeExpect {
		return stageErr(StageFastMode, fmt.Errorf("%w: got %q want %q", ErrFastModeMismatch, got, cs.FastModeExpect))
	}
	b.log.Info("fast mode verified")
	return nil
}

// recoverSoftStart handles a meter that power-cycled under us.
// It holds the loop for up to CommandDelay + IdentifyTimeout.
func (b *Bridge) recoverSoftStart(ctx context.Context) {
	b.log.Warn("soft start detected, restoring fast mode")
	b.session.Framer.Reset()
	b.lines = nil
	b.gate.release()
	b.offline = false
	b.misses = 0
	b.setStatus(status.Online())

	if err := b.fastMode(ctx); err != nil {
		if ctx.Err() != nil {
			b.log.Info("fast mode restore interrupted by shutdown")
			return
		}
		var se *StageError
		if errors.As(err, &se) {
			b.metrics.StartupFailure(se.Stage)
			b.setStatus(status.Failed(se.Stage, se.Code()))
		}
		b.log.WithError(err).Error("fast mode restore failed")
	}
}

// awaitLine returns the next line received within d.
func (b *Bridge) awaitLine(ctx context.Context, d time.Duration) (string, bool, error) {
	deadline := time.Now().Add(d)
	for {
		if len(b.lines) > 0 {
			line := b.lines[0]
			b.lines = b.lines[1:]
			return line, true, nil
		}
		if err := ctx.Err(); err != nil {
			return "", false, err
		}
		if !time.Now().Before(deadline) {
			return "", false, nil
		}
		b.receive(false)
	}
}

func (b *Bridge) pause(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
