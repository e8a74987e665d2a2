// internal/bridge/errors.go
package bridge

import (
	"errors"

	"github.com/tamzrod/dmm-bridge/internal/status"
)

// Startup stage names, as published in "error:<stage>".
const (
	StageIdle     = "idle"
	StageIdentify = "identify"
	StageFastMode = "fastmode"
)

var (
	ErrLineBusy              = errors.New("bridge: line not idle")
	ErrNoIdentification      = errors.New("bridge: no identification response")
	ErrGarbledIdentification = errors.New("bridge: garbled identification response")
	ErrNoFastModeResponse    = errors.New("bridge: no fast mode response")
	ErrFastModeMismatch      = errors.New("bridge: fast mode verify mismatch")

	ErrUnsupported   = errors.New("bridge: command not supported by device")
	ErrUnknownOption = errors.New("bridge: unknown option")
	ErrOffline       = errors.New("bridge: instrument offline")
)

// StageError is a startup failure attributed to one stage.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return "bridge: startup stage " + e.Stage + ": " + e.Err.Error()
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// Code is the status register value for the failed stage.
func (e *StageError) Code() uint16 {
	switch e.Stage {
	case StageIdle:
		return status.CodeIdle
	case StageIdentify:
		return status.CodeIdentify
	case StageFastMode:
		return status.CodeFastMode
	}
	return status.CodeGeneric
}

func stageErr(stage string, err error) *StageError {
	return &StageError{Stage: stage, Err: err}
}
