// cmd/dmmbridge/main_test.go
package main

import (
	"errors"
	"fmt"
	"testing"

	"github.com/tamzrod/dmm-bridge/internal/bridge"
	"github.com/tamzrod/dmm-bridge/internal/status"
)

func TestErrorCode(t *testing.T) {
	tests := []struct {
		err  error
		want uint16
	}{
		{nil, 0},
		{errors.New("plain"), 1},
		{&bridge.StageError{Stage: bridge.StageIdle, Err: bridge.ErrLineBusy}, status.CodeIdle},
		{fmt.Errorf("wrapped: %w", &bridge.StageError{Stage: bridge.StageFastMode, Err: bridge.ErrFastModeMismatch}), status.CodeFastMode},
	}
	for _, tt := range tests {
		if got := errorCode(tt.err); got != tt.want {
			t.Fatalf("errorCode(%v) got=%d want=%d", tt.err, got, tt.want)
		}
	}
}
