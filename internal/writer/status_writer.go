// internal/writer/status_writer.go
package writer

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tamzrod/dmm-bridge/internal/status"
)

// blockWriter delivers status blocks into holding registers.
// The first write, and the first write after any failure, asserts the
// whole block. Otherwise only changed fields are written.
type blockWriter struct {
	plan Plan
	cli  registerClient

	needFull bool
	last     status.Block
}

func newBlockWriter(plan Plan, cli registerClient) *blockWriter {
	return &blockWriter{
		plan:     plan,
		cli:      cli,
		needFull: true,
	}
}

// field is one contiguous run of slots inside the block.
type field struct {
	name  string
	slot  uint16
	count int
}

var fields = []field{
	{"health", status.SlotHealthCode, 1},
	{"last_error", status.SlotLastErrorCode, 1},
	{"function", status.SlotFunction, 1},
	{"value", status.SlotValue, 2},
	{"samples", status.SlotSamples, 2},
	{"ident", status.SlotIdentStart, status.SlotIdentSlots},
}

// Write delivers b.
func (w *blockWriter) Write(b status.Block) error {
	if w.cli == nil {
		return fmt.Errorf("status writer: missing client for endpoint %s", w.plan.Endpoint)
	}

	regs := status.Encode(b)

	if w.needFull {
		if err := w.cli.WriteRegisters(w.plan.BaseAddress, regs); err != nil {
			return fmt.Errorf("status writer: full block write failed: %w", err)
		}
		w.needFull = false
		w.last = b
		return nil
	}

	prev := status.Encode(w.last)
	var errs []string

	for _, f := range fields {
		lo, hi := int(f.slot), int(f.slot)+f.count
		if equalRegs(prev[lo:hi], regs[lo:hi]) {
			continue
		}
		if err := w.cli.WriteRegisters(w.plan.BaseAddress+f.slot, regs[lo:hi]); err != nil {
			errs = append(errs, fmt.Sprintf("%s write failed: %v", f.name, err))
		}
	}

	if len(errs) > 0 {
		// Partial failure leaves the block in doubt.
		w.needFull = true
		return errors.New("status writer: " + strings.Join(errs, " | "))
	}

	w.last = b
	return nil
}

func equalRegs(a, b []uint16) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
