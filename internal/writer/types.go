// internal/writer/types.go
package writer

// Plan says where the status block lives.
type Plan struct {
	Endpoint    string
	UnitID      uint8
	BaseAddress uint16
}

// registerClient is the exact contract the block writer uses.
type registerClient interface {
	WriteRegisters(addr uint16, regs []uint16) error
}
