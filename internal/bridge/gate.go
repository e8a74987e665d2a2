// internal/bridge/gate.go
package bridge

import (
	"strings"
	"time"
)

// gate tracks a single outstanding query.
// A disabled gate is never busy.
type gate struct {
	enabled bool
	timeout time.Duration

	pending  bool
	cmd      string
	deadline time.Time
}

// arm marks cmd outstanding if it expects a response.
func (g *gate) arm(now time.Time, cmd string) {
	if !g.enabled || !strings.HasSuffix(strings.TrimSpace(cmd), "?") {
		return
	}
	g.pending = true
	g.cmd = cmd
	g.deadline = now.Add(g.timeout)
}

func (g *gate) busy() bool {
	return g.pending
}

// release clears the outstanding query. It reports whether one existed.
func (g *gate) release() bool {
	was := g.pending
	g.pending = false
	g.cmd = ""
	return was
}

// expired reports a pending query whose response never came.
func (g *gate) expired(now time.Time) bool {
	return g.pending && !now.Before(g.deadline)
}
