// internal/bridge/sink.go
package bridge

import "github.com/tamzrod/dmm-bridge/internal/status"

// Sink receives everything the bridge publishes.
// Implementations must not block the loop for long; transports that
// can stall buffer or drop on their side.
type Sink interface {
	PublishValue(v float64)
	PublishFunction(label string)
	PublishIdentification(idn string)
	PublishStatus(s status.Snapshot)
}

// Fanout delivers every update to each attached sink in order.
// Attach everything before the bridge starts.
type Fanout struct {
	sinks []Sink
}

func (f *Fanout) Attach(s Sink) {
	f.sinks = append(f.sinks, s)
}

func (f *Fanout) PublishValue(v float64) {
	for _, s := range f.sinks {
		s.PublishValue(v)
	}
}

func (f *Fanout) PublishFunction(label string) {
	for _, s := range f.sinks {
		s.PublishFunction(label)
	}
}

func (f *Fanout) PublishIdentification(idn string) {
	for _, s := range f.sinks {
		s.PublishIdentification(idn)
	}
}

func (f *Fanout) PublishStatus(st status.Snapshot) {
	for _, s := range f.sinks {
		s.PublishStatus(st)
	}
}
