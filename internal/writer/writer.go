// internal/writer/writer.go
package writer

import (
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/tamzrod/dmm-bridge/internal/scpi"
	"github.com/tamzrod/dmm-bridge/internal/status"
)

// Mirror keeps the status block in a Modbus device current.
// Sink calls only update memory; a worker goroutine does the writes so a
// slow PLC never stalls the instrument loop. Bursts collapse into one
// write of the latest state.
type Mirror struct {
	w   *blockWriter
	log *logrus.Entry

	mu    sync.Mutex
	block status.Block

	kick   chan struct{}
	stopCh chan struct{}
	wg     sync.WaitGroup
}

func NewMirror(plan Plan, cli registerClient, log *logrus.Entry) *Mirror {
	return &Mirror{
		w:      newBlockWriter(plan, cli),
		log:    log,
		kick:   make(chan struct{}, 1),
		stopCh: make(chan struct{}),
	}
}

// Start runs the write worker.
func (m *Mirror) Start() {
	m.wg.Add(1)
	go m.loop()
}

// Stop ends the worker after a final write.
func (m *Mirror) Stop() {
	close(m.stopCh)
	m.wg.Wait()
	if err := m.Flush(); err != nil {
		m.log.WithError(err).Warn("final status write failed")
	}
}

// Flush writes the current block now.
func (m *Mirror) Flush() error {
	return m.w.Write(m.snapshot())
}

func (m *Mirror) loop() {
	defer m.wg.Done()
	for {
		select {
		case <-m.stopCh:
			return
		case <-m.kick:
			if err := m.Flush(); err != nil {
				m.log.WithError(err).Warn("status write failed")
			}
		}
	}
}

func (m *Mirror) snapshot() status.Block {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.block
}

func (m *Mirror) update(fn func(b *status.Block)) {
	m.mu.Lock()
	fn(&m.block)
	m.mu.Unlock()

	select {
	case m.kick <- struct{}{}:
	default:
	}
}

// ---- sink ----

func (m *Mirror) PublishValue(v float64) {
	m.update(func(b *status.Block) {
		b.Value = v
		b.Samples++
	})
}

func (m *Mirror) PublishFunction(label string) {
	fn, _ := scpi.FunctionByName(label)
	m.update(func(b *status.Block) { b.Function = uint16(fn) })
}

func (m *Mirror) PublishIdentification(idn string) {
	m.update(func(b *status.Block) { b.Ident = idn })
}

func (m *Mirror) PublishStatus(s status.Snapshot) {
	m.update(func(b *status.Block) { b.Status = s })
}
