// internal/bridge/fakes_test.go
package bridge

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"

	"github.com/tamzrod/dmm-bridge/internal/monitor"
	"github.com/tamzrod/dmm-bridge/internal/scpi"
	"github.com/tamzrod/dmm-bridge/internal/status"
)

// ---- fake link ----

// fakeLink answers commands from a reply map, like a meter on a loopback.
type fakeLink struct {
	mu       sync.Mutex
	replies  map[string]string
	rx       []byte
	partial  string
	written  []string
	writeErr error
}

func newFakeLink(replies map[string]string) *fakeLink {
	if replies == nil {
		replies = map[string]string{}
	}
	return &fakeLink{replies: replies}
}

func (f *fakeLink) Read(p []byte) (int, error) {
	f.mu.Lock()
	if len(f.rx) == 0 {
		f.mu.Unlock()
		time.Sleep(time.Millisecond)
		return 0, nil
	}
	n := copy(p, f.rx)
	f.rx = f.rx[n:]
	f.mu.Unlock()
	return n, nil
}

func (f *fakeLink) Write(p []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.writeErr != nil {
		return 0, f.writeErr
	}
	f.partial += string(p)
	for {
		i := strings.IndexByte(f.partial, '\n')
		if i < 0 {
			break
		}
		line := strings.TrimRight(f.partial[:i], "\r")
		f.partial = f.partial[i+1:]
		f.written = append(f.written, line)
		if r, ok := f.replies[line]; ok {
			f.rx = append(f.rx, r...)
		}
	}
	return len(p), nil
}

func (f *fakeLink) inject(s string) {
	f.mu.Lock()
	f.rx = append(f.rx, s...)
	f.mu.Unlock()
}

func (f *fakeLink) reply(cmd, resp string) {
	f.mu.Lock()
	f.replies[cmd] = resp
	f.mu.Unlock()
}

func (f *fakeLink) sent() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.written))
	copy(out, f.written)
	return out
}

var errLinkDown = errors.New("link down")

// ---- recording sink ----

type recordSink struct {
	values    []float64
	functions []string
	idns      []string
	statuses  []status.Snapshot
}

func (r *recordSink) PublishValue(v float64)          { r.values = append(r.values, v) }
func (r *recordSink) PublishFunction(label string)    { r.functions = append(r.functions, label) }
func (r *recordSink) PublishIdentification(s string)  { r.idns = append(r.idns, s) }
func (r *recordSink) PublishStatus(s status.Snapshot) { r.statuses = append(r.statuses, s) }

func (r *recordSink) lastStatus() string {
	if len(r.statuses) == 0 {
		return ""
	}
	return r.statuses[len(r.statuses)-1].String()
}

// ---- helpers ----

const owonIDN = "OWON,XDM1041,2135097,V3.7.2,2"

func owonReplies() map[string]string {
	return map[string]string{
		"*IDN?": owonIDN + "\r\n",
		"RATE?": "F\r\n",
	}
}

func genericReplies() map[string]string {
	return map[string]string{
		"*IDN?": "ACME,DMM-1,0,1.0\r\n",
	}
}

func testConfig() Config {
	return Config{
		DeviceType:      scpi.DeviceAuto,
		PollInterval:    time.Hour,
		DedupWindow:     20 * time.Millisecond,
		MaxLineLength:   scpi.DefaultMaxLineLength,
		ResponseTimeout: 50 * time.Millisecond,
		Startup: StartupConfig{
			IdleTimeout:     5 * time.Millisecond,
			IdentifyTimeout: 50 * time.Millisecond,
			Settle:          5 * time.Millisecond,
		},
	}
}

type harness struct {
	b       *Bridge
	link    *fakeLink
	sink    *recordSink
	metrics *monitor.Metrics
	hook    *logtest.Hook
}

func newHarness(t *testing.T, cfg Config, replies map[string]string) *harness {
	t.Helper()

	logger, hook := logtest.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)

	h := &harness{
		link:    newFakeLink(replies),
		sink:    &recordSink{},
		metrics: monitor.New(),
		hook:    hook,
	}
	b, err := New(cfg, h.link, scpi.NewTable(), h.sink, logrus.NewEntry(logger), h.metrics)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	h.b = b
	return h
}

func startedHarness(t *testing.T, cfg Config, replies map[string]string) *harness {
	t.Helper()

	h := newHarness(t, cfg, replies)
	if err := h.b.Start(testContext(t)); err != nil {
		t.Fatalf("Start: %v", err)
	}
	return h
}

// tickUntil ticks at a fixed time until cond holds.
func (h *harness) tickUntil(t *testing.T, now time.Time, cond func() bool) {
	t.Helper()
	for i := 0; i < 100; i++ {
		h.b.Tick(now)
		if cond() {
			return
		}
	}
	t.Fatalf("condition not reached after 100 ticks")
}

func tail(s []string, n int) []string {
	if len(s) < n {
		return s
	}
	return s[len(s)-n:]
}

func equal(a, b []string) bool {
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

func testContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

// farFuture is well past any poll interval used in these tests.
func farFuture(i int) time.Time {
	return time.Now().Add(time.Duration(i) * 2 * time.Hour)
}

func contextCancelled() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	return ctx, cancel
}
