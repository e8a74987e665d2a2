// internal/mqtt/topics.go
package mqtt

import (
	"strings"

	"github.com/tamzrod/dmm-bridge/internal/bridge"
)

// Topics builds every topic under one prefix.
type Topics struct {
	prefix string
}

func NewTopics(prefix string) Topics {
	return Topics{prefix: strings.Trim(prefix, "/")}
}

func (t Topics) topic(suffix string) string {
	return t.prefix + "/" + suffix
}

// ---- inbound ----

func (t Topics) Cmd() string         { return t.topic("cmd") }
func (t Topics) SetFunction() string { return t.topic("set/function") }
func (t Topics) SetRange() string    { return t.topic("set/range") }
func (t Topics) SetRate() string     { return t.topic("set/rate") }
func (t Topics) Reset() string       { return t.topic("reset") }
func (t Topics) Zero() string        { return t.topic("zero") }

// ---- outbound ----

func (t Topics) Value() string     { return t.topic("value") }
func (t Topics) Function() string  { return t.topic("function") }
func (t Topics) IDN() string       { return t.topic("idn") }
func (t Topics) Status() string    { return t.topic("status") }
func (t Topics) Heartbeat() string { return t.topic("heartbeat") }

// Inbound lists the subscribed topics.
func (t Topics) Inbound() []string {
	return []string{t.Cmd(), t.SetFunction(), t.SetRange(), t.SetRate(), t.Reset(), t.Zero()}
}

// CommandFor maps an inbound message to a bridge command.
// Commands that need a value reject an empty payload.
func (t Topics) CommandFor(topic string, payload []byte) (bridge.Command, bool) {
	v := strings.TrimSpace(string(payload))

	var kind bridge.CommandKind
	switch topic {
	case t.Cmd():
		kind = bridge.CommandRaw
	case t.SetFunction():
		kind = bridge.CommandFunction
	case t.SetRange():
		kind = bridge.CommandRange
	case t.SetRate():
		kind = bridge.CommandRate
	case t.Reset():
		return bridge.Command{Kind: bridge.CommandReset}, true
	case t.Zero():
		return bridge.Command{Kind: bridge.CommandZero}, true
	default:
		return bridge.Command{}, false
	}

	if v == "" {
		return bridge.Command{}, false
	}
	return bridge.Command{Kind: kind, Value: v}, true
}
