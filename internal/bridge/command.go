// internal/bridge/command.go
package bridge

import (
	"fmt"
	"strings"
)

// CommandKind selects how a Command is dispatched.
type CommandKind int

const (
	// CommandRaw is sent verbatim with the line terminator appended.
	CommandRaw CommandKind = iota
	// CommandFunction selects a measurement function. Value is a label
	// ("DC Voltage"), an identifier ("VOLTAGE_DC") or a raw select command.
	CommandFunction
	// CommandRange is "Auto" or "Manual".
	CommandRange
	// CommandRate is "Normal" or "Fast".
	CommandRate
	CommandReset
	CommandZero
)

func (k CommandKind) String() string {
	switch k {
	case CommandRaw:
		return "raw"
	case CommandFunction:
		return "function"
	case CommandRange:
		return "range"
	case CommandRate:
		return "rate"
	case CommandReset:
		return "reset"
	case CommandZero:
		return "zero"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// ParseCommandKind maps a transport keyword to a kind.
func ParseCommandKind(s string) (CommandKind, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "raw", "cmd":
		return CommandRaw, true
	case "function":
		return CommandFunction, true
	case "range":
		return CommandRange, true
	case "rate":
		return CommandRate, true
	case "reset":
		return CommandReset, true
	case "zero":
		return CommandZero, true
	}
	return 0, false
}

// Command is one external request queued for the bridge loop.
type Command struct {
	Kind  CommandKind
	Value string
}

func (c Command) String() string {
	if c.Value == "" {
		return c.Kind.String()
	}
	return c.Kind.String() + " " + c.Value
}
