// internal/status/constants.go
package status

// Status block layout constants.
// These values define the register mirror and MUST NOT be configurable.

// ---- BLOCK GEOMETRY ----

// SlotsPerDevice is the fixed number of registers in the status block.
const SlotsPerDevice = 24

// ---- SLOT INDICES ----

// SlotHealthCode holds the bridge health state.
const SlotHealthCode = 0

// SlotLastErrorCode holds the last startup stage error code.
const SlotLastErrorCode = 1

// SlotFunction holds the current measurement function code.
const SlotFunction = 2

// SlotValue holds the last value as IEEE-754 float32, high word first (2 slots).
const SlotValue = 3

// SlotSamples holds the sample counter as uint32, high word first (2 slots).
const SlotSamples = 5

// Slot 7 is reserved.
const SlotReserved = 7

// ---- IDENTIFICATION ----

// SlotIdentStart is the first slot used for the identification string.
// The identification always sits at the END of the status block.
const SlotIdentStart = 8

// SlotIdentSlots is the number of slots reserved for the identification.
const SlotIdentSlots = 16

// IdentMaxChars is the maximum number of ASCII characters stored.
const IdentMaxChars = SlotIdentSlots * 2

// ---- HEALTH CODES ----

// HealthUnknown represents the boot state, before startup completes.
const HealthUnknown uint16 = 0

// HealthOnline is published after a successful startup.
const HealthOnline uint16 = 1

// HealthOffline means the meter stopped answering polls.
const HealthOffline uint16 = 2

// HealthError means a startup stage failed.
const HealthError uint16 = 3

// ---- STARTUP STAGE ERROR CODES ----

// CodeNone means no error.
const CodeNone uint16 = 0

// CodeGeneric is used for errors that carry no stage.
const CodeGeneric uint16 = 1

// CodeIdle is the idle-line check.
const CodeIdle uint16 = 10

// CodeIdentify is the identification stage.
const CodeIdentify uint16 = 20

// CodeFastMode is the fast-mode set and verify stage.
const CodeFastMode uint16 = 30
