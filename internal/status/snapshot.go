// internal/status/snapshot.go
package status

// Snapshot represents exactly what a status sink is allowed to deliver.
// It contains no logic and no memory of the past beyond current state.
type Snapshot struct {
	Health        uint16
	LastErrorCode uint16

	// Stage names the failed startup stage when Health is HealthError.
	Stage string
}

// String is the status payload published on message buses:
// "online", "offline", "unknown" or "error:<stage>".
func (s Snapshot) String() string {
	switch s.Health {
	case HealthOnline:
		return "online"
	case HealthOffline:
		return "offline"
	case HealthError:
		if s.Stage == "" {
			return "error"
		}
		return "error:" + s.Stage
	}
	return "unknown"
}

// Online is the snapshot published after startup or recovery.
func Online() Snapshot {
	return Snapshot{Health: HealthOnline}
}

// Offline is the snapshot published when polls go unanswered.
func Offline() Snapshot {
	return Snapshot{Health: HealthOffline}
}

// Failed is the snapshot published when a startup stage fails.
func Failed(stage string, code uint16) Snapshot {
	return Snapshot{Health: HealthError, LastErrorCode: code, Stage: stage}
}
