package control

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/mx-scissortail/wasdwm/internal/engine"
	"github.com/mx-scissortail/wasdwm/internal/metrics"
)

const (
	// SocketFileName is the filename of the control socket within the runtime dir.
	SocketFileName = "control.sock"

	// Action names supported by the control protocol.
	ActionStateGet   = "state.get"
	ActionCommand    = "command"
	ActionReload     = "reload"
	ActionMetricsGet = "metrics.get"
	ActionHistoryGet = "history.get"
	ActionPing       = "ping"

	// Response statuses.
	StatusOK    = "ok"
	StatusError = "error"
)

// Request represents a control API request.
type Request struct {
	Action string         `json:"action"`
	Params map[string]any `json:"params,omitempty"`
}

// Response represents a control API response.
type Response struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
	Data   any    `json:"data,omitempty"`
}

// Payload aliases so API consumers only need this package.
type (
	// Command is a window manager command as the engine understands it.
	Command = engine.Command
	// StateSnapshot is the engine's full world snapshot.
	StateSnapshot = engine.WorldSnapshot
	// MonitorSnapshot is one monitor within a state snapshot.
	MonitorSnapshot = engine.MonitorSnapshot
	// ClientSnapshot is one client within a state snapshot.
	ClientSnapshot = engine.ClientSnapshot
	// HistoryEntry is one executed command with its outcome.
	HistoryEntry = engine.HistoryEntry
	// MetricsSnapshot carries the daemon's counters.
	MetricsSnapshot = metrics.Snapshot
	// CommandMetrics is the per-command slice of a metrics snapshot.
	CommandMetrics = metrics.CommandMetrics
	// EventMetrics is the per-event slice of a metrics snapshot.
	EventMetrics = metrics.EventMetrics
)

// CommandResult reports whether a command changed anything.
type CommandResult struct {
	Applied bool `json:"applied"`
}

// HistoryResult wraps the command history.
type HistoryResult struct {
	Entries []HistoryEntry `json:"entries"`
}

// PingResult carries the daemon's status text.
type PingResult struct {
	Status string `json:"status"`
}

// DefaultSocketPath returns the expected location of the wasdwm control socket.
func DefaultSocketPath() (string, error) {
	if env := os.Getenv("WASDWM_CONTROL_SOCKET"); env != "" {
		return env, nil
	}
	runtimeDir := os.Getenv("XDG_RUNTIME_DIR")
	base := runtimeDir
	if base == "" {
		base = os.TempDir()
		if base == "" {
			return "", errors.New("no runtime directory available")
		}
	}
	return filepath.Join(base, "wasdwm", SocketFileName), nil
}
