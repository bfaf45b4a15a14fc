// Package client talks to a running wasdwm daemon over its control socket.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/mx-scissortail/wasdwm/internal/control"
)

const (
	// defaultTimeout is used when the caller does not provide a context deadline.
	defaultTimeout = 3 * time.Second
)

// Client talks to the running wasdwm daemon over its control socket.
type Client struct {
	socketPath string
}

type (
	// Command is a window manager command as the engine understands it.
	Command = control.Command
	// StateSnapshot is the daemon's full world snapshot.
	StateSnapshot = control.StateSnapshot
	// MonitorSnapshot is one monitor within a state snapshot.
	MonitorSnapshot = control.MonitorSnapshot
	// ClientSnapshot is one client within a state snapshot.
	ClientSnapshot = control.ClientSnapshot
	// HistoryEntry is one executed command with its outcome.
	HistoryEntry = control.HistoryEntry
	// MetricsSnapshot carries the daemon's counters.
	MetricsSnapshot = control.MetricsSnapshot
	// CommandMetrics is the per-command slice of a metrics snapshot.
	CommandMetrics = control.CommandMetrics
	// EventMetrics is the per-event slice of a metrics snapshot.
	EventMetrics = control.EventMetrics
)

// New creates a client that connects to the provided socket path. When path is
// empty, the default runtime path is used.
func New(path string) (*Client, error) {
	if path == "" {
		var err error
		path, err = control.DefaultSocketPath()
		if err != nil {
			return nil, err
		}
	}
	return &Client{socketPath: path}, nil
}

// State retrieves the daemon's current world snapshot.
func (c *Client) State(ctx context.Context) (StateSnapshot, error) {
	var snapshot StateSnapshot
	if err := c.do(ctx, control.Request{Action: control.ActionStateGet}, &snapshot); err != nil {
		return StateSnapshot{}, err
	}
	return snapshot, nil
}

// Execute sends a command to the daemon. The returned flag reports whether
// the command changed anything.
func (c *Client) Execute(ctx context.Context, cmd Command) (bool, error) {
	if cmd.Name == "" {
		return false, errors.New("command name cannot be empty")
	}
	data, err := json.Marshal(cmd)
	if err != nil {
		return false, fmt.Errorf("encode command: %w", err)
	}
	var params map[string]any
	if err := json.Unmarshal(data, &params); err != nil {
		return false, fmt.Errorf("encode command: %w", err)
	}
	var result control.CommandResult
	if err := c.do(ctx, control.Request{Action: control.ActionCommand, Params: params}, &result); err != nil {
		return false, err
	}
	return result.Applied, nil
}

// Reload asks the daemon to reload its configuration.
func (c *Client) Reload(ctx context.Context) error {
	return c.do(ctx, control.Request{Action: control.ActionReload}, nil)
}

// Metrics retrieves the daemon's counters.
func (c *Client) Metrics(ctx context.Context) (MetricsSnapshot, error) {
	var snapshot MetricsSnapshot
	if err := c.do(ctx, control.Request{Action: control.ActionMetricsGet}, &snapshot); err != nil {
		return MetricsSnapshot{}, err
	}
	return snapshot, nil
}

// History retrieves the daemon's recent command log.
func (c *Client) History(ctx context.Context) ([]HistoryEntry, error) {
	var result control.HistoryResult
	if err := c.do(ctx, control.Request{Action: control.ActionHistoryGet}, &result); err != nil {
		return nil, err
	}
	return result.Entries, nil
}

// Ping checks that the daemon is reachable and returns its status text.
func (c *Client) Ping(ctx context.Context) (string, error) {
	var result control.PingResult
	if err := c.do(ctx, control.Request{Action: control.ActionPing}, &result); err != nil {
		return "", err
	}
	return result.Status, nil
}

func (c *Client) do(ctx context.Context, req control.Request, out any) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, defaultTimeout)
		defer cancel()
	}
	var d net.Dialer
	conn, err := d.DialContext(ctx, "unix", c.socketPath)
	if err != nil {
		return fmt.Errorf("dial control socket: %w", err)
	}
	defer conn.Close()
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}
	if err := json.NewEncoder(conn).Encode(req); err != nil {
		return fmt.Errorf("encode request: %w", err)
	}
	var resp control.Response
	if err := json.NewDecoder(conn).Decode(&resp); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if resp.Status != control.StatusOK {
		if resp.Error == "" {
			resp.Error = "unknown control error"
		}
		return errors.New(resp.Error)
	}
	if out == nil || resp.Data == nil {
		return nil
	}
	data, err := json.Marshal(resp.Data)
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode payload: %w", err)
	}
	return nil
}
