package display

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"
)

// Bridge connects to the display adapter's unix sockets: one streaming
// events in, one accepting operation batches.
type Bridge struct {
	eventPath string
	opPath    string

	mu     sync.Mutex
	opConn net.Conn
}

// Dial resolves the adapter socket paths from the environment. The event
// connection is made by Subscribe, the op connection lazily on first
// Apply.
func Dial() (*Bridge, error) {
	dir, err := socketDir()
	if err != nil {
		return nil, err
	}
	return &Bridge{
		eventPath: filepath.Join(dir, "event.sock"),
		opPath:    filepath.Join(dir, "op.sock"),
	}, nil
}

func socketDir() (string, error) {
	if dir := os.Getenv("WASDWM_BRIDGE_DIR"); dir != "" {
		return dir, nil
	}
	display := os.Getenv("WASDWM_DISPLAY")
	if display == "" {
		display = os.Getenv("DISPLAY")
	}
	if display == "" {
		return "", fmt.Errorf("neither WASDWM_DISPLAY nor DISPLAY is set")
	}
	runtimeDir := os.Getenv("XDG_RUNTIME_DIR")
	if runtimeDir == "" {
		return "", fmt.Errorf("XDG_RUNTIME_DIR not set")
	}
	return filepath.Join(runtimeDir, "wasdwm", display), nil
}

// Subscribe connects to the event socket and streams events until the
// context ends or the adapter hangs up.
func (b *Bridge) Subscribe(ctx context.Context, logger zerolog.Logger) (<-chan Event, error) {
	conn, err := net.Dial("unix", b.eventPath)
	if err != nil {
		return nil, fmt.Errorf("connect event socket: %w", err)
	}
	events := make(chan Event)
	go func() {
		defer close(events)
		defer conn.Close()
		go func() {
			<-ctx.Done()
			conn.Close()
		}()
		scanner := bufio.NewScanner(conn)
		scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
		for scanner.Scan() {
			var ev Event
			if err := json.Unmarshal(scanner.Bytes(), &ev); err != nil {
				logger.Warn().Err(err).Msg("malformed event line")
				continue
			}
			select {
			case events <- ev:
			case <-ctx.Done():
				return
			}
		}
		if err := scanner.Err(); err != nil && ctx.Err() == nil {
			logger.Warn().Err(err).Msg("event stream error")
		}
	}()
	return events, nil
}

// Apply sends one operation batch as a single line, so the adapter can
// apply it atomically between events.
func (b *Bridge) Apply(ctx context.Context, ops []Op) error {
	if len(ops) == 0 {
		return nil
	}
	payload, err := json.Marshal(ops)
	if err != nil {
		return fmt.Errorf("encode ops: %w", err)
	}
	payload = append(payload, '\n')

	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.write(ctx, payload); err != nil {
		// One reconnect attempt covers an adapter restart.
		b.closeOpConn()
		if err := b.write(ctx, payload); err != nil {
			return err
		}
	}
	return nil
}

func (b *Bridge) write(ctx context.Context, payload []byte) error {
	if b.opConn == nil {
		var d net.Dialer
		conn, err := d.DialContext(ctx, "unix", b.opPath)
		if err != nil {
			return fmt.Errorf("connect op socket: %w", err)
		}
		b.opConn = conn
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = b.opConn.SetWriteDeadline(deadline)
	}
	if _, err := b.opConn.Write(payload); err != nil {
		return fmt.Errorf("write ops: %w", err)
	}
	return nil
}

func (b *Bridge) closeOpConn() {
	if b.opConn != nil {
		b.opConn.Close()
		b.opConn = nil
	}
}

// Close drops the op connection. The event connection closes with its
// subscription context.
func (b *Bridge) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closeOpConn()
	return nil
}
