package control

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"

	"github.com/mx-scissortail/wasdwm/internal/engine"
	"github.com/mx-scissortail/wasdwm/internal/metrics"
)

// Server hosts the wasdwm control socket and serves requests.
type Server struct {
	engine     *engine.Engine
	collector  *metrics.Collector
	logger     zerolog.Logger
	reload     func(reason string) error
	socketPath string

	mu       sync.Mutex
	listener net.Listener
}

// NewServer creates a new control server. reload may be nil when the
// daemon does not support live configuration reloads.
func NewServer(eng *engine.Engine, collector *metrics.Collector, logger zerolog.Logger, reload func(reason string) error) (*Server, error) {
	path, err := DefaultSocketPath()
	if err != nil {
		return nil, err
	}
	return &Server{
		engine:     eng,
		collector:  collector,
		logger:     logger.With().Str("component", "control").Logger(),
		reload:     reload,
		socketPath: path,
	}, nil
}

// Serve listens on the control socket until the context is cancelled.
func (s *Server) Serve(ctx context.Context) error {
	if err := s.prepareSocket(); err != nil {
		return err
	}
	s.logger.Info().Str("socket", s.socketPath).Msg("control server listening")
	defer s.cleanup()

	go func() {
		<-ctx.Done()
		s.mu.Lock()
		if s.listener != nil {
			s.listener.Close()
		}
		s.mu.Unlock()
	}()

	for {
		conn, err := s.accept(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			if ctx.Err() != nil {
				return nil
			}
			s.logger.Error().Err(err).Msg("control accept error")
			continue
		}
		go s.handle(ctx, conn)
	}
}

func (s *Server) accept(ctx context.Context) (net.Conn, error) {
	s.mu.Lock()
	listener := s.listener
	s.mu.Unlock()
	if listener == nil {
		return nil, context.Canceled
	}
	conn, err := listener.Accept()
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, err
	}
	return conn, nil
}

func (s *Server) prepareSocket() error {
	dir := filepath.Dir(s.socketPath)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create control dir: %w", err)
	}
	if err := os.Remove(s.socketPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove stale socket: %w", err)
	}
	listener, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return fmt.Errorf("listen on control socket: %w", err)
	}
	if err := os.Chmod(s.socketPath, 0o600); err != nil {
		listener.Close()
		return fmt.Errorf("chmod control socket: %w", err)
	}
	s.mu.Lock()
	s.listener = listener
	s.mu.Unlock()
	return nil
}

func (s *Server) cleanup() {
	s.mu.Lock()
	listener := s.listener
	s.listener = nil
	s.mu.Unlock()
	if listener != nil {
		listener.Close()
	}
	if err := os.Remove(s.socketPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		s.logger.Warn().Err(err).Msg("remove control socket")
	}
}

func (s *Server) handle(ctx context.Context, conn net.Conn) {
	defer conn.Close()
	dec := json.NewDecoder(conn)
	var req Request
	if err := dec.Decode(&req); err != nil {
		s.writeError(conn, fmt.Errorf("decode request: %w", err))
		return
	}
	switch req.Action {
	case ActionStateGet:
		s.writeOK(conn, s.engine.Snapshot())
	case ActionCommand:
		s.handleCommand(ctx, conn, req.Params)
	case ActionReload:
		s.handleReload(conn)
	case ActionMetricsGet:
		s.handleMetricsGet(conn)
	case ActionHistoryGet:
		s.writeOK(conn, HistoryResult{Entries: s.engine.History()})
	case ActionPing:
		s.writeOK(conn, PingResult{Status: s.engine.Status()})
	default:
		s.writeError(conn, fmt.Errorf("unknown action %q", req.Action))
	}
}

func (s *Server) handleCommand(ctx context.Context, conn net.Conn, params map[string]any) {
	data, err := json.Marshal(params)
	if err != nil {
		s.writeError(conn, fmt.Errorf("encode command params: %w", err))
		return
	}
	var cmd Command
	if err := json.Unmarshal(data, &cmd); err != nil {
		s.writeError(conn, fmt.Errorf("decode command params: %w", err))
		return
	}
	if cmd.Name == "" {
		s.writeError(conn, errors.New("missing command name"))
		return
	}
	applied, err := s.engine.Execute(ctx, cmd)
	if err != nil {
		s.writeError(conn, err)
		return
	}
	s.writeOK(conn, CommandResult{Applied: applied})
}

func (s *Server) handleReload(conn net.Conn) {
	if s.reload == nil {
		s.writeError(conn, errors.New("reload not supported"))
		return
	}
	if err := s.reload("control request"); err != nil {
		s.writeError(conn, err)
		return
	}
	s.writeOK(conn, nil)
}

func (s *Server) handleMetricsGet(conn net.Conn) {
	if s.collector == nil {
		s.writeError(conn, errors.New("metrics not enabled"))
		return
	}
	s.writeOK(conn, s.collector.Snapshot())
}

func (s *Server) writeOK(conn net.Conn, data any) {
	resp := Response{Status: StatusOK}
	if data != nil {
		resp.Data = data
	}
	_ = json.NewEncoder(conn).Encode(resp)
}

func (s *Server) writeError(conn net.Conn, err error) {
	resp := Response{Status: StatusError}
	if err != nil {
		resp.Error = err.Error()
	}
	_ = json.NewEncoder(conn).Encode(resp)
}
