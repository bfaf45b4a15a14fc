package client

import (
	"context"
	"net"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/mx-scissortail/wasdwm/internal/control"
	"github.com/mx-scissortail/wasdwm/internal/display"
	"github.com/mx-scissortail/wasdwm/internal/engine"
	"github.com/mx-scissortail/wasdwm/internal/layout"
	"github.com/mx-scissortail/wasdwm/internal/metrics"
	"github.com/mx-scissortail/wasdwm/internal/state"
)

type nullConn struct{}

func (nullConn) Subscribe(ctx context.Context, logger zerolog.Logger) (<-chan display.Event, error) {
	return make(chan display.Event), nil
}

func (nullConn) Apply(ctx context.Context, ops []display.Op) error { return nil }

func startServer(t *testing.T) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "control.sock")
	t.Setenv("WASDWM_CONTROL_SOCKET", path)

	names := []string{"one", "two"}
	cfg := engine.Settings{
		TagNames: names,
		Defaults: state.Defaults{
			NumTags:       len(names),
			MarkedWidth:   0.55,
			Layouts:       state.DefaultLayouts(len(names), layout.Deck, layout.Tile),
			ShowTagBar:    true,
			ClientBarMode: state.BarAuto,
		},
		BorderWidth:      1,
		FloatBorderWidth: 2,
		BarHeight:        18,
	}
	collector := metrics.NewCollector(true)
	eng := engine.New(nullConn{}, cfg, zerolog.Nop(), collector)
	srv, err := control.NewServer(eng, collector, zerolog.Nop(), func(string) error { return nil })
	if err != nil {
		t.Fatalf("create server: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx) }()
	t.Cleanup(func() {
		cancel()
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Error("serve did not stop on cancel")
		}
	})

	deadline := time.Now().Add(2 * time.Second)
	for {
		conn, err := net.Dial("unix", path)
		if err == nil {
			conn.Close()
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("control socket never came up: %v", err)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestClientRoundTrip(t *testing.T) {
	startServer(t)
	c, err := New("")
	if err != nil {
		t.Fatalf("create client: %v", err)
	}
	ctx := context.Background()

	status, err := c.Ping(ctx)
	if err != nil {
		t.Fatalf("ping: %v", err)
	}
	if status == "" {
		t.Fatal("ping returned an empty status text")
	}

	snapshot, err := c.State(ctx)
	if err != nil {
		t.Fatalf("state: %v", err)
	}
	if len(snapshot.Monitors) != 0 {
		t.Fatalf("monitors = %d, want none before the first scan", len(snapshot.Monitors))
	}

	applied, err := c.Execute(ctx, Command{Name: "view", Tags: "two"})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if applied {
		t.Fatal("a command before the first scan cannot apply")
	}
	if _, err := c.Execute(ctx, Command{Name: "view", Tags: "seven"}); err == nil {
		t.Fatal("an unknown tag must surface as an error")
	}
	if _, err := c.Execute(ctx, Command{}); err == nil {
		t.Fatal("an empty command must be rejected client-side")
	}

	history, err := c.History(ctx)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("history entries = %d, want 2", len(history))
	}

	counters, err := c.Metrics(ctx)
	if err != nil {
		t.Fatalf("metrics: %v", err)
	}
	if counters.Totals.Rejected != 2 {
		t.Fatalf("rejected = %d, want 2", counters.Totals.Rejected)
	}

	if err := c.Reload(ctx); err != nil {
		t.Fatalf("reload: %v", err)
	}
}

func TestClientDialFailure(t *testing.T) {
	c, err := New(filepath.Join(t.TempDir(), "missing.sock"))
	if err != nil {
		t.Fatalf("create client: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	if _, err := c.Ping(ctx); err == nil {
		t.Fatal("pinging a missing socket must fail")
	}
}
