package engine

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/mx-scissortail/wasdwm/internal/display"
	"github.com/mx-scissortail/wasdwm/internal/layout"
	"github.com/mx-scissortail/wasdwm/internal/metrics"
	"github.com/mx-scissortail/wasdwm/internal/rules"
	"github.com/mx-scissortail/wasdwm/internal/state"
	"github.com/mx-scissortail/wasdwm/internal/tags"
)

type fakeConn struct {
	mu       sync.Mutex
	events   chan display.Event
	batches  [][]display.Op
	applyErr error
}

func newFakeConn() *fakeConn {
	return &fakeConn{events: make(chan display.Event, 16)}
}

func (f *fakeConn) Subscribe(ctx context.Context, logger zerolog.Logger) (<-chan display.Event, error) {
	return f.events, nil
}

func (f *fakeConn) Apply(ctx context.Context, ops []display.Op) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.applyErr != nil {
		return f.applyErr
	}
	f.batches = append(f.batches, append([]display.Op(nil), ops...))
	return nil
}

func (f *fakeConn) ops() []display.Op {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []display.Op
	for _, batch := range f.batches {
		out = append(out, batch...)
	}
	return out
}

func (f *fakeConn) reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.batches = nil
}

func testSettings() Settings {
	names := []string{"one", "two", "three"}
	return Settings{
		TagNames: names,
		Defaults: state.Defaults{
			NumTags:       len(names),
			MarkedWidth:   0.6,
			Layouts:       state.DefaultLayouts(len(names), layout.Deck, layout.Monocle),
			ShowTagBar:    true,
			TagsOnTop:     true,
			ClientBarMode: state.BarAuto,
		},
		BorderWidth:      2,
		FloatBorderWidth: 3,
		BarHeight:        20,
		Snap:             16,
		ViewTagToggles:   true,
		ClientBarCycle:   []state.BarMode{state.BarNever, state.BarAuto, state.BarAlways},
	}
}

func newTestEngine(t *testing.T, cfg Settings) (*Engine, *fakeConn) {
	t.Helper()
	conn := newFakeConn()
	e := New(conn, cfg, zerolog.Nop(), metrics.NewCollector(true))
	return e, conn
}

func deliver(e *Engine, kind display.Kind, payload any) {
	e.handleEvent(context.Background(), display.MustEvent(kind, payload))
}

func win(id state.WindowID, title string) display.WindowInfo {
	return display.WindowInfo{
		Window: id, X: 10, Y: 40, Width: 600, Height: 400, Title: title,
	}
}

func scan(e *Engine, wins ...display.WindowInfo) {
	deliver(e, display.KindScan, display.ScanPayload{
		Monitors: []display.MonitorInfo{{Width: 1920, Height: 1080}},
		Windows:  wins,
	})
}

func opsOfKind(ops []display.Op, kind display.OpKind) []display.Op {
	var out []display.Op
	for _, op := range ops {
		if op.Kind == kind {
			out = append(out, op)
		}
	}
	return out
}

func lastBar(t *testing.T, ops []display.Op, monitor int) display.BarState {
	t.Helper()
	var found *display.BarState
	for _, op := range ops {
		if op.Kind == display.OpBar && op.Bar != nil && op.Bar.Monitor == monitor {
			bar := *op.Bar
			found = &bar
		}
	}
	if found == nil {
		t.Fatalf("no bar update for monitor %d in %d ops", monitor, len(ops))
	}
	return *found
}

func selectedClient(t *testing.T, e *Engine) *state.Client {
	t.Helper()
	m := e.world.Selected()
	if m == nil {
		t.Fatal("no selected monitor")
	}
	return m.Selected()
}

func TestScanManagesAndFocuses(t *testing.T) {
	e, conn := newTestEngine(t, testSettings())
	scan(e, win(1, "alpha"), win(2, "beta"))

	m := e.world.Selected()
	if m == nil || len(m.Clients) != 2 {
		t.Fatalf("expected 2 managed clients, got %+v", e.world.Monitors)
	}
	if m.Clients[0].Window != 2 || m.Clients[1].Window != 1 {
		t.Fatalf("list order = [%d %d], want newest first", m.Clients[0].Window, m.Clients[1].Window)
	}
	sel := selectedClient(t, e)
	if sel == nil || sel.Window != 2 {
		t.Fatalf("selection = %+v, want window 2", sel)
	}

	ops := conn.ops()
	var focused []state.WindowID
	for _, op := range opsOfKind(ops, display.OpFocus) {
		focused = append(focused, op.Window)
	}
	if len(focused) == 0 || focused[len(focused)-1] != 2 {
		t.Fatalf("focus ops = %v, want window 2 last", focused)
	}
	bar := lastBar(t, ops, 0)
	if bar.Symbol != "D 2" {
		t.Fatalf("deck label = %q, want D 2", bar.Symbol)
	}
	if bar.Title != "beta" {
		t.Fatalf("bar title = %q, want beta", bar.Title)
	}
}

func TestManageAppliesRules(t *testing.T) {
	cfg := testSettings()
	cfg.Rules = []rules.Rule{{Class: "Term", Floating: true, Tags: tags.Bit(2), Monitor: -1}}
	e, _ := newTestEngine(t, cfg)
	scan(e)

	deliver(e, display.KindWindowCreated, display.WindowInfo{
		Window: 7, Class: "XTerm", Width: 500, Height: 300,
	})
	c, _ := e.world.ClientByWindow(7)
	if c == nil {
		t.Fatal("window 7 not managed")
	}
	if !c.Floating {
		t.Fatal("rule should float the client")
	}
	if c.Tags != tags.Bit(2) {
		t.Fatalf("tags = %v, want tag three only", c.Tags)
	}
	// Tag three is not in view and followNewWindows is off, so the
	// selection must not land on the new client.
	if e.world.Selected().Sel == c.ID {
		t.Fatal("selection landed on an invisible client")
	}
}

func TestFollowNewWindowsViewsTag(t *testing.T) {
	cfg := testSettings()
	cfg.FollowNewWindows = true
	cfg.Rules = []rules.Rule{{Class: "Term", Tags: tags.Bit(1), Monitor: -1}}
	e, _ := newTestEngine(t, cfg)
	scan(e)

	deliver(e, display.KindWindowCreated, display.WindowInfo{
		Window: 7, Class: "XTerm", Width: 500, Height: 300,
	})
	m := e.world.Selected()
	if m.ViewMask() != tags.Bit(1) {
		t.Fatalf("view = %v, want tag two after follow", m.ViewMask())
	}
	c, _ := e.world.ClientByWindow(7)
	if m.Sel != c.ID {
		t.Fatal("followed window should be selected")
	}
}

func TestTransientInheritsParent(t *testing.T) {
	cfg := testSettings()
	cfg.Rules = []rules.Rule{{Class: "Term", Tags: tags.Bit(1), Monitor: -1}}
	e, _ := newTestEngine(t, cfg)
	scan(e, win(1, "parent"))
	parent, _ := e.world.ClientByWindow(1)
	parent.Tags = tags.Bit(2)

	deliver(e, display.KindWindowCreated, display.WindowInfo{
		Window: 2, Class: "XTerm", TransientFor: 1, Width: 300, Height: 200,
	})
	c, _ := e.world.ClientByWindow(2)
	if c == nil {
		t.Fatal("transient not managed")
	}
	if c.Tags != tags.Bit(2) {
		t.Fatalf("transient tags = %v, want the parent's", c.Tags)
	}
	if !c.Floating {
		t.Fatal("transient should start floating")
	}
}

func TestUnmanageRefocuses(t *testing.T) {
	e, conn := newTestEngine(t, testSettings())
	scan(e, win(1, "alpha"), win(2, "beta"))
	conn.reset()

	deliver(e, display.KindWindowDestroyed, display.WindowPayload{Window: 2})
	m := e.world.Selected()
	if len(m.Clients) != 1 {
		t.Fatalf("clients = %d, want 1", len(m.Clients))
	}
	sel := selectedClient(t, e)
	if sel == nil || sel.Window != 1 {
		t.Fatalf("selection = %+v, want window 1", sel)
	}
	if got := opsOfKind(conn.ops(), display.OpRelease); len(got) != 0 {
		t.Fatalf("destroyed window must not be released, got %d release ops", len(got))
	}
}

func TestUnmapReleasesOrWithdraws(t *testing.T) {
	e, conn := newTestEngine(t, testSettings())
	scan(e, win(1, "alpha"), win(2, "beta"))
	conn.reset()

	// Synthetic unmap: the client parks itself withdrawn but stays managed.
	deliver(e, display.KindWindowUnmapped, display.UnmapPayload{Window: 2, Synthetic: true})
	if c, _ := e.world.ClientByWindow(2); c == nil {
		t.Fatal("synthetic unmap must not unmanage")
	}
	if got := opsOfKind(conn.ops(), display.OpWithdraw); len(got) != 1 {
		t.Fatalf("want one withdraw op, got %d", len(got))
	}
	conn.reset()

	// Real unmap: unmanage and hand the window back with its old border.
	deliver(e, display.KindWindowUnmapped, display.UnmapPayload{Window: 2})
	if c, _ := e.world.ClientByWindow(2); c != nil {
		t.Fatal("unmap should unmanage the window")
	}
	rel := opsOfKind(conn.ops(), display.OpRelease)
	if len(rel) != 1 || rel[0].Window != 2 {
		t.Fatalf("release ops = %+v, want one for window 2", rel)
	}
}

func TestTitleChangeRedrawsBar(t *testing.T) {
	e, conn := newTestEngine(t, testSettings())
	scan(e, win(1, "alpha"))
	conn.reset()

	deliver(e, display.KindTitleChanged, display.TitlePayload{Window: 1, Title: "renamed"})
	c, _ := e.world.ClientByWindow(1)
	if c.Name != "renamed" {
		t.Fatalf("title = %q, want renamed", c.Name)
	}
	if bar := lastBar(t, conn.ops(), 0); bar.Title != "renamed" {
		t.Fatalf("bar title = %q, want renamed", bar.Title)
	}
}

func TestMonitorTopologyChanges(t *testing.T) {
	e, _ := newTestEngine(t, testSettings())
	scan(e, win(1, "alpha"))

	two := []display.MonitorInfo{
		{Width: 1920, Height: 1080},
		{X: 1920, Width: 1280, Height: 1024},
	}
	deliver(e, display.KindMonitorsChanged, display.MonitorsPayload{Monitors: two})
	if len(e.world.Monitors) != 2 {
		t.Fatalf("monitors = %d, want 2", len(e.world.Monitors))
	}

	ctx := context.Background()
	if _, err := e.Execute(ctx, Command{Name: "send-to-monitor", Dir: 1}); err != nil {
		t.Fatalf("send-to-monitor: %v", err)
	}
	c, m := e.world.ClientByWindow(1)
	if m == nil || m.Num != 1 {
		t.Fatalf("client monitor = %+v, want 1", m)
	}
	// Move the first monitor off tag one so a drain that retagged would
	// be visible in the client's mask.
	if _, err := e.Execute(ctx, Command{Name: "view", Tags: "two"}); err != nil {
		t.Fatalf("view: %v", err)
	}

	one := two[:1]
	deliver(e, display.KindMonitorsChanged, display.MonitorsPayload{Monitors: one})
	if len(e.world.Monitors) != 1 {
		t.Fatalf("monitors = %d, want 1 after shrink", len(e.world.Monitors))
	}
	c, m = e.world.ClientByWindow(1)
	if m == nil || m.Num != 0 {
		t.Fatal("client should drain to the first monitor")
	}
	if c.Tags != tags.Bit(0) {
		t.Fatalf("drained client tags = %v, want the original tag one", c.Tags)
	}
	found := false
	for _, id := range m.Stack {
		if id == c.ID {
			found = true
		}
	}
	if !found {
		t.Fatal("drained client missing from the focus stack")
	}
}

func TestReloadRejectsTagCountChange(t *testing.T) {
	e, _ := newTestEngine(t, testSettings())
	scan(e)

	cfg := testSettings()
	cfg.TagNames = []string{"one", "two"}
	if err := e.Reload(context.Background(), cfg); err == nil {
		t.Fatal("reload with a different tag count must fail")
	}
}

func TestReloadReassignsBorders(t *testing.T) {
	e, _ := newTestEngine(t, testSettings())
	scan(e, win(1, "alpha"))

	cfg := testSettings()
	cfg.BorderWidth = 5
	if err := e.Reload(context.Background(), cfg); err != nil {
		t.Fatalf("reload: %v", err)
	}
	c, _ := e.world.ClientByWindow(1)
	if c.BorderWidth != 5 {
		t.Fatalf("border = %d, want 5 after reload", c.BorderWidth)
	}
}

func TestExecuteRecordsHistory(t *testing.T) {
	e, _ := newTestEngine(t, testSettings())
	scan(e)
	ctx := context.Background()

	if applied, err := e.Execute(ctx, Command{Name: "view", Tags: "two"}); err != nil || !applied {
		t.Fatalf("view = (%v, %v), want applied", applied, err)
	}
	if applied, err := e.Execute(ctx, Command{Name: "toggle-mark"}); err != nil || applied {
		t.Fatalf("toggle-mark without selection = (%v, %v), want silent no-op", applied, err)
	}
	if _, err := e.Execute(ctx, Command{Name: "bogus"}); err == nil {
		t.Fatal("unknown command must error")
	}

	hist := e.History()
	if len(hist) != 3 {
		t.Fatalf("history length = %d, want 3", len(hist))
	}
	if hist[0].Outcome != "applied" || hist[1].Outcome != "ignored" {
		t.Fatalf("outcomes = %q, %q", hist[0].Outcome, hist[1].Outcome)
	}
	if !strings.HasPrefix(hist[2].Outcome, "error:") {
		t.Fatalf("outcome = %q, want error prefix", hist[2].Outcome)
	}

	totals := e.collector.Snapshot().Totals
	if totals.Executed != 1 || totals.Rejected != 2 {
		t.Fatalf("totals = %+v, want 1 executed / 2 rejected", totals)
	}
}

func TestApplyFailureDoesNotStall(t *testing.T) {
	e, conn := newTestEngine(t, testSettings())
	scan(e, win(1, "alpha"))
	conn.applyErr = errors.New("bridge gone")

	if applied, err := e.Execute(context.Background(), Command{Name: "view", Tags: "two"}); err != nil || !applied {
		t.Fatalf("view = (%v, %v), want applied despite apply failure", applied, err)
	}
	if e.collector.Snapshot().Totals.ApplyErrors == 0 {
		t.Fatal("apply failure not counted")
	}
}

func TestStatusTextFallback(t *testing.T) {
	e, conn := newTestEngine(t, testSettings())
	scan(e)
	conn.reset()

	deliver(e, display.KindStatusText, display.StatusPayload{Text: "load 0.42"})
	if got := e.Status(); got != "load 0.42" {
		t.Fatalf("status = %q", got)
	}
	if bar := lastBar(t, conn.ops(), 0); bar.Status != "load 0.42" {
		t.Fatalf("bar status = %q", bar.Status)
	}

	deliver(e, display.KindStatusText, display.StatusPayload{Text: ""})
	if got := e.Status(); got != statusFallback {
		t.Fatalf("status = %q, want fallback", got)
	}
}

func TestQuitStopsRun(t *testing.T) {
	e, _ := newTestEngine(t, testSettings())
	done := make(chan error, 1)
	go func() { done <- e.Run(context.Background()) }()

	if _, err := e.Execute(context.Background(), Command{Name: "quit"}); err != nil {
		t.Fatalf("quit: %v", err)
	}
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run returned %v, want nil on quit", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop after quit")
	}
}

func TestRunStopsWhenStreamCloses(t *testing.T) {
	e, conn := newTestEngine(t, testSettings())
	done := make(chan error, 1)
	go func() { done <- e.Run(context.Background()) }()

	close(conn.events)
	select {
	case err := <-done:
		if err == nil {
			t.Fatal("Run should report a closed event stream")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop on stream close")
	}
}
