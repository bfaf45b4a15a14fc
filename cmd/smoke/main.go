// Command smoke replays a scripted window session against the engine and
// checks the shape of the operation stream it emits. It needs no display
// server, so it doubles as a quick end-to-end sanity check after changes
// to the arrangement code.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/mx-scissortail/wasdwm/internal/config"
	"github.com/mx-scissortail/wasdwm/internal/display"
	"github.com/mx-scissortail/wasdwm/internal/engine"
	"github.com/mx-scissortail/wasdwm/internal/logging"
	"github.com/mx-scissortail/wasdwm/internal/metrics"
	"github.com/mx-scissortail/wasdwm/internal/state"
)

// defaultScenario walks a client through the whole lifecycle: manage,
// mark, layout switch, view switch and unmanage.
const defaultScenario = `name: default
monitors:
  - {width: 1920, height: 1080}
steps:
  - describe: manage an editor
    window: {id: 1, title: notes, class: editor, width: 800, height: 600}
    expect:
      ops: [configure-notify, place, focus, bar]
      selected: 1
  - describe: manage a terminal next to it
    window: {id: 2, title: shell, class: term, width: 640, height: 480}
    expect:
      ops: [configure-notify, place, focus]
      selected: 2
  - describe: mark the terminal into the side area
    command: {name: toggle-mark}
    expect:
      applied: true
      ops: [place]
  - describe: switch the deck area to the tile layout
    command: {name: set-layout, layout: tile}
    expect:
      applied: true
      ops: [bar]
  - describe: look at an empty tag
    command: {name: view, tags: "1"}
    expect:
      applied: true
      ops: [clear-focus, hide]
  - describe: flip back to the previous view
    command: {name: view}
    expect:
      applied: true
      ops: [focus, show]
      selected: 2
  - describe: close the editor
    destroy: 1
    expect:
      ops: [focus, bar]
      selected: 2
`

type scenario struct {
	Name     string        `yaml:"name"`
	Monitors []monitorSpec `yaml:"monitors"`
	Steps    []step        `yaml:"steps"`
}

type monitorSpec struct {
	X      int `yaml:"x"`
	Y      int `yaml:"y"`
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

type step struct {
	Describe string          `yaml:"describe,omitempty"`
	Window   *windowSpec     `yaml:"window,omitempty"`
	Destroy  state.WindowID  `yaml:"destroy,omitempty"`
	Command  *engine.Command `yaml:"command,omitempty"`
	Expect   *expectation    `yaml:"expect,omitempty"`
}

type windowSpec struct {
	ID         state.WindowID `yaml:"id"`
	Title      string         `yaml:"title,omitempty"`
	Class      string         `yaml:"class,omitempty"`
	Instance   string         `yaml:"instance,omitempty"`
	X          int            `yaml:"x"`
	Y          int            `yaml:"y"`
	Width      int            `yaml:"width"`
	Height     int            `yaml:"height"`
	Dialog     bool           `yaml:"dialog,omitempty"`
	Urgent     bool           `yaml:"urgent,omitempty"`
	Fullscreen bool           `yaml:"fullscreen,omitempty"`
}

// expectation checks one step's outcome. Ops must appear in the step's
// batch in the listed order; other operations may sit between them.
type expectation struct {
	Ops      []string       `yaml:"ops,omitempty"`
	Applied  *bool          `yaml:"applied,omitempty"`
	Selected state.WindowID `yaml:"selected,omitempty"`
}

// scriptConn feeds the engine a scripted event stream and records every
// applied operation batch.
type scriptConn struct {
	events chan display.Event

	mu  sync.Mutex
	ops []display.Op
}

func newScriptConn() *scriptConn {
	return &scriptConn{events: make(chan display.Event)}
}

func (c *scriptConn) Subscribe(ctx context.Context, logger zerolog.Logger) (<-chan display.Event, error) {
	return c.events, nil
}

func (c *scriptConn) Apply(ctx context.Context, ops []display.Op) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ops = append(c.ops, ops...)
	return nil
}

// feed delivers one event and waits until the engine finished processing
// it. The events channel is unbuffered, so the run loop only accepts the
// trailing no-op once the previous handler returned and flushed.
func (c *scriptConn) feed(ev display.Event) {
	c.events <- ev
	c.events <- display.MustEvent(display.KindTitleChanged, display.TitlePayload{Window: 0})
}

func (c *scriptConn) take() []display.Op {
	c.mu.Lock()
	defer c.mu.Unlock()
	ops := c.ops
	c.ops = nil
	return ops
}

func main() {
	cfgPath := flag.String("config", "", "path to YAML config (defaults to built-in settings)")
	scenarioPath := flag.String("scenario", "", "path to a scenario file (defaults to the built-in session)")
	logLevel := flag.String("log-level", "warn", "log level (trace|debug|info|warn|error)")
	showOps := flag.Bool("ops", false, "print the full operation batches as JSON")
	flag.Parse()

	cfg := config.Default()
	if *cfgPath != "" {
		loaded, err := config.Load(*cfgPath)
		if err != nil {
			exitErr(fmt.Errorf("load config: %w", err))
		}
		cfg = *loaded
		fmt.Printf("Loaded config from %s\n", *cfgPath)
	} else {
		fmt.Println("Using built-in default settings")
	}

	sc, err := loadScenario(*scenarioPath)
	if err != nil {
		exitErr(err)
	}

	logger, err := logging.New(logging.Options{Level: *logLevel})
	if err != nil {
		exitErr(err)
	}

	settings, err := engine.SettingsFromConfig(&cfg)
	if err != nil {
		exitErr(fmt.Errorf("build settings: %w", err))
	}

	fmt.Println("\n=== Configuration ===")
	if err := marshalYAML(cfg); err != nil {
		exitErr(fmt.Errorf("print config: %w", err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	conn := newScriptConn()
	eng := engine.New(conn, settings, logger, metrics.NewCollector(false))
	go func() { _ = eng.Run(ctx) }()
	defer eng.Quit()

	monitors := make([]display.MonitorInfo, 0, len(sc.Monitors))
	for _, m := range sc.Monitors {
		monitors = append(monitors, display.MonitorInfo{X: m.X, Y: m.Y, Width: m.Width, Height: m.Height})
	}
	if len(monitors) == 0 {
		monitors = append(monitors, display.MonitorInfo{Width: 1920, Height: 1080})
	}
	conn.feed(display.MustEvent(display.KindScan, display.ScanPayload{Monitors: monitors}))
	fmt.Printf("\n=== Scenario: %s ===\n", sc.Name)
	fmt.Printf("scan %d monitor(s): ops %s\n", len(monitors), joinKinds(conn.take()))

	failures := 0
	for i, st := range sc.Steps {
		desc := st.Describe
		if desc == "" {
			desc = describeStep(st)
		}
		fmt.Printf("\nstep %d: %s\n", i+1, desc)

		var applied *bool
		switch {
		case st.Window != nil:
			conn.feed(display.MustEvent(display.KindWindowCreated, st.Window.info()))
		case st.Destroy != 0:
			conn.feed(display.MustEvent(display.KindWindowDestroyed, display.WindowPayload{Window: st.Destroy}))
		case st.Command != nil:
			ok, err := eng.Execute(ctx, *st.Command)
			if err != nil {
				fmt.Printf("  FAIL: command %s: %v\n", st.Command.Name, err)
				failures++
				continue
			}
			applied = &ok
		default:
			fmt.Println("  FAIL: step does not name a window, destroy or command")
			failures++
			continue
		}

		ops := conn.take()
		fmt.Printf("  ops: %s\n", joinKinds(ops))
		if *showOps {
			if err := marshalJSON(ops); err != nil {
				exitErr(fmt.Errorf("print ops: %w", err))
			}
		}
		failures += checkStep(st.Expect, ops, applied, eng)
	}

	fmt.Println("\n=== Final World ===")
	if err := marshalJSON(eng.Snapshot()); err != nil {
		exitErr(fmt.Errorf("print snapshot: %w", err))
	}

	if failures > 0 {
		exitErr(fmt.Errorf("smoke failed: %d expectation(s) not met", failures))
	}
	fmt.Printf("\nPASS: %d step(s)\n", len(sc.Steps))
}

func loadScenario(path string) (*scenario, error) {
	data := []byte(defaultScenario)
	if path != "" {
		var err error
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("load scenario: %w", err)
		}
	}
	var sc scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("parse scenario: %w", err)
	}
	if sc.Name == "" {
		sc.Name = "unnamed"
	}
	if len(sc.Steps) == 0 {
		return nil, fmt.Errorf("scenario %s has no steps", sc.Name)
	}
	return &sc, nil
}

func (w *windowSpec) info() display.WindowInfo {
	info := display.WindowInfo{
		Window:     w.ID,
		X:          w.X,
		Y:          w.Y,
		Width:      w.Width,
		Height:     w.Height,
		Title:      w.Title,
		Class:      w.Class,
		Instance:   w.Instance,
		Urgent:     w.Urgent,
		Dialog:     w.Dialog,
		Fullscreen: w.Fullscreen,
	}
	if info.Width <= 0 {
		info.Width = 640
	}
	if info.Height <= 0 {
		info.Height = 480
	}
	return info
}

func describeStep(st step) string {
	switch {
	case st.Window != nil:
		return fmt.Sprintf("manage window %d", st.Window.ID)
	case st.Destroy != 0:
		return fmt.Sprintf("destroy window %d", st.Destroy)
	case st.Command != nil:
		return "command " + st.Command.Name
	}
	return "empty step"
}

func checkStep(exp *expectation, ops []display.Op, applied *bool, eng *engine.Engine) int {
	if exp == nil {
		return 0
	}
	failures := 0
	if exp.Applied != nil {
		if applied == nil {
			fmt.Println("  FAIL: expected a command outcome on a non-command step")
			failures++
		} else if *applied != *exp.Applied {
			fmt.Printf("  FAIL: applied = %v, want %v\n", *applied, *exp.Applied)
			failures++
		}
	}
	if len(exp.Ops) > 0 && !containsInOrder(ops, exp.Ops) {
		fmt.Printf("  FAIL: ops %s do not contain [%s] in order\n",
			joinKinds(ops), strings.Join(exp.Ops, " "))
		failures++
	}
	if exp.Selected != 0 {
		if got := selectedWindow(eng.Snapshot()); got != exp.Selected {
			fmt.Printf("  FAIL: selected window = %d, want %d\n", got, exp.Selected)
			failures++
		}
	}
	return failures
}

func containsInOrder(ops []display.Op, want []string) bool {
	i := 0
	for _, op := range ops {
		if i < len(want) && string(op.Kind) == want[i] {
			i++
		}
	}
	return i == len(want)
}

func selectedWindow(snap engine.WorldSnapshot) state.WindowID {
	for _, m := range snap.Monitors {
		if !m.Selected {
			continue
		}
		for _, c := range m.Clients {
			if c.Selected {
				return c.Window
			}
		}
	}
	return 0
}

func joinKinds(ops []display.Op) string {
	if len(ops) == 0 {
		return "(none)"
	}
	kinds := make([]string, len(ops))
	for i, op := range ops {
		kinds[i] = string(op.Kind)
	}
	return strings.Join(kinds, " ")
}

func exitErr(err error) {
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}

func marshalYAML(v any) error {
	enc := yaml.NewEncoder(os.Stdout)
	enc.SetIndent(2)
	defer enc.Close()
	return enc.Encode(v)
}

func marshalJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}
