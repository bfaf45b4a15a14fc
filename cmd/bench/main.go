// Command bench replays a window session against the engine and reports
// arrangement latency, emitted operations and allocation behavior. The
// built-in fixture generates a synthetic client population; real sessions
// can be replayed from JSON fixtures.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"runtime/pprof"
	"sort"
	"strings"
	"sync"
	"text/tabwriter"
	"time"

	"github.com/rs/zerolog"

	"github.com/mx-scissortail/wasdwm/internal/config"
	"github.com/mx-scissortail/wasdwm/internal/display"
	"github.com/mx-scissortail/wasdwm/internal/engine"
	"github.com/mx-scissortail/wasdwm/internal/logging"
	"github.com/mx-scissortail/wasdwm/internal/metrics"
	"github.com/mx-scissortail/wasdwm/internal/state"
)

// benchFixture is one replayable session: the initial scan inventory plus
// a stream of display events and control commands.
type benchFixture struct {
	Name     string
	Monitors []display.MonitorInfo
	Windows  []display.WindowInfo
	Events   []benchEvent
}

// benchEvent is either a display event or a control command.
type benchEvent struct {
	Event   *display.Event
	Command *engine.Command
	Delay   time.Duration
}

type benchLatencyStats struct {
	Min    float64 `json:"minMs"`
	Mean   float64 `json:"meanMs"`
	Median float64 `json:"medianMs"`
	P95    float64 `json:"p95Ms"`
	Max    float64 `json:"maxMs"`
}

type benchAllocationStats struct {
	Total            uint64  `json:"totalAllocations"`
	PerEvent         float64 `json:"allocationsPerEvent"`
	BytesTotal       uint64  `json:"bytesTotal"`
	BytesPerEvent    float64 `json:"bytesPerEvent"`
	MiBTotal         float64 `json:"miBTotal"`
	HeapAllocStart   uint64  `json:"heapAllocStartBytes"`
	HeapAllocEnd     uint64  `json:"heapAllocEndBytes"`
	HeapAllocDelta   int64   `json:"heapAllocDeltaBytes"`
	HeapObjectsStart uint64  `json:"heapObjectsStart"`
	HeapObjectsEnd   uint64  `json:"heapObjectsEnd"`
	HeapObjectsDelta int64   `json:"heapObjectsDelta"`
}

type benchOpStats struct {
	Total        int     `json:"total"`
	Batches      int     `json:"batches"`
	PerIteration float64 `json:"perIteration"`
	PerEvent     float64 `json:"perEvent"`
}

type benchSummary struct {
	Fixture            string               `json:"fixture"`
	Clients            int                  `json:"clients"`
	Iterations         int                  `json:"iterations"`
	WarmupIterations   int                  `json:"warmupIterations"`
	EventsPerIteration int                  `json:"eventsPerIteration"`
	TotalEvents        int                  `json:"totalEvents"`
	Ops                benchOpStats         `json:"ops"`
	Latency            benchLatencyStats    `json:"latency"`
	IterationDuration  benchLatencyStats    `json:"iterationDuration"`
	Allocations        benchAllocationStats `json:"allocations"`
	TotalDurationMs    float64              `json:"totalDurationMs"`
	EventsPerSecond    float64              `json:"eventsPerSecond"`
}

type benchReport struct {
	Summary     benchSummary     `json:"summary"`
	DurationsMs []float64        `json:"durationsMs"`
	Iterations  []benchIteration `json:"iterations,omitempty"`
}

type benchIteration struct {
	Index      int     `json:"index"`
	DurationMs float64 `json:"durationMs"`
	Ops        int     `json:"ops"`
	Events     int     `json:"events"`
}

type benchEventTrace struct {
	Iteration  int     `json:"iteration"`
	EventIndex int     `json:"eventIndex"`
	Step       string  `json:"step"`
	DurationMs float64 `json:"durationMs"`
	Ops        int     `json:"ops"`
}

// benchConn feeds a scripted event stream into the engine and counts the
// operations flushed back.
type benchConn struct {
	events chan display.Event

	mu      sync.Mutex
	ops     int
	batches int
}

func newBenchConn() *benchConn {
	return &benchConn{events: make(chan display.Event)}
}

func (c *benchConn) Subscribe(ctx context.Context, logger zerolog.Logger) (<-chan display.Event, error) {
	return c.events, nil
}

func (c *benchConn) Apply(ctx context.Context, ops []display.Op) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ops += len(ops)
	c.batches++
	return nil
}

// feed delivers one event and blocks until the engine has processed it.
// The trailing no-op only enters the unbuffered channel once the previous
// handler returned.
func (c *benchConn) feed(ev display.Event) {
	c.events <- ev
	c.events <- display.MustEvent(display.KindTitleChanged, display.TitlePayload{Window: 0})
}

func (c *benchConn) counts() (int, int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ops, c.batches
}

func main() {
	cfgPath := flag.String("config", "", "path to YAML config (defaults to built-in settings)")
	fixturePath := flag.String("fixture", "", "path to a JSON replay fixture (defaults to a synthetic session)")
	clients := flag.Int("clients", 30, "synthetic population size when no fixture is given")
	iterations := flag.Int("iterations", 10, "number of times to replay the fixture")
	warmup := flag.Int("warmup", 1, "number of warm-up iterations to run before timing")
	cpuProfile := flag.String("cpu-profile", "", "write CPU profile to file")
	memProfile := flag.String("mem-profile", "", "write heap profile to file")
	logLevel := flag.String("log-level", "error", "log level (trace|debug|info|warn|error)")
	respectDelays := flag.Bool("respect-delays", false, "sleep for event delays declared in the fixture")
	outputPath := flag.String("output", "-", "write JSON report to file ('-' for stdout)")
	humanSummary := flag.Bool("human", false, "print a tabular summary alongside the JSON output")
	eventTracePath := flag.String("event-trace", "", "write per-event timings to file (JSON array, '-' for stdout)")
	flag.Parse()

	if *iterations <= 0 {
		fmt.Fprintln(os.Stderr, "iterations must be positive")
		os.Exit(1)
	}
	if *warmup < 0 {
		fmt.Fprintln(os.Stderr, "warmup must be zero or positive")
		os.Exit(1)
	}
	if *clients <= 0 {
		fmt.Fprintln(os.Stderr, "clients must be positive")
		os.Exit(1)
	}

	logger, err := logging.New(logging.Options{Level: *logLevel})
	if err != nil {
		exitErr(err)
	}

	cfg := config.Default()
	if *cfgPath != "" {
		loaded, err := config.Load(*cfgPath)
		if err != nil {
			exitErr(fmt.Errorf("load config: %w", err))
		}
		cfg = *loaded
	}
	settings, err := engine.SettingsFromConfig(&cfg)
	if err != nil {
		exitErr(fmt.Errorf("build settings: %w", err))
	}

	fixture := syntheticFixture(*clients)
	if *fixturePath != "" {
		fixture, err = loadFixture(*fixturePath)
		if err != nil {
			exitErr(fmt.Errorf("load fixture: %w", err))
		}
	}
	if len(fixture.Events) == 0 {
		exitErr(errors.New("fixture contains no events"))
	}

	traceEnabled := strings.TrimSpace(*eventTracePath) != ""

	if *cpuProfile != "" {
		f, err := os.Create(*cpuProfile)
		if err != nil {
			exitErr(fmt.Errorf("create cpu profile: %w", err))
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			exitErr(fmt.Errorf("start cpu profile: %w", err))
		}
		defer pprof.StopCPUProfile()
	}

	ctx := context.Background()

	for i := 0; i < *warmup; i++ {
		if _, _, _, _, err := replayIteration(ctx, fixture, settings, logger, *respectDelays, i+1, false, false); err != nil {
			exitErr(fmt.Errorf("warmup iteration %d: %w", i+1, err))
		}
	}

	runtime.GC()
	var startMem runtime.MemStats
	runtime.ReadMemStats(&startMem)

	eventsPerIteration := len(fixture.Events)
	durations := make([]time.Duration, 0, eventsPerIteration*(*iterations))
	iterationDurations := make([]time.Duration, 0, *iterations)
	iterationOps := make([]int, 0, *iterations)
	totalOps := 0
	totalBatches := 0
	var eventTraces []benchEventTrace
	if traceEnabled {
		eventTraces = make([]benchEventTrace, 0, eventsPerIteration*(*iterations))
	}

	for i := 0; i < *iterations; i++ {
		iterDuration, ops, batches, captured, err := replayIteration(ctx, fixture, settings, logger, *respectDelays, i+1, true, traceEnabled)
		if err != nil {
			exitErr(fmt.Errorf("iteration %d: %w", i+1, err))
		}
		iterationDurations = append(iterationDurations, iterDuration)
		iterationOps = append(iterationOps, ops)
		totalOps += ops
		totalBatches += batches
		durations = append(durations, captured.durations...)
		if traceEnabled {
			eventTraces = append(eventTraces, captured.traces...)
		}
	}

	runtime.GC()
	var endMem runtime.MemStats
	runtime.ReadMemStats(&endMem)

	if *memProfile != "" {
		f, err := os.Create(*memProfile)
		if err != nil {
			exitErr(fmt.Errorf("create mem profile: %w", err))
		}
		defer f.Close()
		runtime.GC()
		if err := pprof.WriteHeapProfile(f); err != nil {
			exitErr(fmt.Errorf("write heap profile: %w", err))
		}
	}

	report := buildReport(fixture, len(fixture.Windows), *iterations, *warmup,
		durations, iterationDurations, iterationOps, totalOps, totalBatches, startMem, endMem)
	if err := writeReport(report, *outputPath); err != nil {
		exitErr(fmt.Errorf("encode report: %w", err))
	}
	if err := writeEventTrace(eventTraces, *eventTracePath); err != nil {
		exitErr(fmt.Errorf("write event trace: %w", err))
	}
	if *humanSummary {
		if err := printHumanSummary(report.Summary, os.Stdout); err != nil {
			exitErr(fmt.Errorf("print human summary: %w", err))
		}
	}
}

// replayResult bundles the captured timings of one iteration.
type replayResult struct {
	durations []time.Duration
	traces    []benchEventTrace
}

// replayIteration builds a fresh engine, replays the fixture once and
// tears the engine down again. The scan is part of the iteration duration
// but not of the per-event latencies.
func replayIteration(ctx context.Context, fixture benchFixture, settings engine.Settings, logger zerolog.Logger, respectDelays bool, iteration int, capture bool, trace bool) (time.Duration, int, int, replayResult, error) {
	iterationStart := time.Now()

	conn := newBenchConn()
	eng := engine.New(conn, settings, logger, metrics.NewCollector(false))
	done := make(chan struct{})
	go func() {
		_ = eng.Run(ctx)
		close(done)
	}()

	conn.feed(display.MustEvent(display.KindScan, display.ScanPayload{
		Monitors: fixture.Monitors,
		Windows:  fixture.Windows,
	}))

	var result replayResult
	if capture {
		result.durations = make([]time.Duration, 0, len(fixture.Events))
		if trace {
			result.traces = make([]benchEventTrace, 0, len(fixture.Events))
		}
	}

	for idx, ev := range fixture.Events {
		if respectDelays && ev.Delay > 0 {
			time.Sleep(ev.Delay)
		}
		opsBefore, _ := conn.counts()
		start := time.Now()
		switch {
		case ev.Command != nil:
			if _, err := eng.Execute(ctx, *ev.Command); err != nil {
				eng.Quit()
				<-done
				return 0, 0, 0, result, fmt.Errorf("command %s: %w", ev.Command.Name, err)
			}
		case ev.Event != nil:
			conn.feed(*ev.Event)
		default:
			eng.Quit()
			<-done
			return 0, 0, 0, result, fmt.Errorf("fixture event %d names neither an event nor a command", idx+1)
		}
		elapsed := time.Since(start)
		if capture {
			result.durations = append(result.durations, elapsed)
			if trace {
				opsAfter, _ := conn.counts()
				result.traces = append(result.traces, benchEventTrace{
					Iteration:  iteration,
					EventIndex: idx + 1,
					Step:       describeEvent(ev),
					DurationMs: toMillis(elapsed),
					Ops:        opsAfter - opsBefore,
				})
			}
		}
	}

	eng.Quit()
	<-done
	iterationDuration := time.Since(iterationStart)
	ops, batches := conn.counts()
	return iterationDuration, ops, batches, result, nil
}

func describeEvent(ev benchEvent) string {
	switch {
	case ev.Command != nil:
		return "command " + ev.Command.Name
	case ev.Event != nil:
		return "event " + string(ev.Event.Kind)
	}
	return "empty"
}

// syntheticFixture builds an arrangement-heavy session: a population of
// tiled clients, then layout flips, view switches, focus cycling, mark
// moves and window churn on top of it.
func syntheticFixture(clients int) benchFixture {
	classes := []string{"term", "editor", "browser", "chat", "player"}
	windows := make([]display.WindowInfo, 0, clients)
	for i := 0; i < clients; i++ {
		windows = append(windows, display.WindowInfo{
			Window: state.WindowID(i + 1),
			X:      40 * (i % 10),
			Y:      30 * (i % 8),
			Width:  800,
			Height: 600,
			Title:  fmt.Sprintf("window %d", i+1),
			Class:  classes[i%len(classes)],
		})
	}

	command := func(cmd engine.Command) benchEvent {
		c := cmd
		return benchEvent{Command: &c}
	}
	event := func(kind display.Kind, payload any) benchEvent {
		ev := display.MustEvent(kind, payload)
		return benchEvent{Event: &ev}
	}

	var events []benchEvent
	for _, layoutName := range []string{"tile", "monocle", "deck"} {
		events = append(events, command(engine.Command{Name: "set-layout", Layout: layoutName}))
	}
	events = append(events,
		command(engine.Command{Name: "toggle-mark"}),
		command(engine.Command{Name: "adjust-marked-width", Width: 0.05}),
	)
	for i := 0; i < 4; i++ {
		events = append(events, command(engine.Command{Name: "cycle-focus", Dir: 1}))
	}
	events = append(events,
		command(engine.Command{Name: "toggle-mark"}),
		command(engine.Command{Name: "view", Tags: "1"}),
		command(engine.Command{Name: "view"}),
	)
	churnBase := state.WindowID(clients + 1)
	for i := 0; i < 3; i++ {
		win := churnBase + state.WindowID(i)
		events = append(events, event(display.KindWindowCreated, display.WindowInfo{
			Window: win,
			Width:  640,
			Height: 480,
			Title:  fmt.Sprintf("transient %d", i+1),
			Class:  "dialog",
		}))
	}
	events = append(events, event(display.KindTitleChanged, display.TitlePayload{
		Window: churnBase,
		Title:  "renamed",
	}))
	for i := 0; i < 3; i++ {
		win := churnBase + state.WindowID(i)
		events = append(events, event(display.KindWindowDestroyed, display.WindowPayload{Window: win}))
	}
	events = append(events,
		command(engine.Command{Name: "toggle-hidden"}),
		command(engine.Command{Name: "focus-client"}),
	)

	return benchFixture{
		Name:     fmt.Sprintf("synthetic-%d", clients),
		Monitors: []display.MonitorInfo{{Width: 2560, Height: 1440}},
		Windows:  windows,
		Events:   events,
	}
}

// fixtureFile is the on-disk fixture shape. Events carry either a raw
// display event or a control command, plus an optional delay.
type fixtureFile struct {
	Name     string                `json:"name"`
	Monitors []display.MonitorInfo `json:"monitors"`
	Windows  []display.WindowInfo  `json:"windows"`
	Events   []struct {
		Kind    display.Kind    `json:"kind,omitempty"`
		Data    json.RawMessage `json:"data,omitempty"`
		Command *engine.Command `json:"command,omitempty"`
		Delay   string          `json:"delay,omitempty"`
	} `json:"events"`
}

func loadFixture(path string) (benchFixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return benchFixture{}, err
	}
	var payload fixtureFile
	if err := json.Unmarshal(data, &payload); err != nil {
		return benchFixture{}, err
	}
	fixture := benchFixture{
		Name:     payload.Name,
		Monitors: payload.Monitors,
		Windows:  payload.Windows,
	}
	if fixture.Name == "" {
		fixture.Name = filepath.Base(path)
	}
	if len(fixture.Monitors) == 0 {
		fixture.Monitors = []display.MonitorInfo{{Width: 2560, Height: 1440}}
	}
	for i, ev := range payload.Events {
		delay := time.Duration(0)
		if ev.Delay != "" {
			d, err := time.ParseDuration(ev.Delay)
			if err != nil {
				return benchFixture{}, fmt.Errorf("event %d: parse delay %q: %w", i+1, ev.Delay, err)
			}
			delay = d
		}
		switch {
		case ev.Command != nil:
			fixture.Events = append(fixture.Events, benchEvent{Command: ev.Command, Delay: delay})
		case ev.Kind != "":
			fixture.Events = append(fixture.Events, benchEvent{
				Event: &display.Event{Kind: ev.Kind, Data: ev.Data},
				Delay: delay,
			})
		default:
			return benchFixture{}, fmt.Errorf("event %d names neither a kind nor a command", i+1)
		}
	}
	return fixture, nil
}

func buildReport(fixture benchFixture, clients, iterations, warmup int,
	durations, iterationDurations []time.Duration, iterationOps []int,
	ops, batches int, start, end runtime.MemStats) benchReport {

	totalEvents := len(fixture.Events) * iterations
	latencyStats, totalEventDuration := buildLatencyStats(durations)
	iterationStats, _ := buildLatencyStats(iterationDurations)

	allocs := end.Mallocs - start.Mallocs
	bytesAllocated := end.TotalAlloc - start.TotalAlloc

	durationsMs := make([]float64, len(durations))
	for i, d := range durations {
		durationsMs[i] = toMillis(d)
	}

	iterationsData := make([]benchIteration, 0, len(iterationDurations))
	for i, d := range iterationDurations {
		opCount := 0
		if i < len(iterationOps) {
			opCount = iterationOps[i]
		}
		iterationsData = append(iterationsData, benchIteration{
			Index:      i + 1,
			DurationMs: toMillis(d),
			Ops:        opCount,
			Events:     len(fixture.Events),
		})
	}

	summary := benchSummary{
		Fixture:            fixture.Name,
		Clients:            clients,
		Iterations:         iterations,
		WarmupIterations:   warmup,
		EventsPerIteration: len(fixture.Events),
		TotalEvents:        totalEvents,
		Ops: benchOpStats{
			Total:        ops,
			Batches:      batches,
			PerIteration: safeDivide(ops, iterations),
			PerEvent:     safeDivide(ops, totalEvents),
		},
		Latency:           latencyStats,
		IterationDuration: iterationStats,
		Allocations: benchAllocationStats{
			Total:            allocs,
			PerEvent:         safeDivideUint(allocs, totalEvents),
			BytesTotal:       bytesAllocated,
			BytesPerEvent:    safeDivideUint(bytesAllocated, totalEvents),
			MiBTotal:         float64(bytesAllocated) / (1024 * 1024),
			HeapAllocStart:   start.HeapAlloc,
			HeapAllocEnd:     end.HeapAlloc,
			HeapAllocDelta:   int64(end.HeapAlloc) - int64(start.HeapAlloc),
			HeapObjectsStart: start.HeapObjects,
			HeapObjectsEnd:   end.HeapObjects,
			HeapObjectsDelta: int64(end.HeapObjects) - int64(start.HeapObjects),
		},
		TotalDurationMs: toMillis(totalEventDuration),
		EventsPerSecond: eventsPerSecond(totalEventDuration, totalEvents),
	}

	return benchReport{Summary: summary, DurationsMs: durationsMs, Iterations: iterationsData}
}

func buildLatencyStats(durations []time.Duration) (benchLatencyStats, time.Duration) {
	stats := benchLatencyStats{}
	if len(durations) == 0 {
		return stats, 0
	}
	total := time.Duration(0)
	for _, d := range durations {
		total += d
	}
	mean := total / time.Duration(len(durations))
	sorted := append([]time.Duration(nil), durations...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	stats.Min = toMillis(sorted[0])
	stats.Mean = toMillis(mean)
	stats.Median = toMillis(percentile(sorted, 0.50))
	stats.P95 = toMillis(percentile(sorted, 0.95))
	stats.Max = toMillis(sorted[len(sorted)-1])
	return stats, total
}

func safeDivide(total int, count int) float64 {
	if count == 0 {
		return 0
	}
	return float64(total) / float64(count)
}

func safeDivideUint(total uint64, count int) float64 {
	if count == 0 {
		return 0
	}
	return float64(total) / float64(count)
}

func writeReport(report benchReport, outputPath string) error {
	var (
		w   io.Writer
		out *os.File
		err error
	)
	switch strings.TrimSpace(outputPath) {
	case "", "-":
		w = os.Stdout
	default:
		dir := filepath.Dir(outputPath)
		if dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("create report dir: %w", err)
			}
		}
		out, err = os.Create(outputPath)
		if err != nil {
			return err
		}
		defer out.Close()
		w = out
	}

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

func writeEventTrace(events []benchEventTrace, outputPath string) error {
	path := strings.TrimSpace(outputPath)
	if path == "" {
		return nil
	}
	var (
		w   io.Writer
		out *os.File
		err error
	)
	if path == "-" {
		w = os.Stdout
	} else {
		dir := filepath.Dir(path)
		if dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("create event trace dir: %w", err)
			}
		}
		out, err = os.Create(path)
		if err != nil {
			return err
		}
		defer out.Close()
		w = out
	}
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(events)
}

func printHumanSummary(summary benchSummary, w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	rows := []string{
		fmt.Sprintf("Fixture:\t%s", summary.Fixture),
		fmt.Sprintf("Clients:\t%d", summary.Clients),
		fmt.Sprintf("Iterations:\t%d (+%d warmup)", summary.Iterations, summary.WarmupIterations),
		fmt.Sprintf("Events/iteration:\t%d", summary.EventsPerIteration),
		fmt.Sprintf("Total events:\t%d", summary.TotalEvents),
		fmt.Sprintf("Ops:\t%d in %d batches (%.2f / iter, %.2f / event)",
			summary.Ops.Total, summary.Ops.Batches, summary.Ops.PerIteration, summary.Ops.PerEvent),
		fmt.Sprintf("Latency (ms):\tmin %.3f | mean %.3f | median %.3f | p95 %.3f | max %.3f",
			summary.Latency.Min, summary.Latency.Mean, summary.Latency.Median, summary.Latency.P95, summary.Latency.Max),
		fmt.Sprintf("Iteration (ms):\tmin %.3f | mean %.3f | median %.3f | p95 %.3f | max %.3f",
			summary.IterationDuration.Min, summary.IterationDuration.Mean, summary.IterationDuration.Median,
			summary.IterationDuration.P95, summary.IterationDuration.Max),
		fmt.Sprintf("Allocations:\t%d total (%.2f / event)", summary.Allocations.Total, summary.Allocations.PerEvent),
		fmt.Sprintf("Bytes allocated:\t%d (%.2f MiB)", summary.Allocations.BytesTotal, summary.Allocations.MiBTotal),
		fmt.Sprintf("Heap delta:\t%d bytes, %d objects", summary.Allocations.HeapAllocDelta, summary.Allocations.HeapObjectsDelta),
		fmt.Sprintf("Events/sec:\t%.2f", summary.EventsPerSecond),
	}
	for _, row := range rows {
		if _, err := fmt.Fprintln(tw, row); err != nil {
			return err
		}
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintln(w)
	return err
}

func eventsPerSecond(total time.Duration, events int) float64 {
	if total <= 0 || events == 0 {
		return 0
	}
	return float64(events) / total.Seconds()
}

func percentile(sorted []time.Duration, p float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[len(sorted)-1]
	}
	idx := int(p*float64(len(sorted)-1) + 0.5)
	if idx < 0 {
		idx = 0
	}
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

func toMillis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

func exitErr(err error) {
	var pathErr *fs.PathError
	if errors.As(err, &pathErr) {
		fmt.Fprintf(os.Stderr, "error: %v\n", pathErr)
	} else {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
	}
	os.Exit(1)
}
