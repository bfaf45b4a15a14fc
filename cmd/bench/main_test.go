package main

import (
	"bytes"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"
)

func TestPercentile(t *testing.T) {
	cases := []struct {
		name     string
		values   []time.Duration
		p        float64
		expected time.Duration
	}{
		{
			name:     "empty",
			values:   nil,
			p:        0.5,
			expected: 0,
		},
		{
			name:     "lower bound",
			values:   []time.Duration{time.Millisecond, 2 * time.Millisecond},
			p:        -0.1,
			expected: time.Millisecond,
		},
		{
			name:     "upper bound",
			values:   []time.Duration{time.Millisecond, 2 * time.Millisecond},
			p:        1.2,
			expected: 2 * time.Millisecond,
		},
		{
			name:     "median",
			values:   []time.Duration{time.Millisecond, 2 * time.Millisecond, 3 * time.Millisecond},
			p:        0.5,
			expected: 2 * time.Millisecond,
		},
		{
			name:     "p95",
			values:   []time.Duration{time.Millisecond, 2 * time.Millisecond, 3 * time.Millisecond, 4 * time.Millisecond, 5 * time.Millisecond},
			p:        0.95,
			expected: 5 * time.Millisecond,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := percentile(tc.values, tc.p); got != tc.expected {
				t.Fatalf("percentile(%s, %f) = %s, want %s", tc.name, tc.p, got, tc.expected)
			}
		})
	}
}

func TestEventsPerSecond(t *testing.T) {
	cases := []struct {
		name     string
		total    time.Duration
		events   int
		expected float64
	}{
		{name: "zero duration", total: 0, events: 10, expected: 0},
		{name: "zero events", total: time.Second, events: 0, expected: 0},
		{name: "positive", total: 10 * time.Millisecond, events: 4, expected: 400},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := eventsPerSecond(tc.total, tc.events)
			if math.Abs(got-tc.expected) > 1e-9 {
				t.Fatalf("eventsPerSecond(%s) = %f, want %f", tc.name, got, tc.expected)
			}
		})
	}
}

func TestSafeDivide(t *testing.T) {
	cases := []struct {
		total    int
		count    int
		expected float64
	}{
		{total: 10, count: 2, expected: 5},
		{total: 0, count: 10, expected: 0},
		{total: 10, count: 0, expected: 0},
	}

	for _, tc := range cases {
		got := safeDivide(tc.total, tc.count)
		if math.Abs(got-tc.expected) > 1e-9 {
			t.Fatalf("safeDivide(%d, %d) = %f, want %f", tc.total, tc.count, got, tc.expected)
		}
	}
}

func TestSyntheticFixture(t *testing.T) {
	fixture := syntheticFixture(12)
	if fixture.Name != "synthetic-12" {
		t.Fatalf("fixture name = %q", fixture.Name)
	}
	if len(fixture.Windows) != 12 {
		t.Fatalf("expected 12 windows, got %d", len(fixture.Windows))
	}
	if len(fixture.Monitors) != 1 {
		t.Fatalf("expected one monitor, got %d", len(fixture.Monitors))
	}
	if len(fixture.Events) == 0 {
		t.Fatal("fixture has no events")
	}
	first := fixture.Events[0]
	if first.Command == nil || first.Command.Name != "set-layout" {
		t.Fatalf("expected a set-layout command first, got %s", describeEvent(first))
	}
	for i, ev := range fixture.Events {
		if ev.Command == nil && ev.Event == nil {
			t.Fatalf("event %d names neither an event nor a command", i+1)
		}
	}
}

func TestPrintHumanSummary(t *testing.T) {
	summary := benchSummary{
		Fixture:            "test",
		Clients:            8,
		Iterations:         2,
		WarmupIterations:   1,
		EventsPerIteration: 3,
		TotalEvents:        6,
		Ops: benchOpStats{
			Total:        12,
			Batches:      4,
			PerIteration: 6,
			PerEvent:     2,
		},
		Latency: benchLatencyStats{
			Min:    1.0,
			Mean:   2.0,
			Median: 1.5,
			P95:    3.5,
			Max:    4.0,
		},
		IterationDuration: benchLatencyStats{
			Min:    10.0,
			Mean:   12.5,
			Median: 15.0,
			P95:    18.0,
			Max:    20.0,
		},
		Allocations: benchAllocationStats{
			Total:            120,
			PerEvent:         20,
			BytesTotal:       4096,
			MiBTotal:         0.00390625,
			HeapAllocDelta:   1024,
			HeapObjectsDelta: 12,
		},
		EventsPerSecond: 300,
	}

	var buf bytes.Buffer
	if err := printHumanSummary(summary, &buf); err != nil {
		t.Fatalf("printHumanSummary returned error: %v", err)
	}

	output := buf.String()
	checks := []string{
		"test",
		"2 (+1 warmup)",
		"12 in 4 batches (6.00 / iter, 2.00 / event)",
		"min 1.000 | mean 2.000 | median 1.500 | p95 3.500 | max 4.000",
		"min 10.000 | mean 12.500 | median 15.000 | p95 18.000 | max 20.000",
		"120 total (20.00 / event)",
		"1024 bytes, 12 objects",
		"300.00",
	}
	for _, c := range checks {
		if !strings.Contains(output, c) {
			t.Fatalf("expected summary to contain %q, got:\n%s", c, output)
		}
	}
}

func TestBuildReport(t *testing.T) {
	fixture := syntheticFixture(4)
	fixture.Events = fixture.Events[:2]
	durations := []time.Duration{
		time.Millisecond,
		2 * time.Millisecond,
		3 * time.Millisecond,
		4 * time.Millisecond,
	}
	start := runtime.MemStats{Mallocs: 1000, TotalAlloc: 4096, HeapAlloc: 2048, HeapObjects: 200}
	end := runtime.MemStats{Mallocs: 1500, TotalAlloc: 8192, HeapAlloc: 3072, HeapObjects: 260}
	iterationDurations := []time.Duration{10 * time.Millisecond, 12 * time.Millisecond}
	iterationOps := []int{5, 3}

	report := buildReport(fixture, 4, 2, 1, durations, iterationDurations, iterationOps, 8, 4, start, end)
	summary := report.Summary

	if summary.Clients != 4 {
		t.Fatalf("Clients = %d, want 4", summary.Clients)
	}
	if summary.TotalEvents != 4 {
		t.Fatalf("TotalEvents = %d, want 4", summary.TotalEvents)
	}
	if summary.Ops.Total != 8 || summary.Ops.Batches != 4 {
		t.Fatalf("Ops = %+v, want total 8 in 4 batches", summary.Ops)
	}
	if math.Abs(summary.Ops.PerEvent-2) > 1e-9 {
		t.Fatalf("Ops.PerEvent = %f, want 2", summary.Ops.PerEvent)
	}
	if math.Abs(summary.Allocations.PerEvent-125) > 1e-9 {
		t.Fatalf("Allocations.PerEvent = %f, want 125", summary.Allocations.PerEvent)
	}
	if math.Abs(summary.Allocations.BytesPerEvent-1024) > 1e-9 {
		t.Fatalf("Allocations.BytesPerEvent = %f, want 1024", summary.Allocations.BytesPerEvent)
	}
	if summary.Allocations.HeapAllocDelta != 1024 {
		t.Fatalf("Allocations.HeapAllocDelta = %d, want 1024", summary.Allocations.HeapAllocDelta)
	}
	if summary.Allocations.HeapObjectsDelta != 60 {
		t.Fatalf("Allocations.HeapObjectsDelta = %d, want 60", summary.Allocations.HeapObjectsDelta)
	}
	if math.Abs(summary.EventsPerSecond-400) > 1e-6 {
		t.Fatalf("EventsPerSecond = %f, want 400", summary.EventsPerSecond)
	}
	if math.Abs(summary.IterationDuration.Mean-11) > 1e-9 {
		t.Fatalf("IterationDuration.Mean = %f, want 11", summary.IterationDuration.Mean)
	}
	if summary.Latency.Min != 1 || summary.Latency.Max != 4 {
		t.Fatalf("Latency = %+v, want min 1 max 4", summary.Latency)
	}
	if len(report.Iterations) != 2 {
		t.Fatalf("expected 2 iteration entries, got %d", len(report.Iterations))
	}
	iter := report.Iterations[0]
	if iter.Index != 1 || iter.Ops != 5 || iter.Events != len(fixture.Events) {
		t.Fatalf("unexpected first iteration summary: %+v", iter)
	}
	if math.Abs(iter.DurationMs-10) > 1e-9 {
		t.Fatalf("expected first iteration duration 10ms, got %f", iter.DurationMs)
	}
}

func TestLoadFixture(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "fixture.json")
	payload := `{
  "name": "session",
  "monitors": [{"width": 1920, "height": 1080}],
  "windows": [{"window": 1, "width": 800, "height": 600, "class": "editor"}],
  "events": [
    {"kind": "window-created", "data": {"window": 2, "width": 640, "height": 480}, "delay": "15ms"},
    {"command": {"name": "view", "tags": "1"}}
  ]
}`
	if err := os.WriteFile(path, []byte(payload), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	fixture, err := loadFixture(path)
	if err != nil {
		t.Fatalf("loadFixture returned error: %v", err)
	}
	if fixture.Name != "session" {
		t.Fatalf("name = %q, want session", fixture.Name)
	}
	if len(fixture.Windows) != 1 || len(fixture.Events) != 2 {
		t.Fatalf("unexpected fixture shape: %d windows, %d events", len(fixture.Windows), len(fixture.Events))
	}
	first := fixture.Events[0]
	if first.Event == nil || first.Event.Kind != "window-created" {
		t.Fatalf("unexpected first event: %s", describeEvent(first))
	}
	if first.Delay != 15*time.Millisecond {
		t.Fatalf("first event delay = %s, want 15ms", first.Delay)
	}
	second := fixture.Events[1]
	if second.Command == nil || second.Command.Name != "view" || second.Command.Tags != "1" {
		t.Fatalf("unexpected second event: %s", describeEvent(second))
	}
}

func TestLoadFixtureNamesFromPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "churn.json")
	payload := `{
  "events": [{"command": {"name": "cycle-focus", "dir": 1}}]
}`
	if err := os.WriteFile(path, []byte(payload), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	fixture, err := loadFixture(path)
	if err != nil {
		t.Fatalf("loadFixture returned error: %v", err)
	}
	if fixture.Name != "churn.json" {
		t.Fatalf("name = %q, want churn.json", fixture.Name)
	}
	if len(fixture.Monitors) != 1 {
		t.Fatalf("expected a default monitor, got %d", len(fixture.Monitors))
	}
}

func TestLoadFixtureRejectsEmptyEvent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "broken.json")
	payload := `{"events": [{"delay": "5ms"}]}`
	if err := os.WriteFile(path, []byte(payload), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	if _, err := loadFixture(path); err == nil {
		t.Fatal("expected an error for an event without kind or command")
	}
}
