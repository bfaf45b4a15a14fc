package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"

	"github.com/mx-scissortail/wasdwm/internal/control/client"
	"github.com/mx-scissortail/wasdwm/internal/layout"
)

func disableColor(t *testing.T) {
	t.Helper()
	prev := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = prev })
}

func TestPrintStateRendersMonitors(t *testing.T) {
	disableColor(t)
	snapshot := client.StateSnapshot{
		Tags:   []string{"one", "two"},
		Status: "wasdwm-0.1",
		Monitors: []client.MonitorSnapshot{
			{
				Num:      0,
				Screen:   layout.Rect{Width: 1920, Height: 1080},
				View:     "one",
				Layout:   "deck",
				Symbol:   "D  ",
				Selected: true,
				Clients: []client.ClientSnapshot{
					{Window: 10, Class: "editor", Title: "notes", Tags: "one", Selected: true},
					{Window: 11, Class: "term", Title: "shell", Tags: "one", Minimized: true},
				},
			},
			{
				Num:    1,
				Screen: layout.Rect{X: 1920, Width: 1280, Height: 1024},
				View:   "two",
				Layout: "tile",
				Symbol: "[]=",
			},
		},
	}

	var buf bytes.Buffer
	printState(&buf, snapshot)
	out := buf.String()

	for _, want := range []string{
		"Status: wasdwm-0.1",
		"Tags: one two",
		"monitor 0*",
		"view one",
		"layout deck",
		"1920x1080",
		"editor",
		"selected",
		"hidden",
		"monitor 1",
		"(no clients)",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("state output missing %q:\n%s", want, out)
		}
	}
}

func TestPrintStateWithoutMonitors(t *testing.T) {
	disableColor(t)
	var buf bytes.Buffer
	printState(&buf, client.StateSnapshot{Status: "wasdwm-0.1"})
	if !strings.Contains(buf.String(), "No monitors yet") {
		t.Fatalf("expected placeholder for empty state, got:\n%s", buf.String())
	}
}

func TestPrintHistory(t *testing.T) {
	disableColor(t)
	var buf bytes.Buffer
	printHistory(&buf, nil)
	if !strings.Contains(buf.String(), "No commands executed yet.") {
		t.Fatalf("expected empty history placeholder, got:\n%s", buf.String())
	}

	entries := []client.HistoryEntry{
		{
			Time:    time.Date(2024, 3, 1, 12, 0, 5, 0, time.UTC),
			Command: client.Command{Name: "view", Tags: "two"},
			Outcome: "applied",
		},
		{
			Time:    time.Date(2024, 3, 1, 12, 0, 6, 0, time.UTC),
			Command: client.Command{Name: "cycle-focus", Dir: -1},
			Outcome: "ignored",
		},
	}
	buf.Reset()
	printHistory(&buf, entries)
	out := buf.String()
	for _, want := range []string{"12:00:05", "view two", "applied", "cycle-focus -1", "ignored"} {
		if !strings.Contains(out, want) {
			t.Fatalf("history output missing %q:\n%s", want, out)
		}
	}
}

func TestPrintMetrics(t *testing.T) {
	disableColor(t)
	snapshot := client.MetricsSnapshot{Enabled: true}
	snapshot.Totals.Executed = 4
	snapshot.Totals.Rejected = 1
	snapshot.Totals.Events = 9
	snapshot.Commands = []client.CommandMetrics{
		{Command: "view", Executed: 3, LastExecuted: time.Date(2024, 3, 1, 12, 0, 5, 0, time.UTC)},
		{Command: "tag", Rejected: 1},
	}
	snapshot.Events = []client.EventMetrics{{Kind: "map", Count: 6}}

	var buf bytes.Buffer
	printMetrics(&buf, snapshot)
	out := buf.String()
	for _, want := range []string{
		"Collection: enabled",
		"4 executed, 1 rejected, 9 events",
		"view",
		"12:00:05",
		"map",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("metrics output missing %q:\n%s", want, out)
		}
	}
}

func TestFormatCommand(t *testing.T) {
	cases := []struct {
		cmd  client.Command
		want string
	}{
		{client.Command{Name: "view", Tags: "two"}, "view two"},
		{client.Command{Name: "cycle-focus", Dir: 1}, "cycle-focus +1"},
		{client.Command{Name: "focus-client", Index: 3}, "focus-client #3"},
		{client.Command{Name: "set-layout", Layout: "tile"}, "set-layout tile"},
		{client.Command{Name: "set-clientbar", Mode: "never"}, "set-clientbar never"},
		{client.Command{Name: "set-marked-width", Width: 0.5}, "set-marked-width 0.50"},
		{client.Command{Name: "quit"}, "quit"},
	}
	for _, tc := range cases {
		if got := formatCommand(tc.cmd); got != tc.want {
			t.Fatalf("formatCommand(%+v) = %q, want %q", tc.cmd, got, tc.want)
		}
	}
}

func TestClientState(t *testing.T) {
	c := client.ClientSnapshot{Selected: true, Marked: true}
	if got := clientState(c); got != "selected, marked" {
		t.Fatalf("clientState = %q", got)
	}
	if got := clientState(client.ClientSnapshot{}); got != "-" {
		t.Fatalf("clientState for plain client = %q", got)
	}
}

func TestValidCommandName(t *testing.T) {
	if !validCommandName("view") {
		t.Fatal("view should be a known command")
	}
	if validCommandName("frobnicate") {
		t.Fatal("frobnicate should not be a known command")
	}
}
