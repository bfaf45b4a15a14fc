// Package tui renders a live dashboard of the daemon's world over the
// control socket.
package tui

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"

	"github.com/mx-scissortail/wasdwm/internal/control/client"
)

const (
	defaultRefresh = 500 * time.Millisecond
	titleWidth     = 48
	historyTail    = 8
)

var (
	headerColor  = color.New(color.FgCyan, color.Bold)
	monitorColor = color.New(color.FgYellow, color.Bold)
	errorColor   = color.New(color.FgRed, color.Bold)
)

// Renderer periodically polls the daemon and renders a textual dashboard.
type Renderer struct {
	Client  *client.Client
	Writer  io.Writer
	Refresh time.Duration
}

// New returns a renderer configured with sensible defaults.
func New(cli *client.Client, w io.Writer) *Renderer {
	return &Renderer{Client: cli, Writer: w, Refresh: defaultRefresh}
}

// Run starts the render loop until the context is cancelled.
func (r *Renderer) Run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if r.Writer == nil {
		r.Writer = os.Stdout
	}
	if r.Client == nil {
		return fmt.Errorf("tui renderer requires a control client")
	}

	refresh := r.Refresh
	if refresh <= 0 {
		refresh = defaultRefresh
	}

	ticker := time.NewTicker(refresh)
	defer ticker.Stop()

	fmt.Fprint(r.Writer, "\033[?25l")
	defer fmt.Fprint(r.Writer, "\033[?25h")

	r.render(ctx)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			r.render(ctx)
		}
	}
}

func (r *Renderer) render(ctx context.Context) {
	var buf bytes.Buffer
	buf.WriteString("\033[H\033[2J")
	buf.WriteString(headerColor.Sprint("wasdwm inspector (Ctrl+C to exit)"))
	buf.WriteByte('\n')
	buf.WriteString(time.Now().Format(time.RFC1123))
	buf.WriteString("\n\n")

	snapshot, err := r.Client.State(ctx)
	if err != nil {
		buf.WriteString(errorColor.Sprintf("error: %v", err))
		buf.WriteByte('\n')
		fmt.Fprint(r.Writer, buf.String())
		return
	}
	renderSnapshot(&buf, snapshot)

	if history, err := r.Client.History(ctx); err == nil {
		renderHistory(&buf, history)
	}
	fmt.Fprint(r.Writer, buf.String())
}

func renderSnapshot(buf *bytes.Buffer, snapshot client.StateSnapshot) {
	fmt.Fprintf(buf, "Status: %s\n", snapshot.Status)
	fmt.Fprintf(buf, "Tags: %s\n\n", strings.Join(snapshot.Tags, " "))

	if len(snapshot.Monitors) == 0 {
		buf.WriteString("Waiting for the daemon to scan monitors...\n")
		return
	}
	for _, mon := range snapshot.Monitors {
		renderMonitor(buf, mon)
	}
}

func renderMonitor(buf *bytes.Buffer, mon client.MonitorSnapshot) {
	head := fmt.Sprintf("monitor %d", mon.Num)
	if mon.Selected {
		head += "*"
	}
	buf.WriteString(monitorColor.Sprint(head))
	fmt.Fprintf(buf, "  %s  view %s  %s  %s\n",
		mon.Symbol, mon.View, mon.Layout, formatRect(mon.Screen.X, mon.Screen.Y, mon.Screen.Width, mon.Screen.Height))

	if len(mon.Clients) == 0 {
		buf.WriteString("  (no clients)\n\n")
		return
	}
	table := tablewriter.NewWriter(buf)
	table.Header("Window", "Class", "Title", "Tags", "Geometry", "State")
	for _, c := range mon.Clients {
		table.Append(
			fmt.Sprintf("%d", c.Window),
			c.Class,
			truncate(c.Title, titleWidth),
			c.Tags,
			formatRect(c.Geom.X, c.Geom.Y, c.Geom.Width, c.Geom.Height),
			clientFlags(c),
		)
	}
	table.Render()
	buf.WriteByte('\n')
}

func renderHistory(buf *bytes.Buffer, entries []client.HistoryEntry) {
	if len(entries) == 0 {
		return
	}
	if len(entries) > historyTail {
		entries = entries[len(entries)-historyTail:]
	}
	buf.WriteString("Recent commands:\n")
	for _, entry := range entries {
		fmt.Fprintf(buf, "  %s  %-24s %s\n",
			entry.Time.Format("15:04:05"), formatCommand(entry.Command), entry.Outcome)
	}
	buf.WriteByte('\n')
}

func formatCommand(cmd client.Command) string {
	parts := []string{cmd.Name}
	if cmd.Tags != "" {
		parts = append(parts, cmd.Tags)
	}
	if cmd.Dir != 0 {
		parts = append(parts, fmt.Sprintf("%+d", cmd.Dir))
	}
	if cmd.Index != 0 {
		parts = append(parts, fmt.Sprintf("#%d", cmd.Index))
	}
	if cmd.Layout != "" {
		parts = append(parts, cmd.Layout)
	}
	if cmd.Mode != "" {
		parts = append(parts, cmd.Mode)
	}
	if cmd.Width != 0 {
		parts = append(parts, fmt.Sprintf("%.2f", cmd.Width))
	}
	return strings.Join(parts, " ")
}

func formatRect(x, y, w, h int) string {
	return fmt.Sprintf("%dx%d @ %d,%d", w, h, x, y)
}

func truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	if max <= 1 {
		return string(runes[:max])
	}
	return string(runes[:max-1]) + "…"
}

func clientFlags(c client.ClientSnapshot) string {
	var parts []string
	if c.Selected {
		parts = append(parts, "selected")
	}
	if c.Floating {
		parts = append(parts, "floating")
	}
	if c.Fullscreen {
		parts = append(parts, "fullscreen")
	}
	if c.Minimized {
		parts = append(parts, "hidden")
	}
	if c.Marked {
		parts = append(parts, "marked")
	}
	if c.Urgent {
		parts = append(parts, "urgent")
	}
	if len(parts) == 0 {
		if c.OnScreen {
			return "-"
		}
		return "stacked"
	}
	return strings.Join(parts, ", ")
}
