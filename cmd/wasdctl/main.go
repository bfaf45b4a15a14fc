package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/mx-scissortail/wasdwm/internal/control/client"
	"github.com/mx-scissortail/wasdwm/internal/engine"
	"github.com/mx-scissortail/wasdwm/internal/ui/tui"
)

var (
	socketPath string
	timeout    time.Duration
	jsonOutput bool
	noColor    bool

	successColor = color.New(color.FgGreen, color.Bold)
	errorColor   = color.New(color.FgRed, color.Bold)
	keyColor     = color.New(color.FgYellow)
)

var rootCmd = &cobra.Command{
	Use:   "wasdctl",
	Short: "Control a running wasdwm daemon",
	Long: `wasdctl talks to the wasdwm daemon over its control socket.

It can send window manager commands, inspect the managed world, follow
the command history, and render a live dashboard.`,
	Version: "0.1.0",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if noColor {
			color.NoColor = true
		}
	},
}

var pingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Check that the daemon is reachable",
	RunE: func(cmd *cobra.Command, args []string) error {
		cli, err := newControlClient()
		if err != nil {
			return err
		}
		ctx, cancel := requestContext()
		defer cancel()

		start := time.Now()
		status, err := cli.Ping(ctx)
		if err != nil {
			printError(fmt.Sprintf("ping failed: %v", err))
			return err
		}
		successColor.Println("✓ daemon reachable")
		keyColor.Print("Status: ")
		fmt.Println(status)
		fmt.Printf("Response time: %v\n", time.Since(start).Round(time.Microsecond))
		return nil
	},
}

var stateCmd = &cobra.Command{
	Use:   "state",
	Short: "Show the managed monitors and clients",
	RunE: func(cmd *cobra.Command, args []string) error {
		cli, err := newControlClient()
		if err != nil {
			return err
		}
		ctx, cancel := requestContext()
		defer cancel()

		snapshot, err := cli.State(ctx)
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(snapshot)
		}
		printState(os.Stdout, snapshot)
		return nil
	},
}

var cmdCmd = &cobra.Command{
	Use:       "cmd <name>",
	Short:     "Send a window manager command",
	Long:      "Sends one command to the daemon. Run `wasdctl cmd` without arguments to list the available commands.",
	ValidArgs: engine.CommandNames(),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			fmt.Println("Available commands:")
			for _, name := range engine.CommandNames() {
				fmt.Printf("  %s\n", name)
			}
			return nil
		}
		name := args[0]
		if !validCommandName(name) {
			return fmt.Errorf("unknown command %q; run `wasdctl cmd` to list commands", name)
		}

		cli, err := newControlClient()
		if err != nil {
			return err
		}
		ctx, cancel := requestContext()
		defer cancel()

		wmCmd := client.Command{Name: name}
		wmCmd.Tags, _ = cmd.Flags().GetString("tags")
		wmCmd.Dir, _ = cmd.Flags().GetInt("dir")
		wmCmd.Index, _ = cmd.Flags().GetInt("index")
		wmCmd.Layout, _ = cmd.Flags().GetString("layout")
		wmCmd.Mode, _ = cmd.Flags().GetString("mode")
		wmCmd.Width, _ = cmd.Flags().GetFloat64("width")

		applied, err := cli.Execute(ctx, wmCmd)
		if err != nil {
			printError(fmt.Sprintf("command failed: %v", err))
			return err
		}
		if applied {
			successColor.Println("applied")
		} else {
			fmt.Println("ignored")
		}
		return nil
	},
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show the daemon's recent commands",
	RunE: func(cmd *cobra.Command, args []string) error {
		cli, err := newControlClient()
		if err != nil {
			return err
		}
		ctx, cancel := requestContext()
		defer cancel()

		entries, err := cli.History(ctx)
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(entries)
		}
		printHistory(os.Stdout, entries)
		return nil
	},
}

var metricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "Show the daemon's counters",
	RunE: func(cmd *cobra.Command, args []string) error {
		cli, err := newControlClient()
		if err != nil {
			return err
		}
		ctx, cancel := requestContext()
		defer cancel()

		snapshot, err := cli.Metrics(ctx)
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(snapshot)
		}
		printMetrics(os.Stdout, snapshot)
		return nil
	},
}

var reloadCmd = &cobra.Command{
	Use:   "reload",
	Short: "Reload the daemon's configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cli, err := newControlClient()
		if err != nil {
			return err
		}
		ctx, cancel := requestContext()
		defer cancel()

		if err := cli.Reload(ctx); err != nil {
			printError(fmt.Sprintf("reload failed: %v", err))
			return err
		}
		successColor.Println("configuration reloaded")
		return nil
	},
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Render a live dashboard of the managed world",
	RunE: func(cmd *cobra.Command, args []string) error {
		cli, err := newControlClient()
		if err != nil {
			return err
		}
		refresh, _ := cmd.Flags().GetDuration("refresh")

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		renderer := tui.New(cli, os.Stdout)
		if refresh > 0 {
			renderer.Refresh = refresh
		}
		if err := renderer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	},
}

func newControlClient() (*client.Client, error) {
	cli, err := client.New(socketPath)
	if err != nil {
		return nil, fmt.Errorf("create client: %w", err)
	}
	return cli, nil
}

func requestContext() (context.Context, context.CancelFunc) {
	if timeout > 0 {
		return context.WithTimeout(context.Background(), timeout)
	}
	return context.WithCancel(context.Background())
}

func validCommandName(name string) bool {
	for _, known := range engine.CommandNames() {
		if known == name {
			return true
		}
	}
	return false
}

func printState(w io.Writer, snapshot client.StateSnapshot) {
	keyColor.Fprint(w, "Status: ")
	fmt.Fprintln(w, snapshot.Status)
	keyColor.Fprint(w, "Tags: ")
	fmt.Fprintln(w, strings.Join(snapshot.Tags, " "))
	fmt.Fprintln(w)

	if len(snapshot.Monitors) == 0 {
		fmt.Fprintln(w, "No monitors yet; is the daemon connected to a display?")
		return
	}
	for _, mon := range snapshot.Monitors {
		head := fmt.Sprintf("monitor %d", mon.Num)
		if mon.Selected {
			head += "*"
		}
		keyColor.Fprintln(w, head)
		fmt.Fprintf(w, "  %s  view %s  layout %s  %dx%d\n",
			mon.Symbol, mon.View, mon.Layout, mon.Screen.Width, mon.Screen.Height)
		if len(mon.Clients) == 0 {
			fmt.Fprintln(w, "  (no clients)")
			continue
		}
		table := tablewriter.NewWriter(w)
		table.Header("Window", "Class", "Title", "Tags", "State")
		for _, c := range mon.Clients {
			table.Append(
				fmt.Sprintf("%d", c.Window),
				c.Class,
				c.Title,
				c.Tags,
				clientState(c),
			)
		}
		table.Render()
	}
}

func clientState(c client.ClientSnapshot) string {
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
		return "-"
	}
	return strings.Join(parts, ", ")
}

func printHistory(w io.Writer, entries []client.HistoryEntry) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "No commands executed yet.")
		return
	}
	table := tablewriter.NewWriter(w)
	table.Header("Time", "Command", "Outcome")
	for _, entry := range entries {
		table.Append(
			entry.Time.Format("15:04:05"),
			formatCommand(entry.Command),
			entry.Outcome,
		)
	}
	table.Render()
}

func printMetrics(w io.Writer, snapshot client.MetricsSnapshot) {
	keyColor.Fprint(w, "Collection: ")
	if snapshot.Enabled {
		fmt.Fprintln(w, "enabled")
	} else {
		fmt.Fprintln(w, "disabled")
	}
	fmt.Fprintf(w, "Totals: %d executed, %d rejected, %d events, %d arranges, %d apply errors\n\n",
		snapshot.Totals.Executed, snapshot.Totals.Rejected,
		snapshot.Totals.Events, snapshot.Totals.Arranges, snapshot.Totals.ApplyErrors)

	if len(snapshot.Commands) > 0 {
		table := tablewriter.NewWriter(w)
		table.Header("Command", "Executed", "Rejected", "Last Executed")
		for _, cm := range snapshot.Commands {
			last := "-"
			if !cm.LastExecuted.IsZero() {
				last = cm.LastExecuted.Format("15:04:05")
			}
			table.Append(cm.Command, fmt.Sprintf("%d", cm.Executed), fmt.Sprintf("%d", cm.Rejected), last)
		}
		table.Render()
	}
	if len(snapshot.Events) > 0 {
		table := tablewriter.NewWriter(w)
		table.Header("Event", "Count")
		for _, ev := range snapshot.Events {
			table.Append(ev.Kind, fmt.Sprintf("%d", ev.Count))
		}
		table.Render()
	}
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

func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

func printError(msg string) {
	errorColor.Fprintln(os.Stderr, msg)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&socketPath, "socket", "", "control socket path (defaults to the runtime dir)")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 3*time.Second, "request timeout")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output in JSON format")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")

	cmdCmd.Flags().String("tags", "", "tag spec (names, comma separated, or \"all\")")
	cmdCmd.Flags().Int("dir", 0, "direction for cycle commands (+1 or -1)")
	cmdCmd.Flags().Int("index", 0, "visible client index for focus commands")
	cmdCmd.Flags().String("layout", "", "layout name (deck|monocle|tile|float)")
	cmdCmd.Flags().String("mode", "", "client bar mode (never|auto|always)")
	cmdCmd.Flags().Float64("width", 0, "marked area width fraction or delta")

	watchCmd.Flags().Duration("refresh", 0, "dashboard refresh interval")

	rootCmd.AddCommand(pingCmd)
	rootCmd.AddCommand(stateCmd)
	rootCmd.AddCommand(cmdCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(metricsCmd)
	rootCmd.AddCommand(reloadCmd)
	rootCmd.AddCommand(watchCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
