// Package engine owns the managed world: it folds display events and
// control commands into the client and monitor model, runs the layout
// over every change, and emits operation batches for the display adapter.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/mx-scissortail/wasdwm/internal/config"
	"github.com/mx-scissortail/wasdwm/internal/display"
	"github.com/mx-scissortail/wasdwm/internal/hints"
	"github.com/mx-scissortail/wasdwm/internal/metrics"
	"github.com/mx-scissortail/wasdwm/internal/rules"
	"github.com/mx-scissortail/wasdwm/internal/state"
)

// statusFallback stands in when no status text has been published.
const statusFallback = "wasdwm-" + version

const version = "0.1"

// Conn is the engine's side of the display adapter: an event stream in,
// operation batches out.
type Conn interface {
	Subscribe(ctx context.Context, logger zerolog.Logger) (<-chan display.Event, error)
	Apply(ctx context.Context, ops []display.Op) error
}

// Settings is the engine's view of the configuration, with every name
// resolved: tag names, layout tables, compiled rules and parsed bar
// modes.
type Settings struct {
	TagNames []string
	Defaults state.Defaults

	BorderWidth      int
	FloatBorderWidth int
	BarHeight        int
	Snap             int

	ResizeHints       bool
	ViewTagToggles    bool
	FollowNewWindows  bool
	HideInactiveTags  bool
	HideBuriedWindows bool

	ClientBarCycle []state.BarMode
	Rules          []rules.Rule
}

// SettingsFromConfig resolves a validated configuration into engine
// settings.
func SettingsFromConfig(cfg *config.Config) (Settings, error) {
	table, err := cfg.LayoutTable()
	if err != nil {
		return Settings{}, err
	}
	mode, err := state.ParseBarMode(cfg.Bars.ClientBar)
	if err != nil {
		return Settings{}, err
	}
	cycle := make([]state.BarMode, 0, len(cfg.Bars.ClientBarCycle))
	for _, name := range cfg.Bars.ClientBarCycle {
		m, err := state.ParseBarMode(name)
		if err != nil {
			return Settings{}, err
		}
		cycle = append(cycle, m)
	}
	compiled, err := rules.Compile(cfg.Rules, cfg.Tags)
	if err != nil {
		return Settings{}, err
	}
	return Settings{
		TagNames: append([]string(nil), cfg.Tags...),
		Defaults: state.Defaults{
			NumTags:       len(cfg.Tags),
			MarkedWidth:   cfg.Layout.MarkedWidth,
			Layouts:       table,
			ShowTagBar:    cfg.Bars.ShowTagBar,
			TagsOnTop:     cfg.Bars.TagsOnTop,
			ClientBarMode: mode,
		},
		BorderWidth:       cfg.Borders.Width,
		FloatBorderWidth:  cfg.Borders.FloatWidth,
		BarHeight:         cfg.Bars.Height,
		Snap:              cfg.Snap,
		ResizeHints:       cfg.Behavior.ResizeHints,
		ViewTagToggles:    cfg.Behavior.ViewTagToggles,
		FollowNewWindows:  cfg.Behavior.FollowNewWindows,
		HideInactiveTags:  cfg.Behavior.HideInactiveTags,
		HideBuriedWindows: cfg.Behavior.HideBuriedWindows,
		ClientBarCycle:    cycle,
		Rules:             compiled,
	}, nil
}

// Engine drives the world model. All mutation happens under one mutex;
// operations accumulate in a plan and flush as a single batch once the
// triggering event or command has run its course.
type Engine struct {
	conn      Conn
	logger    zerolog.Logger
	collector *metrics.Collector
	history   *commandLog

	mu        sync.Mutex
	cfg       Settings
	world     *state.State
	plan      display.Plan
	status    string
	motionMon int
	drag      dragState

	quitCh   chan struct{}
	quitOnce sync.Once
}

// New builds an engine over the given connection and settings.
func New(conn Conn, cfg Settings, logger zerolog.Logger, collector *metrics.Collector) *Engine {
	return &Engine{
		conn:      conn,
		logger:    logger.With().Str("component", "engine").Logger(),
		collector: collector,
		history:   newCommandLog(historyLimit),
		cfg:       cfg,
		world:     state.New(cfg.TagNames),
		status:    statusFallback,
		motionMon: -1,
		quitCh:    make(chan struct{}),
	}
}

// Run subscribes to the display event stream and processes events until
// the context ends, the stream closes, or Quit is called.
func (e *Engine) Run(ctx context.Context) error {
	events, err := e.conn.Subscribe(ctx, e.logger)
	if err != nil {
		return fmt.Errorf("subscribe to display events: %w", err)
	}
	e.logger.Info().Int("tags", len(e.cfg.TagNames)).Msg("engine running")
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-e.quitCh:
			e.logger.Info().Msg("engine quitting")
			return nil
		case ev, ok := <-events:
			if !ok {
				return errors.New("display event stream closed")
			}
			e.handleEvent(ctx, ev)
		}
	}
}

// Quit asks Run to return. Safe to call more than once.
func (e *Engine) Quit() {
	e.quitOnce.Do(func() { close(e.quitCh) })
}

func (e *Engine) handleEvent(ctx context.Context, ev display.Event) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.collector.RecordEvent(string(ev.Kind))
	if err := e.dispatchEventLocked(ev); err != nil {
		e.logger.Warn().Err(err).Str("kind", string(ev.Kind)).Msg("event dropped")
		e.plan.Reset()
		return
	}
	e.flushLocked(ctx)
}

func (e *Engine) dispatchEventLocked(ev display.Event) error {
	switch ev.Kind {
	case display.KindScan:
		var p display.ScanPayload
		if err := ev.DecodeInto(&p); err != nil {
			return err
		}
		e.scanLocked(p)
		return nil
	case display.KindMonitorsChanged:
		var p display.MonitorsPayload
		if err := ev.DecodeInto(&p); err != nil {
			return err
		}
		e.monitorsChangedLocked(p.Monitors)
		return nil
	}

	// Everything else needs a world to land in.
	if len(e.world.Monitors) == 0 {
		e.logger.Debug().Str("kind", string(ev.Kind)).Msg("event before scan, ignoring")
		return nil
	}

	switch ev.Kind {
	case display.KindWindowCreated:
		var p display.WindowInfo
		if err := ev.DecodeInto(&p); err != nil {
			return err
		}
		e.manageLocked(p)
	case display.KindWindowDestroyed:
		var p display.WindowPayload
		if err := ev.DecodeInto(&p); err != nil {
			return err
		}
		if c, _ := e.world.ClientByWindow(p.Window); c != nil {
			e.unmanageLocked(c, true)
		}
	case display.KindWindowUnmapped:
		var p display.UnmapPayload
		if err := ev.DecodeInto(&p); err != nil {
			return err
		}
		e.unmappedLocked(p)
	case display.KindTitleChanged:
		var p display.TitlePayload
		if err := ev.DecodeInto(&p); err != nil {
			return err
		}
		e.titleChangedLocked(p)
	case display.KindHintsChanged:
		var p display.HintsPayload
		if err := ev.DecodeInto(&p); err != nil {
			return err
		}
		if c, _ := e.world.ClientByWindow(p.Window); c != nil {
			c.Hints = hints.FromRaw(p.Hints)
		}
	case display.KindWMHintsChanged:
		var p display.WMHintsPayload
		if err := ev.DecodeInto(&p); err != nil {
			return err
		}
		e.wmHintsChangedLocked(p)
	case display.KindTransientChanged:
		var p display.TransientPayload
		if err := ev.DecodeInto(&p); err != nil {
			return err
		}
		e.transientChangedLocked(p)
	case display.KindTypeChanged:
		var p display.TypePayload
		if err := ev.DecodeInto(&p); err != nil {
			return err
		}
		e.typeChangedLocked(p)
	case display.KindConfigureRequest:
		var p display.ConfigureRequestPayload
		if err := ev.DecodeInto(&p); err != nil {
			return err
		}
		e.configureRequestLocked(p)
	case display.KindFullscreenRequest:
		var p display.FullscreenPayload
		if err := ev.DecodeInto(&p); err != nil {
			return err
		}
		e.fullscreenRequestLocked(p)
	case display.KindActivate:
		var p display.WindowPayload
		if err := ev.DecodeInto(&p); err != nil {
			return err
		}
		e.activateLocked(p.Window)
	case display.KindEnter:
		var p display.EnterPayload
		if err := ev.DecodeInto(&p); err != nil {
			return err
		}
		e.enterLocked(p)
	case display.KindFocusIn:
		var p display.WindowPayload
		if err := ev.DecodeInto(&p); err != nil {
			return err
		}
		e.focusInLocked(p.Window)
	case display.KindRootMotion:
		var p display.MotionPayload
		if err := ev.DecodeInto(&p); err != nil {
			return err
		}
		e.rootMotionLocked(p)
	case display.KindStatusText:
		var p display.StatusPayload
		if err := ev.DecodeInto(&p); err != nil {
			return err
		}
		e.statusTextLocked(p.Text)
	case display.KindBeginMove:
		var p display.DragPayload
		if err := ev.DecodeInto(&p); err != nil {
			return err
		}
		e.beginDragLocked(dragMove, p)
	case display.KindBeginResize:
		var p display.DragPayload
		if err := ev.DecodeInto(&p); err != nil {
			return err
		}
		e.beginDragLocked(dragResize, p)
	case display.KindDragMotion:
		var p display.MotionPayload
		if err := ev.DecodeInto(&p); err != nil {
			return err
		}
		e.dragMotionLocked(p)
	case display.KindDragEnd:
		e.dragEndLocked()
	default:
		e.logger.Debug().Str("kind", string(ev.Kind)).Msg("unknown event kind")
	}
	return nil
}

func (e *Engine) flushLocked(ctx context.Context) {
	if e.plan.Empty() {
		return
	}
	e.plan.Coalesce()
	ops := e.plan.Ops
	e.plan = display.Plan{}
	if err := e.conn.Apply(ctx, ops); err != nil {
		e.collector.RecordApplyError()
		e.logger.Error().Err(err).Int("ops", len(ops)).Msg("apply failed")
	}
}

// Execute runs one control command. The returned flag reports whether the
// command changed anything; guarded commands that do not apply in the
// current world state are counted but otherwise silent. An error means
// the command itself was malformed.
func (e *Engine) Execute(ctx context.Context, cmd Command) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	applied, err := e.dispatchCommandLocked(cmd)
	switch {
	case err != nil:
		e.plan.Reset()
		e.collector.RecordRejected(cmd.Name)
		e.history.record(cmd, "error: "+err.Error())
		return false, err
	case applied:
		e.collector.RecordCommand(cmd.Name)
		e.history.record(cmd, "applied")
		e.flushLocked(ctx)
	default:
		e.plan.Reset()
		e.collector.RecordRejected(cmd.Name)
		e.history.record(cmd, "ignored")
	}
	return applied, nil
}

// Reload swaps in new settings. The tag count is structural: every
// client's tag mask and every monitor's per-tag table are sized by it, so
// a reload that changes it is refused.
func (e *Engine) Reload(ctx context.Context, cfg Settings) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(cfg.TagNames) != e.world.NumTags() {
		return fmt.Errorf("reload changes tag count from %d to %d; restart instead",
			e.world.NumTags(), len(cfg.TagNames))
	}
	e.cfg = cfg
	e.world.TagNames = append([]string(nil), cfg.TagNames...)
	for _, m := range e.world.Monitors {
		for _, c := range m.Clients {
			if c.Fullscreen {
				continue
			}
			if c.Floating {
				c.BorderWidth = cfg.FloatBorderWidth
			} else {
				c.BorderWidth = cfg.BorderWidth
			}
		}
	}
	e.arrangeLocked(nil)
	e.flushLocked(ctx)
	e.logger.Info().Msg("settings reloaded")
	return nil
}

// Status returns the current status text.
func (e *Engine) Status() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.status
}

func (e *Engine) monitorOf(c *state.Client) *state.Monitor {
	return e.world.MonitorByNum(c.MonitorID)
}

func (e *Engine) clientVisibleLocked(c *state.Client) bool {
	m := e.monitorOf(c)
	return m != nil && m.Visible(c)
}

func (e *Engine) statusTextLocked(text string) {
	if text == "" {
		text = statusFallback
	}
	e.status = text
	e.drawBarsLocked()
}
