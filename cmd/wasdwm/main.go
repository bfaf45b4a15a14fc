package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/gofrs/flock"
	"github.com/rs/zerolog"

	"github.com/mx-scissortail/wasdwm/internal/config"
	"github.com/mx-scissortail/wasdwm/internal/control"
	"github.com/mx-scissortail/wasdwm/internal/display"
	"github.com/mx-scissortail/wasdwm/internal/engine"
	"github.com/mx-scissortail/wasdwm/internal/logging"
	"github.com/mx-scissortail/wasdwm/internal/metrics"
)

func main() {
	home, _ := os.UserHomeDir()
	defaultConfig := filepath.Join(home, ".config", "wasdwm", "config.yaml")

	cfgPath := flag.String("config", defaultConfig, "path to YAML config")
	logLevel := flag.String("log-level", "", "log level override (trace|debug|info|warn|error)")
	check := flag.Bool("check", false, "validate the config and exit")
	flag.Parse()

	cfg, raw, err := loadConfig(*cfgPath)
	if err != nil {
		exitErr(err)
	}
	if *check {
		fmt.Printf("%s: ok (%d tags, %d rules)\n", *cfgPath, len(cfg.Tags), len(cfg.Rules))
		return
	}

	level := cfg.Logging.Level
	if *logLevel != "" {
		level = *logLevel
	}
	logger, err := logging.New(logging.Options{
		Level:      level,
		File:       cfg.Logging.File,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
	})
	if err != nil {
		exitErr(err)
	}

	settings, err := engine.SettingsFromConfig(cfg)
	if err != nil {
		exitErr(fmt.Errorf("resolve config: %w", err))
	}

	lock, err := acquireLock()
	if err != nil {
		exitErr(err)
	}
	defer lock.Unlock()

	bridge, err := display.Dial()
	if err != nil {
		exitErr(fmt.Errorf("connect display bridge: %w", err))
	}
	defer bridge.Close()

	collector := metrics.NewCollector(true)
	eng := engine.New(bridge, settings, logger, collector)

	cfgFullPath, err := filepath.Abs(*cfgPath)
	if err != nil {
		exitErr(fmt.Errorf("resolve config path: %w", err))
	}
	cfgFullPath = filepath.Clean(cfgFullPath)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reloader := newConfigReloader(cfgFullPath, logger, eng, raw)
	reloadRequests := make(chan string, 1)
	if watcher, err := fsnotify.NewWatcher(); err != nil {
		logger.Warn().Err(err).Msg("config watching disabled")
	} else {
		defer watcher.Close()
		if err := watcher.Add(filepath.Dir(cfgFullPath)); err != nil {
			logger.Warn().Err(err).Msg("unable to watch config dir")
		}
		if err := watcher.Add(cfgFullPath); err != nil {
			logger.Debug().Err(err).Msg("unable to watch config file directly")
		}
		go watchConfig(logger, watcher, cfgFullPath, reloadRequests)
	}

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)

	reload := func(reason string) error {
		return reloader.Reload(ctx, reason)
	}

	ctrlSrv, err := control.NewServer(eng, collector, logger, reload)
	if err != nil {
		exitErr(fmt.Errorf("start control server: %w", err))
	}

	errs := make(chan error, 2)
	go func() {
		errs <- eng.Run(ctx)
	}()
	go func() {
		errs <- ctrlSrv.Serve(ctx)
	}()

	for {
		select {
		case err := <-errs:
			if err != nil && !errors.Is(err, context.Canceled) {
				logger.Error().Err(err).Msg("engine exited")
				os.Exit(1)
			}
			logger.Info().Msg("engine stopped")
			return
		case reason := <-reloadRequests:
			if err := reload(reason); err != nil {
				logger.Error().Err(err).Msg("reload failed")
			}
		case sig := <-sigs:
			switch sig {
			case syscall.SIGHUP:
				if err := reload("received SIGHUP"); err != nil {
					logger.Error().Err(err).Msg("reload failed")
				}
			case os.Interrupt, syscall.SIGTERM:
				logger.Info().Str("signal", sig.String()).Msg("shutting down")
				cancel()
			}
		}
	}
}

// loadConfig reads the config file, falling back to built-in defaults
// when it does not exist.
func loadConfig(path string) (*config.Config, []byte, error) {
	raw, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		cfg := config.Default()
		serialized, serr := config.Serialize(&cfg)
		if serr != nil {
			return nil, nil, serr
		}
		return &cfg, serialized, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("read config: %w", err)
	}
	cfg, err := config.Parse(raw)
	if err != nil {
		return nil, nil, err
	}
	return cfg, raw, nil
}

// acquireLock enforces a single daemon instance per runtime dir.
func acquireLock() (*flock.Flock, error) {
	dir := os.Getenv("XDG_RUNTIME_DIR")
	if dir == "" {
		dir = os.TempDir()
	}
	dir = filepath.Join(dir, "wasdwm")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create runtime dir: %w", err)
	}
	fl := flock.New(filepath.Join(dir, "wasdwm.lock"))
	locked, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire instance lock: %w", err)
	}
	if !locked {
		return nil, errors.New("another wasdwm instance is already running")
	}
	return fl, nil
}

func watchConfig(logger zerolog.Logger, watcher *fsnotify.Watcher, target string, reloadRequests chan<- string) {
	const debounceWindow = 250 * time.Millisecond
	var (
		timer   *time.Timer
		timerCh <-chan time.Time
	)
	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(debounceWindow)
				timerCh = timer.C
			} else {
				if !timer.Stop() {
					<-timerCh
				}
				timer.Reset(debounceWindow)
			}
		case <-timerCh:
			timer = nil
			timerCh = nil
			select {
			case reloadRequests <- "config file updated":
			default:
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			logger.Warn().Err(err).Msg("config watcher error")
		}
	}
}

func exitErr(err error) {
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
