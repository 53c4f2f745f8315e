package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/mdobak/go-xerrors"

	"github.com/ayusman/emotereactor/internal/app"
	"github.com/ayusman/emotereactor/internal/config"
	"github.com/ayusman/emotereactor/internal/gesture"
	"github.com/ayusman/emotereactor/internal/hook"
	"github.com/ayusman/emotereactor/internal/server"
	"github.com/ayusman/emotereactor/internal/store"
	"github.com/ayusman/emotereactor/internal/tray"
)

const hookTimeoutMs = 5000

func main() {
	fmt.Println("Emote Reactor - Clash Royale emotes from your webcam")

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	if err := run(os.Args[1:]); err != nil {
		err := xerrors.New(err)
		logger.ErrorContext(context.Background(), "Emote reactor stopped.", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(args []string) error {
	cfg, err := config.Load(args)
	if err != nil {
		return err
	}

	// Initialize the store
	var st *store.Store
	if cfg.DBPath != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0755); err != nil {
			return fmt.Errorf("failed to create data directory: %w", err)
		}
		st, err = store.New(cfg.DBPath)
		if err != nil {
			return fmt.Errorf("failed to initialize store: %w", err)
		}
		defer st.Close()
	}

	a, err := app.New(app.Config{
		Store:       st,
		CameraID:    cfg.CameraID,
		EmoteDir:    cfg.EmoteDir,
		Thresholds:  gesture.DefaultThresholds(),
		Absence:     cfg.Absence,
		SwitchDelay: cfg.SwitchDelay,
		Debug:       cfg.Debug,
		Headless:    cfg.Headless,
		EncodeJPEG:  cfg.Addr != "",
	})
	if err != nil {
		return err
	}
	defer a.Close()

	if cfg.HookDir != "" {
		d, err := startHooks(cfg.HookDir)
		if err != nil {
			return err
		}
		defer d.Close()
		a.OnSwitch(func(sw app.Switch) {
			metrics, _ := json.Marshal(sw.Metrics)
			d.Dispatch(&hook.Request{
				Label:     sw.Label.String(),
				Previous:  sw.Previous.String(),
				SessionID: sw.SessionID,
				Metrics:   metrics,
			})
		})
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Addr != "" {
		srv := server.New(server.Config{
			StaticDir: cfg.StaticDir,
			Store:     st,
			Source:    a,
		})
		go func() {
			fmt.Printf("Starting server on %s\n", cfg.Addr)
			if err := srv.Run(ctx, cfg.Addr); err != nil {
				log.Printf("Server failed: %v", err)
			}
		}()
	}

	if !cfg.Tray {
		return a.Run(ctx)
	}

	return runWithTray(ctx, stop, a, cfg.Debug)
}

// startHooks discovers the hooks in dir and starts their dispatcher.
func startHooks(dir string) (*hook.Dispatcher, error) {
	m := hook.NewManager(dir)
	if err := m.Discover(); err != nil {
		return nil, fmt.Errorf("failed to discover hooks: %w", err)
	}
	for _, h := range m.List() {
		log.Printf("Loaded hook %s %s", h.Manifest.Name, h.Manifest.Version)
	}
	return hook.NewDispatcher(m, hook.NewExecutor(hookTimeoutMs), hook.DefaultQueueSize), nil
}

// runWithTray keeps the tray on the main goroutine, which the platform menu
// APIs require, and runs the loop beside it. Either side stopping ends both.
func runWithTray(ctx context.Context, stop context.CancelFunc, a *app.App, debug bool) error {
	t := tray.New(debug)
	t.OnDebug(a.SetDebug)
	t.OnQuit(stop)
	a.OnSwitch(func(sw app.Switch) { t.SetCurrent(sw.Label.String()) })

	errCh := make(chan error, 1)
	go func() {
		err := a.Run(ctx)
		t.Quit()
		errCh <- err
	}()

	t.Run()
	stop()

	err := <-errCh
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
