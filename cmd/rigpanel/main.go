// rigpanel serves a control surface for a rigged animation asset: it loads
// the rig, enumerates its state-machine inputs, and binds generated HTML
// controls to them over a WebSocket.
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/normanking/rigpanel/internal/bus"
	"github.com/normanking/rigpanel/internal/config"
	"github.com/normanking/rigpanel/internal/logging"
	"github.com/normanking/rigpanel/internal/panel"
	"github.com/normanking/rigpanel/internal/rig"
	"github.com/normanking/rigpanel/internal/server"
	"github.com/normanking/rigpanel/internal/viseme"
)

func main() {
	cfg, cfgErr := config.Load()

	syslog, err := logging.New(&logging.Config{
		Dir:     cfg.Log.Dir,
		Level:   cfg.Log.Level,
		Console: cfg.Log.Console,
	})
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer syslog.Close()

	zlogger := syslog.Zerolog()
	mainLog := syslog.Component("main")
	mainLog.Info().Str("addr", cfg.Server.Addr).Str("asset", cfg.Asset.Path).Msg("rigpanel starting")
	if dir, dirErr := config.GetConfigDir(); dirErr == nil {
		mainLog.Debug().Str("config_dir", dir).Msg("Using config directory")
	}
	if cfgErr != nil {
		mainLog.Warn().Err(cfgErr).Msg("Failed to load config, using defaults")
	}

	eventBus := bus.NewEventBus()
	hub := server.NewHub(zlogger)
	loader := rig.NewLoader(hub, zlogger)
	vis := viseme.NewController(cfg.Viseme.ResetDelay, zlogger)

	renderer, err := panel.NewRenderer()
	if err != nil {
		mainLog.Fatal().Err(err).Msg("Failed to parse panel templates")
	}

	srv := server.New(cfg, hub, vis, eventBus, renderer, zlogger)
	srv.SetLogHistory(syslog.History)

	// Stream log lines to connected panels.
	syslog.SetOnLog(func(e logging.LogEntry) {
		hub.Broadcast(server.LogMessage{Type: "log", Entry: e})
	})

	opts := rig.SessionOptions{
		Source:        cfg.Asset.Path,
		Surface:       cfg.Surface.ID,
		StateMachine:  cfg.Asset.StateMachine,
		Artboard:      cfg.Asset.Artboard,
		Autoplay:      cfg.Asset.Autoplay,
		Fit:           rig.Fit(cfg.Asset.Fit),
		Alignment:     rig.Alignment(cfg.Asset.Alignment),
		Bind:          rig.BindMode(cfg.Asset.Bind),
		SurfaceWidth:  cfg.Surface.Width,
		SurfaceHeight: cfg.Surface.Height,
		PixelRatio:    cfg.Surface.PixelRatio,
		OnLoad:        srv.AdoptSession,
		OnLoadError:   srv.SetLoadError,
	}
	loader.Load(context.Background(), opts)

	var watcher *server.Watcher
	if cfg.Asset.Watch {
		watcher, err = server.NewWatcher(cfg.Asset.Path, func() {
			loader.Load(context.Background(), opts)
		}, zlogger)
		if err != nil {
			mainLog.Warn().Err(err).Msg("Asset watcher unavailable, reload on change disabled")
		}
	}

	httpSrv := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: srv.Routes(),
	}
	go func() {
		mainLog.Info().Str("addr", cfg.Server.Addr).Msg("HTTP server listening")
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			mainLog.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	mainLog.Info().Msg("Shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(ctx); err != nil {
		mainLog.Warn().Err(err).Msg("HTTP shutdown error")
	}
	if watcher != nil {
		watcher.Close()
	}
	vis.Close()
	if sess := srv.Session(); sess != nil {
		sess.Close()
		eventBus.PublishSync(bus.Event{Type: bus.EventTypeSessionClosed, Data: map[string]any{"source": sess.Options().Source}})
	}
	hub.CloseAll()

	mainLog.Info().Msg("rigpanel shutdown complete")
}
