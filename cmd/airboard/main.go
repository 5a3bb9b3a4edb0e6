package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"

	"github.com/ayusman/airboard/internal/app"
	"github.com/ayusman/airboard/internal/config"
	"github.com/ayusman/airboard/internal/gesture"
	"github.com/ayusman/airboard/internal/log"
	"github.com/ayusman/airboard/internal/notepad"
	"github.com/ayusman/airboard/internal/plugin"
	"github.com/ayusman/airboard/internal/server"
	"github.com/ayusman/airboard/internal/store"
	"github.com/ayusman/airboard/internal/tray"
)

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	log.Init(cfg.LogLevel)

	if err := run(cfg); err != nil {
		log.Error("airboard exited", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}

	st, err := store.New(cfg.DBPath())
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	// Settings saved from the workspace win over flags and environment.
	saved, err := st.Settings().All()
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}
	if tuning, err := config.ApplySettings(cfg.Tuning, saved); err != nil {
		log.Warn("ignoring invalid stored settings", "error", err)
	} else {
		cfg.Tuning = tuning
	}

	plugins := plugin.NewManager(cfg.PluginDir)
	if err := plugins.Discover(); err != nil {
		log.Warn("plugin discovery failed", "dir", cfg.PluginDir, "error", err)
	}
	log.Info("plugins loaded", "dir", cfg.PluginDir, "count", len(plugins.List()))

	pad := notepad.New(st.Notes())
	if err := pad.Load(); err != nil {
		log.Warn("failed to restore notepad", "error", err)
	}

	hub := server.NewHub()
	go hub.Run(ctx)

	dispatcher := app.NewDispatcher(app.DefaultDeliverTimeout)
	dispatcher.Register("hub", hub)
	dispatcher.Register("notepad", pad)
	dispatcher.Register("plugins", plugin.NewSink(st.Bindings(), plugins, plugin.NewExecutor(plugin.DefaultTimeout)))

	listeners := []app.Listener{hub}

	appCfg := app.Config{
		Mode:       cfg.Mode,
		Tuning:     cfg.Tuning,
		Dispatcher: dispatcher,
	}
	if cfg.CameraSource {
		appCfg.NewSource = app.NewCameraSourceFactory(cfg.CameraID, cfg.FPS)
	}

	// The tray needs the app and the app needs its listeners up front, so
	// the tray is built against a late-bound controller.
	var menu *tray.Tray
	var a *app.App
	if cfg.Tray {
		menu = tray.New(lateController{get: func() *app.App { return a }})
		listeners = append(listeners, menu)
		dispatcher.Register("tray", menu)
	}
	appCfg.Listeners = listeners

	a = app.New(appCfg)
	if err := a.Start(ctx); err != nil {
		return fmt.Errorf("start pipeline: %w", err)
	}
	defer a.Stop()

	webDir := cfg.WebDir
	if webDir == "" {
		webDir = findWebDir(cfg.DataDir)
	}
	if webDir != "" {
		log.Info("serving static files", "dir", webDir)
	}

	srv := server.New(server.Config{
		StaticDir: webDir,
		Store:     st,
		App:       a,
		Hub:       hub,
		Notepad:   pad,
		Plugins:   plugins,
	})

	if menu == nil {
		return srv.ListenAndServe(ctx, cfg.Addr)
	}

	// systray owns the main goroutine; the server runs beside it.
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe(ctx, cfg.Addr)
		menu.Quit()
	}()
	menu.OnOpen(func() { openBrowser(workspaceURL(cfg.Addr)) })
	menu.OnQuit(stop)
	menu.Run()

	stop()
	return <-errCh
}

// lateController forwards to an app that is created after the tray.
type lateController struct {
	get func() *app.App
}

func (c lateController) SetTracking(on bool) error {
	a := c.get()
	if a == nil {
		return app.ErrNotRunning
	}
	return a.SetTracking(on)
}

func (c lateController) SetMode(m gesture.Mode) error {
	a := c.get()
	if a == nil {
		return app.ErrNotRunning
	}
	return a.SetMode(m)
}

// findWebDir searches for the web UI in common locations: "web", "../web",
// "../../web" and <data-dir>/web. It returns "" when none exists.
func findWebDir(dataDir string) string {
	for _, p := range []string{"web", "../web", "../../web", filepath.Join(dataDir, "web")} {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			if abs, err := filepath.Abs(p); err == nil {
				return abs
			}
			return p
		}
	}
	return ""
}

func workspaceURL(addr string) string {
	if len(addr) > 0 && addr[0] == ':' {
		return "http://localhost" + addr
	}
	return "http://" + addr
}

func openBrowser(url string) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	if err := cmd.Start(); err != nil {
		if !errors.Is(err, exec.ErrNotFound) {
			log.Warn("failed to open browser", "url", url, "error", err)
		}
		return
	}
	go cmd.Wait()
}
