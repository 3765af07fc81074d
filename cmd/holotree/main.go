package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/ayusman/holotree/internal/app"
	"github.com/ayusman/holotree/internal/capture"
	"github.com/ayusman/holotree/internal/config"
	"github.com/ayusman/holotree/internal/detector"
	"github.com/ayusman/holotree/internal/gallery"
	"github.com/ayusman/holotree/internal/gesture"
	"github.com/ayusman/holotree/internal/hook"
	"github.com/ayusman/holotree/internal/scene"
	"github.com/ayusman/holotree/internal/server"
	"github.com/ayusman/holotree/internal/store"
	"github.com/ayusman/holotree/internal/tray"
)

func main() {
	configPath := flag.String("config", defaultConfigPath(), "path to config.yaml")
	withTray := flag.Bool("tray", false, "show a system tray icon")
	flag.Parse()

	fmt.Println("Holotree - gesture driven particle tree")

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		log.Fatalf("Failed to create data directory: %v", err)
	}

	st, err := store.New(cfg.DatabasePath())
	if err != nil {
		log.Fatalf("Failed to initialize store: %v", err)
	}
	defer st.Close()

	sc := scene.New(cfg.Scene, cfg.Gesture.PitchLimit)
	frames := &capture.LatestFrame{}

	appCfg := app.Config{
		Camera:          capture.NewCamera(cfg.Camera),
		Scene:           sc,
		Store:           st,
		Frames:          frames,
		Params:          cfg.Gesture,
		MotionThreshold: cfg.Motion.Threshold,
		IdleFPS:         cfg.Motion.IdleFPS,
		ActiveFPS:       cfg.Motion.ActiveFPS,
		IdleTimeout:     cfg.Motion.IdleTimeout,
	}
	if cfg.Camera.Width > 0 && cfg.Camera.Height > 0 {
		appCfg.HitTester = gallery.NewTester(float64(cfg.Camera.Width) / float64(cfg.Camera.Height))
	}

	hooks := hook.NewManager(cfg.HooksDir(), hook.NewRunner(cfg.Hooks.Timeout))
	if err := hooks.Discover(); err != nil {
		log.Printf("hooks disabled: %v", err)
	} else {
		if n := len(hooks.List()); n > 0 {
			fmt.Printf("Loaded %d hook(s) from %s\n", n, hooks.Dir())
		}
		appCfg.Hooks = hooks
	}
	defer hooks.Wait()

	det, err := detector.NewMediaPipeDetector(cfg.Detector)
	if err != nil {
		log.Printf("detector unavailable: %v", err)
	} else {
		appCfg.Detector = det
	}

	a := app.New(appCfg)
	if err := a.LoadSettings(); err != nil {
		log.Printf("using configured scene settings: %v", err)
	}
	a.OnModeChange(func(m gesture.Mode) {
		log.Printf("tree %s", strings.ToLower(string(m)))
	})

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Tracking failure leaves the tree in its default state; the page still works.
	if err := a.Start(ctx); err != nil {
		log.Printf("tracking disabled: %v", err)
	}
	defer a.Stop()

	webDir := cfg.Server.StaticDir
	if webDir == "" {
		webDir = findWebDir()
	}
	if webDir != "" {
		fmt.Printf("Serving static files from: %s\n", webDir)
	}

	srv := server.New(server.Config{
		StaticDir: webDir,
		Scene:     sc,
		Settings:  a,
		Events:    a,
		Frames:    frames,
		PushEvery: cfg.Server.PushEvery,
	})

	fmt.Printf("Starting server on %s\n", cfg.Server.Addr)

	if !*withTray {
		if err := srv.ListenAndServe(ctx, cfg.Server.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed: %v", err)
		}
		return
	}

	go func() {
		if err := srv.ListenAndServe(ctx, cfg.Server.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("server failed: %v", err)
		}
		cancel()
	}()

	t := tray.New()
	t.OnToggle(a.SetEnabled)
	t.OnSettings(func() { openBrowser(settingsURL(cfg.Server.Addr)) })
	t.OnQuit(cancel)
	go t.Watch(ctx, sc, 250*time.Millisecond)
	go func() {
		<-ctx.Done()
		tray.Quit()
	}()

	// systray needs the main goroutine.
	t.Run()
}

func defaultConfigPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(homeDir, ".holotree", "config.yaml")
}

func settingsURL(addr string) string {
	if strings.HasPrefix(addr, ":") {
		addr = "localhost" + addr
	}
	return "http://" + addr + "/"
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
		log.Printf("open browser: %v", err)
	}
}

// findWebDir searches for the web directory in common locations.
// It checks: "web", "../web", "../../web", and ~/.holotree/web.
// Returns the first existing directory or empty string if none found.
func findWebDir() string {
	relativePaths := []string{"web", "../web", "../../web"}
	for _, p := range relativePaths {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			absPath, err := filepath.Abs(p)
			if err == nil {
				return absPath
			}
			return p
		}
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	homeWebDir := filepath.Join(homeDir, ".holotree", "web")
	if info, err := os.Stat(homeWebDir); err == nil && info.IsDir() {
		return homeWebDir
	}

	return ""
}
