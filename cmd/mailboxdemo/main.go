// Command mailboxdemo renders a test pattern through the frame mailbox and
// shows it in a window, or presents offscreen with -headless.
//
// Keys in the window: +/- change the speed limit, L toggles the limiter,
// R drops queued frames, Esc quits.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/gogpu/mailbox"
	"github.com/gogpu/mailbox/backend"
	"github.com/gogpu/mailbox/backend/software"
	"github.com/gogpu/mailbox/pacer"
	"github.com/gogpu/mailbox/render"
)

func main() {
	cfg, err := parseFlags(os.Args[1:])
	if err != nil {
		log.Fatalf("mailboxdemo: %v", err)
	}
	if err := run(cfg); err != nil {
		log.Fatalf("mailboxdemo: %v", err)
	}
}

// parseFlags loads -config and applies explicitly set flags over it.
func parseFlags(args []string) (Config, error) {
	def := DefaultConfig()
	fs := flag.NewFlagSet("mailboxdemo", flag.ContinueOnError)
	var (
		path     = fs.String("config", "", "JSON config file")
		name     = fs.String("backend", def.Backend, "backend: software, wgpu or auto")
		pool     = fs.Int("pool", def.PoolSize, "mailbox slot count")
		limit    = fs.Int("speed", def.SpeedLimit, "speed limit in percent")
		limiter  = fs.Bool("limit", def.LimitSpeed, "enable the speed limiter")
		thread   = fs.Bool("present-thread", def.PresentThread, "present on a separate goroutine through the mailbox")
		width    = fs.Int("width", def.Width, "render width")
		height   = fs.Int("height", def.Height, "render height")
		scale    = fs.Int("scale", def.Scale, "window scale")
		filter   = fs.String("filter", def.Filter, "blit filter: linear or nearest")
		fit      = fs.String("fit", def.Fit, "fit mode: aspect or stretch")
		level    = fs.String("log-level", def.LogLevel, "log level: debug, info, warn, error")
		headless = fs.Bool("headless", def.Headless, "present offscreen without a window")
		frames   = fs.Int("frames", def.Frames, "frames to present in headless mode, 0 runs until interrupted")
	)
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	cfg, err := LoadConfig(*path)
	if err != nil {
		return Config{}, err
	}
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "backend":
			cfg.Backend = *name
		case "pool":
			cfg.PoolSize = *pool
		case "speed":
			cfg.SpeedLimit = *limit
		case "limit":
			cfg.LimitSpeed = *limiter
		case "present-thread":
			cfg.PresentThread = *thread
		case "width":
			cfg.Width = *width
		case "height":
			cfg.Height = *height
		case "scale":
			cfg.Scale = *scale
		case "filter":
			cfg.Filter = *filter
		case "fit":
			cfg.Fit = *fit
		case "log-level":
			cfg.LogLevel = *level
		case "headless":
			cfg.Headless = *headless
		case "frames":
			cfg.Frames = *frames
		}
	})
	return cfg, cfg.Validate()
}

func run(cfg Config) error {
	level, _ := cfg.level()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	mailbox.SetLogger(logger)

	name, dev, err := openDevice(cfg.Backend)
	if err != nil {
		return err
	}
	if c, ok := dev.(io.Closer); ok {
		defer c.Close()
	}
	logger.Info("demo: backend opened", "backend", name, "available", backend.Available())

	comp, err := compositorFor(dev)
	if err != nil {
		return err
	}
	surf, destroy, err := newDisplaySurface(dev, uint32(cfg.Width*cfg.Scale), uint32(cfg.Height*cfg.Scale))
	if err != nil {
		return fmt.Errorf("create surface: %w", err)
	}
	defer destroy()

	filter, _ := cfg.filter()
	fit, _ := cfg.fit()
	p := pacer.New(cfg.SpeedLimit, cfg.LimitSpeed)
	r, err := render.New(dev, comp,
		render.WithPoolSize(cfg.PoolSize),
		render.WithPacer(p),
		render.WithPresentThread(cfg.PresentThread),
		render.WithSurface(surf),
		render.WithFilter(filter),
		render.WithFit(fit),
	)
	if err != nil {
		return err
	}
	defer r.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	soft, windowed := surf.(*software.Surface)
	if cfg.Headless || !windowed {
		if !cfg.Headless {
			logger.Warn("demo: no window support for backend, running headless", "backend", name)
		}
		return runHeadless(ctx, cfg, r, p, surf)
	}
	return runWindow(ctx, cfg, r, p, soft, comp)
}

// openDevice opens the named backend, or the best available one for "auto".
func openDevice(name string) (string, mailbox.Device, error) {
	if name == "auto" {
		return backend.Default()
	}
	dev, err := backend.Open(name)
	return name, dev, err
}

func runWindow(ctx context.Context, cfg Config, r *render.Renderer, p *pacer.Pacer, surf *software.Surface, comp frameCounter) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g := newGame(ctx, cancel, r, surf, p, comp)

	done := make(chan error, 1)
	go func() {
		done <- produce(ctx, r, p, cfg.Layout())
	}()
	go func() {
		<-ctx.Done()
		r.Close()
	}()

	ebiten.SetWindowSize(cfg.Width*cfg.Scale, cfg.Height*cfg.Scale)
	ebiten.SetWindowTitle("mailbox demo")
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	err := ebiten.RunGame(g)
	cancel()
	if perr := <-done; perr != nil {
		return perr
	}
	if err != nil && !errors.Is(err, ebiten.Termination) {
		return err
	}
	return nil
}
