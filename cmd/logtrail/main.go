package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"logtrail/internal/config"
	"logtrail/internal/httpserver"
	"logtrail/internal/ingest"
	"logtrail/internal/prefs"
	"logtrail/internal/stream"
	"logtrail/internal/ui"
	"logtrail/internal/util/logx"
	"logtrail/internal/version"
)

func main() {
	logx.SetLevelFromEnv()
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, "config error:", err)
		os.Exit(2)
	}

	if cfg.ShowVersion {
		fmt.Println(version.Full())
		return
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logx.Infof("starting %s: %s", version.Full(), cfg.String())
	if err := run(ctx, cfg); err != nil {
		logx.Errorf("logtrail exited with error: %v", err)
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	p := prefs.Defaults()
	if !cfg.NoPrefs {
		loaded, err := prefs.Load(cfg.PrefsPath)
		if err != nil {
			logx.Warnf("prefs: %v", err)
		} else {
			p = loaded
		}
	}

	backend := ingest.New(ingest.Options{
		BatchSize:    cfg.BatchSize,
		PollInterval: cfg.PollInterval,
		HeadBytes:    cfg.HeadBytes,
	})
	defer backend.Close()

	ctrl := stream.New(backend, stream.Options{
		MaxEntries:     cfg.MaxEntries,
		DedupWindow:    cfg.DedupWindow,
		CommandTimeout: cfg.CommandTimeout,
	})

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error { return ctrl.Run(gctx) })

	if cfg.APIAddr != "" {
		srv := httpserver.NewServer(cfg.APIAddr, ctrl)
		if err := srv.Start(); err != nil {
			cancel()
			_ = g.Wait()
			return fmt.Errorf("start api: %w", err)
		}
		g.Go(func() error {
			<-gctx.Done()
			return srv.Stop()
		})
	}

	initial := cfg.FilePath
	if initial == "" {
		initial = p.LastFile
	}
	if initial != "" {
		g.Go(func() error {
			if err := ctrl.SelectFile(gctx, initial); err != nil {
				logx.Warnf("open %s: %v", initial, err)
			}
			return nil
		})
	}

	if cfg.Headless {
		printStartupBanner(cfg, initial)
		g.Go(func() error {
			<-gctx.Done()
			return nil
		})
	} else {
		g.Go(func() error {
			defer cancel()
			final, err := ui.Run(gctx, cfg, ctrl, p)
			if !cfg.NoPrefs {
				if serr := prefs.Save(cfg.PrefsPath, final); serr != nil {
					logx.Warnf("prefs: %v", serr)
				}
			}
			return err
		})
	}

	return g.Wait()
}
