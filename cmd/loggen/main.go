// Command loggen appends synthetic log lines to a file so logtrail can be
// exercised against a live, growing, occasionally truncated log.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"
)

func main() {
	var (
		outPath       string
		toStdout      bool
		style         string
		rate          float64
		prefill       int
		duration      time.Duration
		truncateEvery time.Duration
	)
	flag.StringVar(&outPath, "out", "simulateddata/app.log", "output file")
	flag.BoolVar(&toStdout, "stdout", false, "write to stdout instead of a file")
	flag.StringVar(&style, "style", styleISO, "line style: iso, syslog, bracket or plain")
	flag.Float64Var(&rate, "rate", 5, "lines per second")
	flag.IntVar(&prefill, "prefill", 0, "write this many lines at once before streaming")
	flag.DurationVar(&duration, "duration", 0, "stop after this long (0 runs until interrupted)")
	flag.DurationVar(&truncateEvery, "truncate-every", 0, "truncate the file at this interval (0 never)")
	flag.Parse()

	if !isStyle(style) {
		fmt.Fprintf(os.Stderr, "unsupported style: %s\n", style)
		os.Exit(2)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	if duration > 0 {
		ctx, cancel = context.WithTimeout(ctx, duration)
		defer cancel()
	}

	gen := newGenerator(style, rand.New(rand.NewSource(time.Now().UnixNano())))

	if toStdout {
		w := bufio.NewWriter(os.Stdout)
		defer w.Flush()
		if err := stream(ctx, w, gen, rate, prefill, nil); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	f, err := openOut(outPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	defer f.Close()
	fmt.Fprintf(os.Stderr, "generating %s logs -> %s at %.2f lines/s\n", style, outPath, rate)

	var truncate <-chan time.Time
	if truncateEvery > 0 {
		t := time.NewTicker(truncateEvery)
		defer t.Stop()
		truncate = t.C
	}
	w := bufio.NewWriter(f)
	err = stream(ctx, w, gen, rate, prefill, func() error {
		select {
		case <-truncate:
			if err := w.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(os.Stderr, "truncating %s\n", outPath)
			return f.Truncate(0)
		default:
			return nil
		}
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func openOut(path string) (*os.File, error) {
	if dir := dirOf(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	// O_APPEND keeps writes at the end after a truncate
	return os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND|os.O_TRUNC, 0o644)
}

func dirOf(path string) string {
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '/' || path[i] == os.PathSeparator {
			return path[:i]
		}
	}
	return ""
}

// stream writes prefill lines, then one line per tick until ctx is done.
// before runs ahead of every tick.
func stream(ctx context.Context, w *bufio.Writer, gen *generator, rate float64, prefill int, before func() error) error {
	for i := 0; i < prefill; i++ {
		if err := writeLine(w, gen.line(time.Now())); err != nil {
			return err
		}
	}
	if err := w.Flush(); err != nil {
		return err
	}
	if rate <= 0 {
		rate = 1
	}
	interval := time.Duration(float64(time.Second) / rate)
	if interval <= 0 {
		interval = time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return w.Flush()
		case now := <-ticker.C:
			if before != nil {
				if err := before(); err != nil {
					return err
				}
			}
			if err := writeLine(w, gen.line(now)); err != nil {
				return err
			}
			if err := w.Flush(); err != nil {
				return err
			}
		}
	}
}

func writeLine(w io.Writer, line string) error {
	_, err := io.WriteString(w, line+"\n")
	return err
}
