package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/stemsi/quizrunner/internal/config"
	"github.com/stemsi/quizrunner/internal/logger"
	"github.com/stemsi/quizrunner/internal/repository"
	"github.com/stemsi/quizrunner/internal/runner"
	"github.com/stemsi/quizrunner/internal/service"
	"github.com/stemsi/quizrunner/internal/view"
	"golang.org/x/term"
)

const (
	keyCtrlC = 3
	keyEnter = '\r'
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	fd := int(os.Stdin.Fd())
	interactive := term.IsTerminal(fd)

	// ─── Initialize Logger ─────────────────────────────────────────────
	// Log lines would tear up the screen, so an interactive session only
	// logs when LOG_FILE is set.
	var logOut io.Writer = os.Stderr
	if interactive {
		logOut = io.Discard
		if path := os.Getenv("LOG_FILE"); path != "" {
			f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: cannot open log file: %v\n", err)
				os.Exit(1)
			}
			defer f.Close()
			logOut = f
		}
	}
	log := logger.New(logOut, cfg.LogLevel, cfg.LogFormat)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// ─── Load Quiz ─────────────────────────────────────────────────────
	handoffs := repository.NewMemoryHandoffRepository(cfg.HandoffTTL)
	loader := service.NewLoaderService(cfg, handoffs, log)
	res, err := loader.Fetch(ctx)
	if err != nil {
		fmt.Println("Error occurred while fetching data")
		os.Exit(1)
	}

	// ─── Terminal Setup ────────────────────────────────────────────────
	if interactive {
		oldState, err := term.MakeRaw(fd)
		if err != nil {
			log.Warn().Err(err).Msg("Raw mode unavailable, falling back to line input")
		} else {
			defer func() { _ = term.Restore(fd, oldState) }()
		}
	}

	content := service.NewContentService()
	opt := view.TextOptions{Color: interactive, PlainText: content.PlainText}
	keys := readKeys(os.Stdin)

	summary := res.Quiz.Summary()
	fmt.Print(view.RenderLanding(&summary, opt))
	if !waitForStart(ctx, keys) {
		fmt.Print("\r\n")
		return
	}

	// ─── Play ──────────────────────────────────────────────────────────
	runners := service.NewRunnerService(cfg, handoffs, log)
	defer runners.Shutdown()

	r, err := runners.StartWithQuiz(res.Quiz)
	if err != nil {
		fmt.Print("No quiz data found. Please start the quiz.\r\n")
		return
	}

	play(ctx, r, view.NewBuilder(content), keys, opt, log)
	fmt.Print("\r\n")
}

// readKeys forwards stdin byte by byte. Line-buffered terminals deliver the
// keys once Enter is pressed, which still works with single-letter commands.
func readKeys(in io.Reader) <-chan byte {
	keys := make(chan byte)
	go func() {
		defer close(keys)
		buf := make([]byte, 1)
		for {
			n, err := in.Read(buf)
			if err != nil {
				return
			}
			if n == 1 {
				keys <- buf[0]
			}
		}
	}()
	return keys
}

func waitForStart(ctx context.Context, keys <-chan byte) bool {
	for {
		select {
		case <-ctx.Done():
			return false
		case k, ok := <-keys:
			if !ok {
				return false
			}
			switch k {
			case keyEnter, '\n', 's':
				return true
			case 'q', keyCtrlC:
				return false
			}
		}
	}
}

func play(ctx context.Context, r *runner.Runner, pages *view.Builder, keys <-chan byte, opt view.TextOptions, log zerolog.Logger) {
	updates, unsubscribe := r.Subscribe()
	defer unsubscribe()

	for {
		select {
		case <-ctx.Done():
			return
		case s, ok := <-updates:
			if !ok {
				return
			}
			fmt.Print(view.RenderText(pages.Build(r.Quiz(), s), opt))
		case k, ok := <-keys:
			if !ok || k == 'q' || k == keyCtrlC {
				return
			}
			e, ok := eventForKey(r.Quiz().Questions, r.State(), k)
			if !ok {
				continue
			}
			if _, err := r.Dispatch(ctx, e); err != nil {
				log.Debug().Err(err).Str("event", e.Name()).Msg("Dispatch failed")
				return
			}
		}
	}
}
