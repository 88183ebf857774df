package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/angelmondragon/aura-storefront/internal/storefront"
	"github.com/angelmondragon/aura-storefront/internal/storefront/notify"
	"github.com/angelmondragon/aura-storefront/pkg/clientstore"
	"github.com/angelmondragon/aura-storefront/pkg/config"
	pkgerrors "github.com/angelmondragon/aura-storefront/pkg/errors"
	"github.com/angelmondragon/aura-storefront/pkg/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	_ = godotenv.Load()

	code := run(ctx, os.Args[1:])
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string) int {
	cfg, err := config.LoadClient()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		return 2
	}
	logg := logger.New(logger.Options{
		ServiceName: "storefront",
		Level:       logger.ParseLevel(cfg.LogLevel),
	})

	store, err := clientstore.NewSQLite(cfg.StatePath)
	if err != nil {
		logg.Error(ctx, "failed to open client state", err)
		return 1
	}

	notes := &terminalNotifier{out: os.Stderr}
	app, err := storefront.New(ctx, cfg, storefront.Options{
		Store:    store,
		Logger:   logg,
		Notifier: notes,
	})
	if err != nil {
		_ = store.Close()
		logg.Error(ctx, "failed to start storefront", err)
		return 1
	}
	defer func() {
		if err := app.Close(); err != nil {
			logg.Error(ctx, "failed to close storefront", err)
		}
	}()

	cli := &commandLine{app: app, out: os.Stdout}
	if err := cli.dispatch(ctx, args); err != nil {
		reportError(os.Stderr, notes, err)
		return 1
	}
	return 0
}

// reportError prints a failed command, unless the same message was already
// shown as an error notification.
func reportError(w io.Writer, notes *terminalNotifier, err error) {
	msg := pkgerrors.UserMessage(err)
	if notes.shownError(msg) {
		return
	}
	fmt.Fprintf(w, "error: %s\n", msg)
	if pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		if typed := pkgerrors.As(err); typed != nil && typed.Details() != nil {
			fmt.Fprintf(w, "  %v\n", typed.Details())
		}
	}
}

// terminalNotifier prints notifications and remembers the error messages it
// has printed.
type terminalNotifier struct {
	out io.Writer

	mu     sync.Mutex
	errors map[string]bool
}

func (n *terminalNotifier) Notify(_ context.Context, note notify.Notification) {
	n.mu.Lock()
	defer n.mu.Unlock()
	fmt.Fprintf(n.out, "[%s] %s\n", note.Level, note.Message)
	if note.Level != notify.LevelError {
		return
	}
	if n.errors == nil {
		n.errors = make(map[string]bool)
	}
	n.errors[note.Message] = true
}

func (n *terminalNotifier) shownError(msg string) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.errors[msg]
}
