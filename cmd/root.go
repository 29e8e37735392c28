// Package cmd implements the CLI command structure for taskdeck.
package cmd

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/common-nighthawk/go-figure"
	"github.com/rs/zerolog"

	"github.com/taskdeck/taskdeck/internal/api"
	"github.com/taskdeck/taskdeck/internal/appdir"
	"github.com/taskdeck/taskdeck/internal/config"
	"github.com/taskdeck/taskdeck/internal/logging"
	"github.com/taskdeck/taskdeck/internal/session"
	"github.com/taskdeck/taskdeck/internal/store"
	"github.com/taskdeck/taskdeck/internal/ui"
)

// Version is set via ldflags at build time.
var Version = "dev"

// app bundles the wired-up dependencies handed to each subcommand.
type app struct {
	cfg      *config.Config
	client   *api.Client
	sessions *session.Manager
	tasks    *store.Store
	log      zerolog.Logger
}

// stderrNotifier prints notifications for the scriptable commands; the TUI
// replaces it with its toast channel.
type stderrNotifier struct{}

func (stderrNotifier) Notify(message string, isError bool) {
	if isError {
		fmt.Fprintf(os.Stderr, "error: %s\n", message)
		return
	}
	fmt.Fprintln(os.Stderr, message)
}

// Run executes the taskdeck CLI.
func Run(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("taskdeck", flag.ContinueOnError)
	fs.Usage = func() {
		printUsage(fs, os.Stderr)
	}
	help := fs.Bool("help", false, "Show help")
	fs.BoolVar(help, "h", false, "Show help")
	showVersion := fs.Bool("version", false, "Show version")
	fs.BoolVar(showVersion, "v", false, "Show version")

	cfg, err := config.Load(fs, args)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if *help {
		printUsage(fs, os.Stdout)
		return nil
	}
	if *showVersion {
		return versionCommand()
	}

	subcommand := "tui"
	remaining := fs.Args()
	if len(remaining) > 0 && !strings.HasPrefix(remaining[0], "-") {
		subcommand = remaining[0]
		remaining = remaining[1:]
	}

	if _, err := appdir.Ensure(); err != nil {
		return fmt.Errorf("creating app directory: %w", err)
	}

	logger, closer, err := logging.Setup(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		return fmt.Errorf("setting up logging: %w", err)
	}
	defer closer.Close()

	client := api.New(cfg.BaseURL, logger)
	sessions := session.NewManager(client, cfg.SessionFile, logger)
	a := &app{
		cfg:      cfg,
		client:   client,
		sessions: sessions,
		tasks:    store.New(client, sessions, stderrNotifier{}, logger),
		log:      logger,
	}

	switch subcommand {
	case "tui":
		return tuiCommand(ctx, a)
	case "login":
		return loginCommand(ctx, a, remaining)
	case "logout":
		return logoutCommand(a)
	case "whoami":
		return whoamiCommand(a)
	case "ls":
		return lsCommand(ctx, a, remaining)
	case "add":
		return addCommand(ctx, a, remaining)
	case "toggle":
		return toggleCommand(ctx, a, remaining)
	case "rm":
		return rmCommand(ctx, a, remaining)
	case "doctor":
		return doctorCommand(a)
	case "version", "--version":
		return versionCommand()
	case "help", "--help":
		printUsage(fs, os.Stdout)
		return nil
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", subcommand)
		printUsage(fs, os.Stderr)
		return fmt.Errorf("unknown command: %s", subcommand)
	}
}

// tuiCommand bootstraps the session from storage and launches the dashboard.
func tuiCommand(ctx context.Context, a *app) error {
	notices := ui.NewNotices()
	a.client.SetNotifier(notices)
	a.tasks.SetNotifier(notices)
	a.sessions.Restore()
	return ui.Run(ctx, a.cfg, a.sessions, a.tasks, notices, a.log)
}

// versionCommand prints version information.
func versionCommand() error {
	fmt.Printf("taskdeck version %s\n", Version)
	return nil
}

func banner() {
	figure.NewFigure("TaskDeck", "", true).Print()
	fmt.Println()
}

// printUsage prints the usage message.
func printUsage(fs *flag.FlagSet, w io.Writer) {
	fmt.Fprintln(w, "TaskDeck - A terminal dashboard for your todo service")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  taskdeck [command] [options]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  tui             Launch the dashboard (default command)")
	fmt.Fprintln(w, "  login           Authenticate and persist the session")
	fmt.Fprintln(w, "  logout          Clear the persisted session")
	fmt.Fprintln(w, "  whoami          Show the active session")
	fmt.Fprintln(w, "  ls              List tasks")
	fmt.Fprintln(w, "  add <title>     Create a task")
	fmt.Fprintln(w, "  toggle <id>     Toggle a task's completion state")
	fmt.Fprintln(w, "  rm <id>         Delete a task")
	fmt.Fprintln(w, "  doctor          Check config, session, and service reachability")
	fmt.Fprintln(w, "  version         Show version information")
	fmt.Fprintln(w, "  help            Show this help message")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Global Options:")
	fs.SetOutput(w)
	fs.PrintDefaults()
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Login Options (use with 'login' command):")
	fmt.Fprintln(w, "  -email string     Account email (prompted when omitted)")
	fmt.Fprintln(w, "  -password string  Account password (prompted when omitted)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Ls Options (use with 'ls' command):")
	fmt.Fprintln(w, "  -completed  Show only completed tasks")
	fmt.Fprintln(w, "  -pending    Show only pending tasks")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Rm Options (use with 'rm' command):")
	fmt.Fprintln(w, "  -y  Skip the confirmation prompt")
}
