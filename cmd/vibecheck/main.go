package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/vibecheckapp/vibecheck-cli/internal/api"
	"github.com/vibecheckapp/vibecheck-cli/internal/config"
	"github.com/vibecheckapp/vibecheck-cli/internal/device"
	"github.com/vibecheckapp/vibecheck-cli/internal/history"
	"github.com/vibecheckapp/vibecheck-cli/internal/mcp"
	"github.com/vibecheckapp/vibecheck-cli/internal/ops"
	"github.com/vibecheckapp/vibecheck-cli/internal/quota"
	"github.com/vibecheckapp/vibecheck-cli/internal/session"
	"github.com/vibecheckapp/vibecheck-cli/internal/store"
)

// Version is set via -ldflags at build time.
var Version = "dev"

// cliCommands contains known CLI subcommands.
var cliCommands = map[string]bool{
	"check": true, "today": true, "history": true, "remove": true,
	"stats": true, "trend": true, "status": true,
	"guest": true, "login": true, "register": true, "logout": true,
	"delete-account": true, "web": true,
	"help": true,
}

// isCLIMode determines if we should run CLI vs MCP server.
func isCLIMode() bool {
	if len(os.Args) < 2 {
		return false // No args → MCP server
	}
	arg := os.Args[1]
	if cliCommands[arg] {
		return true
	}
	if arg == "--help" || arg == "-h" || arg == "--version" || arg == "-v" {
		return true
	}
	return false // Default → MCP server
}

// isHelpOrVersion returns true if the user is requesting help or version info.
func isHelpOrVersion() bool {
	if len(os.Args) < 2 {
		return false
	}
	arg := os.Args[1]
	return arg == "--help" || arg == "-h" || arg == "--version" || arg == "-v" || arg == "help"
}

// isTerminal returns true if stdin is a terminal (not piped).
func isTerminal() bool {
	stat, _ := os.Stdin.Stat()
	return (stat.Mode() & os.ModeCharDevice) != 0
}

// printBanner displays a friendly banner when run interactively without args.
func printBanner() {
	fmt.Println(`
  __   _____ ___ ___ ___ _  _ ___ ___ _  __
  \ \ / /_ _| _ ) __/ __| || | __/ __| |/ /
   \ V / | || _ \ _| (__| __ | _| (__| ' <
    \_/ |___|___/___\___|_||_|___\___|_|\_\

  Mood check-ins from your terminal

  Usage: vibecheck <command> [options]
         vibecheck --help

  MCP server mode requires piped input.`)
}

// newLogger builds the CLI logger. Diagnostics go to stderr so JSON output on
// stdout stays machine-readable.
func newLogger() zerolog.Logger {
	level := zerolog.WarnLevel
	if raw := os.Getenv("VIBECHECK_LOG_LEVEL"); raw != "" {
		if parsed, err := zerolog.ParseLevel(raw); err == nil {
			level = parsed
		}
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		With().Timestamp().Logger().Level(level)
}

// buildEnv wires the operation environment over the store and config.
func buildEnv(st *store.Store, cfg *config.Config, log zerolog.Logger) *ops.Env {
	sess := session.New(st, log)
	client := api.New(api.Options{
		BaseURL:     cfg.APIBaseURL,
		Timeout:     time.Duration(cfg.HTTPTimeoutSecs) * time.Second,
		RetryBudget: time.Duration(cfg.RetryMaxElapsedSecs) * time.Second,
		Credentials: sess,
		Logger:      log,
	})
	return &ops.Env{
		API:     client,
		Session: sess,
		Device:  device.New(st, log),
		Quota:   quota.New(st, cfg.GuestQuota, log),
		History: history.New(st, log),
		Log:     log,
	}
}

func main() {
	// No args + interactive terminal → show banner and exit
	if len(os.Args) < 2 && isTerminal() {
		printBanner()
		return
	}

	// Handle --help/--version before store init (no store needed)
	if isHelpOrVersion() {
		app := newCLIApp(nil, nil)
		if err := app.Run(os.Args); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: could not determine home directory: %v\n", err)
		os.Exit(1)
	}

	baseDir := filepath.Join(homeDir, ".vibecheck")

	st, err := store.Open(baseDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: failed to open local store: %v\n", err)
		os.Exit(1)
	}
	defer st.Close()

	cfg, err := config.Load(baseDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: failed to load config: %v\n", err)
		os.Exit(1)
	}
	st.ConfigurePool(cfg.DBMaxOpenConns, cfg.DBMaxIdleConns)

	env := buildEnv(st, cfg, newLogger())

	// CLI mode: known subcommand
	if isCLIMode() {
		app := newCLIApp(env, cfg)
		if err := app.Run(os.Args); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	// Unknown argument + terminal → show error (don't start MCP server)
	if len(os.Args) >= 2 && isTerminal() {
		fmt.Fprintf(os.Stderr, "error: unknown command %q\n", os.Args[1])
		fmt.Fprintf(os.Stderr, "Run 'vibecheck --help' for usage.\n")
		os.Exit(1)
	}

	// MCP server mode (default)
	if err := mcp.Run(env, cfg, Version); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
