package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net"
	"os"
	"strconv"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/vibecheckapp/vibecheck-cli/internal/config"
	"github.com/vibecheckapp/vibecheck-cli/internal/errors"
	"github.com/vibecheckapp/vibecheck-cli/internal/ops"
	"github.com/vibecheckapp/vibecheck-cli/internal/web"
)

// newCLIApp creates the CLI application with all commands.
func newCLIApp(env *ops.Env, cfg *config.Config) *cli.App {
	app := &cli.App{
		Name:    "vibecheck",
		Usage:   "Mood check-ins from your terminal",
		Version: Version,
		Commands: []*cli.Command{
			checkCmd(env),
			todayCmd(env),
			historyCmd(env),
			removeCmd(env),
			statsCmd(env),
			trendCmd(env),
			statusCmd(env),
			guestCmd(env),
			loginCmd(env),
			registerCmd(env),
			logoutCmd(env),
			deleteAccountCmd(env),
			webCmd(env, cfg),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

// checkCmd creates the check command.
func checkCmd(env *ops.Env) *cli.Command {
	return &cli.Command{
		Name:      "check",
		Usage:     "Submit a mood for analysis (argument or piped stdin)",
		ArgsUsage: "[mood text]",
		Action: func(c *cli.Context) error {
			moodText := strings.Join(c.Args().Slice(), " ")
			if moodText == "" && stdinHasData() {
				text, err := readStdin()
				if err != nil {
					return outputError(errors.NewInternal(err))
				}
				moodText = text
			}
			if moodText == "" {
				return outputError(errors.NewInvalidRequest("mood text is required (argument or stdin)"))
			}

			output, err := ops.Submit(c.Context, env, ops.SubmitInput{MoodText: moodText})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// todayCmd creates the today command.
func todayCmd(env *ops.Env) *cli.Command {
	return &cli.Command{
		Name:  "today",
		Usage: "Show today's vibe check, if any",
		Action: func(c *cli.Context) error {
			output, err := ops.Today(c.Context, env)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// historyCmd creates the history command.
func historyCmd(env *ops.Env) *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "List past vibe checks, newest first",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "limit", Aliases: []string{"l"}, Value: ops.DefaultHistoryLimit, Usage: "Maximum items to return"},
			&cli.IntFlag{Name: "offset", Aliases: []string{"o"}, Value: 0, Usage: "Items to skip"},
		},
		Action: func(c *cli.Context) error {
			output, err := ops.History(c.Context, env, ops.HistoryInput{
				Limit:  c.Int("limit"),
				Offset: c.Int("offset"),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// removeCmd creates the remove command.
func removeCmd(env *ops.Env) *cli.Command {
	return &cli.Command{
		Name:      "remove",
		Usage:     "Remove an entry from the local history cache",
		ArgsUsage: "<id>",
		Action: func(c *cli.Context) error {
			output, err := ops.Remove(c.Context, env, ops.RemoveInput{ID: c.Args().First()})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// statsCmd creates the stats command.
func statsCmd(env *ops.Env) *cli.Command {
	return &cli.Command{
		Name:  "stats",
		Usage: "Show streaks, totals, and averages",
		Action: func(c *cli.Context) error {
			output, err := ops.Stats(c.Context, env)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// trendCmd creates the trend command.
func trendCmd(env *ops.Env) *cli.Command {
	return &cli.Command{
		Name:  "trend",
		Usage: "Show the vibe-score series over time",
		Action: func(c *cli.Context) error {
			output, err := ops.Trend(c.Context, env)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// statusCmd creates the status command.
func statusCmd(env *ops.Env) *cli.Command {
	return &cli.Command{
		Name:  "status",
		Usage: "Show session mode, device id, quota, and cache state",
		Action: func(c *cli.Context) error {
			return outputJSON(ops.Status(c.Context, env))
		},
	}
}

// guestCmd creates the guest command.
func guestCmd(env *ops.Env) *cli.Command {
	return &cli.Command{
		Name:  "guest",
		Usage: "Continue as guest (3 free vibe checks per device)",
		Action: func(c *cli.Context) error {
			output, err := ops.Guest(c.Context, env)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// loginCmd creates the login command.
func loginCmd(env *ops.Env) *cli.Command {
	return &cli.Command{
		Name:  "login",
		Usage: "Sign in with email and password",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "email", Aliases: []string{"e"}, Required: true, Usage: "Account email"},
			&cli.StringFlag{Name: "password", Aliases: []string{"p"}, Usage: "Account password (or piped stdin)"},
		},
		Action: func(c *cli.Context) error {
			password, err := resolvePassword(c)
			if err != nil {
				return outputError(err)
			}
			output, err := ops.Login(c.Context, env, ops.LoginInput{
				Email:    c.String("email"),
				Password: password,
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// registerCmd creates the register command.
func registerCmd(env *ops.Env) *cli.Command {
	return &cli.Command{
		Name:  "register",
		Usage: "Create an account for unlimited vibe checks",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "email", Aliases: []string{"e"}, Required: true, Usage: "Account email"},
			&cli.StringFlag{Name: "password", Aliases: []string{"p"}, Usage: "Account password (or piped stdin)"},
		},
		Action: func(c *cli.Context) error {
			password, err := resolvePassword(c)
			if err != nil {
				return outputError(err)
			}
			output, err := ops.Register(c.Context, env, ops.LoginInput{
				Email:    c.String("email"),
				Password: password,
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// logoutCmd creates the logout command.
func logoutCmd(env *ops.Env) *cli.Command {
	return &cli.Command{
		Name:  "logout",
		Usage: "Sign out and clear the local session",
		Action: func(c *cli.Context) error {
			output, err := ops.Logout(c.Context, env)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// deleteAccountCmd creates the delete-account command.
func deleteAccountCmd(env *ops.Env) *cli.Command {
	return &cli.Command{
		Name:  "delete-account",
		Usage: "Permanently delete the account on the server",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "yes", Usage: "Skip the confirmation prompt"},
		},
		Action: func(c *cli.Context) error {
			if !c.Bool("yes") {
				return outputError(errors.NewInvalidRequest("pass --yes to confirm account deletion"))
			}
			output, err := ops.DeleteAccount(c.Context, env)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// webCmd creates the web command.
func webCmd(env *ops.Env, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "web",
		Usage: "Serve the local history dashboard",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "port", Usage: "Port to listen on (overrides config)"},
		},
		Action: func(c *cli.Context) error {
			port := cfg.WebPort
			if c.IsSet("port") {
				port = c.Int("port")
			}
			srv, err := web.New(env.History, env.Log)
			if err != nil {
				return outputError(errors.NewInternal(err))
			}
			addr := net.JoinHostPort(cfg.WebBind, strconv.Itoa(port))
			fmt.Fprintf(os.Stderr, "dashboard listening on http://%s\n", addr)
			return srv.ListenAndServe(addr)
		},
	}
}

// Helper functions

// outputJSON marshals result to stdout as JSON.
func outputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputError formats error for CLI.
func outputError(err error) error {
	if vErr, ok := err.(*errors.VibeError); ok {
		return cli.Exit(fmt.Sprintf("[%s] %s", vErr.Code, vErr.Message), 1)
	}
	return cli.Exit(err.Error(), 1)
}

// resolvePassword takes --password or falls back to piped stdin so the
// password stays out of shell history.
func resolvePassword(c *cli.Context) (string, error) {
	if p := c.String("password"); p != "" {
		return p, nil
	}
	if stdinHasData() {
		return readStdin()
	}
	return "", errors.NewInvalidRequest("password is required (--password or stdin)")
}

// stdinHasData returns true if stdin has piped data (not a terminal).
func stdinHasData() bool {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) == 0
}

// readStdin reads all content from stdin.
func readStdin() (string, error) {
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}
