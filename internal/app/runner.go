package app

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/ggonzalez94/neartx/internal/cache"
	"github.com/ggonzalez94/neartx/internal/config"
	clierr "github.com/ggonzalez94/neartx/internal/errors"
	"github.com/ggonzalez94/neartx/internal/execution"
	"github.com/ggonzalez94/neartx/internal/httpx"
	"github.com/ggonzalez94/neartx/internal/model"
	"github.com/ggonzalez94/neartx/internal/out"
	"github.com/ggonzalez94/neartx/internal/policy"
	"github.com/ggonzalez94/neartx/internal/resolve"
	"github.com/ggonzalez94/neartx/internal/rpc"
	"github.com/ggonzalez94/neartx/internal/schema"
	"github.com/ggonzalez94/neartx/internal/version"
)

type Runner struct {
	stdout io.Writer
	stderr io.Writer
	now    func() time.Time

	// prompter is the interactive value source, nil when stdin is not a terminal.
	prompter func() resolve.ValueSource
	// clients overrides the JSON-RPC client factory.
	clients execution.ClientFactory
}

func NewRunner() *Runner {
	r := NewRunnerWithWriters(os.Stdout, os.Stderr)
	if isatty.IsTerminal(os.Stdin.Fd()) && isatty.IsTerminal(os.Stderr.Fd()) {
		r.prompter = func() resolve.ValueSource { return resolve.NewPromptSource(os.Stdin, os.Stderr) }
	}
	return r
}

func NewRunnerWithWriters(stdout, stderr io.Writer) *Runner {
	return &Runner{
		stdout: stdout,
		stderr: stderr,
		now:    time.Now,
	}
}

type runtimeState struct {
	runner       *Runner
	flags        config.GlobalFlags
	settings     config.Settings
	cache        *cache.Store
	store        *execution.Store
	root         *cobra.Command
	lastCommand  string
	lastWarnings []string
	lastData     any
	lastMeta     model.EnvelopeMeta
}

func (r *Runner) Run(args []string) int {
	state := &runtimeState{runner: r}
	root := state.newRootCommand()
	state.root = root
	root.SetArgs(args)
	root.SetOut(r.stdout)
	root.SetErr(r.stderr)
	root.SilenceUsage = true
	root.SilenceErrors = true

	err := root.Execute()
	err = normalizeRunError(err)
	defer state.close()
	if err == nil {
		return 0
	}

	state.renderError(err)
	return clierr.ExitCode(err)
}

func (s *runtimeState) close() {
	if s.cache != nil {
		_ = s.cache.Close()
	}
	if s.store != nil {
		_ = s.store.Close()
	}
}

func (s *runtimeState) newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   version.CLIName,
		Short: "Construct, sign and submit NEAR transactions",
		Args:  cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "help" {
				return nil
			}
			settings, err := config.Load(s.flags)
			if err != nil {
				return clierr.Wrap(clierr.CodeUsage, "load configuration", err)
			}
			s.settings = settings
			s.setupLogging()

			path := trimRootPath(cmd.CommandPath())
			s.lastCommand = path
			if path != version.CLIName {
				if err := policy.CheckCommandAllowed(settings.EnableCommands, path); err != nil {
					return err
				}
			}

			if settings.CacheEnabled && shouldOpenCache(path) && s.cache == nil {
				cacheStore, err := cache.Open(settings.CachePath, settings.CacheLockPath)
				if err != nil {
					return clierr.Wrap(clierr.CodeInternal, "open cache", err)
				}
				s.cache = cacheStore
			}
			if settings.StoreEnabled && shouldOpenStore(path) && s.store == nil {
				txStore, err := execution.OpenStore(settings.StorePath, settings.StoreLockPath)
				if err != nil {
					return clierr.Wrap(clierr.CodeInternal, "open transaction store", err)
				}
				s.store = txStore
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return s.runMenu(cmd)
		},
	}
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return clierr.Wrap(clierr.CodeUsage, "parse flags", err)
	})

	cmd.PersistentFlags().BoolVar(&s.flags.JSON, "json", false, "Output JSON (default)")
	cmd.PersistentFlags().BoolVar(&s.flags.Plain, "plain", false, "Output plain text")
	cmd.PersistentFlags().StringVar(&s.flags.Select, "select", "", "Select fields from data (comma-separated)")
	cmd.PersistentFlags().BoolVar(&s.flags.ResultsOnly, "results-only", false, "Output only data payload")
	cmd.PersistentFlags().StringVar(&s.flags.EnableCommands, "enable-commands", "", "Allowlist command paths (comma-separated)")
	cmd.PersistentFlags().BoolVar(&s.flags.Strict, "strict", false, "Reject amounts that are neither base units nor NEAR")
	cmd.PersistentFlags().StringVar(&s.flags.Timeout, "timeout", "", "Per-call RPC timeout")
	cmd.PersistentFlags().IntVar(&s.flags.Retries, "retries", -1, "Retries per read-only RPC query")
	cmd.PersistentFlags().StringVar(&s.flags.MaxStale, "max-stale", "", "Maximum stale fallback window after TTL expiry")
	cmd.PersistentFlags().BoolVar(&s.flags.NoStale, "no-stale", false, "Reject stale cache entries")
	cmd.PersistentFlags().BoolVar(&s.flags.NoCache, "no-cache", false, "Disable cache reads and writes")
	cmd.PersistentFlags().BoolVar(&s.flags.NoInput, "no-input", false, "Never prompt; fail when a value is missing")
	cmd.PersistentFlags().StringVar(&s.flags.LogLevel, "log-level", "", "Log level on stderr: debug, info, warn, error")
	cmd.PersistentFlags().StringVar(&s.flags.ConfigPath, "config", "", "Path to config file")

	cmd.AddCommand(s.newConstructCommand())
	cmd.AddCommand(s.newTxCommand())
	cmd.AddCommand(s.newKeysCommand())
	cmd.AddCommand(s.newSchemaCommand())
	cmd.AddCommand(newVersionCommand())

	return cmd
}

var menuOptions = []resolve.Option{
	{Key: "construct-transaction", Label: "construct-transaction"},
	{Key: "help", Label: "help"},
}

// runMenu mirrors the top-level action menu when neartx runs bare on a
// terminal. Without a terminal it prints help.
func (s *runtimeState) runMenu(cmd *cobra.Command) error {
	if s.runner.prompter == nil || s.settings.NoInput {
		return cmd.Help()
	}
	choice, err := s.runner.prompter().Choose("Choose your action", menuOptions)
	if err != nil {
		return err
	}
	if choice == "help" {
		return cmd.Help()
	}
	construct, _, err := cmd.Find([]string{choice})
	if err != nil {
		return clierr.Wrap(clierr.CodeInternal, "find command", err)
	}
	s.lastCommand = trimRootPath(construct.CommandPath())
	return construct.RunE(construct, nil)
}

func newVersionCommand() *cobra.Command {
	var long bool
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print CLI version",
		Run: func(cmd *cobra.Command, args []string) {
			if long {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), version.Long())
				return
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), version.CLIVersion)
		},
	}
	cmd.Flags().BoolVar(&long, "long", false, "Print extended build metadata")
	return cmd
}

func (s *runtimeState) newSchemaCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "schema [command path]",
		Short: "Print machine-readable command schema",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := schema.Build(s.root, strings.Join(args, " "))
			if err != nil {
				return clierr.Wrap(clierr.CodeUsage, "build schema", err)
			}
			return s.emitSuccess(trimRootPath(cmd.CommandPath()), data, nil, model.EnvelopeMeta{})
		},
	}
}

// valueSource picks how missing values are obtained for this invocation.
func (s *runtimeState) valueSource() resolve.ValueSource {
	if s.settings.NoInput || s.runner.prompter == nil {
		return resolve.NoInputSource{}
	}
	return s.runner.prompter()
}

func (s *runtimeState) rpcClients() execution.ClientFactory {
	if s.runner.clients != nil {
		return s.runner.clients
	}
	query := httpx.New(s.settings.Timeout, s.settings.Retries)
	submit := httpx.New(s.settings.Timeout, 0)
	return func(rpcURL string) rpc.Client {
		return rpc.NewHTTPClient(rpcURL, query, submit)
	}
}

func (s *runtimeState) setupLogging() {
	w := s.runner.stderr
	color := false
	if f, ok := w.(*os.File); ok {
		color = isatty.IsTerminal(f.Fd())
	}
	log.SetDefault(log.NewLogger(log.NewTerminalHandlerWithLevel(w, logLevel(s.settings.LogLevel), color)))
}

func logLevel(name string) slog.Level {
	switch name {
	case "debug":
		return log.LevelDebug
	case "info":
		return log.LevelInfo
	case "error":
		return log.LevelError
	default:
		return log.LevelWarn
	}
}

func (s *runtimeState) emitSuccess(commandPath string, data any, warnings []string, meta model.EnvelopeMeta) error {
	meta.RequestID = newRequestID()
	meta.Timestamp = s.runner.now().UTC()
	meta.Command = commandPath
	if meta.Cache.Status == "" {
		meta.Cache = cacheMetaBypass()
	}
	env := model.Envelope{
		Version:  model.EnvelopeVersion,
		Success:  true,
		Data:     data,
		Error:    nil,
		Warnings: warnings,
		Meta:     meta,
	}
	return out.Render(s.runner.stdout, env, s.settings)
}

// captureFailure keeps what a failing command produced so the error envelope
// can still carry it.
func (s *runtimeState) captureFailure(data any, warnings []string, meta model.EnvelopeMeta) {
	s.lastData = data
	s.lastWarnings = append([]string(nil), warnings...)
	s.lastMeta = meta
}

func (s *runtimeState) renderError(err error) {
	commandPath := s.lastCommand
	if commandPath == "" {
		commandPath = version.CLIName
	}
	code := clierr.ExitCode(err)
	message := err.Error()

	settings := s.settings
	if settings.OutputMode == "" {
		settings.OutputMode = "json"
	}
	settings.ResultsOnly = false
	settings.SelectFields = nil

	data := s.lastData
	if data == nil {
		data = []any{}
	}
	meta := s.lastMeta
	meta.RequestID = newRequestID()
	meta.Timestamp = s.runner.now().UTC()
	meta.Command = commandPath
	meta.Cache = cacheMetaBypass()
	env := model.Envelope{
		Version: model.EnvelopeVersion,
		Success: false,
		Data:    data,
		Error: &model.ErrorBody{
			Code:    code,
			Type:    clierr.TypeName(clierr.Code(code)),
			Message: message,
		},
		Warnings: s.lastWarnings,
		Meta:     meta,
	}
	_ = out.Render(s.runner.stderr, env, settings)
}

func newRequestID() string {
	buf := make([]byte, 16)
	_, _ = rand.Read(buf)
	return hex.EncodeToString(buf)
}

func trimRootPath(path string) string {
	parts := strings.Fields(path)
	if len(parts) <= 1 {
		return path
	}
	return strings.Join(parts[1:], " ")
}

func cacheMetaBypass() model.CacheStatus {
	return model.CacheStatus{Status: "bypass", AgeMS: 0, Stale: false}
}

func cacheMetaMiss() model.CacheStatus {
	return model.CacheStatus{Status: "miss", AgeMS: 0, Stale: false}
}

func normalizeRunError(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := clierr.As(err); ok {
		return err
	}
	if isLikelyUsageError(err) {
		return clierr.Wrap(clierr.CodeUsage, "invalid command input", err)
	}
	return clierr.Wrap(clierr.CodeInternal, "execute command", err)
}

func isLikelyUsageError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(strings.TrimSpace(err.Error()))
	patterns := []string{
		"unknown command",
		"unknown flag",
		"required flag(s)",
		"flag needs an argument",
		"requires at least",
		"requires exactly",
		"accepts ",
		"invalid argument",
		"invalid args",
	}
	for _, p := range patterns {
		if strings.Contains(msg, p) {
			return true
		}
	}
	return false
}

func shouldOpenCache(commandPath string) bool {
	return normalizeCommandPath(commandPath) == "keys list"
}

func shouldOpenStore(commandPath string) bool {
	switch normalizeCommandPath(commandPath) {
	case version.CLIName, "construct-transaction", "tx list", "tx show", "tx resubmit":
		return true
	default:
		return false
	}
}

func normalizeCommandPath(commandPath string) string {
	return strings.Join(strings.Fields(strings.ToLower(strings.TrimSpace(commandPath))), " ")
}
