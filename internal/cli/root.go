package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/samvad-hq/shiksha/internal/app"
	"github.com/samvad-hq/shiksha/internal/config"
	"github.com/samvad-hq/shiksha/internal/logger"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

// rt is built before every command and released by run.
var rt *app.Portal

var rootCmd = &cobra.Command{
	Use:   "shiksha",
	Short: "Client for the Shiksha learning portal",
	Long: `shiksha talks to the learning portal API and its AI backend.

Get started:
  shiksha register --email you@example.com --password ...
  shiksha login --email you@example.com --password ...
  shiksha learning-path "become a backend engineer"
  shiksha conferences --domain "machine learning" --paper-type research --format IEEE`,
	Version:           fmt.Sprintf("%s (built %s)", version, buildTime),
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

// Execute runs the root command.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// run executes one command line and releases the runtime afterwards.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	resetFlags(rootCmd)
	rootCmd.SetArgs(args)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)
	err := rootCmd.ExecuteContext(ctx)
	if cerr := teardown(ctx); err == nil {
		err = cerr
	}
	return err
}

// resetFlags restores every flag of cmd and its subcommands to its default so
// values parsed by an earlier run do not leak into the next one.
func resetFlags(cmd *cobra.Command) {
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if !f.Changed {
			return
		}
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	})
	for _, sub := range cmd.Commands() {
		resetFlags(sub)
	}
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

// SetVersion sets the version info.
func SetVersion(v, bt string) {
	version = v
	buildTime = bt
	rootCmd.Version = fmt.Sprintf("%s (built %s)", version, buildTime)
}

func setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := logger.Init(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	logger.DebugObj("shiksha starting", "config", map[string]any{
		"env":          cfg.Env,
		"api_base_url": cfg.APIBaseURL,
		"ai_base_url":  cfg.AIBaseURL,
		"command":      cmd.Name(),
	})

	p, err := app.NewPortal(cmd.Context(), cfg, log)
	if err != nil {
		logger.ErrorObj("failed to initialize portal client", "error", err.Error())
		return err
	}
	rt = p
	return nil
}

func teardown(ctx context.Context) error {
	defer logger.Close()
	if rt == nil {
		return nil
	}
	err := rt.Close(ctx)
	rt = nil
	return err
}

// export hands a result to the configured exporters; failures are reported but
// never fail the command.
func export(cmd *cobra.Command, kind string, input, payload any) {
	if err := rt.Export(cmd.Context(), kind, input, payload); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: export %s: %v\n", kind, err)
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
