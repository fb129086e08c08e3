package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/pfrederiksen/rec-schedule/internal/config"
	"github.com/pfrederiksen/rec-schedule/internal/logger"
	"github.com/pfrederiksen/rec-schedule/internal/manifest"
	"github.com/pfrederiksen/rec-schedule/internal/parser"
	"github.com/pfrederiksen/rec-schedule/internal/storage"
)

const (
	ExitSuccess = 0
	ExitError   = 1
	// ExitChanges is returned by scrape --exit-code when stored days changed
	ExitChanges = 2
)

// exitError carries a non-standard exit code out of a command
type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return fmt.Sprintf("exit status %d", e.code)
}

// app holds the state shared by all commands of one invocation
type app struct {
	configPath string
	dataDir    string
	backend    string
	format     string
	verbose    bool

	cfg    *config.Config
	now    func() time.Time
	stdout io.Writer
}

// NewRootCmd creates the root command with all subcommands
func NewRootCmd() *cobra.Command {
	a := &app{now: time.Now}

	cmd := &cobra.Command{
		Use:   "rec-schedule",
		Short: "Turn recreation center class schedules into structured data",
		Long: `A CLI tool that extracts recreation center class schedules from the rendered
schedule page (or a saved export) into per-day JSON records, and maintains
weekly and master manifests across runs.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&a.configPath, "config", config.DefaultPath, "Path to the YAML config file")
	flags.StringVar(&a.dataDir, "data-dir", "", "Data directory for the file backend (overrides config)")
	flags.StringVar(&a.backend, "backend", "", "Storage backend: file, s3, gist or memory (overrides config)")
	flags.StringVar(&a.format, "format", "text", "Output format: text or json")
	flags.BoolVar(&a.verbose, "verbose", false, "Enable verbose logging")

	cmd.AddCommand(
		newParseCmd(a),
		newScrapeCmd(a),
		newShowCmd(a),
		newManifestCmd(a),
		newICSCmd(a),
		newWatchCmd(a),
		newConfigCmd(a),
	)

	return cmd
}

// setup loads configuration, applies flag overrides and configures logging
func (a *app) setup(cmd *cobra.Command) error {
	format := OutputFormat(strings.ToLower(a.format))
	if format != FormatText && format != FormatJSON {
		return fmt.Errorf("invalid format: %s (must be 'text' or 'json')", a.format)
	}
	a.format = string(format)

	cfg, err := config.Load(a.configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if a.dataDir != "" {
		cfg.Storage.DataDir = a.dataDir
	}
	if a.backend != "" {
		cfg.Storage.Backend = a.backend
		cfg.Normalize()
		if cfg.Storage.Backend != a.backend {
			return fmt.Errorf("invalid backend: %s (must be 'file', 's3', 'gist' or 'memory')", a.backend)
		}
	}
	// config init and show must still work on a broken file
	if !isConfigCmd(cmd) {
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid config %s: %w", a.configPath, err)
		}
	}
	a.cfg = cfg
	a.stdout = cmd.OutOrStdout()
	if loc, err := cfg.Location(); err == nil {
		a.now = func() time.Time { return time.Now().In(loc) }
	}

	level := logger.ParseLevel(cfg.LogLevel)
	if a.verbose {
		level = logger.LevelDebug
	}
	logger.SetDefault(logger.New(level, cmd.ErrOrStderr()))

	return nil
}

func isConfigCmd(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Name() == "config" && c.HasParent() {
			return true
		}
	}
	return false
}

func (a *app) outputFormat() OutputFormat {
	return OutputFormat(a.format)
}

// newParser builds a parser from config, with an optional reference date for
// year inference
func (a *app) newParser(skip int, reference string) (*parser.Parser, error) {
	opts := a.cfg.ParserOptions()
	if skip >= 0 {
		opts.SkipLines = skip
	}
	if reference != "" {
		ref, err := time.Parse("2006-01-02", reference)
		if err != nil {
			return nil, fmt.Errorf("invalid reference date %q: %w", reference, err)
		}
		opts.Now = func() time.Time { return ref }
	}
	return parser.New(opts)
}

// openStore creates the configured document store
func (a *app) openStore(ctx context.Context) (storage.Store, error) {
	switch a.cfg.Storage.Backend {
	case config.BackendS3:
		s3cfg := a.cfg.Storage.S3
		return storage.NewS3Store(ctx, storage.S3Config{
			Bucket:  s3cfg.Bucket,
			Region:  s3cfg.Region,
			Prefix:  s3cfg.Prefix,
			Profile: s3cfg.Profile,
		})
	case config.BackendGist:
		return storage.NewGistStore(a.cfg.Storage.Gist.ID, os.Getenv("GITHUB_TOKEN"))
	case config.BackendMemory:
		return storage.NewMemoryStore(), nil
	default:
		store, err := storage.NewFileStore(a.cfg.Storage.DataDir)
		if err != nil {
			return nil, fmt.Errorf("initializing storage: %w", err)
		}
		return store, nil
	}
}

func (a *app) newAggregator(ctx context.Context) (*manifest.Aggregator, error) {
	store, err := a.openStore(ctx)
	if err != nil {
		return nil, err
	}
	return manifest.NewAggregator(store, a.cfg.Storage.FilePrefix, a.now), nil
}

// readInput returns the contents of a file argument, or stdin for "-" or no argument
func readInput(cmd *cobra.Command, args []string) (string, io.Reader) {
	if len(args) == 0 || args[0] == "-" {
		return "-", cmd.InOrStdin()
	}
	return args[0], nil
}

// Execute runs the CLI and returns the process exit status
func Execute(ctx context.Context) int {
	return exitCode(NewRootCmd().ExecuteContext(ctx), os.Stderr)
}

// exitCode maps a command error to an exit status, reporting unexpected errors to w
func exitCode(err error, w io.Writer) int {
	if err == nil {
		return ExitSuccess
	}
	var exit *exitError
	if errors.As(err, &exit) {
		return exit.code
	}
	fmt.Fprintf(w, "Error: %v\n", err)
	return ExitError
}
