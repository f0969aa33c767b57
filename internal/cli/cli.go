package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	sonic "github.com/bytedance/sonic"
	"github.com/spf13/cobra"

	"github.com/riskibarqy/fixture-scout/internal/app"
	"github.com/riskibarqy/fixture-scout/internal/config"
	"github.com/riskibarqy/fixture-scout/internal/platform/logging"
	"github.com/riskibarqy/fixture-scout/internal/usecase"
)

const (
	ExitSuccess = 0
	ExitError   = 1
	// ExitEmpty means the run finished but at least one competition produced no round.
	ExitEmpty = 2
)

// Discoverer is the slice of the discovery service the CLI drives.
type Discoverer interface {
	Discover(ctx context.Context, code string, limit int) (usecase.Discovery, error)
	RefreshAll(ctx context.Context, codes []string) (usecase.RefreshResult, error)
}

// BuildFunc assembles a Discoverer and the function releasing its resources.
type BuildFunc func(ctx context.Context, cfg config.Config, logger *logging.Logger) (Discoverer, func() error, error)

type options struct {
	limit      int
	configFile string
	all        bool
	verbose    bool
	compact    bool
}

// CodeError carries a process exit code out of a command run.
type CodeError struct {
	Code int
	Err  error
}

func (e *CodeError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("exit code %d", e.Code)
	}
	return e.Err.Error()
}

func (e *CodeError) Unwrap() error {
	return e.Err
}

// NewRootCmd creates the discover command backed by the real pipeline.
func NewRootCmd() *cobra.Command {
	return newRootCmd(buildComponents)
}

func newRootCmd(build BuildFunc) *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:   "discover <code>",
		Short: "Discover the upcoming round of fixtures for a competition",
		Long: `Discover fetches the configured source pages of a competition, extracts
fixture rows and prints the selected upcoming round as JSON.
With --all every configured competition (or the codes given) is refreshed.`,
		Args: func(cmd *cobra.Command, args []string) error {
			if opts.all {
				return nil
			}
			if len(args) != 1 {
				return fmt.Errorf("expected exactly one competition code, got %d", len(args))
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, args, opts, build)
		},
	}

	cmd.Flags().IntVar(&opts.limit, "limit", 0, "Maximum fixtures to print (0 prints the whole round)")
	cmd.Flags().StringVar(&opts.configFile, "config", "", "Competitions YAML file (overrides COMPETITIONS_FILE)")
	cmd.Flags().BoolVar(&opts.all, "all", false, "Refresh every configured competition, or the codes given")
	cmd.Flags().BoolVar(&opts.verbose, "verbose", false, "Enable debug logging on stderr")
	cmd.Flags().BoolVar(&opts.compact, "compact", false, "Print single-line JSON")

	return cmd
}

func run(cmd *cobra.Command, args []string, opts *options, build BuildFunc) error {
	if opts.limit < 0 {
		return fmt.Errorf("--limit must be >= 0")
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if path := strings.TrimSpace(opts.configFile); path != "" {
		cfg.CompetitionsFile = path
	}

	level := cfg.LogLevel
	if opts.verbose {
		level = logging.LevelDebug
	}
	logger := logging.NewConsole(level)
	defer func() { _ = logger.Sync() }()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	discoverer, closeFn, err := build(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("building pipeline: %w", err)
	}
	defer func() {
		if err := closeFn(); err != nil {
			logger.Warn("close pipeline", "error", err)
		}
	}()

	out := cmd.OutOrStdout()
	if opts.all {
		return runRefresh(ctx, out, discoverer, args, opts)
	}
	return runDiscover(ctx, out, discoverer, args[0], opts, logger)
}

func runDiscover(ctx context.Context, out io.Writer, discoverer Discoverer, code string, opts *options, logger *logging.Logger) error {
	discovery, err := discoverer.Discover(ctx, code, opts.limit)
	if err != nil {
		var emptyErr *usecase.DiscoveryError
		if !errors.As(err, &emptyErr) {
			return fmt.Errorf("discovering %s: %w", code, err)
		}
		logger.Warn("no fixtures discovered",
			"competition", emptyErr.Competition,
			"variants", len(emptyErr.Diagnostics.Variants),
		)
		if writeErr := writeJSON(out, discovery, opts.compact); writeErr != nil {
			return fmt.Errorf("writing output: %w", writeErr)
		}
		return &CodeError{Code: ExitEmpty, Err: err}
	}

	if err := writeJSON(out, discovery, opts.compact); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}
	return nil
}

func runRefresh(ctx context.Context, out io.Writer, discoverer Discoverer, codes []string, opts *options) error {
	result, err := discoverer.RefreshAll(ctx, codes)
	if err != nil {
		return fmt.Errorf("refreshing competitions: %w", err)
	}
	if err := writeJSON(out, result, opts.compact); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}
	if result.EmptyCount > 0 || result.FailedCount > 0 {
		return &CodeError{
			Code: ExitEmpty,
			Err:  fmt.Errorf("%d of %d competitions produced no round", result.EmptyCount+result.FailedCount, result.CompetitionCount),
		}
	}
	return nil
}

func writeJSON(w io.Writer, v any, compact bool) error {
	var (
		data []byte
		err  error
	)
	if compact {
		data, err = sonic.Marshal(v)
	} else {
		data, err = sonic.ConfigStd.MarshalIndent(v, "", "  ")
	}
	if err != nil {
		return err
	}
	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}

func buildComponents(ctx context.Context, cfg config.Config, logger *logging.Logger) (Discoverer, func() error, error) {
	components, err := app.NewComponents(ctx, cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	return components.Discovery, components.Close, nil
}

// Execute runs the CLI and exits the process with its exit code.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := execute(ctx, NewRootCmd(), os.Stderr)
	stop()
	os.Exit(code)
}

func execute(ctx context.Context, cmd *cobra.Command, errOut io.Writer) int {
	err := cmd.ExecuteContext(ctx)
	if err == nil {
		return ExitSuccess
	}

	var exitErr *CodeError
	if errors.As(err, &exitErr) {
		fmt.Fprintf(errOut, "Error: %v\n", exitErr)
		return exitErr.Code
	}
	fmt.Fprintf(errOut, "Error: %v\n", err)
	return ExitError
}
