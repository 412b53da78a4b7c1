// Package commands implements CLI command handlers for crqscan.
package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/crqscan/pkg/checkpoint"
	"github.com/Sumatoshi-tech/crqscan/pkg/config"
	"github.com/Sumatoshi-tech/crqscan/pkg/gitlib"
	"github.com/Sumatoshi-tech/crqscan/pkg/observability"
	"github.com/Sumatoshi-tech/crqscan/pkg/scan"
	"github.com/Sumatoshi-tech/crqscan/pkg/version"
)

type configLoader func(path string) (*config.Config, error)

type observabilityInit func(cfg observability.Config) (observability.Providers, error)

// ScanCommand holds flags and dependencies for the scan command.
type ScanCommand struct {
	path           string
	checkpointPath string
	configPath     string
	logLevel       string
	logJSON        bool
	noColor        bool
	skipVendored   bool

	loadConfig configLoader
	initObs    observabilityInit
}

// NewScanCommand creates the scan command.
func NewScanCommand() *cobra.Command {
	return newScanCommandWithDeps(config.LoadConfig, observability.Init)
}

func newScanCommandWithDeps(loadConfig configLoader, initObs observabilityInit) *cobra.Command {
	sc := &ScanCommand{
		loadConfig: loadConfig,
		initObs:    initObs,
	}

	cmd := &cobra.Command{
		Use:   "scan [path]",
		Short: "Scan commits added since the last run",
		Long: `Scan every commit reachable from HEAD that the checkpoint does not cover yet,
merge the tracking ids, URLs and terms found into the checkpoint and advance it to HEAD.
A failed run leaves the checkpoint file unchanged.`,
		Args: cobra.MaximumNArgs(1),
		RunE: sc.run,
	}

	cmd.Flags().StringVarP(&sc.path, "path", "p", ".", "Repository root to scan")
	cmd.Flags().StringVar(&sc.checkpointPath, "checkpoint", "",
		"Checkpoint file, relative to the repository root unless absolute (default "+checkpoint.DefaultRelativePath+")")
	cmd.Flags().StringVar(&sc.configPath, "config", "", "Config file (default .crqscan.yaml in the working directory)")
	cmd.Flags().StringVar(&sc.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	cmd.Flags().BoolVar(&sc.logJSON, "log-json", false, "Write logs as JSON")
	cmd.Flags().BoolVar(&sc.noColor, "no-color", false, "Disable colored output")
	cmd.Flags().BoolVar(&sc.skipVendored, "skip-vendored", false, "Ignore files in vendored directories")

	return cmd
}

func (sc *ScanCommand) run(cmd *cobra.Command, args []string) error {
	cfg, err := sc.resolveConfig(cmd)
	if err != nil {
		return err
	}

	providers, err := sc.initObs(observabilityConfig(cfg))
	if err != nil {
		return fmt.Errorf("init observability: %w", err)
	}

	defer func() {
		shutdownErr := providers.Shutdown(context.WithoutCancel(cmd.Context()))
		if shutdownErr != nil {
			providers.Logger.Warn("observability shutdown failed", "error", shutdownErr)
		}
	}()

	root, err := filepath.Abs(sc.resolvePath(args))
	if err != nil {
		return fmt.Errorf("resolve path: %w", err)
	}

	summary, storePath, err := runScan(cmd.Context(), root, cfg, providers)
	if err != nil {
		return err
	}

	return renderSummary(cmd.OutOrStdout(), summary, storePath, sc.noColor)
}

func (sc *ScanCommand) resolvePath(args []string) string {
	if len(args) > 0 {
		return args[0]
	}

	return sc.path
}

// resolveConfig loads the config file and applies the flags the user set explicitly.
func (sc *ScanCommand) resolveConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := sc.loadConfig(sc.configPath)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()

	if flags.Changed("checkpoint") {
		cfg.Checkpoint.Path = sc.checkpointPath
	}

	if flags.Changed("log-level") {
		cfg.Logging.Level = sc.logLevel
	}

	if flags.Changed("log-json") {
		cfg.Logging.Format = config.LogFormatText
		if sc.logJSON {
			cfg.Logging.Format = config.LogFormatJSON
		}
	}

	if flags.Changed("skip-vendored") {
		cfg.Scan.SkipVendored = sc.skipVendored
	}

	err = cfg.Validate()
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func runScan(
	ctx context.Context, root string, cfg *config.Config, providers observability.Providers,
) (*scan.Summary, string, error) {
	repo, err := gitlib.OpenRepository(root)
	if err != nil {
		return nil, "", err
	}
	defer repo.Free()

	store := checkpoint.NewStore(checkpoint.PathFor(root, cfg.Checkpoint.Path))

	metrics, err := observability.NewScanMetrics(providers.Meter)
	if err != nil {
		return nil, "", fmt.Errorf("create scan metrics: %w", err)
	}

	logger := providers.Logger.With(slog.String("repository", root))

	scanner := scan.New(repo, store,
		scan.WithLogger(logger),
		scan.WithTracer(providers.Tracer),
		scan.WithMetrics(metrics),
		scan.WithDiffOptions(gitlib.DiffOptions{SkipVendored: cfg.Scan.SkipVendored}),
	)

	summary, err := scanner.Run(ctx)
	if err != nil {
		var stageErr *scan.StageError
		if errors.As(err, &stageErr) && stageErr.State == scan.StatePersisting {
			return nil, "", fmt.Errorf("%w (checkpoint %s left unchanged)", err, store.Path())
		}

		return nil, "", err
	}

	return summary, store.Path(), nil
}

func observabilityConfig(cfg *config.Config) observability.Config {
	obsCfg := observability.DefaultConfig()
	obsCfg.ServiceVersion = version.Version
	obsCfg.Environment = cfg.Telemetry.Environment
	obsCfg.OTLPEndpoint = cfg.Telemetry.OTLPEndpoint
	obsCfg.OTLPInsecure = cfg.Telemetry.OTLPInsecure
	obsCfg.OTLPHeaders = observability.ParseOTLPHeaders(cfg.Telemetry.OTLPHeaders)
	obsCfg.SampleRatio = cfg.Telemetry.SampleRatio
	obsCfg.LogJSON = cfg.Logging.Format == config.LogFormatJSON

	// Validate has already accepted the level.
	obsCfg.LogLevel, _ = observability.ParseLogLevel(cfg.Logging.Level)

	obsCfg.LogFile = observability.LogFileConfig{
		Path:       cfg.Logging.File,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
		Compress:   cfg.Logging.Compress,
	}

	return obsCfg
}
