package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/crqscan/pkg/alg/lru"
	"github.com/Sumatoshi-tech/crqscan/pkg/config"
	"github.com/Sumatoshi-tech/crqscan/pkg/docstore"
	"github.com/Sumatoshi-tech/crqscan/pkg/observability"
	"github.com/Sumatoshi-tech/crqscan/pkg/persist"
)

// ErrDocumentNotFound is returned when a requested document is not stored.
var ErrDocumentNotFound = errors.New("document not found")

// DocsCommand holds flags and dependencies for the docs command group.
type DocsCommand struct {
	path       string
	configPath string

	loadConfig configLoader
	initObs    observabilityInit
}

// NewDocsCommand creates the docs command with its article and entity subcommands.
func NewDocsCommand() *cobra.Command {
	return newDocsCommandWithDeps(config.LoadConfig, observability.Init)
}

func newDocsCommandWithDeps(loadConfig configLoader, initObs observabilityInit) *cobra.Command {
	dc := &DocsCommand{loadConfig: loadConfig, initObs: initObs}

	cmd := &cobra.Command{
		Use:   "docs",
		Short: "Show stored articles and entities",
	}

	cmd.PersistentFlags().StringVarP(&dc.path, "path", "p", ".", "Repository root the document directories are relative to")
	cmd.PersistentFlags().StringVar(&dc.configPath, "config", "", "Config file (default .crqscan.yaml in the working directory)")

	cmd.AddCommand(&cobra.Command{
		Use:   "article <title>...",
		Short: "Print stored articles as JSON, one document per title",
		Args:  cobra.MinimumNArgs(1),
		RunE:  dc.runArticle,
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "entity <id>...",
		Short: "Print stored entities as JSON, one document per id",
		Args:  cobra.MinimumNArgs(1),
		RunE:  dc.runEntity,
	})

	return cmd
}

func (dc *DocsCommand) runArticle(cmd *cobra.Command, titles []string) error {
	return dc.run(cmd, func(cfg *config.Config) documentStore {
		store := docstore.NewArticleStore(dc.resolveDir(cfg.Documents.ArticleDir),
			docstore.WithCacheEntries(cfg.Documents.CacheEntries))

		return documentStore{
			kind: "article",
			load: func(title string) (any, bool, error) {
				article, err := store.Load(title)

				return article, article != nil, err
			},
			stats: store.CacheStats,
		}
	}, titles)
}

func (dc *DocsCommand) runEntity(cmd *cobra.Command, ids []string) error {
	return dc.run(cmd, func(cfg *config.Config) documentStore {
		store := docstore.NewEntityStore(dc.resolveDir(cfg.Documents.EntityDir),
			docstore.WithCacheEntries(cfg.Documents.CacheEntries))

		return documentStore{
			kind: "entity",
			load: func(id string) (any, bool, error) {
				entity, err := store.Load(id)

				return entity, entity != nil, err
			},
			stats: store.CacheStats,
		}
	}, ids)
}

// documentStore adapts an article or entity store for printing.
type documentStore struct {
	kind  string
	load  func(key string) (doc any, found bool, err error)
	stats func() lru.Stats
}

func (dc *DocsCommand) run(cmd *cobra.Command, open func(*config.Config) documentStore, keys []string) error {
	cfg, err := dc.config()
	if err != nil {
		return err
	}

	providers, err := dc.initObs(observabilityConfig(cfg))
	if err != nil {
		return fmt.Errorf("init observability: %w", err)
	}

	defer func() {
		shutdownErr := providers.Shutdown(context.WithoutCancel(cmd.Context()))
		if shutdownErr != nil {
			providers.Logger.Warn("observability shutdown failed", "error", shutdownErr)
		}
	}()

	store := open(cfg)

	defer logCacheStats(cmd.Context(), providers.Logger, store)

	for _, key := range keys {
		doc, found, loadErr := store.load(key)
		if loadErr != nil {
			return loadErr
		}

		if !found {
			return fmt.Errorf("%w: %s %q", ErrDocumentNotFound, store.kind, key)
		}

		err = printDocument(cmd, doc)
		if err != nil {
			return err
		}
	}

	return nil
}

func logCacheStats(ctx context.Context, logger *slog.Logger, store documentStore) {
	stats := store.stats()

	logger.DebugContext(ctx, "document cache",
		"kind", store.kind,
		"hits", stats.Hits,
		"misses", stats.Misses,
		"evictions", stats.Evictions,
		"entries", stats.Entries,
		"hit_rate", stats.HitRate(),
	)
}

func (dc *DocsCommand) config() (*config.Config, error) {
	cfg, err := dc.loadConfig(dc.configPath)
	if err != nil {
		return nil, err
	}

	err = cfg.Validate()
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func (dc *DocsCommand) resolveDir(dir string) string {
	if filepath.IsAbs(dir) {
		return dir
	}

	return filepath.Join(dc.path, dir)
}

func printDocument(cmd *cobra.Command, doc any) error {
	err := persist.NewJSONCodec().Encode(cmd.OutOrStdout(), doc)
	if err != nil {
		return fmt.Errorf("print document: %w", err)
	}

	return nil
}
