package cli

import (
	"context"
	"fmt"

	"locforge/internal/api"
	"locforge/internal/cache"
	"locforge/internal/config"
	"locforge/internal/translate"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// runFlags are the translation settings shared by translate and batch.
type runFlags struct {
	sourceLang string
	targetLang string
	glossary   string
	async      bool
	overwrite  bool
}

func (f *runFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.targetLang, "target-lang", "t", "", "Target language (default: LOCFORGE_TARGET_LANG)")
	cmd.Flags().StringVarP(&f.sourceLang, "source-lang", "s", "", "Source language (default: LOCFORGE_SOURCE_LANG)")
	cmd.Flags().StringVarP(&f.glossary, "glossary", "g", "", "Glossary ID to apply")
	cmd.Flags().BoolVar(&f.async, "async", false, "Submit the translation as a background task")
	cmd.Flags().BoolVar(&f.overwrite, "overwrite", false, "Retranslate entries that already have a translation")
}

// options resolves the flags against cfg and validates the result.
func (f *runFlags) options(cfg *config.Config) (translate.Options, error) {
	if f.sourceLang != "" {
		cfg.SourceLang = f.sourceLang
	}
	target := f.targetLang
	if target == "" {
		target = cfg.TargetLang
	}
	if err := cfg.Validate(target); err != nil {
		return translate.Options{}, err
	}
	source, _ := config.ParseLanguage(cfg.SourceLang)
	target, _ = config.ParseLanguage(target)

	return translate.Options{
		SourceLang:     source,
		TargetLang:     target,
		GlossaryID:     f.glossary,
		Overwrite:      f.overwrite,
		Async:          f.async,
		AsyncThreshold: cfg.AsyncThreshold,
		BatchSize:      cfg.BatchSize,
		Workers:        cfg.WorkerCount,
		PollInterval:   cfg.PollInterval,
		OnTaskProgress: logTaskProgress,
	}, nil
}

func translateCmd() *cobra.Command {
	var (
		flags  runFlags
		output string
	)

	cmd := &cobra.Command{
		Use:   "translate <file>",
		Short: "Translate a single localization file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			opts, err := flags.options(cfg)
			if err != nil {
				return err
			}

			ctx, cancel := setupContext()
			defer cancel()

			store, closeStore, err := openCache(ctx, cfg)
			if err != nil {
				return err
			}
			defer closeStore()

			f, err := readFile(args[0])
			if err != nil {
				return err
			}

			svc := translate.NewService(newClient(cfg), store)
			res, err := svc.TranslateFile(ctx, f, opts)
			if err != nil {
				return err
			}

			dest := outputPath(args[0], output, opts.TargetLang)
			if err := writeOutput(dest, res.Content); err != nil {
				return err
			}

			log.Info().
				Str("output", dest).
				Int("entries", res.Stats.Entries).
				Int("unique", res.Stats.Unique).
				Int("cached", res.Stats.Cached).
				Int("translated", res.Stats.Translated).
				Int("missing", res.Stats.Missing).
				Msg("Translation complete")
			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output path (default: <name>.<target-lang>.<ext>)")

	return cmd
}

func batchCmd() *cobra.Command {
	var (
		flags   runFlags
		workers int
	)

	cmd := &cobra.Command{
		Use:   "batch <in-dir> <out-dir>",
		Short: "Translate every supported file in a directory tree",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			opts, err := flags.options(cfg)
			if err != nil {
				return err
			}

			ctx, cancel := setupContext()
			defer cancel()

			store, closeStore, err := openCache(ctx, cfg)
			if err != nil {
				return err
			}
			defer closeStore()

			svc := translate.NewService(newClient(cfg), store)
			report, err := svc.TranslateDir(ctx, args[0], args[1], workers, opts)
			if err != nil {
				return err
			}

			for _, fr := range report.Files {
				if fr.Err != nil {
					log.Error().Err(fr.Err).Str("file", fr.Input).Msg("File failed")
				}
			}
			if report.Failed > 0 {
				return fmt.Errorf("%d of %d files failed", report.Failed, len(report.Files))
			}
			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().IntVarP(&workers, "workers", "w", 2, "Number of files translated concurrently")

	return cmd
}

func newClient(cfg *config.Config) *api.Client {
	return api.NewClient(api.Options{
		BaseURL:    cfg.APIURL,
		APIKey:     cfg.APIKey,
		Timeout:    cfg.HTTPTimeout,
		MaxRetries: cfg.MaxRetries,
	})
}

// openCache builds the configured store. Remote backends sit behind an
// in-process memory layer. The returned func releases connections.
func openCache(ctx context.Context, cfg *config.Config) (cache.Store, func(), error) {
	noop := func() {}

	switch cfg.Cache {
	case config.CacheNone:
		return cache.Nop{}, noop, nil

	case config.CacheRedis:
		rc, err := cache.NewRedis(ctx, cfg.RedisURL, cfg.CacheTTL)
		if err != nil {
			return nil, noop, err
		}
		log.Debug().Str("backend", "redis").Msg("Translation cache ready")
		return cache.NewLayered(cache.NewMemory(cfg.CacheTTL), rc), func() { rc.Close() }, nil

	case config.CachePostgres:
		pg, pool, err := cache.NewPostgres(ctx, cfg.DatabaseURL, cfg.CacheTTL)
		if err != nil {
			return nil, noop, err
		}
		if err := pg.Migrate(ctx); err != nil {
			pool.Close()
			return nil, noop, err
		}
		log.Debug().Str("backend", "postgres").Msg("Translation cache ready")
		return cache.NewLayered(cache.NewMemory(cfg.CacheTTL), pg), pool.Close, nil
	}

	return cache.NewMemory(cfg.CacheTTL), noop, nil
}

func logTaskProgress(t *api.Task) {
	log.Info().
		Str("task", t.ID).
		Str("status", string(t.Status)).
		Int("completed", t.Completed).
		Int("total", t.Total).
		Msgf("Task %.0f%% done", t.Progress()*100)
}
