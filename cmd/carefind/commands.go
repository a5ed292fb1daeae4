package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/poiesic/carefind/config"
	"github.com/poiesic/carefind/ingestion"
	"github.com/poiesic/carefind/reindex"
	"github.com/poiesic/carefind/storage"
	"github.com/urfave/cli/v2"
)

func configCommand() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Manage the configuration file",
		Subcommands: []*cli.Command{
			{
				Name:  "init",
				Usage: "Write a configuration file with default values",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "force",
						Usage: "Overwrite an existing file",
					},
				},
				Action: configInitCommand,
			},
			{
				Name:   "show",
				Usage:  "Print the effective configuration",
				Action: configShowCommand,
			},
		},
	}
}

func configInitCommand(c *cli.Context) error {
	path := c.String("config")
	if _, err := os.Stat(path); err == nil && !c.Bool("force") {
		return fmt.Errorf("config file %s already exists, use --force to overwrite", path)
	}

	cfg, err := config.Default()
	if err != nil {
		return err
	}
	if dir := c.String("data-dir"); dir != "" {
		cfg.DataDir = dir
	}
	if err := cfg.Save(path); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}
	fmt.Fprintf(c.App.Writer, "Wrote %s\n", path)
	return nil
}

func configShowCommand(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	return output(c, cfg, func(w io.Writer) {
		data, err := toml.Marshal(cfg)
		if err != nil {
			fmt.Fprintln(w, err)
			return
		}
		w.Write(data)
	})
}

func ingestCommand() *cli.Command {
	return &cli.Command{
		Name:      "ingest",
		Usage:     "Load JSON or YAML dataset files into the store and index them",
		ArgsUsage: "FILE...",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "pool-size",
				Usage: "Number of concurrent indexing workers (0 uses the configured value)",
			},
		},
		Action: ingestAction,
	}
}

func ingestAction(c *cli.Context) error {
	if c.NArg() == 0 {
		return errors.New("at least one dataset file is required")
	}
	ctx := context.Background()

	db, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	var opts []ingestion.Option
	if n := c.Int("pool-size"); n > 0 {
		opts = append(opts, ingestion.WithPoolSize(n))
	}
	pipeline, err := db.NewIngestionPipeline(opts...)
	if err != nil {
		return fmt.Errorf("failed to create pipeline: %w", err)
	}
	defer pipeline.Release()

	total := &ingestion.Stats{}
	for _, path := range c.Args().Slice() {
		ds, err := ingestion.LoadDataset(path)
		if err != nil {
			return err
		}
		stats, err := pipeline.Ingest(ctx, ds)
		if err != nil {
			return fmt.Errorf("ingesting %s: %w", path, err)
		}
		total.Taxonomies += stats.Taxonomies
		total.Agencies += stats.Agencies
		total.Sites += stats.Sites
		total.Programs += stats.Programs
		total.ProgramServices += stats.ProgramServices
		total.SitePrograms += stats.SitePrograms
		total.Translations += stats.Translations
		total.IndexTasks += stats.IndexTasks
	}

	if err := pipeline.Wait(); err != nil {
		return fmt.Errorf("indexing failed: %w", err)
	}
	return output(c, total, func(w io.Writer) { renderStats(w, total) })
}

func reindexCommand() *cli.Command {
	return &cli.Command{
		Name:  "reindex",
		Usage: "Rebuild the full-text index from the store",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "batch-size",
				Usage: "Number of records written per index call",
				Value: reindex.DefaultBatchSize,
			},
			&cli.IntFlag{
				Name:  "report-interval",
				Usage: "Report progress every N documents",
				Value: 100,
			},
			&cli.IntFlag{
				Name:  "max-retries",
				Usage: "Maximum retry attempts for failed operations",
				Value: 3,
			},
			&cli.DurationFlag{
				Name:  "retry-delay",
				Usage: "Base delay for exponential backoff",
				Value: 1 * time.Second,
			},
		},
		Action: reindexAction,
	}
}

func reindexAction(c *cli.Context) error {
	ctx := context.Background()

	if c.Int("batch-size") <= 0 {
		return fmt.Errorf("batch-size must be greater than 0")
	}
	if c.Int("report-interval") <= 0 {
		return fmt.Errorf("report-interval must be greater than 0")
	}
	if c.Int("max-retries") <= 0 {
		return fmt.Errorf("max-retries must be greater than 0")
	}

	db, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	r, err := db.NewReindexer(c.App.ErrWriter, func(rc *reindex.Config) {
		rc.BatchSize = c.Int("batch-size")
		rc.ReportInterval = c.Int("report-interval")
		rc.MaxRetries = c.Int("max-retries")
		rc.RetryDelay = c.Duration("retry-delay")
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(c.App.ErrWriter, "Data directory: %s\n", db.Config().DataDir)
	fmt.Fprintf(c.App.ErrWriter, "Index: %s\n\n", db.Config().ResolvedIndexPath())

	summary, err := r.Run(ctx)
	if err != nil {
		return fmt.Errorf("reindex failed: %w", err)
	}
	if c.Bool("json") {
		return output(c, summary, nil)
	}
	return nil
}

func taxonomyCommand() *cli.Command {
	return &cli.Command{
		Name:      "taxonomy",
		Usage:     "List active taxonomy names, or look up one code",
		ArgsUsage: "[CODE]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "lang",
				Usage: "Display language",
			},
		},
		Action: taxonomyAction,
	}
}

func taxonomyAction(c *cli.Context) error {
	ctx := context.Background()

	db, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	lang := c.String("lang")
	if code := c.Args().First(); code != "" {
		t, ok, err := db.Taxonomies().ByCode(ctx, lang, code)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("taxonomy %s: %w", code, storage.ErrNotFound)
		}
		return output(c, t, func(w io.Writer) {
			fmt.Fprintf(w, "%s %s\n", headerStyle.Render(t.Code), t.Name)
		})
	}

	names, err := db.Taxonomies().Names(ctx, lang)
	if err != nil {
		return err
	}
	return output(c, names, func(w io.Writer) {
		fmt.Fprintln(w, titleStyle.Render(fmt.Sprintf("%d services", len(names))))
		for _, n := range names {
			fmt.Fprintln(w, n)
		}
	})
}

func trackCommand() *cli.Command {
	return &cli.Command{
		Name:  "track",
		Usage: "Record a user activity event",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "user",
				Usage:    "User id",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "event",
				Usage:    "Event name, e.g. Search.Keyword",
				Required: true,
			},
			&cli.StringSliceFlag{
				Name:  "data",
				Usage: "Event data as key=value, repeatable",
			},
		},
		Action: trackAction,
	}
}

func parseData(pairs []string) (map[string]string, error) {
	data := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || strings.TrimSpace(key) == "" {
			return nil, fmt.Errorf("invalid data %q: expected key=value", pair)
		}
		data[strings.TrimSpace(key)] = value
	}
	return data, nil
}

func trackAction(c *cli.Context) error {
	data, err := parseData(c.StringSlice("data"))
	if err != nil {
		return err
	}

	db, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	activity, err := db.Recorder().Record(context.Background(), c.String("user"), c.String("event"), data)
	if err != nil {
		return err
	}
	return output(c, activity, func(w io.Writer) {
		fmt.Fprintf(w, "Recorded %s %s\n", activity.Event, metaStyle.Render(string(activity.Id)))
	})
}
