package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/poiesic/carefind/core"
	"github.com/poiesic/carefind/facet"
	"github.com/poiesic/carefind/search"
	"github.com/urfave/cli/v2"
)

func queryFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "taxonomies",
			Usage: "Comma-separated taxonomy codes, a trailing * matches a prefix",
		},
		&cli.StringFlag{
			Name:  "zip",
			Usage: "Zip code, recorded with the search for analytics",
		},
		&cli.Float64Flag{
			Name:  "lat",
			Usage: "Latitude of the search origin",
		},
		&cli.Float64Flag{
			Name:  "lng",
			Usage: "Longitude of the search origin",
		},
		&cli.Float64Flag{
			Name:  "radius",
			Usage: "Radius in miles around the origin",
		},
		&cli.StringFlag{
			Name:  "filters",
			Usage: `Facet selection as JSON, e.g. {"Cost.Free": true}`,
		},
		&cli.StringFlag{
			Name:  "lang",
			Usage: "Result language",
		},
		&cli.StringFlag{
			Name:  "user",
			Usage: "User id for analytics",
		},
		&cli.BoolFlag{
			Name:  "taxonomy-index",
			Usage: "Also match text against service names (defaults to the configured value)",
		},
	}
}

// queryFromFlags builds the search input from the query flags and the
// positional search text.
func queryFromFlags(c *cli.Context, defaultTaxonomyIndex bool) (search.Input, search.Options, error) {
	in := search.Input{
		SearchText: strings.Join(c.Args().Slice(), " "),
		Taxonomies: c.String("taxonomies"),
		ZipCode:    c.String("zip"),
		Radius:     c.Float64("radius"),
	}
	if c.IsSet("lat") || c.IsSet("lng") {
		lat, lng := c.Float64("lat"), c.Float64("lng")
		in.Lat, in.Lng = &lat, &lng
	}
	if raw := c.String("filters"); raw != "" {
		filters, err := facet.ParseFilters([]byte(raw))
		if err != nil {
			return in, search.Options{}, err
		}
		in.Filters = filters
	}

	opts := search.Options{
		Language:            c.String("lang"),
		AnalyticsUserID:     c.String("user"),
		SearchTaxonomyIndex: defaultTaxonomyIndex,
	}
	if c.IsSet("taxonomy-index") {
		opts.SearchTaxonomyIndex = c.Bool("taxonomy-index")
	}
	return in, opts, nil
}

func searchCommand() *cli.Command {
	return &cli.Command{
		Name:      "search",
		Usage:     "Search services by text, taxonomy and location",
		ArgsUsage: "[TEXT]",
		Flags: append(queryFlags(),
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Maximum number of results shown (0 for no limit)",
				Value: 20,
			},
		),
		Action: searchAction,
	}
}

func searchAction(c *cli.Context) error {
	ctx := context.Background()

	db, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	in, opts, err := queryFromFlags(c, db.Config().Search.SearchTaxonomyIndex)
	if err != nil {
		return err
	}
	searcher, err := db.NewSearcher()
	if err != nil {
		return err
	}

	resp, err := searcher.Search(ctx, in, opts)
	if err != nil {
		return err
	}
	return output(c, resp, func(w io.Writer) { renderResponse(w, resp, c.Int("limit")) })
}

func facetsCommand() *cli.Command {
	return &cli.Command{
		Name:      "facets",
		Usage:     "Show the facet breakdown of a search",
		ArgsUsage: "[TEXT]",
		Flags:     queryFlags(),
		Action:    facetsAction,
	}
}

func facetsAction(c *cli.Context) error {
	ctx := context.Background()

	db, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	in, opts, err := queryFromFlags(c, db.Config().Search.SearchTaxonomyIndex)
	if err != nil {
		return err
	}
	searcher, err := db.NewSearcher()
	if err != nil {
		return err
	}

	// Facets are computed from a cached result set
	if _, err := searcher.Search(ctx, in, opts); err != nil {
		return err
	}
	summary, err := searcher.FacetsForInput(ctx, in, opts)
	if err != nil {
		return err
	}
	return output(c, summary, func(w io.Writer) { renderSummary(w, summary) })
}

func showCommand() *cli.Command {
	return &cli.Command{
		Name:      "show",
		Usage:     "Show one offering",
		ArgsUsage: "OFFERING_ID",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "lang",
				Usage: "Display language",
			},
		},
		Action: showAction,
	}
}

func showAction(c *cli.Context) error {
	id := c.Args().First()
	if id == "" {
		return fmt.Errorf("offering id is required")
	}

	db, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	searcher, err := db.NewSearcher()
	if err != nil {
		return err
	}
	res, err := searcher.BuildResult(context.Background(), core.ID(id), c.String("lang"))
	if err != nil {
		return err
	}
	return output(c, res, func(w io.Writer) { fmt.Fprintln(w, renderResult(res)) })
}

func suggestCommand() *cli.Command {
	return &cli.Command{
		Name:      "suggest",
		Usage:     "Suggest completions for partially typed search text",
		ArgsUsage: "[TEXT]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "lang",
				Usage: "Suggestion language",
			},
			&cli.StringFlag{
				Name:  "user",
				Usage: "User id, excluded from related searches",
			},
		},
		Action: suggestAction,
	}
}

func suggestAction(c *cli.Context) error {
	db, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	searcher, err := db.NewSearcher()
	if err != nil {
		return err
	}
	text := strings.Join(c.Args().Slice(), " ")
	suggestions, err := searcher.Suggest(context.Background(), text, c.String("user"), c.String("lang"))
	if err != nil {
		return err
	}
	return output(c, suggestions, func(w io.Writer) { renderSuggestions(w, suggestions) })
}
