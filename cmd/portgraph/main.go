package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/portana/portgraph/internal/app"
	"github.com/portana/portgraph/internal/common"
	"github.com/portana/portgraph/internal/services/loader"
)

func main() {
	var (
		configPath = flag.String("config", "", "path to config file (default: PORTGRAPH_CONFIG or portgraph.toml)")
		etlFile    = flag.String("etl", "", "portfolio CSV file to load, enrich and import into the graph")
		name       = flag.String("name", "", "portfolio name (default: file name stem)")
		samplePath = flag.String("sample", "", "write a sample portfolio CSV to the given path and exit")
		clear      = flag.Bool("clear", false, "clear all graph tables before other actions")
		stats      = flag.Bool("stats", false, "print graph record counts per table")
		query      = flag.String("query", "", "analysis query: sector, country, country-exposure, sector-positions, country-positions, company, total, executives")
		portfolios = flag.String("portfolios", "", "comma-separated portfolio names for analysis queries")
		sector     = flag.String("sector", "", "sector filter for sector-positions")
		country    = flag.String("country", "", "ISO country code for country-exposure and country-positions")
		company    = flag.String("company", "", "company name for the company query")
		ticker     = flag.String("ticker", "", "ticker for the total query")
		version    = flag.Bool("version", false, "print version and exit")
	)
	flag.Parse()

	if *version {
		fmt.Println(common.GetFullVersion())
		return
	}

	if *samplePath != "" {
		if err := loader.WriteSampleCSV(*samplePath); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to write sample CSV: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Sample portfolio written to %s\n", *samplePath)
		return
	}

	a, err := app.NewApp(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize: %v\n", err)
		os.Exit(1)
	}
	defer a.Close()

	ctx := context.Background()

	if *clear {
		if err := a.Store.ClearGraph(ctx); err != nil {
			a.Logger.Fatal().Err(err).Msg("failed to clear graph")
		}
		fmt.Println("Graph cleared")
	}

	if *etlFile != "" {
		runETL(ctx, a, *etlFile, *name)
	}

	if *query != "" {
		runQuery(ctx, a, *query, splitNames(*portfolios), *sector, *country, *company, *ticker)
	}

	if *stats {
		counts, err := a.Store.DatabaseStats(ctx)
		if err != nil {
			a.Logger.Fatal().Err(err).Msg("failed to read graph stats")
		}
		printJSON(counts)
	}

	if !*clear && *etlFile == "" && *query == "" && !*stats {
		flag.Usage()
		os.Exit(2)
	}
}

func runETL(ctx context.Context, a *app.App, file, name string) {
	if a.Pipeline == nil {
		fmt.Fprintln(os.Stderr, "ETL requires FactSet credentials (FDS_USERNAME / FDS_API_KEY)")
		os.Exit(1)
	}

	portfolio, statements, pipelineStats, err := a.Pipeline.Execute(ctx, file, name)
	if err != nil {
		a.Logger.Error().Err(err).Msg("pipeline failed")
		printJSON(pipelineStats)
		os.Exit(1)
	}

	executed, errs := a.Store.ExecuteBatch(ctx, statements)
	for _, msg := range errs {
		pipelineStats.AddError("graph import: %s", msg)
	}

	a.Logger.Info().
		Str("portfolio", portfolio.Name).
		Int("statements", len(statements)).
		Int("executed", executed).
		Msg("graph import complete")
	printJSON(pipelineStats)
}

func runQuery(ctx context.Context, a *app.App, query string, portfolios []string, sector, country, company, ticker string) {
	var result any
	var err error

	switch query {
	case "sector":
		result, err = a.Analysis.SectorExposure(ctx, portfolios)
	case "country":
		result, err = a.Analysis.CountryBreakdown(ctx, portfolios)
	case "country-exposure":
		result, err = a.Analysis.CountryExposure(ctx, portfolios, country)
	case "sector-positions":
		result, err = a.Analysis.SectorPositions(ctx, portfolios, sector)
	case "country-positions":
		result, err = a.Analysis.CountryPositions(ctx, portfolios, country)
	case "company":
		result, err = a.Analysis.CompanyExposure(ctx, portfolios, company)
	case "total":
		result, err = a.Analysis.TotalCompanyExposure(ctx, portfolios, ticker)
	case "executives":
		result, err = a.Analysis.ExecutiveLookup(ctx, portfolios)
	default:
		fmt.Fprintf(os.Stderr, "Unknown query %q\n", query)
		os.Exit(2)
	}

	if err != nil {
		a.Logger.Fatal().Err(err).Str("query", query).Msg("query failed")
	}
	printJSON(result)
}

func splitNames(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func printJSON(v any) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to encode output: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(string(data))
}
