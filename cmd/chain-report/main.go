// Command chain-report scores a stored or exported option chain snapshot
// and writes the rankings as CSV and Excel reports.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/joho/godotenv"

	"optionrank/internal/config"
	"optionrank/internal/exporter"
	"optionrank/internal/infrastructure"
	"optionrank/internal/pipeline"
	"optionrank/internal/scoring"
	"optionrank/internal/services"
	"optionrank/internal/validation"
	"optionrank/pkg/contracts/domain"
)

type options struct {
	configFile string
	input      string
	symbol     string
	direction  string
	formats    string
	outputDir  string
	baseDir    string
}

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("Failed to load .env file", slog.String("error", err.Error()))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		slog.Error("Chain report failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func parseFlags(args []string) (options, error) {
	var opts options
	fsFlags := flag.NewFlagSet("chain-report", flag.ContinueOnError)
	fsFlags.StringVar(&opts.configFile, "config", "", "YAML configuration file (defaults to $OPTIONRANK_CONFIG or config/optionrank.yaml)")
	fsFlags.StringVar(&opts.input, "input", "", "snapshot JSON file to score")
	fsFlags.StringVar(&opts.symbol, "symbol", "", "score the stored snapshot of this symbol instead of -input")
	fsFlags.StringVar(&opts.direction, "direction", "all", "strategy direction (sell-put, sell-call, buy-put, buy-call or all)")
	fsFlags.StringVar(&opts.formats, "format", "csv,xlsx", "comma separated report formats")
	fsFlags.StringVar(&opts.outputDir, "out", "", "output directory for reports (defaults to data/reports)")
	fsFlags.StringVar(&opts.baseDir, "base", "", "base directory for relative paths (defaults to the executable directory)")
	if err := fsFlags.Parse(args); err != nil {
		return opts, err
	}

	if (opts.input == "") == (opts.symbol == "") {
		return opts, errors.New("exactly one of -input or -symbol is required")
	}
	return opts, nil
}

func run(ctx context.Context, args []string, stdout io.Writer) error {
	opts, err := parseFlags(args)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(opts.configFile)
	if err != nil {
		return err
	}

	logger, err := infrastructure.NewLogger(cfg.Logging, os.Stderr)
	if err != nil {
		return fmt.Errorf("initialize logger: %w", err)
	}

	paths, err := config.ResolvePaths(cfg.Paths, opts.baseDir)
	if err != nil {
		return fmt.Errorf("resolve paths: %w", err)
	}
	if opts.outputDir != "" {
		abs, err := filepath.Abs(opts.outputDir)
		if err != nil {
			return fmt.Errorf("resolve output directory: %w", err)
		}
		paths.ReportsDir = abs
	}
	files := validation.NewFileValidator(logger)
	if err := files.ValidateOutputDirectory(paths.ReportsDir); err != nil {
		return err
	}

	formats, err := parseFormats(opts.formats)
	if err != nil {
		return err
	}

	scorer, err := scoring.NewScorer(cfg.Engine.ScoringParams())
	if err != nil {
		return fmt.Errorf("invalid engine configuration: %w", err)
	}
	store := services.NewChainStore(paths, logger)
	svc := services.NewScoringService(
		pipeline.New(scorer, logger, pipeline.Options{MaxConcurrency: cfg.Engine.MaxConcurrency}),
		store, cfg.Engine, logger)

	var snap *domain.ChainSnapshot
	if opts.input != "" {
		if err := files.ValidateSnapshotFile(opts.input); err != nil {
			return err
		}
		snap, err = store.ReadFile(opts.input)
	} else {
		if n, cerr := files.CountSnapshots(paths.ChainsDir); cerr == nil {
			logger.DebugContext(ctx, "stored chains", slog.Int("count", n))
		}
		snap, err = svc.Fetch(ctx, opts.symbol, time.Time{})
	}
	if err != nil {
		return fmt.Errorf("load chain: %w", err)
	}
	logger.InfoContext(ctx, "chain loaded",
		slog.String("symbol", snap.Symbol),
		slog.Int("contracts", len(snap.Contracts)))

	results, err := score(ctx, svc, snap, opts.direction)
	if err != nil {
		return err
	}

	written, err := exporter.NewReportExporter(paths, logger).Export(ctx, results, formats...)
	if err != nil {
		return fmt.Errorf("export report: %w", err)
	}

	printSummary(stdout, results)
	for _, f := range written {
		fmt.Fprintf(stdout, "wrote %s\n", f)
	}
	return nil
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFile(path)
	}
	return config.Load()
}

func parseFormats(s string) ([]exporter.Format, error) {
	var formats []exporter.Format
	for _, part := range strings.Split(s, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		f, err := exporter.ParseFormat(part)
		if err != nil {
			return nil, err
		}
		formats = append(formats, f)
	}
	if len(formats) == 0 {
		return nil, errors.New("at least one report format is required")
	}
	return formats, nil
}

func score(ctx context.Context, svc *services.ScoringService, snap *domain.ChainSnapshot, direction string) ([]*pipeline.Result, error) {
	if direction == "" || strings.EqualFold(direction, "all") {
		return svc.ScoreAll(ctx, snap, nil)
	}
	d, err := domain.ParseDirection(direction)
	if err != nil {
		return nil, err
	}
	res, err := svc.ScoreChain(ctx, snap, d, nil)
	if err != nil {
		return nil, err
	}
	return []*pipeline.Result{res}, nil
}

func printSummary(out io.Writer, results []*pipeline.Result) {
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "DIRECTION\tTOTAL\tRANKED\tVETOED\tHIGHLIGHTED\tSKIPPED\tFILTERED\tBEST")
	for _, res := range results {
		s := res.Summary
		best := "-"
		if s.Best != nil {
			best = fmt.Sprintf("%s %.2f (%.1f)", s.Best.Contract.Type, s.Best.Contract.Strike, s.Best.Score.RecommendationScore)
		}
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%d\t%d\t%d\t%s\n",
			res.Direction, s.Total, s.Ranked, s.Vetoed, s.Highlighted, s.Skipped, s.Filtered, best)
	}
	_ = tw.Flush()
}
