package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/folioapp/folio/internal/common"
	"github.com/folioapp/folio/internal/interfaces"
	"github.com/folioapp/folio/internal/models"
	"github.com/folioapp/folio/internal/services/compaction"
	"github.com/folioapp/folio/internal/services/pricehistory"
	"github.com/folioapp/folio/internal/services/reconcile"
	"github.com/folioapp/folio/internal/services/reporting"
	"github.com/folioapp/folio/internal/storage"
)

// configPaths is a custom flag type that allows multiple -config flags.
type configPaths []string

func (c *configPaths) String() string {
	return fmt.Sprintf("%v", *c)
}

func (c *configPaths) Set(value string) error {
	*c = append(*c, value)
	return nil
}

var (
	configFiles configPaths
	showVersion = flag.Bool("version", false, "Print version information")
)

func init() {
	flag.Var(&configFiles, "config", "Configuration file path (can be specified multiple times)")
	flag.Var(&configFiles, "c", "Configuration file path (shorthand)")
}

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: folio [flags] <command> [command flags]

Commands:
  import   Reconcile and apply a holdings snapshot file
  compact  Thin stored price history under the retention policy
  report   Value a portfolio with tiered returns

Flags:
`)
	flag.PrintDefaults()
}

func main() {
	flag.Usage = usage
	flag.Parse()

	if *showVersion {
		fmt.Printf("folio version %s\n", common.GetFullVersion())
		os.Exit(0)
	}

	if flag.NArg() == 0 {
		usage()
		os.Exit(2)
	}

	// Auto-discover config file if not specified
	if len(configFiles) == 0 {
		for _, path := range []string{"folio.toml", "config/folio.toml"} {
			if _, err := os.Stat(path); err == nil {
				configFiles = append(configFiles, path)
				break
			}
		}
	}

	cfg, err := common.LoadConfig(configFiles...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger := common.NewLoggerFromConfig(cfg.Logging)
	logger.Info().
		Str("version", common.GetVersion()).
		Str("environment", cfg.Environment).
		Msg("Starting folio")

	store, err := storage.NewStorageManager(logger, cfg)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to initialize storage")
		os.Exit(1)
	}
	defer store.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	prices := pricehistory.NewStore(store, logger)

	var runErr error
	switch flag.Arg(0) {
	case "import":
		runErr = runImport(ctx, cfg, store, prices, logger, flag.Args()[1:])
	case "compact":
		runErr = runCompact(ctx, cfg, store, prices, logger, flag.Args()[1:])
	case "report":
		runErr = runReport(ctx, cfg, store, prices, logger, flag.Args()[1:])
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", flag.Arg(0))
		usage()
		os.Exit(2)
	}

	if runErr != nil {
		logger.Error().Err(runErr).Str("command", flag.Arg(0)).Msg("Command failed")
		os.Exit(1)
	}
}

func runImport(ctx context.Context, cfg *common.Config, store interfaces.StorageManager, prices *pricehistory.Store, logger *common.Logger, args []string) error {
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	portfolio := fs.String("portfolio", cfg.DefaultPortfolio(), "Portfolio to import into")
	dryRun := fs.Bool("dry-run", false, "Reconcile only, write nothing")
	fs.Parse(args)

	if fs.NArg() != 1 {
		return fmt.Errorf("import requires exactly one snapshot file argument")
	}

	file, err := os.Open(fs.Arg(0))
	if err != nil {
		return fmt.Errorf("failed to open snapshot file: %w", err)
	}
	defer file.Close()

	svc := reconcile.NewService(store, prices, logger)
	result, actions, err := svc.Ingest(ctx, *portfolio, file, *dryRun)
	if err != nil {
		return err
	}

	fmt.Printf("Run %s: %d buys, %d sells, %d metadata updates, %d price points, %d errors\n",
		result.RunID, result.Buys, result.Sells, result.MetadataUpdates, result.PricePoints, result.Errors)
	for i := range actions {
		action := &actions[i]
		if action.IsError() {
			fmt.Printf("  line %d %s: %s (%s)\n", action.Line, action.ISIN, action.Message, action.Error)
		}
	}
	return nil
}

func runCompact(ctx context.Context, cfg *common.Config, store interfaces.StorageManager, prices *pricehistory.Store, logger *common.Logger, args []string) error {
	fs := flag.NewFlagSet("compact", flag.ExitOnError)
	isin := fs.String("isin", "", "Compact a single asset (default: all)")
	dryRun := fs.Bool("dry-run", false, "Plan only, delete nothing")
	fs.Parse(args)

	svc := compaction.NewService(store, prices, cfg.Compaction, logger)

	var results []models.CompactionResult
	if *isin != "" {
		result, err := svc.Run(ctx, *isin, *dryRun)
		if err != nil {
			return err
		}
		results = append(results, *result)
	} else {
		var err error
		results, err = svc.RunAll(ctx, *dryRun)
		if err != nil {
			return err
		}
	}

	for _, result := range results {
		verb := "deleted"
		if result.DryRun {
			verb = "would delete"
		}
		fmt.Printf("%s: examined %d, kept %d, %s %d (failed %d)\n",
			result.ISIN, result.Examined, result.Kept, verb, result.Deleted, result.Failed)
	}
	return nil
}

func runReport(ctx context.Context, cfg *common.Config, store interfaces.StorageManager, prices *pricehistory.Store, logger *common.Logger, args []string) error {
	fs := flag.NewFlagSet("report", flag.ExitOnError)
	portfolio := fs.String("portfolio", cfg.DefaultPortfolio(), "Portfolio to report on")
	asOfFlag := fs.String("asof", "", "Valuation date (2006-01-02, default today)")
	asJSON := fs.Bool("json", false, "Emit the report as JSON")
	fs.Parse(args)

	asOf := time.Now().UTC()
	if *asOfFlag != "" {
		parsed, err := time.Parse(common.DateLayout, *asOfFlag)
		if err != nil {
			return fmt.Errorf("invalid asof date %q: %w", *asOfFlag, err)
		}
		asOf = parsed
	}

	svc := reporting.NewService(store, prices, cfg.Returns, logger)
	report, err := svc.Report(ctx, *portfolio, asOf)
	if err != nil {
		return err
	}

	if *asJSON {
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(report)
	}

	fmt.Printf("Portfolio %s as of %s\n", report.PortfolioID, common.DateKey(report.AsOf))
	for _, h := range report.Holdings {
		fmt.Printf("  %-14s %10.2f units  %12s  %s (%s)\n",
			h.Holding.ISIN, h.Holding.Units,
			common.FormatMoney(h.MarketValue),
			common.FormatSignedPct(h.ReturnPct), h.ReturnTier)
	}
	fmt.Printf("Total value %s (cost %s)\n",
		common.FormatMoney(report.TotalValue), common.FormatMoney(report.TotalCost))
	return nil
}
