package main

import (
	"database/sql"
	"flag"
	"fmt"
	"os"

	_ "github.com/lib/pq"

	"github.com/chilagrow/documentdb/internal/catalog"
	"github.com/chilagrow/documentdb/internal/config"
	"github.com/chilagrow/documentdb/internal/errors"
	"github.com/chilagrow/documentdb/internal/feature"
	"github.com/chilagrow/documentdb/internal/log"
	"github.com/chilagrow/documentdb/internal/query/executor"
	"github.com/chilagrow/documentdb/internal/query/filter"
	"github.com/chilagrow/documentdb/internal/query/planner"
	"github.com/chilagrow/documentdb/internal/query/types"
)

var (
	version = "0.1.0"
	commit  = "unknown"
)

func main() {
	var (
		configFile  = flag.String("config", "", "Path to configuration file")
		showVersion = flag.Bool("version", false, "Show version information")
		showFlags   = flag.Bool("flags", false, "Show feature flag states")
		dsn         = flag.String("dsn", "", "Postgres DSN; EXPLAINs the rendered SQL against a live server")
		execute     = flag.Bool("exec", false, "Run the plan against the demo store and print the results")
		fanout      = flag.Int("fanout", 0, "Largest $in list answered by one scan (0 keeps the configured value)")
		logLevel    = flag.String("log-level", "", "Log level (debug, info, warn, error)")
		trace       = flag.Bool("trace", false, "Log every rewrite decision at debug level")
	)

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: docplan [options] <filter>\n\n")
		fmt.Fprintf(os.Stderr, "Compiles a document filter against the demo catalog, explains the\n")
		fmt.Fprintf(os.Stderr, "chosen access paths, and renders the SQL the plan lowers to.\n\n")
		fmt.Fprintf(os.Stderr, "Examples:\n")
		fmt.Fprintf(os.Stderr, "  docplan '{\"sku\": \"A-7\"}'\n")
		fmt.Fprintf(os.Stderr, "  docplan -exec '{\"category\": {\"$in\": [\"espresso\", \"filter\"]}}'\n")
		fmt.Fprintf(os.Stderr, "  docplan '{\"$text\": {\"$search\": \"espresso\"}}'\n\n")
		flag.PrintDefaults()
	}

	flag.Parse()

	if *showVersion {
		fmt.Printf("docplan v%s (commit: %s)\n", version, commit)
		os.Exit(0)
	}
	if *showFlags {
		fmt.Print(feature.DebugString())
		os.Exit(0)
	}

	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(1)
	}

	// Load configuration
	var cfg *config.Config
	if *configFile != "" {
		var err error
		cfg, err = config.LoadFromFile(*configFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load config file: %v\n", err)
			os.Exit(1)
		}
	} else {
		cfg = config.DefaultConfig()
	}

	// Override config with command-line flags
	cfg.LoadFromFlags(*dsn, *logLevel, *fanout)
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger := log.Configure(log.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	if *trace {
		feature.Enable(feature.RewriteTracing)
	}

	if err := run(cfg, logger, flag.Arg(0), *execute); err != nil {
		fmt.Fprintf(os.Stderr, "docplan: %v\n", err)
		os.Exit(1)
	}
}

// run compiles the filter against the demo catalog, prints the plan and
// its SQL rendering, and optionally executes or EXPLAINs it.
func run(cfg *config.Config, logger log.Logger, rawFilter string, execute bool) error {
	cat := catalog.NewMemoryCatalog()
	coll, err := demoCatalog(cat)
	if err != nil {
		return fmt.Errorf("failed to build demo catalog: %w", err)
	}

	// Loading the demo store up front gives the catalog real document
	// counts before the compile consults it.
	var stats catalog.StatsWriter
	if cfg.Executor.EnableStatistics {
		stats = cat
	}
	store := executor.NewStore(stats)
	docs, err := demoDocs()
	if err != nil {
		return fmt.Errorf("failed to parse demo documents: %w", err)
	}
	if err := store.Load(coll, docs); err != nil {
		return fmt.Errorf("failed to load demo store: %w", err)
	}

	preds, err := filter.Compile(rawFilter, types.Path(cfg.Catalog.DefaultPrimaryKeyPath))
	if err != nil {
		return describeFailure("filter", err)
	}

	compiler := planner.NewCompiler(cat, cfg.Planner, logger)
	plan, err := compiler.Compile(&planner.Statement{
		Database:        demoDatabase,
		Collection:      demoCollection,
		Predicates:      preds,
		RuntimeTextScan: cfg.Planner.ForceRuntimeTextScan,
	})
	if err != nil {
		return describeFailure("compile", err)
	}

	fmt.Print(planner.ExplainPlan(plan))
	fmt.Println("SQL:")
	fmt.Println(planner.RenderSQL(plan))

	if execute {
		exec := executor.NewExecutor(store, cfg.Executor, logger)
		out, runStats, err := exec.Run(plan)
		if err != nil {
			return describeFailure("execute", err)
		}
		fmt.Println("Results:")
		for _, doc := range out {
			fmt.Printf("  %s\n", doc)
		}
		fmt.Printf("Stats: scanned=%d rechecks=%d returned=%d\n",
			runStats.DocsScanned, runStats.Rechecks, runStats.DocsReturned)
	}

	if cfg.DSN != "" {
		if err := explainOnServer(cfg.DSN, planner.RenderSQL(plan)); err != nil {
			return describeFailure("explain", err)
		}
	}
	return nil
}

// describeFailure keeps the error code visible for coded failures.
func describeFailure(stage string, err error) error {
	if derr, ok := err.(*errors.Error); ok {
		return fmt.Errorf("%s: [%s] %w", stage, derr.Code, err)
	}
	return fmt.Errorf("%s: %w", stage, err)
}

// explainOnServer submits the rendered SQL to a live Postgres server and
// prints the plan it produces. The target must carry the DocumentDB
// schema the rendering assumes.
func explainOnServer(dsn, query string) error {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return fmt.Errorf("failed to open connection: %w", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to ping server: %w", err)
	}

	rows, err := db.Query("EXPLAIN " + query)
	if err != nil {
		return fmt.Errorf("server rejected the statement: %w", err)
	}
	defer rows.Close()

	fmt.Println("Server plan:")
	for rows.Next() {
		var line string
		if err := rows.Scan(&line); err != nil {
			return err
		}
		fmt.Printf("  %s\n", line)
	}
	return rows.Err()
}
