package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/okian/runboard/internal/adapters/api"
	"github.com/okian/runboard/internal/adapters/filecache"
	"github.com/okian/runboard/internal/adapters/repository"
	"github.com/okian/runboard/internal/app"
	"github.com/okian/runboard/internal/config"
	"github.com/okian/runboard/internal/domain/model"
	"github.com/okian/runboard/internal/process"
	"github.com/okian/runboard/pkg/logger"
	"github.com/okian/runboard/pkg/metrics"
)

const metricsReadHeaderTimeout = 5 * time.Second

func main() {
	var (
		force       = flag.Bool("force", false, "Refresh even when a snapshot exists, subject to the cooldown")
		limit       = flag.Int("limit", 0, "Maximum rows per board, 0 shows everything")
		showAll     = flag.Bool("all", false, "Include obsolete runs in the output")
		metricsAddr = flag.String("metrics-addr", "", "Serve Prometheus metrics on this address while running")
	)
	flag.Parse()

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return
	}

	log := logger.Get()

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		return
	}

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	if *metricsAddr != "" {
		go serveMetrics(ctx, *metricsAddr)
	}

	svc := buildService(cfg, log)

	result, err := svc.Refresh(ctx, *force)
	if err != nil {
		os.Stderr.WriteString("refresh failed: " + err.Error() + "\n")
		os.Exit(1)
	}

	printSummary(result)
	printBoards(result.Rows, *limit, *showAll)
}

// buildService wires the fetch client, repository, processor and
// snapshot service from configuration.
func buildService(cfg *config.Config, log logger.Logger) *app.Service {
	client := api.New(
		api.WithBaseURL(cfg.APIBaseURL),
		api.WithTimeout(time.Duration(cfg.APITimeoutSeconds)*time.Second),
		api.WithPageSize(cfg.APIPageSize),
		api.WithMaxRetries(cfg.MaxRetries),
		api.WithBackoff(time.Duration(cfg.BackoffSeconds*float64(time.Second))),
		api.WithLogger(log.Named("api")),
	)

	repo := repository.New(client, cfg.GameID, cfg.RunsCachePath(),
		repository.WithLogger(log.Named("repository")),
	)

	proc := process.New(client, cfg.GameID, cfg.NoteVarID, cfg.CharacterVarID,
		process.WithCatalogCaches(cfg.CategoryCachePath(), cfg.LevelCachePath()),
		process.WithPlayerCache(cfg.PlayerCachePath()),
		process.WithNoteNames(cfg.NoteNames),
		process.WithCharacterNames(cfg.CharacterNames),
		process.WithLogger(log.Named("process")),
	)

	clock := filecache.NewClock(cfg.LastRefreshPath())

	return app.New(repo, proc, clock, cfg.SnapshotPath(),
		app.WithCooldown(time.Duration(cfg.CooldownSeconds)*time.Second),
		app.WithLogger(log.Named("app")),
	)
}

// serveMetrics exposes the Prometheus endpoint for the lifetime of the
// run.
func serveMetrics(ctx context.Context, addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: metricsReadHeaderTimeout,
	}

	go func() {
		<-ctx.Done()
		_ = srv.Close()
	}()

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		os.Stderr.WriteString("metrics server failed: " + err.Error() + "\n")
	}
}

func printSummary(result app.Result) {
	bold := color.New(color.Bold)

	switch {
	case result.Refreshed:
		_, _ = color.New(color.FgGreen, color.Bold).Println("Data refreshed.")
		_, _ = bold.Printf("Runs: %d  New since last refresh: %d\n", len(result.Rows), result.Added)
	case result.CooldownRemaining > 0:
		_, _ = color.New(color.FgYellow).Printf("Refresh on cooldown, next one allowed in %s. Serving snapshot.\n",
			result.CooldownRemaining.Round(time.Second))
		_, _ = bold.Printf("Runs: %d\n", len(result.Rows))
	default:
		_, _ = bold.Printf("Runs: %d (from snapshot)\n", len(result.Rows))
	}
}

// printBoards renders one table for level runs and one for full-game
// runs, ordered by board and place.
func printBoards(rows []model.Row, limit int, showAll bool) {
	var level, fullGame []model.Row
	for _, row := range rows {
		if row.Obsolete && !showAll {
			continue
		}
		if row.IsLevelRun() {
			level = append(level, row)
		} else {
			fullGame = append(fullGame, row)
		}
	}

	if len(level) > 0 {
		_, _ = color.New(color.FgCyan, color.Bold).Println("\nIndividual Levels")
		renderBoard(level, limit, true)
	}
	if len(fullGame) > 0 {
		_, _ = color.New(color.FgCyan, color.Bold).Println("\nFull Game")
		renderBoard(fullGame, limit, false)
	}
}

func renderBoard(rows []model.Row, limit int, withLevel bool) {
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].LevelName != rows[j].LevelName {
			return rows[i].LevelName < rows[j].LevelName
		}
		if rows[i].CategoryName != rows[j].CategoryName {
			return rows[i].CategoryName < rows[j].CategoryName
		}
		return rows[i].Seconds < rows[j].Seconds
	})

	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleLight)

	header := table.Row{"Place", "Player", "Time", "Category", "Character", "Mode", "Date"}
	if withLevel {
		header = append(table.Row{"Level"}, header...)
	}
	t.AppendHeader(header)

	for _, row := range rows {
		place := ""
		if row.Place != nil {
			place = color.YellowString("%d", *row.Place)
		}
		record := table.Row{
			place,
			row.PlayerName,
			model.FormatSeconds(row.Seconds),
			row.CategoryName,
			row.CharacterName,
			row.NoteName,
			row.Date,
		}
		if withLevel {
			record = append(table.Row{row.LevelName}, record...)
		}
		t.AppendRow(record)
	}

	t.Render()
}
