package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/okian/runboard/internal/mockapi"
	"github.com/okian/runboard/pkg/logger"
)

// Default configuration constants.
const (
	defaultAddr       = ":9090"
	defaultGameID     = "o1y3y346"
	defaultRuns       = 500
	defaultPlayers    = 40
	defaultRetryAfter = 2
)

func main() {
	var (
		addr           = flag.String("addr", defaultAddr, "Listen address")
		gameID         = flag.String("game", defaultGameID, "Game id the server answers for")
		numRuns        = flag.Int("runs", defaultRuns, "Number of runs to generate")
		numPlayers     = flag.Int("players", defaultPlayers, "Number of players to generate")
		rateLimitEvery = flag.Int("rate-limit-every", 0, "Answer 429 on every Nth request, 0 disables")
		retryAfter     = flag.Int("retry-after", defaultRetryAfter, "Retry-After header value in seconds on 429 responses")
		latency        = flag.Duration("latency", 0, "Artificial delay per request")
		verbose        = flag.Bool("verbose", false, "Enable verbose logging")
		help           = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		mockapi.ShowHelp()
		return
	}

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("Failed to initialize logger: " + err.Error() + "\n")
		os.Exit(1)
	}
	if *verbose {
		_ = logger.SetLevelString("debug")
	}

	config := &mockapi.Config{
		Addr:              *addr,
		GameID:            *gameID,
		NumPlayers:        *numPlayers,
		NumRuns:           *numRuns,
		RateLimitEvery:    *rateLimitEvery,
		RetryAfterSeconds: *retryAfter,
		Latency:           *latency,
		Verbose:           *verbose,
	}

	start := time.Now()
	dataset := mockapi.GenerateDataset(config)
	logger.Named("mockapi").Info(context.Background(), "dataset generated",
		logger.Int("runs", len(dataset.Runs)),
		logger.Int("players", len(dataset.Players)),
		logger.Any("took", time.Since(start)))

	server := mockapi.NewServer(config, dataset, mockapi.WithLogger(logger.Named("mockapi")))
	if err := server.ListenAndServe(); err != nil {
		os.Stderr.WriteString("Server failed: " + err.Error() + "\n")
		os.Exit(1)
	}
}
