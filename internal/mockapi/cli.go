package mockapi

import "os"

// ShowHelp prints usage information for the mock API server.
func ShowHelp() {
	os.Stdout.WriteString(`Runboard Mock API Server
========================

A local stand-in for the upstream leaderboard API, useful for exercising
the refresh pipeline without network access or rate limits.

Usage:
  go run cmd/mockapi/main.go [options]

Options:
  -addr string
        Listen address (default ":9090")
  -game string
        Game id the server answers for (default "o1y3y346")
  -runs int
        Number of runs to generate (default 500)
  -players int
        Number of players to generate (default 40)
  -rate-limit-every int
        Answer 429 on every Nth request, 0 disables (default 0)
  -retry-after int
        Retry-After header value in seconds on 429 responses (default 2)
  -latency duration
        Artificial delay per request (default 0)
  -verbose
        Enable verbose logging
  -help
        Show this help message

Examples:
  # Serve a default dataset
  go run cmd/mockapi/main.go

  # Exercise rate-limit handling
  go run cmd/mockapi/main.go -rate-limit-every 5 -retry-after 3

  # Point the pipeline at the mock
  RUNBOARD_API_BASE_URL=http://localhost:9090/api/v1 go run cmd/main.go
`)
}
