package mockapi

import "time"

// Config holds configuration for the mock leaderboard API server.
type Config struct {
	Addr              string        // Listen address
	GameID            string        // Game id the server answers for
	NumPlayers        int           // Number of players to generate
	NumRuns           int           // Number of runs to generate
	NoteVarID         string        // Variable id carrying the note value
	CharacterVarID    string        // Variable id carrying the character value
	RateLimitEvery    int           // Answer 429 on every Nth request, 0 disables
	RetryAfterSeconds int           // Retry-After header value on 429 responses
	Latency           time.Duration // Artificial delay per request
	Verbose           bool          // Enable verbose logging
}

// Stats holds counters for a server session.
type Stats struct {
	RunsGenerated    int
	RequestsServed   int
	RateLimitsIssued int
}
