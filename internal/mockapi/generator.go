package mockapi

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"
)

// Constants for random number generation.
const (
	randomFloatDivisor = 1000000
	statusDivisor      = 10
	paceDivisor        = 6
)

// Constants for duration generation ranges, in seconds.
const (
	recordPaceMin    = 45.0
	recordPaceRange  = 15.0
	strongPaceMin    = 60.0
	strongPaceRange  = 30.0
	averagePaceMin   = 90.0
	averagePaceRange = 60.0
	casualPaceMin    = 150.0
	casualPaceRange  = 300.0
)

// Constants for pace type cases.
const (
	caseRecordPace  = 0
	caseStrongPace  = 1
	caseAveragePace = 2
)

// Status distribution cases. Anything above caseRejected is verified.
const (
	caseNewSubmission = 0
	caseRejected      = 1
)

type catalogEntry struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type player struct {
	ID   string
	Name string
}

type runDoc struct {
	ID       string            `json:"id"`
	Weblink  string            `json:"weblink"`
	Status   statusDoc         `json:"status"`
	Category string            `json:"category"`
	Level    *string           `json:"level"`
	Players  []playerRef       `json:"players"`
	Date     string            `json:"date"`
	Submit   string            `json:"submitted"`
	Times    timesDoc          `json:"times"`
	Values   map[string]string `json:"values"`
}

type statusDoc struct {
	Status string `json:"status"`
}

type playerRef struct {
	Rel  string `json:"rel"`
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}

type timesDoc struct {
	PrimaryT float64 `json:"primary_t"`
}

// Dataset is the in-memory world the server answers from.
type Dataset struct {
	GameID     string
	Categories []catalogEntry
	Levels     []catalogEntry
	Players    []player
	Runs       []runDoc
}

// getRandomFloat returns a random float64 between 0.0 and 1.0 using crypto/rand.
func getRandomFloat() float64 {
	n, _ := rand.Int(rand.Reader, big.NewInt(randomFloatDivisor))
	return float64(n.Int64()) / float64(randomFloatDivisor)
}

func randomIndex(limit int) int {
	n, _ := rand.Int(rand.Reader, big.NewInt(int64(limit)))
	return int(n.Int64())
}

// GenerateDataset builds a dataset of players and runs for the
// configured game. Run durations follow a varied pace distribution so
// rankings over the data look plausible.
func GenerateDataset(config *Config) *Dataset {
	if config.GameID == "" {
		config.GameID = defaultGameID
	}
	if config.NoteVarID == "" {
		config.NoteVarID = defaultNoteVarID
	}
	if config.CharacterVarID == "" {
		config.CharacterVarID = defaultCharacterVarID
	}

	numPlayers := config.NumPlayers
	if numPlayers <= 0 {
		numPlayers = 1
	}

	players := make([]player, numPlayers)
	for i := range players {
		id := uuid.NewString()
		players[i] = player{ID: id, Name: fmt.Sprintf("runner_%03d", i)}
	}

	runs := make([]runDoc, config.NumRuns)
	for i := range runs {
		runs[i] = generateSingleRun(config, players, i)
	}

	return &Dataset{
		GameID:     config.GameID,
		Categories: defaultCategories,
		Levels:     defaultLevels,
		Players:    players,
		Runs:       runs,
	}
}

// generateSingleRun creates one run with a random player, category and
// pace. Roughly one run in six is a full-game run without a level id,
// the rest carry one of the fixture levels.
func generateSingleRun(config *Config, players []player, index int) runDoc {
	p := players[randomIndex(len(players))]
	category := defaultCategories[randomIndex(len(defaultCategories))]

	var level *string
	if randomIndex(paceDivisor) != 0 {
		id := defaultLevels[randomIndex(len(defaultLevels))].ID
		level = &id
	}

	submitted := time.Now().UTC().Add(-time.Duration(randomIndex(365*24)) * time.Hour)

	return runDoc{
		ID:       uuid.NewString(),
		Weblink:  fmt.Sprintf("https://example.local/run/%d", index),
		Status:   statusDoc{Status: generateStatus()},
		Category: category.ID,
		Level:    level,
		Players:  []playerRef{{Rel: "user", ID: p.ID}},
		Date:     submitted.Format("2006-01-02"),
		Submit:   submitted.Format(time.RFC3339),
		Times:    timesDoc{PrimaryT: generateDuration()},
		Values: map[string]string{
			config.NoteVarID:      noteValues[randomIndex(len(noteValues))],
			config.CharacterVarID: characterValues[randomIndex(len(characterValues))],
		},
	}
}

// generateStatus returns mostly verified runs with occasional new and
// rejected submissions mixed in.
func generateStatus() string {
	switch randomIndex(statusDivisor) {
	case caseNewSubmission:
		return "new"
	case caseRejected:
		return "rejected"
	default:
		return "verified"
	}
}

// generateDuration creates a run duration with a varied pace distribution.
func generateDuration() float64 {
	switch randomIndex(paceDivisor) {
	case caseRecordPace:
		// Record pace (45 - 60s), rare
		return recordPaceMin + getRandomFloat()*recordPaceRange
	case caseStrongPace:
		// Strong pace (60 - 90s)
		return strongPaceMin + getRandomFloat()*strongPaceRange
	case caseAveragePace:
		// Average pace (90 - 150s), most common
		return averagePaceMin + getRandomFloat()*averagePaceRange
	default:
		// Casual pace (150 - 450s)
		return casualPaceMin + getRandomFloat()*casualPaceRange
	}
}
