// Package process normalizes raw runs into the fixed-schema row table,
// resolves opaque ids to display names, and invokes the ranking engine.
package process

import (
	"context"
	"fmt"

	"github.com/okian/runboard/internal/adapters/filecache"
	"github.com/okian/runboard/internal/domain/model"
	"github.com/okian/runboard/internal/domain/ranking"
	"github.com/okian/runboard/pkg/logger"
	"github.com/okian/runboard/pkg/metrics"
)

// Source provides the reference data the processor enriches rows with.
type Source interface {
	Categories(ctx context.Context, gameID, cacheFile string) ([]model.CatalogEntry, error)
	Levels(ctx context.Context, gameID, cacheFile string) ([]model.CatalogEntry, error)
	User(ctx context.Context, userID string) (string, error)
}

// Processor turns raw runs into ranked normalized rows.
type Processor struct {
	source         Source
	gameID         string
	noteVarID      string
	characterVarID string
	noteNames      map[string]string
	characterNames map[string]string
	categoryCache  string
	levelCache     string
	playerCache    string
	log            logger.Logger
}

// New creates a Processor. The note and character variable ids identify
// the two custom attributes in each run's values map; the name maps
// translate their opaque values for display.
func New(source Source, gameID, noteVarID, characterVarID string, opts ...Option) *Processor {
	p := &Processor{
		source:         source,
		gameID:         gameID,
		noteVarID:      noteVarID,
		characterVarID: characterVarID,
		noteNames:      map[string]string{},
		characterNames: map[string]string{},
		log:            logger.Nop(),
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Process projects runs into normalized rows, resolves names, and fills
// in obsolescence and placement. Catalog failures and missing required
// fields are fatal; player lookup failures are recovered per id.
func (p *Processor) Process(ctx context.Context, runs []model.Run) ([]model.Row, error) {
	rows := make([]model.Row, 0, len(runs))
	for _, run := range runs {
		row, err := p.project(run)
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}

	categories, err := p.source.Categories(ctx, p.gameID, p.categoryCache)
	if err != nil {
		return nil, fmt.Errorf("%w: categories: %w", ErrCatalogUnavailable, err)
	}
	levels, err := p.source.Levels(ctx, p.gameID, p.levelCache)
	if err != nil {
		return nil, fmt.Errorf("%w: levels: %w", ErrCatalogUnavailable, err)
	}

	categoryNames := catalogMap(categories)
	levelNames := catalogMap(levels)
	playerNames := p.resolvePlayers(ctx, rows)

	for i := range rows {
		// Unresolved catalog ids surface as empty names downstream;
		// they are a data-quality issue, not an error.
		rows[i].CategoryName = categoryNames[rows[i].CategoryID]
		if rows[i].LevelID != nil {
			rows[i].LevelName = levelNames[*rows[i].LevelID]
		}
		if rows[i].PlayerID != nil {
			rows[i].PlayerName = playerNames[*rows[i].PlayerID]
		}
		rows[i].NoteName = p.noteNames[rows[i].NoteID]
		rows[i].CharacterName = p.characterNames[rows[i].CharacterID]
	}

	p.rank(rows)
	return rows, nil
}

// project maps one raw run into the fixed row schema. Any required
// field that is absent fails the whole batch.
func (p *Processor) project(run model.Run) (model.Row, error) {
	switch {
	case run.ID == "":
		return model.Row{}, fmt.Errorf("%w: missing id", ErrMalformedRecord)
	case run.Weblink == "":
		return model.Row{}, fmt.Errorf("%w: run %s missing weblink", ErrMalformedRecord, run.ID)
	case run.Category == "":
		return model.Row{}, fmt.Errorf("%w: run %s missing category", ErrMalformedRecord, run.ID)
	case run.Times == nil:
		return model.Row{}, fmt.Errorf("%w: run %s missing times", ErrMalformedRecord, run.ID)
	case run.Date == "":
		return model.Row{}, fmt.Errorf("%w: run %s missing date", ErrMalformedRecord, run.ID)
	case run.Submitted == "":
		return model.Row{}, fmt.Errorf("%w: run %s missing submitted", ErrMalformedRecord, run.ID)
	}

	note, ok := run.Values[p.noteVarID]
	if !ok {
		return model.Row{}, fmt.Errorf("%w: run %s missing note value", ErrMalformedRecord, run.ID)
	}
	character, ok := run.Values[p.characterVarID]
	if !ok {
		return model.Row{}, fmt.Errorf("%w: run %s missing character value", ErrMalformedRecord, run.ID)
	}

	return model.Row{
		ID:          run.ID,
		Weblink:     run.Weblink,
		CategoryID:  run.Category,
		LevelID:     run.Level,
		PlayerID:    run.PlayerID(),
		Seconds:     run.Times.PrimaryT,
		NoteID:      note,
		CharacterID: character,
		Date:        run.Date,
		Submitted:   run.Submitted,
	}, nil
}

// resolvePlayers returns the display names for every player appearing
// in rows. Ids missing from the player cache are looked up one by one;
// a failed lookup caches the id as its own name so later refreshes do
// not retry it. The updated cache is written once at the end.
func (p *Processor) resolvePlayers(ctx context.Context, rows []model.Row) map[string]string {
	names := map[string]string{}
	if p.playerCache != "" {
		if err := filecache.Read(p.playerCache, &names); err != nil {
			names = map[string]string{}
		}
	}

	updated := false
	for i := range rows {
		if rows[i].PlayerID == nil {
			continue
		}
		id := *rows[i].PlayerID
		if _, ok := names[id]; ok {
			metrics.RecordPlayerLookup("cached")
			continue
		}

		name, err := p.source.User(ctx, id)
		if err != nil || name == "" {
			p.log.Warn(ctx, "failed to resolve player name, using id as fallback",
				logger.String("player_id", id),
				logger.Error(err),
			)
			metrics.RecordPlayerLookup("failed")
			name = id
		} else {
			metrics.RecordPlayerLookup("resolved")
		}
		names[id] = name
		updated = true
	}

	if updated && p.playerCache != "" {
		if err := filecache.Write(p.playerCache, names); err != nil {
			p.log.Warn(ctx, "failed to write player cache",
				logger.String("cache", p.playerCache),
				logger.Error(err),
			)
		}
	}

	return names
}

// rank splits rows into the level and full-game classes and ranks each
// with its own grouping; the two classes never compete.
func (p *Processor) rank(rows []model.Row) {
	var levelIdx, fullIdx []int
	for i := range rows {
		if rows[i].IsLevelRun() {
			levelIdx = append(levelIdx, i)
		} else {
			fullIdx = append(fullIdx, i)
		}
	}

	apply := func(idx []int, group ranking.GroupFunc) {
		subset := make([]model.Row, len(idx))
		for j, i := range idx {
			subset[j] = rows[i]
		}
		ranking.Apply(subset, group)
		for j, i := range idx {
			rows[i] = subset[j]
		}
	}

	apply(levelIdx, ranking.LevelGroup)
	apply(fullIdx, ranking.FullGameGroup)
}

func catalogMap(entries []model.CatalogEntry) map[string]string {
	m := make(map[string]string, len(entries))
	for _, e := range entries {
		m[e.ID] = e.Name
	}
	return m
}
