package process_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/okian/runboard/internal/adapters/filecache"
	"github.com/okian/runboard/internal/domain/model"
	"github.com/okian/runboard/internal/process"
	. "github.com/smartystreets/goconvey/convey"
)

const (
	noteVar = "note-var"
	charVar = "char-var"
)

// fakeSource serves catalogs and user names from memory.
type fakeSource struct {
	categories  []model.CatalogEntry
	levels      []model.CatalogEntry
	users       map[string]string
	categoryErr error
	levelErr    error
	userErr     error
	userCalls   []string
}

func (f *fakeSource) Categories(ctx context.Context, gameID, cacheFile string) ([]model.CatalogEntry, error) {
	return f.categories, f.categoryErr
}

func (f *fakeSource) Levels(ctx context.Context, gameID, cacheFile string) ([]model.CatalogEntry, error) {
	return f.levels, f.levelErr
}

func (f *fakeSource) User(ctx context.Context, userID string) (string, error) {
	f.userCalls = append(f.userCalls, userID)
	if f.userErr != nil {
		return "", f.userErr
	}
	return f.users[userID], nil
}

// makeRun builds a raw run via JSON so required-field absence can be
// expressed by leaving keys out.
func makeRun(fields map[string]any) model.Run {
	payload, err := json.Marshal(fields)
	if err != nil {
		panic(err)
	}
	var run model.Run
	if err := json.Unmarshal(payload, &run); err != nil {
		panic(err)
	}
	return run
}

func fullRun(id, player, category string, level *string, seconds float64) model.Run {
	fields := map[string]any{
		"id":        id,
		"weblink":   "https://example.org/run/" + id,
		"status":    map[string]string{"status": "verified"},
		"category":  category,
		"players":   []map[string]string{{"rel": "user", "id": player}},
		"date":      "2026-01-10",
		"submitted": "2026-01-11T08:00:00Z",
		"times":     map[string]float64{"primary_t": seconds},
		"values":    map[string]string{noteVar: "note-a", charVar: "char-a"},
	}
	if level != nil {
		fields["level"] = *level
	}
	return makeRun(fields)
}

func defaultSource() *fakeSource {
	return &fakeSource{
		categories: []model.CatalogEntry{{ID: "cat1", Name: "Normal"}},
		levels:     []model.CatalogEntry{{ID: "lvl1", Name: "Westopolis"}},
		users:      map[string]string{"p1": "Runner One", "p2": "Runner Two"},
	}
}

func TestProcess_Normalization(t *testing.T) {
	Convey("Given verified runs with resolvable references", t, func() {
		source := defaultSource()
		level := "lvl1"
		runs := []model.Run{
			fullRun("r1", "p1", "cat1", &level, 30.5),
			fullRun("r2", "p2", "cat1", nil, 95.25),
		}

		proc := process.New(source, "game1", noteVar, charVar,
			process.WithNoteNames(map[string]string{"note-a": "No SG"}),
			process.WithCharacterNames(map[string]string{"char-a": "Shadow"}),
		)

		Convey("When processing", func() {
			rows, err := proc.Process(context.Background(), runs)

			Convey("Then every run becomes a row with resolved names", func() {
				So(err, ShouldBeNil)
				So(len(rows), ShouldEqual, 2)
				So(rows[0].CategoryName, ShouldEqual, "Normal")
				So(rows[0].LevelName, ShouldEqual, "Westopolis")
				So(rows[0].PlayerName, ShouldEqual, "Runner One")
				So(rows[0].NoteName, ShouldEqual, "No SG")
				So(rows[0].CharacterName, ShouldEqual, "Shadow")
				So(rows[0].Seconds, ShouldEqual, 30.5)
			})

			Convey("And the level run keeps its level while the full-game run has none", func() {
				So(err, ShouldBeNil)
				So(rows[0].IsLevelRun(), ShouldBeTrue)
				So(rows[1].IsLevelRun(), ShouldBeFalse)
				So(rows[1].LevelName, ShouldBeEmpty)
			})

			Convey("And both rows hold first place in their own grouping", func() {
				So(err, ShouldBeNil)
				So(rows[0].Obsolete, ShouldBeFalse)
				So(*rows[0].Place, ShouldEqual, 1)
				So(*rows[1].Place, ShouldEqual, 1)
			})
		})
	})

	Convey("Given a run referencing an unknown category", t, func() {
		source := defaultSource()
		runs := []model.Run{fullRun("r1", "p1", "cat-unknown", nil, 10)}
		proc := process.New(source, "game1", noteVar, charVar)

		Convey("When processing", func() {
			rows, err := proc.Process(context.Background(), runs)

			Convey("Then the name is empty and no error is raised", func() {
				So(err, ShouldBeNil)
				So(rows[0].CategoryName, ShouldBeEmpty)
			})
		})
	})

	Convey("Given a run with no participants", t, func() {
		source := defaultSource()
		fields := map[string]any{
			"id":        "r1",
			"weblink":   "https://example.org/run/r1",
			"category":  "cat1",
			"players":   []map[string]string{},
			"date":      "2026-01-10",
			"submitted": "2026-01-11T08:00:00Z",
			"times":     map[string]float64{"primary_t": 12},
			"values":    map[string]string{noteVar: "note-a", charVar: "char-a"},
		}
		proc := process.New(source, "game1", noteVar, charVar)

		Convey("When processing", func() {
			rows, err := proc.Process(context.Background(), []model.Run{makeRun(fields)})

			Convey("Then the player stays nil with an empty name", func() {
				So(err, ShouldBeNil)
				So(rows[0].PlayerID, ShouldBeNil)
				So(rows[0].PlayerName, ShouldBeEmpty)
			})

			Convey("And the run is obsolete and unranked", func() {
				So(err, ShouldBeNil)
				So(rows[0].Obsolete, ShouldBeTrue)
				So(rows[0].Place, ShouldBeNil)
			})
		})
	})
}

func TestProcess_MalformedRecords(t *testing.T) {
	Convey("Given a processor", t, func() {
		source := defaultSource()
		proc := process.New(source, "game1", noteVar, charVar)

		base := func() map[string]any {
			return map[string]any{
				"id":        "r1",
				"weblink":   "https://example.org/run/r1",
				"category":  "cat1",
				"date":      "2026-01-10",
				"submitted": "2026-01-11T08:00:00Z",
				"times":     map[string]float64{"primary_t": 12},
				"values":    map[string]string{noteVar: "note-a", charVar: "char-a"},
			}
		}

		for _, missing := range []string{"id", "weblink", "category", "times", "date", "submitted"} {
			Convey(fmt.Sprintf("When a run is missing %s", missing), func() {
				fields := base()
				delete(fields, missing)

				_, err := proc.Process(context.Background(), []model.Run{makeRun(fields)})

				Convey("Then processing fails loudly", func() {
					So(errors.Is(err, process.ErrMalformedRecord), ShouldBeTrue)
				})
			})
		}

		Convey("When a run is missing the note value", func() {
			fields := base()
			fields["values"] = map[string]string{charVar: "char-a"}

			_, err := proc.Process(context.Background(), []model.Run{makeRun(fields)})

			Convey("Then processing fails loudly", func() {
				So(errors.Is(err, process.ErrMalformedRecord), ShouldBeTrue)
			})
		})

		Convey("When a run is missing the character value", func() {
			fields := base()
			fields["values"] = map[string]string{noteVar: "note-a"}

			_, err := proc.Process(context.Background(), []model.Run{makeRun(fields)})

			Convey("Then processing fails loudly", func() {
				So(errors.Is(err, process.ErrMalformedRecord), ShouldBeTrue)
			})
		})
	})
}

func TestProcess_CatalogFailure(t *testing.T) {
	Convey("Given a failing category catalog", t, func() {
		source := defaultSource()
		source.categoryErr = errors.New("boom")
		proc := process.New(source, "game1", noteVar, charVar)

		Convey("When processing", func() {
			_, err := proc.Process(context.Background(), []model.Run{fullRun("r1", "p1", "cat1", nil, 10)})

			Convey("Then the failure is fatal with the sentinel kind", func() {
				So(errors.Is(err, process.ErrCatalogUnavailable), ShouldBeTrue)
			})
		})
	})

	Convey("Given a failing level catalog", t, func() {
		source := defaultSource()
		source.levelErr = errors.New("boom")
		proc := process.New(source, "game1", noteVar, charVar)

		Convey("When processing", func() {
			_, err := proc.Process(context.Background(), []model.Run{fullRun("r1", "p1", "cat1", nil, 10)})

			Convey("Then the failure is fatal with the sentinel kind", func() {
				So(errors.Is(err, process.ErrCatalogUnavailable), ShouldBeTrue)
			})
		})
	})
}

func TestProcess_PlayerCache(t *testing.T) {
	Convey("Given a player cache holding one of two players", t, func() {
		dir := t.TempDir()
		cachePath := filepath.Join(dir, "players.json")
		So(filecache.Write(cachePath, map[string]string{"p1": "Cached One"}), ShouldBeNil)

		source := defaultSource()
		proc := process.New(source, "game1", noteVar, charVar,
			process.WithPlayerCache(cachePath),
		)
		runs := []model.Run{
			fullRun("r1", "p1", "cat1", nil, 10),
			fullRun("r2", "p2", "cat1", nil, 11),
		}

		Convey("When processing", func() {
			rows, err := proc.Process(context.Background(), runs)

			Convey("Then the cached name is used without a lookup", func() {
				So(err, ShouldBeNil)
				So(rows[0].PlayerName, ShouldEqual, "Cached One")
				So(source.userCalls, ShouldResemble, []string{"p2"})
			})

			Convey("And the new resolution lands in the cache file", func() {
				So(err, ShouldBeNil)
				var cached map[string]string
				So(filecache.Read(cachePath, &cached), ShouldBeNil)
				So(cached["p2"], ShouldEqual, "Runner Two")
				So(cached["p1"], ShouldEqual, "Cached One")
			})
		})
	})

	Convey("Given a failing user endpoint", t, func() {
		dir := t.TempDir()
		cachePath := filepath.Join(dir, "players.json")

		source := defaultSource()
		source.userErr = errors.New("lookup down")
		proc := process.New(source, "game1", noteVar, charVar,
			process.WithPlayerCache(cachePath),
		)
		runs := []model.Run{fullRun("r1", "p1", "cat1", nil, 10)}

		Convey("When processing", func() {
			rows, err := proc.Process(context.Background(), runs)

			Convey("Then the id itself is used as the display name", func() {
				So(err, ShouldBeNil)
				So(rows[0].PlayerName, ShouldEqual, "p1")
			})

			Convey("And the fallback is cached so later runs skip the lookup", func() {
				So(err, ShouldBeNil)
				var cached map[string]string
				So(filecache.Read(cachePath, &cached), ShouldBeNil)
				So(cached["p1"], ShouldEqual, "p1")
			})
		})
	})
}

func TestProcess_RankingSeparation(t *testing.T) {
	Convey("Given level and full-game runs sharing a category", t, func() {
		source := defaultSource()
		level := "lvl1"
		runs := []model.Run{
			fullRun("lr", "p1", "cat1", &level, 50),
			fullRun("fg", "p2", "cat1", nil, 40),
		}
		proc := process.New(source, "game1", noteVar, charVar)

		Convey("When processing", func() {
			rows, err := proc.Process(context.Background(), runs)

			Convey("Then the classes rank independently and both are first", func() {
				So(err, ShouldBeNil)
				byID := map[string]model.Row{}
				for _, r := range rows {
					byID[r.ID] = r
				}
				So(*byID["lr"].Place, ShouldEqual, 1)
				So(*byID["fg"].Place, ShouldEqual, 1)
			})
		})
	})
}
