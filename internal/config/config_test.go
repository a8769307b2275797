package config_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/okian/runboard/internal/config"
	. "github.com/smartystreets/goconvey/convey"
)

func TestDefaults(t *testing.T) {
	Convey("Given the built-in defaults", t, func() {
		cfg := config.New()

		Convey("Then the remote API settings match the deployment", func() {
			So(cfg.APIBaseURL, ShouldEqual, "https://www.speedrun.com/api/v1")
			So(cfg.APIPageSize, ShouldEqual, 200)
			So(cfg.APITimeoutSeconds, ShouldEqual, 10)
			So(cfg.MaxRetries, ShouldEqual, 2)
			So(cfg.BackoffSeconds, ShouldEqual, 2.0)
			So(cfg.CooldownSeconds, ShouldEqual, 7200)
		})

		Convey("And the cache paths derive from the cache dir", func() {
			So(cfg.RunsCachePath(), ShouldEqual, filepath.Join(cfg.CacheDir, "runs_cache.json"))
			So(cfg.PlayerCachePath(), ShouldEqual, filepath.Join(cfg.CacheDir, "players_cache.json"))
			So(cfg.CategoryCachePath(), ShouldEqual, filepath.Join(cfg.CacheDir, "categories_cache.json"))
			So(cfg.LevelCachePath(), ShouldEqual, filepath.Join(cfg.CacheDir, "levels_cache.json"))
			So(cfg.LastRefreshPath(), ShouldEqual, filepath.Join(cfg.CacheDir, "last_refresh.json"))
			So(cfg.SnapshotPath(), ShouldEqual, filepath.Join(cfg.DataDir, "runs_processed.csv"))
		})

		Convey("And the attribute maps are populated", func() {
			So(cfg.NoteNames, ShouldNotBeEmpty)
			So(cfg.CharacterNames, ShouldNotBeEmpty)
		})
	})
}

func TestLoad(t *testing.T) {
	Convey("Given a clean environment", t, func() {
		t.Setenv("RUNBOARD_CONFIG", "")

		Convey("When loading with no overrides", func() {
			cfg, err := config.Load(context.Background())

			Convey("Then the defaults come back", func() {
				So(err, ShouldBeNil)
				So(cfg.GameID, ShouldEqual, "o1y3y346")
			})
		})

		Convey("When an env var overrides a field", func() {
			t.Setenv("RUNBOARD_GAME_ID", "another-game")
			t.Setenv("RUNBOARD_LOG_LEVEL", "debug")

			cfg, err := config.Load(context.Background())

			Convey("Then the override wins", func() {
				So(err, ShouldBeNil)
				So(cfg.GameID, ShouldEqual, "another-game")
				So(cfg.LogLevel, ShouldEqual, "debug")
			})
		})

		Convey("When a config file is provided", func() {
			path := filepath.Join(t.TempDir(), "config.yaml")
			So(os.WriteFile(path, []byte("cooldown_seconds: 60\ncache_dir: /tmp/rb-cache\n"), 0o644), ShouldBeNil)
			t.Setenv("RUNBOARD_CONFIG", path)

			cfg, err := config.Load(context.Background())

			Convey("Then file values layer over defaults", func() {
				So(err, ShouldBeNil)
				So(cfg.CooldownSeconds, ShouldEqual, 60)
				So(cfg.CacheDir, ShouldEqual, "/tmp/rb-cache")
			})
		})

		Convey("When the config file does not exist", func() {
			t.Setenv("RUNBOARD_CONFIG", filepath.Join(t.TempDir(), "missing.yaml"))

			_, err := config.Load(context.Background())

			Convey("Then loading fails with the load sentinel", func() {
				So(errors.Is(err, config.ErrLoadConfig), ShouldBeTrue)
			})
		})

		Convey("When an override breaks a numeric bound", func() {
			t.Setenv("RUNBOARD_API_PAGE_SIZE", "0")

			_, err := config.Load(context.Background())

			Convey("Then validation fails with the invalid sentinel", func() {
				So(errors.Is(err, config.ErrInvalidConfig), ShouldBeTrue)
			})
		})
	})
}
