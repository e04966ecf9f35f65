package sqlite

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ersonp/name-historian/internal/domain/entities"
	"github.com/ersonp/name-historian/internal/domain/ports"
	"github.com/ersonp/name-historian/internal/infrastructure/config"
)

var (
	tisID = uuid.MustParse("f6489b79-7a9f-49e2-980e-265a05dbc3af")
	jebID = uuid.MustParse("853c80ef-3c37-49fd-aa49-938b674adae6")
	base  = time.UnixMilli(1438695830000)
)

// setupTestRepo creates an in-memory SQLite repository for testing.
func setupTestRepo(t *testing.T) *Repository {
	t.Helper()
	repo, err := NewRepository(config.SQLiteConfig{Path: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	err = repo.EnsureSchema(context.Background())
	require.NoError(t, err)

	return repo
}

func setupFileRepo(t *testing.T, path string) *Repository {
	t.Helper()
	repo, err := NewRepository(config.SQLiteConfig{Path: path})
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	require.NoError(t, repo.EnsureSchema(context.Background()))
	return repo
}

func at(seconds int) time.Time {
	return base.Add(time.Duration(seconds) * time.Second)
}

func observe(t *testing.T, repo *Repository, id uuid.UUID, name string, now time.Time) {
	t.Helper()
	require.NoError(t, repo.RecordObservation(context.Background(), entities.Observation{Identity: id, Name: name}, now))
}

func interval(id uuid.UUID, name string, first, last time.Time) entities.NameInterval {
	return entities.NameInterval{Identity: id, Name: name, FirstSeen: first, LastSeen: last}
}

func assertInterval(t *testing.T, got entities.NameInterval, name string, first, last time.Time) {
	t.Helper()
	assert.Equal(t, name, got.Name)
	assert.Equal(t, first.UnixMilli(), got.FirstSeen.UnixMilli(), "first seen of %s", name)
	assert.Equal(t, last.UnixMilli(), got.LastSeen.UnixMilli(), "last seen of %s", name)
}

func TestNewRepository(t *testing.T) {
	t.Run("success with memory database", func(t *testing.T) {
		repo, err := NewRepository(config.SQLiteConfig{Path: ":memory:"})
		require.NoError(t, err)
		defer repo.Close()
		assert.NotNil(t, repo)
	})

	t.Run("error with empty path", func(t *testing.T) {
		_, err := NewRepository(config.SQLiteConfig{Path: ""})
		require.Error(t, err)
	})
}

func TestDataSourceName(t *testing.T) {
	assert.Equal(t, ":memory:", dataSourceName(":memory:"))
	assert.Equal(t, "/tmp/h.db?_txlock=immediate", dataSourceName("/tmp/h.db"))
	assert.Equal(t, "file:h.db?mode=rwc&_txlock=immediate", dataSourceName("file:h.db?mode=rwc"))
}

func TestApplyPragmas(t *testing.T) {
	repo := setupFileRepo(t, filepath.Join(t.TempDir(), "history.db"))

	pragma := func(name string) string {
		var value string
		require.NoError(t, repo.db.QueryRow("PRAGMA "+name).Scan(&value))
		return value
	}

	assert.Equal(t, "wal", pragma("journal_mode"))
	assert.Equal(t, "5000", pragma("busy_timeout"))
	assert.Equal(t, "0", pragma("foreign_keys"))
}

func TestRepository_EnsureSchema(t *testing.T) {
	repo := setupTestRepo(t)

	t.Run("tables exist", func(t *testing.T) {
		for _, table := range []string{"name_history", "version"} {
			var count int
			err := repo.db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?`, table).Scan(&count)
			require.NoError(t, err)
			assert.Equal(t, 1, count, "table %s should exist", table)
		}
	})

	t.Run("name_history columns", func(t *testing.T) {
		rows, err := repo.db.Query(`SELECT name, type, "notnull", pk FROM pragma_table_info('name_history')`)
		require.NoError(t, err)
		defer rows.Close()

		type column struct {
			name    string
			typ     string
			notNull bool
			pk      bool
		}
		var got []column
		for rows.Next() {
			var c column
			require.NoError(t, rows.Scan(&c.name, &c.typ, &c.notNull, &c.pk))
			got = append(got, c)
		}
		require.NoError(t, rows.Err())

		assert.Equal(t, []column{
			{"id", "INTEGER", false, true},
			{"identity", "TEXT", true, false},
			{"name", "TEXT", true, false},
			{"first_seen_time", "INTEGER", true, false},
			{"detected_time", "INTEGER", false, false},
			{"last_seen_time", "INTEGER", true, false},
		}, got)
	})

	t.Run("first_seen_time is indexed", func(t *testing.T) {
		var count int
		err := repo.db.QueryRow(`
			SELECT COUNT(*) FROM sqlite_master
			WHERE type='index' AND tbl_name='name_history' AND sql LIKE '%first_seen_time%'
		`).Scan(&count)
		require.NoError(t, err)
		assert.Equal(t, 1, count)
	})

	t.Run("idempotent", func(t *testing.T) {
		require.NoError(t, repo.EnsureSchema(context.Background()))

		var count int
		require.NoError(t, repo.db.QueryRow(`SELECT COUNT(*) FROM version`).Scan(&count))
		assert.Equal(t, 1, count)
	})
}

func TestRepository_EnsureSchema_Version(t *testing.T) {
	t.Run("newer version rejected", func(t *testing.T) {
		repo := setupTestRepo(t)
		_, err := repo.db.Exec(`UPDATE version SET version = 1`)
		require.NoError(t, err)

		err = repo.EnsureSchema(context.Background())
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrSchemaVersion)
	})

	t.Run("empty version table is reseeded", func(t *testing.T) {
		repo := setupTestRepo(t)
		_, err := repo.db.Exec(`DELETE FROM version`)
		require.NoError(t, err)

		require.NoError(t, repo.EnsureSchema(context.Background()))

		var version int
		require.NoError(t, repo.db.QueryRow(`SELECT version FROM version`).Scan(&version))
		assert.Equal(t, SchemaVersion, version)
	})
}

func TestRepository_RecordObservation(t *testing.T) {
	ctx := context.Background()

	t.Run("first observation opens interval", func(t *testing.T) {
		repo := setupTestRepo(t)
		observe(t, repo, tisID, "tis", at(0))

		history, err := repo.History(ctx, tisID)
		require.NoError(t, err)
		require.Len(t, history, 1)
		assertInterval(t, history[0], "tis", at(0), at(0))
		assert.True(t, history[0].Detected.IsZero())
		assert.Equal(t, at(0).UnixMilli(), history[0].DetectedTime().UnixMilli())

		var nullDetected int
		require.NoError(t, repo.db.QueryRow(`SELECT COUNT(*) FROM name_history WHERE detected_time IS NULL`).Scan(&nullDetected))
		assert.Equal(t, 1, nullDetected)
	})

	t.Run("same name extends", func(t *testing.T) {
		repo := setupTestRepo(t)
		observe(t, repo, tisID, "tis", at(0))
		observe(t, repo, tisID, "tis", at(60))

		history, err := repo.History(ctx, tisID)
		require.NoError(t, err)
		require.Len(t, history, 1)
		assertInterval(t, history[0], "tis", at(0), at(60))
	})

	t.Run("last seen never moves backwards", func(t *testing.T) {
		repo := setupTestRepo(t)
		observe(t, repo, tisID, "tis", at(0))
		observe(t, repo, tisID, "tis", at(60))
		observe(t, repo, tisID, "tis", at(30))

		history, err := repo.History(ctx, tisID)
		require.NoError(t, err)
		require.Len(t, history, 1)
		assertInterval(t, history[0], "tis", at(0), at(60))
	})

	t.Run("rename and rename back", func(t *testing.T) {
		repo := setupTestRepo(t)
		observe(t, repo, tisID, "tis", at(0))
		observe(t, repo, tisID, "Tis", at(10))
		observe(t, repo, tisID, "tis", at(20))

		history, err := repo.History(ctx, tisID)
		require.NoError(t, err)
		require.Len(t, history, 3)
		assertInterval(t, history[0], "tis", at(20), at(20))
		assertInterval(t, history[1], "Tis", at(10), at(10))
		assertInterval(t, history[2], "tis", at(0), at(0))
	})

	t.Run("identities are independent", func(t *testing.T) {
		repo := setupTestRepo(t)
		observe(t, repo, tisID, "tis", at(0))
		observe(t, repo, jebID, "jeb_", at(5))
		observe(t, repo, tisID, "tis", at(10))

		history, err := repo.History(ctx, tisID)
		require.NoError(t, err)
		require.Len(t, history, 1)
		assertInterval(t, history[0], "tis", at(0), at(10))
	})
}

func TestRepository_RecordObservations(t *testing.T) {
	ctx := context.Background()

	t.Run("batch", func(t *testing.T) {
		repo := setupTestRepo(t)
		observe(t, repo, tisID, "tis", at(0))

		err := repo.RecordObservations(ctx, []entities.Observation{
			{Identity: tisID, Name: "tis"},
			{Identity: jebID, Name: "jeb_"},
		}, at(30))
		require.NoError(t, err)

		history, err := repo.History(ctx, tisID)
		require.NoError(t, err)
		require.Len(t, history, 1)
		assertInterval(t, history[0], "tis", at(0), at(30))

		history, err = repo.History(ctx, jebID)
		require.NoError(t, err)
		require.Len(t, history, 1)
		assertInterval(t, history[0], "jeb_", at(30), at(30))
	})

	t.Run("later entries see earlier ones", func(t *testing.T) {
		repo := setupTestRepo(t)

		err := repo.RecordObservations(ctx, []entities.Observation{
			{Identity: tisID, Name: "tis"},
			{Identity: tisID, Name: "Tis"},
			{Identity: tisID, Name: "Tis"},
		}, at(0))
		require.NoError(t, err)

		history, err := repo.History(ctx, tisID)
		require.NoError(t, err)
		require.Len(t, history, 2)
		assert.Equal(t, "Tis", history[0].Name)
		assert.Equal(t, "tis", history[1].Name)
	})

	t.Run("empty batch", func(t *testing.T) {
		repo := setupTestRepo(t)
		require.NoError(t, repo.RecordObservations(ctx, nil, at(0)))
	})

	t.Run("failure rolls back whole batch", func(t *testing.T) {
		repo := setupTestRepo(t)
		_, err := repo.db.Exec(`
			CREATE TRIGGER reject_boom BEFORE INSERT ON name_history
			WHEN NEW.name = 'boom'
			BEGIN SELECT RAISE(ABORT, 'boom rejected'); END
		`)
		require.NoError(t, err)

		err = repo.RecordObservations(ctx, []entities.Observation{
			{Identity: tisID, Name: "tis"},
			{Identity: jebID, Name: "boom"},
		}, at(0))

		require.Error(t, err)
		assert.ErrorIs(t, err, ports.ErrStore)

		history, err := repo.History(ctx, tisID)
		require.NoError(t, err)
		assert.Empty(t, history)
	})
}

func TestRepository_RecordInterval(t *testing.T) {
	ctx := context.Background()

	t.Run("inserts with detected time", func(t *testing.T) {
		repo := setupTestRepo(t)
		n := interval(tisID, "tis", at(0), at(10))
		n.Detected = at(5)
		require.NoError(t, repo.RecordInterval(ctx, n))

		history, err := repo.History(ctx, tisID)
		require.NoError(t, err)
		require.Len(t, history, 1)
		assertInterval(t, history[0], "tis", at(0), at(10))
		assert.Equal(t, at(5).UnixMilli(), history[0].Detected.UnixMilli())
	})

	t.Run("extends matching live interval", func(t *testing.T) {
		repo := setupTestRepo(t)
		require.NoError(t, repo.RecordInterval(ctx, interval(tisID, "tis", at(0), at(10))))
		require.NoError(t, repo.RecordInterval(ctx, interval(tisID, "tis", at(20), at(30))))

		history, err := repo.History(ctx, tisID)
		require.NoError(t, err)
		require.Len(t, history, 1)
		assertInterval(t, history[0], "tis", at(0), at(30))
	})

	t.Run("rejects inverted interval", func(t *testing.T) {
		repo := setupTestRepo(t)
		err := repo.RecordInterval(ctx, interval(tisID, "tis", at(10), at(0)))
		assert.ErrorIs(t, err, entities.ErrInvalidInterval)
	})
}

func TestRepository_History(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown identity", func(t *testing.T) {
		repo := setupTestRepo(t)
		history, err := repo.History(ctx, uuid.New())
		require.NoError(t, err)
		assert.NotNil(t, history)
		assert.Empty(t, history)
	})

	t.Run("ties broken by last seen then insertion", func(t *testing.T) {
		repo := setupTestRepo(t)
		err := repo.RewriteHistory(ctx, tisID, func([]entities.NameInterval) ([]entities.NameInterval, error) {
			return []entities.NameInterval{
				interval(tisID, "a", at(0), at(10)),
				interval(tisID, "b", at(0), at(0)),
				interval(tisID, "c", at(0), at(0)),
			}, nil
		})
		require.NoError(t, err)

		history, err := repo.History(ctx, tisID)
		require.NoError(t, err)
		require.Len(t, history, 3)
		assert.Equal(t, "a", history[0].Name)
		assert.Equal(t, "c", history[1].Name)
		assert.Equal(t, "b", history[2].Name)
	})
}

func TestRepository_LatestByName(t *testing.T) {
	ctx := context.Background()
	repo := setupTestRepo(t)
	observe(t, repo, tisID, "shared", at(0))
	observe(t, repo, tisID, "tis", at(10))
	observe(t, repo, jebID, "shared", at(20))

	t.Run("most recent holder", func(t *testing.T) {
		latest, err := repo.LatestByName(ctx, "shared")
		require.NoError(t, err)
		require.NotNil(t, latest)
		assert.Equal(t, jebID, latest.Identity)
		assertInterval(t, *latest, "shared", at(20), at(20))
	})

	t.Run("case sensitive", func(t *testing.T) {
		latest, err := repo.LatestByName(ctx, "Shared")
		require.NoError(t, err)
		assert.Nil(t, latest)
	})

	t.Run("unknown", func(t *testing.T) {
		latest, err := repo.LatestByName(ctx, "nobody")
		require.NoError(t, err)
		assert.Nil(t, latest)
	})
}

func TestRepository_RewriteHistory(t *testing.T) {
	ctx := context.Background()

	t.Run("receives newest first and replaces", func(t *testing.T) {
		repo := setupTestRepo(t)
		observe(t, repo, tisID, "tis", at(0))
		observe(t, repo, tisID, "Tis", at(10))
		observe(t, repo, jebID, "jeb_", at(10))

		var seen []string
		err := repo.RewriteHistory(ctx, tisID, func(stored []entities.NameInterval) ([]entities.NameInterval, error) {
			for _, n := range stored {
				seen = append(seen, n.Name)
			}
			return []entities.NameInterval{interval(tisID, "merged", at(-5), at(15))}, nil
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"Tis", "tis"}, seen)

		history, err := repo.History(ctx, tisID)
		require.NoError(t, err)
		require.Len(t, history, 1)
		assertInterval(t, history[0], "merged", at(-5), at(15))

		other, err := repo.History(ctx, jebID)
		require.NoError(t, err)
		assert.Len(t, other, 1)
	})

	t.Run("callback error rolls back", func(t *testing.T) {
		repo := setupTestRepo(t)
		observe(t, repo, tisID, "tis", at(0))
		callbackErr := errors.New("merge failed")

		err := repo.RewriteHistory(ctx, tisID, func([]entities.NameInterval) ([]entities.NameInterval, error) {
			return nil, callbackErr
		})

		require.Error(t, err)
		assert.ErrorIs(t, err, callbackErr)
		history, err := repo.History(ctx, tisID)
		require.NoError(t, err)
		require.Len(t, history, 1)
	})

	t.Run("invalid replacement rolls back", func(t *testing.T) {
		repo := setupTestRepo(t)
		observe(t, repo, tisID, "tis", at(0))

		err := repo.RewriteHistory(ctx, tisID, func([]entities.NameInterval) ([]entities.NameInterval, error) {
			return []entities.NameInterval{
				interval(tisID, "ok", at(0), at(1)),
				interval(jebID, "other", at(0), at(1)),
			}, nil
		})

		assert.ErrorIs(t, err, entities.ErrInvalidInterval)
		history, err := repo.History(ctx, tisID)
		require.NoError(t, err)
		require.Len(t, history, 1)
		assert.Equal(t, "tis", history[0].Name)
	})

	t.Run("insert failure rolls back delete", func(t *testing.T) {
		repo := setupTestRepo(t)
		observe(t, repo, tisID, "tis", at(0))
		_, err := repo.db.Exec(`
			CREATE TRIGGER reject_boom BEFORE INSERT ON name_history
			WHEN NEW.name = 'boom'
			BEGIN SELECT RAISE(ABORT, 'boom rejected'); END
		`)
		require.NoError(t, err)

		err = repo.RewriteHistory(ctx, tisID, func([]entities.NameInterval) ([]entities.NameInterval, error) {
			return []entities.NameInterval{interval(tisID, "boom", at(0), at(1))}, nil
		})

		require.Error(t, err)
		assert.ErrorIs(t, err, ports.ErrStore)
		history, err := repo.History(ctx, tisID)
		require.NoError(t, err)
		require.Len(t, history, 1)
		assert.Equal(t, "tis", history[0].Name)
	})

	t.Run("empty replacement clears identity", func(t *testing.T) {
		repo := setupTestRepo(t)
		observe(t, repo, tisID, "tis", at(0))

		err := repo.RewriteHistory(ctx, tisID, func([]entities.NameInterval) ([]entities.NameInterval, error) {
			return nil, nil
		})
		require.NoError(t, err)

		history, err := repo.History(ctx, tisID)
		require.NoError(t, err)
		assert.Empty(t, history)
	})

	t.Run("newest inserted interval is live", func(t *testing.T) {
		repo := setupTestRepo(t)
		err := repo.RewriteHistory(ctx, tisID, func([]entities.NameInterval) ([]entities.NameInterval, error) {
			return []entities.NameInterval{
				interval(tisID, "tis", at(0), at(0)),
				interval(tisID, "Tis", at(0), at(100)),
			}, nil
		})
		require.NoError(t, err)

		observe(t, repo, tisID, "Tis", at(200))

		history, err := repo.History(ctx, tisID)
		require.NoError(t, err)
		require.Len(t, history, 2)
		assertInterval(t, history[0], "Tis", at(0), at(200))
	})
}

func TestRepository_Identities(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	ids, err := repo.Identities(ctx)
	require.NoError(t, err)
	assert.Empty(t, ids)

	observe(t, repo, jebID, "jeb_", at(0))
	observe(t, repo, tisID, "tis", at(1))
	observe(t, repo, jebID, "jeb", at(2))

	ids, err = repo.Identities(ctx)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{jebID, tisID}, ids)
}

func TestRepository_StoreErrors(t *testing.T) {
	t.Run("closed database", func(t *testing.T) {
		repo, err := NewRepository(config.SQLiteConfig{Path: ":memory:"})
		require.NoError(t, err)
		require.NoError(t, repo.EnsureSchema(context.Background()))
		require.NoError(t, repo.Close())

		_, err = repo.History(context.Background(), tisID)
		assert.ErrorIs(t, err, ports.ErrStore)

		err = repo.RecordObservation(context.Background(), entities.Observation{Identity: tisID, Name: "tis"}, at(0))
		assert.ErrorIs(t, err, ports.ErrStore)
	})

	t.Run("cancelled context", func(t *testing.T) {
		repo := setupTestRepo(t)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		err := repo.RecordObservation(ctx, entities.Observation{Identity: tisID, Name: "tis"}, at(0))
		assert.ErrorIs(t, err, ports.ErrStore)
	})
}

func TestRepository_FileDatabase(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "history.db")

	t.Run("persists across reopen", func(t *testing.T) {
		repo, err := NewRepository(config.SQLiteConfig{Path: path})
		require.NoError(t, err)
		require.NoError(t, repo.EnsureSchema(ctx))
		observe(t, repo, tisID, "tis", at(0))
		require.NoError(t, repo.Close())

		reopened := setupFileRepo(t, path)
		assert.Equal(t, path, reopened.Path())
		history, err := reopened.History(ctx, tisID)
		require.NoError(t, err)
		require.Len(t, history, 1)
		assertInterval(t, history[0], "tis", at(0), at(0))
	})
}

func TestRepository_ConcurrentObservations(t *testing.T) {
	ctx := context.Background()
	repo := setupFileRepo(t, filepath.Join(t.TempDir(), "history.db"))

	const workers = 20
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- repo.RecordObservation(ctx, entities.Observation{Identity: tisID, Name: "tis"}, at(i))
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	history, err := repo.History(ctx, tisID)
	require.NoError(t, err)
	require.Len(t, history, 1, "concurrent observations of one name must share an interval")
	assert.Equal(t, at(workers-1).UnixMilli(), history[0].LastSeen.UnixMilli())
}

func TestRepository_ConcurrentRenames(t *testing.T) {
	ctx := context.Background()
	repo := setupFileRepo(t, filepath.Join(t.TempDir(), "history.db"))

	var wg sync.WaitGroup
	for i := range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			name := fmt.Sprintf("name%d", i%2)
			assert.NoError(t, repo.RecordObservation(ctx, entities.Observation{Identity: tisID, Name: name}, at(0)))
		}()
	}
	wg.Wait()

	history, err := repo.History(ctx, tisID)
	require.NoError(t, err)
	for k := 0; k+1 < len(history); k++ {
		assert.NotEqual(t, history[k].Name, history[k+1].Name, "adjacent intervals must differ in name")
	}
}
