package database

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"
)

// schemaDir is the repository's migrations directory.
var schemaDir = filepath.Join("..", "..", "..", "migrations")

const trackHistoryUp = "20260301_120000_track_history.up.sql"

// useMigrations points the loader at fsys for the duration of the test.
func useMigrations(t *testing.T, fsys fstest.MapFS) {
	t.Helper()
	origFS, origDir := MigrationsFS, MigrationsDir
	t.Cleanup(func() {
		MigrationsFS, MigrationsDir = origFS, origDir
	})
	if fsys == nil {
		MigrationsFS = nil
	} else {
		MigrationsFS = fsys
	}
	MigrationsDir = "."
}

// trackHistoryFS returns the shipped track_history migration plus extra files.
func trackHistoryFS(t *testing.T, extra map[string]string) fstest.MapFS {
	t.Helper()
	up, err := os.ReadFile(filepath.Join(schemaDir, trackHistoryUp))
	if err != nil {
		t.Fatalf("reading %s: %v", trackHistoryUp, err)
	}
	fsys := fstest.MapFS{trackHistoryUp: {Data: up}}
	for name, body := range extra {
		fsys[name] = &fstest.MapFile{Data: []byte(body)}
	}
	return fsys
}

// recordedVersions lists schema_migrations rows as "version name", oldest first.
func recordedVersions(t *testing.T, db *DB) []string {
	t.Helper()
	rows, err := db.QueryContext(context.Background(),
		"SELECT version, name FROM schema_migrations ORDER BY version")
	if err != nil {
		t.Fatalf("querying schema_migrations: %v", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var v, n string
		if err := rows.Scan(&v, &n); err != nil {
			t.Fatalf("scan: %v", err)
		}
		out = append(out, v+" "+n)
	}
	return out
}

func schemaObjectExists(t *testing.T, db *DB, kind, name string) bool {
	t.Helper()
	var count int
	err := db.QueryRowContext(context.Background(),
		"SELECT COUNT(*) FROM sqlite_master WHERE type = ? AND name = ?", kind, name,
	).Scan(&count)
	if err != nil {
		t.Fatalf("querying sqlite_master: %v", err)
	}
	return count == 1
}

func TestMigrateTrackHistory(t *testing.T) {
	useMigrations(t, nil)
	MigrationsFS = os.DirFS(schemaDir)

	db := openTestDB(t)
	ctx := context.Background()

	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}

	if !schemaObjectExists(t, db, "table", "track_history") {
		t.Fatal("track_history table not created")
	}
	for _, idx := range []string{"idx_track_history_loaded", "idx_track_history_deck"} {
		if !schemaObjectExists(t, db, "index", idx) {
			t.Errorf("index %s not created", idx)
		}
	}

	got := recordedVersions(t, db)
	if len(got) != 1 || got[0] != "20260301_120000 track_history" {
		t.Errorf("schema_migrations = %v, want [20260301_120000 track_history]", got)
	}

	// A second run finds nothing pending; the .down.sql beside it is never run.
	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("second Migrate() error = %v", err)
	}
	if !schemaObjectExists(t, db, "table", "track_history") {
		t.Error("track_history dropped by second Migrate()")
	}
	if got := recordedVersions(t, db); len(got) != 1 {
		t.Errorf("schema_migrations after rerun = %v, want one row", got)
	}
}

func TestTrackHistoryConstraints(t *testing.T) {
	useMigrations(t, trackHistoryFS(t, nil))

	db := openTestDB(t)
	ctx := context.Background()
	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}

	tests := []struct {
		name    string
		query   string
		args    []any
		wantErr bool
	}{
		{
			name:  "minimal load uses column defaults",
			query: "INSERT INTO track_history (id, deck, loaded_at) VALUES (?, ?, ?)",
			args:  []any{"load-1", 1, "2026-03-01T21:00:00Z"},
		},
		{
			name:  "full load",
			query: "INSERT INTO track_history (id, deck, title, artist, track_uri, source, bpm, key_label, device_name, loaded_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
			args:  []any{"load-2", 4, "Strobe", "deadmau5", "net://usb1/Strobe.mp3", "usb1", 128.0, "8A", "PRIME4", "2026-03-01T21:05:00Z"},
		},
		{
			name:    "deck above four",
			query:   "INSERT INTO track_history (id, deck, loaded_at) VALUES (?, ?, ?)",
			args:    []any{"load-3", 5, "2026-03-01T21:10:00Z"},
			wantErr: true,
		},
		{
			name:    "deck zero",
			query:   "INSERT INTO track_history (id, deck, loaded_at) VALUES (?, ?, ?)",
			args:    []any{"load-4", 0, "2026-03-01T21:10:00Z"},
			wantErr: true,
		},
		{
			name:    "strict table rejects text bpm",
			query:   "INSERT INTO track_history (id, deck, bpm, loaded_at) VALUES (?, ?, ?, ?)",
			args:    []any{"load-5", 2, "fast", "2026-03-01T21:10:00Z"},
			wantErr: true,
		},
		{
			name:    "loaded_at required",
			query:   "INSERT INTO track_history (id, deck) VALUES (?, ?)",
			args:    []any{"load-6", 3},
			wantErr: true,
		},
		{
			name:    "duplicate id",
			query:   "INSERT INTO track_history (id, deck, loaded_at) VALUES (?, ?, ?)",
			args:    []any{"load-1", 2, "2026-03-01T21:15:00Z"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := db.ExecContext(ctx, tt.query, tt.args...)
			if (err != nil) != tt.wantErr {
				t.Errorf("insert error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}

	var title string
	var bpm float64
	if err := db.QueryRowContext(ctx, "SELECT title, bpm FROM track_history WHERE id = ?", "load-1").Scan(&title, &bpm); err != nil {
		t.Fatalf("select error = %v", err)
	}
	if title != "" || bpm != 0 {
		t.Errorf("defaults = (%q, %v), want (\"\", 0)", title, bpm)
	}
}

func TestMigrateAppliesOnlyPending(t *testing.T) {
	useMigrations(t, trackHistoryFS(t, nil))

	db := openTestDB(t)
	ctx := context.Background()
	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	if _, err := db.ExecContext(ctx,
		"INSERT INTO track_history (id, deck, title, loaded_at) VALUES ('keep', 1, 'Opus', '2026-03-01T22:00:00Z')",
	); err != nil {
		t.Fatalf("insert error = %v", err)
	}

	// A later release adds a column. Re-running track_history would fail on
	// the existing table, so success proves only the new step ran.
	MigrationsFS = trackHistoryFS(t, map[string]string{
		"20260401_090000_track_history_rating.up.sql":   "ALTER TABLE track_history ADD COLUMN rating INTEGER;",
		"20260401_090000_track_history_rating.down.sql": "ALTER TABLE track_history DROP COLUMN rating;",
	})
	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("Migrate() with new step error = %v", err)
	}

	got := recordedVersions(t, db)
	want := []string{"20260301_120000 track_history", "20260401_090000 track_history_rating"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("schema_migrations = %v, want %v", got, want)
	}

	var title string
	var rating *int
	if err := db.QueryRowContext(ctx, "SELECT title, rating FROM track_history WHERE id = 'keep'").Scan(&title, &rating); err != nil {
		t.Fatalf("select error = %v", err)
	}
	if title != "Opus" || rating != nil {
		t.Errorf("row = (%q, %v), want (\"Opus\", nil)", title, rating)
	}
}

func TestMigrateFailureKeepsEarlierSteps(t *testing.T) {
	useMigrations(t, trackHistoryFS(t, map[string]string{
		"20260402_000000_broken.up.sql": "CREATE TABLE broken (",
	}))

	db := openTestDB(t)
	ctx := context.Background()

	err := db.Migrate(ctx)
	if err == nil {
		t.Fatal("Migrate() with broken step should fail")
	}
	if !strings.Contains(err.Error(), "20260402_000000") {
		t.Errorf("error %q does not name the failed version", err)
	}

	if !schemaObjectExists(t, db, "table", "track_history") {
		t.Error("track_history rolled back with the failed step")
	}
	got := recordedVersions(t, db)
	if len(got) != 1 || got[0] != "20260301_120000 track_history" {
		t.Errorf("schema_migrations = %v, want only track_history", got)
	}

	// Fixing the file lets the next run continue from the failed step.
	MigrationsFS.(fstest.MapFS)["20260402_000000_broken.up.sql"] = &fstest.MapFile{
		Data: []byte("CREATE TABLE broken (id INTEGER PRIMARY KEY);"),
	}
	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("Migrate() after fix error = %v", err)
	}
	if got := recordedVersions(t, db); len(got) != 2 {
		t.Errorf("schema_migrations after fix = %v, want two rows", got)
	}
}

func TestMigrateWithoutFiles(t *testing.T) {
	useMigrations(t, nil)

	db := openTestDB(t)
	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate() with no migrations error = %v", err)
	}
	if got := recordedVersions(t, db); len(got) != 0 {
		t.Errorf("schema_migrations = %v, want empty", got)
	}
}

func TestLoadMigrations(t *testing.T) {
	t.Run("orders up files and skips the rest", func(t *testing.T) {
		fsys := fstest.MapFS{
			"sql/20260401_090000_track_history_rating.up.sql": {Data: []byte("B")},
			"sql/20260301_120000_track_history.up.sql":        {Data: []byte("A")},
			"sql/20260301_120000_track_history.down.sql":      {Data: []byte("DROP")},
			"sql/README.md":                                   {Data: []byte("docs")},
			"sql/track_history.up.sql":                        {Data: []byte("no version")},
			"sql/20260301_track_history.up.sql":               {Data: []byte("no clock")},
		}

		got, err := loadMigrations(fsys, "sql")
		if err != nil {
			t.Fatalf("loadMigrations() error = %v", err)
		}
		want := []migration{
			{version: "20260301_120000", name: "track_history", sql: "A"},
			{version: "20260401_090000", name: "track_history_rating", sql: "B"},
		}
		if len(got) != len(want) {
			t.Fatalf("loadMigrations() = %+v, want %+v", got, want)
		}
		for i := range want {
			if got[i] != want[i] {
				t.Errorf("migration[%d] = %+v, want %+v", i, got[i], want[i])
			}
		}
	})

	t.Run("duplicate version", func(t *testing.T) {
		fsys := fstest.MapFS{
			"20260301_120000_track_history.up.sql": {Data: []byte("A")},
			"20260301_120000_deck_notes.up.sql":    {Data: []byte("B")},
		}
		if _, err := loadMigrations(fsys, "."); err == nil {
			t.Error("loadMigrations() with duplicate version should fail")
		}
	})

	t.Run("shipped directory", func(t *testing.T) {
		got, err := loadMigrations(os.DirFS(schemaDir), ".")
		if err != nil {
			t.Fatalf("loadMigrations() error = %v", err)
		}
		if len(got) == 0 || got[0].name != "track_history" {
			t.Fatalf("first shipped migration = %+v, want track_history", got)
		}
		if !strings.Contains(got[0].sql, "CREATE TABLE track_history") {
			t.Error("track_history migration does not create the table")
		}
	})
}

func TestParseMigrationFilename(t *testing.T) {
	tests := []struct {
		filename    string
		wantVersion string
		wantName    string
		wantOk      bool
	}{
		{"20260301_120000_track_history.up.sql", "20260301_120000", "track_history", true},
		{"20260401_090000_track_history_rating.up.sql", "20260401_090000", "track_history_rating", true},
		{"20260301_120000_track_history.down.sql", "", "", false},
		{"20260301_120000_track_history.sql", "", "", false},
		{"20260301_120000.up.sql", "", "", false},
		{"2026031_120000_short_date.up.sql", "", "", false},
		{"20260301_12000a_bad_clock.up.sql", "", "", false},
		{"20260301_120000_.up.sql", "", "", false},
		{"README.md", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			version, name, ok := parseMigrationFilename(tt.filename)
			if ok != tt.wantOk || version != tt.wantVersion || name != tt.wantName {
				t.Errorf("parseMigrationFilename(%q) = (%q, %q, %v), want (%q, %q, %v)",
					tt.filename, version, name, ok, tt.wantVersion, tt.wantName, tt.wantOk)
			}
		})
	}
}
