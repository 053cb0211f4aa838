// Package database provides SQLite connectivity for deckstate-core.
//
// It opens the database with WAL mode and a busy timeout, and applies the
// schema migrations embedded by the migrations package. The track history
// repository is its only consumer.
//
// Usage:
//
//	db, err := database.Open(ctx, database.Config{Path: cfg.Database.Path, WALMode: true, BusyTimeout: 5})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx); err != nil {
//	    log.Fatal(err)
//	}
//
// Migrations are additive: new columns must be nullable or have defaults,
// and every .up.sql should ship with a .down.sql for manual rollback.
// Migrate only ever runs the .up.sql files.
package database
