// Package migrations holds the goose SQL migrations for the RSVP tables, one
// directory per dialect. Row numbers are assigned by the database so that
// concurrent inserts never compete for the same value.
package migrations

import (
	"embed"
	"io/fs"
)

//go:embed postgres/*.sql sqlite/*.sql
var files embed.FS

// Postgres returns the migrations for PostgreSQL.
func Postgres() fs.FS {
	return sub("postgres")
}

// SQLite returns the migrations for SQLite.
func SQLite() fs.FS {
	return sub("sqlite")
}

func sub(dir string) fs.FS {
	fsys, err := fs.Sub(files, dir)
	if err != nil {
		// dir is a constant embedded above.
		panic(err)
	}
	return fsys
}
