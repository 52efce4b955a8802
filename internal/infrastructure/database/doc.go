// Package database manages the SQLite connection for the show event log.
//
// It owns connection setup (WAL mode, busy timeout, pool sizing for
// SQLite's single-writer model) and applies the embedded schema
// idempotently at open. Repositories in other packages run their queries
// through the returned *DB.
package database
