// Package stores persists use case metadata, configuration documents and the
// model catalog in SQLite.
//
// A single SQLiteStore implements engine.RecordStore, engine.ConfigStore and
// engine.ModelInfoSource. Soft-deleted rows carry an expiry time and stay
// readable until PurgeExpired removes them. Schema changes are applied with
// embedded golang-migrate migrations.
package stores
