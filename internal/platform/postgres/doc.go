// Package postgres provides PostgreSQL implementations of the store
// interfaces. All stores share the DBTX abstraction so the same code runs
// against a *sql.DB or inside a *sql.Tx, and driver errors are mapped to the
// store package's sentinel errors via MapError.
package postgres
