// Package repository defines the data access interfaces for Tessera.
//
// This package provides the repository abstraction layer over the engine's
// seven persisted tables. The actual implementation is in the sqlite
// subpackage.
//
// # Interfaces
//
// Store is the read side plus the transaction entry point: catalog and entity
// hydration, deterministic pagination, and Mutate, which runs a function
// against a Tx inside a single transaction.
//
// Tx carries every write operation of the engine: schema catalog mutations,
// entity creation and typing, typed value writes, and relation linking. A Tx
// is only valid inside the Mutate callback that produced it; any error
// returned from the callback rolls the whole transaction back, so no
// partially-written entity is ever observable.
//
// # SQLite Implementation
//
// The sqlite implementation provides a complete store using SQLite with WAL
// mode. It handles:
//
// - The seven-table persisted layout with foreign keys and cascade deletes
// - Typed column slots for property values (no stringly-typed storage)
// - Identity-keyed schema evolution (renames never orphan values)
// - Deterministic hydration ordering for pagination and UI diffing
package repository
