// Package service implements the mutation coordinator for the Tessera engine.
//
// This package sits between the HTTP handlers and the repository layer. Every
// write runs inside a single repository transaction: compound operations such
// as creating an edge with its values and participant links either commit
// completely or leave no trace.
//
// # Event System
//
// The coordinator publishes a change notification on the EventBus after each
// successful commit. Subscribers (the SSE hub) fan these out to connected
// clients as a re-poll trigger; rolled-back transactions publish nothing.
//
// # Design Principles
//
// - One transaction per operation, full rollback on failure
// - Events only after commit
// - Repository pattern for data access
// - Context-aware for cancellation and timeouts
package service
