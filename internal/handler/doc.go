// Package handler implements HTTP request handlers for the Tessera API.
//
// This package provides the HTTP layer in front of the mutation coordinator,
// handling requests for schema catalog management, entity and value writes,
// relation linking, and hydrated graph reads.
//
// # API Design
//
// All handlers follow REST conventions:
// - GET for retrieval
// - POST for creation
// - PUT for renames and value writes
// - PATCH for compound entity edits
// - DELETE for removal
//
// Errors are returned as JSON with appropriate HTTP status codes. The typed
// failure kinds from the engine map onto statuses: conflicts (duplicates,
// in-use schemas, cardinality) are 409, typing and input faults are 400,
// unknown identifiers are 404, storage faults are 500.
//
// # Response Format
//
// Success responses return JSON data with appropriate status codes (200, 201).
// Error responses return JSON with {error, details} structure.
//
// # Server-Sent Events
//
// The /events endpoint provides per-commit change notifications via SSE,
// letting clients re-poll the read API when the stored graph changes.
package handler
