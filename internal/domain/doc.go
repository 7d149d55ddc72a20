// Package domain defines the core domain types for the Tessera graph-relational
// storage engine.
//
// This package contains the fundamental entities and value objects of the engine:
// schema definitions with typed attributes and roles, the universal entity identity,
// tagged property values, and the denormalized views produced by the read path.
//
// # Core Types
//
// Schema defines a reusable type. Entity-kind schemas describe nodes (name + typed
// attributes); relation-kind schemas describe edges (name + typed attributes + roles).
//
// Entity is the single identity granted to every node and every edge. An entity may
// instantiate several schemas at once (composite typing); it is classified as an edge
// when at least one of its schemas is relation-kind, and as a node otherwise.
//
// Value is a tagged union carrying exactly one of the four supported data types
// (text, integer, real, boolean). A value is always validated against the declared
// data type of its attribute before any write.
//
// EntityView is the display-ready aggregate produced by the loader: the entity's
// resolved schema set, name-resolved property values, classification and label.
//
// # Design Principles
//
// - Immutable value objects where possible
// - No database or external dependencies
// - Pure domain logic without infrastructure concerns
// - Typed errors only; the engine never logs
package domain
