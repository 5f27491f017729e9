// Package gosurreal provides a Go client for SurrealDB with transparent
// field-level encryption.
//
// Talk to a SurrealDB server over its session-oriented RPC protocol, build
// SurrealQL statements from composable clauses, and mark struct fields for
// encryption or password hashing so they are transformed before they ever
// cross the wire — all without writing raw SurrealQL.
//
// The module is organized into four packages:
//
//   - [github.com/CaliLuke/go-surreal/surql] — SurrealQL clause and statement builders
//   - [github.com/CaliLuke/go-surreal/fieldenc] — field-level encryption and hashing pipeline
//   - [github.com/CaliLuke/go-surreal/driver] — RPC client: sessions, request correlation, live queries
//   - [github.com/CaliLuke/go-surreal/surtype] — struct-tag mapping: models, CRUD, migrations
//
// The surql, fieldenc, and surtype packages compile and test without a
// running database. Only the driver package opens network connections.
package gosurreal
