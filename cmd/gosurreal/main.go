// gosurreal is a command line client for SurrealDB-compatible servers.
// It runs ad hoc SurrealQL, streams live query notifications, and
// applies file-based schema migrations.
package main

func main() {
	Execute()
}
