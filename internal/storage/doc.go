// Package storage provides the flat key-value persistence used by the report
// scheduler (delivery history and status records).
//
// Drivers:
//   - "file": JSON snapshot + append-only journal, re-read on every call
//     so a CLI command and the daemon can share it
//   - "sqlite": single table in a SQLite database file
//   - "memory": process-local map, for tests and dry runs
package storage
