// Package postgres implements the service repositories on PostgreSQL via
// database/sql and lib/pq. Queries use positional $n placeholders and map
// sql.ErrNoRows to each service's ErrNotFound.
package postgres
