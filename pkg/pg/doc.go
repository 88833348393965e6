// Package pg provides utilities for interacting with PostgreSQL using the
// pgx/v5 driver: connection pooling with retries, goose schema migrations,
// health checks, and helpers for classifying common database errors.
//
// Config fields are populated from environment variables via the config
// loader. Connect opens a *pgxpool.Pool and Migrate guarantees the schema is
// up to date before the service starts serving traffic.
package pg
