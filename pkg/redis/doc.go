// Package redis wraps the go-redis client with a retrying Connect helper and
// a readiness probe. The tenant directory uses Redis as a shared cache in
// multi-instance deployments.
package redis
