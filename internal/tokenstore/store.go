// Package tokenstore persists per-work chapter token tables: the
// ordinal-to-token lookup that hosts with erratic chapter codes need to
// build a chapter URL.
package tokenstore

import "context"

// Store keeps one token table per work. Get reports ok=false when the
// work has no stored table.
type Store interface {
	Get(ctx context.Context, workID string) (tokens []string, ok bool, err error)
	Put(ctx context.Context, workID string, tokens []string) error
	Delete(ctx context.Context, workID string) error
	Close() error
}
