// Package logging defines the structured-logging interface used by the vault
// services and a log/slog implementation of it.
//
// Callers never pass keys, passwords or plaintext as attributes. Identities,
// document ids and share token prefixes are fine.
package logging

import "context"

// Logger is a context-aware, structured logger.
//
// The variadic args are interpreted as key-value pairs, e.g.:
//
//	log.Info(ctx, "document uploaded", "owner", identity, "doc_id", id)
type Logger interface {
	Debug(ctx context.Context, msg string, args ...any)
	Info(ctx context.Context, msg string, args ...any)
	Warn(ctx context.Context, msg string, args ...any)
	Error(ctx context.Context, msg string, args ...any)

	// With returns a child logger that always includes the given pairs.
	With(args ...any) Logger
}
