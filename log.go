// Copyright 2026 The Memory-Pool Authors.

package mempool

import "github.com/rs/zerolog"

// Logger is the logging collaborator every pool variant calls into. It is
// intentionally narrow: three sinks, covering pool exhaustion, stranger
// frees, free-after-destroy, and host allocator failure. Callers that
// don't care about diagnostics can pass NopLogger{}.
type Logger interface {
	Info(msg string, kv ...any)
	Warn(msg string, kv ...any)
	Error(msg string, err error, kv ...any)
}

// NopLogger discards every message. It is the default when no Logger option
// is supplied, so the core engine never requires a logging dependency to
// function.
type NopLogger struct{}

func (NopLogger) Info(string, ...any)         {}
func (NopLogger) Warn(string, ...any)         {}
func (NopLogger) Error(string, error, ...any) {}

// ZerologLogger adapts a zerolog.Logger to the Logger interface.
type ZerologLogger struct {
	Z zerolog.Logger
}

// NewZerologLogger wraps z as a Logger.
func NewZerologLogger(z zerolog.Logger) ZerologLogger { return ZerologLogger{Z: z} }

func (l ZerologLogger) Info(msg string, kv ...any) {
	addFields(l.Z.Info(), kv...).Msg(msg)
}

func (l ZerologLogger) Warn(msg string, kv ...any) {
	addFields(l.Z.Warn(), kv...).Msg(msg)
}

func (l ZerologLogger) Error(msg string, err error, kv ...any) {
	addFields(l.Z.Error().Err(err), kv...).Msg(msg)
}

// addFields applies a flat key, value, key, value... list to a zerolog
// event. Odd-length lists drop their trailing key; this is a logging
// collaborator, not a place to panic on a call-site mistake.
func addFields(e *zerolog.Event, kv ...any) *zerolog.Event {
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			continue
		}
		e = e.Interface(key, kv[i+1])
	}
	return e
}
