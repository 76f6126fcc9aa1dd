package logging

import (
	"context"

	"go.viam.com/utils"
)

type debugKeyCtxKey struct{}

// EnableDebugMode returns a context under which the C* logging methods log at debug regardless of
// the logger's level. Entries logged that way carry debugLogKey, a random one when empty, so one
// command's forced debug output can be picked out of a shared log.
func EnableDebugMode(ctx context.Context, debugLogKey string) context.Context {
	if debugLogKey == "" {
		debugLogKey = utils.RandomAlphaString(6)
	}
	return context.WithValue(ctx, debugKeyCtxKey{}, debugLogKey)
}

// IsDebugMode reports whether ctx has debug logging enabled.
func IsDebugMode(ctx context.Context) bool {
	return GetName(ctx) != ""
}

// GetName returns the debug key ctx was enabled with, or "".
func GetName(ctx context.Context) string {
	key, _ := ctx.Value(debugKeyCtxKey{}).(string)
	return key
}
