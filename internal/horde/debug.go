package horde

import "sync/atomic"

// debugLoggingEnabled controls whether debug logging is enabled for the
// horde subsystem. Package-level flag to avoid checking log level on every
// call. Set via EnableDebugLogging() during initialization.
var debugLoggingEnabled atomic.Bool

// EnableDebugLogging enables or disables debug logging for the horde
// subsystem. Call during initialization after parsing config.
func EnableDebugLogging(enabled bool) {
	debugLoggingEnabled.Store(enabled)
}

// IsDebugEnabled returns true if debug logging is enabled.
// Use this to guard expensive debug log calls:
//
//	if horde.IsDebugEnabled() {
//	    slog.Debug("expensive operation", "data", computeExpensiveData())
//	}
func IsDebugEnabled() bool {
	return debugLoggingEnabled.Load()
}
