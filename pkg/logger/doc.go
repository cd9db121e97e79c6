// Package logger provides the structured logging interface used across fbexport.
//
// It wraps zerolog. Components never reach for a global; they receive a
// Logger through their execution context and attach fields to it:
//
//	log := logger.GetLogger().WithField("endpoint", "feed")
//	log.DebugWithFields("page fetched", map[string]interface{}{
//	    "items":  25,
//	    "cursor": "1325376000",
//	})
//
// Tests use NewNopLogger, or NewTestLogger when they need to assert on
// what was logged.
package logger
