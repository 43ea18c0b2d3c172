// Package debug provides conditional diagnostic logging.
//
// Logging is enabled by setting the TOMATO_DEBUG environment variable:
//
//	TOMATO_DEBUG=1 tomato
//
// When enabled, messages are written to stderr with timestamps. When
// disabled (default), all calls are no-ops. Failure paths in the timer
// core degrade to "nothing happens this tick" and report here rather
// than surfacing fatal errors.
package debug

import (
	"log"
	"os"
)

var (
	enabled bool
	logger  *log.Logger
)

func init() {
	if os.Getenv("TOMATO_DEBUG") != "" {
		enabled = true
		logger = log.New(os.Stderr, "[tomato] ", log.Ltime|log.Lmicroseconds)
	}
}

// Enabled returns whether diagnostic logging is enabled.
func Enabled() bool {
	return enabled
}

// SetEnabled allows programmatic control, mostly for tests.
func SetEnabled(e bool) {
	enabled = e
	if e && logger == nil {
		logger = log.New(os.Stderr, "[tomato] ", log.Ltime|log.Lmicroseconds)
	}
}

// Logf writes a printf-style diagnostic message if logging is enabled.
func Logf(format string, args ...any) {
	if !enabled {
		return
	}
	logger.Printf(format, args...)
}

// Errorf reports a degraded-path error if logging is enabled.
func Errorf(op string, err error) {
	if !enabled || err == nil {
		return
	}
	logger.Printf("%s: %v", op, err)
}
