package app

import (
	"os"
	"strings"
	"sync/atomic"
)

const testModeEnv = "ODYSSEY_TEST_MODE"

// testMode caches testModeEnv: 0 unread, 1 off, 2 on.
var testMode atomic.Int32

// InTestMode reports whether binaries should return before opening
// connections.
func InTestMode() bool {
	if testMode.Load() == 0 {
		RefreshTestMode()
	}
	return testMode.Load() == 2
}

// RefreshTestMode re-reads the environment.
func RefreshTestMode() {
	state := int32(1)
	switch strings.ToLower(strings.TrimSpace(os.Getenv(testModeEnv))) {
	case "1", "true", "yes":
		state = 2
	}
	testMode.Store(state)
}
