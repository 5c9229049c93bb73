package app

import (
	"os"
	"strconv"
	"sync/atomic"
)

// TestModeEnv switches binaries into test mode: they return before touching
// Redis, Postgres or the network.
const TestModeEnv = "UDHAR_TEST_MODE"

var testMode atomic.Pointer[bool]

func readTestMode() bool {
	on, _ := strconv.ParseBool(os.Getenv(TestModeEnv))
	testMode.Store(&on)
	return on
}

// InTestMode reports whether the application should skip runtime side effects.
func InTestMode() bool {
	if v := testMode.Load(); v != nil {
		return *v
	}
	return readTestMode()
}

// RefreshTestMode re-reads the flag after environment changes.
func RefreshTestMode() {
	readTestMode()
}
