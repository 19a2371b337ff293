package app

import (
	"os"
	"sync"
)

// TestModeEnv marks a process started by go test. The root testing package
// sets it during init.
const TestModeEnv = "WISEMAN_TEST_MODE"

var testMode = sync.OnceValue(func() bool {
	return os.Getenv(TestModeEnv) == "1"
})

// InTestMode reports whether the application should skip runtime side effects.
// The flag is read once, on first use.
func InTestMode() bool {
	return testMode()
}
