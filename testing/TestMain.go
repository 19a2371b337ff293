// Package testing switches the application into test mode for any test
// binary that imports it.
package testing

import (
	"os"
	stdtesting "testing"

	"github.com/wiseman-psychedelics/wiseman-api/internal/app"
)

func init() {
	_ = os.Setenv(app.TestModeEnv, "1")
}

// TestMain runs m with test mode enabled.
func TestMain(m *stdtesting.M) {
	os.Exit(m.Run())
}
