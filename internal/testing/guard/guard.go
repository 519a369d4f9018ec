// Package guard switches binaries under test into test mode on import.
package guard

import (
	"os"

	"github.com/odyssey-erp/odyssey-po/internal/app"
)

func init() {
	if os.Getenv("ODYSSEY_TEST_MODE") == "" {
		_ = os.Setenv("ODYSSEY_TEST_MODE", "1")
	}
	app.RefreshTestMode()
}
