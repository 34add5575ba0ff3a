//go:build !rp2350

package platform

import (
	"io"
	"os"
)

// Console returns the log output for host builds.
func Console() io.Writer { return os.Stderr }
