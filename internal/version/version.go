package version

import (
	"fmt"
	"runtime"
)

// Name is the binary name shown in version output.
const Name = "chaos"

// Version, Commit and BuildDate are set at build time, for example:
// go build -ldflags "-X github.com/GT-610/chaos-translator/internal/version.Version=0.90.0"
var (
	Version   = "0.90.0"
	Commit    = "unknown"
	BuildDate = "unknown"
)

// Info returns a multi-line version string for CLI output.
func Info() string {
	return fmt.Sprintf("%s %s\ncommit: %s\nbuild: %s\ngo: %s %s/%s",
		Name, Version, Commit, BuildDate, runtime.Version(), runtime.GOOS, runtime.GOARCH)
}
