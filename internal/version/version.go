package version

import (
	"fmt"
	"runtime"
)

// Set at build time with -ldflags "-X github.com/ggonzalez94/neartx/internal/version.Commit=...".
var (
	CLIName    = "neartx"
	CLIVersion = "0.1.0"
	Commit     = "unknown"
	BuildDate  = "unknown"
)

func Long() string {
	return fmt.Sprintf("%s %s (commit: %s, built: %s, %s/%s)", CLIName, CLIVersion, Commit, BuildDate, runtime.GOOS, runtime.GOARCH)
}

// UserAgent identifies neartx to RPC endpoints.
func UserAgent() string {
	return CLIName + "/" + CLIVersion
}
