package buildinfo

import (
	"fmt"
	"runtime"
)

var (
	Version = "dev"
	Commit  = ""
	Date    = ""
)

// UserAgent is sent with image requests.
func UserAgent() string {
	return fmt.Sprintf("comicdl/%s (%s; %s)", Version, runtime.GOOS, runtime.GOARCH)
}
