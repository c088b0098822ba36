package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// These variables are populated at build time via -ldflags.
var (
	Version = "dev"
	Commit  = ""
	Date    = ""
)

func String() string {
	base := Version
	if base == "dev" {
		if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
			base = info.Main.Version
		}
	}
	if Commit != "" {
		base += fmt.Sprintf(" (%s)", Commit)
	}
	if Date != "" {
		base += fmt.Sprintf(" %s", Date)
	}
	return base
}

// Full adds the Go toolchain and platform, for --version output.
func Full() string {
	return fmt.Sprintf("logtrail %s %s %s/%s", String(), runtime.Version(), runtime.GOOS, runtime.GOARCH)
}
