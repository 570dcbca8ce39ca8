package src

import "fmt"

// injected at build time with -ldflags
var (
	Version   = "dev"
	Commit    = "none"
	BuildTime = "unknown"
	GoVersion = "unknown"
)

func VersionShort() string {
	return fmt.Sprintf("%s (%s)", Version, Commit)
}

func VersionLong() string {
	return fmt.Sprintf(
		"Version: %s Git Commit: %s Build Time: %s Go Version: %s",
		Version, Commit, BuildTime, GoVersion,
	)
}
