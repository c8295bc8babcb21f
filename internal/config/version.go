package config

import (
	"os"
	"runtime/debug"
)

// Version is stamped at build time with -ldflags "-X tsdash/internal/config.Version=..."
var Version = "dev"

// GetVersion returns the version from APP_VERSION, the build stamp, or the module build info
func GetVersion() string {
	if envVersion := os.Getenv("APP_VERSION"); envVersion != "" {
		return envVersion
	}
	if Version != "dev" {
		return Version
	}
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
		return info.Main.Version
	}
	return Version
}
