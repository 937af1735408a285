package config

import (
	"os"
	"runtime/debug"
	"strings"
)

// Version is set at build time with -ldflags "-X heliopulse/internal/config.Version=..."
var Version = ""

const fallbackVersion = "0.1.0"

// GetVersion resolves the service version from, in order: APP_VERSION, the
// linker-injected Version, a VERSION file in the working directory and the
// module build info.
func GetVersion() string {
	if v := os.Getenv("APP_VERSION"); v != "" {
		return v
	}
	if Version != "" {
		return Version
	}
	if v := readVersionFile("VERSION"); v != "" {
		return v
	}
	if info, ok := debug.ReadBuildInfo(); ok {
		if v := strings.TrimPrefix(info.Main.Version, "v"); v != "" && v != "(devel)" {
			return v
		}
	}
	return fallbackVersion
}

func readVersionFile(path string) string {
	content, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(content))
}
