package version

// Version is the backtester release recorded in every run manifest.
// It is set at build time with:
// -ldflags "-X github.com/rxtech-lab/argo-options/internal/version.Version=1.2.3"
var Version = "main"

// GetVersion returns the current version of the backtester.
func GetVersion() string {
	return Version
}
