// Package version provides build-time version information.
package version

// These variables are set at build time via ldflags.
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

// Template is the cobra version template for dmd.
func Template() string {
	return "dmd version {{.Version}} (commit: " + Commit + ", built: " + Date + ")\n"
}
