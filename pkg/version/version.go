package version

// Version is the current gigs release.
const Version = "0.4.0"

// BuildVersion returns the version string for display.
func BuildVersion() string {
	return "gigs version " + Version
}

// UserAgent identifies the client to the search service.
func UserAgent() string {
	return "gigs/" + Version
}
