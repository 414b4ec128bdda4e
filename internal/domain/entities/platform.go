package entities

// PlatformTarget pairs a platform label with the vendor redirect that points
// at the current installer for that platform
type PlatformTarget struct {
	Name        string
	RedirectURL string
}

// ResolvedVersion is the per-run result of following a platform redirect
type ResolvedVersion struct {
	Platform    string
	ResolvedURL string
	Version     string
	Filename    string
	Tag         string // Optional platform tag from the upstream filename (e.g. "x64")
	Extension   string
}

// TagName returns the release tag used for this version (e.g. v2.10.8)
func TagName(version string) string {
	return "v" + version
}
