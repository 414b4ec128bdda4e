// Package entities defines core domain models and data structures.
package entities

// Artifact represents an installer downloaded to local storage for a single run
type Artifact struct {
	Name     string
	Version  string
	Platform string
	Path     string
	Size     int64
	SHA256   string
}
