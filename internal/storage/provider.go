// Package storage defines the content directory abstraction.
package storage

// Provider is the interface for reading a flat directory of content files.
type Provider interface {
	// Root returns the absolute path of the content directory.
	Root() string
	// Discover returns the names of every file directly under the root
	// whose extension equals ext. Order is not guaranteed.
	Discover(ext string) ([]string, error)
	// Read returns the raw bytes of the named file.
	Read(name string) ([]byte, error)
}
