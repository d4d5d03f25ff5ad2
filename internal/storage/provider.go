// Package storage defines the file-system abstraction for sources and output.
package storage

import "time"

// FileInfo describes one file found by List.
type FileInfo struct {
	Path    string // relative to the provider root, slash separated
	ModTime time.Time
	Size    int64
}

// Provider is the interface for rooted file operations.
type Provider interface {
	// Root returns the absolute directory the provider is rooted at.
	Root() string
	// List returns every file under dir (relative to root) whose name ends with ext.
	List(dir, ext string) ([]FileInfo, error)
	// Read returns the raw bytes of the file at path (relative to root).
	Read(path string) ([]byte, error)
	// Write atomically writes content to path. It reports false when the
	// file already held identical content and was left untouched.
	Write(path string, content []byte) (bool, error)
	// Import copies the file or directory tree at src (any path) to dst
	// (relative to root).
	Import(src, dst string) error
}
