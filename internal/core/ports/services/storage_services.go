package services

import "context"

// ObjectStore uploads a local file to public media storage.
type ObjectStore interface {
	// Upload stores the file at localPath and returns its public URL.
	// The local file is removed once the attempt finishes.
	Upload(ctx context.Context, localPath string) (string, error)
}
