package catalog

import "context"

// Getter fetches an unenveloped JSON document from the backend.
type Getter interface {
	GetRaw(ctx context.Context, path string, out any) error
}
