package instances

import "context"

// Transport is the slice of the API client this store needs.
type Transport interface {
	GetJSON(ctx context.Context, path string, out any) error
	PostJSON(ctx context.Context, path string, body, out any) error
}
