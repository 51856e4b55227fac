package session

import (
	"context"
	"net/http"
)

// Transport is the slice of the API client the session store uses. SetToken
// keeps the bearer token in the transport's memory only.
type Transport interface {
	GetJSON(ctx context.Context, path string, out any) error
	PostJSON(ctx context.Context, path string, body, out any) error
	PostJSONHeaders(ctx context.Context, path string, body, out any, hdr http.Header) error
	SetToken(tok string)
	CSRFToken() string
}

// Persister stores the non-secret profile between runs.
type Persister interface {
	SaveProfile(ctx context.Context, username, displayName, role string) error
	LoadProfile(ctx context.Context) (username, displayName, role string, found bool, err error)
	ClearProfile(ctx context.Context) error
}
