package port

import (
	"context"
	"errors"

	"solana_tokens/internal/domain/entity"
)

// Failure classes reported by a TokenListClient. Returned errors wrap exactly one of them.
var (
	// ErrTransport means the request never produced a response (connection, DNS, timeout).
	ErrTransport = errors.New("token list transport error")
	// ErrStatus means the endpoint answered with a non-2xx status.
	ErrStatus = errors.New("token list non-success response")
	// ErrDecode means the body was not a JSON array of tokens.
	ErrDecode = errors.New("token list decode error")
)

// TokenListClient retrieves token lists from the remote API.
type TokenListClient interface {
	// GetStrict fetches the curated list.
	GetStrict(ctx context.Context) ([]entity.Token, error)
	// GetAll fetches the full list, optionally including banned tokens.
	GetAll(ctx context.Context, includeBanned bool) ([]entity.Token, error)
}

// TokenStore is the surface a store exposes to its consumers.
// Consumers may trigger retrievals but never write the state directly.
//
// A successful fetch returns a non-nil slice, empty when the list is empty. A nil
// slice with a nil error means the store swallowed a failure and kept its tokens.
type TokenStore interface {
	FetchStrict(ctx context.Context) ([]entity.Token, error)
	FetchAll(ctx context.Context, includeBanned bool) ([]entity.Token, error)
	Tokens() []entity.Token
	Loading() bool
	Lookup(address string) (entity.Token, bool)
	FilterByTag(tag string) []entity.Token
}
