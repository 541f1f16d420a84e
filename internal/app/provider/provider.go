package provider

import (
	"context"
	"errors"

	"solana_tokens/internal/app/port"
	"solana_tokens/internal/app/service"

	"github.com/gin-gonic/gin"
)

// ErrNoProvider is returned when a store is requested outside any provider scope.
var ErrNoProvider = errors.New("token store requested outside of a token store provider: wrap the caller with provider.WithStore or provider.Middleware")

type storeKey struct{}

// WithStore returns a child context that provides store to everything derived from it.
func WithStore(ctx context.Context, store port.TokenStore) context.Context {
	return context.WithValue(ctx, storeKey{}, store)
}

// FromContext returns the store provided to ctx, or ErrNoProvider.
func FromContext(ctx context.Context) (port.TokenStore, error) {
	if ctx == nil {
		return nil, ErrNoProvider
	}
	store, ok := ctx.Value(storeKey{}).(port.TokenStore)
	if !ok || store == nil {
		return nil, ErrNoProvider
	}
	return store, nil
}

// MustFromContext is like FromContext but panics when no provider encloses ctx.
func MustFromContext(ctx context.Context) port.TokenStore {
	store, err := FromContext(ctx)
	if err != nil {
		panic(err)
	}
	return store
}

// Mount creates a store, fires its one-shot auto-load and returns it together with
// a context that provides it. The store lives until the caller closes it.
func Mount(ctx context.Context, client port.TokenListClient, logger port.Logger, opts ...service.Option) (*service.TokenStore, context.Context) {
	store := service.NewTokenStore(client, logger, opts...)
	store.Start(ctx)
	return store, WithStore(ctx, store)
}

// Middleware provides store to every handler registered below it.
func Middleware(store port.TokenStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request = c.Request.WithContext(WithStore(c.Request.Context(), store))
		c.Next()
	}
}
