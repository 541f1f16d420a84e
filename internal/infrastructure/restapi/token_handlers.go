package restapi

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"solana_tokens/internal/app/port"
	"solana_tokens/internal/app/provider"
	"solana_tokens/internal/domain/entity"

	"github.com/gin-gonic/gin"
)

// TokenListResponse is the body returned by the list and refresh endpoints.
type TokenListResponse struct {
	Tokens  []entity.Token `json:"tokens"`
	Count   int            `json:"count"`
	Loading bool           `json:"loading"`
	// Refreshed is false when a refresh failed and the failure was swallowed.
	Refreshed *bool `json:"refreshed,omitempty"`
}

// ErrorResponse is the body returned on failures.
type ErrorResponse struct {
	Error string `json:"error"`
}

// TokenHandler serves the token store to HTTP clients. It holds no store of its own:
// every request resolves the store provided to its context.
type TokenHandler struct {
	logger port.Logger
}

// NewTokenHandler creates a new TokenHandler.
func NewTokenHandler(logger port.Logger) *TokenHandler {
	return &TokenHandler{logger: logger.With("component", "TokenHandler")}
}

func (h *TokenHandler) store(c *gin.Context) (port.TokenStore, bool) {
	store, err := provider.FromContext(c.Request.Context())
	if err != nil {
		h.logger.Error("Token route registered outside the store provider", "path", c.FullPath(), "error", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return nil, false
	}
	return store, true
}

// ListTokens handles GET /tokens, optionally filtered by ?tag=.
func (h *TokenHandler) ListTokens(c *gin.Context) {
	store, ok := h.store(c)
	if !ok {
		return
	}

	tokens := store.Tokens()
	if tag := c.Query("tag"); tag != "" {
		tokens = store.FilterByTag(tag)
	}
	c.JSON(http.StatusOK, TokenListResponse{Tokens: tokens, Count: len(tokens), Loading: store.Loading()})
}

// GetToken handles GET /tokens/:address.
func (h *TokenHandler) GetToken(c *gin.Context) {
	store, ok := h.store(c)
	if !ok {
		return
	}

	token, found := store.Lookup(c.Param("address"))
	if !found {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "token not found"})
		return
	}
	c.JSON(http.StatusOK, token)
}

// RefreshStrict handles POST /tokens/strict.
func (h *TokenHandler) RefreshStrict(c *gin.Context) {
	store, ok := h.store(c)
	if !ok {
		return
	}
	h.respondRefresh(c, store, func(ctx context.Context) ([]entity.Token, error) {
		return store.FetchStrict(ctx)
	})
}

// RefreshAll handles POST /tokens/all?includeBanned=true.
func (h *TokenHandler) RefreshAll(c *gin.Context) {
	store, ok := h.store(c)
	if !ok {
		return
	}

	includeBanned := false
	if raw := c.Query("includeBanned"); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "includeBanned must be a boolean"})
			return
		}
		includeBanned = parsed
	}
	h.respondRefresh(c, store, func(ctx context.Context) ([]entity.Token, error) {
		return store.FetchAll(ctx, includeBanned)
	})
}

func (h *TokenHandler) respondRefresh(c *gin.Context, store port.TokenStore, fetch func(context.Context) ([]entity.Token, error)) {
	// Retrievals are not cancellable, so a disconnecting client must not abort them.
	ctx := context.WithoutCancel(c.Request.Context())

	tokens, err := fetch(ctx)
	if err != nil {
		status := http.StatusBadGateway
		if errors.Is(err, port.ErrTransport) {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, ErrorResponse{Error: err.Error()})
		return
	}

	refreshed := tokens != nil
	if !refreshed {
		tokens = store.Tokens()
	}
	c.JSON(http.StatusOK, TokenListResponse{
		Tokens:    tokens,
		Count:     len(tokens),
		Loading:   store.Loading(),
		Refreshed: &refreshed,
	})
}
