package client

import (
	"context"
	"fmt"
	"strings"
	"time"

	"solana_tokens/internal/app/port"
	"solana_tokens/internal/domain/entity"

	jsoniter "github.com/json-iterator/go"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// DefaultBaseURL is the public Jupiter token list host.
const DefaultBaseURL = "https://token.jup.ag"

// jupiterClientImpl is the fasthttp implementation of port.TokenListClient.
type jupiterClientImpl struct {
	client  *fasthttp.Client
	baseURL string
	timeout time.Duration
	limiter *rate.Limiter
	logger  *zap.Logger
}

// NewJupiterClient creates a token list client for baseURL.
// A zero timeout leaves request deadlines to the transport; a nil limiter disables pacing.
func NewJupiterClient(baseURL string, timeout time.Duration, limiter *rate.Limiter, logger *zap.Logger) port.TokenListClient {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &jupiterClientImpl{
		client:  &fasthttp.Client{},
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: timeout,
		limiter: limiter,
		logger:  logger.Named("JupiterClient"),
	}
}

// BuildURL returns the endpoint for list. The banned-inclusion parameter is only
// added for the all list when includeBanned is set.
func BuildURL(baseURL string, list entity.TokenList, includeBanned bool) string {
	url := strings.TrimRight(baseURL, "/") + "/" + string(list)
	if list == entity.AllList && includeBanned {
		url += "?includeBanned=true"
	}
	return url
}

// GetStrict implements port.TokenListClient.
func (c *jupiterClientImpl) GetStrict(ctx context.Context) ([]entity.Token, error) {
	return c.getTokens(ctx, BuildURL(c.baseURL, entity.StrictList, false))
}

// GetAll implements port.TokenListClient.
func (c *jupiterClientImpl) GetAll(ctx context.Context, includeBanned bool) ([]entity.Token, error) {
	return c.getTokens(ctx, BuildURL(c.baseURL, entity.AllList, includeBanned))
}

func (c *jupiterClientImpl) getTokens(ctx context.Context, requestURL string) ([]entity.Token, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("%w: rate limiter refused request to %s: %w", port.ErrTransport, requestURL, err)
		}
	}

	c.logger.Debug("Requesting token list", zap.String("url", requestURL))

	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	req.SetRequestURI(requestURL)
	req.Header.SetMethod(fasthttp.MethodGet)

	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)

	if err := c.do(ctx, req, resp); err != nil {
		c.logger.Error("Failed to execute token list request", zap.String("url", requestURL), zap.Error(err))
		return nil, fmt.Errorf("%w: failed to execute request to %s: %w", port.ErrTransport, requestURL, err)
	}

	rawBody := resp.Body()
	statusCode := resp.StatusCode()
	if statusCode < 200 || statusCode >= 300 {
		c.logger.Error("Token list request failed",
			zap.String("url", requestURL),
			zap.Int("statusCode", statusCode),
			zap.ByteString("responseBody", truncate(rawBody, 512)),
		)
		return nil, fmt.Errorf("%w: request to %s failed with status %d", port.ErrStatus, requestURL, statusCode)
	}

	var tokens []entity.Token
	if err := json.Unmarshal(rawBody, &tokens); err != nil {
		c.logger.Error("Failed to unmarshal token list",
			zap.String("url", requestURL),
			zap.ByteString("responseBody", truncate(rawBody, 512)),
			zap.Error(err),
		)
		return nil, fmt.Errorf("%w: failed to unmarshal response from %s: %w", port.ErrDecode, requestURL, err)
	}
	if tokens == nil {
		tokens = []entity.Token{}
	}

	c.logger.Debug("Token list received", zap.String("url", requestURL), zap.Int("tokenCount", len(tokens)))
	return tokens, nil
}

func (c *jupiterClientImpl) do(ctx context.Context, req *fasthttp.Request, resp *fasthttp.Response) error {
	if deadline, ok := ctx.Deadline(); ok {
		return c.client.DoDeadline(req, resp, deadline)
	}
	if c.timeout > 0 {
		return c.client.DoTimeout(req, resp, c.timeout)
	}
	return c.client.Do(req, resp)
}

func truncate(body []byte, limit int) []byte {
	if len(body) <= limit {
		return body
	}
	return body[:limit]
}
