package finance

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/gregjones/httpcache"
	"github.com/gregjones/httpcache/diskcache"
	"github.com/rs/zerolog/log"

	"github.com/pennywise-app/pennywise-cli/internal/api"
)

// maxReadRetries bounds transient-failure retries on read-only calls.
// Writes and auth calls are never retried here; the request pipeline's
// single 401 recovery is the only retry they get.
const maxReadRetries = 3

// Client is the thin domain client over the authenticated pipeline:
// transaction logging (with a local fallback parser) and dashboard reads.
type Client struct {
	api    *api.Client
	cached *api.Client

	analysisTimeout time.Duration
}

// NewClient builds a finance client. authed carries normal traffic; cached
// routes cache-friendly GETs (the monthly summary) through an HTTP cache
// layered over transport. cacheDir empty keeps the cache in memory.
func NewClient(cfg api.Config, authed *api.Client, transport http.RoundTripper, cacheDir string, analysisTimeout time.Duration) *Client {
	var cache httpcache.Cache
	if cacheDir == "" {
		cache = httpcache.NewMemoryCache()
	} else {
		cache = diskcache.New(cacheDir)
	}

	caching := httpcache.NewTransport(cache)
	caching.Transport = transport

	if analysisTimeout <= 0 {
		analysisTimeout = 60 * time.Second
	}

	return &Client{
		api:             authed,
		cached:          api.NewClient(cfg, caching),
		analysisTimeout: analysisTimeout,
	}
}

// LogText records a transaction described in natural language. The remote
// parse endpoint does the heavy lifting; when it is unreachable the local
// regex parser takes over and the parsed transaction is created directly.
func (c *Client) LogText(ctx context.Context, text string) (*Transaction, error) {
	parseCtx, cancel := context.WithTimeout(ctx, c.analysisTimeout)
	defer cancel()

	var tx Transaction
	err := c.api.Post(parseCtx, "/transactions/parse", parseRequest{Text: text}, &tx)
	if err == nil {
		return &tx, nil
	}

	if !api.IsNetwork(err) && !api.IsServerError(err) {
		return nil, err
	}

	log.Warn().Err(err).Msg("remote parse unavailable, falling back to local parser")

	parsed, perr := ParseText(text)
	if perr != nil {
		return nil, fmt.Errorf("remote parse failed and %w", perr)
	}

	return c.Create(ctx, parsed)
}

// Create records a transaction.
func (c *Client) Create(ctx context.Context, tx *Transaction) (*Transaction, error) {
	var out Transaction
	if err := c.api.Post(ctx, "/transactions", tx, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Recent returns the latest transactions, newest first.
func (c *Client) Recent(ctx context.Context, limit int) ([]Transaction, error) {
	if limit <= 0 {
		limit = 10
	}
	path := "/transactions?limit=" + strconv.Itoa(limit)

	return retryRead(ctx, func() ([]Transaction, error) {
		var out []Transaction
		if err := c.api.Get(ctx, path, &out); err != nil {
			return nil, err
		}
		return out, nil
	})
}

// MonthlySummary returns the summary for a month ("2026-08"). Responses are
// served through the HTTP cache, so repeated dashboard loads stay cheap.
func (c *Client) MonthlySummary(ctx context.Context, month string) (*Summary, error) {
	path := "/summary?month=" + url.QueryEscape(month)

	return retryRead(ctx, func() (*Summary, error) {
		var out Summary
		if err := c.cached.Get(ctx, path, &out); err != nil {
			return nil, err
		}
		return &out, nil
	})
}

// retryRead retries an idempotent read on transient failures (network
// errors and 5xx) with exponential backoff. Anything the backend decided
// on purpose is permanent.
func retryRead[T any](ctx context.Context, op func() (T, error)) (T, error) {
	return backoff.Retry(ctx, func() (T, error) {
		out, err := op()
		if err == nil {
			return out, nil
		}

		var apiErr *api.Error
		if errors.As(err, &apiErr) && apiErr.StatusCode < 500 {
			return out, backoff.Permanent(err)
		}

		log.Debug().Err(err).Msg("transient read failure, retrying")

		return out, err
	}, backoff.WithBackOff(backoff.NewExponentialBackOff()), backoff.WithMaxTries(maxReadRetries))
}
