// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package fetch drives a service adapter across all pages of one query
// under rate constraints: batch-size policy, rate-limit compliant request
// spacing shared across concurrent workers, and bounded retry with
// exponential backoff.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/pdiddy/paper-trawler/internal/service"
	"github.com/pdiddy/paper-trawler/pkg/types"
)

const (
	defaultMaxRetries  = 3
	defaultBaseDelay   = 1 * time.Second
	defaultRate        = 5.0
	defaultBurst       = 1
	defaultHTTPTimeout = 30 * time.Second
)

// Event reports paging progress: pages completed so far and the total
// expected page count (-1 while unknown). Advisory only; the engine's
// control flow never depends on whether anything is listening.
type Event struct {
	Done  int
	Total int
}

// Engine executes paginated and single-shot fetches against one service.
// The rate limiter is shared by every request the engine issues, so
// concurrent seed workers respect the service's spacing in aggregate.
// Engine is safe for concurrent use.
type Engine struct {
	client     *http.Client
	limiter    *rate.Limiter
	maxRetries int
	baseDelay  time.Duration
	log        zerolog.Logger
	progress   func(Event)
}

// New builds an engine from cfg, applying defaults for zero fields.
func New(cfg types.FetchConfig, logger zerolog.Logger) *Engine {
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultHTTPTimeout
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = defaultMaxRetries
	}
	if cfg.RetryBaseDelay == 0 {
		cfg.RetryBaseDelay = defaultBaseDelay
	}
	if cfg.RequestsPerSecond == 0 {
		cfg.RequestsPerSecond = defaultRate
	}
	if cfg.Burst == 0 {
		cfg.Burst = defaultBurst
	}
	return &Engine{
		client:     &http.Client{Timeout: cfg.Timeout},
		limiter:    rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst),
		maxRetries: cfg.MaxRetries,
		baseDelay:  cfg.RetryBaseDelay,
		log:        logger,
	}
}

// SetProgress installs a progress listener. A nil listener is fine.
func (e *Engine) SetProgress(fn func(Event)) { e.progress = fn }

func (e *Engine) emit(ev Event) {
	if e.progress != nil {
		e.progress(ev)
	}
}

// FetchAll drives one handsearch query across all of its pages and returns
// the accumulated records in arrival order. It stops when the accumulated
// count reaches the service-reported total, the cursor runs out, or a page
// comes back empty.
func (e *Engine) FetchAll(ctx context.Context, ad service.Adapter, spec types.QuerySpec) ([]types.RawRecord, error) {
	query := "collection " + spec.Collection

	batch := spec.BatchSize
	if batch <= 0 {
		batch = ad.DefaultBatchSize()
	}

	var records []types.RawRecord
	tok := service.PageToken{}
	total := -1
	pageNum := 0

	for {
		pageNum++
		req, err := ad.BuildPageRequest(ctx, spec, tok)
		if err != nil {
			return records, &Error{Service: ad.Name(), Query: query, Page: pageNum, Kind: KindNonRetryable, Err: err}
		}

		body, err := e.Do(ctx, req, ad.Name(), query, pageNum)
		if err != nil {
			return records, err
		}

		page, err := ad.ParsePage(body)
		if err != nil {
			return records, &Error{Service: ad.Name(), Query: query, Page: pageNum, Kind: KindNonRetryable, Err: err}
		}

		records = append(records, page.Records...)
		if page.Total >= 0 {
			total = page.Total
		}
		e.emit(Event{Done: pageNum, Total: expectedPages(total, batch)})

		switch {
		case page.NextCursor != "":
			tok = service.PageToken{Cursor: page.NextCursor}
		case total >= 0 && len(records) >= total:
			return records, nil
		case len(page.Records) == 0:
			// Service reported more results than it returned; stop
			// rather than loop on empty pages.
			return records, nil
		default:
			tok = service.PageToken{Offset: len(records)}
		}
	}
}

// FetchEdges fetches the citation edges of one seed in one direction.
func (e *Engine) FetchEdges(ctx context.Context, ad service.Adapter, seed types.Identifier, dir service.Direction) ([]service.Edge, error) {
	query := fmt.Sprintf("seed %s (%s)", seed, dir)

	req, err := ad.BuildEdgeRequest(ctx, seed, dir)
	if err != nil {
		return nil, err
	}

	body, err := e.Do(ctx, req, ad.Name(), query, 1)
	if err != nil {
		return nil, err
	}

	edges, err := ad.ParseEdges(body, dir)
	if errors.Is(err, service.ErrNoEdgeMetadata) {
		return nil, err
	}
	if err != nil {
		return nil, &Error{Service: ad.Name(), Query: query, Page: 1, Kind: KindNonRetryable, Err: err}
	}
	return edges, nil
}

// Do executes one request under the shared rate limiter, retrying transient
// failures with exponential backoff, and returns the response body. A 429
// Retry-After header overrides the computed backoff when it is longer.
func (e *Engine) Do(ctx context.Context, req *http.Request, svc, query string, page int) ([]byte, error) {
	var lastErr error

	for attempt := 0; ; attempt++ {
		if err := e.limiter.Wait(ctx); err != nil {
			return nil, &Error{Service: svc, Query: query, Page: page, Kind: KindNonRetryable, Err: err}
		}

		retryAfter := time.Duration(0)
		resp, err := e.client.Do(req.Clone(ctx))
		switch {
		case err != nil:
			if ctx.Err() != nil {
				return nil, &Error{Service: svc, Query: query, Page: page, Kind: KindNonRetryable, Err: ctx.Err()}
			}
			lastErr = err

		case resp.StatusCode >= 200 && resp.StatusCode < 300:
			body, readErr := io.ReadAll(resp.Body)
			resp.Body.Close()
			if readErr != nil {
				lastErr = fmt.Errorf("reading response body: %w", readErr)
				break
			}
			return body, nil

		case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
			retryAfter = parseRetryAfter(resp)
			drain(resp)
			lastErr = fmt.Errorf("HTTP %d", resp.StatusCode)

		default:
			drain(resp)
			return nil, &Error{Service: svc, Query: query, Page: page, Kind: KindNonRetryable,
				Err: fmt.Errorf("HTTP %d", resp.StatusCode)}
		}

		if attempt >= e.maxRetries {
			return nil, &Error{Service: svc, Query: query, Page: page, Kind: KindExhausted, Err: lastErr}
		}

		backoff := e.baseDelay << uint(attempt)
		if retryAfter > backoff {
			backoff = retryAfter
		}
		e.log.Debug().
			Str("service", svc).
			Str("query", query).
			Int("page", page).
			Int("attempt", attempt+1).
			Dur("backoff", backoff).
			Err(lastErr).
			Msg("retrying page fetch")

		select {
		case <-ctx.Done():
			return nil, &Error{Service: svc, Query: query, Page: page, Kind: KindNonRetryable, Err: ctx.Err()}
		case <-time.After(backoff):
		}
	}
}

// parseRetryAfter reads a Retry-After header as seconds or an HTTP date.
func parseRetryAfter(resp *http.Response) time.Duration {
	v := resp.Header.Get("Retry-After")
	if v == "" {
		return 0
	}
	if secs, err := strconv.ParseInt(v, 10, 64); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(v); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}

// drain empties and closes a response body so the connection can be reused.
func drain(resp *http.Response) {
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
}

func expectedPages(total, batch int) int {
	if total < 0 || batch <= 0 {
		return -1
	}
	return (total + batch - 1) / batch
}
