package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"rahhal_engine/internal/adapters/observability"
	"rahhal_engine/internal/domain"
)

// Client calls the external embedding service: POST {"text": ...} and get
// back {"embedding": [...]}. The service is an opaque vector oracle; one
// bounded attempt per call, no internal retry. Callers treat a nil vector and
// a failure the same way: no textual signal.
type Client struct {
	url string
	hc  *http.Client
	rl  *rate.Limiter
}

func New(url string, timeout time.Duration, rps int) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if rps <= 0 {
		rps = 10
	}
	return &Client{
		url: url,
		hc:  &http.Client{Timeout: timeout},
		rl:  rate.NewLimiter(rate.Limit(rps), rps),
	}
}

type embedRequest struct {
	Text string `json:"text"`
}

type embedResponse struct {
	Embedding []float32 `json:"embedding"`
}

func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	if err := c.rl.Wait(ctx); err != nil {
		return nil, err
	}

	body, err := json.Marshal(embedRequest{Text: text})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.hc.Do(req)
	if err != nil {
		observability.ObserveExternal("embedding", "embed", 0, time.Since(start))
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrEmbedding, err)
	}
	defer resp.Body.Close()
	observability.ObserveExternal("embedding", "embed", resp.StatusCode, time.Since(start))

	if resp.StatusCode/100 != 2 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("%w: status %d", domain.ErrEmbedding, resp.StatusCode)
	}

	var out embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", domain.ErrEmbedding, err)
	}
	if len(out.Embedding) == 0 {
		return nil, fmt.Errorf("%w: empty embedding in response", domain.ErrEmbedding)
	}
	return out.Embedding, nil
}
