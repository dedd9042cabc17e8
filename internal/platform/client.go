package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// PeerClient is the generalized outbound HTTP client described by the
// service-health gate: every call first consults the Gate, probes a
// recovering peer's /manage/health under a cooldown, short-circuits while
// down, and otherwise retries a bounded number of times before declaring
// the peer down. Order (calling Warehouse and Warranty) and Store (calling
// Order, Warehouse, Warranty) each hold one PeerClient per dependency.
type PeerClient struct {
	peer       string
	baseURL    string
	gate       *Gate
	resilience ResilienceConfig
	admin      AdminConfig
	httpClient *http.Client
	logger     zerolog.Logger
}

// NewPeerClient builds a client for one named dependency.
func NewPeerClient(peer, baseURL string, gate *Gate, resilience ResilienceConfig, admin AdminConfig, logger zerolog.Logger) *PeerClient {
	return &PeerClient{
		peer:       peer,
		baseURL:    baseURL,
		gate:       gate,
		resilience: resilience,
		admin:      admin,
		httpClient: &http.Client{},
		logger:     logger.With().Str("peer", peer).Logger(),
	}
}

func (c *PeerClient) calloutTimeout() time.Duration {
	return time.Duration(c.resilience.CalloutTimeout) * time.Second
}

func (c *PeerClient) cooldown() time.Duration {
	return time.Duration(c.resilience.UpdateDuration) * time.Second
}

// probe issues a GET /manage/health against the peer and flips it back up
// on success. Failures are swallowed: the peer simply stays down and the
// gate tries again after the next cooldown window.
func (c *PeerClient) probe(ctx context.Context) {
	probeCtx, cancel := context.WithTimeout(ctx, c.calloutTimeout())
	defer cancel()

	req, err := http.NewRequestWithContext(probeCtx, http.MethodGet, c.baseURL+"/manage/health", nil)
	if err != nil {
		return
	}
	req.SetBasicAuth(c.admin.Username, c.admin.Password)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		c.gate.MarkUp(c.peer)
		c.logger.Info().Msg("peer recovered, health gate closed")
	}
}

// Do performs method/path against the peer, JSON-encoding body (if any) and
// JSON-decoding the response into out (if non-nil and the response is a
// success). Returns:
//   - *AccessError if the circuit is open, if every attempt fails at the
//     transport level, or if the peer answers with a 5xx (returned at once,
//     without a retry and without opening the circuit)
//   - *StatusError for any other non-2xx response, for the caller to
//     classify into a domain error (404, 409, ...)
//   - nil on 2xx success
func (c *PeerClient) Do(ctx context.Context, method, path string, body, out any) error {
	if !c.gate.IsUp(c.peer) {
		if c.gate.ShouldProbe(c.peer, c.cooldown()) {
			c.probe(ctx)
		}
		if !c.gate.IsUp(c.peer) {
			return NewAccessError(c.peer, fmt.Errorf("circuit open"))
		}
	}

	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
	}

	attempts := c.resilience.CalloutNumber
	if attempts < 1 {
		attempts = 1
	}

	// Retries are for transport failure only (spec §4.3 step 4): a received
	// response, even a 5xx, is classified immediately (step 5) without
	// consuming a retry or opening the circuit. A flaky-but-responding peer
	// never flips up=false on response content alone, only on genuinely
	// failing to respond SERVICES_CALLOUT_NUMBER times in a row.
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		_, status, respBody, err := c.attempt(ctx, method, path, payload)
		if err != nil {
			lastErr = err
			c.logger.Warn().Err(err).Int("attempt", attempt).Msg("outbound call failed")
			continue
		}

		if status >= 200 && status < 300 {
			if out != nil && len(respBody) > 0 {
				if err := json.Unmarshal(respBody, out); err != nil {
					return fmt.Errorf("decode response: %w", err)
				}
			}
			return nil
		}

		if status >= 500 {
			c.logger.Warn().Int("status", status).Int("attempt", attempt).Msg("peer returned server error")
			return NewAccessError(c.peer, fmt.Errorf("unexpected status %d", status))
		}

		return &StatusError{Status: status, Body: respBody}
	}

	c.gate.MarkDown(c.peer)
	c.logger.Error().Err(lastErr).Msg("peer exhausted retries, health gate opened")
	return NewAccessError(c.peer, lastErr)
}

// attempt performs a single HTTP round-trip, returning (response, status,
// body, transport-level error).
func (c *PeerClient) attempt(ctx context.Context, method, path string, payload []byte) (*http.Response, int, []byte, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, c.calloutTimeout())
	defer cancel()

	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(attemptCtx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, 0, nil, err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, nil, err
	}

	return resp, resp.StatusCode, respBody, nil
}
