// =============================================================================
// Spreadconnect Order Importer - Submission Dispatcher
// =============================================================================
//
// This module submits consolidated orders to the order endpoint with
// bounded concurrency. Every order gets exactly one result: timeouts,
// transport faults, and panics inside a submission are captured and
// converted into failure results, never allowed to abort sibling
// submissions or the batch.
//
// CONCURRENCY:
//   A semaphore bounds the number of in-flight submissions (default 10).
//   Completion order is not guaranteed; results are correlated to the
//   input list by the explicit index in each result. The dispatcher always
//   waits for all submissions before returning.
//
// =============================================================================

package submitter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/craftmerch/spod-order-importer/internal/camelize"
	"github.com/craftmerch/spod-order-importer/internal/config"
	"github.com/craftmerch/spod-order-importer/internal/types"
)

// accessTokenHeader authenticates every submission.
const accessTokenHeader = "X-SPOD-ACCESS-TOKEN"

// =============================================================================
// RESULT
// =============================================================================

// Result is the outcome of one order submission. Index is the order's
// position in the input list, not its order reference; concurrent
// completion order does not match submission order.
type Result struct {
	Index   int
	Success bool
	Status  int
	Body    any
}

// ErrorMessage extracts the "error" entry from a failure body, or "" when
// none is present.
func (r Result) ErrorMessage() string {
	body, ok := r.Body.(map[string]any)
	if !ok {
		return ""
	}
	msg, _ := body["error"].(string)
	return msg
}

// =============================================================================
// SUBMITTER
// =============================================================================

// Submitter posts consolidated orders to {baseURL}/orders. Configuration
// is injected once at construction and immutable thereafter.
type Submitter struct {
	client      *http.Client
	baseURL     string
	accessToken string
	concurrency int
	timeout     time.Duration
	retryCount  int
	logger      *log.Entry
}

// New builds a submitter from the loaded configuration. A non-empty
// baseURL overrides the configured endpoint (the CLI's testing override).
//
// The transport pools connections independently of the submission bound:
// when the pool is smaller than the concurrency limit, requests queue at
// the transport layer instead of failing.
func New(cfg *config.Config, baseURL string) *Submitter {
	if baseURL == "" {
		baseURL = cfg.BaseURL
	}

	transport := &http.Transport{
		MaxIdleConns:          cfg.Submission.MaxIdleConns,
		MaxIdleConnsPerHost:   cfg.Submission.MaxIdleConns,
		IdleConnTimeout:       cfg.Submission.IdleConnTimeout(),
		ResponseHeaderTimeout: cfg.Submission.ReceiveTimeout(),
	}

	return &Submitter{
		client:      &http.Client{Transport: transport},
		baseURL:     baseURL,
		accessToken: cfg.AccessToken,
		concurrency: cfg.Submission.Concurrency,
		timeout:     cfg.Submission.Timeout(),
		retryCount:  cfg.Submission.RetryCount,
		logger:      log.WithField("component", "submitter"),
	}
}

// =============================================================================
// BATCH SUBMISSION
// =============================================================================

// SubmitAll submits every order concurrently, bounded by the configured
// concurrency limit, and returns one result per input order at the
// matching index. A cancelled ctx fails remaining submissions through the
// transport-error path; in-flight results are still collected.
func (s *Submitter) SubmitAll(ctx context.Context, orders []types.ConsolidatedOrder) []Result {
	results := make([]Result, len(orders))
	sem := make(chan struct{}, s.concurrency)
	var wg sync.WaitGroup

	for i := range orders {
		wg.Add(1)
		go func(index int, order types.ConsolidatedOrder) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					results[index] = s.failure(index, order, http.StatusInternalServerError,
						map[string]any{"error": fmt.Sprintf("submission panic: %v", r)})
				}
			}()

			sem <- struct{}{}
			defer func() { <-sem }()

			results[index] = s.SubmitOne(ctx, index, order)
		}(i, orders[i])
	}

	wg.Wait()
	return results
}

// =============================================================================
// SINGLE SUBMISSION
// =============================================================================

// SubmitOne posts a single order and maps the outcome to a Result:
//   - 100-399 with a parsable JSON body: success
//   - 100-399 with an unparsable body: failure 400 "Invalid JSON response format"
//   - exactly 401: failure 401 "Unauthorized access", actual body ignored
//   - any other status: failure with the parsed body, or
//     "Invalid response format" when the body does not parse
//   - timeout: failure 408 "Request timeout"
//   - transport fault: failure 500 with the transport error message
func (s *Submitter) SubmitOne(ctx context.Context, index int, order types.ConsolidatedOrder) Result {
	payload, err := s.encode(order)
	if err != nil {
		return s.failure(index, order, http.StatusInternalServerError, map[string]any{"error": err.Error()})
	}

	reqCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	resp, err := s.post(reqCtx, payload)
	if err != nil {
		if isTimeout(err) {
			return s.failure(index, order, http.StatusRequestTimeout, map[string]any{"error": "Request timeout"})
		}
		return s.failure(index, order, http.StatusInternalServerError, map[string]any{"error": err.Error()})
	}
	defer resp.Body.Close()

	data, readErr := io.ReadAll(resp.Body)
	var body any
	parseErr := json.Unmarshal(data, &body)
	if readErr != nil {
		parseErr = readErr
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return s.failure(index, order, http.StatusUnauthorized, map[string]any{"error": "Unauthorized access"})

	case resp.StatusCode >= 100 && resp.StatusCode < 400:
		if parseErr != nil {
			return s.failure(index, order, http.StatusBadRequest, map[string]any{"error": "Invalid JSON response format"})
		}
		s.logger.WithFields(log.Fields{
			"order":  order.ExternalOrderReference,
			"status": resp.StatusCode,
		}).Debug("order submitted")
		return Result{Index: index, Success: true, Status: resp.StatusCode, Body: body}

	default:
		if parseErr != nil {
			return s.failure(index, order, resp.StatusCode, map[string]any{"error": "Invalid response format"})
		}
		return s.failure(index, order, resp.StatusCode, body)
	}
}

// post sends the request, retrying transport-level failures up to the
// configured retry count. HTTP responses are never retried, and neither
// are timeouts.
func (s *Submitter) post(ctx context.Context, payload []byte) (*http.Response, error) {
	var lastErr error

	for attempt := 0; attempt <= s.retryCount; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/orders", bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set(accessTokenHeader, s.accessToken)
		req.Header.Set("X-Request-ID", uuid.NewString())

		resp, err := s.client.Do(req)
		if err == nil {
			return resp, nil
		}
		if isTimeout(err) {
			return nil, err
		}

		lastErr = err
		if attempt < s.retryCount {
			s.logger.WithError(err).WithField("attempt", attempt+1).Debug("retrying after transport failure")
		}
	}

	return nil, lastErr
}

// failure logs and builds a failure result.
func (s *Submitter) failure(index int, order types.ConsolidatedOrder, status int, body any) Result {
	result := Result{Index: index, Status: status, Body: body}
	s.logger.WithFields(log.Fields{
		"order":  order.ExternalOrderReference,
		"status": status,
		"error":  result.ErrorMessage(),
	}).Warn("order submission failed")
	return result
}

// =============================================================================
// WIRE ENCODING
// =============================================================================

// encode serializes an order to the camelCase wire format: marshal the
// snake_case domain record, rewrite the keys, marshal again.
func (s *Submitter) encode(order types.ConsolidatedOrder) ([]byte, error) {
	raw, err := json.Marshal(order)
	if err != nil {
		return nil, fmt.Errorf("failed to encode order: %w", err)
	}

	var decoded any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, fmt.Errorf("failed to encode order: %w", err)
	}

	payload, err := json.Marshal(camelize.Transform(decoded))
	if err != nil {
		return nil, fmt.Errorf("failed to encode order: %w", err)
	}
	return payload, nil
}

// isTimeout reports whether the request failed on a deadline rather than
// a transport fault.
func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr interface{ Timeout() bool }
	return errors.As(err, &netErr) && netErr.Timeout()
}
