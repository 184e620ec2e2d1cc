package delivery

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/dhima/webhook-delivery-engine/internal/logging"
	"github.com/dhima/webhook-delivery-engine/internal/models"
	"go.uber.org/zap"
)

const userAgent = "webhook-delivery-engine/1.0"

// HTTPDoer abstracts http.Client for testing.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Request describes one webhook delivery attempt.
type Request struct {
	EventID string
	URL     string
	Headers []models.Header
	Body    []byte
	Timeout time.Duration
}

// Deliverer posts payloads to webhook endpoints under a global in-flight
// cap. A permit is acquired before each dispatch and released when the
// attempt finishes, so the permit count can never leak.
type Deliverer struct {
	http    HTTPDoer
	permits chan struct{}
	logger  logging.Logger

	warnOnce sync.Once
}

// NewDeliverer builds a deliverer with poolSize in-flight permits.
func NewDeliverer(client HTTPDoer, poolSize int, logger logging.Logger) *Deliverer {
	if poolSize <= 0 {
		poolSize = 1
	}
	if client == nil {
		client = &http.Client{}
	}
	return &Deliverer{
		http:    client,
		permits: make(chan struct{}, poolSize),
		logger:  logger,
	}
}

// Deliver acquires a permit, posts the request, and classifies the result.
// It blocks while the pool is saturated; the first wait logs a warning.
func (d *Deliverer) Deliver(ctx context.Context, req Request) Outcome {
	select {
	case d.permits <- struct{}{}:
	default:
		d.warnOnce.Do(func() {
			d.logger.Warn("http pool saturated, deliveries are waiting for a free permit",
				logging.Category(logging.CategoryHTTP),
				zap.Int("pool_size", cap(d.permits)),
			)
		})
		select {
		case d.permits <- struct{}{}:
		case <-ctx.Done():
			return otherError(ctx.Err().Error())
		}
	}
	defer func() { <-d.permits }()

	outcome := d.post(ctx, req)

	d.logger.Info("webhook delivery attempt",
		logging.Category(logging.CategoryHTTP),
		zap.String("event_id", req.EventID),
		zap.String("url", req.URL),
		zap.Int("status", outcome.Status),
		zap.String("kind", string(outcome.Kind)),
	)

	return outcome
}

// InFlight returns the number of deliveries currently holding a permit.
func (d *Deliverer) InFlight() int {
	return len(d.permits)
}

func (d *Deliverer) post(ctx context.Context, req Request) Outcome {
	timeout := req.Timeout
	if timeout <= 0 {
		timeout = models.DefaultTimeoutSeconds * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, req.URL, bytes.NewReader(req.Body))
	if err != nil {
		return otherError(err.Error())
	}
	for _, h := range mergeHeaders(req.Headers) {
		httpReq.Header.Set(h.Name, h.Value)
	}

	resp, err := d.http.Do(httpReq)
	if err != nil {
		return transportError(err.Error())
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return parseError(err.Error())
	}

	return Outcome{
		Kind:       OutcomeWebhookResponse,
		Status:     resp.StatusCode,
		Body:       string(body),
		Headers:    flattenHeaders(resp.Header),
		RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
	}
}

// mergeHeaders applies the default headers, letting trigger-configured
// headers win on name collision.
func mergeHeaders(configured []models.Header) []models.Header {
	defaults := []models.Header{
		{Name: "User-Agent", Value: userAgent},
		{Name: "Content-Type", Value: "application/json"},
	}

	merged := make([]models.Header, 0, len(defaults)+len(configured))
	for _, def := range defaults {
		overridden := false
		for _, h := range configured {
			if http.CanonicalHeaderKey(h.Name) == http.CanonicalHeaderKey(def.Name) {
				overridden = true
				break
			}
		}
		if !overridden {
			merged = append(merged, def)
		}
	}
	return append(merged, configured...)
}

func flattenHeaders(h http.Header) []models.Header {
	out := make([]models.Header, 0, len(h))
	for name, values := range h {
		for _, v := range values {
			out = append(out, models.Header{Name: name, Value: v})
		}
	}
	return out
}
