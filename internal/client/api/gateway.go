package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/dmitrijs2005/spendtrack/internal/client/models"
	"github.com/dmitrijs2005/spendtrack/internal/common"
	"github.com/dmitrijs2005/spendtrack/internal/logging"
	"github.com/dmitrijs2005/spendtrack/internal/metrics"
	"github.com/google/uuid"
)

// InvalidationEvent is the process-wide signal that the current session is no
// longer valid and must be discarded everywhere. Subscribers must treat it as
// an authoritative forced sign-out and be idempotent to repeated delivery.
type InvalidationEvent struct {
	Message   string    `json:"message"`
	Status    int       `json:"status"`
	URL       string    `json:"url"`
	Timestamp time.Time `json:"timestamp"`

	// Seq is the transition sequence number captured when the failing
	// request was issued. Subscribers discard events whose Seq is lower
	// than the last applied transition, so a 401 from a request issued
	// before a newer login cannot undo that login.
	Seq uint64 `json:"-"`
}

// SequenceSource reports the most recently applied transition sequence.
// The gateway samples it at request-issue time to tag eventual
// invalidation events.
type SequenceSource interface {
	CurrentSeq() uint64
}

// InvalidationPublisher is the narrow surface the gateway publishes into.
// The auth coordinator owns the subscriber registry.
type InvalidationPublisher interface {
	PublishInvalidation(ev InvalidationEvent)
}

// SessionSource is what the gateway needs from the session store: the
// credential to attach, and the ability to clear the session on a 401.
type SessionSource interface {
	Credential(ctx context.Context) (models.Credential, bool)
	ClearSession(ctx context.Context)
}

// invalidationMessage matches the wording the UI shows on a forced sign-out.
const invalidationMessage = "Session expired. Please login again."

// Gateway wraps every outbound call to the remote API. Before dispatch it
// attaches the stored credential as a bearer header (absence is not an
// error). After a 401-class response it clears the session, broadcasts an
// invalidation event, and rejects the call with ErrUnauthorized so the
// caller can still react locally. Each failing call broadcasts
// independently; no deduplication happens here.
type Gateway struct {
	baseURL string
	http    *http.Client
	session SessionSource
	pub     InvalidationPublisher
	seqs    SequenceSource
	log     logging.Logger
	metrics *metrics.Metrics
}

// NewGateway wires the gateway to its collaborators. pub and seqs are
// usually the same object (the coordinator's broadcaster); both may be nil
// in standalone use.
func NewGateway(baseURL string, timeout time.Duration, session SessionSource, pub InvalidationPublisher, seqs SequenceSource, log logging.Logger, m *metrics.Metrics) *Gateway {
	return &Gateway{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
		session: session,
		pub:     pub,
		seqs:    seqs,
		log:     log,
		metrics: m,
	}
}

// Do performs one JSON request/response cycle. body and out may be nil.
func (g *Gateway) Do(ctx context.Context, method, path string, body any, out any) error {
	reqID := uuid.NewString()

	// sampled at issue time so a late 401 carries the era this request
	// belongs to, not the era it fails in
	var issuedSeq uint64
	if g.seqs != nil {
		issuedSeq = g.seqs.CurrentSeq()
	}

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, g.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	if cred, ok := g.session.Credential(ctx); ok {
		req.Header.Set(common.AuthorizationHeaderName, common.BearerPrefix+string(cred))
		g.log.Debug(ctx, "gateway.request", "req_id", reqID, "method", method, "path", path, "credential_len", cred.Len())
	} else {
		g.log.Debug(ctx, "gateway.request", "req_id", reqID, "method", method, "path", path, "credential_len", 0)
	}

	resp, err := g.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		g.log.Warn(ctx, "gateway.transport_error", "req_id", reqID, "method", method, "path", path, "error", err)
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	if resp.StatusCode == http.StatusUnauthorized {
		g.invalidate(ctx, req.URL.String(), issuedSeq)
		reason := errorReason(data)
		if reason == "" {
			return ErrUnauthorized
		}
		return fmt.Errorf("%w: %s", ErrUnauthorized, reason)
	}

	if resp.StatusCode >= 400 {
		return &StatusError{Status: resp.StatusCode, Reason: errorReason(data)}
	}

	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

// invalidate converges the client to signed-out state: session cleared first,
// then the broadcast, so subscribers observe storage already empty.
func (g *Gateway) invalidate(ctx context.Context, url string, issuedSeq uint64) {
	g.session.ClearSession(ctx)
	g.metrics.AuthInvalidated.Inc()
	g.log.Warn(ctx, "auth.invalidated", "url", url)

	if g.pub != nil {
		g.pub.PublishInvalidation(InvalidationEvent{
			Message:   invalidationMessage,
			Status:    http.StatusUnauthorized,
			URL:       url,
			Timestamp: time.Now().UTC(),
			Seq:       issuedSeq,
		})
	}
}

// errorReason extracts the {"error": "..."} body the server sends on
// failures. Malformed bodies yield an empty reason.
func errorReason(data []byte) string {
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return ""
	}
	return payload.Error
}
