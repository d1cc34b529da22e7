package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/telhawk-systems/telemetry-relay/internal/auth"
	"github.com/telhawk-systems/telemetry-relay/internal/logging"
	"github.com/telhawk-systems/telemetry-relay/internal/metrics"
	"github.com/telhawk-systems/telemetry-relay/internal/payload"
	"github.com/telhawk-systems/telemetry-relay/internal/ratelimit"
)

// HeaderLogType is the optional header tagging the forwarded event.
const HeaderLogType = "Log-Type"

// Response bodies are fixed; no internal detail ever leaves the process.
const (
	successResponse = `{"success": true}`
	failureResponse = `{"success": false}`
)

const defaultMaxBodySize = 10 << 20

var (
	errBadPayload  = errors.New("bad payload")
	errRateLimited = errors.New("rate limited")
)

// Forwarder publishes one event per call.
type Forwarder interface {
	Send(ctx context.Context, data []byte, logType string) error
}

// Options tunes ingestion behavior.
type Options struct {
	// Compressed controls whether bodies are gzip-decoded before forwarding.
	Compressed bool

	// MaxBodySize caps the accepted request body in bytes.
	MaxBodySize int64

	Logger *logging.Logger
}

// RelayHandler serves the ingest and health endpoints.
type RelayHandler struct {
	forwarder   Forwarder
	cred        *auth.Credential
	limiter     ratelimit.RateLimiter
	compressed  bool
	maxBodySize int64
	logger      *logging.Logger
}

func NewRelayHandler(forwarder Forwarder, cred *auth.Credential, limiter ratelimit.RateLimiter, opts Options) *RelayHandler {
	maxBodySize := opts.MaxBodySize
	if maxBodySize <= 0 {
		maxBodySize = defaultMaxBodySize
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.Default()
	}
	return &RelayHandler{
		forwarder:   forwarder,
		cred:        cred,
		limiter:     limiter,
		compressed:  opts.Compressed,
		maxBodySize: maxBodySize,
		logger:      logger,
	}
}

// HandleIngest accepts a gzip-compressed (or raw) telemetry payload and
// forwards it to the broker as a single event. Every request gets exactly one
// of the fixed JSON responses; nothing propagates to the transport layer.
func (h *RelayHandler) HandleIngest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.respond(w, "ingest", http.StatusMethodNotAllowed)
		return
	}

	defer func() {
		if rec := recover(); rec != nil {
			h.logger.ErrorContext(r.Context(), "panic during ingest", slog.Any("panic", rec))
			h.respond(w, "ingest", http.StatusInternalServerError)
		}
	}()

	h.respond(w, "ingest", h.statusFor(r.Context(), h.ingest(r)))
}

// Health reports liveness. It never touches the broker client, so it stays
// green while the broker is down or uninitialized.
func (h *RelayHandler) Health(w http.ResponseWriter, r *http.Request) {
	h.respond(w, "health", http.StatusOK)
}

// ingest runs the pipeline stages in order: auth, rate limit, decompress,
// forward. Each stage reports an explicit error kind; statusFor performs the
// single mapping to an HTTP status.
func (h *RelayHandler) ingest(r *http.Request) error {
	ctx := r.Context()

	if err := h.cred.Authorize(r.Header.Get("Authorization")); err != nil {
		return err
	}

	if h.limiter != nil {
		client := clientIP(r)
		allowed, err := h.limiter.Allow(ctx, client)
		if err != nil {
			// Fail open: an unreachable limiter must not block ingestion.
			h.logger.WarnContext(ctx, "rate limit check failed", logging.Error(err))
		} else if !allowed {
			return fmt.Errorf("%w: %s", errRateLimited, client)
		}
	}

	logType := r.Header.Get(HeaderLogType)

	raw, err := io.ReadAll(http.MaxBytesReader(nil, r.Body, h.maxBodySize))
	if err != nil {
		return fmt.Errorf("%w: reading body: %v", errBadPayload, err)
	}
	defer r.Body.Close()

	data := raw
	if h.compressed {
		var fallback bool
		data, fallback = payload.Decode(raw)
		if fallback {
			if len(raw) == 0 {
				return fmt.Errorf("%w: empty body", errBadPayload)
			}
			// Not valid gzip but non-empty: forward the raw bytes as-is.
			metrics.DecompressFallbacks.Inc()
			h.logger.DebugContext(ctx, "gzip decode failed, forwarding raw body", logging.Bytes(len(raw)))
		}
	}

	if len(data) == 0 {
		return fmt.Errorf("%w: empty payload", errBadPayload)
	}

	if err := h.forwarder.Send(ctx, data, logType); err != nil {
		return err
	}

	metrics.EventBytesTotal.Add(float64(len(data)))
	h.logger.InfoContext(ctx, "forwarded event",
		logging.Bytes(len(data)),
		logging.LogType(logType),
	)
	return nil
}

// statusFor is the single exhaustive mapping from pipeline outcome to HTTP
// status. Anything unrecognized lands in the 500 bucket.
func (h *RelayHandler) statusFor(ctx context.Context, err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, auth.ErrUnauthorized):
		// Never log the supplied credential value.
		h.logger.WarnContext(ctx, "unauthorized request")
		return http.StatusUnauthorized
	case errors.Is(err, errBadPayload):
		h.logger.WarnContext(ctx, "rejected payload", logging.Error(err))
		return http.StatusBadRequest
	case errors.Is(err, errRateLimited):
		h.logger.WarnContext(ctx, "rate limited", logging.Error(err))
		return http.StatusTooManyRequests
	default:
		h.logger.ErrorContext(ctx, "ingest failed", logging.Error(err))
		return http.StatusInternalServerError
	}
}

func (h *RelayHandler) respond(w http.ResponseWriter, endpoint string, status int) {
	metrics.RequestsTotal.WithLabelValues(endpoint, strconv.Itoa(status)).Inc()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if status == http.StatusOK {
		io.WriteString(w, successResponse)
	} else {
		io.WriteString(w, failureResponse)
	}
}

func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		parts := strings.Split(xff, ",")
		return strings.TrimSpace(parts[0])
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	return r.RemoteAddr
}
