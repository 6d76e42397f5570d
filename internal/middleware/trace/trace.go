// Package trace tags each request with an id, puts a request-scoped logger
// in its context and writes the access log.
package trace

import (
	"context"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"fanatitra/internal/log"
)

type ContextKey string

const RequestIDKey ContextKey = "request_id"

// HeaderRequestID is read from incoming requests and echoed on responses.
const HeaderRequestID = "X-Request-ID"

const maxRequestIDLen = 128

type Middleware struct {
	extractIP func(*http.Request) string
	logger    *log.Logger
	access    *log.StructuredLogger

	total     int64
	lastMicro int64
}

// Metrics is a snapshot of request counters.
type Metrics struct {
	TotalRequests    int64
	LastResponseTime time.Duration
}

func NewMiddleware(logger *log.Logger, extractIP func(*http.Request) string) *Middleware {
	if logger == nil {
		logger = log.Nop()
	}
	logger = logger.WithComponent(log.ComponentHTTP)
	return &Middleware{
		extractIP: extractIP,
		logger:    logger,
		access:    log.NewStructuredLogger(logger),
	}
}

func (m *Middleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		clientIP := ""
		if m.extractIP != nil {
			clientIP = m.extractIP(r)
		}

		requestID := requestIDFrom(r)
		ctx := context.WithValue(r.Context(), RequestIDKey, requestID)
		ctx = log.NewContext(ctx, m.logger.With(log.FieldRequestID, requestID))
		r = r.WithContext(ctx)
		w.Header().Set(HeaderRequestID, requestID)

		m.access.LogHTTPStart(ctx, r, clientIP)
		atomic.AddInt64(&m.total, 1)

		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		elapsed := time.Since(start)
		atomic.StoreInt64(&m.lastMicro, elapsed.Microseconds())
		log.NewStructuredLogger(log.FromContext(ctx)).LogHTTPEnd(ctx, r, status, elapsed.Milliseconds(), clientIP)
	})
}

// requestIDFrom keeps a caller-supplied id when it is printable and short,
// otherwise mints one.
func requestIDFrom(r *http.Request) string {
	id := strings.TrimSpace(r.Header.Get(HeaderRequestID))
	if id == "" || len(id) > maxRequestIDLen {
		return GenerateRequestID()
	}
	for _, c := range id {
		if c < 0x21 || c > 0x7e {
			return GenerateRequestID()
		}
	}
	return id
}

func GenerateRequestID() string {
	return "req_" + strings.ReplaceAll(uuid.NewString(), "-", "")
}

// GetRequestID returns the id stored by the middleware, or "".
func GetRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(RequestIDKey).(string); ok {
		return id
	}
	return ""
}

func (m *Middleware) GetMetrics() Metrics {
	return Metrics{
		TotalRequests:    atomic.LoadInt64(&m.total),
		LastResponseTime: time.Duration(atomic.LoadInt64(&m.lastMicro)) * time.Microsecond,
	}
}
