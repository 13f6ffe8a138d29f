package http

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"wealthwarriors/internal/middleware/ratelimit"
	"wealthwarriors/internal/middleware/security"
	"wealthwarriors/internal/middleware/trace"
	"wealthwarriors/internal/services"
)

const maxBodyBytes = 1 << 20

// ReadyCheck reports whether a dependency can serve requests.
type ReadyCheck func(ctx context.Context) error

type Server struct {
	http.Server

	svc         *services.FamilyService
	readyChecks map[string]ReadyCheck

	rateLimiter      *ratelimit.Limiter
	securityDetector *security.Detector
	traceMiddleware  *trace.Middleware

	metrics      appMetrics
	shutdownOnce sync.Once
}

type appMetrics struct {
	started         time.Time
	actionsApplied  atomic.Int64
	actionsRejected atomic.Int64
}

type Options struct {
	RateLimitPerMinute int
	ReadyChecks        map[string]ReadyCheck
	// BlockSuspicious rejects requests the detector flags instead of only
	// logging them.
	BlockSuspicious bool
}

func NewServer(addr string, svc *services.FamilyService, opts Options) *Server {
	s := &Server{
		Server: http.Server{
			Addr:              addr,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       30 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       120 * time.Second,
		},
		svc:              svc,
		readyChecks:      opts.ReadyChecks,
		rateLimiter:      ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RateLimitPerMinute}),
		securityDetector: security.NewDetector(),
	}
	s.metrics.started = time.Now()
	s.traceMiddleware = trace.NewMiddleware(s.securityDetector.ExtractClientIP)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)

	mux.HandleFunc("POST /api/actions", s.handleDispatch)
	mux.HandleFunc("GET /api/state", s.handleState)
	mux.HandleFunc("GET /api/kids/{id}/progress", s.handleProgress)
	mux.HandleFunc("POST /api/parent/unlock", s.handleUnlock)

	var h http.Handler = mux
	h = s.rateLimiter.Middleware(s.securityDetector.ExtractClientIP, s.handleRateLimited, http.MethodPost)(h)
	h = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(h)
	h = s.securityDetector.Middleware(opts.BlockSuspicious)(h)
	h = s.traceMiddleware.Middleware(h)
	s.Handler = h

	return s
}

// Shutdown stops the rate limiter and then the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.Stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}
