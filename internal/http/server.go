// Package http serves the WhatsApp webhook and the read-only totals API.
package http

import (
	"context"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/rs/cors"

	"zapledger/internal/core"
	"zapledger/internal/log"
	"zapledger/internal/middleware/ratelimit"
	"zapledger/internal/middleware/security"
	"zapledger/internal/middleware/trace"
	"zapledger/internal/reply"
	"zapledger/internal/services"
)

const maxWebhookBody = 1 << 20

// Dispatcher handles one inbound message.
type Dispatcher interface {
	Dispatch(ctx context.Context, msg core.InboundMessage) services.Outcome
}

// Totals computes running totals.
type Totals interface {
	Sum(ctx context.Context, dim core.Dimension, value string) (float64, error)
}

// Options configures NewServer.
type Options struct {
	Addr               string
	VerifyToken        string
	AppSecret          string // empty disables signature checks
	RateLimitPerMinute int
	AllowedOrigins     []string
	Logger             *log.Logger
	// Ready reports whether dependencies are reachable; nil means always ready.
	Ready func(ctx context.Context) error
}

type Server struct {
	http.Server
	dispatcher Dispatcher
	totals     Totals
	format     *reply.Formatter
	opts       Options
	logger     *log.Logger
	ips        *security.IPExtractor
	limiter    *ratelimit.Limiter
	senders    *ratelimit.Limiter // keyed by WhatsApp sender id
	tracer     *trace.Middleware
}

func NewServer(opts Options, dispatcher Dispatcher, totals Totals, format *reply.Formatter) (*Server, error) {
	ips, err := security.NewIPExtractor()
	if err != nil {
		return nil, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}

	s := &Server{
		dispatcher: dispatcher,
		totals:     totals,
		format:     format,
		opts:       opts,
		logger:     logger.WithComponent(log.ComponentHTTP),
		ips:        ips,
		limiter:    ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RateLimitPerMinute}),
		senders:    ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RateLimitPerMinute}),
		tracer:     trace.NewMiddleware(ips.ClientIP),
	}

	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	apiCORS := cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", trace.HeaderRequestID},
	})
	limited := s.limiter.Middleware(ips.ClientIP)

	r := httprouter.New()
	r.HandleMethodNotAllowed = true
	r.GET("/healthz", s.handleHealth)
	r.GET("/readyz", s.handleReady)
	r.Handler(http.MethodGet, "/webhook", limited(http.HandlerFunc(s.handleVerify)))
	// Deliveries share a few Meta addresses, so POST /webhook is limited
	// per sender inside the handler rather than per IP here.
	r.Handler(http.MethodPost, "/webhook", http.HandlerFunc(s.handleWebhook))
	totalsHandler := apiCORS.Handler(limited(http.HandlerFunc(s.handleTotals)))
	r.Handler(http.MethodGet, "/api/totals", totalsHandler)
	r.Handler(http.MethodOptions, "/api/totals", totalsHandler)

	var h http.Handler = r
	h = security.APIHeaders(h)
	h = log.Middleware(logger, trace.GetRequestID)(h)
	h = s.tracer.Middleware(h)

	s.Server = http.Server{
		Addr:              opts.Addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s, nil
}

// Shutdown stops accepting requests and the rate limiters.
func (s *Server) Shutdown(ctx context.Context) error {
	s.limiter.Stop()
	s.senders.Stop()
	return s.Server.Shutdown(ctx)
}
