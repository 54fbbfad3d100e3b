package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/julienschmidt/httprouter"

	"zapledger/internal/core"
	"zapledger/internal/log"
	"zapledger/internal/whatsapp"
)

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if s.opts.Ready != nil {
		if err := s.opts.Ready(r.Context()); err != nil {
			log.FromContext(r.Context()).WarnContext(r.Context(), "Readiness check failed", log.FieldError, err)
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// handleVerify answers the subscription handshake.
func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	challenge, err := whatsapp.VerifyChallenge(q.Get("hub.mode"), q.Get("hub.verify_token"), q.Get("hub.challenge"), s.opts.VerifyToken)
	if err != nil {
		log.FromContext(r.Context()).WithComponent(log.ComponentWebhook).
			WarnContext(r.Context(), "Webhook verification rejected", "mode", q.Get("hub.mode"))
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, challenge)
}

// handleWebhook dispatches every text message of a delivery before
// answering. Accepted deliveries always get 200 so the channel does not
// retry messages that already received a reply.
//
// Signed deliveries skip the per-IP limit; without an app secret the
// endpoint is unauthenticated and the client IP is limited. Messages are
// limited per sender either way.
func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := log.FromContext(ctx).WithComponent(log.ComponentWebhook)

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBody))
	if err != nil {
		http.Error(w, "request body too large", http.StatusRequestEntityTooLarge)
		return
	}

	if s.opts.AppSecret != "" {
		if err := whatsapp.VerifySignature(body, r.Header.Get("X-Hub-Signature-256"), s.opts.AppSecret); err != nil {
			logger.WarnContext(ctx, "Webhook signature rejected")
			http.Error(w, "invalid signature", http.StatusUnauthorized)
			return
		}
	} else if !s.limiter.Allow(s.ips.ClientIP(r)) {
		w.Header().Set("Retry-After", "60")
		http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
		return
	}

	msgs, err := whatsapp.Decode(body)
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, whatsapp.ErrUnexpectedObject) {
			status = http.StatusNotFound
		}
		logger.WarnContext(ctx, "Webhook payload rejected", log.FieldError, err)
		http.Error(w, http.StatusText(status), status)
		return
	}

	handled := 0
	for _, msg := range msgs {
		if !s.senders.Allow(msg.From) {
			logger.WarnContext(ctx, "Sender over rate limit, message skipped",
				log.FieldMessageID, msg.ID, log.FieldSender, msg.From)
			continue
		}
		out := s.dispatcher.Dispatch(ctx, msg)
		logger.DebugContext(ctx, "Message handled",
			log.FieldMessageID, msg.ID,
			log.FieldState, out.Final().String(),
			"duplicate", out.Duplicate)
		handled++
	}
	writeJSON(w, http.StatusOK, map[string]int{"received": handled})
}

type totalsResponse struct {
	Dimension string  `json:"dimension"`
	Value     string  `json:"value"`
	Total     float64 `json:"total"`
	Formatted string  `json:"formatted"`
}

// handleTotals serves GET /api/totals?dimension=category&value=Casa.
func (s *Server) handleTotals(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	dim, err := core.ParseDimension(q.Get("dimension"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	value := strings.TrimSpace(q.Get("value"))
	if value == "" {
		writeError(w, http.StatusBadRequest, "value is required")
		return
	}

	total, err := s.totals.Sum(r.Context(), dim, value)
	if err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Failed to compute total",
			log.FieldError, err, log.FieldOperation, log.OpQuery)
		writeError(w, http.StatusBadGateway, "ledger unavailable")
		return
	}

	writeJSON(w, http.StatusOK, totalsResponse{
		Dimension: dim.String(),
		Value:     value,
		Total:     total,
		Formatted: s.format.Money(total),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
