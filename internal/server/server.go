package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/nikolayk812/ordercore/internal/app"
	"github.com/nikolayk812/ordercore/internal/domain"
	"github.com/nikolayk812/ordercore/internal/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

const maxWebhookBytes = 1 << 20

type Dispatcher interface {
	Dispatch(ctx context.Context, actor domain.Actor, cmd any) (any, error)
}

type Pinger interface {
	Ping(ctx context.Context) error
}

type Options struct {
	Dispatcher Dispatcher
	DB         Pinger
	Gatherer   prometheus.Gatherer
	Logger     *zap.Logger
	// SignatureHeader names the request header holding the webhook signature.
	SignatureHeader string
}

// NewHandler serves provider webhooks, health and metrics. Order, cart and
// payment method commands are dispatched in-process by their callers.
func NewHandler(opts Options) http.Handler {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	s := &server{
		dispatcher:      opts.Dispatcher,
		db:              opts.DB,
		logger:          opts.Logger,
		signatureHeader: opts.SignatureHeader,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /webhooks/{provider}", s.webhook)
	mux.HandleFunc("GET /healthz", s.healthz)
	if opts.Gatherer != nil {
		mux.Handle("GET /metrics", metrics.Handler(opts.Gatherer))
	}
	return mux
}

type server struct {
	dispatcher      Dispatcher
	db              Pinger
	logger          *zap.Logger
	signatureHeader string
}

type webhookResponse struct {
	EventID   string     `json:"eventId,omitempty"`
	EventType string     `json:"eventType,omitempty"`
	Processed bool       `json:"processed"`
	Duplicate bool       `json:"duplicate"`
	PaymentID *uuid.UUID `json:"paymentId,omitempty"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (s *server) webhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBytes))
	if err != nil {
		writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse{Code: "Webhook.PayloadTooLarge", Message: err.Error()})
		return
	}

	headers := make(map[string]string, len(r.Header))
	for k := range r.Header {
		headers[k] = r.Header.Get(k)
	}

	result, err := s.dispatcher.Dispatch(r.Context(), domain.System(), app.ProcessWebhook{
		Provider:  r.PathValue("provider"),
		Payload:   payload,
		Signature: r.Header.Get(s.signatureHeader),
		Headers:   headers,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}

	outcome, ok := result.(app.WebhookOutcome)
	if !ok {
		s.writeError(w, errors.New("unexpected webhook result"))
		return
	}

	writeJSON(w, http.StatusOK, webhookResponse{
		EventID:   outcome.EventID,
		EventType: outcome.EventType,
		Processed: outcome.Processed,
		Duplicate: outcome.Duplicate,
		PaymentID: outcome.PaymentID,
	})
}

func (s *server) healthz(w http.ResponseWriter, r *http.Request) {
	if s.db != nil {
		if err := s.db.Ping(r.Context()); err != nil {
			s.logger.Warn("health check failed", zap.Error(err))
			writeJSON(w, http.StatusServiceUnavailable, errorResponse{Code: "Health.DatabaseUnavailable", Message: "database is unreachable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *server) writeError(w http.ResponseWriter, err error) {
	de, ok := domain.AsError(err)
	if !ok {
		de = domain.Internal("Server.Unexpected", err)
	}

	status := statusFor(de.Kind)
	message := de.Message
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", zap.String("code", de.Code), zap.Error(err))
		message = "Internal error"
	}

	writeJSON(w, status, errorResponse{Code: de.Code, Message: message})
}

func statusFor(kind domain.ErrorKind) int {
	switch kind {
	case domain.ErrorKindNotFound:
		return http.StatusNotFound
	case domain.ErrorKindValidation:
		return http.StatusBadRequest
	case domain.ErrorKindConflict:
		return http.StatusConflict
	case domain.ErrorKindForbidden:
		return http.StatusForbidden
	case domain.ErrorKindUnauthorized:
		return http.StatusUnauthorized
	case domain.ErrorKindPaymentFailed:
		return http.StatusPaymentRequired
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
