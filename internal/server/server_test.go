package server_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/nikolayk812/ordercore/internal/app"
	"github.com/nikolayk812/ordercore/internal/domain"
	"github.com/nikolayk812/ordercore/internal/metrics"
	"github.com/nikolayk812/ordercore/internal/server"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockDispatcher struct{ mock.Mock }

func (m *mockDispatcher) Dispatch(ctx context.Context, actor domain.Actor, cmd any) (any, error) {
	args := m.Called(ctx, actor, cmd)
	return args.Get(0), args.Error(1)
}

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestWebhook(t *testing.T) {
	paymentID := uuid.New()

	tests := []struct {
		name       string
		result     any
		err        error
		wantStatus int
		wantBody   string
	}{
		{
			name:       "processed",
			result:     app.WebhookOutcome{EventID: "evt_1", EventType: "payment_intent.succeeded", Processed: true, PaymentID: &paymentID},
			wantStatus: http.StatusOK,
			wantBody:   `{"eventId":"evt_1","eventType":"payment_intent.succeeded","processed":true,"duplicate":false,"paymentId":"` + paymentID.String() + `"}`,
		},
		{
			name:       "duplicate",
			result:     app.WebhookOutcome{EventID: "evt_1", Processed: true, Duplicate: true},
			wantStatus: http.StatusOK,
			wantBody:   `{"eventId":"evt_1","processed":true,"duplicate":true}`,
		},
		{
			name:       "bad signature",
			err:        domain.Unauthorized("Webhook.InvalidSignature", "Webhook signature verification failed"),
			wantStatus: http.StatusUnauthorized,
			wantBody:   `{"code":"Webhook.InvalidSignature","message":"Webhook signature verification failed"}`,
		},
		{
			name:       "unknown provider",
			err:        domain.Validation("Webhook.InvalidProvider", `Unknown payment provider "acme"`),
			wantStatus: http.StatusBadRequest,
			wantBody:   `{"code":"Webhook.InvalidProvider","message":"Unknown payment provider \"acme\""}`,
		},
		{
			name:       "internal error hides the cause",
			err:        domain.Internal("Payment.ReconcileFailed", errors.New("pq: relation does not exist")),
			wantStatus: http.StatusInternalServerError,
			wantBody:   `{"code":"Payment.ReconcileFailed","message":"Internal error"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := &mockDispatcher{}
			d.On("Dispatch", mock.Anything, domain.System(), mock.MatchedBy(func(cmd app.ProcessWebhook) bool {
				return cmd.Provider == "stripe" &&
					string(cmd.Payload) == `{"id":"evt_1"}` &&
					cmd.Signature == "t=1,v1=abc" &&
					cmd.Headers["Sandbox-Signature"] == "t=1,v1=abc"
			})).Return(tt.result, tt.err).Once()

			h := server.NewHandler(server.Options{Dispatcher: d, SignatureHeader: "Sandbox-Signature"})

			req := httptest.NewRequest(http.MethodPost, "/webhooks/stripe", strings.NewReader(`{"id":"evt_1"}`))
			req.Header.Set("Sandbox-Signature", "t=1,v1=abc")
			rec := httptest.NewRecorder()

			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.JSONEq(t, tt.wantBody, rec.Body.String())
			d.AssertExpectations(t)
		})
	}
}

func TestWebhook_MethodNotAllowed(t *testing.T) {
	h := server.NewHandler(server.Options{Dispatcher: &mockDispatcher{}})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/webhooks/stripe", nil))

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestHealthz(t *testing.T) {
	t.Run("ok", func(t *testing.T) {
		h := server.NewHandler(server.Options{DB: pingerFunc(func(context.Context) error { return nil })})

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	})

	t.Run("database down", func(t *testing.T) {
		h := server.NewHandler(server.Options{DB: pingerFunc(func(context.Context) error { return errors.New("dial tcp: refused") })})

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewCommandMetrics(reg)
	m.Commands.WithLabelValues("GetOrder", metrics.OutcomeOK).Inc()

	h := server.NewHandler(server.Options{Gatherer: reg})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `ordercore_commands_total{command="GetOrder",outcome="ok"} 1`)
}
