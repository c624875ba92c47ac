package handler

import (
	"io"
	"net/http"
	"staybook/internal/bookings/service"
	"staybook/internal/payments"
	apperrors "staybook/pkg/errors"
	httputil "staybook/pkg/http"
	"staybook/pkg/logger"

	"github.com/julienschmidt/httprouter"
)

const signatureHeader = "Stripe-Signature"

type eventParser interface {
	ParseEvent(payload []byte, signature string) (payments.Event, error)
}

type WebhookHandler struct {
	service service.BookingService
	parser  eventParser
	log     *logger.Logger
}

func NewWebhookHandler(service service.BookingService, parser eventParser, log *logger.Logger) *WebhookHandler {
	return &WebhookHandler{
		service: service,
		parser:  parser,
		log:     log,
	}
}

// Payment accepts processor callbacks. Once the signature checks out the
// answer is always 204 so the processor stops retrying; capture problems are
// logged by the service.
func (h *WebhookHandler) Payment(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	payload, err := io.ReadAll(r.Body)
	if err != nil {
		h.log.Warn("Failed to read webhook body", "error", err)
		if writeErr := httputil.WriteError(w, apperrors.InvalidInput("Invalid request body")); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Payment", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	event, err := h.parser.ParseEvent(payload, r.Header.Get(signatureHeader))
	if err != nil {
		h.log.Warn("Rejected payment webhook", "error", err, "remote_addr", r.RemoteAddr)
		if writeErr := httputil.WriteError(w, apperrors.InvalidInput("Invalid webhook signature")); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Payment", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	h.log.Info("Payment webhook received", "event_id", event.ID, "type", event.Type)
	h.service.CapturePayment(r.Context(), event)
	httputil.WriteNoContent(w)
}

func (h *WebhookHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/webhook/payment", h.Payment)
}
