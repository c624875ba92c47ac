package handler

import (
	"net/http"
	"staybook/internal/bookings/service"
	apperrors "staybook/pkg/errors"
	httputil "staybook/pkg/http"
	"staybook/pkg/logger"
	"staybook/pkg/middleware"
	"staybook/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type BookingHandler struct {
	service service.BookingService
	log     *logger.Logger
}

func NewBookingHandler(service service.BookingService, log *logger.Logger) *BookingHandler {
	return &BookingHandler{
		service: service,
		log:     log,
	}
}

func (h *BookingHandler) writeError(w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}

func requester(r *http.Request) (string, error) {
	id, ok := middleware.RequesterFromContext(r.Context())
	if !ok {
		return "", apperrors.Unauthorized("Authentication required")
	}
	return id, nil
}

func (h *BookingHandler) Initialize(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	user, err := requester(r)
	if err != nil {
		h.writeError(w, "Initialize", err)
		return
	}

	var req model.BookingRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(w, "Initialize", err)
		return
	}

	booking, err := h.service.InitializeBooking(r.Context(), &req, user)
	if err != nil {
		h.writeError(w, "Initialize", err)
		return
	}

	if err := httputil.WriteCreated(w, booking); err != nil {
		h.log.Error("failed to write created response", "handler", "Initialize", "operation", "WriteCreated", "error", err)
	}
}

func (h *BookingHandler) AddGuests(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	user, err := requester(r)
	if err != nil {
		h.writeError(w, "AddGuests", err)
		return
	}

	var guests []model.GuestRequest
	if err := httputil.DecodeJSON(r, &guests); err != nil {
		h.writeError(w, "AddGuests", err)
		return
	}

	booking, err := h.service.AddGuests(r.Context(), ps.ByName("id"), guests, user)
	if err != nil {
		h.writeError(w, "AddGuests", err)
		return
	}

	if err := httputil.WriteSuccess(w, booking); err != nil {
		h.log.Error("failed to write success response", "handler", "AddGuests", "operation", "WriteSuccess", "error", err)
	}
}

func (h *BookingHandler) InitiatePayment(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	user, err := requester(r)
	if err != nil {
		h.writeError(w, "InitiatePayment", err)
		return
	}

	session, err := h.service.InitiatePayment(r.Context(), ps.ByName("id"), user)
	if err != nil {
		h.writeError(w, "InitiatePayment", err)
		return
	}

	if err := httputil.WriteSuccess(w, session); err != nil {
		h.log.Error("failed to write success response", "handler", "InitiatePayment", "operation", "WriteSuccess", "error", err)
	}
}

func (h *BookingHandler) Cancel(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	user, err := requester(r)
	if err != nil {
		h.writeError(w, "Cancel", err)
		return
	}

	if err := h.service.CancelBooking(r.Context(), ps.ByName("id"), user); err != nil {
		h.writeError(w, "Cancel", err)
		return
	}

	httputil.WriteNoContent(w)
}

func (h *BookingHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	user, err := requester(r)
	if err != nil {
		h.writeError(w, "GetByID", err)
		return
	}

	booking, err := h.service.GetBooking(r.Context(), ps.ByName("id"), user)
	if err != nil {
		h.writeError(w, "GetByID", err)
		return
	}

	if err := httputil.WriteSuccess(w, booking); err != nil {
		h.log.Error("failed to write success response", "handler", "GetByID", "operation", "WriteSuccess", "error", err)
	}
}

func (h *BookingHandler) GetStatus(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	user, err := requester(r)
	if err != nil {
		h.writeError(w, "GetStatus", err)
		return
	}

	status, err := h.service.GetBookingStatus(r.Context(), ps.ByName("id"), user)
	if err != nil {
		h.writeError(w, "GetStatus", err)
		return
	}

	if err := httputil.WriteSuccess(w, status); err != nil {
		h.log.Error("failed to write success response", "handler", "GetStatus", "operation", "WriteSuccess", "error", err)
	}
}

func (h *BookingHandler) MyBookings(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	user, err := requester(r)
	if err != nil {
		h.writeError(w, "MyBookings", err)
		return
	}

	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		h.writeError(w, "MyBookings", err)
		return
	}

	bookings, total, err := h.service.GetMyBookings(r.Context(), user, limit, offset)
	if err != nil {
		h.writeError(w, "MyBookings", err)
		return
	}

	if err := httputil.WritePaginated(w, bookings, total, limit, offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "MyBookings", "operation", "WritePaginated", "error", err)
	}
}

func (h *BookingHandler) HotelBookings(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	user, err := requester(r)
	if err != nil {
		h.writeError(w, "HotelBookings", err)
		return
	}

	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		h.writeError(w, "HotelBookings", err)
		return
	}

	bookings, total, err := h.service.GetAllBookingsForHotel(r.Context(), ps.ByName("hotelId"), user, limit, offset)
	if err != nil {
		h.writeError(w, "HotelBookings", err)
		return
	}

	if err := httputil.WritePaginated(w, bookings, total, limit, offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "HotelBookings", "operation", "WritePaginated", "error", err)
	}
}

// HotelReport aggregates confirmed bookings created between start and end,
// both inclusive and in YYYY-MM-DD.
func (h *BookingHandler) HotelReport(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	user, err := requester(r)
	if err != nil {
		h.writeError(w, "HotelReport", err)
		return
	}

	start, err := httputil.ExtractDate(r, "start")
	if err != nil {
		h.writeError(w, "HotelReport", err)
		return
	}
	end, err := httputil.ExtractDate(r, "end")
	if err != nil {
		h.writeError(w, "HotelReport", err)
		return
	}

	report, err := h.service.GetHotelReport(r.Context(), ps.ByName("hotelId"), start, end, user)
	if err != nil {
		h.writeError(w, "HotelReport", err)
		return
	}

	if err := httputil.WriteSuccess(w, report); err != nil {
		h.log.Error("failed to write success response", "handler", "HotelReport", "operation", "WriteSuccess", "error", err)
	}
}

func (h *BookingHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/bookings", h.Initialize)
	router.GET("/api/v1/bookings/:id", h.GetByID)
	router.GET("/api/v1/bookings/:id/status", h.GetStatus)
	router.POST("/api/v1/bookings/:id/guests", h.AddGuests)
	router.POST("/api/v1/bookings/:id/payments", h.InitiatePayment)
	router.POST("/api/v1/bookings/:id/cancel", h.Cancel)
	router.GET("/api/v1/users/me/bookings", h.MyBookings)
	router.GET("/api/v1/admin/hotels/:hotelId/bookings", h.HotelBookings)
	router.GET("/api/v1/admin/hotels/:hotelId/reports", h.HotelReport)
}
