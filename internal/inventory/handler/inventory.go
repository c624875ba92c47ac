package handler

import (
	"errors"
	"net/http"
	"staybook/internal/inventory/service"
	"staybook/internal/inventory/validator"
	apperrors "staybook/pkg/errors"
	httputil "staybook/pkg/http"
	"staybook/pkg/logger"
	"staybook/pkg/middleware"
	"staybook/pkg/model"
	"time"

	"github.com/julienschmidt/httprouter"
)

const defaultListingDays = 30

type InventoryHandler struct {
	service   service.InventoryService
	validator *validator.InventoryValidator
	log       *logger.Logger
	now       func() time.Time
}

func NewInventoryHandler(service service.InventoryService, validator *validator.InventoryValidator, log *logger.Logger) *InventoryHandler {
	return &InventoryHandler{
		service:   service,
		validator: validator,
		log:       log,
		now:       time.Now,
	}
}

func (h *InventoryHandler) writeError(w http.ResponseWriter, handler string, err error) {
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

// List returns the room's records between start and end (YYYY-MM-DD).
// Without parameters it covers the next 30 days.
func (h *InventoryHandler) List(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	user, err := requester(r)
	if err != nil {
		h.writeError(w, "List", err)
		return
	}

	start := model.Day(h.now())
	end := start.AddDate(0, 0, defaultListingDays-1)
	query := r.URL.Query()
	if query.Get("start") != "" {
		if start, err = httputil.ExtractDate(r, "start"); err != nil {
			h.writeError(w, "List", err)
			return
		}
	}
	if query.Get("end") != "" {
		if end, err = httputil.ExtractDate(r, "end"); err != nil {
			h.writeError(w, "List", err)
			return
		}
	}

	records, err := h.service.GetInventoryByRoom(r.Context(), ps.ByName("roomId"), start, end, user)
	if err != nil {
		h.writeError(w, "List", err)
		return
	}

	if err := httputil.WriteSuccess(w, records); err != nil {
		h.log.Error("failed to write success response", "handler", "List", "operation", "WriteSuccess", "error", err)
	}
}

func (h *InventoryHandler) Update(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	user, err := requester(r)
	if err != nil {
		h.writeError(w, "Update", err)
		return
	}

	var req model.InventoryUpdateRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(w, "Update", err)
		return
	}

	update, err := h.validator.ParseUpdate(&req)
	if err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			err = apperrors.Validation("Inventory update validation failed", map[string]any{"errors": verrs})
		}
		h.writeError(w, "Update", err)
		return
	}

	if err := h.service.UpdateInventory(r.Context(), ps.ByName("roomId"), update, user); err != nil {
		h.writeError(w, "Update", err)
		return
	}

	httputil.WriteNoContent(w)
}

func (h *InventoryHandler) Initialize(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	user, err := requester(r)
	if err != nil {
		h.writeError(w, "Initialize", err)
		return
	}

	created, err := h.service.InitializeRoomForYear(r.Context(), ps.ByName("roomId"), user)
	if err != nil {
		h.writeError(w, "Initialize", err)
		return
	}

	if err := httputil.WriteCreated(w, map[string]int64{"created_days": created}); err != nil {
		h.log.Error("failed to write created response", "handler", "Initialize", "operation", "WriteCreated", "error", err)
	}
}

// InitializeHotel opens the inventory of every room of the hotel.
func (h *InventoryHandler) InitializeHotel(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	user, err := requester(r)
	if err != nil {
		h.writeError(w, "InitializeHotel", err)
		return
	}

	created, err := h.service.InitializeHotel(r.Context(), ps.ByName("hotelId"), user)
	if err != nil {
		h.writeError(w, "InitializeHotel", err)
		return
	}

	if err := httputil.WriteCreated(w, map[string]int64{"created_days": created}); err != nil {
		h.log.Error("failed to write created response", "handler", "InitializeHotel", "operation", "WriteCreated", "error", err)
	}
}

func (h *InventoryHandler) Delete(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	user, err := requester(r)
	if err != nil {
		h.writeError(w, "Delete", err)
		return
	}

	if _, err := h.service.DeleteAllForRoom(r.Context(), ps.ByName("roomId"), user); err != nil {
		h.writeError(w, "Delete", err)
		return
	}

	httputil.WriteNoContent(w)
}

func (h *InventoryHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/api/v1/admin/rooms/:roomId/inventory", h.List)
	router.PATCH("/api/v1/admin/rooms/:roomId/inventory", h.Update)
	router.DELETE("/api/v1/admin/rooms/:roomId/inventory", h.Delete)
	router.POST("/api/v1/admin/rooms/:roomId/inventory/init", h.Initialize)
	router.POST("/api/v1/admin/hotels/:hotelId/inventory/init", h.InitializeHotel)
}
