package handler

import (
	"net/http"

	"staybook/internal/bookings/service"
	apperrors "staybook/pkg/errors"
	httputil "staybook/pkg/http"
	"staybook/pkg/logger"
	"staybook/pkg/model"

	"github.com/julienschmidt/httprouter"
)

const (
	userSegment    = "user"
	receiptSegment = "receipt"
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

func (h *BookingHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var body model.BookingCreate
	if err := httputil.DecodeJSON(r, &body, false); err != nil {
		httputil.WriteError(w, err)
		return
	}

	booking, err := h.service.Create(r.Context(), &body)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteCreated(w, booking)
}

func (h *BookingHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	booking, err := h.service.GetByID(r.Context(), ps.ByName("id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteSuccess(w, booking)
}

// SubResource serves /api/bookings/user/:userId and /api/bookings/:id/receipt,
// which share one route shape.
func (h *BookingHandler) SubResource(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id, sub := ps.ByName("id"), ps.ByName("sub")
	switch {
	case id == userSegment:
		h.ListByUser(w, r, sub)
	case sub == receiptSegment:
		h.Receipt(w, r, id)
	default:
		httputil.WriteError(w, apperrors.NotFound("Resource"))
	}
}

func (h *BookingHandler) ListByUser(w http.ResponseWriter, r *http.Request, userID string) {
	bookings, err := h.service.ListByUser(r.Context(), userID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteSuccess(w, bookings)
}

func (h *BookingHandler) Receipt(w http.ResponseWriter, r *http.Request, id string) {
	receipt, err := h.service.Receipt(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteSuccess(w, receipt)
}

func (h *BookingHandler) Cancel(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id := ps.ByName("id")
	booking, err := h.service.Cancel(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	h.log.Info("booking cancelled through API", "id", id)
	httputil.WriteSuccess(w, booking)
}

func (h *BookingHandler) UpdateStatus(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var update model.BookingStatusUpdate
	if err := httputil.DecodeJSON(r, &update, false); err != nil {
		httputil.WriteError(w, err)
		return
	}

	booking, err := h.service.UpdateStatus(r.Context(), ps.ByName("id"), &update)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteSuccess(w, booking)
}

func (h *BookingHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/bookings", h.Create)
	router.GET("/api/bookings/:id", h.GetByID)
	router.GET("/api/bookings/:id/:sub", h.SubResource)
	router.PUT("/api/bookings/:id/cancel", h.Cancel)
	router.PATCH("/api/admin/bookings/:id/status", h.UpdateStatus)
}
