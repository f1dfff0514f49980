package gateway

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"staybook/internal/history"
	"staybook/internal/payment"
	"staybook/internal/search"
	"staybook/internal/session"
	apperrors "staybook/pkg/errors"
	httputil "staybook/pkg/http"
	"staybook/pkg/logger"
	"staybook/pkg/model"

	"github.com/julienschmidt/httprouter"
)

// GatewayHandler exposes each client session's coordination state over HTTP.
type GatewayHandler struct {
	registry *session.Registry
	log      *logger.Logger
	now      func() time.Time
}

func NewGatewayHandler(registry *session.Registry, log *logger.Logger) *GatewayHandler {
	return &GatewayHandler{
		registry: registry,
		log:      log.Component("gateway_handler"),
		now:      time.Now,
	}
}

func (h *GatewayHandler) fail(w http.ResponseWriter, handler string, err error) {
	if appErr := apperrors.AsAppError(err); appErr.HTTPStatus >= http.StatusInternalServerError {
		h.log.Error("request failed", "handler", handler, "error", err)
	} else {
		h.log.Debug("request rejected", "handler", handler, "error", err)
	}
	httputil.WriteError(w, err)
}

func (h *GatewayHandler) session(w http.ResponseWriter, ps httprouter.Params, handler string) (*session.Session, bool) {
	s, err := h.registry.Get(ps.ByName("id"))
	if err != nil {
		h.fail(w, handler, err)
		return nil, false
	}
	return s, true
}

func (h *GatewayHandler) CreateSession(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req createSessionRequest
	if err := httputil.DecodeJSON(r, &req, false); err != nil {
		h.fail(w, "CreateSession", err)
		return
	}

	s, err := h.registry.Create(strings.TrimSpace(req.UserID), req.Token)
	if err != nil {
		h.fail(w, "CreateSession", err)
		return
	}

	httputil.WriteCreated(w, createSessionResponse{ID: s.ID, UserID: s.UserID, CreatedAt: s.CreatedAt})
}

func (h *GatewayHandler) DeleteSession(w http.ResponseWriter, _ *http.Request, ps httprouter.Params) {
	if err := h.registry.Delete(ps.ByName("id")); err != nil {
		h.fail(w, "DeleteSession", err)
		return
	}
	httputil.WriteNoContent(w)
}

func (h *GatewayHandler) GetFilters(w http.ResponseWriter, _ *http.Request, ps httprouter.Params) {
	s, ok := h.session(w, ps, "GetFilters")
	if !ok {
		return
	}
	httputil.WriteSuccess(w, s.Filters.Get())
}

// UpdateFilters applies a partial filter change. The listing refresh it
// causes is debounced, hence 202.
func (h *GatewayHandler) UpdateFilters(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	s, ok := h.session(w, ps, "UpdateFilters")
	if !ok {
		return
	}

	var req filtersRequest
	if err := httputil.DecodeJSON(r, &req, false); err != nil {
		h.fail(w, "UpdateFilters", err)
		return
	}
	update, err := req.toUpdate()
	if err != nil {
		h.fail(w, "UpdateFilters", err)
		return
	}

	httputil.WriteAccepted(w, s.Filters.Update(update))
}

func (h *GatewayHandler) ResetFilters(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	s, ok := h.session(w, ps, "ResetFilters")
	if !ok {
		return
	}

	req := resetRequest{Profile: string(search.ProfileSearch)}
	if err := httputil.DecodeJSON(r, &req, true); err != nil {
		h.fail(w, "ResetFilters", err)
		return
	}

	filters, err := s.Filters.Reset(search.Profile(req.Profile))
	if err != nil {
		h.fail(w, "ResetFilters", apperrors.InvalidInput(err.Error()))
		return
	}
	httputil.WriteSuccess(w, filters)
}

func (h *GatewayHandler) Search(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	s, ok := h.session(w, ps, "Search")
	if !ok {
		return
	}

	page, err := s.Listing.Submit(r.Context())
	if err != nil {
		h.fail(w, "Search", listingError(err))
		return
	}
	httputil.WriteSuccess(w, page)
}

func (h *GatewayHandler) SetSort(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	s, ok := h.session(w, ps, "SetSort")
	if !ok {
		return
	}

	var req sortRequest
	if err := httputil.DecodeJSON(r, &req, false); err != nil {
		h.fail(w, "SetSort", err)
		return
	}
	key, err := search.ParseSortKey(req.Sort)
	if err != nil {
		h.fail(w, "SetSort", apperrors.InvalidInput(err.Error()))
		return
	}

	page, err := s.Listing.SetSort(r.Context(), key)
	if err != nil {
		h.fail(w, "SetSort", listingError(err))
		return
	}
	httputil.WriteSuccess(w, page)
}

func (h *GatewayHandler) ListHotels(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	s, ok := h.session(w, ps, "ListHotels")
	if !ok {
		return
	}

	raw := r.URL.Query().Get("page")
	if raw == "" {
		httputil.WriteSuccess(w, s.Listing.Current())
		return
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		h.fail(w, "ListHotels", apperrors.InvalidInput("invalid page parameter: "+raw))
		return
	}
	httputil.WriteSuccess(w, s.Listing.Page(n))
}

func (h *GatewayHandler) LoadHotel(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	s, ok := h.session(w, ps, "LoadHotel")
	if !ok {
		return
	}

	var req hotelRequest
	if err := httputil.DecodeJSON(r, &req, false); err != nil {
		h.fail(w, "LoadHotel", err)
		return
	}
	if req.HotelID == "" {
		h.fail(w, "LoadHotel", apperrors.InvalidInput("hotelId is required"))
		return
	}

	if _, err := s.Probe.Load(r.Context(), req.HotelID); err != nil {
		h.fail(w, "LoadHotel", err)
		return
	}
	httputil.WriteSuccess(w, s.Probe.State())
}

// UpdateAvailability changes the probe inputs. A probe is scheduled after the
// quiet period, so the response reflects the state before it runs.
func (h *GatewayHandler) UpdateAvailability(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	s, ok := h.session(w, ps, "UpdateAvailability")
	if !ok {
		return
	}

	var req availabilityRequest
	if err := httputil.DecodeJSON(r, &req, false); err != nil {
		h.fail(w, "UpdateAvailability", err)
		return
	}

	if req.RoomType != nil {
		rt := model.RoomType(*req.RoomType)
		if rt != "" && !rt.Valid() {
			h.fail(w, "UpdateAvailability", apperrors.InvalidInput("unknown room type: "+*req.RoomType))
			return
		}
		s.Probe.SelectRoom(rt)
	}
	if req.Guests != nil {
		if *req.Guests < 1 {
			h.fail(w, "UpdateAvailability", apperrors.InvalidInput("guests must be at least 1"))
			return
		}
		s.Probe.SetGuests(*req.Guests)
	}
	if req.CheckIn != nil || req.CheckOut != nil {
		state := s.Probe.State()
		checkIn, checkOut := state.CheckIn, state.CheckOut
		var err error
		if req.CheckIn != nil {
			if checkIn, err = parseOptionalDate("checkIn", req.CheckIn); err != nil {
				h.fail(w, "UpdateAvailability", err)
				return
			}
		}
		if req.CheckOut != nil {
			if checkOut, err = parseOptionalDate("checkOut", req.CheckOut); err != nil {
				h.fail(w, "UpdateAvailability", err)
				return
			}
		}
		s.Probe.SetDates(checkIn, checkOut)
	}

	httputil.WriteAccepted(w, s.Probe.State())
}

func (h *GatewayHandler) GetAvailability(w http.ResponseWriter, _ *http.Request, ps httprouter.Params) {
	s, ok := h.session(w, ps, "GetAvailability")
	if !ok {
		return
	}
	httputil.WriteSuccess(w, s.Probe.State())
}

func (h *GatewayHandler) CommitDraft(w http.ResponseWriter, _ *http.Request, ps httprouter.Params) {
	s, ok := h.session(w, ps, "CommitDraft")
	if !ok {
		return
	}

	draft, err := s.CommitDraft()
	if err != nil {
		switch {
		case errors.Is(err, session.ErrSelectionUnavailable):
			err = apperrors.Conflict(err.Error())
		case errors.Is(err, session.ErrNothingSelected):
			err = apperrors.InvalidInput(err.Error())
		case errors.Is(err, session.ErrInvalidDates), errors.Is(err, session.ErrInvalidGuests):
			err = apperrors.Validation(err.Error(), nil)
		}
		h.fail(w, "CommitDraft", err)
		return
	}
	httputil.WriteSuccess(w, draft)
}

func (h *GatewayHandler) GetDraft(w http.ResponseWriter, _ *http.Request, ps httprouter.Params) {
	s, ok := h.session(w, ps, "GetDraft")
	if !ok {
		return
	}

	draft := s.Draft.Get()
	if draft == nil {
		h.fail(w, "GetDraft", apperrors.NotFound("Booking draft"))
		return
	}
	httputil.WriteSuccess(w, draft)
}

func (h *GatewayHandler) SubmitPayment(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	s, ok := h.session(w, ps, "SubmitPayment")
	if !ok {
		return
	}

	var form payment.PaymentForm
	if err := httputil.DecodeJSON(r, &form, false); err != nil {
		h.fail(w, "SubmitPayment", err)
		return
	}

	result, err := s.Checkout.Submit(r.Context(), form)
	if err != nil {
		if errors.Is(err, payment.ErrAttemptInProgress) || errors.Is(err, payment.ErrAlreadySucceeded) {
			err = apperrors.Conflict(err.Error())
		}
		h.fail(w, "SubmitPayment", err)
		return
	}
	httputil.WriteSuccess(w, result)
}

func (h *GatewayHandler) GetPayment(w http.ResponseWriter, _ *http.Request, ps httprouter.Params) {
	s, ok := h.session(w, ps, "GetPayment")
	if !ok {
		return
	}
	httputil.WriteSuccess(w, s.Checkout.Last())
}

func (h *GatewayHandler) ListBookings(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	s, ok := h.session(w, ps, "ListBookings")
	if !ok {
		return
	}

	criteria, err := parseCriteria(r)
	if err != nil {
		h.fail(w, "ListBookings", err)
		return
	}
	httputil.WriteSuccess(w, s.History.List(criteria, h.now()))
}

func parseCriteria(r *http.Request) (history.Criteria, error) {
	q := r.URL.Query()

	tab, err := history.ParseTab(q.Get("tab"))
	if err != nil {
		return history.Criteria{}, apperrors.InvalidInput(err.Error())
	}
	c := history.Criteria{
		Tab:    tab,
		Query:  q.Get("q"),
		Status: q.Get("status"),
	}
	if c.From, err = httputil.QueryDate(r, "from"); err != nil {
		return c, err
	}
	if c.To, err = httputil.QueryDate(r, "to"); err != nil {
		return c, err
	}
	if c.MinPrice, err = httputil.QueryFloat(r, "minPrice"); err != nil {
		return c, err
	}
	if c.MaxPrice, err = httputil.QueryFloat(r, "maxPrice"); err != nil {
		return c, err
	}
	return c, nil
}

// RefreshBookings forwards a focus, visibility or manual trigger to the
// session's polling loop.
func (h *GatewayHandler) RefreshBookings(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	s, ok := h.session(w, ps, "RefreshBookings")
	if !ok {
		return
	}

	var req refreshRequest
	if err := httputil.DecodeJSON(r, &req, true); err != nil {
		h.fail(w, "RefreshBookings", err)
		return
	}
	reason, valid := history.ParseReason(req.Reason)
	if !valid {
		h.fail(w, "RefreshBookings", apperrors.InvalidInput("unknown refresh reason: "+req.Reason))
		return
	}

	s.History.Trigger(reason)
	httputil.WriteAccepted(w, map[string]string{"reason": string(reason)})
}

func (h *GatewayHandler) SetBookingsView(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	s, ok := h.session(w, ps, "SetBookingsView")
	if !ok {
		return
	}

	var req viewRequest
	if err := httputil.DecodeJSON(r, &req, false); err != nil {
		h.fail(w, "SetBookingsView", err)
		return
	}
	view := history.View(req.View)
	if view != history.ViewMyBookings && view != history.ViewBookingStatus {
		h.fail(w, "SetBookingsView", apperrors.InvalidInput("unknown view: "+req.View))
		return
	}

	s.History.SetView(view)
	httputil.WriteSuccess(w, map[string]string{"view": string(view)})
}

func (h *GatewayHandler) CancelBooking(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	s, ok := h.session(w, ps, "CancelBooking")
	if !ok {
		return
	}

	booking, err := s.History.Cancel(r.Context(), ps.ByName("bookingId"))
	if err != nil {
		h.fail(w, "CancelBooking", err)
		return
	}
	httputil.WriteSuccess(w, booking)
}

func (h *GatewayHandler) DrainNotifications(w http.ResponseWriter, _ *http.Request, ps httprouter.Params) {
	s, ok := h.session(w, ps, "DrainNotifications")
	if !ok {
		return
	}
	httputil.WriteSuccess(w, s.Notifications.Drain())
}

func listingError(err error) error {
	if errors.Is(err, search.ErrBusy) {
		return apperrors.Conflict(err.Error())
	}
	return err
}

func (h *GatewayHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/sessions", h.CreateSession)
	router.DELETE("/api/v1/sessions/:id", h.DeleteSession)

	router.GET("/api/v1/sessions/:id/filters", h.GetFilters)
	router.PATCH("/api/v1/sessions/:id/filters", h.UpdateFilters)
	router.POST("/api/v1/sessions/:id/filters/reset", h.ResetFilters)
	router.POST("/api/v1/sessions/:id/search", h.Search)
	router.PUT("/api/v1/sessions/:id/sort", h.SetSort)
	router.GET("/api/v1/sessions/:id/hotels", h.ListHotels)

	router.POST("/api/v1/sessions/:id/hotel", h.LoadHotel)
	router.PATCH("/api/v1/sessions/:id/availability", h.UpdateAvailability)
	router.GET("/api/v1/sessions/:id/availability", h.GetAvailability)

	router.PUT("/api/v1/sessions/:id/draft", h.CommitDraft)
	router.GET("/api/v1/sessions/:id/draft", h.GetDraft)

	router.POST("/api/v1/sessions/:id/payment", h.SubmitPayment)
	router.GET("/api/v1/sessions/:id/payment", h.GetPayment)

	router.GET("/api/v1/sessions/:id/bookings", h.ListBookings)
	router.POST("/api/v1/sessions/:id/refresh", h.RefreshBookings)
	router.PUT("/api/v1/sessions/:id/bookings/view", h.SetBookingsView)
	router.POST("/api/v1/sessions/:id/bookings/:bookingId/cancel", h.CancelBooking)

	router.GET("/api/v1/sessions/:id/notifications", h.DrainNotifications)
}
