package handler

import (
	"net/http"
	"strconv"

	"staybook/internal/hotels/service"
	apperrors "staybook/pkg/errors"
	httputil "staybook/pkg/http"
	"staybook/pkg/logger"
	"staybook/pkg/model"

	"github.com/julienschmidt/httprouter"
)

const featuredSegment = "featured"

type HotelHandler struct {
	service service.HotelService
	log     *logger.Logger
}

func NewHotelHandler(service service.HotelService, log *logger.Logger) *HotelHandler {
	return &HotelHandler{
		service: service,
		log:     log,
	}
}

func (h *HotelHandler) GetAll(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	q, err := parseHotelQuery(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	hotels, total, err := h.service.List(r.Context(), q)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WritePaginated(w, hotels, total, q.Limit, q.Offset)
}

// GetByID also serves /api/hotels/featured: the router cannot hold a static
// segment next to :id.
func (h *HotelHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id := ps.ByName("id")
	if id == featuredSegment {
		h.Featured(w, r, ps)
		return
	}

	hotel, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteSuccess(w, hotel)
}

func (h *HotelHandler) Featured(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	hotels, err := h.service.Featured(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if hotels == nil {
		hotels = []*model.Hotel{}
	}
	httputil.WriteSuccess(w, hotels)
}

func (h *HotelHandler) SubResource(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	switch ps.ByName("sub") {
	case "rooms":
		h.Rooms(w, r, ps)
	case "availability":
		h.Availability(w, r, ps)
	default:
		httputil.WriteError(w, apperrors.NotFound("Resource"))
	}
}

func (h *HotelHandler) Rooms(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	rooms, err := h.service.Rooms(r.Context(), ps.ByName("id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, rooms)
}

func (h *HotelHandler) Availability(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	q, err := parseAvailabilityQuery(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	rooms, err := h.service.Availability(r.Context(), ps.ByName("id"), q)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, rooms)
}

func (h *HotelHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/api/hotels", h.GetAll)
	router.GET("/api/hotels/:id", h.GetByID)
	router.GET("/api/hotels/:id/:sub", h.SubResource)
}

func parseHotelQuery(r *http.Request) (model.HotelQuery, error) {
	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		return model.HotelQuery{}, err
	}
	minPrice, err := httputil.QueryFloat(r, "minPrice")
	if err != nil {
		return model.HotelQuery{}, err
	}
	maxPrice, err := httputil.QueryFloat(r, "maxPrice")
	if err != nil {
		return model.HotelQuery{}, err
	}
	rating, err := httputil.QueryFloat(r, "rating")
	if err != nil {
		return model.HotelQuery{}, err
	}

	q := model.HotelQuery{
		Location: r.URL.Query().Get("location"),
		MinPrice: minPrice,
		MaxPrice: maxPrice,
		Limit:    limit,
		Offset:   offset,
	}
	if rating != nil {
		q.MinRating = *rating
	}
	return q, nil
}

func parseAvailabilityQuery(r *http.Request) (model.AvailabilityQuery, error) {
	checkIn, err := httputil.QueryDate(r, "checkIn")
	if err != nil {
		return model.AvailabilityQuery{}, err
	}
	checkOut, err := httputil.QueryDate(r, "checkOut")
	if err != nil {
		return model.AvailabilityQuery{}, err
	}
	if checkIn == nil || checkOut == nil {
		return model.AvailabilityQuery{}, apperrors.InvalidInput("checkIn and checkOut are required")
	}

	guests := 1
	if s := r.URL.Query().Get("guests"); s != "" {
		guests, err = strconv.Atoi(s)
		if err != nil {
			return model.AvailabilityQuery{}, apperrors.InvalidInput("invalid guests parameter: " + s)
		}
	}

	return model.AvailabilityQuery{CheckIn: *checkIn, CheckOut: *checkOut, Guests: guests}, nil
}
