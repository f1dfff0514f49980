package search

import (
	"errors"
	"fmt"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
)

type PriceRange struct {
	Min float64 `json:"min" validate:"gte=0"`
	Max float64 `json:"max" validate:"gte=0,gtefield=Min"`
}

// Unset reports a zero range, which the listing treats as unbounded.
func (p PriceRange) Unset() bool {
	return p.Min == 0 && p.Max == 0
}

type SearchFilters struct {
	Location   string     `json:"location" validate:"max=120"`
	CheckIn    *time.Time `json:"checkIn,omitempty"`
	CheckOut   *time.Time `json:"checkOut,omitempty"`
	Guests     int        `json:"guests" validate:"min=1,max=20"`
	PriceRange PriceRange `json:"priceRange"`
	Amenities  []string   `json:"amenities"`
	Rating     int        `json:"rating" validate:"min=0,max=5"`
}

func (f SearchFilters) clone() SearchFilters {
	out := f
	out.Amenities = slices.Clone(f.Amenities)
	if out.Amenities == nil {
		out.Amenities = []string{}
	}
	if f.CheckIn != nil {
		t := *f.CheckIn
		out.CheckIn = &t
	}
	if f.CheckOut != nil {
		t := *f.CheckOut
		out.CheckOut = &t
	}
	return out
}

// FilterUpdate is a partial change. Nil fields are left as they are; set
// fields replace the current value wholesale.
type FilterUpdate struct {
	Location      *string     `json:"location,omitempty"`
	CheckIn       *time.Time  `json:"checkIn,omitempty"`
	CheckOut      *time.Time  `json:"checkOut,omitempty"`
	ClearCheckIn  bool        `json:"clearCheckIn,omitempty"`
	ClearCheckOut bool        `json:"clearCheckOut,omitempty"`
	Guests        *int        `json:"guests,omitempty"`
	PriceRange    *PriceRange `json:"priceRange,omitempty"`
	Amenities     *[]string   `json:"amenities,omitempty"`
	Rating        *int        `json:"rating,omitempty"`
}

// Field identifies which parts of the filters changed in an update.
type Field uint8

const (
	FieldLocation Field = 1 << iota
	FieldDates
	FieldGuests
	FieldPrice
	FieldAmenities
	FieldRating
)

// DebouncedFields are the fields whose change schedules a debounced listing
// fetch.
const DebouncedFields = FieldLocation | FieldPrice | FieldAmenities | FieldRating

func (f Field) Has(other Field) bool {
	return f&other != 0
}

type Profile string

const (
	ProfileSearch  Profile = "search"
	ProfileListing Profile = "listing"
)

var ErrUnknownProfile = errors.New("unknown filter profile")

// Ceilings are the default upper price bounds of each profile. The search
// form and the listing view historically disagree, so both are kept.
type Ceilings struct {
	Search  float64
	Listing float64
}

func (c Ceilings) For(profile Profile) (float64, error) {
	switch profile {
	case ProfileSearch:
		return c.Search, nil
	case ProfileListing:
		return c.Listing, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownProfile, profile)
	}
}

func Defaults(ceiling float64) SearchFilters {
	return SearchFilters{
		Location:   "",
		Guests:     1,
		PriceRange: PriceRange{Min: 0, Max: ceiling},
		Amenities:  []string{},
		Rating:     0,
	}
}

// FiltersFromQuery overlays URL query parameters on base. Malformed values
// are ignored, as a browser would.
func FiltersFromQuery(q url.Values, base SearchFilters) SearchFilters {
	f := base.clone()

	if v := q.Get("location"); v != "" {
		f.Location = v
	}
	if t, ok := parseDate(q.Get("checkIn")); ok {
		f.CheckIn = &t
	}
	if t, ok := parseDate(q.Get("checkOut")); ok {
		f.CheckOut = &t
	}
	if n, err := strconv.Atoi(q.Get("guests")); err == nil && n >= 1 {
		f.Guests = n
	}
	if v, err := strconv.ParseFloat(q.Get("minPrice"), 64); err == nil && v >= 0 {
		f.PriceRange.Min = v
	}
	if v, err := strconv.ParseFloat(q.Get("maxPrice"), 64); err == nil && v >= 0 {
		f.PriceRange.Max = v
	}
	if v := q.Get("amenities"); v != "" {
		f.Amenities = []string{}
		for _, a := range strings.Split(v, ",") {
			if a = strings.TrimSpace(a); a != "" {
				f.Amenities = append(f.Amenities, a)
			}
		}
	}
	if n, err := strconv.Atoi(q.Get("rating")); err == nil && n >= 0 && n <= 5 {
		f.Rating = n
	}

	return f
}

func parseDate(value string) (time.Time, bool) {
	if value == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse("2006-01-02", value); err == nil {
		return t, true
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, true
	}
	return time.Time{}, false
}

// ClampPrice bounds a slider value to [0, ceiling].
func ClampPrice(value, ceiling float64) float64 {
	return min(max(value, 0), ceiling)
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

// Validate checks the filter invariants. The store never calls it; views
// that want strict input do.
func Validate(f SearchFilters) error {
	validateOnce.Do(func() { validate = validator.New() })

	if err := validate.Struct(f); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, e := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %s", e.Namespace(), e.Tag()))
			}
			return fmt.Errorf("invalid filters: %s", strings.Join(msgs, "; "))
		}
		return err
	}
	if f.CheckIn != nil && f.CheckOut != nil && f.CheckOut.Before(*f.CheckIn) {
		return errors.New("invalid filters: checkOut is before checkIn")
	}
	return nil
}
