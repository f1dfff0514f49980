package search

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"staybook/pkg/debounce"
	"staybook/pkg/logger"
	"staybook/pkg/model"
	"staybook/pkg/notify"
)

type SortKey string

const (
	SortRecommended SortKey = "recommended"
	SortPriceLow    SortKey = "price_low"
	SortPriceHigh   SortKey = "price_high"
	SortRating      SortKey = "rating"
	SortDistance    SortKey = "distance"
)

func ParseSortKey(s string) (SortKey, error) {
	switch k := SortKey(s); k {
	case SortRecommended, SortPriceLow, SortPriceHigh, SortRating, SortDistance:
		return k, nil
	case "":
		return SortRecommended, nil
	default:
		return "", fmt.Errorf("unknown sort key %q", s)
	}
}

// ErrBusy is returned when a fetch is already in flight. The call is dropped,
// not queued.
var ErrBusy = errors.New("listing fetch already in progress")

// FilterHotels keeps the hotels matching every criterion. Location matches
// name or location case-insensitively; amenities match when the hotel offers
// any of the requested ones.
func FilterHotels(hotels []model.Hotel, f SearchFilters) []model.Hotel {
	loc := strings.ToLower(strings.TrimSpace(f.Location))
	wanted := make([]string, 0, len(f.Amenities))
	for _, a := range f.Amenities {
		wanted = append(wanted, strings.ToLower(a))
	}

	out := make([]model.Hotel, 0, len(hotels))
	for _, h := range hotels {
		if loc != "" &&
			!strings.Contains(strings.ToLower(h.Name), loc) &&
			!strings.Contains(strings.ToLower(h.Location), loc) {
			continue
		}
		if !f.PriceRange.Unset() &&
			(h.PricePerNight < f.PriceRange.Min || h.PricePerNight > f.PriceRange.Max) {
			continue
		}
		if len(wanted) > 0 && !hasAnyAmenity(h.Amenities, wanted) {
			continue
		}
		if h.Rating < float64(f.Rating) {
			continue
		}
		out = append(out, h)
	}
	return out
}

func hasAnyAmenity(have, wanted []string) bool {
	for _, a := range have {
		if slices.Contains(wanted, strings.ToLower(a)) {
			return true
		}
	}
	return false
}

// SortHotels returns a sorted copy. Recommended keeps the backend order.
func SortHotels(hotels []model.Hotel, key SortKey) []model.Hotel {
	out := slices.Clone(hotels)
	switch key {
	case SortPriceLow:
		slices.SortStableFunc(out, func(a, b model.Hotel) int { return cmp.Compare(a.PricePerNight, b.PricePerNight) })
	case SortPriceHigh:
		slices.SortStableFunc(out, func(a, b model.Hotel) int { return cmp.Compare(b.PricePerNight, a.PricePerNight) })
	case SortRating:
		slices.SortStableFunc(out, func(a, b model.Hotel) int { return cmp.Compare(b.Rating, a.Rating) })
	case SortDistance:
		slices.SortStableFunc(out, func(a, b model.Hotel) int { return cmp.Compare(distance(a), distance(b)) })
	}
	return out
}

func distance(h model.Hotel) float64 {
	if h.Distance == nil {
		return 0
	}
	return *h.Distance
}

type Page[T any] struct {
	Items      []T `json:"items"`
	Page       int `json:"page"`
	PageSize   int `json:"pageSize"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

// Paginate slices items into 1-based pages. A page past the end is empty.
func Paginate[T any](items []T, page, size int) Page[T] {
	if size <= 0 {
		size = len(items)
		if size == 0 {
			size = 1
		}
	}
	page = max(page, 1)

	p := Page[T]{
		Page:       page,
		PageSize:   size,
		Total:      len(items),
		TotalPages: (len(items) + size - 1) / size,
		Items:      []T{},
	}

	start := (page - 1) * size
	if start >= len(items) {
		return p
	}
	end := min(start+size, len(items))
	p.Items = slices.Clone(items[start:end])
	return p
}

type HotelLister interface {
	List(ctx context.Context, q model.HotelQuery) ([]model.Hotel, error)
}

type ListingConfig struct {
	Debounce       time.Duration
	PageSize       int
	RequestTimeout time.Duration
}

// ListingFetcher keeps the filtered, sorted hotel list of a session in sync
// with its filter store.
type ListingFetcher struct {
	hotels    HotelLister
	store     *Store
	notifier  notify.Notifier
	log       *logger.Logger
	cfg       ListingConfig
	debouncer *debounce.Debouncer
	unsub     func()
	busy      atomic.Bool

	mu        sync.RWMutex
	results   []model.Hotel
	sort      SortKey
	page      int
	fetchedAt time.Time
}

func NewListingFetcher(hotels HotelLister, store *Store, notifier notify.Notifier, log *logger.Logger, cfg ListingConfig) *ListingFetcher {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 10 * time.Second
	}
	lf := &ListingFetcher{
		hotels:   hotels,
		store:    store,
		notifier: notifier,
		log:      log.Component("listing_fetcher"),
		cfg:      cfg,
		results:  []model.Hotel{},
		sort:     SortRecommended,
		page:     1,
	}
	lf.debouncer = debounce.New(cfg.Debounce, lf.debouncedFetch)
	lf.unsub = store.Subscribe(lf.FiltersChanged)
	return lf
}

// FiltersChanged resets to page 1 and, for fields that drive the listing,
// schedules a debounced fetch.
func (lf *ListingFetcher) FiltersChanged(_ SearchFilters, changed Field) {
	lf.mu.Lock()
	lf.page = 1
	lf.mu.Unlock()

	if changed.Has(DebouncedFields) {
		lf.debouncer.Trigger()
	}
}

// Submit fetches immediately, superseding any pending debounced fetch.
func (lf *ListingFetcher) Submit(ctx context.Context) (Page[model.Hotel], error) {
	lf.debouncer.Cancel()
	if err := lf.fetch(ctx); err != nil {
		return Page[model.Hotel]{}, err
	}
	return lf.Current(), nil
}

func (lf *ListingFetcher) SetSort(ctx context.Context, key SortKey) (Page[model.Hotel], error) {
	lf.mu.Lock()
	lf.sort = key
	lf.page = 1
	lf.mu.Unlock()

	return lf.Submit(ctx)
}

// Page moves to page n of the current result.
func (lf *ListingFetcher) Page(n int) Page[model.Hotel] {
	lf.mu.Lock()
	lf.page = max(n, 1)
	lf.mu.Unlock()
	return lf.Current()
}

func (lf *ListingFetcher) Current() Page[model.Hotel] {
	lf.mu.RLock()
	defer lf.mu.RUnlock()
	return Paginate(lf.results, lf.page, lf.cfg.PageSize)
}

func (lf *ListingFetcher) Sort() SortKey {
	lf.mu.RLock()
	defer lf.mu.RUnlock()
	return lf.sort
}

func (lf *ListingFetcher) Busy() bool {
	return lf.busy.Load()
}

func (lf *ListingFetcher) FetchedAt() time.Time {
	lf.mu.RLock()
	defer lf.mu.RUnlock()
	return lf.fetchedAt
}

func (lf *ListingFetcher) Close() {
	lf.debouncer.Stop()
	lf.unsub()
}

func (lf *ListingFetcher) debouncedFetch() {
	ctx, cancel := context.WithTimeout(context.Background(), lf.cfg.RequestTimeout)
	defer cancel()

	if err := lf.fetch(ctx); err != nil {
		lf.log.Debug("debounced fetch dropped", "error", err)
	}
}

func (lf *ListingFetcher) fetch(ctx context.Context) error {
	if !lf.busy.CompareAndSwap(false, true) {
		lf.log.Debug("fetch skipped, another one is in flight")
		return ErrBusy
	}
	defer lf.busy.Store(false)

	filters := lf.store.Get()
	query := model.HotelQuery{
		Location:  strings.TrimSpace(filters.Location),
		MinRating: float64(filters.Rating),
	}
	if !filters.PriceRange.Unset() {
		minPrice, maxPrice := filters.PriceRange.Min, filters.PriceRange.Max
		query.MinPrice = &minPrice
		query.MaxPrice = &maxPrice
	}

	hotels, err := lf.hotels.List(ctx, query)
	if err != nil {
		lf.log.Error("failed to fetch hotels", "error", err, "location", query.Location)
		lf.notifier.Notify(notify.LevelError, "listing", "Unable to load hotels, please try again")
		hotels = nil
	}

	lf.mu.Lock()
	lf.results = SortHotels(FilterHotels(hotels, filters), lf.sort)
	lf.page = 1
	lf.fetchedAt = time.Now()
	count := len(lf.results)
	lf.mu.Unlock()

	lf.log.Debug("hotels fetched", "count", count)
	return nil
}
