package search

import (
	"slices"
	"sync"

	"staybook/pkg/logger"
)

// Observer is called after every change with the new filters and the set of
// fields that changed. A reset reports every field.
type Observer func(filters SearchFilters, changed Field)

// Store holds the search criteria of one client session.
type Store struct {
	mu        sync.RWMutex
	filters   SearchFilters
	ceilings  Ceilings
	observers map[int]Observer
	nextID    int
	log       *logger.Logger
}

func NewStore(ceilings Ceilings, profile Profile, log *logger.Logger) (*Store, error) {
	ceiling, err := ceilings.For(profile)
	if err != nil {
		return nil, err
	}
	return &Store{
		filters:   Defaults(ceiling),
		ceilings:  ceilings,
		observers: make(map[int]Observer),
		log:       log.Component("search_filters"),
	}, nil
}

func (s *Store) Get() SearchFilters {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.filters.clone()
}

// Update applies a partial change and returns the resulting filters.
func (s *Store) Update(u FilterUpdate) SearchFilters {
	s.mu.Lock()
	var changed Field
	f := &s.filters

	if u.Location != nil && *u.Location != f.Location {
		f.Location = *u.Location
		changed |= FieldLocation
	}
	if u.ClearCheckIn && f.CheckIn != nil {
		f.CheckIn = nil
		changed |= FieldDates
	}
	if u.ClearCheckOut && f.CheckOut != nil {
		f.CheckOut = nil
		changed |= FieldDates
	}
	if u.CheckIn != nil {
		t := *u.CheckIn
		f.CheckIn = &t
		changed |= FieldDates
	}
	if u.CheckOut != nil {
		t := *u.CheckOut
		f.CheckOut = &t
		changed |= FieldDates
	}
	if u.Guests != nil && *u.Guests != f.Guests {
		f.Guests = *u.Guests
		changed |= FieldGuests
	}
	if u.PriceRange != nil && *u.PriceRange != f.PriceRange {
		f.PriceRange = *u.PriceRange
		changed |= FieldPrice
	}
	if u.Amenities != nil && !slices.Equal(*u.Amenities, f.Amenities) {
		f.Amenities = slices.Clone(*u.Amenities)
		if f.Amenities == nil {
			f.Amenities = []string{}
		}
		changed |= FieldAmenities
	}
	if u.Rating != nil && *u.Rating != f.Rating {
		f.Rating = *u.Rating
		changed |= FieldRating
	}

	out := s.filters.clone()
	observers := s.snapshotObservers()
	s.mu.Unlock()

	if changed != 0 {
		s.log.Debug("filters updated", "changed", uint8(changed))
		notifyAll(observers, out, changed)
	}
	return out
}

// Replace swaps the whole filter set, as when a view is opened from a URL.
func (s *Store) Replace(f SearchFilters) SearchFilters {
	s.mu.Lock()
	s.filters = f.clone()
	out := s.filters.clone()
	observers := s.snapshotObservers()
	s.mu.Unlock()

	notifyAll(observers, out, allFields)
	return out
}

// Reset restores the defaults of the given profile.
func (s *Store) Reset(profile Profile) (SearchFilters, error) {
	ceiling, err := s.ceilings.For(profile)
	if err != nil {
		return SearchFilters{}, err
	}

	s.mu.Lock()
	s.filters = Defaults(ceiling)
	out := s.filters.clone()
	observers := s.snapshotObservers()
	s.mu.Unlock()

	s.log.Debug("filters reset", "profile", profile)
	notifyAll(observers, out, allFields)
	return out, nil
}

// Subscribe registers an observer and returns a function removing it.
func (s *Store) Subscribe(fn Observer) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++
	s.observers[id] = fn

	return func() {
		s.mu.Lock()
		delete(s.observers, id)
		s.mu.Unlock()
	}
}

func (s *Store) snapshotObservers() []Observer {
	ids := make([]int, 0, len(s.observers))
	for id := range s.observers {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	out := make([]Observer, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.observers[id])
	}
	return out
}

const allFields = FieldLocation | FieldDates | FieldGuests | FieldPrice | FieldAmenities | FieldRating

func notifyAll(observers []Observer, f SearchFilters, changed Field) {
	for _, fn := range observers {
		fn(f.clone(), changed)
	}
}
