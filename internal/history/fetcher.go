package history

import (
	"context"
	"errors"
	"net/http"
	"slices"
	"sync"
	"time"

	apperrors "staybook/pkg/errors"
	"staybook/pkg/logger"
	"staybook/pkg/model"
	"staybook/pkg/notify"
	"staybook/pkg/signal"
)

// View selects the polling cadence. Both cadences exist in the product.
type View string

const (
	ViewMyBookings    View = "my_bookings"
	ViewBookingStatus View = "booking_status"
)

type Reason string

const (
	ReasonMount      Reason = "mount"
	ReasonPoll       Reason = "poll"
	ReasonFocus      Reason = "focus"
	ReasonVisibility Reason = "visibility"
	ReasonManual     Reason = "manual"
	ReasonSignal     Reason = "signal"
	ReasonCancel     Reason = "cancel"
)

// ParseReason accepts the refresh reasons a client may send.
func ParseReason(s string) (Reason, bool) {
	switch r := Reason(s); r {
	case ReasonFocus, ReasonVisibility, ReasonManual:
		return r, true
	case "":
		return ReasonManual, true
	default:
		return "", false
	}
}

var ErrNotCancellable = errors.New("booking can no longer be cancelled")

type BookingSource interface {
	ListByUser(ctx context.Context, userID string) ([]model.Booking, error)
	Cancel(ctx context.Context, id string) (*model.Booking, error)
}

type Intervals struct {
	MyBookings    time.Duration
	BookingStatus time.Duration
}

func (i Intervals) For(v View) time.Duration {
	if v == ViewBookingStatus {
		return i.BookingStatus
	}
	return i.MyBookings
}

type Config struct {
	UserID    string
	View      View
	Intervals Intervals
	Timeout   time.Duration
	// Publish is touched after every successful cancellation.
	Publish signal.Signal
	// Watch triggers a refresh whenever it is touched. May be nil.
	Watch signal.Signal
}

// Fetcher keeps one user's bookings fresh. Timer ticks, client triggers and
// signal touches all converge on Refresh; the last response wins.
type Fetcher struct {
	source   BookingSource
	notifier notify.Notifier
	log      *logger.Logger
	cfg      Config

	triggers chan Reason
	viewCh   chan View
	now      func() time.Time

	mu          sync.RWMutex
	bookings    []model.Booking
	fetchedAt   time.Time
	view        View
	pollFailing bool

	runMu   sync.Mutex
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	running bool
}

func NewFetcher(source BookingSource, notifier notify.Notifier, log *logger.Logger, cfg Config) *Fetcher {
	if cfg.View == "" {
		cfg.View = ViewMyBookings
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &Fetcher{
		source:   source,
		notifier: notifier,
		log:      log.Component("booking_history").WithAttrs("user_id", cfg.UserID),
		cfg:      cfg,
		triggers: make(chan Reason, 1),
		viewCh:   make(chan View, 1),
		now:      time.Now,
		bookings: []model.Booking{},
		view:     cfg.View,
	}
}

// Refresh fetches the user's bookings now. On failure the previous list is
// kept and a notification is raised.
// shouldNotifyFailure notifies every user-triggered failure, but only the
// first poll failure of a streak, until a fetch succeeds again.
func (f *Fetcher) shouldNotifyFailure(reason Reason) bool {
	if reason != ReasonPoll {
		return true
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.pollFailing {
		return false
	}
	f.pollFailing = true
	return true
}

func (f *Fetcher) Refresh(ctx context.Context, reason Reason) error {
	ctx, cancel := context.WithTimeout(ctx, f.cfg.Timeout)
	defer cancel()

	bookings, err := f.source.ListByUser(ctx, f.cfg.UserID)
	if err != nil {
		f.log.Error("failed to fetch bookings", "reason", reason, "error", err)
		if f.shouldNotifyFailure(reason) {
			f.notifier.Notify(notify.LevelError, "bookings", "Unable to load your bookings")
		}
		return err
	}
	if bookings == nil {
		bookings = []model.Booking{}
	}

	f.mu.Lock()
	f.bookings = bookings
	f.fetchedAt = f.now()
	f.pollFailing = false
	f.mu.Unlock()

	f.log.Debug("bookings refreshed", "reason", reason, "count", len(bookings))
	return nil
}

// Start performs the mount fetch and begins polling. Calling it twice is a
// no-op.
func (f *Fetcher) Start(ctx context.Context) {
	f.runMu.Lock()
	defer f.runMu.Unlock()
	if f.running {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	f.cancel = cancel
	f.running = true

	var touches <-chan time.Time
	if f.cfg.Watch != nil {
		ch, err := f.cfg.Watch.Subscribe(ctx)
		if err != nil {
			f.log.Warn("status signal unavailable, relying on polling", "error", err)
		} else {
			touches = ch
		}
	}

	f.wg.Add(1)
	go f.loop(ctx, touches)
}

func (f *Fetcher) loop(ctx context.Context, touches <-chan time.Time) {
	defer f.wg.Done()

	_ = f.Refresh(ctx, ReasonMount)

	ticker := time.NewTicker(f.cfg.Intervals.For(f.View()))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = f.Refresh(ctx, ReasonPoll)
		case reason := <-f.triggers:
			_ = f.Refresh(ctx, reason)
		case v := <-f.viewCh:
			ticker.Reset(f.cfg.Intervals.For(v))
		case _, ok := <-touches:
			if !ok {
				touches = nil
				continue
			}
			_ = f.Refresh(ctx, ReasonSignal)
		}
	}
}

// Trigger asks the running loop for a refresh. Triggers arriving while one is
// already queued are coalesced.
func (f *Fetcher) Trigger(reason Reason) {
	select {
	case f.triggers <- reason:
	default:
	}
}

func (f *Fetcher) SetView(v View) {
	f.mu.Lock()
	changed := f.view != v
	f.view = v
	f.mu.Unlock()

	if !changed {
		return
	}
	select {
	case f.viewCh <- v:
	default:
		select {
		case <-f.viewCh:
		default:
		}
		select {
		case f.viewCh <- v:
		default:
		}
	}
}

func (f *Fetcher) View() View {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.view
}

// Stop ends polling and waits for an in-flight refresh to return.
func (f *Fetcher) Stop() {
	f.runMu.Lock()
	defer f.runMu.Unlock()
	if !f.running {
		return
	}
	f.cancel()
	f.wg.Wait()
	f.running = false
}

func (f *Fetcher) Bookings() []model.Booking {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return slices.Clone(f.bookings)
}

func (f *Fetcher) FetchedAt() time.Time {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.fetchedAt
}

// List returns the current bookings matching c, annotated for display.
func (f *Fetcher) List(c Criteria, now time.Time) []Entry {
	return FilterBookings(f.Bookings(), c, now)
}

// Cancel cancels one of the user's bookings. Ineligible bookings are refused
// locally. A failed request leaves local state untouched.
func (f *Fetcher) Cancel(ctx context.Context, id string) (*model.Booking, error) {
	var found *model.Booking
	f.mu.RLock()
	for i := range f.bookings {
		if f.bookings[i].ID == id {
			b := f.bookings[i]
			found = &b
			break
		}
	}
	f.mu.RUnlock()

	if found == nil {
		return nil, apperrors.NotFoundWithID("Booking", id)
	}
	if !CanCancel(*found, f.now()) {
		return nil, apperrors.Wrap(ErrNotCancellable, apperrors.CodeConflict, ErrNotCancellable.Error(), http.StatusConflict)
	}

	cancelled, err := f.source.Cancel(ctx, id)
	if err != nil {
		f.log.Error("failed to cancel booking", "booking_id", id, "error", err)
		f.notifier.Notify(notify.LevelError, "bookings", "Unable to cancel booking")
		return nil, err
	}

	f.log.Info("booking cancelled", "booking_id", id)
	f.notifier.Notify(notify.LevelSuccess, "bookings", "Booking cancelled")

	if f.cfg.Publish != nil {
		if _, err := f.cfg.Publish.Touch(ctx); err != nil {
			f.log.Warn("failed to touch status signal", "error", err)
		}
	}
	_ = f.Refresh(ctx, ReasonCancel)

	return cancelled, nil
}
