package payment

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	apperrors "staybook/pkg/errors"
	"staybook/pkg/logger"
	"staybook/pkg/notify"
	"staybook/pkg/sanitizer"
)

type State string

const (
	StateIdle       State = "idle"
	StateProcessing State = "processing"
	StateSucceeded  State = "succeeded"
	StateFailed     State = "failed"
)

const (
	DeclinedMessage   = "Carte refusée par la banque"
	SuccessRedirect   = "/my-bookings"
	declineCardMarker = "0000"
)

var (
	ErrAttemptInProgress = errors.New("a payment attempt is already processing")
	ErrAlreadySucceeded  = errors.New("payment already succeeded")
)

type Config struct {
	Delay         time.Duration
	RedirectDelay time.Duration
}

// Result describes the outcome shown to the client after an attempt.
type Result struct {
	State         State         `json:"state"`
	Attempt       int           `json:"attempt"`
	Message       string        `json:"message,omitempty"`
	Cardholder    string        `json:"cardholder,omitempty"`
	Last4         string        `json:"last4,omitempty"`
	RedirectTo    string        `json:"redirectTo,omitempty"`
	RedirectAfter time.Duration `json:"-"`
	RedirectMs    int64         `json:"redirectAfterMs,omitempty"`
	CompletedAt   *time.Time    `json:"completedAt,omitempty"`
}

// Checkout simulates a card payment. No charge is made: after a fixed delay
// the attempt is declined when the card number contains "0000" and accepted
// otherwise.
type Checkout struct {
	validator *FormValidator
	notifier  notify.Notifier
	log       *logger.Logger
	cfg       Config
	sleep     func(ctx context.Context, d time.Duration) error

	mu       sync.Mutex
	state    State
	attempts int
	last     *Result
}

func NewCheckout(validator *FormValidator, notifier notify.Notifier, log *logger.Logger, cfg Config) *Checkout {
	return &Checkout{
		validator: validator,
		notifier:  notifier,
		log:       log.Component("payment"),
		cfg:       cfg,
		sleep:     sleepCtx,
		state:     StateIdle,
	}
}

// Submit runs one attempt. Idle accepts a submission; Processing and
// Succeeded refuse it. A declined card returns a PaymentDeclined error and
// puts the checkout back to Idle, with the failed attempt kept in Last.
func (c *Checkout) Submit(ctx context.Context, form PaymentForm) (*Result, error) {
	if err := c.validator.Validate(&form); err != nil {
		var verrs ValidationErrors
		if errors.As(err, &verrs) {
			return nil, apperrors.Validation("invalid payment details", verrs.Details())
		}
		return nil, apperrors.InvalidInput(err.Error())
	}

	c.mu.Lock()
	switch c.state {
	case StateProcessing:
		c.mu.Unlock()
		return nil, ErrAttemptInProgress
	case StateSucceeded:
		c.mu.Unlock()
		return nil, ErrAlreadySucceeded
	}
	c.state = StateProcessing
	c.attempts++
	attempt := c.attempts
	previous := c.last
	c.last = &Result{State: StateProcessing, Attempt: attempt}
	c.mu.Unlock()

	c.log.Info("payment processing", "attempt", attempt)

	if err := c.sleep(ctx, c.cfg.Delay); err != nil {
		c.mu.Lock()
		c.state = StateIdle
		c.last = previous
		c.mu.Unlock()
		c.log.Warn("payment attempt abandoned", "attempt", attempt, "error", err)
		return nil, apperrors.Timeout("payment attempt abandoned")
	}

	now := time.Now()
	result := &Result{
		Attempt:     attempt,
		Cardholder:  sanitizer.NormalizeCardholder(form.CardholderName),
		Last4:       last4(form.CardNumber),
		CompletedAt: &now,
	}

	if strings.Contains(form.CardNumber, declineCardMarker) {
		result.State = StateFailed
		result.Message = DeclinedMessage
	} else {
		result.State = StateSucceeded
		result.RedirectTo = SuccessRedirect
		result.RedirectAfter = c.cfg.RedirectDelay
		result.RedirectMs = c.cfg.RedirectDelay.Milliseconds()
	}

	c.mu.Lock()
	c.state = result.State
	if result.State == StateFailed {
		c.state = StateIdle
	}
	c.last = result
	c.mu.Unlock()

	if result.State == StateFailed {
		c.log.Info("payment declined", "attempt", attempt, "last4", result.Last4)
		c.notifier.Notify(notify.LevelError, "payment", DeclinedMessage)
		return result, apperrors.PaymentDeclined(DeclinedMessage)
	}

	c.log.Info("payment succeeded", "attempt", attempt, "last4", result.Last4)
	c.notifier.Notify(notify.LevelSuccess, "payment", "Payment accepted")
	return result, nil
}

func (c *Checkout) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Last returns the most recent attempt, or an Idle result before any.
func (c *Checkout) Last() Result {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.last == nil {
		return Result{State: c.state}
	}
	return *c.last
}

// Reset starts a new checkout, for example after a new draft is committed.
func (c *Checkout) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateProcessing {
		return
	}
	c.state = StateIdle
	c.attempts = 0
	c.last = nil
}

func last4(card string) string {
	digits := strings.ReplaceAll(card, " ", "")
	if len(digits) < 4 {
		return digits
	}
	return digits[len(digits)-4:]
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
