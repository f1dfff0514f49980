package payment

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	apperrors "staybook/pkg/errors"
	"staybook/pkg/logger"
	"staybook/pkg/notify"
)

func validForm() PaymentForm {
	return PaymentForm{
		CardNumber:     "4242 4242 4242 4242",
		Expiry:         "12/28",
		CVC:            "123",
		CardholderName: "Jean Dupont",
		Email:          "jean@example.com",
		Phone:          "06 12 34 56 78",
	}
}

func newCheckout(inbox *notify.Inbox) *Checkout {
	log := logger.Discard()
	return NewCheckout(NewFormValidator(log), inbox, log, Config{Delay: time.Millisecond, RedirectDelay: 2 * time.Second})
}

func TestFormValidator(t *testing.T) {
	v := NewFormValidator(logger.Discard())

	tests := []struct {
		name      string
		mutate    func(f *PaymentForm)
		wantField string
	}{
		{"valid", func(f *PaymentForm) {}, ""},
		{"card without spaces", func(f *PaymentForm) { f.CardNumber = "4242424242424242" }, ""},
		{"card too short", func(f *PaymentForm) { f.CardNumber = "4242 4242 4242" }, "cardNumber"},
		{"card with letters", func(f *PaymentForm) { f.CardNumber = "4242 4242 4242 42AB" }, "cardNumber"},
		{"expiry month 13", func(f *PaymentForm) { f.Expiry = "13/28" }, "expiry"},
		{"expiry month 00", func(f *PaymentForm) { f.Expiry = "00/28" }, "expiry"},
		{"expiry long year", func(f *PaymentForm) { f.Expiry = "12/2028" }, "expiry"},
		{"cvc 4 digits", func(f *PaymentForm) { f.CVC = "1234" }, ""},
		{"cvc 2 digits", func(f *PaymentForm) { f.CVC = "12" }, "cvc"},
		{"missing name", func(f *PaymentForm) { f.CardholderName = "" }, "cardholderName"},
		{"bad email", func(f *PaymentForm) { f.Email = "jean@" }, "email"},
		{"bad phone", func(f *PaymentForm) { f.Phone = "12" }, "phone"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			form := validForm()
			tt.mutate(&form)
			err := v.Validate(&form)

			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("Validate() error = %v", err)
				}
				return
			}

			var verrs ValidationErrors
			if !errors.As(err, &verrs) {
				t.Fatalf("Validate() error = %v, want ValidationErrors", err)
			}
			if verrs[0].Field != tt.wantField {
				t.Errorf("field = %s, want %s", verrs[0].Field, tt.wantField)
			}
		})
	}
}

func TestCheckout_Success(t *testing.T) {
	inbox := notify.NewInbox(5, logger.Discard())
	c := newCheckout(inbox)

	res, err := c.Submit(context.Background(), validForm())
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if res.State != StateSucceeded || res.RedirectTo != "/my-bookings" || res.RedirectMs != 2000 {
		t.Errorf("result = %+v", res)
	}
	if res.Last4 != "4242" || res.Cardholder != "JEAN DUPONT" {
		t.Errorf("result = %+v", res)
	}
	if c.State() != StateSucceeded {
		t.Errorf("State() = %s", c.State())
	}

	if _, err := c.Submit(context.Background(), validForm()); !errors.Is(err, ErrAlreadySucceeded) {
		t.Errorf("second Submit() error = %v, want ErrAlreadySucceeded", err)
	}
}

func TestCheckout_DeclinesCardsContaining0000(t *testing.T) {
	tests := []string{
		"0000 1111 2222 3333",
		"4242 4242 4242 0000",
		"1234 5000 0678 9012",
	}

	for _, card := range tests {
		t.Run(card, func(t *testing.T) {
			inbox := notify.NewInbox(5, logger.Discard())
			c := newCheckout(inbox)
			form := validForm()
			form.CardNumber = card

			res, err := c.Submit(context.Background(), form)
			if !apperrors.HasCode(err, apperrors.CodePaymentDeclined) {
				t.Fatalf("Submit() error = %v, want PaymentDeclined", err)
			}
			if res.State != StateFailed || res.Message != "Carte refusée par la banque" {
				t.Errorf("result = %+v", res)
			}
			notes := inbox.Drain()
			if len(notes) != 1 || notes[0].Message != DeclinedMessage {
				t.Errorf("notifications = %+v", notes)
			}
		})
	}
}

func TestCheckout_FailedAcceptsRetry(t *testing.T) {
	c := newCheckout(notify.NewInbox(5, logger.Discard()))
	form := validForm()
	form.CardNumber = "0000 1111 2222 3333"

	if _, err := c.Submit(context.Background(), form); err == nil {
		t.Fatal("first Submit() should be declined")
	}
	if c.State() != StateIdle {
		t.Fatalf("State() = %s, want idle after a decline", c.State())
	}
	if last := c.Last(); last.State != StateFailed || last.Message != DeclinedMessage {
		t.Fatalf("Last() = %+v, want the declined attempt", last)
	}

	res, err := c.Submit(context.Background(), validForm())
	if err != nil {
		t.Fatalf("retry Submit() error = %v", err)
	}
	if res.Attempt != 2 || res.State != StateSucceeded {
		t.Errorf("retry result = %+v", res)
	}
}

func TestCheckout_InvalidFormLeavesStateIdle(t *testing.T) {
	c := newCheckout(notify.NewInbox(5, logger.Discard()))
	form := validForm()
	form.Expiry = "99/99"

	_, err := c.Submit(context.Background(), form)
	appErr := apperrors.AsAppError(err)
	if appErr.Code != apperrors.CodeValidation || appErr.Details["expiry"] == nil {
		t.Errorf("Submit() error = %+v", appErr)
	}
	if c.State() != StateIdle || c.Last().Attempt != 0 {
		t.Errorf("invalid form started an attempt")
	}
}

func TestCheckout_ConcurrentSubmitRefused(t *testing.T) {
	release := make(chan struct{})
	entered := make(chan struct{})
	c := newCheckout(notify.NewInbox(5, logger.Discard()))
	c.sleep = func(ctx context.Context, _ time.Duration) error {
		close(entered)
		<-release
		return nil
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if _, err := c.Submit(context.Background(), validForm()); err != nil {
			t.Errorf("first Submit() error = %v", err)
		}
	}()

	<-entered
	if c.State() != StateProcessing {
		t.Errorf("State() = %s, want processing", c.State())
	}
	if _, err := c.Submit(context.Background(), validForm()); !errors.Is(err, ErrAttemptInProgress) {
		t.Errorf("concurrent Submit() error = %v, want ErrAttemptInProgress", err)
	}
	close(release)
	wg.Wait()
}

func TestCheckout_CancelledContextReturnsToIdle(t *testing.T) {
	log := logger.Discard()
	c := NewCheckout(NewFormValidator(log), notify.NewInbox(5, log), log, Config{Delay: time.Hour})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := c.Submit(ctx, validForm()); !apperrors.HasCode(err, apperrors.CodeTimeout) {
		t.Errorf("Submit() error = %v", err)
	}
	if c.State() != StateIdle {
		t.Errorf("State() = %s, want idle", c.State())
	}
}
