package payment

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"staybook/pkg/logger"
	"staybook/pkg/sanitizer"

	"github.com/go-playground/validator/v10"
)

var (
	cardNumberRegex = regexp.MustCompile(`^\d{4} ?\d{4} ?\d{4} ?\d{4}$`)
	expiryRegex     = regexp.MustCompile(`^(0[1-9]|1[0-2])/\d{2}$`)
	cvcRegex        = regexp.MustCompile(`^\d{3,4}$`)
)

type PaymentForm struct {
	CardNumber     string `json:"cardNumber" validate:"required,card_number"`
	Expiry         string `json:"expiry" validate:"required,card_expiry"`
	CVC            string `json:"cvc" validate:"required,card_cvc"`
	CardholderName string `json:"cardholderName" validate:"required,min=2,max=80"`
	Email          string `json:"email" validate:"required,email"`
	Phone          string `json:"phone" validate:"required,phone"`
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (v ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", v.Field, v.Message)
}

type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return ""
	}
	var messages []string
	for _, err := range v {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("validation failed: %d error(s): [%s]", len(v), strings.Join(messages, "; "))
}

// Details flattens the errors to field -> message for an error response.
func (v ValidationErrors) Details() map[string]any {
	details := make(map[string]any, len(v))
	for _, err := range v {
		details[err.Field] = err.Message
	}
	return details
}

type FormValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewFormValidator(log *logger.Logger) *FormValidator {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	custom := map[string]validator.Func{
		"card_number": matches(cardNumberRegex),
		"card_expiry": matches(expiryRegex),
		"card_cvc":    matches(cvcRegex),
		"phone":       validatePhone,
	}
	for tag, fn := range custom {
		if err := v.RegisterValidation(tag, fn); err != nil {
			log.Fatal("Failed to register payment validator",
				"tag", tag,
				"error", err,
			)
		}
	}

	return &FormValidator{
		validate: v,
		logger:   log,
	}
}

func matches(re *regexp.Regexp) validator.Func {
	return func(fl validator.FieldLevel) bool {
		return re.MatchString(fl.Field().String())
	}
}

func validatePhone(fl validator.FieldLevel) bool {
	return sanitizer.IsValidPhone(fl.Field().String())
}

func (v *FormValidator) Validate(form *PaymentForm) error {
	if err := v.validate.Struct(form); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return v.translateValidationErrors(validationErrs)
		}
		return err
	}
	return nil
}

func (v *FormValidator) translateValidationErrors(errs validator.ValidationErrors) ValidationErrors {
	var validationErrors ValidationErrors

	for _, err := range errs {
		message := err.Error()

		switch err.Tag() {
		case "required":
			message = fmt.Sprintf("%s is required", err.Field())
		case "min":
			message = fmt.Sprintf("%s must be at least %s characters", err.Field(), err.Param())
		case "max":
			message = fmt.Sprintf("%s must be at most %s characters", err.Field(), err.Param())
		case "email":
			message = fmt.Sprintf("%s must be a valid email address", err.Field())
		case "card_number":
			message = "card number must be 16 digits in groups of 4"
		case "card_expiry":
			message = "expiry must be MM/YY with a month between 01 and 12"
		case "card_cvc":
			message = "cvc must be 3 or 4 digits"
		case "phone":
			message = fmt.Sprintf("%s must be a valid phone number", err.Field())
		}

		validationErrors = append(validationErrors, ValidationError{
			Field:   err.Field(),
			Message: message,
		})
	}

	return validationErrors
}
