package kafka

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrProducerClosed = errors.New("kafka producer is closed")
	ErrConsumerClosed = errors.New("kafka consumer is closed")
	ErrInvalidMessage = errors.New("invalid message")
	ErrEmptyKey       = errors.New("message key cannot be empty")
	ErrEmptyValue     = errors.New("message value cannot be empty")
)

type ErrorType int

const (
	ErrorTypeUnknown ErrorType = iota
	// network issues, timeouts
	ErrorTypeTransient
	// schema mismatch, invalid data
	ErrorTypePermanent
	ErrorTypeBusiness
)

// KafkaError tags a handler failure with how the consumer should treat it.
type KafkaError struct {
	Type    ErrorType
	Message string
	Err     error
	Details map[string]any
}

func (e *KafkaError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *KafkaError) Unwrap() error {
	return e.Err
}

func (e *KafkaError) IsTransient() bool {
	return e.Type == ErrorTypeTransient
}

func (e *KafkaError) IsPermanent() bool {
	return e.Type == ErrorTypePermanent
}

func newKafkaError(t ErrorType, message string, err error) *KafkaError {
	return &KafkaError{
		Type:    t,
		Message: message,
		Err:     err,
		Details: make(map[string]any),
	}
}

func NewTransientError(message string, err error) *KafkaError {
	return newKafkaError(ErrorTypeTransient, message, err)
}

func NewPermanentError(message string, err error) *KafkaError {
	return newKafkaError(ErrorTypePermanent, message, err)
}

func NewBusinessError(message string, err error) *KafkaError {
	return newKafkaError(ErrorTypeBusiness, message, err)
}

func (e *KafkaError) WithDetail(key string, value any) *KafkaError {
	e.Details[key] = value
	return e
}

var transientPatterns = []string{
	"connection refused",
	"timeout",
	"deadline exceeded",
	"no such host",
	"network is unreachable",
	"broken pipe",
	"connection reset",
	"temporary failure",
}

// ClassifyError reports whether err is worth retrying. Unclassified errors
// are treated as permanent.
func ClassifyError(err error) ErrorType {
	if err == nil {
		return ErrorTypeUnknown
	}

	var kafkaErr *KafkaError
	if errors.As(err, &kafkaErr) {
		return kafkaErr.Type
	}

	msg := strings.ToLower(err.Error())
	for _, pattern := range transientPatterns {
		if strings.Contains(msg, pattern) {
			return ErrorTypeTransient
		}
	}
	return ErrorTypePermanent
}

func ShouldRetry(err error, currentRetries, maxRetries int) bool {
	if err == nil || currentRetries >= maxRetries {
		return false
	}
	return ClassifyError(err) == ErrorTypeTransient
}
