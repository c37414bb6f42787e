package errx

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/redis/go-redis/v9"
)

const (
	// SystemErrorMessage is a user-facing fallback when internal errors occur.
	SystemErrorMessage = "internal error"
	// RedisErrorMessage describes Redis related failures.
	RedisErrorMessage = "redis operation failed"
	// RedisNotFoundMessage describes a missing Redis key.
	RedisNotFoundMessage = "redis key not found"
	// RoutingErrorMessage describes a failed call to the routing service.
	RoutingErrorMessage = "routing service unavailable"
	// EngineErrorMessage describes an unusable local optimizer engine.
	EngineErrorMessage = "optimizer engine unavailable"
	// WeatherErrorMessage describes a failed weather lookup.
	WeatherErrorMessage = "weather lookup failed"
	// GenerationErrorMessage describes a failed upstream generation call.
	GenerationErrorMessage = "generation failed"
)

// AppError wraps an underlying error with an HTTP status and safe message.
type AppError struct {
	Err     error
	Status  int
	Message string
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

// Unwrap exposes the underlying error for errors.Is / errors.As support.
func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError with the provided information.
func New(err error, status int, message string) *AppError {
	return &AppError{
		Err:     err,
		Status:  status,
		Message: message,
	}
}

// WrapRedis maps Redis errors to AppError with appropriate status codes.
func WrapRedis(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, redis.Nil) {
		return New(err, http.StatusNotFound, RedisNotFoundMessage)
	}
	return New(err, http.StatusBadGateway, RedisErrorMessage)
}

// WrapRouting wraps a routing transport or protocol error.
func WrapRouting(err error) error {
	if err == nil {
		return nil
	}
	return New(err, http.StatusBadGateway, RoutingErrorMessage)
}

// WrapEngine wraps an optimizer engine error.
func WrapEngine(err error) error {
	if err == nil {
		return nil
	}
	return New(err, http.StatusServiceUnavailable, EngineErrorMessage)
}

// WrapWeather wraps a weather provider error.
func WrapWeather(err error) error {
	if err == nil {
		return nil
	}
	return New(err, http.StatusBadGateway, WeatherErrorMessage)
}

// WrapGeneration wraps a failed upstream generation.
func WrapGeneration(err error) error {
	if err == nil {
		return nil
	}
	return New(err, http.StatusBadGateway, GenerationErrorMessage)
}

// StatusOf returns the HTTP status carried by err, or 500 when err is not an AppError.
func StatusOf(err error) int {
	var ae *AppError
	if errors.As(err, &ae) && ae.Status != 0 {
		return ae.Status
	}
	return http.StatusInternalServerError
}

// Is reports whether the target matches the underlying error or the AppError itself.
func (e *AppError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// As allows casting to AppError or the wrapped error in a chain.
func (e *AppError) As(target any) bool {
	if t, ok := target.(**AppError); ok {
		*t = e
		return true
	}
	return errors.As(e.Err, target)
}
