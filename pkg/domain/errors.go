package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidRequest         = errors.New("invalid request")
	ErrExternalAPIFailure     = errors.New("external API failure")
	ErrEventNotFound          = errors.New("event not found")
	ErrInvalidLocation        = errors.New("invalid location")
	ErrLoginRequired          = errors.New("login required")
	ErrNotConfirmed           = errors.New("action not confirmed")
	ErrNotOwner               = errors.New("viewer does not own this event")
	ErrInFlight               = errors.New("request already in flight")
	ErrStaleResponse          = errors.New("response superseded by a newer request")
	ErrGeolocationUnsupported = errors.New("geolocation not supported")
	ErrPositionUnavailable    = errors.New("position unavailable")
	ErrLocalityNotFound       = errors.New("locality not found")
)

type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("validation error on field %s: %s", e.Field, e.Message)
}

// ValidationErrors groups the errors of a form with several fields.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	parts := make([]string, 0, len(e))
	for _, ve := range e {
		parts = append(parts, ve.Error())
	}
	return strings.Join(parts, "; ")
}
