package domain

import (
	"context"
)

// EventsAPI is the backend surface the listing and cards talk to.
type EventsAPI interface {
	ListEvents(ctx context.Context, query string, token string) ([]Event, error)
	ToggleLike(ctx context.Context, eventID int, token string) (*LikeResult, error)
	DeleteEvent(ctx context.Context, eventID int, token string) error
}

type SessionRepository interface {
	Load(ctx context.Context) (Session, error)
	Save(ctx context.Context, session Session) error
	Clear(ctx context.Context) error
}

type ReverseGeocoder interface {
	Locality(ctx context.Context, lat, lon float64) (string, error)
}

// Locator reports the device position.
type Locator interface {
	CurrentPosition(ctx context.Context) (lat float64, lon float64, err error)
}
