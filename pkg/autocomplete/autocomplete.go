// Package autocomplete holds the state of the search bar's city field: the
// dropdown, the prefix-filtered candidates and the geolocation path.
package autocomplete

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/yair/whats-on/pkg/domain"
)

// Cities is the static catalog offered by the dropdown.
var Cities = []string{
	"Sydney",
	"Melbourne",
	"Brisbane",
	"Adelaide",
	"Perth",
	"Hobart",
	"Darwin",
	"Canberra",
}

// DefaultBlurDelay leaves time for a click on a dropdown entry to land
// before the dropdown closes.
const DefaultBlurDelay = 200 * time.Millisecond

// Messages shown when the current location cannot be used.
const (
	MsgUnsupported         = "Geolocation is not supported by your browser."
	MsgPositionUnavailable = "Unable to retrieve your location. Please enter manually."
	MsgLocalityMissing     = "Could not detect city. Please enter manually."
	MsgLookupFailed        = "Failed to fetch location. Please enter manually."
)

type State int

const (
	StateIdle State = iota
	StateOpenEmpty
	StateOpenFiltered
	StateLocating
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateOpenEmpty:
		return "open-empty"
	case StateOpenFiltered:
		return "open-filtered"
	case StateLocating:
		return "locating"
	default:
		return fmt.Sprintf("unknown state: %d", int(s))
	}
}

// Match returns the catalog entries starting with input, ignoring case.
func Match(catalog []string, input string) []string {
	needle := strings.ToLower(input)
	matches := make([]string, 0, len(catalog))
	for _, city := range catalog {
		if strings.HasPrefix(strings.ToLower(city), needle) {
			matches = append(matches, city)
		}
	}
	return matches
}

// Dropdown is what the city field currently renders below the input.
type Dropdown struct {
	Open            bool     `json:"open"`
	CurrentLocation bool     `json:"current_location"`
	Locating        bool     `json:"locating"`
	Cities          []string `json:"cities"`
	NoMoreCities    bool     `json:"no_more_cities"`
}

type Config struct {
	Catalog   []string
	BlurDelay time.Duration
	// Locator is nil when the device cannot report its position.
	Locator  domain.Locator
	Geocoder domain.ReverseGeocoder
	Notifier domain.Notifier
}

type timer interface {
	Stop() bool
}

type CityAutocomplete struct {
	catalog   []string
	blurDelay time.Duration
	locator   domain.Locator
	geocoder  domain.ReverseGeocoder
	notifier  domain.Notifier
	afterFunc func(d time.Duration, f func()) timer

	mu        sync.Mutex
	state     State
	value     string
	matches   []string
	blurTimer timer
	blurGen   uint64
}

func New(config Config) *CityAutocomplete {
	catalog := config.Catalog
	if catalog == nil {
		catalog = Cities
	}
	delay := config.BlurDelay
	if delay <= 0 {
		delay = DefaultBlurDelay
	}

	return &CityAutocomplete{
		catalog:   catalog,
		blurDelay: delay,
		locator:   config.Locator,
		geocoder:  config.Geocoder,
		notifier:  config.Notifier,
		afterFunc: func(d time.Duration, f func()) timer {
			return time.AfterFunc(d, f)
		},
	}
}

func (a *CityAutocomplete) State() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

func (a *CityAutocomplete) Value() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.value
}

func (a *CityAutocomplete) Matches() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.matches...)
}

// Focus opens the dropdown. A pending close from an earlier blur is
// cancelled.
func (a *CityAutocomplete) Focus() {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.cancelBlurLocked()
	if a.state == StateLocating {
		return
	}
	a.openLocked()
}

// Input records a keystroke and recomputes the candidates.
func (a *CityAutocomplete) Input(text string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.value = text
	if text == "" {
		a.matches = nil
	} else {
		a.matches = Match(a.catalog, text)
	}
	if a.state == StateLocating {
		return
	}
	a.openLocked()
}

// Blur closes the dropdown once the grace delay has passed.
func (a *CityAutocomplete) Blur() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.state == StateLocating || a.state == StateIdle {
		return
	}
	a.cancelBlurLocked()
	gen := a.blurGen
	a.blurTimer = a.afterFunc(a.blurDelay, func() {
		a.mu.Lock()
		defer a.mu.Unlock()
		if a.blurGen != gen || a.state == StateLocating {
			return
		}
		a.blurTimer = nil
		a.state = StateIdle
	})
}

// Select sets the city from a dropdown entry and closes the dropdown.
func (a *CityAutocomplete) Select(city string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.cancelBlurLocked()
	a.value = city
	a.matches = nil
	if a.state != StateLocating {
		a.state = StateIdle
	}
}

// Dropdown renders the entries for the current state.
func (a *CityAutocomplete) Dropdown() Dropdown {
	a.mu.Lock()
	defer a.mu.Unlock()

	switch a.state {
	case StateOpenEmpty:
		return Dropdown{
			Open:            true,
			CurrentLocation: true,
			Cities:          append([]string(nil), a.catalog...),
		}
	case StateOpenFiltered:
		if len(a.matches) > 0 {
			return Dropdown{Open: true, Cities: append([]string(nil), a.matches...)}
		}
		return Dropdown{Open: true, CurrentLocation: true, Cities: []string{}, NoMoreCities: true}
	case StateLocating:
		return Dropdown{Open: true, CurrentLocation: true, Locating: true, Cities: []string{}}
	default:
		return Dropdown{Cities: []string{}}
	}
}

// UseCurrentLocation resolves the device position to a city and stores it,
// replacing whatever was typed. Failures are reported to the notifier and
// leave manual entry available.
func (a *CityAutocomplete) UseCurrentLocation(ctx context.Context) error {
	return a.LocateWith(ctx, a.locator)
}

// LocateWith is UseCurrentLocation with a position source supplied by the
// caller, such as coordinates reported by the browser shell.
func (a *CityAutocomplete) LocateWith(ctx context.Context, locator domain.Locator) error {
	a.mu.Lock()
	if a.state == StateLocating {
		a.mu.Unlock()
		return domain.ErrInFlight
	}
	a.cancelBlurLocked()
	if locator == nil || a.geocoder == nil {
		a.state = StateIdle
		a.mu.Unlock()
		a.notify(MsgUnsupported)
		return domain.ErrGeolocationUnsupported
	}
	a.state = StateLocating
	a.mu.Unlock()

	lat, lon, err := locator.CurrentPosition(ctx)
	if err != nil {
		a.finishLocating("")
		a.notify(MsgPositionUnavailable)
		return fmt.Errorf("%w: %v", domain.ErrPositionUnavailable, err)
	}

	city, err := a.geocoder.Locality(ctx, lat, lon)
	if err != nil {
		a.finishLocating("")
		if errors.Is(err, domain.ErrLocalityNotFound) {
			a.notify(MsgLocalityMissing)
		} else {
			log.Printf("Error fetching location: %v", err)
			a.notify(MsgLookupFailed)
		}
		return fmt.Errorf("failed to resolve current location: %w", err)
	}

	a.finishLocating(city)
	return nil
}

func (a *CityAutocomplete) finishLocating(city string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if city != "" {
		a.value = city
		a.matches = nil
	}
	a.state = StateIdle
}

func (a *CityAutocomplete) openLocked() {
	if a.value == "" {
		a.state = StateOpenEmpty
		return
	}
	a.state = StateOpenFiltered
}

func (a *CityAutocomplete) cancelBlurLocked() {
	a.blurGen++
	if a.blurTimer != nil {
		a.blurTimer.Stop()
		a.blurTimer = nil
	}
}

func (a *CityAutocomplete) notify(message string) {
	if a.notifier == nil {
		return
	}
	a.notifier.Notify(domain.Notice{Level: domain.NoticeError, Message: message})
}

// FixedPosition is a Locator for a position reported by the client.
type FixedPosition struct {
	Lat float64
	Lon float64
}

func (p FixedPosition) CurrentPosition(ctx context.Context) (float64, float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, 0, err
	}
	return p.Lat, p.Lon, nil
}
