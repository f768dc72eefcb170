package interfaces

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/yair/whats-on/pkg/domain"
	"github.com/yair/whats-on/pkg/search"
)

const (
	MsgNoEvents     = "No events found."
	defaultLocation = "Australia"
)

// ListView is the rendered state of the listing page.
type ListView struct {
	Title   string             `json:"title"`
	Filters domain.FilterState `json:"filters"`
	Events  []CardView         `json:"events"`
	Empty   string             `json:"empty,omitempty"`
}

type EventListConfig struct {
	API      domain.EventsAPI
	Session  domain.Session
	Notifier domain.Notifier
	// Clock returns the current instant in the viewer's timezone.
	Clock        func() time.Time
	MediaBaseURL string
}

// EventListController holds the events and the filters they matched.
// Every refresh is numbered; a response is only applied when no later
// refresh has been applied before it. The rendered filters change only
// together with the events.
type EventListController struct {
	api          domain.EventsAPI
	notifier     domain.Notifier
	clock        func() time.Time
	mediaBaseURL string

	mu        sync.Mutex
	session   domain.Session
	requested domain.FilterState
	filters   domain.FilterState
	events    []domain.Event
	cards     map[int]*EventCardController
	issued    uint64
	applied   uint64
}

func NewEventListController(config EventListConfig) (*EventListController, error) {
	if config.API == nil {
		return nil, fmt.Errorf("events API is required")
	}
	clock := config.Clock
	if clock == nil {
		clock = time.Now
	}

	return &EventListController{
		api:          config.API,
		notifier:     config.Notifier,
		clock:        clock,
		mediaBaseURL: config.MediaBaseURL,
		session:      config.Session,
		events:       []domain.Event{},
		cards:        make(map[int]*EventCardController),
	}, nil
}

// Refresh fetches the events matching filters and replaces the held list.
// On failure the list and its filters are left as they were. A response
// overtaken by a newer one is dropped with domain.ErrStaleResponse.
func (c *EventListController) Refresh(ctx context.Context, filters domain.FilterState) error {
	if err := search.ValidateFilters(filters); err != nil {
		return err
	}

	c.mu.Lock()
	c.issued++
	seq := c.issued
	c.requested = filters
	token := c.session.Token
	now := c.clock()
	c.mu.Unlock()

	query := search.BuildQuery(filters, now)
	events, err := c.api.ListEvents(ctx, query, token)
	if err != nil {
		log.Printf("Error fetching events: %v", err)
		return fmt.Errorf("failed to fetch events: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if seq <= c.applied {
		return domain.ErrStaleResponse
	}
	c.applied = seq
	c.filters = filters
	c.events = events
	c.syncCardsLocked()
	return nil
}

// Reload repeats the most recently requested fetch.
func (c *EventListController) Reload(ctx context.Context) error {
	return c.Refresh(ctx, c.Requested())
}

// ResetFilters clears category, date and mode and refetches. City and
// keyword stay, as they belong to the search that led to the listing.
func (c *EventListController) ResetFilters(ctx context.Context) error {
	return c.Refresh(ctx, c.Requested().WithoutFacets())
}

// Requested returns the filters of the latest refresh, applied or not.
func (c *EventListController) Requested() domain.FilterState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.requested
}

// Filters returns the filters the held events were fetched with.
func (c *EventListController) Filters() domain.FilterState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.filters
}

func (c *EventListController) Events() []domain.Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]domain.Event(nil), c.events...)
}

func (c *EventListController) Session() domain.Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session
}

// SetSession switches the viewer. Cards pick up the new session at once;
// the list itself is refetched on the next refresh.
func (c *EventListController) SetSession(session domain.Session) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.session = session
	for _, card := range c.cards {
		card.SetSession(session)
	}
}

// Card returns the controller of a listed event.
func (c *EventListController) Card(id int) (*EventCardController, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	card, ok := c.cards[id]
	if !ok {
		return nil, domain.ErrEventNotFound
	}
	return card, nil
}

// Cards returns the card controllers in listing order.
func (c *EventListController) Cards() []*EventCardController {
	c.mu.Lock()
	defer c.mu.Unlock()

	cards := make([]*EventCardController, 0, len(c.events))
	for _, event := range c.events {
		cards = append(cards, c.cards[event.ID])
	}
	return cards
}

func (c *EventListController) Title() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.titleLocked()
}

func (c *EventListController) titleLocked() string {
	if c.filters.City != "" {
		return "Events in " + c.filters.City
	}
	return "Events in " + defaultLocation
}

func (c *EventListController) View() ListView {
	c.mu.Lock()
	view := ListView{
		Title:   c.titleLocked(),
		Filters: c.filters,
	}
	cards := make([]*EventCardController, 0, len(c.events))
	for _, event := range c.events {
		cards = append(cards, c.cards[event.ID])
	}
	c.mu.Unlock()

	view.Events = make([]CardView, 0, len(cards))
	for _, card := range cards {
		view.Events = append(view.Events, card.View())
	}
	if len(view.Events) == 0 {
		view.Empty = MsgNoEvents
	}
	return view
}

// syncCardsLocked keeps one card per listed event. Existing cards are
// updated in place so their in-flight guards carry over.
func (c *EventListController) syncCardsLocked() {
	listed := make(map[int]bool, len(c.events))
	for _, event := range c.events {
		listed[event.ID] = true
		if card, ok := c.cards[event.ID]; ok {
			card.update(event)
			continue
		}
		c.cards[event.ID] = NewEventCardController(event, c.session, EventCardConfig{
			API:          c.api,
			Notifier:     c.notifier,
			Reloader:     c,
			MediaBaseURL: c.mediaBaseURL,
			Clock:        c.clock,
		})
	}
	for id := range c.cards {
		if !listed[id] {
			delete(c.cards, id)
		}
	}
}
