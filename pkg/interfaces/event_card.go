package interfaces

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/itlightning/dateparse"
	"github.com/yair/whats-on/pkg/domain"
	"github.com/yair/whats-on/pkg/integrations"
)

const (
	DefaultEventImage = "/images/default-event.jpg"

	MsgLoginToLike   = "Please login to like this event"
	MsgConfirmDelete = "Are you sure you want to delete this event?"
	MsgNoAccessToken = "No access token found. Please log in."
	MsgEventDeleted  = "Event deleted successfully."
	MsgDeleteFailed  = "Failed to delete event."
)

// Confirmer asks the viewer to approve a destructive action.
type Confirmer interface {
	Confirm(prompt string) bool
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(prompt string) bool

func (f ConfirmFunc) Confirm(prompt string) bool {
	return f(prompt)
}

// Reloader repeats the listing fetch after a change on the backend.
type Reloader interface {
	Reload(ctx context.Context) error
}

// CardView is the rendered state of one event card.
type CardView struct {
	ID        int    `json:"id"`
	Title     string `json:"title"`
	City      string `json:"city"`
	Date      string `json:"date"`
	Category  string `json:"event_category"`
	Mode      string `json:"event_mode"`
	Owner     string `json:"created_by"`
	Price     string `json:"price"`
	Image     string `json:"image"`
	Link      string `json:"link"`
	Likes     int    `json:"likes"`
	Liked     bool   `json:"liked"`
	CanDelete bool   `json:"can_delete"`
	Liking    bool   `json:"liking"`
	Deleting  bool   `json:"deleting"`
}

type EventCardController struct {
	api          domain.EventsAPI
	notifier     domain.Notifier
	reloader     Reloader
	mediaBaseURL string
	clock        func() time.Time

	mu       sync.Mutex
	event    domain.Event
	session  domain.Session
	liking   bool
	deleting bool
}

type EventCardConfig struct {
	API          domain.EventsAPI
	Notifier     domain.Notifier
	Reloader     Reloader
	MediaBaseURL string
	Clock        func() time.Time
}

func NewEventCardController(event domain.Event, session domain.Session, config EventCardConfig) *EventCardController {
	clock := config.Clock
	if clock == nil {
		clock = time.Now
	}
	return &EventCardController{
		api:          config.API,
		notifier:     config.Notifier,
		reloader:     config.Reloader,
		mediaBaseURL: strings.TrimRight(config.MediaBaseURL, "/"),
		clock:        clock,
		event:        event,
		session:      session,
	}
}

func (c *EventCardController) ID() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.event.ID
}

// Likes returns the current count and whether the viewer liked the event.
func (c *EventCardController) Likes() (int, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.event.Likes, c.event.Liked.For(c.session.User)
}

func (c *EventCardController) SetSession(session domain.Session) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.session = session
}

// update adopts a freshly fetched copy of the event.
func (c *EventCardController) update(event domain.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.event = event
}

// CanDelete reports whether the delete control is shown. It compares display
// names only; the backend makes the real ownership decision.
func (c *EventCardController) CanDelete() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.canDeleteLocked()
}

func (c *EventCardController) canDeleteLocked() bool {
	name := c.session.DisplayName()
	return name != "" && name == c.event.CreatedBy
}

// ToggleLike asks the backend to flip the viewer's like and adopts the
// returned count and flag. Prior state is kept on failure.
func (c *EventCardController) ToggleLike(ctx context.Context) error {
	c.mu.Lock()
	if c.liking {
		c.mu.Unlock()
		return domain.ErrInFlight
	}
	if !c.session.HasToken() {
		c.mu.Unlock()
		c.notify(domain.NoticeInfo, MsgLoginToLike)
		return domain.ErrLoginRequired
	}
	c.liking = true
	eventID, token := c.event.ID, c.session.Token
	c.mu.Unlock()

	result, err := c.api.ToggleLike(ctx, eventID, token)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.liking = false

	if err != nil {
		log.Printf("Failed to like event %d: %v", eventID, err)
		return fmt.Errorf("failed to like event: %w", err)
	}

	c.event.Likes = result.Likes
	c.event.Liked = domain.NewLiked(result.Liked)
	return nil
}

// Delete removes the event after the viewer confirms, then reloads the
// listing. Nothing is sent unless the viewer owns the event, confirms and
// holds a token.
func (c *EventCardController) Delete(ctx context.Context, confirmer Confirmer) error {
	c.mu.Lock()
	if c.deleting {
		c.mu.Unlock()
		return domain.ErrInFlight
	}
	if !c.canDeleteLocked() {
		c.mu.Unlock()
		return domain.ErrNotOwner
	}
	c.mu.Unlock()

	if confirmer == nil || !confirmer.Confirm(MsgConfirmDelete) {
		return domain.ErrNotConfirmed
	}

	c.mu.Lock()
	if c.deleting {
		c.mu.Unlock()
		return domain.ErrInFlight
	}
	if !c.session.HasToken() {
		c.mu.Unlock()
		c.notify(domain.NoticeError, MsgNoAccessToken)
		return domain.ErrLoginRequired
	}
	c.deleting = true
	eventID, token := c.event.ID, c.session.Token
	c.mu.Unlock()

	err := c.api.DeleteEvent(ctx, eventID, token)

	c.mu.Lock()
	c.deleting = false
	c.mu.Unlock()

	if err != nil {
		log.Printf("Failed to delete event %d: %v", eventID, err)
		message := integrations.ServerMessage(err)
		if message == "" {
			message = MsgDeleteFailed
		}
		c.notify(domain.NoticeError, message)
		return fmt.Errorf("failed to delete event: %w", err)
	}

	c.notify(domain.NoticeSuccess, MsgEventDeleted)
	if c.reloader != nil {
		if err := c.reloader.Reload(ctx); err != nil {
			log.Printf("Error reloading events after delete: %v", err)
		}
	}
	return nil
}

func (c *EventCardController) View() CardView {
	c.mu.Lock()
	defer c.mu.Unlock()

	return CardView{
		ID:        c.event.ID,
		Title:     c.event.Title,
		City:      c.event.City,
		Date:      displayDate(c.event.Date, c.clock().Location()),
		Category:  c.event.EventCategory,
		Mode:      c.event.EventMode,
		Owner:     c.event.CreatedBy,
		Price:     string(c.event.Price),
		Image:     imageURL(c.event.Image, c.mediaBaseURL),
		Link:      fmt.Sprintf("/event-detail/%d", c.event.ID),
		Likes:     c.event.Likes,
		Liked:     c.event.Liked.For(c.session.User),
		CanDelete: c.canDeleteLocked(),
		Liking:    c.liking,
		Deleting:  c.deleting,
	}
}

func (c *EventCardController) notify(level domain.NoticeLevel, message string) {
	if c.notifier == nil {
		return
	}
	c.notifier.Notify(domain.Notice{Level: level, Message: message})
}

// imageURL resolves backend media paths and falls back to the placeholder.
func imageURL(image, mediaBaseURL string) string {
	if image == "" {
		return DefaultEventImage
	}
	if strings.HasPrefix(image, "/media") {
		return mediaBaseURL + image
	}
	return image
}

// displayDate renders an event timestamp like "June 7th, 2025 7:30 PM" in
// the viewer's timezone. Unparseable values are shown as sent.
func displayDate(value string, loc *time.Location) string {
	if value == "" {
		return ""
	}
	parsed, err := dateparse.ParseIn(value, loc)
	if err != nil {
		return value
	}
	local := parsed.In(loc)
	return fmt.Sprintf("%s %d%s, %s",
		local.Month(), local.Day(), ordinalSuffix(local.Day()), local.Format("2006 3:04 PM"))
}

func ordinalSuffix(day int) string {
	if day >= 11 && day <= 13 {
		return "th"
	}
	switch day % 10 {
	case 1:
		return "st"
	case 2:
		return "nd"
	case 3:
		return "rd"
	default:
		return "th"
	}
}
