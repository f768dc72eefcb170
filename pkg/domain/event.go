package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
)

// Event is the read-only projection of a backend event record.
type Event struct {
	ID            int    `json:"id"`
	Title         string `json:"title"`
	City          string `json:"city"`
	Date          string `json:"date"`
	EventCategory string `json:"event_category"`
	EventMode     string `json:"event_mode"`
	Price         Price  `json:"price"`
	CreatedBy     string `json:"created_by"`
	Image         string `json:"image"`
	Likes         int    `json:"likes"`
	Liked         Liked  `json:"liked"`
}

// Price is kept as text. The backend serialises decimals as strings but
// older records carry plain numbers.
type Price string

func (p *Price) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if bytes.Equal(trimmed, []byte("null")) {
		*p = ""
		return nil
	}
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return fmt.Errorf("failed to decode price: %w", err)
		}
		*p = Price(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(trimmed, &n); err != nil {
		return fmt.Errorf("failed to decode price: %w", err)
	}
	*p = Price(n.String())
	return nil
}

// Liked holds the liked field as sent by the backend: either a flag for the
// requesting user or the ids of every user who liked the event. Which shape
// arrives depends on the endpoint, so both are accepted.
type Liked struct {
	flag    bool
	likedBy []int
	isList  bool
}

func NewLiked(flag bool) Liked {
	return Liked{flag: flag}
}

func NewLikedBy(ids ...int) Liked {
	return Liked{likedBy: ids, isList: true}
}

func (l Liked) IsList() bool {
	return l.isList
}

// For reports whether the given viewer liked the event. An id list only
// counts for a known viewer.
func (l Liked) For(viewer *User) bool {
	if !l.isList {
		return l.flag
	}
	if viewer == nil {
		return false
	}
	return slices.Contains(l.likedBy, viewer.ID)
}

func (l *Liked) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	switch {
	case bytes.Equal(trimmed, []byte("null")):
		*l = Liked{}
	case len(trimmed) > 0 && trimmed[0] == '[':
		var ids []int
		if err := json.Unmarshal(trimmed, &ids); err != nil {
			return fmt.Errorf("failed to decode liked ids: %w", err)
		}
		*l = NewLikedBy(ids...)
	default:
		var flag bool
		if err := json.Unmarshal(trimmed, &flag); err != nil {
			return fmt.Errorf("failed to decode liked flag: %w", err)
		}
		*l = NewLiked(flag)
	}
	return nil
}

func (l Liked) MarshalJSON() ([]byte, error) {
	if l.isList {
		ids := l.likedBy
		if ids == nil {
			ids = []int{}
		}
		return json.Marshal(ids)
	}
	return json.Marshal(l.flag)
}

// LikeResult is the server's answer to a like toggle.
type LikeResult struct {
	Likes int  `json:"likes"`
	Liked bool `json:"liked"`
}
