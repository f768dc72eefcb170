package domain

// Symbolic date tokens accepted by the listing filters.
const (
	DateToday       = "today"
	DateTomorrow    = "tomorrow"
	DateThisWeekend = "this_weekend"
)

// Categories lists the event categories the listing can filter on.
var Categories = []string{
	"Music",
	"Nightlife",
	"Performing & Visual Arts",
	"Holidays",
	"Dating",
	"Hobbies",
	"Business",
	"Food & Drink",
}

// Modes lists the attendance modes an event can have.
var Modes = []string{"Online", "Onsite", "Hybrid"}

// DateTokens lists the symbolic date filters in display order.
var DateTokens = []string{DateToday, DateTomorrow, DateThisWeekend}

// FilterState is the set of active selections driving the event query.
type FilterState struct {
	Category      string `json:"category,omitempty" validate:"omitempty,event_category"`
	Date          string `json:"date,omitempty"`
	Mode          string `json:"mode,omitempty" validate:"omitempty,event_mode"`
	City          string `json:"city,omitempty"`
	SearchKeyword string `json:"search,omitempty"`
}

func (f FilterState) IsZero() bool {
	return f == FilterState{}
}

// WithoutFacets clears category, date and mode but keeps the city and
// keyword, which arrive from the search bar rather than the sidebar.
func (f FilterState) WithoutFacets() FilterState {
	return FilterState{
		City:          f.City,
		SearchKeyword: f.SearchKeyword,
	}
}
