// Package search turns listing filter selections into backend queries.
package search

import (
	"net/url"
	"strings"
	"time"

	"github.com/yair/whats-on/pkg/domain"
)

// Parameter names understood by the events endpoint.
const (
	ParamCity     = "city"
	ParamSearch   = "search"
	ParamCategory = "event_category"
	ParamMode     = "event_mode"
	ParamDate     = "date"
)

// BuildQuery encodes the non-empty filters in the fixed order city, search,
// event_category, event_mode, date. The date token is resolved against now.
func BuildQuery(filters domain.FilterState, now time.Time) string {
	pairs := make([]string, 0, 5)
	add := func(key, value string) {
		if value == "" {
			return
		}
		pairs = append(pairs, key+"="+Escape(value))
	}

	add(ParamCity, filters.City)
	add(ParamSearch, filters.SearchKeyword)
	add(ParamCategory, filters.Category)
	add(ParamMode, filters.Mode)
	if date, ok := ResolveDate(filters.Date, now); ok {
		add(ParamDate, date)
	}

	return strings.Join(pairs, "&")
}

// Escape percent-encodes a query value the way encodeURIComponent does:
// spaces become %20 and the marks ! ' ( ) * are left as they are.
func Escape(value string) string {
	return componentUnescaper.Replace(url.QueryEscape(value))
}

var componentUnescaper = strings.NewReplacer(
	"+", "%20",
	"%21", "!",
	"%27", "'",
	"%28", "(",
	"%29", ")",
	"%2A", "*",
)

// ParseFilters reads listing filters from page query parameters.
func ParseFilters(values url.Values) domain.FilterState {
	return domain.FilterState{
		Category:      values.Get("category"),
		Date:          values.Get("date"),
		Mode:          values.Get("mode"),
		City:          values.Get("city"),
		SearchKeyword: values.Get("search"),
	}
}
