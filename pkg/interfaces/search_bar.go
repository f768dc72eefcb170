package interfaces

import (
	"strings"

	"github.com/yair/whats-on/pkg/domain"
	"github.com/yair/whats-on/pkg/search"
)

const MsgEnterEventOrCity = "enter event or city"

// SubmitSearch validates the search bar and returns the listing link it
// leads to. At least one of the two fields must be filled.
func SubmitSearch(keyword, city string) (string, error) {
	keyword = strings.TrimSpace(keyword)
	city = strings.TrimSpace(city)

	if keyword == "" && city == "" {
		return "", domain.ValidationErrors{
			{Field: "eventSearch", Message: MsgEnterEventOrCity},
			{Field: "location", Message: MsgEnterEventOrCity},
		}
	}

	return "/all-events?search=" + search.Escape(keyword) + "&city=" + search.Escape(city), nil
}
