package domain

import (
	"encoding/json"
	"testing"
)

func TestEvent(t *testing.T) {
	t.Run("decodes backend record", func(t *testing.T) {
		payload := `{
			"id": 42,
			"title": "Harbour Jazz Night",
			"city": "Sydney",
			"date": "2025-06-07T19:30:00Z",
			"event_category": "Music",
			"event_mode": "Onsite",
			"price": "25.00",
			"created_by": "Ava",
			"image": "/media/events/jazz.jpg",
			"likes": 3,
			"liked": true
		}`

		var event Event
		if err := json.Unmarshal([]byte(payload), &event); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if event.ID != 42 {
			t.Errorf("expected ID to be 42, got %d", event.ID)
		}
		if event.EventCategory != "Music" {
			t.Errorf("expected category Music, got %s", event.EventCategory)
		}
		if event.Price != "25.00" {
			t.Errorf("expected price 25.00, got %s", event.Price)
		}
		if event.Likes != 3 {
			t.Errorf("expected 3 likes, got %d", event.Likes)
		}
		if !event.Liked.For(nil) {
			t.Error("expected liked flag to be true")
		}
	})

	t.Run("numeric and null price", func(t *testing.T) {
		var numeric Event
		if err := json.Unmarshal([]byte(`{"id": 1, "price": 12.5}`), &numeric); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if numeric.Price != "12.5" {
			t.Errorf("expected price 12.5, got %s", numeric.Price)
		}

		var missing Event
		if err := json.Unmarshal([]byte(`{"id": 1, "price": null}`), &missing); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if missing.Price != "" {
			t.Errorf("expected empty price, got %s", missing.Price)
		}
	})
}

func TestLiked(t *testing.T) {
	viewer := &User{ID: 7, FirstName: "Ava"}

	tests := []struct {
		name    string
		payload string
		viewer  *User
		want    bool
		isList  bool
	}{
		{"boolean true", `true`, nil, true, false},
		{"boolean false", `false`, viewer, false, false},
		{"list containing viewer", `[3, 7, 9]`, viewer, true, true},
		{"list without viewer", `[3, 9]`, viewer, false, true},
		{"list for anonymous viewer", `[7]`, nil, false, true},
		{"null", `null`, viewer, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var liked Liked
			if err := json.Unmarshal([]byte(tt.payload), &liked); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if got := liked.For(tt.viewer); got != tt.want {
				t.Errorf("For() = %v, want %v", got, tt.want)
			}
			if liked.IsList() != tt.isList {
				t.Errorf("IsList() = %v, want %v", liked.IsList(), tt.isList)
			}
		})
	}

	t.Run("rejects unexpected shape", func(t *testing.T) {
		var liked Liked
		if err := json.Unmarshal([]byte(`"yes"`), &liked); err == nil {
			t.Error("expected error for string liked value")
		}
	})

	t.Run("keeps shape when encoding", func(t *testing.T) {
		data, err := json.Marshal(NewLikedBy(1, 2))
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if string(data) != "[1,2]" {
			t.Errorf("expected [1,2], got %s", data)
		}

		data, err = json.Marshal(NewLiked(true))
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if string(data) != "true" {
			t.Errorf("expected true, got %s", data)
		}
	})
}

func TestFilterState(t *testing.T) {
	t.Run("zero value", func(t *testing.T) {
		if !(FilterState{}).IsZero() {
			t.Error("expected empty filter state to be zero")
		}
		if (FilterState{City: "Perth"}).IsZero() {
			t.Error("expected filter state with city to be non-zero")
		}
	})

	t.Run("without facets keeps search bar fields", func(t *testing.T) {
		filters := FilterState{
			Category:      "Music",
			Date:          DateToday,
			Mode:          "Online",
			City:          "Hobart",
			SearchKeyword: "jazz",
		}

		got := filters.WithoutFacets()
		want := FilterState{City: "Hobart", SearchKeyword: "jazz"}
		if got != want {
			t.Errorf("WithoutFacets() = %+v, want %+v", got, want)
		}
	})
}

func TestSession(t *testing.T) {
	if (Session{}).HasToken() {
		t.Error("expected empty session to have no token")
	}
	if name := (Session{}).DisplayName(); name != "" {
		t.Errorf("expected empty display name, got %s", name)
	}

	session := Session{Token: "abc", User: &User{ID: 1, FirstName: "Noah"}}
	if !session.HasToken() {
		t.Error("expected session to have a token")
	}
	if session.DisplayName() != "Noah" {
		t.Errorf("expected display name Noah, got %s", session.DisplayName())
	}
}
