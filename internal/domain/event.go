package domain

// Category is one of the fixed internal event categories. The empty
// string marks an event whose upstream label could not be mapped; such
// events appear only in "all categories" views.
type Category string

// EventTime is either a concrete start time or an all-day marker.
// The upstream source signals "no specific time" with a 00:00:01
// timestamp; carrying an explicit marker keeps that distinct from a
// genuine midnight event.
type EventTime struct {
	AllDay bool   `json:"all_day,omitempty"`
	Start  string `json:"start,omitempty"` // "HH:MM", empty when AllDay
}

// Timed returns an EventTime with a concrete "HH:MM" start.
func Timed(start string) EventTime {
	return EventTime{Start: start}
}

// AllDay returns the all-day marker.
func AllDay() EventTime {
	return EventTime{AllDay: true}
}

// Event is one occurrence of an event in one city on one calendar date.
// Events are produced fresh on every adapter call and never mutated in
// place; cache entries are whole-value replacements.
type Event struct {
	Title       string    `json:"title"`
	Category    Category  `json:"category,omitempty"`
	Date        string    `json:"date"` // ISO calendar date, "2006-01-02"
	Time        EventTime `json:"time"`
	EndTime     string    `json:"end_time,omitempty"`
	Venue       string    `json:"venue"`
	Address     string    `json:"address,omitempty"`
	Price       string    `json:"price,omitempty"`
	BookingURL  string    `json:"booking_url,omitempty"`
	WebsiteURL  string    `json:"website_url,omitempty"`
	Source      string    `json:"source"`
	City        string    `json:"city"`
	Description string    `json:"description,omitempty"`
	ImageURL    string    `json:"image_url,omitempty"`
	Latitude    float64   `json:"latitude,omitempty"`
	Longitude   float64   `json:"longitude,omitempty"`
}
