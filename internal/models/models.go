package models

import "time"

// Review is one textual review attributed to a source
type Review struct {
	Author string  `json:"author"`
	Rating float64 `json:"rating"` // 1..5
	Date   string  `json:"date"`   // YYYY-MM-DD
	Text   string  `json:"text"`   // at most 200 characters
}

// RatingSource is one review aggregator's data for a hotel
type RatingSource struct {
	Source        string   `json:"source"`
	Rating        float64  `json:"rating"` // 0..5
	TotalReviews  int      `json:"totalReviews"`
	RecentReviews []Review `json:"recentReviews"` // at most 3
}

// Summary is the aggregate qualitative judgment across all sources
type Summary struct {
	Pros []string `json:"pros"` // at most 5
	Cons []string `json:"cons"` // at most 4
}

// HotelRatingResult is what the rating pipeline hands to the widget renderer
type HotelRatingResult struct {
	HotelName         string         `json:"hotelName"`
	GoogleMapsURL     *string        `json:"googleMapsUrl"`
	GoogleReviewsLink string         `json:"googleReviewsLink"`
	Sources           []RatingSource `json:"sources"`
	Summary           Summary        `json:"summary"`
}

// Location narrows a hotel lookup to a city
type Location struct {
	City    string `json:"city"`
	Country string `json:"country"`
}

// RequestSpec is the input to a single rating lookup
type RequestSpec struct {
	HotelName      string    `json:"hotelName"`
	Location       *Location `json:"location"`
	ExcludeSources []string  `json:"excludeSources"`
}

// Settings mirrors what the extension popup stores
type Settings struct {
	APIKey string `json:"apiKey"`
	Mode   string `json:"mode"` // "off" or "on"
}

// Alert represents an operational notification
type Alert struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"` // "critical", "urgent", "info"
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}
