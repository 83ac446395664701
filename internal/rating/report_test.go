package rating

import (
	"bytes"
	"testing"

	"github.com/palma21/hotel-rating-fetcher/internal/models"
	"github.com/palma21/hotel-rating-fetcher/internal/normalize"
	"github.com/stretchr/testify/assert"
)

func TestWriteReport(t *testing.T) {
	mapsURL := "https://maps.google.com/?cid=42"
	result := models.HotelRatingResult{
		HotelName:         "Hotel Arts Barcelona",
		GoogleMapsURL:     &mapsURL,
		GoogleReviewsLink: models.ReviewsSearchURL("Hotel Arts Barcelona"),
		Sources: []models.RatingSource{
			{
				Source:       "Google",
				Rating:       4.6,
				TotalReviews: 5210,
				RecentReviews: []models.Review{
					{Author: "Marta", Rating: 5, Date: "2026-10-01", Text: "Wonderful sea views."},
				},
			},
			{Source: "Booking.com", Rating: 4.4, TotalReviews: 1800, RecentReviews: []models.Review{}},
		},
		Summary: models.Summary{Pros: []string{"Beachfront"}, Cons: []string{"Pricey breakfast"}},
	}

	var buf bytes.Buffer
	WriteReport(&buf, result)
	out := buf.String()

	assert.Contains(t, out, "🏨 Hotel Arts Barcelona")
	assert.Contains(t, out, "Google:")
	assert.Contains(t, out, "⭐ 4.6 (5210 reviews)")
	assert.Contains(t, out, "📝 Recent Google reviews:")
	assert.NotContains(t, out, "Recent Booking.com reviews")
	assert.Contains(t, out, "1. Marta ⭐ 5 (2026-10-01)")
	assert.Contains(t, out, "   • Beachfront")
	assert.Contains(t, out, "   • Pricey breakfast")
	assert.Contains(t, out, "🗺️  Maps: https://maps.google.com/?cid=42")
	assert.Contains(t, out, "🔗 Reviews: https://www.google.com/search?q=Hotel%20Arts%20Barcelona+hotels+reviews")
}

func TestWriteReport_Fallback(t *testing.T) {
	var buf bytes.Buffer
	WriteReport(&buf, normalize.Fallback("Unknown Inn"))
	out := buf.String()

	assert.Contains(t, out, "ℹ️  No ratings found")
	assert.NotContains(t, out, "Pros:")
	assert.NotContains(t, out, "Maps:")
}
