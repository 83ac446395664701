package prompt

import (
	"errors"
	"fmt"
	"strings"

	"github.com/palma21/hotel-rating-fetcher/internal/models"
)

// PrimarySource is always requested and can never be excluded
const PrimarySource = "Google Listing"

// ErrEmptyHotelName is returned when Build is called without a hotel name
var ErrEmptyHotelName = errors.New("hotel name is required")

// Builder renders the rating prompt sent to the completion client
type Builder struct {
	secondarySources []string
}

// NewBuilder creates a Builder. Secondary sources are requested in the given
// order in addition to the primary source, unless a request excludes them.
func NewBuilder(secondarySources []string) *Builder {
	var cleaned []string
	for _, source := range secondarySources {
		if source = strings.TrimSpace(source); source != "" && !strings.EqualFold(source, PrimarySource) {
			cleaned = append(cleaned, source)
		}
	}
	return &Builder{secondarySources: cleaned}
}

// Build renders the prompt for a hotel. The output depends only on its inputs.
func (b *Builder) Build(hotelName string, location *models.Location, excludeSources []string) (string, error) {
	if strings.TrimSpace(hotelName) == "" {
		return "", ErrEmptyHotelName
	}

	place := locationText(location)
	locationClause := ""
	if place != "" {
		locationClause = " located in " + place
	}

	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("You are a hotel rating assistant. I need you to find the official Google listing (Google Maps / Business Profile) rating and recent reviews for the hotel: %q%s. ", hotelName, locationClause))
	sb.WriteString("Prefer the Google Maps listing rating (the one shown on Google Maps/Business Profile) over other Google search snippets.\n\n")

	sb.WriteString("Please provide the information in the following JSON format:\n")
	sb.WriteString(responseShape(hotelName))
	sb.WriteString("\n\nInstructions:\n")

	for i, instruction := range b.instructions(hotelName, place, b.includedSecondary(excludeSources)) {
		sb.WriteString(fmt.Sprintf("%d. %s\n", i+1, instruction))
	}

	sb.WriteString("\nImportant: Only return valid JSON, no additional text or explanations.")

	return sb.String(), nil
}

func (b *Builder) instructions(hotelName, place string, secondary []string) []string {
	searchIn := ""
	locationHint := "if provided"
	if place != "" {
		searchIn = " in " + place
		locationHint = place
	}

	steps := []string{
		fmt.Sprintf("Search for the exact hotel name %q%s on Google Maps / Google Business Profile.", hotelName, searchIn),
		fmt.Sprintf("Use the location information (%s) to ensure you find the correct hotel, especially if there are multiple hotels with the same name.", locationHint),
		"Find the official Google Maps listing rating and total number of reviews (prefer this value).",
		"Provide 2-3 most recent reviews from the Google Maps listing (limit to 3).",
	}

	if len(secondary) > 0 {
		steps = append(steps, fmt.Sprintf("Also add one entry to \"sources\" for each of these review sites when the hotel is listed there: %s. Use the same fields and limits; omit a site entirely if the hotel is not listed.", strings.Join(secondary, ", ")))
	}

	return append(steps,
		"If you cannot find the hotel on Google Maps, set rating as 0, totalReviews as 0, and include a message in recentReviews explaining why.",
		"Always provide `googleMapsUrl` (direct Google Maps listing URL) if available, and also include `googleReviewsLink` (a Google search URL for reviews) as a fallback.",
		"Ensure all review text is properly escaped for JSON.",
		"Keep review text concise (max 200 characters per review).",
		"Use realistic dates for recent reviews (within last 6 months).",
		"Create a summary based on Google reviews:\n   - \"pros\": List 3-5 most commonly mentioned positive aspects\n   - \"cons\": List 2-4 most commonly mentioned negative aspects",
		"Base the summary on actual review content, not assumptions.",
		"If no reviews are found, set pros and cons as empty arrays.",
	)
}

// includedSecondary keeps configured order so the prompt does not depend on
// the order of excludeSources.
func (b *Builder) includedSecondary(excludeSources []string) []string {
	excluded := make(map[string]bool, len(excludeSources))
	for _, source := range excludeSources {
		excluded[sourceKey(source)] = true
	}

	var included []string
	for _, source := range b.secondarySources {
		if !excluded[sourceKey(source)] {
			included = append(included, source)
		}
	}
	return included
}

// sourceKey lets "agoda" match "Agoda.com" and "booking.com" match "Booking.com".
func sourceKey(source string) string {
	return strings.TrimSuffix(strings.ToLower(strings.TrimSpace(source)), ".com")
}

func locationText(location *models.Location) string {
	if location == nil {
		return ""
	}
	city := strings.TrimSpace(location.City)
	country := strings.TrimSpace(location.Country)
	if city == "" || country == "" {
		return ""
	}
	return city + ", " + country
}

func responseShape(hotelName string) string {
	return `{
  "hotelName": "exact hotel name as found",
  "googleMapsUrl": "https://www.google.com/maps/place/...",
  "googleReviewsLink": "` + models.ReviewsSearchURL(hotelName) + `",
  "sources": [
    {
      "source": "` + PrimarySource + `",
      "rating": 4.5,
      "totalReviews": 1234,
      "recentReviews": [
        {
          "author": "Reviewer Name",
          "rating": 5,
          "date": "2024-01-15",
          "text": "Review text here..."
        }
      ]
    }
  ],
  "summary": {
    "pros": [
      "Positive aspect 1",
      "Positive aspect 2",
      "Positive aspect 3"
    ],
    "cons": [
      "Negative aspect 1",
      "Negative aspect 2"
    ]
  }
}`
}
