package rating

import (
	"fmt"
	"io"
	"strings"

	"github.com/palma21/hotel-rating-fetcher/internal/models"
)

// WriteReport renders a result for the terminal in the same order the
// widget shows it: sources, recent reviews, then pros and cons.
func WriteReport(w io.Writer, result models.HotelRatingResult) {
	fmt.Fprintln(w, strings.Repeat("=", 70))
	fmt.Fprintf(w, "🏨 %s\n", result.HotelName)
	fmt.Fprintln(w, strings.Repeat("=", 70))

	if len(result.Sources) == 0 {
		fmt.Fprintln(w, "\nℹ️  No ratings found")
	} else {
		fmt.Fprintln(w, "\n📍 Sources:")
		for _, source := range result.Sources {
			fmt.Fprintf(w, "   • %-20s ⭐ %.1f (%d reviews)\n", source.Source+":", source.Rating, source.TotalReviews)
		}

		for _, source := range result.Sources {
			if len(source.RecentReviews) == 0 {
				continue
			}
			fmt.Fprintf(w, "\n📝 Recent %s reviews:\n", source.Source)
			for i, review := range source.RecentReviews {
				fmt.Fprintf(w, "\n   %d. %s ⭐ %.0f (%s)\n", i+1, review.Author, review.Rating, review.Date)
				fmt.Fprintf(w, "      %s\n", review.Text)
			}
		}
	}

	if len(result.Summary.Pros) > 0 {
		fmt.Fprintln(w, "\n👍 Pros:")
		for _, pro := range result.Summary.Pros {
			fmt.Fprintf(w, "   • %s\n", pro)
		}
	}
	if len(result.Summary.Cons) > 0 {
		fmt.Fprintln(w, "\n👎 Cons:")
		for _, con := range result.Summary.Cons {
			fmt.Fprintf(w, "   • %s\n", con)
		}
	}

	fmt.Fprintln(w)
	if result.GoogleMapsURL != nil {
		fmt.Fprintf(w, "🗺️  Maps: %s\n", *result.GoogleMapsURL)
	}
	fmt.Fprintf(w, "🔗 Reviews: %s\n", result.GoogleReviewsLink)
	fmt.Fprintln(w, strings.Repeat("=", 70))
}
