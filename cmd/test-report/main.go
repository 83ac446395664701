package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/palma21/hotel-rating-fetcher/internal/normalize"
	"github.com/palma21/hotel-rating-fetcher/internal/rating"
	"github.com/palma21/hotel-rating-fetcher/internal/storage"
)

// sampleResponse is the kind of text Gemini sends back: the JSON is wrapped
// in prose and a code fence, one rating is out of range, one source has no
// rating and there are more reviews and pros than the widget shows.
const sampleResponse = "Here is the rating data you asked for:\n```json\n" + `{
  "hotelName": "Hotel Arts Barcelona",
  "googleMapsUrl": "https://maps.google.com/?cid=1234567890",
  "sources": [
    {
      "source": "Google Listing",
      "rating": 4.6,
      "totalReviews": 5210,
      "recentReviews": [
        {"author": "Marta G.", "rating": 5, "date": "2026-09-28", "text": "Stunning sea views and a great pool area. Staff went above and beyond for our anniversary."},
        {"author": "", "rating": 4, "date": "last week", "text": "Lovely rooms, breakfast is expensive."},
        {"author": "Tom", "rating": 9, "date": "2026-09-12", "text": "Best hotel on the beach."},
        {"author": "Ines", "rating": 3, "date": "2026-09-01", "text": "Noisy at night on weekends."}
      ]
    },
    {"source": "Booking.com", "rating": 8.9, "totalReviews": 1834.6, "recentReviews": []},
    {"source": "Expedia", "rating": 0, "totalReviews": 0, "recentReviews": []}
  ],
  "summary": {
    "pros": ["Beachfront location", "Sea views", "Pool", "Spa", "Friendly staff", "Michelin dining"],
    "cons": ["Pricey breakfast", "Weekend noise"]
  }
}` + "\n```\nLet me know if you need anything else."

func main() {
	input := flag.String("input", "", "file with a raw model response, defaults to a built-in sample")
	hotel := flag.String("hotel", "Hotel Arts Barcelona", "hotel name the lookup was made for")
	flag.Parse()

	fmt.Println("🏨 Hotel Rating Fetcher - Test Report Generator")
	fmt.Println("===============================================")

	raw := sampleResponse
	if *input != "" {
		data, err := os.ReadFile(*input)
		if err != nil {
			fmt.Printf("❌ Error reading %s: %v\n", *input, err)
			os.Exit(1)
		}
		raw = string(data)
		fmt.Printf("\n📄 Normalizing response from %s (%d bytes)...\n\n", *input, len(data))
	} else {
		fmt.Printf("\n📄 Normalizing built-in sample response (%d bytes)...\n\n", len(raw))
	}

	result, err := normalize.New().Parse(*hotel, raw)
	if err != nil {
		fmt.Printf("⚠️  %v, showing the empty result the widget would get\n\n", err)
		result = normalize.Fallback(*hotel)
	}

	rating.WriteReport(os.Stdout, result)

	store, err := storage.NewFileStorage("test_output")
	if err != nil {
		fmt.Printf("\n⚠️  Warning: Could not create test_output: %v\n", err)
		os.Exit(1)
	}

	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		fmt.Printf("\n⚠️  Warning: Could not encode result: %v\n", err)
		os.Exit(1)
	}

	filename := fmt.Sprintf("hotel_rating_report_%s.json", time.Now().Format("2006-01-02_15-04-05"))
	if err := store.Store(filename, data); err != nil {
		fmt.Printf("\n⚠️  Warning: Could not save to file: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("\n💾 Report saved to: test_output/%s\n", filename)

	fmt.Println("\n✅ Test report generation completed!")
	fmt.Println("\n💡 Next steps:")
	fmt.Println("   • Check the 'test_output' directory for the saved JSON result")
	fmt.Println("   • Run 'go test ./internal/normalize -v' for the normalization rules")
	fmt.Println("   • Try a live lookup with 'go run ./cmd/test-integration'")
}
