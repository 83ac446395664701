package normalize

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/palma21/hotel-rating-fetcher/internal/models"
	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
)

// Field limits applied to every normalized result
const (
	MaxReviewsPerSource = 3
	MaxReviewTextLength = 200
	MaxPros             = 5
	MaxCons             = 4
	MaxRating           = 5.0
	MinReviewRating     = 1.0
	DefaultAuthor       = "Anonymous"
	DefaultSourceName   = "Unknown"
	LegacySourceName    = "Google"
	dateLayout          = "2006-01-02"
)

// MalformedResponseError describes why model output could not be used.
// Normalize never returns it; it only reaches the logs.
type MalformedResponseError struct {
	Reason string
}

func (e *MalformedResponseError) Error() string {
	return "malformed model response: " + e.Reason
}

// Normalizer turns free-form model output into a HotelRatingResult
type Normalizer struct {
	now func() time.Time
}

// New creates a Normalizer that dates undated reviews with the current day
func New() *Normalizer {
	return &Normalizer{now: time.Now}
}

// NewWithClock creates a Normalizer with a fixed notion of "today"
func NewWithClock(now func() time.Time) *Normalizer {
	return &Normalizer{now: now}
}

// Normalize always returns a well-formed result. Output it cannot use
// becomes the empty fallback result for originalHotelName.
func (n *Normalizer) Normalize(originalHotelName, rawText string) models.HotelRatingResult {
	result, err := n.Parse(originalHotelName, rawText)
	if err != nil {
		logrus.Debugf("Falling back to empty rating for %q: %v", originalHotelName, err)
		return Fallback(originalHotelName)
	}
	return result
}

// Parse is Normalize without the fallback
func (n *Normalizer) Parse(originalHotelName, rawText string) (models.HotelRatingResult, error) {
	start := strings.Index(rawText, "{")
	end := strings.LastIndex(rawText, "}")
	if start < 0 || end < start {
		return models.HotelRatingResult{}, &MalformedResponseError{Reason: "no JSON object found"}
	}

	payload := rawText[start : end+1]
	if !gjson.Valid(payload) {
		return models.HotelRatingResult{}, &MalformedResponseError{Reason: "embedded JSON does not decode"}
	}

	data := gjson.Parse(payload)
	hotelName := data.Get("hotelName")
	if !truthy(hotelName) {
		return models.HotelRatingResult{}, &MalformedResponseError{Reason: "hotelName missing"}
	}

	today := n.now().UTC().Format(dateLayout)

	var sources []models.RatingSource
	if raw := data.Get("sources"); raw.IsArray() {
		for _, item := range raw.Array() {
			sources = append(sources, normalizeSource(stringOr(item.Get("source"), DefaultSourceName), item, today))
		}
	} else {
		// older single-source shape keeps the fields at the top level
		sources = append(sources, normalizeSource(LegacySourceName, data, today))
	}

	result := models.HotelRatingResult{
		HotelName:         hotelName.String(),
		GoogleReviewsLink: stringOr(data.Get("googleReviewsLink"), models.ReviewsSearchURL(originalHotelName)),
		Sources:           keepRated(sources),
		Summary:           normalizeSummary(data.Get("summary")),
	}

	if mapsURL := data.Get("googleMapsUrl"); truthy(mapsURL) {
		url := mapsURL.String()
		result.GoogleMapsURL = &url
	}

	return result, nil
}

// Fallback is the "no data found" result
func Fallback(originalHotelName string) models.HotelRatingResult {
	return models.HotelRatingResult{
		HotelName:         originalHotelName,
		GoogleMapsURL:     nil,
		GoogleReviewsLink: models.ReviewsSearchURL(originalHotelName),
		Sources:           []models.RatingSource{},
		Summary:           models.Summary{Pros: []string{}, Cons: []string{}},
	}
}

func normalizeSource(name string, item gjson.Result, today string) models.RatingSource {
	source := models.RatingSource{
		Source:        name,
		Rating:        clamp(numberOr(item.Get("rating"), 0), 0, MaxRating),
		TotalReviews:  int(math.Round(math.Max(0, numberOr(item.Get("totalReviews"), 0)))),
		RecentReviews: []models.Review{},
	}

	reviews := item.Get("recentReviews")
	if !reviews.IsArray() {
		return source
	}

	for i, review := range reviews.Array() {
		if i >= MaxReviewsPerSource {
			break
		}
		source.RecentReviews = append(source.RecentReviews, normalizeReview(review, today))
	}

	return source
}

func normalizeReview(review gjson.Result, today string) models.Review {
	date := today
	if raw := review.Get("date"); raw.Type == gjson.String {
		if _, err := time.Parse(dateLayout, raw.Str); err == nil {
			date = raw.Str
		}
	}

	return models.Review{
		Author: stringOr(review.Get("author"), DefaultAuthor),
		Rating: clamp(numberOr(review.Get("rating"), MinReviewRating), MinReviewRating, MaxRating),
		Date:   date,
		Text:   truncate(stringOr(review.Get("text"), ""), MaxReviewTextLength),
	}
}

func normalizeSummary(summary gjson.Result) models.Summary {
	return models.Summary{
		Pros: stringList(summary.Get("pros"), MaxPros),
		Cons: stringList(summary.Get("cons"), MaxCons),
	}
}

// keepRated drops sources without a positive rating; a zero rating means the
// hotel was not found on that source.
func keepRated(sources []models.RatingSource) []models.RatingSource {
	rated := make([]models.RatingSource, 0, len(sources))
	for _, source := range sources {
		if source.Rating > 0 {
			rated = append(rated, source)
		}
	}
	return rated
}

func stringList(value gjson.Result, limit int) []string {
	items := []string{}
	if !value.IsArray() {
		return items
	}
	for i, item := range value.Array() {
		if i >= limit {
			break
		}
		items = append(items, item.String())
	}
	return items
}

// truthy follows JSON-as-JavaScript truthiness: "", 0, false, null and
// missing values are false.
func truthy(value gjson.Result) bool {
	switch value.Type {
	case gjson.Null, gjson.False:
		return false
	case gjson.Number:
		return value.Num != 0 && !math.IsNaN(value.Num)
	case gjson.String:
		return value.Str != ""
	default:
		return value.Exists()
	}
}

func stringOr(value gjson.Result, fallback string) string {
	if !truthy(value) {
		return fallback
	}
	return value.String()
}

// numberOr accepts numbers and numeric strings; anything else, and zero,
// yields fallback.
func numberOr(value gjson.Result, fallback float64) float64 {
	var number float64
	switch value.Type {
	case gjson.Number:
		number = value.Num
	case gjson.String:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(value.Str), 64)
		if err != nil {
			return fallback
		}
		number = parsed
	default:
		return fallback
	}

	if number == 0 || math.IsNaN(number) || math.IsInf(number, 0) {
		return fallback
	}
	return number
}

func clamp(value, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, value))
}

func truncate(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit])
}

// Describe renders a result for debug logging
func Describe(result models.HotelRatingResult) string {
	return fmt.Sprintf("%s (%d sources, %d pros, %d cons)", result.HotelName, len(result.Sources), len(result.Summary.Pros), len(result.Summary.Cons))
}
