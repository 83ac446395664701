package models

import (
	"net/url"
	"strings"
)

// ReviewsSearchURL builds the Google search link used when the model does not
// supply one.
func ReviewsSearchURL(hotelName string) string {
	return "https://www.google.com/search?q=" + EncodeURIComponent(hotelName) + "+hotels+reviews"
}

// EncodeURIComponent escapes s the way browsers do for a single URI component:
// spaces become %20 and !'()* are left alone.
func EncodeURIComponent(s string) string {
	escaped := url.QueryEscape(s)
	return strings.NewReplacer(
		"+", "%20",
		"%21", "!",
		"%27", "'",
		"%28", "(",
		"%29", ")",
		"%2A", "*",
	).Replace(escaped)
}
