package prompt

import (
	"strings"
	"testing"

	"github.com/palma21/hotel-rating-fetcher/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuilder_Build_Deterministic(t *testing.T) {
	builder := NewBuilder([]string{"Booking.com", "Agoda"})
	location := &models.Location{City: "Paris", Country: "France"}

	first, err := builder.Build("Hotel Lutetia", location, []string{"agoda"})
	require.NoError(t, err)
	second, err := builder.Build("Hotel Lutetia", location, []string{"agoda"})
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestBuilder_Build_LocationClause(t *testing.T) {
	builder := NewBuilder(nil)

	tests := []struct {
		name     string
		location *models.Location
		expected bool
	}{
		{
			name:     "City and country",
			location: &models.Location{City: "Paris", Country: "France"},
			expected: true,
		},
		{
			name:     "No location",
			location: nil,
			expected: false,
		},
		{
			name:     "Missing country",
			location: &models.Location{City: "Paris"},
			expected: false,
		},
		{
			name:     "Blank city",
			location: &models.Location{City: "  ", Country: "France"},
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text, err := builder.Build("Hotel Lutetia", tt.location, nil)
			require.NoError(t, err)

			assert.Equal(t, tt.expected, strings.Contains(text, "located in"))
			if tt.expected {
				assert.Contains(t, text, `"Hotel Lutetia" located in Paris, France`)
				assert.Contains(t, text, "(Paris, France)")
			} else {
				assert.Contains(t, text, "(if provided)")
			}
		})
	}
}

func TestBuilder_Build_Contents(t *testing.T) {
	text, err := NewBuilder(nil).Build("Grand Hotel", nil, nil)
	require.NoError(t, err)

	assert.Contains(t, text, `"source": "Google Listing"`)
	assert.Contains(t, text, "https://www.google.com/search?q=Grand%20Hotel+hotels+reviews")
	assert.Contains(t, text, "4. Provide 2-3 most recent reviews from the Google Maps listing (limit to 3).")
	assert.Contains(t, text, "max 200 characters per review")
	assert.Contains(t, text, "12. If no reviews are found, set pros and cons as empty arrays.")
	assert.True(t, strings.HasSuffix(text, "Only return valid JSON, no additional text or explanations."))
	assert.NotContains(t, text, "13.")
}

func TestBuilder_Build_SecondarySources(t *testing.T) {
	builder := NewBuilder([]string{"Booking.com", "Agoda", "MakeMyTrip", "Google Listing"})

	tests := []struct {
		name     string
		exclude  []string
		included []string
		excluded []string
	}{
		{
			name:     "Nothing excluded",
			exclude:  nil,
			included: []string{"Booking.com, Agoda, MakeMyTrip"},
		},
		{
			name:     "Host site excluded",
			exclude:  []string{"booking.com"},
			included: []string{"Agoda, MakeMyTrip"},
			excluded: []string{"Booking.com"},
		},
		{
			name:     "Identifier without domain",
			exclude:  []string{"agoda", "makemytrip"},
			included: []string{"these review sites when the hotel is listed there: Booking.com."},
		},
		{
			name:    "Primary cannot be excluded",
			exclude: []string{"google listing"},
			included: []string{
				`"source": "Google Listing"`,
				"Booking.com, Agoda, MakeMyTrip",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text, err := builder.Build("Grand Hotel", nil, tt.exclude)
			require.NoError(t, err)

			for _, want := range tt.included {
				assert.Contains(t, text, want)
			}
			for _, unwanted := range tt.excluded {
				assert.NotContains(t, text, unwanted)
			}
		})
	}
}

func TestBuilder_Build_AllSecondaryExcluded(t *testing.T) {
	withSecondary, err := NewBuilder([]string{"Agoda"}).Build("Grand Hotel", nil, []string{"AGODA"})
	require.NoError(t, err)
	plain, err := NewBuilder(nil).Build("Grand Hotel", nil, nil)
	require.NoError(t, err)

	assert.Equal(t, plain, withSecondary)
}

func TestBuilder_Build_ExcludeOrderIndependent(t *testing.T) {
	builder := NewBuilder([]string{"Booking.com", "Agoda", "Goibibo"})

	a, err := builder.Build("Grand Hotel", nil, []string{"agoda", "goibibo"})
	require.NoError(t, err)
	b, err := builder.Build("Grand Hotel", nil, []string{"goibibo", "agoda"})
	require.NoError(t, err)

	assert.Equal(t, a, b)
}

func TestBuilder_Build_EmptyHotelName(t *testing.T) {
	_, err := NewBuilder(nil).Build("   ", nil, nil)
	assert.ErrorIs(t, err, ErrEmptyHotelName)
}
