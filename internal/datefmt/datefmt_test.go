package datefmt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDateToTimestamp(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		expected    int64
		expectError bool
	}{
		{
			name:     "Epoch",
			input:    "01/01/1970",
			expected: 0,
		},
		{
			name:     "Zero padded",
			input:    "03/09/2019",
			expected: 1552089600,
		},
		{
			name:     "Not zero padded",
			input:    "3/9/2019",
			expected: 1552089600,
		},
		{
			name:     "ISO date input",
			input:    "2019-03-09",
			expected: 1552089600,
		},
		{
			name:     "Surrounding whitespace",
			input:    "  12/31/2020 ",
			expected: 1609372800,
		},
		{
			name:        "Empty",
			input:       "",
			expectError: true,
		},
		{
			name:        "Not a date",
			input:       "tomorrow",
			expectError: true,
		},
		{
			name:        "Impossible day",
			input:       "02/30/2021",
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts, err := DateToTimestamp(tt.input)
			if tt.expectError {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, ts)
		})
	}
}

func TestTimestampToDate(t *testing.T) {
	assert.Equal(t, "01/01/1970", TimestampToDate(0))
	assert.Equal(t, "03/09/2019", TimestampToDate(1552089600))

	// Late in the UTC day still belongs to the same calendar date.
	assert.Equal(t, "03/09/2019", TimestampToDate(1552089600+23*3600+59*60))
}

func TestRoundTrip(t *testing.T) {
	// Run in a far-from-UTC zone to catch any local time leaking in.
	original := time.Local
	time.Local = time.FixedZone("UTC-11", -11*3600)
	defer func() { time.Local = original }()

	day := time.Date(1999, time.December, 25, 0, 0, 0, 0, time.UTC)
	end := time.Date(2031, time.March, 1, 0, 0, 0, 0, time.UTC)
	for ; day.Before(end); day = day.AddDate(0, 0, 7) {
		display := day.Format(DisplayLayout)
		ts, err := DateToTimestamp(display)
		require.NoError(t, err)
		assert.Equal(t, display, TimestampToDate(ts))
	}

	for _, display := range []string{"02/29/2024", "12/31/1969", "01/01/2038"} {
		ts, err := DateToTimestamp(display)
		require.NoError(t, err)
		assert.Equal(t, display, TimestampToDate(ts), display)
	}
}
