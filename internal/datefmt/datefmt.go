// Package datefmt converts between displayed calendar dates and the Unix
// epoch seconds the Promotion Service stores. All arithmetic is done in
// UTC so a stored timestamp always displays as the date it was entered as.
package datefmt

import (
	"fmt"
	"strings"
	"time"
)

// DisplayLayout is the MM/DD/YYYY layout dates are shown in.
const DisplayLayout = "01/02/2006"

// inputLayouts are tried in order when parsing a typed date.
var inputLayouts = []string{
	DisplayLayout,
	"1/2/2006",
	"2006-01-02",
}

// DateToTimestamp parses a displayed date and returns the epoch seconds of
// UTC midnight on that calendar date.
func DateToTimestamp(display string) (int64, error) {
	text := strings.TrimSpace(display)
	for _, layout := range inputLayouts {
		t, err := time.ParseInLocation(layout, text, time.UTC)
		if err == nil {
			return t.Unix(), nil
		}
	}
	return 0, fmt.Errorf("invalid date %q: expected MM/DD/YYYY", display)
}

// TimestampToDate renders epoch seconds as MM/DD/YYYY using UTC calendar
// fields.
func TimestampToDate(epochSeconds int64) string {
	return time.Unix(epochSeconds, 0).UTC().Format(DisplayLayout)
}
