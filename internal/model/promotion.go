package model

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Promotion is a promotion record as returned by the Promotion Service.
// Dates are Unix epoch seconds.
type Promotion struct {
	ID         string   `json:"id"`
	Code       string   `json:"code"`
	Percentage float64  `json:"percentage"`
	Products   []string `json:"products"`
	StartDate  int64    `json:"start_date"`
	ExpiryDate int64    `json:"expiry_date"`
}

// PromotionInput is the create/update payload: a Promotion without its id.
type PromotionInput struct {
	Code       string     `json:"code"`
	Percentage Percentage `json:"percentage"`
	Products   []string   `json:"products"`
	StartDate  *int64     `json:"start_date,omitempty"`
	ExpiryDate *int64     `json:"expiry_date,omitempty"`
}

// Percentage holds the percentage exactly as typed. It is encoded as a
// JSON number when the text parses as one and as a JSON string otherwise,
// leaving range and format checks to the Promotion Service.
type Percentage string

// MarshalJSON implements json.Marshaler.
func (p Percentage) MarshalJSON() ([]byte, error) {
	text := strings.TrimSpace(string(p))
	if n, err := strconv.ParseFloat(text, 64); err == nil {
		return json.Marshal(n)
	}
	return json.Marshal(string(p))
}

// SplitProducts turns the comma separated products field into product ids.
// Items are trimmed and empty items are dropped.
func SplitProducts(text string) []string {
	products := make([]string, 0)
	for _, item := range strings.Split(text, ",") {
		item = strings.TrimSpace(item)
		if item != "" {
			products = append(products, item)
		}
	}
	return products
}

// JoinProducts renders product ids the way the products field displays them.
func JoinProducts(products []string) string {
	return strings.Join(products, ",")
}

// FormatPercentage renders a percentage without a trailing ".0".
func FormatPercentage(p float64) string {
	return strconv.FormatFloat(p, 'f', -1, 64)
}
