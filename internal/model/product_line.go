package model

// ProductLine is one (product id, price) pair of an apply request.
// Price is sent exactly as typed; the Promotion Service parses it.
type ProductLine struct {
	ProductID string `json:"product_id"`
	Price     string `json:"price"`
}

// ApplyRequest is the body of POST /promotions/{id}/apply.
type ApplyRequest struct {
	Products []ProductLine `json:"products"`
}

// AppliedProductResult is the discounted price for the product line at the
// same position in the request.
type AppliedProductResult struct {
	Price float64 `json:"price"`
}

// ApplyResponse is the body returned by POST /promotions/{id}/apply.
type ApplyResponse struct {
	Products []AppliedProductResult `json:"products"`
}
