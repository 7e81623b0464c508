package form

// Flash messages set by successful actions.
const (
	FlashSuccess = "Success"
	FlashDeleted = "Promotion has been Deleted!"
)

// Fields are the single-promotion form fields, exactly as displayed.
type Fields struct {
	ID         string `json:"id"`
	Code       string `json:"code"`
	Percentage string `json:"percentage"`
	Products   string `json:"products"`
	StartDate  string `json:"startDate"`
	ExpiryDate string `json:"expiryDate"`
}

// ProductRow is one product line row of the apply panel. NewPrice stays
// empty until an apply response fills it.
type ProductRow struct {
	ProductID string `json:"productId"`
	Price     string `json:"price"`
	NewPrice  string `json:"newPrice"`
}

// ResultRow is one row of the search result table.
type ResultRow struct {
	ID         string `json:"id"`
	Code       string `json:"code"`
	Percentage string `json:"percentage"`
	StartDate  string `json:"startDate"`
	ExpiryDate string `json:"expiryDate"`
	Products   string `json:"products"`
}

// State is the complete view state of one console session.
type State struct {
	Fields           Fields       `json:"fields"`
	ApplyPromotionID string       `json:"applyPromotionId"`
	Rows             []ProductRow `json:"rows"`
	Results          []ResultRow  `json:"results"`
	Flash            string       `json:"flash"`
}

// RowInput is a submitted product line row.
type RowInput struct {
	ProductID string
	Price     string
}

// Input is everything a form submission carries.
type Input struct {
	Fields           Fields
	ApplyPromotionID string
	Rows             []RowInput
}

// clone returns a deep copy of s.
func (s State) clone() State {
	out := s
	out.Rows = append([]ProductRow(nil), s.Rows...)
	out.Results = append([]ResultRow(nil), s.Results...)
	return out
}

// clearDetails clears every field except the identifier.
func (s *State) clearDetails() {
	s.Fields = Fields{ID: s.Fields.ID}
}

// clearAll clears every field including the identifier.
func (s *State) clearAll() {
	s.Fields = Fields{}
}
