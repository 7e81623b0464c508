package form

import (
	"fmt"
	"strings"

	"promo-console/internal/datefmt"
	"promo-console/internal/model"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var validate = validator.New()

// idInput is an identifier typed into the form.
type idInput struct {
	ID string `validate:"required"`
}

// sourceInput is a product line file typed into the import panel.
type sourceInput struct {
	Source string `validate:"required,max=1024"`
}

// requireID returns the trimmed identifier or ErrMissingPromotionID.
func requireID(raw string) (string, error) {
	in := idInput{ID: strings.TrimSpace(raw)}
	if err := validate.Struct(in); err != nil {
		return "", model.ErrMissingPromotionID
	}
	return in.ID, nil
}

// requireSource returns the trimmed import source or ErrMissingSource.
func requireSource(raw string) (string, error) {
	in := sourceInput{Source: strings.TrimSpace(raw)}
	if err := validate.Struct(in); err != nil {
		return "", model.ErrMissingSource
	}
	return in.Source, nil
}

// promotionInput builds the create/update payload from the form fields.
func promotionInput(f Fields) (model.PromotionInput, error) {
	start, err := optionalDate("start date", f.StartDate)
	if err != nil {
		return model.PromotionInput{}, err
	}

	expiry, err := optionalDate("expiry date", f.ExpiryDate)
	if err != nil {
		return model.PromotionInput{}, err
	}

	return model.PromotionInput{
		Code:       f.Code,
		Percentage: model.Percentage(f.Percentage),
		Products:   model.SplitProducts(f.Products),
		StartDate:  start,
		ExpiryDate: expiry,
	}, nil
}

// optionalDate converts a typed date, returning nil for an empty field.
func optionalDate(label, text string) (*int64, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	ts, err := datefmt.DateToTimestamp(text)
	if err != nil {
		return nil, model.NewInputError(model.ErrCodeInvalidDate,
			fmt.Sprintf("Invalid %s %q: use MM/DD/YYYY", label, text))
	}
	return &ts, nil
}

// fieldsFrom renders a promotion into form fields.
func fieldsFrom(p *model.Promotion) Fields {
	return Fields{
		ID:         p.ID,
		Code:       p.Code,
		Percentage: model.FormatPercentage(p.Percentage),
		Products:   model.JoinProducts(p.Products),
		StartDate:  datefmt.TimestampToDate(p.StartDate),
		ExpiryDate: datefmt.TimestampToDate(p.ExpiryDate),
	}
}

// resultRowFrom renders a promotion into a search result row.
func resultRowFrom(p model.Promotion) ResultRow {
	f := fieldsFrom(&p)
	return ResultRow{
		ID:         f.ID,
		Code:       f.Code,
		Percentage: f.Percentage,
		StartDate:  f.StartDate,
		ExpiryDate: f.ExpiryDate,
		Products:   f.Products,
	}
}

// BuildProductLines returns one product line per row, in row order,
// without deduplication or validation.
func BuildProductLines(rows []ProductRow) []model.ProductLine {
	lines := make([]model.ProductLine, len(rows))
	for i, row := range rows {
		lines[i] = model.ProductLine{ProductID: row.ProductID, Price: row.Price}
	}
	return lines
}

// FormatPrice renders a price with exactly two decimal places.
func FormatPrice(price float64) string {
	return decimal.NewFromFloat(price).StringFixed(2)
}
