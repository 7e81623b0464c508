// Package lineimport loads product line rows from CSV files, optionally
// gzipped, held on the local file system or in S3.
package lineimport

import (
	"compress/gzip"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"promo-console/internal/model"
)

// Loader defines the interface for loading product line files.
type Loader interface {
	// Load reads a product line file and returns its lines in file order.
	Load(ctx context.Context, path string) ([]model.ProductLine, error)
}

// ParseError names the record of a product line file that could not be read.
type ParseError struct {
	Line int
	Msg  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Msg)
}

// parse reads product_id,price records from r. A first record whose first
// column is "product_id" is treated as a header. Paths ending in .gz are
// gunzipped first.
func parse(ctx context.Context, path string, r io.Reader) ([]model.ProductLine, error) {
	if strings.HasSuffix(strings.ToLower(path), ".gz") {
		gzipReader, err := gzip.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("failed to create gzip reader for %s: %w", path, err)
		}
		defer gzipReader.Close()
		r = gzipReader
	}

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	lines := make([]model.ProductLine, 0)
	for record := 0; ; record++ {
		if record%10_000 == 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			default:
			}
		}

		fields, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var csvErr *csv.ParseError
			if errors.As(err, &csvErr) {
				return nil, &ParseError{Line: csvErr.Line, Msg: csvErr.Err.Error()}
			}
			return nil, fmt.Errorf("error reading %s: %w", path, err)
		}

		line, _ := reader.FieldPos(0)
		if record == 0 && strings.EqualFold(strings.TrimSpace(fields[0]), "product_id") {
			continue
		}

		if len(fields) != 2 {
			return nil, &ParseError{Line: line, Msg: fmt.Sprintf("expected product_id,price but found %d columns", len(fields))}
		}

		lines = append(lines, model.ProductLine{
			ProductID: strings.TrimSpace(fields[0]),
			Price:     strings.TrimSpace(fields[1]),
		})
	}

	return lines, nil
}
