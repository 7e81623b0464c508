package main

import (
	"compress/gzip"
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
)

// Creates sample product line files for the console's import panel.
// batch1.csv has a header row, batch2.csv.gz is gzipped without one.
func main() {
	dataDir := "data/product-lines"

	// Create directory if it doesn't exist
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		log.Fatalf("Failed to create directory: %v", err)
	}

	files := map[string][][]string{
		"batch1.csv": {
			{"product_id", "price"},
			{"5612234", "10"},
			{"8516634", "24.99"},
			{"847153", "5.5"},
		},
		"batch2.csv.gz": {
			{"5612234", "12.00"},
			{"2219876", "100"},
		},
	}

	for filename, records := range files {
		filePath := filepath.Join(dataDir, filename)

		if err := createLineFile(filePath, records); err != nil {
			log.Fatalf("Failed to create %s: %v", filename, err)
		}

		fmt.Printf("Created %s with %d records\n", filePath, len(records))
	}

	fmt.Println("\nSample product line files created successfully!")
	fmt.Println("Import them from the console with source batch1.csv or batch2.csv.gz")
}

func createLineFile(filePath string, records [][]string) error {
	file, err := os.Create(filePath)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	var w io.Writer = file
	if strings.HasSuffix(filePath, ".gz") {
		gzipWriter := gzip.NewWriter(file)
		defer gzipWriter.Close()
		w = gzipWriter
	}

	csvWriter := csv.NewWriter(w)
	if err := csvWriter.WriteAll(records); err != nil {
		return fmt.Errorf("failed to write records: %w", err)
	}

	return nil
}
