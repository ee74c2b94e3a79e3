package catalog

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/lewisedginton/shopping_assistant/pkg/logger"
)

// LoadCSV reads products from a CSV file with a header row containing at
// least product_id, product_name, description, price and category columns.
// Malformed rows are skipped with a warning rather than failing the load.
func LoadCSV(path string, log logger.Logger) ([]Product, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog CSV: %w", err)
	}
	defer f.Close()

	products, err := ReadCSV(f, log)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog CSV %s: %w", path, err)
	}
	return products, nil
}

// ReadCSV parses products from CSV data.
func ReadCSV(r io.Reader, log logger.Logger) ([]Product, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[name] = i
	}
	for _, required := range []string{"product_id", "product_name", "description", "price", "category"} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("missing required column %q", required)
		}
	}

	var products []Product
	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			if log != nil {
				log.Warn("Skipping malformed catalog row",
					logger.IntField("line", line),
					logger.ErrorField(err))
			}
			continue
		}

		id, idErr := strconv.Atoi(record[cols["product_id"]])
		price, priceErr := strconv.ParseFloat(record[cols["price"]], 64)
		if idErr != nil || priceErr != nil {
			if log != nil {
				log.Warn("Skipping catalog row with non-numeric id or price",
					logger.IntField("line", line))
			}
			continue
		}

		products = append(products, Product{
			ID:          id,
			Name:        record[cols["product_name"]],
			Description: record[cols["description"]],
			Price:       price,
			Category:    record[cols["category"]],
		})
	}

	if log != nil {
		log.Info("Loaded products from CSV", logger.IntField("count", len(products)))
	}
	return products, nil
}
