package catalog

import (
	"encoding/csv"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
)

// Product is one catalog row. Category-specific fields are empty for
// categories they do not apply to; the filter treats empty as "attribute
// not applicable, skip constraint".
type Product struct {
	ID             string  `json:"product_id"`
	Name           string  `json:"name"`
	Category       string  `json:"category"`
	Price          float64 `json:"price"`
	AvailableSizes []string `json:"available_sizes"`
	Fit            string  `json:"fit,omitempty"`
	Fabric         string  `json:"fabric,omitempty"`
	Color          string  `json:"color_or_print,omitempty"`
	SleeveLength   string  `json:"sleeve_length,omitempty"`
	Neckline       string  `json:"neckline,omitempty"`
	Length         string  `json:"length,omitempty"`
	PantType       string  `json:"pant_type,omitempty"`
	Occasion       string  `json:"occasion,omitempty"`
}

// LoadCSV reads the product table. Column order is header-driven and
// category-specific columns may be missing entirely. A row with an
// unparseable price fails the load: serving from a partially corrupt
// catalog is worse than refusing to start.
func LoadCSV(path string) ([]Product, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog '%s': %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog '%s': %w", path, err)
	}
	if len(rows) < 1 {
		return nil, fmt.Errorf("catalog '%s' has no header row", path)
	}

	col := make(map[string]int, len(rows[0]))
	for i, h := range rows[0] {
		key := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(h)), " ", "_")
		key = strings.ReplaceAll(key, "/", "_")
		col[key] = i
	}
	field := func(row []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var products []Product
	for n, row := range rows[1:] {
		p := Product{
			ID:           field(row, "product_id"),
			Name:         field(row, "name"),
			Category:     strings.ToLower(field(row, "category")),
			Fit:          field(row, "fit"),
			Fabric:       field(row, "fabric"),
			Color:        field(row, "color"),
			SleeveLength: field(row, "sleeve_length"),
			Neckline:     field(row, "neckline"),
			Length:       field(row, "length"),
			PantType:     field(row, "pant_type"),
			Occasion:     field(row, "occasion"),
		}
		if p.Color == "" {
			p.Color = field(row, "color_or_print")
		}
		if p.ID == "" {
			return nil, fmt.Errorf("catalog '%s' row %d: missing product_id", path, n+2)
		}

		priceText := field(row, "price")
		price, err := strconv.ParseFloat(priceText, 64)
		if err != nil {
			return nil, fmt.Errorf("catalog '%s' row %d: bad price %q: %w", path, n+2, priceText, err)
		}
		p.Price = price

		for _, s := range strings.Split(field(row, "available_sizes"), ",") {
			if s = strings.TrimSpace(s); s != "" {
				p.AvailableSizes = append(p.AvailableSizes, s)
			}
		}

		products = append(products, p)
	}

	sort.Slice(products, func(i, j int) bool { return products[i].ID < products[j].ID })
	return products, nil
}

// Summary aggregates catalog statistics for the status endpoint.
type Summary struct {
	TotalProducts int            `json:"total_products"`
	Categories    map[string]int `json:"categories"`
	MinPrice      float64        `json:"min_price"`
	MaxPrice      float64        `json:"max_price"`
}

func Summarize(products []Product) Summary {
	s := Summary{Categories: make(map[string]int)}
	s.TotalProducts = len(products)
	for i, p := range products {
		s.Categories[p.Category]++
		if i == 0 || p.Price < s.MinPrice {
			s.MinPrice = p.Price
		}
		if p.Price > s.MaxPrice {
			s.MaxPrice = p.Price
		}
	}
	return s
}
