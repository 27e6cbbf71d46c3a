package suggest

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"bitbucket.org/mmdatafocus/inventory_review/config"
	"bitbucket.org/mmdatafocus/inventory_review/utils"
	"github.com/agnivade/levenshtein"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

const (
	deeliverLimit         = 20
	deeliverMinBarcodeLen = 6
	deeliverFuzzyCutoff   = 0.3
)

// DeeliverProduct is one row of the Deeliver catalog export.
type DeeliverProduct struct {
	Barcode      string          `json:"barcode"`
	ProductName  string          `json:"product_name"`
	Categories   string          `json:"categories"`
	SupplierName string          `json:"supplier_name"`
	RetailPrice  decimal.Decimal `json:"retail_price"`
}

// Deeliver searches a catalog CSV loaded once from blob storage.
type Deeliver struct {
	products []DeeliverProduct
	Limit    int
}

func NewDeeliver(products []DeeliverProduct) *Deeliver {
	return &Deeliver{products: products, Limit: deeliverLimit}
}

// LoadDeeliver reads the catalog at key. A missing or unreadable catalog
// gives an empty adapter, logged, rather than an error.
func LoadDeeliver(ctx context.Context, blobs utils.BlobStore, key string) *Deeliver {
	logger := config.GetLogger()
	data, err := blobs.Get(ctx, key)
	if err != nil {
		if errors.Is(err, utils.ErrBlobNotFound) {
			logger.WithFields(logrus.Fields{"field": "deeliver", "key": key}).Warn("deeliver catalog not found")
		} else {
			config.LogError(logger, "suggest", "LoadDeeliver", "Error loading catalog", key, err)
		}
		return NewDeeliver(nil)
	}
	products, err := ParseDeeliverCSV(bytes.NewReader(data))
	if err != nil {
		config.LogError(logger, "suggest", "LoadDeeliver", "Error parsing catalog", key, err)
		return NewDeeliver(nil)
	}
	logger.WithFields(logrus.Fields{"field": "deeliver", "key": key, "count": len(products)}).Info("deeliver catalog loaded")
	return NewDeeliver(products)
}

// ParseDeeliverCSV reads a catalog with a header row. Rows whose barcode is
// shorter than six characters are skipped.
func ParseDeeliverCSV(r io.Reader) ([]DeeliverProduct, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	index := map[string]int{}
	for i, name := range header {
		index[strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))] = i
	}
	field := func(rec []string, name string) string {
		i, ok := index[name]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	var products []DeeliverProduct
	for {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		barcode := field(rec, "barcode")
		if len(barcode) < deeliverMinBarcodeLen {
			continue
		}
		price, err := decimal.NewFromString(field(rec, "retail_price"))
		if err != nil {
			price = decimal.Zero
		}
		products = append(products, DeeliverProduct{
			Barcode:      barcode,
			ProductName:  field(rec, "product_name"),
			Categories:   field(rec, "categories"),
			SupplierName: field(rec, "supplier_name"),
			RetailPrice:  price,
		})
	}
	return products, nil
}

func (d *Deeliver) Name() string { return "deeliver" }

func (d *Deeliver) Suggest(_ context.Context, query string) []Candidate {
	found := d.Search(query)
	out := make([]Candidate, 0, len(found))
	for _, p := range found {
		price := p.RetailPrice
		out = append(out, Candidate{
			Name:        p.ProductName,
			Code:        p.Barcode,
			Price:       formatRand(price),
			PriceValue:  &price,
			Images:      []string{},
			Description: strings.Trim(strings.Join([]string{p.Categories, p.SupplierName}, " / "), " /"),
		})
	}
	return out
}

func (d *Deeliver) Details(_ context.Context, code string) *ProductDetails {
	for _, p := range d.products {
		if p.Barcode == code {
			price := p.RetailPrice
			return &ProductDetails{
				Barcode:    p.Barcode,
				Name:       p.ProductName,
				Brand:      p.SupplierName,
				Price:      formatRand(price),
				PriceValue: &price,
				Images:     []string{},
				Category:   p.Categories,
			}
		}
	}
	return nil
}

// Search returns products whose name contains every word of term, topped up
// with names close to term by edit distance.
func (d *Deeliver) Search(term string) []DeeliverProduct {
	limit := d.Limit
	if limit <= 0 {
		limit = deeliverLimit
	}
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return nil
	}
	words := strings.FieldsFunc(term, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_'
	})

	var results []DeeliverProduct
	taken := map[int]bool{}
	for i, p := range d.products {
		name := strings.ToLower(p.ProductName)
		if containsAll(name, words) {
			results = append(results, p)
			taken[i] = true
			if len(results) >= limit {
				return results
			}
		}
	}

	type scored struct {
		name  string
		score float64
	}
	seen := map[string]bool{}
	var nearby []scored
	for _, p := range d.products {
		if seen[p.ProductName] {
			continue
		}
		seen[p.ProductName] = true
		if s := similarity(term, strings.ToLower(p.ProductName)); s >= deeliverFuzzyCutoff {
			nearby = append(nearby, scored{name: p.ProductName, score: s})
		}
	}
	sort.SliceStable(nearby, func(i, j int) bool { return nearby[i].score > nearby[j].score })

	for _, match := range nearby {
		for i, p := range d.products {
			if taken[i] || p.ProductName != match.name {
				continue
			}
			results = append(results, p)
			taken[i] = true
			if len(results) >= limit {
				return results
			}
		}
	}
	return results
}

func containsAll(name string, words []string) bool {
	for _, w := range words {
		if !strings.Contains(name, w) {
			return false
		}
	}
	return true
}

// similarity is 1 - distance/longest, in [0, 1].
func similarity(a, b string) float64 {
	longest := max(utf8.RuneCountInString(a), utf8.RuneCountInString(b))
	if longest == 0 {
		return 1
	}
	return 1 - float64(levenshtein.ComputeDistance(a, b))/float64(longest)
}
