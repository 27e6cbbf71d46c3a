package suggest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"bitbucket.org/mmdatafocus/inventory_review/config"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

var (
	ErrUnknownSource       = errors.New("unknown suggestion source")
	ErrDetailsNotSupported = errors.New("source does not provide product details")
)

// Candidate is one possible match returned by a catalog search.
type Candidate struct {
	Name        string           `json:"name"`
	Code        string           `json:"code"`
	Price       string           `json:"price"`
	PriceValue  *decimal.Decimal `json:"price_value,omitempty"`
	Images      []string         `json:"images"`
	Description string           `json:"description"`
}

// ProductDetails is the full catalog entry behind a candidate code.
type ProductDetails struct {
	Barcode       string           `json:"barcode"`
	Name          string           `json:"name"`
	Brand         string           `json:"brand"`
	UnitOfMeasure string           `json:"unit_of_measure,omitempty"`
	Price         string           `json:"price"`
	PriceValue    *decimal.Decimal `json:"price_value,omitempty"`
	Images        []string         `json:"images"`
	Category      string           `json:"category,omitempty"`
	Description   string           `json:"description"`
}

// Adapter searches one external catalog. Suggest never fails: a dead catalog
// yields an empty list so the review loop keeps going.
type Adapter interface {
	Name() string
	Suggest(ctx context.Context, query string) []Candidate
}

// DetailFetcher is implemented by adapters that can resolve a candidate code.
// Details returns nil when the lookup fails.
type DetailFetcher interface {
	Details(ctx context.Context, code string) *ProductDetails
}

// Registry routes lookups to adapters by name and caches search results in
// Redis when it is connected.
type Registry struct {
	adapters map[string]Adapter
	order    []string
	cacheTTL time.Duration
	logger   *logrus.Logger
}

func NewRegistry(cacheTTL time.Duration) *Registry {
	return &Registry{
		adapters: map[string]Adapter{},
		cacheTTL: cacheTTL,
		logger:   config.GetLogger(),
	}
}

func (r *Registry) Register(a Adapter) {
	name := strings.ToLower(a.Name())
	if _, ok := r.adapters[name]; !ok {
		r.order = append(r.order, name)
	}
	r.adapters[name] = a
}

// Names lists the registered sources in registration order.
func (r *Registry) Names() []string {
	return append([]string(nil), r.order...)
}

func (r *Registry) adapter(source string) (Adapter, error) {
	a, ok := r.adapters[strings.ToLower(strings.TrimSpace(source))]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSource, source)
	}
	return a, nil
}

func cacheKey(source, query string) string {
	return "suggest:" + strings.ToLower(source) + ":" + strings.ToLower(strings.TrimSpace(query))
}

// Suggest returns the candidates of one source. Only an unknown source is an error.
func (r *Registry) Suggest(ctx context.Context, source, query string) ([]Candidate, error) {
	a, err := r.adapter(source)
	if err != nil {
		return nil, err
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return []Candidate{}, nil
	}

	key := cacheKey(a.Name(), query)
	var cached []Candidate
	if r.cacheTTL > 0 {
		found, err := config.GetRedisObject(ctx, key, &cached)
		if err != nil {
			r.logger.WithFields(logrus.Fields{"field": "suggest", "key": key}).Warn("suggestion cache read failed: " + err.Error())
		}
		if found {
			return cached, nil
		}
	}

	candidates := a.Suggest(ctx, query)
	if candidates == nil {
		candidates = []Candidate{}
	}
	r.logger.WithFields(logrus.Fields{
		"field":  "suggest",
		"source": a.Name(),
		"query":  query,
		"count":  len(candidates),
	}).Debug("suggestions fetched")

	if r.cacheTTL > 0 && len(candidates) > 0 {
		if err := config.SetRedisObject(ctx, key, candidates, r.cacheTTL); err != nil {
			r.logger.WithFields(logrus.Fields{"field": "suggest", "key": key}).Warn("suggestion cache write failed: " + err.Error())
		}
	}
	return candidates, nil
}

// Details resolves code through source. A nil result with a nil error means
// the source was reachable in principle but had nothing for code.
func (r *Registry) Details(ctx context.Context, source, code string) (*ProductDetails, error) {
	a, err := r.adapter(source)
	if err != nil {
		return nil, err
	}
	fetcher, ok := a.(DetailFetcher)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrDetailsNotSupported, a.Name())
	}
	return fetcher.Details(ctx, strings.TrimSpace(code)), nil
}

func formatRand(d decimal.Decimal) string {
	return "R" + d.StringFixed(2)
}
