package suggest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"bitbucket.org/mmdatafocus/inventory_review/config"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

const (
	pnpBaseURL      = "https://www.pnp.co.za/pnphybris/v2/pnp-spa"
	pnpStoreCode    = "WC44"
	pnpDetailFields = "DEFAULT,productDetailsDisplayInfoResponse,quantityType,description,brand,brandSellerId,defaultUnitOfMeasure"
)

// PnP searches the Pick n Pay product API.
type PnP struct {
	BaseURL        string
	StoreCode      string
	MaxSuggestions int
	Client         *http.Client
	logger         *logrus.Logger
}

func NewPnP() *PnP {
	return &PnP{
		BaseURL:        pnpBaseURL,
		StoreCode:      pnpStoreCode,
		MaxSuggestions: 20,
		Client:         &http.Client{Timeout: 15 * time.Second},
		logger:         config.GetLogger(),
	}
}

func (p *PnP) Name() string { return "pnp" }

type pnpPrice struct {
	FormattedValue string          `json:"formattedValue"`
	Value          decimal.Decimal `json:"value"`
}

type pnpProduct struct {
	Name          string          `json:"name"`
	Code          string          `json:"code"`
	Description   string          `json:"description"`
	Brand         string          `json:"brand"`
	Barcode       string          `json:"barcode"`
	UnitOfMeasure string          `json:"defaultUnitOfMeasure"`
	Price         *pnpPrice       `json:"price"`
	Images        json.RawMessage `json:"images"`

	DisplayInfo struct {
		Infos []struct {
			Fields []struct {
				Name   string `json:"name"`
				Values []struct {
					Value string `json:"value"`
				} `json:"values"`
			} `json:"displayInfoFields"`
		} `json:"productDetailDisplayInfos"`
	} `json:"productDetailsDisplayInfoResponse"`
}

func (p *PnP) getJSON(ctx context.Context, endpoint string, params url.Values, dest any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json, text/plain, */*")
	req.Header.Set("Accept-Language", "en-GB,en;q=0.8")

	resp, err := p.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("received status code %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(dest)
}

func (p *PnP) Suggest(ctx context.Context, query string) []Candidate {
	params := url.Values{}
	params.Set("term", query)
	params.Set("maxSuggestions", fmt.Sprint(p.MaxSuggestions))
	params.Set("maxProducts", fmt.Sprint(p.MaxSuggestions))
	params.Set("storeCode", p.StoreCode)
	params.Set("lang", "en")
	params.Set("curr", "ZAR")

	var body struct {
		Products []pnpProduct `json:"products"`
	}
	if err := p.getJSON(ctx, strings.TrimRight(p.BaseURL, "/")+"/products/suggestions", params, &body); err != nil {
		config.LogError(p.logger, "suggest", "PnP.Suggest", "Failed to fetch product suggestions", query, err)
		return []Candidate{}
	}

	out := make([]Candidate, 0, len(body.Products))
	for _, prod := range body.Products {
		c := Candidate{
			Name:        prod.Name,
			Code:        prod.Code,
			Images:      parseImages(prod.Images),
			Description: prod.Description,
		}
		if prod.Price != nil {
			c.Price = prod.Price.FormattedValue
			v := prod.Price.Value
			c.PriceValue = &v
		}
		out = append(out, c)
	}
	return out
}

func (p *PnP) Details(ctx context.Context, code string) *ProductDetails {
	if code == "" {
		return nil
	}
	params := url.Values{}
	params.Set("fields", pnpDetailFields)
	params.Set("storeCode", p.StoreCode)
	params.Set("scope", "list")
	params.Set("lang", "en")
	params.Set("curr", "ZAR")

	var prod pnpProduct
	endpoint := strings.TrimRight(p.BaseURL, "/") + "/products/" + url.PathEscape(code)
	if err := p.getJSON(ctx, endpoint, params, &prod); err != nil {
		config.LogError(p.logger, "suggest", "PnP.Details", "Failed to fetch product details", code, err)
		return nil
	}

	details := &ProductDetails{
		Barcode:       prod.Barcode,
		Name:          prod.Name,
		Brand:         prod.Brand,
		UnitOfMeasure: prod.UnitOfMeasure,
		Images:        parseImages(prod.Images),
		Description:   prod.Description,
	}
	if details.Barcode == "" {
		details.Barcode = prod.displayBarcode()
	}
	if prod.Price != nil {
		details.Price = prod.Price.FormattedValue
		v := prod.Price.Value
		details.PriceValue = &v
	}
	return details
}

// displayBarcode digs the barcode out of the display info block, where the
// API puts it when the top-level field is missing.
func (prod pnpProduct) displayBarcode() string {
	for _, info := range prod.DisplayInfo.Infos {
		for _, field := range info.Fields {
			if field.Name == "Barcode" && len(field.Values) > 0 {
				return field.Values[0].Value
			}
		}
	}
	return ""
}

// parseImages accepts a list of image objects with a url, a list of strings
// or a single string.
func parseImages(raw json.RawMessage) []string {
	images := []string{}
	if len(raw) == 0 {
		return images
	}
	var single string
	if err := json.Unmarshal(raw, &single); err == nil {
		if single != "" {
			images = append(images, single)
		}
		return images
	}
	var list []json.RawMessage
	if err := json.Unmarshal(raw, &list); err != nil {
		return images
	}
	for _, item := range list {
		var s string
		if err := json.Unmarshal(item, &s); err == nil {
			if s != "" {
				images = append(images, s)
			}
			continue
		}
		var obj struct {
			URL string `json:"url"`
		}
		if err := json.Unmarshal(item, &obj); err == nil && obj.URL != "" {
			images = append(images, obj.URL)
		}
	}
	return images
}
