package suggest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"regexp"
	"strings"
	"time"

	"bitbucket.org/mmdatafocus/inventory_review/config"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/html"
)

const (
	checkersBaseURL   = "https://www.checkers.co.za"
	checkersUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64)"
	checkersMaxResult = 10
)

var trailingComma = regexp.MustCompile(`,\s*([}\]])`)

// Checkers scrapes the Checkers website. Candidate codes are product page paths.
type Checkers struct {
	BaseURL string
	Client  *http.Client
	logger  *logrus.Logger
}

func NewCheckers() *Checkers {
	jar, _ := cookiejar.New(nil)
	return &Checkers{
		BaseURL: checkersBaseURL,
		Client:  &http.Client{Timeout: 20 * time.Second, Jar: jar},
		logger:  config.GetLogger(),
	}
}

func (c *Checkers) Name() string { return "checkers" }

func (c *Checkers) fetch(ctx context.Context, target string) (*html.Node, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", checkersUserAgent)
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := c.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("received status code %d", resp.StatusCode)
	}
	return html.Parse(resp.Body)
}

func (c *Checkers) Suggest(ctx context.Context, query string) []Candidate {
	base := strings.TrimRight(c.BaseURL, "/")
	// the landing page sets the session cookies the search page expects
	if _, err := c.fetch(ctx, base); err != nil {
		config.LogError(c.logger, "suggest", "Checkers.Suggest", "Failed to perform initial request", query, err)
		return []Candidate{}
	}
	doc, err := c.fetch(ctx, base+"/search/all?q="+url.QueryEscape(query))
	if err != nil {
		config.LogError(c.logger, "suggest", "Checkers.Suggest", "Failed to fetch search results", query, err)
		return []Candidate{}
	}
	return parseCheckersSearch(doc, c.logger)
}

func parseCheckersSearch(doc *html.Node, logger *logrus.Logger) []Candidate {
	out := []Candidate{}
	for _, frame := range findAll(doc, func(n *html.Node) bool {
		return isElement(n, "div") && hasClass(n, "product-frame")
	}) {
		if len(out) >= checkersMaxResult {
			break
		}
		var ga struct {
			Name  string          `json:"name"`
			Price decimal.Decimal `json:"price"`
		}
		if err := json.Unmarshal([]byte(attr(frame, "data-product-ga")), &ga); err != nil {
			logger.WithFields(logrus.Fields{"field": "checkers"}).Warn("JSON decode error for product data")
			continue
		}
		link := findFirst(frame, func(n *html.Node) bool {
			return isElement(n, "a") && attr(n, "href") != ""
		})
		if link == nil {
			continue
		}
		price := ga.Price
		out = append(out, Candidate{
			Name:       ga.Name,
			Code:       attr(link, "href"),
			Price:      formatRand(price),
			PriceValue: &price,
			Images:     []string{},
		})
	}
	return out
}

func (c *Checkers) Details(ctx context.Context, code string) *ProductDetails {
	if code == "" {
		return nil
	}
	target := code
	if !strings.HasPrefix(code, "http://") && !strings.HasPrefix(code, "https://") {
		target = strings.TrimRight(c.BaseURL, "/") + "/" + strings.TrimLeft(code, "/")
	}
	doc, err := c.fetch(ctx, target)
	if err != nil {
		config.LogError(c.logger, "suggest", "Checkers.Details", "Failed to fetch product details", code, err)
		return nil
	}
	return parseCheckersProduct(doc)
}

func parseCheckersProduct(doc *html.Node) *ProductDetails {
	details := &ProductDetails{Images: []string{}}

	if table := findFirst(doc, func(n *html.Node) bool {
		return isElement(n, "table") && hasClass(n, "pdp__product-information")
	}); table != nil {
		for _, row := range findAll(table, func(n *html.Node) bool { return isElement(n, "tr") }) {
			cols := findAll(row, func(n *html.Node) bool { return isElement(n, "td") })
			if len(cols) < 2 {
				continue
			}
			value := textOf(cols[1])
			switch textOf(cols[0]) {
			case "Main Barcode":
				details.Barcode = value
			case "Product Brand":
				details.Brand = value
			case "Unit of Measure":
				details.UnitOfMeasure = value
			}
		}
	}

	if n := findFirst(doc, func(n *html.Node) bool { return isElement(n, "h1") && hasClass(n, "pdp__name") }); n != nil {
		details.Name = textOf(n)
	}
	if n := findFirst(doc, func(n *html.Node) bool { return isElement(n, "span") && hasClass(n, "now") }); n != nil {
		raw := strings.TrimSpace(strings.ReplaceAll(textOf(n), "R", ""))
		if d, err := decimal.NewFromString(raw); err == nil {
			details.PriceValue = &d
			details.Price = formatRand(d)
		} else {
			details.Price = raw
		}
	}
	if n := findFirst(doc, func(n *html.Node) bool { return isElement(n, "div") && hasClass(n, "pdp__description") }); n != nil {
		details.Description = textOf(n)
	}

	for _, script := range findAll(doc, func(n *html.Node) bool { return isElement(n, "script") }) {
		category, image, ok := parseDataLayer(textOf(script))
		if ok {
			details.Category = category
			if image != "" {
				details.Images = append(details.Images, image)
			}
			break
		}
	}
	if len(details.Images) == 0 {
		if meta := findFirst(doc, func(n *html.Node) bool {
			return isElement(n, "meta") && attr(n, "property") == "og:image"
		}); meta != nil && attr(meta, "content") != "" {
			details.Images = append(details.Images, attr(meta, "content"))
		}
	}
	return details
}

// parseDataLayer extracts the product category and image from an analytics
// "dataLayer.push({...});" script. The payload is loose JS, not strict JSON.
func parseDataLayer(script string) (string, string, bool) {
	_, rest, found := strings.Cut(script, "dataLayer.push(")
	if !found {
		return "", "", false
	}
	payload, _, found := strings.Cut(rest, ");")
	if !found {
		return "", "", false
	}
	payload = strings.ReplaceAll(payload, "'", `"`)
	payload = trailingComma.ReplaceAllString(payload, "$1")

	var layer struct {
		Ecommerce struct {
			Detail struct {
				Products []struct {
					Category string `json:"category"`
					Image    string `json:"product_image_url"`
				} `json:"products"`
			} `json:"detail"`
		} `json:"ecommerce"`
	}
	if err := json.Unmarshal([]byte(payload), &layer); err != nil {
		return "", "", false
	}
	products := layer.Ecommerce.Detail.Products
	if len(products) == 0 {
		return "", "", false
	}
	return products[0].Category, products[0].Image, true
}

func isElement(n *html.Node, tag string) bool {
	return n.Type == html.ElementNode && n.Data == tag
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func hasClass(n *html.Node, class string) bool {
	for _, c := range strings.Fields(attr(n, "class")) {
		if c == class {
			return true
		}
	}
	return false
}

func findAll(root *html.Node, match func(*html.Node) bool) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if match(n) {
			out = append(out, n)
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(root)
	return out
}

func findFirst(root *html.Node, match func(*html.Node) bool) *html.Node {
	if match(root) {
		return root
	}
	for child := root.FirstChild; child != nil; child = child.NextSibling {
		if n := findFirst(child, match); n != nil {
			return n
		}
	}
	return nil
}

// textOf returns the node's text with whitespace runs collapsed.
func textOf(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
			sb.WriteByte(' ')
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(n)
	return strings.Join(strings.Fields(sb.String()), " ")
}
