package scrape

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/partdesk/server/internal/store"
	logx "github.com/partdesk/server/pkg/logger"
)

// Fetcher pulls part pages from the retail site when the catalog has no
// record. Live fetches are slow (seconds, not milliseconds) so callers
// should reach for this only after a catalog miss.
type Fetcher struct {
	baseURL string
	client  *http.Client
}

// NewFetcher builds a fetcher with a bounded request timeout.
func NewFetcher(baseURL string, timeout time.Duration) *Fetcher {
	return &Fetcher{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

// FetchPart retrieves and parses the product page for a PS number.
// The appliance type is left empty; classification happens separately.
func (f *Fetcher) FetchPart(ctx context.Context, ps string) (*store.Part, error) {
	url := fmt.Sprintf("%s/%s.htm", f.baseURL, strings.ToUpper(ps))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; partdesk/1.0)")

	start := time.Now()
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch part page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, store.ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch part page: unexpected status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse part page: %w", err)
	}

	part := parsePartPage(doc)
	part.PSNumber = strings.ToUpper(ps)
	if part.URL == "" {
		part.URL = url
	}
	if part.Name == "" {
		return nil, store.ErrNotFound
	}

	logx.Debug().
		Str("ps_number", part.PSNumber).
		Dur("elapsed", time.Since(start)).
		Msg("scraped live part page")
	return part, nil
}

func parsePartPage(doc *goquery.Document) *store.Part {
	part := &store.Part{}

	part.Name = strings.TrimSpace(doc.Find("h1[itemprop=name]").First().Text())
	if part.Name == "" {
		part.Name = strings.TrimSpace(doc.Find("h1").First().Text())
	}

	if v, ok := doc.Find("[itemprop=price]").First().Attr("content"); ok {
		if price, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			part.Price = price
		}
	} else {
		raw := strings.TrimSpace(doc.Find(".price").First().Text())
		raw = strings.TrimPrefix(raw, "$")
		if price, err := strconv.ParseFloat(raw, 64); err == nil {
			part.Price = price
		}
	}

	part.Brand = strings.TrimSpace(doc.Find("[itemprop=brand]").First().Text())
	part.ManufacturerNumber = strings.TrimSpace(doc.Find("[itemprop=mpn]").First().Text())
	part.Description = strings.TrimSpace(doc.Find("[itemprop=description]").First().Text())

	if v, ok := doc.Find("[itemprop=availability]").First().Attr("href"); ok {
		part.InStock = strings.Contains(v, "InStock")
	} else {
		stock := strings.ToLower(doc.Find(".availability").First().Text())
		part.InStock = strings.Contains(stock, "in stock")
	}

	if v, ok := doc.Find("link[rel=canonical]").First().Attr("href"); ok {
		part.URL = v
	}

	return part
}
