package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/mcmanyika/cashround-sub000/utils"
)

const defaultPriceTTL = 60 * time.Second

// PriceQuote is one token/USD observation.
type PriceQuote struct {
	USD       float64   `json:"usd"`
	Source    string    `json:"source"`
	FetchedAt time.Time `json:"fetched_at"`
}

// PriceClient fetches the token/USD rate from an ordered list of upstream
// APIs with a short-lived in-memory cache. A full cascade failure yields the
// static fallback rate so callers never block on pricing.
type PriceClient struct {
	URLs       []string
	Fallback   float64
	TTL        time.Duration
	HTTPClient *http.Client

	mu     sync.Mutex
	cached PriceQuote
	valid  bool
}

// NewPriceClient reads PRICE_API_URLS (comma-separated, tried in order) and
// PRICE_FALLBACK_USD from the environment.
func NewPriceClient() *PriceClient {
	var urls []string
	for _, u := range strings.Split(os.Getenv("PRICE_API_URLS"), ",") {
		if u = strings.TrimSpace(u); u != "" {
			urls = append(urls, u)
		}
	}

	fallback := 1.0
	if raw := os.Getenv("PRICE_FALLBACK_USD"); raw != "" {
		if f, err := strconv.ParseFloat(raw, 64); err == nil && f > 0 {
			fallback = f
		} else {
			log.Printf("⚠️  Ignoring bad PRICE_FALLBACK_USD=%q", raw)
		}
	}

	return &PriceClient{
		URLs:       urls,
		Fallback:   fallback,
		TTL:        defaultPriceTTL,
		HTTPClient: utils.HTTPClient,
	}
}

// Quote returns the current rate, serving the cached value inside the TTL.
// Fallback quotes are never cached, so a recovered upstream wins on the next
// call.
func (p *PriceClient) Quote(ctx context.Context) PriceQuote {
	p.mu.Lock()
	if p.valid && time.Since(p.cached.FetchedAt) < p.TTL {
		q := p.cached
		p.mu.Unlock()
		return q
	}
	p.mu.Unlock()

	for _, url := range p.URLs {
		rate, err := p.fetchOne(ctx, url)
		if err != nil {
			log.Printf("[PRICE] ⚠️ upstream %s failed: %v", url, err)
			continue
		}

		q := PriceQuote{USD: rate, Source: url, FetchedAt: time.Now().UTC()}
		p.mu.Lock()
		p.cached = q
		p.valid = true
		p.mu.Unlock()
		return q
	}

	return PriceQuote{USD: p.Fallback, Source: "fallback", FetchedAt: time.Now().UTC()}
}

func (p *PriceClient) fetchOne(ctx context.Context, url string) (float64, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return 0, err
	}

	resp, err := p.HTTPClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("status %d", resp.StatusCode)
	}

	// Upstreams disagree on the field name; accept the common ones.
	var body struct {
		Price float64 `json:"price"`
		USD   float64 `json:"usd"`
		Rate  float64 `json:"rate"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return 0, err
	}

	switch {
	case body.Price > 0:
		return body.Price, nil
	case body.USD > 0:
		return body.USD, nil
	case body.Rate > 0:
		return body.Rate, nil
	}
	return 0, fmt.Errorf("no usable rate in response")
}

// GetPrice handles GET /api/price.
func (p *PriceClient) GetPrice(c *fiber.Ctx) error {
	return c.JSON(p.Quote(c.Context()))
}
