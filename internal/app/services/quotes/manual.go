package quotes

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	domain "github.com/pampa-analytics/riskfeed/internal/app/domain/quote"
	"github.com/pampa-analytics/riskfeed/internal/httputil"
	"github.com/pampa-analytics/riskfeed/pkg/logger"
)

// manualBodyLimit bounds how much of a profile page is read. Quote profile
// pages and broker JSON endpoints are far smaller than this.
const manualBodyLimit = 2 << 20

// defaultPricePaths lists the JSON keys probed, in order, when a manual URL
// returns a JSON document.
var defaultPricePaths = []string{
	"price",
	"last",
	"lastPrice",
	"regularMarketPrice",
	"data.price",
	"quote.price",
	"result.price",
}

// numberPattern matches decimal tokens in either 1,234.56 or 1.234,56 form.
var numberPattern = regexp.MustCompile(`[0-9]{1,6}(?:[.,][0-9]{3})*[.,][0-9]{1,4}`)

// ManualURLFetcher retrieves a price from a user-supplied profile URL. JSON
// responses are probed with a list of candidate paths; HTML responses fall
// back to scanning for the first plausible decimal token.
type ManualURLFetcher struct {
	client *http.Client
	target *url.URL
	paths  []string
	log    *logger.Logger
}

// NewManualURLFetcher constructs a fetcher for the given profile URL.
func NewManualURLFetcher(client *http.Client, rawURL string, log *logger.Logger) (*ManualURLFetcher, error) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return nil, fmt.Errorf("manual quote url required")
	}
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse manual quote url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("manual quote url must be http or https")
	}
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	if log == nil {
		log = logger.NewDefault("quotes-manual")
	}
	return &ManualURLFetcher{
		client: client,
		target: parsed,
		paths:  defaultPricePaths,
		log:    log,
	}, nil
}

// WithPaths overrides the JSON paths probed for the price.
func (f *ManualURLFetcher) WithPaths(paths ...string) {
	if len(paths) > 0 {
		f.paths = paths
	}
}

// URL reports the configured profile URL.
func (f *ManualURLFetcher) URL() string { return f.target.String() }

func (f *ManualURLFetcher) Fetch(ctx context.Context, symbol string) (domain.Quote, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.target.String(), nil)
	if err != nil {
		return domain.Quote{}, fmt.Errorf("build manual quote request: %w", err)
	}
	// Quote profile pages tend to reject the default Go user agent.
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; riskfeed/1.0)")
	req.Header.Set("Accept", "application/json, text/html;q=0.9, */*;q=0.8")

	resp, err := f.client.Do(req)
	if err != nil {
		f.log.WithError(err).WithField("url", f.target.Host).Warn("manual quote request failed")
		return domain.Quote{}, fmt.Errorf("manual quote request: %w", domain.ErrUnavailable)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return domain.Quote{}, fmt.Errorf("manual quote status %d: %w", resp.StatusCode, domain.ErrUnavailable)
	}

	body, err := httputil.ReadAllStrict(resp.Body, manualBodyLimit)
	if err != nil {
		return domain.Quote{}, fmt.Errorf("read manual quote body: %w", err)
	}

	price, ok := f.extractPrice(body)
	if !ok {
		return domain.Quote{}, fmt.Errorf("no price found at %s: %w", f.target.Host, domain.ErrUnavailable)
	}

	return domain.Quote{
		Symbol:     symbol,
		Price:      price,
		Source:     SourceManualURL,
		ObservedAt: time.Now().UTC(),
	}, nil
}

func (f *ManualURLFetcher) extractPrice(body []byte) (float64, bool) {
	if gjson.ValidBytes(body) {
		for _, path := range f.paths {
			result := gjson.GetBytes(body, path)
			if !result.Exists() {
				continue
			}
			if price, ok := resultToPrice(result); ok {
				return price, true
			}
		}
		return 0, false
	}

	for _, token := range numberPattern.FindAllString(string(body), 64) {
		if price, err := parseLocalizedNumber(token); err == nil && plausiblePrice(price) {
			return price, true
		}
	}
	return 0, false
}

func resultToPrice(result gjson.Result) (float64, bool) {
	switch result.Type {
	case gjson.Number:
		if plausiblePrice(result.Num) {
			return result.Num, true
		}
	case gjson.String:
		if price, err := parseLocalizedNumber(result.Str); err == nil && plausiblePrice(price) {
			return price, true
		}
	}
	return 0, false
}

// parseLocalizedNumber accepts both 1,234.56 and 1.234,56 notations. When
// both separators appear, the last one is taken as the decimal separator.
func parseLocalizedNumber(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty number")
	}

	lastDot := strings.LastIndex(s, ".")
	lastComma := strings.LastIndex(s, ",")
	switch {
	case lastDot >= 0 && lastComma >= 0:
		if lastComma > lastDot {
			s = strings.ReplaceAll(s, ".", "")
			s = strings.Replace(s, ",", ".", 1)
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case lastComma >= 0:
		// A lone comma is a decimal separator unless it reads as a
		// thousands group.
		if len(s)-lastComma-1 == 3 && lastComma > 0 {
			s = strings.ReplaceAll(s, ",", "")
		} else {
			s = strings.Replace(s, ",", ".", 1)
		}
	}

	return strconv.ParseFloat(s, 64)
}

func plausiblePrice(v float64) bool {
	return v > 0 && v < 1e6
}
