package quotes

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	domain "github.com/pampa-analytics/riskfeed/internal/app/domain/quote"
)

func TestManualURLFetcher_JSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ua := r.Header.Get("User-Agent"); ua == "" {
			t.Error("expected a user agent header")
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"symbol":"AL30D.BA","price":50.25}`))
	}))
	defer server.Close()

	fetcher, err := NewManualURLFetcher(server.Client(), server.URL, nil)
	if err != nil {
		t.Fatalf("new fetcher: %v", err)
	}

	q, err := fetcher.Fetch(context.Background(), "AL30D.BA")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if q.Price != 50.25 {
		t.Errorf("price = %v, want 50.25", q.Price)
	}
	if q.Source != SourceManualURL {
		t.Errorf("source = %s, want %s", q.Source, SourceManualURL)
	}
}

func TestManualURLFetcher_JSONNestedPath(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":{"price":"1.234,50"}}`))
	}))
	defer server.Close()

	fetcher, err := NewManualURLFetcher(server.Client(), server.URL, nil)
	if err != nil {
		t.Fatalf("new fetcher: %v", err)
	}

	q, err := fetcher.Fetch(context.Background(), "AL30D.BA")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if q.Price != 1234.50 {
		t.Errorf("price = %v, want 1234.50", q.Price)
	}
}

func TestManualURLFetcher_HTMLScan(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(`<html><body><span class="quote">Último precio: 50,25 USD</span></body></html>`))
	}))
	defer server.Close()

	fetcher, err := NewManualURLFetcher(server.Client(), server.URL, nil)
	if err != nil {
		t.Fatalf("new fetcher: %v", err)
	}

	q, err := fetcher.Fetch(context.Background(), "AL30D.BA")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if q.Price != 50.25 {
		t.Errorf("price = %v, want 50.25", q.Price)
	}
}

func TestManualURLFetcher_NoPriceFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body>market closed</body></html>`))
	}))
	defer server.Close()

	fetcher, err := NewManualURLFetcher(server.Client(), server.URL, nil)
	if err != nil {
		t.Fatalf("new fetcher: %v", err)
	}

	_, err = fetcher.Fetch(context.Background(), "AL30D.BA")
	if !errors.Is(err, domain.ErrUnavailable) {
		t.Errorf("error = %v, want ErrUnavailable", err)
	}
}

func TestManualURLFetcher_UpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	fetcher, err := NewManualURLFetcher(server.Client(), server.URL, nil)
	if err != nil {
		t.Fatalf("new fetcher: %v", err)
	}

	_, err = fetcher.Fetch(context.Background(), "AL30D.BA")
	if !errors.Is(err, domain.ErrUnavailable) {
		t.Errorf("error = %v, want ErrUnavailable", err)
	}
}

func TestNewManualURLFetcher_RejectsBadURL(t *testing.T) {
	if _, err := NewManualURLFetcher(nil, "", nil); err == nil {
		t.Error("empty url should be rejected")
	}
	if _, err := NewManualURLFetcher(nil, "ftp://example.com/x", nil); err == nil {
		t.Error("non-http scheme should be rejected")
	}
}

func TestParseLocalizedNumber(t *testing.T) {
	cases := []struct {
		in      string
		want    float64
		wantErr bool
	}{
		{in: "50.25", want: 50.25},
		{in: "50,25", want: 50.25},
		{in: "1,234.56", want: 1234.56},
		{in: "1.234,56", want: 1234.56},
		{in: "1,234", want: 1234},
		{in: "12,5", want: 12.5},
		{in: "", wantErr: true},
		{in: "abc", wantErr: true},
	}

	for _, tc := range cases {
		got, err := parseLocalizedNumber(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Errorf("parseLocalizedNumber(%q) expected error", tc.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("parseLocalizedNumber(%q) error = %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("parseLocalizedNumber(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}
