package provider

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"solhype/internal/domain"

	"go.opentelemetry.io/otel/trace"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(bytes.NewReader([]byte(body))),
		Header:     make(http.Header),
	}
}

func newTestProvider(fn roundTripFunc) *JupiterProvider {
	p := NewJupiterProvider(trace.NewNoopTracerProvider().Tracer("test"), JupiterOptions{
		BaseURL:       "http://example",
		Timeout:       time.Second,
		RatePerSecond: 1000,
	})
	p.client = &http.Client{Transport: fn}
	return p
}

const recentBody = `[
  {
    "id": "MintA", "name": "Alpha", "symbol": "ALP", "decimals": 6,
    "twitter": "https://x.com/alpha", "website": "https://alpha.xyz",
    "holderCount": 321, "organicScore": 81.5, "organicScoreLabel": "high",
    "tags": ["verified"], "mcap": 1500000, "usdPrice": 0.015, "liquidity": 42000,
    "audit": {"isSus": false, "mintAuthorityDisabled": true, "freezeAuthorityDisabled": true},
    "stats24h": {"priceChange": 0, "buyVolume": 1000, "sellVolume": 500}
  },
  {"id": "", "name": "NoMint"},
  {"id": "MintB", "name": "Beta", "symbol": "BET"},
  {"id": "MintC", "name": "Gamma", "symbol": "GAM", "audit": {"isSus": true}}
]`

func TestFetchRecentDecodes(t *testing.T) {
	t.Parallel()

	p := newTestProvider(func(req *http.Request) (*http.Response, error) {
		if req.URL.Path != "/tokens/v2/recent" {
			t.Errorf("unexpected path: %s", req.URL.Path)
		}
		if req.Header.Get("User-Agent") == "" || req.Header.Get("Accept") != "application/json" {
			t.Errorf("missing headers: %v", req.Header)
		}
		return jsonResponse(http.StatusOK, recentBody), nil
	})

	records, err := p.FetchRecent(context.Background(), 50)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected 3 records (one malformed skipped), got %d", len(records))
	}

	a := records[0]
	if a.Mint != "MintA" || a.Symbol != "ALP" || a.Decimals != 6 || a.HolderCount != 321 {
		t.Fatalf("unexpected identity fields: %+v", a)
	}
	if !a.MintAuthorityDisabled || !a.FreezeAuthorityDisabled || a.Suspicious {
		t.Fatalf("unexpected audit mapping: %+v", a)
	}
	if a.Socials.Twitter == "" || a.Socials.Website == "" {
		t.Fatalf("socials not mapped: %+v", a.Socials)
	}
	if a.PriceChange24h == nil || *a.PriceChange24h != 0 {
		t.Fatalf("zero price change should be present, got %v", a.PriceChange24h)
	}
	if a.Volume24h() != 1500 || a.MarketCap != 1_500_000 || a.Liquidity != 42_000 {
		t.Fatalf("unexpected metrics: %+v", a)
	}

	if records[1].PriceChange24h != nil {
		t.Fatal("missing stats should leave price change absent")
	}
	if !records[2].Suspicious {
		t.Fatal("suspicious flag not mapped")
	}
}

func TestFetchRecentTruncates(t *testing.T) {
	t.Parallel()

	p := newTestProvider(func(*http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusOK, recentBody), nil
	})
	records, err := p.FetchRecent(context.Background(), 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
}

func TestFetchRecentErrors(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		fn   roundTripFunc
		want error
	}{
		"empty list": {
			fn: func(*http.Request) (*http.Response, error) {
				return jsonResponse(http.StatusOK, `[]`), nil
			},
			want: domain.ErrNoResults,
		},
		"server error": {
			fn: func(*http.Request) (*http.Response, error) {
				return jsonResponse(http.StatusBadGateway, `bad gateway`), nil
			},
			want: domain.ErrProviderUnavailable,
		},
		"network error": {
			fn: func(*http.Request) (*http.Response, error) {
				return nil, errors.New("connection reset")
			},
			want: domain.ErrProviderUnavailable,
		},
		"garbage body": {
			fn: func(*http.Request) (*http.Response, error) {
				return jsonResponse(http.StatusOK, `<html>`), nil
			},
			want: domain.ErrProviderUnavailable,
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			p := newTestProvider(tc.fn)
			_, err := p.FetchRecent(context.Background(), 50)
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestFetchRecentTimeout(t *testing.T) {
	t.Parallel()

	p := newTestProvider(func(req *http.Request) (*http.Response, error) {
		<-req.Context().Done()
		return nil, req.Context().Err()
	})
	p.timeout = 20 * time.Millisecond

	start := time.Now()
	_, err := p.FetchRecent(context.Background(), 50)
	if !errors.Is(err, domain.ErrProviderUnavailable) {
		t.Fatalf("expected provider unavailable on timeout, got %v", err)
	}
	if time.Since(start) > 2*time.Second {
		t.Fatal("timeout not enforced")
	}
}

func TestCircuitBreakerOpens(t *testing.T) {
	t.Parallel()

	calls := 0
	p := newTestProvider(func(*http.Request) (*http.Response, error) {
		calls++
		return jsonResponse(http.StatusInternalServerError, `boom`), nil
	})

	for i := 0; i < 10; i++ {
		_, err := p.FetchRecent(context.Background(), 50)
		if !errors.Is(err, domain.ErrProviderUnavailable) {
			t.Fatalf("call %d: expected provider unavailable, got %v", i, err)
		}
	}
	if calls != 5 {
		t.Fatalf("breaker should stop calls after 5 failures, got %d", calls)
	}
}

func TestFetchByMint(t *testing.T) {
	t.Parallel()

	p := newTestProvider(func(req *http.Request) (*http.Response, error) {
		if req.URL.Path != "/tokens/v2/search" {
			t.Errorf("unexpected path: %s", req.URL.Path)
		}
		if q := req.URL.Query().Get("query"); q != "MintB" && q != "Missing" {
			t.Errorf("unexpected query: %s", q)
		}
		return jsonResponse(http.StatusOK, recentBody), nil
	})

	rec, err := p.FetchByMint(context.Background(), "MintB")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Symbol != "BET" {
		t.Fatalf("expected exact mint match, got %+v", rec)
	}

	if _, err := p.FetchByMint(context.Background(), "Missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestFetchByMintEmpty(t *testing.T) {
	t.Parallel()

	p := newTestProvider(func(*http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusOK, `[]`), nil
	})
	if _, err := p.FetchByMint(context.Background(), "MintX"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestSearch(t *testing.T) {
	t.Parallel()

	p := newTestProvider(func(req *http.Request) (*http.Response, error) {
		if !strings.Contains(req.URL.RawQuery, "query=alpha") || !strings.Contains(req.URL.RawQuery, "limit=1") {
			t.Errorf("unexpected query: %s", req.URL.RawQuery)
		}
		return jsonResponse(http.StatusOK, recentBody), nil
	})
	records, err := p.Search(context.Background(), "alpha", 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 1 || records[0].Mint != "MintA" {
		t.Fatalf("unexpected search result: %+v", records)
	}
}
